package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/takomusic/mfs/internal/diag"
	"github.com/takomusic/mfs/internal/lexer"
	"github.com/takomusic/mfs/internal/parser"
	"github.com/takomusic/mfs/internal/source"
)

func validateSrc(t *testing.T, src string) []diag.Diagnostic {
	t.Helper()
	f := source.NewFile(0, "t.mfs", src)
	toks, lexErrs := lexer.New(f).Tokenize()
	require.Empty(t, lexErrs)
	prog, parseErrs := parser.Parse(toks, f, 100)
	require.Empty(t, parseErrs)
	files := source.NewSet()
	reporter := diag.NewReporter(files)
	Validate(prog, reporter)
	return reporter.Diagnostics()
}

func codesOf(diags []diag.Diagnostic) []diag.Code {
	var out []diag.Code
	for _, d := range diags {
		out = append(out, d.Code)
	}
	return out
}

func TestDuplicateSoundID(t *testing.T) {
	diags := validateSrc(t, `
fn main() -> Score {
	return score {
		sound "piano" kind instrument { }
		sound "piano" kind instrument { }
	};
}
`)
	assert.Contains(t, codesOf(diags), diag.CodeDuplicateSoundID)
}

func TestInvalidSoundKind(t *testing.T) {
	diags := validateSrc(t, `
fn main() -> Score {
	return score {
		sound "x" kind synth { }
	};
}
`)
	assert.Contains(t, codesOf(diags), diag.CodeInvalidSoundKind)
}

func TestUndefinedSoundReference(t *testing.T) {
	diags := validateSrc(t, `
fn main() -> Score {
	return score {
		track "Lead" role Instrument sound "missing" {
		}
	};
}
`)
	assert.Contains(t, codesOf(diags), diag.CodeUndefinedSound)
}

func TestNonPositiveMeterNumerator(t *testing.T) {
	diags := validateSrc(t, `
fn main() -> Score {
	return score {
		meter { 1:1 -> 0/4; }
	};
}
`)
	assert.Contains(t, codesOf(diags), diag.CodeNonPositiveDuration)
}

func TestBadMeterDenominator(t *testing.T) {
	diags := validateSrc(t, `
fn main() -> Score {
	return score {
		meter { 1:1 -> 4/3; }
	};
}
`)
	assert.Contains(t, codesOf(diags), diag.CodeBadMeterDenominator)
}

func TestNonPositiveTempo(t *testing.T) {
	diags := validateSrc(t, `
fn main() -> Score {
	return score {
		tempo { 1:1 -> 0bpm; }
	};
}
`)
	assert.Contains(t, codesOf(diags), diag.CodeNonPositiveDuration)
}

func TestCCControllerOutOfRange(t *testing.T) {
	diags := validateSrc(t, `
fn main() {
	let c = clip {
		cc(200, 0.5);
	};
}
`)
	assert.Contains(t, codesOf(diags), diag.CodeCCOutOfRange)
}

func TestNonPositiveNoteDuration(t *testing.T) {
	diags := validateSrc(t, `
fn main() {
	let c = clip {
		note(C4, 0);
	};
}
`)
	assert.Contains(t, codesOf(diags), diag.CodeNonPositiveDuration)
}

func TestPositionalArgAfterNamed(t *testing.T) {
	diags := validateSrc(t, `
fn main() {
	return make(velocity: 10, C4);
}
`)
	assert.Contains(t, codesOf(diags), diag.CodePositionalArgAfterNamed)
}

func TestDuplicateNamedArg(t *testing.T) {
	diags := validateSrc(t, `
fn main() {
	return make(velocity: 10, velocity: 20);
}
`)
	assert.Contains(t, codesOf(diags), diag.CodeDuplicateNamedArg)
}

func TestLetAtModuleScopeFlagged(t *testing.T) {
	diags := validateSrc(t, `
let x = 1;

fn main() {
	return x;
}
`)
	assert.Contains(t, codesOf(diags), diag.CodeLetAtModuleScope)
}

func TestValidScoreProducesNoDiagnostics(t *testing.T) {
	diags := validateSrc(t, `
fn main() -> Score {
	return score {
		tempo { 1:1 -> 120bpm; }
		meter { 1:1 -> 4/4; }
		sound "piano" kind instrument { }
		track "Piano" role Instrument sound "piano" {
			place 1:1 clip {
				note(C4, 1/4);
			};
		}
	};
}
`)
	assert.Empty(t, diags)
}
