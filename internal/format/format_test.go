package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatNoDiagnosticsOnValidSource(t *testing.T) {
	out, diags := Format(`const   x=1+2;`)
	require.Empty(t, diags)
	assert.Equal(t, "const x = 1 + 2;\n", out)
}

func TestFormatIsIdempotent(t *testing.T) {
	src := `
export fn transpose(clip, semitones = 0) -> Score {
	let y = clip;
	if semitones > 0 {
		y = y;
	} else if semitones < 0 {
		y = y;
	} else {
		y = y;
	}
	return y;
}
`
	once, diags := Format(src)
	require.Empty(t, diags)
	twice, diags2 := Format(once)
	require.Empty(t, diags2)
	assert.Equal(t, once, twice)
}

func TestFormatImports(t *testing.T) {
	out, diags := Format(`
import { a, b } from "./lib.mfs";
import * as theory from "std:theory";
fn main() {}
`)
	require.Empty(t, diags)
	assert.Equal(t, `import { a, b } from "./lib.mfs";
import * as theory from "std:theory";

fn main() {
}
`, out)
}

func TestFormatEnumAndConst(t *testing.T) {
	out, diags := Format(`enum Role{Lead,Bass}
export const tempo=120;`)
	require.Empty(t, diags)
	assert.Equal(t, `enum Role {
  Lead,
  Bass,
}

export const tempo = 120;
`, out)
}

func TestFormatBinaryPrecedencePreservesGrouping(t *testing.T) {
	out, diags := Format(`const x = (1 + 2) * 3;`)
	require.Empty(t, diags)
	assert.Equal(t, "const x = (1 + 2) * 3;\n", out)
}

func TestFormatBinaryPrecedenceOmitsRedundantParens(t *testing.T) {
	out, diags := Format(`const x = 1 + 2 * 3;`)
	require.Empty(t, diags)
	assert.Equal(t, "const x = 1 + 2 * 3;\n", out)
}

func TestFormatForLoop(t *testing.T) {
	out, diags := Format(`fn f() { for i in 0..=4 { let x = i; } }`)
	require.Empty(t, diags)
	assert.Equal(t, `fn f() {
  for i in 0..=4 {
    let x = i;
  }
}
`, out)
}

func TestFormatPitchAndDurationLiterals(t *testing.T) {
	out, diags := Format(`const p = F#3;
const d = 1/4;`)
	require.Empty(t, diags)
	assert.Equal(t, "const p = F#3;\n\nconst d = 1/4;\n", out)
}

func TestFormatScoreBlock(t *testing.T) {
	src := `
fn main() -> Score {
	return score {
		meta {
			title "Demo";
		}
		tempo { 1:1 -> 120bpm; }
		meter { 1:1 -> 4/4; }
		sound "piano" kind instrument { }
		track "Piano" role Instrument sound "piano" {
			place 1:1 clip {
				note(C4, 1/4);
				rest(1/4);
				chord([C4, E4, G4], 1/2, velocity: 90);
				hit(kick, 1/8);
				cc(1, 64);
				automation(pan, 0.5);
				marker("verse");
			};
		}
		marker 2:1 "cue" "drop";
	};
}
`
	out, diags := Format(src)
	require.Empty(t, diags)
	assert.Equal(t, `fn main() -> Score {
  return score {
    meta {
      title "Demo";
    }
    tempo {
      1:1 -> 120bpm;
    }
    meter {
      1:1 -> 4/4;
    }
    sound "piano" kind instrument {
    }
    track "Piano" role Instrument sound "piano" {
      place 1:1 clip {
        note(C4, 1/4);
        rest(1/4);
        chord([C4, E4, G4], 1/2, velocity: 90);
        hit(kick, 1/8);
        cc(1, 64);
        automation(pan, 0.5);
        marker("verse");
      };
    }
    marker 2:1 "cue" "drop";
  };
}
`, out)
}

func TestFormatMatchExpr(t *testing.T) {
	out, diags := Format(`const x = match n { 1 => "one", else => "many" };`)
	require.Empty(t, diags)
	assert.Equal(t, `const x = match n { 1 => "one", else => "many" };
`, out)
}

func TestFormatArrowFnExpressionBody(t *testing.T) {
	out, diags := Format(`const f = (x) => x + 1;`)
	require.Empty(t, diags)
	assert.Equal(t, "const f = (x) => x + 1;\n", out)
}

func TestFormatTemplateLiteral(t *testing.T) {
	out, diags := Format("const s = `hello ${name}!`;")
	require.Empty(t, diags)
	assert.Equal(t, "const s = `hello ${name}!`;\n", out)
}

func TestFormatNilProgramPrintsEmpty(t *testing.T) {
	assert.Equal(t, "\n", FormatProgram(nil))
}

func TestFormatSyntaxErrorStillReturnsPartialOutput(t *testing.T) {
	_, diags := Format(`fn main( {`)
	assert.NotEmpty(t, diags)
}
