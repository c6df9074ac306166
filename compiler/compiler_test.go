package compiler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/takomusic/mfs/internal/config"
	"github.com/takomusic/mfs/internal/diag"
)

const minimalScore = `
export fn main() -> Score {
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
`

func TestCheckValidEntryProducesNoDiagnostics(t *testing.T) {
	files := Files{"/main.mfs": minimalScore}
	result := Check(files, "/main.mfs", config.Default())
	assert.Empty(t, result.Diagnostics)
	require.NotNil(t, result.Program)
}

func TestCheckSyntaxErrorReported(t *testing.T) {
	files := Files{"/main.mfs": `fn main( {`}
	result := Check(files, "/main.mfs", config.Default())
	assert.NotEmpty(t, result.Diagnostics)
}

func TestCheckMissingEntryReportsModuleNotFound(t *testing.T) {
	result := Check(Files{}, "/main.mfs", config.Default())
	require.Len(t, result.Diagnostics, 1)
	assert.Equal(t, diag.CodeModuleNotFound, result.Diagnostics[0].Code)
}

func TestCompileValidScoreProducesIR(t *testing.T) {
	files := Files{"/main.mfs": minimalScore}
	result := Compile(context.Background(), files, "/main.mfs", config.Default())
	require.True(t, result.Success)
	require.NotNil(t, result.IR)
	require.Len(t, result.IR.TempoMap, 1)
	assert.Equal(t, 120.0, result.IR.TempoMap[0].BPM)
	require.Len(t, result.IR.Tracks, 1)
	require.Len(t, result.IR.Tracks[0].Placements, 1)
}

func TestCompileValidationErrorStopsBeforeEvaluation(t *testing.T) {
	src := `
fn main() -> Score {
	return score {
		sound "piano" kind bogus { }
	};
}
`
	result := Compile(context.Background(), Files{"/main.mfs": src}, "/main.mfs", config.Default())
	assert.False(t, result.Success)
	assert.Nil(t, result.IR)

	var codes []diag.Code
	for _, d := range result.Diagnostics {
		codes = append(codes, d.Code)
	}
	assert.Contains(t, codes, diag.CodeInvalidSoundKind)
}

func TestCompileEvaluationErrorSurfacesRealDiagnosticCode(t *testing.T) {
	src := `
export fn main() -> Score {
	return score {
		tempo { 1:1 -> 120bpm; }
		meter { 1:1 -> 4/4; }
		sound "piano" kind instrument { }
		track "Piano" role Instrument sound "piano" {
			place 1:1 clip {
				note(C-2, 1/4);
			};
		}
	};
}
`
	result := Compile(context.Background(), Files{"/main.mfs": src}, "/main.mfs", config.Default())
	assert.False(t, result.Success)
	assert.Nil(t, result.IR)

	var codes []diag.Code
	for _, d := range result.Diagnostics {
		codes = append(codes, d.Code)
	}
	assert.Contains(t, codes, diag.CodePitchOutOfRange)
	assert.NotContains(t, codes, diag.CodeMainReturnedNonScore)
}

func TestParseOnlyReturnsProgram(t *testing.T) {
	prog, diags := ParseOnly(`const x = 1 + 2;`)
	assert.Empty(t, diags)
	require.NotNil(t, prog)
	assert.Len(t, prog.Body, 1)
}

func TestParseOnlyReportsSyntaxError(t *testing.T) {
	_, diags := ParseOnly(`fn main( {`)
	assert.NotEmpty(t, diags)
}
