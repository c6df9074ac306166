package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/takomusic/mfs/internal/config"
	"github.com/takomusic/mfs/internal/diag"
	"github.com/takomusic/mfs/internal/module"
	"github.com/takomusic/mfs/internal/source"
	"github.com/takomusic/mfs/internal/value"
)

// memFS is an in-memory module.FileSystem fixture, keyed by canonical path.
type memFS map[string]string

func (m memFS) ReadFile(path string) (string, error) {
	if text, ok := m[path]; ok {
		return text, nil
	}
	return "", assertNotFoundErr(path)
}

type notFoundErr string

func (e notFoundErr) Error() string { return "not found: " + string(e) }

func assertNotFoundErr(path string) error { return notFoundErr(path) }

// runEntry loads and evaluates the entry module "/main.mfs" from fs,
// returning its main() result and any diagnostics reported along the way.
func runEntry(t *testing.T, fs memFS) (*value.Score, error, *diag.Reporter) {
	t.Helper()
	files := source.NewSet()
	reporter := diag.NewReporter(files)
	loader := module.NewLoader(fs, files, reporter)
	ev := NewEvaluator(loader, reporter, config.Default())
	score, err := ev.EvaluateEntry("/main.mfs")
	return score, err, reporter
}

func TestEvaluateEntryMinimalScore(t *testing.T) {
	fs := memFS{"/main.mfs": `
export fn main() -> Score {
	return score { };
}
`}
	score, err, reporter := runEntry(t, fs)
	require.NoError(t, err)
	require.Empty(t, reporter.Diagnostics())
	assert.NotNil(t, score)
	assert.Empty(t, score.Tracks)
}

func TestEvaluateEntryMissingMain(t *testing.T) {
	fs := memFS{"/main.mfs": `
export const tempo = 120;
`}
	_, err, _ := runEntry(t, fs)
	require.Error(t, err)
	rt, ok := err.(*rtErr)
	require.True(t, ok)
	assert.Equal(t, diag.CodeMainNotFound, rt.Code)
}

func TestEvaluateEntryMainReturnsNonScore(t *testing.T) {
	fs := memFS{"/main.mfs": `
export fn main() {
	return 42;
}
`}
	_, err, _ := runEntry(t, fs)
	require.Error(t, err)
	rt, ok := err.(*rtErr)
	require.True(t, ok)
	assert.Equal(t, diag.CodeMainReturnedNonScore, rt.Code)
}

func TestEvaluateEntryFullScore(t *testing.T) {
	fs := memFS{"/main.mfs": `
export fn main() -> Score {
	return score {
		meta { title "Test"; }
		tempo { 1:1 -> 120bpm; }
		meter { 1:1 -> 4/4; }
		sound "piano" kind instrument { }
		track "Piano" role Instrument sound "piano" {
			place 1:1 clip {
				note(C4, 1/4);
				rest(1/4);
				chord([C4, E4, G4], 1/2);
			};
		}
		marker 1:1 "rehearsal" "Intro";
	};
}
`}
	score, err, reporter := runEntry(t, fs)
	require.NoError(t, err)
	require.Empty(t, reporter.Diagnostics())
	require.Len(t, score.Tracks, 1)
	require.Len(t, score.Tracks[0].Placements, 1)
	events := score.Tracks[0].Placements[0].Clip.Events
	require.Len(t, events, 3)
	assert.Equal(t, value.EventNote, events[0].Kind)
	assert.Equal(t, defaultVelocity, events[0].Velocity)
	assert.Equal(t, value.EventRest, events[1].Kind)
	assert.Equal(t, value.EventChord, events[2].Kind)
	assert.Len(t, events[2].Pitches, 3)
	require.Len(t, score.Markers, 1)
	assert.Equal(t, "Intro", score.Markers[0].Label)
}

func TestImportNamedBinding(t *testing.T) {
	fs := memFS{
		"/lib.mfs": `
export const base = 5;
export fn double(x) { return x * 2; }
`,
		"/main.mfs": `
import { base, double } from "./lib.mfs";
export fn main() {
	return double(base);
}
`,
	}
	// main() here returns an Int, not a Score, so EvaluateEntry reports
	// MainReturnedNonScore after successfully running the body; assert on
	// that to prove the import/call chain itself evaluated correctly.
	_, err, _ := runEntry(t, fs)
	require.Error(t, err)
	rt, ok := err.(*rtErr)
	require.True(t, ok)
	assert.Equal(t, diag.CodeMainReturnedNonScore, rt.Code)
}

func TestImportNamespaceBinding(t *testing.T) {
	fs := memFS{
		"/lib.mfs": `export const x = 1;`,
		"/main.mfs": `
import * as lib from "./lib.mfs";
export fn main() {
	return lib.x;
}
`,
	}
	_, err, _ := runEntry(t, fs)
	require.Error(t, err)
	rt, ok := err.(*rtErr)
	require.True(t, ok)
	assert.Equal(t, diag.CodeMainReturnedNonScore, rt.Code)
}

func TestImportMissingExportReported(t *testing.T) {
	fs := memFS{
		"/lib.mfs":  `const secret = 1;`,
		"/main.mfs": `import { secret } from "./lib.mfs"; fn main() {}`,
	}
	_, err, _ := runEntry(t, fs)
	require.Error(t, err)
	rt, ok := err.(*rtErr)
	require.True(t, ok)
	assert.Equal(t, diag.CodeExportNotFound, rt.Code)
}

func TestCircularImportDetected(t *testing.T) {
	fs := memFS{
		"/a.mfs":    `import { x } from "./b.mfs"; export const y = 1;`,
		"/b.mfs":    `import { y } from "./a.mfs"; export const x = 1;`,
		"/main.mfs": `import { y } from "./a.mfs"; fn main() {}`,
	}
	_, err, _ := runEntry(t, fs)
	require.Error(t, err)
	rt, ok := err.(*rtErr)
	require.True(t, ok)
	assert.Equal(t, diag.CodeCircularImport, rt.Code)
}

func TestStdImportTransformConcat(t *testing.T) {
	fs := memFS{"/main.mfs": `
import * as transform from "std:transform";
export fn main() -> Score {
	let a = clip { note(C4, 1/4); };
	let b = clip { note(D4, 1/4); };
	let merged = transform.concat(a, b);
	return score {
		sound "piano" kind instrument { }
		track "Piano" role Instrument sound "piano" {
			place 1:1 merged;
		}
	};
}
`}
	score, err, reporter := runEntry(t, fs)
	require.NoError(t, err)
	require.Empty(t, reporter.Diagnostics())
	events := score.Tracks[0].Placements[0].Clip.Events
	require.Len(t, events, 2)
	assert.True(t, events[0].Start.IsZero())
	assert.False(t, events[1].Start.Equal(events[0].Start))
}

func TestStdImportCurvesLinear(t *testing.T) {
	fs := memFS{"/main.mfs": `
import * as curves from "std:curves";
export fn main() {
	return curves.linear(0, 10, 3);
}
`}
	_, err, _ := runEntry(t, fs)
	require.Error(t, err)
	rt, ok := err.(*rtErr)
	require.True(t, ok)
	// main() returns an Array, not a Score: the call itself must have
	// succeeded for evaluation to reach the return-type check at all.
	assert.Equal(t, diag.CodeMainReturnedNonScore, rt.Code)
}

func TestForLoopConstBoundRequired(t *testing.T) {
	fs := memFS{"/main.mfs": `
export fn main() {
	let n = 3;
	for i in 0..n {
	}
}
`}
	_, err, _ := runEntry(t, fs)
	require.Error(t, err)
	rt, ok := err.(*rtErr)
	require.True(t, ok)
	assert.Equal(t, diag.CodeForBoundsNotConst, rt.Code)
}

func TestForLoopConstBoundSucceeds(t *testing.T) {
	fs := memFS{"/main.mfs": `
const n = 3;
export fn main() -> Score {
	for i in 0..n {
	}
	return score { };
}
`}
	_, err, reporter := runEntry(t, fs)
	require.NoError(t, err)
	assert.Empty(t, reporter.Diagnostics())
}

func TestRecursionLimitExceeded(t *testing.T) {
	fs := memFS{"/main.mfs": `
fn loop(n) {
	return loop(n + 1);
}
export fn main() {
	return loop(0);
}
`}
	_, err, _ := runEntry(t, fs)
	require.Error(t, err)
	rt, ok := err.(*rtErr)
	require.True(t, ok)
	assert.Equal(t, diag.CodeRecursionLimitExceeded, rt.Code)
}

func TestPitchArithmeticOutOfRangeReported(t *testing.T) {
	fs := memFS{"/main.mfs": `
export fn main() {
	return G9 + 20;
}
`}
	_, err, _ := runEntry(t, fs)
	require.Error(t, err)
	rt, ok := err.(*rtErr)
	require.True(t, ok)
	assert.Equal(t, diag.CodePitchOutOfRange, rt.Code)
}
