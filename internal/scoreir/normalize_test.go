package scoreir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/takomusic/mfs/internal/diag"
	"github.com/takomusic/mfs/internal/rat"
	"github.com/takomusic/mfs/internal/source"
	"github.com/takomusic/mfs/internal/value"
)

func newReporter() *diag.Reporter {
	return diag.NewReporter(source.NewSet())
}

func TestNormalizeMinimalScoreDefaults(t *testing.T) {
	sc := &value.Score{
		Tracks: []value.Track{
			{
				Name: "Piano", Role: "Instrument", Sound: "piano",
				Placements: []value.Placement{
					{
						At: value.ExplicitPos(rat.Zero),
						Clip: value.Clip{
							Events: []value.Event{
								{Kind: value.EventNote, Start: rat.Zero, End: rat.MustNew(1, 4), Pitches: []int{60}, Velocity: 100},
							},
						},
					},
				},
			},
		},
	}
	reporter := newReporter()
	ir := Normalize(sc, reporter, "mfs-test", "deadbeef")

	require.Len(t, ir.TempoMap, 1)
	assert.Equal(t, RatJSON{N: 0, D: 1}, ir.TempoMap[0].At)
	assert.Equal(t, 120.0, ir.TempoMap[0].BPM)

	require.Len(t, ir.MeterMap, 1)
	assert.Equal(t, 4, ir.MeterMap[0].Numerator)
	assert.Equal(t, 4, ir.MeterMap[0].Denominator)

	require.Len(t, ir.Tracks, 1)
	require.Len(t, ir.Tracks[0].Placements, 1)
	clip := ir.Tracks[0].Placements[0].Clip
	require.Len(t, clip.Events, 1)
	assert.Equal(t, "note", clip.Events[0].Type)
	assert.Equal(t, []int{60}, clip.Events[0].Pitches)
	assert.Equal(t, RatJSON{N: 1, D: 4}, clip.Length)

	codes := map[diag.Code]bool{}
	for _, d := range reporter.Diagnostics() {
		codes[d.Code] = true
	}
	assert.True(t, codes[diag.CodeMeterMapSynthesized])
	assert.True(t, codes[diag.CodeTempoMapSynthesized])
}

func TestNormalizeResolvesBarBeatPositions(t *testing.T) {
	sc := &value.Score{
		MeterMap: []value.MeterEntry{{At: value.RefPos(1, 1, -1), Numerator: 4, Denominator: 4}},
		TempoMap: []value.TempoEntry{{At: value.RefPos(1, 1, -1), BPM: 120}},
		Tracks: []value.Track{
			{
				Name: "Piano", Role: "Instrument", Sound: "piano",
				Placements: []value.Placement{
					// bar 2, beat 1 == one full 4/4 bar in = 1 whole note
					{At: value.RefPos(2, 1, -1), Clip: value.Clip{
						Events: []value.Event{{Kind: value.EventNote, Start: rat.Zero, End: rat.MustNew(1, 4), Pitches: []int{60}}},
					}},
				},
			},
		},
	}
	reporter := newReporter()
	ir := Normalize(sc, reporter, "mfs-test", "deadbeef")

	placement := ir.Tracks[0].Placements[0]
	assert.Equal(t, RatJSON{N: 1, D: 1}, placement.At)
	assert.Equal(t, RatJSON{N: 1, D: 1}, placement.Clip.Events[0].Start)
	assert.Equal(t, RatJSON{N: 5, D: 4}, placement.Clip.Events[0].End)
}

func TestNormalizeBeatOutOfRangeReported(t *testing.T) {
	sc := &value.Score{
		MeterMap: []value.MeterEntry{{At: value.RefPos(1, 1, -1), Numerator: 4, Denominator: 4}},
		Markers:  []value.Marker{{At: value.RefPos(1, 5, -1), Kind: "cue", Label: "oops"}},
	}
	reporter := newReporter()
	Normalize(sc, reporter, "mfs-test", "deadbeef")

	var codes []diag.Code
	for _, d := range reporter.Diagnostics() {
		codes = append(codes, d.Code)
	}
	assert.Contains(t, codes, diag.CodeBeatOutOfRange)
}

func TestNormalizeMeterChangeNotAtBarStartReported(t *testing.T) {
	sc := &value.Score{
		MeterMap: []value.MeterEntry{
			{At: value.RefPos(1, 1, -1), Numerator: 4, Denominator: 4},
			{At: value.RefPos(2, 2, -1), Numerator: 3, Denominator: 4},
		},
	}
	reporter := newReporter()
	Normalize(sc, reporter, "mfs-test", "deadbeef")

	var codes []diag.Code
	for _, d := range reporter.Diagnostics() {
		codes = append(codes, d.Code)
	}
	assert.Contains(t, codes, diag.CodeMeterNotAtBarStart)
}

func TestNormalizeExplicitMeterChangeNotAtBarStartReported(t *testing.T) {
	sc := &value.Score{
		MeterMap: []value.MeterEntry{
			{At: value.ExplicitPos(rat.Zero), Numerator: 4, Denominator: 4},
			// One whole bar of 4/4 is 1/1; landing at 5/4 is a quarter
			// note into the second bar, not on a bar boundary.
			{At: value.ExplicitPos(rat.MustNew(5, 4)), Numerator: 3, Denominator: 4},
		},
	}
	reporter := newReporter()
	Normalize(sc, reporter, "mfs-test", "deadbeef")

	var codes []diag.Code
	for _, d := range reporter.Diagnostics() {
		codes = append(codes, d.Code)
	}
	assert.Contains(t, codes, diag.CodeMeterNotAtBarStart)
}

func TestNormalizeExplicitMeterChangeAtBarStartNotReported(t *testing.T) {
	sc := &value.Score{
		MeterMap: []value.MeterEntry{
			{At: value.ExplicitPos(rat.Zero), Numerator: 4, Denominator: 4},
			// Two whole 4/4 bars later (2/1) is exactly a bar boundary.
			{At: value.ExplicitPos(rat.MustNew(2, 1)), Numerator: 3, Denominator: 4},
		},
	}
	reporter := newReporter()
	Normalize(sc, reporter, "mfs-test", "deadbeef")

	var codes []diag.Code
	for _, d := range reporter.Diagnostics() {
		codes = append(codes, d.Code)
	}
	assert.NotContains(t, codes, diag.CodeMeterNotAtBarStart)
}

func TestNormalizeSortsEventsWithinClip(t *testing.T) {
	sc := &value.Score{
		Tracks: []value.Track{
			{
				Name: "Drums", Role: "Drums", Sound: "kit",
				Placements: []value.Placement{
					{At: value.ExplicitPos(rat.Zero), Clip: value.Clip{
						Events: []value.Event{
							{Kind: value.EventHit, Start: rat.MustNew(1, 4), End: rat.MustNew(1, 2), Name: "snare"},
							{Kind: value.EventHit, Start: rat.Zero, End: rat.MustNew(1, 4), Name: "kick"},
						},
					}},
				},
			},
		},
	}
	reporter := newReporter()
	ir := Normalize(sc, reporter, "mfs-test", "deadbeef")

	events := ir.Tracks[0].Placements[0].Clip.Events
	require.Len(t, events, 2)
	assert.Equal(t, "kick", events[0].Name)
	assert.Equal(t, "snare", events[1].Name)
}

func TestNormalizeExplicitClipLengthPreserved(t *testing.T) {
	explicit := rat.MustNew(2, 1)
	sc := &value.Score{
		Tracks: []value.Track{
			{
				Name: "Piano", Role: "Instrument", Sound: "piano",
				Placements: []value.Placement{
					{At: value.ExplicitPos(rat.Zero), Clip: value.Clip{
						Events: []value.Event{{Kind: value.EventNote, Start: rat.Zero, End: rat.MustNew(1, 4), Pitches: []int{60}}},
						Length: &explicit,
					}},
				},
			},
		},
	}
	reporter := newReporter()
	ir := Normalize(sc, reporter, "mfs-test", "deadbeef")
	assert.Equal(t, RatJSON{N: 2, D: 1}, ir.Tracks[0].Placements[0].Clip.Length)
}

func TestNormalizeMetaAndSoundFieldsConverted(t *testing.T) {
	sc := &value.Score{
		Meta: map[string]value.Value{"title": value.String{V: "Demo"}},
		Sounds: []value.Sound{
			{ID: "piano", Kind: "instrument", Fields: map[string]value.Value{"patch": value.Int{V: 1}}},
		},
	}
	reporter := newReporter()
	ir := Normalize(sc, reporter, "mfs-test", "deadbeef")
	assert.Equal(t, "Demo", ir.Meta["title"])
	require.Len(t, ir.Sounds, 1)
	assert.Equal(t, int64(1), ir.Sounds[0].Fields["patch"])
}
