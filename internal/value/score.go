package value

import "github.com/takomusic/mfs/internal/rat"

// Score is the evaluator's output for a `score { ... }` expression: a
// partially-resolved document holding unresolved Pos values
// everywhere the source text used a symbolic bar:beat reference.
// internal/scoreir.Normalize turns this into a fully-resolved ScoreIR.
type Score struct {
	Meta     map[string]Value
	TempoMap []TempoEntry
	MeterMap []MeterEntry
	Sounds   []Sound
	Tracks   []Track
	Markers  []Marker
}

type TempoEntry struct {
	At   Pos
	BPM  float64
	Unit *rat.Rat // note-value the BPM counts, as a fraction of a whole note; nil means the default quarter (1/4)
}

type MeterEntry struct {
	At          Pos
	Numerator   int
	Denominator int
}

type Sound struct {
	ID     string
	Kind   string
	Fields map[string]Value
}

type Track struct {
	Name       string
	Role       string
	Sound      string
	Placements []Placement
}

type Placement struct {
	At   Pos
	Clip Clip
}

type Marker struct {
	At    Pos
	Kind  string
	Label string
}

// Clip is the evaluator's output for a `clip { ... }` expression: a
// sequence of events positioned relative to the clip's own start,
// produced by walking clip statements while maintaining a
// statement-level cursor (spec §4.G).
type Clip struct {
	Events []Event
	Length *rat.Rat // explicit length override, nil if derived from events
}

// EventKind tags the payload carried by an Event.
type EventKind int

const (
	EventNote EventKind = iota
	EventChord
	EventHit
	EventRest
	EventCC
	EventAutomation
	EventMarker
)

// Event is one clip-relative occurrence: a note, chord, drum hit, rest,
// continuous-controller change, automation point, or marker, each
// carrying a clip-relative start/end expressed as an exact fraction of
// a whole note (already resolved by the evaluator's cursor-walk; only
// the clip's placement offset remains to be applied at normalization).
type Event struct {
	Kind     EventKind
	Start    rat.Rat
	End      rat.Rat
	Pitches  []int // MIDI note numbers; len 1 for Note, >1 for Chord
	Name     string // Hit name, CC/automation parameter name, or marker label
	Velocity int    // 0 when not specified; normalizer/renderer applies a default
	CCValue  int     // EventCC controller value, 0-127
	Value    float64 // EventAutomation parameter value
}
