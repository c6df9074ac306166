// Package value implements the runtime value model (spec §4.H): a
// closed tagged union over Go interfaces rather than `any`, so every
// evaluator switch is exhaustive and every illegal operation is a
// typed TypeMismatch rather than a runtime panic.
package value

import (
	"fmt"
	"strings"

	"github.com/takomusic/mfs/internal/rat"
)

// Value is implemented by every runtime value kind.
type Value interface {
	Kind() Kind
	String() string
}

// Kind tags a Value for dispatch and diagnostics.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindBool
	KindString
	KindNull
	KindPitch
	KindDuration
	KindTime
	KindArray
	KindObject
	KindFunction
	KindScore
	KindClip
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindNull:
		return "null"
	case KindPitch:
		return "pitch"
	case KindDuration:
		return "duration"
	case KindTime:
		return "time"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	case KindFunction:
		return "function"
	case KindScore:
		return "score"
	case KindClip:
		return "clip"
	default:
		return "unknown"
	}
}

type Int struct{ V int64 }

func (Int) Kind() Kind        { return KindInt }
func (v Int) String() string  { return fmt.Sprintf("%d", v.V) }

type Float struct{ V float64 }

func (Float) Kind() Kind       { return KindFloat }
func (v Float) String() string { return fmt.Sprintf("%g", v.V) }

type Bool struct{ V bool }

func (Bool) Kind() Kind       { return KindBool }
func (v Bool) String() string { return fmt.Sprintf("%t", v.V) }

type String struct{ V string }

func (String) Kind() Kind       { return KindString }
func (v String) String() string { return v.V }

type Null struct{}

func (Null) Kind() Kind       { return KindNull }
func (Null) String() string   { return "null" }

// Pitch is a MIDI note number (0-127) carried as a distinct kind so
// pitch arithmetic (Pitch ± Int, Pitch − Pitch) dispatches separately
// from plain integer math.
type Pitch struct{ MIDI int }

func (Pitch) Kind() Kind       { return KindPitch }
func (v Pitch) String() string { return MIDIToName(v.MIDI) }

// Duration is a note length expressed as an exact fraction of a whole
// note, with an explicit augmentation-dot count already folded into N/D.
type Duration struct{ N, D int64 }

func (Duration) Kind() Kind { return KindDuration }
func (v Duration) String() string {
	return rat.Rat{N: v.N, D: v.D}.String()
}

func (v Duration) Rat() rat.Rat { return rat.MustNew(v.N, v.D) }

// Time is a musical position written as a bar:beat[:sub] literal, kept
// as its bar/beat/sub-tick triple. The evaluator turns it into a Pos,
// which normalization (internal/scoreir) resolves to an absolute
// rat.Rat of whole notes from the score start.
type Time struct {
	Bar, Beat, Sub int
}

func (Time) Kind() Kind { return KindTime }
func (v Time) String() string {
	if v.Sub > 0 {
		return fmt.Sprintf("%d:%d:%d", v.Bar, v.Beat, v.Sub)
	}
	return fmt.Sprintf("%d:%d", v.Bar, v.Beat)
}

type Array struct{ Elements []Value }

func (Array) Kind() Kind { return KindArray }
func (v Array) String() string {
	parts := make([]string, len(v.Elements))
	for i, e := range v.Elements {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

type Object struct{ Fields map[string]Value }

func (Object) Kind() Kind { return KindObject }
func (v Object) String() string {
	parts := make([]string, 0, len(v.Fields))
	for k, val := range v.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", k, val.String()))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (Function) Kind() Kind { return KindFunction }
func (v Function) String() string {
	if v.Name != "" {
		return fmt.Sprintf("<fn %s>", v.Name)
	}
	return "<fn>"
}

func (Score) Kind() Kind     { return KindScore }
func (Score) String() string { return "<score>" }

func (Clip) Kind() Kind     { return KindClip }
func (Clip) String() string { return "<clip>" }

// MIDIToName renders a MIDI note number back to a pitch-literal-style
// name (e.g. 60 -> "C4"), used for diagnostics and template interpolation.
func MIDIToName(midi int) string {
	names := []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}
	octave := midi/12 - 1
	name := names[((midi%12)+12)%12]
	return fmt.Sprintf("%s%d", name, octave)
}

// NameToMIDI converts a pitch literal's letter/accidental/octave into
// a MIDI note number. Octave 4 holds middle C (MIDI 60) per spec §3.2.
func NameToMIDI(letter byte, accidental byte, octave int) int {
	base := map[byte]int{'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11}[letter]
	switch accidental {
	case '#':
		base++
	case 'b':
		base--
	}
	return base + (octave+1)*12
}
