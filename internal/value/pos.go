package value

import "github.com/takomusic/mfs/internal/rat"

// Pos is an unresolved musical position, as carried by a ScoreValue
// before normalization (spec §4.H): either an explicit rational
// whole-note offset, a symbolic bar/beat reference, or a reference
// plus a rational offset (e.g. `2:1 + 1/8`).
type Pos struct {
	Kind PosKind
	Rat  rat.Rat // PosExplicit
	Bar  int     // PosRef, PosOffset
	Beat int     // PosRef, PosOffset
	Sub  int     // PosRef, PosOffset; -1 when absent
	Off  rat.Rat // PosOffset
}

type PosKind int

const (
	PosExplicit PosKind = iota
	PosRef
	PosOffset
)

func ExplicitPos(r rat.Rat) Pos { return Pos{Kind: PosExplicit, Rat: r} }

func RefPos(bar, beat, sub int) Pos { return Pos{Kind: PosRef, Bar: bar, Beat: beat, Sub: sub} }

func OffsetPos(bar, beat, sub int, off rat.Rat) Pos {
	return Pos{Kind: PosOffset, Bar: bar, Beat: beat, Sub: sub, Off: off}
}
