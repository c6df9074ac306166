package ast

import "github.com/takomusic/mfs/internal/source"

// ClipStmt is implemented by AtStmt, RestStmt, NoteStmt, ChordStmt,
// HitStmt, CCStmt, AutomationStmt, MarkerStmt (spec §3.3).
type ClipStmt interface {
	Node
	clipStmt()
}

// ClipExpr is the `clip { ... }` sub-expression.
type ClipExpr struct {
	Stmts []ClipStmt
	SpanV source.Span
}

func (e *ClipExpr) Span() source.Span { return e.SpanV }
func (*ClipExpr) expr()               {}

// AtStmt is `at(pos);`: sets the clip's statement-level cursor.
type AtStmt struct {
	Pos   Expr
	SpanV source.Span
}

func (s *AtStmt) Span() source.Span { return s.SpanV }
func (*AtStmt) clipStmt()           {}

// RestStmt is `rest(<duration>);`: emits a rest and advances the cursor.
type RestStmt struct {
	Duration Expr
	SpanV    source.Span
}

func (s *RestStmt) Span() source.Span { return s.SpanV }
func (*RestStmt) clipStmt()           {}

// NoteStmt is `note(<pitch>, <duration>[, velocity: v]);`.
type NoteStmt struct {
	Pitch    Expr
	Duration Expr
	Velocity Expr // nil for default
	SpanV    source.Span
}

func (s *NoteStmt) Span() source.Span { return s.SpanV }
func (*NoteStmt) clipStmt()           {}

// ChordStmt is `chord([pitches...], <duration>[, velocity: v]);`.
type ChordStmt struct {
	Pitches  Expr // ArrayLit of pitch expressions
	Duration Expr
	Velocity Expr
	SpanV    source.Span
}

func (s *ChordStmt) Span() source.Span { return s.SpanV }
func (*ChordStmt) clipStmt()           {}

// HitStmt is `hit(<name>, <duration>[, velocity: v]);` — a drum hit by name.
type HitStmt struct {
	Name     Expr
	Duration Expr
	Velocity Expr
	SpanV    source.Span
}

func (s *HitStmt) Span() source.Span { return s.SpanV }
func (*HitStmt) clipStmt()           {}

// CCStmt is `cc(<controller>, <value>);` — a MIDI continuous-controller event.
type CCStmt struct {
	Controller Expr
	Value      Expr
	SpanV      source.Span
}

func (s *CCStmt) Span() source.Span { return s.SpanV }
func (*CCStmt) clipStmt()           {}

// AutomationStmt is `automation(<parameter>, <value>);`.
type AutomationStmt struct {
	Parameter Expr
	Value     Expr
	SpanV     source.Span
}

func (s *AutomationStmt) Span() source.Span { return s.SpanV }
func (*AutomationStmt) clipStmt()           {}

// MarkerStmt is `marker("label");` inside a clip.
type MarkerStmt struct {
	Label Expr
	SpanV source.Span
}

func (s *MarkerStmt) Span() source.Span { return s.SpanV }
func (*MarkerStmt) clipStmt()           {}
