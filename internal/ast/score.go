package ast

import "github.com/takomusic/mfs/internal/source"

// ScoreItem is implemented by MetaBlock, TempoBlock, MeterBlock,
// SoundDecl, TrackDecl, ScoreMarker (spec §3.3).
type ScoreItem interface {
	Node
	scoreItem()
}

// ScoreExpr is the `score { ... }` sub-expression.
type ScoreExpr struct {
	Items []ScoreItem
	SpanV source.Span
}

func (e *ScoreExpr) Span() source.Span { return e.SpanV }
func (*ScoreExpr) expr()               {}

// MetaField is one `title "..."`-style key/value pair inside meta { }.
type MetaField struct {
	Key   string
	Value Expr
}

type MetaBlock struct {
	Fields []MetaField
	SpanV  source.Span
}

func (b *MetaBlock) Span() source.Span { return b.SpanV }
func (*MetaBlock) scoreItem()          {}

// TempoEntry is one `bar:beat -> bpm bpm;` inside a tempo block.
type TempoEntry struct {
	At    Expr // BarBeatLit or PosExpr-shaped expression
	BPM   Expr
	Unit  Expr // optional note-value unit; nil means default quarter
	SpanV source.Span
}

func (e *TempoEntry) Span() source.Span { return e.SpanV }

type TempoBlock struct {
	Entries []TempoEntry
	SpanV   source.Span
}

func (b *TempoBlock) Span() source.Span { return b.SpanV }
func (*TempoBlock) scoreItem()          {}

// MeterEntry is one `bar:beat -> num/den;` inside a meter block.
type MeterEntry struct {
	At            Expr
	Numerator     Expr
	Denominator   Expr
	SpanV         source.Span
}

func (e *MeterEntry) Span() source.Span { return e.SpanV }

type MeterBlock struct {
	Entries []MeterEntry
	SpanV   source.Span
}

func (b *MeterBlock) Span() source.Span { return b.SpanV }
func (*MeterBlock) scoreItem()          {}

// SoundField is one `label "...";`-style statement inside a sound { } body.
type SoundField struct {
	Key   string
	Value Expr
}

// SoundDecl is `sound "id" kind <kind> { fields }`.
type SoundDecl struct {
	ID     string
	Kind   string // instrument | drumKit | vocal | fx
	Fields []SoundField
	SpanV  source.Span
}

func (d *SoundDecl) Span() source.Span { return d.SpanV }
func (*SoundDecl) scoreItem()          {}

// Placement is `place <pos> clip { ... };` inside a track body.
type Placement struct {
	At    Expr
	Clip  Expr // ClipExpr, or an identifier/call referencing one
	SpanV source.Span
}

func (p *Placement) Span() source.Span { return p.SpanV }

// TrackDecl is `track "name" role <Role> sound "id" { placements }`.
type TrackDecl struct {
	Name       string
	Role       string // Instrument | Drums | Vocal | Automation
	Sound      string
	Placements []Placement
	SpanV      source.Span
}

func (d *TrackDecl) Span() source.Span { return d.SpanV }
func (*TrackDecl) scoreItem()          {}

// ScoreMarker is a top-level `marker <pos> "kind" "label";` inside score { }.
type ScoreMarker struct {
	At    Expr
	Kind  string
	Label Expr
	SpanV source.Span
}

func (m *ScoreMarker) Span() source.Span { return m.SpanV }
func (*ScoreMarker) scoreItem()          {}
