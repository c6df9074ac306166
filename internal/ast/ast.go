// Package ast defines the abstract syntax tree produced by the parser
// (spec §3.3). AST nodes live for the entire compilation; spans
// reference immutable source text held by the owning module.
package ast

import "github.com/takomusic/mfs/internal/source"

// Node is implemented by every AST node; Span returns its source range.
type Node interface {
	Span() source.Span
}

// Program is the root of one parsed module.
type Program struct {
	Imports []*ImportDecl
	Body    []TopDecl
	SpanV   source.Span
}

func (p *Program) Span() source.Span { return p.SpanV }

// ImportDecl is `import { names } from "path"` or `import * as ns from "path"`.
type ImportDecl struct {
	Names     []string // named imports; empty when Namespace != ""
	Namespace string   // `import * as NS from ...`; empty for named form
	Path      string
	SpanV     source.Span
}

func (d *ImportDecl) Span() source.Span { return d.SpanV }

// TopDecl is implemented by FnDecl, ConstDecl, EnumDecl, and LetDecl
// (the last only so a module-scope `let` can be parsed and flagged by
// validation rather than rejected outright).
type TopDecl interface {
	Node
	topDecl()
}

// Param is one function parameter, with optional default and rest marker.
type Param struct {
	Name    string
	Default Expr // nil if none
	Rest    bool
}

// FnDecl is `[export] fn name(params) -> T { body }`.
type FnDecl struct {
	Name     string
	Params   []Param
	RetType  string // informational only; not type-checked (spec has no static type system beyond validation)
	Body     []Stmt
	Exported bool
	SpanV    source.Span
}

func (d *FnDecl) Span() source.Span { return d.SpanV }
func (*FnDecl) topDecl()            {}

// ConstDecl is `[export] const name = expr;` at module scope, or
// `const name = expr;` as a local statement.
type ConstDecl struct {
	Name     string
	Value    Expr
	Exported bool
	SpanV    source.Span
}

func (d *ConstDecl) Span() source.Span { return d.SpanV }
func (*ConstDecl) topDecl()            {}

// EnumDecl is `[export] enum Name { Variant, Variant, ... }`.
type EnumDecl struct {
	Name     string
	Variants []string
	Exported bool
	SpanV    source.Span
}

func (d *EnumDecl) Span() source.Span { return d.SpanV }
func (*EnumDecl) topDecl()            {}

// Stmt is implemented by every statement node.
type Stmt interface {
	Node
	stmt()
}

// LetDecl is `let name = expr;`; legal only inside a block (spec Open
// Question: let is block-local, module-scope let is a validation error,
// E0090). The parser accepts it at module scope too, as a TopDecl, so
// recovery can continue past it and validation can flag it by code
// instead of aborting the parse.
type LetDecl struct {
	Name  string
	Value Expr
	SpanV source.Span
}

func (s *LetDecl) Span() source.Span { return s.SpanV }
func (*LetDecl) stmt()               {}
func (*LetDecl) topDecl()            {}

// LocalConstDecl is `const name = expr;` used as a statement.
type LocalConstDecl struct {
	Name  string
	Value Expr
	SpanV source.Span
}

func (s *LocalConstDecl) Span() source.Span { return s.SpanV }
func (*LocalConstDecl) stmt()               {}

// ReturnStmt is `return [expr];`.
type ReturnStmt struct {
	Value Expr // nil for bare `return;`
	SpanV source.Span
}

func (s *ReturnStmt) Span() source.Span { return s.SpanV }
func (*ReturnStmt) stmt()               {}

// IfStmt is `if cond { then } [else { else }]`. Else may itself hold a
// single IfStmt (else-if chaining) inside Else.
type IfStmt struct {
	Cond  Expr
	Then  []Stmt
	Else  []Stmt
	SpanV source.Span
}

func (s *IfStmt) Span() source.Span { return s.SpanV }
func (*IfStmt) stmt()               {}

// ForStmt is `for ident in a..b { }` or `for ident in a..=b { }`.
type ForStmt struct {
	Var       string
	Start     Expr
	End       Expr
	Inclusive bool // true for `..=`
	Body      []Stmt
	SpanV     source.Span
}

func (s *ForStmt) Span() source.Span { return s.SpanV }
func (*ForStmt) stmt()               {}

// AssignmentStmt is `target = expr;` for an already-bound local.
type AssignmentStmt struct {
	Target Expr // Ident, MemberExpr, or IndexExpr
	Value  Expr
	SpanV  source.Span
}

func (s *AssignmentStmt) Span() source.Span { return s.SpanV }
func (*AssignmentStmt) stmt()               {}

// ExprStmt is an expression evaluated for its side effect.
type ExprStmt struct {
	Value Expr
	SpanV source.Span
}

func (s *ExprStmt) Span() source.Span { return s.SpanV }
func (*ExprStmt) stmt()               {}

// Expr is implemented by every expression node.
type Expr interface {
	Node
	expr()
}

type IntLit struct {
	Value int64
	SpanV source.Span
}

func (e *IntLit) Span() source.Span { return e.SpanV }
func (*IntLit) expr()               {}

type FloatLit struct {
	Value float64
	SpanV source.Span
}

func (e *FloatLit) Span() source.Span { return e.SpanV }
func (*FloatLit) expr()               {}

type StringLit struct {
	Value string
	SpanV source.Span
}

func (e *StringLit) Span() source.Span { return e.SpanV }
func (*StringLit) expr()               {}

// TemplateLit is a template literal: alternating literal text segments
// and interpolated expressions, `Parts[0] Exprs[0] Parts[1] Exprs[1] ... Parts[n]`.
type TemplateLit struct {
	Parts []string
	Exprs []Expr
	SpanV source.Span
}

func (e *TemplateLit) Span() source.Span { return e.SpanV }
func (*TemplateLit) expr()               {}

type BoolLit struct {
	Value bool
	SpanV source.Span
}

func (e *BoolLit) Span() source.Span { return e.SpanV }
func (*BoolLit) expr()               {}

type NullLit struct {
	SpanV source.Span
}

func (e *NullLit) Span() source.Span { return e.SpanV }
func (*NullLit) expr()               {}

// PitchLit is a pitch literal such as `C4`, `F#3`, `Bb5`.
type PitchLit struct {
	Letter  byte // 'A'..'G'
	Accidental byte // '#', 'b', or 0
	Octave  int
	SpanV   source.Span
}

func (e *PitchLit) Span() source.Span { return e.SpanV }
func (*PitchLit) expr()               {}

// DurationLit is a duration literal: either a raw n/d fraction or a
// letter-coded form with optional dots and an optional tick multiplier.
type DurationLit struct {
	Num, Den int64 // already resolved to an n/d fraction of a whole note
	Raw      string
	SpanV    source.Span
}

func (e *DurationLit) Span() source.Span { return e.SpanV }
func (*DurationLit) expr()               {}

// BarBeatLit is a `bar:beat[:sub]` literal.
type BarBeatLit struct {
	Bar, Beat int
	Sub       int // -1 when absent
	SpanV     source.Span
}

func (e *BarBeatLit) Span() source.Span { return e.SpanV }
func (*BarBeatLit) expr()               {}

type Ident struct {
	Name  string
	SpanV source.Span
}

func (e *Ident) Span() source.Span { return e.SpanV }
func (*Ident) expr()               {}

type ArrayLit struct {
	Elements []Expr
	SpanV    source.Span
}

func (e *ArrayLit) Span() source.Span { return e.SpanV }
func (*ArrayLit) expr()               {}

type ObjectField struct {
	Key   string
	Value Expr
}

type ObjectLit struct {
	Fields []ObjectField
	SpanV  source.Span
}

func (e *ObjectLit) Span() source.Span { return e.SpanV }
func (*ObjectLit) expr()               {}

// BinaryOp enumerates all binary operators. The declaration order is
// not the precedence order (OpNullish and the range operators bind
// loosest); precedence is fixed by the parser's descent order.
type BinaryOp int

const (
	OpOrOr BinaryOp = iota
	OpAndAnd
	OpEq
	OpNeq
	OpLt
	OpLte
	OpGt
	OpGte
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpNullish
	OpRange
	OpRangeInclusive
)

type BinaryExpr struct {
	Op    BinaryOp
	Left  Expr
	Right Expr
	SpanV source.Span
}

func (e *BinaryExpr) Span() source.Span { return e.SpanV }
func (*BinaryExpr) expr()               {}

type UnaryOp int

const (
	OpNeg UnaryOp = iota
	OpNot
)

type UnaryExpr struct {
	Op      UnaryOp
	Operand Expr
	SpanV   source.Span
}

func (e *UnaryExpr) Span() source.Span { return e.SpanV }
func (*UnaryExpr) expr()               {}

// TernaryExpr is `cond ? then : else`, right-associative.
type TernaryExpr struct {
	Cond, Then, Else Expr
	SpanV            source.Span
}

func (e *TernaryExpr) Span() source.Span { return e.SpanV }
func (*TernaryExpr) expr()               {}

// Arg is one call argument; Name is empty for positional arguments.
// Positional arguments must precede named ones (checked in validation).
type Arg struct {
	Name  string
	Value Expr
}

type CallExpr struct {
	Callee Expr
	Args   []Arg
	SpanV  source.Span
}

func (e *CallExpr) Span() source.Span { return e.SpanV }
func (*CallExpr) expr()               {}

// MemberExpr is `obj.field` or, when Optional is set, `obj?.field`.
type MemberExpr struct {
	Object   Expr
	Field    string
	Optional bool
	SpanV    source.Span
}

func (e *MemberExpr) Span() source.Span { return e.SpanV }
func (*MemberExpr) expr()               {}

// IndexExpr is `obj[index]` or, when Optional is set, `obj?.[index]`.
type IndexExpr struct {
	Object   Expr
	Index    Expr
	Optional bool
	SpanV    source.Span
}

func (e *IndexExpr) Span() source.Span { return e.SpanV }
func (*IndexExpr) expr()               {}

// ArrowFn is an anonymous function expression `(params) => expr_or_block`.
type ArrowFn struct {
	Params []Param
	Body   []Stmt // a single ExprStmt/ReturnStmt-equivalent body when written as an expression arrow
	SpanV  source.Span
}

func (e *ArrowFn) Span() source.Span { return e.SpanV }
func (*ArrowFn) expr()               {}

// MatchArm is one arm of a match expression; Pattern == nil marks `else`.
type MatchArm struct {
	Pattern Expr
	Value   Expr
}

type MatchExpr struct {
	Scrutinee Expr
	Arms      []MatchArm
	SpanV     source.Span
}

func (e *MatchExpr) Span() source.Span { return e.SpanV }
func (*MatchExpr) expr()               {}
