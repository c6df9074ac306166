// Package format renders an *ast.Program back to canonical source text
// (spec §4.J). It is a straight recursive printer over the closed AST
// node set in internal/ast: two-space indent, a blank line between
// top-level declarations, and a trailing newline. Comments are not
// preserved — the AST carries none, so round-tripping formatted output
// through Format a second time is a fixed point, but formatting a
// commented source file discards the comments. That is a known
// limitation of this minimal core, not an oversight.
package format

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/takomusic/mfs/internal/ast"
	"github.com/takomusic/mfs/internal/config"
	"github.com/takomusic/mfs/internal/diag"
	"github.com/takomusic/mfs/internal/lexer"
	"github.com/takomusic/mfs/internal/parser"
	"github.com/takomusic/mfs/internal/source"
)

// Format lexes and parses src, then prints the canonical form of the
// resulting AST. Diagnostics from a failed parse are returned
// alongside whatever partial program the parser recovered.
func Format(src string) (string, []diag.Diagnostic) {
	f := source.NewFile(0, "<format>", src)
	toks, lexErrs := lexer.New(f).Tokenize()
	prog, parseErrs := parser.Parse(toks, f, config.Default().MaxParseErrors)
	diags := append(append([]diag.Diagnostic{}, lexErrs...), parseErrs...)
	return FormatProgram(prog), diags
}

// FormatProgram prints an already-parsed program. A nil program prints
// as an empty file.
func FormatProgram(prog *ast.Program) string {
	p := &printer{}
	if prog != nil {
		p.program(prog)
	}
	out := p.b.String()
	if out == "" {
		return "\n"
	}
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	return out
}

const indentUnit = "  "

type printer struct {
	b      strings.Builder
	indent int
}

func (p *printer) ind() string { return strings.Repeat(indentUnit, p.indent) }

func (p *printer) line(s string) {
	p.b.WriteString(p.ind())
	p.b.WriteString(s)
	p.b.WriteString("\n")
}

// --- program / top level ---

func (p *printer) program(prog *ast.Program) {
	for _, imp := range prog.Imports {
		p.importDecl(imp)
	}
	if len(prog.Imports) > 0 && len(prog.Body) > 0 {
		p.b.WriteString("\n")
	}
	for i, decl := range prog.Body {
		if i > 0 {
			p.b.WriteString("\n")
		}
		p.topDecl(decl)
	}
}

func (p *printer) importDecl(d *ast.ImportDecl) {
	if d.Namespace != "" {
		p.line(fmt.Sprintf("import * as %s from %s;", d.Namespace, strconv.Quote(d.Path)))
		return
	}
	p.line(fmt.Sprintf("import { %s } from %s;", strings.Join(d.Names, ", "), strconv.Quote(d.Path)))
}

func (p *printer) topDecl(decl ast.TopDecl) {
	switch d := decl.(type) {
	case *ast.FnDecl:
		p.fnDecl(d)
	case *ast.ConstDecl:
		prefix := ""
		if d.Exported {
			prefix = "export "
		}
		p.line(prefix + "const " + d.Name + " = " + p.expr(d.Value, 0) + ";")
	case *ast.EnumDecl:
		p.enumDecl(d)
	case *ast.LetDecl:
		// Only reachable for a module-scope `let`, which parses but is
		// flagged by validation (E0090); printed as written so the
		// formatter doesn't silently rewrite a file with an error in it.
		p.line("let " + d.Name + " = " + p.expr(d.Value, 0) + ";")
	default:
		p.line(fmt.Sprintf("/* unknown top-level declaration %T */", decl))
	}
}

func (p *printer) fnDecl(d *ast.FnDecl) {
	header := ""
	if d.Exported {
		header += "export "
	}
	header += "fn " + d.Name + "(" + p.params(d.Params) + ")"
	if d.RetType != "" {
		header += " -> " + d.RetType
	}
	header += " {"
	p.line(header)
	p.indent++
	p.stmts(d.Body)
	p.indent--
	p.line("}")
}

func (p *printer) enumDecl(d *ast.EnumDecl) {
	prefix := ""
	if d.Exported {
		prefix = "export "
	}
	p.line(prefix + "enum " + d.Name + " {")
	p.indent++
	for _, v := range d.Variants {
		p.line(v + ",")
	}
	p.indent--
	p.line("}")
}

func (p *printer) params(params []ast.Param) string {
	parts := make([]string, len(params))
	for i, pa := range params {
		s := pa.Name
		if pa.Rest {
			s = "..." + s
		} else if pa.Default != nil {
			s += " = " + p.expr(pa.Default, 0)
		}
		parts[i] = s
	}
	return strings.Join(parts, ", ")
}

// --- statements ---

func (p *printer) stmts(stmts []ast.Stmt) {
	for _, s := range stmts {
		p.stmt(s)
	}
}

func (p *printer) stmt(s ast.Stmt) {
	switch x := s.(type) {
	case *ast.LetDecl:
		p.line("let " + x.Name + " = " + p.expr(x.Value, 0) + ";")
	case *ast.LocalConstDecl:
		p.line("const " + x.Name + " = " + p.expr(x.Value, 0) + ";")
	case *ast.ReturnStmt:
		if x.Value == nil {
			p.line("return;")
			return
		}
		p.line("return " + p.expr(x.Value, 0) + ";")
	case *ast.IfStmt:
		p.ifChain(x)
	case *ast.ForStmt:
		rangeOp := ".."
		if x.Inclusive {
			rangeOp = "..="
		}
		p.line("for " + x.Var + " in " + p.expr(x.Start, 0) + rangeOp + p.expr(x.End, 0) + " {")
		p.indent++
		p.stmts(x.Body)
		p.indent--
		p.line("}")
	case *ast.AssignmentStmt:
		p.line(p.expr(x.Target, 0) + " = " + p.expr(x.Value, 0) + ";")
	case *ast.ExprStmt:
		p.line(p.expr(x.Value, 0) + ";")
	default:
		p.line(fmt.Sprintf("/* unknown statement %T */", s))
	}
}

// ifChain prints an if/else-if/else chain as a single flattened
// sequence of "} else if cond {" lines rather than nesting a block per
// level, matching how the parser folds else-if into IfStmt.Else.
func (p *printer) ifChain(x *ast.IfStmt) {
	p.line("if " + p.expr(x.Cond, 0) + " {")
	p.indent++
	p.stmts(x.Then)
	p.indent--

	cur := x
	for len(cur.Else) == 1 {
		next, ok := cur.Else[0].(*ast.IfStmt)
		if !ok {
			break
		}
		p.line("} else if " + p.expr(next.Cond, 0) + " {")
		p.indent++
		p.stmts(next.Then)
		p.indent--
		cur = next
	}
	if len(cur.Else) > 0 {
		p.line("} else {")
		p.indent++
		p.stmts(cur.Else)
		p.indent--
	}
	p.line("}")
}

// stmtInline renders a statement as a single-line fragment, used for
// the block body of an arrow function appearing inside expression
// position (this formatter never splits an expression across lines).
func (p *printer) stmtInline(s ast.Stmt) string {
	switch x := s.(type) {
	case *ast.LetDecl:
		return "let " + x.Name + " = " + p.expr(x.Value, 0) + ";"
	case *ast.LocalConstDecl:
		return "const " + x.Name + " = " + p.expr(x.Value, 0) + ";"
	case *ast.ReturnStmt:
		if x.Value == nil {
			return "return;"
		}
		return "return " + p.expr(x.Value, 0) + ";"
	case *ast.AssignmentStmt:
		return p.expr(x.Target, 0) + " = " + p.expr(x.Value, 0) + ";"
	case *ast.ExprStmt:
		return p.expr(x.Value, 0) + ";"
	case *ast.IfStmt:
		out := "if " + p.expr(x.Cond, 0) + " { " + p.stmtsInline(x.Then) + " }"
		if len(x.Else) > 0 {
			out += " else { " + p.stmtsInline(x.Else) + " }"
		}
		return out
	case *ast.ForStmt:
		rangeOp := ".."
		if x.Inclusive {
			rangeOp = "..="
		}
		return "for " + x.Var + " in " + p.expr(x.Start, 0) + rangeOp + p.expr(x.End, 0) + " { " + p.stmtsInline(x.Body) + " }"
	default:
		return fmt.Sprintf("/* unknown statement %T */", s)
	}
}

func (p *printer) stmtsInline(stmts []ast.Stmt) string {
	parts := make([]string, len(stmts))
	for i, s := range stmts {
		parts[i] = p.stmtInline(s)
	}
	return strings.Join(parts, " ")
}

// --- expressions ---
//
// Precedence levels below mirror the parser's actual descent order
// (internal/parser/expr.go), which is not the same as the BinaryOp
// const declaration order: ternary < nullish < range < || < && <
// ==/!= < comparisons < +/- < * / % < unary < postfix < primary.

const (
	precTernary = iota
	precNullish
	precRange
	precOrOr
	precAndAnd
	precEquality
	precComparison
	precAdditive
	precMultiplicative
	precUnary
	precPostfix
	precPrimary
)

func precedence(op ast.BinaryOp) int {
	switch op {
	case ast.OpNullish:
		return precNullish
	case ast.OpRange, ast.OpRangeInclusive:
		return precRange
	case ast.OpOrOr:
		return precOrOr
	case ast.OpAndAnd:
		return precAndAnd
	case ast.OpEq, ast.OpNeq:
		return precEquality
	case ast.OpLt, ast.OpLte, ast.OpGt, ast.OpGte:
		return precComparison
	case ast.OpAdd, ast.OpSub:
		return precAdditive
	case ast.OpMul, ast.OpDiv, ast.OpMod:
		return precMultiplicative
	}
	return precPrimary
}

func opSymbol(op ast.BinaryOp) string {
	switch op {
	case ast.OpOrOr:
		return "||"
	case ast.OpAndAnd:
		return "&&"
	case ast.OpEq:
		return "=="
	case ast.OpNeq:
		return "!="
	case ast.OpLt:
		return "<"
	case ast.OpLte:
		return "<="
	case ast.OpGt:
		return ">"
	case ast.OpGte:
		return ">="
	case ast.OpAdd:
		return "+"
	case ast.OpSub:
		return "-"
	case ast.OpMul:
		return "*"
	case ast.OpDiv:
		return "/"
	case ast.OpMod:
		return "%"
	case ast.OpNullish:
		return "??"
	case ast.OpRange:
		return ".."
	case ast.OpRangeInclusive:
		return "..="
	}
	return "?"
}

// rightAssoc reports whether op's right operand recurses back into the
// same precedence level (parseNullish) rather than the next level up,
// mirroring the parser's associativity.
func rightAssoc(op ast.BinaryOp) bool { return op == ast.OpNullish }

// expr prints e, parenthesizing it when its own precedence is lower
// than minPrec (the precedence the enclosing context requires).
func (p *printer) expr(e ast.Expr, minPrec int) string {
	if e == nil {
		return ""
	}
	switch x := e.(type) {
	case *ast.IntLit:
		return strconv.FormatInt(x.Value, 10)
	case *ast.FloatLit:
		return strconv.FormatFloat(x.Value, 'g', -1, 64)
	case *ast.StringLit:
		return strconv.Quote(x.Value)
	case *ast.TemplateLit:
		return p.templateLit(x)
	case *ast.BoolLit:
		if x.Value {
			return "true"
		}
		return "false"
	case *ast.NullLit:
		return "null"
	case *ast.PitchLit:
		return pitchLitText(x)
	case *ast.DurationLit:
		return x.Raw
	case *ast.BarBeatLit:
		if x.Sub >= 0 {
			return fmt.Sprintf("%d:%d:%d", x.Bar, x.Beat, x.Sub)
		}
		return fmt.Sprintf("%d:%d", x.Bar, x.Beat)
	case *ast.Ident:
		return x.Name
	case *ast.ArrayLit:
		parts := make([]string, len(x.Elements))
		for i, el := range x.Elements {
			parts[i] = p.expr(el, precTernary)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *ast.ObjectLit:
		parts := make([]string, len(x.Fields))
		for i, f := range x.Fields {
			parts[i] = f.Key + ": " + p.expr(f.Value, precTernary)
		}
		return "{ " + strings.Join(parts, ", ") + " }"
	case *ast.BinaryExpr:
		return p.binaryExpr(x, minPrec)
	case *ast.UnaryExpr:
		return p.unaryExpr(x, minPrec)
	case *ast.TernaryExpr:
		out := p.expr(x.Cond, precNullish) + " ? " + p.expr(x.Then, precTernary) + " : " + p.expr(x.Else, precTernary)
		return parenIf(out, precTernary < minPrec)
	case *ast.CallExpr:
		args := make([]string, len(x.Args))
		for i, a := range x.Args {
			v := p.expr(a.Value, precTernary)
			if a.Name != "" {
				v = a.Name + ": " + v
			}
			args[i] = v
		}
		return p.expr(x.Callee, precPostfix) + "(" + strings.Join(args, ", ") + ")"
	case *ast.MemberExpr:
		dot := "."
		if x.Optional {
			dot = "?."
		}
		return p.expr(x.Object, precPostfix) + dot + x.Field
	case *ast.IndexExpr:
		if x.Optional {
			return p.expr(x.Object, precPostfix) + "?.[" + p.expr(x.Index, precTernary) + "]"
		}
		return p.expr(x.Object, precPostfix) + "[" + p.expr(x.Index, precTernary) + "]"
	case *ast.ArrowFn:
		return p.arrowFn(x)
	case *ast.MatchExpr:
		return p.matchExpr(x)
	case *ast.ScoreExpr:
		return p.scoreExpr(x)
	case *ast.ClipExpr:
		return p.clipExpr(x)
	default:
		return fmt.Sprintf("/* unknown expr %T */", e)
	}
}

func parenIf(s string, wrap bool) string {
	if wrap {
		return "(" + s + ")"
	}
	return s
}

func (p *printer) binaryExpr(x *ast.BinaryExpr, minPrec int) string {
	prec := precedence(x.Op)
	leftMin, rightMin := prec, prec+1
	if rightAssoc(x.Op) {
		leftMin, rightMin = prec+1, prec
	}
	out := p.expr(x.Left, leftMin) + " " + opSymbol(x.Op) + " " + p.expr(x.Right, rightMin)
	return parenIf(out, prec < minPrec)
}

func (p *printer) unaryExpr(x *ast.UnaryExpr, minPrec int) string {
	sym := "-"
	if x.Op == ast.OpNot {
		sym = "!"
	}
	out := sym + p.expr(x.Operand, precUnary)
	return parenIf(out, precUnary < minPrec)
}

func pitchLitText(x *ast.PitchLit) string {
	s := string(x.Letter)
	if x.Accidental != 0 {
		s += string(x.Accidental)
	}
	return s + strconv.Itoa(x.Octave)
}

func (p *printer) templateLit(x *ast.TemplateLit) string {
	var b strings.Builder
	b.WriteByte('`')
	for i, part := range x.Parts {
		b.WriteString(escapeTemplateText(part))
		if i < len(x.Exprs) {
			b.WriteString("${")
			b.WriteString(p.expr(x.Exprs[i], precTernary))
			b.WriteByte('}')
		}
	}
	b.WriteByte('`')
	return b.String()
}

func escapeTemplateText(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "`", "\\`")
	s = strings.ReplaceAll(s, "${", "\\${")
	return s
}

func (p *printer) arrowFn(x *ast.ArrowFn) string {
	header := "(" + p.params(x.Params) + ") => "
	if len(x.Body) == 1 {
		if ret, ok := x.Body[0].(*ast.ReturnStmt); ok && ret.Value != nil {
			return header + p.expr(ret.Value, precTernary)
		}
	}
	return header + "{ " + p.stmtsInline(x.Body) + " }"
}

func (p *printer) matchExpr(x *ast.MatchExpr) string {
	parts := make([]string, len(x.Arms))
	for i, arm := range x.Arms {
		pattern := "else"
		if arm.Pattern != nil {
			pattern = p.expr(arm.Pattern, precTernary)
		}
		parts[i] = pattern + " => " + p.expr(arm.Value, precTernary)
	}
	return "match " + p.expr(x.Scrutinee, precTernary) + " { " + strings.Join(parts, ", ") + " }"
}

// --- score { } / clip { } ---
//
// These print multi-line, indented blocks even though expr() normally
// returns a single inline fragment: the indent level is bumped for the
// duration of the call and restored before returning, so embedding the
// result after e.g. "return " lines up correctly.

func (p *printer) scoreExpr(x *ast.ScoreExpr) string {
	var b strings.Builder
	b.WriteString("score {\n")
	p.indent++
	for _, item := range x.Items {
		b.WriteString(p.ind())
		b.WriteString(p.scoreItem(item))
		b.WriteString("\n")
	}
	p.indent--
	b.WriteString(p.ind())
	b.WriteString("}")
	return b.String()
}

func (p *printer) scoreItem(item ast.ScoreItem) string {
	switch it := item.(type) {
	case *ast.MetaBlock:
		return p.metaBlock(it)
	case *ast.TempoBlock:
		return p.tempoBlock(it)
	case *ast.MeterBlock:
		return p.meterBlock(it)
	case *ast.SoundDecl:
		return p.soundDecl(it)
	case *ast.TrackDecl:
		return p.trackDecl(it)
	case *ast.ScoreMarker:
		return "marker " + p.expr(it.At, precTernary) + " " + strconv.Quote(it.Kind) + " " + p.expr(it.Label, precTernary) + ";"
	default:
		return fmt.Sprintf("/* unknown score item %T */", item)
	}
}

func (p *printer) metaBlock(b *ast.MetaBlock) string {
	var sb strings.Builder
	sb.WriteString("meta {\n")
	p.indent++
	for _, f := range b.Fields {
		sb.WriteString(p.ind())
		sb.WriteString(f.Key + " " + p.expr(f.Value, precTernary) + ";\n")
	}
	p.indent--
	sb.WriteString(p.ind())
	sb.WriteString("}")
	return sb.String()
}

func (p *printer) tempoBlock(b *ast.TempoBlock) string {
	var sb strings.Builder
	sb.WriteString("tempo {\n")
	p.indent++
	for _, e := range b.Entries {
		sb.WriteString(p.ind())
		sb.WriteString(p.expr(e.At, precTernary) + " -> " + p.expr(e.BPM, precAdditive) + "bpm;\n")
	}
	p.indent--
	sb.WriteString(p.ind())
	sb.WriteString("}")
	return sb.String()
}

func (p *printer) meterBlock(b *ast.MeterBlock) string {
	var sb strings.Builder
	sb.WriteString("meter {\n")
	p.indent++
	for _, e := range b.Entries {
		sb.WriteString(p.ind())
		sb.WriteString(p.expr(e.At, precTernary) + " -> " + p.expr(e.Numerator, precTernary) + "/" + p.expr(e.Denominator, precTernary) + ";\n")
	}
	p.indent--
	sb.WriteString(p.ind())
	sb.WriteString("}")
	return sb.String()
}

func (p *printer) soundDecl(d *ast.SoundDecl) string {
	var sb strings.Builder
	sb.WriteString("sound " + strconv.Quote(d.ID) + " kind " + d.Kind + " {\n")
	p.indent++
	for _, f := range d.Fields {
		sb.WriteString(p.ind())
		sb.WriteString(f.Key + " " + p.expr(f.Value, precTernary) + ";\n")
	}
	p.indent--
	sb.WriteString(p.ind())
	sb.WriteString("}")
	return sb.String()
}

func (p *printer) trackDecl(d *ast.TrackDecl) string {
	var sb strings.Builder
	sb.WriteString("track " + strconv.Quote(d.Name) + " role " + d.Role + " sound " + strconv.Quote(d.Sound) + " {\n")
	p.indent++
	for _, pl := range d.Placements {
		sb.WriteString(p.ind())
		sb.WriteString("place " + p.expr(pl.At, precTernary) + " " + p.expr(pl.Clip, precTernary) + ";\n")
	}
	p.indent--
	sb.WriteString(p.ind())
	sb.WriteString("}")
	return sb.String()
}

func (p *printer) clipExpr(x *ast.ClipExpr) string {
	var b strings.Builder
	b.WriteString("clip {\n")
	p.indent++
	for _, s := range x.Stmts {
		b.WriteString(p.ind())
		b.WriteString(p.clipStmt(s))
		b.WriteString("\n")
	}
	p.indent--
	b.WriteString(p.ind())
	b.WriteString("}")
	return b.String()
}

func (p *printer) clipStmt(s ast.ClipStmt) string {
	switch x := s.(type) {
	case *ast.AtStmt:
		return "at(" + p.expr(x.Pos, precTernary) + ");"
	case *ast.RestStmt:
		return "rest(" + p.expr(x.Duration, precTernary) + ");"
	case *ast.NoteStmt:
		return "note(" + p.clipArgs(x.Pitch, x.Duration, x.Velocity) + ");"
	case *ast.ChordStmt:
		return "chord(" + p.clipArgs(x.Pitches, x.Duration, x.Velocity) + ");"
	case *ast.HitStmt:
		return "hit(" + p.clipArgs(x.Name, x.Duration, x.Velocity) + ");"
	case *ast.CCStmt:
		return "cc(" + p.expr(x.Controller, precTernary) + ", " + p.expr(x.Value, precTernary) + ");"
	case *ast.AutomationStmt:
		return "automation(" + p.expr(x.Parameter, precTernary) + ", " + p.expr(x.Value, precTernary) + ");"
	case *ast.MarkerStmt:
		return "marker(" + p.expr(x.Label, precTernary) + ");"
	default:
		return fmt.Sprintf("/* unknown clip statement %T */", s)
	}
}

// clipArgs renders the shared "first, duration[, velocity: v]" shape
// of note/chord/hit; velocity prints as a named argument, matching the
// parser's namedArg("velocity") lookup in internal/parser/clip.go.
func (p *printer) clipArgs(first, duration, velocity ast.Expr) string {
	out := p.expr(first, precTernary) + ", " + p.expr(duration, precTernary)
	if velocity != nil {
		out += ", velocity: " + p.expr(velocity, precTernary)
	}
	return out
}
