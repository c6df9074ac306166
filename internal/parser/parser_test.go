package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/takomusic/mfs/internal/ast"
	"github.com/takomusic/mfs/internal/lexer"
	"github.com/takomusic/mfs/internal/source"
)

func parse(t *testing.T, src string) (*ast.Program, []string) {
	t.Helper()
	f := source.NewFile(0, "t.mfs", src)
	toks, lexErrs := lexer.New(f).Tokenize()
	require.Empty(t, lexErrs, "unexpected lexer errors")
	prog, errs := Parse(toks, f, 100)
	var msgs []string
	for _, e := range errs {
		msgs = append(msgs, e.Message)
	}
	return prog, msgs
}

func TestParseTopLevelDecls(t *testing.T) {
	src := `
export const tempo = 120;
enum Role { Lead, Bass }
export fn main() -> Score {
	return score { };
}
`
	prog, errs := parse(t, src)
	require.Empty(t, errs)
	require.Len(t, prog.Body, 3)

	c, ok := prog.Body[0].(*ast.ConstDecl)
	require.True(t, ok)
	assert.Equal(t, "tempo", c.Name)
	assert.True(t, c.Exported)

	e, ok := prog.Body[1].(*ast.EnumDecl)
	require.True(t, ok)
	assert.Equal(t, []string{"Lead", "Bass"}, e.Variants)

	fn, ok := prog.Body[2].(*ast.FnDecl)
	require.True(t, ok)
	assert.Equal(t, "main", fn.Name)
	assert.Equal(t, "Score", fn.RetType)
	require.Len(t, fn.Body, 1)
}

func TestImportForms(t *testing.T) {
	prog, errs := parse(t, `
import { a, b } from "./lib.mfs";
import * as theory from "std:theory";
fn main() {}
`)
	require.Empty(t, errs)
	require.Len(t, prog.Imports, 2)
	assert.Equal(t, []string{"a", "b"}, prog.Imports[0].Names)
	assert.Equal(t, "./lib.mfs", prog.Imports[0].Path)
	assert.Equal(t, "theory", prog.Imports[1].Namespace)
	assert.Equal(t, "std:theory", prog.Imports[1].Path)
}

func exprOf(t *testing.T, prog *ast.Program) ast.Expr {
	t.Helper()
	fn := prog.Body[0].(*ast.FnDecl)
	ret := fn.Body[0].(*ast.ReturnStmt)
	return ret.Value
}

func TestBinaryPrecedence(t *testing.T) {
	// 1 + 2 * 3 should parse as 1 + (2 * 3)
	prog, errs := parse(t, `fn main() { return 1 + 2 * 3; }`)
	require.Empty(t, errs)
	top := exprOf(t, prog).(*ast.BinaryExpr)
	assert.Equal(t, ast.OpAdd, top.Op)
	_, leftIsInt := top.Left.(*ast.IntLit)
	assert.True(t, leftIsInt)
	right, ok := top.Right.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, ast.OpMul, right.Op)
}

func TestComparisonLooserThanAdditive(t *testing.T) {
	prog, errs := parse(t, `fn main() { return 1 + 2 < 4 - 1; }`)
	require.Empty(t, errs)
	top := exprOf(t, prog).(*ast.BinaryExpr)
	assert.Equal(t, ast.OpLt, top.Op)
	_, ok := top.Left.(*ast.BinaryExpr)
	assert.True(t, ok)
}

func TestTernaryRightAssociative(t *testing.T) {
	prog, errs := parse(t, `fn main() { return a ? 1 : b ? 2 : 3; }`)
	require.Empty(t, errs)
	top := exprOf(t, prog).(*ast.TernaryExpr)
	_, elseIsTernary := top.Else.(*ast.TernaryExpr)
	assert.True(t, elseIsTernary)
}

func TestRangeDoesNotChain(t *testing.T) {
	_, errs := parse(t, `fn main() { for i in 0..1..2 { } }`)
	require.NotEmpty(t, errs)
}

func TestOptionalChainingAndIndex(t *testing.T) {
	prog, errs := parse(t, `fn main() { return a?.b?.[0]; }`)
	require.Empty(t, errs)
	idx, ok := exprOf(t, prog).(*ast.IndexExpr)
	require.True(t, ok)
	assert.True(t, idx.Optional)
	member, ok := idx.Object.(*ast.MemberExpr)
	require.True(t, ok)
	assert.True(t, member.Optional)
	assert.Equal(t, "b", member.Field)
}

func TestCallWithNamedAndPositionalArgs(t *testing.T) {
	prog, errs := parse(t, `fn main() { return make(C4, duration: 1/4); }`)
	require.Empty(t, errs)
	call, ok := exprOf(t, prog).(*ast.CallExpr)
	require.True(t, ok)
	require.Len(t, call.Args, 2)
	assert.Equal(t, "", call.Args[0].Name)
	assert.Equal(t, "duration", call.Args[1].Name)
}

func TestArrowFnExpressionBody(t *testing.T) {
	prog, errs := parse(t, `fn main() { return (x) => x + 1; }`)
	require.Empty(t, errs)
	fn, ok := exprOf(t, prog).(*ast.ArrowFn)
	require.True(t, ok)
	require.Len(t, fn.Params, 1)
	require.Len(t, fn.Body, 1)
	_, isReturn := fn.Body[0].(*ast.ReturnStmt)
	assert.True(t, isReturn)
}

func TestArrowFnBlockBody(t *testing.T) {
	prog, errs := parse(t, `fn main() { return (x) => { let y = x; return y; }; }`)
	require.Empty(t, errs)
	fn, ok := exprOf(t, prog).(*ast.ArrowFn)
	require.True(t, ok)
	require.Len(t, fn.Body, 2)
}

func TestRestParam(t *testing.T) {
	prog, errs := parse(t, `fn sum(...args) { return args; }`)
	require.Empty(t, errs)
	fn := prog.Body[0].(*ast.FnDecl)
	require.Len(t, fn.Params, 1)
	assert.True(t, fn.Params[0].Rest)
}

func TestMatchExprWithElseArm(t *testing.T) {
	prog, errs := parse(t, `fn main() { return match x { 1 => "one", else => "many" }; }`)
	require.Empty(t, errs)
	m, ok := exprOf(t, prog).(*ast.MatchExpr)
	require.True(t, ok)
	require.Len(t, m.Arms, 2)
	assert.Nil(t, m.Arms[1].Pattern)
}

func TestScoreBlockStructure(t *testing.T) {
	src := `
fn main() -> Score {
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
`
	prog, errs := parse(t, src)
	require.Empty(t, errs)
	fn := prog.Body[0].(*ast.FnDecl)
	ret := fn.Body[0].(*ast.ReturnStmt)
	score, ok := ret.Value.(*ast.ScoreExpr)
	require.True(t, ok)
	require.Len(t, score.Items, 6)

	_, ok = score.Items[0].(*ast.MetaBlock)
	assert.True(t, ok)
	_, ok = score.Items[1].(*ast.TempoBlock)
	assert.True(t, ok)
	_, ok = score.Items[2].(*ast.MeterBlock)
	assert.True(t, ok)
	_, ok = score.Items[3].(*ast.SoundDecl)
	assert.True(t, ok)

	track, ok := score.Items[4].(*ast.TrackDecl)
	require.True(t, ok)
	assert.Equal(t, "Piano", track.Name)
	assert.Equal(t, "Instrument", track.Role)
	require.Len(t, track.Placements, 1)

	clip, ok := track.Placements[0].Clip.(*ast.ClipExpr)
	require.True(t, ok)
	require.Len(t, clip.Stmts, 3)
	_, ok = clip.Stmts[0].(*ast.NoteStmt)
	assert.True(t, ok)
	_, ok = clip.Stmts[1].(*ast.RestStmt)
	assert.True(t, ok)
	_, ok = clip.Stmts[2].(*ast.ChordStmt)
	assert.True(t, ok)

	_, ok = score.Items[5].(*ast.ScoreMarker)
	assert.True(t, ok)
}

func TestForLoopAndIf(t *testing.T) {
	src := `
fn main() {
	for i in 0..=3 {
		if i == 0 {
			let x = 1;
		} else if i == 1 {
			let x = 2;
		} else {
			let x = 3;
		}
	}
}
`
	prog, errs := parse(t, src)
	require.Empty(t, errs)
	fn := prog.Body[0].(*ast.FnDecl)
	forStmt, ok := fn.Body[0].(*ast.ForStmt)
	require.True(t, ok)
	assert.True(t, forStmt.Inclusive)
	ifStmt, ok := forStmt.Body[0].(*ast.IfStmt)
	require.True(t, ok)
	require.Len(t, ifStmt.Else, 1)
	_, nestedIsIf := ifStmt.Else[0].(*ast.IfStmt)
	assert.True(t, nestedIsIf)
}

func TestUnexpectedTokenRecovers(t *testing.T) {
	// A malformed statement should report an error but parsing should
	// continue past it rather than aborting the whole program.
	src := `
fn a() { return 1 +; }
fn b() { return 2; }
`
	prog, errs := parse(t, src)
	require.NotEmpty(t, errs)
	require.Len(t, prog.Body, 2)
}
