package parser

import (
	"fmt"

	"github.com/takomusic/mfs/internal/ast"
	"github.com/takomusic/mfs/internal/diag"
	"github.com/takomusic/mfs/internal/lexer"
)

func (p *Parser) parseClipExpr() ast.Expr {
	start := p.cur().Span
	p.advance() // 'clip'
	if _, ok := p.expect(lexer.LBrace, diag.CodeUnexpectedToken); !ok {
		return nil
	}
	var stmts []ast.ClipStmt
	for !p.at(lexer.RBrace) && !p.atEOF() {
		if p.giveUp() {
			break
		}
		stmt := p.parseClipStmt()
		if stmt != nil {
			stmts = append(stmts, stmt)
		} else {
			p.synchronize()
		}
	}
	end, _ := p.expect(lexer.RBrace, diag.CodeMismatchedBrackets)
	return &ast.ClipExpr{Stmts: stmts, SpanV: mergeSpan(start, end.Span)}
}

func (p *Parser) parseClipStmt() ast.ClipStmt {
	if !p.at(lexer.Ident) {
		p.errorAt(p.cur(), diag.CodeUnexpectedToken, fmt.Sprintf("expected one of at, rest, note, chord, hit, cc, automation, marker, found %s", p.cur().Kind))
		return nil
	}
	switch p.cur().Lexeme {
	case "at":
		return p.parseAtStmt()
	case "rest":
		return p.parseRestStmt()
	case "note":
		return p.parseNoteStmt()
	case "chord":
		return p.parseChordStmt()
	case "hit":
		return p.parseHitStmt()
	case "cc":
		return p.parseCCStmt()
	case "automation":
		return p.parseAutomationStmt()
	case "marker":
		return p.parseClipMarkerStmt()
	default:
		p.errorAt(p.cur(), diag.CodeUnexpectedToken, fmt.Sprintf("unknown clip statement '%s'", p.cur().Lexeme))
		return nil
	}
}

// argAt returns the value of the i-th positional argument, or nil.
func argAt(args []ast.Arg, i int) ast.Expr {
	pos := 0
	for _, a := range args {
		if a.Name == "" {
			if pos == i {
				return a.Value
			}
			pos++
		}
	}
	return nil
}

// namedArg returns the value of a named argument, or nil.
func namedArg(args []ast.Arg, name string) ast.Expr {
	for _, a := range args {
		if a.Name == name {
			return a.Value
		}
	}
	return nil
}

func (p *Parser) parseClipCall() ([]ast.Arg, bool) {
	if _, ok := p.expect(lexer.LParen, diag.CodeUnexpectedToken); !ok {
		return nil, false
	}
	args := p.parseArgList()
	if _, ok := p.expect(lexer.RParen, diag.CodeMismatchedBrackets); !ok {
		return nil, false
	}
	return args, true
}

func (p *Parser) parseAtStmt() ast.ClipStmt {
	start := p.cur().Span
	p.advance() // 'at'
	args, ok := p.parseClipCall()
	if !ok {
		return nil
	}
	end, ok := p.expect(lexer.Semicolon, diag.CodeUnexpectedToken)
	if !ok {
		return nil
	}
	return &ast.AtStmt{Pos: argAt(args, 0), SpanV: mergeSpan(start, end.Span)}
}

func (p *Parser) parseRestStmt() ast.ClipStmt {
	start := p.cur().Span
	p.advance() // 'rest'
	args, ok := p.parseClipCall()
	if !ok {
		return nil
	}
	end, ok := p.expect(lexer.Semicolon, diag.CodeUnexpectedToken)
	if !ok {
		return nil
	}
	return &ast.RestStmt{Duration: argAt(args, 0), SpanV: mergeSpan(start, end.Span)}
}

func (p *Parser) parseNoteStmt() ast.ClipStmt {
	start := p.cur().Span
	p.advance() // 'note'
	args, ok := p.parseClipCall()
	if !ok {
		return nil
	}
	end, ok := p.expect(lexer.Semicolon, diag.CodeUnexpectedToken)
	if !ok {
		return nil
	}
	velocity := namedArg(args, "velocity")
	if velocity == nil {
		velocity = argAt(args, 2)
	}
	return &ast.NoteStmt{
		Pitch: argAt(args, 0), Duration: argAt(args, 1), Velocity: velocity,
		SpanV: mergeSpan(start, end.Span),
	}
}

func (p *Parser) parseChordStmt() ast.ClipStmt {
	start := p.cur().Span
	p.advance() // 'chord'
	args, ok := p.parseClipCall()
	if !ok {
		return nil
	}
	end, ok := p.expect(lexer.Semicolon, diag.CodeUnexpectedToken)
	if !ok {
		return nil
	}
	velocity := namedArg(args, "velocity")
	if velocity == nil {
		velocity = argAt(args, 2)
	}
	return &ast.ChordStmt{
		Pitches: argAt(args, 0), Duration: argAt(args, 1), Velocity: velocity,
		SpanV: mergeSpan(start, end.Span),
	}
}

func (p *Parser) parseHitStmt() ast.ClipStmt {
	start := p.cur().Span
	p.advance() // 'hit'
	args, ok := p.parseClipCall()
	if !ok {
		return nil
	}
	end, ok := p.expect(lexer.Semicolon, diag.CodeUnexpectedToken)
	if !ok {
		return nil
	}
	velocity := namedArg(args, "velocity")
	if velocity == nil {
		velocity = argAt(args, 2)
	}
	return &ast.HitStmt{
		Name: argAt(args, 0), Duration: argAt(args, 1), Velocity: velocity,
		SpanV: mergeSpan(start, end.Span),
	}
}

func (p *Parser) parseCCStmt() ast.ClipStmt {
	start := p.cur().Span
	p.advance() // 'cc'
	args, ok := p.parseClipCall()
	if !ok {
		return nil
	}
	end, ok := p.expect(lexer.Semicolon, diag.CodeUnexpectedToken)
	if !ok {
		return nil
	}
	return &ast.CCStmt{Controller: argAt(args, 0), Value: argAt(args, 1), SpanV: mergeSpan(start, end.Span)}
}

func (p *Parser) parseAutomationStmt() ast.ClipStmt {
	start := p.cur().Span
	p.advance() // 'automation'
	args, ok := p.parseClipCall()
	if !ok {
		return nil
	}
	end, ok := p.expect(lexer.Semicolon, diag.CodeUnexpectedToken)
	if !ok {
		return nil
	}
	return &ast.AutomationStmt{Parameter: argAt(args, 0), Value: argAt(args, 1), SpanV: mergeSpan(start, end.Span)}
}

func (p *Parser) parseClipMarkerStmt() ast.ClipStmt {
	start := p.cur().Span
	p.advance() // 'marker'
	args, ok := p.parseClipCall()
	if !ok {
		return nil
	}
	end, ok := p.expect(lexer.Semicolon, diag.CodeUnexpectedToken)
	if !ok {
		return nil
	}
	return &ast.MarkerStmt{Label: argAt(args, 0), SpanV: mergeSpan(start, end.Span)}
}
