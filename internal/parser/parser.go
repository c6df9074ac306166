// Package parser turns a lexer.Token stream into an *ast.Program (spec
// §4.D). It is a hand-written recursive-descent parser with a Pratt
// expression core; error recovery resynchronizes to the next ';' or to
// the '}' closing the enclosing block, and is capped by the maxErrors
// argument to Parse.
package parser

import (
	"fmt"

	"github.com/takomusic/mfs/internal/ast"
	"github.com/takomusic/mfs/internal/diag"
	"github.com/takomusic/mfs/internal/lexer"
	"github.com/takomusic/mfs/internal/source"
)

// Parser holds the token stream and accumulated diagnostics for one
// module's parse.
type Parser struct {
	toks      []lexer.Token
	pos       int
	file      *source.File
	errs      []diag.Diagnostic
	maxErrors int
}

// New creates a Parser over toks, the full token stream for file
// (including its trailing EOF token). maxErrors caps the number of
// diagnostics reported before parsing gives up early.
func New(toks []lexer.Token, file *source.File, maxErrors int) *Parser {
	if maxErrors <= 0 {
		maxErrors = 100
	}
	return &Parser{toks: toks, file: file, maxErrors: maxErrors}
}

// Parse runs the parser to completion and returns the program (always
// non-nil, possibly partial) alongside any diagnostics.
func Parse(toks []lexer.Token, file *source.File, maxErrors int) (*ast.Program, []diag.Diagnostic) {
	p := New(toks, file, maxErrors)
	return p.ParseProgram(), p.errs
}

// --- token cursor ---

func (p *Parser) cur() lexer.Token {
	if p.pos >= len(p.toks) {
		return p.toks[len(p.toks)-1] // EOF
	}
	return p.toks[p.pos]
}

func (p *Parser) peek(n int) lexer.Token {
	idx := p.pos + n
	if idx >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[idx]
}

func (p *Parser) at(k lexer.Kind) bool { return p.cur().Kind == k }

func (p *Parser) atEOF() bool { return p.cur().Kind == lexer.EOF }

func (p *Parser) advance() lexer.Token {
	t := p.cur()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) giveUp() bool { return len(p.errs) >= p.maxErrors }

func (p *Parser) errorAt(tok lexer.Token, code diag.Code, msg string) {
	if p.giveUp() {
		return
	}
	p.errs = append(p.errs, diag.Diagnostic{
		Severity: diag.Error,
		Code:     code,
		Message:  msg,
		Span:     tok.Span,
	})
}

// expect consumes the current token if it matches k, else reports a
// diagnostic and returns the zero Token with ok=false.
func (p *Parser) expect(k lexer.Kind, code diag.Code) (lexer.Token, bool) {
	if p.at(k) {
		return p.advance(), true
	}
	p.errorAt(p.cur(), code, fmt.Sprintf("expected %s, found %s", k, p.cur().Kind))
	return lexer.Token{}, false
}

// synchronize skips tokens until a statement boundary: ';' (consumed)
// or a '}' that closes the enclosing block (left in place).
func (p *Parser) synchronize() {
	depth := 0
	for !p.atEOF() {
		switch p.cur().Kind {
		case lexer.Semicolon:
			p.advance()
			return
		case lexer.LBrace:
			depth++
		case lexer.RBrace:
			if depth == 0 {
				return
			}
			depth--
		}
		p.advance()
	}
}

func mergeSpan(a, b source.Span) source.Span { return source.Merge(a, b) }

// --- program ---

func (p *Parser) ParseProgram() *ast.Program {
	startSpan := p.cur().Span
	prog := &ast.Program{}

	for p.at(lexer.KwImport) {
		if p.giveUp() {
			break
		}
		if imp := p.parseImportDecl(); imp != nil {
			prog.Imports = append(prog.Imports, imp)
		} else {
			p.synchronize()
		}
	}

	for !p.atEOF() {
		if p.giveUp() {
			break
		}
		decl := p.parseTopDecl()
		if decl != nil {
			prog.Body = append(prog.Body, decl)
		} else {
			p.synchronize()
		}
	}

	endSpan := p.cur().Span
	prog.SpanV = mergeSpan(startSpan, endSpan)
	return prog
}

func (p *Parser) parseImportDecl() *ast.ImportDecl {
	start := p.cur().Span
	p.advance() // 'import'

	decl := &ast.ImportDecl{}
	if p.at(lexer.Star) {
		p.advance()
		if _, ok := p.expect(lexer.KwAs, diag.CodeUnexpectedToken); !ok {
			return nil
		}
		name, ok := p.expect(lexer.Ident, diag.CodeExpectedIdentifier)
		if !ok {
			return nil
		}
		decl.Namespace = name.Lexeme
	} else {
		if _, ok := p.expect(lexer.LBrace, diag.CodeUnexpectedToken); !ok {
			return nil
		}
		for !p.at(lexer.RBrace) && !p.atEOF() {
			name, ok := p.expect(lexer.Ident, diag.CodeExpectedIdentifier)
			if !ok {
				return nil
			}
			decl.Names = append(decl.Names, name.Lexeme)
			if p.at(lexer.Comma) {
				p.advance()
				continue
			}
			break
		}
		if _, ok := p.expect(lexer.RBrace, diag.CodeMismatchedBrackets); !ok {
			return nil
		}
	}
	if _, ok := p.expect(lexer.KwFrom, diag.CodeUnexpectedToken); !ok {
		return nil
	}
	pathTok, ok := p.expect(lexer.String, diag.CodeUnexpectedToken)
	if !ok {
		return nil
	}
	decl.Path = pathTok.Lexeme
	end := p.cur().Span
	if semi, ok := p.expect(lexer.Semicolon, diag.CodeUnexpectedToken); ok {
		end = semi.Span
	}
	decl.SpanV = mergeSpan(start, end)
	return decl
}

func (p *Parser) parseTopDecl() ast.TopDecl {
	start := p.cur().Span
	exported := false
	if p.at(lexer.KwExport) {
		p.advance()
		exported = true
	}

	switch p.cur().Kind {
	case lexer.KwFn:
		return p.parseFnDecl(start, exported)
	case lexer.KwConst:
		return p.parseTopConstDecl(start, exported)
	case lexer.KwEnum:
		return p.parseEnumDecl(start, exported)
	case lexer.KwLet:
		// Accepted here so parsing can recover past it; flagged by
		// validation as E0090 (let is block-local, spec Open Question).
		s := p.parseLetDecl()
		if s == nil {
			return nil
		}
		return s.(ast.TopDecl)
	default:
		p.errorAt(p.cur(), diag.CodeUnexpectedToken, fmt.Sprintf("expected a top-level declaration (fn, const, or enum), found %s", p.cur().Kind))
		return nil
	}
}

func (p *Parser) parseFnDecl(start source.Span, exported bool) *ast.FnDecl {
	p.advance() // 'fn'
	nameTok, ok := p.expect(lexer.Ident, diag.CodeExpectedIdentifier)
	if !ok {
		return nil
	}
	if _, ok := p.expect(lexer.LParen, diag.CodeUnexpectedToken); !ok {
		return nil
	}
	params := p.parseParamList()
	if _, ok := p.expect(lexer.RParen, diag.CodeMismatchedBrackets); !ok {
		return nil
	}
	retType := ""
	if p.at(lexer.Arrow) {
		p.advance()
		if t, ok := p.expect(lexer.Ident, diag.CodeExpectedIdentifier); ok {
			retType = t.Lexeme
		}
	}
	if _, ok := p.expect(lexer.LBrace, diag.CodeUnexpectedToken); !ok {
		return nil
	}
	body := p.parseBlock()
	end, _ := p.expect(lexer.RBrace, diag.CodeMismatchedBrackets)
	return &ast.FnDecl{
		Name:     nameTok.Lexeme,
		Params:   params,
		RetType:  retType,
		Body:     body,
		Exported: exported,
		SpanV:    mergeSpan(start, end.Span),
	}
}

func (p *Parser) parseParamList() []ast.Param {
	var params []ast.Param
	for !p.at(lexer.RParen) && !p.atEOF() {
		var param ast.Param
		if p.at(lexer.Ellipsis) {
			p.advance()
			param.Rest = true
		}
		nameTok, ok := p.expect(lexer.Ident, diag.CodeExpectedIdentifier)
		if !ok {
			break
		}
		param.Name = nameTok.Lexeme
		if !param.Rest && p.at(lexer.Assign) {
			p.advance()
			param.Default = p.parseTernary()
		}
		params = append(params, param)
		if p.at(lexer.Comma) {
			p.advance()
			continue
		}
		break
	}
	return params
}

func (p *Parser) parseTopConstDecl(start source.Span, exported bool) *ast.ConstDecl {
	p.advance() // 'const'
	nameTok, ok := p.expect(lexer.Ident, diag.CodeExpectedIdentifier)
	if !ok {
		return nil
	}
	if _, ok := p.expect(lexer.Assign, diag.CodeUnexpectedToken); !ok {
		return nil
	}
	value := p.parseExpr()
	end, _ := p.expect(lexer.Semicolon, diag.CodeUnexpectedToken)
	return &ast.ConstDecl{Name: nameTok.Lexeme, Value: value, Exported: exported, SpanV: mergeSpan(start, end.Span)}
}

func (p *Parser) parseEnumDecl(start source.Span, exported bool) *ast.EnumDecl {
	p.advance() // 'enum'
	nameTok, ok := p.expect(lexer.Ident, diag.CodeExpectedIdentifier)
	if !ok {
		return nil
	}
	if _, ok := p.expect(lexer.LBrace, diag.CodeUnexpectedToken); !ok {
		return nil
	}
	var variants []string
	for !p.at(lexer.RBrace) && !p.atEOF() {
		v, ok := p.expect(lexer.Ident, diag.CodeExpectedIdentifier)
		if !ok {
			break
		}
		variants = append(variants, v.Lexeme)
		if p.at(lexer.Comma) {
			p.advance()
			continue
		}
		break
	}
	end, _ := p.expect(lexer.RBrace, diag.CodeMismatchedBrackets)
	return &ast.EnumDecl{Name: nameTok.Lexeme, Variants: variants, Exported: exported, SpanV: mergeSpan(start, end.Span)}
}

// --- statements ---

func (p *Parser) parseBlock() []ast.Stmt {
	var stmts []ast.Stmt
	for !p.at(lexer.RBrace) && !p.atEOF() {
		if p.giveUp() {
			break
		}
		s := p.parseStmt()
		if s != nil {
			stmts = append(stmts, s)
		} else {
			p.synchronize()
		}
	}
	return stmts
}

func (p *Parser) parseStmt() ast.Stmt {
	switch p.cur().Kind {
	case lexer.KwConst:
		return p.parseLocalConst()
	case lexer.KwLet:
		return p.parseLetDecl()
	case lexer.KwReturn:
		return p.parseReturnStmt()
	case lexer.KwIf:
		return p.parseIfStmt()
	case lexer.KwFor:
		return p.parseForStmt()
	default:
		return p.parseExprOrAssignmentStmt()
	}
}

func (p *Parser) parseLocalConst() ast.Stmt {
	start := p.cur().Span
	p.advance()
	nameTok, ok := p.expect(lexer.Ident, diag.CodeExpectedIdentifier)
	if !ok {
		return nil
	}
	if _, ok := p.expect(lexer.Assign, diag.CodeUnexpectedToken); !ok {
		return nil
	}
	value := p.parseExpr()
	end, _ := p.expect(lexer.Semicolon, diag.CodeUnexpectedToken)
	return &ast.LocalConstDecl{Name: nameTok.Lexeme, Value: value, SpanV: mergeSpan(start, end.Span)}
}

func (p *Parser) parseLetDecl() ast.Stmt {
	start := p.cur().Span
	p.advance()
	nameTok, ok := p.expect(lexer.Ident, diag.CodeExpectedIdentifier)
	if !ok {
		return nil
	}
	if _, ok := p.expect(lexer.Assign, diag.CodeUnexpectedToken); !ok {
		return nil
	}
	value := p.parseExpr()
	end, _ := p.expect(lexer.Semicolon, diag.CodeUnexpectedToken)
	return &ast.LetDecl{Name: nameTok.Lexeme, Value: value, SpanV: mergeSpan(start, end.Span)}
}

func (p *Parser) parseReturnStmt() ast.Stmt {
	start := p.cur().Span
	p.advance()
	var value ast.Expr
	if !p.at(lexer.Semicolon) {
		value = p.parseExpr()
	}
	end, _ := p.expect(lexer.Semicolon, diag.CodeUnexpectedToken)
	return &ast.ReturnStmt{Value: value, SpanV: mergeSpan(start, end.Span)}
}

func (p *Parser) parseIfStmt() ast.Stmt {
	start := p.cur().Span
	p.advance() // 'if'
	cond := p.parseExpr()
	if _, ok := p.expect(lexer.LBrace, diag.CodeUnexpectedToken); !ok {
		return nil
	}
	then := p.parseBlock()
	endTok, _ := p.expect(lexer.RBrace, diag.CodeMismatchedBrackets)
	end := endTok.Span

	var elseBody []ast.Stmt
	if p.at(lexer.KwElse) {
		p.advance()
		if p.at(lexer.KwIf) {
			nested := p.parseIfStmt()
			if nested != nil {
				elseBody = []ast.Stmt{nested}
				end = nested.Span()
			}
		} else {
			if _, ok := p.expect(lexer.LBrace, diag.CodeUnexpectedToken); ok {
				elseBody = p.parseBlock()
				endTok2, _ := p.expect(lexer.RBrace, diag.CodeMismatchedBrackets)
				end = endTok2.Span
			}
		}
	}
	return &ast.IfStmt{Cond: cond, Then: then, Else: elseBody, SpanV: mergeSpan(start, end)}
}

func (p *Parser) parseForStmt() ast.Stmt {
	start := p.cur().Span
	p.advance() // 'for'
	varTok, ok := p.expect(lexer.Ident, diag.CodeExpectedIdentifier)
	if !ok {
		return nil
	}
	if _, ok := p.expect(lexer.KwIn, diag.CodeUnexpectedToken); !ok {
		return nil
	}
	rangeStart := p.parseAdditive()
	inclusive := false
	switch p.cur().Kind {
	case lexer.DotDot:
		p.advance()
	case lexer.DotDotEq:
		p.advance()
		inclusive = true
	default:
		p.errorAt(p.cur(), diag.CodeUnexpectedToken, "expected '..' or '..=' in for-loop range")
		return nil
	}
	rangeEnd := p.parseAdditive()
	if _, ok := p.expect(lexer.LBrace, diag.CodeUnexpectedToken); !ok {
		return nil
	}
	body := p.parseBlock()
	end, _ := p.expect(lexer.RBrace, diag.CodeMismatchedBrackets)
	return &ast.ForStmt{
		Var: varTok.Lexeme, Start: rangeStart, End: rangeEnd, Inclusive: inclusive,
		Body: body, SpanV: mergeSpan(start, end.Span),
	}
}

func (p *Parser) parseExprOrAssignmentStmt() ast.Stmt {
	start := p.cur().Span
	expr := p.parseExpr()
	if expr == nil {
		return nil
	}
	if p.at(lexer.Assign) {
		p.advance()
		value := p.parseExpr()
		end, _ := p.expect(lexer.Semicolon, diag.CodeUnexpectedToken)
		return &ast.AssignmentStmt{Target: expr, Value: value, SpanV: mergeSpan(start, end.Span)}
	}
	end, _ := p.expect(lexer.Semicolon, diag.CodeUnexpectedToken)
	return &ast.ExprStmt{Value: expr, SpanV: mergeSpan(start, end.Span)}
}
