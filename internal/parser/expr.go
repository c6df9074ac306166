package parser

import (
	"fmt"
	"strconv"

	"github.com/takomusic/mfs/internal/ast"
	"github.com/takomusic/mfs/internal/diag"
	"github.com/takomusic/mfs/internal/lexer"
	"github.com/takomusic/mfs/internal/source"
)

// endSpan returns right's span, falling back to left's when a nested
// parse failed and right is nil.
func endSpan(left, right ast.Expr) source.Span {
	if right == nil {
		return left.Span()
	}
	return right.Span()
}

// parseExpr is the expression entry point: ternary/nullish sit above
// the binary precedence ladder and are right-associative (spec §4.D).
func (p *Parser) parseExpr() ast.Expr {
	return p.parseTernary()
}

func (p *Parser) parseTernary() ast.Expr {
	cond := p.parseNullish()
	if cond == nil {
		return nil
	}
	if p.at(lexer.Question) {
		start := cond.Span()
		p.advance()
		then := p.parseTernary()
		if _, ok := p.expect(lexer.Colon, diag.CodeUnexpectedToken); !ok {
			return cond
		}
		els := p.parseTernary()
		end := cond.Span()
		if els != nil {
			end = els.Span()
		}
		return &ast.TernaryExpr{Cond: cond, Then: then, Else: els, SpanV: mergeSpan(start, end)}
	}
	return cond
}

func (p *Parser) parseNullish() ast.Expr {
	left := p.parseRange()
	if left == nil {
		return nil
	}
	if p.at(lexer.QuestionQuestion) {
		p.advance()
		right := p.parseNullish()
		end := left.Span()
		if right != nil {
			end = right.Span()
		}
		return &ast.BinaryExpr{Op: ast.OpNullish, Left: left, Right: right, SpanV: mergeSpan(left.Span(), end)}
	}
	return left
}

// parseRange handles the non-chaining `..` / `..=` range operators,
// which bind looser than comparisons but never chain: `a..b..c` is a
// parse error rather than silently associating.
func (p *Parser) parseRange() ast.Expr {
	left := p.parseOrOr()
	if left == nil {
		return nil
	}
	var op ast.BinaryOp
	switch p.cur().Kind {
	case lexer.DotDot:
		op = ast.OpRange
	case lexer.DotDotEq:
		op = ast.OpRangeInclusive
	default:
		return left
	}
	p.advance()
	right := p.parseOrOr()
	expr := &ast.BinaryExpr{Op: op, Left: left, Right: right, SpanV: mergeSpan(left.Span(), endSpan(left, right))}
	if p.at(lexer.DotDot) || p.at(lexer.DotDotEq) {
		p.errorAt(p.cur(), diag.CodeUnexpectedToken, "range operators do not chain")
	}
	return expr
}

func (p *Parser) parseOrOr() ast.Expr {
	left := p.parseAndAnd()
	for left != nil && p.at(lexer.OrOr) {
		p.advance()
		right := p.parseAndAnd()
		left = &ast.BinaryExpr{Op: ast.OpOrOr, Left: left, Right: right, SpanV: mergeSpan(left.Span(), endSpan(left, right))}
	}
	return left
}

func (p *Parser) parseAndAnd() ast.Expr {
	left := p.parseEquality()
	for left != nil && p.at(lexer.AndAnd) {
		p.advance()
		right := p.parseEquality()
		left = &ast.BinaryExpr{Op: ast.OpAndAnd, Left: left, Right: right, SpanV: mergeSpan(left.Span(), endSpan(left, right))}
	}
	return left
}

func (p *Parser) parseEquality() ast.Expr {
	left := p.parseComparison()
	for left != nil {
		var op ast.BinaryOp
		switch p.cur().Kind {
		case lexer.Eq:
			op = ast.OpEq
		case lexer.Neq:
			op = ast.OpNeq
		default:
			return left
		}
		p.advance()
		right := p.parseComparison()
		left = &ast.BinaryExpr{Op: op, Left: left, Right: right, SpanV: mergeSpan(left.Span(), endSpan(left, right))}
	}
	return left
}

func (p *Parser) parseComparison() ast.Expr {
	left := p.parseAdditive()
	for left != nil {
		var op ast.BinaryOp
		switch p.cur().Kind {
		case lexer.Lt:
			op = ast.OpLt
		case lexer.Lte:
			op = ast.OpLte
		case lexer.Gt:
			op = ast.OpGt
		case lexer.Gte:
			op = ast.OpGte
		default:
			return left
		}
		p.advance()
		right := p.parseAdditive()
		left = &ast.BinaryExpr{Op: op, Left: left, Right: right, SpanV: mergeSpan(left.Span(), endSpan(left, right))}
	}
	return left
}

func (p *Parser) parseAdditive() ast.Expr {
	left := p.parseMultiplicative()
	for left != nil {
		var op ast.BinaryOp
		switch p.cur().Kind {
		case lexer.Plus:
			op = ast.OpAdd
		case lexer.Minus:
			op = ast.OpSub
		default:
			return left
		}
		p.advance()
		right := p.parseMultiplicative()
		left = &ast.BinaryExpr{Op: op, Left: left, Right: right, SpanV: mergeSpan(left.Span(), endSpan(left, right))}
	}
	return left
}

func (p *Parser) parseMultiplicative() ast.Expr {
	left := p.parseUnary()
	for left != nil {
		var op ast.BinaryOp
		switch p.cur().Kind {
		case lexer.Star:
			op = ast.OpMul
		case lexer.Slash:
			op = ast.OpDiv
		case lexer.Percent:
			op = ast.OpMod
		default:
			return left
		}
		p.advance()
		right := p.parseUnary()
		left = &ast.BinaryExpr{Op: op, Left: left, Right: right, SpanV: mergeSpan(left.Span(), endSpan(left, right))}
	}
	return left
}

func (p *Parser) parseUnary() ast.Expr {
	switch p.cur().Kind {
	case lexer.Minus:
		start := p.cur().Span
		p.advance()
		operand := p.parseUnary()
		end := start
		if operand != nil {
			end = operand.Span()
		}
		return &ast.UnaryExpr{Op: ast.OpNeg, Operand: operand, SpanV: mergeSpan(start, end)}
	case lexer.Bang:
		start := p.cur().Span
		p.advance()
		operand := p.parseUnary()
		end := start
		if operand != nil {
			end = operand.Span()
		}
		return &ast.UnaryExpr{Op: ast.OpNot, Operand: operand, SpanV: mergeSpan(start, end)}
	default:
		return p.parsePostfix()
	}
}

func (p *Parser) parsePostfix() ast.Expr {
	expr := p.parsePrimary()
	for expr != nil {
		switch p.cur().Kind {
		case lexer.Dot:
			p.advance()
			field, ok := p.expect(lexer.Ident, diag.CodeExpectedIdentifier)
			if !ok {
				return expr
			}
			expr = &ast.MemberExpr{Object: expr, Field: field.Lexeme, SpanV: mergeSpan(expr.Span(), field.Span)}
		case lexer.QuestionDot:
			p.advance()
			if p.at(lexer.LBracket) {
				p.advance()
				idx := p.parseExpr()
				end, _ := p.expect(lexer.RBracket, diag.CodeMismatchedBrackets)
				expr = &ast.IndexExpr{Object: expr, Index: idx, Optional: true, SpanV: mergeSpan(expr.Span(), end.Span)}
				continue
			}
			field, ok := p.expect(lexer.Ident, diag.CodeExpectedIdentifier)
			if !ok {
				return expr
			}
			expr = &ast.MemberExpr{Object: expr, Field: field.Lexeme, Optional: true, SpanV: mergeSpan(expr.Span(), field.Span)}
		case lexer.LBracket:
			p.advance()
			idx := p.parseExpr()
			end, _ := p.expect(lexer.RBracket, diag.CodeMismatchedBrackets)
			expr = &ast.IndexExpr{Object: expr, Index: idx, SpanV: mergeSpan(expr.Span(), end.Span)}
		case lexer.LParen:
			p.advance()
			args := p.parseArgList()
			end, _ := p.expect(lexer.RParen, diag.CodeMismatchedBrackets)
			expr = &ast.CallExpr{Callee: expr, Args: args, SpanV: mergeSpan(expr.Span(), end.Span)}
		default:
			return expr
		}
	}
	return expr
}

// parseArgList parses comma-separated call arguments; a `name: value`
// pair is a named argument, otherwise the argument is positional.
func (p *Parser) parseArgList() []ast.Arg {
	var args []ast.Arg
	for !p.at(lexer.RParen) && !p.atEOF() {
		var arg ast.Arg
		if p.at(lexer.Ident) && p.peek(1).Kind == lexer.Colon {
			arg.Name = p.cur().Lexeme
			p.advance()
			p.advance()
			arg.Value = p.parseTernary()
		} else {
			arg.Value = p.parseTernary()
		}
		args = append(args, arg)
		if p.at(lexer.Comma) {
			p.advance()
			continue
		}
		break
	}
	return args
}

func (p *Parser) parsePrimary() ast.Expr {
	tok := p.cur()
	switch tok.Kind {
	case lexer.Integer:
		p.advance()
		v, _ := strconv.ParseInt(tok.Lexeme, 10, 64)
		return &ast.IntLit{Value: v, SpanV: tok.Span}
	case lexer.Float:
		p.advance()
		v, _ := strconv.ParseFloat(tok.Lexeme, 64)
		return &ast.FloatLit{Value: v, SpanV: tok.Span}
	case lexer.String:
		p.advance()
		return &ast.StringLit{Value: tok.Lexeme, SpanV: tok.Span}
	case lexer.KwTrue:
		p.advance()
		return &ast.BoolLit{Value: true, SpanV: tok.Span}
	case lexer.KwFalse:
		p.advance()
		return &ast.BoolLit{Value: false, SpanV: tok.Span}
	case lexer.KwNull:
		p.advance()
		return &ast.NullLit{SpanV: tok.Span}
	case lexer.Pitch:
		p.advance()
		return parsePitchLit(tok)
	case lexer.Duration:
		p.advance()
		return parseDurationLit(tok)
	case lexer.BarBeat:
		p.advance()
		return parseBarBeatLit(tok)
	case lexer.TemplateFull:
		p.advance()
		return &ast.TemplateLit{Parts: []string{tok.Lexeme}, SpanV: tok.Span}
	case lexer.TemplateHead:
		return p.parseTemplateLit()
	case lexer.Ident:
		p.advance()
		return &ast.Ident{Name: tok.Lexeme, SpanV: tok.Span}
	case lexer.LBracket:
		return p.parseArrayLit()
	case lexer.LBrace:
		return p.parseObjectLit()
	case lexer.LParen:
		return p.parseParenOrArrow()
	case lexer.KwMatch:
		return p.parseMatchExpr()
	case lexer.KwScore:
		return p.parseScoreExpr()
	case lexer.KwClip:
		return p.parseClipExpr()
	default:
		p.errorAt(tok, diag.CodeExpectedExpression, fmt.Sprintf("expected an expression, found %s", tok.Kind))
		p.advance()
		return nil
	}
}

func (p *Parser) parseTemplateLit() ast.Expr {
	start := p.cur().Span
	head := p.advance()
	lit := &ast.TemplateLit{Parts: []string{head.Lexeme}}
	for {
		expr := p.parseExpr()
		lit.Exprs = append(lit.Exprs, expr)
		switch p.cur().Kind {
		case lexer.TemplateMiddle:
			tok := p.advance()
			lit.Parts = append(lit.Parts, tok.Lexeme)
			continue
		case lexer.TemplateTail:
			tok := p.advance()
			lit.Parts = append(lit.Parts, tok.Lexeme)
			lit.SpanV = mergeSpan(start, tok.Span)
			return lit
		default:
			p.errorAt(p.cur(), diag.CodeUnexpectedToken, "unterminated template literal interpolation")
			lit.SpanV = mergeSpan(start, p.cur().Span)
			return lit
		}
	}
}

func (p *Parser) parseArrayLit() ast.Expr {
	start := p.cur().Span
	p.advance() // '['
	var elems []ast.Expr
	for !p.at(lexer.RBracket) && !p.atEOF() {
		elems = append(elems, p.parseTernary())
		if p.at(lexer.Comma) {
			p.advance()
			continue
		}
		break
	}
	end, _ := p.expect(lexer.RBracket, diag.CodeMismatchedBrackets)
	return &ast.ArrayLit{Elements: elems, SpanV: mergeSpan(start, end.Span)}
}

func (p *Parser) parseObjectLit() ast.Expr {
	start := p.cur().Span
	p.advance() // '{'
	var fields []ast.ObjectField
	for !p.at(lexer.RBrace) && !p.atEOF() {
		var key string
		switch p.cur().Kind {
		case lexer.Ident:
			key = p.advance().Lexeme
		case lexer.String:
			key = p.advance().Lexeme
		default:
			p.errorAt(p.cur(), diag.CodeExpectedIdentifier, "expected an object field key")
			break
		}
		if _, ok := p.expect(lexer.Colon, diag.CodeUnexpectedToken); !ok {
			break
		}
		value := p.parseTernary()
		fields = append(fields, ast.ObjectField{Key: key, Value: value})
		if p.at(lexer.Comma) {
			p.advance()
			continue
		}
		break
	}
	end, _ := p.expect(lexer.RBrace, diag.CodeMismatchedBrackets)
	return &ast.ObjectLit{Fields: fields, SpanV: mergeSpan(start, end.Span)}
}

// parseParenOrArrow disambiguates `(expr)` from `(params) => body` by
// scanning ahead to the matching ')' and checking for a following '=>'.
func (p *Parser) parseParenOrArrow() ast.Expr {
	if p.looksLikeArrowParams() {
		return p.parseArrowFn()
	}
	p.advance() // '('
	inner := p.parseExpr()
	p.expect(lexer.RParen, diag.CodeMismatchedBrackets)
	return inner
}

func (p *Parser) looksLikeArrowParams() bool {
	depth := 0
	i := p.pos
	for i < len(p.toks) {
		k := p.toks[i].Kind
		switch k {
		case lexer.LParen:
			depth++
		case lexer.RParen:
			depth--
			if depth == 0 {
				return i+1 < len(p.toks) && p.toks[i+1].Kind == lexer.FatArrow
			}
		case lexer.EOF:
			return false
		}
		i++
	}
	return false
}

func (p *Parser) parseArrowFn() ast.Expr {
	start := p.cur().Span
	p.advance() // '('
	params := p.parseParamList()
	p.expect(lexer.RParen, diag.CodeMismatchedBrackets)
	p.expect(lexer.FatArrow, diag.CodeUnexpectedToken)
	body, end := p.parseArrowBody()
	return &ast.ArrowFn{Params: params, Body: body, SpanV: mergeSpan(start, end)}
}

// parseArrowBody parses either a `{ stmts }` block body or a single
// expression body, normalized to []ast.Stmt by wrapping a bare
// expression in an implicit ReturnStmt so the evaluator always sees a
// uniform statement list.
func (p *Parser) parseArrowBody() ([]ast.Stmt, source.Span) {
	if p.at(lexer.LBrace) {
		start := p.cur().Span
		p.advance()
		body := p.parseBlock()
		end, _ := p.expect(lexer.RBrace, diag.CodeMismatchedBrackets)
		_ = start
		return body, end.Span
	}
	expr := p.parseTernary()
	if expr == nil {
		return nil, p.cur().Span
	}
	return []ast.Stmt{&ast.ReturnStmt{Value: expr, SpanV: expr.Span()}}, expr.Span()
}
