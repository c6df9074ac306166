package parser

import (
	"strconv"
	"strings"

	"github.com/takomusic/mfs/internal/ast"
	"github.com/takomusic/mfs/internal/diag"
	"github.com/takomusic/mfs/internal/lexer"
)

// parsePitchLit decodes a lexed pitch token's lexeme, e.g. "F#3" or
// "C-1", into its letter/accidental/octave parts.
func parsePitchLit(tok lexer.Token) ast.Expr {
	s := tok.Lexeme
	letter := s[0]
	i := 1
	var accidental byte
	if i < len(s) && (s[i] == '#' || s[i] == 'b') {
		accidental = s[i]
		i++
	}
	octave, _ := strconv.Atoi(s[i:])
	return &ast.PitchLit{Letter: letter, Accidental: accidental, Octave: octave, SpanV: tok.Span}
}

// parseDurationLit decodes a lexed duration token into an n/d fraction
// of a whole note. Three raw forms are produced by the lexer: a bare
// fraction ("1/4"), a tick count ("480t", resolved against a
// 480-ticks-per-quarter convention), and a dotted letter-coded form
// ("2q.", meaning a double-quarter note with one augmentation dot).
func parseDurationLit(tok lexer.Token) ast.Expr {
	raw := tok.Lexeme
	if idx := strings.IndexByte(raw, '/'); idx >= 0 {
		num, _ := strconv.ParseInt(raw[:idx], 10, 64)
		den, _ := strconv.ParseInt(raw[idx+1:], 10, 64)
		return &ast.DurationLit{Num: num, Den: den, Raw: raw, SpanV: tok.Span}
	}
	// "t" is both the tick-count suffix and the thirty-second-note
	// letter code, so a bare "<digits>t" form is ambiguous. Ticks are
	// always written in the hundreds (480 ticks/quarter convention);
	// a thirty-second-note multiplier never is, and letter-coded forms
	// never carry a dot before the suffix. Use magnitude to break the tie.
	if strings.HasSuffix(raw, "t") && !strings.Contains(raw, ".") {
		if n, err := strconv.ParseInt(raw[:len(raw)-1], 10, 64); err == nil && n >= 100 {
			const ticksPerWhole = 1920 // 480 ticks/quarter * 4 quarters/whole
			return &ast.DurationLit{Num: n, Den: ticksPerWhole, Raw: raw, SpanV: tok.Span}
		}
	}

	// Letter-coded form: optional leading digit multiplier, a single
	// note-value letter, then zero or more augmentation dots.
	i := 0
	mult := int64(1)
	for i < len(raw) && raw[i] >= '0' && raw[i] <= '9' {
		i++
	}
	if i > 0 {
		mult, _ = strconv.ParseInt(raw[:i], 10, 64)
	}
	letterDen := map[byte]int64{
		'w': 1, 'h': 2, 'q': 4, 'e': 8, 's': 16, 't': 32, 'x': 64,
	}
	den, ok := letterDen[raw[i]]
	if !ok {
		den = 4
	}
	i++
	dots := 0
	for i < len(raw) && raw[i] == '.' {
		dots++
		i++
	}
	// base note value is mult/den of a whole note; each dot adds half
	// of the remaining value, converging to 2 - 2^-dots times the base.
	num := mult * (int64(1)<<uint(dots+1) - 1)
	den = den * (1 << uint(dots))
	return &ast.DurationLit{Num: num, Den: den, Raw: raw, SpanV: tok.Span}
}

// parseBarBeatLit decodes "bar:beat" or "bar:beat:sub" into its parts;
// Sub is -1 when the third component is absent.
func parseBarBeatLit(tok lexer.Token) ast.Expr {
	parts := strings.Split(tok.Lexeme, ":")
	bar, _ := strconv.Atoi(parts[0])
	beat, _ := strconv.Atoi(parts[1])
	sub := -1
	if len(parts) > 2 {
		sub, _ = strconv.Atoi(parts[2])
	}
	return &ast.BarBeatLit{Bar: bar, Beat: beat, Sub: sub, SpanV: tok.Span}
}

// parseMatchExpr parses `match scrutinee { pattern => value, ..., else => value }`.
func (p *Parser) parseMatchExpr() ast.Expr {
	start := p.cur().Span
	p.advance() // 'match'
	scrutinee := p.parseExpr()
	if _, ok := p.expect(lexer.LBrace, diag.CodeUnexpectedToken); !ok {
		return nil
	}
	var arms []ast.MatchArm
	for !p.at(lexer.RBrace) && !p.atEOF() {
		var arm ast.MatchArm
		if p.at(lexer.KwElse) {
			p.advance()
		} else {
			arm.Pattern = p.parseTernary()
		}
		if _, ok := p.expect(lexer.FatArrow, diag.CodeUnexpectedToken); !ok {
			break
		}
		arm.Value = p.parseTernary()
		arms = append(arms, arm)
		if p.at(lexer.Comma) {
			p.advance()
			continue
		}
		break
	}
	end, _ := p.expect(lexer.RBrace, diag.CodeMismatchedBrackets)
	return &ast.MatchExpr{Scrutinee: scrutinee, Arms: arms, SpanV: mergeSpan(start, end.Span)}
}
