package parser

import (
	"fmt"

	"github.com/takomusic/mfs/internal/ast"
	"github.com/takomusic/mfs/internal/diag"
	"github.com/takomusic/mfs/internal/lexer"
)

// parsePositionExpr parses a musical position: either a direct
// `bar:beat[:sub]` literal, or a general expression (e.g. a position
// plus a duration offset) evaluated by the interpreter.
func (p *Parser) parsePositionExpr() ast.Expr {
	if p.at(lexer.BarBeat) {
		tok := p.advance()
		return parseBarBeatLit(tok)
	}
	return p.parseTernary()
}

// parseKeywordIdent consumes an Ident token whose lexeme equals want;
// these score/clip sub-keywords (tempo, meter, sound, track, ...) are
// not globally reserved, so they're recognized contextually here
// rather than via the lexer's keyword table.
func (p *Parser) parseKeywordIdent(want string) bool {
	if p.at(lexer.Ident) && p.cur().Lexeme == want {
		p.advance()
		return true
	}
	p.errorAt(p.cur(), diag.CodeUnexpectedToken, fmt.Sprintf("expected '%s', found %s", want, p.cur().Kind))
	return false
}

func (p *Parser) atKeywordIdent(want string) bool {
	return p.at(lexer.Ident) && p.cur().Lexeme == want
}

// --- score { } ---

func (p *Parser) parseScoreExpr() ast.Expr {
	start := p.cur().Span
	p.advance() // 'score'
	if _, ok := p.expect(lexer.LBrace, diag.CodeUnexpectedToken); !ok {
		return nil
	}
	var items []ast.ScoreItem
	for !p.at(lexer.RBrace) && !p.atEOF() {
		if p.giveUp() {
			break
		}
		item := p.parseScoreItem()
		if item != nil {
			items = append(items, item)
		} else {
			p.synchronize()
		}
	}
	end, _ := p.expect(lexer.RBrace, diag.CodeMismatchedBrackets)
	return &ast.ScoreExpr{Items: items, SpanV: mergeSpan(start, end.Span)}
}

func (p *Parser) parseScoreItem() ast.ScoreItem {
	if !p.at(lexer.Ident) {
		p.errorAt(p.cur(), diag.CodeUnexpectedToken, fmt.Sprintf("expected one of meta, tempo, meter, sound, track, marker, found %s", p.cur().Kind))
		return nil
	}
	switch p.cur().Lexeme {
	case "meta":
		return p.parseMetaBlock()
	case "tempo":
		return p.parseTempoBlock()
	case "meter":
		return p.parseMeterBlock()
	case "sound":
		return p.parseSoundDecl()
	case "track":
		return p.parseTrackDecl()
	case "marker":
		return p.parseScoreMarker()
	default:
		p.errorAt(p.cur(), diag.CodeUnexpectedToken, fmt.Sprintf("unknown score item '%s'", p.cur().Lexeme))
		return nil
	}
}

func (p *Parser) parseMetaBlock() ast.ScoreItem {
	start := p.cur().Span
	p.advance() // 'meta'
	if _, ok := p.expect(lexer.LBrace, diag.CodeUnexpectedToken); !ok {
		return nil
	}
	var fields []ast.MetaField
	for !p.at(lexer.RBrace) && !p.atEOF() {
		key, ok := p.expect(lexer.Ident, diag.CodeExpectedIdentifier)
		if !ok {
			break
		}
		value := p.parseTernary()
		if _, ok := p.expect(lexer.Semicolon, diag.CodeUnexpectedToken); !ok {
			break
		}
		fields = append(fields, ast.MetaField{Key: key.Lexeme, Value: value})
	}
	end, _ := p.expect(lexer.RBrace, diag.CodeMismatchedBrackets)
	return &ast.MetaBlock{Fields: fields, SpanV: mergeSpan(start, end.Span)}
}

func (p *Parser) parseTempoBlock() ast.ScoreItem {
	start := p.cur().Span
	p.advance() // 'tempo'
	if _, ok := p.expect(lexer.LBrace, diag.CodeUnexpectedToken); !ok {
		return nil
	}
	var entries []ast.TempoEntry
	for !p.at(lexer.RBrace) && !p.atEOF() {
		entryStart := p.cur().Span
		at := p.parsePositionExpr()
		if _, ok := p.expect(lexer.Arrow, diag.CodeUnexpectedToken); !ok {
			break
		}
		bpm := p.parseAdditive()
		if !p.parseKeywordIdent("bpm") {
			break
		}
		end, ok := p.expect(lexer.Semicolon, diag.CodeUnexpectedToken)
		if !ok {
			break
		}
		entries = append(entries, ast.TempoEntry{At: at, BPM: bpm, SpanV: mergeSpan(entryStart, end.Span)})
	}
	end, _ := p.expect(lexer.RBrace, diag.CodeMismatchedBrackets)
	return &ast.TempoBlock{Entries: entries, SpanV: mergeSpan(start, end.Span)}
}

// parseFractionToken expects a Duration token written in bare "n/d"
// fractional form, used for meter signatures (e.g. "4/4", "6/8").
func (p *Parser) parseFractionToken() (ast.Expr, ast.Expr, bool) {
	if !p.at(lexer.Duration) {
		p.errorAt(p.cur(), diag.CodeUnexpectedToken, fmt.Sprintf("expected a meter signature like 4/4, found %s", p.cur().Kind))
		return nil, nil, false
	}
	tok := p.cur()
	durExpr := parseDurationLit(tok)
	dl := durExpr.(*ast.DurationLit)
	p.advance()
	return &ast.IntLit{Value: dl.Num, SpanV: tok.Span}, &ast.IntLit{Value: dl.Den, SpanV: tok.Span}, true
}

func (p *Parser) parseMeterBlock() ast.ScoreItem {
	start := p.cur().Span
	p.advance() // 'meter'
	if _, ok := p.expect(lexer.LBrace, diag.CodeUnexpectedToken); !ok {
		return nil
	}
	var entries []ast.MeterEntry
	for !p.at(lexer.RBrace) && !p.atEOF() {
		entryStart := p.cur().Span
		at := p.parsePositionExpr()
		if _, ok := p.expect(lexer.Arrow, diag.CodeUnexpectedToken); !ok {
			break
		}
		num, den, ok := p.parseFractionToken()
		if !ok {
			break
		}
		end, ok := p.expect(lexer.Semicolon, diag.CodeUnexpectedToken)
		if !ok {
			break
		}
		entries = append(entries, ast.MeterEntry{At: at, Numerator: num, Denominator: den, SpanV: mergeSpan(entryStart, end.Span)})
	}
	end, _ := p.expect(lexer.RBrace, diag.CodeMismatchedBrackets)
	return &ast.MeterBlock{Entries: entries, SpanV: mergeSpan(start, end.Span)}
}

func (p *Parser) parseSoundDecl() ast.ScoreItem {
	start := p.cur().Span
	p.advance() // 'sound'
	id, ok := p.expect(lexer.String, diag.CodeUnexpectedToken)
	if !ok {
		return nil
	}
	if !p.parseKeywordIdent("kind") {
		return nil
	}
	kind, ok := p.expect(lexer.Ident, diag.CodeExpectedIdentifier)
	if !ok {
		return nil
	}
	if _, ok := p.expect(lexer.LBrace, diag.CodeUnexpectedToken); !ok {
		return nil
	}
	var fields []ast.SoundField
	for !p.at(lexer.RBrace) && !p.atEOF() {
		key, ok := p.expect(lexer.Ident, diag.CodeExpectedIdentifier)
		if !ok {
			break
		}
		value := p.parseTernary()
		if _, ok := p.expect(lexer.Semicolon, diag.CodeUnexpectedToken); !ok {
			break
		}
		fields = append(fields, ast.SoundField{Key: key.Lexeme, Value: value})
	}
	end, _ := p.expect(lexer.RBrace, diag.CodeMismatchedBrackets)
	return &ast.SoundDecl{ID: id.Lexeme, Kind: kind.Lexeme, Fields: fields, SpanV: mergeSpan(start, end.Span)}
}

func (p *Parser) parseTrackDecl() ast.ScoreItem {
	start := p.cur().Span
	p.advance() // 'track'
	name, ok := p.expect(lexer.String, diag.CodeUnexpectedToken)
	if !ok {
		return nil
	}
	if !p.parseKeywordIdent("role") {
		return nil
	}
	role, ok := p.expect(lexer.Ident, diag.CodeExpectedIdentifier)
	if !ok {
		return nil
	}
	if !p.parseKeywordIdent("sound") {
		return nil
	}
	soundID, ok := p.expect(lexer.String, diag.CodeUnexpectedToken)
	if !ok {
		return nil
	}
	if _, ok := p.expect(lexer.LBrace, diag.CodeUnexpectedToken); !ok {
		return nil
	}
	var placements []ast.Placement
	for !p.at(lexer.RBrace) && !p.atEOF() {
		placeStart := p.cur().Span
		if !p.parseKeywordIdent("place") {
			break
		}
		at := p.parsePositionExpr()
		clip := p.parseTernary()
		end, ok := p.expect(lexer.Semicolon, diag.CodeUnexpectedToken)
		if !ok {
			break
		}
		placements = append(placements, ast.Placement{At: at, Clip: clip, SpanV: mergeSpan(placeStart, end.Span)})
	}
	end, _ := p.expect(lexer.RBrace, diag.CodeMismatchedBrackets)
	return &ast.TrackDecl{Name: name.Lexeme, Role: role.Lexeme, Sound: soundID.Lexeme, Placements: placements, SpanV: mergeSpan(start, end.Span)}
}

func (p *Parser) parseScoreMarker() ast.ScoreItem {
	start := p.cur().Span
	p.advance() // 'marker'
	at := p.parsePositionExpr()
	kind, ok := p.expect(lexer.String, diag.CodeUnexpectedToken)
	if !ok {
		return nil
	}
	label := p.parseTernary()
	end, _ := p.expect(lexer.Semicolon, diag.CodeUnexpectedToken)
	return &ast.ScoreMarker{At: at, Kind: kind.Lexeme, Label: label, SpanV: mergeSpan(start, end.Span)}
}
