package lexer

import (
	"testing"

	"github.com/takomusic/mfs/internal/source"
)

func tokenize(t *testing.T, src string) ([]Token, []string) {
	t.Helper()
	f := source.NewFile(0, "t.mfs", src)
	toks, errs := New(f).Tokenize()
	var lexemes []string
	for _, tok := range toks {
		lexemes = append(lexemes, tok.Lexeme)
	}
	_ = lexemes
	var msgs []string
	for _, e := range errs {
		msgs = append(msgs, e.Message)
	}
	return toks, msgs
}

func kinds(toks []Token) []Kind {
	var ks []Kind
	for _, t := range toks {
		ks = append(ks, t.Kind)
	}
	return ks
}

func TestPitchLiterals(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		wantKind Kind
		wantText string
	}{
		{"plain pitch", "C4", Pitch, "C4"},
		{"sharp pitch", "F#3", Pitch, "F#3"},
		{"flat pitch", "Bb5", Pitch, "Bb5"},
		{"negative octave", "C-1", Pitch, "C-1"},
		{"identifier when followed by letter", "C4x", Ident, "C4x"},
		{"bare letter is identifier", "Cmaj", Ident, "Cmaj"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, _ := tokenize(t, tt.src)
			if len(toks) < 1 {
				t.Fatalf("expected at least one token")
			}
			if toks[0].Kind != tt.wantKind {
				t.Fatalf("kind = %v, want %v", toks[0].Kind, tt.wantKind)
			}
			if toks[0].Lexeme != tt.wantText {
				t.Fatalf("lexeme = %q, want %q", toks[0].Lexeme, tt.wantText)
			}
		})
	}
}

func TestDurationLiterals(t *testing.T) {
	tests := []struct {
		name string
		src  string
		text string
	}{
		{"fraction", "1/4", "1/4"},
		{"tick count", "480t", "480t"},
		{"dotted letter via number prefix", "2q.", "2q."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, _ := tokenize(t, tt.src)
			if toks[0].Kind != Duration {
				t.Fatalf("kind = %v, want Duration", toks[0].Kind)
			}
			if toks[0].Lexeme != tt.text {
				t.Fatalf("lexeme = %q, want %q", toks[0].Lexeme, tt.text)
			}
		})
	}
}

func TestBarBeatLiteral(t *testing.T) {
	toks, _ := tokenize(t, "2:3:240")
	if toks[0].Kind != BarBeat {
		t.Fatalf("kind = %v, want BarBeat", toks[0].Kind)
	}
	if toks[0].Lexeme != "2:3:240" {
		t.Fatalf("lexeme = %q, want 2:3:240", toks[0].Lexeme)
	}
}

func TestStringEscapes(t *testing.T) {
	toks, errs := tokenize(t, `"hello\nworld"`)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if toks[0].Kind != String {
		t.Fatalf("kind = %v, want String", toks[0].Kind)
	}
	if toks[0].Lexeme != "hello\nworld" {
		t.Fatalf("lexeme = %q", toks[0].Lexeme)
	}
}

func TestUnterminatedStringReportsError(t *testing.T) {
	_, errs := tokenize(t, `"unterminated`)
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d", len(errs))
	}
}

func TestTemplateLiteralWithInterpolation(t *testing.T) {
	toks, errs := tokenize(t, "`hi ${name}!`")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	ks := kinds(toks)
	// TemplateHead, Ident(name), TemplateTail, EOF
	if ks[0] != TemplateHead {
		t.Fatalf("first kind = %v, want TemplateHead", ks[0])
	}
	if ks[1] != Ident {
		t.Fatalf("second kind = %v, want Ident", ks[1])
	}
	if ks[2] != TemplateTail {
		t.Fatalf("third kind = %v, want TemplateTail", ks[2])
	}
}

func TestKeywordsAndPunctuation(t *testing.T) {
	toks, _ := tokenize(t, "const x = score { };")
	want := []Kind{KwConst, Ident, Assign, KwScore, LBrace, RBrace, Semicolon, EOF}
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestRangeAndOptionalChainOperators(t *testing.T) {
	toks, _ := tokenize(t, "a..=b x?.y x?.[0] a ?? b")
	got := kinds(toks)
	mustContain := []Kind{DotDotEq, QuestionDot, QuestionDot, QuestionQuestion}
	for _, k := range mustContain {
		found := false
		for _, g := range got {
			if g == k {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("expected token kind %v in %v", k, got)
		}
	}
}

func TestCommentsAreDiscarded(t *testing.T) {
	toks, _ := tokenize(t, "// comment\nconst x = 1; /* block */ const y = 2;")
	got := kinds(toks)
	count := 0
	for _, k := range got {
		if k == KwConst {
			count++
		}
	}
	if count != 2 {
		t.Fatalf("expected 2 const keywords, got %d", count)
	}
}
