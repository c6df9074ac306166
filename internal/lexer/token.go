package lexer

import "github.com/takomusic/mfs/internal/source"

// Kind tags a token (spec §3.2).
type Kind int

const (
	EOF Kind = iota
	Ident
	Integer
	Float
	String
	Pitch
	Duration
	BarBeat
	TemplateHead
	TemplateMiddle
	TemplateTail
	TemplateFull // a template literal with no interpolation at all

	// Punctuation
	LParen
	RParen
	LBrace
	RBrace
	LBracket
	RBracket
	Comma
	Semicolon
	Colon
	Dot
	QuestionDot
	Question
	QuestionQuestion
	Arrow  // ->
	FatArrow // =>
	Plus
	Minus
	Star
	Slash
	Percent
	Assign
	Eq
	Neq
	Lt
	Lte
	Gt
	Gte
	AndAnd
	OrOr
	Bang
	DotDot
	DotDotEq
	Ellipsis // ...

	// Keywords
	KwImport
	KwFrom
	KwAs
	KwExport
	KwConst
	KwLet
	KwFn
	KwReturn
	KwIf
	KwElse
	KwFor
	KwIn
	KwMatch
	KwEnum
	KwTrue
	KwFalse
	KwNull
	KwScore
	KwClip
)

var keywords = map[string]Kind{
	"import": KwImport,
	"from":   KwFrom,
	"as":     KwAs,
	"export": KwExport,
	"const":  KwConst,
	"let":    KwLet,
	"fn":     KwFn,
	"return": KwReturn,
	"if":     KwIf,
	"else":   KwElse,
	"for":    KwFor,
	"in":     KwIn,
	"match":  KwMatch,
	"enum":   KwEnum,
	"true":   KwTrue,
	"false":  KwFalse,
	"null":   KwNull,
	"score":  KwScore,
	"clip":   KwClip,
}

// Token is one lexed unit: a kind tag, the raw lexeme, and its span.
type Token struct {
	Kind   Kind
	Lexeme string
	Span   source.Span
}

func (k Kind) String() string {
	switch k {
	case EOF:
		return "EOF"
	case Ident:
		return "identifier"
	case Integer:
		return "integer"
	case Float:
		return "float"
	case String:
		return "string"
	case Pitch:
		return "pitch"
	case Duration:
		return "duration"
	case BarBeat:
		return "bar:beat"
	case TemplateHead, TemplateMiddle, TemplateTail, TemplateFull:
		return "template literal"
	default:
		if name, ok := punctNames[k]; ok {
			return name
		}
		for lit, kw := range keywords {
			if kw == k {
				return "'" + lit + "'"
			}
		}
		return "token"
	}
}

var punctNames = map[Kind]string{
	LParen: "(", RParen: ")", LBrace: "{", RBrace: "}",
	LBracket: "[", RBracket: "]", Comma: ",", Semicolon: ";",
	Colon: ":", Dot: ".", QuestionDot: "?.", Question: "?",
	QuestionQuestion: "??", Arrow: "->", FatArrow: "=>",
	Plus: "+", Minus: "-", Star: "*", Slash: "/", Percent: "%",
	Assign: "=", Eq: "==", Neq: "!=", Lt: "<", Lte: "<=",
	Gt: ">", Gte: ">=", AndAnd: "&&", OrOr: "||", Bang: "!",
	DotDot: "..", DotDotEq: "..=", Ellipsis: "...",
}
