package token

import "github.com/ooze-lang/ooze/source/span"

type Type string

const (
	ILLEGAL Type = "ILLEGAL"
	EOF     Type = "EOF"

	// Identifiers and literals.
	IDENT  Type = "IDENT"
	INT    Type = "INT"
	FLOAT  Type = "FLOAT"
	STRING Type = "STRING"
	TRUE   Type = "true"
	FALSE  Type = "false"

	// Punctuation.
	ASSIGN    Type = "="
	ARROW     Type = "->"
	AMP       Type = "&"
	COLON     Type = ":"
	COMMA     Type = ","
	SEMICOLON Type = ";"
	LPAREN    Type = "("
	RPAREN    Type = ")"
	LBRACE    Type = "{"
	RBRACE    Type = "}"
	UNDERSCORE Type = "_"

	// Keywords.
	FN     Type = "fn"
	LET    Type = "let"
	SELECT Type = "select"
	ELSE   Type = "else"
)

// Token is a single lexeme with its source span. Line/Col are derived lazily
// from the span for diagnostics rather than stored redundantly.
type Token struct {
	Type    Type
	Literal string
	Span    span.Ref
}

var keywords = map[string]Type{
	"fn":     FN,
	"let":    LET,
	"select": SELECT,
	"else":   ELSE,
	"true":   TRUE,
	"false":  FALSE,
}

// LookupIdent classifies a scanned identifier as a keyword or a plain IDENT.
func LookupIdent(ident string) Type {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

// IntSuffixes and FloatSuffixes are the recognized numeric-literal type
// suffixes from the grammar (`1i8`, `2u64`, `1.5f32`, ...).
var IntSuffixes = []string{"i8", "i16", "i32", "i64", "u8", "u16", "u32", "u64"}
var FloatSuffixes = []string{"f32", "f64"}
