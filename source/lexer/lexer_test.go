package lexer

import (
	"testing"

	"github.com/ooze-lang/ooze/source/span"
	"github.com/ooze-lang/ooze/source/token"
)

func lexTypes(t *testing.T, input string) []token.Type {
	toks, es := Lex(span.Scripts, input)
	if es.HasErrors() {
		t.Fatalf("unexpected lex errors for %q: %v", input, es)
	}
	var types []token.Type
	for _, tok := range toks {
		types = append(types, tok.Type)
	}
	return types
}

func TestLexPunctuationAndKeywords(t *testing.T) {
	got := lexTypes(t, "fn let select else -> & : , ; ( ) { } =")
	want := []token.Type{
		token.FN, token.LET, token.SELECT, token.ELSE, token.ARROW, token.AMP,
		token.COLON, token.COMMA, token.SEMICOLON, token.LPAREN, token.RPAREN,
		token.LBRACE, token.RBRACE, token.ASSIGN, token.EOF,
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestLexIdentAndUnderscore(t *testing.T) {
	toks, es := Lex(span.Scripts, "foo _ bar_baz")
	if es.HasErrors() {
		t.Fatalf("unexpected errors: %v", es)
	}
	if toks[0].Type != token.IDENT || toks[0].Literal != "foo" {
		t.Errorf("tok0 = %+v", toks[0])
	}
	if toks[1].Type != token.UNDERSCORE {
		t.Errorf("tok1 = %+v", toks[1])
	}
	if toks[2].Type != token.IDENT || toks[2].Literal != "bar_baz" {
		t.Errorf("tok2 = %+v", toks[2])
	}
}

func TestLexNumbers(t *testing.T) {
	toks, es := Lex(span.Scripts, "42 3.14 7i8 2.5f32")
	if es.HasErrors() {
		t.Fatalf("unexpected errors: %v", es)
	}
	wantType := []token.Type{token.INT, token.FLOAT, token.INT, token.FLOAT, token.EOF}
	for i, w := range wantType {
		if toks[i].Type != w {
			t.Errorf("tok %d = %v, want %v", i, toks[i].Type, w)
		}
	}
}

func TestLexBadSuffix(t *testing.T) {
	_, es := Lex(span.Scripts, "1bogus")
	if !es.HasErrors() {
		t.Fatalf("expected error for bad numeric suffix")
	}
	if es[0].ID != "lex/bad-suffix" {
		t.Errorf("ID = %q", es[0].ID)
	}
}

func TestLexString(t *testing.T) {
	toks, es := Lex(span.Scripts, "'hello world'")
	if es.HasErrors() {
		t.Fatalf("unexpected errors: %v", es)
	}
	if toks[0].Type != token.STRING || toks[0].Literal != "hello world" {
		t.Errorf("tok0 = %+v", toks[0])
	}
}

func TestLexUnterminatedString(t *testing.T) {
	_, es := Lex(span.Scripts, "'oops")
	if !es.HasErrors() {
		t.Fatalf("expected error for unterminated string")
	}
	if es[0].ID != "lex/unterminated-string" {
		t.Errorf("ID = %q", es[0].ID)
	}
}

func TestLexIllegalChar(t *testing.T) {
	_, es := Lex(span.Scripts, "$")
	if !es.HasErrors() {
		t.Fatalf("expected error for illegal character")
	}
	if es[0].ID != "lex/illegal" {
		t.Errorf("ID = %q", es[0].ID)
	}
}

func TestLexAlwaysEOFTerminated(t *testing.T) {
	toks, _ := Lex(span.Scripts, "")
	if len(toks) != 1 || toks[0].Type != token.EOF {
		t.Errorf("empty input should yield a single EOF token, got %v", toks)
	}
}

func TestLexSpanOffsets(t *testing.T) {
	toks, _ := Lex(span.Scripts, "ab cd")
	if toks[0].Span.Begin != 0 || toks[0].Span.End != 2 {
		t.Errorf("tok0 span = %+v", toks[0].Span)
	}
	if toks[1].Span.Begin != 3 || toks[1].Span.End != 5 {
		t.Errorf("tok1 span = %+v", toks[1].Span)
	}
}
