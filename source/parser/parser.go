// Package parser turns a token stream into an ast.Forest plus a list of
// named-type requests for sema's type-name resolution pass (spec.md
// §4.1/§4.2(a)). It is a plain recursive-descent/Pratt parser: the grammar
// has exactly one precedence climb (left-associative call application), so
// nothing heavier is warranted.
package parser

import (
	"fmt"
	"math"

	"github.com/ooze-lang/ooze/source/ast"
	"github.com/ooze-lang/ooze/source/errs"
	"github.com/ooze-lang/ooze/source/span"
	"github.com/ooze-lang/ooze/source/token"
)

// TypeRequest is one named type occurrence the parser could not resolve
// itself: sema's type-name resolution pass (spec.md §4.2(a)) looks each one
// up through a sema.TypeNamer and either fixes up the sentinel or reports
// `undefined type`.
type TypeRequest = ast.TypeRequest

type Parser struct {
	Forest *ast.Forest

	src      span.SrcID
	toks     []token.Token
	pos      int
	errs     errs.Errors
	requests []TypeRequest
}

// New creates a parser over toks (as produced by lexer.Lex for source src),
// building into forest so that callers can parse several compilation units
// (builtins, scripts, one REPL line) into a shared Forest/TypeGraph.
func New(forest *ast.Forest, src span.SrcID, toks []token.Token) *Parser {
	return &Parser{Forest: forest, src: src, toks: toks}
}

func (p *Parser) cur() token.Token { return p.toks[p.pos] }
func (p *Parser) peek(n int) token.Token {
	i := p.pos + n
	if i >= len(p.toks) {
		return p.toks[len(p.toks)-1] // EOF
	}
	return p.toks[i]
}
func (p *Parser) at(t token.Type) bool { return p.cur().Type == t }

func (p *Parser) advance() token.Token {
	t := p.cur()
	if t.Type != token.EOF {
		p.pos++
	}
	return t
}

func (p *Parser) expect(t token.Type) (token.Token, bool) {
	if p.at(t) {
		return p.advance(), true
	}
	p.errs = append(p.errs, errs.New("parse/expected", p.cur().Span, string(t), describeTok(p.cur())))
	return p.cur(), false
}

func describeTok(t token.Token) string {
	if t.Type == token.EOF {
		return "end of input"
	}
	if t.Literal != "" {
		return t.Literal
	}
	return string(t.Type)
}

// syncStatement skips tokens until the next `fn` keyword or the token after
// a `;`, matching spec.md §4.1: "the parser synchronizes to the next
// top-level fn or statement boundary."
func (p *Parser) syncStatement() {
	for !p.at(token.EOF) {
		if p.at(token.FN) {
			return
		}
		if p.at(token.SEMICOLON) {
			p.advance()
			return
		}
		p.advance()
	}
}

// Errors and Requests expose what accumulated during the most recent parse
// entry point call.
func (p *Parser) Errors() errs.Errors     { return p.errs }
func (p *Parser) Requests() []TypeRequest { return p.requests }

// ---- entry points (spec.md §4.1) ----

// Parse implements `script := { fn }`, returning a Module node.
func Parse(forest *ast.Forest, src span.SrcID, toks []token.Token) (ast.ASTID, []TypeRequest, errs.Errors) {
	p := New(forest, src, toks)
	start := p.cur().Span
	var decls []ast.ASTID
	for !p.at(token.EOF) {
		before := p.pos
		fn, ok := p.parseFn()
		if ok {
			decls = append(decls, fn)
		}
		if p.pos == before { // parseFn failed to consume anything; avoid looping forever
			p.syncStatement()
		}
	}
	mod := forest.NewModule(span.Join(start, p.cur().Span), decls...)
	p.fillFloatingTypes(mod)
	return mod, p.requests, p.errs
}

// ParseFunction implements `parse_function`: parse exactly one `fn`
// declaration (used when a host adds a single function incrementally).
func ParseFunction(forest *ast.Forest, src span.SrcID, toks []token.Token) (ast.ASTID, []TypeRequest, errs.Errors) {
	p := New(forest, src, toks)
	id, _ := p.parseFn()
	if id != ast.InvalidID {
		p.fillFloatingTypes(id)
	}
	return id, p.requests, p.errs
}

// ParseExpr implements `parse_expr`.
func ParseExpr(forest *ast.Forest, src span.SrcID, toks []token.Token) (ast.ASTID, []TypeRequest, errs.Errors) {
	p := New(forest, src, toks)
	id := p.parseExpr()
	p.fillFloatingTypes(id)
	return id, p.requests, p.errs
}

// ParseRepl implements `parse_repl`: a REPL line is either an expr or a
// top-level `pattern = expr` Assignment.
func ParseRepl(forest *ast.Forest, src span.SrcID, toks []token.Token) (ast.ASTID, []TypeRequest, errs.Errors) {
	p := New(forest, src, toks)
	id := p.parseReplForm()
	p.fillFloatingTypes(id)
	return id, p.requests, p.errs
}

// ParseBinding implements `parse_binding`: a bare `pattern = expr`, as used
// when the host pre-seeds a binding rather than typing it at a REPL.
func ParseBinding(forest *ast.Forest, src span.SrcID, toks []token.Token) (ast.ASTID, []TypeRequest, errs.Errors) {
	p := New(forest, src, toks)
	id := p.parseAssignment()
	p.fillFloatingTypes(id)
	return id, p.requests, p.errs
}

// fillFloatingTypes assigns a fresh Floating type var to every node under
// root that the grammar left untyped (every expression form besides
// literals, whose type is fully determined by their suffix), so sema's
// bidirectional propagation always has a type variable to unify against.
func (p *Parser) fillFloatingTypes(root ast.ASTID) {
	p.Forest.Walk(root, func(id ast.ASTID) {
		if p.Forest.TypeOf(id) == ast.Invalid {
			p.Forest.SetType(id, p.Forest.Types.MakeFloating())
		}
	})
}

// ParsePattern implements `parse_pattern`.
func ParsePattern(forest *ast.Forest, src span.SrcID, toks []token.Token) (ast.ASTID, errs.Errors) {
	p := New(forest, src, toks)
	id := p.parsePattern()
	p.defaultFloatingTypes(id)
	return id, p.errs
}

// ParseType implements `parse_type`.
func ParseType(forest *ast.Forest, src span.SrcID, toks []token.Token) (ast.Type, []TypeRequest, errs.Errors) {
	p := New(forest, src, toks)
	t := p.parseType()
	return t, p.requests, p.errs
}

// ---- fn ----
// fn := "fn" ident "(" pat_list ")" "->" type ("=" expr | block)

func (p *Parser) parseFn() (ast.ASTID, bool) {
	if !p.at(token.FN) {
		return ast.InvalidID, false
	}
	startTok := p.advance()
	nameTok, ok := p.expect(token.IDENT)
	if !ok {
		p.syncStatement()
		return ast.InvalidID, false
	}
	nameID := p.Forest.NewPatternIdent(nameTok.Span, nameTok.Literal)

	if _, ok := p.expect(token.LPAREN); !ok {
		p.syncStatement()
		return ast.InvalidID, false
	}
	paramsID, paramTypes := p.parseParamList()
	if _, ok := p.expect(token.RPAREN); !ok {
		p.syncStatement()
		return ast.InvalidID, false
	}
	if _, ok := p.expect(token.ARROW); !ok {
		p.syncStatement()
		return ast.InvalidID, false
	}
	outType := p.parseType()

	var bodyID ast.ASTID
	if p.at(token.ASSIGN) {
		p.advance()
		bodyID = p.parseExpr()
	} else if p.at(token.LBRACE) {
		bodyID = p.parseBlock()
	} else {
		p.errs = append(p.errs, errs.New("parse/expected-one-of", p.cur().Span, []string{"=", "{"}, describeTok(p.cur())))
		p.syncStatement()
		return ast.InvalidID, false
	}

	fnID := p.Forest.NewFn(span.Join(startTok.Span, p.Forest.SpanOf(bodyID)), nameID, paramsID, bodyID)
	inType := p.Forest.Types.MakeTuple(paramTypes)
	p.Forest.SetType(paramsID, inType)
	fnType := p.Forest.Types.MakeFn(inType, outType)
	p.Forest.SetType(fnID, fnType)
	// nameID is the pattern the identifier graph binds calls to, so its
	// type is the function's own signature (see sema.BuildIdentGraph).
	p.Forest.SetType(nameID, fnType)
	return fnID, true
}

// parseParamList parses a comma-separated, possibly-empty, always-annotated
// pattern list: "x: i32, y: i32". Each parameter's declared Type is set
// directly on its pattern node, and also returned so the caller can build
// the Fn's own Fn(I,O) type.
func (p *Parser) parseParamList() (ast.ASTID, []ast.Type) {
	start := p.cur().Span
	var pats []ast.ASTID
	var types []ast.Type
	if p.at(token.RPAREN) {
		return p.Forest.Branch(ast.PatternTuple, start), types
	}
	for {
		pat := p.parsePattern()
		var t ast.Type
		if _, ok := p.expect(token.COLON); ok {
			t = p.parseType()
		} else {
			t = p.Forest.Types.MakeFloating()
		}
		p.Forest.SetType(pat, t)
		p.defaultFloatingTypes(pat)
		pats = append(pats, pat)
		types = append(types, t)
		if !p.at(token.COMMA) {
			break
		}
		p.advance()
	}
	end := p.cur().Span
	return p.Forest.Branch(ast.PatternTuple, span.Join(start, end), pats...), types
}

// defaultFloatingTypes fills in a fresh Floating type var for every node in
// pat's subtree that doesn't already carry one, so pass (c)'s "PatternTuple
// ↔ Tuple: matching arity, elementwise" propagation rule always has
// something to unify against, whether or not the source annotated pat.
func (p *Parser) defaultFloatingTypes(pat ast.ASTID) {
	if p.Forest.TypeOf(pat) == ast.Invalid {
		p.Forest.SetType(pat, p.Forest.Types.MakeFloating())
	}
	for _, c := range p.Forest.ChildrenOf(pat) {
		p.defaultFloatingTypes(c)
	}
}

// ---- pattern ----
// pattern := "_" | ident | "(" pat_list_bare ")"

func (p *Parser) parsePattern() ast.ASTID {
	switch {
	case p.at(token.UNDERSCORE):
		t := p.advance()
		return p.Forest.Branch(ast.PatternWildCard, t.Span)
	case p.at(token.IDENT):
		t := p.advance()
		return p.Forest.NewPatternIdent(t.Span, t.Literal)
	case p.at(token.LPAREN):
		start := p.advance()
		var elems []ast.ASTID
		if !p.at(token.RPAREN) {
			for {
				elems = append(elems, p.parsePattern())
				if !p.at(token.COMMA) {
					break
				}
				p.advance()
			}
		}
		end, _ := p.expect(token.RPAREN)
		return p.Forest.Branch(ast.PatternTuple, span.Join(start.Span, end.Span), elems...)
	}
	p.errs = append(p.errs, errs.New("parse/expected", p.cur().Span, "pattern", describeTok(p.cur())))
	bad := p.cur().Span
	p.advance()
	return p.Forest.Branch(ast.PatternWildCard, bad)
}

// ---- type ----
// type := ident | "_" | "&" type | "(" type_list ")" | "fn" type "->" type

func (p *Parser) parseType() ast.Type {
	switch {
	case p.at(token.UNDERSCORE):
		p.advance()
		return p.Forest.Types.MakeFloating()
	case p.at(token.IDENT):
		t := p.advance()
		ty := p.Forest.Types.MakeSentinel(t.Literal)
		p.requests = append(p.requests, TypeRequest{Type: ty, Span: t.Span})
		return ty
	case p.at(token.AMP):
		p.advance()
		return p.Forest.Types.MakeBorrow(p.parseType())
	case p.at(token.LPAREN):
		p.advance()
		var elems []ast.Type
		if !p.at(token.RPAREN) {
			for {
				elems = append(elems, p.parseType())
				if !p.at(token.COMMA) {
					break
				}
				p.advance()
			}
		}
		p.expect(token.RPAREN)
		return p.Forest.Types.MakeTuple(elems)
	case p.at(token.FN):
		p.advance()
		in := p.parseType()
		p.expect(token.ARROW)
		out := p.parseType()
		return p.Forest.Types.MakeFn(in, out)
	}
	p.errs = append(p.errs, errs.New("parse/expected", p.cur().Span, "type", describeTok(p.cur())))
	p.advance()
	return p.Forest.Types.MakeFloating()
}

// ---- expr ----
// expr := literal | ident | tuple | borrow | call | select | block
// call  := expr "(" expr_list ")"   (left-assoc, handled as a postfix loop)

func (p *Parser) parseExpr() ast.ASTID {
	e := p.parsePrimary()
	for p.at(token.LPAREN) {
		e = p.parseCallTail(e)
	}
	return e
}

func (p *Parser) parsePrimary() ast.ASTID {
	switch p.cur().Type {
	case token.INT, token.FLOAT:
		return p.parseNumberLiteral()
	case token.STRING:
		t := p.advance()
		id := p.Forest.NewLiteral(t.Span, ast.Literal{Kind: ast.LitString, Str: t.Literal})
		p.Forest.SetType(id, p.Forest.Types.MakeLeaf(ast.TyString))
		return id
	case token.TRUE, token.FALSE:
		t := p.advance()
		var bits uint64
		if t.Type == token.TRUE {
			bits = 1
		}
		id := p.Forest.NewLiteral(t.Span, ast.Literal{Kind: ast.LitBool, Bits: bits})
		p.Forest.SetType(id, p.Forest.Types.MakeLeaf(ast.TyBool))
		return id
	case token.IDENT:
		t := p.advance()
		return p.Forest.NewExprIdent(t.Span, t.Literal)
	case token.AMP:
		start := p.advance()
		inner := p.parseExpr()
		return p.Forest.Branch(ast.ExprBorrow, span.Join(start.Span, p.Forest.SpanOf(inner)), inner)
	case token.LPAREN:
		return p.parseTuple()
	case token.SELECT:
		return p.parseSelect()
	case token.LBRACE:
		return p.parseBlock()
	}
	p.errs = append(p.errs, errs.New("parse/expected", p.cur().Span, "expression", describeTok(p.cur())))
	bad := p.cur().Span
	if !p.at(token.EOF) {
		p.advance()
	}
	id := p.Forest.NewLiteral(bad, ast.Literal{Kind: ast.LitBool})
	p.Forest.SetType(id, p.Forest.Types.MakeLeaf(ast.TyBool))
	return id
}

func (p *Parser) parseCallTail(callee ast.ASTID) ast.ASTID {
	p.advance() // "("
	var args []ast.ASTID
	argsStart := p.cur().Span
	if !p.at(token.RPAREN) {
		for {
			args = append(args, p.parseExpr())
			if !p.at(token.COMMA) {
				break
			}
			p.advance()
		}
	}
	end, _ := p.expect(token.RPAREN)
	argTuple := p.Forest.Branch(ast.ExprTuple, span.Join(argsStart, end.Span), args...)
	return p.Forest.Branch(ast.ExprCall, span.Join(p.Forest.SpanOf(callee), end.Span), callee, argTuple)
}

func (p *Parser) parseTuple() ast.ASTID {
	start := p.advance() // "("
	var elems []ast.ASTID
	if !p.at(token.RPAREN) {
		for {
			elems = append(elems, p.parseExpr())
			if !p.at(token.COMMA) {
				break
			}
			p.advance()
		}
	}
	end, _ := p.expect(token.RPAREN)
	// A single parenthesized expr with no comma is just grouping, not a
	// 1-tuple: `(x)` parses as `x`.
	if len(elems) == 1 {
		return elems[0]
	}
	return p.Forest.Branch(ast.ExprTuple, span.Join(start.Span, end.Span), elems...)
}

func (p *Parser) parseSelect() ast.ASTID {
	start := p.advance() // "select"
	cond := p.parseExpr()
	thenBlk := p.parseBlock()
	p.expect(token.ELSE)
	elseBlk := p.parseBlock()
	return p.Forest.Branch(ast.ExprSelect, span.Join(start.Span, p.Forest.SpanOf(elseBlk)), cond, thenBlk, elseBlk)
}

// block := "{" { stmt ";" } expr "}"
// stmt  := "let" pattern [":" type] "=" expr
//
// Each `let` nests the remainder of the block as its body, so a block with
// k lets and a trailing expr becomes k nested ExprWith nodes.
func (p *Parser) parseBlock() ast.ASTID {
	_, _ = p.expect(token.LBRACE)
	type letStmt struct {
		pat  ast.ASTID
		rhs  ast.ASTID
		span span.Ref
	}
	var lets []letStmt
	for p.at(token.LET) {
		ls := p.advance()
		pat := p.parsePattern()
		if p.at(token.COLON) {
			p.advance()
			t := p.parseType()
			p.Forest.SetType(pat, t)
		}
		p.defaultFloatingTypes(pat)
		p.expect(token.ASSIGN)
		rhs := p.parseExpr()
		p.expect(token.SEMICOLON)
		lets = append(lets, letStmt{pat: pat, rhs: rhs, span: ls.Span})
	}
	tail := p.parseExpr()
	end, _ := p.expect(token.RBRACE)

	body := tail
	for i := len(lets) - 1; i >= 0; i-- {
		body = p.Forest.NewWith(span.Join(lets[i].span, end.Span), lets[i].pat, lets[i].rhs, body)
	}
	return body
}

// parseReplForm implements `parse_repl`: either a bare expr, or a top-level
// `pattern = expr` Assignment. We speculatively scan ahead to see whether
// the upcoming tokens form `pattern "="` before commiting to the
// Assignment production, since a bare identifier is ambiguous between the
// two (`x` alone is an expr; `x = 1` is an assignment).
func (p *Parser) parseReplForm() ast.ASTID {
	if looksLikePatternThenAssign(p) {
		return p.parseAssignment()
	}
	return p.parseExpr()
}

// looksLikePatternThenAssign scans forward without mutating parser state to
// see whether the upcoming tokens form `pattern "="`, so parseReplForm can
// decide which alternative to commit to.
func looksLikePatternThenAssign(p *Parser) bool {
	depth := 0
	i := p.pos
	for i < len(p.toks) {
		t := p.toks[i]
		switch t.Type {
		case token.LPAREN:
			depth++
		case token.RPAREN:
			depth--
			if depth < 0 {
				return false
			}
		case token.IDENT, token.UNDERSCORE, token.COMMA:
			// still inside a candidate pattern
		case token.ASSIGN:
			return depth == 0
		default:
			return false
		}
		i++
	}
	return false
}

func (p *Parser) parseAssignment() ast.ASTID {
	pat := p.parsePattern()
	p.defaultFloatingTypes(pat)
	start := p.Forest.SpanOf(pat)
	p.expect(token.ASSIGN)
	rhs := p.parseExpr()
	return p.Forest.NewAssignment(span.Join(start, p.Forest.SpanOf(rhs)), pat, rhs)
}

func (p *Parser) parseNumberLiteral() ast.ASTID {
	t := p.advance()
	kind := ast.LitInt
	if t.Type == token.FLOAT {
		kind = ast.LitFloat
	}
	digits, suffix := splitSuffix(t.Literal, kind)
	var bits uint64
	var err error
	if kind == ast.LitFloat {
		var f float64
		_, err = fmt.Sscanf(digits, "%g", &f)
		bits = math.Float64bits(f)
	} else {
		var n uint64
		_, err = fmt.Sscanf(digits, "%d", &n)
		bits = n
	}
	if err != nil {
		p.errs = append(p.errs, errs.New("parse/expected", t.Span, "number", t.Literal))
	}
	id := p.Forest.NewLiteral(t.Span, ast.Literal{Kind: kind, Bits: bits, Str: t.Literal})
	p.Forest.SetType(id, p.Forest.Types.MakeLeaf(suffixTypeID(kind, suffix)))
	return id
}

// suffixTypeID maps a literal's (kind, suffix) to its reserved TypeID,
// defaulting integers to i32 and floats to f64 when unsuffixed (spec.md §6:
// "Default numeric literal types: integer → i32, float → f64").
func suffixTypeID(kind ast.LitKind, suffix string) ast.TypeID {
	if kind == ast.LitFloat {
		switch suffix {
		case "f32":
			return ast.TyF32
		default:
			return ast.TyF64
		}
	}
	switch suffix {
	case "i8":
		return ast.TyI8
	case "i16":
		return ast.TyI16
	case "i64":
		return ast.TyI64
	case "u8":
		return ast.TyU8
	case "u16":
		return ast.TyU16
	case "u32":
		return ast.TyU32
	case "u64":
		return ast.TyU64
	default:
		return ast.TyI32
	}
}

// splitSuffix strips a recognized numeric suffix (i8..u64, f32/f64) off the
// end of a lexed literal, returning the bare digits.
func splitSuffix(lit string, kind ast.LitKind) (digits, suffix string) {
	suffixes := token.IntSuffixes
	if kind == ast.LitFloat {
		suffixes = token.FloatSuffixes
	}
	for _, s := range suffixes {
		if len(lit) > len(s) && lit[len(lit)-len(s):] == s {
			return lit[:len(lit)-len(s)], s
		}
	}
	return lit, ""
}
