package parser

import (
	"testing"

	"github.com/ooze-lang/ooze/source/ast"
	"github.com/ooze-lang/ooze/source/lexer"
	"github.com/ooze-lang/ooze/source/span"
)

func TestParseNumberLiteralDefaultsAndSuffixes(t *testing.T) {
	forest := ast.NewForest()
	tks, les := lexer.Lex(span.Scripts, "1")
	if les.HasErrors() {
		t.Fatalf("lex errors: %v", les)
	}
	id, _, es := ParseExpr(forest, span.Scripts, tks)
	if es.HasErrors() {
		t.Fatalf("parse errors: %v", es)
	}
	lit := forest.LiteralOf(id)
	if lit.Kind != ast.LitInt {
		t.Errorf("expected LitInt, got %v", lit.Kind)
	}
	ty := forest.TypeOf(id)
	if forest.Types.LeafID(ty) != ast.TyI32 {
		t.Errorf("expected default int type i32, got %v", forest.Types.LeafID(ty))
	}
}

func TestParseFloatSuffix(t *testing.T) {
	forest := ast.NewForest()
	tks, _ := lexer.Lex(span.Scripts, "1.5f32")
	id, _, es := ParseExpr(forest, span.Scripts, tks)
	if es.HasErrors() {
		t.Fatalf("parse errors: %v", es)
	}
	ty := forest.TypeOf(id)
	if forest.Types.LeafID(ty) != ast.TyF32 {
		t.Errorf("expected f32, got %v", forest.Types.LeafID(ty))
	}
}

func TestParseTupleCollapsesSingleParen(t *testing.T) {
	forest := ast.NewForest()
	tks, _ := lexer.Lex(span.Scripts, "(1)")
	id, _, es := ParseExpr(forest, span.Scripts, tks)
	if es.HasErrors() {
		t.Fatalf("parse errors: %v", es)
	}
	if forest.TagOf(id) != ast.ExprLiteral {
		t.Errorf("expected (1) to collapse to a bare literal, got %v", forest.TagOf(id))
	}
}

func TestParseTupleMultiElem(t *testing.T) {
	forest := ast.NewForest()
	tks, _ := lexer.Lex(span.Scripts, "(1, 2)")
	id, _, es := ParseExpr(forest, span.Scripts, tks)
	if es.HasErrors() {
		t.Fatalf("parse errors: %v", es)
	}
	if forest.TagOf(id) != ast.ExprTuple || forest.NumChildren(id) != 2 {
		t.Errorf("expected a 2-tuple, got tag=%v children=%d", forest.TagOf(id), forest.NumChildren(id))
	}
}

func TestParseCallChain(t *testing.T) {
	forest := ast.NewForest()
	tks, _ := lexer.Lex(span.Scripts, "f(1)(2)")
	id, _, es := ParseExpr(forest, span.Scripts, tks)
	if es.HasErrors() {
		t.Fatalf("parse errors: %v", es)
	}
	if forest.TagOf(id) != ast.ExprCall {
		t.Fatalf("expected outer ExprCall, got %v", forest.TagOf(id))
	}
	inner := forest.Child(id, 0)
	if forest.TagOf(inner) != ast.ExprCall {
		t.Errorf("expected left-assoc nested call, got %v", forest.TagOf(inner))
	}
}

func TestParseBorrow(t *testing.T) {
	forest := ast.NewForest()
	tks, _ := lexer.Lex(span.Scripts, "&x")
	id, _, es := ParseExpr(forest, span.Scripts, tks)
	if es.HasErrors() {
		t.Fatalf("parse errors: %v", es)
	}
	if forest.TagOf(id) != ast.ExprBorrow {
		t.Errorf("expected ExprBorrow, got %v", forest.TagOf(id))
	}
}

func TestParseSelect(t *testing.T) {
	forest := ast.NewForest()
	tks, _ := lexer.Lex(span.Scripts, "select true { 1 } else { 2 }")
	id, _, es := ParseExpr(forest, span.Scripts, tks)
	if es.HasErrors() {
		t.Fatalf("parse errors: %v", es)
	}
	if forest.TagOf(id) != ast.ExprSelect || forest.NumChildren(id) != 3 {
		t.Errorf("expected ExprSelect with 3 children, got tag=%v children=%d", forest.TagOf(id), forest.NumChildren(id))
	}
}

func TestParseBlockWithLets(t *testing.T) {
	forest := ast.NewForest()
	tks, _ := lexer.Lex(span.Scripts, "{ let x = 1; let y = 2; x }")
	id, _, es := ParseExpr(forest, span.Scripts, tks)
	if es.HasErrors() {
		t.Fatalf("parse errors: %v", es)
	}
	if forest.TagOf(id) != ast.ExprWith {
		t.Fatalf("expected outer ExprWith for first let, got %v", forest.TagOf(id))
	}
	inner := forest.WithBody(id)
	if forest.TagOf(inner) != ast.ExprWith {
		t.Errorf("expected nested ExprWith for second let, got %v", forest.TagOf(inner))
	}
}

func TestParseReplFormExpr(t *testing.T) {
	forest := ast.NewForest()
	tks, _ := lexer.Lex(span.Scripts, "1")
	id, _, es := ParseRepl(forest, span.Scripts, tks)
	if es.HasErrors() {
		t.Fatalf("parse errors: %v", es)
	}
	if forest.TagOf(id) != ast.ExprLiteral {
		t.Errorf("expected bare expr, got %v", forest.TagOf(id))
	}
}

func TestParseReplFormAssignment(t *testing.T) {
	forest := ast.NewForest()
	tks, _ := lexer.Lex(span.Scripts, "x = 1")
	id, _, es := ParseRepl(forest, span.Scripts, tks)
	if es.HasErrors() {
		t.Fatalf("parse errors: %v", es)
	}
	if forest.TagOf(id) != ast.Assignment {
		t.Errorf("expected Assignment, got %v", forest.TagOf(id))
	}
}

func TestParseFn(t *testing.T) {
	forest := ast.NewForest()
	tks, _ := lexer.Lex(span.Scripts, "fn add(x: i32, y: i32) -> i32 = x")
	mod, _, es := Parse(forest, span.Scripts, tks)
	if es.HasErrors() {
		t.Fatalf("parse errors: %v", es)
	}
	if forest.NumChildren(mod) != 1 {
		t.Fatalf("expected one top-level decl, got %d", forest.NumChildren(mod))
	}
	fn := forest.Child(mod, 0)
	if forest.TagOf(fn) != ast.Fn {
		t.Fatalf("expected Fn, got %v", forest.TagOf(fn))
	}
	if forest.NameOf(forest.FnName(fn)) != "add" {
		t.Errorf("FnName = %q", forest.NameOf(forest.FnName(fn)))
	}
}

func TestParseTypeRequests(t *testing.T) {
	forest := ast.NewForest()
	tks, _ := lexer.Lex(span.Scripts, "Foo")
	_, reqs, es := ParseType(forest, span.Scripts, tks)
	if es.HasErrors() {
		t.Fatalf("parse errors: %v", es)
	}
	if len(reqs) != 1 {
		t.Fatalf("expected 1 type request, got %d", len(reqs))
	}
	if !forest.Types.IsSentinel(reqs[0].Type) {
		t.Errorf("expected a sentinel type for unresolved name")
	}
}

func TestParseErrorRecoverySynchronizes(t *testing.T) {
	forest := ast.NewForest()
	tks, _ := lexer.Lex(span.Scripts, "fn broken( -> i32 = 1 fn ok() -> i32 = 2")
	mod, _, es := Parse(forest, span.Scripts, tks)
	if !es.HasErrors() {
		t.Fatalf("expected parse errors for malformed first fn")
	}
	// Recovery should still manage to parse the second, well-formed fn.
	found := false
	for _, c := range forest.ChildrenOf(mod) {
		if forest.TagOf(c) == ast.Fn && forest.NameOf(forest.FnName(c)) == "ok" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected parser to recover and still parse fn ok(), decls=%v", forest.ChildrenOf(mod))
	}
}
