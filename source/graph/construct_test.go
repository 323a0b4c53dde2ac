package graph

import (
	"testing"

	"github.com/ooze-lang/ooze/source/ast"
	"github.com/ooze-lang/ooze/source/async"
	"github.com/ooze-lang/ooze/source/lexer"
	"github.com/ooze-lang/ooze/source/parser"
	"github.com/ooze-lang/ooze/source/sema"
	"github.com/ooze-lang/ooze/source/span"
)

type testNamer struct{}

func (testNamer) Lookup(name string) (ast.TypeID, bool) {
	switch name {
	case "i32":
		return ast.TyI32, true
	case "bool":
		return ast.TyBool, true
	}
	return 0, false
}

// buildAndCall parses fnSrc as a module plus callExpr as a root expression
// referencing it, runs the full sema+graph pipeline, executes the call, and
// returns the single result value.
func buildAndCall(t *testing.T, fnSrc, callExpr string) async.Any {
	t.Helper()
	forest := ast.NewForest()

	fnToks, les := lexer.Lex(span.Scripts, fnSrc)
	if les.HasErrors() {
		t.Fatalf("lex errors: %v", les)
	}
	mod, reqs, pes := parser.Parse(forest, span.Scripts, fnToks)
	if pes.HasErrors() {
		t.Fatalf("parse errors: %v", pes)
	}

	callToks, cles := lexer.Lex(span.Bindings, callExpr)
	if cles.HasErrors() {
		t.Fatalf("lex errors: %v", cles)
	}
	exprID, exprReqs, epes := parser.ParseExpr(forest, span.Bindings, callToks)
	if epes.HasErrors() {
		t.Fatalf("parse errors: %v", epes)
	}
	root := forest.NewRootFn(forest.SpanOf(exprID), exprID)

	allReqs := append(append([]ast.TypeRequest{}, reqs...), exprReqs...)
	data, es := sema.Run(forest, allReqs, testNamer{}, mod, []ast.ASTID{root}, nil)
	if es.HasErrors() {
		t.Fatalf("sema errors: %v", es)
	}

	program := async.NewProgram()
	fnRef := map[ast.ASTID]async.InstRef{}
	envValues := map[ast.ASTID][]async.Any{}

	if ges := BuildProgram(forest, data, program, envValues, fnRef, nil); ges.HasErrors() {
		t.Fatalf("graph build errors: %v", ges)
	}

	fg, ges := ConstructRoot(forest, data, fnRef, envValues, program, root, nil)
	if ges.HasErrors() {
		t.Fatalf("ConstructRoot errors: %v", ges)
	}

	futures := async.Execute(program, fg, async.SeqExecutor{}, nil, nil)
	if len(futures) != 1 {
		t.Fatalf("expected one result future, got %d", len(futures))
	}
	return futures[0].Wait()
}

func TestDirectCallToTopLevelFn(t *testing.T) {
	got := buildAndCall(t, "fn double(x: i32) -> i32 = x", "double(21)")
	if got != int64(21) {
		t.Errorf("got %v, want 21 (identity fn)", got)
	}
}

func TestCallThroughLocalBindingIsFunctional(t *testing.T) {
	got := buildAndCall(t,
		"fn inc(x: i32) -> i32 = x",
		"{ let f = inc; f(1) }")
	if got != int64(1) {
		t.Errorf("got %v, want 1", got)
	}
}

func TestSelectLowering(t *testing.T) {
	got := buildAndCall(t, "fn f() -> i32 = 1", "select true { 10 } else { 20 }")
	if got != int64(10) {
		t.Errorf("got %v, want 10", got)
	}
}

func TestBorrowAtTopLevelIsRejected(t *testing.T) {
	forest := ast.NewForest()
	fnToks, _ := lexer.Lex(span.Scripts, "fn f() -> i32 = 1")
	mod, reqs, pes := parser.Parse(forest, span.Scripts, fnToks)
	if pes.HasErrors() {
		t.Fatalf("parse errors: %v", pes)
	}
	exprToks, _ := lexer.Lex(span.Bindings, "&1")
	exprID, exprReqs, epes := parser.ParseExpr(forest, span.Bindings, exprToks)
	if epes.HasErrors() {
		t.Fatalf("parse errors: %v", epes)
	}
	root := forest.NewRootFn(forest.SpanOf(exprID), exprID)
	allReqs := append(append([]ast.TypeRequest{}, reqs...), exprReqs...)
	data, es := sema.Run(forest, allReqs, testNamer{}, mod, []ast.ASTID{root}, nil)
	if es.HasErrors() {
		t.Fatalf("sema errors: %v", es)
	}

	program := async.NewProgram()
	_, ges := ConstructRoot(forest, data, map[ast.ASTID]async.InstRef{}, map[ast.ASTID][]async.Any{}, program, root, nil)
	if !ges.HasErrors() {
		t.Fatalf("expected sema/borrow/toplevel error for a borrowed top-level result")
	}
	if ges[0].ID != "sema/borrow/toplevel" {
		t.Errorf("ID = %q", ges[0].ID)
	}
}

func TestEnvValueLowering(t *testing.T) {
	forest := ast.NewForest()
	i32 := forest.Types.MakeLeaf(ast.TyI32)
	ev := forest.NewEnvValue(span.Ref{Src: span.Builtins}, "answer", i32)
	mod := forest.NewModule(span.Ref{Src: span.Builtins}, ev)

	exprToks, _ := lexer.Lex(span.Bindings, "answer")
	exprID, _, epes := parser.ParseExpr(forest, span.Bindings, exprToks)
	if epes.HasErrors() {
		t.Fatalf("parse errors: %v", epes)
	}
	root := forest.NewRootFn(forest.SpanOf(exprID), exprID)

	data, es := sema.Run(forest, nil, testNamer{}, mod, []ast.ASTID{root}, nil)
	if es.HasErrors() {
		t.Fatalf("sema errors: %v", es)
	}

	program := async.NewProgram()
	envValues := map[ast.ASTID][]async.Any{ev: {int64(42)}}
	fg, ges := ConstructRoot(forest, data, map[ast.ASTID]async.InstRef{}, envValues, program, root, nil)
	if ges.HasErrors() {
		t.Fatalf("ConstructRoot errors: %v", ges)
	}
	futures := async.Execute(program, fg, async.SeqExecutor{}, nil, nil)
	if futures[0].Wait() != int64(42) {
		t.Errorf("got %v, want 42", futures[0].Wait())
	}
}
