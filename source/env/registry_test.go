package env

import (
	"testing"

	"github.com/ooze-lang/ooze/source/ast"
	"github.com/ooze-lang/ooze/source/async"
)

func TestAddTypeAssignsIncreasingUserIDs(t *testing.T) {
	r := NewNativeRegistry()
	a := r.AddType("Widget")
	b := r.AddType("Gadget")
	if a < ast.FirstUserTypeID || b <= a {
		t.Fatalf("AddType IDs = %v, %v, want increasing from FirstUserTypeID", a, b)
	}
	if len(r.Types) != 2 || r.Types[0].Name != "Widget" || r.Types[1].Name != "Gadget" {
		t.Errorf("Types = %v", r.Types)
	}
}

func TestAddFnRecordsRegistration(t *testing.T) {
	r := NewNativeRegistry()
	called := false
	r.AddFn("double", Leaf(ast.TyI32), Leaf(ast.TyI32), []bool{false},
		func(args []async.Any) []async.Any {
			called = true
			return []async.Any{args[0]}
		})
	if len(r.Funcs) != 1 || r.Funcs[0].Name != "double" {
		t.Fatalf("Funcs = %v", r.Funcs)
	}
	r.Funcs[0].Fn([]async.Any{int64(1)})
	if !called {
		t.Errorf("registered Fn was not the one stored")
	}
}

func TestTypeExprBuildersAgainstTypeGraph(t *testing.T) {
	g := ast.NewTypeGraph()
	fn := FnT(TupleT(Leaf(ast.TyI32), Leaf(ast.TyI32)), Leaf(ast.TyBool))(g)
	if g.String(fn) != "fn (i32, i32) -> bool" {
		t.Errorf("String = %q", g.String(fn))
	}

	borrow := BorrowT(Leaf(ast.TyI32))(g)
	if g.KindOf(borrow) != ast.Borrow {
		t.Errorf("KindOf(borrow) = %v, want Borrow", g.KindOf(borrow))
	}
}
