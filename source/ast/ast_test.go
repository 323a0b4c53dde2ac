package ast

import "github.com/ooze-lang/ooze/source/span"
import "testing"

func sp() span.Ref { return span.Ref{Src: span.Scripts, Begin: 0, End: 1} }

func TestLeafAndBranchChildren(t *testing.T) {
	f := NewForest()
	a := f.NewExprIdent(sp(), "a")
	b := f.NewExprIdent(sp(), "b")
	tup := f.Branch(ExprTuple, sp(), a, b)
	if f.NumChildren(tup) != 2 {
		t.Fatalf("NumChildren = %d, want 2", f.NumChildren(tup))
	}
	if f.Child(tup, 0) != a || f.Child(tup, 1) != b {
		t.Errorf("children mismatch")
	}
	if f.ParentOf(a) != tup || f.ParentOf(b) != tup {
		t.Errorf("expected children reparented to tup")
	}
}

func TestNewFnAccessors(t *testing.T) {
	f := NewForest()
	name := f.NewPatternIdent(sp(), "foo")
	params := f.Leaf(PatternWildCard, sp())
	body := f.NewLiteral(sp(), Literal{Kind: LitInt, Bits: 1})
	fn := f.NewFn(sp(), name, params, body)

	if f.FnName(fn) != name {
		t.Errorf("FnName mismatch")
	}
	if f.FnParams(fn) != params {
		t.Errorf("FnParams mismatch")
	}
	if f.FnBody(fn) != body {
		t.Errorf("FnBody mismatch")
	}
	if f.TagOf(fn) != Fn {
		t.Errorf("TagOf = %v, want Fn", f.TagOf(fn))
	}
}

func TestNewEnvValueSetsTypeDirectly(t *testing.T) {
	f := NewForest()
	i32 := f.Types.MakeLeaf(TyI32)
	ev := f.NewEnvValue(sp(), "x", i32)
	if f.TypeOf(ev) != i32 {
		t.Errorf("TypeOf(EnvValue) = %v, want %v", f.TypeOf(ev), i32)
	}
	if f.NameOf(ev) != "x" {
		t.Errorf("NameOf(EnvValue) = %q", f.NameOf(ev))
	}
}

func TestNewAssignmentAndWith(t *testing.T) {
	f := NewForest()
	pat := f.NewPatternIdent(sp(), "x")
	rhs := f.NewLiteral(sp(), Literal{Kind: LitInt, Bits: 1})
	assign := f.NewAssignment(sp(), pat, rhs)
	if f.AssignPattern(assign) != pat || f.AssignExpr(assign) != rhs {
		t.Errorf("assignment accessors mismatch")
	}

	body := f.NewExprIdent(sp(), "x")
	with := f.NewWith(sp(), pat, rhs, body)
	if f.WithPattern(with) != pat || f.WithRHS(with) != rhs || f.WithBody(with) != body {
		t.Errorf("with accessors mismatch")
	}
}

func TestNewModuleAndRootFn(t *testing.T) {
	f := NewForest()
	a := f.NewLiteral(sp(), Literal{Kind: LitInt, Bits: 1})
	b := f.NewLiteral(sp(), Literal{Kind: LitInt, Bits: 2})
	mod := f.NewModule(sp(), a, b)
	if f.TagOf(mod) != Module || f.NumChildren(mod) != 2 {
		t.Errorf("module mismatch")
	}

	root := f.NewRootFn(sp(), a)
	if f.RootInner(root) != a {
		t.Errorf("RootInner mismatch")
	}
}

func TestWalkVisitsPreorder(t *testing.T) {
	f := NewForest()
	a := f.NewExprIdent(sp(), "a")
	b := f.NewExprIdent(sp(), "b")
	tup := f.Branch(ExprTuple, sp(), a, b)

	var visited []ASTID
	f.Walk(tup, func(id ASTID) { visited = append(visited, id) })
	if len(visited) != 3 || visited[0] != tup || visited[1] != a || visited[2] != b {
		t.Errorf("Walk order = %v, want [tup a b]", visited)
	}
}

func TestTagString(t *testing.T) {
	if Fn.String() != "Fn" {
		t.Errorf("Fn.String() = %q", Fn.String())
	}
	if Tag(999).String() != "?" {
		t.Errorf("unknown tag should render ?")
	}
}
