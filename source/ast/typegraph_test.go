package ast

import "testing"

func TestMakeLeafInterned(t *testing.T) {
	g := NewTypeGraph()
	a := g.MakeLeaf(TyI32)
	b := g.MakeLeaf(TyI32)
	if a != b {
		t.Errorf("expected identical leaves to be interned: %v != %v", a, b)
	}
	c := g.MakeLeaf(TyBool)
	if a == c {
		t.Errorf("expected distinct leaves to get distinct Types")
	}
}

func TestMakeTupleInterned(t *testing.T) {
	g := NewTypeGraph()
	i32 := g.MakeLeaf(TyI32)
	str := g.MakeLeaf(TyString)
	t1 := g.MakeTuple([]Type{i32, str})
	t2 := g.MakeTuple([]Type{i32, str})
	if t1 != t2 {
		t.Errorf("expected structurally identical tuples to be interned")
	}
}

func TestMakeFloatingNeverInterned(t *testing.T) {
	g := NewTypeGraph()
	a := g.MakeFloating()
	b := g.MakeFloating()
	if a == b {
		t.Errorf("expected distinct Floating nodes every call")
	}
}

func TestMakeFnAndBorrow(t *testing.T) {
	g := NewTypeGraph()
	i32 := g.MakeLeaf(TyI32)
	b := g.MakeBorrow(i32)
	if g.KindOf(b) != Borrow {
		t.Errorf("expected Borrow kind")
	}
	if g.ChildrenOf(b)[0] != i32 {
		t.Errorf("expected Borrow child to be i32")
	}
	fn := g.MakeFn(i32, b)
	if g.KindOf(fn) != FnKind {
		t.Errorf("expected Fn kind")
	}
}

func TestResolveSentinel(t *testing.T) {
	g := NewTypeGraph()
	s := g.MakeSentinel("Foo")
	if !g.IsSentinel(s) {
		t.Fatalf("expected sentinel")
	}
	g.ResolveSentinel(s, FirstUserTypeID)
	if g.IsSentinel(s) {
		t.Errorf("expected sentinel resolved")
	}
	if g.LeafID(s) != FirstUserTypeID {
		t.Errorf("LeafID = %v, want %v", g.LeafID(s), FirstUserTypeID)
	}
}

func TestSubstitute(t *testing.T) {
	g := NewTypeGraph()
	f := g.MakeFloating()
	i32 := g.MakeLeaf(TyI32)
	tup := g.MakeTuple([]Type{f, i32})
	g.Substitute(f, i32)
	children := g.ChildrenOf(tup)
	if children[0] != i32 {
		t.Errorf("expected substitution to rewrite child: %v", children)
	}
}

func TestPreorderLeavesFlattensTuples(t *testing.T) {
	g := NewTypeGraph()
	i32 := g.MakeLeaf(TyI32)
	str := g.MakeLeaf(TyString)
	inner := g.MakeTuple([]Type{i32, str})
	outer := g.MakeTuple([]Type{inner, i32})
	leaves := g.PreorderLeaves(outer)
	if len(leaves) != 3 {
		t.Fatalf("PreorderLeaves = %v, want 3 leaves", leaves)
	}
	if leaves[0] != i32 || leaves[1] != str || leaves[2] != i32 {
		t.Errorf("unexpected leaf order: %v", leaves)
	}
}

func TestPreorderLeavesNonTupleIsSingleLeaf(t *testing.T) {
	g := NewTypeGraph()
	i32 := g.MakeLeaf(TyI32)
	b := g.MakeBorrow(i32)
	leaves := g.PreorderLeaves(b)
	if len(leaves) != 1 || leaves[0] != b {
		t.Errorf("PreorderLeaves(Borrow) = %v, want [Borrow itself]", leaves)
	}
}

func TestCopyPreservesSharing(t *testing.T) {
	src := NewTypeGraph()
	i32 := src.MakeLeaf(TyI32)
	tup := src.MakeTuple([]Type{i32, i32})

	dst := NewTypeGraph()
	memo := map[Type]Type{}
	out := Copy(dst, src, tup, memo)
	if dst.KindOf(out) != Tuple {
		t.Fatalf("expected copied node to be a Tuple")
	}
	children := dst.ChildrenOf(out)
	if children[0] != children[1] {
		t.Errorf("expected sharing preserved across Copy: %v", children)
	}
}

func TestStringRendering(t *testing.T) {
	g := NewTypeGraph()
	i32 := g.MakeLeaf(TyI32)
	b := g.MakeBorrow(i32)
	fn := g.MakeFn(i32, b)
	if got := g.String(fn); got != "fn i32 -> &i32" {
		t.Errorf("String(fn) = %q", got)
	}
}
