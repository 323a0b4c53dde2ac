// Package env implements the embedding façade (spec.md §4.5): NativeRegistry
// for host registration, Env as the monotonically-growing compiled state,
// and Bindings carrying REPL-style state between run calls. This plays the
// role the teacher's hub/service pair plays (source/hub, source/service):
// a long-lived compiled unit a host drives incrementally, one script or one
// REPL line at a time.
package env

import (
	"github.com/ooze-lang/ooze/source/ast"
	"github.com/ooze-lang/ooze/source/async"
)

// TypeExpr builds an ast.Type against a particular TypeGraph, letting a
// host describe a native function's signature without needing a TypeGraph
// handle at registration time (Env materializes these once it owns one).
type TypeExpr func(g *ast.TypeGraph) ast.Type

func Leaf(id ast.TypeID) TypeExpr {
	return func(g *ast.TypeGraph) ast.Type { return g.MakeLeaf(id) }
}

func TupleT(elems ...TypeExpr) TypeExpr {
	return func(g *ast.TypeGraph) ast.Type {
		ts := make([]ast.Type, len(elems))
		for i, e := range elems {
			ts[i] = e(g)
		}
		return g.MakeTuple(ts)
	}
}

func BorrowT(inner TypeExpr) TypeExpr {
	return func(g *ast.TypeGraph) ast.Type { return g.MakeBorrow(inner(g)) }
}

func FnT(in, out TypeExpr) TypeExpr {
	return func(g *ast.TypeGraph) ast.Type { return g.MakeFn(in(g), out(g)) }
}

// NativeType is one host type registration (spec.md §4.5
// "NativeRegistry{add_type<T>(name), copyable: {TypeID}, ...}"): a name the
// parser's type grammar can resolve, bound to a TypeID the host's values
// are tagged with, plus whether that TypeID belongs in spec §3's copyable
// set (cheap enough to duplicate rather than move/borrow across an edge).
type NativeType struct {
	Name     string
	ID       ast.TypeID
	Copyable bool
}

// NativeFunc is one host function registration: its Ooze-visible name and
// signature, the native Go implementation, and which inputs it wants as
// BorrowedFuture rather than by value (spec.md §4.4 "Fn(AnyFunction,
// borrows[], output_count)").
type NativeFunc struct {
	Name    string
	In, Out TypeExpr
	Borrows []bool
	Fn      async.NativeFn
}

// NativeRegistry accumulates host registrations before Env.New materializes
// them against a real TypeGraph; it has no dependency on ast/async beyond
// the plain data above, so a host can build one without touching the
// compiler pipeline at all.
type NativeRegistry struct {
	Types  []NativeType
	Funcs  []NativeFunc
	nextID ast.TypeID
}

func NewNativeRegistry() *NativeRegistry {
	return &NativeRegistry{nextID: ast.FirstUserTypeID}
}

// AddType registers a new host type and returns the TypeID its values
// should carry. Values of this type always move or borrow across an edge;
// use AddCopyableType for a type cheap enough to duplicate instead.
func (r *NativeRegistry) AddType(name string) ast.TypeID {
	id := r.nextID
	r.nextID++
	r.Types = append(r.Types, NativeType{Name: name, ID: id})
	return id
}

// AddCopyableType registers a new host type whose values are cheap enough
// to duplicate (spec.md §3/§6's "copyable" set), e.g. a small fixed-size
// value type with no shared backing store. passByForType then classifies
// edges carrying it as PassBy::Copy rather than Move.
func (r *NativeRegistry) AddCopyableType(name string) ast.TypeID {
	id := r.nextID
	r.nextID++
	r.Types = append(r.Types, NativeType{Name: name, ID: id, Copyable: true})
	return id
}

// AddFn registers a native function callable from Ooze source as `name`.
func (r *NativeRegistry) AddFn(name string, in, out TypeExpr, borrows []bool, fn async.NativeFn) {
	r.Funcs = append(r.Funcs, NativeFunc{Name: name, In: in, Out: out, Borrows: borrows, Fn: fn})
}
