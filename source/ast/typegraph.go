package ast

import (
	"fmt"

	"github.com/ooze-lang/ooze/source/span"
)

// TypeID is a host-supplied identifier for a primitive/native type (see the
// reserved IDs in the GLOSSARY: bool, i8..u64, f32/f64, string,
// string_vector, byte_vector, plus whatever a NativeRegistry adds).
type TypeID uint32

const (
	TyUndefined TypeID = iota
	TyBool
	TyI8
	TyI16
	TyI32
	TyI64
	TyU8
	TyU16
	TyU32
	TyU64
	TyF32
	TyF64
	TyString
	TyStringVector
	TyByteVector
	FirstUserTypeID
)

// CopyableScalars is the default set of TypeIDs cheap enough to duplicate
// rather than move (spec.md §4.3 step 3: "Leaf with TypeID ∈ copyable").
// Both graph construction (PassBy classification) and sema's move-linearity
// check (spec.md §4.2(c)) share this one definition so a host's
// NativeRegistry.AddCopyableType registrations mean the same thing in both
// places. Strings and vectors are heap values and always move or borrow.
var CopyableScalars = map[TypeID]bool{
	TyBool: true,
	TyI8:   true, TyI16: true, TyI32: true, TyI64: true,
	TyU8: true, TyU16: true, TyU32: true, TyU64: true,
	TyF32: true, TyF64: true,
}

// MergeCopyable overlays a host's extra copyable TypeIDs (from
// NativeRegistry.AddCopyableType) onto CopyableScalars, never mutating
// CopyableScalars itself. A nil/empty extra set returns CopyableScalars
// directly.
func MergeCopyable(extra map[TypeID]bool) map[TypeID]bool {
	if len(extra) == 0 {
		return CopyableScalars
	}
	merged := make(map[TypeID]bool, len(CopyableScalars)+len(extra))
	for id := range CopyableScalars {
		merged[id] = true
	}
	for id, ok := range extra {
		if ok {
			merged[id] = true
		}
	}
	return merged
}

// Kind tags a type-graph node's shape.
type Kind int

const (
	Leaf Kind = iota
	Tuple
	Borrow
	FnKind
	Floating
)

// Type is an index into a TypeGraph: the "type reference" every AST node
// carries (spec.md §3's `Type`).
type Type int

const Invalid Type = -1

// TypeRequest is one named type the parser could not resolve itself: a
// sentinel Type plus the source span of the name occurrence, for sema's
// type-name resolution pass (spec.md §4.1: "the parser yields (AST, list
// of (Type, SrcRef) requests)").
type TypeRequest struct {
	Type Type
	Span span.Ref
}

type typeNode struct {
	Kind     Kind
	Leaf     TypeID  // valid when Kind == Leaf
	Children []Type  // Fn: [input, output]; Borrow: [inner]; Tuple: element types; Leaf/Floating: empty
	sentinel bool     // true for a Leaf parsed from a name not yet resolved
	name     string   // the unresolved name, when sentinel
	floatID  int      // disambiguates distinct Floating variables within one graph
}

// TypeGraph is a DAG of type nodes, hash-consed structurally within one
// graph (spec.md §3, §9): building the same shape twice returns the same
// Type index. Hash-consing does NOT span multiple TypeGraphs -- copying a
// type across graphs is the explicit job of Copy.
type TypeGraph struct {
	nodes   []typeNode
	intern  map[string]Type // structural key -> Type, for non-Floating nodes
	nextFID int
}

func NewTypeGraph() *TypeGraph {
	return &TypeGraph{intern: map[string]Type{}}
}

func (g *TypeGraph) key(n typeNode) string {
	s := fmt.Sprintf("%d:%d:%v:%v:%s", n.Kind, n.Leaf, n.Children, n.sentinel, n.name)
	return s
}

func (g *TypeGraph) intern_(n typeNode) Type {
	k := g.key(n)
	if t, ok := g.intern[k]; ok {
		return t
	}
	id := Type(len(g.nodes))
	g.nodes = append(g.nodes, n)
	g.intern[k] = id
	return id
}

// MakeLeaf creates (or reuses) a concrete leaf type.
func (g *TypeGraph) MakeLeaf(id TypeID) Type {
	return g.intern_(typeNode{Kind: Kind(Leaf), Leaf: id})
}

// MakeSentinel creates an unresolved named-type placeholder, to be fixed up by
// sema's type-name resolution pass (spec.md §4.2(a)). Sentinels are never
// interned against each other by name, since two unresolved occurrences of
// the same name must remain distinguishable nodes until resolved (each
// carries its own SrcRef for diagnostics, tracked by the parser separately).
func (g *TypeGraph) MakeSentinel(name string) Type {
	id := Type(len(g.nodes))
	g.nodes = append(g.nodes, typeNode{Kind: Leaf, sentinel: true, name: name})
	return id
}

func (g *TypeGraph) MakeTuple(elems []Type) Type {
	return g.intern_(typeNode{Kind: Tuple, Children: append([]Type{}, elems...)})
}

func (g *TypeGraph) MakeBorrow(inner Type) Type {
	return g.intern_(typeNode{Kind: Borrow, Children: []Type{inner}})
}

func (g *TypeGraph) MakeFn(in, out Type) Type {
	return g.intern_(typeNode{Kind: FnKind, Children: []Type{in, out}})
}

// MakeFloating allocates a fresh type variable, always a distinct node
// (never hash-consed: each `_` / inferred position is its own unknown).
func (g *TypeGraph) MakeFloating() Type {
	id := Type(len(g.nodes))
	g.nodes = append(g.nodes, typeNode{Kind: Floating, floatID: g.nextFID})
	g.nextFID++
	return id
}

func (g *TypeGraph) KindOf(t Type) Kind       { return g.nodes[t].Kind }
func (g *TypeGraph) LeafID(t Type) TypeID     { return g.nodes[t].Leaf }
func (g *TypeGraph) IsSentinel(t Type) bool   { return g.nodes[t].sentinel }
func (g *TypeGraph) SentinelName(t Type) string { return g.nodes[t].name }
func (g *TypeGraph) ChildrenOf(t Type) []Type { return g.nodes[t].Children }

// ResolveSentinel turns a not-yet-resolved named leaf into a concrete one,
// in place, once type-name resolution (spec.md §4.2(a)) has found its
// TypeID. This mutates the node rather than reinterning it, since other
// nodes may already structurally reference this exact Type index.
func (g *TypeGraph) ResolveSentinel(t Type, id TypeID) {
	g.nodes[t].sentinel = false
	g.nodes[t].Leaf = id
	g.nodes[t].name = ""
}

// Substitute replaces every occurrence of `from` (normally a Floating node)
// with `to` throughout the graph, implementing unification's "Floating
// meets anything and becomes it" rule (spec.md §4.2(c)). It is a plain
// structural rewrite of every node's children array, which is fine at this
// module's scale (type graphs are small and acyclic).
func (g *TypeGraph) Substitute(from, to Type) {
	for i := range g.nodes {
		for j, c := range g.nodes[i].Children {
			if c == from {
				g.nodes[i].Children[j] = to
			}
		}
	}
}

// Copy copies a type (and everything it structurally contains) from src
// into g, using memo to preserve sharing in the destination across
// multiple Copy calls within one "copy this AST into env" operation
// (spec.md §9: "copying across graphs is explicit and uses a per-call memo
// to preserve sharing in the destination").
func Copy(dst *TypeGraph, src *TypeGraph, t Type, memo map[Type]Type) Type {
	if existing, ok := memo[t]; ok {
		return existing
	}
	n := src.nodes[t]
	switch n.Kind {
	case Leaf:
		var out Type
		if n.sentinel {
			out = dst.MakeSentinel(n.name)
		} else {
			out = dst.MakeLeaf(n.Leaf)
		}
		memo[t] = out
		return out
	case Floating:
		out := dst.MakeFloating()
		memo[t] = out
		return out
	case Tuple:
		elems := make([]Type, len(n.Children))
		for i, c := range n.Children {
			elems[i] = Copy(dst, src, c, memo)
		}
		out := dst.MakeTuple(elems)
		memo[t] = out
		return out
	case Borrow:
		out := dst.MakeBorrow(Copy(dst, src, n.Children[0], memo))
		memo[t] = out
		return out
	case FnKind:
		in := Copy(dst, src, n.Children[0], memo)
		out_ := Copy(dst, src, n.Children[1], memo)
		out := dst.MakeFn(in, out_)
		memo[t] = out
		return out
	}
	panic("ast: unreachable type kind")
}

// PreorderLeaves flattens a type's leaves in preorder, where every non-Tuple
// node (Leaf, Floating, Borrow or Fn) is one leaf, so a Borrow is returned
// itself rather than the node it wraps: this is what graph construction
// uses to know how many terminals an expression's value occupies (spec.md
// §4.3 step 1: "a preorder flattening of whether each leaf is Borrow").
func (g *TypeGraph) PreorderLeaves(t Type) []Type {
	var out []Type
	var walk func(Type)
	walk = func(t Type) {
		switch g.KindOf(t) {
		case Tuple:
			for _, c := range g.ChildrenOf(t) {
				walk(c)
			}
		default:
			out = append(out, t)
		}
	}
	walk(t)
	return out
}

// String renders a type for diagnostics and Env.PrettyPrint.
func (g *TypeGraph) String(t Type) string {
	n := g.nodes[t]
	switch n.Kind {
	case Leaf:
		if n.sentinel {
			return n.name + "?"
		}
		return nativeLeafName(n.Leaf)
	case Floating:
		return fmt.Sprintf("_%d", n.floatID)
	case Tuple:
		s := "("
		for i, c := range n.Children {
			if i > 0 {
				s += ", "
			}
			s += g.String(c)
		}
		return s + ")"
	case Borrow:
		return "&" + g.String(n.Children[0])
	case FnKind:
		return "fn " + g.String(n.Children[0]) + " -> " + g.String(n.Children[1])
	}
	return "?"
}

func nativeLeafName(id TypeID) string {
	switch id {
	case TyBool:
		return "bool"
	case TyI8:
		return "i8"
	case TyI16:
		return "i16"
	case TyI32:
		return "i32"
	case TyI64:
		return "i64"
	case TyU8:
		return "u8"
	case TyU16:
		return "u16"
	case TyU32:
		return "u32"
	case TyU64:
		return "u64"
	case TyF32:
		return "f32"
	case TyF64:
		return "f64"
	case TyString:
		return "string"
	case TyStringVector:
		return "string_vector"
	case TyByteVector:
		return "byte_vector"
	}
	return fmt.Sprintf("<type %d>", id)
}
