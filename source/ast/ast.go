// Package ast is Ooze's abstract syntax tree: a flat forest (a single vector
// of nodes addressed by index, rather than a tree of pointers/interfaces),
// plus the TypeGraph DAG each node's Type field refers to (see
// typegraph.go). A flat forest makes every later pass -- sema's three
// traversals, graph construction's bottom-up walk -- an index-driven loop
// instead of pointer-chasing, and makes "copy this subtree into the env"
// (spec.md §4.5) a slice-append instead of a deep clone.
package ast

import "github.com/ooze-lang/ooze/source/span"

// ASTID addresses a single node within a Forest.
type ASTID int

const InvalidID ASTID = -1

// Tag is the node's syntactic kind. Patterns, expressions, and the
// declaration forms all live in one flat enum, as spec.md §3 lists them.
type Tag int

const (
	// Patterns.
	PatternWildCard Tag = iota
	PatternIdent
	PatternTuple

	// Expressions.
	ExprLiteral
	ExprIdent
	ExprTuple
	ExprBorrow
	ExprCall
	ExprSelect
	ExprWith

	// Declarations and roots.
	Assignment
	Fn
	Module
	EnvValue
	RootFn
)

func (t Tag) String() string {
	switch t {
	case PatternWildCard:
		return "PatternWildCard"
	case PatternIdent:
		return "PatternIdent"
	case PatternTuple:
		return "PatternTuple"
	case ExprLiteral:
		return "ExprLiteral"
	case ExprIdent:
		return "ExprIdent"
	case ExprTuple:
		return "ExprTuple"
	case ExprBorrow:
		return "ExprBorrow"
	case ExprCall:
		return "ExprCall"
	case ExprSelect:
		return "ExprSelect"
	case ExprWith:
		return "ExprWith"
	case Assignment:
		return "Assignment"
	case Fn:
		return "Fn"
	case Module:
		return "Module"
	case EnvValue:
		return "EnvValue"
	case RootFn:
		return "RootFn"
	}
	return "?"
}

// LitKind distinguishes the scalar literal forms ExprLiteral can hold.
type LitKind int

const (
	LitBool LitKind = iota
	LitInt
	LitFloat
	LitString
)

// Literal is the payload of an ExprLiteral node. Bits holds the raw integer
// or float bit pattern (via math.Float64bits for floats) so a single field
// covers every numeric width, and a bool as 0/1; Str holds a string
// literal's text, or a numeric literal's source lexeme.
type Literal struct {
	Kind LitKind
	Bits uint64
	Str  string
}

// Node is one entry in a Forest: its tag, its parent (InvalidID at a root),
// a contiguous range into Forest.Children, its source span, and a reference
// into the Forest's TypeGraph. Payloads that don't fit this shape (an
// identifier's name, a literal's value, a function's declared name) live in
// the Forest's side tables, keyed by ASTID, rather than inflating every
// node with fields only a few tags use.
type Node struct {
	Tag                  Tag
	Parent               ASTID
	ChildStart, ChildEnd int
	Span                 span.Ref
	Type                 Type
}

// Forest owns every node and type produced while parsing one compilation
// unit (one script, one REPL binding, or the ephemeral AST the Env façade
// builds to evaluate one top-level expression against already-resolved
// globals).
type Forest struct {
	Nodes    []Node
	Children []ASTID
	Types    *TypeGraph

	idents  map[ASTID]string
	lits    map[ASTID]Literal
	fnNames map[ASTID]string
}

func NewForest() *Forest {
	return &Forest{
		Types:   NewTypeGraph(),
		idents:  map[ASTID]string{},
		lits:    map[ASTID]Literal{},
		fnNames: map[ASTID]string{},
	}
}

func (f *Forest) push(n Node) ASTID {
	id := ASTID(len(f.Nodes))
	f.Nodes = append(f.Nodes, n)
	return id
}

// adopt appends children's ids to the arena under a fresh contiguous range
// and reparents each child to id.
func (f *Forest) adopt(id ASTID, children []ASTID) (start, end int) {
	start = len(f.Children)
	f.Children = append(f.Children, children...)
	end = len(f.Children)
	for _, c := range children {
		f.Nodes[c].Parent = id
	}
	return
}

func (f *Forest) Leaf(tag Tag, sp span.Ref) ASTID {
	return f.push(Node{Tag: tag, Parent: InvalidID, Type: Invalid, Span: sp})
}

func (f *Forest) Branch(tag Tag, sp span.Ref, children ...ASTID) ASTID {
	id := f.push(Node{Tag: tag, Parent: InvalidID, Type: Invalid, Span: sp})
	start, end := f.adopt(id, children)
	f.Nodes[id].ChildStart, f.Nodes[id].ChildEnd = start, end
	return id
}

func (f *Forest) ChildrenOf(id ASTID) []ASTID {
	n := f.Nodes[id]
	return f.Children[n.ChildStart:n.ChildEnd]
}

func (f *Forest) Child(id ASTID, i int) ASTID {
	return f.Children[f.Nodes[id].ChildStart+i]
}

func (f *Forest) NumChildren(id ASTID) int {
	n := f.Nodes[id]
	return n.ChildEnd - n.ChildStart
}

func (f *Forest) SetType(id ASTID, t Type) { f.Nodes[id].Type = t }
func (f *Forest) TypeOf(id ASTID) Type     { return f.Nodes[id].Type }
func (f *Forest) TagOf(id ASTID) Tag       { return f.Nodes[id].Tag }
func (f *Forest) SpanOf(id ASTID) span.Ref { return f.Nodes[id].Span }
func (f *Forest) ParentOf(id ASTID) ASTID  { return f.Nodes[id].Parent }

// Identifier-bearing nodes: PatternIdent, ExprIdent, and the synthetic name
// node every Fn/EnvValue carries for the identifier graph (spec.md §4.2:
// "globals are overload sets ... a mapping from pattern ASTIDs ... to Inst").

func (f *Forest) NewPatternIdent(sp span.Ref, name string) ASTID {
	id := f.Leaf(PatternIdent, sp)
	f.idents[id] = name
	return id
}

func (f *Forest) NewExprIdent(sp span.Ref, name string) ASTID {
	id := f.Leaf(ExprIdent, sp)
	f.idents[id] = name
	return id
}

func (f *Forest) NameOf(id ASTID) string { return f.idents[id] }

func (f *Forest) NewLiteral(sp span.Ref, lit Literal) ASTID {
	id := f.Leaf(ExprLiteral, sp)
	f.lits[id] = lit
	return id
}

func (f *Forest) LiteralOf(id ASTID) Literal { return f.lits[id] }

// NewFn builds a Fn node. name becomes a PatternIdent child (child 0) so it
// participates in the same overload-set/global-scope machinery as a `let`
// binding's pattern; params (child 1) and body (child 2) follow. NewFn sets
// no type: the parser gives the node its Fn-kind Type, built from the
// params' declared types and the declared output type.
func (f *Forest) NewFn(sp span.Ref, name ASTID, params ASTID, body ASTID) ASTID {
	return f.Branch(Fn, sp, name, params, body)
}

func (f *Forest) FnName(id ASTID) ASTID   { return f.Child(id, 0) }
func (f *Forest) FnParams(id ASTID) ASTID { return f.Child(id, 1) }
func (f *Forest) FnBody(id ASTID) ASTID   { return f.Child(id, 2) }

// NewEnvValue injects an already-typed, already-named global (a binding or
// a native function) as a leaf participating in the identifier graph the
// same way a Fn's name does (spec.md §3: "EnvValue (for injected globals
// /bindings)"). Its Type is set directly: EnvValues never go through
// type-name resolution, since the host supplied a concrete TypeID already.
func (f *Forest) NewEnvValue(sp span.Ref, name string, t Type) ASTID {
	id := f.Leaf(EnvValue, sp)
	f.idents[id] = name
	f.Nodes[id].Type = t
	return id
}

// NewAssignment builds a top-level `pattern = expr` form: the shape used
// both for REPL bindings (parse_repl's "top-level assignment" case) and for
// injecting resolved globals into an ephemeral run() AST.
func (f *Forest) NewAssignment(sp span.Ref, pattern, expr ASTID) ASTID {
	return f.Branch(Assignment, sp, pattern, expr)
}

func (f *Forest) AssignPattern(id ASTID) ASTID { return f.Child(id, 0) }
func (f *Forest) AssignExpr(id ASTID) ASTID    { return f.Child(id, 1) }

// NewWith builds one `let pattern = expr; ...` link of a block (spec.md §3:
// "ExprWith (let-in block)"): pattern and rhs are evaluated, then body (the
// rest of the block, itself possibly another ExprWith, or the block's
// trailing expr) runs with pattern's bindings in scope.
func (f *Forest) NewWith(sp span.Ref, pattern, rhs, body ASTID) ASTID {
	return f.Branch(ExprWith, sp, pattern, rhs, body)
}

func (f *Forest) WithPattern(id ASTID) ASTID { return f.Child(id, 0) }
func (f *Forest) WithRHS(id ASTID) ASTID     { return f.Child(id, 1) }
func (f *Forest) WithBody(id ASTID) ASTID    { return f.Child(id, 2) }

func (f *Forest) NewModule(sp span.Ref, decls ...ASTID) ASTID {
	return f.Branch(Module, sp, decls...)
}

func (f *Forest) NewRootFn(sp span.Ref, inner ASTID) ASTID {
	return f.Branch(RootFn, sp, inner)
}

func (f *Forest) RootInner(id ASTID) ASTID { return f.Child(id, 0) }

// Walk visits id and every descendant in preorder.
func (f *Forest) Walk(id ASTID, visit func(ASTID)) {
	visit(id)
	for _, c := range f.ChildrenOf(id) {
		f.Walk(c, visit)
	}
}
