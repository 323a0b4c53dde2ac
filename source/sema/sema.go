// Package sema runs Ooze's three semantic passes over a parsed ast.Forest:
// type-name resolution, identifier-graph construction, and bidirectional
// constraint propagation with overload resolution (spec.md §4.2). Each pass
// is a plain function over the shared Forest rather than an object with
// mutable pass-state, mirroring the teacher's preference for small
// function-per-concern files over deep visitor hierarchies.
package sema

import (
	"github.com/ooze-lang/ooze/source/ast"
	"github.com/ooze-lang/ooze/source/digraph"
	"github.com/ooze-lang/ooze/source/errs"
)

// TypeNamer resolves a named type to its host-supplied TypeID. env.Env (via
// its Lookup method) is the production implementation; sema depends only on
// this interface to keep sema free of any dependency on the env package.
type TypeNamer interface {
	Lookup(name string) (ast.TypeID, bool)
}

// Data is the output of a full sema run (spec.md §4.2 "Outputs"):
// overloads resolved during propagation, the set of fully-typed top-level
// fns, and generic fns still containing a Floating type once propagation
// reaches its fixed point.
type Data struct {
	// Overloads maps every ExprIdent that propagation resolved to the
	// pattern ASTID it is bound to: its only binding in scope, or the one
	// overload that survived resolution.
	Overloads map[ast.ASTID]ast.ASTID

	// ResolvedRoots are top-level Fn ASTIDs whose type is fully concrete
	// (no Floating anywhere in their signature) after propagation.
	ResolvedRoots []ast.ASTID

	// GenericRoots are top-level Fn ASTIDs that still contain a Floating
	// type: treated as templates, stored in source form for later
	// per-call-site instantiation (spec.md §9).
	GenericRoots []ast.ASTID

	// IdentGraph is the undirected usage<->binding graph pass (b) built.
	// Graph construction does not read it; it resolves names via Overloads.
	IdentGraph digraph.Digraph[ast.ASTID]
}

// Run executes all three passes, then the move-linearity check, over module
// (a Module node whose children
// are the Fn/EnvValue globals) plus any extraRoots -- additional
// expressions to resolve against those same globals without becoming
// globals themselves, namely the user's expr/assignment in Env.run
// (spec.md §4.5: "an ephemeral AST containing env modules, binding
// globals, and the user expression").
//
// Passes are chained by short-circuiting on the first failing stage
// (spec.md §7): a type-name resolution failure aborts before the
// identifier graph is even built, since every later pass assumes every
// Leaf type is concrete.
func Run(forest *ast.Forest, requests []ast.TypeRequest, namer TypeNamer, module ast.ASTID, extraRoots []ast.ASTID, copyable map[ast.TypeID]bool) (*Data, errs.Errors) {
	if es := ResolveTypeNames(forest, requests, namer); es.HasErrors() {
		return nil, es
	}

	graph, globals, es := BuildIdentGraph(forest, module, extraRoots)
	if es.HasErrors() {
		return nil, es
	}

	overloads, es := Propagate(forest, graph)
	if es.HasErrors() {
		return nil, es
	}

	if es := checkLinearity(forest, graph, globals, copyable); es.HasErrors() {
		return nil, es
	}

	data := &Data{Overloads: overloads, IdentGraph: graph}
	for _, decl := range forest.ChildrenOf(module) {
		if forest.TagOf(decl) != ast.Fn {
			continue
		}
		if containsFloating(forest, forest.TypeOf(decl)) {
			data.GenericRoots = append(data.GenericRoots, decl)
		} else {
			data.ResolvedRoots = append(data.ResolvedRoots, decl)
		}
	}
	return data, nil
}

func containsFloating(forest *ast.Forest, t ast.Type) bool {
	if t == ast.Invalid {
		return false
	}
	if forest.Types.KindOf(t) == ast.Floating {
		return true
	}
	for _, c := range forest.Types.ChildrenOf(t) {
		if containsFloating(forest, c) {
			return true
		}
	}
	return false
}

// ResolveTypeNames implements pass (a): every sentinel Leaf type the parser
// produced for a named type occurrence is looked up in namer; a hit fixes
// up the sentinel in place, a miss reports `undefined type` (spec.md
// §4.2(a)).
func ResolveTypeNames(forest *ast.Forest, requests []ast.TypeRequest, namer TypeNamer) errs.Errors {
	var es errs.Errors
	for _, req := range requests {
		if !forest.Types.IsSentinel(req.Type) {
			continue // already resolved by a previous ResolveTypeNames call sharing this graph
		}
		name := forest.Types.SentinelName(req.Type)
		id, ok := namer.Lookup(name)
		if !ok {
			es = append(es, errs.New("sema/type/undefined", req.Span, name))
			continue
		}
		forest.Types.ResolveSentinel(req.Type, id)
	}
	return es
}
