package sema

import (
	"strings"

	"github.com/ooze-lang/ooze/source/ast"
	"github.com/ooze-lang/ooze/source/digraph"
	"github.com/ooze-lang/ooze/source/errs"
	"github.com/ooze-lang/ooze/source/span"
)

type propagator struct {
	forest *ast.Forest
	g      *ast.TypeGraph
	uf     map[ast.Type]ast.Type
	errs   errs.Errors
}

func (pr *propagator) find(t ast.Type) ast.Type {
	for {
		nt, ok := pr.uf[t]
		if !ok {
			return t
		}
		t = nt
	}
}

// unify implements the "Floating meets anything and becomes it" rule
// (spec.md §4.2(c)) plus structural recursion for Tuple/Borrow/Fn, and
// leaf-equality for concrete types. It reports `type mismatch` on a
// genuine structural clash and returns whether it changed anything, so
// callers can detect the propagation fixed point.
func (pr *propagator) unify(a, b ast.Type, sp span.Ref) bool {
	a, b = pr.find(a), pr.find(b)
	if a == b {
		return false
	}
	ka, kb := pr.g.KindOf(a), pr.g.KindOf(b)
	if ka == ast.Floating {
		pr.uf[a] = b
		pr.g.Substitute(a, b)
		return true
	}
	if kb == ast.Floating {
		pr.uf[b] = a
		pr.g.Substitute(b, a)
		return true
	}
	if ka != kb {
		pr.mismatch(sp, a, b)
		return false
	}
	switch ka {
	case ast.Leaf:
		if pr.g.LeafID(a) != pr.g.LeafID(b) {
			pr.mismatch(sp, a, b)
		}
		return false
	case ast.Tuple, ast.Borrow, ast.FnKind:
		ca, cb := pr.g.ChildrenOf(a), pr.g.ChildrenOf(b)
		if len(ca) != len(cb) {
			pr.mismatch(sp, a, b)
			return false
		}
		changed := false
		for i := range ca {
			if pr.unify(ca[i], cb[i], sp) {
				changed = true
			}
		}
		return changed
	}
	return false
}

func (pr *propagator) mismatch(sp span.Ref, a, b ast.Type) {
	pr.errs = append(pr.errs, errs.New("sema/type/mismatch", sp, pr.g.String(a), pr.g.String(b)))
}

// canUnify reports whether a and b could unify, without recording any
// mismatch error or performing any substitution: overload resolution uses
// this to filter candidates (spec.md §4.2 "Overload resolution").
func (pr *propagator) canUnify(a, b ast.Type) bool {
	a, b = pr.find(a), pr.find(b)
	if a == b {
		return true
	}
	ka, kb := pr.g.KindOf(a), pr.g.KindOf(b)
	if ka == ast.Floating || kb == ast.Floating {
		return true
	}
	if ka != kb {
		return false
	}
	switch ka {
	case ast.Leaf:
		return pr.g.LeafID(a) == pr.g.LeafID(b)
	case ast.Tuple, ast.Borrow, ast.FnKind:
		ca, cb := pr.g.ChildrenOf(a), pr.g.ChildrenOf(b)
		if len(ca) != len(cb) {
			return false
		}
		for i := range ca {
			if !pr.canUnify(ca[i], cb[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// Propagate implements pass (c) (spec.md §4.2(c)): bidirectional
// constraint propagation over every node of the forest (including each Fn
// body against its declared output type), interleaved with overload resolution, iterated to a fixed point.
func Propagate(forest *ast.Forest, graph digraph.Digraph[ast.ASTID]) (map[ast.ASTID]ast.ASTID, errs.Errors) {
	pr := &propagator{forest: forest, g: forest.Types, uf: map[ast.Type]ast.Type{}}
	overloads := map[ast.ASTID]ast.ASTID{}

	// Every node the ident graph touches, plus every AST node overall
	// (patterns, tuples, calls, ...), participates in propagation: we walk
	// the whole forest each round rather than trying to derive a minimal
	// worklist, since Ooze programs are small (this is an embedded
	// scripting language, not a batch compiler). Once a round changes
	// nothing, one final round also resolves the overloaded usages that were
	// held back; propagation resumes if that changes anything.
	final := false
	for {
		changed := false

		for id := ast.ASTID(0); int(id) < len(forest.Nodes); id++ {
			switch forest.TagOf(id) {
			case ast.PatternTuple:
				children := forest.ChildrenOf(id)
				childTypes := make([]ast.Type, len(children))
				for i, c := range children {
					childTypes[i] = forest.TypeOf(c)
				}
				composed := pr.g.MakeTuple(childTypes)
				if pr.unify(forest.TypeOf(id), composed, forest.SpanOf(id)) {
					changed = true
				}

			case ast.ExprTuple:
				children := forest.ChildrenOf(id)
				childTypes := make([]ast.Type, len(children))
				for i, c := range children {
					childTypes[i] = forest.TypeOf(c)
				}
				composed := pr.g.MakeTuple(childTypes)
				if pr.unify(forest.TypeOf(id), composed, forest.SpanOf(id)) {
					changed = true
				}

			case ast.ExprBorrow:
				inner := forest.Child(id, 0)
				composed := pr.g.MakeBorrow(forest.TypeOf(inner))
				if pr.unify(forest.TypeOf(id), composed, forest.SpanOf(id)) {
					changed = true
				}

			case ast.ExprCall:
				callee, argTuple := forest.Child(id, 0), forest.Child(id, 1)
				composed := pr.g.MakeFn(forest.TypeOf(argTuple), forest.TypeOf(id))
				if pr.unify(forest.TypeOf(callee), composed, forest.SpanOf(id)) {
					changed = true
				}

			case ast.ExprSelect:
				cond, thenB, elseB := forest.Child(id, 0), forest.Child(id, 1), forest.Child(id, 2)
				if pr.unify(forest.TypeOf(cond), pr.g.MakeLeaf(ast.TyBool), forest.SpanOf(cond)) {
					changed = true
				}
				if pr.unify(forest.TypeOf(thenB), forest.TypeOf(id), forest.SpanOf(id)) {
					changed = true
				}
				if pr.unify(forest.TypeOf(elseB), forest.TypeOf(id), forest.SpanOf(id)) {
					changed = true
				}

			case ast.ExprWith:
				pat, rhs, body := forest.WithPattern(id), forest.WithRHS(id), forest.WithBody(id)
				if pr.unify(forest.TypeOf(pat), forest.TypeOf(rhs), forest.SpanOf(id)) {
					changed = true
				}
				if pr.unify(forest.TypeOf(id), forest.TypeOf(body), forest.SpanOf(id)) {
					changed = true
				}

			case ast.Assignment:
				pat, expr := forest.AssignPattern(id), forest.AssignExpr(id)
				if pr.unify(forest.TypeOf(pat), forest.TypeOf(expr), forest.SpanOf(id)) {
					changed = true
				}
				if pr.unify(forest.TypeOf(id), forest.TypeOf(expr), forest.SpanOf(id)) {
					changed = true
				}

			case ast.Fn:
				fnT := pr.find(forest.TypeOf(id))
				if pr.g.KindOf(fnT) == ast.FnKind {
					body := forest.FnBody(id)
					if pr.unify(pr.g.ChildrenOf(fnT)[1], forest.TypeOf(body), forest.SpanOf(body)) {
						changed = true
					}
				}

			case ast.ExprIdent:
				// An overloaded usage whose own type is still a bare Floating
				// would keep every candidate; it waits for the final round.
				if !final && len(graph.Neighbors(id)) > 1 && pr.g.KindOf(pr.find(forest.TypeOf(id))) == ast.Floating {
					continue
				}
				if pr.resolveIdent(id, graph, overloads) {
					changed = true
				}
			}
		}

		if !changed {
			if final {
				break
			}
			final = true
			continue
		}
		final = false
	}

	// Bake the union-find result into every node's stored Type so later
	// passes (graph construction) never need to carry pr.uf around.
	for i := range forest.Nodes {
		if forest.Nodes[i].Type != ast.Invalid {
			forest.Nodes[i].Type = pr.find(forest.Nodes[i].Type)
		}
	}

	// A borrow can never be the type of a top-level result (spec.md §5:
	// "cannot return a borrowed value"); RootFn's inner expression is the
	// only place this rule applies, so callers that build a RootFn check
	// it there (see graph package). Top-level Assignment/Fn bodies are
	// exempt: a Fn is free to return `&T` to its own caller's borrow
	// context, only the outermost result of one `run` call is restricted.

	return overloads, pr.errs
}

// resolveIdent implements overload resolution for one ExprIdent (spec.md
// §4.2 "Overload resolution"): filter graph.Neighbors(id) to those whose
// pattern type still unifies with id's own (possibly still-Floating)
// type. A single survivor is bound (and unified against, tightening id's
// type further); zero or multiple survivors are reported once resolution
// has enough information to be confident survivors won't change again --
// approximated here by only erroring once every candidate's type is
// itself fully resolved (no Floating left), so we don't misreport an
// ambiguity that a later round would have resolved. Propagate also holds
// back an overloaded usage whose own type is still a bare Floating until a
// round changes nothing.
func (pr *propagator) resolveIdent(id ast.ASTID, graph digraph.Digraph[ast.ASTID], overloads map[ast.ASTID]ast.ASTID) bool {
	if _, already := overloads[id]; already {
		return false
	}
	neighborSet := graph.Neighbors(id)
	neighbors := neighborSet.ToSlice()
	if len(neighbors) == 0 {
		return false
	}
	if len(neighbors) == 1 {
		bound := neighbors[0]
		overloads[id] = bound
		return pr.unify(pr.forest.TypeOf(id), pr.forest.TypeOf(bound), pr.forest.SpanOf(id))
	}

	var survivors []ast.ASTID
	allConcrete := true
	for _, n := range neighbors {
		if pr.canUnify(pr.forest.TypeOf(id), pr.forest.TypeOf(n)) {
			survivors = append(survivors, n)
		}
		if containsFloating(pr.forest, pr.forest.TypeOf(n)) {
			allConcrete = false
		}
	}

	switch len(survivors) {
	case 1:
		overloads[id] = survivors[0]
		return pr.unify(pr.forest.TypeOf(id), pr.forest.TypeOf(survivors[0]), pr.forest.SpanOf(id))
	case 0:
		if !allConcrete && !containsFloating(pr.forest, pr.forest.TypeOf(id)) {
			return false // give propagation more rounds before giving up
		}
		pr.errs = append(pr.errs, errs.New("sema/overload/none", pr.forest.SpanOf(id), pr.g.String(pr.find(pr.forest.TypeOf(id))), candidateList(pr, neighbors)))
		overloads[id] = ast.InvalidID // stop re-reporting every round
		return false
	default:
		if !allConcrete {
			return false
		}
		pr.errs = append(pr.errs, errs.New("sema/overload/ambiguous", pr.forest.SpanOf(id), pr.g.String(pr.find(pr.forest.TypeOf(id))), candidateList(pr, survivors)))
		overloads[id] = ast.InvalidID
		return false
	}
}

func candidateList(pr *propagator, ids []ast.ASTID) string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = pr.g.String(pr.forest.TypeOf(id))
	}
	return strings.Join(names, ", ")
}
