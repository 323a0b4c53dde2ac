package sema

import (
	"github.com/ooze-lang/ooze/source/ast"
	"github.com/ooze-lang/ooze/source/digraph"
	"github.com/ooze-lang/ooze/source/errs"
)

// checkLinearity implements spec.md §4.2(c)'s move-linearity invariant
// (§3/§8 property 4): a local binding whose type isn't in copyable is
// consumed by each use that doesn't go through an explicit `&` borrow, so
// using it more than once without an intervening borrow is an error --
// `(x, x)` of a non-copyable x uses it twice and must fail (scenario 5).
// Globals are exempt: a Fn/EnvValue name's own PatternIdent node lives in
// the same graph but is always Copy-eligible (a function value) and may be
// called any number of times.
func checkLinearity(forest *ast.Forest, graph digraph.Digraph[ast.ASTID], globals map[ast.ASTID]bool, copyable map[ast.TypeID]bool) errs.Errors {
	var es errs.Errors
	for node, neighbors := range graph {
		if globals[node] || forest.TagOf(node) != ast.PatternIdent {
			continue
		}
		if !isMoveOnly(forest, forest.TypeOf(node), copyable) {
			continue
		}

		moves := 0
		for usage := range neighbors {
			if forest.TagOf(usage) != ast.ExprIdent {
				continue
			}
			if parent := forest.ParentOf(usage); parent != ast.InvalidID && forest.TagOf(parent) == ast.ExprBorrow {
				continue // borrowed, not moved
			}
			moves++
		}
		if moves > 1 {
			es = append(es, errs.New("sema/move/reused", forest.SpanOf(node), forest.NameOf(node), moves))
		}
	}
	return es
}

// isMoveOnly mirrors graph.builder.passByForType's classification (the two
// packages can't share the func directly -- graph imports sema -- so this
// stays in lockstep with it by construction: Borrow and Fn values are
// always safe to duplicate, a copyable Leaf is safe to duplicate, anything
// else (a non-copyable Leaf, or a Tuple/Floating) is Move-only.
func isMoveOnly(forest *ast.Forest, t ast.Type, copyable map[ast.TypeID]bool) bool {
	if t == ast.Invalid {
		return false
	}
	switch forest.Types.KindOf(t) {
	case ast.Borrow, ast.FnKind:
		return false
	case ast.Leaf:
		return !ast.MergeCopyable(copyable)[forest.Types.LeafID(t)]
	default:
		return true
	}
}
