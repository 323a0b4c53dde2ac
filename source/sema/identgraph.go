package sema

import (
	"github.com/ooze-lang/ooze/source/ast"
	"github.com/ooze-lang/ooze/source/digraph"
	"github.com/ooze-lang/ooze/source/errs"
)

// scope is one lexical frame: name -> the PatternIdent (or PatternWildCard,
// though that never binds a name) ASTID it refers to within this frame.
type scope map[string]ast.ASTID

type resolver struct {
	forest  *ast.Forest
	globals map[string][]ast.ASTID
	graph   digraph.Digraph[ast.ASTID]
	errs    errs.Errors
}

// BuildIdentGraph implements pass (b) (spec.md §4.2(b)): globals are
// pre-populated from module's Fn/EnvValue children, then module's Fn
// bodies and every extraRoot are walked with a stack of lexical scopes,
// producing an undirected Graph<ASTID> linking each ExprIdent to the
// binding(s) it can refer to. The returned globals set lets later passes
// (move-linearity) tell a global Fn/EnvValue name apart from a local
// PatternIdent binding of the same graph.
func BuildIdentGraph(forest *ast.Forest, module ast.ASTID, extraRoots []ast.ASTID) (digraph.Digraph[ast.ASTID], map[ast.ASTID]bool, errs.Errors) {
	r := &resolver{
		forest:  forest,
		globals: map[string][]ast.ASTID{},
		graph:   digraph.Digraph[ast.ASTID]{},
	}
	globalNodes := map[ast.ASTID]bool{}

	for _, decl := range forest.ChildrenOf(module) {
		switch forest.TagOf(decl) {
		case ast.Fn:
			name := forest.NameOf(forest.FnName(decl))
			r.globals[name] = append(r.globals[name], forest.FnName(decl))
			r.graph.AddSafe(forest.FnName(decl), []ast.ASTID{})
			globalNodes[forest.FnName(decl)] = true
		case ast.EnvValue:
			name := forest.NameOf(decl)
			r.globals[name] = append(r.globals[name], decl)
			r.graph.AddSafe(decl, []ast.ASTID{})
			globalNodes[decl] = true
		}
	}

	for _, decl := range forest.ChildrenOf(module) {
		if forest.TagOf(decl) == ast.Fn {
			r.walk(decl, nil, nil)
		}
	}
	for _, root := range extraRoots {
		r.walk(root, nil, nil)
	}

	return r.graph, globalNodes, r.errs
}

// collectPatternIdents gathers every PatternIdent under pat into a fresh
// scope frame, reporting `sema/ident/duplicate` for a name bound twice
// within the same pattern (e.g. `let (x, x) = ...`).
func (r *resolver) collectPatternIdents(pat ast.ASTID) scope {
	s := scope{}
	var walk func(ast.ASTID)
	walk = func(id ast.ASTID) {
		switch r.forest.TagOf(id) {
		case ast.PatternIdent:
			name := r.forest.NameOf(id)
			if _, dup := s[name]; dup {
				r.errs = append(r.errs, errs.New("sema/ident/duplicate", r.forest.SpanOf(id), name))
				return
			}
			s[name] = id
		case ast.PatternTuple:
			for _, c := range r.forest.ChildrenOf(id) {
				walk(c)
			}
		}
	}
	walk(pat)
	return s
}

func lookup(scopes []scope, name string) (ast.ASTID, bool) {
	for i := len(scopes) - 1; i >= 0; i-- {
		if id, ok := scopes[i][name]; ok {
			return id, true
		}
	}
	return ast.InvalidID, false
}

// walk threads two stacks of lexical frames: scopes (names already bound,
// resolvable) and pending (names whose own `let`/Assignment initializer is
// being walked right now, not yet resolvable -- spec.md §4.2(b)'s rule that
// an Assignment/With binding "visits its RHS before introducing its LHS":
// a name that only resolves via pending means the RHS referenced the very
// binding it's initializing, which is `sema/let/cycle` rather than a plain
// undefined ident).
func (r *resolver) walk(id ast.ASTID, scopes []scope, pending []scope) {
	if id == ast.InvalidID {
		return
	}
	switch r.forest.TagOf(id) {
	case ast.ExprLiteral, ast.EnvValue, ast.PatternWildCard, ast.PatternIdent:
		return

	case ast.ExprIdent:
		name := r.forest.NameOf(id)
		if binding, ok := lookup(scopes, name); ok {
			r.graph.AddBidirectional(id, binding)
			return
		}
		if candidates, ok := r.globals[name]; ok {
			for _, c := range candidates {
				r.graph.AddBidirectional(id, c)
			}
			return
		}
		if _, ok := lookup(pending, name); ok {
			r.errs = append(r.errs, errs.New("sema/let/cycle", r.forest.SpanOf(id), name))
			return
		}
		r.errs = append(r.errs, errs.New("sema/ident/undefined", r.forest.SpanOf(id), name))

	case ast.ExprTuple, ast.ExprBorrow, ast.ExprCall, ast.ExprSelect:
		for _, c := range r.forest.ChildrenOf(id) {
			r.walk(c, scopes, pending)
		}

	case ast.ExprWith:
		frame := r.collectPatternIdents(r.forest.WithPattern(id))
		r.walk(r.forest.WithRHS(id), scopes, append(pending, frame))
		r.walk(r.forest.WithBody(id), append(scopes, frame), pending)

	case ast.Assignment:
		frame := r.collectPatternIdents(r.forest.AssignPattern(id)) // also the dup check
		r.walk(r.forest.AssignExpr(id), scopes, append(pending, frame))

	case ast.Fn:
		frame := r.collectPatternIdents(r.forest.FnParams(id))
		r.walk(r.forest.FnBody(id), append(scopes, frame), pending)

	case ast.RootFn:
		r.walk(r.forest.RootInner(id), scopes, pending)

	case ast.PatternTuple:
		for _, c := range r.forest.ChildrenOf(id) {
			r.walk(c, scopes, pending)
		}
	}
}
