// Package graph lowers sema's typed, resolved ast.Forest into the
// async package's FunctionGraph/Program (spec.md §4.3): a bottom-up walk
// that allocates output terminals per node and classifies every edge's
// PassBy from the value's own type, the way the teacher's compiler lowers
// a parsed call tree into Operations against vm registers
// (source/compiler/compiler.go), generalized from "one memory location per
// value" to "one dataflow terminal per value".
package graph

import (
	"math"

	"github.com/ooze-lang/ooze/source/ast"
	"github.com/ooze-lang/ooze/source/async"
	"github.com/ooze-lang/ooze/source/errs"
	"github.com/ooze-lang/ooze/source/sema"
)

// Copyable is the built-in scalar set eligible for PassBy::Copy; see
// ast.CopyableScalars (shared with sema's move-linearity check) for the
// definition and ast.MergeCopyable for how a host's AddCopyableType
// registrations extend it.
var Copyable = ast.CopyableScalars

// builder holds the mutable state of one FunctionGraph construction: a
// fresh one per Fn/root expression, since output terminals and bindings
// never cross graph boundaries.
type builder struct {
	forest    *ast.Forest
	program   *async.Program
	overloads map[ast.ASTID]ast.ASTID
	fnRef     map[ast.ASTID]async.InstRef   // Fn decl ASTID -> its Program instruction
	envValues map[ast.ASTID][]async.Any     // EnvValue ASTID -> its per-leaf runtime values
	copyable  map[ast.TypeID]bool
	fg        *async.FunctionGraph
	bindings  map[ast.ASTID][]async.Oterm // PatternIdent ASTID -> its bound terminals
	errs      errs.Errors
}

// BuildProgram lowers every resolved top-level Fn into program. fnRef is
// owned by the caller (Env) and persists across calls: parse_scripts may
// add new files incrementally (spec.md §4.5), so a decl already present in
// fnRef keeps its InstRef (any AsyncFn value a host already captured from
// an older build stays valid) while still having its body rebuilt in place
// against the fuller set of globals -- a redefinition, not a duplicate.
// Placeholders are reserved for every NEW fn before any body is lowered so
// that (mutually) recursive calls can reference a not-yet-filled-in
// InstRef, mirroring how the teacher's vmmaker reserves a label before
// compiling a function's own body (source/compiler/vmmaker.go).
// copyable, when non-nil, is merged over Copyable: a host's
// NativeRegistry.AddCopyableType registrations extend the fixed scalar set
// with its own PassBy::Copy-eligible types (spec.md §3's NativeTypeInfo
// "copyable: {TypeID}"). A nil copyable keeps the built-in scalars only.
func BuildProgram(forest *ast.Forest, data *sema.Data, program *async.Program, envValues map[ast.ASTID][]async.Any, fnRef map[ast.ASTID]async.InstRef, copyable map[ast.TypeID]bool) errs.Errors {
	for _, decl := range data.ResolvedRoots {
		if _, ok := fnRef[decl]; !ok {
			fnRef[decl] = program.Reserve()
		}
	}

	var all errs.Errors
	for _, decl := range data.ResolvedRoots {
		fg, es := constructFn(forest, data.Overloads, fnRef, envValues, ast.MergeCopyable(copyable), program, decl)
		all = append(all, es...)
		if len(es) == 0 {
			program.Set(fnRef[decl], async.Inst{Kind: async.KGraph, Graph: fg})
		}
	}
	return all
}

// ConstructRoot lowers a single top-level expression or assignment (spec.md
// §4.5's ephemeral run() AST) into a zero-parameter FunctionGraph whose
// exits are the expression's value.
func ConstructRoot(forest *ast.Forest, data *sema.Data, fnRef map[ast.ASTID]async.InstRef, envValues map[ast.ASTID][]async.Any, program *async.Program, rootID ast.ASTID, copyable map[ast.TypeID]bool) (*async.FunctionGraph, errs.Errors) {
	b := &builder{
		forest: forest, program: program, overloads: data.Overloads,
		fnRef: fnRef, envValues: envValues, copyable: ast.MergeCopyable(copyable),
		fg:       &async.FunctionGraph{Program: program},
		bindings: map[ast.ASTID][]async.Oterm{},
	}

	inner := forest.RootInner(rootID)
	var exprID ast.ASTID
	if forest.TagOf(inner) == ast.Assignment {
		rhs := forest.AssignExpr(inner)
		terms := b.lower(rhs)
		b.bindPattern(forest.AssignPattern(inner), terms)
		exprID = rhs
		b.fg.Exits = b.edgesFor(exprID, terms)
	} else {
		terms := b.lower(inner)
		exprID = inner
		b.fg.Exits = b.edgesFor(exprID, terms)
	}

	for _, e := range b.fg.Exits {
		if e.PassBy == async.PassBorrow {
			b.errs = append(b.errs, errs.New("sema/borrow/toplevel", forest.SpanOf(rootID)))
			break
		}
	}

	return b.fg, b.errs
}

func constructFn(forest *ast.Forest, overloads map[ast.ASTID]ast.ASTID, fnRef map[ast.ASTID]async.InstRef, envValues map[ast.ASTID][]async.Any, copyable map[ast.TypeID]bool, program *async.Program, fnID ast.ASTID) (*async.FunctionGraph, errs.Errors) {
	b := &builder{
		forest: forest, program: program, overloads: overloads,
		fnRef: fnRef, envValues: envValues, copyable: copyable,
		fg:       &async.FunctionGraph{Program: program},
		bindings: map[ast.ASTID][]async.Oterm{},
	}

	params := forest.FnParams(fnID)
	leafTypes := forest.Types.PreorderLeaves(forest.TypeOf(params))
	terms := make([]async.Oterm, len(leafTypes))
	for i := range terms {
		terms[i] = async.ParamOterm(i)
	}
	b.fg.ParamCount = len(terms)
	b.bindPattern(params, terms)

	body := forest.FnBody(fnID)
	bodyTerms := b.lower(body)
	b.fg.Exits = b.edgesFor(body, bodyTerms)

	return b.fg, b.errs
}

// passByForType implements spec.md §4.3 step 3's per-edge classification.
func (b *builder) passByForType(t ast.Type) async.PassBy {
	switch b.forest.Types.KindOf(t) {
	case ast.Borrow:
		return async.PassBorrow
	case ast.FnKind:
		return async.Copy
	case ast.Leaf:
		if b.copyable[b.forest.Types.LeafID(t)] {
			return async.Copy
		}
		return async.Move
	default:
		return async.Move
	}
}

// edgesFor builds one Edge per preorder leaf of exprID's type, classifying
// each against the value it actually carries.
func (b *builder) edgesFor(exprID ast.ASTID, terms []async.Oterm) []async.Edge {
	leaves := b.forest.Types.PreorderLeaves(b.forest.TypeOf(exprID))
	edges := make([]async.Edge, len(terms))
	for i, term := range terms {
		var t ast.Type
		if i < len(leaves) {
			t = leaves[i]
		}
		edges[i] = async.Edge{Producer: term, PassBy: b.passByForType(t)}
	}
	return edges
}

// bindPattern destructures rhs's flattened terminals onto pat's leaves
// (spec.md §4.3 step 4 "With/let": "bind its terminals under the LHS
// pattern leaves (wildcards consume terminals but discard them)").
func (b *builder) bindPattern(pat ast.ASTID, terms []async.Oterm) {
	switch b.forest.TagOf(pat) {
	case ast.PatternWildCard:
		// Consumed, discarded.
	case ast.PatternIdent:
		b.bindings[pat] = terms
	case ast.PatternTuple:
		i := 0
		for _, c := range b.forest.ChildrenOf(pat) {
			n := len(b.forest.Types.PreorderLeaves(b.forest.TypeOf(c)))
			b.bindPattern(c, terms[i:i+n])
			i += n
		}
	}
}

func (b *builder) lower(id ast.ASTID) []async.Oterm {
	switch b.forest.TagOf(id) {
	case ast.ExprLiteral:
		return b.lowerLiteral(id)
	case ast.ExprIdent:
		return b.lowerIdent(id)
	case ast.ExprTuple:
		var out []async.Oterm
		for _, c := range b.forest.ChildrenOf(id) {
			out = append(out, b.lower(c)...)
		}
		return out
	case ast.ExprBorrow:
		return b.lower(b.forest.Child(id, 0))
	case ast.ExprWith:
		rhsTerms := b.lower(b.forest.WithRHS(id))
		b.bindPattern(b.forest.WithPattern(id), rhsTerms)
		return b.lower(b.forest.WithBody(id))
	case ast.ExprSelect:
		return b.lowerSelect(id)
	case ast.ExprCall:
		return b.lowerCall(id)
	}
	panic("graph: unreachable expression tag " + b.forest.TagOf(id).String())
}

func (b *builder) lowerLiteral(id ast.ASTID) []async.Oterm {
	lit := b.forest.LiteralOf(id)
	var v async.Any
	switch lit.Kind {
	case ast.LitBool:
		v = lit.Bits != 0
	case ast.LitInt:
		v = int64(lit.Bits)
	case ast.LitFloat:
		v = math.Float64frombits(lit.Bits)
	case ast.LitString:
		v = lit.Str
	}
	ref := b.program.Append(async.Inst{Kind: async.KValue, Value: v})
	node := b.fg.AddNode(async.GNode{Inst: ref, OutputCount: 1})
	return []async.Oterm{{Node: node, Index: 0}}
}

// lowerIdent handles the three binding kinds an ExprIdent can resolve to
// (spec.md §4.3 step 4): a local pattern binding returns its terminals
// directly; an overloaded global Fn or a native EnvValue function produces
// a value node wrapping its AsyncFn; any other EnvValue produces a value
// node wrapping its runtime value directly.
func (b *builder) lowerIdent(id ast.ASTID) []async.Oterm {
	bound, ok := b.overloads[id]
	if !ok {
		panic("graph: unresolved ident reached graph construction")
	}
	if terms, ok := b.bindings[bound]; ok {
		return terms
	}
	switch b.forest.TagOf(bound) {
	case ast.PatternIdent:
		decl := b.forest.ParentOf(bound)
		return b.fnValueTerm(decl)
	case ast.EnvValue:
		vals := b.envValues[bound]
		terms := make([]async.Oterm, len(vals))
		for i, v := range vals {
			ref := b.program.Append(async.Inst{Kind: async.KValue, Value: v})
			node := b.fg.AddNode(async.GNode{Inst: ref, OutputCount: 1})
			terms[i] = async.Oterm{Node: node, Index: 0}
		}
		return terms
	}
	panic("graph: ident bound to unexpected tag")
}

// fnValueTerm wraps a resolved top-level Fn as a first-class AsyncFn value.
// A generic fn (sema.Data.GenericRoots, never given an InstRef by
// BuildProgram) reaching here means it was called/referenced without
// enough concrete type information to instantiate it -- instantiation
// per call site is future work (spec.md §9's open question), so this is
// reported rather than silently wrapping an invalid instruction.
func (b *builder) fnValueTerm(decl ast.ASTID) []async.Oterm {
	ref, ok := b.fnRef[decl]
	if !ok {
		b.errs = append(b.errs, errs.New("graph/functional/uncallable", b.forest.SpanOf(decl), "generic fn (not instantiated)"))
		ref = b.program.Append(async.Inst{Kind: async.KPlaceholder})
	}
	fn := &async.AsyncFn{Program: b.program, Inst: ref}
	valRef := b.program.Append(async.Inst{Kind: async.KValue, Value: fn})
	node := b.fg.AddNode(async.GNode{Inst: valRef, OutputCount: 1})
	return []async.Oterm{{Node: node, Index: 0}}
}

func (b *builder) lowerSelect(id ast.ASTID) []async.Oterm {
	condID := b.forest.Child(id, 0)
	thenID := b.forest.Child(id, 1)
	elseID := b.forest.Child(id, 2)

	condTerms := b.lower(condID)
	thenTerms := b.lower(thenID)
	elseTerms := b.lower(elseID)

	inputs := append(b.edgesFor(condID, condTerms),
		append(b.edgesFor(thenID, thenTerms), b.edgesFor(elseID, elseTerms)...)...)
	outCount := len(thenTerms)

	ref := b.program.Append(async.Inst{Kind: async.KSelect})
	node := b.fg.AddNode(async.GNode{Inst: ref, Inputs: inputs, OutputCount: outCount})
	out := make([]async.Oterm, outCount)
	for i := range out {
		out[i] = async.Oterm{Node: node, Index: i}
	}
	return out
}

// lowerCall implements spec.md §4.3 step 4 "Call": a direct call when the
// callee is an ExprIdent resolved to a known top-level Fn, a functional
// call (first input is the callee's AsyncFn value) otherwise.
func (b *builder) lowerCall(id ast.ASTID) []async.Oterm {
	calleeID := b.forest.Child(id, 0)
	argID := b.forest.Child(id, 1)

	argTerms := b.lower(argID)
	argEdges := b.edgesFor(argID, argTerms)
	outCount := len(b.forest.Types.PreorderLeaves(b.forest.TypeOf(id)))

	if b.forest.TagOf(calleeID) == ast.ExprIdent {
		if bound, ok := b.overloads[calleeID]; ok {
			if _, isLocal := b.bindings[bound]; !isLocal && b.forest.TagOf(bound) == ast.PatternIdent {
				decl := b.forest.ParentOf(bound)
				if ref, known := b.fnRef[decl]; known {
					node := b.fg.AddNode(async.GNode{Inst: ref, Inputs: argEdges, OutputCount: outCount})
					return outTerms(node, outCount)
				}
			}
		}
	}

	calleeTerms := b.lower(calleeID)
	calleeEdge := async.Edge{Producer: calleeTerms[0], PassBy: async.Copy}
	inputs := append([]async.Edge{calleeEdge}, argEdges...)
	ref := b.program.Append(async.Inst{Kind: async.KFunctional, OutputCount: outCount})
	node := b.fg.AddNode(async.GNode{Inst: ref, Inputs: inputs, OutputCount: outCount})
	return outTerms(node, outCount)
}

func outTerms(node, n int) []async.Oterm {
	out := make([]async.Oterm, n)
	for i := range out {
		out[i] = async.Oterm{Node: node, Index: i}
	}
	return out
}
