package env

import (
	"github.com/ooze-lang/ooze/source/ast"
	"github.com/ooze-lang/ooze/source/async"
	"github.com/ooze-lang/ooze/source/errs"
	"github.com/ooze-lang/ooze/source/graph"
	"github.com/ooze-lang/ooze/source/lexer"
	"github.com/ooze-lang/ooze/source/parser"
	"github.com/ooze-lang/ooze/source/sema"
)

// prepare implements the shared first half of run/type_check_expr (spec.md
// §4.5): lex+parse expr as a REPL form, wrap it in a RootFn, and build an
// ephemeral Module combining Env's persistent globals with bindings' names
// so the expression can reference either. It never mutates e.globalDecls
// or e.module: the ephemeral module is thrown away once this call returns.
func (e *Env) prepare(exprSrc string, bindings Bindings) (root ast.ASTID, data *sema.Data, envValues map[ast.ASTID][]async.Any, es errs.Errors) {
	src := e.sources.Add("#expr", exprSrc)
	toks, les := lexer.Lex(src, exprSrc)
	es = append(es, les...)
	if les.HasErrors() {
		return
	}

	exprID, reqs, pes := parser.ParseRepl(e.forest, src, toks)
	es = append(es, pes...)
	if pes.HasErrors() {
		return
	}

	sp := e.forest.SpanOf(exprID)
	root = e.forest.NewRootFn(sp, exprID)

	decls := append([]ast.ASTID{}, e.globalDecls...)
	envValues = map[ast.ASTID][]async.Any{}
	for k, v := range e.envValues {
		envValues[k] = v
	}
	for name, b := range bindings {
		id := e.forest.NewEnvValue(sp, name, b.Type)
		decls = append(decls, id)
		vals := make([]async.Any, len(b.Values))
		for i, av := range b.Values {
			vals[i] = av.Future().Wait()
		}
		envValues[id] = vals
	}
	ephemeralModule := e.forest.NewModule(sp, decls...)

	var ses errs.Errors
	data, ses = sema.Run(e.forest, reqs, e, ephemeralModule, []ast.ASTID{root}, e.copyable)
	es = append(es, ses...)
	return
}

// Run implements `run(executor, env, bindings, expr) -> Result<(binding,
// env, bindings)>` (spec.md §4.5): the result binding is the expression's
// own value when it wasn't an assignment, otherwise the zero Binding (its
// value already lives in the returned Bindings under the assigned name(s)).
func (e *Env) Run(executor async.Executor, bindings Bindings, exprSrc string) (Binding, Bindings, errs.Errors) {
	root, data, envValues, es := e.prepare(exprSrc, bindings)
	if es.HasErrors() {
		return Binding{}, bindings, es
	}

	fg, ges := graph.ConstructRoot(e.forest, data, e.fnRef, envValues, e.program, root, e.copyable)
	if ges.HasErrors() {
		return Binding{}, bindings, ges
	}

	futures := async.Execute(e.program, fg, executor, nil, nil)
	out := bindings.Clone()

	inner := e.forest.RootInner(root)
	if e.forest.TagOf(inner) == ast.Assignment {
		bindAssignmentResult(e.forest, e.forest.AssignPattern(inner), futures, out)
		return Binding{}, out, nil
	}

	values := make([]AsyncValue, len(futures))
	for i, f := range futures {
		values[i] = OwnedValue(f)
	}
	return Binding{Type: e.forest.TypeOf(inner), Values: values}, out, nil
}

// bindAssignmentResult destructures futures (in the assignment expr's
// preorder-leaf order) onto pat's names, mirroring graph.builder.
// bindPattern but writing into the host-visible Bindings map instead of
// graph-internal terminals.
func bindAssignmentResult(forest *ast.Forest, pat ast.ASTID, futures []*async.Future, out Bindings) {
	switch forest.TagOf(pat) {
	case ast.PatternWildCard:
	case ast.PatternIdent:
		name := forest.NameOf(pat)
		values := make([]AsyncValue, len(futures))
		for i, f := range futures {
			values[i] = OwnedValue(f)
		}
		out[name] = Binding{Type: forest.TypeOf(pat), Values: values}
	case ast.PatternTuple:
		i := 0
		for _, c := range forest.ChildrenOf(pat) {
			n := len(forest.Types.PreorderLeaves(forest.TypeOf(c)))
			bindAssignmentResult(forest, c, futures[i:i+n], out)
			i += n
		}
	}
}

// RunToString implements `run_to_string`: the empty string when expr was an
// assignment, otherwise the stringified value (spec.md open question (b),
// resolved per §4.5's own text over the alternate code path the source
// contained).
func (e *Env) RunToString(executor async.Executor, bindings Bindings, exprSrc string, toString func(ast.Type, async.Any) string) (string, Bindings, errs.Errors) {
	root, data, envValues, es := e.prepare(exprSrc, bindings)
	if es.HasErrors() {
		return "", bindings, es
	}
	inner := e.forest.RootInner(root)
	isAssignment := e.forest.TagOf(inner) == ast.Assignment

	fg, ges := graph.ConstructRoot(e.forest, data, e.fnRef, envValues, e.program, root, e.copyable)
	if ges.HasErrors() {
		return "", bindings, ges
	}
	futures := async.Execute(e.program, fg, executor, nil, nil)
	out := bindings.Clone()

	if isAssignment {
		bindAssignmentResult(e.forest, e.forest.AssignPattern(inner), futures, out)
		return "", out, nil
	}

	vals := make([]async.Any, len(futures))
	for i, f := range futures {
		vals[i] = f.Wait()
	}
	t := e.forest.TypeOf(inner)
	var v async.Any = vals
	if len(vals) == 1 {
		v = vals[0]
	}
	return toString(t, v), out, nil
}

// TypeCheckExpr implements `type_check_expr`: run the pipeline up to sema,
// discarding the result, and report its resolved type.
func (e *Env) TypeCheckExpr(exprSrc string, bindings Bindings) (ast.Type, errs.Errors) {
	root, _, _, es := e.prepare(exprSrc, bindings)
	if es.HasErrors() {
		return ast.Invalid, es
	}
	return e.forest.TypeOf(e.forest.RootInner(root)), nil
}

// TypeCheckFn implements `type_check_fn`: parse and sema exactly one `fn`
// declaration against Env's existing globals, without compiling it.
func (e *Env) TypeCheckFn(src string) (ast.Type, errs.Errors) {
	srcID := e.sources.Add("#fn", src)
	toks, les := lexer.Lex(srcID, src)
	if les.HasErrors() {
		return ast.Invalid, les
	}
	fnID, reqs, pes := parser.ParseFunction(e.forest, srcID, toks)
	if pes.HasErrors() {
		return ast.Invalid, pes
	}
	decls := append(append([]ast.ASTID{}, e.globalDecls...), fnID)
	mod := e.forest.NewModule(e.forest.SpanOf(fnID), decls...)
	_, ses := sema.Run(e.forest, reqs, e, mod, nil, e.copyable)
	if ses.HasErrors() {
		return ast.Invalid, ses
	}
	return e.forest.TypeOf(fnID), nil
}

// TypeCheckBinding implements `type_check_binding`: parse and sema a bare
// `pattern = expr`, without compiling it (used to validate a host-supplied
// binding before it is added, e.g. from a config file rather than a REPL).
func (e *Env) TypeCheckBinding(src string, bindings Bindings) (ast.Type, errs.Errors) {
	srcID := e.sources.Add("#binding", src)
	toks, les := lexer.Lex(srcID, src)
	if les.HasErrors() {
		return ast.Invalid, les
	}
	id, reqs, pes := parser.ParseBinding(e.forest, srcID, toks)
	if pes.HasErrors() {
		return ast.Invalid, pes
	}
	root := e.forest.NewRootFn(e.forest.SpanOf(id), id)

	decls := append([]ast.ASTID{}, e.globalDecls...)
	for name, b := range bindings {
		decls = append(decls, e.forest.NewEnvValue(e.forest.SpanOf(id), name, b.Type))
	}
	mod := e.forest.NewModule(e.forest.SpanOf(id), decls...)

	_, ses := sema.Run(e.forest, reqs, e, mod, []ast.ASTID{root}, e.copyable)
	if ses.HasErrors() {
		return ast.Invalid, ses
	}
	return e.forest.TypeOf(e.forest.AssignExpr(id)), nil
}

// ParseType implements `parse_type`: parse a bare type expression and
// resolve any named types against Env's registry.
func (e *Env) ParseType(src string) (ast.Type, errs.Errors) {
	srcID := e.sources.Add("#type", src)
	toks, les := lexer.Lex(srcID, src)
	if les.HasErrors() {
		return ast.Invalid, les
	}
	t, reqs, pes := parser.ParseType(e.forest, srcID, toks)
	if pes.HasErrors() {
		return ast.Invalid, pes
	}
	if ses := sema.ResolveTypeNames(e.forest, reqs, e); ses.HasErrors() {
		return ast.Invalid, ses
	}
	return t, nil
}
