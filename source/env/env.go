package env

import (
	"github.com/ooze-lang/ooze/source/ast"
	"github.com/ooze-lang/ooze/source/async"
	"github.com/ooze-lang/ooze/source/errs"
	"github.com/ooze-lang/ooze/source/graph"
	"github.com/ooze-lang/ooze/source/lexer"
	"github.com/ooze-lang/ooze/source/parser"
	"github.com/ooze-lang/ooze/source/sema"
	"github.com/ooze-lang/ooze/source/span"
)

// Env is the compiled, monotonically-growing unit the façade operates on
// (spec.md §4.5 "Lifecycle": "built once from a NativeRegistry, mutated
// monotonically by parse_scripts ..., and consumed by run"). It owns one
// Forest (so one TypeGraph: every script and binding's types are
// hash-consed together) and one Program (so every fn's InstRef is stable
// for the Env's lifetime).
type Env struct {
	forest    *ast.Forest
	sources   *span.Map
	program   *async.Program
	typeNames map[string]ast.TypeID
	copyable  map[ast.TypeID]bool
	envValues map[ast.ASTID][]async.Any

	module      ast.ASTID   // current Module wrapping every global decl so far
	globalDecls []ast.ASTID // Fn/EnvValue children of module, in registration order
	fnRef       map[ast.ASTID]async.InstRef

	generics []ast.ASTID // sema.Data.GenericRoots accumulated across parse_scripts calls
}

// New builds an Env from a NativeRegistry (spec.md §4.5 "Env::new
// (registry)"): every native function becomes an EnvValue global (so it
// competes in overload resolution exactly like a user fn of the same name
// would) backed by a KFn Program instruction.
func New(registry *NativeRegistry) *Env {
	e := &Env{
		forest:    ast.NewForest(),
		sources:   span.NewMap(),
		program:   async.NewProgram(),
		typeNames: map[string]ast.TypeID{},
		copyable:  map[ast.TypeID]bool{},
		envValues: map[ast.ASTID][]async.Any{},
		fnRef:     map[ast.ASTID]async.InstRef{},
	}

	// The reserved types (bool, i8..u64, f32/f64, string, ...) resolve by
	// their own names alongside whatever the registry adds.
	for id := ast.TyBool; id < ast.FirstUserTypeID; id++ {
		e.typeNames[e.forest.Types.String(e.forest.Types.MakeLeaf(id))] = id
	}
	for _, t := range registry.Types {
		e.typeNames[t.Name] = t.ID
		if t.Copyable {
			e.copyable[t.ID] = true
		}
	}

	builtins := span.Ref{Src: span.Builtins}
	for _, f := range registry.Funcs {
		inT := f.In(e.forest.Types)
		if e.forest.Types.KindOf(inT) != ast.Tuple {
			// A single input may be registered bare; a call always passes
			// its arguments as a tuple.
			inT = e.forest.Types.MakeTuple([]ast.Type{inT})
		}
		outT := f.Out(e.forest.Types)
		fnType := e.forest.Types.MakeFn(inT, outT)
		id := e.forest.NewEnvValue(builtins, f.Name, fnType)

		outCount := len(e.forest.Types.PreorderLeaves(outT))
		ref := e.program.Append(async.Inst{Kind: async.KFn, NativeFn: f.Fn, Borrows: f.Borrows, OutputCount: outCount})
		e.envValues[id] = []async.Any{&async.AsyncFn{Program: e.program, Inst: ref}}

		e.globalDecls = append(e.globalDecls, id)
	}
	e.module = e.forest.NewModule(builtins, e.globalDecls...)
	return e
}

// Lookup implements sema.TypeNamer.
func (e *Env) Lookup(name string) (ast.TypeID, bool) {
	id, ok := e.typeNames[name]
	return id, ok
}

// rebuildModule wraps the accumulated globalDecls in a fresh Module node:
// Forest nodes are append-only, so growing the global set reparents the
// existing decls under a new Module rather than mutating the old one in
// place (see graph.BuildProgram's doc comment for why this is safe).
func (e *Env) rebuildModule() {
	e.module = e.forest.NewModule(span.Ref{Src: span.Builtins}, e.globalDecls...)
}

// ParseScripts implements `parse_scripts(env, files[]) -> Result<(), env>`
// (spec.md §4.5): parse each file, run sema against the Env's existing
// globals plus this file's, and emit/compile every newly concrete fn.
// Generic fns are kept in source form (sema.Data.GenericRoots) for later
// per-call-site instantiation (spec.md §9).
func (e *Env) ParseScripts(files map[string]string) errs.Errors {
	var all errs.Errors
	for name, text := range files {
		src := e.sources.Add(name, text)
		toks, les := lexer.Lex(src, text)
		all = append(all, les...)
		if les.HasErrors() {
			continue
		}

		mod, reqs, pes := parser.Parse(e.forest, src, toks)
		all = append(all, pes...)
		if pes.HasErrors() {
			continue
		}

		e.globalDecls = append(e.globalDecls, e.forest.ChildrenOf(mod)...)
		e.rebuildModule()

		data, ses := sema.Run(e.forest, reqs, e, e.module, nil, e.copyable)
		all = append(all, ses...)
		if ses.HasErrors() {
			continue
		}

		e.generics = append(e.generics, data.GenericRoots...)
		ges := graph.BuildProgram(e.forest, data, e.program, e.envValues, e.fnRef, e.copyable)
		all = append(all, ges...)
	}
	return all
}

// PrettyPrint implements `pretty_print(type)`.
func (e *Env) PrettyPrint(t ast.Type) string { return e.forest.Types.String(t) }

// Globals implements `globals()`: every name currently bound at top level,
// whether a user fn, a generic template, or a native function.
func (e *Env) Globals() []string {
	seen := map[string]bool{}
	var names []string
	for _, decl := range e.globalDecls {
		var name string
		switch e.forest.TagOf(decl) {
		case ast.Fn:
			name = e.forest.NameOf(e.forest.FnName(decl))
		case ast.EnvValue:
			name = e.forest.NameOf(decl)
		}
		if name != "" && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}
