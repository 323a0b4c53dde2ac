package async

// Execute runs graph to completion on executor, given the values for its
// input terminals (params, spec.md §4.4 "Execution"), and returns one
// Future per exit terminal. The borrowed argument is not read: no input
// terminal is fed from a BorrowedFuture.
//
// Dependency-driven scheduling falls out of Go's own scheduler: each node
// gets its own goroutine, which blocks in gatherInputs until every
// producing future it reads has resolved and only then hands the node's
// work to executor. There is no separate topological sort -- those waits
// ARE the topological order.
func Execute(program *Program, graph *FunctionGraph, executor Executor, params []Any, borrowed []*BorrowedFuture) []*Future {
	outputs := make([][]*Future, len(graph.Nodes))

	paramFutures := make([]*Future, len(params))
	for i, v := range params {
		p, f := NewPromise()
		p.Resolve(v)
		paramFutures[i] = f
	}

	// Node goroutines may reference a later node's outputs; ready closes
	// once every node's output futures are in place.
	ready := make(chan struct{})
	resolve := func(e Edge) *Future {
		<-ready
		if e.Producer.Node == -1 {
			return paramFutures[e.Producer.Index]
		}
		return outputs[e.Producer.Node][e.Producer.Index]
	}

	for i, node := range graph.Nodes {
		outputs[i] = runNode(program, node, executor, resolve)
	}
	close(ready)

	exits := make([]*Future, len(graph.Exits))
	for i, e := range graph.Exits {
		exits[i] = resolve(e)
	}
	return exits
}

// runNode schedules one GNode's instruction once all of its inputs are
// ready, returning one Future per output terminal immediately (they
// resolve asynchronously once the node actually runs).
func runNode(program *Program, node GNode, executor Executor, resolve func(Edge) *Future) []*Future {
	inst := program.At(node.Inst)

	promises := make([]*Promise, node.OutputCount)
	futures := make([]*Future, node.OutputCount)
	for i := range promises {
		promises[i], futures[i] = NewPromise()
	}

	go func() {
		args := gatherInputs(node, resolve)
		executor.Schedule(func() {
			results := invoke(program, inst, args, executor)
			for i, p := range promises {
				if i < len(results) {
					p.Resolve(results[i])
				} else {
					p.Resolve(nil)
				}
			}
		})
	}()

	return futures
}

// gatherInputs blocks (on this node's private goroutine, not the executor)
// until every input future/borrow is ready, honoring PassBy at each edge
// (spec.md §4.4 step 2).
func gatherInputs(node GNode, resolve func(Edge) *Future) []Any {
	args := make([]Any, len(node.Inputs))
	for i, e := range node.Inputs {
		f := resolve(e)
		switch e.PassBy {
		case PassBorrow:
			bf, _ := Borrow(f)
			args[i] = bf
		case Copy:
			bf, post := Borrow(f)
			v := bf.Wait()
			bf.Release()
			post.Wait()
			args[i] = CloneAny(v)
		default: // Move
			args[i] = f.Wait()
		}
	}
	return args
}

// invoke dispatches one Inst against already-gathered args, recursing into
// nested graphs/functional calls/select/if/converge as needed (spec.md
// §4.4: steps 3-5).
func invoke(program *Program, inst *Inst, args []Any, executor Executor) []Any {
	switch inst.Kind {
	case KValue:
		return []Any{inst.Value}

	case KFn:
		return inst.NativeFn(args)

	case KGraph:
		futures := Execute(program, inst.Graph, executor, args, nil)
		out := make([]Any, len(futures))
		for i, f := range futures {
			out[i] = f.Wait()
		}
		return out

	case KCurry:
		full := append(append([]Any{}, inst.Fixed...), args...)
		return invoke(program, program.At(inst.Base), full, executor)

	case KFunctional:
		fn, ok := args[0].(*AsyncFn)
		if !ok {
			panic("async: functional call on non-function value")
		}
		full := append(append([]Any{}, fn.Curried...), args[1:]...)
		return invoke(program, fn.Program.At(fn.Inst), full, executor)

	case KSelect:
		cond := args[0].(bool)
		arity := (len(args) - 1) / 2
		if cond {
			return args[1 : 1+arity]
		}
		return args[1+arity:]

	case KIf:
		cond := args[0].(bool)
		var chosen *Inst
		if cond {
			chosen = program.At(inst.Then)
		} else {
			chosen = program.At(inst.Else)
		}
		return invoke(program, chosen, args[1:], executor)

	case KConverge:
		state := args
		for {
			out := invoke(program, program.At(inst.Body), state, executor)
			done := out[0].(bool)
			state = out[1:]
			if done {
				return state
			}
		}

	case KPlaceholder:
		panic("async: unresolved placeholder instruction")
	}
	panic("async: unreachable inst kind")
}
