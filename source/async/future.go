// Package async implements Ooze's runtime (spec.md §4.4): Future/Promise/
// BorrowedFuture primitives, a pluggable Executor, and the Program/Inst
// instruction set that a FunctionGraph is compiled into and execute() drives.
package async

import "sync"

// Any is a type-erased runtime value: a native Go value, an *AsyncFn, a
// tuple ([]Any), or whatever a NativeRegistry's types box up.
type Any = any

// Future is a single-producer/single-consumer cell: exactly one Resolve
// call fulfills it, and any number of Wait/Then calls observe the result.
// This mirrors the teacher's channel-based GoFn result handling
// (source/compiler/vm.go's external call handlers) generalized from "one
// goroutine per native call" to "one per dataflow node".
type Future struct {
	mu       sync.Mutex
	done     chan struct{}
	val      Any
	resolved bool
}

func NewFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// Promise is the write end of a Future. Splitting Future/Promise (rather
// than letting any holder of the Future resolve it) keeps "who may write"
// statically distinct from "who may read", matching spec.md §4.4's
// single-producer rule.
type Promise struct {
	f *Future
}

func NewPromise() (*Promise, *Future) {
	f := NewFuture()
	return &Promise{f: f}, f
}

func (p *Promise) Resolve(v Any) {
	p.f.mu.Lock()
	defer p.f.mu.Unlock()
	if p.f.resolved {
		panic("async: future resolved twice")
	}
	p.f.val = v
	p.f.resolved = true
	close(p.f.done)
}

// Wait blocks until the future is resolved and returns its value.
func (f *Future) Wait() Any {
	<-f.done
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.val
}

// Then schedules cont to run on a new goroutine once f resolves, and
// returns a Future for cont's result.
func (f *Future) Then(cont func(Any) Any) *Future {
	out := NewFuture()
	go func() {
		v := f.Wait()
		p := &Promise{f: out}
		p.Resolve(cont(v))
	}()
	return out
}

// BorrowedFuture is a ref-counted read handle produced by Borrow: any
// number of holders may read the same value without moving it, and the
// owner gets it back (via post) once every holder has released it
// (spec.md §4.4, §5 "shared resource policy").
type BorrowedFuture struct {
	shared *borrowShared
}

type borrowShared struct {
	mu      sync.Mutex
	f       *Future
	val     Any
	ready   bool
	readyCh chan struct{}
	count   int
	post    *Promise
}

// Borrow returns a BorrowedFuture reading f's eventual value, plus a "post"
// Future that resolves once every clone (see Clone/Release) has been
// released, carrying the value back to the owner.
func Borrow(f *Future) (*BorrowedFuture, *Future) {
	promise, post := NewPromise()
	shared := &borrowShared{f: f, readyCh: make(chan struct{}), count: 1, post: promise}
	go func() {
		v := f.Wait()
		shared.mu.Lock()
		shared.val, shared.ready = v, true
		shared.mu.Unlock()
		close(shared.readyCh)
	}()
	return &BorrowedFuture{shared: shared}, post
}

// Clone adds a borrower; each Clone must be balanced by a Release.
func (b *BorrowedFuture) Clone() *BorrowedFuture {
	b.shared.mu.Lock()
	b.shared.count++
	b.shared.mu.Unlock()
	return &BorrowedFuture{shared: b.shared}
}

// Release drops one borrower; once the count reaches zero the owner's post
// future resolves with the value.
func (b *BorrowedFuture) Release() {
	b.shared.mu.Lock()
	b.shared.count--
	done := b.shared.count == 0
	b.shared.mu.Unlock()
	if done {
		b.shared.post.Resolve(b.Wait())
	}
}

// Wait blocks until the underlying value is available and returns it,
// without consuming the borrow (the caller must still Release).
func (b *BorrowedFuture) Wait() Any {
	<-b.shared.readyCh
	b.shared.mu.Lock()
	defer b.shared.mu.Unlock()
	return b.shared.val
}

// CloneAny reads a BorrowedFuture by value (PassBy::Copy at a borrow site:
// spec.md §4.4 step 2, "read the BorrowedFuture by .then(clone_any)"). Ooze
// values eligible for PassBy::Copy are the fixed-width scalars and function
// values, both safe to duplicate with a plain Go assignment.
func CloneAny(v Any) Any { return v }
