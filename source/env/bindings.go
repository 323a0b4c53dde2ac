package env

import (
	"github.com/ooze-lang/ooze/source/ast"
	"github.com/ooze-lang/ooze/source/async"
)

// AsyncValue is a small state machine over one live runtime value (spec.md
// §4.4/§57): either a uniquely-owned Future (Owned) or a borrowed view plus
// the post-future that returns the value once every borrower releases
// (Borrowed). Bindings store AsyncValues rather than plain Any so that a
// value moved out of one REPL binding by a later expression is statically
// a different binding state than one merely read.
type AsyncValue struct {
	owned    *async.Future
	borrowed *async.BorrowedFuture
	post     *async.Future
}

func OwnedValue(f *async.Future) AsyncValue { return AsyncValue{owned: f} }

func BorrowedValue(b *async.BorrowedFuture, post *async.Future) AsyncValue {
	return AsyncValue{borrowed: b, post: post}
}

// Future returns the Future a Move/Copy consumer should read: the owned
// future directly, or (for a still-borrowed binding) the post-future that
// resolves once all outstanding borrowers have released it.
func (v AsyncValue) Future() *async.Future {
	if v.owned != nil {
		return v.owned
	}
	return v.post
}

// Borrow hands out one more reader of this binding without disturbing its
// AsyncValue's own state: clones the existing BorrowedFuture of a borrowed
// value, or, for an owned value, creates a fresh one on every call (its
// post-future is discarded, and nothing is recorded on v).
func (v AsyncValue) Borrow() *async.BorrowedFuture {
	if v.borrowed != nil {
		return v.borrowed.Clone()
	}
	b, _ := async.Borrow(v.owned)
	return b
}

// Binding is one named REPL-visible value (spec.md §4.5 "Binding{type,
// values: [AsyncValue]}"): Values holds one AsyncValue per preorder leaf of
// Type, mirroring how graph construction flattens a pattern's bound name
// into one-terminal-per-leaf.
type Binding struct {
	Type   ast.Type
	Values []AsyncValue
}

// Bindings is the REPL's persistent name -> value environment, threaded
// through run() by value (spec.md §5: "Bindings likewise" are taken by
// move and returned), never shared mutably between concurrent run calls.
type Bindings map[string]Binding

func (b Bindings) Clone() Bindings {
	out := make(Bindings, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}
