package env

import (
	"testing"

	"github.com/ooze-lang/ooze/source/async"
)

func TestBindingsCloneIsIndependent(t *testing.T) {
	_, f := async.NewPromise()
	b := Bindings{"x": {Values: []AsyncValue{OwnedValue(f)}}}
	clone := b.Clone()
	clone["y"] = Binding{}
	if _, ok := b["y"]; ok {
		t.Errorf("mutating clone leaked back into original")
	}
	if _, ok := clone["x"]; !ok {
		t.Errorf("clone missing original entry")
	}
}

func TestOwnedValueFutureIsTheOwnedFuture(t *testing.T) {
	p, f := async.NewPromise()
	v := OwnedValue(f)
	p.Resolve(7)
	if v.Future().Wait() != 7 {
		t.Errorf("Future().Wait() = %v, want 7", v.Future().Wait())
	}
}

func TestBorrowedValueFutureIsPostFuture(t *testing.T) {
	p, f := async.NewPromise()
	p.Resolve("hello")
	b, post := async.Borrow(f)
	v := BorrowedValue(b, post)
	if v.Future() != post {
		t.Errorf("expected Future() to be the post-future for a borrowed binding")
	}
	b.Release()
	if v.Future().Wait() != "hello" {
		t.Errorf("post.Wait() = %v, want hello", v.Future().Wait())
	}
}

func TestAsyncValueBorrowFromOwned(t *testing.T) {
	p, f := async.NewPromise()
	p.Resolve(3)
	v := OwnedValue(f)
	b1 := v.Borrow()
	b2 := v.Borrow()
	if b1.Wait() != 3 || b2.Wait() != 3 {
		t.Errorf("borrowed reads = %v, %v, want 3, 3", b1.Wait(), b2.Wait())
	}
	b1.Release()
	b2.Release()
}
