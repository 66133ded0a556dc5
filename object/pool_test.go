package object_test

import (
	"testing"

	"github.com/efficios/babeltrace2-go/object"
)

type widget struct{ n int }

func TestPoolCreateRecycle(t *testing.T) {
	var allocs int
	p := object.NewPool(2,
		func() *widget { allocs++; return &widget{} },
		func(w *widget) { w.n = 0 })

	a := p.Create()
	a.n = 7
	p.Recycle(a)
	if hits, misses := p.Stats(); misses != 1 || hits != 0 {
		t.Fatalf("want 1 miss 0 hits, got hits=%d misses=%d", hits, misses)
	}

	b := p.Create()
	if b.n != 0 {
		t.Fatalf("recycled object must be reset, got n=%d", b.n)
	}
	if allocs != 1 {
		t.Fatalf("want exactly 1 allocation, got %d", allocs)
	}
}

func TestPoolCapacityDestroysOverflow(t *testing.T) {
	p := object.NewPool(1, func() *widget { return &widget{} }, func(*widget) {})
	a, b := p.Create(), p.Create()
	p.Recycle(a)
	p.Recycle(b) // pool already has 1 (capacity), b is dropped
	if n := p.Len(); n != 1 {
		t.Fatalf("want pool len 1 (capacity), got %d", n)
	}
}

func TestBaseRefcount(t *testing.T) {
	released := false
	rel := releaseFunc(func() { released = true })
	var base object.Base
	base.Init(rel)
	base.Get()
	base.Put()
	if released {
		t.Fatal("released too early")
	}
	base.Put()
	if !released {
		t.Fatal("expected release at refcount 0")
	}
}

type releaseFunc func()

func (f releaseFunc) Release() { f() }
