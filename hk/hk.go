// Package hk provides a mechanism for registering cleanup and periodic
// callback functions invoked at specified intervals, rebuilt from the
// teacher's documented hk API (housekeeper_suite_test.go: TestInit,
// DefaultHK.Run, WaitStarted) plus the binary min-heap design of
// original_source/lib/prio_heap/prio_heap.c, using container/heap instead
// of a hand-rolled array heap since Go's standard library already supplies
// the CLRS sift-up/down the C file hand-rolls.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package hk

import (
	"container/heap"
	"sync"
	"time"

	"github.com/efficios/babeltrace2-go/cmn/nlog"
)

// Callback returns the delay until its next invocation; a negative
// duration unregisters it.
type Callback func() time.Duration

type request struct {
	name string
	f    Callback
	due  time.Time
	idx  int
}

type reqHeap []*request

func (h reqHeap) Len() int            { return len(h) }
func (h reqHeap) Less(i, j int) bool  { return h[i].due.Before(h[j].due) }
func (h reqHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].idx = i; h[j].idx = j }
func (h *reqHeap) Push(x any) {
	r := x.(*request)
	r.idx = len(*h)
	*h = append(*h, r)
}
func (h *reqHeap) Pop() any {
	old := *h
	n := len(old)
	r := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return r
}

// HK is a single-goroutine periodic callback scheduler: one dedicated
// goroutine pops the next-due request off a min-heap, sleeps until it is
// due (or a registration wakes it early), and invokes it.
type HK struct {
	mu      sync.Mutex
	h       reqHeap
	byName  map[string]*request
	wake    chan struct{}
	stop    chan struct{}
	started chan struct{}
	once    sync.Once
}

func New() *HK {
	return &HK{
		byName:  map[string]*request{},
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
		started: make(chan struct{}),
	}
}

var DefaultHK = New()

// Reg schedules f to run after delay, and thereafter at the interval its
// own return value specifies.
func (hk *HK) Reg(name string, f Callback, delay time.Duration) {
	hk.mu.Lock()
	if _, exists := hk.byName[name]; exists {
		hk.mu.Unlock()
		nlog.Warningf("hk: duplicate registration %q ignored", name)
		return
	}
	r := &request{name: name, f: f, due: time.Now().Add(delay)}
	hk.byName[name] = r
	heap.Push(&hk.h, r)
	hk.mu.Unlock()
	hk.poke()
}

// Unreg removes a pending callback before it next fires.
func (hk *HK) Unreg(name string) {
	hk.mu.Lock()
	defer hk.mu.Unlock()
	r, ok := hk.byName[name]
	if !ok {
		return
	}
	delete(hk.byName, name)
	heap.Remove(&hk.h, r.idx)
}

func (hk *HK) poke() {
	select {
	case hk.wake <- struct{}{}:
	default:
	}
}

// Run drives the scheduler until Stop is called. Intended to run on its own
// goroutine, matching the teacher's `go hk.DefaultHK.Run()`.
func (hk *HK) Run() {
	hk.once.Do(func() { close(hk.started) })
	for {
		hk.mu.Lock()
		var timer <-chan time.Time
		if len(hk.h) > 0 {
			d := time.Until(hk.h[0].due)
			if d <= 0 {
				d = 0
			}
			timer = time.After(d)
		}
		hk.mu.Unlock()

		if timer == nil {
			select {
			case <-hk.stop:
				return
			case <-hk.wake:
				continue
			}
		}
		select {
		case <-hk.stop:
			return
		case <-hk.wake:
			continue
		case <-timer:
			hk.fireDue()
		}
	}
}

func (hk *HK) fireDue() {
	now := time.Now()
	for {
		hk.mu.Lock()
		if len(hk.h) == 0 || hk.h[0].due.After(now) {
			hk.mu.Unlock()
			return
		}
		r := heap.Pop(&hk.h).(*request)
		delete(hk.byName, r.name)
		hk.mu.Unlock()

		next := r.f()
		if next >= 0 {
			hk.Reg(r.name, r.f, next)
		}
	}
}

func (hk *HK) Stop() { close(hk.stop) }

func (hk *HK) waitStarted() { <-hk.started }

// TestInit resets DefaultHK to a fresh instance, matching the teacher's
// hk.TestInit() bootstrap call.
func TestInit() { DefaultHK = New() }

// WaitStarted blocks until DefaultHK.Run has begun its first iteration.
func WaitStarted() { DefaultHK.waitStarted() }
