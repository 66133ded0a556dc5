package core

import (
	"sync"

	"github.com/efficios/babeltrace2-go/btcfg"
	"github.com/efficios/babeltrace2-go/ir"
	"github.com/efficios/babeltrace2-go/object"
)

// ClockSnapshot is a (ClockClass, value-in-cycles) pair with precomputed
// ns-from-origin and overflow flag for O(1) reads (spec §3). Refcounted via
// a per-class object pool (spec §4.2), the pool keyed by ClockClass
// identity in a package-level registry to avoid putting a typed
// object.Pool[ClockSnapshot] field on ir.ClockClass (same import-cycle
// concern documented for StreamClass's Event pool in DESIGN.md).
type ClockSnapshot struct {
	object.Base

	class           *ir.ClockClass // weak
	valueCycles     uint64
	nanosFromOrigin int64
	baseOverflows   bool
	overflow        bool
}

var (
	csPoolsMu sync.Mutex
	csPools   = map[*ir.ClockClass]*object.Pool[ClockSnapshot]{}
)

func csPoolFor(cc *ir.ClockClass) *object.Pool[ClockSnapshot] {
	csPoolsMu.Lock()
	defer csPoolsMu.Unlock()
	p, ok := csPools[cc]
	if !ok {
		p = object.NewPool(btcfg.Default.PoolCapacity,
			func() *ClockSnapshot { return &ClockSnapshot{} },
			func(cs *ClockSnapshot) { cs.class = nil })
		csPools[cc] = p
	}
	return p
}

// DropClockSnapshotPool drains and forgets cc's pool; the caller must do
// this before the last reference to cc is released (spec §4.2's pool-
// emptying requirement).
func DropClockSnapshotPool(cc *ir.ClockClass) {
	csPoolsMu.Lock()
	defer csPoolsMu.Unlock()
	if p, ok := csPools[cc]; ok {
		p.Drain()
		delete(csPools, cc)
	}
}

// NewClockSnapshot creates (from cc's pool) a snapshot of valueCycles,
// eagerly computing ns-from-origin per spec §4.11.
func NewClockSnapshot(cc *ir.ClockClass, valueCycles uint64) (*ClockSnapshot, error) {
	res, err := cc.Convert(valueCycles)
	cs := csPoolFor(cc).Create()
	cs.Init(cs)
	cs.class = cc
	cs.valueCycles = valueCycles
	cs.nanosFromOrigin = res.NanosFromOrigin
	cs.baseOverflows = res.BaseOverflows
	cs.overflow = res.Overflow || err != nil
	return cs, err
}

func (cs *ClockSnapshot) Release() {
	cc := cs.class
	if cc == nil {
		return
	}
	csPoolFor(cc).Recycle(cs)
}

func (cs *ClockSnapshot) ClockClass() *ir.ClockClass { return cs.class }
func (cs *ClockSnapshot) ValueCycles() uint64         { return cs.valueCycles }
func (cs *ClockSnapshot) NanosFromOrigin() (int64, bool) {
	return cs.nanosFromOrigin, !cs.overflow
}
func (cs *ClockSnapshot) BaseOverflows() bool { return cs.baseOverflows }
