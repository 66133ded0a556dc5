// Package query implements the out-of-band synchronous query executor of
// spec §4.9: a component class answers a named object query given
// parameters, independent of the graph's pull scheduling.
package query

import (
	"sync/atomic"
	"time"

	"github.com/efficios/babeltrace2-go/bval"
	"github.com/efficios/babeltrace2-go/cmn/cos"
)

// Class is implemented by a component class that answers queries. A class
// not implementing Class always resolves to UnknownObject.
type Class interface {
	Query(executor *Executor, object string, params *bval.Value) (*bval.Value, error)
}

// Executor runs one query against one class, carrying the cancel flag
// checked before and after the method runs (spec §4.9 "the cancel flag is
// checked both before dispatch and after the method returns").
type Executor struct {
	canceled atomic.Bool

	statsObserver DurationObserver
}

// DurationObserver receives one Run wall-clock sample; stats.Tracker
// satisfies this without query importing the stats package back.
type DurationObserver interface {
	ObserveQueryDuration(time.Duration)
}

func New() *Executor { return &Executor{} }

// SetStatsObserver attaches o so every Run call reports its wall time to it.
func (e *Executor) SetStatsObserver(o DurationObserver) { e.statsObserver = o }

// Cancel is safe to call from any goroutine while Run is in flight.
func (e *Executor) Cancel() { e.canceled.Store(true) }

func (e *Executor) IsCanceled() bool { return e.canceled.Load() }

// Run dispatches object/params to class, implementing spec §4.9's
// synchronous (class, object-name, parameters) -> (Value, status) contract.
func (e *Executor) Run(class any, object string, params *bval.Value) (*bval.Value, cos.Kind, error) {
	start := time.Now()
	if e.statsObserver != nil {
		defer func() { e.statsObserver.ObserveQueryDuration(time.Since(start)) }()
	}

	if e.canceled.Load() {
		return nil, cos.KCanceled, nil
	}
	qc, ok := class.(Class)
	if !ok {
		return nil, cos.KUnknownObject, nil
	}
	if params == nil {
		params = bval.NewMap()
	}

	val, err := qc.Query(e, object, params)

	if e.canceled.Load() {
		return nil, cos.KCanceled, nil
	}
	if err != nil {
		return nil, cos.KindOf(err), err
	}
	return val, cos.KOk, nil
}
