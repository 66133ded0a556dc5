package core

import (
	"github.com/efficios/babeltrace2-go/cmn/cos"
	"github.com/efficios/babeltrace2-go/ir"
	"github.com/efficios/babeltrace2-go/object"
)

// TraceListener is notified when a Trace becomes static (spec §3 "Trace ...
// listeners").
type TraceListener interface {
	TraceBecameStatic(t *Trace)
}

// Trace is an instance owning a TraceClass and a set of Streams (spec §3
// "Trace"). Becoming static freezes the class and disables further stream
// creation.
type Trace struct {
	object.Base

	class    *ir.TraceClass
	streams  map[uint64]*Stream
	isStatic bool

	listeners []TraceListener
}

func NewTrace(tc *ir.TraceClass) *Trace {
	t := &Trace{class: tc, streams: map[uint64]*Stream{}}
	t.Init(t)
	return t
}

func (t *Trace) Release() {
	// Nothing strong-owned beyond the class reference the caller manages
	// separately; streams are weakly referenced from here (the caller that
	// created them owns the strong reference).
}

func (t *Trace) TraceClass() *ir.TraceClass { return t.class }
func (t *Trace) IsStatic() bool             { return t.isStatic }

func (t *Trace) addStream(st *Stream) { t.streams[st.ID()] = st }

func (t *Trace) removeStream(st *Stream) { delete(t.streams, st.ID()) }

func (t *Trace) Streams() []*Stream {
	out := make([]*Stream, 0, len(t.streams))
	for _, st := range t.streams {
		out = append(out, st)
	}
	return out
}

func (t *Trace) AddListener(l TraceListener) { t.listeners = append(t.listeners, l) }

// MakeStatic freezes t's TraceClass and disables further Stream creation
// from it (spec §3 "Becoming static freezes the class and disables further
// stream creation").
func (t *Trace) MakeStatic() error {
	if t.isStatic {
		return nil
	}
	t.isStatic = true
	t.class.Freeze()
	for _, l := range t.listeners {
		l.TraceBecameStatic(t)
	}
	return nil
}

func (t *Trace) CreateStream(sc *ir.StreamClass, id uint64) (*Stream, error) {
	if t.isStatic {
		return nil, cos.NewStatus(cos.KUnsupported, "core.Trace", "trace is static: no further streams may be created", nil)
	}
	return NewStream(t, sc, id), nil
}
