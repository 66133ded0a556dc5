package core

import (
	"github.com/efficios/babeltrace2-go/ir"
	"github.com/efficios/babeltrace2-go/object"
)

// Stream is an instance referencing a StreamClass and a Trace (spec §3).
// Streams are not pooled (unlike Event/Packet/ClockSnapshot): a trace
// typically has few, long-lived streams, so the allocation cost a pool
// would amortize never materializes.
type Stream struct {
	object.Base

	class *ir.StreamClass
	trace *Trace // weak
	id    uint64
}

// NewStream instantiates stream id from sc within trace, freezing sc on
// first use per spec §3 ("Once a StreamClass has any Stream, it is
// frozen").
func NewStream(trace *Trace, sc *ir.StreamClass, id uint64) *Stream {
	sc.MarkHasStream()
	st := &Stream{class: sc, trace: trace, id: id}
	st.Init(st)
	trace.addStream(st)
	return st
}

func (st *Stream) Release() {
	st.trace.removeStream(st)
}

func (st *Stream) StreamClass() *ir.StreamClass { return st.class }
func (st *Stream) Trace() *Trace                { return st.trace }
func (st *Stream) ID() uint64                   { return st.id }
