package core

import (
	"sync"

	"github.com/efficios/babeltrace2-go/btcfg"
	"github.com/efficios/babeltrace2-go/ir"
	"github.com/efficios/babeltrace2-go/object"
)

// Event is an instance of an EventClass (spec §3 "Stream, Packet, Event").
// Pooled per owning StreamClass, per spec §4.2 ("Owns an object pool of
// Events") - see DESIGN.md for why the pool lives here instead of on
// ir.StreamClass.
type Event struct {
	object.Base

	class   *ir.EventClass // weak
	packet  *Packet        // weak, set while attached to a message
	header  *Field
	common  *Field
	specCtx *Field
	payload *Field
}

var (
	eventPoolsMu sync.Mutex
	eventPools   = map[*ir.StreamClass]*object.Pool[Event]{}
)

func eventPoolFor(sc *ir.StreamClass) *object.Pool[Event] {
	eventPoolsMu.Lock()
	defer eventPoolsMu.Unlock()
	p, ok := eventPools[sc]
	if !ok {
		p = object.NewPool(btcfg.Default.PoolCapacity,
			func() *Event { return &Event{} },
			func(ev *Event) {
				ev.class, ev.packet = nil, nil
				ev.header, ev.common, ev.specCtx, ev.payload = nil, nil, nil, nil
			})
		eventPools[sc] = p
	}
	return p
}

// DropEventPool drains and forgets sc's Event pool; callers must do this
// before the owning StreamClass's last reference is released.
func DropEventPool(sc *ir.StreamClass) {
	eventPoolsMu.Lock()
	defer eventPoolsMu.Unlock()
	if p, ok := eventPools[sc]; ok {
		p.Drain()
		delete(eventPools, sc)
	}
}

// NewEvent creates (from ec's owning StreamClass's pool) an Event of class
// ec, allocating its header/common-context/specific-context/payload Fields
// from ec's (validated, frozen) field classes.
func NewEvent(ec *ir.EventClass) *Event {
	sc := ec.StreamClass()
	ev := eventPoolFor(sc).Create()
	ev.Init(ev)
	ev.class = ec
	if sc.EventHeaderFC != nil {
		ev.header = NewField(sc.EventHeaderFC)
	}
	if sc.EventCommonContextFC != nil {
		ev.common = NewField(sc.EventCommonContextFC)
	}
	if ec.SpecificCtx != nil {
		ev.specCtx = NewField(ec.SpecificCtx)
	}
	if ec.Payload != nil {
		ev.payload = NewField(ec.Payload)
	}
	return ev
}

func (ev *Event) Release() {
	sc := ev.class.StreamClass()
	eventPoolFor(sc).Recycle(ev)
}

func (ev *Event) EventClass() *ir.EventClass { return ev.class }
func (ev *Event) Packet() *Packet            { return ev.packet }
func (ev *Event) Header() *Field             { return ev.header }
func (ev *Event) CommonContext() *Field      { return ev.common }
func (ev *Event) SpecificContext() *Field    { return ev.specCtx }
func (ev *Event) Payload() *Field            { return ev.payload }

// AttachToPacket records the Packet an Event was produced under, so a
// consumer reading msg.Event can reach its Stream/Trace via Event.Packet().
func (ev *Event) AttachToPacket(p *Packet) { ev.packet = p }
