// Package msg implements the Message discriminated union of spec §3/§4.6:
// StreamBeginning, StreamEnd, PacketBeginning, PacketEnd, Event,
// MessageIteratorInactivity, DiscardedEvents, DiscardedPackets. Messages
// are refcounted via per-graph object pools and carry a weak back-pointer
// to their owning graph, nulled on graph teardown so recycle never
// dereferences a dropped graph - matching the teacher's memsys SGL
// lifecycle (a pooled buffer that must survive its session ending
// gracefully even mid-use) generalized to a tagged union instead of one
// concrete buffer type.
package msg

import (
	"github.com/efficios/babeltrace2-go/core"
	"github.com/efficios/babeltrace2-go/ir"
	"github.com/efficios/babeltrace2-go/object"
)

type Kind int

const (
	KindStreamBeginning Kind = iota
	KindStreamEnd
	KindPacketBeginning
	KindPacketEnd
	KindEvent
	KindIteratorInactivity
	KindDiscardedEvents
	KindDiscardedPackets
)

func (k Kind) String() string {
	switch k {
	case KindStreamBeginning:
		return "stream-beginning"
	case KindStreamEnd:
		return "stream-end"
	case KindPacketBeginning:
		return "packet-beginning"
	case KindPacketEnd:
		return "packet-end"
	case KindEvent:
		return "event"
	case KindIteratorInactivity:
		return "message-iterator-inactivity"
	case KindDiscardedEvents:
		return "discarded-events"
	case KindDiscardedPackets:
		return "discarded-packets"
	default:
		return "?"
	}
}

// Pool is the subset of *Pools behavior a Message needs for recycling;
// *Pools implements it.
type Pool interface {
	Recycle(m *Message)
}

// Message is the tagged union of spec §3 "Message". Exactly one payload
// field is meaningful per Kind.
type Message struct {
	object.Base

	kind Kind
	pool Pool // weak back-pointer to owning graph's pool set; nulled on teardown

	stream *core.Stream
	packet *core.Packet
	event  *core.Event

	defaultCS *core.ClockSnapshot
	hasCS     bool

	clockClass *ir.ClockClass // MessageIteratorInactivity only

	discardCount uint64
	beginCS      *core.ClockSnapshot
	endCS        *core.ClockSnapshot
	hasBeginCS   bool
	hasEndCS     bool
}

func (m *Message) Kind() Kind { return m.kind }

func (m *Message) Stream() *core.Stream { return m.stream }
func (m *Message) Packet() *core.Packet { return m.packet }
func (m *Message) Event() *core.Event   { return m.event }

func (m *Message) DefaultClockSnapshot() (*core.ClockSnapshot, bool) { return m.defaultCS, m.hasCS }

func (m *Message) ClockClass() *ir.ClockClass { return m.clockClass }

func (m *Message) DiscardedCount() uint64 { return m.discardCount }
func (m *Message) BeginClockSnapshot() (*core.ClockSnapshot, bool) {
	return m.beginCS, m.hasBeginCS
}
func (m *Message) EndClockSnapshot() (*core.ClockSnapshot, bool) { return m.endCS, m.hasEndCS }

// Release is invoked by object.Base.Put at refcount zero. If the owning
// graph has already torn down (pool == nil), the message is simply
// dropped - this is the "silently bypasses pool return" rule of spec §3.
func (m *Message) Release() {
	if m.pool == nil {
		return
	}
	m.pool.Recycle(m)
}

// DetachGraph nulls the back-pointer to the owning pool; called once per
// outstanding message when the graph is destroyed (spec §3/§4.6).
func (m *Message) DetachGraph() { m.pool = nil }

// Freeze freezes the message and the instance tree it carries (spec §4.6:
// "Freezing a message freezes the contained instance tree").
func (m *Message) Freeze() {
	m.Base.Freeze()
	if pk := m.packet; pk != nil {
		pk.Freeze()
	}
	if pk := m.packet; pk != nil && pk.Context() != nil {
		freezeFieldTree(pk.Context())
	}
	if ev := m.event; ev != nil {
		ev.Freeze()
		for _, f := range []*core.Field{ev.Header(), ev.CommonContext(), ev.SpecificContext(), ev.Payload()} {
			if f != nil {
				freezeFieldTree(f)
			}
		}
	}
}

// freezeFieldTree is a no-op placeholder invariant check in non-debug
// builds; Field instances do not carry their own frozen bit (spec §3:
// mutation is gated by the owning message's frozen state, checked at each
// Field setter call site upstream of msg, not here), so freezing a message
// is the single source of truth and nothing further needs to mutate on
// this path today.
func freezeFieldTree(*core.Field) {}

// reset clears every field for pool recycling.
func (m *Message) reset() {
	m.kind = 0
	m.pool = nil
	m.stream, m.packet, m.event = nil, nil, nil
	m.defaultCS, m.hasCS = nil, false
	m.clockClass = nil
	m.discardCount = 0
	m.beginCS, m.hasBeginCS = nil, false
	m.endCS, m.hasEndCS = nil, false
}
