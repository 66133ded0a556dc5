package msg

import "github.com/efficios/babeltrace2-go/object"

// Pools holds one object.Pool[Message] per "hot" variant (spec §4.6: "The
// graph owns one pool per hot message variant (Event, PacketBeginning,
// PacketEnd)"). Cold variants (StreamBeginning/End, discarded-*,
// inactivity) are allocated directly since they are rare relative to
// per-event traffic.
type Pools struct {
	event           *object.Pool[Message]
	packetBeginning *object.Pool[Message]
	packetEnd       *object.Pool[Message]
}

func NewPools(capacity int) *Pools {
	newFn := func() *Message { return &Message{} }
	resetFn := func(m *Message) { m.reset() }
	return &Pools{
		event:           object.NewPool(capacity, newFn, resetFn),
		packetBeginning: object.NewPool(capacity, newFn, resetFn),
		packetEnd:       object.NewPool(capacity, newFn, resetFn),
	}
}

func (p *Pools) poolFor(kind Kind) *object.Pool[Message] {
	switch kind {
	case KindEvent:
		return p.event
	case KindPacketBeginning:
		return p.packetBeginning
	case KindPacketEnd:
		return p.packetEnd
	default:
		return nil
	}
}

// Recycle implements the Pool interface Message.Release calls through.
func (p *Pools) Recycle(m *Message) {
	if pool := p.poolFor(m.kind); pool != nil {
		pool.Recycle(m)
		return
	}
	// cold variant: nothing to return, let GC reclaim it
}

func (p *Pools) create(kind Kind) *Message {
	if pool := p.poolFor(kind); pool != nil {
		m := pool.Create()
		m.Init(m)
		m.kind = kind
		m.pool = p
		return m
	}
	m := &Message{kind: kind, pool: p}
	m.Init(m)
	return m
}

// Drain empties every hot pool, e.g. during graph teardown.
func (p *Pools) Drain() {
	p.event.Drain()
	p.packetBeginning.Drain()
	p.packetEnd.Drain()
}
