package msg

import (
	"github.com/efficios/babeltrace2-go/core"
	"github.com/efficios/babeltrace2-go/ir"
)

func NewStreamBeginning(p *Pools, st *core.Stream, cs *core.ClockSnapshot) *Message {
	m := p.create(KindStreamBeginning)
	m.stream = st
	m.defaultCS, m.hasCS = cs, cs != nil
	return m
}

func NewStreamEnd(p *Pools, st *core.Stream, cs *core.ClockSnapshot) *Message {
	m := p.create(KindStreamEnd)
	m.stream = st
	m.defaultCS, m.hasCS = cs, cs != nil
	return m
}

func NewPacketBeginning(p *Pools, pk *core.Packet, cs *core.ClockSnapshot) *Message {
	m := p.create(KindPacketBeginning)
	m.packet = pk
	m.defaultCS, m.hasCS = cs, cs != nil
	return m
}

func NewPacketEnd(p *Pools, pk *core.Packet, cs *core.ClockSnapshot) *Message {
	m := p.create(KindPacketEnd)
	m.packet = pk
	m.defaultCS, m.hasCS = cs, cs != nil
	return m
}

func NewEvent(p *Pools, ev *core.Event, cs *core.ClockSnapshot) *Message {
	m := p.create(KindEvent)
	m.event = ev
	m.defaultCS, m.hasCS = cs, cs != nil
	return m
}

func NewIteratorInactivity(p *Pools, cc *ir.ClockClass, cs *core.ClockSnapshot) *Message {
	m := p.create(KindIteratorInactivity)
	m.clockClass = cc
	m.defaultCS, m.hasCS = cs, true
	return m
}

func NewDiscardedEvents(p *Pools, st *core.Stream, count uint64, begin, end *core.ClockSnapshot) *Message {
	m := p.create(KindDiscardedEvents)
	m.stream = st
	m.discardCount = count
	m.beginCS, m.hasBeginCS = begin, begin != nil
	m.endCS, m.hasEndCS = end, end != nil
	return m
}

func NewDiscardedPackets(p *Pools, st *core.Stream, count uint64, begin, end *core.ClockSnapshot) *Message {
	m := p.create(KindDiscardedPackets)
	m.stream = st
	m.discardCount = count
	m.beginCS, m.hasBeginCS = begin, begin != nil
	m.endCS, m.hasEndCS = end, end != nil
	return m
}
