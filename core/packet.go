package core

import (
	"sync"

	"github.com/efficios/babeltrace2-go/btcfg"
	"github.com/efficios/babeltrace2-go/ir"
	"github.com/efficios/babeltrace2-go/object"
)

// Packet is an instance attached to a Stream; it carries a packet-context
// Field when its StreamClass supports packets (spec §3 "Packet references
// a Stream and has a packet-context Field").
type Packet struct {
	object.Base

	stream  *Stream // weak
	context *Field
}

var (
	packetPoolsMu sync.Mutex
	packetPools   = map[*ir.StreamClass]*object.Pool[Packet]{}
)

func packetPoolFor(sc *ir.StreamClass) *object.Pool[Packet] {
	packetPoolsMu.Lock()
	defer packetPoolsMu.Unlock()
	p, ok := packetPools[sc]
	if !ok {
		p = object.NewPool(btcfg.Default.PoolCapacity,
			func() *Packet { return &Packet{} },
			func(pk *Packet) { pk.stream = nil })
		packetPools[sc] = p
	}
	return p
}

func DropPacketPool(sc *ir.StreamClass) {
	packetPoolsMu.Lock()
	defer packetPoolsMu.Unlock()
	if p, ok := packetPools[sc]; ok {
		p.Drain()
		delete(packetPools, sc)
	}
}

// NewPacket creates a Packet on stream, allocating its packet-context
// Field from the owning StreamClass's field class, when present.
func NewPacket(stream *Stream) *Packet {
	sc := stream.StreamClass()
	pk := packetPoolFor(sc).Create()
	pk.Init(pk)
	pk.stream = stream
	if sc.PacketContextFC != nil {
		pk.context = NewField(sc.PacketContextFC)
	}
	return pk
}

func (pk *Packet) Release() {
	sc := pk.stream.StreamClass()
	packetPoolFor(sc).Recycle(pk)
}

func (pk *Packet) Stream() *Stream   { return pk.stream }
func (pk *Packet) Context() *Field   { return pk.context }
