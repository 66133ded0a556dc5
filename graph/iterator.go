package graph

import (
	"github.com/efficios/babeltrace2-go/cmn/cos"
	"github.com/efficios/babeltrace2-go/msg"
)

// IteratorState is the MessageIterator state machine of spec §4.7.
type IteratorState int

const (
	StateNonInitialized IteratorState = iota
	StateActive
	StateEnded
	StateFinalizing
	StateFinalized
	StateSeeking
	StateLastSeekAgain
	StateLastSeekError
)

// IteratorClass is the per-connection class vtable of spec §3
// "MessageIterator ... vtable of {next, seek-ns-from-origin?,
// seek-beginning?, can-seek-ns-from-origin?, can-seek-beginning?}".
type IteratorClass interface {
	Next(it *MessageIterator) ([]*msg.Message, cos.Kind)
	Finalize(it *MessageIterator)
}

// SeekBeginningClass is implemented by iterator classes that natively
// support seek_beginning.
type SeekBeginningClass interface {
	CanSeekBeginning(it *MessageIterator) bool
	SeekBeginning(it *MessageIterator) cos.Kind
}

// SeekNsClass is implemented by iterator classes that natively support
// seek_ns_from_origin.
type SeekNsClass interface {
	CanSeekNsFromOrigin(it *MessageIterator) bool
	SeekNsFromOrigin(it *MessageIterator, ns int64) cos.Kind
}

// MessageIterator pulls messages from one upstream output port, across one
// Connection, into one downstream input port (spec §3 "MessageIterator").
type MessageIterator struct {
	upstreamComponent *Component  // weak
	upstreamPort      *Port       // weak
	connection        *Connection // weak
	graph             *Graph      // strong: "guarantee pools outlive the messages it produced"

	// ID is a short, log-friendly instance identifier (spec §7
	// "originating component" context carried on errors and trace lines).
	ID string

	state    IteratorState
	UserData any
	class    IteratorClass

	canceled bool

	// auto-seek fallback buffer (spec §4.7)
	seekBuf    []*msg.Message
	seekBufPos int
}

func newMessageIterator(g *Graph, conn *Connection, class IteratorClass) *MessageIterator {
	it := &MessageIterator{
		upstreamComponent: conn.Upstream.Owner,
		upstreamPort:      conn.Upstream,
		connection:        conn,
		graph:             g,
		class:             class,
		state:             StateActive,
		ID:                cos.GenUUID(),
	}
	return it
}

func (it *MessageIterator) State() IteratorState { return it.state }
func (it *MessageIterator) Graph() *Graph         { return it.graph }

// Next implements spec §4.7's `next` contract.
func (it *MessageIterator) Next() ([]*msg.Message, cos.Kind) {
	if it.graph.canceled.Load() {
		return nil, cos.KCanceled
	}
	if it.seekBufPos < len(it.seekBuf) {
		return it.drainSeekBuf()
	}
	switch it.state {
	case StateEnded:
		return nil, cos.KEnd
	case StateLastSeekError:
		return nil, cos.KError
	}

	msgs, kind := it.class.Next(it)
	switch kind {
	case cos.KOk:
		for _, m := range msgs {
			it.graph.trackMessage(m)
		}
		return msgs, cos.KOk
	case cos.KAgain:
		return nil, cos.KAgain
	case cos.KEnd:
		it.state = StateEnded
		return nil, cos.KEnd
	default:
		it.state = StateLastSeekError
		return nil, kind
	}
}

func (it *MessageIterator) drainSeekBuf() ([]*msg.Message, cos.Kind) {
	m := it.seekBuf[it.seekBufPos]
	it.seekBufPos++
	if it.seekBufPos >= len(it.seekBuf) {
		it.seekBuf = nil
		it.seekBufPos = 0
	}
	it.graph.trackMessage(m)
	return []*msg.Message{m}, cos.KOk
}

func (it *MessageIterator) CanSeekBeginning() bool {
	if sc, ok := it.class.(SeekBeginningClass); ok {
		return sc.CanSeekBeginning(it)
	}
	return true // auto-seek fallback always available
}

// SeekBeginning implements spec §4.7: native support when offered, else
// the auto-seek fallback of finalizing and re-initializing the iterator.
func (it *MessageIterator) SeekBeginning() cos.Kind {
	it.state = StateSeeking
	var kind cos.Kind
	if sc, ok := it.class.(SeekBeginningClass); ok && sc.CanSeekBeginning(it) {
		kind = sc.SeekBeginning(it)
	} else {
		kind = it.autoSeekBeginning()
	}
	switch kind {
	case cos.KOk:
		it.state = StateActive
	case cos.KAgain:
		it.state = StateLastSeekAgain
	default:
		it.state = StateLastSeekError
	}
	return kind
}

// autoSeekBeginning finalizes the current class instance and re-initializes
// it from scratch via the upstream component's IteratorFactory, the fallback
// spec §4.7 prescribes for a class offering neither seek primitive natively.
// A component whose class no longer supports IteratorFactory (or whose
// factory refuses to build a fresh instance) cannot be rewound, so that
// signals Unsupported rather than a silent no-op success.
func (it *MessageIterator) autoSeekBeginning() cos.Kind {
	factory, ok := it.upstreamComponent.Class.(IteratorFactory)
	if !ok {
		return cos.KUnsupported
	}
	it.class.Finalize(it)
	fresh, err := factory.CreateIterator(it.upstreamComponent, it.upstreamPort)
	if err != nil {
		return cos.KUnsupported
	}
	it.class = fresh
	it.seekBuf, it.seekBufPos = nil, 0
	return cos.KOk
}

// SeekNsFromOrigin implements spec §4.7: native support when offered, else
// seek_beginning followed by draining into an internal buffer, discarding
// messages strictly before ns.
func (it *MessageIterator) SeekNsFromOrigin(ns int64) cos.Kind {
	it.state = StateSeeking
	var kind cos.Kind
	if sc, ok := it.class.(SeekNsClass); ok && sc.CanSeekNsFromOrigin(it) {
		kind = sc.SeekNsFromOrigin(it, ns)
	} else {
		kind = it.autoSeekNsFromOrigin(ns)
	}
	switch kind {
	case cos.KOk:
		it.state = StateActive
	case cos.KAgain:
		it.state = StateLastSeekAgain
	default:
		it.state = StateLastSeekError
	}
	return kind
}

func (it *MessageIterator) autoSeekNsFromOrigin(ns int64) cos.Kind {
	if kind := it.autoSeekBeginning(); kind != cos.KOk {
		return kind
	}
	it.state = StateActive
	var kept []*msg.Message
	for {
		msgs, kind := it.class.Next(it)
		switch kind {
		case cos.KAgain:
			continue
		case cos.KEnd:
			it.seekBuf = kept
			return cos.KOk
		case cos.KOk:
			// fallthrough to scan below
		default:
			return kind
		}
		for _, m := range msgs {
			cs, ok := m.DefaultClockSnapshot()
			if !ok {
				return cos.KError
			}
			mns, convOK := cs.NanosFromOrigin()
			if !convOK {
				return cos.KError
			}
			if mns >= ns {
				kept = append(kept, m)
			}
		}
		if len(kept) > 0 {
			it.seekBuf = kept
			return cos.KOk
		}
	}
}

// finalize transitions the iterator to Finalized, invoking the class's
// Finalize exactly once (spec §4.7 "Any state ... ->Finalizing->Finalized
// when the owning component is finalized or the iterator's refcount drops
// to zero").
func (it *MessageIterator) finalize() {
	if it.state == StateFinalized {
		return
	}
	it.state = StateFinalizing
	it.class.Finalize(it)
	it.state = StateFinalized
}
