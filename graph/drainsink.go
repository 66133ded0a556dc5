package graph

import (
	"github.com/efficios/babeltrace2-go/bval"
	"github.com/efficios/babeltrace2-go/cmn/cos"
)

// drainSinkClass is a sink that pulls from its single input port's message
// iterator and discards every message, exposed via NewDrainSink so callers
// (tests, embedders with no real consumer) can exercise a graph without
// writing a bespoke sink class - the same role
// core/backend.go's no-op backend plays for aistore's core package when no
// cloud backend is configured.
type drainSinkClass struct {
	consumed uint64
	iter     *MessageIterator
}

// NewDrainSink adds a sink component to g that consumes and discards every
// message pulled through its single input port.
func NewDrainSink(g *Graph, name string) (*Component, error) {
	return g.AddComponent(&drainSinkClass{}, name, nil)
}

func (d *drainSinkClass) Initialize(self *Component, _ *bval.Value) error {
	_, err := self.AddInputPort("in")
	return err
}

func (d *drainSinkClass) GraphIsConfigured(self *Component) error {
	port := self.InputPorts()[0]
	conn := port.Connection()
	if conn == nil {
		return cos.NewStatus(cos.KUnsupported, "graph.drainSinkClass", "drain sink has no upstream connection", nil)
	}
	it, err := self.graph.CreateMessageIterator(conn)
	if err != nil {
		return err
	}
	d.iter = it
	return nil
}

func (d *drainSinkClass) Consume(self *Component) cos.Kind {
	msgs, kind := d.iter.Next()
	if kind != cos.KOk {
		return kind
	}
	for _, m := range msgs {
		d.consumed++
		m.Put()
	}
	return cos.KOk
}

// Consumed reports how many messages this drain sink has discarded so far.
func (d *drainSinkClass) Consumed() uint64 { return d.consumed }
