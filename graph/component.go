package graph

import (
	"fmt"

	"github.com/efficios/babeltrace2-go/bval"
	"github.com/efficios/babeltrace2-go/cmn/cos"
)

// ComponentClass is the minimal interface every component implementation
// satisfies (spec §4.4 "Creating a component"). Sink/source/filter
// behavior is layered on via the optional SinkClass/IteratorFactory
// interfaces, matching the teacher's pattern of small, composable
// interfaces (cluster/mock) rather than one large vtable struct.
type ComponentClass interface {
	Initialize(self *Component, params *bval.Value) error
}

// SinkClass additionally implements the sink consume protocol (spec §4.4,
// §4.8).
type SinkClass interface {
	ComponentClass
	GraphIsConfigured(self *Component) error
	Consume(self *Component) cos.Kind
}

// IteratorFactory creates a MessageIterator class instance bound to an
// output port (spec §4.7). Source and filter components implement this.
type IteratorFactory interface {
	ComponentClass
	CreateIterator(self *Component, outputPort *Port) (IteratorClass, error)
}

// FinalizeClass is an optional hook invoked when a Component is destroyed.
type FinalizeClass interface {
	Finalize(self *Component)
}

// Component is an instance of a ComponentClass (spec §3 "Component").
type Component struct {
	Class ComponentClass
	Name  string
	graph *Graph // weak

	inputPorts  []*Port
	outputPorts []*Port

	UserData    any
	initialized bool

	destroyListeners []func(*Component)
}

func newComponent(g *Graph, class ComponentClass, name string) *Component {
	return &Component{Class: class, Name: name, graph: g}
}

func (c *Component) Graph() *Graph { return c.graph }

func (c *Component) InputPorts() []*Port  { return c.inputPorts }
func (c *Component) OutputPorts() []*Port { return c.outputPorts }

// AddInputPort adds a uniquely-named input port, callable only from the
// class's own initialize method (spec §4.4 "The init method adds its
// ports").
func (c *Component) AddInputPort(name string) (*Port, error) {
	return c.addPort(DirectionInput, name)
}

func (c *Component) AddOutputPort(name string) (*Port, error) {
	return c.addPort(DirectionOutput, name)
}

func (c *Component) addPort(dir Direction, name string) (*Port, error) {
	ports := c.portsFor(dir)
	for _, p := range ports {
		if p.Name == name {
			return nil, fmt.Errorf("duplicate %s port name %q on component %q", dir, name, c.Name)
		}
	}
	p := &Port{Direction: dir, Name: name, Owner: c}
	if dir == DirectionInput {
		c.inputPorts = append(c.inputPorts, p)
	} else {
		c.outputPorts = append(c.outputPorts, p)
	}
	return p, nil
}

func (c *Component) portsFor(dir Direction) []*Port {
	if dir == DirectionInput {
		return c.inputPorts
	}
	return c.outputPorts
}

// RemovePort removes p from c, permitted only while the graph is still
// building (can_consume == false) and only if p is not connected (spec
// §4.4 "Removal of a port is permitted only via the component's own self-
// API while the graph is building; once any connection targets the port,
// removal is rejected").
func (c *Component) RemovePort(p *Port) error {
	if c.graph.canConsume {
		return cos.NewStatus(cos.KUnsupported, "graph.Component", "cannot remove a port once the graph can consume", nil)
	}
	if p.IsConnected() {
		return cos.NewStatus(cos.KUnsupported, "graph.Component", "cannot remove a connected port", nil)
	}
	ports := c.portsFor(p.Direction)
	for i, cand := range ports {
		if cand == p {
			ports = append(ports[:i], ports[i+1:]...)
			if p.Direction == DirectionInput {
				c.inputPorts = ports
			} else {
				c.outputPorts = ports
			}
			return nil
		}
	}
	return fmt.Errorf("port not found on component %q", c.Name)
}

func (c *Component) AddDestroyListener(f func(*Component)) {
	c.destroyListeners = append(c.destroyListeners, f)
}

func (c *Component) finalize() {
	if fc, ok := c.Class.(FinalizeClass); ok {
		fc.Finalize(c)
	}
	for _, l := range c.destroyListeners {
		l(c)
	}
}
