package graph

import (
	"sync/atomic"
	"time"

	"github.com/efficios/babeltrace2-go/bval"
	"github.com/efficios/babeltrace2-go/btcfg"
	"github.com/efficios/babeltrace2-go/cmn/cos"
	"github.com/efficios/babeltrace2-go/cmn/debug"
	"github.com/efficios/babeltrace2-go/cmn/nlog"
	"github.com/efficios/babeltrace2-go/msg"
	"golang.org/x/sync/errgroup"
)

// PortListener is notified synchronously when a connection is established
// or torn down (spec §4.4 "Port-connected and port-disconnected
// callbacks").
type PortListener interface {
	PortConnected(upstream, downstream *Port)
	PortDisconnected(upstream, downstream *Port)
}

// Graph is the component graph runtime of spec §3/§4.8.
type Graph struct {
	Pools *msg.Pools

	components  []*Component
	connections []*Connection

	sinkFIFO []*Component

	canceled   atomic.Bool
	canConsume bool
	hasSink    bool

	portListeners []PortListener

	// outstanding messages, detached on teardown (spec §4.6's "on graph
	// destruction, every outstanding message is notified").
	backRefs []*msg.Message

	inListenerCallback bool

	statsObserver SchedObserver
}

// SchedObserver receives one notification per RunOnce result; stats.Tracker
// satisfies this without graph importing the stats package back.
type SchedObserver interface {
	ObserveSchedKind(cos.Kind)
}

func NewGraph() *Graph {
	return &Graph{Pools: msg.NewPools(btcfg.Default.PoolCapacity)}
}

// SetStatsObserver attaches o so every RunOnce result is reported to it.
func (g *Graph) SetStatsObserver(o SchedObserver) { g.statsObserver = o }

// AddComponent instantiates class under name, invoking its Initialize
// method with a self handle (spec §4.4 "Creating a component").
// Structural mutation is rejected once the graph can consume.
func (g *Graph) AddComponent(class ComponentClass, name string, params *bval.Value) (*Component, error) {
	if g.canConsume {
		return nil, cos.NewStatus(cos.KUnsupported, "graph.Graph", "cannot add a component once the graph can consume", nil)
	}
	c := newComponent(g, class, name)
	if params == nil {
		params = bval.NewMap()
	}
	if err := class.Initialize(c, params); err != nil {
		return nil, err
	}
	c.initialized = true
	g.components = append(g.components, c)
	if _, ok := class.(SinkClass); ok {
		g.hasSink = true
	}
	return c, nil
}

func (g *Graph) Components() []*Component { return g.components }

// Connect implements spec §4.5's preconditions plus §4.4's listener
// delivery. It creates no message iterator; CreateMessageIterator does that
// through the upstream component's IteratorFactory.
func (g *Graph) Connect(upstream, downstream *Port) (*Connection, error) {
	if g.canConsume {
		return nil, cos.NewStatus(cos.KUnsupported, "graph.Graph", "cannot connect once the graph can consume", nil)
	}
	if upstream.Direction != DirectionOutput || downstream.Direction != DirectionInput {
		return nil, cos.NewStatus(cos.KError, "graph.Graph", "connect requires an output port and an input port", nil)
	}
	if upstream.Owner.graph != g || downstream.Owner.graph != g {
		return nil, cos.NewStatus(cos.KUnsupported, "graph.Graph", "both ports must belong to components owned by this graph", nil)
	}
	if upstream.IsConnected() || downstream.IsConnected() {
		return nil, cos.NewStatus(cos.KUnsupported, "graph.Graph", "port is already connected", nil)
	}

	conn := &Connection{Upstream: upstream, Downstream: downstream, ID: newConnectionID(), graph: g}
	upstream.conn = conn
	downstream.conn = conn
	g.connections = append(g.connections, conn)

	nlog.Infof("graph: connected %s.%s -> %s.%s [%s]",
		upstream.Owner.Name, upstream.Name, downstream.Owner.Name, downstream.Name, conn.ID)
	g.notifyConnected(upstream, downstream)
	return conn, nil
}

// CreateMessageIterator builds a MessageIterator over conn using the
// upstream component's IteratorFactory, per spec §4.7.
func (g *Graph) CreateMessageIterator(conn *Connection) (*MessageIterator, error) {
	factory, ok := conn.Upstream.Owner.Class.(IteratorFactory)
	if !ok {
		return nil, cos.NewStatus(cos.KUnsupported, "graph.Graph", "upstream component does not support message iterators", nil)
	}
	class, err := factory.CreateIterator(conn.Upstream.Owner, conn.Upstream)
	if err != nil {
		return nil, err
	}
	it := newMessageIterator(g, conn, class)
	nlog.Infof("graph: created message iterator %s over connection %s", it.ID, conn.ID)
	return it, nil
}

func (g *Graph) notifyConnected(up, down *Port) {
	g.inListenerCallback = true
	defer func() { g.inListenerCallback = false }()
	for _, l := range g.portListeners {
		l.PortConnected(up, down)
	}
}

func (g *Graph) AddPortListener(l PortListener) { g.portListeners = append(g.portListeners, l) }

// ConfigureSinks marks the graph ready to consume: invokes every sink's
// GraphIsConfigured exactly once and fills the sink FIFO (spec §4.4 "For
// sinks, a graph-is-configured method is invoked exactly once, after all
// connections are established and before the first consume"; spec §4.8
// "can_consume toggles to true once any sink is added and its
// graph-is-configured callback has returned").
func (g *Graph) ConfigureSinks() error {
	if g.canConsume {
		return nil
	}
	for _, c := range g.components {
		if sc, ok := c.Class.(SinkClass); ok {
			if err := sc.GraphIsConfigured(c); err != nil {
				return err
			}
			g.sinkFIFO = append(g.sinkFIFO, c)
		}
	}
	g.canConsume = true
	return nil
}

// Cancel sets the atomic cancel flag; safe to call from any goroutine
// (spec §4.8 "cancel may be invoked from any thread").
func (g *Graph) Cancel() { g.canceled.Store(true) }

func (g *Graph) IsCanceled() bool { return g.canceled.Load() }

// RunOnce implements spec §4.8's run_once.
func (g *Graph) RunOnce() cos.Kind {
	kind := g.runOnce()
	if g.statsObserver != nil {
		g.statsObserver.ObserveSchedKind(kind)
	}
	return kind
}

func (g *Graph) runOnce() cos.Kind {
	if g.canceled.Load() {
		return cos.KCanceled
	}
	if len(g.sinkFIFO) == 0 {
		return cos.KEnd
	}
	sink := g.sinkFIFO[0]
	g.sinkFIFO = g.sinkFIFO[1:]

	kind := sink.Class.(SinkClass).Consume(sink)
	switch kind {
	case cos.KOk:
		g.sinkFIFO = append(g.sinkFIFO, sink)
		return cos.KOk
	case cos.KAgain:
		g.sinkFIFO = append(g.sinkFIFO, sink)
		return cos.KAgain
	case cos.KEnd:
		if len(g.sinkFIFO) == 0 {
			return cos.KEnd
		}
		return cos.KOk
	default:
		return kind
	}
}

// Run loops RunOnce while it returns Ok or Again, backing off briefly on
// Again per spec §4.8 ("with a short backoff on Again,
// implementation-defined"), using btcfg's tunable.
func (g *Graph) Run() cos.Kind {
	backoff := time.Duration(btcfg.Default.SchedAgainBackoffUS) * time.Microsecond
	for {
		kind := g.RunOnce()
		switch kind {
		case cos.KOk:
			continue
		case cos.KAgain:
			time.Sleep(backoff)
			continue
		default:
			return kind
		}
	}
}

// trackMessage records m in the graph's back-reference list so Destroy can
// notify it later (spec §3 "Graph ... message-back-reference list").
func (g *Graph) trackMessage(m *msg.Message) { g.backRefs = append(g.backRefs, m) }

// Destroy tears the graph down: every outstanding message is detached from
// its pool (spec §4.6), the hot pools are drained, and every component is
// finalized concurrently - each component's finalize touches only its own
// class instance and destroy listeners, so there is no shared state to
// serialize on, the same reasoning that lets fs.WalkBck run one jogger per
// mountpath under a single errgroup.
func (g *Graph) Destroy() {
	for _, m := range g.backRefs {
		m.DetachGraph()
	}
	g.backRefs = nil
	g.Pools.Drain()

	var grp errgroup.Group
	for _, c := range g.components {
		c := c
		grp.Go(func() error {
			c.finalize()
			return nil
		})
	}
	_ = grp.Wait()

	debug.Assert(!g.inListenerCallback, "graph destroyed while inside a listener callback")
}
