package graph_test

import (
	"testing"

	"github.com/efficios/babeltrace2-go/bval"
	"github.com/efficios/babeltrace2-go/cmn/cos"
	"github.com/efficios/babeltrace2-go/core"
	"github.com/efficios/babeltrace2-go/graph"
	"github.com/efficios/babeltrace2-go/ir"
	"github.com/efficios/babeltrace2-go/msg"
)

type countingSource struct {
	max int
	ec  *ir.EventClass
}

type countingIterator struct {
	g        *graph.Graph
	ec       *ir.EventClass
	produced int
	max      int
}

func (s *countingSource) Initialize(self *graph.Component, _ *bval.Value) error {
	_, err := self.AddOutputPort("out")
	return err
}

func (s *countingSource) CreateIterator(self *graph.Component, _ *graph.Port) (graph.IteratorClass, error) {
	return &countingIterator{g: self.Graph(), ec: s.ec, max: s.max}, nil
}

func (it *countingIterator) Next(_ *graph.MessageIterator) ([]*msg.Message, cos.Kind) {
	if it.produced >= it.max {
		return nil, cos.KEnd
	}
	it.produced++
	ev := core.NewEvent(it.ec)
	m := msg.NewEvent(it.g.Pools, ev, nil)
	return []*msg.Message{m}, cos.KOk
}

func (it *countingIterator) Finalize(*graph.MessageIterator) {}

func buildEventClass(t *testing.T) *ir.EventClass {
	t.Helper()
	sc := ir.NewStreamClass(0)
	ec := ir.NewEventClass(0, "ev")
	if err := sc.AppendEventClass(ec); err != nil {
		t.Fatal(err)
	}
	return ec
}

func TestGraphRunsSourceToSink(t *testing.T) {
	g := graph.NewGraph()
	ec := buildEventClass(t)

	src, err := g.AddComponent(&countingSource{max: 5, ec: ec}, "src", nil)
	if err != nil {
		t.Fatal(err)
	}
	sink, err := graph.NewDrainSink(g, "sink")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := g.Connect(src.OutputPorts()[0], sink.InputPorts()[0]); err != nil {
		t.Fatal(err)
	}
	if err := g.ConfigureSinks(); err != nil {
		t.Fatal(err)
	}

	kind := g.Run()
	if kind != cos.KEnd {
		t.Fatalf("want End, got %v", kind)
	}
}

func TestGraphCancelIsObservedAtRunOnce(t *testing.T) {
	g := graph.NewGraph()
	ec := buildEventClass(t)

	src, _ := g.AddComponent(&countingSource{max: 1000, ec: ec}, "src", nil)
	sink, _ := graph.NewDrainSink(g, "sink")
	if _, err := g.Connect(src.OutputPorts()[0], sink.InputPorts()[0]); err != nil {
		t.Fatal(err)
	}
	if err := g.ConfigureSinks(); err != nil {
		t.Fatal(err)
	}

	g.Cancel()
	if kind := g.RunOnce(); kind != cos.KCanceled {
		t.Fatalf("want Canceled, got %v", kind)
	}
}

// alwaysOkSink implements graph.SinkClass, cooperatively returning Ok on
// every Consume call forever - the "sink cooperatively returning Ok
// indefinitely" setup of E4.
type alwaysOkSink struct{}

func (alwaysOkSink) Initialize(self *graph.Component, _ *bval.Value) error {
	_, err := self.AddInputPort("in")
	return err
}

func (alwaysOkSink) GraphIsConfigured(*graph.Component) error { return nil }

func (alwaysOkSink) Consume(*graph.Component) cos.Kind { return cos.KOk }

// E4: cancel a graph while its only sink is cooperatively returning Ok
// indefinitely. The call to cancel succeeds; the next run_once returns
// Canceled; subsequent run_once calls also return Canceled.
func TestE4CancelDuringIndefiniteOkLoop(t *testing.T) {
	g := graph.NewGraph()
	sink, err := g.AddComponent(alwaysOkSink{}, "sink", nil)
	if err != nil {
		t.Fatal(err)
	}
	_ = sink
	if err := g.ConfigureSinks(); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		if kind := g.RunOnce(); kind != cos.KOk {
			t.Fatalf("run %d: want Ok before cancel, got %v", i, kind)
		}
	}

	g.Cancel()

	if kind := g.RunOnce(); kind != cos.KCanceled {
		t.Fatalf("want Canceled on first run_once after cancel, got %v", kind)
	}
	if kind := g.RunOnce(); kind != cos.KCanceled {
		t.Fatalf("want Canceled on subsequent run_once, got %v", kind)
	}
}

// E6: attempting to connect two ports of the same direction returns Error
// and leaves no graph state changed (idempotence of failure).
func TestE6ConnectSameDirectionRejected(t *testing.T) {
	g := graph.NewGraph()
	ec := buildEventClass(t)
	src, err := g.AddComponent(&countingSource{max: 1, ec: ec}, "src", nil)
	if err != nil {
		t.Fatal(err)
	}
	src2, err := g.AddComponent(&countingSource{max: 1, ec: ec}, "src2", nil)
	if err != nil {
		t.Fatal(err)
	}

	_, err = g.Connect(src.OutputPorts()[0], src2.OutputPorts()[0])
	if err == nil {
		t.Fatal("expected connecting two output ports to be rejected")
	}
	if kind := cos.KindOf(err); kind != cos.KError {
		t.Fatalf("want Error, got %v", kind)
	}
	if src.OutputPorts()[0].IsConnected() || src2.OutputPorts()[0].IsConnected() {
		t.Fatal("failed connect must not leave a connection behind")
	}
}

// autoSeekIterator emits one event per Next call, stamped with the next
// nanosecond timestamp from nsAt, implementing neither SeekBeginningClass nor SeekNsClass so the
// runtime must fall back to auto-seek.
type autoSeekIterator struct {
	g      *graph.Graph
	ec     *ir.EventClass
	cc     *ir.ClockClass
	nsAt   []uint64
	cursor int
}

func (it *autoSeekIterator) Next(_ *graph.MessageIterator) ([]*msg.Message, cos.Kind) {
	if it.cursor >= len(it.nsAt) {
		return nil, cos.KEnd
	}
	ns := it.nsAt[it.cursor]
	it.cursor++
	cs, err := core.NewClockSnapshot(it.cc, ns)
	if err != nil {
		return nil, cos.KError
	}
	ev := core.NewEvent(it.ec)
	m := msg.NewEvent(it.g.Pools, ev, cs)
	return []*msg.Message{m}, cos.KOk
}

func (it *autoSeekIterator) Finalize(*graph.MessageIterator) {}

type autoSeekSource struct {
	ec   *ir.EventClass
	cc   *ir.ClockClass
	nsAt []uint64
}

func (s *autoSeekSource) Initialize(self *graph.Component, _ *bval.Value) error {
	_, err := self.AddOutputPort("out")
	return err
}

func (s *autoSeekSource) CreateIterator(self *graph.Component, _ *graph.Port) (graph.IteratorClass, error) {
	return &autoSeekIterator{g: self.Graph(), ec: s.ec, cc: s.cc, nsAt: s.nsAt}, nil
}

// singleUseIterator never natively supports either seek primitive, forcing
// the auto-seek fallback; its owning factory refuses to build a second
// instance, modeling a class that cannot be re-initialized.
type singleUseIterator struct {
	g  *graph.Graph
	ec *ir.EventClass
}

func (it *singleUseIterator) Next(_ *graph.MessageIterator) ([]*msg.Message, cos.Kind) {
	ev := core.NewEvent(it.ec)
	m := msg.NewEvent(it.g.Pools, ev, nil)
	return []*msg.Message{m}, cos.KOk
}

func (it *singleUseIterator) Finalize(*graph.MessageIterator) {}

type singleUseSource struct {
	ec      *ir.EventClass
	created int
}

func (s *singleUseSource) Initialize(self *graph.Component, _ *bval.Value) error {
	_, err := self.AddOutputPort("out")
	return err
}

func (s *singleUseSource) CreateIterator(self *graph.Component, _ *graph.Port) (graph.IteratorClass, error) {
	s.created++
	if s.created > 1 {
		return nil, cos.NewStatus(cos.KUnsupported, "graph_test", "cannot build a second iterator instance", nil)
	}
	return &singleUseIterator{g: self.Graph(), ec: s.ec}, nil
}

// auto-seek-beginning must fail with Unsupported when the upstream factory
// cannot hand back a fresh class instance to re-initialize into (spec §4.7).
func TestAutoSeekBeginningUnsupportedWhenNotReinitializable(t *testing.T) {
	g := graph.NewGraph()
	ec := buildEventClass(t)

	src, err := g.AddComponent(&singleUseSource{ec: ec}, "src", nil)
	if err != nil {
		t.Fatal(err)
	}
	downstream, err := g.AddComponent(inputPortOnly{}, "sink", nil)
	if err != nil {
		t.Fatal(err)
	}
	conn, err := g.Connect(src.OutputPorts()[0], downstream.InputPorts()[0])
	if err != nil {
		t.Fatal(err)
	}
	it, err := g.CreateMessageIterator(conn)
	if err != nil {
		t.Fatal(err)
	}

	if kind := it.SeekBeginning(); kind != cos.KUnsupported {
		t.Fatalf("want Unsupported, got %v", kind)
	}
}

type inputPortOnly struct{}

func (inputPortOnly) Initialize(self *graph.Component, _ *bval.Value) error {
	_, err := self.AddInputPort("in")
	return err
}

// E5: an iterator whose class implements neither seek primitive natively;
// calling seek_ns_from_origin(500) auto-seeks. The first next returns
// messages whose default clock snapshot is >= 500 ns; messages pre-buffered
// before 500 are discarded.
func TestE5AutoSeekDiscardsMessagesBeforeTarget(t *testing.T) {
	g := graph.NewGraph()
	cc := ir.NewClockClass(1_000_000_000, 0, 0) // 1 cycle == 1 ns
	ec := buildEventClass(t)

	src, err := g.AddComponent(&autoSeekSource{ec: ec, cc: cc, nsAt: []uint64{100, 300, 500, 700}}, "src", nil)
	if err != nil {
		t.Fatal(err)
	}
	downstream, err := g.AddComponent(inputPortOnly{}, "sink", nil)
	if err != nil {
		t.Fatal(err)
	}
	conn, err := g.Connect(src.OutputPorts()[0], downstream.InputPorts()[0])
	if err != nil {
		t.Fatal(err)
	}
	it, err := g.CreateMessageIterator(conn)
	if err != nil {
		t.Fatal(err)
	}

	if kind := it.SeekNsFromOrigin(500); kind != cos.KOk {
		t.Fatalf("want Ok from auto-seek, got %v", kind)
	}

	msgs, kind := it.Next()
	if kind != cos.KOk {
		t.Fatalf("want Ok, got %v", kind)
	}
	if len(msgs) != 1 {
		t.Fatalf("want exactly 1 message surfaced from the seek buffer, got %d", len(msgs))
	}
	cs, ok := msgs[0].DefaultClockSnapshot()
	if !ok {
		t.Fatal("expected a default clock snapshot")
	}
	ns, ok := cs.NanosFromOrigin()
	if !ok {
		t.Fatal("expected NanosFromOrigin to succeed")
	}
	if ns != 500 {
		t.Fatalf("want the first surfaced message at 500ns (100/300 discarded), got %d", ns)
	}
}

func TestConnectRejectedAfterCanConsume(t *testing.T) {
	g := graph.NewGraph()
	ec := buildEventClass(t)
	src, _ := g.AddComponent(&countingSource{max: 1, ec: ec}, "src", nil)
	sink, _ := graph.NewDrainSink(g, "sink")
	if _, err := g.Connect(src.OutputPorts()[0], sink.InputPorts()[0]); err != nil {
		t.Fatal(err)
	}
	if err := g.ConfigureSinks(); err != nil {
		t.Fatal(err)
	}
	src2, _ := g.AddComponent(&countingSource{max: 1, ec: ec}, "src2", nil)
	_ = src2
	if _, err := g.Connect(src.OutputPorts()[0], sink.InputPorts()[0]); err == nil {
		t.Fatal("expected connect to be rejected once graph can consume")
	}
}
