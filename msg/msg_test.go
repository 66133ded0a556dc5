package msg_test

import (
	"testing"

	"github.com/efficios/babeltrace2-go/core"
	"github.com/efficios/babeltrace2-go/ir"
	"github.com/efficios/babeltrace2-go/msg"
)

func TestEventMessageLifecycle(t *testing.T) {
	pools := msg.NewPools(4)

	sc := ir.NewStreamClass(0)
	ec := ir.NewEventClass(0, "ev")
	if err := sc.AppendEventClass(ec); err != nil {
		t.Fatal(err)
	}
	ev := core.NewEvent(ec)

	m := msg.NewEvent(pools, ev, nil)
	if m.Kind() != msg.KindEvent {
		t.Fatalf("want KindEvent, got %v", m.Kind())
	}
	if _, ok := m.DefaultClockSnapshot(); ok {
		t.Fatal("expected no default clock snapshot")
	}
	m.Freeze()
	m.Put() // returns to pool

	m2 := msg.NewEvent(pools, ev, nil)
	if m2.RefCount() != 1 {
		t.Fatalf("recycled message must start at refcount 1, got %d", m2.RefCount())
	}
	m2.Put()
}

func TestMessageSurvivesGraphTeardown(t *testing.T) {
	pools := msg.NewPools(4)
	sc := ir.NewStreamClass(0)
	ec := ir.NewEventClass(0, "ev")
	if err := sc.AppendEventClass(ec); err != nil {
		t.Fatal(err)
	}
	ev := core.NewEvent(ec)
	m := msg.NewEvent(pools, ev, nil)

	m.DetachGraph() // simulate graph destruction while m is still outstanding
	m.Put()          // must not panic or touch the dropped pool
}
