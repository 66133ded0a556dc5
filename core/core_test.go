package core_test

import (
	"testing"

	"github.com/efficios/babeltrace2-go/core"
	"github.com/efficios/babeltrace2-go/ir"
)

func buildEventClass(t *testing.T) (*ir.StreamClass, *ir.EventClass) {
	t.Helper()
	sc := ir.NewStreamClass(0)
	ec := ir.NewEventClass(0, "ev")
	payload := ir.NewStructureFC()
	if err := payload.AppendMember("x", ir.NewUnsignedIntegerFC(32, ir.DisplayDec)); err != nil {
		t.Fatal(err)
	}
	ec.SetPayloadFC(payload)
	if err := sc.AppendEventClass(ec); err != nil {
		t.Fatal(err)
	}
	scopes := ir.ScopeClasses{ir.ScopeEventPayload: payload}
	frozen, err := ir.ValidateEventClass(ec, scopes)
	if err != nil {
		t.Fatal(err)
	}
	ec.SetPayloadFC(frozen[ir.ScopeEventPayload])
	return sc, ec
}

func TestEventPayloadSetGet(t *testing.T) {
	_, ec := buildEventClass(t)
	ev := core.NewEvent(ec)
	x := ev.Payload().StructureMemberByName("x")
	if err := x.SetUnsigned(42); err != nil {
		t.Fatal(err)
	}
	if got := x.Unsigned(); got != 42 {
		t.Fatalf("want 42, got %d", got)
	}
	ev.Put()
}

func TestEventPoolRecyclesAcrossPutCreate(t *testing.T) {
	sc, ec := buildEventClass(t)
	_ = sc
	ev1 := core.NewEvent(ec)
	ev1.Put()
	ev2 := core.NewEvent(ec)
	if ev2.RefCount() != 1 {
		t.Fatalf("recycled event must start at refcount 1, got %d", ev2.RefCount())
	}
	ev2.Put()
}

func TestTraceMakeStaticRejectsNewStreams(t *testing.T) {
	tc := ir.NewTraceClass()
	trace := core.NewTrace(tc)
	sc := ir.NewStreamClass(0)
	if err := tc.AppendStreamClass(sc); err != nil {
		t.Fatal(err)
	}
	if _, err := trace.CreateStream(sc, 0); err != nil {
		t.Fatal(err)
	}
	if err := trace.MakeStatic(); err != nil {
		t.Fatal(err)
	}
	if _, err := trace.CreateStream(sc, 1); err == nil {
		t.Fatal("expected static trace to reject new streams")
	}
}

func TestClockSnapshotConvert(t *testing.T) {
	cc := ir.NewClockClass(1_000_000_000, 0, 0)
	cs, err := core.NewClockSnapshot(cc, 100)
	if err != nil {
		t.Fatal(err)
	}
	ns, ok := cs.NanosFromOrigin()
	if !ok || ns != 100 {
		t.Fatalf("want 100ns ok=true, got %d ok=%v", ns, ok)
	}
	cs.Put()
}
