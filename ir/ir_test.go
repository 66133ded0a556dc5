package ir_test

import (
	"testing"

	"github.com/efficios/babeltrace2-go/ir"
)

// E1: build a TraceClass with one StreamClass (default clock class freq
// 10^9 Hz, no offset) and one EventClass with payload {x: u32}.
func TestE1BuildTraceClass(t *testing.T) {
	tc := ir.NewTraceClass()
	sc := ir.NewStreamClass(0)
	cc := ir.NewClockClass(1_000_000_000, 0, 0)
	sc.SetDefaultClockClass(cc)

	ec := ir.NewEventClass(0, "my_event")
	payload := ir.NewStructureFC()
	if err := payload.AppendMember("x", ir.NewUnsignedIntegerFC(32, ir.DisplayDec)); err != nil {
		t.Fatal(err)
	}
	ec.SetPayloadFC(payload)

	if err := sc.AppendEventClass(ec); err != nil {
		t.Fatal(err)
	}
	if err := tc.AppendStreamClass(sc); err != nil {
		t.Fatal(err)
	}

	scopes := ir.ScopeClasses{ir.ScopeEventPayload: ec.Payload}
	frozen, err := ir.ValidateEventClass(ec, scopes)
	if err != nil {
		t.Fatal(err)
	}
	if !frozen[ir.ScopeEventPayload].IsFrozen() {
		t.Fatal("validated payload field class must be frozen")
	}
	if payload.IsFrozen() {
		t.Fatal("original field class must remain mutable; validator operates on a copy")
	}
}

func TestDuplicateEventClassIDRejected(t *testing.T) {
	sc := ir.NewStreamClass(0)
	if err := sc.AppendEventClass(ir.NewEventClass(1, "a")); err != nil {
		t.Fatal(err)
	}
	if err := sc.AppendEventClass(ir.NewEventClass(1, "b")); err == nil {
		t.Fatal("expected duplicate id error")
	}
}

func TestFrozenStreamClassRejectsMutation(t *testing.T) {
	sc := ir.NewStreamClass(0)
	sc.MarkHasStream()
	if err := sc.AppendEventClass(ir.NewEventClass(1, "a")); err == nil {
		t.Fatal("expected frozen stream class to reject new event classes")
	}
}

func TestVariantCoverage(t *testing.T) {
	enum := ir.NewEnumerationFC(8, false)
	if err := enum.AddMapping("a", ir.NewRangeSet(false, ir.Range{Lower: 0, Upper: 0})); err != nil {
		t.Fatal(err)
	}
	if err := enum.AddMapping("b", ir.NewRangeSet(false, ir.Range{Lower: 1, Upper: 1})); err != nil {
		t.Fatal(err)
	}

	payload := ir.NewStructureFC()
	if err := payload.AppendMember("tag", enum); err != nil {
		t.Fatal(err)
	}
	variant := ir.NewVariantFC(ir.NewFieldPath(ir.ScopeEventPayload, 0))
	if err := variant.AppendOption("a", ir.NewBoolFC(), ir.NewRangeSet(false, ir.Range{Lower: 0, Upper: 0})); err != nil {
		t.Fatal(err)
	}
	if err := variant.AppendOption("b", ir.NewStringFC(), ir.NewRangeSet(false, ir.Range{Lower: 1, Upper: 1})); err != nil {
		t.Fatal(err)
	}
	if err := payload.AppendMember("body", variant); err != nil {
		t.Fatal(err)
	}

	ec := ir.NewEventClass(0, "ev")
	ec.SetPayloadFC(payload)
	scopes := ir.ScopeClasses{ir.ScopeEventPayload: payload}
	if _, err := ir.ValidateEventClass(ec, scopes); err != nil {
		t.Fatalf("expected valid variant coverage, got %v", err)
	}
}

func TestVariantOverlappingOptionsRejected(t *testing.T) {
	variant := ir.NewVariantFC(ir.NewFieldPath(ir.ScopeEventPayload, 0))
	if err := variant.AppendOption("a", ir.NewBoolFC(), ir.NewRangeSet(false, ir.Range{Lower: 0, Upper: 5})); err != nil {
		t.Fatal(err)
	}
	if err := variant.AppendOption("b", ir.NewStringFC(), ir.NewRangeSet(false, ir.Range{Lower: 5, Upper: 10})); err == nil {
		t.Fatal("expected overlapping range-set rejection")
	}
}

func TestClockClassUniquenessRejectsMixedClocks(t *testing.T) {
	cc1 := ir.NewClockClass(1000, 0, 0)
	cc2 := ir.NewClockClass(2000, 0, 0)

	payload := ir.NewStructureFC()
	a := ir.NewUnsignedIntegerFC(32, ir.DisplayDec)
	if err := a.SetMappedClockClass(cc1); err != nil {
		t.Fatal(err)
	}
	b := ir.NewUnsignedIntegerFC(32, ir.DisplayDec)
	if err := b.SetMappedClockClass(cc2); err != nil {
		t.Fatal(err)
	}
	if err := payload.AppendMember("a", a); err != nil {
		t.Fatal(err)
	}
	if err := payload.AppendMember("b", b); err != nil {
		t.Fatal(err)
	}

	ec := ir.NewEventClass(0, "ev")
	ec.SetPayloadFC(payload)
	scopes := ir.ScopeClasses{ir.ScopeEventPayload: payload}
	if _, err := ir.ValidateEventClass(ec, scopes); err == nil {
		t.Fatal("expected clock-class uniqueness violation")
	}
}
