package ir

import (
	"fmt"

	"github.com/efficios/babeltrace2-go/object"
)

// StreamClass groups EventClasses under one owning TraceClass (spec §3
// "StreamClass"). Event pooling (spec §4.2: "Owns an object pool of
// Events") is wired by the core package rather than here, since the pooled
// Event type lives in core and ir must not import it - avoiding the import
// cycle ir->core->ir that a typed object.Pool[core.Event] field would
// create. See DESIGN.md for this split.
type StreamClass struct {
	object.Base

	ID   uint64
	Name string
	hasName bool

	DefaultClockClass *ClockClass // optional

	PacketContextFC       *FieldClass // optional
	EventHeaderFC         *FieldClass // optional
	EventCommonContextFC  *FieldClass // optional

	AssignsAutomaticEventClassIDs bool
	AssignsAutomaticStreamIDs     bool
	SupportsPackets               bool
	SupportsDiscardedEvents       bool
	SupportsDiscardedPackets      bool
	DefaultCSAtPacketBeginning    bool
	DefaultCSAtPacketEnd          bool

	owner       *TraceClass // weak back-reference
	eventClasses []*EventClass
	byID        map[uint64]*EventClass

	hasStream bool // once true, frozen (spec §3 "Once a StreamClass has any Stream, it is frozen")
}

func NewStreamClass(id uint64) *StreamClass {
	return &StreamClass{ID: id, byID: map[uint64]*EventClass{}}
}

func (sc *StreamClass) SetName(name string) {
	sc.AssertMutable()
	sc.Name = name
	sc.hasName = true
}

func (sc *StreamClass) HasName() bool { return sc.hasName }

func (sc *StreamClass) SetDefaultClockClass(cc *ClockClass) {
	sc.AssertMutable()
	sc.DefaultClockClass = cc
}

func (sc *StreamClass) SetPacketContextFC(fc *FieldClass) {
	sc.AssertMutable()
	sc.PacketContextFC = fc
}

func (sc *StreamClass) SetEventHeaderFC(fc *FieldClass) {
	sc.AssertMutable()
	sc.EventHeaderFC = fc
}

func (sc *StreamClass) SetEventCommonContextFC(fc *FieldClass) {
	sc.AssertMutable()
	sc.EventCommonContextFC = fc
}

func (sc *StreamClass) TraceClass() *TraceClass { return sc.owner }

func (sc *StreamClass) EventClasses() []*EventClass { return sc.eventClasses }

// AppendEventClass adds ec to sc, rejecting a duplicate id (spec §8
// "Identifier uniqueness. Within one StreamClass, EventClass IDs are
// unique").
func (sc *StreamClass) AppendEventClass(ec *EventClass) error {
	if err := sc.checkMutable(); err != nil {
		return err
	}
	if _, exists := sc.byID[ec.ID]; exists {
		return fmt.Errorf("duplicate event class id %d in stream class %d", ec.ID, sc.ID)
	}
	ec.owner = sc
	sc.byID[ec.ID] = ec
	sc.eventClasses = append(sc.eventClasses, ec)
	return nil
}

func (sc *StreamClass) EventClassByID(id uint64) *EventClass { return sc.byID[id] }

func (sc *StreamClass) checkMutable() error {
	if sc.IsFrozen() {
		return fmt.Errorf("stream class %d is frozen", sc.ID)
	}
	return nil
}

// MarkHasStream freezes sc the first time a Stream is instantiated from it.
func (sc *StreamClass) MarkHasStream() {
	if sc.hasStream {
		return
	}
	sc.hasStream = true
	sc.freeze()
}

func (sc *StreamClass) HasStream() bool { return sc.hasStream }

func (sc *StreamClass) freeze() {
	if sc.IsFrozen() {
		return
	}
	sc.Base.Freeze()
	if sc.PacketContextFC != nil {
		sc.PacketContextFC.Freeze()
	}
	if sc.EventHeaderFC != nil {
		sc.EventHeaderFC.Freeze()
	}
	if sc.EventCommonContextFC != nil {
		sc.EventCommonContextFC.Freeze()
	}
	for _, ec := range sc.eventClasses {
		ec.freeze()
	}
}
