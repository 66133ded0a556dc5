package ir

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/efficios/babeltrace2-go/bval"
	"github.com/efficios/babeltrace2-go/object"
)

// TraceClassListener receives a callback when a new StreamClass is appended
// (spec §3 "listener list").
type TraceClassListener interface {
	StreamClassAdded(tc *TraceClass, sc *StreamClass)
}

// TraceClass is the root schema object of one trace format (spec §3
// "TraceClass").
type TraceClass struct {
	object.Base

	UUID    uuid.UUID
	hasUUID bool
	Name    string
	hasName bool

	Environment *bval.Value // map, created by NewTraceClass

	PacketHeaderFC *FieldClass // optional

	AssignsAutomaticStreamClassIDs bool

	streamClasses []*StreamClass
	byID          map[uint64]*StreamClass
	listeners     []TraceClassListener
}

func NewTraceClass() *TraceClass {
	return &TraceClass{
		Environment: bval.NewMap(),
		byID:        map[uint64]*StreamClass{},
	}
}

func (tc *TraceClass) SetUUID(id uuid.UUID) {
	tc.AssertMutable()
	tc.UUID = id
	tc.hasUUID = true
}

func (tc *TraceClass) HasUUID() bool { return tc.hasUUID }

func (tc *TraceClass) SetName(name string) {
	tc.AssertMutable()
	tc.Name = name
	tc.hasName = true
}

func (tc *TraceClass) HasName() bool { return tc.hasName }

func (tc *TraceClass) SetPacketHeaderFC(fc *FieldClass) {
	tc.AssertMutable()
	tc.PacketHeaderFC = fc
}

func (tc *TraceClass) SetEnvironment(key string, val *bval.Value) error {
	if err := tc.checkMutable(); err != nil {
		return err
	}
	return tc.Environment.MapInsert(key, val)
}

func (tc *TraceClass) AddListener(l TraceClassListener) {
	tc.listeners = append(tc.listeners, l)
}

func (tc *TraceClass) StreamClasses() []*StreamClass { return tc.streamClasses }

func (tc *TraceClass) StreamClassByID(id uint64) *StreamClass { return tc.byID[id] }

// AppendStreamClass adds sc to tc, rejecting a duplicate id (spec §8
// "within one TraceClass, StreamClass IDs are unique").
func (tc *TraceClass) AppendStreamClass(sc *StreamClass) error {
	if err := tc.checkMutable(); err != nil {
		return err
	}
	if _, exists := tc.byID[sc.ID]; exists {
		return fmt.Errorf("duplicate stream class id %d in trace class", sc.ID)
	}
	sc.owner = tc
	tc.byID[sc.ID] = sc
	tc.streamClasses = append(tc.streamClasses, sc)
	for _, l := range tc.listeners {
		l.StreamClassAdded(tc, sc)
	}
	return nil
}

func (tc *TraceClass) checkMutable() error {
	if tc.IsFrozen() {
		return fmt.Errorf("trace class is frozen")
	}
	return nil
}

// freeze is invoked when the owning Trace becomes static (spec §3
// "Becoming static freezes the class and disables further stream
// creation"). It does not freeze individual StreamClasses that already
// froze themselves on first Stream.
func (tc *TraceClass) freeze() {
	if tc.IsFrozen() {
		return
	}
	tc.Base.Freeze()
	tc.Environment.Freeze()
	if tc.PacketHeaderFC != nil {
		tc.PacketHeaderFC.Freeze()
	}
	for _, sc := range tc.streamClasses {
		sc.freeze()
	}
}

// Freeze exposes freeze for callers (e.g. core.Trace.MakeStatic) outside
// the package that need to force-freeze the class when the trace becomes
// static even if no stream class has yet produced a Stream.
func (tc *TraceClass) Freeze() { tc.freeze() }
