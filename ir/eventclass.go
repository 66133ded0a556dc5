package ir

import (
	"github.com/efficios/babeltrace2-go/object"
)

// EventClass describes one kind of event within a StreamClass (spec §3
// "EventClass"). Id is unique within the owning StreamClass (enforced by
// StreamClass.AppendEventClass).
type EventClass struct {
	object.Base

	ID           uint64
	Name         string
	LogLevel     int
	HasLogLevel  bool
	EmfURI       string
	hasEmfURI    bool
	SpecificCtx  *FieldClass // optional
	Payload      *FieldClass // optional

	owner *StreamClass // weak back-reference
}

func NewEventClass(id uint64, name string) *EventClass {
	return &EventClass{ID: id, Name: name}
}

func (ec *EventClass) SetLogLevel(level int) {
	ec.AssertMutable()
	ec.LogLevel = level
	ec.HasLogLevel = true
}

func (ec *EventClass) SetEmfURI(uri string) {
	ec.AssertMutable()
	ec.EmfURI = uri
	ec.hasEmfURI = true
}

func (ec *EventClass) HasEmfURI() bool { return ec.hasEmfURI }

func (ec *EventClass) SetSpecificContextFC(fc *FieldClass) {
	ec.AssertMutable()
	ec.SpecificCtx = fc
}

func (ec *EventClass) SetPayloadFC(fc *FieldClass) {
	ec.AssertMutable()
	ec.Payload = fc
}

func (ec *EventClass) StreamClass() *StreamClass { return ec.owner }

func (ec *EventClass) freeze() {
	if ec.IsFrozen() {
		return
	}
	ec.Base.Freeze()
	if ec.SpecificCtx != nil {
		ec.SpecificCtx.Freeze()
	}
	if ec.Payload != nil {
		ec.Payload.Freeze()
	}
}
