package ir

import (
	"github.com/google/uuid"

	"github.com/efficios/babeltrace2-go/clockcvt"
	"github.com/efficios/babeltrace2-go/object"
)

// ClockClass describes one clock source (spec §3 "ClockClass"). The
// cycles->ns-from-origin conversion itself lives in clockcvt, grounded on
// original_source/formats/ctf/writer/clock.c; ClockClass just carries the
// parameters and an optional identity, matching how the teacher separates
// a schema/metadata struct from the arithmetic it parameterizes.
type ClockClass struct {
	object.Base

	Name              string
	Precision         uint64
	OriginIsUnixEpoch bool
	UUID              uuid.UUID
	hasUUID           bool

	params clockcvt.Params
}

func NewClockClass(freqHz uint64, offsetSec int64, offsetCycles uint64) *ClockClass {
	return &ClockClass{params: clockcvt.Params{
		FreqHz:       freqHz,
		OffsetSec:    offsetSec,
		OffsetCycles: offsetCycles,
	}}
}

func (cc *ClockClass) SetUUID(id uuid.UUID) {
	cc.AssertMutable()
	cc.UUID = id
	cc.hasUUID = true
}

func (cc *ClockClass) HasUUID() bool { return cc.hasUUID }

func (cc *ClockClass) FreqHz() uint64 { return cc.params.FreqHz }

// Convert computes ns-from-origin for valueCycles per spec §4.11.
func (cc *ClockClass) Convert(valueCycles uint64) (clockcvt.Result, error) {
	return clockcvt.Convert(cc.params, valueCycles)
}
