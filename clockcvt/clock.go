// Package clockcvt implements the cycles -> nanoseconds-from-origin
// conversion of spec §4.11, grounded on the teacher's cmn/mono package
// (the only place the teacher does clock-unit arithmetic) and on
// original_source/formats/ctf/writer/clock.c for the exact rounding rule:
// round-half-up via integer division, not math.Round, so precision is not
// lost at the cycle/frequency magnitudes CTF clocks can carry (up to
// 2^64 cycles against up to a 2^64 Hz frequency). The cycles*1e9 product is
// carried through bits.Mul64's 128-bit (hi, lo) pair rather than a plain
// uint64 multiply, so it never silently wraps before the division step.
package clockcvt

import (
	"math"
	"math/bits"

	"github.com/efficios/babeltrace2-go/cmn/cos"
)

// Params mirrors ClockClass's (freq, off_s, off_c) per spec §3/§4.11.
// Precondition (spec §4.11 step 1): OffsetCycles < Freq. ir.ClockClass does
// not check it when built or frozen; Convert rejects a violation with an
// Overflow status.
type Params struct {
	FreqHz       uint64
	OffsetSec    int64
	OffsetCycles uint64 // 0 <= OffsetCycles < FreqHz
}

// Result caches the computed ns-from-origin plus the overflow flag, so a
// ClockSnapshot reader is O(1) per spec §3 ("precomputed ns-from-origin
// and overflow flag for O(1) reads").
type Result struct {
	NanosFromOrigin int64
	BaseOverflows   bool // base_offset_overflows, spec §4.11 step 2
	Overflow        bool // overall conversion overflow, steps 3-4
}

const nsPerSec = 1_000_000_000

// mulDivRoundU64 computes round(num*mul/den) for uint64 operands without
// overflowing the intermediate product: num*mul is formed as a full 128-bit
// value via bits.Mul64 (hi:lo) rather than a saturating 64-bit multiply, so
// value_cycles*1e9 is exact even past ~1.84e10 cycles (the point at which a
// plain uint64 multiply would wrap and silently collapse every larger
// timestamp to the same bogus constant). Overflow is reported only when the
// true quotient cannot fit in 64 bits (hi >= den), i.e. a genuine
// out-of-range result, not an intermediate artifact.
func mulDivRoundU64(num, mul, den uint64) (uint64, bool) {
	if den == 0 {
		return 0, true
	}
	hi, lo := bits.Mul64(num, mul)
	if hi >= den {
		return 0, true
	}
	q, r := bits.Div64(hi, lo, den)
	// round half up: 2*r >= den, rewritten as r >= den-r to avoid overflow
	// when r is close to 2^63.
	if r >= den-r {
		q++
	}
	return q, false
}

// Convert implements spec §4.11 steps 1-4.
func Convert(p Params, valueCycles uint64) (Result, error) {
	if p.OffsetCycles >= p.FreqHz && p.FreqHz != 0 {
		return Result{}, cos.NewStatus(cos.KOverflow, "clockcvt", "offset_cycles must be < freq (invariant violated at freeze)", nil)
	}

	var res Result

	// step 2: base_ns = off_s * 1e9 + round(off_c * 1e9 / freq)
	offCPart, divErr1 := mulDivRoundU64(p.OffsetCycles, nsPerSec, p.FreqHz)
	baseSecNs, secOverflow := mulI64Checked(p.OffsetSec, nsPerSec)
	baseNs, addOverflow := addI64Checked(baseSecNs, int64(offCPart))
	if secOverflow || addOverflow || divErr1 || offCPart > math.MaxInt64 {
		res.BaseOverflows = true
	}

	// step 3: value_ns = round(value_cycles * 1e9 / freq); must be < 2^63
	valNsU, divErr2 := mulDivRoundU64(valueCycles, nsPerSec, p.FreqHz)
	if divErr2 || valNsU >= 1<<63 {
		res.Overflow = true
		return res, cos.NewStatus(cos.KOverflow, "clockcvt", "value_ns exceeds int64 range", nil)
	}
	valueNs := int64(valNsU)

	// step 4: base_ns + value_ns with additive overflow check
	total, overflow := addI64Checked(baseNs, valueNs)
	if overflow || res.BaseOverflows {
		res.Overflow = true
		return res, cos.NewStatus(cos.KOverflow, "clockcvt", "base_ns + value_ns overflows int64", nil)
	}
	res.NanosFromOrigin = total
	return res, nil
}

func mulI64Checked(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, false
	}
	r := a * b
	if r/b != a {
		return 0, true
	}
	return r, false
}

func addI64Checked(a, b int64) (int64, bool) {
	r := a + b
	if (b > 0 && r < a) || (b < 0 && r > a) {
		return 0, true
	}
	return r, false
}
