package ctfser

import (
	"math"

	"github.com/efficios/babeltrace2-go/cmn/cos"
)

// AlignTo pads the cursor up to the next multiple of alignBits (spec
// §4.10 "aligns offset_in_cur_packet_bits to the field's natural
// alignment"). alignBits of 1 is a no-op.
func (w *Writer) AlignTo(alignBits int) error {
	if err := w.checkPoisoned(); err != nil {
		return err
	}
	if alignBits <= 1 {
		return nil
	}
	rem := w.offsetInCurPacketBits % int64(alignBits)
	if rem == 0 {
		return nil
	}
	pad := int64(alignBits) - rem
	if err := w.ensureBitCapacity(pad); err != nil {
		return err
	}
	w.offsetInCurPacketBits += pad
	return nil
}

// WriteUnsignedBits writes the low bitWidth bits of value (1..=64),
// first aligning to alignBits, growing the packet if the write would
// overflow it (spec §4.10 "Primitive writes").
func (w *Writer) WriteUnsignedBits(value uint64, bitWidth, alignBits int, order ByteOrder) error {
	if err := w.checkPoisoned(); err != nil {
		return err
	}
	if err := w.AlignTo(alignBits); err != nil {
		return err
	}
	if err := w.ensureBitCapacity(int64(bitWidth)); err != nil {
		return err
	}
	if bitWidth < 64 {
		value &= (uint64(1) << uint(bitWidth)) - 1
	}
	switch order {
	case BigEndian:
		w.packBitsBE(value, bitWidth)
	default:
		w.packBitsLE(value, bitWidth)
	}
	return nil
}

// WriteSignedBits writes value's two's-complement representation in the
// low bitWidth bits.
func (w *Writer) WriteSignedBits(value int64, bitWidth, alignBits int, order ByteOrder) error {
	var u uint64
	if bitWidth >= 64 {
		u = uint64(value)
	} else {
		u = uint64(value) & ((uint64(1) << uint(bitWidth)) - 1)
	}
	return w.WriteUnsignedBits(u, bitWidth, alignBits, order)
}

// WriteFloat32 writes value's IEEE-754 bit pattern, aligned to 32 bits.
func (w *Writer) WriteFloat32(value float32, order ByteOrder) error {
	return w.WriteUnsignedBits(uint64(math.Float32bits(value)), 32, 32, order)
}

// WriteFloat64 writes value's IEEE-754 bit pattern, byte-aligned.
func (w *Writer) WriteFloat64(value float64, order ByteOrder) error {
	return w.WriteUnsignedBits(math.Float64bits(value), 64, 8, order)
}

// WriteFixedCharArray writes exactly length bytes, byte-aligned, from s
// truncated or zero-padded to fit.
func (w *Writer) WriteFixedCharArray(s string, length int) error {
	if err := w.AlignTo(8); err != nil {
		return err
	}
	for i := 0; i < length; i++ {
		var b byte
		if i < len(s) {
			b = s[i]
		}
		if err := w.WriteUnsignedBits(uint64(b), 8, 1, LittleEndian); err != nil {
			return err
		}
	}
	return nil
}

// WriteCString writes s followed by a NUL terminator, byte-aligned.
func (w *Writer) WriteCString(s string) error {
	if err := w.AlignTo(8); err != nil {
		return err
	}
	for i := 0; i < len(s); i++ {
		if err := w.WriteUnsignedBits(uint64(s[i]), 8, 1, LittleEndian); err != nil {
			return err
		}
	}
	return w.WriteUnsignedBits(0, 8, 1, LittleEndian)
}

// WriteAt writes bitWidth bits of value at an absolute bit offset within
// the still-mapped current packet, without moving the write cursor (spec
// §4.10 "the serializer exposes an absolute-offset write" for rewriting a
// packet's header fields just before close).
func (w *Writer) WriteAt(bitOffset int64, value uint64, bitWidth int, order ByteOrder) error {
	if err := w.checkPoisoned(); err != nil {
		return err
	}
	if bitOffset+int64(bitWidth) > int64(len(w.base))*8-w.mapAlignDelta*8 {
		return cos.NewStatus(cos.KIoError, "ctfser", "absolute write falls outside the mapped packet", nil)
	}
	if bitWidth < 64 {
		value &= (uint64(1) << uint(bitWidth)) - 1
	}
	// WriteAt rewrites a field that may already hold a non-zero placeholder
	// (e.g. a packet's declared-size header written once and patched at
	// close); clear the target range first so packing ORs into zeros instead
	// of leaving stale bits behind as old|new.
	w.clearBits(bitOffset, bitWidth)
	saved := w.offsetInCurPacketBits
	w.offsetInCurPacketBits = bitOffset
	switch order {
	case BigEndian:
		w.packBitsBE(value, bitWidth)
	default:
		w.packBitsLE(value, bitWidth)
	}
	w.offsetInCurPacketBits = saved
	return nil
}

// clearBits zeroes the nbits starting at packet-relative bit position pos,
// so a subsequent OR-based pack overwrites rather than merges with whatever
// was previously there.
func (w *Writer) clearBits(pos int64, nbits int) {
	abs := w.mapAlignDelta*8 + pos
	for i := 0; i < nbits; i++ {
		byteIdx := abs / 8
		bitInByte := uint(abs % 8)
		w.base[byteIdx] &^= 1 << bitInByte
		abs++
	}
}

// packBitsLE packs nbits of value starting at the cursor, least
// significant bit first, the common CTF little-endian bitfield layout:
// each emitted bit lands in the lowest still-unwritten bit position,
// byte-chunked for speed. Positions are packet-relative; mapAlignDelta
// shifts them to the actual offset within base, since base starts at a
// page boundary that may sit before the packet's first byte.
func (w *Writer) packBitsLE(value uint64, nbits int) {
	pos := w.mapAlignDelta*8 + w.offsetInCurPacketBits
	remaining := nbits
	v := value
	for remaining > 0 {
		byteIdx := pos / 8
		bitInByte := uint(pos % 8)
		free := 8 - int(bitInByte)
		n := remaining
		if n > free {
			n = free
		}
		mask := byte((uint64(1) << uint(n)) - 1)
		bits := byte(v&uint64(mask)) << bitInByte
		w.base[byteIdx] |= bits
		v >>= uint(n)
		pos += int64(n)
		remaining -= n
	}
	w.offsetInCurPacketBits += int64(nbits)
}

// packBitsBE packs nbits of value starting at the cursor, most
// significant bit first. Big-endian bitfields are rare in practice, so
// this path favors clarity (one bit at a time) over packBitsLE's
// byte-chunking.
func (w *Writer) packBitsBE(value uint64, nbits int) {
	pos := w.mapAlignDelta*8 + w.offsetInCurPacketBits
	for i := nbits - 1; i >= 0; i-- {
		byteIdx := pos / 8
		bitInByte := uint(pos % 8)
		bit := byte((value >> uint(i)) & 1)
		w.base[byteIdx] |= bit << (7 - bitInByte)
		pos++
	}
	w.offsetInCurPacketBits += int64(nbits)
}
