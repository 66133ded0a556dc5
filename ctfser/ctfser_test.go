package ctfser_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/efficios/babeltrace2-go/ctfser"
)

func TestOpenPacketWriteCloseFinalize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stream0")

	cache := ctfser.NewFDCache()
	w, err := ctfser.Open(path, cache)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.OpenPacket(); err != nil {
		t.Fatal(err)
	}

	if err := w.WriteUnsignedBits(0xDEAD, 16, 16, ctfser.LittleEndian); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteSignedBits(-1, 8, 8, ctfser.LittleEndian); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteFloat64(3.5, ctfser.LittleEndian); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteCString("hi"); err != nil {
		t.Fatal(err)
	}

	packetBits := w.OffsetInCurPacketBits()
	packetBytes := (packetBits + 7) / 8
	w.CloseCurrentPacket(packetBytes)

	if err := w.Finalize(); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() != packetBytes {
		t.Fatalf("want truncated size %d, got %d", packetBytes, info.Size())
	}
}

func TestBitfieldPackingUnaligned(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stream1")

	cache := ctfser.NewFDCache()
	w, err := ctfser.Open(path, cache)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.OpenPacket(); err != nil {
		t.Fatal(err)
	}

	// 0b101 (3 bits) then 0b1 (1 bit): byte 0 should read 0b00001101 = 0x0D
	// (LE: first field occupies the low 3 bits, second field the next bit).
	if err := w.WriteUnsignedBits(0b101, 3, 1, ctfser.LittleEndian); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteUnsignedBits(0b1, 1, 1, ctfser.LittleEndian); err != nil {
		t.Fatal(err)
	}
	w.CloseCurrentPacket(1)
	if err := w.Finalize(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 1 || data[0] != 0x0D {
		t.Fatalf("want [0x0D], got %v", data)
	}
}

func TestGrowsPacketAcrossInitialUnit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stream2")

	cache := ctfser.NewFDCache()
	w, err := ctfser.Open(path, cache)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.OpenPacket(); err != nil {
		t.Fatal(err)
	}

	// Page size * 8 bytes is the initial grow unit; write well past it to
	// force at least one increaseCurPacketSize call.
	n := os.Getpagesize()*8 + 4096
	for i := 0; i < n; i++ {
		if err := w.WriteUnsignedBits(0xFF, 8, 8, ctfser.LittleEndian); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}
	size := int64(n)
	w.CloseCurrentPacket(size)
	if err := w.Finalize(); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() != size {
		t.Fatalf("want %d, got %d", size, info.Size())
	}
}

// E3: open a serializer on a fresh file; open a packet; write 3 bits 0b101
// LE, align to 16 bits, write a 32-bit BE integer 0xDEADBEEF, close the
// packet with declared size = 8 bytes; finalize. The file is exactly 8
// bytes; reading back with matching alignments recovers 0b101 and
// 0xDEADBEEF.
func TestE3PacketRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "e3")

	cache := ctfser.NewFDCache()
	w, err := ctfser.Open(path, cache)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.OpenPacket(); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteUnsignedBits(0b101, 3, 1, ctfser.LittleEndian); err != nil {
		t.Fatal(err)
	}
	if err := w.AlignTo(16); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteUnsignedBits(0xDEADBEEF, 32, 16, ctfser.BigEndian); err != nil {
		t.Fatal(err)
	}
	w.CloseCurrentPacket(8)
	if err := w.Finalize(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 8 {
		t.Fatalf("want exactly 8 bytes, got %d", len(data))
	}
	if data[0]&0b111 != 0b101 {
		t.Fatalf("want low 3 bits 0b101, got byte0=%08b", data[0])
	}
	got := uint32(data[2])<<24 | uint32(data[3])<<16 | uint32(data[4])<<8 | uint32(data[5])
	if got != 0xDEADBEEF {
		t.Fatalf("want 0xDEADBEEF at the 16-bit-aligned offset, got %#x", got)
	}
}

// Regression: a second OpenPacket advances mmapOffset by the first packet's
// declared size (a multiple of 8 bytes), which is not page-aligned. mapWrite
// must still succeed and land bytes at the right file offset.
func TestMultiplePacketsPastFirst(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "multi")

	cache := ctfser.NewFDCache()
	w, err := ctfser.Open(path, cache)
	if err != nil {
		t.Fatal(err)
	}

	if err := w.OpenPacket(); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteUnsignedBits(0x11, 8, 8, ctfser.LittleEndian); err != nil {
		t.Fatal(err)
	}
	w.CloseCurrentPacket(8)

	if err := w.OpenPacket(); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteUnsignedBits(0x22, 8, 8, ctfser.LittleEndian); err != nil {
		t.Fatal(err)
	}
	w.CloseCurrentPacket(8)

	if err := w.OpenPacket(); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteUnsignedBits(0x33, 8, 8, ctfser.LittleEndian); err != nil {
		t.Fatal(err)
	}
	w.CloseCurrentPacket(8)

	if err := w.Finalize(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 24 {
		t.Fatalf("want 24 bytes, got %d", len(data))
	}
	if data[0] != 0x11 || data[8] != 0x22 || data[16] != 0x33 {
		t.Fatalf("want [0x11 ... 0x22 ... 0x33] at packet boundaries, got %v", data)
	}
}

// Regression: WriteAt over a non-zero placeholder must overwrite, not OR.
func TestWriteAtOverwritesNonZeroField(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rewrite")

	cache := ctfser.NewFDCache()
	w, err := ctfser.Open(path, cache)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.OpenPacket(); err != nil {
		t.Fatal(err)
	}
	// placeholder: all-ones byte, the worst case for stale-bit leakage.
	if err := w.WriteUnsignedBits(0xFF, 8, 8, ctfser.LittleEndian); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteAt(0, 0x04, 8, ctfser.LittleEndian); err != nil {
		t.Fatal(err)
	}
	w.CloseCurrentPacket(1)
	if err := w.Finalize(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 1 || data[0] != 0x04 {
		t.Fatalf("want [0x04] (overwritten, not OR'd with 0xFF), got %v", data)
	}
}

func TestFDCacheAcquireReleaseReuse(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shared")
	cache := ctfser.NewFDCache()

	f1, err := cache.Acquire(path)
	if err != nil {
		t.Fatal(err)
	}
	f2, err := cache.Acquire(path)
	if err != nil {
		t.Fatal(err)
	}
	if f1 != f2 {
		t.Fatal("expected the same *os.File to be reused while referenced")
	}
	cache.Release(path)
	cache.Release(path)
	cache.Close()
}
