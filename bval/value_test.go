package bval_test

import (
	"testing"

	"github.com/efficios/babeltrace2-go/bval"
)

func TestFreezeRejectsMutation(t *testing.T) {
	m := bval.NewMap()
	if err := m.MapInsert("x", bval.NewSigned(1)); err != nil {
		t.Fatalf("insert before freeze: %v", err)
	}
	m.Freeze()
	if err := m.MapInsert("y", bval.NewSigned(2)); err == nil {
		t.Fatal("expected FrozenWrite error after freeze")
	}
}

func TestCopyEqual(t *testing.T) {
	v := bval.NewArray(bval.NewSigned(1), bval.NewString("a"))
	cp := v.Copy()
	if !bval.Equal(v, cp) {
		t.Fatal("copy must equal original")
	}
	_ = cp.ArrayAppend(bval.NewBool(true))
	if bval.Equal(v, cp) {
		t.Fatal("copy must be independently mutable")
	}
}

func TestCrossSignEquality(t *testing.T) {
	s := bval.NewSigned(5)
	u := bval.NewUnsigned(5)
	if !bval.Equal(s, u) {
		t.Fatal("5 (signed) should equal 5 (unsigned)")
	}
	neg := bval.NewSigned(-1)
	if bval.Equal(neg, u) {
		t.Fatal("negative signed must never equal an unsigned value")
	}
}

func TestNullSingleton(t *testing.T) {
	if !bval.Null.IsNull() {
		t.Fatal("Null must report IsNull")
	}
	var zero *bval.Value
	if !zero.IsNull() {
		t.Fatal("nil *Value must report IsNull (treated as the shared singleton)")
	}
}

func TestHashStableAcrossMapInsertionOrder(t *testing.T) {
	a := bval.NewMap()
	_ = a.MapInsert("x", bval.NewSigned(1))
	_ = a.MapInsert("y", bval.NewUnsigned(2))

	b := bval.NewMap()
	_ = b.MapInsert("y", bval.NewSigned(2))
	_ = b.MapInsert("x", bval.NewUnsigned(1))

	if a.Hash() != b.Hash() {
		t.Fatal("hash must not depend on map insertion order or signedness of equal values")
	}
	if !bval.Equal(a, b) {
		t.Fatal("maps with the same entries in different order and signedness must be equal")
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	m := bval.NewMap()
	_ = m.MapInsert("name", bval.NewString("host"))
	_ = m.MapInsert("pid", bval.NewSigned(42))
	data, err := bval.Export(m)
	if err != nil {
		t.Fatal(err)
	}
	back, err := bval.Import(data)
	if err != nil {
		t.Fatal(err)
	}
	if back.MapGet("name").String() != "host" {
		t.Fatalf("got %q", back.MapGet("name").String())
	}
}
