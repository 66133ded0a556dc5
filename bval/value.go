// Package bval implements the JSON-like dynamic Value tree described in
// spec §3/§4.1: a tagged variant (null/bool/signed/unsigned/real/string/
// array/map) that is mutable until frozen, after which every mutator
// fails with cos.ErrFrozen. There is no direct teacher analog for a
// dynamic JSON-like value (aistore's closest relative, bucket property
// structs, are statically typed); this package is built in the teacher's
// general struct/method idiom (value receivers for cheap types, explicit
// error returns, a frozen bit threaded through every node) with
// json-iterator wired in for Export/Import and xxhash backing a
// structural-hash fast path ahead of Equal's deep array/map comparison,
// per the Domain Stack.
package bval

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/OneOfOne/xxhash"
	jsoniter "github.com/json-iterator/go"

	"github.com/efficios/babeltrace2-go/cmn/cos"
	"github.com/efficios/babeltrace2-go/cmn/debug"
)

type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindSignedInt
	KindUnsignedInt
	KindReal
	KindString
	KindArray
	KindMap
)

func (k Kind) String() string {
	return [...]string{"null", "bool", "signed-int", "unsigned-int", "real", "string", "array", "map"}[k]
}

// Value is the dynamic tree node. The zero Value is KindNull and is always
// treated as the shared singleton described in spec §4.1 ("a globally
// shared singleton represents null and is never destroyed") - callers
// never need to allocate one to represent null.
type Value struct {
	kind   Kind
	frozen bool

	b   bool
	i   int64
	u   uint64
	f   float64
	s   string
	arr []*Value
	m   map[string]*Value
	// mkeys preserves map insertion order for deterministic iteration and
	// Export, mirroring the teacher's preference for explicit slices over
	// relying on Go's randomized map iteration wherever order is visible.
	mkeys []string
}

var Null = &Value{kind: KindNull, frozen: true}

func NewBool(b bool) *Value           { return &Value{kind: KindBool, b: b} }
func NewSigned(i int64) *Value        { return &Value{kind: KindSignedInt, i: i} }
func NewUnsigned(u uint64) *Value     { return &Value{kind: KindUnsignedInt, u: u} }
func NewReal(f float64) *Value        { return &Value{kind: KindReal, f: f} }
func NewString(s string) *Value       { return &Value{kind: KindString, s: s} }
func NewArray(elems ...*Value) *Value { return &Value{kind: KindArray, arr: append([]*Value{}, elems...)} }
func NewMap() *Value                  { return &Value{kind: KindMap, m: map[string]*Value{}} }

func (v *Value) Kind() Kind    { return v.kind }
func (v *Value) IsFrozen() bool { return v.frozen }
func (v *Value) IsNull() bool  { return v == nil || v.kind == KindNull }

func (v *Value) Bool() (bool, bool)        { return v.b, v.kind == KindBool }
func (v *Value) Signed() (int64, bool)     { return v.i, v.kind == KindSignedInt }
func (v *Value) Unsigned() (uint64, bool)  { return v.u, v.kind == KindUnsignedInt }
func (v *Value) Real() (float64, bool)     { return v.f, v.kind == KindReal }
func (v *Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return fmt.Sprintf("%t", v.b)
	case KindSignedInt:
		return fmt.Sprintf("%d", v.i)
	case KindUnsignedInt:
		return fmt.Sprintf("%d", v.u)
	case KindReal:
		return fmt.Sprintf("%g", v.f)
	case KindString:
		return v.s
	case KindArray:
		return fmt.Sprintf("array[%d]", len(v.arr))
	case KindMap:
		return fmt.Sprintf("map[%d]", len(v.mkeys))
	default:
		return "?"
	}
}

func (v *Value) checkMutable() error {
	if v.frozen {
		return cos.NewErrFrozen(fmt.Sprintf("value(%s)", v.kind))
	}
	return nil
}

//
// array ops
//

func (v *Value) ArrayLen() int {
	debug.Assert(v.kind == KindArray)
	return len(v.arr)
}

func (v *Value) ArrayGet(i int) *Value {
	debug.Assert(v.kind == KindArray)
	if i < 0 || i >= len(v.arr) {
		return nil
	}
	return v.arr[i]
}

func (v *Value) ArrayAppend(elem *Value) error {
	debug.Assert(v.kind == KindArray)
	if err := v.checkMutable(); err != nil {
		return err
	}
	v.arr = append(v.arr, elem)
	return nil
}

func (v *Value) ArraySetAt(i int, elem *Value) error {
	debug.Assert(v.kind == KindArray)
	if err := v.checkMutable(); err != nil {
		return err
	}
	if i < 0 || i >= len(v.arr) {
		return fmt.Errorf("array index %d out of range [0,%d)", i, len(v.arr))
	}
	v.arr[i] = elem
	return nil
}

//
// map ops
//

func (v *Value) MapLen() int {
	debug.Assert(v.kind == KindMap)
	return len(v.mkeys)
}

func (v *Value) MapHas(key string) bool {
	debug.Assert(v.kind == KindMap)
	_, ok := v.m[key]
	return ok
}

func (v *Value) MapGet(key string) *Value {
	debug.Assert(v.kind == KindMap)
	return v.m[key]
}

func (v *Value) MapInsert(key string, val *Value) error {
	debug.Assert(v.kind == KindMap)
	if err := v.checkMutable(); err != nil {
		return err
	}
	if _, exists := v.m[key]; !exists {
		v.mkeys = append(v.mkeys, key)
	}
	v.m[key] = val
	return nil
}

// MapForEach iterates in insertion order; f returning false stops iteration
// early (spec §4.1's "iteration callback may request stop").
func (v *Value) MapForEach(f func(key string, val *Value) bool) {
	debug.Assert(v.kind == KindMap)
	for _, k := range v.mkeys {
		if !f(k, v.m[k]) {
			return
		}
	}
}

//
// freeze / copy / equal
//

func (v *Value) Freeze() {
	if v.frozen {
		return
	}
	v.frozen = true
	switch v.kind {
	case KindArray:
		for _, e := range v.arr {
			e.Freeze()
		}
	case KindMap:
		for _, k := range v.mkeys {
			v.m[k].Freeze()
		}
	}
}

// Copy produces a deep, mutable clone regardless of v's frozen state
// (spec §4.1: "Copy produces a deep, mutable clone").
func (v *Value) Copy() *Value {
	if v.IsNull() {
		return Null
	}
	cp := &Value{kind: v.kind, b: v.b, i: v.i, u: v.u, f: v.f, s: v.s}
	switch v.kind {
	case KindArray:
		cp.arr = make([]*Value, len(v.arr))
		for i, e := range v.arr {
			cp.arr[i] = e.Copy()
		}
	case KindMap:
		cp.m = make(map[string]*Value, len(v.m))
		cp.mkeys = append([]string{}, v.mkeys...)
		for _, k := range v.mkeys {
			cp.m[k] = v.m[k].Copy()
		}
	}
	return cp
}

// Hash returns a structural fingerprint such that Equal(a, b) implies
// Hash(a) == Hash(b) (the converse need not hold). Used as a cheap
// pre-check before deep-comparing arrays and maps.
func (v *Value) Hash() uint64 {
	if v.IsNull() {
		return xxhash.Checksum64([]byte{0})
	}
	switch v.kind {
	case KindBool:
		b := byte(0)
		if v.b {
			b = 1
		}
		return xxhash.Checksum64([]byte{1, b})
	case KindSignedInt:
		if v.i >= 0 {
			return hashCanonicalNumeric(uint64(v.i))
		}
		return xxhash.Checksum64(append([]byte{5}, uint64Bytes(uint64(v.i))...))
	case KindUnsignedInt:
		return hashCanonicalNumeric(v.u)
	case KindReal:
		f := v.f
		if f == 0 {
			f = 0 // fold -0.0 into +0.0: Equal treats them as equal
		}
		return xxhash.Checksum64(append([]byte{2}, uint64Bytes(math.Float64bits(f))...))
	case KindString:
		return xxhash.Checksum64(append([]byte{3}, cos.UnsafeB(v.s)...))
	case KindArray:
		buf := append([]byte{6}, uint64Bytes(uint64(len(v.arr)))...)
		for _, e := range v.arr {
			buf = append(buf, uint64Bytes(e.Hash())...)
		}
		return xxhash.Checksum64(buf)
	case KindMap:
		// XOR-combined so hash doesn't depend on insertion order, matching
		// Equal's order-independent map comparison.
		var acc uint64
		for _, k := range v.mkeys {
			kh := xxhash.Checksum64(cos.UnsafeB(k))
			acc ^= kh*1099511628211 ^ v.m[k].Hash()
		}
		return acc ^ uint64(len(v.mkeys))
	default:
		return 0
	}
}

func hashCanonicalNumeric(u uint64) uint64 {
	return xxhash.Checksum64(append([]byte{4}, uint64Bytes(u)...))
}

func uint64Bytes(u uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], u)
	return b[:]
}

// Equal is structural. Per spec §4.1, comparison across signedness is
// false unless both sides are representable in the other domain. Array
// and map comparisons are hash-gated first: Hash's cross-sign-aware
// encoding guarantees the gate never produces a false "not equal".
func Equal(a, b *Value) bool {
	if a.IsNull() || b.IsNull() {
		return a.IsNull() && b.IsNull()
	}
	if a.kind == b.kind && (a.kind == KindArray || a.kind == KindMap) && a.Hash() != b.Hash() {
		return false
	}
	if a.kind != b.kind {
		return crossSignEqual(a, b)
	}
	switch a.kind {
	case KindBool:
		return a.b == b.b
	case KindSignedInt:
		return a.i == b.i
	case KindUnsignedInt:
		return a.u == b.u
	case KindReal:
		return a.f == b.f
	case KindString:
		return a.s == b.s
	case KindArray:
		if len(a.arr) != len(b.arr) {
			return false
		}
		for i := range a.arr {
			if !Equal(a.arr[i], b.arr[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(a.mkeys) != len(b.mkeys) {
			return false
		}
		for _, k := range a.mkeys {
			bv, ok := b.m[k]
			if !ok || !Equal(a.m[k], bv) {
				return false
			}
		}
		return true
	default:
		return true // both null, handled above
	}
}

func crossSignEqual(a, b *Value) bool {
	si, ui := a, b
	if a.kind == KindUnsignedInt {
		si, ui = b, a
	}
	if si.kind != KindSignedInt || ui.kind != KindUnsignedInt {
		return false
	}
	if si.i < 0 {
		return false // negative signed value never equals an unsigned one
	}
	return uint64(si.i) == ui.u
}

//
// json-iterator import/export (Domain Stack)
//

func Export(v *Value) ([]byte, error) {
	return jsoniter.Marshal(toAny(v))
}

func toAny(v *Value) any {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.b
	case KindSignedInt:
		return v.i
	case KindUnsignedInt:
		return v.u
	case KindReal:
		return v.f
	case KindString:
		return v.s
	case KindArray:
		out := make([]any, len(v.arr))
		for i, e := range v.arr {
			out[i] = toAny(e)
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.mkeys))
		for _, k := range v.mkeys {
			out[k] = toAny(v.m[k])
		}
		return out
	default:
		return nil
	}
}

func Import(data []byte) (*Value, error) {
	var x any
	if err := jsoniter.Unmarshal(data, &x); err != nil {
		return nil, err
	}
	return fromAny(x), nil
}

func fromAny(x any) *Value {
	switch t := x.(type) {
	case nil:
		return Null
	case bool:
		return NewBool(t)
	case float64:
		if t == float64(int64(t)) {
			return NewSigned(int64(t))
		}
		return NewReal(t)
	case string:
		return NewString(t)
	case []any:
		v := NewArray()
		for _, e := range t {
			v.arr = append(v.arr, fromAny(e))
		}
		return v
	case map[string]any:
		v := NewMap()
		for k, e := range t {
			_ = v.MapInsert(k, fromAny(e))
		}
		return v
	default:
		return Null
	}
}
