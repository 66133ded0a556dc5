// Package core implements the Trace IR instance side of spec §3/§4.3:
// Field, Event, Packet, Stream, Trace, ClockSnapshot. Modeled on the
// teacher's core/lom.go refcounted-instance pattern (a small header plus
// on-demand fields, created/recycled through a package-level pool,
// interface-guarded against the types it must satisfy) generalized from
// aistore's single LOM type to the family of pooled instance types this
// domain needs.
package core

import (
	"fmt"

	"github.com/efficios/babeltrace2-go/cmn/cos"
	"github.com/efficios/babeltrace2-go/cmn/debug"
	"github.com/efficios/babeltrace2-go/ir"
)

// Field is an instance of a FieldClass (spec §3 "Field"). Storage matches
// the FieldClass's kind; mutation is permitted only while the owning
// message has not yet been emitted (enforced by the caller checking
// Event/Packet's frozen bit, not by Field itself, since a Field has no
// single parent type to consult in isolation).
type Field struct {
	fc *ir.FieldClass // weak: owned by the class tree, outlives every Field

	b   bool
	i   int64
	u   uint64
	f   float64
	s   string

	arr []*Field // static/dynamic-array elements, structure members in FC order

	// option: present reports whether the content field was set.
	present bool

	// variant: selected reports which option (by index into fc.Options())
	// is active.
	selected int
}

// NewField allocates a zero-valued Field matching fc's shape.
func NewField(fc *ir.FieldClass) *Field {
	fd := &Field{fc: fc}
	switch fc.Kind() {
	case ir.FCStructure:
		fd.arr = make([]*Field, len(fc.Members()))
		for i, m := range fc.Members() {
			fd.arr[i] = NewField(m.FC)
		}
	case ir.FCStaticArray:
		fd.arr = make([]*Field, fc.ArrayLength())
		for i := range fd.arr {
			fd.arr[i] = NewField(fc.ElementFC())
		}
	case ir.FCDynamicArray:
		fd.arr = nil
	case ir.FCVariant:
		fd.selected = -1
	}
	return fd
}

func (fd *Field) FieldClass() *ir.FieldClass { return fd.fc }

func (fd *Field) SetBool(v bool) error {
	if err := fd.checkKind(ir.FCBool); err != nil {
		return err
	}
	fd.b = v
	return nil
}

func (fd *Field) Bool() bool { return fd.b }

func (fd *Field) SetSigned(v int64) error {
	if err := fd.checkKind(ir.FCSignedInteger); err != nil {
		return err
	}
	if bw := fd.fc.BitWidth(); bw < 64 {
		lo := -(int64(1) << (bw - 1))
		hi := (int64(1) << (bw - 1)) - 1
		if v < lo || v > hi {
			return fmt.Errorf("signed value %d out of range for bit-width %d", v, bw)
		}
	}
	fd.i = v
	return nil
}

func (fd *Field) Signed() int64 { return fd.i }

func (fd *Field) SetUnsigned(v uint64) error {
	if err := fd.checkKind(ir.FCUnsignedInteger); err != nil {
		return err
	}
	if bw := fd.fc.BitWidth(); bw < 64 {
		hi := uint64(1)<<bw - 1
		if v > hi {
			return fmt.Errorf("unsigned value %d out of range for bit-width %d", v, bw)
		}
	}
	fd.u = v
	return nil
}

func (fd *Field) Unsigned() uint64 { return fd.u }

func (fd *Field) SetReal(v float64) error {
	if err := fd.checkKind(ir.FCReal); err != nil {
		return err
	}
	fd.f = v
	return nil
}

func (fd *Field) Real() float64 { return fd.f }

func (fd *Field) SetString(v string) error {
	if err := fd.checkKind(ir.FCString); err != nil {
		return err
	}
	fd.s = v
	return nil
}

func (fd *Field) String() string { return fd.s }

// SetEnumUnsigned/SetEnumSigned set an enumeration field's underlying
// integer value; the active label(s) are derived on read via fc's mapping.
func (fd *Field) SetEnumUnsigned(v uint64) error {
	if err := fd.checkKind(ir.FCEnumeration); err != nil {
		return err
	}
	fd.u = v
	return nil
}

func (fd *Field) SetEnumSigned(v int64) error {
	if err := fd.checkKind(ir.FCEnumeration); err != nil {
		return err
	}
	fd.i = v
	return nil
}

// ActiveLabels returns every enumeration label whose range-set contains
// the field's current value.
func (fd *Field) ActiveLabels() []string {
	debug.Assert(fd.fc.Kind() == ir.FCEnumeration, "ActiveLabels on non-enumeration field")
	var v int64
	if fd.fc.EnumSigned() {
		v = fd.i
	} else {
		v = int64(fd.u)
	}
	var out []string
	for _, label := range fd.fc.EnumLabels() {
		if fd.fc.EnumMappings()[label].Contains(v) {
			out = append(out, label)
		}
	}
	return out
}

func (fd *Field) StructureMember(i int) *Field {
	debug.Assert(fd.fc.Kind() == ir.FCStructure, "StructureMember on non-structure field")
	return fd.arr[i]
}

func (fd *Field) StructureMemberByName(name string) *Field {
	debug.Assert(fd.fc.Kind() == ir.FCStructure, "StructureMemberByName on non-structure field")
	for i, m := range fd.fc.Members() {
		if m.Name == name {
			return fd.arr[i]
		}
	}
	return nil
}

func (fd *Field) ArrayLen() int {
	debug.Assert(fd.fc.Kind() == ir.FCStaticArray || fd.fc.Kind() == ir.FCDynamicArray, "ArrayLen on non-array field")
	return len(fd.arr)
}

func (fd *Field) ArrayGet(i int) *Field { return fd.arr[i] }

// SetDynamicArrayLength (re)allocates a dynamic-array's elements; the
// length selector field itself is resolved and set by the caller per the
// FieldClass's LengthPath, since Field has no scope context of its own.
func (fd *Field) SetDynamicArrayLength(n int) error {
	if err := fd.checkKind(ir.FCDynamicArray); err != nil {
		return err
	}
	fd.arr = make([]*Field, n)
	for i := range fd.arr {
		fd.arr[i] = NewField(fd.fc.ElementFC())
	}
	return nil
}

func (fd *Field) OptionContent() *Field {
	debug.Assert(fd.fc.Kind() == ir.FCOption, "OptionContent on non-option field")
	if !fd.present {
		return nil
	}
	if fd.arr == nil {
		fd.arr = []*Field{NewField(fd.fc.ElementFC())}
	}
	return fd.arr[0]
}

func (fd *Field) SetOptionPresent(present bool) error {
	if err := fd.checkKind(ir.FCOption); err != nil {
		return err
	}
	fd.present = present
	return nil
}

func (fd *Field) SelectVariant(optionIndex int) error {
	if err := fd.checkKind(ir.FCVariant); err != nil {
		return err
	}
	if optionIndex < 0 || optionIndex >= len(fd.fc.Options()) {
		return fmt.Errorf("variant option index %d out of range", optionIndex)
	}
	fd.selected = optionIndex
	if fd.arr == nil {
		fd.arr = make([]*Field, len(fd.fc.Options()))
	}
	if fd.arr[optionIndex] == nil {
		fd.arr[optionIndex] = NewField(fd.fc.Options()[optionIndex].FC)
	}
	return nil
}

func (fd *Field) SelectedVariant() *Field {
	debug.Assert(fd.fc.Kind() == ir.FCVariant, "SelectedVariant on non-variant field")
	if fd.selected < 0 {
		return nil
	}
	return fd.arr[fd.selected]
}

func (fd *Field) checkKind(want ir.FieldClassKind) error {
	if fd.fc.Kind() != want {
		return cos.NewStatus(cos.KUnsupported, "core.Field", fmt.Sprintf("field kind %s does not accept a %s value", fd.fc.Kind(), want), nil)
	}
	return nil
}

// reset clears transient value state for pool recycling and points the
// weak FieldClass back-pointer at fc.
func (fd *Field) reset(fc *ir.FieldClass) {
	fd.fc = fc
	fd.b, fd.i, fd.u, fd.f, fd.s = false, 0, 0, 0, ""
	fd.present = false
	fd.selected = -1
	fd.arr = nil
}
