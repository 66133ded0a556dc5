// Package ir implements the Trace IR schema types of spec §3/§4.3
// (instances live in package core): FieldClass, FieldPath, ClockClass, EventClass, StreamClass,
// TraceClass on the schema side. Modeled on the teacher's core/meta value-
// type wrapper pattern (meta.Bck: a thin, validated wrapper with an Init/
// freeze lifecycle and debug.Assert-guarded invariants) and on bval's
// tagged-variant-in-one-struct layout for FieldClass, since a full
// interface-per-variant hierarchy would scatter the kind-dispatch logic the
// teacher keeps centralized.
package ir

import (
	"fmt"

	"github.com/efficios/babeltrace2-go/cmn/cos"
	"github.com/efficios/babeltrace2-go/cmn/debug"
	"github.com/efficios/babeltrace2-go/object"
)

type FieldClassKind int

const (
	FCBool FieldClassKind = iota
	FCUnsignedInteger
	FCSignedInteger
	FCReal
	FCEnumeration
	FCString
	FCStructure
	FCStaticArray
	FCDynamicArray
	FCOption
	FCVariant
)

func (k FieldClassKind) String() string {
	switch k {
	case FCBool:
		return "bool"
	case FCUnsignedInteger:
		return "unsigned-integer"
	case FCSignedInteger:
		return "signed-integer"
	case FCReal:
		return "real"
	case FCEnumeration:
		return "enumeration"
	case FCString:
		return "string"
	case FCStructure:
		return "structure"
	case FCStaticArray:
		return "static-array"
	case FCDynamicArray:
		return "dynamic-array"
	case FCOption:
		return "option"
	case FCVariant:
		return "variant"
	default:
		return "?"
	}
}

type DisplayBase int

const (
	DisplayBin DisplayBase = iota
	DisplayOct
	DisplayDec
	DisplayHex
)

// StructureMember is one named entry of a structure FieldClass.
type StructureMember struct {
	Name string
	FC   *FieldClass
}

// VariantOption is one (name, fc, selector-range-set) entry of a variant
// FieldClass, per spec §3.
type VariantOption struct {
	Name  string
	FC    *FieldClass
	Range *RangeSet
}

// FieldClass is a schema node of the trace IR (spec §3 "FieldClass"). It is
// mutable until the validator freezes it (spec §4.3: "Validation produces
// copied, frozen field-class trees that replace the originals"), after
// which every mutator returns cos.ErrFrozen. Embeds object.Base since class
// objects are refcounted and destroyed on last reference drop (spec
// "Lifecycles").
type FieldClass struct {
	object.Base

	kind FieldClassKind

	// unsigned/signed-integer, enumeration
	bitWidth int
	base     DisplayBase

	// real
	is64 bool

	// enumeration
	enumSigned bool
	enumLabels []string // insertion order
	enumRanges map[string]*RangeSet

	// structure
	members []StructureMember

	// static/dynamic array, option
	elem       *FieldClass
	arrayLen   int        // static-array only
	lengthPath *FieldPath // dynamic-array only, optional
	selector   *FieldPath // option/variant

	// variant
	options []VariantOption

	// unsigned/signed-integer: optional mapping to a clock class, used by
	// the validator's clock-class-uniqueness check (spec §4.3).
	mappedClock *ClockClass
}

func NewBoolFC() *FieldClass { return &FieldClass{kind: FCBool} }

func NewUnsignedIntegerFC(bitWidth int, base DisplayBase) *FieldClass {
	debug.Assert(bitWidth > 0 && bitWidth <= 64, "bit-width must be in (0,64]")
	return &FieldClass{kind: FCUnsignedInteger, bitWidth: bitWidth, base: base}
}

func NewSignedIntegerFC(bitWidth int, base DisplayBase) *FieldClass {
	debug.Assert(bitWidth > 0 && bitWidth <= 64, "bit-width must be in (0,64]")
	return &FieldClass{kind: FCSignedInteger, bitWidth: bitWidth, base: base}
}

func NewRealFC(is64 bool) *FieldClass { return &FieldClass{kind: FCReal, is64: is64} }

func NewEnumerationFC(bitWidth int, signed bool) *FieldClass {
	return &FieldClass{
		kind:       FCEnumeration,
		bitWidth:   bitWidth,
		enumSigned: signed,
		enumRanges: map[string]*RangeSet{},
	}
}

func NewStringFC() *FieldClass { return &FieldClass{kind: FCString} }

func NewStructureFC() *FieldClass { return &FieldClass{kind: FCStructure} }

func NewStaticArrayFC(elem *FieldClass, length int) *FieldClass {
	return &FieldClass{kind: FCStaticArray, elem: elem, arrayLen: length}
}

func NewDynamicArrayFC(elem *FieldClass, lengthPath *FieldPath) *FieldClass {
	return &FieldClass{kind: FCDynamicArray, elem: elem, lengthPath: lengthPath}
}

func NewOptionFC(content *FieldClass, selector *FieldPath) *FieldClass {
	return &FieldClass{kind: FCOption, elem: content, selector: selector}
}

func NewVariantFC(selector *FieldPath) *FieldClass {
	return &FieldClass{kind: FCVariant, selector: selector}
}

func (fc *FieldClass) Kind() FieldClassKind { return fc.kind }
func (fc *FieldClass) BitWidth() int        { return fc.bitWidth }
func (fc *FieldClass) DisplayBase() DisplayBase { return fc.base }
func (fc *FieldClass) Is64() bool           { return fc.is64 }
func (fc *FieldClass) ElementFC() *FieldClass { return fc.elem }
func (fc *FieldClass) ArrayLength() int     { return fc.arrayLen }
func (fc *FieldClass) LengthPath() *FieldPath { return fc.lengthPath }
func (fc *FieldClass) Selector() *FieldPath { return fc.selector }
func (fc *FieldClass) Members() []StructureMember { return fc.members }
func (fc *FieldClass) Options() []VariantOption   { return fc.options }
func (fc *FieldClass) EnumSigned() bool           { return fc.enumSigned }

// SetMappedClockClass attaches a clock class to an integer FieldClass, per
// the CTF convention of mapping an integer field's value to clock cycles.
func (fc *FieldClass) SetMappedClockClass(cc *ClockClass) error {
	debug.Assert(fc.kind == FCUnsignedInteger || fc.kind == FCSignedInteger, "mapped clock class only valid on integer field classes")
	if err := fc.checkMutable(); err != nil {
		return err
	}
	fc.mappedClock = cc
	return nil
}

func (fc *FieldClass) MappedClockClass() *ClockClass { return fc.mappedClock }

func (fc *FieldClass) checkMutable() error {
	if fc.IsFrozen() {
		return cos.NewErrFrozen(fmt.Sprintf("field-class(%s)", fc.kind))
	}
	return nil
}

// AppendMember adds a named member to a structure FieldClass, in order.
func (fc *FieldClass) AppendMember(name string, member *FieldClass) error {
	debug.Assert(fc.kind == FCStructure, "AppendMember on non-structure field class")
	if err := fc.checkMutable(); err != nil {
		return err
	}
	for _, m := range fc.members {
		if m.Name == name {
			return fmt.Errorf("duplicate structure member %q", name)
		}
	}
	fc.members = append(fc.members, StructureMember{Name: name, FC: member})
	return nil
}

// AddMapping adds a label -> range-set mapping to an enumeration FieldClass.
func (fc *FieldClass) AddMapping(label string, rs *RangeSet) error {
	debug.Assert(fc.kind == FCEnumeration, "AddMapping on non-enumeration field class")
	if err := fc.checkMutable(); err != nil {
		return err
	}
	if len(rs.Ranges) == 0 {
		return fmt.Errorf("enumeration range-set for label %q is empty", label)
	}
	if rs.Signed != fc.enumSigned {
		return fmt.Errorf("enumeration range-set signedness mismatch for label %q", label)
	}
	if !rs.WithinBitWidth(fc.bitWidth) {
		return fmt.Errorf("enumeration range-set for label %q exceeds bit-width %d", label, fc.bitWidth)
	}
	if _, exists := fc.enumRanges[label]; !exists {
		fc.enumLabels = append(fc.enumLabels, label)
	}
	fc.enumRanges[label] = rs
	return nil
}

func (fc *FieldClass) EnumMappings() map[string]*RangeSet { return fc.enumRanges }
func (fc *FieldClass) EnumLabels() []string                { return fc.enumLabels }

// AppendOption adds a (name, fc, range) entry to a variant FieldClass,
// rejecting range-sets that overlap an already-registered option (spec
// §4.3 "duplicate mappings across options are rejected").
func (fc *FieldClass) AppendOption(name string, opt *FieldClass, rangeSet *RangeSet) error {
	debug.Assert(fc.kind == FCVariant, "AppendOption on non-variant field class")
	if err := fc.checkMutable(); err != nil {
		return err
	}
	for _, existing := range fc.options {
		if existing.Name == name {
			return fmt.Errorf("duplicate variant option %q", name)
		}
		if existing.Range.Overlaps(rangeSet) {
			return fmt.Errorf("variant option %q range-set overlaps option %q", name, existing.Name)
		}
	}
	fc.options = append(fc.options, VariantOption{Name: name, FC: opt, Range: rangeSet})
	return nil
}

// Freeze recursively marks fc and every child FieldClass immutable.
func (fc *FieldClass) Freeze() {
	if fc.IsFrozen() {
		return
	}
	fc.Base.Freeze()
	switch fc.kind {
	case FCStructure:
		for _, m := range fc.members {
			m.FC.Freeze()
		}
	case FCStaticArray, FCDynamicArray, FCOption:
		if fc.elem != nil {
			fc.elem.Freeze()
		}
	case FCVariant:
		for _, o := range fc.options {
			o.FC.Freeze()
		}
	}
}

// Copy produces a deep, mutable clone, used by the validator to build the
// frozen trees it substitutes into the owning class (spec §4.3).
func (fc *FieldClass) Copy() *FieldClass {
	cp := &FieldClass{
		kind:       fc.kind,
		bitWidth:   fc.bitWidth,
		base:       fc.base,
		is64:       fc.is64,
		enumSigned: fc.enumSigned,
		arrayLen:   fc.arrayLen,
		lengthPath:  fc.lengthPath,
		selector:    fc.selector,
		mappedClock: fc.mappedClock,
	}
	if fc.enumRanges != nil {
		cp.enumLabels = append([]string{}, fc.enumLabels...)
		cp.enumRanges = make(map[string]*RangeSet, len(fc.enumRanges))
		for k, v := range fc.enumRanges {
			rs := *v
			rs.Ranges = append([]Range{}, v.Ranges...)
			cp.enumRanges[k] = &rs
		}
	}
	for _, m := range fc.members {
		cp.members = append(cp.members, StructureMember{Name: m.Name, FC: m.FC.Copy()})
	}
	if fc.elem != nil {
		cp.elem = fc.elem.Copy()
	}
	for _, o := range fc.options {
		cp.options = append(cp.options, VariantOption{Name: o.Name, FC: o.FC.Copy(), Range: o.Range})
	}
	return cp
}
