package ir

// RootScope enumerates the visible scopes a FieldPath can resolve against,
// per spec §4.3 ("walking the declared scopes ... visible at the referring
// site").
type RootScope int

const (
	ScopePacketHeader RootScope = iota
	ScopePacketContext
	ScopeEventHeader
	ScopeEventCommonContext
	ScopeEventSpecificContext
	ScopeEventPayload
)

func (s RootScope) String() string {
	switch s {
	case ScopePacketHeader:
		return "packet-header"
	case ScopePacketContext:
		return "packet-context"
	case ScopeEventHeader:
		return "event-header"
	case ScopeEventCommonContext:
		return "event-common-context"
	case ScopeEventSpecificContext:
		return "event-specific-context"
	case ScopeEventPayload:
		return "event-payload"
	default:
		return "?"
	}
}

// FieldPath is an ordered (root-scope, indices...) reference used by
// dynamic-array length, option selector, and variant selector fields (spec
// §3 "FieldPath").
type FieldPath struct {
	Root    RootScope
	Indices []int
}

func NewFieldPath(root RootScope, indices ...int) *FieldPath {
	return &FieldPath{Root: root, Indices: append([]int{}, indices...)}
}
