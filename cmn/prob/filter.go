// Package prob implements a bounded, approximate membership filter used as
// a cheap pre-check in front of an exact lookup - never as a substitute
// for one. A false positive here only costs an extra map probe; a false
// negative would be a correctness bug, which is why Filter never reports
// "definitely absent" without the caller falling through to the exact
// check it guards.
package prob

import (
	cuckoo "github.com/seiflotfy/cuckoofilter"

	"github.com/efficios/babeltrace2-go/cmn/cos"
)

// Filter wraps a cuckoo filter sized for a validator pass over one
// StreamClass/EventClass tree: it never grows past the capacity given at
// construction, matching the validator's single-pass, bounded-tree usage.
type Filter struct {
	cf *cuckoo.Filter
}

func NewFilter(capacity uint) *Filter {
	return &Filter{cf: cuckoo.NewFilter(capacity)}
}

// MightContain reports true if key may have been added (false positives
// possible); false is a hard guarantee of absence.
func (f *Filter) MightContain(key string) bool {
	return f.cf.Lookup(cos.UnsafeB(key))
}

func (f *Filter) Add(key string) { f.cf.InsertUnique(cos.UnsafeB(key)) }

func (f *Filter) Delete(key string) bool { return f.cf.Delete(cos.UnsafeB(key)) }

func (f *Filter) Count() uint { return f.cf.Count() }

func (f *Filter) Reset() { f.cf.Reset() }
