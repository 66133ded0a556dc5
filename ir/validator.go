package ir

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/efficios/babeltrace2-go/cmn/prob"
)

// resolvedPathCache memoizes field-path resolution within one
// ValidateEventClass call: resolvePaths and checkVariantCoverage both
// resolve a variant's selector path, and a cuckoo filter pre-check guards
// the exact map lookup the same way the teacher's bucket-name lookups
// probe a filter before hitting the exact index (spec §4.3 validation is a
// single bounded pass over one event class's field-class trees, so the
// filter is sized and discarded per call rather than kept process-wide).
type resolvedPathCache struct {
	filter *prob.Filter
	exact  map[string]*FieldClass
}

func newResolvedPathCache() *resolvedPathCache {
	return &resolvedPathCache{filter: prob.NewFilter(64), exact: map[string]*FieldClass{}}
}

func pathKey(path *FieldPath) string {
	return fmt.Sprintf("%d:%v", path.Root, path.Indices)
}

func (c *resolvedPathCache) get(path *FieldPath) (*FieldClass, bool) {
	key := pathKey(path)
	if !c.filter.MightContain(key) {
		return nil, false
	}
	fc, ok := c.exact[key]
	return fc, ok
}

func (c *resolvedPathCache) put(path *FieldPath, fc *FieldClass) {
	key := pathKey(path)
	c.filter.Add(key)
	c.exact[key] = fc
}

// ScopeClasses gathers the field classes visible at one EventClass's
// referring site, keyed by root scope, per spec §4.3's enumerated scopes.
type ScopeClasses map[RootScope]*FieldClass

// ValidateEventClass runs the spec §4.3 validator against ec before its
// first Stream is created: field-path resolution, clock-class uniqueness,
// and variant coverage. It does not re-check enumeration range-sets
// (already enforced incrementally by FieldClass.AddMapping).
//
// On success it returns a deep copy of the scopes with every FieldClass
// frozen, matching "Validation produces copied, frozen field-class trees
// that replace the originals" - callers install the returned copies back
// onto the owning StreamClass/EventClass.
func ValidateEventClass(ec *EventClass, scopes ScopeClasses) (ScopeClasses, error) {
	out := ScopeClasses{}
	for scope, fc := range scopes {
		if fc == nil {
			continue
		}
		out[scope] = fc.Copy()
	}

	cache := newResolvedPathCache()
	for scope, fc := range out {
		if err := resolvePaths(fc, scope, out, cache); err != nil {
			return nil, errors.Wrapf(err, "event class %d", ec.ID)
		}
	}

	for scope, fc := range out {
		seen := map[*ClockClass]bool{}
		var found *ClockClass
		if err := checkClockUniqueness(fc, &found, seen); err != nil {
			return nil, errors.Wrapf(err, "event class %d scope %s", ec.ID, scope)
		}
	}

	for _, fc := range out {
		if err := checkVariantCoverage(fc, out, cache); err != nil {
			return nil, errors.Wrapf(err, "event class %d", ec.ID)
		}
	}

	for _, fc := range out {
		fc.Freeze()
	}
	return out, nil
}

// resolvePaths walks fc looking for dynamic-array length paths and option/
// variant selector paths, checking each resolves within scopes and, when
// the path targets the same structure, that the selector field precedes
// the referrer (spec §4.3 "Selector must precede referrer in its enclosing
// structure").
func resolvePaths(fc *FieldClass, scope RootScope, scopes ScopeClasses, cache *resolvedPathCache) error {
	switch fc.kind {
	case FCStructure:
		for i, m := range fc.members {
			if path := selectorOf(m.FC); path != nil {
				if err := checkPrecedes(path, scope, scopes, fc, i); err != nil {
					return err
				}
			}
			if err := resolvePaths(m.FC, scope, scopes, cache); err != nil {
				return err
			}
		}
	case FCStaticArray:
		return resolvePaths(fc.elem, scope, scopes, cache)
	case FCDynamicArray:
		if fc.lengthPath != nil {
			if err := cacheResolve(fc.lengthPath, scopes, cache); err != nil {
				return err
			}
		}
		return resolvePaths(fc.elem, scope, scopes, cache)
	case FCOption:
		if fc.selector != nil {
			if err := cacheResolve(fc.selector, scopes, cache); err != nil {
				return err
			}
		}
		return resolvePaths(fc.elem, scope, scopes, cache)
	case FCVariant:
		if fc.selector != nil {
			if err := cacheResolve(fc.selector, scopes, cache); err != nil {
				return err
			}
		}
		for _, o := range fc.options {
			if err := resolvePaths(o.FC, scope, scopes, cache); err != nil {
				return err
			}
		}
	}
	return nil
}

// cacheResolve resolves path, remembering the result in cache so a later
// re-resolution of the same path (checkVariantCoverage resolves variant
// selectors again) can skip the exact walk once the filter pre-check
// confirms it is worth the exact map lookup.
func cacheResolve(path *FieldPath, scopes ScopeClasses, cache *resolvedPathCache) error {
	if _, ok := cache.get(path); ok {
		return nil
	}
	fc, err := resolveFieldPath(path, scopes)
	if err != nil {
		return err
	}
	cache.put(path, fc)
	return nil
}

func selectorOf(fc *FieldClass) *FieldPath {
	switch fc.kind {
	case FCOption, FCVariant:
		return fc.selector
	case FCDynamicArray:
		return fc.lengthPath
	default:
		return nil
	}
}

// checkPrecedes verifies path's final index, when rooted in the same scope
// and same enclosing structure as memberIndex, is less than memberIndex.
// Cross-scope references (e.g. a payload field selecting a packet-context
// field) are always accepted, matching the original C implementation which
// only orders within-structure references.
func checkPrecedes(path *FieldPath, scope RootScope, scopes ScopeClasses, parent *FieldClass, memberIndex int) error {
	if path.Root != scope || len(path.Indices) == 0 {
		return nil
	}
	root := scopes[path.Root]
	if root != parent {
		return nil
	}
	last := path.Indices[len(path.Indices)-1]
	if last >= memberIndex {
		return fmt.Errorf("selector field path %v does not precede referrer in its enclosing structure", path.Indices)
	}
	return nil
}

func resolveFieldPath(path *FieldPath, scopes ScopeClasses) (*FieldClass, error) {
	cur, ok := scopes[path.Root]
	if !ok || cur == nil {
		return nil, fmt.Errorf("field path root scope %s not visible at this site", path.Root)
	}
	for _, idx := range path.Indices {
		if cur.kind != FCStructure {
			return nil, fmt.Errorf("field path index %d applied to non-structure field class %s", idx, cur.kind)
		}
		if idx < 0 || idx >= len(cur.members) {
			return nil, fmt.Errorf("field path index %d out of range", idx)
		}
		cur = cur.members[idx].FC
	}
	return cur, nil
}

// checkClockUniqueness walks fc collecting mapped clock classes, rejecting
// a subtree that references more than one (spec §4.3).
func checkClockUniqueness(fc *FieldClass, found **ClockClass, seen map[*ClockClass]bool) error {
	if fc == nil {
		return nil
	}
	if fc.mappedClock != nil {
		if *found == nil {
			*found = fc.mappedClock
		} else if *found != fc.mappedClock {
			return fmt.Errorf("field-class subtree maps integers to more than one clock class")
		}
		seen[fc.mappedClock] = true
	}
	switch fc.kind {
	case FCStructure:
		for _, m := range fc.members {
			if err := checkClockUniqueness(m.FC, found, seen); err != nil {
				return err
			}
		}
	case FCStaticArray, FCDynamicArray, FCOption:
		if err := checkClockUniqueness(fc.elem, found, seen); err != nil {
			return err
		}
	case FCVariant:
		for _, o := range fc.options {
			if err := checkClockUniqueness(o.FC, found, seen); err != nil {
				return err
			}
		}
	}
	return nil
}

// checkVariantCoverage enforces spec §4.3: every variant's selector must
// resolve to an enumeration, and each option's range-set must be a subset
// of the selector enumeration's declared ranges.
func checkVariantCoverage(fc *FieldClass, scopes ScopeClasses, cache *resolvedPathCache) error {
	switch fc.kind {
	case FCStructure:
		for _, m := range fc.members {
			if err := checkVariantCoverage(m.FC, scopes, cache); err != nil {
				return err
			}
		}
	case FCStaticArray, FCDynamicArray, FCOption:
		return checkVariantCoverage(fc.elem, scopes, cache)
	case FCVariant:
		if fc.selector == nil {
			return fmt.Errorf("variant field class has no selector")
		}
		sel, ok := cache.get(fc.selector)
		if !ok {
			var err error
			sel, err = resolveFieldPath(fc.selector, scopes)
			if err != nil {
				return err
			}
			cache.put(fc.selector, sel)
		}
		if sel.kind != FCEnumeration {
			return fmt.Errorf("variant selector does not reference an enumeration field class")
		}
		for _, o := range fc.options {
			if !enumSupersetOf(sel, o.Range) {
				return fmt.Errorf("variant option %q range-set is not a subset of selector enumeration's range", o.Name)
			}
			if err := checkVariantCoverage(o.FC, scopes, cache); err != nil {
				return err
			}
		}
	}
	return nil
}

// enumSupersetOf reports whether every range of rs falls entirely within a
// single one of enum's declared mapping ranges. A range that is covered only
// by two or more mapping ranges together is not accepted.
func enumSupersetOf(enum *FieldClass, rs *RangeSet) bool {
	for _, r := range rs.Ranges {
		covered := false
		for _, er := range enum.enumRanges {
			for _, candidate := range er.Ranges {
				if rs.Signed {
					if candidate.Lower <= r.Lower && r.Upper <= candidate.Upper {
						covered = true
					}
				} else if uint64(candidate.Lower) <= uint64(r.Lower) && uint64(r.Upper) <= uint64(candidate.Upper) {
					covered = true
				}
			}
		}
		if !covered {
			return false
		}
	}
	return true
}
