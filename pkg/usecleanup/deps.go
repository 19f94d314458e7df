package usecleanup

import "reflect"

// Deps is an ordered sequence of values identifying when the bound
// operation should be considered changed. Two keys are equal iff they
// have the same length and are pairwise shallow-equal.
type Deps []any

// depsEqual reports whether two dependency keys are equal.
// Comparison is shallow: comparable dynamic types compare with ==,
// anything else (slices, maps, funcs) compares by identity via pointer,
// never by deep traversal.
func depsEqual(a, b Deps) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !shallowEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

// shallowEqual compares two dependency values without deep traversal.
func shallowEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	ta := reflect.TypeOf(a)
	tb := reflect.TypeOf(b)
	if ta != tb {
		return false
	}

	if ta.Comparable() {
		return a == b
	}

	// Non-comparable kinds (slice, map, func): identity comparison.
	va := reflect.ValueOf(a)
	vb := reflect.ValueOf(b)
	switch va.Kind() {
	case reflect.Slice:
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	case reflect.Map, reflect.Func:
		return va.Pointer() == vb.Pointer()
	default:
		return false
	}
}
