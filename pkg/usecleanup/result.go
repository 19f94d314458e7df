package usecleanup

// resultKind discriminates the Result variants.
type resultKind uint8

const (
	kindNone resultKind = iota
	kindRelease
	kindValue
)

// Result is the outcome of one operation invocation. The operation
// author chooses the variant at the call site via None, Release, or
// Value; the callback never inspects the runtime shape of a returned
// value to guess which one was meant.
type Result[V any] struct {
	kind    resultKind
	value   V
	cleanup Cleanup
}

// None reports that the invocation produced no value and no cleanup.
// Nothing is recorded in the slot; a previously armed cleanup that was
// already fired by this call stays consumed.
func None[V any]() Result[V] {
	return Result[V]{kind: kindNone}
}

// Release reports that the invocation produced only a cleanup.
// The invocation has no usable return value: Invoke returns the zero V.
// Operations that need to hand a payload back to the caller use Value.
func Release[V any](fn Cleanup) Result[V] {
	return Result[V]{kind: kindRelease, cleanup: fn}
}

// Value reports an explicit payload paired with an optional cleanup.
// A nil fn means the invocation has nothing to undo; the slot is left
// empty.
func Value[V any](v V, fn Cleanup) Result[V] {
	return Result[V]{kind: kindValue, value: v, cleanup: fn}
}

// interpret extracts the caller-visible value and the cleanup to arm.
func (r Result[V]) interpret() (value V, action Cleanup) {
	switch r.kind {
	case kindRelease:
		return value, r.cleanup
	case kindValue:
		return r.value, r.cleanup
	default:
		return value, nil
	}
}
