package usecleanup

import "sync/atomic"

// Cleanup is a zero-argument procedure that undoes the effects of the
// most recent operation invocation (e.g., canceling a timer).
// A Cleanup is owned by exactly one slot at a time and runs at most once.
type Cleanup func()

// slot holds at most one pending cleanup plus its consumed flag.
// It is created once per callback instance, mutated by every Invoke and
// by the teardown paths, and never shared between callback instances.
type slot struct {
	action   Cleanup
	consumed atomic.Bool
}

// set replaces the stored cleanup and resets the consumed flag.
// It never fires the previous cleanup; callers fire before replacing
// when that is wanted. A cleanup replaced while still unconsumed is
// permanently dropped.
func (s *slot) set(action Cleanup) {
	if s.action != nil && !s.consumed.Load() {
		recordCleanupDropped()
	}
	s.action = action
	s.consumed.Store(false)
}

// fire runs the stored cleanup if one is present and not yet consumed.
// The consumed flag is set before the cleanup runs, so a cleanup that
// panics is still spent: at-most-once execution takes priority over
// retry. The panic propagates to whichever trigger called fire.
// With no cleanup stored, or one already consumed, fire is a no-op.
func (s *slot) fire(trigger string) {
	if s.action == nil {
		return
	}
	if s.consumed.Swap(true) {
		return
	}
	recordCleanupFired(trigger)
	s.action()
}
