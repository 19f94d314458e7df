package usecleanup

import (
	"reflect"
	"testing"
)

// renderHook simulates one host render turn: it runs build with the
// owner current and the render phase active.
func renderHook[A, V any](owner *Owner, build func() *Callback[A, V]) *Callback[A, V] {
	var cb *Callback[A, V]
	WithOwner(owner, func() {
		owner.StartRender()
		cb = build()
		owner.EndRender()
	})
	return cb
}

// releaseCounter returns an operation that yields a fresh Release
// cleanup per call, recording the call index into fired when it runs.
func releaseCounter(fired *[]int) func(struct{}) Result[struct{}] {
	calls := 0
	return func(struct{}) Result[struct{}] {
		n := calls
		calls++
		return Release[struct{}](func() { *fired = append(*fired, n) })
	}
}

func TestInvokeFiresPreviousCleanupByDefault(t *testing.T) {
	owner := NewOwner(nil)

	var fired []int
	op := releaseCounter(&fired)

	cb := renderHook(owner, func() *Callback[struct{}, struct{}] {
		return NewCleanupCallback(op, Deps{})
	})

	cb.Invoke(struct{}{})
	if len(fired) != 0 {
		t.Fatalf("no cleanup should fire on the first call, got %v", fired)
	}

	cb.Invoke(struct{}{})
	cb.Invoke(struct{}{})
	owner.Dispose()

	want := []int{0, 1, 2}
	if !reflect.DeepEqual(fired, want) {
		t.Errorf("expected firing order %v, got %v", want, fired)
	}
}

func TestCleanUpOnCallDisabled(t *testing.T) {
	owner := NewOwner(nil)

	var fired []int
	op := releaseCounter(&fired)

	cb := renderHook(owner, func() *Callback[struct{}, struct{}] {
		return NewCleanupCallback(op, Deps{}, CleanUpOnCall(false))
	})

	cb.Invoke(struct{}{})
	cb.Invoke(struct{}{})
	cb.Invoke(struct{}{})

	if len(fired) != 0 {
		t.Fatalf("no cleanup should fire during calls, got %v", fired)
	}

	owner.Dispose()

	// Only the last stored cleanup fires; earlier ones were replaced
	// unfired and are permanently dropped.
	want := []int{2}
	if !reflect.DeepEqual(fired, want) {
		t.Errorf("expected only the last cleanup at disposal, want %v got %v", want, fired)
	}
}

func TestValuePassThrough(t *testing.T) {
	owner := NewOwner(nil)
	defer owner.Dispose()

	cleanupRuns := 0
	cb := renderHook(owner, func() *Callback[struct{}, string] {
		return NewCleanupCallback(func(struct{}) Result[string] {
			return Value("foo", func() { cleanupRuns++ })
		}, Deps{})
	})

	if got := cb.Invoke(struct{}{}); got != "foo" {
		t.Errorf("first call: expected %q, got %q", "foo", got)
	}
	if cleanupRuns != 0 {
		t.Errorf("cleanup should not have fired yet, fired %d times", cleanupRuns)
	}

	if got := cb.Invoke(struct{}{}); got != "foo" {
		t.Errorf("second call: expected %q, got %q", "foo", got)
	}
	if cleanupRuns != 1 {
		t.Errorf("first call's cleanup should have fired exactly once, fired %d times", cleanupRuns)
	}
}

func TestReleaseYieldsZeroValueFromInvoke(t *testing.T) {
	owner := NewOwner(nil)
	defer owner.Dispose()

	cb := renderHook(owner, func() *Callback[struct{}, int] {
		return NewCleanupCallback(func(struct{}) Result[int] {
			return Release[int](func() {})
		}, Deps{})
	})

	if got := cb.Invoke(struct{}{}); got != 0 {
		t.Errorf("Release result should never surface a payload, got %d", got)
	}
}

func TestReferentialStability(t *testing.T) {
	owner := NewOwner(nil)
	defer owner.Dispose()

	build := func(dep int) *Callback[struct{}, struct{}] {
		return renderHook(owner, func() *Callback[struct{}, struct{}] {
			return NewCleanupCallback(func(struct{}) Result[struct{}] {
				return None[struct{}]()
			}, Deps{dep})
		})
	}

	first := build(1)
	second := build(1)
	if first != second {
		t.Error("unchanged deps should return the same callback instance")
	}

	third := build(2)
	if third == first {
		t.Error("changed deps should return a new callback instance")
	}
}

func TestStaleOperationKeptOnUnchangedDeps(t *testing.T) {
	owner := NewOwner(nil)
	defer owner.Dispose()

	build := func(ret string) *Callback[struct{}, string] {
		return renderHook(owner, func() *Callback[struct{}, string] {
			return NewCleanupCallback(func(struct{}) Result[string] {
				return Value(ret, nil)
			}, Deps{"key"})
		})
	}

	cb := build("old")
	cb = build("new")

	// Re-render without a key change does not rebind the operation:
	// the closure from the first render stays active.
	if got := cb.Invoke(struct{}{}); got != "old" {
		t.Errorf("expected stale operation to remain bound, got %q", got)
	}
}

func TestDepsChangeFiresWhenEnabled(t *testing.T) {
	owner := NewOwner(nil)
	defer owner.Dispose()

	c0 := 0
	build := func(dep string) *Callback[struct{}, struct{}] {
		return renderHook(owner, func() *Callback[struct{}, struct{}] {
			return NewCleanupCallback(func(struct{}) Result[struct{}] {
				return Release[struct{}](func() { c0++ })
			}, Deps{dep}, CleanUpOnDepsChange(true))
		})
	}

	cb := build("k0")
	cb.Invoke(struct{}{}) // arms c0

	next := build("k1")
	if c0 != 1 {
		t.Errorf("expected outgoing cleanup to fire on key change, fired %d times", c0)
	}
	if next == cb {
		t.Error("key change should construct a replacement callback")
	}

	// Replacement starts with an empty slot: disposal fires nothing new.
	owner.Dispose()
	if c0 != 1 {
		t.Errorf("cleanup fired again after key change, total %d", c0)
	}
}

func TestDepsChangeDropsWhenDisabled(t *testing.T) {
	owner := NewOwner(nil)

	c0 := 0
	build := func(dep string) *Callback[struct{}, struct{}] {
		return renderHook(owner, func() *Callback[struct{}, struct{}] {
			return NewCleanupCallback(func(struct{}) Result[struct{}] {
				return Release[struct{}](func() { c0++ })
			}, Deps{dep})
		})
	}

	cb := build("k0")
	cb.Invoke(struct{}{})

	build("k1")
	if c0 != 0 {
		t.Errorf("outgoing cleanup should be dropped silently, fired %d times", c0)
	}

	// Disposal tears down the live (replacement) callback only; its
	// slot is empty, so the dropped cleanup never runs.
	owner.Dispose()
	if c0 != 0 {
		t.Errorf("dropped cleanup must never fire, fired %d times", c0)
	}
}

func TestTriggerIndependence(t *testing.T) {
	owner := NewOwner(nil)

	var fired []int
	op := releaseCounter(&fired)

	cb := renderHook(owner, func() *Callback[struct{}, struct{}] {
		return NewCleanupCallback(op, Deps{},
			CleanUpOnCall(false),
			CleanUpOnDepsChange(false),
		)
	})

	cb.Invoke(struct{}{})
	cb.Invoke(struct{}{})
	cb.Invoke(struct{}{})

	owner.Dispose()
	owner.Dispose() // duplicate teardown must not re-fire

	want := []int{2}
	if !reflect.DeepEqual(fired, want) {
		t.Errorf("expected only final disposal to fire the last cleanup, want %v got %v", want, fired)
	}
}

func TestCleanUpOnUnmountDisabled(t *testing.T) {
	owner := NewOwner(nil)

	count := 0
	cb := renderHook(owner, func() *Callback[struct{}, struct{}] {
		return NewCleanupCallback(func(struct{}) Result[struct{}] {
			return Release[struct{}](func() { count++ })
		}, Deps{}, CleanUpOnUnmount(false))
	})

	cb.Invoke(struct{}{})
	owner.Dispose()

	if count != 0 {
		t.Errorf("disposal should not fire with CleanUpOnUnmount off, fired %d times", count)
	}
}

func TestOptionsReadLive(t *testing.T) {
	owner := NewOwner(nil)

	count := 0
	build := func(opts ...Option) *Callback[struct{}, struct{}] {
		return renderHook(owner, func() *Callback[struct{}, struct{}] {
			return NewCleanupCallback(func(struct{}) Result[struct{}] {
				return Release[struct{}](func() { count++ })
			}, Deps{}, opts...)
		})
	}

	cb := build() // defaults: CleanUpOnUnmount true
	cb.Invoke(struct{}{})

	// Same key, new options. The callback instance is unchanged but the
	// teardown paths read the latest options.
	build(CleanUpOnUnmount(false))

	owner.Dispose()
	if count != 0 {
		t.Errorf("disposal should observe the most recent options, fired %d times", count)
	}
}

func TestOperationPanicPropagates(t *testing.T) {
	owner := NewOwner(nil)

	prevFired := 0
	fail := false
	cb := renderHook(owner, func() *Callback[struct{}, struct{}] {
		return NewCleanupCallback(func(struct{}) Result[struct{}] {
			if fail {
				panic("operation failed")
			}
			return Release[struct{}](func() { prevFired++ })
		}, Deps{})
	})

	cb.Invoke(struct{}{}) // arms the cleanup

	fail = true
	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("expected operation panic to reach the Invoke caller")
			}
		}()
		cb.Invoke(struct{}{})
	}()

	// The previous cleanup fired in step 1 of the failing call and no
	// new cleanup was armed, so disposal finds nothing to run.
	if prevFired != 1 {
		t.Errorf("previous cleanup should have fired once before the failure, got %d", prevFired)
	}
	owner.Dispose()
	if prevFired != 1 {
		t.Errorf("no cleanup should remain armed after a failed call, total %d", prevFired)
	}
}

func TestCleanupPanicLeavesActionConsumed(t *testing.T) {
	owner := NewOwner(nil)
	defer owner.Dispose()

	badRuns := 0
	calls := 0
	cb := renderHook(owner, func() *Callback[struct{}, struct{}] {
		return NewCleanupCallback(func(struct{}) Result[struct{}] {
			calls++
			if calls == 1 {
				return Release[struct{}](func() {
					badRuns++
					panic("cleanup failed")
				})
			}
			return None[struct{}]()
		}, Deps{})
	})

	cb.Invoke(struct{}{})

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("expected cleanup panic to reach the Invoke caller")
			}
		}()
		cb.Invoke(struct{}{})
	}()

	// The failed cleanup is spent; later triggers skip it.
	cb.Invoke(struct{}{})
	if badRuns != 1 {
		t.Errorf("failed cleanup must not retry, ran %d times", badRuns)
	}
}

func TestUnmanagedOutsideRender(t *testing.T) {
	// Without an owner or render phase the hook degrades to plain
	// construction: usable, but no memoization and no disposal hook.
	count := 0
	cb := NewCleanupCallback(func(struct{}) Result[struct{}] {
		return Release[struct{}](func() { count++ })
	}, Deps{})

	cb.Invoke(struct{}{})
	cb.Invoke(struct{}{})

	if count != 1 {
		t.Errorf("expected the first call's cleanup to fire on the second call, got %d", count)
	}
}

func TestUnmanagedHookDoesNotPolluteHookOrder(t *testing.T) {
	DebugMode = true
	defer func() { DebugMode = false }()

	owner := NewOwner(nil)
	defer owner.Dispose()

	op := func(struct{}) Result[struct{}] { return None[struct{}]() }

	// Unmanaged creation before the first render: must not be recorded
	// in the owner's hook order.
	WithOwner(owner, func() {
		NewCleanupCallback(op, Deps{"stray"})
	})

	first := renderHook(owner, func() *Callback[struct{}, struct{}] {
		return NewCleanupCallback(op, Deps{"key"})
	})

	// Unmanaged creation between renders: must not look like an extra
	// hook against the locked-in order.
	WithOwner(owner, func() {
		NewCleanupCallback(op, Deps{"stray"})
	})

	second := renderHook(owner, func() *Callback[struct{}, struct{}] {
		return NewCleanupCallback(op, Deps{"key"})
	})

	if first != second {
		t.Error("managed hook should stay stable across renders despite unmanaged creations")
	}
}

func TestMultipleHooksOnOneOwner(t *testing.T) {
	owner := NewOwner(nil)

	aFired := 0
	bFired := 0

	type pair struct {
		a *Callback[struct{}, struct{}]
		b *Callback[struct{}, struct{}]
	}

	build := func() pair {
		var p pair
		WithOwner(owner, func() {
			owner.StartRender()
			p.a = NewCleanupCallback(func(struct{}) Result[struct{}] {
				return Release[struct{}](func() { aFired++ })
			}, Deps{"a"})
			p.b = NewCleanupCallback(func(struct{}) Result[struct{}] {
				return Release[struct{}](func() { bFired++ })
			}, Deps{"b"})
			owner.EndRender()
		})
		return p
	}

	p1 := build()
	p2 := build()
	if p1.a != p2.a || p1.b != p2.b {
		t.Fatal("each call site should keep its own stable hook slot")
	}

	p1.a.Invoke(struct{}{})
	p1.b.Invoke(struct{}{})
	owner.Dispose()

	if aFired != 1 || bFired != 1 {
		t.Errorf("each callback's cleanup should fire once at disposal, got a=%d b=%d", aFired, bFired)
	}
}
