package usecleanup

// Cleanup trigger labels, also used as metric label values.
const (
	triggerCall       = "call"
	triggerDepsChange = "deps_change"
	triggerUnmount    = "unmount"
)

// Callback binds one operation to one cleanup slot and a live view of
// the trigger options. A is the argument type passed through Invoke;
// V is the payload type for Value results.
//
// Callbacks are built through NewCleanupCallback and are stable across
// renders for an unchanged dependency key: the host holds one *Callback
// per key generation and Invoke is its only public surface.
type Callback[A, V any] struct {
	id   uint64
	fn   func(A) Result[V]
	slot slot
	opts *optionsCell
}

// newCallback constructs a callback with an empty slot.
func newCallback[A, V any](fn func(A) Result[V], opts *optionsCell) *Callback[A, V] {
	return &Callback[A, V]{
		id:   nextID(),
		fn:   fn,
		opts: opts,
	}
}

// ID returns the unique identifier for this callback.
func (c *Callback[A, V]) ID() uint64 {
	return c.id
}

// Invoke runs the bound operation.
//
// If CleanUpOnCall is set in the live options, the cleanup left over
// from the previous invocation fires first. The operation then runs to
// completion and whatever cleanup its Result carries is armed in the
// slot, replacing the spent one. For a Value result the payload is
// returned; None and Release results return the zero V.
//
// A panic in the operation propagates to the caller and the slot is
// not re-armed: the previous cleanup stays consumed (or untouched when
// CleanUpOnCall is off). A panic in the fired cleanup also propagates,
// with the cleanup counted as spent either way.
func (c *Callback[A, V]) Invoke(arg A) V {
	recordInvocation()

	if c.opts.load().CleanUpOnCall {
		c.slot.fire(triggerCall)
	}

	res := c.fn(arg)

	value, action := res.interpret()
	c.slot.set(action)
	return value
}

// fireDepsChange is the key-change teardown path. It consults the live
// options and fires the outgoing slot before the replacement callback
// is constructed. With CleanUpOnDepsChange off the pending cleanup is
// left in place; it can still fire later at disposal if this callback
// is the live one when the owner goes away.
func (c *Callback[A, V]) fireDepsChange() {
	if c.opts.load().CleanUpOnDepsChange {
		c.slot.fire(triggerDepsChange)
	}
}

// fireUnmount is the disposal teardown path, run from the owner's
// cleanup list. Idempotent through the slot's consumed flag.
func (c *Callback[A, V]) fireUnmount() {
	if c.opts.load().CleanUpOnUnmount {
		c.slot.fire(triggerUnmount)
	}
}

// callbackCell is the hook-slot entry for one NewCleanupCallback call
// site. It survives across renders and key changes: the cell keeps the
// currently live callback generation, the key it was built for, and
// the shared live options cell. The owner's disposal hook is registered
// against the cell once, so it always tears down whichever generation
// is live at disposal time.
type callbackCell[A, V any] struct {
	cb   *Callback[A, V]
	deps Deps
	opts *optionsCell
}

// teardown is the disposal hook registered with the Owner.
func (cell *callbackCell[A, V]) teardown() {
	recordCallbackLive(-1)
	cell.cb.fireUnmount()
}

// NewCleanupCallback returns a callback that memoizes on deps and owns
// a single pending cleanup.
//
// This is a hook-like API and MUST be called unconditionally during
// render, between the owner's StartRender and EndRender. Re-rendering
// with an equal deps key returns the previous *Callback untouched: the
// operation bound on the earlier render keeps running even when fn was
// supplied afresh with different closed-over values, mirroring how
// memoized callbacks keep their stale closure until the key changes.
// Options, by contrast, are refreshed on every render and all trigger
// paths read them live.
//
// When deps differ from the previous render, the outgoing callback's
// cleanup fires iff CleanUpOnDepsChange is set, and a new callback with
// an empty slot takes its place. Disposal of the owner fires the live
// callback's cleanup iff CleanUpOnUnmount is set; the key-change and
// disposal teardowns are independent triggers.
//
// Called outside a render (or without an owner), the callback is
// unmanaged: no memoization and no disposal hook, which is occasionally
// useful in tests and one-shot scripts.
//
// Example:
//
//	cb := usecleanup.NewCleanupCallback(func(q string) usecleanup.Result[int] {
//	    n, stop := watch(q)
//	    return usecleanup.Value(n, stop)
//	}, usecleanup.Deps{q})
//	count := cb.Invoke(q) // stops the previous watch, starts a new one
func NewCleanupCallback[A, V any](fn func(A) Result[V], deps Deps, opts ...Option) *Callback[A, V] {
	o := resolveOptions(opts)

	owner := getCurrentOwner()
	inRender := owner != nil && isInRender()

	// Track hook call for dev-mode order validation. Hooks created
	// outside a render are unmanaged and never touch the owner's
	// recorded hook order.
	if inRender {
		owner.TrackHook(HookCleanupCallback)
		if s := owner.UseHookSlot(); s != nil {
			cell, ok := s.(*callbackCell[A, V])
			if !ok {
				panic("usecleanup: hook slot type mismatch for CleanupCallback")
			}

			// Options are read live: refresh before any teardown
			// decision so the triggers see this render's values.
			cell.opts.store(o)

			if depsEqual(cell.deps, deps) {
				// Unchanged key: same callback, same bound operation.
				return cell.cb
			}

			// Key changed: tear down the outgoing generation, then
			// swap in a fresh callback with an empty slot. One live
			// generation replaces another, so the gauge holds.
			cell.cb.fireDepsChange()
			cell.cb = newCallback(fn, cell.opts)
			cell.deps = deps
			return cell.cb
		}
	}

	cell := &callbackCell[A, V]{
		deps: deps,
		opts: &optionsCell{current: o},
	}
	cell.cb = newCallback(fn, cell.opts)

	if inRender {
		owner.SetHookSlot(cell)
		owner.OnCleanup(cell.teardown)
		// Only hook-managed callbacks count as live: they alone have a
		// teardown that will decrement the gauge.
		recordCallbackLive(1)
	}

	return cell.cb
}
