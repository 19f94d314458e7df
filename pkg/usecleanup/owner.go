package usecleanup

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// HookType identifies the type of hook call for order validation.
type HookType uint8

const (
	HookCleanupCallback HookType = iota + 1
)

// String returns a human-readable name for the hook type.
func (h HookType) String() string {
	switch h {
	case HookCleanupCallback:
		return "CleanupCallback"
	default:
		return "Unknown"
	}
}

// hookRecord records a single hook call for order validation.
type hookRecord struct {
	Type HookType
}

// Owner represents a component scope that hosts cleanup callbacks.
// It is the scheduler-side half of the contract: it decides when
// renders happen, provides stable hook-slot identity across renders,
// and runs registered teardown functions exactly once at disposal.
//
// Owners form a hierarchy: each component creates an Owner that is a
// child of its parent component's Owner. Disposing an Owner disposes
// all of its children first.
type Owner struct {
	id uint64

	// parent is the parent Owner in the hierarchy.
	// nil for the root Owner (typically the session).
	parent *Owner

	// children are child Owners (sub-components).
	children   []*Owner
	childrenMu sync.Mutex

	// cleanups are teardown functions registered via OnCleanup.
	cleanups   []func()
	cleanupsMu sync.Mutex

	// disposed indicates whether this Owner has been disposed.
	disposed atomic.Bool

	// Dev-mode hook order tracking (only used when DebugMode is true)
	hookOrder   []hookRecord // Expected order from first render
	hookIndex   int          // Current index during render
	renderCount int          // 0 = first render, 1+ = subsequent

	// Hook slot storage for stable identity across renders.
	// Always active (not just in DebugMode) because callback identity
	// depends on slot reuse for correctness.
	hookSlots   []any
	hookSlotIdx int
}

// NewOwner creates a new Owner with the given parent.
// The new Owner is automatically registered as a child of the parent.
// If parent is nil, creates a root Owner.
func NewOwner(parent *Owner) *Owner {
	o := &Owner{
		id:     nextID(),
		parent: parent,
	}

	if parent != nil {
		parent.addChild(o)
	}

	return o
}

// ID returns the unique identifier for this Owner.
func (o *Owner) ID() uint64 {
	return o.id
}

// Parent returns the parent Owner, or nil if this is a root Owner.
func (o *Owner) Parent() *Owner {
	return o.parent
}

// IsDisposed returns true if this Owner has been disposed.
func (o *Owner) IsDisposed() bool {
	return o.disposed.Load()
}

// addChild registers a child Owner.
func (o *Owner) addChild(child *Owner) {
	o.childrenMu.Lock()
	defer o.childrenMu.Unlock()
	o.children = append(o.children, child)
}

// removeChild removes a child Owner from this Owner's children.
func (o *Owner) removeChild(child *Owner) {
	o.childrenMu.Lock()
	defer o.childrenMu.Unlock()

	for i, c := range o.children {
		if c == child {
			o.children = append(o.children[:i], o.children[i+1:]...)
			return
		}
	}
}

// OnCleanup registers a teardown function to run when this Owner is disposed.
// If the Owner is already disposed, the function runs immediately.
func (o *Owner) OnCleanup(fn func()) {
	if o.disposed.Load() {
		fn()
		return
	}

	o.cleanupsMu.Lock()
	defer o.cleanupsMu.Unlock()
	o.cleanups = append(o.cleanups, fn)
}

// Dispose disposes this Owner and all its children.
// Children are disposed in reverse order (last created first), then
// registered cleanups run in reverse order. Disposing twice is a no-op,
// so duplicate teardown notifications from the host are harmless.
// After disposal, the Owner cannot be used.
func (o *Owner) Dispose() {
	if o.disposed.Swap(true) {
		// Already disposed
		return
	}

	// Remove from parent's children list
	if o.parent != nil {
		o.parent.removeChild(o)
	}

	// Dispose children in reverse order
	o.childrenMu.Lock()
	children := make([]*Owner, len(o.children))
	copy(children, o.children)
	o.children = nil
	o.childrenMu.Unlock()

	for i := len(children) - 1; i >= 0; i-- {
		children[i].Dispose()
	}

	// Run cleanups in reverse order
	o.cleanupsMu.Lock()
	cleanups := o.cleanups
	o.cleanups = nil
	o.cleanupsMu.Unlock()

	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
}

// =============================================================================
// Dev-mode Hook Order Validation
// =============================================================================

// StartRender is called at the beginning of a component render.
// It resets the hook slot index for stable identity, and in debug mode,
// also resets the hook order validation index.
func (o *Owner) StartRender() {
	// Track render phase for hook-slot semantics
	beginRender()

	// Always reset slot index for stable hook identity
	o.hookSlotIdx = 0

	// Debug mode: also reset order validation index
	if DebugMode {
		o.hookIndex = 0
	}
}

// EndRender is called at the end of a component render.
// In debug mode, it validates that all expected hooks were called.
func (o *Owner) EndRender() {
	// End render phase tracking
	endRender()

	if !DebugMode {
		return
	}
	if o.renderCount == 0 {
		// First render complete, lock in hook order
		o.renderCount = 1
	} else if o.hookIndex < len(o.hookOrder) {
		panic(fmt.Sprintf("[USECLEANUP E002] Hook order changed: expected %d hooks, got %d",
			len(o.hookOrder), o.hookIndex))
	}
}

// TrackHook records a hook call during render for order validation.
// In debug mode, it validates that hooks are called in the same order
// on every render. Violations cause a panic with a descriptive error.
func (o *Owner) TrackHook(ht HookType) {
	if !DebugMode {
		return
	}

	if o.renderCount == 0 {
		// First render: record hook order
		o.hookOrder = append(o.hookOrder, hookRecord{Type: ht})
	} else {
		// Subsequent renders: validate order
		if o.hookIndex >= len(o.hookOrder) {
			panic(fmt.Sprintf("[USECLEANUP E002] Hook order changed: extra %s hook at index %d",
				ht, o.hookIndex))
		}
		expected := o.hookOrder[o.hookIndex]
		if expected.Type != ht {
			panic(fmt.Sprintf("[USECLEANUP E002] Hook order changed at index %d: expected %s, got %s",
				o.hookIndex, expected.Type, ht))
		}
	}
	o.hookIndex++
}

// =============================================================================
// Hook Slot Storage for Stable Identity
// =============================================================================

// UseHookSlot returns the stored value for the current hook slot,
// or nil on the first render. This provides stable identity for hooks
// across renders.
//
// Usage pattern:
//
//	slot := owner.UseHookSlot()
//	if slot != nil {
//	    return slot.(*cell) // Subsequent render: reuse stored instance
//	}
//	instance := &cell{...} // First render: create new instance
//	owner.SetHookSlot(instance)
func (o *Owner) UseHookSlot() any {
	idx := o.hookSlotIdx
	o.hookSlotIdx++

	if idx < len(o.hookSlots) {
		// Subsequent render: return stored value
		return o.hookSlots[idx]
	}

	// First render: no slot yet, return nil
	// Caller should create the value and call SetHookSlot
	return nil
}

// SetHookSlot stores a value in the current hook slot.
// Must be called after UseHookSlot returns nil (first render).
func (o *Owner) SetHookSlot(value any) {
	o.hookSlots = append(o.hookSlots, value)
}
