package usecleanup

import (
	"runtime"
	"sync"
)

// TrackingContext holds the hook state for a goroutine.
// Each goroutine has its own tracking context so that independent
// component scopes can render concurrently on separate goroutines.
type TrackingContext struct {
	// currentOwner is the Owner that will host newly created hooks.
	// Set during component rendering to establish ownership.
	currentOwner *Owner

	// renderDepth tracks nested StartRender/EndRender pairs.
	// When > 0, hook constructors use the owner's hook slots for
	// stable identity across renders.
	renderDepth int
}

// trackingContexts stores per-goroutine tracking contexts.
// Using sync.Map for concurrent access from multiple goroutines.
// Goroutine IDs are never reused, so entries are removed as soon as
// they hold no state (releaseTrackingContext); otherwise the map would
// grow by one entry per goroutine for the life of the process.
var trackingContexts sync.Map

// getGoroutineID returns a unique identifier for the current goroutine.
// This uses the runtime stack to extract the goroutine ID.
// Note: This is an implementation detail and should not be relied upon externally.
func getGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	// The stack starts with "goroutine <id> "
	var id uint64
	for i := 10; i < n; i++ { // Skip "goroutine "
		if buf[i] == ' ' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}

// getTrackingContext returns the tracking context for the current
// goroutine, creating one if needed. Only state-writing paths call
// this; read paths use lookupTrackingContext so that a goroutine that
// merely asks about its context never allocates a map entry.
func getTrackingContext() *TrackingContext {
	gid := getGoroutineID()

	if ctx, ok := trackingContexts.Load(gid); ok {
		return ctx.(*TrackingContext)
	}

	ctx := &TrackingContext{}
	trackingContexts.Store(gid, ctx)
	return ctx
}

// lookupTrackingContext returns the tracking context for the current
// goroutine, or nil if none exists. Never creates an entry.
func lookupTrackingContext() *TrackingContext {
	if ctx, ok := trackingContexts.Load(getGoroutineID()); ok {
		return ctx.(*TrackingContext)
	}
	return nil
}

// releaseTrackingContext removes the goroutine's map entry once the
// context holds no state, so short-lived goroutines (one per WebSocket
// connection in a typical host) leave nothing behind.
func releaseTrackingContext(ctx *TrackingContext) {
	if ctx.currentOwner == nil && ctx.renderDepth == 0 {
		trackingContexts.Delete(getGoroutineID())
	}
}

// getCurrentOwner returns the current owner for the goroutine.
// Returns nil if no owner context is set.
func getCurrentOwner() *Owner {
	if ctx := lookupTrackingContext(); ctx != nil {
		return ctx.currentOwner
	}
	return nil
}

// setCurrentOwner sets the current owner for hook creation.
// Returns the previous owner so it can be restored.
func setCurrentOwner(o *Owner) *Owner {
	if o == nil {
		// Restoring to "no owner": never allocate an entry for it.
		ctx := lookupTrackingContext()
		if ctx == nil {
			return nil
		}
		old := ctx.currentOwner
		ctx.currentOwner = nil
		releaseTrackingContext(ctx)
		return old
	}

	ctx := getTrackingContext()
	old := ctx.currentOwner
	ctx.currentOwner = o
	return old
}

// beginRender marks the start of a render phase on this goroutine.
func beginRender() {
	ctx := getTrackingContext()
	ctx.renderDepth++
}

// endRender marks the end of a render phase on this goroutine.
func endRender() {
	ctx := lookupTrackingContext()
	if ctx == nil {
		return
	}
	if ctx.renderDepth > 0 {
		ctx.renderDepth--
	}
	releaseTrackingContext(ctx)
}

// isInRender reports whether a render phase is active on this goroutine.
func isInRender() bool {
	if ctx := lookupTrackingContext(); ctx != nil {
		return ctx.renderDepth > 0
	}
	return false
}

// WithOwner runs a function with the specified owner as the current owner.
// This is used when spawning goroutines that need to create hooks that
// belong to a specific component scope. The goroutine's tracking entry
// is released when the previous (typically nil) owner is restored.
//
// Example:
//
//	go func() {
//	    WithOwner(sessionOwner, func() {
//	        // Hooks created here belong to sessionOwner
//	    })
//	}()
func WithOwner(owner *Owner, fn func()) {
	old := setCurrentOwner(owner)
	defer setCurrentOwner(old)
	fn()
}
