// Package usecleanup provides a memoized callback primitive whose
// invocations can arm a single pending cleanup, guaranteed to run
// at most once.
//
// A cleanup callback binds one operation to a dependency key. Calling
// the callback may first fire the cleanup left over from the previous
// call, then runs the operation and stores whatever cleanup it yields.
// The stored cleanup can also fire when the dependency key changes or
// when the owning component scope is disposed; each of the three
// triggers is switched independently through Options.
//
// # Core Types
//
// Callback[A, V] is the stable invocation wrapper:
//
//	cb := NewCleanupCallback(func(d time.Duration) Result[struct{}] {
//	    t := time.AfterFunc(d, tick)
//	    return Release[struct{}](func() { t.Stop() })
//	}, Deps{d})
//	cb.Invoke(d) // cancels the previous timer, schedules a new one
//
// Result[V] is the tagged outcome of one operation call. The operation
// author picks the variant at the call site:
//
//	None[V]()       // nothing to record
//	Release[V](fn)  // cleanup only, no usable return value
//	Value(v, fn)    // explicit payload plus optional cleanup
//
// Owner is the component scope that hosts the hook. It provides stable
// hook-slot identity across renders and runs registered cleanups at
// disposal:
//
//	owner := NewOwner(nil)
//	WithOwner(owner, func() {
//	    owner.StartRender()
//	    cb := NewCleanupCallback(op, Deps{id})
//	    owner.EndRender()
//	    cb.Invoke(arg)
//	})
//	owner.Dispose() // fires the pending cleanup (CleanUpOnUnmount)
//
// # Execution Model
//
// Everything is synchronous and cooperative: operations and cleanups run
// to completion within the calling turn, failures propagate to whichever
// trigger fired them, and nothing is retried (a cleanup that panics is
// still spent). Re-invoking a callback from inside its own operation or
// cleanup is not supported and is not guarded against.
package usecleanup
