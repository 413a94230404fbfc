// File: rt/current.go
//
// Thread-local emulation: Go has no goroutine-local storage, but every
// AsyncWorker's loop goroutine calls runtime.LockOSThread() once at
// startup and never releases it, so its OS thread ID is a stable proxy
// for "the worker currently executing." registry keys a live AsyncWorker
// by the OS thread ID its loop goroutine owns, populated on worker
// startup and cleared on shutdown. Mirrors original_source's
// rt/current_runtime.rs thread-local CURRENT cell, generalized from a
// single RefCell to a concurrent registry since Go cannot give each
// goroutine its own storage slot directly.

package rt

import (
	"sync"

	"github.com/foliort/winasync/iocp"
)

var registry sync.Map // uint32 (OS thread id) -> *AsyncWorker

// runtimeRegistry keys a live Runtime by every OS thread it owns: each
// AsyncWorker's loop goroutine and each SyncPool goroutine locks itself to
// an OS thread for its whole life and registers here, so WithRuntime works
// from either kind of runtime-owned thread, not just an async worker's.
var runtimeRegistry sync.Map // uint32 (OS thread id) -> *Runtime

// register associates the calling OS thread with w. Must be called from
// w's own loop goroutine, after it has locked itself to its OS thread.
func register(w *AsyncWorker) {
	registry.Store(iocp.CurrentThreadID(), w)
}

// unregister removes the calling OS thread's association. Must be called
// from w's own loop goroutine, before it releases its OS thread lock.
func unregister() {
	registry.Delete(iocp.CurrentThreadID())
}

// WithIO returns the AsyncWorker owning the calling OS thread, for use by
// code that needs to issue I/O against "whatever worker is currently
// running me" — e.g. a task spawned onto a worker that binds an accepted
// socket to that worker's engine. SyncPool goroutines are not registered
// here, so it panics from a synchronous task as well. It panics if the calling goroutine's OS
// thread was never registered by an AsyncWorker loop, per the spec's
// "panics if called from a thread that isn't an I/O worker."
func WithIO() *AsyncWorker {
	v, ok := registry.Load(iocp.CurrentThreadID())
	if !ok {
		panic("rt: WithIO called from a thread that is not an async worker")
	}
	return v.(*AsyncWorker)
}

// TryWithIO is the non-panicking form of WithIO, for call sites that need
// to behave differently off an async worker thread rather than treating
// it as a programmer error.
func TryWithIO() (*AsyncWorker, bool) {
	v, ok := registry.Load(iocp.CurrentThreadID())
	if !ok {
		return nil, false
	}
	return v.(*AsyncWorker), true
}

// registerRuntime associates the calling OS thread with rt. Must be called
// from a thread the Runtime itself locked for its whole life (an
// AsyncWorker's loop goroutine or a SyncPool goroutine).
func registerRuntime(rt *Runtime) {
	runtimeRegistry.Store(iocp.CurrentThreadID(), rt)
}

// unregisterRuntime removes the calling OS thread's runtime association.
func unregisterRuntime() {
	runtimeRegistry.Delete(iocp.CurrentThreadID())
}

// WithRuntime returns the Runtime owning the calling OS thread, for code
// that needs to spawn more work onto "whatever runtime is currently
// running me" without having a Runtime handle threaded through. It panics
// if the calling goroutine's OS thread was never registered by a Runtime,
// per the spec's "panics if called off any runtime-owned thread."
func WithRuntime() *Runtime {
	v, ok := runtimeRegistry.Load(iocp.CurrentThreadID())
	if !ok {
		panic("rt: WithRuntime called from a thread not owned by a Runtime")
	}
	return v.(*Runtime)
}

// TryWithRuntime is the non-panicking form of WithRuntime.
func TryWithRuntime() (*Runtime, bool) {
	v, ok := runtimeRegistry.Load(iocp.CurrentThreadID())
	if !ok {
		return nil, false
	}
	return v.(*Runtime), true
}
