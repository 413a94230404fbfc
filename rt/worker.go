// File: rt/worker.go
//
// AsyncWorker is one thread-per-core async worker: a single goroutine
// locked to one OS thread (runtime.LockOSThread, per
// internal/concurrency/pin_windows.go's own note that "the goroutine must
// be locked beforehand"), owning one iocp.Engine and one iocp.BufferPool,
// draining a task queue in between polling for I/O completions. Grounded
// on the teacher's internal/concurrency/eventloop.go run loop shape
// (register handlers, then loop: poll, dispatch) generalized from a
// generic event loop to this module's two concrete event sources: queued
// tasks and completion packets.

package rt

import (
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/foliort/winasync/affinity"
	"github.com/foliort/winasync/internal/obslog"
	"github.com/foliort/winasync/iocp"
)

// pollBatch bounds how many completion packets a single PollCompletions
// call drains before the loop goes back to checking for pending tasks,
// so a burst of I/O can never starve freshly submitted work.
const pollBatch = 256

// pollTimeoutMs is how long the loop blocks in PollCompletions when it
// has no pending tasks, trading wakeup latency for CPU burn. A posted
// task or a Wake call short-circuits the wait immediately.
const pollTimeoutMs = 50

// AsyncWorker is a single thread-per-core I/O and task-execution unit.
// Every method that touches its engine, buffer pool, or task queue is
// safe to call from any goroutine except run itself, which is started
// exactly once and owns the OS thread for its entire life.
type AsyncWorker struct {
	id     int
	owner  *Runtime
	engine *iocp.Engine
	pool   *iocp.BufferPool
	tasks  *taskQueue

	closing int32 // atomic bool
	done    chan struct{}
}

// NewAsyncWorker creates a worker with its own completion engine and
// buffer pool, but does not start its loop goroutine — call Run for that,
// typically as `go worker.Run()`. owner is the Runtime this worker belongs
// to, registered alongside the worker itself so WithRuntime resolves from
// this worker's loop goroutine.
func NewAsyncWorker(id int, bufferCapacity int, owner *Runtime) (*AsyncWorker, error) {
	engine, err := iocp.NewEngine()
	if err != nil {
		return nil, fmt.Errorf("rt: worker %d: %w", id, err)
	}
	return &AsyncWorker{
		id:     id,
		owner:  owner,
		engine: engine,
		pool:   iocp.NewBufferPool(bufferCapacity),
		tasks:  newTaskQueue(),
		done:   make(chan struct{}),
	}, nil
}

// ID returns the worker's configured index, stable for its whole life.
func (w *AsyncWorker) ID() int { return w.id }

// Engine returns the worker's completion engine, for use by tcpsrv's
// dispatcher when binding a listening socket to this specific worker.
func (w *AsyncWorker) Engine() *iocp.Engine { return w.engine }

// BufferPool returns the worker's pinned buffer pool.
func (w *AsyncWorker) BufferPool() *iocp.BufferPool { return w.pool }

// PendingTasks reports the current run-queue depth, for
// control.DebugProbes wiring.
func (w *AsyncWorker) PendingTasks() int { return w.tasks.len() }

// Post enqueues fn to run on this worker's own goroutine, in submission
// order relative to other Post calls, and wakes the loop if it is
// currently parked in PollCompletions. Safe to call from any goroutine.
func (w *AsyncWorker) Post(fn func()) {
	w.tasks.push(fn)
	w.engine.Wake()
}

// Run is the worker's main loop: lock to the current OS thread, register
// for WithIO/WithRuntime lookups, then alternate draining the task queue
// and polling for I/O completions until Close is called. It must be
// invoked on a fresh goroutine that this AsyncWorker owns exclusively for
// its whole life; calling Run a second time, or from two goroutines, is a
// programmer error.
func (w *AsyncWorker) Run() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	// The pool recycles only on the OS thread that created it, so it is
	// recreated here on the thread this loop now owns.
	w.pool = iocp.NewBufferPool(w.pool.Capacity())

	if err := affinity.SetAffinity(w.id); err != nil {
		// Pinning is a placement hint, not a correctness requirement —
		// e.g. id exceeds the logical CPU count, or the platform stub
		// always refuses. The worker still runs, just without a fixed
		// thread-per-core placement.
		obslog.Warn("rt: failed to pin worker to its logical CPU", "worker", w.id, "error", err)
	}

	register(w)
	defer unregister()
	registerRuntime(w.owner)
	defer unregisterRuntime()

	defer close(w.done)

	for atomic.LoadInt32(&w.closing) == 0 {
		for {
			t, ok := w.tasks.pop()
			if !ok {
				break
			}
			t()
		}

		if _, err := w.engine.PollCompletions(pollBatch, pollTimeoutMs); err != nil {
			if err == iocp.ErrEngineClosed {
				return
			}
			// A fatal completion-port error ends this worker; per spec
			// section 4.1 "Failure semantics" this is not recoverable
			// in-place.
			obslog.Error("rt: completion port failed - worker exiting", "worker", w.id, "error", err)
			return
		}
	}

	// Drain whatever tasks were queued up to the moment Close was called,
	// so a task submitted just before shutdown is not silently lost.
	for {
		t, ok := w.tasks.pop()
		if !ok {
			break
		}
		t()
	}
}

// Close requests the worker's loop to stop and waits for it to exit. Safe
// to call from any goroutine other than the worker's own loop goroutine.
func (w *AsyncWorker) Close() error {
	atomic.StoreInt32(&w.closing, 1)
	w.engine.Wake()
	<-w.done
	return w.engine.Close()
}

// spawnLocal posts fn to w's task queue and returns a JoinHandle for its
// result. It may be called from any goroutine; SpawnOnAny and SpawnOn
// both go through it.
func spawnLocal[T any](w *AsyncWorker, fn func() (T, error)) JoinHandle[T] {
	ch := make(chan result[T], 1)
	w.Post(func() {
		v, err := fn()
		ch <- result[T]{val: v, err: err}
	})
	return JoinHandle[T]{ch: ch}
}
