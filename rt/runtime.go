// File: rt/runtime.go
//
// Runtime is the handle user code and tcpsrv hold to spawn work: onto a
// specific async worker, onto "any" worker (round-robin, work-stealing
// fairness being an explicit non-goal), or onto the synchronous pool for
// blocking syscalls. Grounded on original_source's rt/functions.rs
// (spawn, spawn_on_any, spawn_sync_on_any) translated per SPEC_FULL's
// component-design decisions 4 and 5.

package rt

import (
	"fmt"
	"sync/atomic"

	"github.com/foliort/winasync/control"
)

// Options configures a Runtime's worker pools. All fields have usable
// zero-adjacent defaults applied by New.
type Options struct {
	// Workers is the number of async (I/O) workers to start, typically
	// one per logical CPU core. Defaults to 1 if <= 0.
	Workers int
	// SyncWorkers is the number of goroutines in the blocking-syscall
	// pool. Defaults to 4 * Workers if <= 0.
	SyncWorkers int
	// BufferCapacity is the fixed size of buffers each async worker's
	// pool vends. Defaults to iocp.MinAcceptBufferSize if <= 0.
	BufferCapacity int
}

// Runtime owns a fixed set of async workers and a synchronous worker
// pool, and is the entry point for all spawning in this module.
type Runtime struct {
	workers []*AsyncWorker
	sync    *SyncPool
	next    uint64 // round-robin cursor for SpawnOnAny
}

// New starts opts.Workers async worker goroutines and opts.SyncWorkers
// synchronous pool goroutines. Callers own the returned Runtime's
// lifetime and must call Close when done.
func New(opts Options) (*Runtime, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}
	syncWorkers := opts.SyncWorkers
	if syncWorkers <= 0 {
		syncWorkers = 4 * workers
	}
	bufCap := opts.BufferCapacity
	if bufCap <= 0 {
		bufCap = 2 * 32 // equal to iocp.MinAcceptBufferSize
	}

	rt := &Runtime{}
	rt.sync = NewSyncPool(syncWorkers, rt)
	for i := 0; i < workers; i++ {
		w, err := NewAsyncWorker(i, bufCap, rt)
		if err != nil {
			rt.closeStarted()
			return nil, fmt.Errorf("rt: starting worker %d: %w", i, err)
		}
		rt.workers = append(rt.workers, w)
		go w.Run()
	}
	return rt, nil
}

// closeStarted tears down whatever workers were already started, used
// when New fails partway through bringing up the worker set.
func (rt *Runtime) closeStarted() {
	for _, w := range rt.workers {
		w.Close()
	}
	rt.sync.Close()
}

// NumWorkers reports the configured async worker count.
func (rt *Runtime) NumWorkers() int { return len(rt.workers) }

// Worker returns the i'th async worker, for callers (notably tcpsrv) that
// need to bind a listening socket to a specific worker's engine.
func (rt *Runtime) Worker(i int) *AsyncWorker { return rt.workers[i%len(rt.workers)] }

// pick selects the next worker in round-robin order.
func (rt *Runtime) pick() *AsyncWorker {
	i := atomic.AddUint64(&rt.next, 1) - 1
	return rt.workers[i%uint64(len(rt.workers))]
}

// SpawnOnAny runs fn on a round-robin-selected async worker and returns a
// JoinHandle for its result. fn runs on that worker's single loop
// goroutine, sequenced with every other task and completion it handles.
func SpawnOnAny[T any](rt *Runtime, fn func() (T, error)) JoinHandle[T] {
	return spawnLocal(rt.pick(), fn)
}

// SpawnOn runs fn on the specified worker index and returns a JoinHandle
// for its result.
func SpawnOn[T any](rt *Runtime, workerIndex int, fn func() (T, error)) JoinHandle[T] {
	return spawnLocal(rt.Worker(workerIndex), fn)
}

// SpawnSyncOnAny runs fn on the synchronous worker pool — intended for
// blocking syscalls (socket creation, setsockopt, WSAIoctl) that would
// otherwise stall an async worker's completion polling — and returns a
// JoinHandle for its result.
func SpawnSyncOnAny[T any](rt *Runtime, fn func() (T, error)) JoinHandle[T] {
	return spawnSync(rt.sync, fn)
}

// RegisterProbes exposes each worker's run-queue depth under
// "rt.worker.<i>.pending_tasks" and the configured worker count under
// "rt.workers" in dp, for inspection via dp.DumpState.
func (rt *Runtime) RegisterProbes(dp *control.DebugProbes) {
	dp.RegisterProbe("rt.workers", func() any { return len(rt.workers) })
	for _, w := range rt.workers {
		w := w
		dp.RegisterProbe(fmt.Sprintf("rt.worker.%d.pending_tasks", w.ID()), func() any {
			return w.PendingTasks()
		})
	}
}

// Close stops every async worker's loop and the synchronous pool,
// blocking until all of them have exited.
func (rt *Runtime) Close() error {
	var firstErr error
	for _, w := range rt.workers {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	rt.sync.Close()
	return firstErr
}
