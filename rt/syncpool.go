// File: rt/syncpool.go
//
// SyncPool is the bounded pool of goroutines that run blocking syscalls
// off the async workers' loops, so a slow syscall never stalls a
// worker's completion polling. Grounded on
// internal/concurrency/threadpool.go's ThreadPool, itself a thin wrapper
// over Executor — generalized here to return a typed JoinHandle per
// submitted thunk rather than a fire-and-forget Submit, since
// spawn_sync_on_any callers need the thunk's return value.

package rt

import (
	"runtime"
	"sync"
)

// SyncPool runs submitted thunks on a fixed number of dedicated
// goroutines. Each goroutine locks itself to its own OS thread for its
// whole life (like AsyncWorker does), purely so it can register with
// WithRuntime — a sync task may still land on any of the pool's
// goroutines and so, unlike AsyncWorker, has no fixed identity of its own.
type SyncPool struct {
	jobs chan func()
	wg   sync.WaitGroup
}

// NewSyncPool starts size goroutines draining a shared job channel, each
// registered under owner so code running on them can call
// rt.WithRuntime().
func NewSyncPool(size int, owner *Runtime) *SyncPool {
	sp := &SyncPool{jobs: make(chan func())}
	sp.wg.Add(size)
	for i := 0; i < size; i++ {
		go func() {
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()

			registerRuntime(owner)
			defer unregisterRuntime()

			defer sp.wg.Done()
			for job := range sp.jobs {
				job()
			}
		}()
	}
	return sp
}

// spawnSync submits fn to the pool and returns a JoinHandle for its
// result.
func spawnSync[T any](sp *SyncPool, fn func() (T, error)) JoinHandle[T] {
	ch := make(chan result[T], 1)
	sp.jobs <- func() {
		v, err := fn()
		ch <- result[T]{val: v, err: err}
	}
	return JoinHandle[T]{ch: ch}
}

// Close stops accepting new work and waits for all pool goroutines to
// drain and exit. Any job already sent to the pool before Close is called
// still runs to completion.
func (sp *SyncPool) Close() {
	close(sp.jobs)
	sp.wg.Wait()
}
