// File: rt/join.go
//
// Join handles: the result of a spawned task, delivered over a
// capacity-1 channel exactly like the completion engine's operation
// results (iocp/engine_windows.go), so
// "await a future" and "join a spawned task" share one idiom throughout
// this module.

package rt

import "context"

// result is what a spawned task's goroutine sends once, whether the task
// body returned a value, an error, or both.
type result[T any] struct {
	val T
	err error
}

// JoinHandle is returned by SpawnOnAny/SpawnSyncOnAny; it yields the
// spawned task's outcome exactly once. It is safe to call Wait from at
// most one goroutine (a second caller would race on draining the
// channel) — matching the original's single-consumer join handle.
type JoinHandle[T any] struct {
	ch <-chan result[T]
}

// Wait blocks until the spawned task completes or ctx is done, whichever
// comes first. If ctx is done first, the task is left running; its
// result, once produced, stays in the channel's one-slot buffer with no
// further reader — the task itself is not cancelled, per this module's
// non-goal of graceful cooperative cancellation.
func (h JoinHandle[T]) Wait(ctx context.Context) (T, error) {
	select {
	case r := <-h.ch:
		return r.val, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
