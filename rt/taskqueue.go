// File: rt/taskqueue.go
//
// Mutex-guarded wrapper around the teacher's eapache/queue-backed run
// queue (internal/concurrency/executor.go). The teacher's own Executor
// calls queue.Enqueue from arbitrary submitter goroutines and
// queue.Dequeue from its worker goroutine with no synchronization at
// all, which is a data race on the queue's backing ring buffer — this
// module fixes that with a mutex while keeping eapache/queue itself as
// the underlying structure, since nothing about the spec's task queue
// semantics requires lock-freedom, only FIFO order and no double
// delivery.

package rt

import (
	"sync"

	"github.com/eapache/queue"
)

// task is a unit of work submitted to an AsyncWorker's run loop.
type task func()

// taskQueue is a FIFO of pending tasks, safe for concurrent Push from any
// number of goroutines and concurrent Pop from any number of goroutines
// (though in practice only the owning worker's single loop goroutine ever
// calls Pop).
type taskQueue struct {
	mu sync.Mutex
	q  *queue.Queue
}

func newTaskQueue() *taskQueue {
	return &taskQueue{q: queue.New()}
}

// push enqueues t at the tail.
func (tq *taskQueue) push(t task) {
	tq.mu.Lock()
	tq.q.Add(t)
	tq.mu.Unlock()
}

// pop removes and returns the task at the head, or (nil, false) if the
// queue is currently empty.
func (tq *taskQueue) pop() (task, bool) {
	tq.mu.Lock()
	defer tq.mu.Unlock()
	if tq.q.Length() == 0 {
		return nil, false
	}
	v := tq.q.Peek()
	tq.q.Remove()
	return v.(task), true
}

// len reports the number of pending tasks, mainly for the debug probe
// surface (control.DebugProbes).
func (tq *taskQueue) len() int {
	tq.mu.Lock()
	defer tq.mu.Unlock()
	return tq.q.Length()
}
