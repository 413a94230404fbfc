// File: rt/taskqueue_test.go

package rt

import "testing"

func TestTaskQueueFIFOOrder(t *testing.T) {
	tq := newTaskQueue()
	var order []int
	for i := 0; i < 5; i++ {
		i := i
		tq.push(func() { order = append(order, i) })
	}
	if tq.len() != 5 {
		t.Fatalf("len() = %d, want 5", tq.len())
	}
	for i := 0; i < 5; i++ {
		task, ok := tq.pop()
		if !ok {
			t.Fatalf("pop() ok = false at i=%d", i)
		}
		task()
	}
	if _, ok := tq.pop(); ok {
		t.Fatalf("pop() on empty queue returned ok = true")
	}
	for i, v := range order {
		if v != i {
			t.Fatalf("order[%d] = %d, want %d (FIFO violated)", i, v, i)
		}
	}
}

func TestTaskQueueConcurrentPush(t *testing.T) {
	tq := newTaskQueue()
	done := make(chan struct{})
	const n = 200
	for i := 0; i < n; i++ {
		go func() {
			tq.push(func() {})
			done <- struct{}{}
		}()
	}
	for i := 0; i < n; i++ {
		<-done
	}
	if tq.len() != n {
		t.Fatalf("len() = %d, want %d", tq.len(), n)
	}
}
