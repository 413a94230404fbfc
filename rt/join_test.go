// File: rt/join_test.go

package rt

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestJoinHandleWaitDeliversResult(t *testing.T) {
	ch := make(chan result[int], 1)
	ch <- result[int]{val: 42, err: nil}
	h := JoinHandle[int]{ch: ch}

	v, err := h.Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait() err = %v, want nil", err)
	}
	if v != 42 {
		t.Fatalf("Wait() val = %d, want 42", v)
	}
}

func TestJoinHandleWaitDeliversError(t *testing.T) {
	boom := errors.New("boom")
	ch := make(chan result[int], 1)
	ch <- result[int]{err: boom}
	h := JoinHandle[int]{ch: ch}

	_, err := h.Wait(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("Wait() err = %v, want %v", err, boom)
	}
}

func TestJoinHandleWaitRespectsContextCancellation(t *testing.T) {
	ch := make(chan result[int]) // never sent to
	h := JoinHandle[int]{ch: ch}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := h.Wait(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Wait() err = %v, want context.DeadlineExceeded", err)
	}
}
