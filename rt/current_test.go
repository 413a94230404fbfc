// File: rt/current_test.go

package rt

import (
	"runtime"
	"testing"
)

func TestWithRuntimePanicsOffRuntimeOwnedThread(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("WithRuntime() did not panic off a runtime-owned thread")
		}
	}()
	WithRuntime()
}

func TestTryWithRuntimeReportsAbsence(t *testing.T) {
	if _, ok := TryWithRuntime(); ok {
		t.Fatal("TryWithRuntime() = true on a thread no Runtime registered")
	}
}

func TestWithRuntimeResolvesOnRegisteredThread(t *testing.T) {
	done := make(chan struct{})
	want := &Runtime{}

	go func() {
		defer close(done)
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		registerRuntime(want)
		defer unregisterRuntime()

		if got := WithRuntime(); got != want {
			t.Errorf("WithRuntime() = %p, want %p", got, want)
		}
		if got, ok := TryWithRuntime(); !ok || got != want {
			t.Errorf("TryWithRuntime() = (%p, %v), want (%p, true)", got, ok, want)
		}
	}()
	<-done
}
