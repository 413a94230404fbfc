//go:build windows

// File: iocp/threadid_windows.go
//
// currentThreadID resolves the calling OS thread's ID via
// golang.org/x/sys/windows, already pulled in by engine_windows.go for
// every other raw Win32 call this module makes.

package iocp

import "golang.org/x/sys/windows"

// currentThreadID returns the calling OS thread's ID. Valid as a proxy for
// worker identity only on goroutines pinned via runtime.LockOSThread.
func currentThreadID() uint32 {
	return windows.GetCurrentThreadId()
}

// CurrentThreadID exposes currentThreadID to other packages in this
// module (rt's thread-local emulation registry) without exposing the
// underlying syscall.
func CurrentThreadID() uint32 { return currentThreadID() }
