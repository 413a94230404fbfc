//go:build !windows

// File: iocp/threadid_other.go

package iocp

// currentThreadID has no meaningful notion outside the Windows completion
// model this module targets; every caller shares the same fixed value so
// pool recycling degrades to "always owner" rather than "never owner",
// which is harmless off the target platform.
func currentThreadID() uint32 { return 0 }

// CurrentThreadID exposes currentThreadID to other packages in this
// module; see threadid_windows.go for the meaningful implementation.
func CurrentThreadID() uint32 { return currentThreadID() }
