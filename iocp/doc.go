// Package iocp implements the per-worker I/O completion engine: handle
// binding, overlapped operation lifecycle, and the pinned buffer pool that
// backs it. It is the leaf dependency of this module — everything in rt/
// and tcpsrv/ is built on top of the types declared here.
//
// The hot path (engine, operation, handle binding) only exists on Windows,
// where the kernel completion-port model this package wraps is available.
// Non-Windows builds get a stub engine that reports ErrNotSupported, so the
// module still type-checks and its platform-neutral pieces (buffer pool,
// error taxonomy) can be unit tested anywhere.
package iocp
