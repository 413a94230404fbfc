// File: iocp/handle.go
//
// OwnedHandle: a scoped wrapper around an OS handle value whose destructor
// closes the handle exactly once, per spec section 3 "Owned handle".
// Modeled on original_source's Rust OwnedHandle (util/owned_handle.rs,
// referenced from util.rs) and the teacher's repeated inline pattern of a
// struct with a closed flag guarded by a mutex/atomic — generalized here
// into one reusable type instead of being hand-duplicated per call site.

package iocp

import "sync"

// rawHandle is the underlying OS handle representation; platform files
// supply the concrete closer.
type rawHandle = uintptr

// OwnedHandle closes its underlying handle exactly once, on the first call
// to Close (explicit) — Go has no destructors, so every construction site
// is expected to defer Close or hand the handle to code that will.
type OwnedHandle struct {
	once   sync.Once
	value  rawHandle
	closer func(rawHandle) error
}

// newOwnedHandle wraps value, closing it via closer on first Close.
func newOwnedHandle(value rawHandle, closer func(rawHandle) error) *OwnedHandle {
	return &OwnedHandle{value: value, closer: closer}
}

// NewOwnedHandle wraps an externally obtained handle value, closing it via
// closer on first Close. Exported for packages outside iocp (notably
// tcpsrv) that create their own raw handles via platform syscalls this
// package does not itself issue, such as a listening socket.
func NewOwnedHandle(value uintptr, closer func(uintptr) error) *OwnedHandle {
	return newOwnedHandle(value, closer)
}

// Value returns the wrapped OS handle value. Callers must not close it
// directly; use Close on the OwnedHandle instead.
func (h *OwnedHandle) Value() uintptr { return h.value }

// Close closes the underlying handle exactly once; subsequent calls are a
// no-op returning nil.
func (h *OwnedHandle) Close() error {
	var err error
	h.once.Do(func() {
		if h.closer != nil {
			err = h.closer(h.value)
		}
	})
	return err
}

// Shared is a thread-safe reference-counted owner around an OwnedHandle,
// used for the listening socket shared between the TCP dispatcher and its
// in-flight accept operations (spec section 5 "Shared-resource policy").
// Mirrors Arc<OwnedHandle<SOCKET>> in original_source's tcp_server.rs.
type Shared struct {
	mu     sync.Mutex
	handle *OwnedHandle
	refs   int
}

// NewShared wraps handle with an initial reference count of 1.
func NewShared(handle *OwnedHandle) *Shared {
	return &Shared{handle: handle, refs: 1}
}

// Acquire increments the reference count and returns the shared handle.
func (s *Shared) Acquire() *Shared {
	s.mu.Lock()
	s.refs++
	s.mu.Unlock()
	return s
}

// Value returns the underlying OS handle value.
func (s *Shared) Value() uintptr { return s.handle.Value() }

// Release decrements the reference count, closing the underlying handle
// when the last reference is released.
func (s *Shared) Release() error {
	s.mu.Lock()
	s.refs--
	last := s.refs == 0
	s.mu.Unlock()
	if last {
		return s.handle.Close()
	}
	return nil
}
