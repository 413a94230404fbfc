//go:build !windows

// File: iocp/engine_other.go
//
// Off-target-platform stand-in for the real Windows engine, so this
// module's platform-neutral packages (buffer pool, error taxonomy) still
// type-check and unit-test on any OS. Every operation reports
// ErrNotSupported rather than attempting anything.

package iocp

// Starter mirrors the Windows Starter shape closely enough for callers
// written against this package to compile on any platform; its
// parameters are never invoked here.
type Starter func(buf []byte, overlapped *struct{}, immediateBytes *uint32) error

// Operation is an inert placeholder; no value of this type is ever
// produced by this build.
type Operation struct {
	engine *Engine
}

// Begin always reports ErrNotSupported.
func (op *Operation) Begin(Starter) <-chan Outcome {
	ch := make(chan Outcome, 1)
	ch <- Outcome{Err: ErrNotSupported}
	return ch
}

// Abandon is a no-op off the target platform.
func (op *Operation) Abandon() {}

// Engine is an inert placeholder completion engine.
type Engine struct{}

// NewEngine always fails off the target platform.
func NewEngine() (*Engine, error) {
	return nil, ErrNotSupported
}

// Bind always fails.
func (e *Engine) Bind(handle uintptr) error { return ErrNotSupported }

// NewOperation returns an Operation whose Begin always fails.
func (e *Engine) NewOperation(buffer Buffer) *Operation { return &Operation{engine: e} }

// PollCompletions always fails.
func (e *Engine) PollCompletions(maxBatch int, timeoutMs uint32) (int, error) {
	return 0, ErrNotSupported
}

// Close is a no-op.
func (e *Engine) Close() error { return nil }

// Wake does nothing and reports ErrNotSupported.
func (e *Engine) Wake() error { return ErrNotSupported }
