// File: tcpsrv/server.go
//
// Config, ServerHandle and Build: the external surface of this package,
// unchanged in shape from spec.md section 6 restated in Go
// (SPEC_FULL.md section 8). Build's actual work is platform-specific
// (dispatcher_windows.go / dispatcher_other.go); this file only validates
// input and applies defaults, so it compiles and is testable on any
// platform.

package tcpsrv

import (
	"context"

	"github.com/foliort/winasync/control"
	"github.com/foliort/winasync/iocp"
	"github.com/foliort/winasync/rt"
)

// defaultConcurrentAccepts is the number of AcceptEx operations the
// dispatcher keeps outstanding at once, from original_source's
// CONCURRENT_ACCEPT_OPERATIONS.
const defaultConcurrentAccepts = 1024

// defaultBacklog is the listen() backlog, from original_source's
// PENDING_CONNECTION_LIMIT — well above the OS default of roughly 128,
// which original_source's own comment notes is not enough under load.
const defaultBacklog = 4096

// Config configures a TCP server build.
type Config struct {
	// Port is the TCP port to listen on; required, must be non-zero.
	Port uint16
	// OnAccept is called once per accepted connection, on a runtime
	// worker goroutine chosen by the dispatcher; it may be called
	// concurrently from any number of workers. The connection is closed
	// automatically once OnAccept returns, regardless of the error it
	// returns.
	OnAccept func(context.Context, *Conn) error

	// ConcurrentAccepts overrides the number of AcceptEx operations kept
	// outstanding at once. Zero uses defaultConcurrentAccepts.
	ConcurrentAccepts int
	// Backlog overrides the listen() backlog. Zero uses defaultBacklog.
	Backlog int
}

func (c *Config) concurrentAccepts() int {
	if c.ConcurrentAccepts > 0 {
		return c.ConcurrentAccepts
	}
	return defaultConcurrentAccepts
}

func (c *Config) backlog() int {
	if c.Backlog > 0 {
		return c.Backlog
	}
	return defaultBacklog
}

func (c *Config) validate() error {
	if c.Port == 0 {
		return iocp.InvalidOptions("port must be set")
	}
	if c.OnAccept == nil {
		return iocp.InvalidOptions("OnAccept must be set")
	}
	return nil
}

// ServerHandle is the control surface for a running TCP server. Its
// lifetime is independent of the handle's own: dropping a ServerHandle
// does not stop the server, only Stop does.
type ServerHandle struct {
	d dispatcherHandle
}

// Stop signals the dispatcher to stop accepting new connections and to
// begin tearing down. It returns immediately; call Wait to block until
// shutdown has actually completed. Safe to call more than once.
func (h *ServerHandle) Stop() { h.d.stop() }

// Wait blocks until the dispatcher has fully terminated, or ctx is done,
// whichever comes first.
func (h *ServerHandle) Wait(ctx context.Context) error { return h.d.wait(ctx) }

// RegisterProbes exposes this server's dispatcher state under name in dp,
// for inspection alongside a Runtime's own probes (Runtime.RegisterProbes).
func (h *ServerHandle) RegisterProbes(dp *control.DebugProbes, name string) {
	dp.RegisterProbe(name, func() any { return h.d.probe() })
}

// Build starts a TCP server listening on cfg.Port, dispatching accepted
// connections to cfg.OnAccept on one of rt's workers. It returns once
// startup has completed or failed — connections may already have been
// accepted by the time it returns, and may still be accepted even if it
// ultimately returns an error (an error return does mean no further
// connections will be accepted after that point).
func Build(ctx context.Context, runtime *rt.Runtime, cfg Config) (*ServerHandle, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return build(ctx, runtime, cfg)
}
