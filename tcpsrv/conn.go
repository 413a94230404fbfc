// File: tcpsrv/conn.go
//
// Conn and its metadata types, shared by every platform build. The
// connection's actual Read/Write I/O methods live in conn_windows.go /
// conn_other.go since they depend on the platform completion engine.

package tcpsrv

import (
	"net"
	"sync"

	"github.com/foliort/winasync/iocp"
)

// ProcessorNumber identifies a logical CPU by NUMA group and in-group
// index, mirroring the Win32 PROCESSOR_NUMBER structure.
type ProcessorNumber struct {
	Group  uint16
	Number uint8
}

// ProcessorAffinity is the RSS (Receive Side Scaling) processor
// assignment queried for a newly accepted connection via
// SIO_QUERY_RSS_PROCESSOR_INFO, mirroring the Win32
// SOCKET_PROCESSOR_AFFINITY structure. It is informational only — this
// module does not use it to steer dispatch, per original_source's own
// "one day we might" comment — and may change over the life of the
// connection, so callers should treat it as a hint, not a fixed fact.
type ProcessorAffinity struct {
	Processor  ProcessorNumber
	NumaNodeID uint64
}

// Conn is a single accepted TCP connection, bound to the completion
// engine of the runtime worker it was dispatched to. Unlike the standard
// library's net.Conn, it exposes no Read/Write via io.Reader/io.Writer;
// its I/O goes through the same overlapped-operation model as every
// other handle bound to this module's engine (ReadAsync/WriteAsync — see
// conn_windows.go), since that is the point of a thread-per-core
// completion-routed runtime.
type Conn struct {
	handle      *iocp.OwnedHandle
	engine      *iocp.Engine
	local       net.Addr
	remote      net.Addr
	affinity    ProcessorAffinity
	hasAffinity bool
	closeOnce   sync.Once
}

// LocalAddr returns the connection's local endpoint, extracted via
// GetAcceptExSockaddrs at accept time.
func (c *Conn) LocalAddr() net.Addr { return c.local }

// RemoteAddr returns the connection's remote endpoint, extracted via
// GetAcceptExSockaddrs at accept time.
func (c *Conn) RemoteAddr() net.Addr { return c.remote }

// ProcessorAffinity returns the RSS processor assignment queried at
// accept time, and whether the query succeeded — it commonly fails with
// WSAEOPNOTSUPP or WSAEACCES on adapters without RSS enabled (including
// loopback), which is not treated as an accept failure.
func (c *Conn) ProcessorAffinity() (ProcessorAffinity, bool) { return c.affinity, c.hasAffinity }

// Close closes the underlying socket exactly once. Safe to call more
// than once and from any goroutine.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.handle.Close()
	})
	return err
}
