//go:build windows

// File: tcpsrv/conn_windows.go
//
// The real Conn construction and its overlapped Read/Write, grounded on
// the teacher's internal/transport/transport_windows.go WSARecv/WSASend
// call sites, translated to use this module's iocp.Engine/Operation
// instead of the teacher's two-fixed-slot dispatch loop.

package tcpsrv

import (
	"net"
	"unsafe"

	"github.com/foliort/winasync/iocp"
	"golang.org/x/sys/windows"
)

// ntohs reverses the byte order of a network-order uint16 field as read
// on a little-endian host, recovering the port number in host order.
func ntohs(v uint16) uint16 { return v<<8 | v>>8 }

// sockaddrToTCPAddr reinterprets the bytes AcceptEx/GetAcceptExSockaddrs
// wrote as a RawSockaddrInet4 — this module only ever listens on AF_INET,
// per original_source's own IPv4-only accept path.
func sockaddrToTCPAddr(sa windows.RawSockaddrAny) net.Addr {
	inet4 := *(*windows.RawSockaddrInet4)(unsafe.Pointer(&sa))
	ip := net.IPv4(inet4.Addr[0], inet4.Addr[1], inet4.Addr[2], inet4.Addr[3])
	return &net.TCPAddr{IP: ip, Port: int(ntohs(inet4.Port))}
}

func newConn(handle *iocp.OwnedHandle, engine *iocp.Engine, local, remote windows.RawSockaddrAny, affinity ProcessorAffinity, hasAffinity bool) *Conn {
	return &Conn{
		handle:      handle,
		engine:      engine,
		local:       sockaddrToTCPAddr(local),
		remote:      sockaddrToTCPAddr(remote),
		affinity:    affinity,
		hasAffinity: hasAffinity,
	}
}

// ReadAsync issues an overlapped WSARecv into buf and returns a channel
// delivering the result once the kernel completes it, per this module's
// general "begin/await on a channel" idiom (spec section 4.1).
func (c *Conn) ReadAsync(buf iocp.Buffer) <-chan iocp.Outcome {
	op := c.engine.NewOperation(buf)
	return op.Begin(func(b []byte, ol *windows.Overlapped, n *uint32) error {
		wsabuf := windows.WSABuf{Len: uint32(len(b)), Buf: &b[0]}
		var flags uint32
		err := windows.WSARecv(windows.Handle(c.handle.Value()), &wsabuf, 1, n, &flags, ol, nil)
		if err == nil {
			return nil
		}
		return err
	})
}

// WriteAsync issues an overlapped WSASend of buf's used prefix and
// returns a channel delivering the result once the kernel completes it.
func (c *Conn) WriteAsync(buf iocp.Buffer) <-chan iocp.Outcome {
	op := c.engine.NewOperation(buf)
	return op.Begin(func(b []byte, ol *windows.Overlapped, n *uint32) error {
		wsabuf := windows.WSABuf{Len: uint32(len(b)), Buf: &b[0]}
		err := windows.WSASend(windows.Handle(c.handle.Value()), &wsabuf, 1, n, 0, ol, nil)
		if err == nil {
			return nil
		}
		return err
	})
}
