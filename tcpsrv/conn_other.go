//go:build !windows

// File: tcpsrv/conn_other.go

package tcpsrv

import "github.com/foliort/winasync/iocp"

// ReadAsync always fails off the target platform.
func (c *Conn) ReadAsync(buf iocp.Buffer) <-chan iocp.Outcome {
	ch := make(chan iocp.Outcome, 1)
	ch <- iocp.Outcome{Buffer: buf, Err: iocp.ErrNotSupported}
	return ch
}

// WriteAsync always fails off the target platform.
func (c *Conn) WriteAsync(buf iocp.Buffer) <-chan iocp.Outcome {
	ch := make(chan iocp.Outcome, 1)
	ch <- iocp.Outcome{Buffer: buf, Err: iocp.ErrNotSupported}
	return ch
}
