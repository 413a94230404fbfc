//go:build !windows

// File: tcpsrv/dispatcher_other.go

package tcpsrv

import (
	"context"

	"github.com/foliort/winasync/iocp"
	"github.com/foliort/winasync/rt"
)

func build(ctx context.Context, runtime *rt.Runtime, cfg Config) (*ServerHandle, error) {
	return nil, iocp.ErrNotSupported
}
