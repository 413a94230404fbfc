// File: tcpsrv/dispatcher.go
//
// dispatcherHandle is the minimal surface ServerHandle needs from a
// platform dispatcher, letting server.go stay platform-neutral while
// dispatcher_windows.go / dispatcher_other.go provide the real (or
// stubbed) implementation.

package tcpsrv

import "context"

type dispatcherHandle interface {
	stop()
	wait(ctx context.Context) error
	probe() map[string]any
}
