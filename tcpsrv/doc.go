// Package tcpsrv implements the TCP acceptor and dispatcher: a pipeline
// of outstanding AcceptEx operations against one listening socket, and
// the routing of each accepted connection to a user handler scheduled on
// a runtime worker. It is named tcpsrv rather than net to avoid colliding
// with the standard library's net.Conn, which this package's own Conn
// type is not compatible with by design.
//
// The real pipeline (dispatcher_windows.go, conn_windows.go) only exists
// on Windows, where AcceptEx and the rest of the Winsock extension
// functions this package depends on are available. Off Windows, Build
// reports iocp.ErrNotSupported.
package tcpsrv
