//go:build windows

// File: tcpsrv/dispatcher_windows.go
//
// The TCP dispatcher: owns the listening socket, keeps a pipeline of
// outstanding AcceptEx operations, and hands each accepted connection off
// to a runtime worker for cfg.OnAccept. Grounded directly on
// original_source's net/tcp_server.rs TcpDispatcher — the state machine
// (Init/Starting/Accepting/Terminated), the oneshot startup/shutdown
// channel protocol, and the exact accept sequence (fresh socket on a
// sync worker, AcceptEx, GetAcceptExSockaddrs, SO_UPDATE_ACCEPT_CONTEXT,
// SIO_QUERY_RSS_PROCESSOR_INFO) are all carried over; only the
// concurrency primitives change to their Go equivalents (goroutines and
// channels standing in for Rust's FuturesUnordered/select).

package tcpsrv

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/foliort/winasync/internal/obslog"
	"github.com/foliort/winasync/iocp"
	"github.com/foliort/winasync/rt"
	"golang.org/x/sys/windows"
)

type dispatcherState int32

const (
	stateInit dispatcherState = iota
	stateStarting
	stateAccepting
	stateTerminated
)

// acceptOutcome is what one AcceptOne attempt produces: either a fully
// negotiated connection socket plus its metadata, or an error.
type acceptOutcome struct {
	handle      uintptr
	local       windows.RawSockaddrAny
	remote      windows.RawSockaddrAny
	affinity    ProcessorAffinity
	hasAffinity bool
	err         error
}

// dispatcher is the running TCP acceptor/dispatcher task.
type dispatcher struct {
	cfg    Config
	rt     *rt.Runtime
	worker *rt.AsyncWorker

	state atomic.Int32

	listenSocket *iocp.Shared

	startupCh  chan error
	shutdownCh chan struct{}
	stopOnce   sync.Once
	doneCh     chan struct{}
}

func newDispatcher(runtime *rt.Runtime, worker *rt.AsyncWorker, cfg Config) *dispatcher {
	return &dispatcher{
		cfg:        cfg,
		rt:         runtime,
		worker:     worker,
		startupCh:  make(chan error, 1),
		shutdownCh: make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
}

func (d *dispatcher) stop() {
	d.stopOnce.Do(func() {
		obslog.Trace("tcpsrv: signaling dispatcher to stop")
		close(d.shutdownCh)
	})
}

func (d *dispatcher) wait(ctx context.Context) error {
	select {
	case <-d.doneCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s dispatcherState) String() string {
	switch s {
	case stateInit:
		return "init"
	case stateStarting:
		return "starting"
	case stateAccepting:
		return "accepting"
	case stateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// probe reports the dispatcher's current lifecycle state, for
// control.DebugProbes wiring (ServerHandle.RegisterProbes).
func (d *dispatcher) probe() map[string]any {
	return map[string]any{
		"state": dispatcherState(d.state.Load()).String(),
	}
}

// build validates nothing further (Build already did) and starts the
// dispatcher, waiting for it to report startup success or failure.
func build(ctx context.Context, runtime *rt.Runtime, cfg Config) (*ServerHandle, error) {
	worker := runtime.Worker(0)
	d := newDispatcher(runtime, worker, cfg)
	go d.run()

	select {
	case err := <-d.startupCh:
		if err != nil {
			return nil, err
		}
	case <-ctx.Done():
		d.stop()
		return nil, ctx.Err()
	}

	obslog.Info("tcpsrv: server started", "port", cfg.Port)
	return &ServerHandle{d: d}, nil
}

// run is the dispatcher's entire lifecycle: startup, then accept until
// told to stop.
func (d *dispatcher) run() {
	defer close(d.doneCh)

	d.state.Store(int32(stateStarting))
	if err := d.startup(); err != nil {
		obslog.Error("tcpsrv: dispatcher startup failed - terminating", "error", err)
		d.state.Store(int32(stateTerminated))
		d.startupCh <- err
		return
	}
	d.startupCh <- nil

	d.state.Store(int32(stateAccepting))
	obslog.Trace("tcpsrv: opened TCP socket for accepting connections")
	d.runAcceptLoop()
	d.state.Store(int32(stateTerminated))
	obslog.Debug("tcpsrv: dispatcher shut down")
}

// startup creates the listening socket (on the sync pool, since socket
// creation and listen() are blocking syscalls) and binds it to this
// dispatcher's chosen worker's completion engine.
func (d *dispatcher) startup() error {
	h, err := rt.SpawnSyncOnAny(d.rt, func() (uintptr, error) {
		return createListenSocket(d.cfg.Port, d.cfg.backlog())
	}).Wait(context.Background())
	if err != nil {
		return err
	}

	if err := d.worker.Engine().Bind(h); err != nil {
		closeSocket(h)
		return err
	}

	d.listenSocket = iocp.NewShared(iocp.NewOwnedHandle(h, func(v uintptr) error {
		return closeSocket(v)
	}))
	return nil
}

// runAcceptLoop keeps up to cfg.concurrentAccepts() AcceptOne attempts in
// flight, processing and replacing each as it completes, until shutdownCh
// is closed. This is the Go equivalent of original_source's
// FuturesUnordered-backed accept_futures pool: each attempt is its own
// goroutine rather than a polled future, and the dispatcher fans their
// outcomes back in over a single channel.
func (d *dispatcher) runAcceptLoop() {
	results := make(chan acceptOutcome)
	limit := d.cfg.concurrentAccepts()

	spawn := func() { go d.acceptOne(results) }
	for i := 0; i < limit; i++ {
		spawn()
	}

	for {
		select {
		case <-d.shutdownCh:
			d.listenSocket.Release()
			return
		case out := <-results:
			if out.err != nil {
				obslog.Warn("tcpsrv: error accepting new connection - ignoring", "error", out.err)
			} else {
				d.dispatchAccepted(out)
			}
			spawn()
		}
	}
}

// acceptOne runs exactly one "accept a connection" attempt to completion
// (or abandonment, if shutdown arrives first) and sends its outcome to
// results. It never sends on results after observing shutdownCh, mirroring
// original_source's "when we are shutting down, this operation will
// simply be abandoned."
func (d *dispatcher) acceptOne(results chan<- acceptOutcome) {
	obslog.Trace("tcpsrv: listening for an incoming connection")

	connSocket, err := rt.SpawnSyncOnAny(d.rt, func() (uintptr, error) {
		obslog.Trace("tcpsrv: creating fresh socket for next incoming connection")
		return createPlainSocket()
	}).Wait(context.Background())
	if err != nil {
		select {
		case results <- acceptOutcome{err: err}:
		case <-d.shutdownCh:
		}
		return
	}

	// The pool is not safe for concurrent Get, so the buffer is taken on
	// the worker's own loop goroutine.
	buf, _ := rt.SpawnOn(d.rt, d.worker.ID(), func() (iocp.Buffer, error) {
		return d.worker.BufferPool().Get(), nil
	}).Wait(context.Background())
	if len(buf.Data) < minAcceptBufferSize {
		// The worker pool was configured with too small a buffer
		// capacity for this dispatcher to function; this is a
		// configuration error, not a runtime condition.
		panic("tcpsrv: worker buffer pool capacity is smaller than minAcceptBufferSize")
	}

	listenHandle := windows.Handle(d.listenSocket.Acquire().Value())
	op := d.worker.Engine().NewOperation(buf)
	ch := op.Begin(func(b []byte, ol *windows.Overlapped, n *uint32) error {
		return callAcceptEx(listenHandle, windows.Handle(connSocket), b, n, ol)
	})

	obslog.Trace("tcpsrv: waiting for incoming connection to arrive")

	select {
	case out := <-ch:
		d.listenSocket.Release()
		if out.Err != nil {
			closeSocket(connSocket)
			select {
			case results <- acceptOutcome{err: out.Err}:
			case <-d.shutdownCh:
			}
			return
		}
		d.finishAccept(connSocket, out.Buffer.Bytes(), results)

	case <-d.shutdownCh:
		op.Abandon()
		d.listenSocket.Release()
		closeSocket(connSocket)
		return
	}
}

// finishAccept extracts the accepted endpoints, finalizes the connection
// socket (SO_UPDATE_ACCEPT_CONTEXT, RSS query) on the sync pool, and
// reports the finished outcome.
func (d *dispatcher) finishAccept(connSocket uintptr, acceptBuf []byte, results chan<- acceptOutcome) {
	obslog.Trace("tcpsrv: incoming connection accepted; identifying addresses")
	local, remote := extractAcceptExAddrs(acceptBuf)

	listenHandle := windows.Handle(d.listenSocket.Acquire().Value())
	defer d.listenSocket.Release()

	type finalized struct {
		affinity    ProcessorAffinity
		hasAffinity bool
	}
	fin, err := rt.SpawnSyncOnAny(d.rt, func() (finalized, error) {
		obslog.Trace("tcpsrv: configuring socket for incoming connection")
		if err := windows.SetsockoptInt(windows.Handle(connSocket), windows.SOL_SOCKET, windows.SO_UPDATE_ACCEPT_CONTEXT, int(listenHandle)); err != nil {
			return finalized{}, err
		}
		affinity, ok, err := queryRSSProcessorInfo(windows.Handle(connSocket))
		if err != nil {
			obslog.Warn("tcpsrv: error querying RSS processor info for new connection", "error", err)
		} else if !ok {
			obslog.Trace("tcpsrv: RSS not supported/enabled on network adapter used for new connection")
		}
		return finalized{affinity: affinity, hasAffinity: ok}, nil
	}).Wait(context.Background())
	if err != nil {
		closeSocket(connSocket)
		select {
		case results <- acceptOutcome{err: err}:
		case <-d.shutdownCh:
		}
		return
	}

	select {
	case results <- acceptOutcome{handle: connSocket, local: local, remote: remote, affinity: fin.affinity, hasAffinity: fin.hasAffinity}:
	case <-d.shutdownCh:
		closeSocket(connSocket)
	}
}

// dispatchAccepted hands the accepted connection off to a round-robin
// runtime worker: binds the socket to that worker's own completion
// engine (which is only known once we know which worker we landed on,
// per original_source's own comment to that effect), constructs the Conn,
// and invokes cfg.OnAccept with the connection closed automatically
// afterward.
func (d *dispatcher) dispatchAccepted(out acceptOutcome) {
	rt.SpawnOnAny(d.rt, func() (struct{}, error) {
		w := rt.WithIO()
		if err := w.Engine().Bind(out.handle); err != nil {
			closeSocket(out.handle)
			return struct{}{}, err
		}

		conn := newConn(
			iocp.NewOwnedHandle(out.handle, func(v uintptr) error { return closeSocket(v) }),
			w.Engine(),
			out.local, out.remote,
			out.affinity, out.hasAffinity,
		)
		defer conn.Close()

		if err := d.cfg.OnAccept(context.Background(), conn); err != nil {
			obslog.Warn("tcpsrv: OnAccept returned an error", "error", err)
		}
		return struct{}{}, nil
	})
}

func createListenSocket(port uint16, backlog int) (uintptr, error) {
	sock, err := createOverlappedSocket()
	if err != nil {
		return 0, err
	}
	sa := &windows.SockaddrInet4{Port: int(port)}
	if err := windows.Bind(sock, sa); err != nil {
		windows.Closesocket(sock)
		return 0, err
	}
	// A raw backlog value is passed negated, per the SOMAXCONN_HINT
	// convention: negative means "use the absolute value as the hint".
	if err := windows.Listen(sock, -backlog); err != nil {
		windows.Closesocket(sock)
		return 0, err
	}
	return uintptr(sock), nil
}

func createPlainSocket() (uintptr, error) {
	sock, err := createOverlappedSocket()
	if err != nil {
		return 0, err
	}
	return uintptr(sock), nil
}

func createOverlappedSocket() (windows.Handle, error) {
	return windows.WSASocket(windows.AF_INET, windows.SOCK_STREAM, windows.IPPROTO_TCP, nil, 0, windows.WSA_FLAG_OVERLAPPED)
}

func closeSocket(h uintptr) error {
	return windows.Closesocket(windows.Handle(h))
}
