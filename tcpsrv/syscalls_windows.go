//go:build windows

// File: tcpsrv/syscalls_windows.go
//
// Raw Winsock calls the dispatcher needs beyond what golang.org/x/sys/windows
// wraps directly: AcceptEx (via Mswsock.dll, following the teacher's own
// internal/transport/transport_windows_accept.go lazy-proc pattern) and the
// RSS processor-affinity query, whose control code and output structure
// this module defines itself since they are not part of the x/sys/windows
// surface this corpus pins to.

package tcpsrv

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	modmswsock   = windows.NewLazySystemDLL("Mswsock.dll")
	procAcceptEx = modmswsock.NewProc("AcceptEx")
)

// addressLength is sizeof(SOCKADDR_IN) + 16, the per-endpoint stride
// AcceptEx and GetAcceptExSockaddrs expect, per original_source's
// ADDRESS_LENGTH constant.
const addressLength = 16 + 16

// minAcceptBufferSize is the minimum output buffer AcceptEx needs: two
// endpoint records (local + remote), no inline received data.
const minAcceptBufferSize = 2 * addressLength

// callAcceptEx issues AcceptEx on listenSocket for the freshly created
// connSocket, writing endpoint records into buf and the overlapped
// control block into ol. It never requests inline received data
// (dwReceiveDataLength is always 0), matching original_source's own
// choice to keep accept and first-read separate.
func callAcceptEx(listenSocket, connSocket windows.Handle, buf []byte, immediateBytes *uint32, ol *windows.Overlapped) error {
	r1, _, e1 := procAcceptEx.Call(
		uintptr(listenSocket),
		uintptr(connSocket),
		uintptr(unsafe.Pointer(&buf[0])),
		0,
		uintptr(addressLength),
		uintptr(addressLength),
		uintptr(unsafe.Pointer(immediateBytes)),
		uintptr(unsafe.Pointer(ol)),
	)
	if r1 != 0 {
		return nil
	}
	if e1 == windows.ERROR_IO_PENDING {
		return windows.ERROR_IO_PENDING
	}
	return e1
}

// extractAcceptExAddrs decodes the local and remote SOCKADDR_IN records
// AcceptEx wrote into buf, via the x/sys/windows wrapped
// GetAcceptExSockaddrs.
func extractAcceptExAddrs(buf []byte) (local, remote windows.RawSockaddrAny) {
	var localPtr, remotePtr *windows.RawSockaddrAny
	var localLen, remoteLen int32

	windows.GetAcceptExSockaddrs(
		&buf[0], 0, addressLength, addressLength,
		&localPtr, &localLen, &remotePtr, &remoteLen,
	)

	if localPtr != nil {
		local = *localPtr
	}
	if remotePtr != nil {
		remote = *remotePtr
	}
	return local, remote
}

// winProcessorNumber mirrors the Win32 PROCESSOR_NUMBER structure.
type winProcessorNumber struct {
	Group    uint16
	Number   uint8
	Reserved uint8
}

// winSocketProcessorAffinity mirrors the Win32 SOCKET_PROCESSOR_AFFINITY
// structure returned by SIO_QUERY_RSS_PROCESSOR_INFO.
type winSocketProcessorAffinity struct {
	Processor  winProcessorNumber
	NumaNodeID uint64
	Reserved   int64
}

// sioQueryRSSProcessorInfo is the WSAIoctl control code
// SIO_QUERY_RSS_PROCESSOR_INFO from mswsock.h. golang.org/x/sys/windows
// does not define it, so this module carries the literal value here.
const sioQueryRSSProcessorInfo = 0x5801002D

// queryRSSProcessorInfo queries the RSS processor assigned to sock. It
// returns ok=false (not an error) when the adapter does not support or
// permit the query — the common case on loopback or adapters without RSS
// enabled, per original_source's own tolerance of WSAEOPNOTSUPP/WSAEACCES.
func queryRSSProcessorInfo(sock windows.Handle) (ProcessorAffinity, bool, error) {
	var raw winSocketProcessorAffinity
	var bytesReturned uint32

	err := windows.WSAIoctl(
		sock,
		sioQueryRSSProcessorInfo,
		nil, 0,
		(*byte)(unsafe.Pointer(&raw)), uint32(unsafe.Sizeof(raw)),
		&bytesReturned,
		nil, 0,
	)
	if err != nil {
		if err == windows.WSAEOPNOTSUPP || err == windows.WSAEACCES {
			return ProcessorAffinity{}, false, nil
		}
		return ProcessorAffinity{}, false, err
	}

	return ProcessorAffinity{
		Processor:  ProcessorNumber{Group: raw.Processor.Group, Number: raw.Processor.Number},
		NumaNodeID: raw.NumaNodeID,
	}, true, nil
}
