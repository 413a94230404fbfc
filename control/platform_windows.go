//go:build windows
// +build windows

// File: control/platform_windows.go
//
// Windows build of the platform probe set registered alongside
// rt.Runtime's own probes.

package control

import (
	"runtime"
)

// RegisterPlatformProbes sets Windows-specific debug probes.
func RegisterPlatformProbes(dp *DebugProbes) {
	dp.RegisterProbe("platform.cpus", func() any {
		return runtime.NumCPU()
	})
}
