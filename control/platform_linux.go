//go:build linux
// +build linux

// File: control/platform_linux.go
//
// Linux build of the platform probe set registered alongside
// rt.Runtime's own probes (the engine itself is Windows-only, but the
// rest of this module type-checks and is testable cross-platform).

package control

import (
	"runtime"
)

// RegisterPlatformProbes sets Linux-specific debug metrics.
func RegisterPlatformProbes(dp *DebugProbes) {
	dp.RegisterProbe("platform.cpus", func() any {
		return runtime.NumCPU()
	})
}
