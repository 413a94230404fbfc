// Package control is this module's ambient config/metrics/debug surface:
// a dynamic ConfigStore, a MetricsRegistry for counters, and a
// DebugProbes registry that rt.Runtime and tcpsrv.ServerHandle populate
// with their own live state. None of it is specific to I/O completion or
// TCP accept handling — it is the same kind of operational surface any
// long-running service needs, independent of what it is a service for.
package control
