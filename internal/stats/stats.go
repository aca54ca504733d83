// Package stats holds process-wide atomic counters that feed
// control.MetricsRegistry: allocation count, CAS retries, and spin
// iterations accumulated across every container and primitive attached in
// this process, regardless of which segment or table they belong to.
package stats

import "sync/atomic"

var (
	allocations    atomic.Uint64
	casRetries     atomic.Uint64
	spinIterations atomic.Uint64
)

// IncAllocations records a successful table.Allocate call.
func IncAllocations() { allocations.Add(1) }

// IncCASRetries records one failed compare-and-swap that a caller retried.
func IncCASRetries() { casRetries.Add(1) }

// IncSpinIterations records one backoff.Spin call.
func IncSpinIterations() { spinIterations.Add(1) }

// Allocations returns the running allocation count.
func Allocations() uint64 { return allocations.Load() }

// CASRetries returns the running CAS-retry count.
func CASRetries() uint64 { return casRetries.Load() }

// SpinIterations returns the running spin-iteration count.
func SpinIterations() uint64 { return spinIterations.Load() }
