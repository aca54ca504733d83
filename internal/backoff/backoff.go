// Package backoff implements the spin+backoff wait strategy shared by every
// blocking operation in zeroipc: Semaphore.Acquire, Barrier.Wait, Latch.Wait,
// Future.Get, Channel send/recv, and Lazy.Force.
//
// There is no kernel wait queue involved anywhere in this library: every
// wait is a user-space loop that polls a shared atomic and sleeps for an
// exponentially increasing duration, starting at 1us and capped at 1ms,
// yielding the OS thread between polls.
package backoff

import (
	"runtime"
	"time"

	"github.com/zeroipc/zeroipc/internal/stats"
)

var (
	// Min is the initial backoff duration for new Backoff instances.
	Min = time.Microsecond
	// Max is the backoff ceiling; doubling stops once this is reached.
	Max = time.Millisecond
)

// SetBounds overrides Min/Max for every Backoff created after the call.
// zeroipc.New calls this from Config.SpinMin/SpinMax so a process can
// tune its own spin-wait aggressiveness without touching call sites.
func SetBounds(min, max time.Duration) {
	Min, Max = min, max
}

// Backoff tracks escalating spin-wait state across repeated poll attempts.
// It is not safe for concurrent use by multiple goroutines — each waiter
// should own its own instance.
type Backoff struct {
	cur time.Duration
	max time.Duration
}

// New returns a Backoff ready to start spinning at the current Min, capped
// at the current Max.
func New() *Backoff {
	return &Backoff{cur: Min, max: Max}
}

// Spin yields the current goroutine's thread and sleeps for the current
// backoff duration, then doubles it (capped at max). Callers loop:
//
//	b := backoff.New()
//	for !pollCondition() {
//	    b.Spin()
//	}
func (b *Backoff) Spin() {
	stats.IncSpinIterations()
	runtime.Gosched()
	time.Sleep(b.cur)
	if b.cur < b.max {
		b.cur *= 2
		if b.cur > b.max {
			b.cur = b.max
		}
	}
}

// Reset returns the backoff to its initial state, e.g. after a successful
// poll that is expected to be followed by further polling (Barrier cycles).
func (b *Backoff) Reset() {
	b.cur = Min
}

// SpinUntil polls cond in a spin+backoff loop until it returns true, or
// deadline (zero means no deadline) elapses. Returns false on timeout.
func SpinUntil(cond func() bool, deadline time.Time) bool {
	b := New()
	for !cond() {
		if !deadline.IsZero() && time.Now().After(deadline) {
			return false
		}
		b.Spin()
	}
	return true
}
