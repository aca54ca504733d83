// Package sync2 implements cross-process blocking coordination primitives —
// Semaphore, Barrier, Latch — over named shared-memory regions, built on the
// same spin+backoff discipline internal/backoff provides the containers.
// Each primitive follows the CAS-retry idiom container/queue and
// container/stack use, lifted onto internal/wire headers.
package sync2

import (
	"time"

	"github.com/zeroipc/zeroipc/api"
	"github.com/zeroipc/zeroipc/internal/backoff"
	"github.com/zeroipc/zeroipc/internal/wire"
	"github.com/zeroipc/zeroipc/table"
)

const (
	semHeaderSize = 16 // count i32 + max_count i32 + waiting i32 + reserved i32
	offCount      = 0
	offMaxCount   = 4
	offWaiting    = 8
)

// Semaphore is a shared-memory counting semaphore.
type Semaphore struct {
	mem wire.Bytes
}

// Create allocates a Semaphore with the given initial count. maxCount == 0
// means unbounded.
func Create(t *table.Table, name string, initial, maxCount int32) (*Semaphore, error) {
	offset, err := t.Allocate(name, semHeaderSize)
	if err != nil {
		return nil, err
	}
	mem := t.Region(offset, semHeaderSize)
	mem.I32(offCount).Store(initial)
	mem.I32(offMaxCount).Store(maxCount)
	mem.I32(offWaiting).Store(0)
	return &Semaphore{mem: mem}, nil
}

// Open attaches to an existing Semaphore by name.
func Open(t *table.Table, name string) (*Semaphore, error) {
	offset, size, ok := t.Find(name)
	if !ok {
		return nil, api.ErrNotFound.WithContext("name", name)
	}
	if size < semHeaderSize {
		return nil, api.ErrInvalidArgument.WithContext("reason", "region too small for semaphore")
	}
	return &Semaphore{mem: t.Region(offset, size)}, nil
}

// TryAcquire attempts a single non-blocking CAS decrement.
func (s *Semaphore) TryAcquire() bool {
	c := s.mem.I32(offCount)
	for {
		cur := c.Load()
		if cur <= 0 {
			return false
		}
		if c.CompareAndSwap(cur, cur-1) {
			return true
		}
	}
}

// Acquire blocks until a permit is available.
func (s *Semaphore) Acquire() {
	waiting := s.mem.I32(offWaiting)
	waiting.Add(1)
	defer waiting.Add(-1)
	b := backoff.New()
	for !s.TryAcquire() {
		b.Spin()
	}
}

// AcquireFor blocks until a permit is available or the timeout elapses,
// reporting which happened.
func (s *Semaphore) AcquireFor(timeout time.Duration) bool {
	waiting := s.mem.I32(offWaiting)
	waiting.Add(1)
	defer waiting.Add(-1)
	deadline := time.Now().Add(timeout)
	b := backoff.New()
	for {
		if s.TryAcquire() {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		b.Spin()
	}
}

// Release returns a permit, failing with ErrOverflow if a bounded
// semaphore's max_count would be exceeded.
func (s *Semaphore) Release() error {
	c := s.mem.I32(offCount)
	maxCount := s.mem.I32(offMaxCount).Load()
	for {
		cur := c.Load()
		if maxCount > 0 && cur >= maxCount {
			return api.ErrOverflow
		}
		if c.CompareAndSwap(cur, cur+1) {
			return nil
		}
	}
}

// Count returns a snapshot of the available permit count.
func (s *Semaphore) Count() int32 { return s.mem.I32(offCount).Load() }

// Waiting returns a snapshot of the number of goroutines currently blocked
// in Acquire/AcquireFor, for observability only.
func (s *Semaphore) Waiting() int32 { return s.mem.I32(offWaiting).Load() }
