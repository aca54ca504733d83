package sync2

import (
	"github.com/zeroipc/zeroipc/api"
	"github.com/zeroipc/zeroipc/internal/backoff"
	"github.com/zeroipc/zeroipc/internal/wire"
	"github.com/zeroipc/zeroipc/table"
)

const (
	latchHeaderSize = 8 // count i32 + reserved i32
	offLatchCount   = 0
)

// Latch is a single-use countdown gate; once it reaches zero it cannot be
// reset.
type Latch struct {
	mem wire.Bytes
}

// CreateLatch allocates a Latch starting at the given count.
func CreateLatch(t *table.Table, name string, count int32) (*Latch, error) {
	if count < 0 {
		return nil, api.ErrInvalidArgument.WithContext("reason", "count must be >= 0")
	}
	offset, err := t.Allocate(name, latchHeaderSize)
	if err != nil {
		return nil, err
	}
	mem := t.Region(offset, latchHeaderSize)
	mem.I32(offLatchCount).Store(count)
	return &Latch{mem: mem}, nil
}

// OpenLatch attaches to an existing Latch by name.
func OpenLatch(t *table.Table, name string) (*Latch, error) {
	offset, size, ok := t.Find(name)
	if !ok {
		return nil, api.ErrNotFound.WithContext("name", name)
	}
	if size < latchHeaderSize {
		return nil, api.ErrInvalidArgument.WithContext("reason", "region too small for latch")
	}
	return &Latch{mem: t.Region(offset, size)}, nil
}

// CountDown decrements the count by n, clamped at zero. n <= 0 is rejected.
func (l *Latch) CountDown(n int32) error {
	if n <= 0 {
		return api.ErrInvalidArgument.WithContext("reason", "n must be > 0")
	}
	c := l.mem.I32(offLatchCount)
	for {
		cur := c.Load()
		next := cur - n
		if next < 0 {
			next = 0
		}
		if c.CompareAndSwap(cur, next) {
			return nil
		}
	}
}

// Wait blocks until the count reaches zero.
func (l *Latch) Wait() {
	c := l.mem.I32(offLatchCount)
	b := backoff.New()
	for c.Load() != 0 {
		b.Spin()
	}
}

// Count returns a snapshot of the remaining count.
func (l *Latch) Count() int32 { return l.mem.I32(offLatchCount).Load() }
