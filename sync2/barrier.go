package sync2

import (
	"time"

	"github.com/zeroipc/zeroipc/api"
	"github.com/zeroipc/zeroipc/internal/backoff"
	"github.com/zeroipc/zeroipc/internal/wire"
	"github.com/zeroipc/zeroipc/table"
)

const (
	barrierHeaderSize = 16 // arrived i32 + generation i32 + num_participants i32 + reserved i32
	offArrived        = 0
	offGeneration      = 4
	offNumParticipants = 8
)

// Barrier is a reusable N-party rendezvous.
type Barrier struct {
	mem wire.Bytes
}

// CreateBarrier allocates a Barrier for the given party count.
func CreateBarrier(t *table.Table, name string, numParticipants int32) (*Barrier, error) {
	if numParticipants <= 0 {
		return nil, api.ErrInvalidArgument.WithContext("reason", "num_participants must be > 0")
	}
	offset, err := t.Allocate(name, barrierHeaderSize)
	if err != nil {
		return nil, err
	}
	mem := t.Region(offset, barrierHeaderSize)
	mem.I32(offArrived).Store(0)
	mem.I32(offGeneration).Store(0)
	mem.I32(offNumParticipants).Store(numParticipants)
	return &Barrier{mem: mem}, nil
}

// OpenBarrier attaches to an existing Barrier by name.
func OpenBarrier(t *table.Table, name string) (*Barrier, error) {
	offset, size, ok := t.Find(name)
	if !ok {
		return nil, api.ErrNotFound.WithContext("name", name)
	}
	if size < barrierHeaderSize {
		return nil, api.ErrInvalidArgument.WithContext("reason", "region too small for barrier")
	}
	return &Barrier{mem: t.Region(offset, size)}, nil
}

// Wait blocks until num_participants calls to Wait have arrived, then
// releases all of them and advances the generation so the barrier can be
// reused.
func (b *Barrier) Wait() {
	myGen := b.mem.I32(offGeneration).Load()
	arrived := b.mem.I32(offArrived).Add(1)
	n := b.mem.I32(offNumParticipants).Load()
	if arrived == n {
		b.mem.I32(offArrived).Store(0)
		b.mem.I32(offGeneration).Add(1)
		return
	}
	bo := backoff.New()
	for b.mem.I32(offGeneration).Load() == myGen {
		bo.Spin()
	}
}

// WaitFor blocks as Wait does but gives up after timeout, reporting whether
// the barrier actually released. A timed-out caller decrements arrived; if
// the last participant arrives in the same window as the decrement, the
// timeout caller under-counts and the barrier may never release on this
// generation. This is an acknowledged, documented race, not a bug; callers
// who cannot tolerate it must coordinate externally.
func (b *Barrier) WaitFor(timeout time.Duration) bool {
	myGen := b.mem.I32(offGeneration).Load()
	arrived := b.mem.I32(offArrived).Add(1)
	n := b.mem.I32(offNumParticipants).Load()
	if arrived == n {
		b.mem.I32(offArrived).Store(0)
		b.mem.I32(offGeneration).Add(1)
		return true
	}
	deadline := time.Now().Add(timeout)
	bo := backoff.New()
	for b.mem.I32(offGeneration).Load() == myGen {
		if time.Now().After(deadline) {
			b.mem.I32(offArrived).Add(-1)
			return false
		}
		bo.Spin()
	}
	return true
}

// Generation returns a snapshot of the current generation counter.
func (b *Barrier) Generation() int32 { return b.mem.I32(offGeneration).Load() }
