package codata

import (
	"github.com/zeroipc/zeroipc/api"
	"github.com/zeroipc/zeroipc/container/ring"
	"github.com/zeroipc/zeroipc/internal/wire"
	"github.com/zeroipc/zeroipc/table"
)

const (
	streamHeaderSize = 16 // sequence u64 + closed u32 + subscribers i32
	offSequence      = 0
	offStreamClosed  = 8
	offSubscribers   = 12
)

// Stream is an append-only sequence of T carried by a backing Ring (spec
// §4.12).
type Stream[T any] struct {
	mem wire.Bytes
	r   *ring.Ring[T]
}

// CreateStream allocates a Stream backed by a Ring able to hold
// capacityElems elements.
func CreateStream[T any](t *table.Table, name string, capacityElems uint64) (*Stream[T], error) {
	offset, err := t.Allocate(name, streamHeaderSize)
	if err != nil {
		return nil, err
	}
	mem := t.Region(offset, streamHeaderSize)
	mem.U64(offSequence).Store(0)
	mem.U32(offStreamClosed).Store(0)
	mem.I32(offSubscribers).Store(0)
	r, err := ring.Create[T](t, name+".ring", capacityElems)
	if err != nil {
		return nil, err
	}
	return &Stream[T]{mem: mem, r: r}, nil
}

// OpenStream attaches to an existing Stream by name.
func OpenStream[T any](t *table.Table, name string) (*Stream[T], error) {
	offset, size, ok := t.Find(name)
	if !ok {
		return nil, api.ErrNotFound.WithContext("name", name)
	}
	if size < streamHeaderSize {
		return nil, api.ErrInvalidArgument.WithContext("reason", "region too small for Stream")
	}
	mem := t.Region(offset, size)
	r, err := ring.Open[T](t, name+".ring")
	if err != nil {
		return nil, err
	}
	return &Stream[T]{mem: mem, r: r}, nil
}

// Emit appends v, failing if the backing ring is full or the stream is
// closed.
func (s *Stream[T]) Emit(v T) bool {
	if s.Closed() {
		return false
	}
	if !s.r.Write(v) {
		return false
	}
	s.mem.U64(offSequence).Add(1)
	return true
}

// EmitOverwrite appends v unconditionally, dropping the oldest buffered
// element if necessary (sensor-style drop-oldest semantics).
func (s *Stream[T]) EmitOverwrite(v T) {
	s.r.OverwritePush(v)
	s.mem.U64(offSequence).Add(1)
}

// Next performs a non-blocking read of the next buffered element.
func (s *Stream[T]) Next() (T, bool) { return s.r.Read() }

// Close marks the stream closed; further Emit calls fail but Next keeps
// draining the ring until empty.
func (s *Stream[T]) Close() { s.mem.U32(offStreamClosed).Store(1) }

// Closed reports whether Close has been called.
func (s *Stream[T]) Closed() bool { return s.mem.U32(offStreamClosed).Load() != 0 }

// Sequence returns the monotonic emit counter.
func (s *Stream[T]) Sequence() uint64 { return s.mem.U64(offSequence).Load() }

// AddSubscriber / RemoveSubscriber maintain the caller-managed reference
// count of pollers.
func (s *Stream[T]) AddSubscriber()    { s.mem.I32(offSubscribers).Add(1) }
func (s *Stream[T]) RemoveSubscriber() { s.mem.I32(offSubscribers).Add(-1) }
func (s *Stream[T]) Subscribers() int32 { return s.mem.I32(offSubscribers).Load() }
