// Package queue implements a bounded multi-producer/multi-consumer
// lock-free FIFO over shared memory: a circular buffer with
// monotonic-mod-capacity head/tail indices, one reserved slot to
// distinguish full from empty, and CAS-reserve-then-write on both ends
// addressed through a header (head/tail/capacity/elem_size at fixed
// offsets via internal/wire) instead of Go struct fields.
package queue

import (
	"unsafe"

	"github.com/zeroipc/zeroipc/api"
	"github.com/zeroipc/zeroipc/internal/stats"
	"github.com/zeroipc/zeroipc/internal/wire"
	"github.com/zeroipc/zeroipc/table"
)

const (
	headerSize = 16 // head u32 + tail u32 + capacity u32 + elem_size u32
	offHead    = 0
	offTail    = 4
	offCap     = 8
	offElem    = 12
)

// Queue is a bounded MPMC FIFO of T bound to a named table entry.
type Queue[T any] struct {
	mem wire.Bytes
	cap uint32
}

func sizeOfT[T any]() uint32 {
	var zero T
	return uint32(unsafe.Sizeof(zero))
}

// Create allocates a new Queue whose circular buffer has `capacity` slots;
// at most capacity-1 items can be held at once.
func Create[T any](t *table.Table, name string, capacity uint32) (*Queue[T], error) {
	if capacity < 2 {
		return nil, api.ErrInvalidArgument.WithContext("reason", "capacity must be >= 2")
	}
	es := sizeOfT[T]()
	total := uint32(headerSize) + capacity*es
	offset, err := t.Allocate(name, total)
	if err != nil {
		return nil, err
	}
	mem := t.Region(offset, total)
	mem.U32(offHead).Store(0)
	mem.U32(offTail).Store(0)
	mem.U32(offCap).Store(capacity)
	mem.U32(offElem).Store(es)
	return &Queue[T]{mem: mem, cap: capacity}, nil
}

// Open attaches to an existing Queue by name.
func Open[T any](t *table.Table, name string) (*Queue[T], error) {
	offset, size, ok := t.Find(name)
	if !ok {
		return nil, api.ErrNotFound.WithContext("name", name)
	}
	mem := t.Region(offset, size)
	es := mem.U32(offElem).Load()
	want := sizeOfT[T]()
	if es != want {
		return nil, api.ErrTypeMismatch.WithContext("stored_elem_size", es).WithContext("want", want)
	}
	return &Queue[T]{mem: mem, cap: mem.U32(offCap).Load()}, nil
}

func (q *Queue[T]) slot(i uint32) *T {
	ptr := unsafe.Pointer(&q.mem[uint32(headerSize)+i*sizeOfT[T]()])
	return (*T)(ptr)
}

// Push enqueues v, returning ErrFull if the queue has no free slot.
func (q *Queue[T]) Push(v T) error {
	headA := q.mem.U32(offHead)
	tailA := q.mem.U32(offTail)
	for {
		tail := tailA.Load()
		nextTail := (tail + 1) % q.cap
		if nextTail == headA.Load() {
			return api.ErrFull
		}
		if tailA.CompareAndSwap(tail, nextTail) {
			*q.slot(tail) = v
			return nil
		}
		stats.IncCASRetries()
	}
}

// Pop dequeues the oldest item, returning ErrEmpty if none is available.
func (q *Queue[T]) Pop() (T, error) {
	var zero T
	headA := q.mem.U32(offHead)
	tailA := q.mem.U32(offTail)
	for {
		head := headA.Load()
		if head == tailA.Load() {
			return zero, api.ErrEmpty
		}
		nextHead := (head + 1) % q.cap
		if headA.CompareAndSwap(head, nextHead) {
			return *q.slot(head), nil
		}
		stats.IncCASRetries()
	}
}

// Len returns a snapshot occupancy count; it may be stale under concurrency.
func (q *Queue[T]) Len() uint32 {
	head := q.mem.U32(offHead).Load()
	tail := q.mem.U32(offTail).Load()
	return (tail - head + q.cap) % q.cap
}

// Capacity returns the raw slot count (usable capacity is Capacity()-1).
func (q *Queue[T]) Capacity() uint32 { return q.cap }

// Empty reports whether the queue currently holds no items.
func (q *Queue[T]) Empty() bool { return q.Len() == 0 }

// Full reports whether the queue currently holds capacity-1 items.
func (q *Queue[T]) Full() bool { return q.Len() == q.cap-1 }
