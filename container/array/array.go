// Package array implements a fixed-length contiguous vector of T addressed
// by name, attached directly over shared memory with unchecked and
// bounds-checked access. Element access follows the same generics + unsafe
// idiom github.com/cloudwego/gopkg/unsafex uses for zero-copy []byte<->string
// views, generalized from byte to an arbitrary fixed-size T via unsafe.Slice.
package array

import (
	"unsafe"

	"github.com/zeroipc/zeroipc/api"
	"github.com/zeroipc/zeroipc/internal/wire"
	"github.com/zeroipc/zeroipc/table"
)

const (
	headerSize = 16 // capacity u64 + elem_size u32 + reserved u32
	offCap     = 0
	offElem    = 8
)

// Array is a fixed-length T vector bound to a named table entry.
type Array[T any] struct {
	mem wire.Bytes
	cap uint64
}

func sizeOfT[T any]() uint32 {
	var zero T
	return uint32(unsafe.Sizeof(zero))
}

// Create allocates a new Array of the given capacity under name.
func Create[T any](t *table.Table, name string, capacity uint64) (*Array[T], error) {
	if capacity == 0 {
		return nil, api.ErrInvalidArgument.WithContext("reason", "capacity must be > 0")
	}
	es := sizeOfT[T]()
	total := uint32(headerSize) + uint32(capacity)*es
	offset, err := t.Allocate(name, total)
	if err != nil {
		return nil, err
	}
	mem := t.Region(offset, total)
	mem.U64(offCap).Store(capacity)
	mem.U32(offElem).Store(es)
	return &Array[T]{mem: mem, cap: capacity}, nil
}

// Open attaches to an existing Array by name, validating element size.
func Open[T any](t *table.Table, name string) (*Array[T], error) {
	offset, size, ok := t.Find(name)
	if !ok {
		return nil, api.ErrNotFound.WithContext("name", name)
	}
	mem := t.Region(offset, size)
	capacity := mem.U64(offCap).Load()
	es := mem.U32(offElem).Load()
	want := sizeOfT[T]()
	if es != want {
		return nil, api.ErrTypeMismatch.WithContext("stored_elem_size", es).WithContext("want", want)
	}
	return &Array[T]{mem: mem, cap: capacity}, nil
}

func (a *Array[T]) slice() []T {
	ptr := (*T)(unsafe.Pointer(&a.mem[headerSize]))
	return unsafe.Slice(ptr, a.cap)
}

// Capacity returns the fixed element count.
func (a *Array[T]) Capacity() uint64 { return a.cap }

// Get reads index i without bounds checking, the zero-overhead path.
func (a *Array[T]) Get(i uint64) T { return a.slice()[i] }

// Set writes index i without bounds checking.
func (a *Array[T]) Set(i uint64, v T) { a.slice()[i] = v }

// At is the bounds-checked read, returning ErrInvalidArgument out of range.
func (a *Array[T]) At(i uint64) (T, error) {
	var zero T
	if i >= a.cap {
		return zero, api.ErrInvalidArgument.WithContext("index", i).WithContext("capacity", a.cap)
	}
	return a.Get(i), nil
}

// Data exposes the raw backing slice for bulk copy operations.
func (a *Array[T]) Data() []T { return a.slice() }
