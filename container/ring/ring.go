// Package ring implements a bounded single-producer/single-consumer ring
// over shared memory: a byte ring with element granularity, tracked by
// monotonically increasing total byte counters rather than modulo'd
// indices, so available/free space is a plain subtraction. Atomic head/tail
// counters address a raw byte region rather than an element slice, so each
// element copy (Write, Read, and each element of the bulk variants) crosses
// the wrap boundary in one or two memcpy calls.
package ring

import (
	"unsafe"

	"github.com/zeroipc/zeroipc/api"
	"github.com/zeroipc/zeroipc/internal/wire"
	"github.com/zeroipc/zeroipc/table"
)

const (
	headerSize  = 32 // write_pos u64 + read_pos u64 + capacity u64 + elem_size u32 + reserved u32
	offWritePos = 0
	offReadPos  = 8
	offCapacity = 16
	offElem     = 24
)

// Ring is a bounded SPSC byte ring of elements of type T.
type Ring[T any] struct {
	mem      wire.Bytes
	capBytes uint64
	elemSize uint64
}

func sizeOfT[T any]() uint32 {
	var zero T
	return uint32(unsafe.Sizeof(zero))
}

// Create allocates a Ring able to hold capacityElems elements of T.
func Create[T any](t *table.Table, name string, capacityElems uint64) (*Ring[T], error) {
	if capacityElems == 0 {
		return nil, api.ErrInvalidArgument.WithContext("reason", "capacity must be > 0")
	}
	es := uint64(sizeOfT[T]())
	capBytes := capacityElems * es
	total := uint32(headerSize) + uint32(capBytes)
	offset, err := t.Allocate(name, total)
	if err != nil {
		return nil, err
	}
	mem := t.Region(offset, total)
	mem.U64(offWritePos).Store(0)
	mem.U64(offReadPos).Store(0)
	mem.U64(offCapacity).Store(capBytes)
	mem.U32(offElem).Store(uint32(es))
	return &Ring[T]{mem: mem, capBytes: capBytes, elemSize: es}, nil
}

// Open attaches to an existing Ring by name.
func Open[T any](t *table.Table, name string) (*Ring[T], error) {
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
	return &Ring[T]{mem: mem, capBytes: mem.U64(offCapacity).Load(), elemSize: uint64(es)}, nil
}

func (r *Ring[T]) payload() []byte {
	return r.mem.Slice(headerSize, uint32(r.capBytes))
}

// copyIn writes n bytes from src into the payload starting at byte position
// pos (not yet reduced mod capacity), wrapping once if the write crosses
// the end of the buffer.
func (r *Ring[T]) copyIn(pos uint64, src []byte) {
	buf := r.payload()
	idx := pos % r.capBytes
	n := uint64(len(src))
	first := r.capBytes - idx
	if first >= n {
		copy(buf[idx:idx+n], src)
		return
	}
	copy(buf[idx:], src[:first])
	copy(buf[:n-first], src[first:])
}

func (r *Ring[T]) copyOut(pos uint64, dst []byte) {
	buf := r.payload()
	idx := pos % r.capBytes
	n := uint64(len(dst))
	first := r.capBytes - idx
	if first >= n {
		copy(dst, buf[idx:idx+n])
		return
	}
	copy(dst[:first], buf[idx:])
	copy(dst[first:], buf[:n-first])
}

func asBytes[T any](v *T) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), unsafe.Sizeof(*v))
}

// Available returns the number of buffered elements.
func (r *Ring[T]) Available() uint64 {
	w := r.mem.U64(offWritePos).Load()
	rd := r.mem.U64(offReadPos).Load()
	return (w - rd) / r.elemSize
}

// Free returns the number of elements of free space remaining.
func (r *Ring[T]) Free() uint64 {
	return r.capBytes/r.elemSize - r.Available()
}

// Write appends a single element; false if free space < one element.
func (r *Ring[T]) Write(v T) bool {
	w := r.mem.U64(offWritePos).Load()
	rd := r.mem.U64(offReadPos).Load()
	if r.capBytes-(w-rd) < r.elemSize {
		return false
	}
	r.copyIn(w, asBytes(&v))
	r.mem.U64(offWritePos).Store(w + r.elemSize)
	return true
}

// Read removes and returns the oldest element.
func (r *Ring[T]) Read() (T, bool) {
	var out T
	w := r.mem.U64(offWritePos).Load()
	rd := r.mem.U64(offReadPos).Load()
	if w-rd < r.elemSize {
		return out, false
	}
	r.copyOut(rd, asBytes(&out))
	r.mem.U64(offReadPos).Store(rd + r.elemSize)
	return out, true
}

// WriteBulk writes as many whole elements from items as fit, returning the
// count actually written.
func (r *Ring[T]) WriteBulk(items []T) int {
	w := r.mem.U64(offWritePos).Load()
	rd := r.mem.U64(offReadPos).Load()
	freeElems := (r.capBytes - (w - rd)) / r.elemSize
	n := uint64(len(items))
	if n > freeElems {
		n = freeElems
	}
	for i := uint64(0); i < n; i++ {
		r.copyIn(w+i*r.elemSize, asBytes(&items[i]))
	}
	r.mem.U64(offWritePos).Store(w + n*r.elemSize)
	return int(n)
}

// ReadBulk reads as many whole elements into buf as are available,
// returning the count actually read.
func (r *Ring[T]) ReadBulk(buf []T) int {
	w := r.mem.U64(offWritePos).Load()
	rd := r.mem.U64(offReadPos).Load()
	avail := (w - rd) / r.elemSize
	n := uint64(len(buf))
	if n > avail {
		n = avail
	}
	for i := uint64(0); i < n; i++ {
		r.copyOut(rd+i*r.elemSize, asBytes(&buf[i]))
	}
	r.mem.U64(offReadPos).Store(rd + n*r.elemSize)
	return int(n)
}

// Peek reads the element at logical offset (0 = next to be read) without
// consuming it. ok is false if offset is beyond what is buffered.
func (r *Ring[T]) Peek(offset uint64) (v T, ok bool) {
	w := r.mem.U64(offWritePos).Load()
	rd := r.mem.U64(offReadPos).Load()
	pos := rd + offset*r.elemSize
	if pos+r.elemSize > w {
		return v, false
	}
	r.copyOut(pos, asBytes(&v))
	return v, true
}

// Skip advances the read position by n elements, clamped to what is
// available.
func (r *Ring[T]) Skip(n uint64) {
	w := r.mem.U64(offWritePos).Load()
	rd := r.mem.U64(offReadPos).Load()
	avail := (w - rd) / r.elemSize
	if n > avail {
		n = avail
	}
	r.mem.U64(offReadPos).Store(rd + n*r.elemSize)
}

// OverwritePush unconditionally appends v, advancing the read position if
// necessary to make room — used by Stream to implement drop-oldest.
func (r *Ring[T]) OverwritePush(v T) {
	w := r.mem.U64(offWritePos).Load()
	rd := r.mem.U64(offReadPos).Load()
	if r.capBytes-(w-rd) < r.elemSize {
		rd += r.elemSize
		r.mem.U64(offReadPos).Store(rd)
	}
	r.copyIn(w, asBytes(&v))
	r.mem.U64(offWritePos).Store(w + r.elemSize)
}

// Len returns the number of buffered elements (alias of Available, for the
// api.RingReader contract).
func (r *Ring[T]) Len() int { return int(r.Available()) }

// Cap returns the element capacity.
func (r *Ring[T]) Cap() int { return int(r.capBytes / r.elemSize) }

var _ api.Ring[int] = (*Ring[int])(nil)
