// Package pool implements a free-list object allocator over shared memory:
// a fixed array of nodes threaded into a singly linked free list via an
// atomic free_head index, handing out stable handle indices that survive
// across processes attached to the same segment.
package pool

import (
	"sync/atomic"
	"unsafe"

	"github.com/zeroipc/zeroipc/api"
	"github.com/zeroipc/zeroipc/internal/stats"
	"github.com/zeroipc/zeroipc/internal/wire"
	"github.com/zeroipc/zeroipc/table"
)

const (
	headerSize  = 16 // free_head u32 + allocated u32 + capacity u32 + elem_size u32
	offFreeHead = 0
	offAlloc    = 4
	offCap      = 8
	offElem     = 12
)

// Pool is a bounded free-list allocator of T bound to a named table entry.
// Nodes are {T data; atomic next u32}, laid out contiguously.
type Pool[T any] struct {
	mem      wire.Bytes
	cap      uint32
	elemSize uint32
	nodeSize uint32
}

func sizeOfT[T any]() uint32 {
	var zero T
	return uint32(unsafe.Sizeof(zero))
}

// Create allocates a Pool with `capacity` slots, all initially free, linked
// head-to-tail so the first acquire() returns handle 0.
func Create[T any](t *table.Table, name string, capacity uint32) (*Pool[T], error) {
	if capacity == 0 {
		return nil, api.ErrInvalidArgument.WithContext("reason", "capacity must be > 0")
	}
	es := sizeOfT[T]()
	nodeSize := wire.AlignUp(es+4, 8)
	total := uint32(headerSize) + capacity*nodeSize
	offset, err := t.Allocate(name, total)
	if err != nil {
		return nil, err
	}
	mem := t.Region(offset, total)
	mem.U32(offAlloc).Store(0)
	mem.U32(offCap).Store(capacity)
	mem.U32(offElem).Store(es)
	p := &Pool[T]{mem: mem, cap: capacity, elemSize: es, nodeSize: nodeSize}
	for i := uint32(0); i < capacity; i++ {
		next := i + 1
		if i == capacity-1 {
			next = api.NullIndex
		}
		p.nextAt(i).Store(next)
	}
	mem.U32(offFreeHead).Store(0)
	return p, nil
}

// Open attaches to an existing Pool by name.
func Open[T any](t *table.Table, name string) (*Pool[T], error) {
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
	nodeSize := wire.AlignUp(es+4, 8)
	return &Pool[T]{mem: mem, cap: mem.U32(offCap).Load(), elemSize: es, nodeSize: nodeSize}, nil
}

func (p *Pool[T]) nodeBase(i uint32) uint32 { return headerSize + i*p.nodeSize }

func (p *Pool[T]) nextAt(i uint32) *atomic.Uint32 { return p.mem.U32(p.nodeBase(i) + p.elemSize) }

func (p *Pool[T]) dataPtr(i uint32) *T {
	return (*T)(unsafe.Pointer(&p.mem[p.nodeBase(i)]))
}

// Acquire removes a node from the free list and returns its stable handle.
// ErrFull if the pool has no free nodes.
func (p *Pool[T]) Acquire() (api.Handle, error) {
	headA := p.mem.U32(offFreeHead)
	for {
		h := headA.Load()
		if h == api.NullIndex {
			return 0, api.ErrFull
		}
		next := p.nextAt(h).Load()
		if headA.CompareAndSwap(h, next) {
			p.mem.U32(offAlloc).Add(1)
			return api.Handle(h), nil
		}
		stats.IncCASRetries()
	}
}

// Release returns h to the free list, making it available to a future
// Acquire. Releasing a handle that is not currently acquired, or releasing
// the same handle twice, corrupts the free list and is not detected here.
func (p *Pool[T]) Release(h api.Handle) {
	headA := p.mem.U32(offFreeHead)
	idx := uint32(h)
	for {
		old := headA.Load()
		p.nextAt(idx).Store(old)
		if headA.CompareAndSwap(old, idx) {
			p.mem.U32(offAlloc).Add(^uint32(0))
			return
		}
		stats.IncCASRetries()
	}
}

// Get returns a pointer to the data held at handle h. The caller must only
// dereference it while h remains acquired.
func (p *Pool[T]) Get(h api.Handle) *T { return p.dataPtr(uint32(h)) }

// Allocated returns the number of currently acquired handles.
func (p *Pool[T]) Allocated() uint32 { return p.mem.U32(offAlloc).Load() }

// Capacity returns the fixed node count.
func (p *Pool[T]) Capacity() uint32 { return p.cap }
