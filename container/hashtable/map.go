// Package hashtable implements Map and Set over a shared-memory region: an
// open-addressed hash table with linear probing, tombstones, and
// update-on-duplicate-insert semantics.
//
// Each slot uses the same atomic-tag-guards-payload shape the ring and
// queue headers apply once per container, but per slot: a dedicated
// RESERVED state is written before the key, and the slot flips to OCCUPIED
// only once key and value are both in place, so a reader that observes
// OCCUPIED has always already seen a complete key (see the key-write
// ordering decision record in DESIGN.md).
package hashtable

import (
	"sync/atomic"
	"unsafe"

	"github.com/zeroipc/zeroipc/api"
	"github.com/zeroipc/zeroipc/internal/backoff"
	"github.com/zeroipc/zeroipc/internal/stats"
	"github.com/zeroipc/zeroipc/internal/wire"
	"github.com/zeroipc/zeroipc/table"
)

type slotState uint32

const (
	stateEmpty slotState = iota
	stateReserved
	stateOccupied
	stateDeleted
)

const (
	headerSize  = 16 // size u32 + capacity u32 + key_size u32 + value_size u32
	offSize     = 0
	offCap      = 4
	offKeySize  = 8
	offValSize  = 12
	stateWidth  = 8 // slot state stored in a full 8-byte-aligned word
)

// Map is a bounded open-addressed hash table from K to V.
type Map[K comparable, V any] struct {
	mem      wire.Bytes
	cap      uint32
	keySize  uint32
	valSize  uint32
	slotSize uint32
	keyOff   uint32
	valOff   uint32
}

func sizeOf[T any]() uint32 {
	var zero T
	return uint32(unsafe.Sizeof(zero))
}

func layout(keySize, valSize uint32) (slotSize, keyOff, valOff uint32) {
	keyOff = stateWidth
	valOff = wire.AlignUp(keyOff+keySize, 8)
	slotSize = wire.AlignUp(valOff+valSize, 8)
	return
}

// Create allocates a Map with room for `capacity` slots.
func Create[K comparable, V any](t *table.Table, name string, capacity uint32) (*Map[K, V], error) {
	if capacity == 0 {
		return nil, api.ErrInvalidArgument.WithContext("reason", "capacity must be > 0")
	}
	ks, vs := sizeOf[K](), sizeOf[V]()
	slotSize, keyOff, valOff := layout(ks, vs)
	total := uint32(headerSize) + capacity*slotSize
	offset, err := t.Allocate(name, total)
	if err != nil {
		return nil, err
	}
	mem := t.Region(offset, total)
	mem.U32(offSize).Store(0)
	mem.U32(offCap).Store(capacity)
	mem.U32(offKeySize).Store(ks)
	mem.U32(offValSize).Store(vs)
	m := &Map[K, V]{mem: mem, cap: capacity, keySize: ks, valSize: vs, slotSize: slotSize, keyOff: keyOff, valOff: valOff}
	for i := uint32(0); i < capacity; i++ {
		m.stateAt(i).Store(uint32(stateEmpty))
	}
	return m, nil
}

// Open attaches to an existing Map by name, validating key/value sizes.
func Open[K comparable, V any](t *table.Table, name string) (*Map[K, V], error) {
	offset, size, ok := t.Find(name)
	if !ok {
		return nil, api.ErrNotFound.WithContext("name", name)
	}
	mem := t.Region(offset, size)
	ks, vs := sizeOf[K](), sizeOf[V]()
	if mem.U32(offKeySize).Load() != ks || mem.U32(offValSize).Load() != vs {
		return nil, api.ErrTypeMismatch
	}
	slotSize, keyOff, valOff := layout(ks, vs)
	return &Map[K, V]{
		mem: mem, cap: mem.U32(offCap).Load(),
		keySize: ks, valSize: vs, slotSize: slotSize, keyOff: keyOff, valOff: valOff,
	}, nil
}

func (m *Map[K, V]) slotBase(i uint32) uint32 { return headerSize + i*m.slotSize }

func (m *Map[K, V]) stateAt(i uint32) *atomic.Uint32 {
	return m.mem.U32(m.slotBase(i))
}

func (m *Map[K, V]) keyPtr(i uint32) *K {
	return (*K)(unsafe.Pointer(&m.mem[m.slotBase(i)+m.keyOff]))
}

func (m *Map[K, V]) valPtr(i uint32) *V {
	return (*V)(unsafe.Pointer(&m.mem[m.slotBase(i)+m.valOff]))
}

func hashKey[K comparable](k K) uint64 {
	sz := unsafe.Sizeof(k)
	switch sz {
	case 4:
		v := *(*uint32)(unsafe.Pointer(&k))
		return uint64(v * 0x9E3779B1)
	case 8:
		v := *(*uint64)(unsafe.Pointer(&k))
		return v * 0x9E3779B97F4A7C15
	default:
		b := unsafe.Slice((*byte)(unsafe.Pointer(&k)), sz)
		var h uint64 = 14695981039346656037
		for _, c := range b {
			h ^= uint64(c)
			h *= 1099511628211
		}
		return h
	}
}

// Insert writes k->v, overwriting any existing value for k. Returns ErrFull
// if every slot is occupied by a different key.
func (m *Map[K, V]) Insert(k K, v V) error {
	start := uint32(hashKey(k) % uint64(m.cap))
	b := backoff.New()
	for i := uint32(0); i < m.cap; i++ {
		idx := (start + i) % m.cap
		st := m.stateAt(idx)
	retry:
		switch slotState(st.Load()) {
		case stateOccupied:
			if *m.keyPtr(idx) == k {
				*m.valPtr(idx) = v
				return nil
			}
		case stateReserved:
			b.Spin()
			goto retry
		case stateEmpty:
			if st.CompareAndSwap(uint32(stateEmpty), uint32(stateReserved)) {
				*m.keyPtr(idx) = k
				*m.valPtr(idx) = v
				st.Store(uint32(stateOccupied))
				m.mem.U32(offSize).Add(1)
				return nil
			}
			stats.IncCASRetries()
			goto retry
		case stateDeleted:
			if st.CompareAndSwap(uint32(stateDeleted), uint32(stateReserved)) {
				*m.keyPtr(idx) = k
				*m.valPtr(idx) = v
				st.Store(uint32(stateOccupied))
				m.mem.U32(offSize).Add(1)
				return nil
			}
			stats.IncCASRetries()
			goto retry
		}
	}
	return api.ErrFull
}

// Find returns the value for k, if present.
func (m *Map[K, V]) Find(k K) (V, bool) {
	var zero V
	start := uint32(hashKey(k) % uint64(m.cap))
	b := backoff.New()
	for i := uint32(0); i < m.cap; i++ {
		idx := (start + i) % m.cap
		st := m.stateAt(idx)
	retry:
		switch slotState(st.Load()) {
		case stateEmpty:
			return zero, false
		case stateReserved:
			b.Spin()
			goto retry
		case stateOccupied:
			if *m.keyPtr(idx) == k {
				return *m.valPtr(idx), true
			}
		case stateDeleted:
			// tombstone: keep probing
		}
	}
	return zero, false
}

// Erase removes k if present, returning whether it was found.
func (m *Map[K, V]) Erase(k K) bool {
	start := uint32(hashKey(k) % uint64(m.cap))
	for i := uint32(0); i < m.cap; i++ {
		idx := (start + i) % m.cap
		st := m.stateAt(idx)
		switch slotState(st.Load()) {
		case stateEmpty:
			return false
		case stateOccupied:
			if *m.keyPtr(idx) == k {
				if st.CompareAndSwap(uint32(stateOccupied), uint32(stateDeleted)) {
					m.mem.U32(offSize).Add(^uint32(0))
					return true
				}
			}
		}
	}
	return false
}

// Size returns the number of live entries.
func (m *Map[K, V]) Size() uint32 { return m.mem.U32(offSize).Load() }

// Capacity returns the fixed slot count.
func (m *Map[K, V]) Capacity() uint32 { return m.cap }

// Iterate visits every OCCUPIED slot; fn returning false stops iteration.
func (m *Map[K, V]) Iterate(fn func(K, V) bool) {
	for i := uint32(0); i < m.cap; i++ {
		if slotState(m.stateAt(i).Load()) == stateOccupied {
			if !fn(*m.keyPtr(i), *m.valPtr(i)) {
				return
			}
		}
	}
}
