package array

import (
	"sync/atomic"
	"unsafe"

	"github.com/zeroipc/zeroipc/api"
)

// CompareAndSwap performs an index-level CAS: compare-then-copy the
// element-sized region at i. It is only available for 4- and 8-byte
// elements, since those are the widths the platform can CAS atomically;
// wider elements return ErrNotSupported, since tearing beyond the
// platform's atomic granularity cannot be synthesized without a separate
// lock this container deliberately does not carry.
func (a *Array[T]) CompareAndSwap(i uint64, old, new T) (bool, error) {
	if i >= a.cap {
		return false, api.ErrInvalidArgument.WithContext("index", i)
	}
	ptr := unsafe.Pointer(&a.slice()[i])
	switch sizeOfT[T]() {
	case 4:
		o := *(*uint32)(unsafe.Pointer(&old))
		n := *(*uint32)(unsafe.Pointer(&new))
		return (*atomic.Uint32)(ptr).CompareAndSwap(o, n), nil
	case 8:
		o := *(*uint64)(unsafe.Pointer(&old))
		n := *(*uint64)(unsafe.Pointer(&new))
		return (*atomic.Uint64)(ptr).CompareAndSwap(o, n), nil
	default:
		return false, api.ErrNotSupported.WithContext("elem_size", sizeOfT[T]())
	}
}
