// Package codata implements asynchronous-result primitives over shared
// memory: Future, Lazy, Channel, Stream. Each is a state machine whose
// transitions are a single CAS, publishing its payload under a
// release-store the way the bounded containers publish theirs — the same
// state-tag-guards-payload idiom container/hashtable/map.go uses for Map,
// plus the backoff spin loop every blocking primitive in this library
// shares.
package codata

import (
	"time"
	"unsafe"

	"github.com/zeroipc/zeroipc/api"
	"github.com/zeroipc/zeroipc/internal/backoff"
	"github.com/zeroipc/zeroipc/internal/wire"
	"github.com/zeroipc/zeroipc/table"
)

type futureState uint32

const (
	futurePending futureState = iota
	futureComputing
	futureReady
	futureError
)

const errMsgLen = 256

const (
	futureOffState = 0 // u32
)

// Future is a single-assignment, state-machine-guarded result slot.
type Future[T any] struct {
	mem        wire.Bytes
	valueOff   uint32
	errMsgOff  uint32
}

func sizeOfT[T any]() uint32 {
	var zero T
	return uint32(unsafe.Sizeof(zero))
}

func futureLayout(valSize uint32) (valueOff, errMsgOff, total uint32) {
	valueOff = wire.AlignUp(8, 8)
	errMsgOff = wire.AlignUp(valueOff+valSize, 8)
	total = errMsgOff + errMsgLen
	return
}

// CreateFuture allocates a Future[T] in the PENDING state.
func CreateFuture[T any](t *table.Table, name string) (*Future[T], error) {
	valueOff, errMsgOff, total := futureLayout(sizeOfT[T]())
	offset, err := t.Allocate(name, total)
	if err != nil {
		return nil, err
	}
	mem := t.Region(offset, total)
	mem.U32(futureOffState).Store(uint32(futurePending))
	return &Future[T]{mem: mem, valueOff: valueOff, errMsgOff: errMsgOff}, nil
}

// OpenFuture attaches to an existing Future[T] by name.
func OpenFuture[T any](t *table.Table, name string) (*Future[T], error) {
	offset, size, ok := t.Find(name)
	if !ok {
		return nil, api.ErrNotFound.WithContext("name", name)
	}
	valueOff, errMsgOff, total := futureLayout(sizeOfT[T]())
	if size < total {
		return nil, api.ErrTypeMismatch.WithContext("reason", "region too small for Future[T]")
	}
	return &Future[T]{mem: t.Region(offset, size), valueOff: valueOff, errMsgOff: errMsgOff}, nil
}

func (f *Future[T]) valuePtr() *T {
	return (*T)(unsafe.Pointer(&f.mem[f.valueOff]))
}

// SetValue transitions PENDING->COMPUTING->READY and publishes v. Returns
// false if the Future was already resolved (value or error).
func (f *Future[T]) SetValue(v T) bool {
	state := f.mem.U32(futureOffState)
	if !state.CompareAndSwap(uint32(futurePending), uint32(futureComputing)) {
		return false
	}
	*f.valuePtr() = v
	state.Store(uint32(futureReady))
	return true
}

// SetError transitions PENDING->ERROR, storing a truncated, null-terminated
// copy of msg. Returns false if the Future was already resolved.
func (f *Future[T]) SetError(msg string) bool {
	state := f.mem.U32(futureOffState)
	if !state.CompareAndSwap(uint32(futurePending), uint32(futureError)) {
		return false
	}
	buf := f.mem.Slice(f.errMsgOff, errMsgLen)
	n := copy(buf[:errMsgLen-1], msg)
	buf[n] = 0
	for i := n + 1; i < errMsgLen; i++ {
		buf[i] = 0
	}
	return true
}

func (f *Future[T]) errMsg() string {
	buf := f.mem.Slice(f.errMsgOff, errMsgLen)
	n := 0
	for n < len(buf) && buf[n] != 0 {
		n++
	}
	return string(buf[:n])
}

// Get blocks until the Future resolves, returning the value or the stored
// error.
func (f *Future[T]) Get() (T, error) {
	state := f.mem.U32(futureOffState)
	b := backoff.New()
	for {
		switch futureState(state.Load()) {
		case futureReady:
			return *f.valuePtr(), nil
		case futureError:
			var zero T
			return zero, api.ErrIoError.WithContext("message", f.errMsg())
		default:
			b.Spin()
		}
	}
}

// TryGet is a non-blocking poll of the Future's state.
func (f *Future[T]) TryGet() (T, bool, error) {
	var zero T
	switch futureState(f.mem.U32(futureOffState).Load()) {
	case futureReady:
		return *f.valuePtr(), true, nil
	case futureError:
		return zero, true, api.ErrIoError.WithContext("message", f.errMsg())
	default:
		return zero, false, nil
	}
}

// GetFor blocks until resolution or timeout, reporting a timeout via
// ErrTimeout.
func (f *Future[T]) GetFor(timeout time.Duration) (T, error) {
	state := f.mem.U32(futureOffState)
	deadline := time.Now().Add(timeout)
	b := backoff.New()
	for {
		switch futureState(state.Load()) {
		case futureReady:
			return *f.valuePtr(), nil
		case futureError:
			var zero T
			return zero, api.ErrIoError.WithContext("message", f.errMsg())
		default:
			if time.Now().After(deadline) {
				var zero T
				return zero, api.ErrTimeout
			}
			b.Spin()
		}
	}
}

// Ready reports whether the Future has resolved, successfully or not.
func (f *Future[T]) Ready() bool {
	st := futureState(f.mem.U32(futureOffState).Load())
	return st == futureReady || st == futureError
}
