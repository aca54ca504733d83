package codata

import (
	"unsafe"

	"github.com/zeroipc/zeroipc/api"
	"github.com/zeroipc/zeroipc/internal/backoff"
	"github.com/zeroipc/zeroipc/internal/wire"
	"github.com/zeroipc/zeroipc/table"
	"golang.org/x/exp/constraints"
)

type lazyState uint32

const (
	lazyNotComputed lazyState = iota
	lazyComputing
	lazyComputed
	lazyErrorState
)

// Op identifies the inline operation a Lazy evaluates on force().
type Op uint32

const (
	OpConstant Op = iota
	OpAdd
	OpMultiply
	OpNegate
	OpExternal
	// Bool-specialized short-circuit operators.
	OpAnd
	OpOr
	OpXor
	OpNot
)

const (
	lazyOffState        = 0  // u32
	lazyOffOp           = 4  // u32
	lazyOffComputeCount = 8  // u32
)

// Lazy is a single-evaluation memoized thunk over two inline operands of
// type T.
type Lazy[T any] struct {
	mem     wire.Bytes
	op      Op
	aOff    uint32
	bOff    uint32
	resOff  uint32
}

func lazyLayout(elemSize uint32) (aOff, bOff, resOff, total uint32) {
	aOff = wire.AlignUp(12, 8)
	bOff = wire.AlignUp(aOff+elemSize, 8)
	resOff = wire.AlignUp(bOff+elemSize, 8)
	total = resOff + elemSize
	return
}

// CreateLazy allocates a Lazy[T] with the given operation and operand
// values. b is ignored by Negate/Not/Constant/External.
func CreateLazy[T any](t *table.Table, name string, op Op, a, b T) (*Lazy[T], error) {
	es := sizeOfT[T]()
	aOff, bOff, resOff, total := lazyLayout(es)
	offset, err := t.Allocate(name, total)
	if err != nil {
		return nil, err
	}
	mem := t.Region(offset, total)
	mem.U32(lazyOffState).Store(uint32(lazyNotComputed))
	mem.U32(lazyOffOp).Store(uint32(op))
	mem.U32(lazyOffComputeCount).Store(0)
	l := &Lazy[T]{mem: mem, op: op, aOff: aOff, bOff: bOff, resOff: resOff}
	*l.aPtr() = a
	*l.bPtr() = b
	return l, nil
}

// OpenLazy attaches to an existing Lazy[T] by name.
func OpenLazy[T any](t *table.Table, name string) (*Lazy[T], error) {
	offset, size, ok := t.Find(name)
	if !ok {
		return nil, api.ErrNotFound.WithContext("name", name)
	}
	mem := t.Region(offset, size)
	aOff, bOff, resOff, total := lazyLayout(sizeOfT[T]())
	if size < total {
		return nil, api.ErrTypeMismatch.WithContext("reason", "region too small for Lazy[T]")
	}
	return &Lazy[T]{mem: mem, op: Op(mem.U32(lazyOffOp).Load()), aOff: aOff, bOff: bOff, resOff: resOff}, nil
}

func (l *Lazy[T]) aPtr() *T   { return (*T)(unsafe.Pointer(&l.mem[l.aOff])) }
func (l *Lazy[T]) bPtr() *T   { return (*T)(unsafe.Pointer(&l.mem[l.bOff])) }
func (l *Lazy[T]) resPtr() *T { return (*T)(unsafe.Pointer(&l.mem[l.resOff])) }

// evalNumeric covers every ordered numeric kind a Lazy[T] can hold. Pulling
// this out from the old per-type switch means adding a numeric instantiation
// of T never needs a new case here.
func evalNumeric[N constraints.Integer | constraints.Float](op Op, a, b N) (N, bool) {
	switch op {
	case OpAdd:
		return a + b, true
	case OpMultiply:
		return a * b, true
	case OpNegate:
		return -a, true
	}
	return a, false
}

func evalArith(op Op, a, b any) (any, bool) {
	switch x := a.(type) {
	case int32:
		y, _ := b.(int32)
		return evalNumeric(op, x, y)
	case int64:
		y, _ := b.(int64)
		return evalNumeric(op, x, y)
	case uint32:
		y, _ := b.(uint32)
		return evalNumeric(op, x, y)
	case uint64:
		y, _ := b.(uint64)
		return evalNumeric(op, x, y)
	case float32:
		y, _ := b.(float32)
		return evalNumeric(op, x, y)
	case float64:
		y, _ := b.(float64)
		return evalNumeric(op, x, y)
	case bool:
		y, _ := b.(bool)
		switch op {
		case OpAnd:
			return x && y, true
		case OpOr:
			return x || y, true
		case OpXor:
			return x != y, true
		case OpNot:
			return !x, true
		}
	}
	return nil, false
}

// Force evaluates the thunk on first call (any goroutine may win the race)
// and returns the memoized result on every call thereafter.
func (l *Lazy[T]) Force() (T, error) {
	state := l.mem.U32(lazyOffState)
	b := backoff.New()
	for {
		switch lazyState(state.Load()) {
		case lazyComputed:
			return *l.resPtr(), nil
		case lazyErrorState:
			var zero T
			return zero, api.ErrNotSupported
		case lazyComputing:
			b.Spin()
		default:
			if state.CompareAndSwap(uint32(lazyNotComputed), uint32(lazyComputing)) {
				return l.compute()
			}
			b.Spin()
		}
	}
}

func (l *Lazy[T]) compute() (T, error) {
	state := l.mem.U32(lazyOffState)
	var zero T
	switch l.op {
	case OpConstant:
		*l.resPtr() = *l.aPtr()
		l.mem.U32(lazyOffComputeCount).Add(1)
		state.Store(uint32(lazyComputed))
		return *l.resPtr(), nil
	case OpExternal:
		state.Store(uint32(lazyErrorState))
		return zero, api.ErrNotSupported.WithContext("reason", "EXTERNAL op requires a caller-supplied evaluator")
	default:
		res, ok := evalArith(l.op, any(*l.aPtr()), any(*l.bPtr()))
		if !ok {
			state.Store(uint32(lazyErrorState))
			return zero, api.ErrNotSupported.WithContext("reason", "T does not support this operation")
		}
		*l.resPtr() = res.(T)
		l.mem.U32(lazyOffComputeCount).Add(1)
		state.Store(uint32(lazyComputed))
		return *l.resPtr(), nil
	}
}

// Reset transitions COMPUTED back to NOT_COMPUTED so a subsequent Force
// re-evaluates. No-op if not currently COMPUTED.
func (l *Lazy[T]) Reset() {
	l.mem.U32(lazyOffState).CompareAndSwap(uint32(lazyComputed), uint32(lazyNotComputed))
}

// ComputeCount returns the number of times compute() has run to completion.
func (l *Lazy[T]) ComputeCount() uint32 { return l.mem.U32(lazyOffComputeCount).Load() }
