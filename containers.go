package zeroipc

import (
	"github.com/zeroipc/zeroipc/codata"
	"github.com/zeroipc/zeroipc/container/array"
	"github.com/zeroipc/zeroipc/container/hashtable"
	"github.com/zeroipc/zeroipc/container/pool"
	"github.com/zeroipc/zeroipc/container/queue"
	"github.com/zeroipc/zeroipc/container/ring"
	"github.com/zeroipc/zeroipc/container/stack"
	"github.com/zeroipc/zeroipc/sync2"
)

// CreateArray and OpenArray construct an L1 fixed-size Array[T].
func CreateArray[T any](m *Memory, name string, capacity uint64) (*array.Array[T], error) {
	return array.Create[T](m.table, name, capacity)
}
func OpenArray[T any](m *Memory, name string) (*array.Array[T], error) {
	return array.Open[T](m.table, name)
}

// CreateQueue and OpenQueue construct an L1 bounded MPMC Queue[T].
func CreateQueue[T any](m *Memory, name string, capacity uint32) (*queue.Queue[T], error) {
	return queue.Create[T](m.table, name, capacity)
}
func OpenQueue[T any](m *Memory, name string) (*queue.Queue[T], error) {
	return queue.Open[T](m.table, name)
}

// CreateStack and OpenStack construct an L1 bounded LIFO Stack[T].
func CreateStack[T any](m *Memory, name string, capacity uint32) (*stack.Stack[T], error) {
	return stack.Create[T](m.table, name, capacity)
}
func OpenStack[T any](m *Memory, name string) (*stack.Stack[T], error) {
	return stack.Open[T](m.table, name)
}

// CreateRing and OpenRing construct an L1 SPSC Ring[T].
func CreateRing[T any](m *Memory, name string, capacityElems uint64) (*ring.Ring[T], error) {
	return ring.Create[T](m.table, name, capacityElems)
}
func OpenRing[T any](m *Memory, name string) (*ring.Ring[T], error) {
	return ring.Open[T](m.table, name)
}

// CreateMap and OpenMap construct an L1 open-addressed Map[K, V].
func CreateMap[K comparable, V any](m *Memory, name string, capacity uint32) (*hashtable.Map[K, V], error) {
	return hashtable.Create[K, V](m.table, name, capacity)
}
func OpenMap[K comparable, V any](m *Memory, name string) (*hashtable.Map[K, V], error) {
	return hashtable.Open[K, V](m.table, name)
}

// CreateSet and OpenSet construct a Set[T] over the same Map.
func CreateSet[T comparable](m *Memory, name string, capacity uint32) (*hashtable.Set[T], error) {
	return hashtable.CreateSet[T](m.table, name, capacity)
}
func OpenSet[T comparable](m *Memory, name string) (*hashtable.Set[T], error) {
	return hashtable.OpenSet[T](m.table, name)
}

// CreatePool and OpenPool construct an L1 free-list Pool[T].
func CreatePool[T any](m *Memory, name string, capacity uint32) (*pool.Pool[T], error) {
	return pool.Create[T](m.table, name, capacity)
}
func OpenPool[T any](m *Memory, name string) (*pool.Pool[T], error) {
	return pool.Open[T](m.table, name)
}

// CreateSemaphore and OpenSemaphore construct an L2 Semaphore.
func CreateSemaphore(m *Memory, name string, initial, maxCount int32) (*sync2.Semaphore, error) {
	return sync2.Create(m.table, name, initial, maxCount)
}
func OpenSemaphore(m *Memory, name string) (*sync2.Semaphore, error) {
	return sync2.Open(m.table, name)
}

// CreateBarrier and OpenBarrier construct an L2 Barrier.
func CreateBarrier(m *Memory, name string, numParticipants int32) (*sync2.Barrier, error) {
	return sync2.CreateBarrier(m.table, name, numParticipants)
}
func OpenBarrier(m *Memory, name string) (*sync2.Barrier, error) {
	return sync2.OpenBarrier(m.table, name)
}

// CreateLatch and OpenLatch construct an L2 Latch.
func CreateLatch(m *Memory, name string, count int32) (*sync2.Latch, error) {
	return sync2.CreateLatch(m.table, name, count)
}
func OpenLatch(m *Memory, name string) (*sync2.Latch, error) {
	return sync2.OpenLatch(m.table, name)
}

// CreateFuture and OpenFuture construct an L3 Future[T].
func CreateFuture[T any](m *Memory, name string) (*codata.Future[T], error) {
	return codata.CreateFuture[T](m.table, name)
}
func OpenFuture[T any](m *Memory, name string) (*codata.Future[T], error) {
	return codata.OpenFuture[T](m.table, name)
}

// CreateLazy and OpenLazy construct an L3 Lazy[T] thunk.
func CreateLazy[T any](m *Memory, name string, op codata.Op, a, b T) (*codata.Lazy[T], error) {
	return codata.CreateLazy[T](m.table, name, op, a, b)
}
func OpenLazy[T any](m *Memory, name string) (*codata.Lazy[T], error) {
	return codata.OpenLazy[T](m.table, name)
}

// CreateChannel and OpenChannel construct an L3 Channel[T].
func CreateChannel[T any](m *Memory, name string, capacity uint32) (*codata.Channel[T], error) {
	return codata.CreateChannel[T](m.table, name, capacity)
}
func OpenChannel[T any](m *Memory, name string) (*codata.Channel[T], error) {
	return codata.OpenChannel[T](m.table, name)
}

// CreateStream and OpenStream construct an L3 Stream[T].
func CreateStream[T any](m *Memory, name string, capacityElems uint64) (*codata.Stream[T], error) {
	return codata.CreateStream[T](m.table, name, capacityElems)
}
func OpenStream[T any](m *Memory, name string) (*codata.Stream[T], error) {
	return codata.OpenStream[T](m.table, name)
}
