package codata

import (
	"unsafe"

	"github.com/zeroipc/zeroipc/api"
	"github.com/zeroipc/zeroipc/container/queue"
	"github.com/zeroipc/zeroipc/internal/backoff"
	"github.com/zeroipc/zeroipc/internal/wire"
	"github.com/zeroipc/zeroipc/table"
)

const (
	chanHeaderSize = 32 // ready u32 + consumed u32 + closed u32 + senders i32 + receivers i32 + send_seq u32 + recv_seq u32 + reserved u32
	offReady       = 0
	offConsumed    = 4
	offClosed      = 8
	offSenders     = 12
	offReceivers   = 16
	offSendSeq     = 20
	offRecvSeq     = 24
)

// Channel is a shared-memory rendezvous (capacity == 0) or buffered
// (capacity > 0, backed by a Queue) channel of T.
type Channel[T any] struct {
	mem      wire.Bytes
	dataOff  uint32
	buffered bool
	q        *queue.Queue[T]
}

// CreateChannel allocates a Channel[T]. capacity == 0 creates a rendezvous
// channel; capacity > 0 backs it with a Queue sized capacity+1 per the
// Queue's own full/empty-slot convention.
func CreateChannel[T any](t *table.Table, name string, capacity uint32) (*Channel[T], error) {
	es := sizeOfT[T]()
	dataOff := wire.AlignUp(chanHeaderSize, 8)
	total := dataOff + es
	offset, err := t.Allocate(name, total)
	if err != nil {
		return nil, err
	}
	mem := t.Region(offset, total)
	mem.U32(offReady).Store(0)
	mem.U32(offConsumed).Store(1)
	mem.U32(offClosed).Store(0)
	mem.I32(offSenders).Store(0)
	mem.I32(offReceivers).Store(0)
	mem.U32(offSendSeq).Store(0)
	mem.U32(offRecvSeq).Store(0)
	c := &Channel[T]{mem: mem, dataOff: dataOff}
	if capacity > 0 {
		q, err := queue.Create[T](t, name+".q", capacity+1)
		if err != nil {
			return nil, err
		}
		c.buffered = true
		c.q = q
	}
	return c, nil
}

// OpenChannel attaches to an existing Channel[T] by name.
func OpenChannel[T any](t *table.Table, name string) (*Channel[T], error) {
	offset, size, ok := t.Find(name)
	if !ok {
		return nil, api.ErrNotFound.WithContext("name", name)
	}
	mem := t.Region(offset, size)
	c := &Channel[T]{mem: mem, dataOff: wire.AlignUp(chanHeaderSize, 8)}
	if q, err := queue.Open[T](t, name+".q"); err == nil {
		c.buffered = true
		c.q = q
	}
	return c, nil
}

func (c *Channel[T]) dataPtr() *T { return (*T)(unsafe.Pointer(&c.mem[c.dataOff])) }

// Closed reports whether Close has been called.
func (c *Channel[T]) Closed() bool { return c.mem.U32(offClosed).Load() != 0 }

// Close marks the channel closed. Senders fail afterward; receivers keep
// draining any buffered items until empty.
func (c *Channel[T]) Close() { c.mem.U32(offClosed).Store(1) }

// Send delivers v, blocking for a buffered channel only when full, and
// always blocking for a rendezvous channel until a receiver consumes it.
// Returns false if the channel is closed.
func (c *Channel[T]) Send(v T) bool {
	if c.buffered {
		return c.sendBuffered(v)
	}
	return c.sendRendezvous(v)
}

func (c *Channel[T]) sendBuffered(v T) bool {
	c.mem.I32(offSenders).Add(1)
	defer c.mem.I32(offSenders).Add(-1)
	b := backoff.New()
	for {
		if c.Closed() {
			return false
		}
		if err := c.q.Push(v); err == nil {
			c.mem.U32(offSendSeq).Add(1)
			return true
		}
		b.Spin()
	}
}

func (c *Channel[T]) sendRendezvous(v T) bool {
	c.mem.I32(offSenders).Add(1)
	defer c.mem.I32(offSenders).Add(-1)
	readyA := c.mem.U32(offReady)
	consumedA := c.mem.U32(offConsumed)
	b := backoff.New()
	for {
		if c.Closed() {
			return false
		}
		// Claim the idle slot with the CAS, same as TrySend, so two
		// concurrent senders can never both win and race on dataPtr.
		if readyA.CompareAndSwap(0, 2) {
			break
		}
		b.Spin()
	}
	*c.dataPtr() = v
	consumedA.Store(0)
	readyA.Store(1)
	c.mem.U32(offSendSeq).Add(1)
	for consumedA.Load() == 0 {
		b.Spin()
	}
	return true
}

// Recv blocks for a value. It returns false only once the channel is both
// closed and drained.
func (c *Channel[T]) Recv() (T, bool) {
	if c.buffered {
		return c.recvBuffered()
	}
	return c.recvRendezvous()
}

func (c *Channel[T]) recvBuffered() (T, bool) {
	c.mem.I32(offReceivers).Add(1)
	defer c.mem.I32(offReceivers).Add(-1)
	b := backoff.New()
	for {
		if v, err := c.q.Pop(); err == nil {
			c.mem.U32(offRecvSeq).Add(1)
			return v, true
		}
		if c.Closed() {
			var zero T
			return zero, false
		}
		b.Spin()
	}
}

func (c *Channel[T]) recvRendezvous() (T, bool) {
	c.mem.I32(offReceivers).Add(1)
	defer c.mem.I32(offReceivers).Add(-1)
	readyA := c.mem.U32(offReady)
	consumedA := c.mem.U32(offConsumed)
	b := backoff.New()
	for readyA.Load() != 1 {
		if c.Closed() {
			var zero T
			return zero, false
		}
		b.Spin()
	}
	v := *c.dataPtr()
	consumedA.Store(1)
	readyA.Store(0)
	c.mem.U32(offRecvSeq).Add(1)
	return v, true
}

// TrySend is a non-blocking Send: buffered channels fail if full,
// rendezvous channels fail only if the single rendezvous slot is already
// occupied by an unconsumed value (it does not require a receiver to
// already be waiting).
func (c *Channel[T]) TrySend(v T) bool {
	if c.Closed() {
		return false
	}
	if c.buffered {
		return c.q.Push(v) == nil
	}
	readyA := c.mem.U32(offReady)
	// Claim the slot with an intermediate value (2) before publishing data:
	// a receiver only treats ready==1 as valid, so 2 lets us finish the write
	// without a second TrySend racing in on the same slot.
	if !readyA.CompareAndSwap(0, 2) {
		return false
	}
	*c.dataPtr() = v
	c.mem.U32(offConsumed).Store(0)
	readyA.Store(1)
	c.mem.U32(offSendSeq).Add(1)
	return true
}

// TryRecv is a non-blocking Recv.
func (c *Channel[T]) TryRecv() (T, bool) {
	var zero T
	if c.buffered {
		v, err := c.q.Pop()
		if err != nil {
			return zero, false
		}
		c.mem.U32(offRecvSeq).Add(1)
		return v, true
	}
	readyA := c.mem.U32(offReady)
	if readyA.Load() != 1 {
		return zero, false
	}
	v := *c.dataPtr()
	c.mem.U32(offConsumed).Store(1)
	readyA.Store(0)
	c.mem.U32(offRecvSeq).Add(1)
	return v, true
}

// Senders and Receivers return snapshot in-flight counts, for observability.
func (c *Channel[T]) Senders() int32   { return c.mem.I32(offSenders).Load() }
func (c *Channel[T]) Receivers() int32 { return c.mem.I32(offReceivers).Load() }
