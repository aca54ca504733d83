package codata

import (
	"time"

	"github.com/eapache/queue"

	"github.com/zeroipc/zeroipc/table"
)

// forwardPending is the staging buffer a forwarding task uses when it has
// pulled a value from the source Stream but the target Stream's ring is
// momentarily full (Emit returning false). Grounded on
// github.com/eapache/queue, the pack's pull-side dispatch queue: it grows
// only as far as the producer/consumer pace mismatch requires instead of
// being bounded like the shared-memory Ring the Streams themselves use.
type forwardPending struct {
	q *queue.Queue
}

func newForwardPending() *forwardPending { return &forwardPending{q: queue.New()} }

func (p *forwardPending) push(v any) { p.q.Add(v) }

func (p *forwardPending) drain(emit func(any) bool) {
	for p.q.Length() > 0 {
		v := p.q.Peek()
		if !emit(v) {
			return
		}
		p.q.Remove()
	}
}

const forwardPollInterval = 200 * time.Microsecond

// Map returns a new Stream backed by its own Ring; a forwarding goroutine
// applies fn to every value emitted on src and emits the result on it (spec
// §4.12, pull-style transformer).
func Map[T, U any](t *table.Table, name string, src *Stream[T], fn func(T) U) (*Stream[U], error) {
	dst, err := CreateStream[U](t, name, uint64(src.r.Cap()))
	if err != nil {
		return nil, err
	}
	go forwardLoop(src, dst, func(v T, pending *forwardPending, emit func(U) bool) {
		emit(fn(v))
	})
	return dst, nil
}

// Filter returns a new Stream carrying only the values of src for which
// pred is true.
func Filter[T any](t *table.Table, name string, src *Stream[T], pred func(T) bool) (*Stream[T], error) {
	dst, err := CreateStream[T](t, name, uint64(src.r.Cap()))
	if err != nil {
		return nil, err
	}
	go forwardLoop(src, dst, func(v T, pending *forwardPending, emit func(T) bool) {
		if pred(v) {
			emit(v)
		}
	})
	return dst, nil
}

// Take returns a new Stream carrying at most n values from src, then
// closes itself.
func Take[T any](t *table.Table, name string, src *Stream[T], n uint64) (*Stream[T], error) {
	dst, err := CreateStream[T](t, name, uint64(src.r.Cap()))
	if err != nil {
		return nil, err
	}
	var taken uint64
	go forwardLoop(src, dst, func(v T, pending *forwardPending, emit func(T) bool) {
		if taken >= n {
			return
		}
		if emit(v) {
			taken++
			if taken >= n {
				dst.Close()
			}
		}
	})
	return dst, nil
}

// Skip returns a new Stream carrying every value of src after the first n.
func Skip[T any](t *table.Table, name string, src *Stream[T], n uint64) (*Stream[T], error) {
	dst, err := CreateStream[T](t, name, uint64(src.r.Cap()))
	if err != nil {
		return nil, err
	}
	var skipped uint64
	go forwardLoop(src, dst, func(v T, pending *forwardPending, emit func(T) bool) {
		if skipped < n {
			skipped++
			return
		}
		emit(v)
	})
	return dst, nil
}

// Fold returns a new Stream of running accumulator values: each source
// emission folds into acc via fn, and the updated acc is emitted downstream.
func Fold[T, A any](t *table.Table, name string, src *Stream[T], initial A, fn func(A, T) A) (*Stream[A], error) {
	dst, err := CreateStream[A](t, name, uint64(src.r.Cap()))
	if err != nil {
		return nil, err
	}
	acc := initial
	go forwardLoop(src, dst, func(v T, pending *forwardPending, emit func(A) bool) {
		acc = fn(acc, v)
		emit(acc)
	})
	return dst, nil
}

// forwardLoop polls src until it is closed and drained, applying step to
// every value it pulls. step is responsible for calling emit (possibly zero
// or more than once) with the values to publish downstream; values emit
// rejects (target ring full) are queued in a forwardPending buffer and
// retried ahead of the next source pull, so a slow consumer never loses an
// already-pulled value.
func forwardLoop[T, U any](src *Stream[T], dst *Stream[U], step func(T, *forwardPending, func(U) bool)) {
	pending := newForwardPending()
	emit := func(v U) bool {
		if dst.Emit(v) {
			return true
		}
		pending.push(v)
		return false
	}
	ticker := time.NewTicker(forwardPollInterval)
	defer ticker.Stop()
	for range ticker.C {
		pending.drain(func(v any) bool { return dst.Emit(v.(U)) })
		v, ok := src.Next()
		if ok {
			step(v, pending, emit)
			continue
		}
		if src.Closed() {
			pending.drain(func(v any) bool { return dst.Emit(v.(U)) })
			dst.Close()
			return
		}
	}
}
