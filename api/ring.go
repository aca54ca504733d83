// Package api
//
// Fast, lock-free ring buffer contract implemented by container/ring.Ring.
// codata's Stream holds a *ring.Ring directly, and the buffered Channel is
// backed by container/queue, so neither goes through this interface.
package api

// RingReader is the read side of a bounded SPSC ring.
type RingReader[T any] interface {
	// Read removes and returns the oldest element; ok is false if empty.
	Read() (T, bool)
	// Len returns the number of buffered elements (a snapshot).
	Len() int
	// Cap returns the fixed element capacity.
	Cap() int
}

// RingWriter is the write side of a bounded SPSC ring.
type RingWriter[T any] interface {
	// Write appends an element; returns false if the ring is full.
	Write(v T) bool
	// OverwritePush appends an element, advancing the read position if
	// necessary to make room (drop-oldest semantics used by Stream).
	OverwritePush(v T)
}

// Ring is the full SPSC contract.
type Ring[T any] interface {
	RingReader[T]
	RingWriter[T]
}
