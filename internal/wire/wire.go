// Package wire provides byte-offset atomic views over a mapped shared-memory
// region. Every container header in this library (Queue, Stack, Ring, Map,
// Set, Pool, Semaphore, Barrier, Latch, Future, Lazy, Channel, Stream) is a
// fixed layout of atomics and plain fields living at known offsets inside a
// []byte returned by the segment backend — this package is the one place
// that reaches for unsafe.Pointer to turn an offset into a *atomic.T.
//
// Atomic counters addressed by a runtime offset rather than a compile-time
// struct field, generalizing the usual atomic.Uint64 struct-field idiom to
// shared-memory headers whose address is only known after mmap. This package
// does no byte<->string conversion; the table package does its own zero-copy
// name reads with github.com/cloudwego/gopkg/unsafex.
package wire

import (
	"sync/atomic"
	"unsafe"
)

// Bytes is a byte-addressable view over a container's allocation (or the
// whole segment). All accessors require off+size(T) <= len(b); callers are
// expected to have already validated the allocation against the table entry
// size, so these panic on misuse rather than returning an error — an
// out-of-bounds offset here is a programming error in this library, not a
// reportable runtime condition.
type Bytes []byte

// U32 returns an atomic view of the uint32 at the given byte offset.
func (b Bytes) U32(off uint32) *atomic.Uint32 {
	return (*atomic.Uint32)(unsafe.Pointer(&b[off]))
}

// U64 returns an atomic view of the uint64 at the given byte offset.
func (b Bytes) U64(off uint32) *atomic.Uint64 {
	return (*atomic.Uint64)(unsafe.Pointer(&b[off]))
}

// I32 returns an atomic view of the int32 at the given byte offset.
func (b Bytes) I32(off uint32) *atomic.Int32 {
	return (*atomic.Int32)(unsafe.Pointer(&b[off]))
}

// I64 returns an atomic view of the int64 at the given byte offset.
func (b Bytes) I64(off uint32) *atomic.Int64 {
	return (*atomic.Int64)(unsafe.Pointer(&b[off]))
}

// Bool returns an atomic view of the bool at the given byte offset.
func (b Bytes) Bool(off uint32) *atomic.Bool {
	return (*atomic.Bool)(unsafe.Pointer(&b[off]))
}

// Slice returns the n raw bytes starting at off, sharing the backing array.
func (b Bytes) Slice(off, n uint32) []byte {
	return b[off : off+n]
}

// AlignUp rounds off up to the next multiple of align (align must be a power
// of two). Used for the table's bump allocator and every header layout,
// which must stay 8-byte aligned.
func AlignUp(off, align uint32) uint32 {
	return (off + align - 1) &^ (align - 1)
}
