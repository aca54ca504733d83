// Package table implements the metadata table: the name -> (offset, size)
// directory at the head of every segment, plus the bump-pointer arena
// allocator that hands out byte ranges for container allocations.
//
// The fixed-header-plus-array-of-entries layout is guarded by a plain
// mutex rather than lock-free machinery, the same small-registry approach
// control/config.go's ConfigStore and control/metrics.go's MetricsRegistry
// use, since allocation is rare enough to serialize externally without
// becoming a bottleneck.
package table

import (
	"strings"
	"sync"

	"github.com/cloudwego/gopkg/unsafex"
	"github.com/zeroipc/zeroipc/api"
	"github.com/zeroipc/zeroipc/internal/stats"
	"github.com/zeroipc/zeroipc/internal/wire"
	"github.com/zeroipc/zeroipc/segment"
)

const (
	magic   uint32 = 0x5A49504D // "ZIPM"
	version uint32 = 1

	headerSize  = 32
	nameLen     = 32
	entryStride = nameLen + 4 + 4 // name[32] + offset u32 + size u32

	// offsets within the header
	offMagic      = 0
	offVersion    = 4
	offEntryCount = 8
	offNextOffset = 12
	offMaxEntries = 16

	maxUsableNameBytes = 29 // the rest of name[32] holds the NUL terminator and padding
)

// Table is a MetadataTable bound to a mapped Segment.
type Table struct {
	seg *segment.Segment
	mu  sync.Mutex // serializes Allocate/Erase within this process
}

// Segment returns the underlying segment handle.
func (t *Table) Segment() *segment.Segment { return t.seg }

func (t *Table) mem() wire.Bytes { return t.seg.Mem() }

func entryOffset(i uint32) uint32 {
	return headerSize + i*entryStride
}

// Create creates a new segment of the given size and writes a fresh table
// header for maxEntries entries.
func Create(name string, size int, maxEntries uint32) (*Table, error) {
	if maxEntries == 0 {
		return nil, api.ErrInvalidArgument.WithContext("reason", "max_entries must be > 0")
	}
	needed := headerSize + int(maxEntries)*entryStride
	if size < needed {
		return nil, api.ErrInvalidArgument.WithContext("reason", "bytes too small for table").
			WithContext("need_at_least", needed)
	}

	seg, err := segment.Create(name, size)
	if err != nil {
		return nil, err
	}

	m := seg.Mem()
	m.U32(offMagic).Store(magic)
	m.U32(offVersion).Store(version)
	m.U32(offEntryCount).Store(0)
	m.U32(offMaxEntries).Store(maxEntries)
	m.U32(offNextOffset).Store(wire.AlignUp(uint32(needed), 8))

	return &Table{seg: seg}, nil
}

// Attach opens an existing segment and validates its table header.
func Attach(name string) (*Table, error) {
	seg, err := segment.Attach(name)
	if err != nil {
		return nil, err
	}
	if seg.Size() < headerSize {
		seg.Detach()
		return nil, api.ErrInvalidMagic
	}
	m := seg.Mem()
	if got := m.U32(offMagic).Load(); got != magic {
		seg.Detach()
		return nil, api.ErrInvalidMagic.WithContext("got", got)
	}
	if got := m.U32(offVersion).Load(); got != version {
		seg.Detach()
		return nil, api.ErrVersionMismatch.WithContext("got", got).WithContext("want", version)
	}
	return &Table{seg: seg}, nil
}

// Unlink removes the OS name backing a table's segment.
func Unlink(name string) error {
	return segment.Unlink(name)
}

func (t *Table) maxEntries() uint32 { return t.mem().U32(offMaxEntries).Load() }

// Count returns the number of active entries.
func (t *Table) Count() uint32 { return t.mem().U32(offEntryCount).Load() }

// entryName reads the zero-copy name view of entry i. The returned string
// aliases the segment's bytes and must not outlive a concurrent overwrite of
// that slot — callers only hold it across a single scan, never store it.
func (t *Table) entryName(i uint32) string {
	raw := t.mem().Slice(entryOffset(i), nameLen)
	n := 0
	for n < len(raw) && raw[n] != 0 {
		n++
	}
	return unsafex.BinaryToString(raw[:n])
}

func (t *Table) entryOffsetSize(i uint32) (offset, size uint32) {
	base := entryOffset(i)
	off := t.mem().U32(base + nameLen)
	sz := t.mem().U32(base + nameLen + 4)
	return off.Load(), sz.Load()
}

func (t *Table) writeEntry(i uint32, name string, offset, size uint32) {
	base := entryOffset(i)
	raw := t.mem().Slice(base, nameLen)
	for j := range raw {
		raw[j] = 0
	}
	copy(raw, unsafex.StringToBinary(name))
	t.mem().U32(base + nameLen).Store(offset)
	t.mem().U32(base + nameLen + 4).Store(size)
}

func (t *Table) clearEntry(i uint32) {
	base := entryOffset(i)
	raw := t.mem().Slice(base, nameLen)
	for j := range raw {
		raw[j] = 0
	}
	t.mem().U32(base + nameLen).Store(0)
	t.mem().U32(base + nameLen + 4).Store(0)
}

// Find looks up an active entry by name.
func (t *Table) Find(name string) (offset, size uint32, ok bool) {
	max := t.maxEntries()
	for i := uint32(0); i < max; i++ {
		if t.entryName(i) == name {
			off, sz := t.entryOffsetSize(i)
			return off, sz, true
		}
	}
	return 0, 0, false
}

// Iterate visits every active entry in slot order (which is insertion order
// for a table with no erasures). fn returning false stops iteration early.
// fn receives a copy of each name, so it may keep it.
func (t *Table) Iterate(fn func(name string, offset, size uint32) bool) {
	max := t.maxEntries()
	for i := uint32(0); i < max; i++ {
		nm := t.entryName(i)
		if nm == "" {
			continue
		}
		off, sz := t.entryOffsetSize(i)
		if !fn(strings.Clone(nm), off, sz) {
			return
		}
	}
}

// Allocate reserves size bytes from the arena for a new entry named name.
// It returns the absolute byte offset from the segment base at which the
// new allocation begins.
func (t *Table) Allocate(name string, size uint32) (uint32, error) {
	if len(name) == 0 {
		return 0, api.ErrInvalidArgument.WithContext("reason", "name must not be empty")
	}
	if len(name) > maxUsableNameBytes {
		return 0, api.ErrNameTooLong.WithContext("name", name)
	}
	if size == 0 {
		return 0, api.ErrInvalidArgument.WithContext("reason", "size must be > 0")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	max := t.maxEntries()
	count := t.Count()

	var freeSlot uint32 = max
	haveFreeSlot := false
	for i := uint32(0); i < max; i++ {
		nm := t.entryName(i)
		if nm == name {
			return 0, api.ErrAlreadyExists.WithContext("name", name)
		}
		if nm == "" && !haveFreeSlot {
			freeSlot = i
			haveFreeSlot = true
		}
	}
	if count >= max || !haveFreeSlot {
		return 0, api.ErrTableFull
	}

	next := t.mem().U32(offNextOffset).Load()
	offset := wire.AlignUp(next, 8)
	if int(offset)+int(size) > t.seg.Size() {
		return 0, api.ErrOutOfSpace.WithContext("need", size).WithContext("have", t.seg.Size()-int(offset))
	}

	t.writeEntry(freeSlot, name, offset, size)
	t.mem().U32(offNextOffset).Store(offset + size)
	t.mem().U32(offEntryCount).Store(count + 1)
	stats.IncAllocations()
	return offset, nil
}

// Erase marks the named entry inactive without reclaiming its bytes;
// fragmentation from erased entries is permanent.
func (t *Table) Erase(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	max := t.maxEntries()
	for i := uint32(0); i < max; i++ {
		if t.entryName(i) == name {
			t.clearEntry(i)
			t.mem().U32(offEntryCount).Store(t.Count() - 1)
			return true
		}
	}
	return false
}

// Region returns the byte view for a previously allocated offset/size pair,
// used by container constructors right after Allocate or Find.
func (t *Table) Region(offset, size uint32) wire.Bytes {
	return t.mem().Slice(offset, size)
}
