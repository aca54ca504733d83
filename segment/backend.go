// Package segment implements the OS-backed mapped region (Segment). The
// metadata table that lives at its head is the table package's concern.
// Everything built on top (Array, Queue, Stack, Ring, Map, Set, Pool, the
// sync primitives, and the codata abstractions) addresses its storage
// through a *table.Table wrapping a *segment.Segment, never the OS backend
// directly.
//
// The platform-split pattern (linux/windows/stub files selected by build
// tags; the stub, used on every other platform, only returns a
// not-supported error) follows the usual Go convention for OS-specific
// shared-memory primitives (shm_open/mmap equivalents): create, attach,
// detach, unlink. A backend failure is returned as an error; there is no
// fallback to another implementation.
package segment

// backend is the minimal OS shared-memory contract: create/attach/detach/
// unlink. Platform files supply concrete implementations selected at build
// time.
type backend interface {
	// create allocates and zero-fills a new OS shared-memory object of the
	// given size, returning a mapping of it.
	create(name string, size int) ([]byte, error)
	// attach maps an existing OS shared-memory object, whatever its size.
	attach(name string) ([]byte, error)
	// detach unmaps a previously mapped region. The OS object itself is
	// unaffected; other attachers keep their mappings.
	detach(mem []byte) error
	// unlink removes the OS name. Existing mappings remain valid until
	// detached — closing a handle merely unmaps.
	unlink(name string) error
}
