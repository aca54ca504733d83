//go:build linux

// Linux shared-memory backend: POSIX shm_open semantics reimplemented over
// golang.org/x/sys/unix, since the stdlib has no shm_open binding. glibc's
// shm_open is itself just open(2) under /dev/shm with O_CLOEXEC; we follow
// the same convention so objects created here are visible to (and
// interchangeable with) any POSIX shm_open-based implementation.
package segment

import (
	"fmt"

	"golang.org/x/sys/unix"
)

const shmDir = "/dev/shm"

type posixBackend struct{}

func newBackend() backend { return posixBackend{} }

func shmPath(name string) string {
	return shmDir + name
}

func (posixBackend) create(name string, size int) ([]byte, error) {
	path := shmPath(name)
	fd, err := unix.Open(path, unix.O_CREAT|unix.O_EXCL|unix.O_RDWR|unix.O_CLOEXEC, 0666)
	if err != nil {
		if err == unix.EEXIST {
			return nil, fmt.Errorf("segment: %s already exists: %w", name, err)
		}
		return nil, fmt.Errorf("segment: shm_open create %s: %w", name, err)
	}
	defer unix.Close(fd)

	if err := unix.Ftruncate(fd, int64(size)); err != nil {
		unix.Unlink(path)
		return nil, fmt.Errorf("segment: ftruncate %s to %d: %w", name, size, err)
	}

	mem, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Unlink(path)
		return nil, fmt.Errorf("segment: mmap %s: %w", name, err)
	}
	for i := range mem {
		mem[i] = 0
	}
	return mem, nil
}

func (posixBackend) attach(name string) ([]byte, error) {
	path := shmPath(name)
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("segment: shm_open attach %s: %w", name, err)
	}
	defer unix.Close(fd)

	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		return nil, fmt.Errorf("segment: fstat %s: %w", name, err)
	}

	mem, err := unix.Mmap(fd, 0, int(st.Size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("segment: mmap attach %s: %w", name, err)
	}
	return mem, nil
}

func (posixBackend) detach(mem []byte) error {
	if mem == nil {
		return nil
	}
	return unix.Munmap(mem)
}

func (posixBackend) unlink(name string) error {
	if err := unix.Unlink(shmPath(name)); err != nil {
		return fmt.Errorf("segment: unlink %s: %w", name, err)
	}
	return nil
}
