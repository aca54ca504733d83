//go:build !linux && !windows

// Stub backend for platforms without a POSIX shm_open-alike wired up yet,
// returning a clear not-supported error for unported platforms.
package segment

import "fmt"

type stubBackend struct{}

func newBackend() backend { return stubBackend{} }

func (stubBackend) create(name string, size int) ([]byte, error) {
	return nil, fmt.Errorf("segment: shared memory not supported on this platform")
}

func (stubBackend) attach(name string) ([]byte, error) {
	return nil, fmt.Errorf("segment: shared memory not supported on this platform")
}

func (stubBackend) detach(mem []byte) error { return nil }

func (stubBackend) unlink(name string) error {
	return fmt.Errorf("segment: shared memory not supported on this platform")
}
