//go:build windows

// Windows shared-memory backend: a named file mapping backed by the system
// paging file, which is the closest Windows analogue to POSIX shm_open.
// Uses golang.org/x/sys/windows's typed wrappers throughout, including
// CreateFileMapping.
package segment

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

type winBackend struct{}

func newBackend() backend { return winBackend{} }

func mapName(name string) string {
	// Win32 kernel object namespace forbids '/'; translate the leading
	// slash into the "Local\" namespace prefix.
	out := make([]byte, 0, len(name)+6)
	out = append(out, "Local\\"...)
	for i := 0; i < len(name); i++ {
		if name[i] == '/' {
			continue
		}
		out = append(out, name[i])
	}
	return string(out)
}

func (winBackend) create(name string, size int) ([]byte, error) {
	utf16Name, err := windows.UTF16PtrFromString(mapName(name))
	if err != nil {
		return nil, fmt.Errorf("segment: invalid name %s: %w", name, err)
	}
	h, err := windows.CreateFileMapping(
		windows.InvalidHandle,
		nil,
		windows.PAGE_READWRITE,
		uint32(uint64(size)>>32),
		uint32(uint64(size)&0xFFFFFFFF),
		utf16Name,
	)
	if err != nil {
		return nil, fmt.Errorf("segment: CreateFileMapping %s: %w", name, err)
	}
	if err == windows.ERROR_ALREADY_EXISTS {
		windows.CloseHandle(h)
		return nil, fmt.Errorf("segment: %s already exists", name)
	}

	addr, err := windows.MapViewOfFile(h, windows.FILE_MAP_WRITE, 0, 0, uintptr(size))
	if err != nil {
		windows.CloseHandle(h)
		return nil, fmt.Errorf("segment: MapViewOfFile %s: %w", name, err)
	}
	mem := unsafe.Slice((*byte)(unsafe.Pointer(addr)), size)
	for i := range mem {
		mem[i] = 0
	}
	return mem, nil
}

func (winBackend) attach(name string) ([]byte, error) {
	utf16Name, err := windows.UTF16PtrFromString(mapName(name))
	if err != nil {
		return nil, fmt.Errorf("segment: invalid name %s: %w", name, err)
	}
	h, err := windows.OpenFileMapping(windows.FILE_MAP_WRITE, false, utf16Name)
	if err != nil {
		return nil, fmt.Errorf("segment: OpenFileMapping %s: %w", name, err)
	}
	defer windows.CloseHandle(h)

	// dwNumberOfBytesToMap == 0 maps the whole section as the creator sized
	// it, but MapViewOfFile has no return parameter for that size; query the
	// committed region back from the address it handed us.
	addr, err := windows.MapViewOfFile(h, windows.FILE_MAP_WRITE, 0, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("segment: MapViewOfFile attach %s: %w", name, err)
	}
	var info windows.MemoryBasicInformation
	if err := windows.VirtualQuery(addr, &info, unsafe.Sizeof(info)); err != nil {
		windows.UnmapViewOfFile(addr)
		return nil, fmt.Errorf("segment: VirtualQuery attach %s: %w", name, err)
	}
	mem := unsafe.Slice((*byte)(unsafe.Pointer(addr)), info.RegionSize)
	return mem, nil
}

func (winBackend) detach(mem []byte) error {
	if len(mem) == 0 {
		return nil
	}
	return windows.UnmapViewOfFile(uintptr(unsafe.Pointer(&mem[0])))
}

func (winBackend) unlink(name string) error {
	// Named file mappings backed by the paging file are reference-counted
	// by the kernel and disappear once every handle (every attached
	// process) closes it; there is no separate unlink call on Windows.
	return nil
}
