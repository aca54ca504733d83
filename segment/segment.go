package segment

import (
	"strings"

	"github.com/zeroipc/zeroipc/api"
	"github.com/zeroipc/zeroipc/internal/wire"
)

// Segment owns (creator) or borrows (attacher) a contiguous mapped region.
// base is process-local; a Segment must not be shared across processes —
// only its name can be.
type Segment struct {
	name  string
	mem   wire.Bytes
	owner bool
}

// Create OS-creates and maps a new segment of the given size, zeroes it, and
// returns a handle. It does not write the metadata table header — callers
// go through table.Create for that, since the table and arena layout are
// the table package's concern.
func Create(name string, size int) (*Segment, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if size <= 0 {
		return nil, api.ErrInvalidArgument.WithContext("size", size)
	}
	mem, err := newBackend().create(name, size)
	if err != nil {
		return nil, api.ErrIoError.WithContext("cause", err.Error())
	}
	return &Segment{name: name, mem: mem, owner: true}, nil
}

// Attach OS-opens and maps an existing segment. It does not validate the
// table header — table.Attach does that immediately afterward.
func Attach(name string) (*Segment, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	mem, err := newBackend().attach(name)
	if err != nil {
		return nil, api.ErrNotFound.WithContext("name", name).WithContext("cause", err.Error())
	}
	return &Segment{name: name, mem: mem, owner: false}, nil
}

// Unlink removes the OS name. Existing mappings (this process's and any
// other attacher's) remain valid until explicitly detached.
func Unlink(name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if err := newBackend().unlink(name); err != nil {
		return api.ErrIoError.WithContext("cause", err.Error())
	}
	return nil
}

// Detach unmaps this process's view. It does not remove the OS object.
func (s *Segment) Detach() error {
	if s.mem == nil {
		return nil
	}
	err := newBackend().detach(s.mem)
	s.mem = nil
	return err
}

// Mem exposes the raw mapped bytes for the table and container packages.
func (s *Segment) Mem() wire.Bytes { return s.mem }

// Size returns the byte length of the mapping.
func (s *Segment) Size() int { return len(s.mem) }

// Name returns the OS object name this segment was created/attached under.
func (s *Segment) Name() string { return s.name }

// Owner reports whether this process created (true) or attached (false) the
// segment.
func (s *Segment) Owner() bool { return s.owner }

func validateName(name string) error {
	if !strings.HasPrefix(name, "/") {
		return api.ErrInvalidArgument.WithContext("name", name).WithContext("reason", "must begin with /")
	}
	if strings.Count(name, "/") != 1 {
		return api.ErrInvalidArgument.WithContext("name", name).WithContext("reason", "no embedded slashes")
	}
	return nil
}
