package table_test

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zeroipc/zeroipc/api"
	"github.com/zeroipc/zeroipc/table"
)

func tempName(t *testing.T) string {
	t.Helper()
	return fmt.Sprintf("/zeroipc-table-test-%d-%d", rand.Int63(), rand.Int63())
}

func TestCreateAttachRoundTrip(t *testing.T) {
	name := tempName(t)
	tb, err := table.Create(name, 65536, 16)
	require.NoError(t, err)
	defer table.Unlink(name)
	defer tb.Segment().Detach()

	require.Equal(t, uint32(0), tb.Count())

	other, err := table.Attach(name)
	require.NoError(t, err)
	defer other.Segment().Detach()
	require.Equal(t, uint32(0), other.Count())
}

func TestAttachRejectsBadVersion(t *testing.T) {
	name := tempName(t)
	tb, err := table.Create(name, 4096, 4)
	require.NoError(t, err)
	defer table.Unlink(name)
	defer tb.Segment().Detach()

	// Corrupt the version field directly through the raw mapping.
	tb.Segment().Mem()[4] = 0xFF

	_, err = table.Attach(name)
	require.Error(t, err)
	require.ErrorIs(t, err, api.ErrVersionMismatch)
}

func TestAllocateFindErase(t *testing.T) {
	name := tempName(t)
	tb, err := table.Create(name, 65536, 8)
	require.NoError(t, err)
	defer table.Unlink(name)
	defer tb.Segment().Detach()

	off, err := tb.Allocate("widget", 128)
	require.NoError(t, err)
	require.Equal(t, uint32(1), tb.Count())

	gotOff, gotSize, ok := tb.Find("widget")
	require.True(t, ok)
	require.Equal(t, off, gotOff)
	require.EqualValues(t, 128, gotSize)

	_, _, ok = tb.Find("missing")
	require.False(t, ok)

	require.True(t, tb.Erase("widget"))
	require.Equal(t, uint32(0), tb.Count())
	_, _, ok = tb.Find("widget")
	require.False(t, ok)
	require.False(t, tb.Erase("widget"))
}

func TestAllocateRejectsDuplicateName(t *testing.T) {
	name := tempName(t)
	tb, err := table.Create(name, 65536, 8)
	require.NoError(t, err)
	defer table.Unlink(name)
	defer tb.Segment().Detach()

	_, err = tb.Allocate("x", 64)
	require.NoError(t, err)
	_, err = tb.Allocate("x", 64)
	require.ErrorIs(t, err, api.ErrAlreadyExists)
}

func TestAllocateRejectsWhenTableFull(t *testing.T) {
	name := tempName(t)
	tb, err := table.Create(name, 1<<20, 2)
	require.NoError(t, err)
	defer table.Unlink(name)
	defer tb.Segment().Detach()

	_, err = tb.Allocate("a", 8)
	require.NoError(t, err)
	_, err = tb.Allocate("b", 8)
	require.NoError(t, err)
	_, err = tb.Allocate("c", 8)
	require.ErrorIs(t, err, api.ErrTableFull)
}

func TestAllocateRejectsOutOfSpace(t *testing.T) {
	name := tempName(t)
	tb, err := table.Create(name, 4096, 4)
	require.NoError(t, err)
	defer table.Unlink(name)
	defer tb.Segment().Detach()

	_, err = tb.Allocate("huge", 1<<20)
	require.ErrorIs(t, err, api.ErrOutOfSpace)
}

func TestAllocateRejectsLongName(t *testing.T) {
	name := tempName(t)
	tb, err := table.Create(name, 65536, 4)
	require.NoError(t, err)
	defer table.Unlink(name)
	defer tb.Segment().Detach()

	long := ""
	for i := 0; i < 40; i++ {
		long += "x"
	}
	_, err = tb.Allocate(long, 8)
	require.Error(t, err)
}

func TestIterateVisitsAllActiveEntries(t *testing.T) {
	name := tempName(t)
	tb, err := table.Create(name, 65536, 8)
	require.NoError(t, err)
	defer table.Unlink(name)
	defer tb.Segment().Detach()

	_, err = tb.Allocate("a", 8)
	require.NoError(t, err)
	_, err = tb.Allocate("b", 16)
	require.NoError(t, err)
	tb.Erase("a")
	_, err = tb.Allocate("c", 32)
	require.NoError(t, err)

	seen := map[string]uint32{}
	tb.Iterate(func(name string, offset, size uint32) bool {
		seen[name] = size
		return true
	})
	require.Equal(t, map[string]uint32{"b": 16, "c": 32}, seen)
}
