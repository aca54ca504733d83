package sync2_test

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zeroipc/zeroipc/api"
	"github.com/zeroipc/zeroipc/sync2"
	"github.com/zeroipc/zeroipc/table"
)

func newTable(t *testing.T) (*table.Table, func()) {
	t.Helper()
	name := fmt.Sprintf("/zeroipc-sync2-test-%d-%d", rand.Int63(), rand.Int63())
	tb, err := table.Create(name, 1<<20, 16)
	require.NoError(t, err)
	return tb, func() {
		tb.Segment().Detach()
		table.Unlink(name)
	}
}

func TestSemaphoreTryAcquireRelease(t *testing.T) {
	tb, cleanup := newTable(t)
	defer cleanup()

	s, err := sync2.Create(tb, "s", 2, 2)
	require.NoError(t, err)

	require.True(t, s.TryAcquire())
	require.True(t, s.TryAcquire())
	require.False(t, s.TryAcquire())
	require.EqualValues(t, 0, s.Count())

	require.NoError(t, s.Release())
	require.EqualValues(t, 1, s.Count())
}

func TestSemaphoreReleaseRejectsOverflowWhenBounded(t *testing.T) {
	tb, cleanup := newTable(t)
	defer cleanup()

	s, err := sync2.Create(tb, "s", 1, 1)
	require.NoError(t, err)

	require.ErrorIs(t, s.Release(), api.ErrOverflow)
}

func TestSemaphoreAcquireBlocksUntilRelease(t *testing.T) {
	tb, cleanup := newTable(t)
	defer cleanup()

	s, err := sync2.Create(tb, "s", 0, 0)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		s.Acquire()
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	select {
	case <-done:
		t.Fatal("Acquire returned before Release")
	default:
	}
	require.NoError(t, s.Release())

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Acquire never unblocked")
	}
}

func TestSemaphoreAcquireForTimesOut(t *testing.T) {
	tb, cleanup := newTable(t)
	defer cleanup()

	s, err := sync2.Create(tb, "s", 0, 0)
	require.NoError(t, err)

	ok := s.AcquireFor(20 * time.Millisecond)
	require.False(t, ok)
}

func TestSemaphoreConcurrentAcquireReleaseNeverExceedsBound(t *testing.T) {
	tb, cleanup := newTable(t)
	defer cleanup()

	const maxCount = 4
	s, err := sync2.Create(tb, "s", maxCount, maxCount)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Acquire()
			require.GreaterOrEqual(t, s.Count(), int32(0))
			time.Sleep(time.Millisecond)
			require.NoError(t, s.Release())
		}()
	}
	wg.Wait()
	require.EqualValues(t, maxCount, s.Count())
}
