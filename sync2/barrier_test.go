package sync2_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zeroipc/zeroipc/sync2"
)

func TestBarrierReleasesAllParticipants(t *testing.T) {
	tb, cleanup := newTable(t)
	defer cleanup()

	const n = 5
	b, err := sync2.CreateBarrier(tb, "b", n)
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	order := make([]int, 0, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			time.Sleep(time.Duration(id) * time.Millisecond)
			b.Wait()
			mu.Lock()
			order = append(order, id)
			mu.Unlock()
		}(i)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("barrier never released all participants")
	}
	require.Len(t, order, n)
	require.EqualValues(t, 1, b.Generation())
}

func TestBarrierIsReusableAcrossGenerations(t *testing.T) {
	tb, cleanup := newTable(t)
	defer cleanup()

	const n = 3
	b, err := sync2.CreateBarrier(tb, "b", n)
	require.NoError(t, err)

	for gen := 0; gen < 3; gen++ {
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				b.Wait()
			}()
		}
		wg.Wait()
		require.EqualValues(t, gen+1, b.Generation())
	}
}

func TestBarrierWaitForTimesOutWithoutFullParty(t *testing.T) {
	tb, cleanup := newTable(t)
	defer cleanup()

	b, err := sync2.CreateBarrier(tb, "b", 2)
	require.NoError(t, err)

	ok := b.WaitFor(20 * time.Millisecond)
	require.False(t, ok)
}
