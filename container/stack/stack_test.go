package stack_test

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zeroipc/zeroipc/api"
	"github.com/zeroipc/zeroipc/container/stack"
	"github.com/zeroipc/zeroipc/table"
)

func newTable(t *testing.T) (*table.Table, func()) {
	t.Helper()
	name := fmt.Sprintf("/zeroipc-stack-test-%d-%d", rand.Int63(), rand.Int63())
	tb, err := table.Create(name, 1<<20, 16)
	require.NoError(t, err)
	return tb, func() {
		tb.Segment().Detach()
		table.Unlink(name)
	}
}

func TestStackLIFOOrder(t *testing.T) {
	tb, cleanup := newTable(t)
	defer cleanup()

	s, err := stack.Create[int](tb, "s", 8)
	require.NoError(t, err)

	require.NoError(t, s.Push(1))
	require.NoError(t, s.Push(2))
	require.NoError(t, s.Push(3))

	top, err := s.Top()
	require.NoError(t, err)
	require.Equal(t, 3, top)

	v, err := s.Pop()
	require.NoError(t, err)
	require.Equal(t, 3, v)
	v, err = s.Pop()
	require.NoError(t, err)
	require.Equal(t, 2, v)
}

func TestStackFullEmpty(t *testing.T) {
	tb, cleanup := newTable(t)
	defer cleanup()

	s, err := stack.Create[int](tb, "s", 2)
	require.NoError(t, err)

	require.NoError(t, s.Push(1))
	require.NoError(t, s.Push(2))
	require.True(t, s.Full())
	require.ErrorIs(t, s.Push(3), api.ErrFull)

	_, _ = s.Pop()
	_, _ = s.Pop()
	require.True(t, s.Empty())
	_, err = s.Pop()
	require.ErrorIs(t, err, api.ErrEmpty)
	_, err = s.Top()
	require.ErrorIs(t, err, api.ErrEmpty)
}

func TestStackConcurrentPushPopConserveCount(t *testing.T) {
	tb, cleanup := newTable(t)
	defer cleanup()

	const capacity = 128
	s, err := stack.Create[int](tb, "s", capacity)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < capacity; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			for s.Push(v) != nil {
			}
		}(i)
	}
	wg.Wait()
	require.True(t, s.Full())
	require.EqualValues(t, capacity, s.Len())

	count := 0
	for {
		if _, err := s.Pop(); err != nil {
			break
		}
		count++
	}
	require.Equal(t, capacity, count)
	require.True(t, s.Empty())
}
