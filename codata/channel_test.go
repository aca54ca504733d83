package codata_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zeroipc/zeroipc/codata"
)

func TestChannelRendezvousSendBlocksUntilRecv(t *testing.T) {
	tb, cleanup := newTable(t)
	defer cleanup()

	c, err := codata.CreateChannel[int](tb, "c", 0)
	require.NoError(t, err)

	sendDone := make(chan struct{})
	go func() {
		ok := c.Send(99)
		require.True(t, ok)
		close(sendDone)
	}()

	time.Sleep(20 * time.Millisecond)
	select {
	case <-sendDone:
		t.Fatal("rendezvous Send returned before a receiver consumed")
	default:
	}

	v, ok := c.Recv()
	require.True(t, ok)
	require.Equal(t, 99, v)

	select {
	case <-sendDone:
	case <-time.After(time.Second):
		t.Fatal("Send never unblocked after Recv")
	}
}

func TestChannelRendezvousTrySendTryRecv(t *testing.T) {
	tb, cleanup := newTable(t)
	defer cleanup()

	c, err := codata.CreateChannel[int](tb, "c", 0)
	require.NoError(t, err)

	_, ok := c.TryRecv()
	require.False(t, ok)

	require.True(t, c.TrySend(1))
	// The slot is now occupied; a second TrySend must fail until a receiver
	// consumes the pending value.
	require.False(t, c.TrySend(2))

	v, ok := c.TryRecv()
	require.True(t, ok)
	require.Equal(t, 1, v)

	require.True(t, c.TrySend(3))
	v, ok = c.TryRecv()
	require.True(t, ok)
	require.Equal(t, 3, v)
}

func TestChannelBufferedSendRecvFIFO(t *testing.T) {
	tb, cleanup := newTable(t)
	defer cleanup()

	c, err := codata.CreateChannel[int](tb, "c", 4)
	require.NoError(t, err)

	require.True(t, c.Send(1))
	require.True(t, c.Send(2))
	require.True(t, c.Send(3))

	v, ok := c.Recv()
	require.True(t, ok)
	require.Equal(t, 1, v)
	v, ok = c.Recv()
	require.True(t, ok)
	require.Equal(t, 2, v)
}

func TestChannelCloseDrainsBufferedThenFails(t *testing.T) {
	tb, cleanup := newTable(t)
	defer cleanup()

	c, err := codata.CreateChannel[int](tb, "c", 4)
	require.NoError(t, err)

	require.True(t, c.Send(1))
	require.True(t, c.Send(2))
	c.Close()
	require.True(t, c.Closed())

	require.False(t, c.Send(3))

	v, ok := c.Recv()
	require.True(t, ok)
	require.Equal(t, 1, v)
	v, ok = c.Recv()
	require.True(t, ok)
	require.Equal(t, 2, v)

	_, ok = c.Recv()
	require.False(t, ok)
}

func TestChannelOpenRoundTripDetectsBufferedMode(t *testing.T) {
	tb, cleanup := newTable(t)
	defer cleanup()

	_, err := codata.CreateChannel[int](tb, "c", 4)
	require.NoError(t, err)

	c2, err := codata.OpenChannel[int](tb, "c")
	require.NoError(t, err)
	require.True(t, c2.Send(5))
	v, ok := c2.Recv()
	require.True(t, ok)
	require.Equal(t, 5, v)
}

func TestChannelConcurrentSendersRecvAllValues(t *testing.T) {
	tb, cleanup := newTable(t)
	defer cleanup()

	c, err := codata.CreateChannel[int](tb, "c", 8)
	require.NoError(t, err)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			require.True(t, c.Send(v))
		}(i)
	}

	seen := make([]bool, n)
	var mu sync.Mutex
	var recvWg sync.WaitGroup
	recvWg.Add(1)
	go func() {
		defer recvWg.Done()
		for i := 0; i < n; i++ {
			v, ok := c.Recv()
			require.True(t, ok)
			mu.Lock()
			seen[v] = true
			mu.Unlock()
		}
	}()

	wg.Wait()
	recvWg.Wait()
	for i, s := range seen {
		require.True(t, s, "value %d never received", i)
	}
}
