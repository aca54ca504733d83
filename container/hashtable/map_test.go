package hashtable_test

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zeroipc/zeroipc/api"
	"github.com/zeroipc/zeroipc/container/hashtable"
	"github.com/zeroipc/zeroipc/table"
)

func newTable(t *testing.T) (*table.Table, func()) {
	t.Helper()
	name := fmt.Sprintf("/zeroipc-map-test-%d-%d", rand.Int63(), rand.Int63())
	tb, err := table.Create(name, 1<<20, 16)
	require.NoError(t, err)
	return tb, func() {
		tb.Segment().Detach()
		table.Unlink(name)
	}
}

func TestMapInsertFindErase(t *testing.T) {
	tb, cleanup := newTable(t)
	defer cleanup()

	m, err := hashtable.Create[int32, int64](tb, "m", 16)
	require.NoError(t, err)

	require.NoError(t, m.Insert(1, 100))
	require.NoError(t, m.Insert(2, 200))

	v, ok := m.Find(1)
	require.True(t, ok)
	require.EqualValues(t, 100, v)

	_, ok = m.Find(99)
	require.False(t, ok)

	require.EqualValues(t, 2, m.Size())
	require.True(t, m.Erase(1))
	require.EqualValues(t, 1, m.Size())
	_, ok = m.Find(1)
	require.False(t, ok)
	require.False(t, m.Erase(1))
}

func TestMapInsertUpdatesExistingKey(t *testing.T) {
	tb, cleanup := newTable(t)
	defer cleanup()

	m, err := hashtable.Create[int32, int64](tb, "m", 8)
	require.NoError(t, err)

	require.NoError(t, m.Insert(5, 1))
	require.NoError(t, m.Insert(5, 2))
	require.EqualValues(t, 1, m.Size())
	v, ok := m.Find(5)
	require.True(t, ok)
	require.EqualValues(t, 2, v)
}

func TestMapReturnsFullWhenExhausted(t *testing.T) {
	tb, cleanup := newTable(t)
	defer cleanup()

	m, err := hashtable.Create[int32, int32](tb, "m", 4)
	require.NoError(t, err)

	for i := int32(0); i < 4; i++ {
		require.NoError(t, m.Insert(i, i))
	}
	err = m.Insert(100, 1)
	require.ErrorIs(t, err, api.ErrFull)
}

func TestMapReinsertAfterEraseReusesTombstone(t *testing.T) {
	tb, cleanup := newTable(t)
	defer cleanup()

	m, err := hashtable.Create[int32, int32](tb, "m", 4)
	require.NoError(t, err)

	for i := int32(0); i < 4; i++ {
		require.NoError(t, m.Insert(i, i*10))
	}
	require.True(t, m.Erase(2))
	require.NoError(t, m.Insert(2, 999))
	v, ok := m.Find(2)
	require.True(t, ok)
	require.EqualValues(t, 999, v)
	require.EqualValues(t, 4, m.Size())
}

func TestMapIterateVisitsAllLiveEntries(t *testing.T) {
	tb, cleanup := newTable(t)
	defer cleanup()

	m, err := hashtable.Create[int32, int32](tb, "m", 16)
	require.NoError(t, err)
	for i := int32(0); i < 10; i++ {
		require.NoError(t, m.Insert(i, i*i))
	}
	require.True(t, m.Erase(3))

	seen := map[int32]int32{}
	m.Iterate(func(k, v int32) bool {
		seen[k] = v
		return true
	})
	require.Len(t, seen, 9)
	require.NotContains(t, seen, int32(3))
	require.Equal(t, int32(16), seen[4])
}

func TestMapOpenTypeMismatch(t *testing.T) {
	tb, cleanup := newTable(t)
	defer cleanup()

	_, err := hashtable.Create[int32, int64](tb, "m", 8)
	require.NoError(t, err)
	_, err = hashtable.Open[int32, int32](tb, "m")
	require.Error(t, err)
}

func TestMapConcurrentInsertFindDistinctKeys(t *testing.T) {
	tb, cleanup := newTable(t)
	defer cleanup()

	const n = 256
	m, err := hashtable.Create[int32, int32](tb, "m", n*4)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := int32(0); i < n; i++ {
		wg.Add(1)
		go func(k int32) {
			defer wg.Done()
			require.NoError(t, m.Insert(k, k*2))
		}(i)
	}
	wg.Wait()

	require.EqualValues(t, n, m.Size())
	for i := int32(0); i < n; i++ {
		v, ok := m.Find(i)
		require.True(t, ok)
		require.Equal(t, i*2, v)
	}
}
