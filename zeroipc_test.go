package zeroipc_test

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zeroipc/zeroipc"
	"github.com/zeroipc/zeroipc/codata"
)

func tempName(t *testing.T) string {
	t.Helper()
	return fmt.Sprintf("/zeroipc-facade-test-%d-%d", rand.Int63(), rand.Int63())
}

func TestNewOpenRoundTrip(t *testing.T) {
	name := tempName(t)
	cfg := zeroipc.DefaultConfig(name)
	cfg.Size = 1 << 20
	cfg.MaxEntries = 16

	m, err := zeroipc.New(cfg)
	require.NoError(t, err)
	defer func() {
		m.Close()
		zeroipc.Unlink(name)
	}()

	snap := m.Config().GetSnapshot()
	require.Equal(t, name, snap["name"])

	m2, err := zeroipc.Open(name)
	require.NoError(t, err)
	defer m2.Close()
	require.EqualValues(t, 0, m2.Table().Count())
}

func TestNewRejectsNilConfig(t *testing.T) {
	_, err := zeroipc.New(nil)
	require.Error(t, err)
}

func TestFacadeComposesContainersAndCodata(t *testing.T) {
	name := tempName(t)
	cfg := zeroipc.DefaultConfig(name)
	cfg.Size = 1 << 20
	cfg.MaxEntries = 16
	m, err := zeroipc.New(cfg)
	require.NoError(t, err)
	defer func() {
		m.Close()
		zeroipc.Unlink(name)
	}()

	q, err := zeroipc.CreateQueue[int](m, "q", 4)
	require.NoError(t, err)
	require.NoError(t, q.Push(1))
	v, err := q.Pop()
	require.NoError(t, err)
	require.Equal(t, 1, v)

	f, err := zeroipc.CreateFuture[int64](m, "f")
	require.NoError(t, err)
	require.True(t, f.SetValue(42))
	fv, err := f.Get()
	require.NoError(t, err)
	require.EqualValues(t, 42, fv)

	l, err := zeroipc.CreateLazy[int32](m, "l", codata.OpAdd, 2, 3)
	require.NoError(t, err)
	lv, err := l.Force()
	require.NoError(t, err)
	require.EqualValues(t, 5, lv)
}

func TestFacadeDebugProbeReportsTableCount(t *testing.T) {
	name := tempName(t)
	cfg := zeroipc.DefaultConfig(name)
	cfg.Size = 1 << 20
	cfg.MaxEntries = 16
	cfg.EnableDebug = true
	m, err := zeroipc.New(cfg)
	require.NoError(t, err)
	defer func() {
		m.Close()
		zeroipc.Unlink(name)
	}()

	_, err = zeroipc.CreateStack[int](m, "s", 4)
	require.NoError(t, err)

	dump := m.Debug().DumpState()
	require.EqualValues(t, 1, dump["table.count"])
}
