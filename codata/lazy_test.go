package codata_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zeroipc/zeroipc/api"
	"github.com/zeroipc/zeroipc/codata"
)

func TestLazyConstantForce(t *testing.T) {
	tb, cleanup := newTable(t)
	defer cleanup()

	l, err := codata.CreateLazy[int64](tb, "l", codata.OpConstant, 7, 0)
	require.NoError(t, err)

	v, err := l.Force()
	require.NoError(t, err)
	require.EqualValues(t, 7, v)
	require.EqualValues(t, 1, l.ComputeCount())

	v, err = l.Force()
	require.NoError(t, err)
	require.EqualValues(t, 7, v)
	require.EqualValues(t, 1, l.ComputeCount(), "memoized, should not recompute")
}

func TestLazyArithmeticOps(t *testing.T) {
	tb, cleanup := newTable(t)
	defer cleanup()

	add, err := codata.CreateLazy[int32](tb, "add", codata.OpAdd, 3, 4)
	require.NoError(t, err)
	v, err := add.Force()
	require.NoError(t, err)
	require.EqualValues(t, 7, v)

	mul, err := codata.CreateLazy[int32](tb, "mul", codata.OpMultiply, 3, 4)
	require.NoError(t, err)
	v, err = mul.Force()
	require.NoError(t, err)
	require.EqualValues(t, 12, v)

	neg, err := codata.CreateLazy[int32](tb, "neg", codata.OpNegate, 5, 0)
	require.NoError(t, err)
	v, err = neg.Force()
	require.NoError(t, err)
	require.EqualValues(t, -5, v)
}

func TestLazyBoolOps(t *testing.T) {
	tb, cleanup := newTable(t)
	defer cleanup()

	and, err := codata.CreateLazy[bool](tb, "and", codata.OpAnd, true, false)
	require.NoError(t, err)
	v, err := and.Force()
	require.NoError(t, err)
	require.False(t, v)

	not, err := codata.CreateLazy[bool](tb, "not", codata.OpNot, true, false)
	require.NoError(t, err)
	v, err = not.Force()
	require.NoError(t, err)
	require.False(t, v)
}

func TestLazyExternalOpAlwaysFails(t *testing.T) {
	tb, cleanup := newTable(t)
	defer cleanup()

	l, err := codata.CreateLazy[int64](tb, "ext", codata.OpExternal, 1, 2)
	require.NoError(t, err)

	_, err = l.Force()
	require.ErrorIs(t, err, api.ErrNotSupported)
}

func TestLazyNonArithmeticTypeRejected(t *testing.T) {
	tb, cleanup := newTable(t)
	defer cleanup()

	type point struct{ x, y int32 }
	l, err := codata.CreateLazy[point](tb, "pt", codata.OpAdd, point{1, 2}, point{3, 4})
	require.NoError(t, err)

	_, err = l.Force()
	require.ErrorIs(t, err, api.ErrNotSupported)
}

func TestLazyResetRecomputes(t *testing.T) {
	tb, cleanup := newTable(t)
	defer cleanup()

	l, err := codata.CreateLazy[int32](tb, "l", codata.OpAdd, 1, 1)
	require.NoError(t, err)

	_, err = l.Force()
	require.NoError(t, err)
	require.EqualValues(t, 1, l.ComputeCount())

	l.Reset()
	_, err = l.Force()
	require.NoError(t, err)
	require.EqualValues(t, 2, l.ComputeCount())
}

func TestLazyOpenRoundTrip(t *testing.T) {
	tb, cleanup := newTable(t)
	defer cleanup()

	l, err := codata.CreateLazy[int32](tb, "l", codata.OpAdd, 10, 20)
	require.NoError(t, err)
	_, err = l.Force()
	require.NoError(t, err)

	l2, err := codata.OpenLazy[int32](tb, "l")
	require.NoError(t, err)
	v, err := l2.Force()
	require.NoError(t, err)
	require.EqualValues(t, 30, v)
}
