package base

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuffer_GetSet(t *testing.T) {
	buf := Int64s([]int64{1, 2, 3})

	assert.Equal(t, 3, buf.Len())
	assert.Equal(t, Int64, buf.Dtype())
	assert.Equal(t, int64(2), buf.Get(1))

	require.NoError(t, buf.Set(1, int64(20)))
	assert.Equal(t, int64(20), buf.Get(1))
}

func TestBuffer_SetDtypeMismatch(t *testing.T) {
	buf := Int64s([]int64{1, 2, 3})

	err := buf.Set(0, "nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDtypeMismatch)
}

func TestBuffer_SetOutOfBounds(t *testing.T) {
	buf := Float64s([]float64{1.5})

	assert.ErrorIs(t, buf.Set(-1, 0.0), ErrOutOfBounds)
	assert.ErrorIs(t, buf.Set(1, 0.0), ErrOutOfBounds)
}

func TestBuffer_CloneIndependent(t *testing.T) {
	buf := Int64s([]int64{1, 2, 3})
	cl := buf.Clone()

	assert.False(t, SharesMemory(buf, cl))

	require.NoError(t, cl.Set(0, int64(99)))
	assert.Equal(t, int64(1), buf.Get(0))
	assert.Equal(t, int64(99), cl.Get(0))
}

func TestBuffer_SliceAliases(t *testing.T) {
	buf := Int64s([]int64{1, 2, 3, 4})
	sl := buf.Slice(1, 3)

	assert.Equal(t, 2, sl.Len())
	assert.Equal(t, int64(2), sl.Get(0))
	assert.True(t, SharesMemory(buf, sl))

	// Writes through the slice are visible in the parent: the buffer layer
	// does not track sharing, blocks do.
	require.NoError(t, sl.Set(0, int64(20)))
	assert.Equal(t, int64(20), buf.Get(1))
}

func TestBuffer_TakeMaterializes(t *testing.T) {
	buf := Int64s([]int64{10, 20, 30})
	tk := buf.Take([]int{2, 0, 2})

	assert.False(t, SharesMemory(buf, tk))
	assert.Equal(t, int64(30), tk.Get(0))
	assert.Equal(t, int64(10), tk.Get(1))
	assert.Equal(t, int64(30), tk.Get(2))
}

func TestBuffer_TakeFill(t *testing.T) {
	ints := Int64s([]int64{1, 2}).Take([]int{0, -1})
	assert.Equal(t, int64(0), ints.Get(1))

	floats := Float64s([]float64{1.5, 2.5}).Take([]int{-1, 1})
	assert.True(t, math.IsNaN(floats.Get(0).(float64)))
	assert.Equal(t, 2.5, floats.Get(1))

	strs := Strings([]string{"x", "y"}).Take([]int{1, -1})
	assert.Equal(t, "y", strs.Get(0))
	assert.Equal(t, "", strs.Get(1))
}

func TestMake_FloatFillsNaN(t *testing.T) {
	buf := Make(Float64, 4)
	for i := 0; i < buf.Len(); i++ {
		assert.True(t, math.IsNaN(buf.Get(i).(float64)), "position %d", i)
	}
}

func TestMake_ArenaBacked(t *testing.T) {
	// Large enough to cross the slab threshold.
	n := 1 << 16
	buf := Make(Int64, n)
	require.Equal(t, n, buf.Len())

	require.NoError(t, buf.Set(0, int64(7)))
	require.NoError(t, buf.Set(n-1, int64(9)))
	assert.Equal(t, int64(7), buf.Get(0))
	assert.Equal(t, int64(9), buf.Get(n-1))

	cl := buf.Clone()
	assert.False(t, SharesMemory(buf, cl))
	assert.Equal(t, int64(7), cl.Get(0))

	sl := buf.Slice(10, 20)
	assert.True(t, SharesMemory(buf, sl))
}

func TestSharesMemory_Empty(t *testing.T) {
	a := Int64s(nil)
	b := Int64s([]int64{1})
	assert.False(t, SharesMemory(a, b))
	assert.False(t, SharesMemory(a, a))
}

func TestSharesMemory_DisjointSlices(t *testing.T) {
	buf := Int64s([]int64{1, 2, 3, 4})
	left := buf.Slice(0, 2)
	right := buf.Slice(2, 4)
	assert.False(t, SharesMemory(left, right))
	assert.True(t, SharesMemory(left, buf))
}

func TestConcat(t *testing.T) {
	a := Int64s([]int64{1, 2})
	b := Int64s([]int64{3})

	out, err := Concat([]Buffer{a, b})
	require.NoError(t, err)
	assert.Equal(t, 3, out.Len())
	assert.Equal(t, int64(3), out.Get(2))
	assert.False(t, SharesMemory(out, a))
	assert.False(t, SharesMemory(out, b))
}

func TestConcat_DtypeMismatch(t *testing.T) {
	_, err := Concat([]Buffer{Int64s([]int64{1}), Float64s([]float64{1})})
	assert.ErrorIs(t, err, ErrDtypeMismatch)
}

func TestConcat_Empty(t *testing.T) {
	_, err := Concat(nil)
	assert.ErrorIs(t, err, ErrEmptyConcat)
}

func TestDtype_String(t *testing.T) {
	assert.Equal(t, "int64", Int64.String())
	assert.Equal(t, "float64", Float64.String())
	assert.Equal(t, "bool", Bool.String())
	assert.Equal(t, "string", String.String())
}
