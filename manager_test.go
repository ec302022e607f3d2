package blockframe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blockframe/internal/base"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager([]base.Buffer{
		base.Int64s([]int64{1, 2, 3}),
		base.Int64s([]int64{4, 5, 6}),
		base.Float64s([]float64{0.1, 0.2, 0.3}),
	}, DefaultOptions())
	require.NoError(t, err)
	return m
}

func TestNewManager_OneBlockPerColumn(t *testing.T) {
	m := newTestManager(t)

	assert.Equal(t, 3, m.NumColumns())
	assert.Equal(t, 3, m.NumRows())
	require.NoError(t, m.VerifyIntegrity())

	a, err := m.BlockFor(0)
	require.NoError(t, err)
	b, err := m.BlockFor(1)
	require.NoError(t, err)
	assert.NotSame(t, a, b)
}

func TestNewManager_LengthMismatch(t *testing.T) {
	_, err := NewManager([]base.Buffer{
		base.Int64s([]int64{1, 2, 3}),
		base.Int64s([]int64{4, 5}),
	}, DefaultOptions())
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestNewManager_Empty(t *testing.T) {
	_, err := NewManager(nil, DefaultOptions())
	assert.ErrorIs(t, err, ErrEmptyFrame)
}

func TestManager_DeepCopyIndependent(t *testing.T) {
	m := newTestManager(t)
	m2 := m.Copy(true)

	for col := 0; col < m.NumColumns(); col++ {
		ab, err := m.BufferFor(col)
		require.NoError(t, err)
		bb, err := m2.BufferFor(col)
		require.NoError(t, err)
		assert.False(t, base.SharesMemory(ab, bb), "column %d", col)

		blk, err := m2.BlockFor(col)
		require.NoError(t, err)
		assert.False(t, blk.IsShared())
	}

	require.NoError(t, m2.SetValueAt(0, 0, int64(0)))
	v, err := m.ValueAt(0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)
}

func TestManager_ShallowCopySharesUntilMutation(t *testing.T) {
	m := newTestManager(t)
	m2 := m.Copy(false)

	for col := 0; col < m.NumColumns(); col++ {
		ab, _ := m.BufferFor(col)
		bb, _ := m2.BufferFor(col)
		assert.True(t, base.SharesMemory(ab, bb), "column %d", col)
	}

	// Mutating the copy splits only the touched column's block.
	require.NoError(t, m2.SetValueAt(0, 0, int64(0)))

	a0, _ := m.BufferFor(0)
	b0, _ := m2.BufferFor(0)
	assert.False(t, base.SharesMemory(a0, b0))

	a1, _ := m.BufferFor(1)
	b1, _ := m2.BufferFor(1)
	assert.True(t, base.SharesMemory(a1, b1), "untouched column must stay shared")

	v, err := m.ValueAt(0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v, "source must not observe the write")
}

func TestManager_ShallowCopyOwnsPlacement(t *testing.T) {
	m := newTestManager(t)
	m2 := m.Copy(false)

	a, err := m.BlockFor(0)
	require.NoError(t, err)
	b, err := m2.BlockFor(0)
	require.NoError(t, err)
	assert.NotSame(t, &a.Placement()[0], &b.Placement()[0], "derived block must carry its own placement")
}

func TestManager_MutateSourceAfterSplit(t *testing.T) {
	m := newTestManager(t)
	m2 := m.Copy(false)

	require.NoError(t, m2.SetValueAt(0, 0, int64(0)))

	// The copy detached eagerly, so the source is sole owner again and
	// writes in place without another copy.
	blk, err := m.BlockFor(0)
	require.NoError(t, err)
	assert.False(t, blk.IsShared())

	require.NoError(t, m.SetValueAt(1, 0, int64(22)))
	v, err := m2.ValueAt(1, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)
}

func TestManager_SetValueAtErrors(t *testing.T) {
	m := newTestManager(t)

	assert.ErrorIs(t, m.SetValueAt(0, 7, int64(1)), ErrOutOfBounds)
	assert.ErrorIs(t, m.SetValueAt(9, 0, int64(1)), ErrOutOfBounds)
	assert.ErrorIs(t, m.SetValueAt(0, 0, "wrong"), ErrDtypeMismatch)
}

func TestManager_VerifyIntegrityDetectsCorruptLoc(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.VerifyIntegrity())

	m.locs[0], m.locs[1] = m.locs[1], m.locs[0]
	err := m.VerifyIntegrity()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIntegrity)
}

func TestManager_VerifyIntegrityDetectsRowMismatch(t *testing.T) {
	m := newTestManager(t)
	m.nrows = 5

	assert.ErrorIs(t, m.VerifyIntegrity(), ErrIntegrity)
}

func TestManager_Consolidate(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Consolidate())
	require.NoError(t, m.VerifyIntegrity())

	// Two int columns merge into one block; the float column keeps its own.
	a, _ := m.BlockFor(0)
	b, _ := m.BlockFor(1)
	c, _ := m.BlockFor(2)
	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, 2, a.NumBuffers())

	v, err := m.ValueAt(2, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(6), v)
}

func TestManager_ConsolidateBreaksSharing(t *testing.T) {
	m := newTestManager(t)
	m2 := m.Copy(false)

	require.NoError(t, m.Consolidate())

	// Consolidation materializes, so the shallow copy is sole owner now.
	for col := 0; col < m2.NumColumns(); col++ {
		blk, err := m2.BlockFor(col)
		require.NoError(t, err)
		assert.False(t, blk.IsShared(), "column %d", col)
	}

	v, err := m.ValueAt(0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)
}

func TestManager_ConsolidateNoopWhenConsolidated(t *testing.T) {
	m, err := NewManager([]base.Buffer{
		base.Int64s([]int64{1}),
		base.Float64s([]float64{2}),
	}, DefaultOptions())
	require.NoError(t, err)

	before, _ := m.BlockFor(0)
	require.NoError(t, m.Consolidate())
	after, _ := m.BlockFor(0)
	assert.Same(t, before, after)
}
