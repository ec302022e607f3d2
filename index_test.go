package blockframe

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndex_GetLoc(t *testing.T) {
	ix := NewIndex([]string{"a", "b", "c"})

	got, err := ix.GetLoc("b")
	require.NoError(t, err)
	assert.Equal(t, 1, got)

	// Second lookup is served from the cache.
	got, err = ix.GetLoc("b")
	require.NoError(t, err)
	assert.Equal(t, 1, got)

	_, err = ix.GetLoc("z")
	assert.ErrorIs(t, err, ErrLabelNotFound)
}

func TestIndex_DerivedInheritCacheSize(t *testing.T) {
	ix := newIndexSized([]string{"a", "b", "c"}, 128)

	derived := map[string]*Index{
		"rename":    ix.Rename(strings.ToUpper),
		"with-name": ix.WithName("x"),
		"slice":     ix.Slice(0, 2),
		"take":      ix.Take([]int{2, 0}),
	}
	for op, out := range derived {
		assert.Equal(t, 128, out.cacheSize, op)
		require.NotNil(t, out.locs, op)
	}

	// The derived cache resolves the derived labels, not the source's.
	got, err := derived["rename"].GetLoc("B")
	require.NoError(t, err)
	assert.Equal(t, 1, got)
}

func TestIndex_RangeIndex(t *testing.T) {
	ix := RangeIndex(3)
	assert.Equal(t, []string{"0", "1", "2"}, ix.Labels())

	got, err := ix.GetLoc("2")
	require.NoError(t, err)
	assert.Equal(t, 2, got)
}
