package arena

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap_SmallComesFromHeap(t *testing.T) {
	r, err := Map(100)
	require.NoError(t, err)
	assert.Len(t, r.Bytes(), 100)
	assert.False(t, r.Mapped())
}

func TestMap_LargeSlabWritable(t *testing.T) {
	r, err := Map(SlabThreshold)
	require.NoError(t, err)
	b := r.Bytes()
	require.GreaterOrEqual(t, len(b), SlabThreshold)

	b[0] = 0xAA
	b[len(b)-1] = 0x55
	assert.Equal(t, byte(0xAA), b[0])
	assert.Equal(t, byte(0x55), b[len(b)-1])
}

func TestMap_SlabZeroFilled(t *testing.T) {
	r, err := Map(SlabThreshold)
	require.NoError(t, err)
	for _, c := range r.Bytes()[:1024] {
		require.Equal(t, byte(0), c)
	}
}
