package container

import (
	"math/rand"
	"testing"

	"github.com/mklarqvist/tachyon-sub001/format"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFinalizeSmallContainerSkipsCompression(t *testing.T) {
	c := New(false, 1)
	require.NoError(t, c.PushInt(1, 4))
	c.PushStride(1)
	require.NoError(t, c.Update())
	require.NoError(t, c.Finalize(format.CompressionZstd))
	assert.Equal(t, format.CompressionNone, c.Header.Codec)
}

func TestFinalizeCompressesCompressibleData(t *testing.T) {
	c := New(false, 1)
	for i := 0; i < 2000; i++ {
		require.NoError(t, c.PushInt(42, 4))
		c.PushStride(1)
	}
	require.NoError(t, c.Update())
	// The uniform path already collapses to one window; force a
	// non-uniform-but-compressible stream instead to exercise the zstd path.
	c.Header.Uniform = false
	c.dataUncompressed = make([]byte, 8000)
	for i := range c.dataUncompressed {
		c.dataUncompressed[i] = byte(i % 3)
	}
	require.NoError(t, c.Finalize(format.CompressionZstd))
	assert.Equal(t, format.CompressionZstd, c.Header.Codec)
	assert.Less(t, len(c.CompressedData()), len(c.dataUncompressed))
}

func TestFinalizeFallsBackWhenIncompressible(t *testing.T) {
	c := New(false, 1)
	c.Header.PrimitiveType = format.TypeChar
	c.Header.Stride = 1
	c.nEntries = 200
	rng := rand.New(rand.NewSource(1))
	raw := make([]byte, 2000)
	rng.Read(raw)
	c.dataUncompressed = raw
	c.Header.UncompressedLen = uint32(len(raw))
	require.NoError(t, c.Finalize(format.CompressionZstd))
	// Random bytes should not compress past the 1.05 fold; fall back.
	assert.Equal(t, format.CompressionNone, c.Header.Codec)
	assert.Equal(t, raw, c.CompressedData())
}
