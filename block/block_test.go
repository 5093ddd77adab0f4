package block

import (
	"testing"

	"github.com/mklarqvist/tachyon-sub001/format"
	"github.com/mklarqvist/tachyon-sub001/section"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBlockHasAllInvariantColumns(t *testing.T) {
	b := New(0)
	for i := 0; i < section.NumInvariantColumns; i++ {
		assert.NotNil(t, b.Base(section.InvariantColumn(i)))
		assert.True(t, b.Base(section.InvariantColumn(i)).IsEmpty())
	}
}

func TestInfoColumnAllocatesAndRegistersStream(t *testing.T) {
	b := New(0)
	c := b.InfoColumn(42)
	assert.NotNil(t, c)
	assert.Equal(t, []int32{42}, b.InfoColumns())

	// re-fetching the same global id returns the same container.
	c2 := b.InfoColumn(42)
	assert.Same(t, c, c2)
}

func TestFinalizeAndSerializeRoundTrip(t *testing.T) {
	b := New(3)
	require.NoError(t, b.Base(section.ColPosition).PushInt(1000, 4))
	b.Base(section.ColPosition).PushStride(1)
	require.NoError(t, b.Base(section.ColPosition).PushInt(1010, 4))
	b.Base(section.ColPosition).PushStride(1)

	info := b.InfoColumn(7)
	require.NoError(t, info.PushInt(30, 4))
	info.PushStride(1)
	require.NoError(t, info.PushInt(42, 4))
	info.PushStride(1)
	b.Footer.InfoPatterns.AddPattern([]int32{7})

	require.NoError(t, b.Finalize(format.CompressionZstd))
	assert.NotZero(t, b.Header.BlockHash)

	data, err := b.Bytes()
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	h, body, f, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, b.Header.BlockHash, h.BlockHash)
	assert.Equal(t, int32(3), h.ContigID)
	assert.NotEmpty(t, body)
	assert.Equal(t, []int32{7}, f.Info.GlobalIDs())
	assert.Equal(t, 1, f.InfoPatterns.Len())
}

func TestReadContainersRecoversHeadersAndData(t *testing.T) {
	b := New(1)
	require.NoError(t, b.Base(section.ColPosition).PushInt(500, 4))
	b.Base(section.ColPosition).PushStride(1)

	info := b.InfoColumn(11)
	require.NoError(t, info.PushInt(99, 4))
	info.PushStride(1)
	b.Footer.InfoPatterns.AddPattern([]int32{11})

	require.NoError(t, b.Finalize(format.CompressionZstd))
	data, err := b.Bytes()
	require.NoError(t, err)

	_, body, f, err := Parse(data)
	require.NoError(t, err)

	base, infoPayloads, formatPayloads, err := ReadContainers(body, len(f.Info.GlobalIDs()), len(f.Format.GlobalIDs()))
	require.NoError(t, err)
	assert.Equal(t, section.NumInvariantColumns, len(base))
	require.Len(t, infoPayloads, 1)
	assert.Empty(t, formatPayloads)
	assert.NotZero(t, infoPayloads[0].Header.UncompressedLen)
}

func TestFinalizeSkipsEmptyContainers(t *testing.T) {
	b := New(0)
	require.NoError(t, b.Finalize(format.CompressionZstd))
	data, err := b.Bytes()
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}
