package section

import (
	"testing"

	"github.com/mklarqvist/tachyon-sub001/format"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContainerHeaderRoundTrip(t *testing.T) {
	h := &ContainerHeader{
		PrimitiveType: format.TypeInt32,
		Signedness:    format.Signed,
		Stride:        1,
		Codec:         format.CompressionZstd,
		Preprocessor:  format.PreprocessorDelta | format.PreprocessorZigzag,
		Offset:        128,
		CompressedLen: 64,
		UncompressedLen: 256,
		GlobalKey:     -1,
	}
	b := h.Bytes()
	assert.Len(t, b, ContainerHeaderSize)

	parsed, n, err := ParseContainerHeader(b)
	require.NoError(t, err)
	assert.Equal(t, ContainerHeaderSize, n)
	assert.Equal(t, h.PrimitiveType, parsed.PrimitiveType)
	assert.Equal(t, h.Signedness, parsed.Signedness)
	assert.Equal(t, h.Stride, parsed.Stride)
	assert.Equal(t, h.Codec, parsed.Codec)
	assert.Equal(t, h.Preprocessor, parsed.Preprocessor)
	assert.Equal(t, h.Offset, parsed.Offset)
	assert.Equal(t, h.GlobalKey, parsed.GlobalKey)
}

func TestContainerHeaderMixedStride(t *testing.T) {
	h := &ContainerHeader{
		PrimitiveType: format.TypeInt32,
		Stride:        -1,
		MixedStride:   true,
		GlobalKey:     5,
		StrideHeader: &ContainerHeader{
			PrimitiveType: format.TypeInt32,
			Stride:        1,
			GlobalKey:     -1,
		},
	}
	b := h.Bytes()
	assert.Len(t, b, 2*ContainerHeaderSize)

	parsed, n, err := ParseContainerHeader(b)
	require.NoError(t, err)
	assert.Equal(t, 2*ContainerHeaderSize, n)
	require.NotNil(t, parsed.StrideHeader)
	assert.True(t, parsed.MixedStride)
}

func TestContainerHeaderValidateGlobalKeyInvariant(t *testing.T) {
	h := &ContainerHeader{GlobalKey: -1}
	assert.NoError(t, h.Validate(true))
	assert.Error(t, h.Validate(false))

	h2 := &ContainerHeader{GlobalKey: 3}
	assert.NoError(t, h2.Validate(false))
	assert.Error(t, h2.Validate(true))
}

func TestBitvectorPattern(t *testing.T) {
	globalToLocal := map[int32]int{10: 0, 20: 1, 30: 2}
	p := NewBitvectorPattern([]int32{10, 30}, globalToLocal, 3)
	assert.Equal(t, BitvectorLen(3), len(p.Bitvector))
	assert.True(t, p.BitSet(0))
	assert.False(t, p.BitSet(1))
	assert.True(t, p.BitSet(2))
	assert.Equal(t, len(p.GlobalIDs), p.PopCount())

	b := p.Bytes()
	parsed, n, err := ParseBitvectorPattern(b)
	require.NoError(t, err)
	assert.Equal(t, len(b), n)
	assert.Equal(t, p.GlobalIDs, parsed.GlobalIDs)
	assert.Equal(t, p.Bitvector, parsed.Bitvector)
}
