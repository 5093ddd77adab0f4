package container

import (
	"testing"

	"github.com/mklarqvist/tachyon-sub001/format"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushTypeCheck(t *testing.T) {
	c := New(false, 1)
	require.NoError(t, c.PushInt(5, 4))
	require.NoError(t, c.PushInt(-3, 4))
	err := c.PushFloat64(1.5)
	assert.Error(t, err)
}

func TestPushStrideMixedTransition(t *testing.T) {
	c := New(false, 1)
	require.NoError(t, c.PushInt(1, 4))
	c.PushStride(2)
	require.NoError(t, c.PushInt(2, 4))
	c.PushStride(2)
	require.NoError(t, c.PushInt(3, 4))
	c.PushStride(3) // triggers mixed-stride materialization
	assert.True(t, c.Header.MixedStride)
	assert.Equal(t, []uint32{2, 2, 3}, c.strides)
}

func TestUniformityDetection(t *testing.T) {
	c := New(false, 1)
	for i := 0; i < 10; i++ {
		require.NoError(t, c.PushInt(30, 4))
		c.PushStride(1)
	}
	require.NoError(t, c.Update())
	assert.True(t, c.Header.Uniform)
	assert.Equal(t, format.CompressionNone, c.Header.Codec)
	assert.Equal(t, 4, len(c.UncompressedData()))
}

func TestNonUniformNotDetected(t *testing.T) {
	c := New(false, 1)
	for i := 0; i < 10; i++ {
		require.NoError(t, c.PushInt(int64(i), 4))
		c.PushStride(1)
	}
	require.NoError(t, c.Update())
	assert.False(t, c.Header.Uniform)
}

func TestReformatIntUnsigned(t *testing.T) {
	values := []int32{0, 1, 2, 250}
	pt, signed, data := ReformatInt(values)
	assert.Equal(t, format.TypeInt8, pt)
	assert.Equal(t, format.Unsigned, signed)
	assert.Equal(t, []byte{0, 1, 2, 250}, data)
}

func TestReformatIntSignedWithSentinels(t *testing.T) {
	values := []int32{-5, 10, format.Missing, format.EndOfVector}
	pt, signed, data := ReformatInt(values)
	assert.Equal(t, format.TypeInt8, pt)
	assert.Equal(t, format.Signed, signed)
	require.Len(t, data, 4)
	assert.Equal(t, int8(-5), int8(data[0]))
	assert.Equal(t, int8(10), int8(data[1]))
	assert.Equal(t, byte(0x80), data[2])
	assert.Equal(t, byte(0x81), data[3])
}

func TestReformatIntWidthRounding(t *testing.T) {
	// max requires 3 raw bytes of magnitude -> rounds up to 4.
	values := []int32{0, 1 << 20}
	pt, _, _ := ReformatInt(values)
	assert.Equal(t, format.TypeInt32, pt)
}

func TestVarintRoundTrip(t *testing.T) {
	for _, v := range []uint64{0, 1, 127, 128, 300, 1 << 40, ^uint64(0)} {
		buf := EncodeVarint(nil, v)
		got, n := DecodeVarint(buf)
		require.NotZero(t, n)
		assert.Equal(t, v, got)
	}
}

func TestZigZagRoundTrip(t *testing.T) {
	for _, v := range []int64{0, -1, 1, -1000000, 1000000, -1 << 40, 1 << 40} {
		assert.Equal(t, v, ZigZagDecode(ZigZagEncode(v)))
	}
}

func TestDeltaRoundTrip(t *testing.T) {
	values := []int64{100, 105, 110, 110, 90, 5000}
	encoded := EncodeDelta(values)
	decoded, err := DecodeDelta(encoded, len(values))
	require.NoError(t, err)
	assert.Equal(t, values, decoded)
}

func TestBitTransposeRoundTrip(t *testing.T) {
	input := make([]byte, 128)
	for i := range input {
		input[i] = byte(i * 7)
	}
	transposed := BitTranspose(input)
	back := BitUntranspose(transposed, len(input))
	assert.Equal(t, input, back)
}

func TestBitTransposeOddLength(t *testing.T) {
	input := []byte{1, 2, 3, 4, 5}
	transposed := BitTranspose(input)
	back := BitUntranspose(transposed, len(input))
	assert.Equal(t, input, back)
}
