package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestControllerPackRoundTrip(t *testing.T) {
	c := Controller{
		Biallelic:        true,
		Diploid:          true,
		HasMissing:       true,
		MixedPhasing:     false,
		UniformPhase:     true,
		MixedPloidy:      false,
		GTAvailable:      true,
		AllSNV:           true,
		AllelesPacked:    false,
		GTEncoding:       GTEncodingMultiAllelic,
		GTPrimitiveWidth: 4,
	}
	packed := c.Pack()
	got := UnpackController(packed)
	assert.Equal(t, c, got)
}

func TestControllerPackAllWidths(t *testing.T) {
	for _, w := range []int{1, 2, 4, 8} {
		c := Controller{GTPrimitiveWidth: w}
		got := UnpackController(c.Pack())
		assert.Equal(t, w, got.GTPrimitiveWidth)
	}
}

func TestControllerFitsInUint16(t *testing.T) {
	c := Controller{
		Biallelic: true, Diploid: true, HasMissing: true, MixedPhasing: true,
		UniformPhase: true, MixedPloidy: true, GTAvailable: true, AllSNV: true,
		AllelesPacked: true, GTEncoding: GTEncodingMultiploid, GTPrimitiveWidth: 8,
	}
	packed := c.Pack()
	got := UnpackController(packed)
	assert.Equal(t, c, got)
}
