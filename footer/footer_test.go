package footer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddStreamDedupes(t *testing.T) {
	d := NewStreamDict()
	assert.Equal(t, 0, d.AddStream(100))
	assert.Equal(t, 1, d.AddStream(200))
	assert.Equal(t, 0, d.AddStream(100))
	assert.Equal(t, 2, d.Len())
}

func TestAddPatternDedupesByHash(t *testing.T) {
	d := NewStreamDict()
	d.AddStream(1)
	d.AddStream(2)
	pt := NewPatternTable(d)

	id1 := pt.AddPattern([]int32{1, 2})
	id2 := pt.AddPattern([]int32{1, 2})
	id3 := pt.AddPattern([]int32{2, 1})
	assert.Equal(t, id1, id2)
	assert.NotEqual(t, id1, id3)
	assert.Equal(t, 2, pt.Len())
}

func TestPatternBitvectorPopCountMatchesIDCount(t *testing.T) {
	d := NewStreamDict()
	d.AddStream(10)
	d.AddStream(20)
	d.AddStream(30)
	pt := NewPatternTable(d)
	pt.AddPattern([]int32{10, 30})

	p := pt.Patterns()[0]
	assert.Equal(t, len(p.GlobalIDs), p.PopCount())
}

func TestFooterBytesRoundTrip(t *testing.T) {
	f := New()
	f.Info.AddStream(1)
	f.Info.AddStream(2)
	f.InfoPatterns.AddPattern([]int32{1, 2})
	f.Format.AddStream(5)
	f.FormatPatterns.AddPattern([]int32{5})
	f.Filter.AddStream(9)
	f.FilterPatterns.AddPattern([]int32{9})

	data := f.Bytes()
	parsed, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, f.Info.GlobalIDs(), parsed.Info.GlobalIDs())
	assert.Equal(t, f.Format.GlobalIDs(), parsed.Format.GlobalIDs())
	assert.Equal(t, f.Filter.GlobalIDs(), parsed.Filter.GlobalIDs())
	assert.Equal(t, f.InfoPatterns.Patterns(), parsed.InfoPatterns.Patterns())
}
