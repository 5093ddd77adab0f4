package header

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDictionaryAddDedupesByName(t *testing.T) {
	d := NewDictionary(func(e ContigEntry) string { return e.Name })
	idx1, err := d.Add(ContigEntry{Name: "chr1", Length: 1000})
	require.NoError(t, err)
	idx2, err := d.Add(ContigEntry{Name: "chr1", Length: 1000})
	require.NoError(t, err)
	assert.Equal(t, idx1, idx2)
	assert.Equal(t, 1, d.Len())
}

func TestDictionaryFreezeRejectsAdd(t *testing.T) {
	d := NewDictionary(func(e ContigEntry) string { return e.Name })
	d.Freeze()
	_, err := d.Add(ContigEntry{Name: "chr1"})
	assert.Error(t, err)
}

func TestMergeDictionariesRemap(t *testing.T) {
	dst := NewDictionary(func(e ContigEntry) string { return e.Name })
	_, _ = dst.Add(ContigEntry{Name: "chr1"})

	src := NewDictionary(func(e ContigEntry) string { return e.Name })
	_, _ = src.Add(ContigEntry{Name: "chr1"})
	_, _ = src.Add(ContigEntry{Name: "chr2"})

	remap, err := MergeDictionaries(dst, src)
	require.NoError(t, err)
	assert.Equal(t, int32(0), remap.Apply(0))
	assert.Equal(t, int32(1), remap.Apply(1))
	assert.Equal(t, 2, dst.Len())
}

func TestIndexRemapPreservesInvariantSentinel(t *testing.T) {
	remap := IndexRemap{0: 5}
	assert.Equal(t, int32(-1), remap.Apply(-1))
	assert.Equal(t, int32(5), remap.Apply(0))
}

func TestFileHeaderBytesRoundTrip(t *testing.T) {
	h := New(100, Version{1, 0, 0})
	_, err := h.Contigs.Add(ContigEntry{Name: "chr1", Length: 248956422})
	require.NoError(t, err)
	_, err = h.Contigs.Add(ContigEntry{Name: "chr2", Length: 242193529})
	require.NoError(t, err)
	_, err = h.Info.Add(FieldEntry{Name: "DP", Primitive: "Int32", NPerSample: 1})
	require.NoError(t, err)
	_, err = h.Format.Add(FieldEntry{Name: "GT", Primitive: "String", NPerSample: 1})
	require.NoError(t, err)
	_, err = h.Filter.Add(FilterEntry{Name: "PASS"})
	require.NoError(t, err)
	h.Freeze()

	data, err := h.Bytes()
	require.NoError(t, err)

	parsed, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, h.NSamples, parsed.NSamples)
	assert.Equal(t, h.Contigs.Entries(), parsed.Contigs.Entries())
	assert.Equal(t, h.Info.Entries(), parsed.Info.Entries())
	assert.Equal(t, h.Format.Entries(), parsed.Format.Entries())
	assert.Equal(t, h.Filter.Entries(), parsed.Filter.Entries())
}
