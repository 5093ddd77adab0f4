package permutation

import (
	"testing"

	"github.com/mklarqvist/tachyon-sub001/genotype"
	"github.com/stretchr/testify/assert"
)

func TestNewBuilderIdentity(t *testing.T) {
	b := NewBuilder(4)
	assert.Equal(t, []uint32{0, 1, 2, 3}, b.Perm())
}

func TestFoldGroupsIdenticalPatterns(t *testing.T) {
	b := NewBuilder(4)
	calls := []genotype.Call{
		{Alleles: []int32{1, 1}},
		{Alleles: []int32{0, 0}},
		{Alleles: []int32{1, 1}},
		{Alleles: []int32{0, 0}},
	}
	b.Fold(calls, 3, 2)
	perm := b.Perm()

	// samples 1 and 3 (allele 0/0) must be adjacent in the resulting perm,
	// as must samples 0 and 2 (allele 1/1).
	pos := map[uint32]int{}
	for i, s := range perm {
		pos[s] = i
	}
	assert.Equal(t, 1, abs(pos[1]-pos[3]))
	assert.Equal(t, 1, abs(pos[0]-pos[2]))
}

func TestPackSortedKeyOverflowFallsBack(t *testing.T) {
	c := genotype.Call{Alleles: make([]int32, 40)}
	_, fits := packSortedKey(c, 3, 32)
	assert.False(t, fits)
}

func TestSerializePPARoundTrip(t *testing.T) {
	perm := []uint32{3, 1, 0, 2, 5, 4}
	transposed := SerializePPA(perm)
	back := DeserializePPA(transposed, len(perm))
	assert.Equal(t, perm, back)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}

	return v
}
