// Package permutation implements the §4.3.7 sample-permutation radix sort:
// a per-block PPA (permutation array) builder that groups samples sharing
// identical genotype patterns across a block's sites, amplifying the
// run-length compressibility of the genotype package's RLE encodings.
package permutation

import (
	"encoding/binary"
	"sort"

	"github.com/mklarqvist/tachyon-sub001/container"
	"github.com/mklarqvist/tachyon-sub001/genotype"
	"github.com/mklarqvist/tachyon-sub001/hash"
)

// Builder accumulates one block's worth of sites and produces the final PPA.
type Builder struct {
	nSamples int
	perm     []uint32
}

// NewBuilder creates a builder seeded with the identity permutation.
func NewBuilder(nSamples int) *Builder {
	perm := make([]uint32, nSamples)
	for i := range perm {
		perm[i] = uint32(i)
	}

	return &Builder{nSamples: nSamples, perm: perm}
}

// Perm returns the current permutation array (identity until Fold is called).
func (b *Builder) Perm() []uint32 {
	out := make([]uint32, len(b.perm))
	copy(out, b.perm)

	return out
}

type bin struct {
	sortedKey uint64
	fits      bool
	samples   []uint32
}

// Fold processes one site's calls (already given in the builder's current
// permuted order, i.e. calls[i] belongs to sample b.perm[i]) and updates the
// permutation per §4.3.7: bin samples by tuple hash, sort bins by packed
// sorted_key, concatenate.
//
// maxAlleles is the site's allele-remap ceiling (missing -> maxAlleles-1,
// EOV -> maxAlleles); shiftBits is the number of bits reserved per allele in
// the sorted_key packing (callers pick ceil(log2(maxAlleles+1))).
func (b *Builder) Fold(calls []genotype.Call, maxAlleles, shiftBits int) {
	if len(calls) != b.nSamples {
		return
	}

	bins := make(map[uint64]*bin)
	order := make([]uint64, 0, b.nSamples)

	for i, c := range calls {
		key, fits := packSortedKey(c, maxAlleles, shiftBits)
		h := tupleHash(c)
		bn, ok := bins[h]
		if !ok {
			bn = &bin{sortedKey: key, fits: fits}
			bins[h] = bn
			order = append(order, h)
		}
		bn.samples = append(bn.samples, b.perm[i])
	}

	sort.SliceStable(order, func(i, j int) bool {
		bi, bj := bins[order[i]], bins[order[j]]
		if bi.fits != bj.fits {
			// Tuples that didn't fit in the packed key fall back to hash
			// order; keep them after the ones with a meaningful sorted_key.
			return bi.fits
		}
		if !bi.fits {
			return order[i] < order[j]
		}

		return bi.sortedKey < bj.sortedKey
	})

	next := make([]uint32, 0, b.nSamples)
	for _, h := range order {
		next = append(next, bins[h].samples...)
	}
	b.perm = next
}

// packSortedKey packs a call's alleles into a single integer, shiftBits per
// allele, remapping missing -> maxAlleles-1 and EOV -> maxAlleles. Returns
// fits=false when the tuple does not fit in 64 bits, in which case callers
// fall back to hash order only.
func packSortedKey(c genotype.Call, maxAlleles, shiftBits int) (uint64, bool) {
	needed := shiftBits * len(c.Alleles)
	if needed > 64 || shiftBits <= 0 {
		return 0, false
	}

	var key uint64
	for _, a := range c.Alleles {
		remapped := remapAllele(a, maxAlleles)
		key = (key << uint(shiftBits)) | uint64(remapped)
	}

	return key, true
}

func remapAllele(a int32, maxAlleles int) uint32 {
	switch a {
	case genotype.AlleleMissing:
		return uint32(maxAlleles - 1)
	case genotype.AlleleEOV:
		return uint32(maxAlleles)
	default:
		return uint32(a)
	}
}

// SerializePPA encodes perm as little-endian uint32s and applies the §4.2
// bit-transposition preprocessor used on the PPA invariant column before
// Zstandard compression.
func SerializePPA(perm []uint32) []byte {
	raw := make([]byte, 4*len(perm))
	for i, v := range perm {
		binary.LittleEndian.PutUint32(raw[i*4:], v)
	}

	return container.BitTranspose(raw)
}

// DeserializePPA reverses SerializePPA.
func DeserializePPA(transposed []byte, nSamples int) []uint32 {
	raw := container.BitUntranspose(transposed, 4*nSamples)
	perm := make([]uint32, nSamples)
	for i := range perm {
		perm[i] = binary.LittleEndian.Uint32(raw[i*4:])
	}

	return perm
}

func tupleHash(c genotype.Call) uint64 {
	ids := make([]uint64, len(c.Alleles)+1)
	for i, a := range c.Alleles {
		ids[i] = uint64(uint32(a))
	}
	if c.Phased {
		ids[len(c.Alleles)] = 1
	}

	return hash.Uint64s(ids)
}
