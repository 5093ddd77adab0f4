package genotype

import (
	"fmt"
	"math/bits"

	"github.com/mklarqvist/tachyon-sub001/hash"
	"github.com/mklarqvist/tachyon-sub001/tachyonerr"
)

// Method identifies which of the three RLE variants was chosen.
type Method int

const (
	MethodDiploidBiallelic Method = iota
	MethodDiploidMultiAllelic
	MethodMultiploid
)

// widths enumerates the four candidate word widths in bytes, smallest
// first, matching §4.3.2's W in {u8,u16,u32,u64}.
var widths = [4]int{1, 2, 4, 8}

// Assessment is the outcome of one cost assessment: the cheapest
// (width, permuted) pair found, plus the run count that width/order
// combination would produce (§4.3.3 "yon_gt_assess").
type Assessment struct {
	Method   Method
	Width    int
	Permuted bool
	NRuns    uint64
	Cost     uint64

	// Shift/Add are carried forward so the encoder does not need to
	// recompute them from the summary.
	Shift int
	Add   int
}

const banned = ^uint64(0)

// runLimitDiploid computes L_w = 2^(8*w - (2*shift+add)) - 1, the run-length
// limit of §4.3.3; returns banned if the reserved bits leave no room for a
// run-length field.
func runLimitDiploid(widthBytes, shift, add int) uint64 {
	reserved := 2*shift + add
	bitsAvail := 8*widthBytes - reserved
	if bitsAvail <= 0 {
		return banned
	}
	if bitsAvail >= 64 {
		return ^uint64(0)
	}

	return (uint64(1) << uint(bitsAvail)) - 1
}

// packKey packs one diploid call into the §4.3.3 key:
// (allele_a << (shift+add)) | (allele_b << add) | (phase & add).
func packKey(a, b int32, phased bool, shift, add int) uint64 {
	phaseBit := uint64(0)
	if phased && add != 0 {
		phaseBit = 1
	}

	return (uint64(uint32(a)) << uint(shift+add)) | (uint64(uint32(b)) << uint(add)) | phaseBit
}

// buildDiploidKeys builds the per-sample packed key sequence in both
// permuted and unpermuted order for one site, given an allele remap
// function (identity for biallelic; missing->0, EOV->1, allele->allele+2
// for multi-allelic per §4.3.4).
func buildDiploidKeys(calls []Call, perm []uint32, shift, add int, remap func(int32) int32) (permuted, unpermuted []uint64) {
	unpermuted = make([]uint64, len(calls))
	for i, c := range calls {
		a, b := alleleAt(c, 0), alleleAt(c, 1)
		unpermuted[i] = packKey(remap(a), remap(b), c.Phased, shift, add)
	}

	if perm == nil {
		return unpermuted, unpermuted
	}

	permuted = make([]uint64, len(calls))
	for newPos, oldPos := range perm {
		if int(oldPos) < len(unpermuted) {
			permuted[newPos] = unpermuted[oldPos]
		}
	}

	return permuted, unpermuted
}

func alleleAt(c Call, idx int) int32 {
	if idx >= len(c.Alleles) {
		return AlleleEOV
	}

	return c.Alleles[idx]
}

// countRuns counts RLE runs over keys, breaking a run when the key changes
// or the run length reaches limit (§4.3.3 "A run breaks when the packed key
// changes OR the current run length equals L_w").
func countRuns(keys []uint64, limit uint64) uint64 {
	if len(keys) == 0 {
		return 0
	}
	var runs uint64 = 1
	runLen := uint64(1)
	for i := 1; i < len(keys); i++ {
		if keys[i] == keys[i-1] && runLen < limit {
			runLen++

			continue
		}
		runs++
		runLen = 1
	}

	return runs
}

func assessCandidates(permKeys, unpermKeys []uint64, limitFn func(width int) uint64) Assessment {
	best := Assessment{Cost: ^uint64(0)}
	for _, w := range widths {
		limit := limitFn(w)
		if limit == banned {
			continue
		}
		for _, permuted := range [2]bool{true, false} {
			keys := unpermKeys
			if permuted {
				keys = permKeys
			}
			runs := countRuns(keys, limit)
			cost := runs * uint64(w)
			if cost < best.Cost {
				best = Assessment{Width: w, Permuted: permuted, NRuns: runs, Cost: cost}
			}
		}
	}

	return best
}

// AssessDiploidBiallelic implements §4.3.3.
func AssessDiploidBiallelic(calls []Call, perm []uint32, summary Summary) Assessment {
	shift := 1
	if summary.NMissing > 0 {
		shift = 2
	}
	add := 0
	if summary.MixedPhasing {
		add = 1
	}

	identity := func(a int32) int32 {
		if a == AlleleMissing {
			return 2
		}

		return a
	}

	permKeys, unpermKeys := buildDiploidKeys(calls, perm, shift, add, identity)
	a := assessCandidates(permKeys, unpermKeys, func(w int) uint64 { return runLimitDiploid(w, shift, add) })
	a.Method = MethodDiploidBiallelic
	a.Shift = shift
	a.Add = add

	return a
}

// AssessDiploidMultiAllelic implements §4.3.4. Returns ErrOverflow if even
// the u64 width cannot hold the packed key (2*shift+add > 64).
func AssessDiploidMultiAllelic(calls []Call, perm []uint32, summary Summary, nAlleles int) (Assessment, error) {
	// shift = ceil(log2(n_alleles + 3)): +3 reserves codes for missing(0),
	// eov(1), and keeps the scheme 0-indexed-safe for the smallest allele.
	shift := bits.Len(uint(nAlleles + 2))
	if shift == 0 {
		shift = 1
	}
	add := 0
	if summary.MixedPhasing {
		add = 1
	}

	if 2*shift+add > 64 {
		return Assessment{}, fmt.Errorf("%w: multi-allelic packed key needs %d bits (n_alleles=%d)",
			tachyonerr.ErrOverflow, 2*shift+add, nAlleles)
	}

	remap := func(a int32) int32 {
		switch a {
		case AlleleMissing:
			return 0
		case AlleleEOV:
			return 1
		default:
			return a + 2
		}
	}

	permKeys, unpermKeys := buildDiploidKeys(calls, perm, shift, add, remap)
	a := assessCandidates(permKeys, unpermKeys, func(w int) uint64 { return runLimitDiploid(w, shift, add) })
	a.Method = MethodDiploidMultiAllelic
	a.Shift = shift
	a.Add = add

	return a, nil
}

// AssessMultiploid implements §4.3.5: each sample's allele tuple is hashed;
// runs break on hash change; the run-length limit is simply max_uint(w)
// since no bits are reserved for packed allele/phase data (those are
// emitted as a separate per-allele byte sequence, see Encode).
func AssessMultiploid(calls []Call, perm []uint32) Assessment {
	unpermHashes := make([]uint64, len(calls))
	for i, c := range calls {
		unpermHashes[i] = hashCall(c)
	}

	permHashes := unpermHashes
	if perm != nil {
		permHashes = make([]uint64, len(calls))
		for newPos, oldPos := range perm {
			if int(oldPos) < len(unpermHashes) {
				permHashes[newPos] = unpermHashes[oldPos]
			}
		}
	}

	a := assessCandidates(permHashes, unpermHashes, func(w int) uint64 {
		if w >= 8 {
			return ^uint64(0)
		}

		return (uint64(1) << uint(8*w)) - 1
	})
	a.Method = MethodMultiploid

	return a
}

func hashCall(c Call) uint64 {
	ids := make([]uint64, len(c.Alleles)+1)
	for i, a := range c.Alleles {
		ids[i] = uint64(uint32(a))
	}
	if c.Phased {
		ids[len(c.Alleles)] = 1
	}

	return hash.Uint64s(ids)
}
