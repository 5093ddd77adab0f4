package genotype

import (
	"encoding/binary"
	"fmt"

	"github.com/mklarqvist/tachyon-sub001/tachyonerr"
)

func readUint(buf []byte, width int) uint64 {
	switch width {
	case 1:
		return uint64(buf[0])
	case 2:
		return uint64(binary.LittleEndian.Uint16(buf))
	case 4:
		return uint64(binary.LittleEndian.Uint32(buf))
	default:
		return binary.LittleEndian.Uint64(buf)
	}
}

// unpackKey reverses packKey, returning the still-remapped allele codes.
func unpackKey(key uint64, shift, add int) (a, b int32, phased bool) {
	mask := uint64(1)<<uint(shift) - 1
	a = int32((key >> uint(shift+add)) & mask)
	b = int32((key >> uint(add)) & mask)
	if add != 0 {
		phased = key&1 == 1
	}

	return a, b, phased
}

// DecodeDiploidBiallelic reverses EncodeDiploidBiallelic, expanding RLE
// entries back into one Call per sample, in the order they were encoded
// (permuted if the assessment chose permutation; callers restore the
// original sample order via the block's PPA array).
func DecodeDiploidBiallelic(entries []byte, a Assessment, nSamples int) ([]Call, error) {
	return decodeDiploid(entries, a, nSamples, func(v int32) int32 {
		if v == 2 {
			return AlleleMissing
		}

		return v
	})
}

// DecodeDiploidMultiAllelic reverses EncodeDiploidMultiAllelic.
func DecodeDiploidMultiAllelic(entries []byte, a Assessment, nSamples int) ([]Call, error) {
	return decodeDiploid(entries, a, nSamples, func(v int32) int32 {
		switch v {
		case 0:
			return AlleleMissing
		case 1:
			return AlleleEOV
		default:
			return v - 2
		}
	})
}

func decodeDiploid(entries []byte, a Assessment, nSamples int, unmap func(int32) int32) ([]Call, error) {
	reserved := uint(2*a.Shift + a.Add)
	calls := make([]Call, 0, nSamples)

	for off := 0; off < len(entries); off += a.Width {
		if off+a.Width > len(entries) {
			return nil, fmt.Errorf("%w: truncated genotype run entry", tachyonerr.ErrInvalidFormat)
		}
		entry := readUint(entries[off:off+a.Width], a.Width)
		runLen := entry >> reserved
		key := entry & (uint64(1)<<reserved - 1)
		av, bv, phased := unpackKey(key, a.Shift, a.Add)
		av, bv = unmap(av), unmap(bv)

		for i := uint64(0); i < runLen && len(calls) < nSamples; i++ {
			calls = append(calls, Call{Alleles: []int32{av, bv}, Phased: phased})
		}
	}

	if len(calls) != nSamples {
		return nil, fmt.Errorf("%w: genotype run entries produced %d calls, want %d", tachyonerr.ErrInvalidFormat, len(calls), nSamples)
	}

	return calls, nil
}

// DecodeMultiploid reverses EncodeMultiploid.
func DecodeMultiploid(entries []byte, a Assessment, nSamples, basePloidy int) ([]Call, error) {
	calls := make([]Call, 0, nSamples)
	stride := a.Width + basePloidy

	for off := 0; off < len(entries); off += stride {
		if off+stride > len(entries) {
			return nil, fmt.Errorf("%w: truncated multiploid run entry", tachyonerr.ErrInvalidFormat)
		}
		runLen := readUint(entries[off:off+a.Width], a.Width)
		alleleBytes := entries[off+a.Width : off+stride]

		alleles := make([]int32, basePloidy)
		for i, bv := range alleleBytes {
			switch bv {
			case multiploidMissing:
				alleles[i] = AlleleMissing
			case multiploidEOV:
				alleles[i] = AlleleEOV
			default:
				alleles[i] = int32(bv)
			}
		}

		for i := uint64(0); i < runLen && len(calls) < nSamples; i++ {
			dup := make([]int32, basePloidy)
			copy(dup, alleles)
			calls = append(calls, Call{Alleles: dup})
		}
	}

	if len(calls) != nSamples {
		return nil, fmt.Errorf("%w: multiploid run entries produced %d calls, want %d", tachyonerr.ErrInvalidFormat, len(calls), nSamples)
	}

	return calls, nil
}

// Unpermute reverses the sample reordering Encode applied: given calls in
// permuted order and the perm array used, returns calls in original sample
// order.
func Unpermute(ordered []Call, perm []uint32) []Call {
	if perm == nil {
		return ordered
	}
	out := make([]Call, len(ordered))
	for newPos, oldPos := range perm {
		if int(oldPos) < len(out) && newPos < len(ordered) {
			out[oldPos] = ordered[newPos]
		}
	}

	return out
}
