package section

import (
	"encoding/binary"

	"github.com/mklarqvist/tachyon-sub001/tachyonerr"
)

var errShortPattern = tachyonerr.ErrInvalidFormat

// BitvectorPattern records one unique combination of INFO/FORMAT/FILTER
// fields observed among the records of a block (§3, §4.4). GlobalIDs lists
// the fields by file-global dictionary index in insertion order; Bitvector
// has bit k set iff the field whose block-local index is k is present.
type BitvectorPattern struct {
	GlobalIDs []int32
	Bitvector []byte
}

// BitvectorLen returns ceil((nStreams+1)/8), the byte length every pattern's
// bitvector must have for a footer with nStreams local fields.
func BitvectorLen(nStreams int) int {
	return (nStreams + 1 + 7) / 8
}

// NewBitvectorPattern builds the bitvector for globalIDs given the footer's
// global-to-local map, per §4.4 "Finalization constructs the bitvector".
func NewBitvectorPattern(globalIDs []int32, globalToLocal map[int32]int, nStreams int) BitvectorPattern {
	bv := make([]byte, BitvectorLen(nStreams))
	for _, gid := range globalIDs {
		local, ok := globalToLocal[gid]
		if !ok {
			continue
		}
		bv[local/8] |= 1 << uint(local%8)
	}

	return BitvectorPattern{GlobalIDs: append([]int32(nil), globalIDs...), Bitvector: bv}
}

// BitSet reports whether the bit for local index k is set.
func (p BitvectorPattern) BitSet(k int) bool {
	idx := k / 8
	if idx >= len(p.Bitvector) {
		return false
	}

	return p.Bitvector[idx]&(1<<uint(k%8)) != 0
}

// PopCount returns the number of set bits in the pattern's bitvector, which
// must equal len(GlobalIDs) for a well-formed pattern (§8 invariant 4).
func (p BitvectorPattern) PopCount() int {
	n := 0
	for _, b := range p.Bitvector {
		for b != 0 {
			n += int(b & 1)
			b >>= 1
		}
	}

	return n
}

// Bytes serializes the pattern as: n_ids(u32) ids(i32 each) bv_len(u32) bv.
func (p BitvectorPattern) Bytes() []byte {
	out := make([]byte, 4+4*len(p.GlobalIDs)+4+len(p.Bitvector))
	binary.LittleEndian.PutUint32(out[0:4], uint32(len(p.GlobalIDs)))
	off := 4
	for _, id := range p.GlobalIDs {
		binary.LittleEndian.PutUint32(out[off:off+4], uint32(id))
		off += 4
	}
	binary.LittleEndian.PutUint32(out[off:off+4], uint32(len(p.Bitvector)))
	off += 4
	copy(out[off:], p.Bitvector)

	return out
}

// ParseBitvectorPattern parses one pattern from data, returning bytes consumed.
func ParseBitvectorPattern(data []byte) (BitvectorPattern, int, error) {
	if len(data) < 4 {
		return BitvectorPattern{}, 0, errShortPattern
	}
	n := int(binary.LittleEndian.Uint32(data[0:4]))
	off := 4
	if len(data) < off+4*n+4 {
		return BitvectorPattern{}, 0, errShortPattern
	}
	ids := make([]int32, n)
	for i := 0; i < n; i++ {
		ids[i] = int32(binary.LittleEndian.Uint32(data[off : off+4]))
		off += 4
	}
	bvLen := int(binary.LittleEndian.Uint32(data[off : off+4]))
	off += 4
	if len(data) < off+bvLen {
		return BitvectorPattern{}, 0, errShortPattern
	}
	bv := make([]byte, bvLen)
	copy(bv, data[off:off+bvLen])
	off += bvLen

	return BitvectorPattern{GlobalIDs: ids, Bitvector: bv}, off, nil
}
