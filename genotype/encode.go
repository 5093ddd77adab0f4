package genotype

import (
	"encoding/binary"
	"fmt"

	"github.com/mklarqvist/tachyon-sub001/tachyonerr"
)

// multiploidMissing and multiploidEOV are the per-allele byte sentinels used
// by EncodeMultiploid, distinct from the packed-key remap of §4.3.4 since
// here each allele occupies one raw byte rather than a shift-sized field.
const (
	multiploidMissing byte = 0xFE
	multiploidEOV     byte = 0xFF
)

// Encoded is the emitted genotype payload for one site: the run-entry bytes
// destined for the matching GT_* invariant column, plus the run count that
// also gets pushed to GT_SUPPORT.
type Encoded struct {
	Assessment Assessment
	Entries    []byte
	NRuns      uint32
}

// order returns the call order Encode should iterate: perm if the
// assessment chose the permuted candidate, identity otherwise.
func order(calls []Call, perm []uint32, permuted bool) []Call {
	if !permuted || perm == nil {
		return calls
	}

	ordered := make([]Call, len(calls))
	for newPos, oldPos := range perm {
		if int(oldPos) < len(calls) {
			ordered[newPos] = calls[oldPos]
		}
	}

	return ordered
}

// EncodeDiploidBiallelic implements the §4.3.6 emission for
// MethodDiploidBiallelic: each run entry packs
// [run_length : word_bits-(2*shift+add)][allele_a : shift][allele_b : shift][phase : add].
func EncodeDiploidBiallelic(calls []Call, perm []uint32, a Assessment) (Encoded, error) {
	return encodeDiploid(calls, perm, a, func(v int32) int32 {
		if v == AlleleMissing {
			return 2
		}

		return v
	})
}

// EncodeDiploidMultiAllelic implements the §4.3.6 emission for
// MethodDiploidMultiAllelic, using the missing->0, EOV->1, real->allele+2
// remap of §4.3.4.
func EncodeDiploidMultiAllelic(calls []Call, perm []uint32, a Assessment) (Encoded, error) {
	return encodeDiploid(calls, perm, a, func(v int32) int32 {
		switch v {
		case AlleleMissing:
			return 0
		case AlleleEOV:
			return 1
		default:
			return v + 2
		}
	})
}

func encodeDiploid(calls []Call, perm []uint32, a Assessment, remap func(int32) int32) (Encoded, error) {
	widthBits := uint(8 * a.Width)
	reserved := uint(2*a.Shift + a.Add)
	if reserved > widthBits {
		return Encoded{}, fmt.Errorf("%w: reserved bits %d exceed word width %d", tachyonerr.ErrEncoderInvariant, reserved, widthBits)
	}
	limit := runLimitDiploid(a.Width, a.Shift, a.Add)

	ordered := order(calls, perm, a.Permuted)
	var entries []byte
	var nRuns uint32

	flush := func(key uint64, runLen uint64) {
		entry := (runLen << reserved) | key
		entries = appendUint(entries, entry, a.Width)
		nRuns++
	}

	var curKey uint64
	var curLen uint64
	started := false
	for _, c := range ordered {
		av, bv := alleleAt(c, 0), alleleAt(c, 1)
		key := packKey(remap(av), remap(bv), c.Phased, a.Shift, a.Add)
		if !started {
			curKey, curLen, started = key, 1, true

			continue
		}
		if key == curKey && curLen < limit {
			curLen++

			continue
		}
		flush(curKey, curLen)
		curKey, curLen = key, 1
	}
	if started {
		flush(curKey, curLen)
	}

	return Encoded{Assessment: a, Entries: entries, NRuns: nRuns}, nil
}

// EncodeMultiploid implements the §4.3.6 emission for MethodMultiploid:
// each run is a full-width run_length word followed by base_ploidy
// per-allele sentinel-or-value bytes.
func EncodeMultiploid(calls []Call, perm []uint32, a Assessment, basePloidy int) (Encoded, error) {
	ordered := order(calls, perm, a.Permuted)
	limit := (uint64(1) << uint(8*min(a.Width, 8))) - 1
	if a.Width == 8 {
		limit = ^uint64(0)
	}

	var entries []byte
	var nRuns uint32

	flush := func(c Call, runLen uint64) {
		entries = appendUint(entries, runLen, a.Width)
		for i := 0; i < basePloidy; i++ {
			av := alleleAt(c, i)
			switch av {
			case AlleleMissing:
				entries = append(entries, multiploidMissing)
			case AlleleEOV:
				entries = append(entries, multiploidEOV)
			default:
				entries = append(entries, byte(av))
			}
		}
		nRuns++
	}

	var curHash uint64
	var curCall Call
	var curLen uint64
	started := false
	for _, c := range ordered {
		h := hashCall(c)
		if !started {
			curHash, curCall, curLen, started = h, c, 1, true

			continue
		}
		if h == curHash && curLen < limit {
			curLen++

			continue
		}
		flush(curCall, curLen)
		curHash, curCall, curLen = h, c, 1
	}
	if started {
		flush(curCall, curLen)
	}

	return Encoded{Assessment: a, Entries: entries, NRuns: nRuns}, nil
}

func appendUint(buf []byte, v uint64, width int) []byte {
	start := len(buf)
	buf = append(buf, make([]byte, width)...)
	switch width {
	case 1:
		buf[start] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(buf[start:], uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(buf[start:], uint32(v))
	case 8:
		binary.LittleEndian.PutUint64(buf[start:], v)
	}

	return buf
}
