package container

import (
	"encoding/binary"

	"github.com/mklarqvist/tachyon-sub001/format"
)

// sentinelTop returns the two values reserved for MISSING and END_OF_VECTOR
// at a given signed integer width: the two lowest values of the signed
// range (for 8-bit: MISSING -> 0x80, END_OF_VECTOR -> 0x81).
func sentinelTop(width int) (missing, eov int64) {
	switch width {
	case 1:
		return -128, -127 // 0x80, 0x81 as signed int8
	case 2:
		return -32768, -32767
	case 4:
		return -2147483648, -2147483647
	default:
		return -9223372036854775808, -9223372036854775807
	}
}

// roundWidth implements "Width-3 is rounded up to 4; width > 4 is rounded up
// to 8".
func roundWidth(w int) int {
	switch {
	case w <= 1:
		return 1
	case w <= 2:
		return 2
	case w <= 4:
		return 4
	default:
		return 8
	}
}

func bytesForUnsigned(max int64) int {
	switch {
	case max <= 0xFF:
		return 1
	case max <= 0xFFFF:
		return 2
	case max <= 0xFFFFFFFF:
		return 4
	default:
		return 8
	}
}

// bytesForSigned returns the smallest width whose signed range can hold both
// min and max, with the two lowest values of that width's range reserved for
// the MISSING/END_OF_VECTOR sentinels.
func bytesForSigned(min, max int64) int {
	for _, w := range []int{1, 2, 4, 8} {
		lo, hi := signedRange(w)
		// two lowest values reserved for sentinels (see sentinelTop), so the
		// usable range's lower bound is two above the width's true minimum.
		if min >= lo+2 && max <= hi {
			return w
		}
	}

	return 8
}

func signedRange(width int) (min, max int64) {
	switch width {
	case 1:
		return -128, 127
	case 2:
		return -32768, 32767
	case 4:
		return -2147483648, 2147483647
	default:
		return -9223372036854775808, 9223372036854775807
	}
}

// ReformatInt implements §4.1 "Integer reformatting (signed 32 -> smallest
// width)". It scans values for min/max and sentinel presence, decides the
// target width/signedness, remaps sentinels, and returns the new
// PrimitiveType plus the re-encoded little-endian byte buffer.
func ReformatInt(values []int32) (format.PrimitiveType, format.Signedness, []byte) {
	var min, max int64 = 0, 0
	hasMissing, hasEOV := false, false
	seen := false
	for _, v := range values {
		iv := int64(v)
		switch v {
		case format.Missing:
			hasMissing = true

			continue
		case format.EndOfVector:
			hasEOV = true

			continue
		}
		if !seen || iv < min {
			min = iv
		}
		if !seen || iv > max {
			max = iv
		}
		seen = true
	}

	var width int
	var signed format.Signedness
	if min >= 0 && !hasMissing && !hasEOV {
		signed = format.Unsigned
		width = roundWidth(bytesForUnsigned(max))
	} else {
		signed = format.Signed
		width = roundWidth(bytesForSigned(min, max))
	}

	missingTarget, eovTarget := sentinelTop(width)

	out := make([]byte, width*len(values))
	for i, v := range values {
		var tv int64
		switch v {
		case format.Missing:
			tv = missingTarget
		case format.EndOfVector:
			tv = eovTarget
		default:
			tv = int64(v)
		}
		putIntLE(out[i*width:(i+1)*width], tv, width)
	}

	return format.IntTypeForWidth(width), signed, out
}

// ReformatUint implements the identical-shape unsigned reformat used for
// stride sub-streams (§4.1 "Stride reformatting"): unsigned u32 -> smallest
// unsigned width, no sentinel handling.
func ReformatUint(values []uint32) (format.PrimitiveType, []byte) {
	var max uint64
	for _, v := range values {
		if uint64(v) > max {
			max = uint64(v)
		}
	}

	width := roundWidth(bytesForUnsigned(int64(max)))
	out := make([]byte, width*len(values))
	for i, v := range values {
		putIntLE(out[i*width:(i+1)*width], int64(v), width)
	}

	return format.IntTypeForWidth(width), out
}

func putIntLE(b []byte, v int64, width int) {
	switch width {
	case 1:
		b[0] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(b, uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(b, uint32(v))
	default:
		binary.LittleEndian.PutUint64(b, uint64(v))
	}
}
