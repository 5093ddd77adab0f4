// Preprocessors applied to a container's uncompressed bytes before the
// Zstandard codec runs: variable-width integers (MSB-continuation scheme),
// zig-zag for signed values, and delta-of-previous for monotone streams
// (§4.1 "Variable-width integer (varint) preprocessor", "Delta preprocessor").
package container

import "github.com/mklarqvist/tachyon-sub001/format"

// EncodeVarint appends the varint encoding of v (unsigned, 7 bits per byte,
// low bits first, high bit set on every non-terminal byte) to dst.
func EncodeVarint(dst []byte, v uint64) []byte {
	for v >= 0x80 {
		dst = append(dst, byte(v)|0x80)
		v >>= 7
	}

	return append(dst, byte(v))
}

// DecodeVarint decodes one varint from the front of src, returning the
// value and the number of bytes consumed. Returns consumed==0 if src does
// not contain a complete varint.
func DecodeVarint(src []byte) (uint64, int) {
	var v uint64
	var shift uint
	for i, b := range src {
		v |= uint64(b&0x7F) << shift
		if b&0x80 == 0 {
			return v, i + 1
		}
		shift += 7
		if shift >= 64 {
			return 0, 0
		}
	}

	return 0, 0
}

// ZigZagEncode maps a signed value to an unsigned one so that small-magnitude
// values (both positive and negative) stay small, per §4.1's
// `zz(x) = (x << 1) ^ (x >> (width-1))`, specialized to 64-bit width here
// (callers pass already-widened int64 values).
func ZigZagEncode(x int64) uint64 {
	return uint64((x << 1) ^ (x >> 63))
}

// ZigZagDecode reverses ZigZagEncode.
func ZigZagDecode(z uint64) int64 {
	return int64(z>>1) ^ -int64(z&1)
}

// EncodeVarintStream varint-encodes every value in values, returning the
// concatenated byte stream.
func EncodeVarintStream(values []int64, zigzag bool) []byte {
	out := make([]byte, 0, len(values)*2)
	for _, v := range values {
		var u uint64
		if zigzag {
			u = ZigZagEncode(v)
		} else {
			u = uint64(v)
		}
		out = EncodeVarint(out, u)
	}

	return out
}

// DecodeVarintStream decodes n values from a varint stream produced by
// EncodeVarintStream.
func DecodeVarintStream(data []byte, n int, zigzag bool) ([]int64, error) {
	out := make([]int64, 0, n)
	off := 0
	for i := 0; i < n; i++ {
		v, consumed := DecodeVarint(data[off:])
		if consumed == 0 {
			return nil, errShortVarint
		}
		off += consumed
		if zigzag {
			out = append(out, ZigZagDecode(v))
		} else {
			out = append(out, int64(v))
		}
	}

	return out, nil
}

// EncodeDelta implements §4.1's delta preprocessor: emits
// zigzag(x[i]-x[i-1]) (x[0] is emitted as zigzag(x[0])) as a varint stream,
// intended for increasing-monotone integer streams such as positions.
func EncodeDelta(values []int64) []byte {
	out := make([]byte, 0, len(values)*2)
	var prev int64
	for i, v := range values {
		var d int64
		if i == 0 {
			d = v
		} else {
			d = v - prev
		}
		prev = v
		out = EncodeVarint(out, ZigZagEncode(d))
	}

	return out
}

// DecodeDelta reverses EncodeDelta.
func DecodeDelta(data []byte, n int) ([]int64, error) {
	out := make([]int64, 0, n)
	off := 0
	var prev int64
	for i := 0; i < n; i++ {
		z, consumed := DecodeVarint(data[off:])
		if consumed == 0 {
			return nil, errShortVarint
		}
		off += consumed
		d := ZigZagDecode(z)
		var v int64
		if i == 0 {
			v = d
		} else {
			v = prev + d
		}
		prev = v
		out = append(out, v)
	}

	return out, nil
}

// TryPreprocess compresses both the plain little-endian int64 bytes and the
// varint (optionally zigzag/delta) preprocessed bytes with compress, and
// keeps the preprocessed result only if its fold over the plain result is at
// least format.MinCompressionFold; otherwise the plain compressed result is
// kept.
//
// compress is the caller's codec-compress function; it returns the
// compressed bytes for arbitrary input.
func TryPreprocess(values []int64, delta bool, zigzag bool, compress func([]byte) ([]byte, error)) (format.Preprocessor, []byte, error) {
	plainBytes := make([]byte, 8*len(values))
	for i, v := range values {
		putIntLE(plainBytes[i*8:(i+1)*8], v, 8)
	}
	plainCompressed, err := compress(plainBytes)
	if err != nil {
		return 0, nil, err
	}

	var pre format.Preprocessor
	var preBytes []byte
	if delta {
		preBytes = EncodeDelta(values)
		pre = format.PreprocessorDelta
	} else {
		preBytes = EncodeVarintStream(values, zigzag)
		pre = format.PreprocessorVarint
		if zigzag {
			pre |= format.PreprocessorZigzag
		}
	}

	preCompressed, err := compress(preBytes)
	if err != nil {
		return 0, nil, err
	}

	if len(preCompressed) == 0 {
		return 0, plainCompressed, nil
	}

	fold := float64(len(plainCompressed)) / float64(len(preCompressed))
	if fold < format.MinCompressionFold {
		return 0, plainCompressed, nil
	}

	return pre, preCompressed, nil
}
