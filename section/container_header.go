package section

import (
	"encoding/binary"

	"github.com/mklarqvist/tachyon-sub001/format"
	"github.com/mklarqvist/tachyon-sub001/tachyonerr"
)

// ContainerHeader describes one column container: its primitive type,
// stride, codec, encryption, preprocessor set, and the offsets/lengths
// needed to locate and validate its payload (§3 "ContainerHeader").
type ContainerHeader struct {
	PrimitiveType format.PrimitiveType
	Signedness    format.Signedness
	// Stride is the per-entry element count; -1 means mixed (see StrideHeader).
	Stride       int32
	Uniform      bool
	MixedStride  bool
	Codec        format.CompressionType
	Encryption   format.EncryptionType
	Preprocessor format.Preprocessor

	Offset          uint32
	CompressedLen   uint32
	UncompressedLen uint32
	EncryptedLen    uint32
	CRCOrMD5        [16]byte

	// GlobalKey is the dictionary index of this INFO/FORMAT/FILTER field,
	// or -1 for an invariant column. Required invariant (DESIGN.md Open
	// Question 2): GlobalKey >= 0 iff this is a non-invariant column.
	GlobalKey int32

	// StrideHeader describes the parallel stride sub-stream; present iff
	// MixedStride is true.
	StrideHeader *ContainerHeader
}

// Validate enforces the structural invariants of §3's ContainerHeader.
func (h *ContainerHeader) Validate(isInvariantColumn bool) error {
	if isInvariantColumn && h.GlobalKey != -1 {
		return tachyonerr.ErrInvalidFormat
	}

	if !isInvariantColumn && h.GlobalKey < 0 {
		return tachyonerr.ErrInvalidFormat
	}

	if h.MixedStride && h.StrideHeader == nil {
		return tachyonerr.ErrInvalidFormat
	}

	return nil
}

func packController(h *ContainerHeader) uint32 {
	var c uint32
	if h.Signedness == format.Signed {
		c |= 1 << controllerSignednessShift
	}
	if h.MixedStride {
		c |= 1 << controllerMixedStrideShift
	}
	c |= (uint32(h.PrimitiveType) & controllerTypeMask) << controllerTypeShift
	c |= (uint32(h.Codec) & controllerCodecMask) << controllerCodecShift
	if h.Uniform {
		c |= 1 << controllerUniformShift
	}
	c |= (uint32(h.Encryption) & controllerEncryptionMask) << controllerEncryptionShift
	c |= (uint32(h.Preprocessor) & controllerPreprocessorMask) << controllerPreprocessorShift

	return c
}

func unpackController(c uint32, h *ContainerHeader) {
	if c&(1<<controllerSignednessShift) != 0 {
		h.Signedness = format.Signed
	} else {
		h.Signedness = format.Unsigned
	}
	h.MixedStride = c&(1<<controllerMixedStrideShift) != 0
	h.PrimitiveType = format.PrimitiveType((c >> controllerTypeShift) & controllerTypeMask)
	h.Codec = format.CompressionType((c >> controllerCodecShift) & controllerCodecMask)
	h.Uniform = c&(1<<controllerUniformShift) != 0
	h.Encryption = format.EncryptionType((c >> controllerEncryptionShift) & controllerEncryptionMask)
	h.Preprocessor = format.Preprocessor((c >> controllerPreprocessorShift) & controllerPreprocessorMask)
}

// Bytes serializes the header (and its stride sub-header, if any) into
// wire form per §6's "container wire form".
func (h *ContainerHeader) Bytes() []byte {
	size := ContainerHeaderSize
	if h.MixedStride {
		size += ContainerHeaderSize
	}
	b := make([]byte, size)
	h.encodeInto(b[:ContainerHeaderSize])
	if h.MixedStride {
		h.StrideHeader.encodeInto(b[ContainerHeaderSize:])
	}

	return b
}

func (h *ContainerHeader) encodeInto(b []byte) {
	binary.LittleEndian.PutUint32(b[0:4], packController(h))
	binary.LittleEndian.PutUint32(b[4:8], uint32(h.Stride))
	binary.LittleEndian.PutUint32(b[8:12], h.Offset)
	binary.LittleEndian.PutUint32(b[12:16], h.CompressedLen)
	binary.LittleEndian.PutUint32(b[16:20], h.UncompressedLen)
	binary.LittleEndian.PutUint32(b[20:24], h.EncryptedLen)
	copy(b[24:40], h.CRCOrMD5[:])
	binary.LittleEndian.PutUint32(b[40:44], uint32(h.GlobalKey))
}

// ParseContainerHeader parses one ContainerHeader (and its stride
// sub-header, if the controller's mixed_stride bit is set) from data,
// returning the number of bytes consumed.
func ParseContainerHeader(data []byte) (*ContainerHeader, int, error) {
	if len(data) < ContainerHeaderSize {
		return nil, 0, tachyonerr.ErrInvalidFormat
	}

	h := &ContainerHeader{}
	h.decodeFrom(data[:ContainerHeaderSize])
	consumed := ContainerHeaderSize

	if h.MixedStride {
		if len(data) < consumed+ContainerHeaderSize {
			return nil, 0, tachyonerr.ErrInvalidFormat
		}
		sh := &ContainerHeader{}
		sh.decodeFrom(data[consumed : consumed+ContainerHeaderSize])
		h.StrideHeader = sh
		consumed += ContainerHeaderSize
	}

	return h, consumed, nil
}

func (h *ContainerHeader) decodeFrom(b []byte) {
	c := binary.LittleEndian.Uint32(b[0:4])
	unpackController(c, h)
	h.Stride = int32(binary.LittleEndian.Uint32(b[4:8]))
	h.Offset = binary.LittleEndian.Uint32(b[8:12])
	h.CompressedLen = binary.LittleEndian.Uint32(b[12:16])
	h.UncompressedLen = binary.LittleEndian.Uint32(b[16:20])
	h.EncryptedLen = binary.LittleEndian.Uint32(b[20:24])
	copy(h.CRCOrMD5[:], b[24:40])
	h.GlobalKey = int32(binary.LittleEndian.Uint32(b[40:44]))
}
