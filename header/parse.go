package header

import (
	"encoding/binary"
	"fmt"

	"github.com/mklarqvist/tachyon-sub001/compress"
	"github.com/mklarqvist/tachyon-sub001/section"
	"github.com/mklarqvist/tachyon-sub001/tachyonerr"
)

func readUint32(data []byte, off int) (uint32, int) {
	return binary.LittleEndian.Uint32(data[off : off+4]), off + 4
}

func readInt64(data []byte, off int) (int64, int) {
	return int64(binary.LittleEndian.Uint64(data[off : off+8])), off + 8
}

func readString(data []byte, off int) (string, int) {
	n, off := readInt64(data, off)

	return string(data[off : off+int(n)]), off + int(n)
}

// Parse reverses Bytes, validating the magic and decompressing the
// literals blob before repopulating the four dictionaries.
func Parse(data []byte) (*FileHeader, error) {
	magic := []byte(section.FileMagic)
	if len(data) < len(magic) || string(data[:len(magic)]) != section.FileMagic {
		return nil, fmt.Errorf("%w: bad file magic", tachyonerr.ErrInvalidFormat)
	}
	off := len(magic)

	var major, minor, patch int64
	major, off = readInt64(data, off)
	minor, off = readInt64(data, off)
	patch, off = readInt64(data, off)

	if len(data) < off+2 {
		return nil, fmt.Errorf("%w: truncated controller", tachyonerr.ErrInvalidFormat)
	}
	controller := binary.LittleEndian.Uint16(data[off : off+2])
	off += 2

	var nSamples int64
	nSamples, off = readInt64(data, off)

	var nContigs, nInfo, nFormat, nFilter uint32
	nContigs, off = readUint32(data, off)
	nInfo, off = readUint32(data, off)
	nFormat, off = readUint32(data, off)
	nFilter, off = readUint32(data, off)

	var lLiterals, lCompressed, lUncompressed uint32
	lLiterals, off = readUint32(data, off)
	lCompressed, off = readUint32(data, off)
	lUncompressed, off = readUint32(data, off)
	_ = lLiterals

	if len(data) < off+int(lCompressed) {
		return nil, fmt.Errorf("%w: truncated literals blob", tachyonerr.ErrInvalidFormat)
	}
	compressedLit := data[off : off+int(lCompressed)]

	codec := compress.LiteralsCodec()
	lit, err := codec.Decompress(compressedLit)
	if err != nil {
		return nil, fmt.Errorf("%w: decompressing header literals: %v", tachyonerr.ErrInvalidFormat, err)
	}
	if uint32(len(lit)) != lUncompressed {
		return nil, fmt.Errorf("%w: header literals length mismatch", tachyonerr.ErrIntegrityFailure)
	}

	h := New(uint64(nSamples), Version{int32(major), int32(minor), int32(patch)})
	h.Controller = controller

	litOff := 0
	for i := 0; i < int(nContigs); i++ {
		var name string
		var length int64
		name, litOff = readString(lit, litOff)
		length, litOff = readInt64(lit, litOff)
		if _, err := h.Contigs.Add(ContigEntry{Name: name, Length: length}); err != nil {
			return nil, err
		}
	}
	for i := 0; i < int(nInfo); i++ {
		var name, primitive string
		var nPerSample int64
		name, litOff = readString(lit, litOff)
		nPerSample, litOff = readInt64(lit, litOff)
		primitive, litOff = readString(lit, litOff)
		if _, err := h.Info.Add(FieldEntry{Name: name, Primitive: primitive, NPerSample: int(nPerSample)}); err != nil {
			return nil, err
		}
	}
	for i := 0; i < int(nFormat); i++ {
		var name, primitive string
		var nPerSample int64
		name, litOff = readString(lit, litOff)
		nPerSample, litOff = readInt64(lit, litOff)
		primitive, litOff = readString(lit, litOff)
		if _, err := h.Format.Add(FieldEntry{Name: name, Primitive: primitive, NPerSample: int(nPerSample)}); err != nil {
			return nil, err
		}
	}
	for i := 0; i < int(nFilter); i++ {
		var name string
		name, litOff = readString(lit, litOff)
		if _, err := h.Filter.Add(FilterEntry{Name: name}); err != nil {
			return nil, err
		}
	}

	return h, nil
}
