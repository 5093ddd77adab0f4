package header

import (
	"encoding/binary"
	"fmt"

	"github.com/mklarqvist/tachyon-sub001/compress"
	"github.com/mklarqvist/tachyon-sub001/section"
	"github.com/mklarqvist/tachyon-sub001/tachyonerr"
)

// Version is the three-component on-disk format version, written verbatim
// into the §6 file header.
type Version struct {
	Major, Minor, Patch int32
}

// FileHeader is the §6 on-disk file header: magic, version, controller
// bits, sample count, and the four frozen dictionaries, whose literal bytes
// are S2-compressed as a single blob (compress.LiteralsCodec).
type FileHeader struct {
	Version    Version
	Controller uint16
	NSamples   uint64

	Contigs *Dictionary[ContigEntry]
	Info    *Dictionary[FieldEntry]
	Format  *Dictionary[FieldEntry]
	Filter  *Dictionary[FilterEntry]
}

// New creates an empty, writable file header.
func New(nSamples uint64, version Version) *FileHeader {
	return &FileHeader{
		Version:  version,
		NSamples: nSamples,
		Contigs:  NewDictionary(func(e ContigEntry) string { return e.Name }),
		Info:     NewDictionary(func(e FieldEntry) string { return e.Name }),
		Format:   NewDictionary(func(e FieldEntry) string { return e.Name }),
		Filter:   NewDictionary(func(e FilterEntry) string { return e.Name }),
	}
}

// Freeze freezes all four dictionaries, per §5's post-ingest freeze rule.
func (h *FileHeader) Freeze() {
	h.Contigs.Freeze()
	h.Info.Freeze()
	h.Format.Freeze()
	h.Filter.Freeze()
}

func appendLiterals(dst []byte, name string, nPerSample int, length int64, filter bool) []byte {
	dst = appendString(dst, name)
	if filter {
		return dst
	}
	dst = appendInt(dst, int64(nPerSample))
	dst = appendInt(dst, length)

	return dst
}

func appendString(dst []byte, s string) []byte {
	dst = appendInt(dst, int64(len(s)))

	return append(dst, s...)
}

func appendInt(dst []byte, v int64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(v))

	return append(dst, b[:]...)
}

// literals serializes the dictionaries into the flat byte form that gets
// S2-compressed for the on-disk "literals" blob.
func (h *FileHeader) literals() []byte {
	var out []byte
	for _, c := range h.Contigs.Entries() {
		out = appendLiterals(out, c.Name, 0, c.Length, false)
	}
	for _, f := range h.Info.Entries() {
		out = appendLiterals(out, f.Name, f.NPerSample, 0, false)
		out = appendString(out, f.Primitive)
	}
	for _, f := range h.Format.Entries() {
		out = appendLiterals(out, f.Name, f.NPerSample, 0, false)
		out = appendString(out, f.Primitive)
	}
	for _, f := range h.Filter.Entries() {
		out = appendLiterals(out, f.Name, 0, 0, true)
	}

	return out
}

// Bytes serializes the full §6 file_header block: magic, version,
// controller, n_samples, dictionary cardinalities, and the S2-compressed
// literals blob.
func (h *FileHeader) Bytes() ([]byte, error) {
	lit := h.literals()
	codec := compress.LiteralsCodec()
	compressedLit, err := codec.Compress(lit)
	if err != nil {
		return nil, fmt.Errorf("%w: compressing header literals: %v", tachyonerr.ErrIO, err)
	}

	out := make([]byte, 0, len(section.FileMagic)+64+len(compressedLit))
	out = append(out, []byte(section.FileMagic)...)
	out = appendInt(out, int64(h.Version.Major))
	out = appendInt(out, int64(h.Version.Minor))
	out = appendInt(out, int64(h.Version.Patch))

	var ctrl [2]byte
	binary.LittleEndian.PutUint16(ctrl[:], h.Controller)
	out = append(out, ctrl[:]...)

	out = appendInt(out, int64(h.NSamples))

	out = appendUint32(out, uint32(h.Contigs.Len()))
	out = appendUint32(out, uint32(h.Info.Len()))
	out = appendUint32(out, uint32(h.Format.Len()))
	out = appendUint32(out, uint32(h.Filter.Len()))

	out = appendUint32(out, uint32(len(compressedLit)))
	out = appendUint32(out, uint32(len(compressedLit)))
	out = appendUint32(out, uint32(len(lit)))
	out = append(out, compressedLit...)

	return out, nil
}

func appendUint32(dst []byte, v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)

	return append(dst, b[:]...)
}
