package tachyon

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/mklarqvist/tachyon-sub001/block"
	"github.com/mklarqvist/tachyon-sub001/compress"
	"github.com/mklarqvist/tachyon-sub001/format"
	"github.com/mklarqvist/tachyon-sub001/genotype"
	"github.com/mklarqvist/tachyon-sub001/header"
	"github.com/mklarqvist/tachyon-sub001/keychain"
	"github.com/mklarqvist/tachyon-sub001/permutation"
	"github.com/mklarqvist/tachyon-sub001/record"
	"github.com/mklarqvist/tachyon-sub001/section"
	"github.com/mklarqvist/tachyon-sub001/tachyonerr"
	"go.uber.org/zap"
)

// DecodedBlock is one successfully decoded block's records, recovered in
// their original (unpermuted) sample order.
type DecodedBlock struct {
	Records []record.Record
}

// Reader parses a tachyon file built by Writer. Per §7's propagation
// policy, a block that fails to decode (KeychainMiss, IntegrityFailure,
// InvalidFormat) is skipped with a warning rather than aborting the whole
// read — "a reader failing on one block does not corrupt subsequent
// blocks... the reader can resume at the next block boundary and warn."
//
// Reconstruction covers the contig/position/quality invariant columns and
// the genotype columns (PPA, run-length decode, unpermute). Returned records
// carry only RID, Pos, Qual and Genotype; INFO/FORMAT, allele and ID
// columns are not decoded.
type Reader struct {
	Header   *header.FileHeader
	Keychain *keychain.Keychain
	logger   *zap.Logger
	nSamples int

	data []byte
	off  int
}

// NewReader parses the file header from the front of data and returns a
// Reader positioned at the start of the first block.
func NewReader(data []byte, nSamples int, k *keychain.Keychain, logger *zap.Logger) (*Reader, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	h, err := header.Parse(data)
	if err != nil {
		return nil, err
	}
	hb, err := h.Bytes()
	if err != nil {
		return nil, err
	}

	return &Reader{Header: h, Keychain: k, logger: logger, nSamples: nSamples, data: data, off: len(hb)}, nil
}

// NextBlock reads and decodes the block of the given wrapped length
// (header + containers + footer + EOF sentinel, as recorded by a
// BlockIndexEntry), advancing past it.
func (r *Reader) NextBlock(blockLen int) (*DecodedBlock, error) {
	if r.off+blockLen > len(r.data) {
		return nil, fmt.Errorf("%w: block length exceeds remaining data", tachyonerr.ErrInvalidFormat)
	}
	raw := r.data[r.off : r.off+blockLen]
	r.off += blockLen

	plain, err := r.unwrapBlock(raw)
	if err != nil {
		r.logger.Warn("skipping unreadable block", zap.Error(err))

		return nil, err
	}

	return r.decodeBlock(plain)
}

// ReadBlockAt seeks to e.Offset and decodes exactly e.Length bytes, for
// random access driven by a parsed block index rather than sequential reads.
func (r *Reader) ReadBlockAt(e BlockIndexEntry) (*DecodedBlock, error) {
	r.off = int(e.Offset)

	return r.NextBlock(int(e.Length))
}

// indexEntrySize is the fixed wire size of one BlockIndexEntry: two i64s
// (offset, length), one i32 (contig id), and two more i64s (min/max pos).
const indexEntrySize = 8 + 8 + 4 + 8 + 8

// ParseIndex recovers the trailing block index written by Writer.Close,
// validating the file's EOF marker along the way. The index's entry count
// is written last (immediately before the EOF marker, not at the index's
// own start) specifically so this can locate the index from the end of the
// file without first walking every block forward to find where it begins.
func ParseIndex(data []byte) ([]BlockIndexEntry, error) {
	if len(data) < len(eofMarker) {
		return nil, fmt.Errorf("%w: file too short for EOF marker", tachyonerr.ErrInvalidFormat)
	}
	eofOff := len(data) - len(eofMarker)
	if !bytes.Equal(data[eofOff:], eofMarker) {
		return nil, fmt.Errorf("%w: missing file EOF marker", tachyonerr.ErrInvalidFormat)
	}
	if eofOff < 4 {
		return nil, fmt.Errorf("%w: file too short for block index", tachyonerr.ErrInvalidFormat)
	}

	countOff := eofOff - 4
	n := int(binary.LittleEndian.Uint32(data[countOff:eofOff]))

	indexStart := countOff - n*indexEntrySize
	if indexStart < 0 {
		return nil, fmt.Errorf("%w: block index length exceeds file", tachyonerr.ErrInvalidFormat)
	}

	entries := make([]BlockIndexEntry, n)
	off := indexStart
	for i := range entries {
		entries[i] = BlockIndexEntry{
			Offset:   readI64(data[off:]),
			Length:   readI64(data[off+8:]),
			ContigID: int32(binary.LittleEndian.Uint32(data[off+16:])),
			MinPos:   readI64(data[off+20:]),
			MaxPos:   readI64(data[off+28:]),
		}
		off += indexEntrySize
	}

	return entries, nil
}

func readI64(b []byte) int64 { return int64(binary.LittleEndian.Uint64(b)) }

func (r *Reader) unwrapBlock(raw []byte) ([]byte, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty block", tachyonerr.ErrInvalidFormat)
	}

	marker := raw[0]
	body := raw[1:]

	switch marker {
	case blockMarkerPlain:
		return body, nil
	case blockMarkerEncrypted:
		if len(body) < 8+16 {
			return nil, fmt.Errorf("%w: truncated encrypted block", tachyonerr.ErrInvalidFormat)
		}
		fieldID := binary.LittleEndian.Uint64(body[0:8])
		nonce := body[8:24]
		ciphertext := body[24:]

		if r.Keychain == nil {
			return nil, fmt.Errorf("%w: field_id %d not present in keychain", tachyonerr.ErrKeychainMiss, fieldID)
		}

		return keychain.Decrypt(r.Keychain, keychain.Sealed{FieldID: fieldID, Nonce: nonce, Ciphertext: ciphertext})
	default:
		return nil, fmt.Errorf("%w: unknown block marker %d", tachyonerr.ErrInvalidFormat, marker)
	}
}

// ContainerStat summarizes one container's on-disk footprint, for the stats
// CLI surface — no decompression or reformat reversal, just the sizes
// already recorded in the container's header.
type ContainerStat struct {
	Name            string
	CompressedLen   uint32
	UncompressedLen uint32
}

// BlockStats parses the block at e far enough to report every base/info/
// format container's compressed/uncompressed size, without reconstructing
// any records.
func (r *Reader) BlockStats(e BlockIndexEntry) (*section.BlockHeader, []ContainerStat, error) {
	off, length := int(e.Offset), int(e.Length)
	if off+length > len(r.data) {
		return nil, nil, fmt.Errorf("%w: block length exceeds remaining data", tachyonerr.ErrInvalidFormat)
	}

	plain, err := r.unwrapBlock(r.data[off : off+length])
	if err != nil {
		return nil, nil, err
	}

	h, body, f, err := block.Parse(plain)
	if err != nil {
		return nil, nil, err
	}

	base, infoPayloads, formatPayloads, err := block.ReadContainers(body, f.Info.Len(), f.Format.Len())
	if err != nil {
		return nil, nil, err
	}

	stats := make([]ContainerStat, 0, section.NumInvariantColumns+len(infoPayloads)+len(formatPayloads))
	for i, p := range base {
		stats = append(stats, ContainerStat{
			Name: section.InvariantColumn(i).String(), CompressedLen: p.Header.CompressedLen, UncompressedLen: p.Header.UncompressedLen,
		})
	}
	infoIDs := f.Info.GlobalIDs()
	for i, p := range infoPayloads {
		stats = append(stats, ContainerStat{
			Name: fmt.Sprintf("INFO[%d]", infoIDs[i]), CompressedLen: p.Header.CompressedLen, UncompressedLen: p.Header.UncompressedLen,
		})
	}
	formatIDs := f.Format.GlobalIDs()
	for i, p := range formatPayloads {
		stats = append(stats, ContainerStat{
			Name: fmt.Sprintf("FORMAT[%d]", formatIDs[i]), CompressedLen: p.Header.CompressedLen, UncompressedLen: p.Header.UncompressedLen,
		})
	}

	return h, stats, nil
}

// decompressOne reverses container.Finalize's compress step for one
// container's main data stream and (if present) its mixed-stride
// sub-stream, leaving reformat/uniformity reversal to the caller, which
// needs the column's logical entry count to do that correctly.
func decompressOne(p block.ContainerPayload) ([]byte, []byte, error) {
	if p.Header.Encryption != format.EncryptionNone {
		return nil, nil, fmt.Errorf("%w: container-level encryption not supported by this reader path", tachyonerr.ErrKeychainMiss)
	}

	codec, err := compress.CreateCodec(p.Header.Codec, "container")
	if err != nil {
		return nil, nil, err
	}
	data, err := codec.Decompress(p.Data)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: decompressing container: %v", tachyonerr.ErrInvalidFormat, err)
	}

	var stride []byte
	if p.Header.MixedStride {
		strideCodec, err := compress.CreateCodec(p.Header.StrideHeader.Codec, "container stride")
		if err != nil {
			return nil, nil, err
		}
		stride, err = strideCodec.Decompress(p.StrideData)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: decompressing stride: %v", tachyonerr.ErrInvalidFormat, err)
		}
	}

	return data, stride, nil
}

// expandUniform reverses container.detectUniformity's collapse: if the
// column was flagged uniform, data holds exactly one window (stride*width
// bytes) that must be repeated nEntries times to recover the logical
// stream. Non-uniform columns are returned unchanged.
func expandUniform(h section.ContainerHeader, data []byte, nEntries int) []byte {
	if !h.Uniform || nEntries <= 0 {
		return data
	}

	out := make([]byte, 0, len(data)*nEntries)
	for i := 0; i < nEntries; i++ {
		out = append(out, data...)
	}

	return out
}

// readUintArray reads n little-endian unsigned integers of the given
// PrimitiveType's byte width from data.
func readUintArray(data []byte, width int, n int) []uint64 {
	out := make([]uint64, n)
	for i := 0; i < n && (i+1)*width <= len(data); i++ {
		switch width {
		case 1:
			out[i] = uint64(data[i])
		case 2:
			out[i] = uint64(binary.LittleEndian.Uint16(data[i*2:]))
		case 4:
			out[i] = uint64(binary.LittleEndian.Uint32(data[i*4:]))
		default:
			out[i] = binary.LittleEndian.Uint64(data[i*8:])
		}
	}

	return out
}

// readUintColumn decompresses, uniform-expands, and decodes a fixed-stride
// (stride==1) unsigned invariant column into n values, using the column's
// self-described PrimitiveType width rather than an assumed width — integer
// base columns are reformatted to their smallest safe width by
// container.Update before compression.
func readUintColumn(p block.ContainerPayload, n int) ([]uint64, error) {
	if n == 0 {
		return nil, nil
	}
	data, _, err := decompressOne(p)
	if err != nil {
		return nil, err
	}
	width := p.Header.PrimitiveType.ByteWidth()
	if width == 0 {
		return nil, fmt.Errorf("%w: column has no fixed element width", tachyonerr.ErrInvalidFormat)
	}
	data = expandUniform(p.Header, data, n)

	return readUintArray(data, width, n), nil
}

func readFloat32Column(p block.ContainerPayload, n int) ([]float32, error) {
	if n == 0 {
		return nil, nil
	}
	data, _, err := decompressOne(p)
	if err != nil {
		return nil, err
	}
	data = expandUniform(p.Header, data, n)

	out := make([]float32, n)
	for i := 0; i < n && (i+1)*4 <= len(data); i++ {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}

	return out, nil
}

// decodeBlock reconstructs records from one block's decompressed payload.
func (r *Reader) decodeBlock(data []byte) (*DecodedBlock, error) {
	h, body, f, err := block.Parse(data)
	if err != nil {
		return nil, err
	}

	base, _, _, err := block.ReadContainers(body, f.Info.Len(), f.Format.Len())
	if err != nil {
		return nil, err
	}

	n := int(h.NVariants)

	contigs, err := readUintColumn(base[section.ColContig], n)
	if err != nil {
		return nil, err
	}
	positions, err := readUintColumn(base[section.ColPosition], n)
	if err != nil {
		return nil, err
	}
	quals, err := readFloat32Column(base[section.ColQuality], n)
	if err != nil {
		return nil, err
	}

	var perm []uint32
	if h.HasGT() {
		ppaCompressed, _, err := decompressOne(base[section.ColPPA])
		if err != nil {
			return nil, err
		}
		perm = permutation.DeserializePPA(ppaCompressed, r.nSamples)
	}

	records := make([]record.Record, n)
	for i := 0; i < n; i++ {
		records[i] = record.Record{RID: int32(contigs[i]), Pos: int64(positions[i]), Qual: quals[i]}
	}

	if h.HasGT() {
		if err := r.decodeGenotypes(base, n, perm, records); err != nil {
			return nil, err
		}
	}

	return &DecodedBlock{Records: records}, nil
}

// gtColumns enumerates every invariant column a genotype run entry could
// have been routed to, across all three RLE methods and four widths.
var gtColumns = []section.InvariantColumn{
	section.ColGTInt8, section.ColGTInt16, section.ColGTInt32, section.ColGTInt64,
	section.ColGTSInt8, section.ColGTSInt16, section.ColGTSInt32, section.ColGTSInt64,
	section.ColGTNInt8, section.ColGTNInt16, section.ColGTNInt32, section.ColGTNInt64,
}

func gtColumnFor(ctrl record.Controller) section.InvariantColumn {
	switch ctrl.GTEncoding {
	case record.GTEncodingBiallelic:
		return section.GTIntColumnForWidth(ctrl.GTPrimitiveWidth)
	case record.GTEncodingMultiAllelic:
		return section.GTSIntColumnForWidth(ctrl.GTPrimitiveWidth)
	default:
		return section.GTNIntColumnForWidth(ctrl.GTPrimitiveWidth)
	}
}

// gtColumnCursor walks one GT invariant column's concatenated run-entry
// bytes record by record, since each record routed to this column
// contributes a variable-length run of RLE words (not a fixed stride), and
// records not routed here contribute nothing at all.
type gtColumnCursor struct {
	data       []byte
	width      int
	wordCounts []uint32
	entryIdx   int
	byteOff    int
}

func newGTColumnCursor(p block.ContainerPayload, nRouted int) (*gtColumnCursor, error) {
	if nRouted == 0 {
		return &gtColumnCursor{}, nil
	}

	width := p.Header.PrimitiveType.ByteWidth()
	data, strideData, err := decompressOne(p)
	if err != nil {
		return nil, err
	}

	var counts []uint32
	if p.Header.MixedStride {
		sw := p.Header.StrideHeader.PrimitiveType.ByteWidth()
		raw := readUintArray(strideData, sw, nRouted)
		counts = make([]uint32, nRouted)
		for i, v := range raw {
			counts[i] = uint32(v)
		}
	} else {
		counts = make([]uint32, nRouted)
		for i := range counts {
			counts[i] = uint32(p.Header.Stride)
		}
	}

	totalWords := 0
	for _, c := range counts {
		totalWords += int(c)
	}
	data = expandUniform(p.Header, data, nRouted)
	if want := totalWords * width; want <= len(data) {
		data = data[:want]
	}

	return &gtColumnCursor{data: data, width: width, wordCounts: counts}, nil
}

// next returns the byte slice for the next routed record's run entries.
func (c *gtColumnCursor) next() ([]byte, error) {
	if c.entryIdx >= len(c.wordCounts) {
		return nil, fmt.Errorf("%w: genotype column cursor exhausted", tachyonerr.ErrInvalidFormat)
	}
	n := int(c.wordCounts[c.entryIdx]) * c.width
	if c.byteOff+n > len(c.data) {
		return nil, fmt.Errorf("%w: truncated genotype run column", tachyonerr.ErrInvalidFormat)
	}
	out := c.data[c.byteOff : c.byteOff+n]
	c.byteOff += n
	c.entryIdx++

	return out, nil
}

func (r *Reader) decodeGenotypes(base [section.NumInvariantColumns]block.ContainerPayload, n int, perm []uint32, records []record.Record) error {
	ploidyRaw, err := readUintColumn(base[section.ColGTPloidy], n)
	if err != nil {
		return err
	}
	ctrlRaw, err := readUintColumn(base[section.ColController], n)
	if err != nil {
		return err
	}
	nAllelesRaw, err := readUintColumn(base[section.ColRefAlt], n)
	if err != nil {
		return err
	}

	ctrls := make([]record.Controller, n)
	for i := 0; i < n; i++ {
		ctrls[i] = record.UnpackController(uint16(ctrlRaw[i]))
	}

	routedCount := make(map[section.InvariantColumn]int, len(gtColumns))
	for _, c := range ctrls {
		routedCount[gtColumnFor(c)]++
	}

	cursors := make(map[section.InvariantColumn]*gtColumnCursor, len(gtColumns))
	for _, col := range gtColumns {
		cur, err := newGTColumnCursor(base[col], routedCount[col])
		if err != nil {
			return err
		}
		cursors[col] = cur
	}

	for i := 0; i < n; i++ {
		ctrl := ctrls[i]
		basePloidy := int(ploidyRaw[i])

		col := gtColumnFor(ctrl)
		entriesData, err := cursors[col].next()
		if err != nil {
			return err
		}

		a := genotype.Assessment{Width: ctrl.GTPrimitiveWidth, Permuted: true}
		shift, add := 1, 0
		if ctrl.HasMissing {
			shift = 2
		}
		if ctrl.MixedPhasing {
			add = 1
		}
		if ctrl.GTEncoding == record.GTEncodingMultiAllelic {
			// Same shift as the assessor: bits.Len(n_alleles + 2).
			shift = 0
			for v := nAllelesRaw[i] + 2; v > 0; v >>= 1 {
				shift++
			}
		}
		a.Shift, a.Add = shift, add

		var calls []genotype.Call
		switch ctrl.GTEncoding {
		case record.GTEncodingBiallelic:
			calls, err = genotype.DecodeDiploidBiallelic(entriesData, a, r.nSamples)
		case record.GTEncodingMultiAllelic:
			calls, err = genotype.DecodeDiploidMultiAllelic(entriesData, a, r.nSamples)
		default:
			calls, err = genotype.DecodeMultiploid(entriesData, a, r.nSamples, basePloidy)
		}
		if err != nil {
			return err
		}
		if !ctrl.MixedPhasing && ctrl.UniformPhase {
			for j := range calls {
				calls[j].Phased = true
			}
		}

		unpermuted := genotype.Unpermute(calls, perm)
		records[i].Genotype = &record.GenotypeField{Calls: toRecordCalls(unpermuted)}
	}

	return nil
}

func toRecordCalls(calls []genotype.Call) []record.Call {
	out := make([]record.Call, len(calls))
	for i, c := range calls {
		out[i] = record.Call{Alleles: c.Alleles, Phased: c.Phased}
	}

	return out
}
