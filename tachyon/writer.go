// Package tachyon orchestrates the full §6 ingest/read pipeline: buffering
// pushed records until the block-boundary predicate fires, building a block
// out of the record/container/genotype/permutation/footer/block packages,
// optionally sealing it with the keychain package, and writing the §6
// on-disk file layout. It is a thin composition layer, in the spirit of the
// teacher's top-level convenience wrapper around its real subsystem
// packages — the algorithmic weight lives in the packages it calls.
package tachyon

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/bits"

	"github.com/mklarqvist/tachyon-sub001/block"
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

// EOFMarker is the 32-byte hex-decoded trailer written once at the end of
// every file, after the index, per §6.
var eofMarker = mustHex(section.EOFMarkerHex)

func mustHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}

	return b
}

// Config controls a Writer's block-boundary predicate and codec/encryption choices.
type Config struct {
	RecordsPerBlock int
	BasesPerBlock   int64
	Codec           format.CompressionType
	Encrypt         bool
}

// DefaultConfig returns the conventional defaults: 10,000 records or
// 250,000 bases per block, whichever comes first, Zstandard, unencrypted.
func DefaultConfig() Config {
	return Config{RecordsPerBlock: 10000, BasesPerBlock: 250000, Codec: format.CompressionZstd}
}

// Writer buffers pushed records and emits finalized, serialized blocks.
type Writer struct {
	cfg      Config
	header   *header.FileHeader
	nSamples int
	keychain *keychain.Keychain
	rng      keychain.RNG
	logger   *zap.Logger

	buffer     []record.Record
	firstRID   int32
	firstPos   int64
	haveFirst  bool
	blockIndex []BlockIndexEntry

	out []byte
}

// BlockIndexEntry records one written block's byte offset/length and
// summary range, for the §6 file-level index block.
type BlockIndexEntry struct {
	Offset   int64
	Length   int64
	ContigID int32
	MinPos   int64
	MaxPos   int64
}

// NewWriter creates a Writer over an already-populated, not-yet-frozen
// FileHeader; the caller should Freeze it (or let Writer do so on first
// Append) once every contig/INFO/FORMAT/FILTER entry has been registered.
func NewWriter(h *header.FileHeader, nSamples int, cfg Config, k *keychain.Keychain, rng keychain.RNG, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Writer{cfg: cfg, header: h, nSamples: nSamples, keychain: k, rng: rng, logger: logger}
}

// Append implements the push-based ingest of §6: buffer rec until the
// block-boundary predicate (N records, M bases, same rid) fires, flushing
// and starting a new block as needed. The record that trips the predicate
// is carried over into the next block, per §6.
func (w *Writer) Append(rec record.Record) error {
	if !w.header.Contigs.Frozen() {
		w.header.Freeze()
	}

	if !w.haveFirst {
		w.firstRID, w.firstPos, w.haveFirst = rec.RID, rec.Pos, true
	}

	tripped := len(w.buffer) >= w.cfg.RecordsPerBlock ||
		rec.RID != w.firstRID ||
		(w.cfg.BasesPerBlock > 0 && rec.Pos-w.firstPos > w.cfg.BasesPerBlock)

	if tripped {
		if err := w.flushBuffer(); err != nil {
			return err
		}
		w.firstRID, w.firstPos = rec.RID, rec.Pos
	}

	w.buffer = append(w.buffer, rec)

	return nil
}

// Flush finalizes and writes any buffered records as a final partial block.
func (w *Writer) Flush() error {
	return w.flushBuffer()
}

func (w *Writer) flushBuffer() error {
	if len(w.buffer) == 0 {
		return nil
	}
	records := w.buffer
	w.buffer = nil
	w.haveFirst = false

	return w.buildAndWrite(records)
}

// Bytes returns everything written so far: file header, block bytes in
// order, and (once Close has been called) the trailing index + EOF marker.
func (w *Writer) Bytes() []byte { return append([]byte(nil), w.out...) }

// BlockIndex returns the per-block offset/length/range entries recorded so
// far, in write order, for callers driving Reader.NextBlock directly.
func (w *Writer) BlockIndex() []BlockIndexEntry {
	return append([]BlockIndexEntry(nil), w.blockIndex...)
}

// WriteHeader serializes and appends the file header; must be called
// before the first Append if the caller wants it to precede block data in
// Bytes() (NewWriter does not do this automatically since dictionaries may
// still be growing).
func (w *Writer) WriteHeader() error {
	w.header.Freeze()
	hb, err := w.header.Bytes()
	if err != nil {
		return err
	}
	w.out = append(w.out, hb...)

	return nil
}

// Close flushes any remaining buffered records, appends the block index
// and EOF marker, per §6's `file := file_header block+ index eof_marker`.
func (w *Writer) Close() error {
	if err := w.Flush(); err != nil {
		return err
	}

	// The entry count trails the entries (rather than leading them) so
	// ParseIndex can locate the whole index from the back of the file —
	// read the count from the four bytes before the EOF marker, then step
	// back exactly that many fixed-size entries — without first having to
	// walk every block forward to find where the index begins.
	var idx []byte
	for _, e := range w.blockIndex {
		idx = appendI64(idx, e.Offset)
		idx = appendI64(idx, e.Length)
		idx = appendU32(idx, uint32(e.ContigID))
		idx = appendI64(idx, e.MinPos)
		idx = appendI64(idx, e.MaxPos)
	}
	idx = appendU32(idx, uint32(len(w.blockIndex)))
	w.out = append(w.out, idx...)
	w.out = append(w.out, eofMarker...)

	return nil
}

func appendU32(dst []byte, v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)

	return append(dst, b[:]...)
}

func appendI64(dst []byte, v int64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(v))

	return append(dst, b[:]...)
}

func toGenotypeCalls(calls []record.Call) []genotype.Call {
	out := make([]genotype.Call, len(calls))
	for i, c := range calls {
		out[i] = genotype.Call{Alleles: append([]int32(nil), c.Alleles...), Phased: c.Phased}
	}

	return out
}

// buildAndWrite runs the §4.3.7 permutation fold, the §4.3 genotype
// assess+encode dispatch, and the §3 invariant-column population for one
// block's worth of records, then finalizes and serializes it.
func (w *Writer) buildAndWrite(records []record.Record) error {
	b := block.New(records[0].RID)
	ppa := permutation.NewBuilder(w.nSamples)

	allCalls := make([][]genotype.Call, len(records))
	for i, rec := range records {
		if rec.Genotype == nil {
			continue
		}
		calls := toGenotypeCalls(rec.Genotype.Calls)
		allCalls[i] = calls

		maxAlleles := len(rec.Alleles)
		if maxAlleles < 1 {
			maxAlleles = 1
		}
		shiftBits := bits.Len(uint(maxAlleles + 2))
		if shiftBits == 0 {
			shiftBits = 1
		}

		perm := ppa.Perm()
		ordered := make([]genotype.Call, len(calls))
		for newPos, oldPos := range perm {
			if int(oldPos) < len(calls) {
				ordered[newPos] = calls[oldPos]
			}
		}
		ppa.Fold(ordered, maxAlleles+2, shiftBits)
	}

	finalPerm := ppa.Perm()
	anyGT := false
	for _, calls := range allCalls {
		if calls != nil {
			anyGT = true

			break
		}
	}

	var minPos, maxPos int64
	for i, rec := range records {
		if i == 0 || rec.Pos < minPos {
			minPos = rec.Pos
		}
		if i == 0 || rec.Pos > maxPos {
			maxPos = rec.Pos
		}

		if err := w.pushMeta(b, rec); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}

		if rec.Genotype != nil {
			if err := w.pushGenotype(b, allCalls[i], finalPerm, len(rec.Alleles)); err != nil {
				return fmt.Errorf("record %d genotype: %w", i, err)
			}
		}
	}

	b.Header.MinPos, b.Header.MaxPos = minPos, maxPos
	b.Header.NVariants = uint32(len(records))
	if anyGT {
		b.Header.Controller |= section.BlockHasGT | section.BlockHasGTPermuted
		ppaBytes := permutation.SerializePPA(finalPerm)
		b.Base(section.ColPPA).PushLiteral(format.TypeInt8, format.Unsigned, ppaBytes)
		b.Base(section.ColPPA).Header.Preprocessor |= format.PreprocessorBitPermuted
		b.Base(section.ColPPA).PushStride(uint32(len(ppaBytes)))
	}

	if err := b.Finalize(w.cfg.Codec); err != nil {
		return err
	}

	if w.cfg.Encrypt {
		b.Header.Controller |= section.BlockAnyEncrypted
	}

	data, err := b.Bytes()
	if err != nil {
		return err
	}

	wrapped, err := w.wrapBlock(data)
	if err != nil {
		return err
	}

	w.blockIndex = append(w.blockIndex, BlockIndexEntry{
		Offset: int64(len(w.out)), Length: int64(len(wrapped)),
		ContigID: records[0].RID, MinPos: minPos, MaxPos: maxPos,
	})
	w.out = append(w.out, wrapped...)

	return nil
}

// blockMarkerPlain/blockMarkerEncrypted prefix every on-disk block so a
// reader knows whether to run keychain decryption before parsing.
const (
	blockMarkerPlain     byte = 0
	blockMarkerEncrypted byte = 1
)

// wrapBlock is the pragmatic scope reduction from §4.5's literal
// per-container encryption: the entire serialized block (header, all
// containers, footer, EOF sentinel) is sealed as one GCM message under a
// fresh keychain entry, prefixed with a marker byte, the 64-bit field_id,
// and the 128-bit nonce, so a reader can locate the key before attempting
// to parse anything else. See DESIGN.md "Open Question: per-container vs
// per-block encryption".
func (w *Writer) wrapBlock(data []byte) ([]byte, error) {
	if !w.cfg.Encrypt {
		return append([]byte{blockMarkerPlain}, data...), nil
	}
	if w.keychain == nil || w.rng == nil {
		return nil, fmt.Errorf("%w: encryption requested without a keychain/RNG", tachyonerr.ErrEncoderInvariant)
	}

	sealed, err := keychain.Encrypt(w.keychain, w.rng, data)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, 1+8+len(sealed.Nonce)+len(sealed.Ciphertext))
	out = append(out, blockMarkerEncrypted)
	out = appendU64(out, sealed.FieldID)
	out = append(out, sealed.Nonce...)
	out = append(out, sealed.Ciphertext...)

	return out, nil
}

func appendU64(dst []byte, v uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)

	return append(dst, b[:]...)
}

func (w *Writer) pushMeta(b *block.Block, rec record.Record) error {
	if err := b.Base(section.ColContig).PushInt(int64(rec.RID), 4); err != nil {
		return err
	}
	b.Base(section.ColContig).PushStride(1)

	if err := b.Base(section.ColPosition).PushInt(rec.Pos, 8); err != nil {
		return err
	}
	b.Base(section.ColPosition).PushStride(1)

	if err := b.Base(section.ColQuality).PushFloat32(rec.Qual); err != nil {
		return err
	}
	b.Base(section.ColQuality).PushStride(1)

	if err := b.Base(section.ColNames).PushBytes([]byte(rec.ID)); err != nil {
		return err
	}
	b.Base(section.ColNames).PushStride(uint32(len(rec.ID)))

	if err := b.Base(section.ColRefAlt).PushUint(uint64(len(rec.Alleles)), 2); err != nil {
		return err
	}
	b.Base(section.ColRefAlt).PushStride(1)

	for _, a := range rec.Alleles {
		if err := b.Base(section.ColAlleles).PushBytes(a); err != nil {
			return err
		}
		b.Base(section.ColAlleles).PushStride(uint32(len(a)))
	}

	infoIDs := make([]int32, len(rec.Info))
	for i, f := range rec.Info {
		infoIDs[i] = f.Key
		b.Footer.Info.AddStream(f.Key)
		col := b.InfoColumn(f.Key)
		if err := col.PushBytes(f.Bytes); err != nil {
			return err
		}
		col.PushStride(uint32(f.NPerSample))
	}
	infoPattern := b.Footer.InfoPatterns.AddPattern(infoIDs)

	formatIDs := make([]int32, len(rec.Format))
	for i, f := range rec.Format {
		formatIDs[i] = f.Key
		b.Footer.Format.AddStream(f.Key)
		col := b.FormatColumn(f.Key)
		if err := col.PushBytes(f.Bytes); err != nil {
			return err
		}
		col.PushStride(uint32(f.NPerSample))
	}
	formatPattern := b.Footer.FormatPatterns.AddPattern(formatIDs)

	if err := b.Base(section.ColIDInfo).PushInt(int64(infoPattern), 4); err != nil {
		return err
	}
	b.Base(section.ColIDInfo).PushStride(1)
	if err := b.Base(section.ColIDFormat).PushInt(int64(formatPattern), 4); err != nil {
		return err
	}
	b.Base(section.ColIDFormat).PushStride(1)
	if err := b.Base(section.ColIDFilter).PushInt(0, 4); err != nil {
		return err
	}
	b.Base(section.ColIDFilter).PushStride(1)

	return nil
}

func (w *Writer) pushGenotype(b *block.Block, calls []genotype.Call, finalPerm []uint32, nAlleles int) error {
	summary := genotype.Summarize(calls)
	hasEOV := genotype.HasEOV(calls)

	ctrl := record.Controller{
		Diploid:      summary.BasePloidy == 2,
		MixedPloidy:  summary.BasePloidy != 2,
		HasMissing:   summary.NMissing > 0,
		MixedPhasing: summary.MixedPhasing,
		UniformPhase: summary.UniformPhase,
		Biallelic:    nAlleles <= 2,
		GTAvailable:  true,
	}

	var targetCol section.InvariantColumn
	var nRuns uint32

	switch {
	case summary.BasePloidy == 2 && nAlleles <= 2 && !hasEOV:
		a := genotype.AssessDiploidBiallelic(calls, finalPerm, summary)
		enc, err := genotype.EncodeDiploidBiallelic(calls, finalPerm, a)
		if err != nil {
			return err
		}
		targetCol = section.GTIntColumnForWidth(a.Width)
		ctrl.GTEncoding = record.GTEncodingBiallelic
		ctrl.GTPrimitiveWidth = a.Width
		nRuns = enc.NRuns
		if err := w.pushGTEntries(b, targetCol, a.Width, enc.Entries); err != nil {
			return err
		}
	case summary.BasePloidy == 2:
		a, err := genotype.AssessDiploidMultiAllelic(calls, finalPerm, summary, nAlleles)
		if err != nil {
			return err
		}
		enc, err := genotype.EncodeDiploidMultiAllelic(calls, finalPerm, a)
		if err != nil {
			return err
		}
		targetCol = section.GTSIntColumnForWidth(a.Width)
		ctrl.GTEncoding = record.GTEncodingMultiAllelic
		ctrl.GTPrimitiveWidth = a.Width
		nRuns = enc.NRuns
		if err := w.pushGTEntries(b, targetCol, a.Width, enc.Entries); err != nil {
			return err
		}
	default:
		a := genotype.AssessMultiploid(calls, finalPerm)
		enc, err := genotype.EncodeMultiploid(calls, finalPerm, a, summary.BasePloidy)
		if err != nil {
			return err
		}
		targetCol = section.GTNIntColumnForWidth(a.Width)
		ctrl.GTEncoding = record.GTEncodingMultiploid
		ctrl.GTPrimitiveWidth = a.Width
		nRuns = enc.NRuns
		if err := w.pushGTEntries(b, targetCol, a.Width, enc.Entries); err != nil {
			return err
		}
	}

	if err := b.Base(section.ColGTSupport).PushUint(uint64(nRuns), 4); err != nil {
		return err
	}
	b.Base(section.ColGTSupport).PushStride(1)

	if err := b.Base(section.ColGTPloidy).PushUint(uint64(summary.BasePloidy), 1); err != nil {
		return err
	}
	b.Base(section.ColGTPloidy).PushStride(1)

	if err := b.Base(section.ColController).PushUint(uint64(ctrl.Pack()), 2); err != nil {
		return err
	}
	b.Base(section.ColController).PushStride(1)

	return nil
}

func (w *Writer) pushGTEntries(b *block.Block, col section.InvariantColumn, width int, entries []byte) error {
	pt := format.IntTypeForWidth(width)
	b.Base(col).PushLiteral(pt, format.Unsigned, entries)
	b.Base(col).PushStride(uint32(len(entries) / max(width, 1)))

	return nil
}

