// Package block assembles the §3/§6 block: the 25 fixed invariant columns
// in their canonical order, the dynamic INFO/FORMAT columns keyed by
// file-global field id, the block footer's stream dictionaries, and the
// wire-level serialize/deserialize logic (header, containers, footer,
// EOF sentinel).
package block

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/mklarqvist/tachyon-sub001/compress"
	"github.com/mklarqvist/tachyon-sub001/container"
	"github.com/mklarqvist/tachyon-sub001/footer"
	"github.com/mklarqvist/tachyon-sub001/format"
	"github.com/mklarqvist/tachyon-sub001/hash"
	"github.com/mklarqvist/tachyon-sub001/section"
	"github.com/mklarqvist/tachyon-sub001/tachyonerr"
)

// Block owns every container for one contiguous run of records, per §3's
// "the block exclusively owns all its containers and buffers".
type Block struct {
	Header section.BlockHeader
	Footer *footer.Footer

	base   [section.NumInvariantColumns]*container.Container
	info   map[int32]*container.Container
	format map[int32]*container.Container
}

// New creates an empty block whose invariant columns are pre-allocated in
// their fixed order (§3's 25 base columns).
func New(contigID int32) *Block {
	b := &Block{
		Header: section.BlockHeader{ContigID: contigID},
		Footer: footer.New(),
		info:   make(map[int32]*container.Container),
		format: make(map[int32]*container.Container),
	}
	for i := range b.base {
		b.base[i] = container.New(true, -1)
	}

	return b
}

// Base returns the invariant column container at the given fixed position.
func (b *Block) Base(col section.InvariantColumn) *container.Container {
	return b.base[col]
}

// InfoColumn returns (allocating if necessary) the container for an INFO
// field identified by its file-global id, registering it in the footer's
// info stream dictionary.
func (b *Block) InfoColumn(globalID int32) *container.Container {
	c, ok := b.info[globalID]
	if !ok {
		b.Footer.Info.AddStream(globalID)
		c = container.New(false, globalID)
		b.info[globalID] = c
	}

	return c
}

// FormatColumn returns (allocating if necessary) the container for a
// FORMAT field identified by its file-global id.
func (b *Block) FormatColumn(globalID int32) *container.Container {
	c, ok := b.format[globalID]
	if !ok {
		b.Footer.Format.AddStream(globalID)
		c = container.New(false, globalID)
		b.format[globalID] = c
	}

	return c
}

func sortedKeys(m map[int32]*container.Container) []int32 {
	keys := make([]int32, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	return keys
}

// InfoColumns returns the registered INFO containers in global-id order.
func (b *Block) InfoColumns() []int32 { return sortedKeys(b.info) }

// FormatColumns returns the registered FORMAT containers in global-id order.
func (b *Block) FormatColumns() []int32 { return sortedKeys(b.format) }

// Finalize runs Update+Finalize over every populated container (§3 "A block
// is created empty, appended to for N records, finalized (reformat +
// compress + encrypt), written, then dropped") and computes the block_hash
// over every container header's serialized bytes. OffsetToFooter is set
// later, by Bytes.
func (b *Block) Finalize(codec format.CompressionType) error {
	digest := hash.NewDigest()

	finalizeOne := func(c *container.Container) error {
		if c.IsEmpty() {
			return nil
		}
		if err := c.Update(); err != nil {
			return err
		}
		if err := c.Finalize(codec); err != nil {
			return err
		}
		digest.Write(c.Header.Bytes())

		return nil
	}

	for _, c := range b.base {
		if err := finalizeOne(c); err != nil {
			return err
		}
	}
	for _, k := range b.InfoColumns() {
		if err := finalizeOne(b.info[k]); err != nil {
			return err
		}
	}
	for _, k := range b.FormatColumns() {
		if err := finalizeOne(b.format[k]); err != nil {
			return err
		}
	}

	b.Header.BlockHash = digest.Sum64()

	return nil
}

// Bytes serializes the full §6 block: header, base columns, info columns,
// format columns, the compressed footer, its length/CRC trailer, and the
// EOF sentinel.
func (b *Block) Bytes() ([]byte, error) {
	var body []byte

	appendContainer := func(c *container.Container) {
		body = append(body, c.Header.Bytes()...)
		body = append(body, c.CompressedData()...)
		if c.Header.MixedStride {
			body = append(body, c.CompressedStride()...)
		}
	}

	for _, c := range b.base {
		appendContainer(c)
	}
	for _, k := range b.InfoColumns() {
		appendContainer(b.info[k])
	}
	for _, k := range b.FormatColumns() {
		appendContainer(b.format[k])
	}

	footerBytes := b.Footer.Bytes()
	codec, err := compress.CreateCodec(format.CompressionZstd, "block footer")
	if err != nil {
		return nil, err
	}
	compressedFooter, err := codec.Compress(footerBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: compressing block footer: %v", tachyonerr.ErrIO, err)
	}

	b.Header.OffsetToFooter = uint32(section.BlockHeaderSize + len(body))

	out := make([]byte, 0, section.BlockHeaderSize+len(body)+len(compressedFooter)+16)
	out = append(out, b.Header.Bytes()...)
	out = append(out, body...)
	out = append(out, compressedFooter...)

	var trailer [12]byte
	binary.LittleEndian.PutUint32(trailer[0:4], uint32(len(footerBytes)))
	binary.LittleEndian.PutUint32(trailer[4:8], uint32(len(compressedFooter)))
	binary.LittleEndian.PutUint32(trailer[8:12], uint32(hash.Bytes(footerBytes)))
	out = append(out, trailer[:]...)

	var eof [8]byte
	binary.LittleEndian.PutUint64(eof[:], section.BlockEOFSentinel)
	out = append(out, eof[:]...)

	return out, nil
}

// Parse reverses Bytes, validating the EOF sentinel and footer checksum.
// It returns the block header, the body (every container's header and
// compressed bytes, in write order) and the decoded footer. Splitting the
// body into containers and decompressing them is left to the caller
// (ReadContainers, which takes the INFO/FORMAT counts from the footer).
func Parse(data []byte) (*section.BlockHeader, []byte, *footer.Footer, error) {
	h, err := section.ParseBlockHeader(data)
	if err != nil {
		return nil, nil, nil, err
	}
	if len(data) < 8 {
		return nil, nil, nil, fmt.Errorf("%w: block too short", tachyonerr.ErrInvalidFormat)
	}

	eofOff := len(data) - 8
	gotEOF := binary.LittleEndian.Uint64(data[eofOff:])
	if gotEOF != section.BlockEOFSentinel {
		return nil, nil, nil, fmt.Errorf("%w: missing block EOF sentinel", tachyonerr.ErrInvalidFormat)
	}

	trailerOff := eofOff - 12
	if trailerOff < 0 {
		return nil, nil, nil, fmt.Errorf("%w: block too short for footer trailer", tachyonerr.ErrInvalidFormat)
	}
	lUncompressed := binary.LittleEndian.Uint32(data[trailerOff : trailerOff+4])
	lCompressed := binary.LittleEndian.Uint32(data[trailerOff+4 : trailerOff+8])
	footerCRC := binary.LittleEndian.Uint32(data[trailerOff+8 : trailerOff+12])

	footerCompressedOff := trailerOff - int(lCompressed)
	if footerCompressedOff < section.BlockHeaderSize {
		return nil, nil, nil, fmt.Errorf("%w: invalid footer offset", tachyonerr.ErrInvalidFormat)
	}

	codec, err := compress.CreateCodec(format.CompressionZstd, "block footer")
	if err != nil {
		return nil, nil, nil, err
	}
	footerBytes, err := codec.Decompress(data[footerCompressedOff:trailerOff])
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: decompressing block footer: %v", tachyonerr.ErrInvalidFormat, err)
	}
	if uint32(len(footerBytes)) != lUncompressed {
		return nil, nil, nil, fmt.Errorf("%w: block footer length mismatch", tachyonerr.ErrIntegrityFailure)
	}
	if uint32(hash.Bytes(footerBytes)) != footerCRC {
		return nil, nil, nil, fmt.Errorf("%w: block footer checksum mismatch", tachyonerr.ErrIntegrityFailure)
	}

	f, err := footer.Parse(footerBytes)
	if err != nil {
		return nil, nil, nil, err
	}

	body := data[section.BlockHeaderSize:footerCompressedOff]

	return h, body, f, nil
}

// ContainerPayload is one parsed-but-not-yet-decompressed container: its
// header plus the raw compressed data/stride bytes immediately following it
// in the block body.
type ContainerPayload struct {
	Header     section.ContainerHeader
	Data       []byte
	StrideData []byte
}

// ReadContainers walks a block's body (as returned by Parse) and splits it
// into the 25 fixed base-column payloads followed by nInfo INFO payloads
// and nFormat FORMAT payloads, in the same order Bytes wrote them.
func ReadContainers(body []byte, nInfo, nFormat int) ([section.NumInvariantColumns]ContainerPayload, []ContainerPayload, []ContainerPayload, error) {
	var base [section.NumInvariantColumns]ContainerPayload
	off := 0

	readOne := func() (ContainerPayload, error) {
		h, consumed, err := section.ParseContainerHeader(body[off:])
		if err != nil {
			return ContainerPayload{}, err
		}
		off += consumed

		if off+int(h.CompressedLen) > len(body) {
			return ContainerPayload{}, fmt.Errorf("%w: truncated container data", tachyonerr.ErrInvalidFormat)
		}
		data := body[off : off+int(h.CompressedLen)]
		off += int(h.CompressedLen)

		var strideData []byte
		if h.MixedStride {
			sl := int(h.StrideHeader.CompressedLen)
			if off+sl > len(body) {
				return ContainerPayload{}, fmt.Errorf("%w: truncated stride data", tachyonerr.ErrInvalidFormat)
			}
			strideData = body[off : off+sl]
			off += sl
		}

		return ContainerPayload{Header: *h, Data: data, StrideData: strideData}, nil
	}

	for i := range base {
		p, err := readOne()
		if err != nil {
			return base, nil, nil, err
		}
		base[i] = p
	}

	info := make([]ContainerPayload, nInfo)
	for i := range info {
		p, err := readOne()
		if err != nil {
			return base, nil, nil, err
		}
		info[i] = p
	}

	format := make([]ContainerPayload, nFormat)
	for i := range format {
		p, err := readOne()
		if err != nil {
			return base, nil, nil, err
		}
		format[i] = p
	}

	return base, info, format, nil
}
