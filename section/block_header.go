package section

import (
	"encoding/binary"

	"github.com/mklarqvist/tachyon-sub001/tachyonerr"
)

// Block controller bits, packed into the single controller byte of
// BlockHeader.
const (
	BlockHasGT uint8 = 1 << iota
	BlockHasGTPermuted
	BlockAnyEncrypted
)

// BlockHeader is the fixed-size header written at the start of every block
// (§3 "BlockHeader").
type BlockHeader struct {
	OffsetToFooter uint32
	BlockHash      uint64
	Controller     uint8
	ContigID       int32
	MinPos         int64
	MaxPos         int64
	NVariants      uint32
}

// HasGT reports whether this block carries genotype data.
func (h *BlockHeader) HasGT() bool { return h.Controller&BlockHasGT != 0 }

// HasGTPermuted reports whether the genotype columns were written using the
// block's sample permutation.
func (h *BlockHeader) HasGTPermuted() bool { return h.Controller&BlockHasGTPermuted != 0 }

// AnyEncrypted reports whether any container in this block is encrypted.
func (h *BlockHeader) AnyEncrypted() bool { return h.Controller&BlockAnyEncrypted != 0 }

// Bytes serializes the header into its fixed wire form.
func (h *BlockHeader) Bytes() []byte {
	b := make([]byte, BlockHeaderSize)
	binary.LittleEndian.PutUint32(b[0:4], h.OffsetToFooter)
	binary.LittleEndian.PutUint64(b[4:12], h.BlockHash)
	b[12] = h.Controller
	binary.LittleEndian.PutUint32(b[13:17], uint32(h.ContigID))
	binary.LittleEndian.PutUint64(b[17:25], uint64(h.MinPos))
	binary.LittleEndian.PutUint64(b[25:33], uint64(h.MaxPos))
	binary.LittleEndian.PutUint32(b[33:37], h.NVariants)

	return b
}

// ParseBlockHeader parses a BlockHeader from its fixed-size wire form.
func ParseBlockHeader(data []byte) (*BlockHeader, error) {
	if len(data) < BlockHeaderSize {
		return nil, tachyonerr.ErrInvalidFormat
	}

	h := &BlockHeader{
		OffsetToFooter: binary.LittleEndian.Uint32(data[0:4]),
		BlockHash:      binary.LittleEndian.Uint64(data[4:12]),
		Controller:     data[12],
		ContigID:       int32(binary.LittleEndian.Uint32(data[13:17])),
		MinPos:         int64(binary.LittleEndian.Uint64(data[17:25])),
		MaxPos:         int64(binary.LittleEndian.Uint64(data[25:33])),
		NVariants:      binary.LittleEndian.Uint32(data[33:37]),
	}

	return h, nil
}
