package container

import (
	"fmt"

	"github.com/mklarqvist/tachyon-sub001/compress"
	"github.com/mklarqvist/tachyon-sub001/format"
	"github.com/mklarqvist/tachyon-sub001/tachyonerr"
)

// Finalize runs the §4.2 Zstandard codec compress behavior over the
// container's uncompressed data (and its stride sub-stream, if any),
// recursively applying the same short-circuit rules to both: skip
// compression for uniform or small containers, and discard the compressed
// result (falling back to an uncompressed copy) if it does not clear
// format.MinCompressionFold.
//
// Finalize must run after Update. wantCodec is the codec the caller would
// like to use (format.CompressionZstd in the common case); it may be
// downgraded to format.CompressionNone per the short-circuit rules.
func (c *Container) Finalize(wantCodec format.CompressionType) error {
	compressedData, codec, err := compressOne(c.dataUncompressed, c.Header.Uniform, wantCodec)
	if err != nil {
		return err
	}
	c.dataCompressed = compressedData
	c.Header.Codec = codec
	c.Header.CompressedLen = uint32(len(compressedData))

	if c.Header.MixedStride {
		strideCompressed, strideCodec, err := compressOne(c.strideUncompressed, false, wantCodec)
		if err != nil {
			return err
		}
		c.strideCompressed = strideCompressed
		c.Header.StrideHeader.Codec = strideCodec
		c.Header.StrideHeader.CompressedLen = uint32(len(strideCompressed))
		c.Header.StrideHeader.UncompressedLen = uint32(len(c.strideUncompressed))
	}

	c.state = StateCompressed

	return nil
}

func compressOne(data []byte, uniform bool, wantCodec format.CompressionType) ([]byte, format.CompressionType, error) {
	if uniform || len(data) < format.SmallContainerThreshold {
		out := make([]byte, len(data))
		copy(out, data)

		return out, format.CompressionNone, nil
	}

	codec, err := compress.CreateCodec(wantCodec, "container")
	if err != nil {
		return nil, format.CompressionNone, err
	}

	compressed, err := codec.Compress(data)
	if err != nil {
		return nil, format.CompressionNone, err
	}

	if len(compressed) == 0 {
		fallback := make([]byte, len(data))
		copy(fallback, data)

		return fallback, format.CompressionNone, nil
	}

	fold := float64(len(data)) / float64(len(compressed))
	if fold < format.MinCompressionFold {
		fallback := make([]byte, len(data))
		copy(fallback, data)

		return fallback, format.CompressionNone, nil
	}

	return compressed, wantCodec, nil
}

// Decompress reverses Finalize, refusing containers that declare encryption
// (decryption must have already happened upstream, see keychain package) or
// an unimplemented codec.
func (c *Container) Decompress(compressedData []byte, header format.CompressionType) ([]byte, error) {
	if c.Header.Encryption != format.EncryptionNone {
		return nil, fmt.Errorf("%w: container is encrypted", tachyonerr.ErrKeychainMiss)
	}
	if header == format.CompressionNone {
		out := make([]byte, len(compressedData))
		copy(out, compressedData)

		return out, nil
	}

	codec, err := compress.CreateCodec(header, "container")
	if err != nil {
		return nil, err
	}

	return codec.Decompress(compressedData)
}

// CompressedData returns the container's compressed data bytes (post-Finalize).
func (c *Container) CompressedData() []byte { return c.dataCompressed }

// CompressedStride returns the compressed mixed-stride sub-stream bytes.
func (c *Container) CompressedStride() []byte { return c.strideCompressed }
