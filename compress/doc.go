// Package compress provides compression and decompression codecs for a
// block's individual container payloads.
//
// Compression is applied per container, after the container's own
// type-specific encoding (run-length genotype calls, bit-packed
// permutations, raw invariant-column values). This package implements that
// second stage, supporting multiple general-purpose algorithms:
//   - None: No compression (fastest, largest)
//   - Zstd: Excellent compression ratio, moderate speed
//   - S2: Balanced compression and speed
//   - LZ4: Fast decompression, moderate compression
//
// # Architecture
//
// The package defines three core interfaces:
//
//	type Compressor interface {
//	    Compress(data []byte) ([]byte, error)
//	}
//
//	type Decompressor interface {
//	    Decompress(data []byte) ([]byte, error)
//	}
//
//	type Codec interface {
//	    Compressor
//	    Decompressor
//	}
//
// # Supported Algorithms
//
// **NoOp Compression** (format.CompressionNone)
//
//	codec := compress.NewNoOpCompressor()
//	compressed, _ := codec.Compress(data)  // Returns data unchanged
//	original, _ := codec.Decompress(compressed)  // Returns data unchanged
//
// Use when:
//   - The column is already well-packed by its own encoding (e.g. a
//     bit-transposed permutation)
//   - CPU is more critical than storage
//   - The column is incompressible (random, encrypted)
//
// **Zstandard (Zstd)** (format.CompressionZstd)
//
//	codec := compress.NewZstdCompressor()
//	compressed, _ := codec.Compress(data)  // Best compression ratio
//	original, _ := codec.Decompress(compressed)
//
// Best for cold-storage blocks and wide INFO/FORMAT columns where
// compression ratio matters more than decode latency; this is the default
// container codec.
//
// **S2 (Snappy Alternative)** (no format.CompressionType; reached through LiteralsCodec)
//
//	codec := compress.NewS2Compressor()
//	compressed, _ := codec.Compress(data)  // Fast with good compression
//	original, _ := codec.Decompress(compressed)
//
// Used for the file header's one-shot literals block (the contig/INFO/
// FORMAT/FILTER dictionary), via LiteralsCodec, where decode latency on
// file open matters more than ratio.
//
// **LZ4** (format.CompressionLegacy)
//
//	codec := compress.NewLZ4Compressor()
//	compressed, _ := codec.Compress(data)  // Very fast decompression
//	original, _ := codec.Decompress(compressed)
//
// Kept as the "legacy" container codec (format.CompressionLegacy) for
// files written before Zstd became the default, and for callers that favor
// decompression speed over ratio on a random-access read path.
//
// # Memory Management
//
// All codec implementations use buffer pooling where the underlying
// library benefits from it (LZ4's block compressor); callers own every
// returned slice and may retain it past the codec call.
//
// # Thread Safety
//
// All codec implementations are safe to share across goroutines; none hold
// mutable state beyond what a single Compress/Decompress call allocates.
//
// # Error Handling
//
// CreateCodec and GetCodec report an unsupported codec (including the
// legacy ZPAQ variant) as tachyonerr.ErrUnsupportedCodec. Decompression
// errors (corrupted data, truncated input) are returned as the underlying
// library reports them (Zstd's wrapped with a context message), not as
// tachyonerr sentinels.
package compress
