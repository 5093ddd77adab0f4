package compress

// NoOpCompressor is the format.CompressionNone codec: it passes container
// bytes through unchanged.
//
// Useful when a container is already dense (a bit-transposed permutation,
// a tightly packed genotype run-length stream) and a second compression
// pass would only cost CPU for no size benefit, or for benchmarking a
// column's encode cost in isolation from any codec overhead.
type NoOpCompressor struct{}

var _ Codec = (*NoOpCompressor)(nil)

// NewNoOpCompressor returns the pass-through codec.
func NewNoOpCompressor() NoOpCompressor {
	return NoOpCompressor{}
}

// Compress returns data unchanged; the returned slice aliases the input, so
// callers must not mutate data after this call if they still hold the result.
func (c NoOpCompressor) Compress(data []byte) ([]byte, error) {
	return data, nil
}

// Decompress returns data unchanged, mirroring Compress.
func (c NoOpCompressor) Decompress(data []byte) ([]byte, error) {
	return data, nil
}
