package compress

import "github.com/klauspost/compress/s2"

// S2Compressor is the codec behind LiteralsCodec: it backs the file
// header's one-shot contig/INFO/FORMAT/FILTER dictionary, where decode
// latency on file open matters more than squeezing out the last few bytes.
type S2Compressor struct{}

var _ Codec = (*S2Compressor)(nil)

// NewS2Compressor returns an S2 codec with the library's default options.
func NewS2Compressor() S2Compressor {
	return S2Compressor{}
}

// Compress S2-encodes data.
func (c S2Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return s2.Encode(nil, data), nil
}

// Decompress reverses Compress.
func (c S2Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return s2.Decode(nil, data)
}
