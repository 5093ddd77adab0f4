// Package hash centralizes every 64-bit hash used across tachyon: file-global
// dictionary keys, block footer bit-vector pattern hashes (§4.4), the
// block_hash field of BlockHeader, and the per-sample allele-tuple hash used
// by the multi-ploid genotype assessor (§4.3.5) and the radix-sort
// permutation (§4.3.7). Every use is XXH64, matching the teacher's exact
// dependency.
package hash

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// ID computes the xxHash64 of the given string. Used for metric/sample/field
// name lookups wherever a stable string key needs a compact integer form.
func ID(data string) uint64 {
	return xxhash.Sum64String(data)
}

// Bytes computes the xxHash64 of an arbitrary byte slice.
func Bytes(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// Uint64s computes the xxHash64 of the little-endian concatenation of ids;
// it is the per-sample allele-tuple hash of the multi-ploid assessor and the
// §4.3.7 radix permutation. Footer pattern hashes use Int32s.
func Uint64s(ids []uint64) uint64 {
	buf := make([]byte, 8*len(ids))
	for i, id := range ids {
		binary.LittleEndian.PutUint64(buf[i*8:], id)
	}

	return xxhash.Sum64(buf)
}

// Int32s computes the xxHash64 of the little-endian concatenation of a set
// of int32 ids (used for INFO/FORMAT/FILTER global-id pattern hashing, where
// ids are stored as i32 per §3).
func Int32s(ids []int32) uint64 {
	buf := make([]byte, 4*len(ids))
	for i, id := range ids {
		binary.LittleEndian.PutUint32(buf[i*4:], uint32(id))
	}

	return xxhash.Sum64(buf)
}

// Digest is a streaming XXH64 accumulator, used when a hash must be folded
// incrementally (block.Finalize folds every container header into the
// block_hash).
type Digest struct {
	d *xxhash.Digest
}

// NewDigest returns a fresh streaming XXH64 digest.
func NewDigest() *Digest {
	return &Digest{d: xxhash.New()}
}

// Write appends p to the digest.
func (h *Digest) Write(p []byte) { _, _ = h.d.Write(p) }

// Sum64 returns the current digest value without resetting the state.
func (h *Digest) Sum64() uint64 { return h.d.Sum64() }

// Reset clears the digest so it can be reused.
func (h *Digest) Reset() { h.d.Reset() }
