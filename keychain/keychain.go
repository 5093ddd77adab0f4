// Package keychain implements AES-256-GCM sealing of one message per
// keychain entry, each under its own key and 128-bit IV, the key addressed
// by a random 64-bit field_id rather than a pointer to key material.
// tachyon.Writer seals each whole serialized block as one message;
// containers are not encrypted individually.
package keychain

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"github.com/mklarqvist/tachyon-sub001/tachyonerr"
)

// nonceSize is the 128-bit IV width mandated by §4.5, wider than the
// conventional 96-bit GCM nonce; crypto/cipher.NewGCMWithNonceSize accepts
// any size so this stays within the standard library's AEAD primitive.
const nonceSize = 16

// KeySize is the AES-256 key width in bytes.
const KeySize = 32

// RNG is the injectable randomness source used both for field_id generation
// and IV generation, per spec §9's "confine the RNG to an injectable trait
// so tests can supply deterministic keys".
type RNG interface {
	io.Reader
}

// Default returns crypto/rand.Reader as the production RNG.
func Default() RNG { return rand.Reader }

// Entry is one keychain record: the AES-256 key addressed by field_id.
type Entry struct {
	FieldID uint64
	Key     [KeySize]byte
}

// Keychain is the shared, append-only, interior-synchronized key store of
// §4.5/§4.6: "the keychain is shared, append-only with interior
// synchronization (a spinlock or equivalent around the hash-table insert)".
type Keychain struct {
	mu      sync.Mutex
	entries map[uint64]Entry
}

// New creates an empty keychain.
func New() *Keychain {
	return &Keychain{entries: make(map[uint64]Entry)}
}

// NewEntry generates a fresh field_id and AES-256 key from rng, inserts the
// entry, and returns it. Collision on field_id is rejected per §4.5 "Collision
// is rejected at insert time" — retries with a freshly drawn id.
func (k *Keychain) NewEntry(rng RNG) (Entry, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	for attempt := 0; attempt < 8; attempt++ {
		var idBuf [8]byte
		if _, err := io.ReadFull(rng, idBuf[:]); err != nil {
			return Entry{}, fmt.Errorf("%w: generating field_id: %v", tachyonerr.ErrIO, err)
		}
		fieldID := binary.LittleEndian.Uint64(idBuf[:])
		if _, exists := k.entries[fieldID]; exists {
			continue
		}

		var key [KeySize]byte
		if _, err := io.ReadFull(rng, key[:]); err != nil {
			return Entry{}, fmt.Errorf("%w: generating key: %v", tachyonerr.ErrIO, err)
		}

		entry := Entry{FieldID: fieldID, Key: key}
		k.entries[fieldID] = entry

		return entry, nil
	}

	return Entry{}, fmt.Errorf("%w: could not allocate a unique field_id after 8 attempts", tachyonerr.ErrEncoderInvariant)
}

// Lookup retrieves the entry for field_id, returning ErrKeychainMiss if absent.
func (k *Keychain) Lookup(fieldID uint64) (Entry, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	e, ok := k.entries[fieldID]
	if !ok {
		return Entry{}, fmt.Errorf("%w: field_id %d not present in keychain", tachyonerr.ErrKeychainMiss, fieldID)
	}

	return e, nil
}

// Len reports the number of entries currently held.
func (k *Keychain) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()

	return len(k.entries)
}

// Entries returns every entry currently held, in no particular order, for a
// caller that needs to persist a keychain across process boundaries (e.g. a
// CLI writing it out after an encrypted import so a later invocation can
// decrypt).
func (k *Keychain) Entries() []Entry {
	k.mu.Lock()
	defer k.mu.Unlock()

	out := make([]Entry, 0, len(k.entries))
	for _, e := range k.entries {
		out = append(out, e)
	}

	return out
}

// Load rebuilds a Keychain from previously-persisted entries, the inverse of
// Entries.
func Load(entries []Entry) *Keychain {
	k := New()
	for _, e := range entries {
		k.entries[e.FieldID] = e
	}

	return k
}

func newGCM(key [KeySize]byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", tachyonerr.ErrEncoderInvariant, err)
	}

	return cipher.NewGCMWithNonceSize(block, nonceSize)
}

// Sealed is the on-disk representation of one encrypted container: the
// field_id identifying the key, the IV, and the GCM-sealed ciphertext
// (plaintext || 16-byte tag, per the stdlib AEAD convention).
type Sealed struct {
	FieldID    uint64
	Nonce      []byte
	Ciphertext []byte
}

// Encrypt seals plaintext (tachyon.Writer passes one whole serialized
// block) under a freshly allocated keychain entry.
func Encrypt(k *Keychain, rng RNG, plaintext []byte) (Sealed, error) {
	entry, err := k.NewEntry(rng)
	if err != nil {
		return Sealed{}, err
	}

	aead, err := newGCM(entry.Key)
	if err != nil {
		return Sealed{}, err
	}

	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rng, nonce); err != nil {
		return Sealed{}, fmt.Errorf("%w: generating nonce: %v", tachyonerr.ErrIO, err)
	}

	ciphertext := aead.Seal(nil, nonce, plaintext, nil)

	return Sealed{FieldID: entry.FieldID, Nonce: nonce, Ciphertext: ciphertext}, nil
}

// Decrypt reverses Encrypt. It returns ErrKeychainMiss if field_id is
// unknown, or ErrIntegrityFailure if GCM authentication fails (tag
// mismatch), per the §6 exit-code mapping (encrypted-read failures are
// integrity failures, not format errors).
func Decrypt(k *Keychain, sealed Sealed) ([]byte, error) {
	entry, err := k.Lookup(sealed.FieldID)
	if err != nil {
		return nil, err
	}

	aead, err := newGCM(entry.Key)
	if err != nil {
		return nil, err
	}

	plaintext, err := aead.Open(nil, sealed.Nonce, sealed.Ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: GCM authentication failed for field_id %d", tachyonerr.ErrIntegrityFailure, sealed.FieldID)
	}

	return plaintext, nil
}
