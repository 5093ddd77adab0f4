package keychain

import (
	"errors"
	"testing"

	"github.com/mklarqvist/tachyon-sub001/tachyonerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// deterministicRNG produces a repeatable byte stream so tests can assert
// exact behavior without depending on crypto/rand.
type deterministicRNG struct{ counter byte }

func (d *deterministicRNG) Read(p []byte) (int, error) {
	for i := range p {
		d.counter++
		p[i] = d.counter
	}

	return len(p), nil
}

func TestNewEntryAssignsDistinctFieldIDs(t *testing.T) {
	k := New()
	rng := &deterministicRNG{}
	e1, err := k.NewEntry(rng)
	require.NoError(t, err)
	e2, err := k.NewEntry(rng)
	require.NoError(t, err)
	assert.NotEqual(t, e1.FieldID, e2.FieldID)
	assert.Equal(t, 2, k.Len())
}

func TestLookupMissReturnsKeychainMiss(t *testing.T) {
	k := New()
	_, err := k.Lookup(999)
	require.Error(t, err)
	assert.True(t, errors.Is(err, tachyonerr.ErrKeychainMiss))
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	k := New()
	rng := &deterministicRNG{}
	plaintext := []byte("container header + data + stride bytes")

	sealed, err := Encrypt(k, rng, plaintext)
	require.NoError(t, err)
	assert.NotEqual(t, plaintext, sealed.Ciphertext)

	got, err := Decrypt(k, sealed)
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

func TestDecryptWithoutKeychainMisses(t *testing.T) {
	k := New()
	rng := &deterministicRNG{}
	sealed, err := Encrypt(k, rng, []byte("secret"))
	require.NoError(t, err)

	empty := New()
	_, err = Decrypt(empty, sealed)
	require.Error(t, err)
	assert.True(t, errors.Is(err, tachyonerr.ErrKeychainMiss))
}

func TestEntriesAndLoadRoundTrip(t *testing.T) {
	k := New()
	rng := &deterministicRNG{}
	e1, err := k.NewEntry(rng)
	require.NoError(t, err)
	e2, err := k.NewEntry(rng)
	require.NoError(t, err)

	loaded := Load(k.Entries())
	assert.Equal(t, k.Len(), loaded.Len())

	got1, err := loaded.Lookup(e1.FieldID)
	require.NoError(t, err)
	assert.Equal(t, e1, got1)

	got2, err := loaded.Lookup(e2.FieldID)
	require.NoError(t, err)
	assert.Equal(t, e2, got2)
}

func TestDecryptTamperedCiphertextFailsIntegrity(t *testing.T) {
	k := New()
	rng := &deterministicRNG{}
	sealed, err := Encrypt(k, rng, []byte("secret payload"))
	require.NoError(t, err)

	sealed.Ciphertext[0] ^= 0xFF
	_, err = Decrypt(k, sealed)
	require.Error(t, err)
	assert.True(t, errors.Is(err, tachyonerr.ErrIntegrityFailure))
}
