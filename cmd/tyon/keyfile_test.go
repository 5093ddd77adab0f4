package main

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklarqvist/tachyon-sub001/keychain"
)

type deterministicRNG struct{ n byte }

func (r *deterministicRNG) Read(p []byte) (int, error) {
	for i := range p {
		r.n++
		p[i] = r.n
	}
	return len(p), nil
}

func TestKeyFileRoundTrip(t *testing.T) {
	k := keychain.New()
	rng := &deterministicRNG{}
	e1, err := k.NewEntry(rng)
	require.NoError(t, err)
	e2, err := k.NewEntry(rng)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "keys.bin")
	require.NoError(t, writeKeyFile(path, k))

	loaded, err := readKeyFile(path)
	require.NoError(t, err)
	assert.Equal(t, k.Len(), loaded.Len())

	got1, err := loaded.Lookup(e1.FieldID)
	require.NoError(t, err)
	assert.Equal(t, e1, got1)

	got2, err := loaded.Lookup(e2.FieldID)
	require.NoError(t, err)
	assert.Equal(t, e2, got2)
}

func TestKeyFileEmptyKeychainRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.bin")
	require.NoError(t, writeKeyFile(path, keychain.New()))

	loaded, err := readKeyFile(path)
	require.NoError(t, err)
	assert.Equal(t, 0, loaded.Len())
}

func TestReadKeyFileTruncatedErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.bin")
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, 1)
	require.NoError(t, os.WriteFile(path, buf, 0o600))

	_, err := readKeyFile(path)
	assert.Error(t, err)
}
