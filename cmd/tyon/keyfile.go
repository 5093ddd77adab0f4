package main

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/mklarqvist/tachyon-sub001/keychain"
)

// writeKeyFile persists a keychain's entries as count(u32) + n * (field_id
// u64 + 32-byte key), the CLI's own on-disk form — the keychain package
// itself stays agnostic of any particular file layout for its entries.
func writeKeyFile(path string, k *keychain.Keychain) error {
	entries := k.Entries()

	buf := make([]byte, 4, 4+len(entries)*(8+keychain.KeySize))
	binary.LittleEndian.PutUint32(buf, uint32(len(entries)))
	for _, e := range entries {
		var rec [8 + keychain.KeySize]byte
		binary.LittleEndian.PutUint64(rec[:8], e.FieldID)
		copy(rec[8:], e.Key[:])
		buf = append(buf, rec[:]...)
	}

	return os.WriteFile(path, buf, 0o600)
}

func readKeyFile(path string) (*keychain.Keychain, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) < 4 {
		return nil, fmt.Errorf("keychain file %q is too short", path)
	}

	n := int(binary.LittleEndian.Uint32(data[:4]))
	const recSize = 8 + keychain.KeySize
	want := 4 + n*recSize
	if len(data) < want {
		return nil, fmt.Errorf("keychain file %q is truncated: want %d bytes, have %d", path, want, len(data))
	}

	entries := make([]keychain.Entry, n)
	off := 4
	for i := range entries {
		fieldID := binary.LittleEndian.Uint64(data[off : off+8])
		var key [keychain.KeySize]byte
		copy(key[:], data[off+8:off+recSize])
		entries[i] = keychain.Entry{FieldID: fieldID, Key: key}
		off += recSize
	}

	return keychain.Load(entries), nil
}
