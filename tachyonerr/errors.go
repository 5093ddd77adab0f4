// Package tachyonerr defines the sentinel error kinds shared across the
// tachyon packages, matching the error-kind table of the specification: Io,
// InvalidFormat, UnsupportedCodec, UnsupportedVersion, IntegrityFailure,
// KeychainMiss, Overflow, InvalidGenotype, and Encoder.
//
// Recoverable conditions (preprocessor short-circuits) are never reported
// through this package; only conditions the caller must surface or that are
// fatal encoder invariants use these sentinels.
package tachyonerr

import "errors"

var (
	// ErrIO wraps an underlying I/O failure while reading or writing a file.
	ErrIO = errors.New("tachyon: io error")
	// ErrInvalidFormat is returned when a magic number, version field, or
	// structural invariant of the on-disk layout does not parse.
	ErrInvalidFormat = errors.New("tachyon: invalid format")
	// ErrUnsupportedCodec is returned for a codec enum value the reader does
	// not implement (including the legacy ZPAQ slot, which is always
	// rejected).
	ErrUnsupportedCodec = errors.New("tachyon: unsupported codec")
	// ErrUnsupportedVersion is returned when the file's version tuple is
	// newer than this reader understands.
	ErrUnsupportedVersion = errors.New("tachyon: unsupported version")
	// ErrIntegrityFailure is returned when a container's checksum or an
	// encrypted container's GCM tag does not verify.
	ErrIntegrityFailure = errors.New("tachyon: integrity failure")
	// ErrKeychainMiss is returned when an encrypted container's key id is
	// not present in the keychain supplied to the reader.
	ErrKeychainMiss = errors.New("tachyon: keychain miss")
	// ErrOverflow is returned when a primitive width is exceeded during
	// encoding (e.g. a multi-allelic packed genotype key wider than 64 bits).
	ErrOverflow = errors.New("tachyon: overflow")
	// ErrInvalidGenotype is returned when a sentinel value appears where no
	// sentinel is legal.
	ErrInvalidGenotype = errors.New("tachyon: invalid genotype")
	// ErrEncoderInvariant marks an unreachable internal encoder state. The
	// writer aborts the block being built; no partial block is written.
	ErrEncoderInvariant = errors.New("tachyon: encoder invariant violated")
)
