// Package format defines the primitive enums and packed bit-field layouts
// shared by every other tachyon package: column primitive types, container
// codec/encryption/preprocessor tags, and the sentinel values reserved for
// MISSING / END_OF_VECTOR integers.
package format

import "math"

// PrimitiveType identifies the logical element type stored by a column
// container. Signedness is tracked separately (see Signedness).
type PrimitiveType uint8

const (
	TypeBool PrimitiveType = iota + 1
	TypeChar
	TypeInt8
	TypeInt16
	TypeInt32
	TypeInt64
	TypeFloat32
	TypeFloat64
	TypeStruct
)

func (t PrimitiveType) String() string {
	switch t {
	case TypeBool:
		return "Bool"
	case TypeChar:
		return "Char"
	case TypeInt8:
		return "Int8"
	case TypeInt16:
		return "Int16"
	case TypeInt32:
		return "Int32"
	case TypeInt64:
		return "Int64"
	case TypeFloat32:
		return "Float32"
	case TypeFloat64:
		return "Float64"
	case TypeStruct:
		return "Struct"
	default:
		return "Unknown"
	}
}

// ByteWidth returns the size in bytes of one element of this primitive type.
// TypeStruct has no fixed width and returns 0.
func (t PrimitiveType) ByteWidth() int {
	switch t {
	case TypeBool, TypeChar, TypeInt8:
		return 1
	case TypeInt16:
		return 2
	case TypeInt32, TypeFloat32:
		return 4
	case TypeInt64, TypeFloat64:
		return 8
	default:
		return 0
	}
}

// IntTypeForWidth returns the integer PrimitiveType matching a byte width of
// 1, 2, 4, or 8.
func IntTypeForWidth(width int) PrimitiveType {
	switch width {
	case 1:
		return TypeInt8
	case 2:
		return TypeInt16
	case 4:
		return TypeInt32
	default:
		return TypeInt64
	}
}

// Signedness is a single-bit flag carried alongside PrimitiveType.
type Signedness uint8

const (
	Unsigned Signedness = 0
	Signed   Signedness = 1
)

// CompressionType identifies the codec applied to a container's data and
// stride sub-streams.
type CompressionType uint8

const (
	CompressionNone CompressionType = iota + 1
	CompressionZstd
	// CompressionLegacy is backed by LZ4: the pre-Zstd container codec that
	// readers still accept. See Open Question 1 in DESIGN.md.
	CompressionLegacy
	// CompressionLegacyZPAQ is kept only so the enum ordinal is stable
	// across files written by historical versions; CreateCodec always
	// rejects it.
	CompressionLegacyZPAQ
)

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionLegacy:
		return "Legacy(LZ4)"
	case CompressionLegacyZPAQ:
		return "Legacy(ZPAQ)"
	default:
		return "Unknown"
	}
}

// EncryptionType identifies the per-container encryption scheme.
type EncryptionType uint8

const (
	EncryptionNone EncryptionType = iota
	EncryptionAES256GCM
)

func (e EncryptionType) String() string {
	switch e {
	case EncryptionNone:
		return "None"
	case EncryptionAES256GCM:
		return "AES-256-GCM"
	default:
		return "Unknown"
	}
}

// Preprocessor is a bit set of optional transforms applied to a container's
// uncompressed bytes before the codec runs.
type Preprocessor uint16

const (
	PreprocessorBitPermuted Preprocessor = 1 << iota
	PreprocessorVarint
	PreprocessorDelta
	PreprocessorZigzag
)

// Has reports whether bit is set in p.
func (p Preprocessor) Has(bit Preprocessor) bool { return p&bit != 0 }

// Sentinel integer values reserved across every integer column; their
// semantics must be preserved across width reformatting (see
// container.ReformatInt).
const (
	Missing     int32 = math.MinInt32
	EndOfVector int32 = math.MinInt32 + 1
)

// MinCompressionFold is the minimum uncompressed/compressed size ratio a
// codec must achieve to be worth keeping; below this the container falls
// back to an uncompressed copy. A single named constant per DESIGN.md Open
// Question 3.
const MinCompressionFold = 1.05

// SmallContainerThreshold is the uncompressed-length floor below which
// Zstandard is skipped outright (compression overhead would dominate).
const SmallContainerThreshold = 100
