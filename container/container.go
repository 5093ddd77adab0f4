// Package container implements the typed column container of §4.1: a
// self-describing data stream with an optional parallel stride sub-stream,
// which knows how to detect uniformity, shrink integers to their smallest
// safe width, and apply the varint/delta/zigzag preprocessors before a
// compress.Codec runs over the result.
//
// A Container is intentionally single-threaded: §5 states "Inside one block
// everything is single-threaded — containers are not shared across
// threads", so no internal locking is done here.
package container

import (
	"crypto/md5" //nolint:gosec // checksum, not a security primitive; see DESIGN.md
	"encoding/binary"
	"fmt"

	"github.com/mklarqvist/tachyon-sub001/format"
	"github.com/mklarqvist/tachyon-sub001/hash"
	"github.com/mklarqvist/tachyon-sub001/section"
	"github.com/mklarqvist/tachyon-sub001/tachyonerr"
)

// State tracks a container's one-directional lifecycle: Empty ->
// UncompressedOnly -> Compressed -> Encrypted (§3 "A container is either
// empty, uncompressed only, compressed, or encrypted").
type State int

const (
	StateEmpty State = iota
	StateUncompressedOnly
	StateCompressed
	StateEncrypted
)

// Container is the typed column holder described by §4.1.
type Container struct {
	Header section.ContainerHeader

	typeSet   bool
	strideSet bool

	ints32 []int32
	ints64 []int64
	f32    []float32
	f64    []float64
	raw    []byte // char/struct/byte-string entries, concatenated

	strides     []uint32 // only populated once mixed-stride is triggered
	fixedStride uint32

	nEntries   int
	nAdditions int
	nStrides   int

	dataUncompressed   []byte
	strideUncompressed []byte
	dataCompressed     []byte
	strideCompressed   []byte

	state State

	// isInvariant records whether this is one of the fixed base columns
	// (Header.GlobalKey is then -1). Set by the caller at construction time,
	// not inferred.
	isInvariant bool
}

// New creates an empty container. isInvariant must match the column's
// position: true for one of the 25 fixed base columns, false for an
// INFO/FORMAT/FILTER column (§3 invariant: GlobalKey >= 0 iff non-invariant).
func New(isInvariant bool, globalKey int32) *Container {
	return &Container{
		Header:      section.ContainerHeader{GlobalKey: globalKey},
		isInvariant: isInvariant,
		state:       StateEmpty,
	}
}

// NEntries returns the number of logical entries pushed so far.
func (c *Container) NEntries() int { return c.nEntries }

// IsEmpty reports whether the container has never received a push.
func (c *Container) IsEmpty() bool { return c.state == StateEmpty && c.nEntries == 0 }

func (c *Container) setType(pt format.PrimitiveType, signed format.Signedness) error {
	if !c.typeSet {
		c.Header.PrimitiveType = pt
		c.Header.Signedness = signed
		c.typeSet = true

		return nil
	}
	if c.Header.PrimitiveType != pt || c.Header.Signedness != signed {
		return fmt.Errorf("%w: container type mismatch, got %s/%v want %s/%v",
			tachyonerr.ErrEncoderInvariant, pt, signed, c.Header.PrimitiveType, c.Header.Signedness)
	}

	return nil
}

// PushInt pushes a signed integer value, widened to int32 internally (or
// int64 when width==8), per §4.1 "push(value: T)".
func (c *Container) PushInt(v int64, width int) error {
	if width == 8 {
		if err := c.setType(format.TypeInt64, format.Signed); err != nil {
			return err
		}
		c.ints64 = append(c.ints64, v)
	} else {
		if err := c.setType(format.TypeInt32, format.Signed); err != nil {
			return err
		}
		c.ints32 = append(c.ints32, int32(v))
	}
	c.nEntries++
	c.nAdditions++
	c.state = StateUncompressedOnly

	return nil
}

// PushUint pushes an unsigned integer value, widened the same way as PushInt.
func (c *Container) PushUint(v uint64, width int) error {
	if width == 8 {
		if err := c.setType(format.TypeInt64, format.Unsigned); err != nil {
			return err
		}
		c.ints64 = append(c.ints64, int64(v))
	} else {
		if err := c.setType(format.TypeInt32, format.Unsigned); err != nil {
			return err
		}
		c.ints32 = append(c.ints32, int32(v))
	}
	c.nEntries++
	c.nAdditions++
	c.state = StateUncompressedOnly

	return nil
}

// PushFloat32 pushes a 32-bit float value.
func (c *Container) PushFloat32(v float32) error {
	if err := c.setType(format.TypeFloat32, format.Signed); err != nil {
		return err
	}
	c.f32 = append(c.f32, v)
	c.nEntries++
	c.nAdditions++
	c.state = StateUncompressedOnly

	return nil
}

// PushFloat64 pushes a 64-bit float value.
func (c *Container) PushFloat64(v float64) error {
	if err := c.setType(format.TypeFloat64, format.Signed); err != nil {
		return err
	}
	c.f64 = append(c.f64, v)
	c.nEntries++
	c.nAdditions++
	c.state = StateUncompressedOnly

	return nil
}

// PushBool pushes a boolean value.
func (c *Container) PushBool(v bool) error {
	if err := c.setType(format.TypeBool, format.Unsigned); err != nil {
		return err
	}
	if v {
		c.raw = append(c.raw, 1)
	} else {
		c.raw = append(c.raw, 0)
	}
	c.nEntries++
	c.nAdditions++
	c.state = StateUncompressedOnly

	return nil
}

// PushBytes pushes a raw byte-string entry (&[u8] in the spec), used for
// char columns, allele strings, and sample names. Use PushStride to record
// its length.
func (c *Container) PushBytes(v []byte) error {
	if err := c.setType(format.TypeChar, format.Unsigned); err != nil {
		return err
	}
	c.raw = append(c.raw, v...)
	c.nEntries++
	c.nAdditions++
	c.state = StateUncompressedOnly

	return nil
}

// PushLiteral bypasses the type check and appends already-typed bytes
// directly into the raw buffer. Used by the genotype encoder, which has
// already packed its own run-length words at a width it chose itself.
func (c *Container) PushLiteral(pt format.PrimitiveType, signed format.Signedness, data []byte) {
	c.Header.PrimitiveType = pt
	c.Header.Signedness = signed
	c.typeSet = true
	c.raw = append(c.raw, data...)
	c.nEntries++
	c.nAdditions++
	c.state = StateUncompressedOnly
}

// PushStride records the per-entry element count. The first call fixes the
// container's stride; a later differing value switches the container to
// mixed-stride mode, materializing all previously-implicit strides (§4.1).
func (c *Container) PushStride(s uint32) {
	c.nStrides++
	if !c.strideSet {
		c.fixedStride = s
		c.strideSet = true
		c.Header.Stride = int32(s)

		return
	}

	if c.Header.MixedStride {
		c.strides = append(c.strides, s)

		return
	}

	if s == c.fixedStride {
		return
	}

	// Switch to mixed-stride: materialize every prior implicit stride.
	c.Header.MixedStride = true
	c.Header.Stride = -1
	c.strides = make([]uint32, c.nStrides-1, c.nStrides)
	for i := range c.strides {
		c.strides[i] = c.fixedStride
	}
	c.strides = append(c.strides, s)
}

// rawElementBytes returns the current (pre-reformat) byte-serialization of
// every pushed element at its present widened width, in push order. This
// is the buffer uniformity detection and final compression operate on.
func (c *Container) rawElementBytes() []byte {
	switch c.Header.PrimitiveType {
	case format.TypeInt64:
		buf := make([]byte, 8*len(c.ints64))
		for i, v := range c.ints64 {
			binary.LittleEndian.PutUint64(buf[i*8:], uint64(v))
		}

		return buf
	case format.TypeInt32:
		buf := make([]byte, 4*len(c.ints32))
		for i, v := range c.ints32 {
			binary.LittleEndian.PutUint32(buf[i*4:], uint32(v))
		}

		return buf
	case format.TypeFloat32:
		buf := make([]byte, 4*len(c.f32))
		for i, v := range c.f32 {
			binary.LittleEndian.PutUint32(buf[i*4:], mathFloat32bits(v))
		}

		return buf
	case format.TypeFloat64:
		buf := make([]byte, 8*len(c.f64))
		for i, v := range c.f64 {
			binary.LittleEndian.PutUint64(buf[i*8:], mathFloat64bits(v))
		}

		return buf
	default:
		return c.raw
	}
}

// Update runs the §4.1 finalization pipeline: uniformity detection, integer
// reformatting, stride reformatting, checksum, and uncompressed_len update.
// It must be called once, before compression.
func (c *Container) Update() error {
	if err := c.Header.Validate(c.isInvariant); err != nil {
		return err
	}

	data := c.rawElementBytes()

	uniform, window := detectUniformity(c.Header, data, c.nEntries)
	if uniform {
		c.Header.Uniform = true
		c.Header.Codec = format.CompressionNone
		data = window
	} else if c.typeSet && (c.Header.PrimitiveType == format.TypeInt32 || c.Header.PrimitiveType == format.TypeInt64) && len(c.ints32) > 0 {
		// Integer reformatting: only general (non-literal, widened-int32)
		// integer columns are eligible, per §4.1.
		newType, newSigned, reformatted := ReformatInt(c.ints32)
		c.Header.PrimitiveType = newType
		c.Header.Signedness = newSigned
		data = reformatted
	}

	if c.Header.MixedStride {
		newStrideData := reformatStrideBytes(c.strides)
		c.strideUncompressed = newStrideData
		sh := &section.ContainerHeader{GlobalKey: -1, Stride: 1}
		newStrideType, strideBytes := ReformatUint(c.strides)
		sh.PrimitiveType = newStrideType
		c.strideUncompressed = strideBytes
		c.Header.StrideHeader = sh
	}

	c.dataUncompressed = data
	c.Header.UncompressedLen = uint32(len(data))
	c.Header.CRCOrMD5 = md5.Sum(data) //nolint:gosec

	return nil
}

func reformatStrideBytes(strides []uint32) []byte {
	buf := make([]byte, 4*len(strides))
	for i, v := range strides {
		binary.LittleEndian.PutUint32(buf[i*4:], v)
	}

	return buf
}

// UncompressedData returns the container's current uncompressed bytes
// (post-Update, pre-compression).
func (c *Container) UncompressedData() []byte { return c.dataUncompressed }

// UncompressedStride returns the mixed-stride sub-stream's uncompressed
// bytes, if any.
func (c *Container) UncompressedStride() []byte { return c.strideUncompressed }

// UniformityHash is exposed for tests; it is the XXH64 hash of the first
// window of an already-detected-uniform container.
func UniformityHash(window []byte) uint64 { return hash.Bytes(window) }
