package container

import (
	"bytes"

	"github.com/mklarqvist/tachyon-sub001/format"
	"github.com/mklarqvist/tachyon-sub001/section"
)

// detectUniformity implements §4.1 "Uniformity detection": applicable only
// when stride is constant (non-mixed) and type is not a struct. Returns
// whether every W-byte window of data is byte-identical, and if so, the
// single window that should replace the logical data.
func detectUniformity(h section.ContainerHeader, data []byte, nEntries int) (bool, []byte) {
	if h.MixedStride || h.PrimitiveType == format.TypeStruct || nEntries == 0 {
		return false, nil
	}

	width := h.PrimitiveType.ByteWidth()
	if width == 0 {
		return false, nil
	}

	stride := int(h.Stride)
	if stride <= 0 {
		stride = 1
	}

	w := stride * width
	if w <= 0 || len(data)%w != 0 || len(data) == 0 {
		return false, nil
	}

	first := data[:w]
	for off := w; off < len(data); off += w {
		if !bytes.Equal(data[off:off+w], first) {
			return false, nil
		}
	}

	return true, first
}
