package footer

import (
	"encoding/binary"
	"fmt"

	"github.com/mklarqvist/tachyon-sub001/hash"
	"github.com/mklarqvist/tachyon-sub001/section"
	"github.com/mklarqvist/tachyon-sub001/tachyonerr"
)

// serializeDict serializes one dictionary + its pattern table as:
// n_streams(u32) global_ids(i32 each) n_patterns(u32) pattern bytes...
func serializeDict(d *StreamDict, patterns *PatternTable) []byte {
	ids := d.GlobalIDs()
	out := make([]byte, 4+4*len(ids)+4)
	binary.LittleEndian.PutUint32(out[0:4], uint32(len(ids)))
	off := 4
	for _, id := range ids {
		binary.LittleEndian.PutUint32(out[off:off+4], uint32(id))
		off += 4
	}
	binary.LittleEndian.PutUint32(out[off:off+4], uint32(patterns.Len()))
	off += 4
	for _, p := range patterns.Patterns() {
		out = append(out, p.Bytes()...)
	}

	return out
}

func parseDict(data []byte) (*StreamDict, *PatternTable, int, error) {
	if len(data) < 4 {
		return nil, nil, 0, fmt.Errorf("%w: truncated stream dictionary", tachyonerr.ErrInvalidFormat)
	}
	n := int(binary.LittleEndian.Uint32(data[0:4]))
	off := 4
	if len(data) < off+4*n+4 {
		return nil, nil, 0, fmt.Errorf("%w: truncated stream dictionary ids", tachyonerr.ErrInvalidFormat)
	}

	d := NewStreamDict()
	for i := 0; i < n; i++ {
		gid := int32(binary.LittleEndian.Uint32(data[off : off+4]))
		off += 4
		d.AddStream(gid)
	}

	nPatterns := int(binary.LittleEndian.Uint32(data[off : off+4]))
	off += 4

	pt := NewPatternTable(d)
	for i := 0; i < nPatterns; i++ {
		p, consumed, err := section.ParseBitvectorPattern(data[off:])
		if err != nil {
			return nil, nil, 0, err
		}
		off += consumed
		pt.patterns = append(pt.patterns, p)
		pt.byHash[hash.Int32s(p.GlobalIDs)] = len(pt.patterns) - 1
	}

	return d, pt, off, nil
}

// Bytes serializes the full footer: info dict+patterns, then format, then filter.
func (f *Footer) Bytes() []byte {
	var out []byte
	out = append(out, serializeDict(f.Info, f.InfoPatterns)...)
	out = append(out, serializeDict(f.Format, f.FormatPatterns)...)
	out = append(out, serializeDict(f.Filter, f.FilterPatterns)...)

	return out
}

// Parse reverses Bytes.
func Parse(data []byte) (*Footer, error) {
	f := &Footer{}

	info, infoPatterns, n1, err := parseDict(data)
	if err != nil {
		return nil, fmt.Errorf("info dictionary: %w", err)
	}
	data = data[n1:]

	format, formatPatterns, n2, err := parseDict(data)
	if err != nil {
		return nil, fmt.Errorf("format dictionary: %w", err)
	}
	data = data[n2:]

	filter, filterPatterns, _, err := parseDict(data)
	if err != nil {
		return nil, fmt.Errorf("filter dictionary: %w", err)
	}

	f.Info, f.InfoPatterns = info, infoPatterns
	f.Format, f.FormatPatterns = format, formatPatterns
	f.Filter, f.FilterPatterns = filter, filterPatterns

	return f, nil
}
