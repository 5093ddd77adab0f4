// Package footer implements the §4.4 block footer: three per-block stream
// dictionaries (info, format, filter) and the pattern table that records
// which combination of fields each record carries.
package footer

import (
	"github.com/mklarqvist/tachyon-sub001/hash"
	"github.com/mklarqvist/tachyon-sub001/section"
)

// StreamDict allocates block-local indices for file-global INFO/FORMAT/
// FILTER field IDs, preserving first-seen order.
type StreamDict struct {
	globalToLocal map[int32]int
	localToGlobal []int32
}

// NewStreamDict creates an empty dictionary.
func NewStreamDict() *StreamDict {
	return &StreamDict{globalToLocal: make(map[int32]int)}
}

// AddStream implements §4.4 "add_stream(global_id) -> local_id": allocate or
// look up a per-block local index for a file-global field.
func (d *StreamDict) AddStream(globalID int32) int {
	if local, ok := d.globalToLocal[globalID]; ok {
		return local
	}
	local := len(d.localToGlobal)
	d.globalToLocal[globalID] = local
	d.localToGlobal = append(d.localToGlobal, globalID)

	return local
}

// Len returns the number of distinct local streams registered so far.
func (d *StreamDict) Len() int { return len(d.localToGlobal) }

// GlobalIDs returns the local-index-ordered slice of global IDs.
func (d *StreamDict) GlobalIDs() []int32 {
	return append([]int32(nil), d.localToGlobal...)
}

// GlobalToLocal exposes the lookup map NewBitvectorPattern needs.
func (d *StreamDict) GlobalToLocal() map[int32]int {
	return d.globalToLocal
}

// PatternTable implements §4.4 "add_pattern(Vec<global_id>) -> pattern_id":
// hash the order-preserving vector of global IDs with XXH64 of their
// little-endian concatenation, allocating a new entry only for an unseen
// hash.
type PatternTable struct {
	dict     *StreamDict
	nStreams func() int
	byHash   map[uint64]int
	patterns []section.BitvectorPattern
}

// NewPatternTable creates a pattern table bound to a stream dictionary; the
// dictionary's current Len() is read lazily at AddPattern time since streams
// and patterns are registered in the same pass over a block's records.
func NewPatternTable(dict *StreamDict) *PatternTable {
	return &PatternTable{dict: dict, byHash: make(map[uint64]int)}
}

// AddPattern registers the (order-preserving) vector of global IDs observed
// on one record, returning its pattern_id. globalIDs must already have been
// passed through AddStream so the dictionary's global-to-local map is
// current.
func (t *PatternTable) AddPattern(globalIDs []int32) int {
	h := hash.Int32s(globalIDs)
	if id, ok := t.byHash[h]; ok {
		return id
	}

	pattern := section.NewBitvectorPattern(globalIDs, t.dict.GlobalToLocal(), t.dict.Len())
	id := len(t.patterns)
	t.patterns = append(t.patterns, pattern)
	t.byHash[h] = id

	return id
}

// Patterns returns the patterns in allocation (pattern_id) order.
func (t *PatternTable) Patterns() []section.BitvectorPattern {
	return append([]section.BitvectorPattern(nil), t.patterns...)
}

// Len returns the number of distinct patterns registered.
func (t *PatternTable) Len() int { return len(t.patterns) }

// Footer bundles the three §4.4 dictionaries (info, format, filter) and
// their pattern tables for one block.
type Footer struct {
	Info   *StreamDict
	Format *StreamDict
	Filter *StreamDict

	InfoPatterns   *PatternTable
	FormatPatterns *PatternTable
	FilterPatterns *PatternTable
}

// New creates an empty block footer.
func New() *Footer {
	info, format, filter := NewStreamDict(), NewStreamDict(), NewStreamDict()

	return &Footer{
		Info:           info,
		Format:         format,
		Filter:         filter,
		InfoPatterns:   NewPatternTable(info),
		FormatPatterns: NewPatternTable(format),
		FilterPatterns: NewPatternTable(filter),
	}
}
