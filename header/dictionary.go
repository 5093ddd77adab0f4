// Package header implements the §6 file header: contig/INFO/FORMAT/FILTER
// dictionaries with stable file-global indices, frozen after ingest per
// §5's "dictionaries in the file header are frozen after header ingest —
// readers may share them freely as immutable data".
package header

import "fmt"

// ContigEntry is one contig dictionary record.
type ContigEntry struct {
	Name   string
	Length int64
}

// FieldEntry is one INFO/FORMAT dictionary record (bcf1_t FieldView shape,
// §6, carries the field's declared primitive and per-sample cardinality).
type FieldEntry struct {
	Name       string
	Primitive  string
	NPerSample int
}

// FilterEntry is one FILTER dictionary record.
type FilterEntry struct {
	Name string
}

// Dictionary maps names to stable file-global indices. Indices are assigned
// in first-seen order and never reused, matching §6's "global_key" slot
// that containers carry.
type Dictionary[T any] struct {
	entries []T
	byName  map[string]int32
	frozen  bool
	nameOf  func(T) string
}

// NewDictionary creates an empty, writable dictionary.
func NewDictionary[T any](nameOf func(T) string) *Dictionary[T] {
	return &Dictionary[T]{byName: make(map[string]int32), nameOf: nameOf}
}

// Add registers entry, returning its global index. Re-adding an existing
// name returns the original index without mutating the entry.
func (d *Dictionary[T]) Add(entry T) (int32, error) {
	if d.frozen {
		return 0, fmt.Errorf("dictionary is frozen after header ingest, cannot add %q", d.nameOf(entry))
	}

	name := d.nameOf(entry)
	if idx, ok := d.byName[name]; ok {
		return idx, nil
	}

	idx := int32(len(d.entries))
	d.entries = append(d.entries, entry)
	d.byName[name] = idx

	return idx, nil
}

// Freeze marks the dictionary immutable, per §5's post-ingest freeze.
func (d *Dictionary[T]) Freeze() { d.frozen = true }

// Frozen reports whether Freeze has been called.
func (d *Dictionary[T]) Frozen() bool { return d.frozen }

// Lookup returns the global index for name.
func (d *Dictionary[T]) Lookup(name string) (int32, bool) {
	idx, ok := d.byName[name]

	return idx, ok
}

// Get returns the entry at global index idx.
func (d *Dictionary[T]) Get(idx int32) (T, bool) {
	var zero T
	if idx < 0 || int(idx) >= len(d.entries) {
		return zero, false
	}

	return d.entries[idx], true
}

// Len returns the number of entries.
func (d *Dictionary[T]) Len() int { return len(d.entries) }

// Entries returns entries in global-index order.
func (d *Dictionary[T]) Entries() []T {
	return append([]T(nil), d.entries...)
}
