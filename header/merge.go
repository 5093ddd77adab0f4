package header

// IndexRemap maps a dictionary's old global indices to new ones after
// merging two headers (the supplemental "resume"/append workflow: ingest
// continuing into a file that already has a header). Any block-local
// columns and footer patterns referencing the old indices must be rewritten
// through this map before being appended to the merged file.
type IndexRemap map[int32]int32

// MergeDictionaries folds src's entries into dst (which must not yet be
// frozen), returning the remap from src's old indices to dst's indices.
// Entries that collide by name keep dst's existing index; new names are
// appended after dst's current entries, preserving dst's existing indices
// unchanged (callers only need to rewrite references into the *src* side).
func MergeDictionaries[T any](dst, src *Dictionary[T]) (IndexRemap, error) {
	remap := make(IndexRemap, src.Len())
	for oldIdx, entry := range src.Entries() {
		newIdx, err := dst.Add(entry)
		if err != nil {
			return nil, err
		}
		remap[int32(oldIdx)] = newIdx
	}

	return remap, nil
}

// Apply rewrites a single old global index through the remap, returning it
// unchanged if absent (e.g. the invariant-column sentinel -1).
func (r IndexRemap) Apply(oldIdx int32) int32 {
	if oldIdx < 0 {
		return oldIdx
	}
	if newIdx, ok := r[oldIdx]; ok {
		return newIdx
	}

	return oldIdx
}

// ApplyAll rewrites a slice of global ids in place and returns it.
func (r IndexRemap) ApplyAll(ids []int32) []int32 {
	for i, id := range ids {
		ids[i] = r.Apply(id)
	}

	return ids
}
