package loader

// VertexKey identifies one face corner by its position, normal and texture
// coordinate indices. Absent attributes use -1.
type VertexKey struct {
	Position, Normal, UV int
}

// VertexDeduper assigns one compact output index per distinct VertexKey.
type VertexDeduper struct {
	index map[VertexKey]int
}

// NewVertexDeduper creates an empty deduper.
func NewVertexDeduper() *VertexDeduper {
	return &VertexDeduper{index: make(map[VertexKey]int)}
}

// Index returns the output index for k. added is true the first time k is
// seen, when the caller must append the corner's attributes.
func (d *VertexDeduper) Index(k VertexKey) (idx int, added bool) {
	if idx, ok := d.index[k]; ok {
		return idx, false
	}
	idx = len(d.index)
	d.index[k] = idx
	return idx, true
}

// Len returns the number of distinct keys seen.
func (d *VertexDeduper) Len() int {
	return len(d.index)
}
