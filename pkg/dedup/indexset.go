package dedup

import "sort"

// IndexSet is a set of candidate indices
type IndexSet map[int]struct{}

// NewIndexSet builds a set from a slice of indices
func NewIndexSet(indices ...int) IndexSet {
	s := make(IndexSet, len(indices))
	for _, i := range indices {
		s[i] = struct{}{}
	}
	return s
}

// Has reports whether the index is in the set
func (s IndexSet) Has(i int) bool {
	_, ok := s[i]
	return ok
}

// Add inserts the index
func (s IndexSet) Add(i int) {
	s[i] = struct{}{}
}

// Remove deletes the index
func (s IndexSet) Remove(i int) {
	delete(s, i)
}

// Equal reports whether both sets contain the same indices
func (s IndexSet) Equal(other IndexSet) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if !other.Has(i) {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the set
func (s IndexSet) Clone() IndexSet {
	c := make(IndexSet, len(s))
	for i := range s {
		c[i] = struct{}{}
	}
	return c
}

// Slice returns the indices in ascending order
func (s IndexSet) Slice() []int {
	out := make([]int, 0, len(s))
	for i := range s {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}
