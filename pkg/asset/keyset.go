package asset

import "sort"

// KeySet is a deduplicated set of asset keys.
type KeySet map[Key]struct{}

// NewKeySet builds a set from keys, dropping duplicates.
func NewKeySet(keys ...Key) KeySet {
	s := make(KeySet, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

func (s KeySet) Add(k Key)      { s[k] = struct{}{} }
func (s KeySet) Delete(k Key)   { delete(s, k) }
func (s KeySet) Has(k Key) bool { _, ok := s[k]; return ok }

// Union adds every key of other into s and returns s.
func (s KeySet) Union(other KeySet) KeySet {
	for k := range other {
		s[k] = struct{}{}
	}
	return s
}

// Subtract removes every key of other from s and returns s.
func (s KeySet) Subtract(other KeySet) KeySet {
	for k := range other {
		delete(s, k)
	}
	return s
}

// Clone returns an independent copy.
func (s KeySet) Clone() KeySet {
	out := make(KeySet, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

// Sorted returns the keys in lexicographic order. The set contract is
// order-free; sorting exists for deterministic output and for the fixed
// global lock order on multi-key registry operations.
func (s KeySet) Sorted() []Key {
	out := make([]Key, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
