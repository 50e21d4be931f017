// Package registry holds the run-scoped canonical table of assets.
// One entry per key, last descriptor writer wins, reads never fail.
package registry

import (
	"sort"
	"sync"

	"github.com/DrSkyle/assetline/pkg/asset"
)

// Canonical is a point-in-time snapshot of one registry entry. The
// properties are a deep copy; holding a Canonical never races the table.
type Canonical struct {
	Key        asset.Key
	Properties *asset.Properties
}

type entry struct {
	mu    sync.Mutex
	props *asset.Properties
}

// Registry maps asset keys to their canonical descriptor. The outer map
// only grows; per-entry locks serialize writers on the same key while
// leaving distinct keys free to proceed in parallel.
type Registry struct {
	mu      sync.RWMutex
	entries map[asset.Key]*entry
}

func New() *Registry {
	return &Registry{entries: make(map[asset.Key]*entry)}
}

// lookupOrCreate returns the entry for key, allocating an empty one on
// first sight. Double-checked so the common hit path stays on the read
// lock.
func (r *Registry) lookupOrCreate(key asset.Key) *entry {
	r.mu.RLock()
	e, ok := r.entries[key]
	r.mu.RUnlock()
	if ok {
		return e
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok = r.entries[key]; ok {
		return e
	}
	e = &entry{}
	r.entries[key] = e
	return e
}

// Resolve maps a reference to the canonical entry for its key. A bare
// reference (nil properties) never mutates stored state; a reference
// carrying properties replaces the stored descriptor wholesale, dropping
// fields the new value omits. A key never seen before resolves to a
// fresh entry with nil properties.
func (r *Registry) Resolve(ref asset.Asset) Canonical {
	e := r.lookupOrCreate(ref.Key)
	e.mu.Lock()
	if ref.Properties != nil {
		e.props = ref.Properties.Clone()
	}
	snap := e.props.Clone()
	e.mu.Unlock()
	return Canonical{Key: ref.Key, Properties: snap}
}

// ResolveMany applies a batch of references atomically with respect to
// every key in the batch. Entry locks are taken in lexicographic key
// order, the one fixed global order for multi-key operations, so two
// overlapping batches cannot deadlock. Duplicate keys in the batch apply
// in input order under a single lock hold. The returned snapshots are in
// input order.
func (r *Registry) ResolveMany(refs []asset.Asset) []Canonical {
	if len(refs) == 0 {
		return nil
	}

	byKey := make(map[asset.Key]*entry, len(refs))
	for _, ref := range refs {
		if _, ok := byKey[ref.Key]; !ok {
			byKey[ref.Key] = r.lookupOrCreate(ref.Key)
		}
	}

	order := make([]asset.Key, 0, len(byKey))
	for k := range byKey {
		order = append(order, k)
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	for _, k := range order {
		byKey[k].mu.Lock()
	}
	defer func() {
		for _, k := range order {
			byKey[k].mu.Unlock()
		}
	}()

	out := make([]Canonical, 0, len(refs))
	for _, ref := range refs {
		e := byKey[ref.Key]
		if ref.Properties != nil {
			e.props = ref.Properties.Clone()
		}
		out = append(out, Canonical{Key: ref.Key, Properties: e.props.Clone()})
	}
	return out
}

// Len reports the number of known keys.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Keys returns every known key in lexicographic order.
func (r *Registry) Keys() []asset.Key {
	r.mu.RLock()
	out := make([]asset.Key, 0, len(r.entries))
	for k := range r.entries {
		out = append(out, k)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
