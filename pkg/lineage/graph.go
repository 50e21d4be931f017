package lineage

import (
	"sort"
	"time"

	"github.com/DrSkyle/assetline/pkg/asset"
)

// Node is one asset in the reconstructed lineage graph.
type Node struct {
	Key        asset.Key
	Properties *asset.Properties // latest descriptor seen, nil if never set
	Events     int
	LastEvent  time.Time
	LastUnit   string
	upstream   asset.KeySet // keys this asset depends on
	downstream asset.KeySet // keys depending on this asset
}

// Graph is the adjacency view over a sequence of emitted events,
// used by reports and the browse UI. Events are applied in input order,
// which for a journal is chronological.
type Graph struct {
	nodes map[asset.Key]*Node
}

// BuildGraph folds events into a graph. Dependency-only keys (assets
// nothing materialized in the journal) still get nodes, so external
// sources show up as roots.
func BuildGraph(events []*Event) *Graph {
	g := &Graph{nodes: make(map[asset.Key]*Node)}
	for _, ev := range events {
		n := g.ensure(ev.Key)
		n.Events++
		n.LastEvent = ev.EventTime
		n.LastUnit = ev.WorkUnit
		if ev.Properties != nil {
			n.Properties = ev.Properties.Clone()
		}
		for _, dep := range ev.Dependencies {
			if dep == ev.Key {
				continue
			}
			n.upstream.Add(dep)
			g.ensure(dep).downstream.Add(ev.Key)
		}
	}
	return g
}

func (g *Graph) ensure(key asset.Key) *Node {
	n, ok := g.nodes[key]
	if !ok {
		n = &Node{
			Key:        key,
			upstream:   asset.NewKeySet(),
			downstream: asset.NewKeySet(),
		}
		g.nodes[key] = n
	}
	return n
}

// Node returns the node for key, or nil.
func (g *Graph) Node(key asset.Key) *Node {
	return g.nodes[key]
}

func (g *Graph) Len() int { return len(g.nodes) }

// Keys returns every node key in lexicographic order.
func (g *Graph) Keys() []asset.Key {
	out := make([]asset.Key, 0, len(g.nodes))
	for k := range g.nodes {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Upstream returns the keys this asset depends on, sorted.
func (g *Graph) Upstream(key asset.Key) []asset.Key {
	if n := g.nodes[key]; n != nil {
		return n.upstream.Sorted()
	}
	return nil
}

// Downstream returns the keys that depend on this asset, sorted.
func (g *Graph) Downstream(key asset.Key) []asset.Key {
	if n := g.nodes[key]; n != nil {
		return n.downstream.Sorted()
	}
	return nil
}

// Roots returns assets with no upstream, sorted. In a healthy pipeline
// these are the external sources.
func (g *Graph) Roots() []asset.Key {
	var out []asset.Key
	for k, n := range g.nodes {
		if len(n.upstream) == 0 {
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Leaves returns assets nothing depends on, sorted.
func (g *Graph) Leaves() []asset.Key {
	var out []asset.Key
	for k, n := range g.nodes {
		if len(n.downstream) == 0 {
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// FindCycle walks the graph with the usual three-color DFS and returns
// the first dependency cycle found as a key path (first == last), or nil
// when the graph is acyclic. Visit order is deterministic.
func (g *Graph) FindCycle() []asset.Key {
	permanent := make(map[asset.Key]bool, len(g.nodes))
	temporary := make(map[asset.Key]bool)

	var stack []asset.Key
	var cycle []asset.Key

	var visit func(key asset.Key) bool
	visit = func(key asset.Key) bool {
		if permanent[key] {
			return false
		}
		if temporary[key] {
			// Found it: slice the current stack from the repeat.
			for i, k := range stack {
				if k == key {
					cycle = append(append([]asset.Key{}, stack[i:]...), key)
					return true
				}
			}
			return true
		}
		temporary[key] = true
		stack = append(stack, key)
		for _, up := range g.nodes[key].upstream.Sorted() {
			if _, ok := g.nodes[up]; !ok {
				continue
			}
			if visit(up) {
				return true
			}
		}
		stack = stack[:len(stack)-1]
		temporary[key] = false
		permanent[key] = true
		return false
	}

	for _, k := range g.Keys() {
		if visit(k) {
			return cycle
		}
	}
	return nil
}
