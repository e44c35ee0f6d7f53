// Package layer is the Layer Graph (spec §4.5): it stratifies Variables
// into numbered update layers so that propagation from a changed Variable
// visits every affected Variable exactly once per traversal, in an order
// that never has a lower layer depend on a higher one. There is no pack
// analogue of a stratified propagation graph (OLM's dependency graph is a
// one-shot resolution, not an incremental revisit structure), so this
// package is deliberately built on the standard library only; see
// DESIGN.md.
package layer

import (
	"fmt"
	"sort"
)

// LayerPriorityInversion is returned when a Variable is assigned an extra
// layer with a smaller (higher-priority) index than its already-assigned
// major layer, which would let a higher layer influence a lower one.
type LayerPriorityInversion struct {
	Name      string
	Major     int
	Attempted int
}

func (e *LayerPriorityInversion) Error() string {
	return fmt.Sprintf("layer: %s has major layer %d, cannot also join higher-priority layer %d", e.Name, e.Major, e.Attempted)
}

// Edges supplies the relational and option-derived edges the graph walks.
// The graph never looks inside a Variable; it only ever calls back through
// these three functions, so pkg/layer has no dependency on pkg/variable.
type Edges struct {
	Peers          func(name string) []string
	Children       func(name string) []string
	OptionChildren func(name string) []string
}

// Graph is the Layer Graph.
type Graph struct {
	edges Edges
	major map[string]int
	extra map[string][]int
	seq   map[string]int
	next  int
}

// New constructs a Graph. Every Variable defaults to major layer 0 until
// SetMajorLayer or AddLayer says otherwise.
func New(edges Edges) *Graph {
	return &Graph{
		edges: edges,
		major: make(map[string]int),
		extra: make(map[string][]int),
		seq:   make(map[string]int),
	}
}

// Touch records name's first-seen insertion order, used to break ties
// within a layer. Call this once per Variable at definition time.
func (g *Graph) Touch(name string) {
	if _, ok := g.seq[name]; ok {
		return
	}
	g.seq[name] = g.next
	g.next++
}

// SetMajorLayer assigns name's major layer. Calling it again for a name
// that already has a major layer is a no-op; use AddLayer for additional
// memberships.
func (g *Graph) SetMajorLayer(name string, layerIdx int) {
	if _, ok := g.major[name]; ok {
		return
	}
	g.major[name] = layerIdx
	g.Touch(name)
}

// AddLayer adds an additional, higher-indexed layer membership to name.
// Fails LayerPriorityInversion if layerIdx is smaller than name's existing
// major layer.
func (g *Graph) AddLayer(name string, layerIdx int) error {
	major, ok := g.major[name]
	if !ok {
		g.SetMajorLayer(name, layerIdx)
		return nil
	}
	if layerIdx < major {
		return &LayerPriorityInversion{Name: name, Major: major, Attempted: layerIdx}
	}
	g.extra[name] = append(g.extra[name], layerIdx)
	return nil
}

func (g *Graph) layerOf(name string) int {
	if l, ok := g.major[name]; ok {
		return l
	}
	return 0
}

// DesignateAffected returns name's peer, parent-child, and (if
// includeOptionChildren) option-child Variables: the candidates a change
// to name must revisit.
func (g *Graph) DesignateAffected(name string, includeOptionChildren bool) []string {
	seen := map[string]bool{name: true}
	var out []string
	add := func(names []string) {
		for _, n := range names {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	if g.edges.Peers != nil {
		add(g.edges.Peers(name))
	}
	if g.edges.Children != nil {
		add(g.edges.Children(name))
	}
	if includeOptionChildren && g.edges.OptionChildren != nil {
		add(g.edges.OptionChildren(name))
	}
	return out
}

// Traverse walks every candidate reachable from seeds in ascending layer
// order, in insertion order within a layer, visiting each name at most
// once. recompute is called once per visited name and must return whether
// that name's validities actually changed; a change re-designates that
// name's own downstream candidates, which are enqueued into later layers.
func (g *Graph) Traverse(seeds []string, includeOptionChildren bool, recompute func(name string) bool) {
	visited := make(map[string]bool)
	pending := make(map[int][]string)

	enqueue := func(name string) {
		if visited[name] {
			return
		}
		l := g.layerOf(name)
		pending[l] = append(pending[l], name)
	}
	for _, s := range seeds {
		enqueue(s)
	}

	for {
		layer, ok := nextPendingLayer(pending)
		if !ok {
			return
		}
		queue := pending[layer]
		delete(pending, layer)
		sort.SliceStable(queue, func(i, j int) bool { return g.seq[queue[i]] < g.seq[queue[j]] })
		for _, name := range queue {
			if visited[name] {
				continue
			}
			visited[name] = true
			if recompute(name) {
				for _, d := range g.DesignateAffected(name, includeOptionChildren) {
					enqueue(d)
				}
			}
		}
	}
}

func nextPendingLayer(pending map[int][]string) (int, bool) {
	found := false
	min := 0
	for l := range pending {
		if !found || l < min {
			min = l
			found = true
		}
	}
	return min, found
}
