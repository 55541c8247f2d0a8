package fractures

import (
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/traverse"
)

// SplitMap maps a cell id to the renumbering of its points: old → new.
// Identity entries are allowed and mean the point is unchanged.
type SplitMap map[int]map[int]int

// Added returns every new point id mapped to the point it duplicates
func (sm SplitMap) Added() map[int]int {
	added := make(map[int]int)
	for _, mapping := range sm {
		for old, idx := range mapping {
			if old != idx {
				added[idx] = old
			}
		}
	}
	return added
}

// Duplicated reports the old point ids that were given a new id in some cell
func (sm SplitMap) Duplicated() map[int]bool {
	dup := make(map[int]bool)
	for _, mapping := range sm {
		for old, idx := range mapping {
			if old != idx {
				dup[old] = true
			}
		}
	}
	return dup
}

func (sm SplitMap) set(cell, old, idx int) {
	mapping, ok := sm[cell]
	if !ok {
		mapping = make(map[int]int)
		sm[cell] = mapping
	}
	mapping[old] = idx
}

// indexAllocator hands out point ids. The first claim on an id returns it
// unchanged; every later claim returns a fresh id from a counter starting
// just past the original points.
type indexAllocator struct {
	next int
	seen map[int]bool
}

func newIndexAllocator(numPoints int) *indexAllocator {
	return &indexAllocator{
		next: numPoints - 1,
		seen: make(map[int]bool),
	}
}

func (a *indexAllocator) allocate(index int) int {
	if a.seen[index] {
		a.next++
		return a.next
	}
	a.seen[index] = true
	return index
}

// resolveSplits assigns one point id per connected component of the cells
// around every fracture node. Nodes are visited in ascending order and
// components are ordered by their lowest cell id, so the component holding
// the lowest cell keeps the original id and the output is reproducible.
func resolveSplits(numPoints int, g graph.Undirected, nodeToCells map[int][]int) SplitMap {
	splits := make(SplitMap)
	alloc := newIndexAllocator(numPoints)

	nodes := make([]int, 0, len(nodeToCells))
	for n := range nodeToCells {
		nodes = append(nodes, n)
	}
	sort.Ints(nodes)

	for _, node := range nodes {
		for _, component := range connectedComponents(g, nodeToCells[node]) {
			idx := alloc.allocate(node)
			for _, c := range component {
				splits.set(c, node, idx)
			}
		}
	}
	return splits
}

// connectedComponents partitions cells into the connected components of the
// subgraph of g they induce. Each component is sorted and components are
// ordered by their first cell.
func connectedComponents(g graph.Undirected, cells []int) [][]int {
	inSet := make(map[int64]bool, len(cells))
	for _, c := range cells {
		inSet[int64(c)] = true
	}
	sorted := append([]int(nil), cells...)
	sort.Ints(sorted)

	var component []int
	bf := traverse.BreadthFirst{
		Visit: func(n graph.Node) { component = append(component, int(n.ID())) },
		Traverse: func(e graph.Edge) bool {
			return inSet[e.From().ID()] && inSet[e.To().ID()]
		},
	}
	var components [][]int
	for _, seed := range sorted {
		if bf.Visited(simple.Node(seed)) {
			continue
		}
		component = nil
		bf.Walk(g, simple.Node(seed), nil)
		sort.Ints(component)
		components = append(components, component)
	}
	return components
}
