package fractures

import (
	"sort"

	"github.com/notargets/fracture/mesh"
	"gonum.org/v1/gonum/graph/simple"
)

// buildCellGraph connects the volumetric cells touching a fracture node
// whenever they share a face that is not a fracture face. Every candidate
// cell is a vertex, including cells that end up without edges.
func buildCellGraph(m *mesh.Mesh, info *Info) *simple.UndirectedGraph {
	fractureFaces := make(map[string]bool, len(info.FaceNodes))
	for _, face := range info.FaceNodes {
		fractureFaces[mesh.FaceKey(face)] = true
	}

	candidates := make(map[int]bool)
	for _, cells := range info.NodeToCells {
		for _, c := range cells {
			candidates[c] = true
		}
	}
	cellIDs := make([]int, 0, len(candidates))
	for c := range candidates {
		cellIDs = append(cellIDs, c)
	}
	sort.Ints(cellIDs)

	g := simple.NewUndirectedGraph()
	faceToCells := make(map[string][]int)
	for _, c := range cellIDs {
		g.AddNode(simple.Node(c))
		for _, face := range m.Cells[c].Faces() {
			key := mesh.FaceKey(face)
			if fractureFaces[key] {
				continue
			}
			faceToCells[key] = append(faceToCells[key], c)
		}
	}

	for _, cells := range faceToCells {
		if len(cells) == 2 && cells[0] != cells[1] {
			g.SetEdge(g.NewEdge(simple.Node(cells[0]), simple.Node(cells[1])))
		}
	}
	return g
}
