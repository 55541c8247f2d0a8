package fractures

import (
	"fmt"

	"github.com/notargets/fracture/mesh"
)

// Info describes the fracture faces found for one target value set
type Info struct {
	// Fracture node → volumetric cells referencing it, ascending
	NodeToCells map[int][]int
	// Node ids of every fracture face
	FaceNodes [][]int
	// Source 2D cell of every fracture face (InternalSurfaces only)
	FaceCellID []int
}

// Nodes returns the fracture nodes in ascending order
func (info *Info) Nodes() []int {
	nodes := make([]int, 0, len(info.NodeToCells))
	for n := range info.NodeToCells {
		nodes = append(nodes, n)
	}
	return sortedUnique(nodes)
}

// infoBuilder extracts fracture faces for a target value set
type infoBuilder interface {
	build(m *mesh.Mesh, field []int, values map[int]bool) (*Info, error)
}

func newInfoBuilder(p Policy, fi *mesh.FaceIndex) (infoBuilder, error) {
	switch p {
	case Field:
		return &fieldBuilder{faces: fi}, nil
	case InternalSurfaces:
		return &internalSurfacesBuilder{}, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrUnknownPolicy, p)
}

// fieldBuilder finds faces between cells of different target values
type fieldBuilder struct {
	faces *mesh.FaceIndex
}

func (b *fieldBuilder) build(m *mesh.Mesh, field []int, values map[int]bool) (*Info, error) {
	info := &Info{NodeToCells: make(map[int][]int)}
	seen := make(map[string]bool)

	for c, cell := range m.Cells {
		if cell.Dimension() != 3 || !values[field[c]] {
			continue
		}
		for _, face := range cell.Faces() {
			neighbors := b.faces.Neighbors(c, face)
			if len(neighbors) > 1 {
				return nil, fmt.Errorf("%w: cell %d face %v has neighbors %v",
					ErrNonManifold, c, face, neighbors)
			}
			if len(neighbors) == 0 {
				continue
			}
			nv := field[neighbors[0]]
			if nv == field[c] || !values[nv] {
				continue
			}
			key := mesh.FaceKey(face)
			if seen[key] {
				continue
			}
			seen[key] = true
			info.FaceNodes = append(info.FaceNodes, append([]int(nil), face...))
		}
	}

	fractureNodes := make(map[int]bool)
	for _, face := range info.FaceNodes {
		for _, n := range face {
			fractureNodes[n] = true
		}
	}
	addIncidentCells(m, info, fractureNodes)
	return info, nil
}

// internalSurfacesBuilder turns tagged 2D cells into fracture faces
type internalSurfacesBuilder struct{}

func (b *internalSurfacesBuilder) build(m *mesh.Mesh, field []int, values map[int]bool) (*Info, error) {
	info := &Info{NodeToCells: make(map[int][]int)}
	fractureNodes := make(map[int]bool)

	for c, cell := range m.Cells {
		if cell.Dimension() != 2 || !values[field[c]] {
			continue
		}
		nodes := cell.PointIDs()
		info.FaceNodes = append(info.FaceNodes, nodes)
		info.FaceCellID = append(info.FaceCellID, c)
		for _, n := range nodes {
			fractureNodes[n] = true
		}
	}
	addIncidentCells(m, info, fractureNodes)
	return info, nil
}

// addIncidentCells fills NodeToCells by scanning every volumetric cell once.
// Cells are visited in ascending order, so the lists come out sorted.
func addIncidentCells(m *mesh.Mesh, info *Info, fractureNodes map[int]bool) {
	if len(fractureNodes) == 0 {
		return
	}
	for c, cell := range m.Cells {
		if cell.Dimension() != 3 {
			continue
		}
		for _, n := range cell.PointIDs() {
			if fractureNodes[n] {
				info.NodeToCells[n] = append(info.NodeToCells[n], c)
			}
		}
	}
}

// fieldValues reads the named scalar cell field as integers
func fieldValues(m *mesh.Mesh, name string) ([]int, error) {
	vals, ok := m.CellData.Scalar(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrFieldNotFound, name)
	}
	if len(vals) != m.NumCells() {
		return nil, fmt.Errorf("field %q has %d values for %d cells", name, len(vals), m.NumCells())
	}
	out := make([]int, len(vals))
	for i, v := range vals {
		out[i] = int(v)
	}
	return out, nil
}
