// Package readers loads volume meshes from the file formats supported by
// gocfd (Gambit neutral, Gmsh, SU2) into mesh.Mesh.
package readers

import (
	"fmt"

	"github.com/notargets/fracture/mesh"
	cfdmesh "github.com/notargets/gocfd/DG3D/mesh"
	cfdreaders "github.com/notargets/gocfd/DG3D/mesh/readers"
	"gonum.org/v1/gonum/spatial/r3"
)

// AttributeName is the cell field filled from the first element tag
const AttributeName = "attribute"

// ReadMeshFile reads a mesh file, the format is chosen by gocfd from the
// file extension and contents.
func ReadMeshFile(path string) (*mesh.Mesh, error) {
	cm, err := cfdreaders.ReadMeshFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	m, err := FromGocfd(cm)
	if err != nil {
		return nil, fmt.Errorf("converting %s: %w", path, err)
	}
	return m, nil
}

// FromGocfd converts a gocfd mesh. Vertices keep their array order, padding
// entries (-1) are dropped from the connectivity and the physical tag of
// each element becomes the "attribute" cell field (0 when untagged).
func FromGocfd(cm *cfdmesh.Mesh) (*mesh.Mesh, error) {
	points := make([]r3.Vec, len(cm.Vertices))
	for i, v := range cm.Vertices {
		switch len(v) {
		case 2:
			points[i] = r3.Vec{X: v[0], Y: v[1]}
		case 3:
			points[i] = r3.Vec{X: v[0], Y: v[1], Z: v[2]}
		default:
			return nil, fmt.Errorf("vertex %d has %d coordinates", i, len(v))
		}
	}

	if len(cm.ElementTypes) != len(cm.EtoV) {
		return nil, fmt.Errorf("%d element types for %d elements", len(cm.ElementTypes), len(cm.EtoV))
	}
	cells := make([]mesh.Cell, len(cm.EtoV))
	attribute := make([]float64, len(cm.EtoV))
	for e, verts := range cm.EtoV {
		pts := make([]int, 0, len(verts))
		for _, v := range verts {
			if v < 0 {
				continue
			}
			if v >= len(points) {
				return nil, fmt.Errorf("element %d references vertex %d, mesh has %d", e, v, len(points))
			}
			pts = append(pts, v)
		}
		cells[e] = mesh.Standard{Type: cm.ElementTypes[e], Points: pts}
		if e < len(cm.ElementTags) && len(cm.ElementTags[e]) > 0 {
			attribute[e] = float64(cm.ElementTags[e][0])
		}
	}

	m := mesh.NewMesh(points, cells)
	if arr := mesh.NewScalarArray(attribute); arr != nil {
		m.CellData.Set(AttributeName, arr)
	}
	return m, nil
}
