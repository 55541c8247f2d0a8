package fractures

import (
	"fmt"

	"github.com/notargets/fracture/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// rebuildVolume materializes the duplicated points and renumbers every cell
// according to splits. Cell and field data are copied unchanged; point data
// is stretched so that each duplicate inherits its source row.
func rebuildVolume(m *mesh.Mesh, splits SplitMap) (*mesh.Mesh, error) {
	added := splits.Added()
	numOld := m.NumPoints()
	numNew := numOld + len(added)

	points := make([]r3.Vec, numNew)
	copy(points, m.Points)
	for idx, old := range added {
		if idx < numOld || idx >= numNew {
			return nil, fmt.Errorf("duplicate point id %d outside [%d,%d)", idx, numOld, numNew)
		}
		points[idx] = m.Points[old]
	}

	cells := make([]mesh.Cell, len(m.Cells))
	for c, cell := range m.Cells {
		mapping := splits[c]
		switch t := cell.(type) {
		case mesh.Standard:
			cells[c] = mesh.Standard{Type: t.Type, Points: remap(t.Points, mapping)}
		case mesh.Polygon:
			cells[c] = mesh.Polygon{Points: remap(t.Points, mapping)}
		case mesh.Polyhedron:
			// The face stream is remapped face by face to keep the polyhedron faces
			stream := make([][]int, len(t.FaceStream))
			for f, face := range t.FaceStream {
				stream[f] = remap(face, mapping)
			}
			cells[c] = mesh.Polyhedron{FaceStream: stream}
		default:
			return nil, fmt.Errorf("cell %d: unsupported cell type %T", c, cell)
		}
	}

	pointData, err := m.PointData.Stretch(numNew, added)
	if err != nil {
		return nil, err
	}
	return &mesh.Mesh{
		Points:    points,
		Cells:     cells,
		CellData:  m.CellData.Clone(),
		PointData: pointData,
		FieldData: m.FieldData.Clone(),
	}, nil
}

func remap(ids []int, mapping map[int]int) []int {
	out := make([]int, len(ids))
	for i, id := range ids {
		if idx, ok := mapping[id]; ok {
			out[i] = idx
		} else {
			out[i] = id
		}
	}
	return out
}
