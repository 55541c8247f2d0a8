// Package writers saves meshes as legacy ASCII VTK unstructured grids.
package writers

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/notargets/fracture/mesh"
	"github.com/notargets/gocfd/utils"
	"gonum.org/v1/gonum/mat"
)

// VTK cell type codes
const (
	vtkVertex     = 1
	vtkLine       = 3
	vtkTriangle   = 5
	vtkPolygon    = 7
	vtkQuad       = 9
	vtkTetra      = 10
	vtkHexahedron = 12
	vtkWedge      = 13
	vtkPyramid    = 14
	vtkPolyhedron = 42
)

var vtkStandardTypes = map[utils.ElementType]int{
	utils.Point:    vtkVertex,
	utils.Line:     vtkLine,
	utils.Triangle: vtkTriangle,
	utils.Quad:     vtkQuad,
	utils.Tet:      vtkTetra,
	utils.Hex:      vtkHexahedron,
	utils.Prism:    vtkWedge,
	utils.Pyramid:  vtkPyramid,
}

// WriteVTK writes m to path, truncating any existing file
func WriteVTK(m *mesh.Mesh, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, m); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// Write encodes m in the legacy VTK format. Polyhedra are written as face
// streams and every attribute becomes a FIELD array.
func Write(w io.Writer, m *mesh.Mesh) error {
	types := make([]int, len(m.Cells))
	conn := make([][]int, len(m.Cells))
	size := 0
	for c, cell := range m.Cells {
		t, ids, err := encodeCell(cell)
		if err != nil {
			return fmt.Errorf("cell %d: %w", c, err)
		}
		types[c], conn[c] = t, ids
		size += 1 + len(ids)
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# vtk DataFile Version 4.2\n")
	fmt.Fprintf(bw, "fracture mesh\n")
	fmt.Fprintf(bw, "ASCII\n")
	fmt.Fprintf(bw, "DATASET UNSTRUCTURED_GRID\n")
	writeFields(bw, "FieldData", m.FieldData)

	fmt.Fprintf(bw, "POINTS %d double\n", m.NumPoints())
	for _, p := range m.Points {
		fmt.Fprintf(bw, "%s %s %s\n", formatFloat(p.X), formatFloat(p.Y), formatFloat(p.Z))
	}

	fmt.Fprintf(bw, "CELLS %d %d\n", len(conn), size)
	for _, ids := range conn {
		bw.WriteString(strconv.Itoa(len(ids)))
		for _, id := range ids {
			bw.WriteByte(' ')
			bw.WriteString(strconv.Itoa(id))
		}
		bw.WriteByte('\n')
	}
	fmt.Fprintf(bw, "CELL_TYPES %d\n", len(types))
	for _, t := range types {
		fmt.Fprintf(bw, "%d\n", t)
	}

	if m.CellData.Len() > 0 {
		fmt.Fprintf(bw, "CELL_DATA %d\n", m.NumCells())
		writeFields(bw, "CellData", m.CellData)
	}
	if m.PointData.Len() > 0 {
		fmt.Fprintf(bw, "POINT_DATA %d\n", m.NumPoints())
		writeFields(bw, "PointData", m.PointData)
	}
	return bw.Flush()
}

// encodeCell returns the VTK type and the connectivity list of a cell.
// A polyhedron list is: number of faces, then each face as count and ids.
func encodeCell(cell mesh.Cell) (int, []int, error) {
	switch t := cell.(type) {
	case mesh.Standard:
		code, ok := vtkStandardTypes[t.Type]
		if !ok {
			return 0, nil, fmt.Errorf("no VTK cell type for %s", t.Type)
		}
		return code, append([]int(nil), t.Points...), nil
	case mesh.Polygon:
		return vtkPolygon, append([]int(nil), t.Points...), nil
	case mesh.Polyhedron:
		ids := []int{len(t.FaceStream)}
		for _, face := range t.FaceStream {
			ids = append(ids, len(face))
			ids = append(ids, face...)
		}
		return vtkPolyhedron, ids, nil
	default:
		return 0, nil, fmt.Errorf("unsupported cell type %T", cell)
	}
}

func writeFields(w *bufio.Writer, kind string, a *mesh.Attributes) {
	if a.Len() == 0 {
		return
	}
	fmt.Fprintf(w, "FIELD %s %d\n", kind, a.Len())
	for _, name := range a.Names() {
		d, _ := a.Get(name)
		writeArray(w, name, d)
	}
}

func writeArray(w *bufio.Writer, name string, d *mat.Dense) {
	r, c := d.Dims()
	fmt.Fprintf(w, "%s %d %d double\n", strings.ReplaceAll(name, " ", "%20"), c, r)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if j > 0 {
				w.WriteByte(' ')
			}
			w.WriteString(formatFloat(d.At(i, j)))
		}
		w.WriteByte('\n')
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
