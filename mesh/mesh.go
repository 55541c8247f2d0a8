package mesh

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// GlobalIDsName is the attribute name holding global point and cell ids
const GlobalIDsName = "GlobalIds"

// Mesh is an unstructured mesh with named attributes on cells, points and
// the mesh as a whole.
type Mesh struct {
	Points []r3.Vec
	Cells  []Cell

	CellData  *Attributes // one row per cell
	PointData *Attributes // one row per point
	FieldData *Attributes // whole-mesh arrays
}

// NewMesh creates a mesh with empty attribute collections
func NewMesh(points []r3.Vec, cells []Cell) *Mesh {
	return &Mesh{
		Points:    points,
		Cells:     cells,
		CellData:  NewAttributes(),
		PointData: NewAttributes(),
		FieldData: NewAttributes(),
	}
}

func (m *Mesh) NumPoints() int { return len(m.Points) }
func (m *Mesh) NumCells() int  { return len(m.Cells) }

// Validate checks that every point id is in range and that cell and point
// attributes have one row per entity.
func (m *Mesh) Validate() error {
	np := m.NumPoints()
	for c, cell := range m.Cells {
		for _, p := range cell.PointIDs() {
			if p >= np {
				return fmt.Errorf("cell %d references point %d, mesh has %d points", c, p, np)
			}
		}
	}
	check := func(kind string, a *Attributes, rows int) error {
		for _, name := range a.Names() {
			d, _ := a.Get(name)
			if r, _ := d.Dims(); r != rows {
				return fmt.Errorf("%s attribute %q has %d rows, expected %d", kind, name, r, rows)
			}
		}
		return nil
	}
	if err := check("cell", m.CellData, m.NumCells()); err != nil {
		return err
	}
	return check("point", m.PointData, np)
}

// GenerateGlobalIDs stores 0..n-1 as the GlobalIds attribute of cells and points
func GenerateGlobalIDs(m *Mesh) {
	ids := func(n int) []float64 {
		out := make([]float64, n)
		for i := range out {
			out[i] = float64(i)
		}
		return out
	}
	if d := NewScalarArray(ids(m.NumCells())); d != nil {
		m.CellData.Set(GlobalIDsName, d)
	}
	if d := NewScalarArray(ids(m.NumPoints())); d != nil {
		m.PointData.Set(GlobalIDsName, d)
	}
}

// String returns a short summary of the mesh
func (m *Mesh) String() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Mesh: %d points, %d cells\n", m.NumPoints(), m.NumCells()))

	dimCounts := make(map[int]int)
	typeCounts := make(map[string]int)
	for _, c := range m.Cells {
		dimCounts[c.Dimension()]++
		typeCounts[cellTypeName(c)]++
	}
	for dim := 0; dim <= 3; dim++ {
		if n := dimCounts[dim]; n > 0 {
			sb.WriteString(fmt.Sprintf("  %dD cells: %d\n", dim, n))
		}
	}
	names := make([]string, 0, len(typeCounts))
	for name := range typeCounts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		sb.WriteString(fmt.Sprintf("    %s: %d\n", name, typeCounts[name]))
	}

	writeAttrs := func(kind string, a *Attributes) {
		for _, name := range a.Names() {
			d, _ := a.Get(name)
			r, c := d.Dims()
			sb.WriteString(fmt.Sprintf("  %s array %q: %d×%d\n", kind, name, r, c))
		}
	}
	writeAttrs("cell", m.CellData)
	writeAttrs("point", m.PointData)
	writeAttrs("field", m.FieldData)

	return sb.String()
}

func cellTypeName(c Cell) string {
	switch t := c.(type) {
	case Standard:
		return t.Type.String()
	case Polygon:
		return "Polygon"
	case Polyhedron:
		return "Polyhedron"
	default:
		return fmt.Sprintf("%T", c)
	}
}
