package mesh

import (
	"github.com/notargets/gocfd/utils"
)

// Cell is the topology of one mesh cell. It is implemented by Standard,
// Polygon and Polyhedron; consumers that rebuild topology switch on the
// concrete type.
type Cell interface {
	Dimension() int
	// PointIDs returns the distinct point ids of the cell in first-seen order
	PointIDs() []int
	// Faces returns the 2D faces bounding a volumetric cell, nil otherwise
	Faces() [][]int
}

// Standard is a cell described by a gocfd element type and a flat point list
type Standard struct {
	Type   utils.ElementType
	Points []int
}

// Polygon is an arbitrary planar polygon with its points in winding order
type Polygon struct {
	Points []int
}

// Polyhedron is a volumetric cell described by its face stream
type Polyhedron struct {
	FaceStream [][]int
}

func (c Standard) Dimension() int  { return c.Type.GetDimension() }
func (c Standard) PointIDs() []int { return uniqueInOrder(c.Points) }

// HigherOrder reports whether the element carries nodes besides its corners.
// Faces of such cells list the corners only.
func (c Standard) HigherOrder() bool {
	return len(c.Type.GetCornerNodes()) < c.Type.GetNumNodes()
}

func (c Standard) Faces() [][]int {
	if c.Dimension() != 3 {
		return nil
	}
	return utils.GetElementFaces(c.Type, c.Points)
}

func (c Polygon) Dimension() int  { return 2 }
func (c Polygon) PointIDs() []int { return uniqueInOrder(c.Points) }
func (c Polygon) Faces() [][]int  { return nil }

func (c Polyhedron) Dimension() int { return 3 }

func (c Polyhedron) PointIDs() []int {
	var all []int
	for _, f := range c.FaceStream {
		all = append(all, f...)
	}
	return uniqueInOrder(all)
}

func (c Polyhedron) Faces() [][]int {
	faces := make([][]int, len(c.FaceStream))
	for i, f := range c.FaceStream {
		faces[i] = append([]int(nil), f...)
	}
	return faces
}

// NewSurfaceCell returns the natural 2D cell for a face: a Triangle or Quad
// when the point count allows, a Polygon otherwise.
func NewSurfaceCell(points []int) Cell {
	pts := append([]int(nil), points...)
	switch len(pts) {
	case 3:
		return Standard{Type: utils.Triangle, Points: pts}
	case 4:
		return Standard{Type: utils.Quad, Points: pts}
	default:
		return Polygon{Points: pts}
	}
}

func uniqueInOrder(ids []int) []int {
	seen := make(map[int]bool, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if id < 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
