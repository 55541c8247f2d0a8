package mesh

import (
	"sort"
	"strconv"
	"strings"
)

// FaceKey returns an order-independent key for a face: its point ids sorted
// and joined. Both cells sharing a face produce the same key whatever their
// local winding.
func FaceKey(points []int) string {
	sorted := append([]int(nil), points...)
	sort.Ints(sorted)
	parts := make([]string, len(sorted))
	for i, v := range sorted {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, "-")
}

// FaceIndex maps every face of the volumetric cells of a mesh to the cells
// bounded by it. It is built once and never modified, so neighbor queries
// can run while other structures are being assembled.
type FaceIndex struct {
	cells map[string][]int
}

// NewFaceIndex indexes the faces of all volumetric cells of m
func NewFaceIndex(m *Mesh) *FaceIndex {
	fi := &FaceIndex{cells: make(map[string][]int)}
	for c, cell := range m.Cells {
		if cell.Dimension() != 3 {
			continue
		}
		for _, face := range cell.Faces() {
			key := FaceKey(face)
			fi.cells[key] = append(fi.cells[key], c)
		}
	}
	return fi
}

// Neighbors returns the volumetric cells other than cellID bounded by face.
// A manifold mesh yields at most one.
func (fi *FaceIndex) Neighbors(cellID int, face []int) []int {
	var out []int
	for _, c := range fi.cells[FaceKey(face)] {
		if c != cellID {
			out = append(out, c)
		}
	}
	return out
}
