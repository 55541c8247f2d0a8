// Package meshtest builds small structured meshes used as test fixtures.
package meshtest

import (
	"github.com/notargets/fracture/mesh"
	"github.com/notargets/gocfd/utils"
	"gonum.org/v1/gonum/spatial/r3"
)

// HexGrid builds a structured hexahedral mesh over the tensor product of
// the given coordinate lines. Point (i,j,k) has id i + nx*(j + ny*k) with
// nx = len(xs), ny = len(ys); cells are numbered with i varying fastest.
func HexGrid(xs, ys, zs []float64) *mesh.Mesh {
	nx, ny, nz := len(xs), len(ys), len(zs)
	pid := func(i, j, k int) int { return i + nx*(j+ny*k) }

	points := make([]r3.Vec, 0, nx*ny*nz)
	for k := 0; k < nz; k++ {
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				points = append(points, r3.Vec{X: xs[i], Y: ys[j], Z: zs[k]})
			}
		}
	}

	var cells []mesh.Cell
	for k := 0; k+1 < nz; k++ {
		for j := 0; j+1 < ny; j++ {
			for i := 0; i+1 < nx; i++ {
				cells = append(cells, mesh.Standard{
					Type: utils.Hex,
					Points: []int{
						pid(i, j, k), pid(i+1, j, k), pid(i+1, j+1, k), pid(i, j+1, k),
						pid(i, j, k+1), pid(i+1, j, k+1), pid(i+1, j+1, k+1), pid(i, j+1, k+1),
					},
				})
			}
		}
	}
	return mesh.NewMesh(points, cells)
}

// Linspace returns n evenly spaced values from start to stop inclusive
func Linspace(start, stop float64, n int) []float64 {
	if n == 1 {
		return []float64{start}
	}
	out := make([]float64, n)
	step := (stop - start) / float64(n-1)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}
