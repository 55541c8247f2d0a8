package fractures

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sort"
	"testing"

	"github.com/notargets/fracture/ctxlog"
	"github.com/notargets/fracture/mesh"
	"github.com/notargets/fracture/mesh/meshtest"
	"github.com/notargets/gocfd/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// hexRow builds n hexahedra along x with the given cell field values.
// Point (i,j,k) has id i + (n+1)*(j + 2*k).
func hexRow(field ...float64) *mesh.Mesh {
	n := len(field)
	m := meshtest.HexGrid(meshtest.Linspace(0, float64(n), n+1), meshtest.Linspace(0, 1, 2), meshtest.Linspace(0, 1, 2))
	m.CellData.Set("attribute", mesh.NewScalarArray(field))
	return m
}

// hexSquare builds 2×2 hexahedra in the xy plane, cells numbered x first.
// Point (i,j,k) has id i + 3*j + 9*k.
func hexSquare(field ...float64) *mesh.Mesh {
	m := meshtest.HexGrid(meshtest.Linspace(0, 2, 3), meshtest.Linspace(0, 2, 3), meshtest.Linspace(0, 1, 2))
	m.CellData.Set("attribute", mesh.NewScalarArray(field))
	return m
}

func fieldOptions(perFracture ...[]int) Options {
	return Options{Policy: Field, Field: "attribute", FieldValuesPerFracture: perFracture}
}

// sourceOf maps a point of the split mesh back to the point it duplicates
func sourceOf(res *Result) func(int) int {
	added := res.Splits.Added()
	return func(p int) int {
		if src, ok := added[p]; ok {
			return src
		}
		return p
	}
}

func assertRoundTrip(t *testing.T, orig *mesh.Mesh, res *Result) {
	t.Helper()
	src := sourceOf(res)
	require.Equal(t, orig.NumCells(), res.Mesh.NumCells())
	for c := range orig.Cells {
		want := orig.Cells[c].PointIDs()
		got := res.Mesh.Cells[c].PointIDs()
		for i := range got {
			got[i] = src(got[i])
		}
		assert.Equal(t, want, got, "cell %d", c)
	}
	for p := orig.NumPoints(); p < res.Mesh.NumPoints(); p++ {
		assert.Equal(t, orig.Points[src(p)], res.Mesh.Points[p], "point %d", p)
	}
}

func assertConservation(t *testing.T, orig *mesh.Mesh, res *Result) {
	t.Helper()
	distinct := make(map[int]bool)
	for _, mapping := range res.Splits {
		for old, idx := range mapping {
			if old != idx {
				distinct[idx] = true
			}
		}
	}
	assert.Equal(t, len(distinct), res.NewPoints)
	assert.Equal(t, orig.NumPoints()+len(distinct), res.Mesh.NumPoints())
}

func collocated(t *testing.T, frac *mesh.Mesh) [][]int {
	t.Helper()
	arr, ok := frac.PointData.Get(CollocatedNodesName)
	require.True(t, ok, "fracture mesh has no %s attribute", CollocatedNodesName)
	r, c := arr.Dims()
	out := make([][]int, r)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out[i] = append(out[i], int(arr.At(i, j)))
		}
	}
	return out
}

// Two hexahedra sharing one quad face with different field values
func TestSplit_TwoHexes(t *testing.T) {
	m := hexRow(0, 1)
	res, err := Split(context.Background(), m, fieldOptions([]int{0, 1}))
	require.NoError(t, err)

	if res.NewPoints != 4 {
		t.Fatalf("Expected 4 duplicated points, got %d", res.NewPoints)
	}
	assert.Equal(t, 16, res.Mesh.NumPoints())

	// Cell 0 keeps the shared face, cell 1 gets 12..15
	assert.Equal(t, []int{0, 1, 4, 3, 6, 7, 10, 9}, res.Mesh.Cells[0].PointIDs())
	assert.Equal(t, []int{12, 2, 5, 13, 14, 8, 11, 15}, res.Mesh.Cells[1].PointIDs())

	require.Len(t, res.Fractures, 1)
	frac := res.Fractures[0].Mesh
	require.Equal(t, 1, frac.NumCells())
	assert.Equal(t, mesh.Standard{Type: utils.Quad, Points: []int{0, 1, 2, 3}}, frac.Cells[0])
	assert.Equal(t, 4, frac.NumPoints())
	assert.Empty(t, res.Fractures[0].Discarded)

	// Fracture face nodes in cell 0 face order: 1, 4, 10, 7
	assert.Equal(t, [][]int{{1, 12}, {4, 13}, {10, 15}, {7, 14}}, collocated(t, frac))
	for i, bucket := range collocated(t, frac) {
		assert.Len(t, bucket, 2, "bucket %d", i)
	}
	assert.Equal(t, m.Points[10], frac.Points[2])

	// The Field policy never carries attributes over
	assert.Equal(t, 0, frac.CellData.Len())
	assert.Equal(t, []string{CollocatedNodesName}, frac.PointData.Names())

	assertConservation(t, m, res)
	assertRoundTrip(t, m, res)
}

// A single cell has no neighbor, hence no fracture
func TestSplit_IsolatedCell(t *testing.T) {
	m := hexRow(0)
	res, err := Split(context.Background(), m, fieldOptions([]int{0}))
	require.NoError(t, err)

	assert.Equal(t, 0, res.NewPoints)
	assert.Empty(t, res.Splits)
	assert.Equal(t, m.Points, res.Mesh.Points)
	assert.Equal(t, m.Cells, res.Mesh.Cells)

	require.Len(t, res.Fractures, 1)
	assert.Equal(t, 0, res.Fractures[0].Mesh.NumCells())
	assert.Equal(t, 0, res.Fractures[0].Mesh.NumPoints())
}

// Cells with a single field value never straddle a discontinuity
func TestSplit_NoDiscontinuityIsIdentity(t *testing.T) {
	m := hexSquare(3, 3, 3, 3)
	m.PointData.Set("temperature", mesh.NewScalarArray(make([]float64, m.NumPoints())))

	res, err := Split(context.Background(), m, fieldOptions([]int{3}))
	require.NoError(t, err)

	assert.Equal(t, 0, res.NewPoints)
	assert.Equal(t, m.Points, res.Mesh.Points)
	assert.Equal(t, m.Cells, res.Mesh.Cells)
	assert.Equal(t, m.CellData.Names(), res.Mesh.CellData.Names())
	assert.Equal(t, m.PointData.Names(), res.Mesh.PointData.Names())
}

// A split mesh no longer has cells straddling the fracture
func TestSplit_ResplitIsIdentity(t *testing.T) {
	first, err := Split(context.Background(), hexSquare(0, 1, 0, 1), fieldOptions([]int{0, 1}))
	require.NoError(t, err)

	again, err := Split(context.Background(), first.Mesh, fieldOptions([]int{0, 1}))
	require.NoError(t, err)
	assert.Equal(t, 0, again.NewPoints)
	assert.Equal(t, first.Mesh.Points, again.Mesh.Points)
	assert.Equal(t, first.Mesh.Cells, again.Mesh.Cells)
	assert.Equal(t, 0, again.Fractures[0].Mesh.NumCells())
}

// Three hexahedra in a row; 2D quads tag the two interior faces and one
// boundary face, which cannot produce any duplicate.
func TestSplit_InternalSurfaces(t *testing.T) {
	m := meshtest.HexGrid(meshtest.Linspace(0, 3, 4), meshtest.Linspace(0, 1, 2), meshtest.Linspace(0, 1, 2))
	m.Cells = append(m.Cells,
		mesh.NewSurfaceCell([]int{0, 4, 12, 8}),  // x = 0, boundary
		mesh.NewSurfaceCell([]int{1, 5, 13, 9}),  // x = 1
		mesh.NewSurfaceCell([]int{2, 6, 14, 10}), // x = 2
	)
	m.CellData.Set("attribute", mesh.NewScalarArray([]float64{0, 0, 0, 7, 7, 7}))
	m.CellData.Set("aperture", mesh.NewScalarArray([]float64{0, 0, 0, 0.1, 0.2, 0.3}))
	pressure := make([]float64, m.NumPoints())
	for i := range pressure {
		pressure[i] = float64(100 + i)
	}
	m.PointData.Set("pressure", mesh.NewScalarArray(pressure))

	var buf bytes.Buffer
	ctx := ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(&buf, nil)))

	opts := Options{Policy: InternalSurfaces, Field: "attribute", FieldValuesPerFracture: [][]int{{7}}}
	res, err := Split(ctx, m, opts)
	require.NoError(t, err)

	assert.Equal(t, 8, res.NewPoints)
	assert.Equal(t, 24, res.Mesh.NumPoints())

	require.Len(t, res.Fractures, 1)
	f := res.Fractures[0]
	assert.Equal(t, 2, f.Mesh.NumCells())
	assert.LessOrEqual(t, f.Mesh.NumCells(), 3)
	require.Len(t, f.Discarded, 1)
	assert.Equal(t, DiscardedFace{Index: 0, Nodes: []int{0, 4, 12, 8}, CellID: 3}, f.Discarded[0])
	assert.Contains(t, buf.String(), "Discarding fracture face")
	assert.Equal(t, 1, res.NumDiscarded())

	// Attributes follow the retained source cells and fracture nodes
	aperture, ok := f.Mesh.CellData.Scalar("aperture")
	require.True(t, ok)
	assert.Equal(t, []float64{0.2, 0.3}, aperture)
	fp, ok := f.Mesh.PointData.Scalar("pressure")
	require.True(t, ok)
	assert.Equal(t, []float64{101, 105, 113, 109, 102, 106, 114, 110}, fp)
	// Nodes are visited in ascending order: 1→16, 2→17, 5→18, 6→19, 9→20, ...
	assert.Equal(t, [][]int{{1, 16}, {5, 18}, {13, 22}, {9, 20}, {2, 17}, {6, 19}, {14, 23}, {10, 21}},
		collocated(t, f.Mesh))

	// Duplicates inherit point data; 2D cells keep their nodes
	vp, ok := res.Mesh.PointData.Scalar("pressure")
	require.True(t, ok)
	require.Len(t, vp, 24)
	assert.Equal(t, 101.0, vp[16])
	assert.Equal(t, 113.0, vp[22])
	assert.Equal(t, 110.0, vp[21])
	assert.Equal(t, m.Cells[4], res.Mesh.Cells[4])

	assertConservation(t, m, res)
	assertRoundTrip(t, m, res)
}

// Cells on the same side of the fracture stay attached to each other
func TestSplit_FullCutThroughSquare(t *testing.T) {
	m := hexSquare(0, 1, 0, 1)
	res, err := Split(context.Background(), m, fieldOptions([]int{0, 1}))
	require.NoError(t, err)

	// The six nodes on x = 1 are duplicated exactly once each
	assert.Equal(t, 6, res.NewPoints)
	require.Len(t, res.Fractures, 1)
	frac := res.Fractures[0].Mesh
	assert.Equal(t, 2, frac.NumCells())
	assert.Equal(t, 6, frac.NumPoints())
	src := sourceOf(res)
	for _, bucket := range collocated(t, frac) {
		assert.Len(t, bucket, 2)
		assert.NotContains(t, bucket, CollocatedPad)
		// Merging a bucket gives back a single original point
		assert.Equal(t, src(bucket[0]), src(bucket[1]))
		assert.Equal(t, bucket[0], src(bucket[1]))
	}

	// Cells 0 and 2 share the middle node 4 (i=1, j=1, k=0); so do 1 and 3
	mid := func(c int) int { return res.Mesh.Cells[c].(mesh.Standard).Points[2] }
	assert.Equal(t, 4, mid(0))
	assert.Equal(t, res.Mesh.Cells[2].(mesh.Standard).Points[1], mid(0))
	assert.NotEqual(t, 4, res.Mesh.Cells[1].(mesh.Standard).Points[3])
	assert.Equal(t, res.Mesh.Cells[1].(mesh.Standard).Points[3], res.Mesh.Cells[3].(mesh.Standard).Points[0])

	assertConservation(t, m, res)
	assertRoundTrip(t, m, res)
}

// A fracture ending inside the mesh leaves its tip nodes attached
func TestSplit_PartialFracturePadsCollocated(t *testing.T) {
	m := hexSquare(0, 1, 2, 2)
	res, err := Split(context.Background(), m, fieldOptions([]int{0, 1}))
	require.NoError(t, err)

	// Only the nodes at (1,0,k) are cut; (1,1,k) stay connected through cells 2 and 3
	assert.Equal(t, 2, res.NewPoints)

	frac := res.Fractures[0].Mesh
	require.Equal(t, 1, frac.NumCells())
	buckets := collocated(t, frac)
	require.Len(t, buckets, 4)

	padded := 0
	for _, bucket := range buckets {
		require.Len(t, bucket, 2)
		if bucket[1] == CollocatedPad {
			padded++
		}
	}
	assert.Equal(t, 2, padded, "tip nodes have a single collocated node")

	assertConservation(t, m, res)
	assertRoundTrip(t, m, res)
}

// Two fractures split together, each with its own surface mesh
func TestSplit_TwoFractures(t *testing.T) {
	m := hexRow(0, 1, 2)
	res, err := Split(context.Background(), m, fieldOptions([]int{0, 1}, []int{1, 2}))
	require.NoError(t, err)

	assert.Equal(t, 8, res.NewPoints)
	require.Len(t, res.Fractures, 2)
	assert.Equal(t, []int{0, 1}, res.Fractures[0].Values)
	assert.Equal(t, []int{1, 2}, res.Fractures[1].Values)

	for i, f := range res.Fractures {
		assert.Equal(t, 1, f.Mesh.NumCells(), "fracture %d", i)
		assert.Equal(t, 4, f.Mesh.NumPoints(), "fracture %d", i)
	}
	assert.Equal(t, 1.0, res.Fractures[0].Mesh.Points[0].X)
	assert.Equal(t, 2.0, res.Fractures[1].Mesh.Points[0].X)

	// The middle cell is cut off on both sides
	for _, p := range res.Mesh.Cells[1].PointIDs() {
		for _, c := range []int{0, 2} {
			assert.NotContains(t, res.Mesh.Cells[c].PointIDs(), p)
		}
	}

	assertConservation(t, m, res)
	assertRoundTrip(t, m, res)
	assert.Contains(t, res.String(), "Fracture 1 (values [1 2])")
}

// Polyhedra are renumbered face by face
func TestSplit_Polyhedron(t *testing.T) {
	m := hexRow(0, 1)
	hex := m.Cells[1].(mesh.Standard)
	m.Cells[1] = mesh.Polyhedron{FaceStream: hex.Faces()}

	res, err := Split(context.Background(), m, fieldOptions([]int{0, 1}))
	require.NoError(t, err)
	assert.Equal(t, 4, res.NewPoints)

	poly, ok := res.Mesh.Cells[1].(mesh.Polyhedron)
	require.True(t, ok, "cell 1 must remain a polyhedron, got %T", res.Mesh.Cells[1])
	require.Len(t, poly.FaceStream, 6)
	// Face 5 of the hex (v3 v0 v4 v7) is the shared face 4 1 7 10
	assert.Equal(t, []int{13, 12, 14, 15}, poly.FaceStream[5])
	// Face 3 (v1 v2 v6 v5) is on the far boundary and unchanged
	assert.Equal(t, []int{2, 5, 11, 8}, poly.FaceStream[3])

	assertRoundTrip(t, m, res)
}

func TestSplit_CombinedValuesOverride(t *testing.T) {
	m := hexRow(0, 1, 2)

	// Splitting along 0|1 only, although the fracture of interest is 1|2
	opts := fieldOptions([]int{1, 2})
	opts.FieldValuesCombined = []int{0, 1}
	res, err := Split(context.Background(), m, opts)
	require.NoError(t, err)

	assert.Equal(t, 4, res.NewPoints)
	f := res.Fractures[0]
	assert.Equal(t, 0, f.Mesh.NumCells())
	assert.Len(t, f.Discarded, 1)
}

func TestSplit_PointCoordinatesAreCopied(t *testing.T) {
	m := hexRow(0, 1)
	res, err := Split(context.Background(), m, fieldOptions([]int{0, 1}))
	require.NoError(t, err)

	pts := res.Mesh.Points[12:]
	var xs []float64
	for _, p := range pts {
		xs = append(xs, p.X)
	}
	assert.Equal(t, []float64{1, 1, 1, 1}, xs)
	assert.NotSame(t, &m.Points[0], &res.Mesh.Points[0])
}

func TestSplit_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("MissingField", func(t *testing.T) {
		opts := fieldOptions([]int{0, 1})
		opts.Field = "region"
		_, err := Split(ctx, hexRow(0, 1), opts)
		assert.True(t, errors.Is(err, ErrFieldNotFound), "got %v", err)
	})

	t.Run("GlobalIDs", func(t *testing.T) {
		m := hexRow(0, 1)
		mesh.GenerateGlobalIDs(m)
		_, err := Split(ctx, m, fieldOptions([]int{0, 1}))
		assert.ErrorIs(t, err, ErrGlobalIDsPresent)
	})

	t.Run("NoFractures", func(t *testing.T) {
		_, err := Split(ctx, hexRow(0, 1), fieldOptions())
		assert.ErrorIs(t, err, ErrNoFractures)
		_, err = Split(ctx, hexRow(0, 1), fieldOptions([]int{}))
		assert.ErrorIs(t, err, ErrNoFractures)
	})

	t.Run("UnknownPolicy", func(t *testing.T) {
		opts := fieldOptions([]int{0, 1})
		opts.Policy = Policy(9)
		_, err := Split(ctx, hexRow(0, 1), opts)
		assert.ErrorIs(t, err, ErrUnknownPolicy)
	})

	t.Run("NonManifold", func(t *testing.T) {
		m := hexRow(0, 1)
		dup := m.Cells[1].(mesh.Standard)
		m.Cells = append(m.Cells, mesh.Standard{Type: dup.Type, Points: append([]int(nil), dup.Points...)})
		m.CellData.Set("attribute", mesh.NewScalarArray([]float64{0, 1, 1}))
		_, err := Split(ctx, m, fieldOptions([]int{0, 1}))
		assert.ErrorIs(t, err, ErrNonManifold)
	})
}

// Two Tet10 cells sharing the corners 0 1 2 and the mid-edge nodes 4 5 6.
// Their faces list corners only, so the mid-edge nodes would stay shared.
func TestSplit_RejectsHigherOrderCells(t *testing.T) {
	points := make([]r3.Vec, 14)
	for i := range points {
		points[i] = r3.Vec{X: float64(i)}
	}
	m := mesh.NewMesh(points, []mesh.Cell{
		mesh.Standard{Type: utils.Tet10, Points: []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}},
		mesh.Standard{Type: utils.Tet10, Points: []int{0, 2, 1, 10, 6, 5, 4, 11, 12, 13}},
	})
	m.CellData.Set("attribute", mesh.NewScalarArray([]float64{0, 1}))

	_, err := Split(context.Background(), m, fieldOptions([]int{0, 1}))
	require.ErrorIs(t, err, ErrUnsupportedCell)
	assert.Contains(t, err.Error(), "cell 0")

	// The same topology with linear cells splits the three shared corners
	for c := range m.Cells {
		tet := m.Cells[c].(mesh.Standard)
		m.Cells[c] = mesh.Standard{Type: utils.Tet, Points: tet.Points[:4]}
	}
	res, err := Split(context.Background(), m, fieldOptions([]int{0, 1}))
	require.NoError(t, err)
	assert.Equal(t, 3, res.NewPoints)
	for _, p := range res.Mesh.Cells[1].PointIDs() {
		assert.NotContains(t, res.Mesh.Cells[0].PointIDs(), p)
	}
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("field")
	require.NoError(t, err)
	assert.Equal(t, Field, p)

	p, err = ParsePolicy(" Internal_Surfaces ")
	require.NoError(t, err)
	assert.Equal(t, InternalSurfaces, p)
	assert.Equal(t, "internal_surfaces", p.String())

	_, err = ParsePolicy("tetgen")
	assert.ErrorIs(t, err, ErrUnknownPolicy)
}

func TestBuildInfoField(t *testing.T) {
	m := hexSquare(0, 1, 2, 2)
	field, err := fieldValues(m, "attribute")
	require.NoError(t, err)

	b, err := newInfoBuilder(Field, mesh.NewFaceIndex(m))
	require.NoError(t, err)
	info, err := b.build(m, field, valueSet([]int{0, 1, 2}))
	require.NoError(t, err)

	// Faces 0|1, 0|2, 1|3; the face 2|3 has equal values
	require.Len(t, info.FaceNodes, 3)
	assert.Empty(t, info.FaceCellID)
	keys := make([]string, len(info.FaceNodes))
	for i, f := range info.FaceNodes {
		keys[i] = mesh.FaceKey(f)
	}
	sort.Strings(keys)
	assert.Equal(t, []string{"1-4-10-13", "3-4-12-13", "4-5-13-14"}, keys)

	assert.Equal(t, []int{0, 1, 2, 3}, info.NodeToCells[4])
	assert.Equal(t, []int{0, 1}, info.NodeToCells[1])
	assert.Equal(t, []int{1, 3}, info.NodeToCells[5])
	_, onFracture := info.NodeToCells[0]
	assert.False(t, onFracture)
	assert.Equal(t, []int{1, 3, 4, 5, 10, 12, 13, 14}, info.Nodes())
}

func TestBuildCellGraph(t *testing.T) {
	m := hexSquare(0, 1, 2, 2)
	field, err := fieldValues(m, "attribute")
	require.NoError(t, err)
	b, err := newInfoBuilder(Field, mesh.NewFaceIndex(m))
	require.NoError(t, err)
	info, err := b.build(m, field, valueSet([]int{0, 1, 2}))
	require.NoError(t, err)

	g := buildCellGraph(m, info)
	assert.Equal(t, 4, g.Nodes().Len())
	assert.True(t, g.HasEdgeBetween(2, 3))
	assert.False(t, g.HasEdgeBetween(0, 1))
	assert.False(t, g.HasEdgeBetween(0, 2))
	assert.False(t, g.HasEdgeBetween(1, 3))
	assert.Equal(t, 1, g.Edges().Len())
}

func TestRebuildVolumeStretchesPointData(t *testing.T) {
	m := hexRow(0, 1)
	m.PointData.Set("displacement", mat.NewDense(12, 3, nil))
	d, _ := m.PointData.Get("displacement")
	d.SetRow(4, []float64{4, 40, 400})
	m.FieldData.Set("time", mat.NewDense(1, 1, []float64{2.5}))

	splits := SplitMap{1: {4: 12}}
	out, err := rebuildVolume(m, splits)
	require.NoError(t, err)

	require.Equal(t, 13, out.NumPoints())
	assert.Equal(t, m.Points[4], out.Points[12])
	disp, _ := out.PointData.Get("displacement")
	r, c := disp.Dims()
	assert.Equal(t, 13, r)
	assert.Equal(t, 3, c)
	assert.Equal(t, []float64{4, 40, 400}, disp.RawRowView(12))

	tm, ok := out.FieldData.Get("time")
	require.True(t, ok)
	assert.Equal(t, 2.5, tm.At(0, 0))
	assert.Equal(t, []int{1, 2, 5, 12, 7, 8, 11, 10}, out.Cells[1].PointIDs())
	assert.Equal(t, m.Cells[0], out.Cells[0])
}

func TestRebuildVolumeRejectsGaps(t *testing.T) {
	m := hexRow(0, 1)
	_, err := rebuildVolume(m, SplitMap{1: {4: 20}})
	assert.Error(t, err)
}
