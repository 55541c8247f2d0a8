package fractures

import (
	"context"
	"fmt"

	"github.com/notargets/fracture/ctxlog"
	"github.com/notargets/fracture/mesh"
	"github.com/notargets/fracture/utils"
	"gonum.org/v1/gonum/spatial/r3"
)

// CollocatedNodesName is the fracture point attribute listing, for every
// fracture node, the volume points sitting on it. Rows are padded with
// CollocatedPad.
const (
	CollocatedNodesName = "collocated_nodes"
	CollocatedPad       = -1
)

// DiscardedFace is a fracture face none of whose nodes were duplicated.
// Such a face does not cut the mesh and is left out of the fracture mesh.
type DiscardedFace struct {
	Index  int   // position in the fracture's face list
	Nodes  []int // volume node ids
	CellID int   // source 2D cell, -1 for the Field policy
}

// buildFractureMesh creates the surface mesh of one fracture. info must be
// the fracture's own Info; splits is the map computed for all fractures.
func buildFractureMesh(ctx context.Context, m *mesh.Mesh, info *Info, splits SplitMap,
	policy Policy) (*mesh.Mesh, []DiscardedFace, error) {

	logger := ctxlog.FromContext(ctx)
	duplicated := splits.Duplicated()

	var (
		faces     [][]int
		faceCells []int
		discarded []DiscardedFace
	)
	for f, face := range info.FaceNodes {
		cellID := -1
		if policy == InternalSurfaces {
			cellID = info.FaceCellID[f]
		}
		keep := false
		for _, n := range face {
			if duplicated[n] {
				keep = true
				break
			}
		}
		if !keep {
			discarded = append(discarded, DiscardedFace{Index: f, Nodes: face, CellID: cellID})
			logger.Warn("Discarding fracture face without duplicated nodes",
				"face", f, "nodes", face, "cell", cellID)
			continue
		}
		faces = append(faces, face)
		faceCells = append(faceCells, cellID)
	}

	fc, err := utils.NewFaceConnector(faces)
	if err != nil {
		return nil, nil, err
	}
	for _, mapping := range splits {
		for old, idx := range mapping {
			anchor := old
			if idx < anchor {
				anchor = idx
			}
			fc.AddCollocated(anchor, idx)
		}
	}
	if err := fc.Verify(); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrEmptyCollocation, err)
	}

	points := make([]r3.Vec, fc.NumSurfaceNodes)
	for s, v := range fc.SurfaceToVolume {
		points[s] = m.Points[v]
	}
	cells := make([]mesh.Cell, 0, len(faces))
	for _, face := range fc.SurfaceFaces() {
		cells = append(cells, mesh.NewSurfaceCell(face))
	}
	surface := mesh.NewMesh(points, cells)
	if arr := fc.CollocatedArray(CollocatedPad); arr != nil {
		surface.PointData.Set(CollocatedNodesName, arr)
	}

	// Only tagged 2D cells map one to one onto fracture cells, so only they
	// carry their attributes over.
	if policy == InternalSurfaces {
		cellData, err := m.CellData.SelectRows(faceCells)
		if err != nil {
			return nil, nil, err
		}
		pointData, err := m.PointData.SelectRows(fc.SurfaceToVolume)
		if err != nil {
			return nil, nil, err
		}
		surface.CellData = cellData
		if arr, ok := surface.PointData.Get(CollocatedNodesName); ok {
			pointData.Set(CollocatedNodesName, arr)
		}
		surface.PointData = pointData
	}

	logger.Debug("Built fracture mesh",
		"faces", len(faces), "points", fc.NumSurfaceNodes, "discarded", len(discarded))
	return surface, discarded, nil
}
