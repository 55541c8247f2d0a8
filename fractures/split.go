package fractures

import (
	"context"
	"fmt"
	"strings"

	"github.com/notargets/fracture/ctxlog"
	"github.com/notargets/fracture/mesh"
)

// Fracture is the surface mesh produced for one target value set
type Fracture struct {
	Values    []int
	Mesh      *mesh.Mesh
	Discarded []DiscardedFace
}

// Result holds the split volume mesh and one surface mesh per fracture
type Result struct {
	Mesh      *mesh.Mesh
	Fractures []Fracture

	// Node renumbering applied to the volume cells
	Splits SplitMap
	// Number of points appended to the volume mesh
	NewPoints int
}

// Split duplicates the nodes of the fracture faces selected by opts so that
// the cells on either side of every fracture become disconnected. The input
// mesh is not modified. Configuration errors and invariant violations abort
// the whole operation; faces that do not cut the mesh are reported in the
// result.
func Split(ctx context.Context, m *mesh.Mesh, opts Options) (*Result, error) {
	logger := ctxlog.FromContext(ctx)

	if err := opts.validate(); err != nil {
		return nil, err
	}
	if m.CellData.Has(mesh.GlobalIDsName) || m.PointData.Has(mesh.GlobalIDsName) {
		return nil, ErrGlobalIDsPresent
	}
	if err := checkCells(m); err != nil {
		return nil, err
	}
	field, err := fieldValues(m, opts.Field)
	if err != nil {
		return nil, err
	}

	builder, err := newInfoBuilder(opts.Policy, mesh.NewFaceIndex(m))
	if err != nil {
		return nil, err
	}

	perFracture := make([]*Info, len(opts.FieldValuesPerFracture))
	for i, vals := range opts.FieldValuesPerFracture {
		if perFracture[i], err = builder.build(m, field, valueSet(vals)); err != nil {
			return nil, err
		}
	}
	combined, err := builder.build(m, field, valueSet(opts.combinedValues()))
	if err != nil {
		return nil, err
	}
	logger.Info("Located fracture faces",
		"policy", opts.Policy.String(), "field", opts.Field,
		"faces", len(combined.FaceNodes), "nodes", len(combined.NodeToCells))

	g := buildCellGraph(m, combined)
	splits := resolveSplits(m.NumPoints(), g, combined.NodeToCells)

	volume, err := rebuildVolume(m, splits)
	if err != nil {
		return nil, err
	}
	res := &Result{
		Mesh:      volume,
		Splits:    splits,
		NewPoints: volume.NumPoints() - m.NumPoints(),
	}
	logger.Info("Split volume mesh",
		"points_before", m.NumPoints(), "points_after", volume.NumPoints(),
		"cells_touched", len(splits))

	for i, info := range perFracture {
		surface, discarded, err := buildFractureMesh(ctx, m, info, splits, opts.Policy)
		if err != nil {
			return nil, fmt.Errorf("fracture %d: %w", i, err)
		}
		if len(discarded) > 0 {
			logger.Warn("Discarded fracture faces", "fracture", i, "count", len(discarded))
		}
		res.Fractures = append(res.Fractures, Fracture{
			Values:    sortedUnique(opts.FieldValuesPerFracture[i]),
			Mesh:      surface,
			Discarded: discarded,
		})
	}
	return res, nil
}

// checkCells rejects cells whose faces miss some of their nodes: mid-edge
// and mid-face nodes would stay shared across a fracture.
func checkCells(m *mesh.Mesh) error {
	for c, cell := range m.Cells {
		if s, ok := cell.(mesh.Standard); ok && s.HigherOrder() {
			return fmt.Errorf("%w: cell %d is a %s", ErrUnsupportedCell, c, s.Type)
		}
	}
	return nil
}

// NumDiscarded returns the number of discarded faces over all fractures
func (r *Result) NumDiscarded() int {
	n := 0
	for _, f := range r.Fractures {
		n += len(f.Discarded)
	}
	return n
}

// String returns a summary of the split
func (r *Result) String() string {
	var sb strings.Builder

	sb.WriteString("=== Fracture Split Summary ===\n")

	sb.WriteString("\n--- Volume Mesh ---\n")
	sb.WriteString(fmt.Sprintf("  Points: %d (%d added)\n", r.Mesh.NumPoints(), r.NewPoints))
	sb.WriteString(fmt.Sprintf("  Cells: %d (%d renumbered)\n", r.Mesh.NumCells(), len(r.Splits)))

	for i, f := range r.Fractures {
		sb.WriteString(fmt.Sprintf("\n--- Fracture %d (values %v) ---\n", i, f.Values))
		sb.WriteString(fmt.Sprintf("  Faces: %d\n", f.Mesh.NumCells()))
		sb.WriteString(fmt.Sprintf("  Points: %d\n", f.Mesh.NumPoints()))
		if arr, ok := f.Mesh.PointData.Get(CollocatedNodesName); ok {
			_, w := arr.Dims()
			sb.WriteString(fmt.Sprintf("  Collocated width: %d\n", w))
		}
		if len(f.Discarded) > 0 {
			sb.WriteString(fmt.Sprintf("  Discarded faces: %d\n", len(f.Discarded)))
		}
	}

	sb.WriteString("\n==============================\n")

	return sb.String()
}
