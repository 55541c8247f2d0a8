package utils

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// FaceConnector links the nodes of a surface cut out of a volume mesh back
// to the volume: a dense surface numbering of the volume nodes referenced by
// the faces, and for every surface node the set of volume nodes collocated
// with it.
type FaceConnector struct {
	NumFaces        int
	NumSurfaceNodes int

	// Input faces, in volume node ids
	Faces [][]int

	// Node mappings
	VolumeToSurface map[int]int // volume node → surface node
	SurfaceToVolume []int       // surface node → volume node

	// collocated[surfaceNode] holds the volume nodes sitting on it
	collocated []map[int]struct{}
}

// NewFaceConnector numbers the nodes of faces in first-seen order
func NewFaceConnector(faces [][]int) (*FaceConnector, error) {
	for f, face := range faces {
		if len(face) < 3 {
			return nil, fmt.Errorf("face %d has %d nodes, need at least 3", f, len(face))
		}
	}

	fc := &FaceConnector{
		NumFaces: len(faces),
		Faces:    faces,
	}
	fc.buildNodeMappings()
	fc.collocated = make([]map[int]struct{}, fc.NumSurfaceNodes)
	for i := range fc.collocated {
		fc.collocated[i] = make(map[int]struct{})
	}
	return fc, nil
}

// buildNodeMappings creates the bidirectional volume/surface node numbering
func (fc *FaceConnector) buildNodeMappings() {
	fc.VolumeToSurface = make(map[int]int)
	fc.SurfaceToVolume = make([]int, 0)
	for _, face := range fc.Faces {
		for _, v := range face {
			if _, ok := fc.VolumeToSurface[v]; ok {
				continue
			}
			fc.VolumeToSurface[v] = len(fc.SurfaceToVolume)
			fc.SurfaceToVolume = append(fc.SurfaceToVolume, v)
		}
	}
	fc.NumSurfaceNodes = len(fc.SurfaceToVolume)
}

// SurfaceFaces returns the faces renumbered into surface node ids
func (fc *FaceConnector) SurfaceFaces() [][]int {
	out := make([][]int, len(fc.Faces))
	for f, face := range fc.Faces {
		out[f] = make([]int, len(face))
		for i, v := range face {
			out[f][i] = fc.VolumeToSurface[v]
		}
	}
	return out
}

// AddCollocated records that volume node dup sits on volume node anchor.
// Anchors that are not on the surface are ignored; the return value reports
// whether the pair was recorded.
func (fc *FaceConnector) AddCollocated(anchor, dup int) bool {
	s, ok := fc.VolumeToSurface[anchor]
	if !ok {
		return false
	}
	fc.collocated[s][dup] = struct{}{}
	return true
}

// Collocated returns the sorted collocated volume nodes of every surface node
func (fc *FaceConnector) Collocated() [][]int {
	out := make([][]int, fc.NumSurfaceNodes)
	for s, set := range fc.collocated {
		out[s] = make([]int, 0, len(set))
		for v := range set {
			out[s] = append(out[s], v)
		}
		sort.Ints(out[s])
	}
	return out
}

// Width returns the size of the largest collocated set
func (fc *FaceConnector) Width() int {
	w := 0
	for _, set := range fc.collocated {
		if len(set) > w {
			w = len(set)
		}
	}
	return w
}

// CollocatedArray returns the collocated sets as a NumSurfaceNodes×Width
// array, short rows padded with pad. It returns nil for an empty surface.
func (fc *FaceConnector) CollocatedArray(pad float64) *mat.Dense {
	w := fc.Width()
	if fc.NumSurfaceNodes == 0 || w == 0 {
		return nil
	}
	data := make([]float64, fc.NumSurfaceNodes*w)
	for s, nodes := range fc.Collocated() {
		for j := 0; j < w; j++ {
			if j < len(nodes) {
				data[s*w+j] = float64(nodes[j])
			} else {
				data[s*w+j] = pad
			}
		}
	}
	return mat.NewDense(fc.NumSurfaceNodes, w, data)
}

// Verify checks the numbering and collocation invariants
func (fc *FaceConnector) Verify() error {
	// Verify 1: the two node mappings are inverse to each other
	if len(fc.VolumeToSurface) != fc.NumSurfaceNodes {
		return fmt.Errorf("mapping size mismatch: %d volume nodes, %d surface nodes",
			len(fc.VolumeToSurface), fc.NumSurfaceNodes)
	}
	for s, v := range fc.SurfaceToVolume {
		if fc.VolumeToSurface[v] != s {
			return fmt.Errorf("surface node %d maps to volume node %d which maps back to %d",
				s, v, fc.VolumeToSurface[v])
		}
	}

	// Verify 2: every surface node has at least one collocated volume node
	for s, set := range fc.collocated {
		if len(set) == 0 {
			return fmt.Errorf("surface node %d (volume node %d) has no collocated nodes",
				s, fc.SurfaceToVolume[s])
		}
	}

	return nil
}
