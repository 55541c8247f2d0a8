// Package fractures splits a volumetric mesh along internal discontinuity
// surfaces.
//
// Fracture faces are located either from a cell field (faces between two
// cells carrying different target values) or from tagged 2D cells embedded
// in the mesh. The nodes on those faces are duplicated so that the cells on
// either side no longer share them, and one surface mesh is produced per
// fracture with a collocated_nodes point attribute listing the volume nodes
// that sit on each fracture node.
//
// The pipeline run by Split is:
//
//	per fracture + combined  → Info         (fracture faces, node → cells)
//	combined Info            → cell graph   (cells joined by non-fracture faces)
//	cell graph               → SplitMap     (cell → old node → new node)
//	SplitMap                 → split volume mesh
//	SplitMap + per fracture  → fracture surface meshes
package fractures
