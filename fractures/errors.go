package fractures

import "errors"

// Configuration errors
var (
	ErrFieldNotFound    = errors.New("fracture field not found in cell data")
	ErrGlobalIDsPresent = errors.New("mesh already carries global ids; generate them after splitting")
	ErrNoFractures      = errors.New("no fracture field values given")
	ErrUnknownPolicy    = errors.New("unknown fracture policy")
	ErrUnsupportedCell  = errors.New("higher-order cells cannot be split")
)

// Invariant violations
var (
	ErrNonManifold      = errors.New("face shared by more than two cells")
	ErrEmptyCollocation = errors.New("fracture node without collocated nodes")
)
