package fractures

import (
	"fmt"
	"sort"
	"strings"
)

// Policy selects how fracture faces are identified
type Policy uint8

const (
	// Field: a face between two cells whose field values differ and both
	// belong to the target set is a fracture face.
	Field Policy = iota
	// InternalSurfaces: every 2D cell whose field value belongs to the target
	// set is a fracture face.
	InternalSurfaces
)

func (p Policy) String() string {
	switch p {
	case Field:
		return "field"
	case InternalSurfaces:
		return "internal_surfaces"
	default:
		return fmt.Sprintf("Policy(%d)", uint8(p))
	}
}

// ParsePolicy accepts "field" or "internal_surfaces", case-insensitively
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "field":
		return Field, nil
	case "internal_surfaces", "internal-surfaces":
		return InternalSurfaces, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
}

// Options configures Split
type Options struct {
	Policy Policy
	Field  string // name of the scalar cell field locating the fractures

	// One target value set per fracture
	FieldValuesPerFracture [][]int
	// Target values for all fractures split together; the union of the
	// per-fracture sets when empty.
	FieldValuesCombined []int
}

func (o Options) combinedValues() []int {
	if len(o.FieldValuesCombined) > 0 {
		return sortedUnique(o.FieldValuesCombined)
	}
	var all []int
	for _, vals := range o.FieldValuesPerFracture {
		all = append(all, vals...)
	}
	return sortedUnique(all)
}

func (o Options) validate() error {
	if strings.TrimSpace(o.Field) == "" {
		return fmt.Errorf("%w: empty field name", ErrFieldNotFound)
	}
	if o.Policy != Field && o.Policy != InternalSurfaces {
		return fmt.Errorf("%w: %v", ErrUnknownPolicy, o.Policy)
	}
	if len(o.FieldValuesPerFracture) == 0 {
		return ErrNoFractures
	}
	for i, vals := range o.FieldValuesPerFracture {
		if len(vals) == 0 {
			return fmt.Errorf("%w: fracture %d has an empty value set", ErrNoFractures, i)
		}
	}
	return nil
}

func valueSet(values []int) map[int]bool {
	set := make(map[int]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

func sortedUnique(values []int) []int {
	set := valueSet(values)
	out := make([]int, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}
