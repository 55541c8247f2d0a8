package mesh

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Attributes is an ordered collection of named arrays. For cell and point
// data every array holds one row per cell or point; field data arrays have
// no row constraint.
type Attributes struct {
	names  []string
	arrays map[string]*mat.Dense
}

// NewAttributes returns an empty collection
func NewAttributes() *Attributes {
	return &Attributes{arrays: make(map[string]*mat.Dense)}
}

// Set adds or replaces the array stored under name
func (a *Attributes) Set(name string, data *mat.Dense) {
	if _, ok := a.arrays[name]; !ok {
		a.names = append(a.names, name)
	}
	a.arrays[name] = data
}

// Get returns the array stored under name
func (a *Attributes) Get(name string) (*mat.Dense, bool) {
	if a == nil {
		return nil, false
	}
	d, ok := a.arrays[name]
	return d, ok
}

func (a *Attributes) Has(name string) bool {
	_, ok := a.Get(name)
	return ok
}

// Names returns the array names in insertion order
func (a *Attributes) Names() []string {
	if a == nil {
		return nil
	}
	return append([]string(nil), a.names...)
}

func (a *Attributes) Len() int {
	if a == nil {
		return 0
	}
	return len(a.names)
}

// Clone returns a deep copy
func (a *Attributes) Clone() *Attributes {
	out := NewAttributes()
	for _, name := range a.Names() {
		out.Set(name, mat.DenseCopyOf(a.arrays[name]))
	}
	return out
}

// SelectRows builds a new collection whose i-th row is row rows[i] of the
// source arrays. Nothing is copied when rows is empty, since gonum does not
// represent zero-row matrices.
func (a *Attributes) SelectRows(rows []int) (*Attributes, error) {
	out := NewAttributes()
	if len(rows) == 0 {
		return out, nil
	}
	for _, name := range a.Names() {
		src := a.arrays[name]
		r, c := src.Dims()
		dst := mat.NewDense(len(rows), c, nil)
		for i, row := range rows {
			if row < 0 || row >= r {
				return nil, fmt.Errorf("attribute %q: row %d out of range [0,%d)", name, row, r)
			}
			dst.SetRow(i, src.RawRowView(row))
		}
		out.Set(name, dst)
	}
	return out, nil
}

// Stretch grows every array to n rows. Existing rows are kept in place and
// every row listed in sources is filled with a copy of its source row.
func (a *Attributes) Stretch(n int, sources map[int]int) (*Attributes, error) {
	out := NewAttributes()
	for _, name := range a.Names() {
		src := a.arrays[name]
		r, c := src.Dims()
		if n < r {
			return nil, fmt.Errorf("attribute %q: cannot stretch %d rows down to %d", name, r, n)
		}
		dst := mat.NewDense(n, c, nil)
		for i := 0; i < r; i++ {
			dst.SetRow(i, src.RawRowView(i))
		}
		for row, from := range sources {
			if row < r || row >= n || from < 0 || from >= r {
				return nil, fmt.Errorf("attribute %q: invalid duplicate %d <- %d", name, row, from)
			}
			dst.SetRow(row, src.RawRowView(from))
		}
		out.Set(name, dst)
	}
	return out, nil
}

// Scalar returns column 0 of the named array as a slice
func (a *Attributes) Scalar(name string) ([]float64, bool) {
	d, ok := a.Get(name)
	if !ok {
		return nil, false
	}
	r, _ := d.Dims()
	out := make([]float64, r)
	for i := range out {
		out[i] = d.At(i, 0)
	}
	return out, true
}

// NewScalarArray wraps values as a single-component array. It returns nil
// for an empty slice.
func NewScalarArray(values []float64) *mat.Dense {
	if len(values) == 0 {
		return nil
	}
	return mat.NewDense(len(values), 1, append([]float64(nil), values...))
}
