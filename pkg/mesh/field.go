package mesh

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Field data errors.
var (
	ErrDuplicateArray   = errors.New("duplicate array name")
	ErrUnnamedArray     = errors.New("array has no name")
	ErrBadComponents    = errors.New("invalid number of components")
	ErrComponentOutside = errors.New("component index out of range")
)

// DataArray is a named array of tuples. Values holds Components values per
// tuple, interleaved.
type DataArray struct {
	Name       string
	Components int
	Values     []float64
}

// NewDataArray creates an array with the given name and tuple width.
func NewDataArray(name string, components int, values []float64) *DataArray {
	return &DataArray{Name: name, Components: components, Values: values}
}

// Tuples returns the number of tuples in the array.
func (a *DataArray) Tuples() int {
	if a.Components <= 0 {
		return 0
	}
	return len(a.Values) / a.Components
}

// Tuple returns the components of tuple i.
func (a *DataArray) Tuple(i int) []float64 {
	return a.Values[i*a.Components : (i+1)*a.Components]
}

// Component extracts one component of every tuple.
func (a *DataArray) Component(c int) ([]float64, error) {
	if c < 0 || c >= a.Components {
		return nil, fmt.Errorf("%w: %d of %d", ErrComponentOutside, c, a.Components)
	}
	if a.Components == 1 {
		return a.Values, nil
	}
	out := make([]float64, a.Tuples())
	for i := range out {
		out[i] = a.Values[i*a.Components+c]
	}
	return out, nil
}

// Range returns the minimum and maximum of component c.
// An empty array yields (0, 0). NaN values are ignored.
func (a *DataArray) Range(c int) (lo, hi float64, err error) {
	vals, err := a.Component(c)
	if err != nil {
		return 0, 0, err
	}
	finite := vals
	for _, v := range vals {
		if math.IsNaN(v) {
			finite = make([]float64, 0, len(vals))
			for _, w := range vals {
				if !math.IsNaN(w) {
					finite = append(finite, w)
				}
			}
			break
		}
	}
	if len(finite) == 0 {
		return 0, 0, nil
	}
	return floats.Min(finite), floats.Max(finite), nil
}

// FieldData is an ordered collection of arrays with unique names.
type FieldData struct {
	arrays []*DataArray
	index  map[string]int
}

// NewFieldData returns an empty collection.
func NewFieldData() *FieldData {
	return &FieldData{index: make(map[string]int)}
}

// Add appends an array. Names must be non-empty and unique.
func (f *FieldData) Add(a *DataArray) error {
	if a.Name == "" {
		return ErrUnnamedArray
	}
	if a.Components <= 0 {
		return fmt.Errorf("%w: %q has %d", ErrBadComponents, a.Name, a.Components)
	}
	if _, ok := f.index[a.Name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateArray, a.Name)
	}
	f.index[a.Name] = len(f.arrays)
	f.arrays = append(f.arrays, a)
	return nil
}

// Get returns the array with the given name, or nil.
func (f *FieldData) Get(name string) *DataArray {
	if f == nil {
		return nil
	}
	i, ok := f.index[name]
	if !ok {
		return nil
	}
	return f.arrays[i]
}

// Len returns the number of arrays.
func (f *FieldData) Len() int {
	if f == nil {
		return 0
	}
	return len(f.arrays)
}

// At returns the i-th array in insertion order.
func (f *FieldData) At(i int) *DataArray {
	return f.arrays[i]
}

// Names returns the array names in insertion order.
func (f *FieldData) Names() []string {
	if f == nil {
		return nil
	}
	names := make([]string, len(f.arrays))
	for i, a := range f.arrays {
		names[i] = a.Name
	}
	return names
}

func (f *FieldData) checkTuples(n int) error {
	for _, a := range f.arrays {
		if len(a.Values)%a.Components != 0 || a.Tuples() != n {
			return fmt.Errorf("%w: %q has %d values with %d components, want %d tuples",
				ErrTupleCountMismatch, a.Name, len(a.Values), a.Components, n)
		}
	}
	return nil
}

// concat joins arrays present in both collections with the same width.
func (f *FieldData) concat(o *FieldData) *FieldData {
	out := NewFieldData()
	if f == nil || o == nil {
		return out
	}
	for _, a := range f.arrays {
		b := o.Get(a.Name)
		if b == nil || b.Components != a.Components {
			continue
		}
		vals := make([]float64, 0, len(a.Values)+len(b.Values))
		vals = append(vals, a.Values...)
		vals = append(vals, b.Values...)
		_ = out.Add(NewDataArray(a.Name, a.Components, vals))
	}
	return out
}

// mergeFieldData joins cell arrays of two meshes whose cells are merged group
// by group: for each topology group the cells of a come before those of b.
func mergeFieldData(a, b *FieldData, countsA, countsB [4]int) *FieldData {
	out := NewFieldData()
	if a == nil || b == nil {
		return out
	}
	for _, x := range a.arrays {
		y := b.Get(x.Name)
		if y == nil || y.Components != x.Components {
			continue
		}
		nc := x.Components
		if x.Tuples() != sum4(countsA) || y.Tuples() != sum4(countsB) {
			continue
		}
		vals := make([]float64, 0, len(x.Values)+len(y.Values))
		offA, offB := 0, 0
		for g := 0; g < 4; g++ {
			vals = append(vals, x.Values[offA*nc:(offA+countsA[g])*nc]...)
			vals = append(vals, y.Values[offB*nc:(offB+countsB[g])*nc]...)
			offA += countsA[g]
			offB += countsB[g]
		}
		_ = out.Add(NewDataArray(x.Name, nc, vals))
	}
	return out
}

func sum4(c [4]int) int {
	return c[0] + c[1] + c[2] + c[3]
}
