package colormap

import (
	"math"
	"sort"

	"github.com/lucasb-eyer/go-colorful"
)

// NaNColor is returned by Map for NaN input.
var NaNColor = colorful.Color{R: 0.5}

// ControlPoint anchors one scheme color at a scalar value.
type ControlPoint struct {
	Value float64
	Color colorful.Color
}

// LookupTable maps scalars to colors by interpolating in HSV space between
// control points. Values outside the range clamp to the end colors.
type LookupTable struct {
	scheme string
	lo, hi float64
	points []ControlPoint
}

// Build spreads the scheme's colors evenly over [lo, hi]. The first point
// sits at lo and the last at hi. A single-color scheme yields one point at
// lo; an empty range puts every point at lo.
func Build(s *Scheme, lo, hi float64) *LookupTable {
	if hi < lo {
		lo, hi = hi, lo
	}
	n := s.Len()
	t := &LookupTable{scheme: s.name, lo: lo, hi: hi, points: make([]ControlPoint, n)}
	if n == 0 {
		return t
	}
	step := 0.0
	if n > 1 && hi > lo {
		step = (hi - lo) / float64(n-1)
	}
	for i := range t.points {
		t.points[i] = ControlPoint{Value: lo + step*float64(i), Color: s.colors[i]}
	}
	if n > 1 && hi > lo {
		t.points[n-1].Value = hi
	}
	return t
}

// Scheme returns the name of the scheme the table was built from.
func (t *LookupTable) Scheme() string { return t.scheme }

// Range returns the scalar range the table spans.
func (t *LookupTable) Range() (lo, hi float64) { return t.lo, t.hi }

// Points returns a copy of the control points in ascending order.
func (t *LookupTable) Points() []ControlPoint {
	out := make([]ControlPoint, len(t.points))
	copy(out, t.points)
	return out
}

// Map returns the color for v.
func (t *LookupTable) Map(v float64) colorful.Color {
	if math.IsNaN(v) {
		return NaNColor
	}
	n := len(t.points)
	switch {
	case n == 0:
		return colorful.Color{}
	case v <= t.points[0].Value:
		return t.points[0].Color
	case v >= t.points[n-1].Value:
		return t.points[n-1].Color
	}
	// First point strictly above v; v lies in [i-1, i).
	i := sort.Search(n, func(i int) bool { return t.points[i].Value > v })
	a, b := t.points[i-1], t.points[i]
	f := (v - a.Value) / (b.Value - a.Value)
	return a.Color.BlendHsv(b.Color, f).Clamped()
}

// Table samples n colors evenly across the range, for upload as a 1-D
// texture.
func (t *LookupTable) Table(n int) []colorful.Color {
	if n <= 0 {
		return nil
	}
	out := make([]colorful.Color, n)
	if n == 1 {
		out[0] = t.Map(t.lo)
		return out
	}
	for i := range out {
		out[i] = t.Map(t.lo + (t.hi-t.lo)*float64(i)/float64(n-1))
	}
	return out
}

// RGBA8 samples n colors as packed 8-bit RGBA.
func (t *LookupTable) RGBA8(n int) []uint8 {
	cols := t.Table(n)
	out := make([]uint8, 0, 4*len(cols))
	for _, c := range cols {
		r, g, b := c.RGB255()
		out = append(out, r, g, b, 255)
	}
	return out
}
