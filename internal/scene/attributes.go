package scene

import (
	"sort"
	"strings"

	"github.com/Faultbox/meshview/pkg/mesh"
)

// ListSeparator joins array names at the host boundary.
const ListSeparator = ";"

// Domain is the entity an attribute array is attached to.
type Domain uint8

const (
	PointDomain Domain = iota
	CellDomain
)

func (d Domain) String() string {
	if d == CellDomain {
		return "cell"
	}
	return "point"
}

// AttributeRegistry records which named arrays the current mesh carries.
type AttributeRegistry struct {
	points map[string]struct{}
	cells  map[string]struct{}
}

// NewAttributeRegistry returns a registry populated from m, which may be nil.
func NewAttributeRegistry(m *mesh.Mesh) *AttributeRegistry {
	r := &AttributeRegistry{}
	r.Refresh(m)
	return r
}

// Refresh replaces both name sets with the arrays present on m.
func (r *AttributeRegistry) Refresh(m *mesh.Mesh) {
	r.points = make(map[string]struct{})
	r.cells = make(map[string]struct{})
	if m == nil {
		return
	}
	for _, n := range m.PointData.Names() {
		r.points[n] = struct{}{}
	}
	for _, n := range m.CellData.Names() {
		r.cells[n] = struct{}{}
	}
}

// Has reports whether an array called name exists in the domain.
func (r *AttributeRegistry) Has(d Domain, name string) bool {
	if r == nil {
		return false
	}
	set := r.points
	if d == CellDomain {
		set = r.cells
	}
	_, ok := set[name]
	return ok
}

// PointArrays returns the point array names, sorted.
func (r *AttributeRegistry) PointArrays() []string {
	if r == nil {
		return nil
	}
	return sortedKeys(r.points)
}

// CellArrays returns the cell array names, sorted.
func (r *AttributeRegistry) CellArrays() []string {
	if r == nil {
		return nil
	}
	return sortedKeys(r.cells)
}

// ListPointArrays joins the point array names with ListSeparator.
func (r *AttributeRegistry) ListPointArrays() string {
	return strings.Join(r.PointArrays(), ListSeparator)
}

// ListCellArrays joins the cell array names with ListSeparator.
func (r *AttributeRegistry) ListCellArrays() string {
	return strings.Join(r.CellArrays(), ListSeparator)
}

// Colorings lists every coloring choice: solid first, then each point
// array, then each cell array.
func (r *AttributeRegistry) Colorings() []Coloring {
	out := []Coloring{Solid()}
	for _, name := range r.PointArrays() {
		out = append(out, ByArray(name, PointDomain))
	}
	for _, name := range r.CellArrays() {
		out = append(out, ByArray(name, CellDomain))
	}
	return out
}

// NextColoring returns the choice after cur in Colorings, wrapping around.
// An unknown cur yields solid.
func (r *AttributeRegistry) NextColoring(cur Coloring) Coloring {
	all := r.Colorings()
	for i, c := range all {
		if c == cur {
			return all[(i+1)%len(all)]
		}
	}
	return Solid()
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
