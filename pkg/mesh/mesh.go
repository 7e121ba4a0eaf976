// Package mesh provides the surface mesh model shared by parsers, the scene
// controller and the renderers.
//
// A Mesh follows the poly-data layout used by VTK: one point list, four
// topology groups (verts, lines, polys, strips) and two attribute collections,
// one attached to points and one attached to cells. Cell ids are numbered
// across the groups in the order verts, lines, polys, strips.
package mesh

import (
	"errors"
	"fmt"

	dvec3 "github.com/flywave/go3d/float64/vec3"
	"github.com/flywave/go3d/vec3"
)

// Mesh validation errors.
var (
	ErrPointIndexOutOfRange = errors.New("point index out of range")
	ErrTupleCountMismatch   = errors.New("array tuple count does not match")
	ErrEmptyCell            = errors.New("cell has no points")
)

// CellKind identifies which topology group a cell belongs to.
type CellKind uint8

// Topology groups, in cell id order.
const (
	KindVertex CellKind = iota
	KindLine
	KindPolygon
	KindStrip
)

// String returns a human-readable group name.
func (k CellKind) String() string {
	switch k {
	case KindVertex:
		return "Vertex"
	case KindLine:
		return "Line"
	case KindPolygon:
		return "Polygon"
	case KindStrip:
		return "Strip"
	default:
		return fmt.Sprintf("Unknown(%d)", k)
	}
}

// Mesh is a renderable surface with attached attribute arrays.
type Mesh struct {
	Points []vec3.T

	Verts  [][]int
	Lines  [][]int
	Polys  [][]int
	Strips [][]int

	PointData *FieldData
	CellData  *FieldData
}

// New returns an empty mesh with initialized attribute collections.
func New() *Mesh {
	return &Mesh{
		PointData: NewFieldData(),
		CellData:  NewFieldData(),
	}
}

// NumberOfPoints returns the point count.
func (m *Mesh) NumberOfPoints() int {
	return len(m.Points)
}

// NumberOfCells returns the total cell count across all topology groups.
func (m *Mesh) NumberOfCells() int {
	return len(m.Verts) + len(m.Lines) + len(m.Polys) + len(m.Strips)
}

// Cell returns the group and point ids of the cell with the given id.
// ok is false if id is out of range.
func (m *Mesh) Cell(id int) (kind CellKind, ids []int, ok bool) {
	if id < 0 {
		return 0, nil, false
	}
	for k, group := range m.groups() {
		if id < len(group) {
			return CellKind(k), group[id], true
		}
		id -= len(group)
	}
	return 0, nil, false
}

// EachCell calls fn for every cell in id order.
func (m *Mesh) EachCell(fn func(id int, kind CellKind, ids []int)) {
	id := 0
	for k, group := range m.groups() {
		for _, c := range group {
			fn(id, CellKind(k), c)
			id++
		}
	}
}

func (m *Mesh) groups() [4][][]int {
	return [4][][]int{m.Verts, m.Lines, m.Polys, m.Strips}
}

// Bounds returns the axis-aligned bounding box of all points.
// An empty mesh yields dvec3.MinBox (min > max).
func (m *Mesh) Bounds() dvec3.Box {
	box := dvec3.MinBox
	for i := range m.Points {
		p := &m.Points[i]
		box.Extend(&dvec3.T{float64(p[0]), float64(p[1]), float64(p[2])})
	}
	return box
}

// IsEmpty reports whether the mesh has no points.
func (m *Mesh) IsEmpty() bool {
	return len(m.Points) == 0
}

// Validate checks that every cell references existing points and that
// attribute arrays carry one tuple per point or cell.
func (m *Mesh) Validate() error {
	n := len(m.Points)
	var err error
	m.EachCell(func(id int, kind CellKind, ids []int) {
		if err != nil {
			return
		}
		if len(ids) == 0 {
			err = fmt.Errorf("%w: %s cell %d", ErrEmptyCell, kind, id)
			return
		}
		for _, pid := range ids {
			if pid < 0 || pid >= n {
				err = fmt.Errorf("%w: cell %d references point %d (have %d)", ErrPointIndexOutOfRange, id, pid, n)
				return
			}
		}
	})
	if err != nil {
		return err
	}

	if m.PointData != nil {
		if err := m.PointData.checkTuples(n); err != nil {
			return fmt.Errorf("point data: %w", err)
		}
	}
	if m.CellData != nil {
		if err := m.CellData.checkTuples(m.NumberOfCells()); err != nil {
			return fmt.Errorf("cell data: %w", err)
		}
	}
	return nil
}

// Triangulate returns the polygons and strips of the mesh as triangles,
// together with the id of the cell each triangle came from.
// Polygons are fan-triangulated.
func (m *Mesh) Triangulate() (tris [][3]int, cellIDs []int) {
	m.EachCell(func(id int, kind CellKind, ids []int) {
		switch kind {
		case KindPolygon:
			for i := 1; i+1 < len(ids); i++ {
				tris = append(tris, [3]int{ids[0], ids[i], ids[i+1]})
				cellIDs = append(cellIDs, id)
			}
		case KindStrip:
			for i := 0; i+2 < len(ids); i++ {
				if i%2 == 0 {
					tris = append(tris, [3]int{ids[i], ids[i+1], ids[i+2]})
				} else {
					tris = append(tris, [3]int{ids[i+1], ids[i], ids[i+2]})
				}
				cellIDs = append(cellIDs, id)
			}
		}
	})
	return tris, cellIDs
}

// Edges returns the line segments of lines and polygon outlines, with the id
// of the originating cell.
func (m *Mesh) Edges() (segs [][2]int, cellIDs []int) {
	m.EachCell(func(id int, kind CellKind, ids []int) {
		switch kind {
		case KindLine:
			for i := 0; i+1 < len(ids); i++ {
				segs = append(segs, [2]int{ids[i], ids[i+1]})
				cellIDs = append(cellIDs, id)
			}
		case KindPolygon:
			for i := range ids {
				segs = append(segs, [2]int{ids[i], ids[(i+1)%len(ids)]})
				cellIDs = append(cellIDs, id)
			}
		case KindStrip:
			for i := 0; i+1 < len(ids); i++ {
				segs = append(segs, [2]int{ids[i], ids[i+1]})
				cellIDs = append(cellIDs, id)
			}
			for i := 0; i+2 < len(ids); i++ {
				segs = append(segs, [2]int{ids[i], ids[i+2]})
				cellIDs = append(cellIDs, id)
			}
		}
	})
	return segs, cellIDs
}

// Append adds another mesh's points and cells to m, offsetting point ids.
// Arrays present in both meshes with matching component counts are
// concatenated; arrays missing on either side are dropped, since a partial
// array would break the one-tuple-per-element invariant.
func (m *Mesh) Append(o *Mesh) {
	offset := len(m.Points)
	shift := func(dst [][]int, src [][]int) [][]int {
		for _, c := range src {
			ids := make([]int, len(c))
			for i, pid := range c {
				ids[i] = pid + offset
			}
			dst = append(dst, ids)
		}
		return dst
	}

	cellData := mergeFieldData(m.CellData, o.CellData, m.cellSlices(), o.cellSlices())

	m.Points = append(m.Points, o.Points...)
	m.Verts = shift(m.Verts, o.Verts)
	m.Lines = shift(m.Lines, o.Lines)
	m.Polys = shift(m.Polys, o.Polys)
	m.Strips = shift(m.Strips, o.Strips)
	m.PointData = m.PointData.concat(o.PointData)
	m.CellData = cellData
}

// cellSlices returns the per-group cell counts used to interleave cell data
// when two meshes are merged group by group.
func (m *Mesh) cellSlices() [4]int {
	return [4]int{len(m.Verts), len(m.Lines), len(m.Polys), len(m.Strips)}
}
