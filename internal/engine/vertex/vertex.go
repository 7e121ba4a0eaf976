// Package vertex flattens a mesh into interleaved, non-indexed vertex
// streams ready for upload. Streams are unshared per primitive so cell
// colors and flat normals need no extra indirection on the GPU.
package vertex

import (
	"github.com/flywave/go3d/vec3"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/Faultbox/meshview/internal/engine/picking"
	"github.com/Faultbox/meshview/pkg/mesh"
)

// Stride is the number of floats per vertex: position (3), normal (3),
// RGBA color (4) and the lookup table coordinate (1).
const Stride = 11

// Offsets of each attribute within a vertex, in floats.
const (
	OffsetPosition = 0
	OffsetNormal   = 3
	OffsetColor    = 6
	OffsetScalar   = 10
)

// Paint decides the color of each emitted vertex.
type Paint struct {
	Solid colorful.Color
	Alpha float32
	// Colors holds one mapped color per point, or per cell when CellData
	// is set. Nil means every vertex gets Solid.
	Colors   []colorful.Color
	CellData bool
	// Coords are lookup table coordinates, indexed like Colors.
	Coords []float32
}

func (p *Paint) at(pointID, cellID int) (colorful.Color, float32) {
	idx := pointID
	if p.CellData {
		idx = cellID
	}
	c, s := p.Solid, float32(0)
	if idx >= 0 && idx < len(p.Colors) {
		c = p.Colors[idx]
	}
	if idx >= 0 && idx < len(p.Coords) {
		s = p.Coords[idx]
	}
	return c, s
}

// Count returns the number of vertices in a stream.
func Count(stream []float32) int32 { return int32(len(stream) / Stride) }

func appendVertex(out []float32, p vec3.T, n mgl32.Vec3, c colorful.Color, alpha, s float32) []float32 {
	return append(out,
		p[0], p[1], p[2],
		n[0], n[1], n[2],
		float32(c.R), float32(c.G), float32(c.B), alpha,
		s,
	)
}

func faceNormal(a, b, c vec3.T) mgl32.Vec3 {
	u := mgl32.Vec3{b[0] - a[0], b[1] - a[1], b[2] - a[2]}
	v := mgl32.Vec3{c[0] - a[0], c[1] - a[1], c[2] - a[2]}
	n := u.Cross(v)
	if l := n.Len(); l > 0 {
		return n.Mul(1 / l)
	}
	return mgl32.Vec3{0, 0, 1}
}

// Triangles emits every polygon and strip as triangles with flat normals.
func Triangles(m *mesh.Mesh, p Paint) []float32 {
	tris, cells := m.Triangulate()
	out := make([]float32, 0, len(tris)*3*Stride)
	for i, t := range tris {
		n := faceNormal(m.Points[t[0]], m.Points[t[1]], m.Points[t[2]])
		for _, pid := range t {
			c, s := p.at(pid, cells[i])
			out = appendVertex(out, m.Points[pid], n, c, p.Alpha, s)
		}
	}
	return out
}

// Lines emits polygon outlines, polylines and strip edges as segments.
func Lines(m *mesh.Mesh, p Paint) []float32 {
	segs, cells := m.Edges()
	out := make([]float32, 0, len(segs)*2*Stride)
	for i, sg := range segs {
		for _, pid := range sg {
			c, s := p.at(pid, cells[i])
			out = appendVertex(out, m.Points[pid], mgl32.Vec3{}, c, p.Alpha, s)
		}
	}
	return out
}

// Points emits every mesh point once. Cell colors do not apply to points.
func Points(m *mesh.Mesh, p Paint) []float32 {
	if p.CellData {
		p.Colors, p.Coords = nil, nil
	}
	out := make([]float32, 0, len(m.Points)*Stride)
	for i, pt := range m.Points {
		c, s := p.at(i, -1)
		out = appendVertex(out, pt, mgl32.Vec3{}, c, p.Alpha, s)
	}
	return out
}

func idColor(id int) colorful.Color {
	c := picking.EncodeIDFloat(id)
	return colorful.Color{R: float64(c[0]), G: float64(c[1]), B: float64(c[2])}
}

// CellIDs emits triangles colored with the encoded id of their cell, and
// separately the points of vertex and line cells, which have no area but
// can still be hit.
func CellIDs(m *mesh.Mesh) (tris, points []float32) {
	tt, cells := m.Triangulate()
	tris = make([]float32, 0, len(tt)*3*Stride)
	for i, t := range tt {
		c := idColor(cells[i])
		for _, pid := range t {
			tris = appendVertex(tris, m.Points[pid], mgl32.Vec3{}, c, 1, 0)
		}
	}
	m.EachCell(func(id int, kind mesh.CellKind, ids []int) {
		if kind != mesh.KindVertex && kind != mesh.KindLine {
			return
		}
		c := idColor(id)
		for _, pid := range ids {
			points = appendVertex(points, m.Points[pid], mgl32.Vec3{}, c, 1, 0)
		}
	})
	return tris, points
}

// PointIDs emits every point colored with its encoded id.
func PointIDs(m *mesh.Mesh) []float32 {
	out := make([]float32, 0, len(m.Points)*Stride)
	for i, pt := range m.Points {
		out = appendVertex(out, pt, mgl32.Vec3{}, idColor(i), 1, 0)
	}
	return out
}

// Occluders emits the triangles with the background id, used to fill the
// depth buffer so hidden points are not selected.
func Occluders(m *mesh.Mesh) []float32 {
	tris, _ := m.Triangulate()
	out := make([]float32, 0, len(tris)*3*Stride)
	for _, t := range tris {
		for _, pid := range t {
			out = appendVertex(out, m.Points[pid], mgl32.Vec3{}, colorful.Color{}, 0, 0)
		}
	}
	return out
}
