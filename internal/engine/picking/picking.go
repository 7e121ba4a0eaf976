// Package picking selects mesh elements inside a screen rectangle, either
// by projecting points on the CPU or by decoding an ID buffer rendered on
// the GPU.
package picking

import (
	"sort"

	"github.com/flywave/go3d/vec3"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/meshview/internal/engine/camera"
	"github.com/Faultbox/meshview/pkg/mesh"
)

// Area is an inclusive pixel rectangle with the origin at the top left.
type Area struct {
	X0, Y0, X1, Y1 int
}

func (a Area) contains(x, y float32) bool {
	return x >= float32(a.X0) && x <= float32(a.X1)+1 &&
		y >= float32(a.Y0) && y <= float32(a.Y1)+1
}

// SelectPoints returns the ids of points whose projection falls inside
// area, in ascending order.
func SelectPoints(points []vec3.T, vp mgl32.Mat4, width, height int, area Area) []int {
	var ids []int
	for i, p := range points {
		x, y, ok := camera.Project(vp, mgl32.Vec3{p[0], p[1], p[2]}, width, height)
		if ok && area.contains(x, y) {
			ids = append(ids, i)
		}
	}
	return ids
}

// SelectCells returns the ids of cells whose centroid projects inside
// area, in ascending order.
func SelectCells(m *mesh.Mesh, vp mgl32.Mat4, width, height int, area Area) []int {
	var ids []int
	m.EachCell(func(id int, _ mesh.CellKind, pts []int) {
		if len(pts) == 0 {
			return
		}
		var c mgl32.Vec3
		for _, pid := range pts {
			p := m.Points[pid]
			c = c.Add(mgl32.Vec3{p[0], p[1], p[2]})
		}
		c = c.Mul(1 / float32(len(pts)))
		x, y, ok := camera.Project(vp, c, width, height)
		if ok && area.contains(x, y) {
			ids = append(ids, id)
		}
	})
	return ids
}

// EncodeID packs an element id into an RGB color for the ID pass. Id 0 is
// reserved for the background, so element i is stored as i+1.
func EncodeID(id int) (r, g, b uint8) {
	v := uint32(id + 1)
	return uint8(v), uint8(v >> 8), uint8(v >> 16)
}

// EncodeIDFloat is EncodeID normalized to [0, 1] for a vertex attribute.
func EncodeIDFloat(id int) [3]float32 {
	r, g, b := EncodeID(id)
	return [3]float32{float32(r) / 255, float32(g) / 255, float32(b) / 255}
}

// DecodeID reverses EncodeID. ok is false for the background.
func DecodeID(r, g, b uint8) (id int, ok bool) {
	v := int(r) | int(g)<<8 | int(b)<<16
	return v - 1, v != 0
}

// IDsInArea scans RGBA pixels read from an ID buffer of the given size,
// bottom row first as glReadPixels returns them, and returns the distinct
// ids inside area in ascending order.
func IDsInArea(pixels []byte, width, height int, area Area) []int {
	seen := make(map[int]struct{})
	for y := max(area.Y0, 0); y <= min(area.Y1, height-1); y++ {
		row := height - 1 - y
		for x := max(area.X0, 0); x <= min(area.X1, width-1); x++ {
			o := 4 * (row*width + x)
			if o+3 >= len(pixels) {
				continue
			}
			if id, ok := DecodeID(pixels[o], pixels[o+1], pixels[o+2]); ok {
				seen[id] = struct{}{}
			}
		}
	}
	ids := make([]int, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
