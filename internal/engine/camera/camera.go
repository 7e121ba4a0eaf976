// Package camera provides the trackball camera used to view a mesh.
package camera

import (
	"math"

	dvec3 "github.com/flywave/go3d/float64/vec3"
	"github.com/go-gl/mathgl/mgl32"
)

// Camera looks at a focal point from a position, with an up vector and a
// perspective view angle. Angles are in degrees.
type Camera struct {
	Position   mgl32.Vec3
	FocalPoint mgl32.Vec3
	ViewUp     mgl32.Vec3
	ViewAngle  float32

	// Clipping range, refreshed by ResetClippingRange.
	Near, Far float32

	// MotionFactor scales mouse drags; WheelFactor scales wheel zoom.
	MotionFactor float32
	WheelFactor  float32
}

// New returns a camera at (0, 0, 1) looking at the origin.
func New() *Camera {
	return &Camera{
		Position:     mgl32.Vec3{0, 0, 1},
		ViewUp:       mgl32.Vec3{0, 1, 0},
		ViewAngle:    30,
		Near:         0.01,
		Far:          1000.01,
		MotionFactor: 10,
		WheelFactor:  1,
	}
}

// Distance returns the distance from the position to the focal point.
func (c *Camera) Distance() float32 {
	return c.Position.Sub(c.FocalPoint).Len()
}

// direction is the unit vector from the position to the focal point.
func (c *Camera) direction() mgl32.Vec3 {
	d := c.FocalPoint.Sub(c.Position)
	if d.Len() == 0 {
		return mgl32.Vec3{0, 0, -1}
	}
	return d.Normalize()
}

// ViewMatrix returns the world to eye transform.
func (c *Camera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.FocalPoint, c.ViewUp)
}

// ProjectionMatrix returns the perspective transform for an aspect ratio.
func (c *Camera) ProjectionMatrix(aspect float32) mgl32.Mat4 {
	if aspect <= 0 {
		aspect = 1
	}
	return mgl32.Perspective(mgl32.DegToRad(c.ViewAngle), aspect, c.Near, c.Far)
}

// ViewProjection returns projection * view for a viewport size.
func (c *Camera) ViewProjection(width, height int) mgl32.Mat4 {
	aspect := float32(1)
	if height > 0 {
		aspect = float32(width) / float32(height)
	}
	return c.ProjectionMatrix(aspect).Mul4(c.ViewMatrix())
}

// Azimuth rotates the position about the view up vector centered at the
// focal point.
func (c *Camera) Azimuth(degrees float32) {
	rot := mgl32.HomogRotate3D(mgl32.DegToRad(degrees), c.ViewUp.Normalize())
	offset := c.Position.Sub(c.FocalPoint)
	c.Position = c.FocalPoint.Add(mgl32.TransformNormal(offset, rot))
}

// Elevation rotates the position about the axis through the focal point
// perpendicular to both the view direction and the view up vector.
func (c *Camera) Elevation(degrees float32) {
	axis := c.direction().Cross(c.ViewUp)
	if axis.Len() == 0 {
		return
	}
	rot := mgl32.HomogRotate3D(mgl32.DegToRad(-degrees), axis.Normalize())
	offset := c.Position.Sub(c.FocalPoint)
	c.Position = c.FocalPoint.Add(mgl32.TransformNormal(offset, rot))
	c.OrthogonalizeViewUp()
}

// OrthogonalizeViewUp makes the up vector perpendicular to the view
// direction.
func (c *Camera) OrthogonalizeViewUp() {
	d := c.direction()
	right := d.Cross(c.ViewUp)
	if right.Len() == 0 {
		return
	}
	c.ViewUp = right.Cross(d).Normalize()
}

// Dolly moves the position toward the focal point. Factors above 1 move
// closer.
func (c *Camera) Dolly(factor float32) {
	if factor <= 0 {
		return
	}
	d := c.Distance() / factor
	c.Position = c.FocalPoint.Sub(c.direction().Mul(d))
}

// HandleDrag rotates like a trackball for a drag of (dx, dy) pixels in a
// viewport of the given size.
func (c *Camera) HandleDrag(dx, dy float32, width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.Azimuth(-20 / float32(width) * dx * c.MotionFactor)
	c.Elevation(20 / float32(height) * dy * c.MotionFactor)
}

// HandlePan translates position and focal point in the view plane.
func (c *Camera) HandlePan(dx, dy float32, width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	d := c.direction()
	right := d.Cross(c.ViewUp).Normalize()
	up := right.Cross(d)
	// World size of one pixel at the focal plane.
	scale := 2 * c.Distance() * float32(math.Tan(float64(mgl32.DegToRad(c.ViewAngle))/2)) / float32(height)
	shift := right.Mul(-dx * scale).Add(up.Mul(dy * scale))
	c.Position = c.Position.Add(shift)
	c.FocalPoint = c.FocalPoint.Add(shift)
}

// HandleWheel zooms for a wheel motion of delta notches.
func (c *Camera) HandleWheel(delta float32) {
	f := c.MotionFactor * 0.2 * c.WheelFactor * delta
	c.Dolly(float32(math.Pow(1.1, float64(f))))
}

// Reset keeps the view direction and up vector and moves the camera so
// that the sphere around box fits the view angle, then refits the
// clipping range. An empty box leaves the camera alone.
func (c *Camera) Reset(box dvec3.Box) {
	if box.Min[0] > box.Max[0] {
		return
	}
	center := mgl32.Vec3{
		float32((box.Min[0] + box.Max[0]) / 2),
		float32((box.Min[1] + box.Max[1]) / 2),
		float32((box.Min[2] + box.Max[2]) / 2),
	}
	diag := box.Max
	diag.Sub(&box.Min)
	radius := float32(diag.Length() / 2)
	if radius == 0 {
		radius = 0.5
	}
	angle := float64(mgl32.DegToRad(c.ViewAngle))
	dist := radius / float32(math.Sin(angle/2))

	d := c.direction()
	c.FocalPoint = center
	c.Position = center.Sub(d.Mul(dist))
	c.OrthogonalizeViewUp()
	c.ResetClippingRange(box)
}

// ResetClippingRange fits the near and far planes around box.
func (c *Camera) ResetClippingRange(box dvec3.Box) {
	if box.Min[0] > box.Max[0] {
		return
	}
	d := c.direction()
	near, far := float32(math.MaxFloat32), float32(-math.MaxFloat32)
	for i := 0; i < 8; i++ {
		p := mgl32.Vec3{
			float32(pick(i&1 != 0, box.Max[0], box.Min[0])),
			float32(pick(i&2 != 0, box.Max[1], box.Min[1])),
			float32(pick(i&4 != 0, box.Max[2], box.Min[2])),
		}
		dist := p.Sub(c.Position).Dot(d)
		near = min(near, dist)
		far = max(far, dist)
	}
	// Pad by 1% so faces on the bounds are not clipped.
	near, far = near*0.99, far*1.01
	if far <= 0 {
		far = 1
	}
	if near < far*0.001 {
		near = far * 0.001
	}
	c.Near, c.Far = near, far
}

// Project maps a world point to window pixels (origin top left). ok is
// false for points behind the camera.
func Project(vp mgl32.Mat4, p mgl32.Vec3, width, height int) (x, y float32, ok bool) {
	clip := vp.Mul4x1(p.Vec4(1))
	if clip[3] <= 0 {
		return 0, 0, false
	}
	ndcX, ndcY := clip[0]/clip[3], clip[1]/clip[3]
	x = (ndcX + 1) / 2 * float32(width)
	y = (1 - ndcY) / 2 * float32(height)
	return x, y, true
}

func pick(cond bool, a, b float64) float64 {
	if cond {
		return a
	}
	return b
}
