// Package interact turns pointer gestures into camera motion and rubber
// band picks. It knows nothing about the windowing system; the viewer feeds
// it positions in drawable pixels.
package interact

import (
	"go.uber.org/zap"

	"github.com/Faultbox/meshview/internal/engine/camera"
	"github.com/Faultbox/meshview/internal/scene"
)

// Button identifies a pointer button.
type Button uint8

const (
	ButtonLeft Button = iota + 1
	ButtonMiddle
	ButtonRight
)

type mode uint8

const (
	idle mode = iota
	rotating
	panning
	banding
)

// Interactor implements scene.Interactor. Left drag rotates, middle or
// right drag pans, the wheel zooms. In pick mode, or with shift held, a
// left drag draws a rubber band and its release ends a pick.
type Interactor struct {
	cam  *camera.Camera
	size func() (int, int)
	log  *zap.Logger

	scroll   float64
	onPick   []func(scene.PickEvent)
	pickMode bool

	mode       mode
	lastX      int
	lastY      int
	bandX      int
	bandY      int
	needRedraw bool
}

// New creates an interactor steering cam. size reports the viewport in the
// same pixel units as the positions passed to the gesture methods.
func New(cam *camera.Camera, size func() (int, int), log *zap.Logger) *Interactor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Interactor{cam: cam, size: size, log: log, scroll: 1}
}

// SetScrollSensitivity scales wheel zoom.
func (i *Interactor) SetScrollSensitivity(f float64) {
	i.scroll = f
	i.cam.WheelFactor = float32(f)
}

// OnEndPick registers fn to run when a rubber band is released.
func (i *Interactor) OnEndPick(fn func(scene.PickEvent)) {
	i.onPick = append(i.onPick, fn)
}

// SetPickMode makes plain left drags draw rubber bands.
func (i *Interactor) SetPickMode(on bool) {
	i.pickMode = on
	i.log.Debug("pick mode", zap.Bool("on", on))
}

// PickMode reports whether plain left drags pick.
func (i *Interactor) PickMode() bool { return i.pickMode }

// Press starts a gesture.
func (i *Interactor) Press(b Button, x, y int, shift bool) {
	i.lastX, i.lastY = x, y
	switch {
	case b == ButtonLeft && (i.pickMode || shift):
		i.mode = banding
		i.bandX, i.bandY = x, y
	case b == ButtonLeft:
		i.mode = rotating
	case b == ButtonMiddle || b == ButtonRight:
		i.mode = panning
	}
}

// Move continues the current gesture.
func (i *Interactor) Move(x, y int) {
	dx, dy := float32(x-i.lastX), float32(y-i.lastY)
	i.lastX, i.lastY = x, y
	w, h := i.size()
	switch i.mode {
	case rotating:
		i.cam.HandleDrag(dx, dy, w, h)
		i.cam.OrthogonalizeViewUp()
		i.needRedraw = true
	case panning:
		i.cam.HandlePan(dx, dy, w, h)
		i.needRedraw = true
	case banding:
		i.needRedraw = true
	}
}

// Release ends the current gesture. Releasing a rubber band notifies the
// pick observers with the band's corners.
func (i *Interactor) Release(b Button, x, y int) {
	if i.mode == banding && b == ButtonLeft {
		ev := scene.PickEvent{X0: i.bandX, Y0: i.bandY, X1: x, Y1: y}
		i.log.Debug("end pick", zap.Ints("area", []int{ev.X0, ev.Y0, ev.X1, ev.Y1}))
		for _, fn := range i.onPick {
			fn(ev)
		}
		i.needRedraw = true
	}
	i.mode = idle
}

// Wheel zooms by delta notches; positive moves closer.
func (i *Interactor) Wheel(delta float32) {
	if delta == 0 {
		return
	}
	i.cam.HandleWheel(delta)
	i.needRedraw = true
}

// Band returns the rubber band being dragged, if any.
func (i *Interactor) Band() (scene.Rect, bool) {
	if i.mode != banding {
		return scene.Rect{}, false
	}
	return scene.Rect{X0: i.bandX, Y0: i.bandY, X1: i.lastX, Y1: i.lastY}.Normalize(), true
}

// TakeRedraw reports whether a gesture changed the view since the last
// call and clears the flag.
func (i *Interactor) TakeRedraw() bool {
	r := i.needRedraw
	i.needRedraw = false
	return r
}
