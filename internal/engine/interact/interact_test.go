package interact

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/meshview/internal/engine/camera"
	"github.com/Faultbox/meshview/internal/scene"
)

func newInteractor() (*Interactor, *camera.Camera) {
	cam := camera.New()
	return New(cam, func() (int, int) { return 800, 600 }, nil), cam
}

func TestLeftDragRotates(t *testing.T) {
	it, cam := newInteractor()
	start := cam.Position

	it.Press(ButtonLeft, 100, 100, false)
	it.Move(140, 100)
	it.Release(ButtonLeft, 140, 100)

	assert.NotEqual(t, start, cam.Position)
	assert.InDelta(t, 1, cam.Distance(), 1e-4, "rotation keeps the distance")
	assert.True(t, it.TakeRedraw())
	assert.False(t, it.TakeRedraw())
}

func TestRightDragPans(t *testing.T) {
	it, cam := newInteractor()
	it.Press(ButtonRight, 0, 0, false)
	it.Move(10, 0)
	it.Release(ButtonRight, 10, 0)

	shift := cam.FocalPoint.Sub(mgl32.Vec3{})
	assert.Less(t, shift.X(), float32(0), "dragging right moves the scene right")
	assert.InDelta(t, 1, cam.Distance(), 1e-5)
}

func TestRubberBandPick(t *testing.T) {
	it, cam := newInteractor()
	start := cam.Position

	var got []scene.PickEvent
	it.OnEndPick(func(ev scene.PickEvent) { got = append(got, ev) })

	it.Press(ButtonLeft, 300, 200, true)
	it.Move(120, 50)
	band, ok := it.Band()
	require.True(t, ok)
	assert.Equal(t, scene.Rect{X0: 120, Y0: 50, X1: 300, Y1: 200}, band)

	it.Release(ButtonLeft, 120, 50)
	assert.Equal(t, []scene.PickEvent{{X0: 300, Y0: 200, X1: 120, Y1: 50}}, got)
	assert.Equal(t, start, cam.Position, "banding does not move the camera")
	_, ok = it.Band()
	assert.False(t, ok)
}

func TestPickModeWithoutShift(t *testing.T) {
	it, _ := newInteractor()
	picks := 0
	it.OnEndPick(func(scene.PickEvent) { picks++ })

	it.Press(ButtonLeft, 0, 0, false)
	it.Release(ButtonLeft, 5, 5)
	assert.Equal(t, 0, picks)

	it.SetPickMode(true)
	assert.True(t, it.PickMode())
	it.Press(ButtonLeft, 0, 0, false)
	it.Release(ButtonLeft, 5, 5)
	assert.Equal(t, 1, picks)
}

func TestWheelUsesScrollSensitivity(t *testing.T) {
	slow, slowCam := newInteractor()
	fast, fastCam := newInteractor()
	slow.SetScrollSensitivity(0.15)
	fast.SetScrollSensitivity(1)

	slow.Wheel(1)
	fast.Wheel(1)
	assert.Less(t, slowCam.Distance(), float32(1))
	assert.Less(t, fastCam.Distance(), slowCam.Distance())

	fast.TakeRedraw()
	fast.Wheel(0)
	assert.False(t, fast.TakeRedraw())
}
