package scene

import (
	"errors"

	"github.com/lucasb-eyer/go-colorful"
)

// ErrSelectionUnsupported is returned by a Selector that cannot run
// selection queries, for example without an ID buffer.
var ErrSelectionUnsupported = errors.New("selection not supported")

// Renderer draws the actor and owns the camera.
type Renderer interface {
	// SetGradientBackground sets a radial gradient from the viewport
	// center (inner) to its farthest corner (outer).
	SetGradientBackground(inner, outer colorful.Color)
	AddActor(a *Actor)
	RemoveAllActors()
	Render() error
	ResetCamera()
	Azimuth(degrees float64)
	ResetCameraClippingRange()
	// ShaderProgram returns the program used for the actor, or nil when
	// no render pass has built one yet.
	ShaderProgram() ShaderProgram
}

// Interactor turns device input into camera motion and pick events.
type Interactor interface {
	SetScrollSensitivity(factor float64)
	OnEndPick(fn func(PickEvent))
}

// Window is the render surface.
type Window interface {
	Size() (width, height int)
}

// Selector answers area selection queries against the last rendered frame.
type Selector interface {
	Select(area Rect) (*SelectionResult, error)
}

// Host runs the cooperative main loop.
type Host interface {
	Start()
	Pause()
	Resume()
}

// ShaderStage identifies one stage of a shader program.
type ShaderStage uint8

const (
	VertexStage ShaderStage = iota
	FragmentStage
)

func (s ShaderStage) String() string {
	if s == FragmentStage {
		return "fragment"
	}
	return "vertex"
}

// ShaderProgram is a linked program whose stages can be replaced at run
// time. Compile must leave the previous source and program in place when
// the new source fails to compile or link, and return the diagnostic.
type ShaderProgram interface {
	Source(stage ShaderStage) string
	Compile(stage ShaderStage, source string) error
}

// Backend bundles the collaborators a Controller drives.
type Backend struct {
	Renderer   Renderer
	Interactor Interactor
	Window     Window
	Selector   Selector
	Host       Host
}
