// Package headless is a scene backend without a window or GPU. It keeps a
// real camera and selects points on the CPU, so the controller can run in
// command line tools and tests.
package headless

import (
	"fmt"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"go.uber.org/zap"

	"github.com/Faultbox/meshview/internal/engine/camera"
	"github.com/Faultbox/meshview/internal/engine/glsl"
	"github.com/Faultbox/meshview/internal/engine/picking"
	"github.com/Faultbox/meshview/internal/runloop"
	"github.com/Faultbox/meshview/internal/scene"
)

// Config holds backend configuration.
type Config struct {
	Width  int
	Height int
	// Field chooses whether picks return points or cells.
	Field scene.FieldType
	// NoSelection makes the selector report ErrSelectionUnsupported.
	NoSelection bool
	// Frames bounds the host loop started by the controller.
	Frames int
}

// DefaultConfig returns an 800x600 point-picking backend.
func DefaultConfig() Config {
	return Config{Width: 800, Height: 600, Field: scene.FieldPoint, Frames: 1}
}

// Frame summarizes what the last Render call would have drawn.
type Frame struct {
	Triangles int
	Edges     int
	Points    int
	// Colored is set when scalars were mapped through the lookup table.
	Colored bool
}

// Backend implements every collaborator of the scene controller.
type Backend struct {
	cfg Config
	log *zap.Logger

	Camera *camera.Camera
	Loop   *runloop.Loop

	inner, outer colorful.Color
	actors       []*scene.Actor
	program      *Program
	frames       int
	last         Frame

	scroll float64
	onPick []func(scene.PickEvent)
}

// New creates a headless backend.
func New(cfg Config, log *zap.Logger) *Backend {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = 800, 600
	}
	b := &Backend{cfg: cfg, log: log, Camera: camera.New()}
	b.Loop = runloop.New(runloop.Config{MaxFrames: cfg.Frames}, nil, func(_ time.Duration) error {
		return b.Render()
	}, log)
	return b
}

// Scene returns the backend as the controller's collaborators.
func (b *Backend) Scene() scene.Backend {
	return scene.Backend{Renderer: b, Interactor: b, Window: b, Selector: b, Host: b.Loop}
}

// Background returns the gradient colors.
func (b *Backend) Background() (inner, outer colorful.Color) { return b.inner, b.outer }

// Frames returns the number of Render calls.
func (b *Backend) Frames() int { return b.frames }

// LastFrame returns the summary of the last Render call.
func (b *Backend) LastFrame() Frame { return b.last }

// ScrollSensitivity returns the wheel factor set by the controller.
func (b *Backend) ScrollSensitivity() float64 { return b.scroll }

func (b *Backend) SetGradientBackground(inner, outer colorful.Color) {
	b.inner, b.outer = inner, outer
}

func (b *Backend) AddActor(a *scene.Actor) {
	for _, x := range b.actors {
		if x == a {
			return
		}
	}
	b.actors = append(b.actors, a)
}

func (b *Backend) RemoveAllActors() { b.actors = nil }

// Render counts the primitives each actor would produce.
func (b *Backend) Render() error {
	b.frames++
	var f Frame
	for _, a := range b.actors {
		m := a.Mapper.Mesh
		if m == nil {
			continue
		}
		if b.program == nil {
			b.program = newProgram()
		}
		tris, _ := m.Triangulate()
		edges, _ := m.Edges()
		p := a.Property
		switch p.Representation {
		case scene.Points:
			f.Points += m.NumberOfPoints()
		case scene.Wireframe:
			f.Edges += len(edges)
		default:
			f.Triangles += len(tris)
			if p.EdgeVisibility {
				f.Edges += len(edges)
			}
		}
		if p.VertexVisibility && p.Representation != scene.Points {
			f.Points += m.NumberOfPoints()
		}
		if _, _, ok := a.Mapper.MapScalars(); ok {
			f.Colored = true
		}
	}
	b.last = f
	return nil
}

func (b *Backend) ResetCamera()              { b.Camera.Reset(scene.Bounds(b.actors)) }
func (b *Backend) Azimuth(degrees float64)   { b.Camera.Azimuth(float32(degrees)) }
func (b *Backend) ResetCameraClippingRange() { b.Camera.ResetClippingRange(scene.Bounds(b.actors)) }

func (b *Backend) ShaderProgram() scene.ShaderProgram {
	if b.program == nil {
		return nil
	}
	return b.program
}

// Size implements scene.Window.
func (b *Backend) Size() (int, int) { return b.cfg.Width, b.cfg.Height }

// SetScrollSensitivity implements scene.Interactor.
func (b *Backend) SetScrollSensitivity(f float64) {
	b.scroll = f
	b.Camera.WheelFactor = float32(f)
}

// OnEndPick implements scene.Interactor.
func (b *Backend) OnEndPick(fn func(scene.PickEvent)) { b.onPick = append(b.onPick, fn) }

// EndPick simulates the end of a rubber band drag.
func (b *Backend) EndPick(area scene.Rect) {
	for _, fn := range b.onPick {
		fn(scene.PickEvent(area))
	}
}

// Wheel simulates wheel notches.
func (b *Backend) Wheel(delta float32) { b.Camera.HandleWheel(delta) }

// Select implements scene.Selector by projecting the first actor's points
// or cell centroids with the current camera.
func (b *Backend) Select(area scene.Rect) (*scene.SelectionResult, error) {
	if b.cfg.NoSelection {
		return nil, scene.ErrSelectionUnsupported
	}
	if f := b.cfg.Field; f != scene.FieldPoint && f != scene.FieldCell {
		return nil, fmt.Errorf("%w: field %s", scene.ErrSelectionUnsupported, f)
	}
	res := &scene.SelectionResult{FieldType: b.cfg.Field}
	if len(b.actors) == 0 || b.actors[0].Mapper.Mesh == nil {
		return res, nil
	}
	m := b.actors[0].Mapper.Mesh
	vp := b.Camera.ViewProjection(b.cfg.Width, b.cfg.Height)
	pa := picking.Area{X0: area.X0, Y0: area.Y0, X1: area.X1, Y1: area.Y1}
	switch b.cfg.Field {
	case scene.FieldPoint:
		res.IDs = picking.SelectPoints(m.Points, vp, b.cfg.Width, b.cfg.Height, pa)
	case scene.FieldCell:
		res.IDs = picking.SelectCells(m, vp, b.cfg.Width, b.cfg.Height, pa)
	}
	return res, nil
}

// Program stores shader sources and accepts replacements that pass
// glsl.Check.
type Program struct {
	sources [2]string
}

func newProgram() *Program {
	return &Program{sources: [2]string{glsl.MeshVertex, glsl.MeshFragment}}
}

func (p *Program) Source(stage scene.ShaderStage) string { return p.sources[stage] }

func (p *Program) Compile(stage scene.ShaderStage, source string) error {
	if err := glsl.Check(source); err != nil {
		return fmt.Errorf("%s shader: %w", stage, err)
	}
	p.sources[stage] = source
	return nil
}
