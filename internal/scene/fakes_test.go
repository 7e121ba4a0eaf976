package scene

import (
	"errors"
	"io"
	"strings"

	"github.com/flywave/go3d/vec3"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/Faultbox/meshview/pkg/formats"
	"github.com/Faultbox/meshview/pkg/mesh"
)

type fakeProgram struct {
	sources [2]string
}

func (p *fakeProgram) Source(stage ShaderStage) string { return p.sources[stage] }

func (p *fakeProgram) Compile(stage ShaderStage, source string) error {
	if !strings.Contains(source, "void main") {
		return errors.New("0:1(1): error: syntax error, unexpected end of file")
	}
	p.sources[stage] = source
	return nil
}

type fakeRenderer struct {
	inner, outer colorful.Color
	actors       []*Actor
	renders      int
	resets       int
	clipResets   int
	azimuth      float64
	program      *fakeProgram
	staticAtDraw []bool
}

func (r *fakeRenderer) SetGradientBackground(inner, outer colorful.Color) {
	r.inner, r.outer = inner, outer
}

func (r *fakeRenderer) AddActor(a *Actor) {
	for _, x := range r.actors {
		if x == a {
			return
		}
	}
	r.actors = append(r.actors, a)
}

func (r *fakeRenderer) RemoveAllActors() { r.actors = nil }

func (r *fakeRenderer) Render() error {
	r.renders++
	for _, a := range r.actors {
		r.staticAtDraw = append(r.staticAtDraw, a.Mapper.Static)
		if a.Mapper.Mesh != nil && r.program == nil {
			r.program = &fakeProgram{sources: [2]string{"void main() { /* vs */ }", "void main() { /* fs */ }"}}
		}
	}
	return nil
}

func (r *fakeRenderer) ResetCamera()              { r.resets++ }
func (r *fakeRenderer) Azimuth(degrees float64)   { r.azimuth += degrees }
func (r *fakeRenderer) ResetCameraClippingRange() { r.clipResets++ }

func (r *fakeRenderer) ShaderProgram() ShaderProgram {
	if r.program == nil {
		return nil
	}
	return r.program
}

type fakeInteractor struct {
	scroll float64
	pick   func(PickEvent)
}

func (i *fakeInteractor) SetScrollSensitivity(f float64) { i.scroll = f }
func (i *fakeInteractor) OnEndPick(fn func(PickEvent))   { i.pick = fn }

type fakeWindow struct{ w, h int }

func (w fakeWindow) Size() (int, int) { return w.w, w.h }

type fakeSelector struct {
	result *SelectionResult
	err    error
	areas  []Rect
}

func (s *fakeSelector) Select(area Rect) (*SelectionResult, error) {
	s.areas = append(s.areas, area)
	if s.err != nil {
		return nil, s.err
	}
	res := *s.result
	res.IDs = append([]int(nil), s.result.IDs...)
	return &res, nil
}

type fakeHost struct {
	started, paused, resumed int
}

func (h *fakeHost) Start()  { h.started++ }
func (h *fakeHost) Pause()  { h.paused++ }
func (h *fakeHost) Resume() { h.resumed++ }

// temperatureTriangle is a single triangle with one point scalar array.
func temperatureTriangle() *mesh.Mesh {
	m := mesh.New()
	m.Points = []vec3.T{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	m.Polys = [][]int{{0, 1, 2}}
	_ = m.PointData.Add(mesh.NewDataArray("temperature", 1, []float64{10, 20, 40}))
	return m
}

// testRegistry is the default registry with ".obj" answering a fixed
// triangle carrying a "temperature" point array.
func testRegistry() *formats.Registry {
	reg := formats.Default()
	reg.Replace(&formats.Format{
		Name:       "stub OBJ",
		Extensions: []string{".obj"},
		Input:      formats.InputMemory,
		Parser: formats.ParserFunc(func(r io.ReadSeeker) (*mesh.Mesh, error) {
			if _, err := io.ReadAll(r); err != nil {
				return nil, err
			}
			return temperatureTriangle(), nil
		}),
	})
	return reg
}

type harness struct {
	ctl      *Controller
	renderer *fakeRenderer
	inter    *fakeInteractor
	selector *fakeSelector
	host     *fakeHost
}

func newHarness() (*harness, error) {
	h := &harness{
		renderer: &fakeRenderer{},
		inter:    &fakeInteractor{},
		selector: &fakeSelector{result: &SelectionResult{FieldType: FieldPoint, IDs: []int{0, 2}}},
		host:     &fakeHost{},
	}
	cfg := DefaultConfig()
	cfg.Registry = testRegistry()
	cfg.Backend = Backend{
		Renderer:   h.renderer,
		Interactor: h.inter,
		Window:     fakeWindow{w: 640, h: 480},
		Selector:   h.selector,
		Host:       h.host,
	}
	ctl, err := New(cfg)
	if err != nil {
		return nil, err
	}
	h.ctl = ctl
	ctl.Initialize()
	return h, nil
}

const asciiVTK = `# vtk DataFile Version 3.0
quad
ASCII
DATASET POLYDATA
POINTS 4 float
0 0 0 1 0 0 1 1 0 0 1 0
POLYGONS 1 5
4 0 1 2 3
CELL_DATA 1
SCALARS pressure float 1
LOOKUP_TABLE default
3.5
POINT_DATA 4
SCALARS height float 1
0 0 1 1
`
