package app

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/meshview/internal/engine/glsl"
	"github.com/Faultbox/meshview/internal/engine/headless"
	"github.com/Faultbox/meshview/internal/scene"
)

const quadVTK = `# vtk DataFile Version 3.0
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

func newApp(t *testing.T) (*App, *headless.Backend, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(core)

	b := headless.New(headless.DefaultConfig(), log)
	cfg := scene.DefaultConfig()
	cfg.Backend = b.Scene()
	cfg.Logger = log
	ctl, err := scene.New(cfg)
	require.NoError(t, err)

	a := New(ctl, log)
	a.Initialize()
	return a, b, logs
}

func load(a *App) {
	buf := []byte(quadVTK)
	a.LoadDataFileFromMemory("quad.vtk", buf, len(buf))
}

func TestShaderStringsBeforeAndAfterLoad(t *testing.T) {
	a, _, _ := newApp(t)

	assert.Equal(t, ShaderSuccess, a.SetVertexShaderSource("garbage"))
	assert.Equal(t, ShaderNotReady, a.GetVertexShaderSource())
	assert.Equal(t, ShaderNotReady, a.GetFragmentShaderSource())

	load(a)
	assert.Equal(t, glsl.MeshVertex, a.GetVertexShaderSource())
	assert.Equal(t, glsl.MeshFragment, a.GetFragmentShaderSource())

	diag := a.SetFragmentShaderSource("void main() {")
	assert.NotEqual(t, ShaderSuccess, diag)
	assert.Contains(t, diag, "error")
	assert.Equal(t, glsl.MeshFragment, a.GetFragmentShaderSource(), "rejected source is not kept")

	src := strings.Replace(glsl.MeshFragment, "0.3 + 0.7", "0.5 + 0.5", 1)
	assert.Equal(t, ShaderSuccess, a.SetFragmentShaderSource(src))
	assert.Equal(t, src, a.GetFragmentShaderSource())
}

func TestLoadClampsByteCount(t *testing.T) {
	a, b, _ := newApp(t)
	buf := []byte(quadVTK)

	a.LoadDataFileFromMemory("quad.vtk", buf, len(buf)+100)
	assert.Equal(t, "height", a.GetPointDataArrays())
	assert.Equal(t, "pressure", a.GetCellDataArrays())
	assert.Equal(t, headless.Frame{Triangles: 2}, b.LastFrame())

	gen := a.Controller().Scene().Generation
	a.LoadDataFileFromMemory("quad.vtk", buf, -5)
	assert.Equal(t, gen, a.Controller().Scene().Generation, "failed load keeps the mesh")
	assert.Equal(t, "height", a.GetPointDataArrays())
}

func TestUnknownExtensionIsIgnored(t *testing.T) {
	a, _, logs := newApp(t)
	load(a)
	a.LoadDataFileFromMemory("notes.txt", []byte("hello"), 5)

	assert.Equal(t, "height", a.GetPointDataArrays())
	assert.Equal(t, 1, logs.FilterMessage("LoadDataFileFromMemory ignored").Len())
}

func TestColoringThroughHostSurface(t *testing.T) {
	a, b, logs := newApp(t)
	load(a)

	renders := b.Frames()
	a.SetColorByArray("height")
	assert.Equal(t, renders, b.Frames(), "coloring waits for the next render")
	assert.Equal(t, "height", a.Controller().Coloring().Array)

	a.Render()
	assert.True(t, b.LastFrame().Colored)

	a.SetColorByArray("missing")
	assert.Equal(t, "height", a.Controller().Coloring().Array)

	a.SetColorByArray("Solid")
	a.Render()
	assert.False(t, b.LastFrame().Colored)

	assert.Equal(t, "Spectrum;Warm;Cool;Blues;WildFlower;Citrus", a.GetColorMapPresets())
	a.SetColorMapPreset("Warm")
	assert.Equal(t, "Warm", a.Controller().ColorMapPreset())
	a.SetColorMapPreset("Bogus")
	assert.Equal(t, "Warm", a.Controller().ColorMapPreset())
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.ErrorLevel).FilterMessage("SetColorMapPreset failed").Len())
}

func TestRepresentationAndProperties(t *testing.T) {
	a, b, _ := newApp(t)
	load(a)

	a.SetRepresentation(1)
	assert.Equal(t, headless.Frame{Edges: 4}, b.LastFrame())
	a.SetRepresentation(3)
	assert.Equal(t, headless.Frame{Triangles: 2, Edges: 4}, b.LastFrame())
	a.SetRepresentation(9)
	assert.Equal(t, scene.Surface, a.Controller().Actor().Property.Representation)

	a.SetPointSize(4)
	a.SetLineWidth(2)
	a.SetOpacity(0.5)
	a.SetColor(255, 0, 0)
	p := a.Controller().Actor().Property
	assert.InDelta(t, 4, p.PointSize, 1e-6)
	assert.InDelta(t, 2, p.LineWidth, 1e-6)
	assert.InDelta(t, 0.5, p.Opacity, 1e-6)
	assert.InDelta(t, 1, p.Color.R, 1e-9)
}

func TestSelectionStrings(t *testing.T) {
	a, b, _ := newApp(t)
	assert.Equal(t, "", a.GetSelectionFieldType())
	assert.Equal(t, "", a.GetSelectedIds())

	load(a)
	a.ResetView()
	b.EndPick(scene.Rect{X0: 0, Y0: 0, X1: 5000, Y1: 5000})

	assert.Equal(t, "POINT", a.GetSelectionFieldType())
	assert.Equal(t, "0;1;2;3", a.GetSelectedIds())
}

func TestLifecycleCalls(t *testing.T) {
	a, b, _ := newApp(t)
	load(a)

	a.Start()
	assert.False(t, b.Loop.Running())
	assert.Equal(t, uint64(1), b.Loop.Frames())

	a.Halt()
	assert.True(t, b.Loop.Paused())
	a.Resume()
	assert.False(t, b.Loop.Paused())

	a.Azimuth(90)
	a.RemoveAllActors()
	assert.Equal(t, "", a.GetPointDataArrays())
	assert.Equal(t, headless.Frame{}, b.LastFrame())
}

func TestOversizedCountsKeepMesh(t *testing.T) {
	a, _, logs := newApp(t)
	load(a)

	files := map[string]string{
		"a.vtk": "# vtk DataFile Version 3.0\nt\nASCII\nDATASET POLYDATA\nPOINTS 3074457345618258603 float\n0 0 0\n",
		"a.ply": "ply\nformat ascii 1.0\nelement vertex 9223372036854775807\nproperty float x\nproperty float y\nproperty float z\nend_header\n0 0 0\n",
		"a.vtp": `<VTKFile type="PolyData" version="1.0"><PolyData><Piece NumberOfPoints="6148914691236517206">` +
			`<Points><DataArray type="Float32" NumberOfComponents="3" format="ascii">0 0</DataArray></Points>` +
			`</Piece></PolyData></VTKFile>`,
	}
	for name, data := range files {
		buf := []byte(data)
		assert.NotPanics(t, func() { a.LoadDataFileFromMemory(name, buf, len(buf)) }, name)
		assert.Equal(t, "height", a.GetPointDataArrays(), name)
	}
	assert.Equal(t, len(files), logs.FilterMessage("LoadDataFileFromMemory failed").Len())
}
