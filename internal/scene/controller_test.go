package scene

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/meshview/internal/colormap"
)

func loadOBJ(t *testing.T, h *harness) {
	t.Helper()
	buf := []byte("v 0 0 0\n")
	require.NoError(t, h.ctl.Load("triangle.obj", buf, len(buf)))
}

func TestNewRequiresRenderer(t *testing.T) {
	_, err := New(DefaultConfig())
	assert.Error(t, err)
}

func TestInitialize(t *testing.T) {
	h, err := newHarness()
	require.NoError(t, err)

	assert.Equal(t, DefaultBackgroundInner, h.renderer.inner)
	assert.Equal(t, DefaultBackgroundOuter, h.renderer.outer)
	assert.InDelta(t, 0.15, h.inter.scroll, 1e-12)
	assert.InDelta(t, 0.15, h.ctl.ScrollSensitivity(), 1e-12)
	require.NotNil(t, h.inter.pick, "pick observer installed")

	h.ctl.Initialize()
	assert.InDelta(t, 0.15, h.inter.scroll, 1e-12)
}

func TestLoadTemperatureScenario(t *testing.T) {
	h, err := newHarness()
	require.NoError(t, err)
	loadOBJ(t, h)

	assert.Equal(t, "temperature", h.ctl.PointDataArrays())
	assert.Equal(t, "", h.ctl.CellDataArrays())

	require.NoError(t, h.ctl.SetColorByArray("temperature"))
	m := h.ctl.Actor().Mapper
	assert.True(t, m.ScalarVisibility)
	assert.Equal(t, UsePointFieldData, m.ScalarMode)
	assert.Equal(t, [2]float64{10, 40}, m.ScalarRange)
	lo, hi := m.LookupTable.Range()
	assert.Equal(t, 10.0, lo)
	assert.Equal(t, 40.0, hi)

	require.NoError(t, h.ctl.SetColorByArray("Solid"))
	assert.False(t, h.ctl.Actor().Mapper.ScalarVisibility)
	assert.True(t, h.ctl.Coloring().IsSolid())
	assert.Equal(t, "temperature", h.ctl.PointDataArrays())
	assert.Equal(t, colormap.Presets(), "Spectrum;Warm;Cool;Blues;WildFlower;Citrus")
}

func TestLoadRendersOnceThenMarksStatic(t *testing.T) {
	h, err := newHarness()
	require.NoError(t, err)
	loadOBJ(t, h)

	assert.Equal(t, 1, h.renderer.renders)
	assert.Equal(t, []bool{false}, h.renderer.staticAtDraw)
	assert.True(t, h.ctl.Actor().Mapper.Static)
	assert.Len(t, h.renderer.actors, 1)
	assert.Equal(t, uint64(1), h.ctl.Scene().Generation)
}

func TestLoadInstallsDefaultScalarRange(t *testing.T) {
	h, err := newHarness()
	require.NoError(t, err)
	loadOBJ(t, h)

	m := h.ctl.Actor().Mapper
	assert.False(t, m.ScalarVisibility)
	assert.Equal(t, [2]float64{0, 1}, m.ScalarRange)
	lo, hi := m.LookupTable.Range()
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 1.0, hi)

	require.NoError(t, h.ctl.SetColorByArray("temperature"))
	loadOBJ(t, h)
	assert.Equal(t, [2]float64{0, 1}, h.ctl.Actor().Mapper.ScalarRange, "a new load resets the range")

	h.ctl.RemoveAllActors()
	assert.Equal(t, [2]float64{0, 1}, h.ctl.Actor().Mapper.ScalarRange)
}

func TestLoadUnknownExtensionKeepsScene(t *testing.T) {
	h, err := newHarness()
	require.NoError(t, err)

	err = h.ctl.Load("cloud.xyz", []byte("1 2 3"), 5)
	assert.ErrorIs(t, err, &Error{Kind: UnsupportedFormat})
	assert.Nil(t, h.ctl.Scene().Mesh)
	assert.Equal(t, "", h.ctl.PointDataArrays())

	loadOBJ(t, h)
	before := h.ctl.Scene()
	err = h.ctl.Load("cloud.xyz", []byte("1 2 3"), 5)
	assert.Equal(t, UnsupportedFormat, KindOf(err))
	assert.Same(t, before, h.ctl.Scene())
	assert.Equal(t, "temperature", h.ctl.PointDataArrays())
}

func TestLoadIsCaseSensitive(t *testing.T) {
	h, err := newHarness()
	require.NoError(t, err)
	buf := []byte("v 0 0 0\n")
	err = h.ctl.Load("TRIANGLE.OBJ", buf, len(buf))
	assert.Equal(t, UnsupportedFormat, KindOf(err))
}

func TestLoadDisabledAndBrokenFormats(t *testing.T) {
	h, err := newHarness()
	require.NoError(t, err)

	err = h.ctl.Load("model.glb", []byte("glTF"), 4)
	assert.Equal(t, FormatDisabled, KindOf(err))

	err = h.ctl.Load("broken.vtk", []byte("garbage"), 7)
	assert.Equal(t, ParseFailed, KindOf(err))
	assert.Nil(t, h.ctl.Scene().Mesh)
}

func TestLoadLegacyVTKListsBothDomains(t *testing.T) {
	h, err := newHarness()
	require.NoError(t, err)
	buf := []byte(asciiVTK)
	require.NoError(t, h.ctl.Load("quad.vtk", buf, len(buf)))

	assert.Equal(t, "height", h.ctl.PointDataArrays())
	assert.Equal(t, "pressure", h.ctl.CellDataArrays())

	require.NoError(t, h.ctl.SetColorByArray("pressure"))
	m := h.ctl.Actor().Mapper
	assert.Equal(t, UseCellFieldData, m.ScalarMode)
	assert.Equal(t, [2]float64{3.5, 3.5}, m.ScalarRange)
	assert.Equal(t, ByArray("pressure", CellDomain), h.ctl.Coloring())
}

func TestSetColorByUnknownArrayIsNoOp(t *testing.T) {
	h, err := newHarness()
	require.NoError(t, err)

	assert.Equal(t, NoMesh, KindOf(h.ctl.SetColorByArray("temperature")))

	loadOBJ(t, h)
	require.NoError(t, h.ctl.SetColorByArray("temperature"))
	before := h.ctl.Actor().Mapper

	err = h.ctl.SetColorByArray("pressure")
	assert.Equal(t, UnknownColorArray, KindOf(err))
	assert.Equal(t, before, h.ctl.Actor().Mapper)
}

func TestCellDomainChecksCellSet(t *testing.T) {
	h, err := newHarness()
	require.NoError(t, err)
	loadOBJ(t, h)

	err = h.ctl.SetColoring(ByArray("temperature", CellDomain))
	assert.Equal(t, UnknownColorArray, KindOf(err))
	assert.False(t, h.ctl.Actor().Mapper.ScalarVisibility)
}

func TestSetColorMapPreset(t *testing.T) {
	h, err := newHarness()
	require.NoError(t, err)
	loadOBJ(t, h)
	require.NoError(t, h.ctl.SetColorByArray("temperature"))

	require.NoError(t, h.ctl.SetColorMapPreset("Warm"))
	assert.Equal(t, "Warm", h.ctl.ColorMapPreset())
	assert.Equal(t, "Warm", h.ctl.Actor().Mapper.LookupTable.Scheme())
	assert.Len(t, h.ctl.Actor().Mapper.LookupTable.Points(), colormap.MustLookup("Warm").Len())

	err = h.ctl.SetColorMapPreset("Rainbow")
	assert.Equal(t, UnknownColorScheme, KindOf(err))
	assert.True(t, errors.Is(err, colormap.ErrUnknownScheme))
	assert.Equal(t, "Warm", h.ctl.ColorMapPreset())
}

func TestLookupTableSpansRange(t *testing.T) {
	h, err := newHarness()
	require.NoError(t, err)
	loadOBJ(t, h)
	require.NoError(t, h.ctl.SetColorByArray("temperature"))

	for _, name := range colormap.Names() {
		require.NoError(t, h.ctl.SetColorMapPreset(name))
		pts := h.ctl.Actor().Mapper.LookupTable.Points()
		require.GreaterOrEqual(t, len(pts), 2, name)
		assert.Equal(t, 10.0, pts[0].Value, name)
		assert.Equal(t, 40.0, pts[len(pts)-1].Value, name)
		for i := 1; i < len(pts); i++ {
			assert.GreaterOrEqual(t, pts[i].Value, pts[i-1].Value, name)
		}
	}
}

func TestPropertySetters(t *testing.T) {
	h, err := newHarness()
	require.NoError(t, err)
	c := h.ctl

	c.SetColor(255, 0, 0)
	col := c.Actor().Property.Color
	assert.InDelta(t, 1.0, col.R, 1e-9)
	assert.InDelta(t, 0.0, col.G, 1e-9)
	assert.InDelta(t, 0.0, col.B, 1e-9)

	c.SetEdgeColor(0, 255, 0)
	assert.InDelta(t, 1.0, c.Actor().Property.EdgeColor.G, 1e-9)
	c.SetVertexColor(0, 0, 51)
	assert.InDelta(t, 0.2, c.Actor().Property.VertexColor.B, 1e-9)

	c.SetOpacity(0.5)
	c.SetEdgeOpacity(0.25)
	c.SetPointSize(4)
	c.SetLineWidth(2)
	c.SetVertexVisibility(true)
	c.SetInterpolateScalarsBeforeMapping(true)
	p := c.Actor().Property
	assert.Equal(t, 0.5, p.Opacity)
	assert.Equal(t, 0.25, p.EdgeOpacity)
	assert.Equal(t, 4.0, p.PointSize)
	assert.Equal(t, 2.0, p.LineWidth)
	assert.True(t, p.VertexVisibility)
	assert.True(t, c.Actor().Mapper.InterpolateScalarsBeforeMapping)

	loadOBJ(t, h)
	assert.True(t, c.Actor().Mapper.InterpolateScalarsBeforeMapping, "kept across loads")
}

func TestSetRepresentation(t *testing.T) {
	tests := []struct {
		mode  int
		rep   Representation
		edges bool
	}{
		{0, Points, false},
		{1, Wireframe, false},
		{2, Surface, false},
		{3, Surface, true},
	}
	for _, tt := range tests {
		h, err := newHarness()
		require.NoError(t, err)
		h.ctl.SetRepresentation(3)
		h.ctl.SetRepresentation(tt.mode)
		p := h.ctl.Actor().Property
		assert.Equal(t, tt.rep, p.Representation, "mode %d", tt.mode)
		assert.Equal(t, tt.edges, p.EdgeVisibility, "mode %d", tt.mode)
		assert.Equal(t, 2, h.renderer.renders)
	}

	h, err := newHarness()
	require.NoError(t, err)
	h.ctl.SetRepresentation(7)
	assert.Equal(t, Surface, h.ctl.Actor().Property.Representation)
	assert.Equal(t, 1, h.renderer.renders)
}

func TestCameraAndLifecycle(t *testing.T) {
	h, err := newHarness()
	require.NoError(t, err)
	c := h.ctl

	c.Azimuth(30)
	c.Azimuth(15)
	assert.Equal(t, 45.0, h.renderer.azimuth)
	assert.Equal(t, 2, h.renderer.clipResets)

	c.ResetView()
	assert.Equal(t, 1, h.renderer.resets)

	c.Start()
	assert.Equal(t, 2, h.renderer.resets)
	assert.Equal(t, 1, h.host.started)
	c.Halt()
	c.Resume()
	assert.Equal(t, 1, h.host.paused)
	assert.Equal(t, 1, h.host.resumed)

	c.SetScrollSensitivity(0.5)
	assert.Equal(t, 0.5, h.inter.scroll)
}

func TestRemoveAllActors(t *testing.T) {
	h, err := newHarness()
	require.NoError(t, err)
	loadOBJ(t, h)

	h.ctl.RemoveAllActors()
	assert.Empty(t, h.renderer.actors)
	assert.Nil(t, h.ctl.Scene().Mesh)
	assert.Equal(t, "", h.ctl.PointDataArrays())
	assert.Equal(t, NoMesh, KindOf(h.ctl.SetColorByArray("temperature")))
}

func TestShaderSource(t *testing.T) {
	h, err := newHarness()
	require.NoError(t, err)
	c := h.ctl

	_, err = c.ShaderSource(VertexStage)
	assert.Equal(t, ShaderProgramNotReady, KindOf(err))
	res, err := c.SetShaderSource(VertexStage, "void main() {}")
	assert.True(t, res.OK)
	assert.Equal(t, ShaderProgramNotReady, KindOf(err))

	loadOBJ(t, h)
	valid := "void main() { gl_Position = vec4(0.0); }"
	res, err = c.SetShaderSource(VertexStage, valid)
	require.NoError(t, err)
	assert.True(t, res.OK)

	res, err = c.SetShaderSource(VertexStage, "this is not glsl")
	assert.False(t, res.OK)
	assert.Contains(t, res.Diagnostic, "error")
	assert.Equal(t, ShaderCompileFailed, KindOf(err))

	src, err := c.ShaderSource(VertexStage)
	require.NoError(t, err)
	assert.Equal(t, valid, src)

	frag, err := c.ShaderSource(FragmentStage)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(frag, "void main"))
}
