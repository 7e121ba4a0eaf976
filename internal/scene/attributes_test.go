package scene

import (
	"strings"
	"testing"

	"github.com/flywave/go3d/vec3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/meshview/internal/colormap"
	"github.com/Faultbox/meshview/pkg/mesh"
)

func TestAttributeRegistry(t *testing.T) {
	m := temperatureTriangle()
	require.NoError(t, m.PointData.Add(mesh.NewDataArray("velocity", 3, make([]float64, 9))))
	require.NoError(t, m.CellData.Add(mesh.NewDataArray("id", 1, []float64{7})))

	r := NewAttributeRegistry(m)
	assert.True(t, r.Has(PointDomain, "velocity"))
	assert.False(t, r.Has(CellDomain, "velocity"))
	assert.True(t, r.Has(CellDomain, "id"))

	names := strings.Split(r.ListPointArrays(), ListSeparator)
	assert.ElementsMatch(t, []string{"temperature", "velocity"}, names)
	assert.False(t, strings.HasSuffix(r.ListPointArrays(), ListSeparator))
	assert.Equal(t, "id", r.ListCellArrays())

	r.Refresh(mesh.New())
	assert.Equal(t, "", r.ListPointArrays())
	assert.Equal(t, "", r.ListCellArrays())

	var nilReg *AttributeRegistry
	assert.False(t, nilReg.Has(PointDomain, "x"))
	assert.Equal(t, "", nilReg.ListPointArrays())
}

func TestColoringCycle(t *testing.T) {
	m := temperatureTriangle()
	require.NoError(t, m.CellData.Add(mesh.NewDataArray("temperature", 1, []float64{5})))
	r := NewAttributeRegistry(m)

	want := []Coloring{Solid(), ByArray("temperature", PointDomain), ByArray("temperature", CellDomain)}
	assert.Equal(t, want, r.Colorings())

	c := Solid()
	for i := 1; i <= 3; i++ {
		c = r.NextColoring(c)
		assert.Equal(t, want[i%3], c)
	}
	assert.Equal(t, Solid(), r.NextColoring(ByArray("gone", PointDomain)))

	var empty *AttributeRegistry
	assert.Equal(t, Solid(), empty.NextColoring(Solid()))
}

func TestResolveColoring(t *testing.T) {
	m := temperatureTriangle()
	require.NoError(t, m.CellData.Add(mesh.NewDataArray("temperature", 1, []float64{1})))
	require.NoError(t, m.CellData.Add(mesh.NewDataArray("region", 1, []float64{2})))
	r := NewAttributeRegistry(m)

	tests := []struct {
		name string
		want Coloring
		kind ErrorKind
	}{
		{"Solid", Solid(), 0},
		{"temperature", ByArray("temperature", PointDomain), 0},
		{"region", ByArray("region", CellDomain), 0},
		{"missing", Coloring{}, UnknownColorArray},
	}
	for _, tt := range tests {
		got, err := ResolveColoring(tt.name, r)
		assert.Equal(t, tt.kind, KindOf(err), tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}
}

func TestMapperScalars(t *testing.T) {
	m := temperatureTriangle()
	var mp Mapper
	mp.Mesh = m
	p := NewColorPipeline(&mp, nil)
	attrs := NewAttributeRegistry(m)

	_, _, ok := mp.MapScalars()
	assert.False(t, ok)

	require.NoError(t, p.SetColoring(ByArray("temperature", PointDomain), m, attrs))
	cols, cellData, ok := mp.MapScalars()
	require.True(t, ok)
	assert.False(t, cellData)
	require.Len(t, cols, 3)
	first := colormap.MustLookup(colormap.DefaultScheme).Color(0)
	assert.True(t, cols[0].AlmostEqualRgb(first))

	assert.Equal(t, []float32{0, 1.0 / 3, 1}, mp.TextureCoords())

	require.NoError(t, p.SetColoring(Solid(), m, attrs))
	assert.Nil(t, mp.TextureCoords())
}

func TestPipelineDegenerateRange(t *testing.T) {
	m := mesh.New()
	m.Points = []vec3.T{{0, 0, 0}}
	m.Verts = [][]int{{0}}
	require.NoError(t, m.PointData.Add(mesh.NewDataArray("flat", 1, []float64{5})))
	var mp Mapper
	mp.Mesh = m
	p := NewColorPipeline(&mp, nil)

	require.NoError(t, p.SetColoring(ByArray("flat", PointDomain), m, NewAttributeRegistry(m)))
	for _, pt := range mp.LookupTable.Points() {
		assert.Equal(t, 5.0, pt.Value)
	}
	assert.Equal(t, []float32{0}, mp.TextureCoords())
}

func TestErrorFormatting(t *testing.T) {
	err := newError(UnknownColorArray, "set coloring", "temp", nil)
	assert.Equal(t, `set coloring: unknown color array "temp"`, err.Error())
	assert.ErrorIs(t, err, &Error{Kind: UnknownColorArray})
	assert.NotErrorIs(t, err, &Error{Kind: NoMesh})
}
