package scene

import (
	dvec3 "github.com/flywave/go3d/float64/vec3"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/Faultbox/meshview/internal/colormap"
	"github.com/Faultbox/meshview/pkg/mesh"
)

// Representation selects how surfaces are drawn.
type Representation int

const (
	Points Representation = iota
	Wireframe
	Surface
	SurfaceWithEdges
)

func (r Representation) String() string {
	switch r {
	case Points:
		return "points"
	case Wireframe:
		return "wireframe"
	case Surface:
		return "surface"
	case SurfaceWithEdges:
		return "surface with edges"
	default:
		return "unknown"
	}
}

// Property holds the appearance of the actor. Colors are in [0, 1].
type Property struct {
	Representation   Representation
	EdgeVisibility   bool
	VertexVisibility bool
	PointSize        float64
	LineWidth        float64
	Color            colorful.Color
	EdgeColor        colorful.Color
	VertexColor      colorful.Color
	Opacity          float64
	EdgeOpacity      float64
}

// DefaultProperty returns a white surface with black edges.
func DefaultProperty() Property {
	return Property{
		Representation: Surface,
		PointSize:      1,
		LineWidth:      1,
		Color:          colorful.Color{R: 1, G: 1, B: 1},
		VertexColor:    colorful.Color{R: 0.5, G: 1, B: 0.5},
		Opacity:        1,
		EdgeOpacity:    1,
	}
}

// SetRepresentation applies one of the four host modes. Surface with edges
// is a surface with edge visibility on; the other modes turn edges off.
func (p *Property) SetRepresentation(r Representation) {
	if r == SurfaceWithEdges {
		p.Representation = Surface
		p.EdgeVisibility = true
		return
	}
	p.Representation = r
	p.EdgeVisibility = false
}

// ScalarMode selects which field data feeds scalar coloring.
type ScalarMode uint8

const (
	ScalarModeDefault ScalarMode = iota
	UsePointFieldData
	UseCellFieldData
)

// Mapper turns the mesh and an optional scalar array into drawable colors.
type Mapper struct {
	Mesh                            *mesh.Mesh
	ScalarVisibility                bool
	ScalarMode                      ScalarMode
	ArrayName                       string
	ArrayComponent                  int
	ScalarRange                     [2]float64
	LookupTable                     *colormap.LookupTable
	InterpolateScalarsBeforeMapping bool

	// Static is set once the mapper has been rendered after a load. A
	// static mapper is never re-fed; the next load installs a new mesh.
	Static bool
}

// newMapper returns a mapper for m with scalars hidden and the default
// [0, 1] scalar range.
func newMapper(m *mesh.Mesh, interpolate bool) Mapper {
	return Mapper{
		Mesh:                            m,
		ScalarRange:                     [2]float64{0, 1},
		InterpolateScalarsBeforeMapping: interpolate,
	}
}

// ScalarArray returns the array selected for coloring, or nil when scalar
// coloring is off or the array is missing.
func (m *Mapper) ScalarArray() (arr *mesh.DataArray, cellData bool) {
	if m.Mesh == nil || !m.ScalarVisibility {
		return nil, false
	}
	switch m.ScalarMode {
	case UsePointFieldData:
		return m.Mesh.PointData.Get(m.ArrayName), false
	case UseCellFieldData:
		return m.Mesh.CellData.Get(m.ArrayName), true
	}
	return nil, false
}

// MapScalars maps the selected component of the scalar array through the
// lookup table, one color per tuple. ok is false when nothing is mapped.
func (m *Mapper) MapScalars() (colors []colorful.Color, cellData, ok bool) {
	arr, cellData := m.ScalarArray()
	if arr == nil || m.LookupTable == nil {
		return nil, false, false
	}
	vals, err := arr.Component(m.ArrayComponent)
	if err != nil {
		return nil, false, false
	}
	colors = make([]colorful.Color, len(vals))
	for i, v := range vals {
		colors[i] = m.LookupTable.Map(v)
	}
	return colors, cellData, true
}

// TextureCoords returns per-tuple coordinates into the lookup table's
// [lo, hi] range, normalized to [0, 1], for interpolation before mapping.
func (m *Mapper) TextureCoords() []float32 {
	arr, _ := m.ScalarArray()
	if arr == nil {
		return nil
	}
	vals, err := arr.Component(m.ArrayComponent)
	if err != nil {
		return nil
	}
	lo, hi := m.ScalarRange[0], m.ScalarRange[1]
	out := make([]float32, len(vals))
	for i, v := range vals {
		if hi > lo {
			v = (v - lo) / (hi - lo)
		} else {
			v = 0
		}
		out[i] = float32(min(1, max(0, v)))
	}
	return out
}

// Actor pairs a mapper with its appearance.
type Actor struct {
	Property Property
	Mapper   Mapper
}

// NewActor returns an actor with default appearance and no mesh.
func NewActor() *Actor {
	return &Actor{Property: DefaultProperty(), Mapper: newMapper(nil, false)}
}

// Bounds joins the bounds of every actor that has a non-empty mesh. With
// nothing to join it returns dvec3.MinBox.
func Bounds(actors []*Actor) dvec3.Box {
	box := dvec3.MinBox
	for _, a := range actors {
		if a.Mapper.Mesh == nil || a.Mapper.Mesh.IsEmpty() {
			continue
		}
		mb := a.Mapper.Mesh.Bounds()
		box.Extend(&mb.Min)
		box.Extend(&mb.Max)
	}
	return box
}
