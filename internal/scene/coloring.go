package scene

import (
	"go.uber.org/zap"

	"github.com/Faultbox/meshview/internal/colormap"
	"github.com/Faultbox/meshview/pkg/mesh"
)

// SolidColoring is the host-level array name that turns scalar coloring off.
const SolidColoring = "Solid"

// Coloring is either solid (Array empty) or by the named array of a domain.
type Coloring struct {
	Array  string
	Domain Domain
}

// Solid returns the uniform-color state.
func Solid() Coloring { return Coloring{} }

// ByArray returns the state coloring by the named array.
func ByArray(name string, d Domain) Coloring { return Coloring{Array: name, Domain: d} }

// IsSolid reports whether scalar coloring is off.
func (c Coloring) IsSolid() bool { return c.Array == "" }

func (c Coloring) String() string {
	if c.IsSolid() {
		return SolidColoring
	}
	return c.Domain.String() + ":" + c.Array
}

// ColorPipeline keeps a mapper's scalar settings and lookup table in line
// with the chosen array and color scheme.
type ColorPipeline struct {
	mapper *Mapper
	scheme *colormap.Scheme
	log    *zap.Logger
}

// NewColorPipeline drives m using the default scheme.
func NewColorPipeline(m *Mapper, log *zap.Logger) *ColorPipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &ColorPipeline{
		mapper: m,
		scheme: colormap.MustLookup(colormap.DefaultScheme),
		log:    log,
	}
}

// Scheme returns the active color scheme.
func (p *ColorPipeline) Scheme() *colormap.Scheme { return p.scheme }

// Coloring reports the state currently applied to the mapper.
func (p *ColorPipeline) Coloring() Coloring {
	if !p.mapper.ScalarVisibility {
		return Solid()
	}
	d := PointDomain
	if p.mapper.ScalarMode == UseCellFieldData {
		d = CellDomain
	}
	return ByArray(p.mapper.ArrayName, d)
}

// ResolveColoring maps a host array name to a coloring state. Point arrays
// shadow cell arrays of the same name.
func ResolveColoring(name string, attrs *AttributeRegistry) (Coloring, error) {
	switch {
	case name == SolidColoring:
		return Solid(), nil
	case attrs.Has(PointDomain, name):
		return ByArray(name, PointDomain), nil
	case attrs.Has(CellDomain, name):
		return ByArray(name, CellDomain), nil
	}
	return Coloring{}, newError(UnknownColorArray, "resolve coloring", name, nil)
}

// SetColoring applies state to the mapper. Solid only hides scalars and
// leaves the lookup table alone. ByArray checks the array against attrs in
// the requested domain, colors by component 0 over that component's range
// and rebuilds the table. On error the mapper is unchanged.
func (p *ColorPipeline) SetColoring(state Coloring, m *mesh.Mesh, attrs *AttributeRegistry) error {
	if state.IsSolid() {
		p.mapper.ScalarVisibility = false
		return nil
	}
	if !attrs.Has(state.Domain, state.Array) || m == nil {
		return newError(UnknownColorArray, "set coloring", state.Array, nil)
	}

	fd, mode := m.PointData, UsePointFieldData
	if state.Domain == CellDomain {
		fd, mode = m.CellData, UseCellFieldData
	}
	arr := fd.Get(state.Array)
	if arr == nil {
		return newError(UnknownColorArray, "set coloring", state.Array, nil)
	}
	lo, hi, err := arr.Range(0)
	if err != nil {
		return newError(UnknownColorArray, "set coloring", state.Array, err)
	}

	p.mapper.ScalarVisibility = true
	p.mapper.ScalarMode = mode
	p.mapper.ArrayName = state.Array
	p.mapper.ArrayComponent = 0
	p.mapper.ScalarRange = [2]float64{lo, hi}
	p.RebuildLookupTable()

	p.log.Debug("coloring by array",
		zap.String("array", state.Array),
		zap.Stringer("domain", state.Domain),
		zap.Float64("min", lo),
		zap.Float64("max", hi),
	)
	return nil
}

// RebuildLookupTable spreads the scheme over the mapper's scalar range.
func (p *ColorPipeline) RebuildLookupTable() {
	p.mapper.LookupTable = colormap.Build(p.scheme, p.mapper.ScalarRange[0], p.mapper.ScalarRange[1])
}

// SetColorScheme selects a scheme from the catalog and rebuilds the table.
// An unknown name leaves the current scheme in place.
func (p *ColorPipeline) SetColorScheme(name string) error {
	s, err := colormap.Lookup(name)
	if err != nil {
		return newError(UnknownColorScheme, "set color scheme", name, err)
	}
	p.scheme = s
	p.RebuildLookupTable()
	return nil
}
