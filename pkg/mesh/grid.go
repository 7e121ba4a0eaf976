package mesh

import (
	"errors"
	"fmt"

	"github.com/flywave/go3d/vec3"
)

// ErrUnsupportedCellType is returned for cell types the surface filter cannot
// decompose (higher-order and polyhedral cells).
var ErrUnsupportedCellType = errors.New("unsupported cell type")

// CellType is a VTK linear cell type code.
type CellType uint8

// Linear cell types, numbered as in VTK files.
const (
	CellVertex        CellType = 1
	CellPolyVertex    CellType = 2
	CellLine          CellType = 3
	CellPolyLine      CellType = 4
	CellTriangle      CellType = 5
	CellTriangleStrip CellType = 6
	CellPolygon       CellType = 7
	CellPixel         CellType = 8
	CellQuad          CellType = 9
	CellTetra         CellType = 10
	CellVoxel         CellType = 11
	CellHexahedron    CellType = 12
	CellWedge         CellType = 13
	CellPyramid       CellType = 14
)

// String returns the VTK name of the cell type.
func (t CellType) String() string {
	switch t {
	case CellVertex:
		return "Vertex"
	case CellPolyVertex:
		return "PolyVertex"
	case CellLine:
		return "Line"
	case CellPolyLine:
		return "PolyLine"
	case CellTriangle:
		return "Triangle"
	case CellTriangleStrip:
		return "TriangleStrip"
	case CellPolygon:
		return "Polygon"
	case CellPixel:
		return "Pixel"
	case CellQuad:
		return "Quad"
	case CellTetra:
		return "Tetra"
	case CellVoxel:
		return "Voxel"
	case CellHexahedron:
		return "Hexahedron"
	case CellWedge:
		return "Wedge"
	case CellPyramid:
		return "Pyramid"
	default:
		return fmt.Sprintf("Unknown(%d)", t)
	}
}

// Dimension returns the topological dimension of the cell type, or -1 if
// the type is not supported.
func (t CellType) Dimension() int {
	switch t {
	case CellVertex, CellPolyVertex:
		return 0
	case CellLine, CellPolyLine:
		return 1
	case CellTriangle, CellTriangleStrip, CellPolygon, CellPixel, CellQuad:
		return 2
	case CellTetra, CellVoxel, CellHexahedron, CellWedge, CellPyramid:
		return 3
	default:
		return -1
	}
}

// UnstructuredGrid is an arbitrary mix of cells over a shared point list.
type UnstructuredGrid struct {
	Points    []vec3.T
	Cells     [][]int
	Types     []CellType
	PointData *FieldData
	CellData  *FieldData
}

// NewUnstructuredGrid returns an empty grid with initialized attributes.
func NewUnstructuredGrid() *UnstructuredGrid {
	return &UnstructuredGrid{
		PointData: NewFieldData(),
		CellData:  NewFieldData(),
	}
}

// NumberOfCells returns the cell count.
func (g *UnstructuredGrid) NumberOfCells() int {
	return len(g.Cells)
}

// Validate checks cell/type counts, point references and tuple counts.
func (g *UnstructuredGrid) Validate() error {
	if len(g.Cells) != len(g.Types) {
		return fmt.Errorf("%d cells but %d cell types", len(g.Cells), len(g.Types))
	}
	for id, c := range g.Cells {
		if len(c) == 0 {
			return fmt.Errorf("%w: cell %d", ErrEmptyCell, id)
		}
		for _, pid := range c {
			if pid < 0 || pid >= len(g.Points) {
				return fmt.Errorf("%w: cell %d references point %d (have %d)", ErrPointIndexOutOfRange, id, pid, len(g.Points))
			}
		}
	}
	if g.PointData != nil {
		if err := g.PointData.checkTuples(len(g.Points)); err != nil {
			return fmt.Errorf("point data: %w", err)
		}
	}
	if g.CellData != nil {
		if err := g.CellData.checkTuples(len(g.Cells)); err != nil {
			return fmt.Errorf("cell data: %w", err)
		}
	}
	return nil
}

// Append adds another grid's points and cells, offsetting point ids.
// Arrays missing from either grid are dropped.
func (g *UnstructuredGrid) Append(o *UnstructuredGrid) {
	offset := len(g.Points)
	for _, c := range o.Cells {
		ids := make([]int, len(c))
		for i, pid := range c {
			ids[i] = pid + offset
		}
		g.Cells = append(g.Cells, ids)
	}
	g.Types = append(g.Types, o.Types...)
	g.Points = append(g.Points, o.Points...)
	g.PointData = g.PointData.concat(o.PointData)
	g.CellData = g.CellData.concat(o.CellData)
}
