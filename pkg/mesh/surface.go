package mesh

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Boundary faces of the 3-D linear cells, ordered so that normals point out
// of the cell.
var (
	tetraFaces   = [][]int{{0, 1, 3}, {1, 2, 3}, {2, 0, 3}, {0, 2, 1}}
	hexFaces     = [][]int{{0, 4, 7, 3}, {1, 2, 6, 5}, {0, 1, 5, 4}, {3, 7, 6, 2}, {0, 3, 2, 1}, {4, 5, 6, 7}}
	voxelFaces   = [][]int{{0, 4, 6, 2}, {1, 3, 7, 5}, {0, 1, 5, 4}, {2, 6, 7, 3}, {0, 2, 3, 1}, {4, 5, 7, 6}}
	wedgeFaces   = [][]int{{0, 1, 2}, {3, 5, 4}, {0, 3, 4, 1}, {1, 4, 5, 2}, {2, 5, 3, 0}}
	pyramidFaces = [][]int{{0, 3, 2, 1}, {0, 1, 4}, {1, 2, 4}, {2, 3, 4}, {3, 0, 4}}
)

var cellPointCounts = map[CellType]int{
	CellVertex:     1,
	CellLine:       2,
	CellTriangle:   3,
	CellPixel:      4,
	CellQuad:       4,
	CellTetra:      4,
	CellVoxel:      8,
	CellHexahedron: 8,
	CellWedge:      6,
	CellPyramid:    5,
}

type boundaryFace struct {
	ids  []int
	cell int
	key  string
}

// ExtractSurface converts an unstructured grid into a renderable surface
// mesh. All points and point data are kept. Cells of dimension 0 to 2 are
// passed through; 3-D cells contribute the faces that no other 3-D cell
// shares. Each output cell carries the cell data of the cell it came from.
func ExtractSurface(g *UnstructuredGrid) (*Mesh, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	// Count face usage across all 3-D cells first.
	usage := make(map[string]int)
	var faces []boundaryFace
	for id, c := range g.Cells {
		t := g.Types[id]
		if t.Dimension() < 0 {
			return nil, fmt.Errorf("%w: %s in cell %d", ErrUnsupportedCellType, t, id)
		}
		if want, ok := cellPointCounts[t]; ok && len(c) != want {
			return nil, fmt.Errorf("cell %d: %s needs %d points, got %d", id, t, want, len(c))
		}
		if t.Dimension() != 3 {
			continue
		}
		for _, local := range faceTable(t) {
			ids := make([]int, len(local))
			for i, l := range local {
				ids[i] = c[l]
			}
			key := faceKey(ids)
			usage[key]++
			faces = append(faces, boundaryFace{ids: ids, cell: id, key: key})
		}
	}

	out := New()
	out.Points = slices.Clone(g.Points)
	for _, name := range g.PointData.Names() {
		a := g.PointData.Get(name)
		_ = out.PointData.Add(NewDataArray(a.Name, a.Components, slices.Clone(a.Values)))
	}

	var vertSrc, lineSrc, polySrc, stripSrc []int
	fi := 0
	for id, c := range g.Cells {
		switch t := g.Types[id]; t {
		case CellVertex, CellPolyVertex:
			out.Verts = append(out.Verts, slices.Clone(c))
			vertSrc = append(vertSrc, id)
		case CellLine, CellPolyLine:
			out.Lines = append(out.Lines, slices.Clone(c))
			lineSrc = append(lineSrc, id)
		case CellTriangle, CellPolygon, CellQuad:
			out.Polys = append(out.Polys, slices.Clone(c))
			polySrc = append(polySrc, id)
		case CellPixel:
			out.Polys = append(out.Polys, []int{c[0], c[1], c[3], c[2]})
			polySrc = append(polySrc, id)
		case CellTriangleStrip:
			out.Strips = append(out.Strips, slices.Clone(c))
			stripSrc = append(stripSrc, id)
		default:
			for ; fi < len(faces) && faces[fi].cell == id; fi++ {
				if usage[faces[fi].key] == 1 {
					out.Polys = append(out.Polys, faces[fi].ids)
					polySrc = append(polySrc, id)
				}
			}
		}
	}

	src := make([]int, 0, out.NumberOfCells())
	src = append(src, vertSrc...)
	src = append(src, lineSrc...)
	src = append(src, polySrc...)
	src = append(src, stripSrc...)
	for _, name := range g.CellData.Names() {
		a := g.CellData.Get(name)
		vals := make([]float64, 0, len(src)*a.Components)
		for _, id := range src {
			vals = append(vals, a.Tuple(id)...)
		}
		_ = out.CellData.Add(NewDataArray(a.Name, a.Components, vals))
	}
	return out, nil
}

func faceTable(t CellType) [][]int {
	switch t {
	case CellTetra:
		return tetraFaces
	case CellVoxel:
		return voxelFaces
	case CellHexahedron:
		return hexFaces
	case CellWedge:
		return wedgeFaces
	case CellPyramid:
		return pyramidFaces
	}
	return nil
}

// faceKey identifies a face independent of winding and starting point.
func faceKey(ids []int) string {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	var b strings.Builder
	for i, id := range sorted {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(id))
	}
	return b.String()
}
