package formats

import (
	"fmt"
	"io"

	gobj "github.com/flywave/go-obj"
	"github.com/flywave/go3d/vec3"

	"github.com/Faultbox/meshview/pkg/mesh"
)

// Array names produced by the OBJ parser.
const (
	OBJNormalsArray     = "Normals"
	OBJTexCoordsArray   = "TCoords"
	OBJMaterialIdsArray = "MaterialIds"
)

type objCorner struct {
	v, vt, vn int
}

// ParseOBJ parses a Wavefront OBJ file. A point is emitted per distinct
// position/texcoord/normal combination, so per-corner normals and texture
// coordinates become point arrays. Faces that name a material get a
// "MaterialIds" cell array numbered in order of first use.
func ParseOBJ(r io.ReadSeeker) (*mesh.Mesh, error) {
	reader := &gobj.ObjReader{}
	if err := reader.Read(r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	m := mesh.New()
	if len(reader.F) == 0 {
		m.Points = append(m.Points, reader.V...)
		return m, nil
	}

	index := make(map[objCorner]int)
	var corners []objCorner
	hasNormals, hasTex, hasMaterial := false, false, false
	materials := make(map[string]int)
	var materialIDs []float64

	for fi, face := range reader.F {
		if len(face.Corners) < 3 {
			continue
		}
		poly := make([]int, len(face.Corners))
		for i, c := range face.Corners {
			if c.VertexIndex < 0 || c.VertexIndex >= len(reader.V) {
				return nil, fmt.Errorf("%w: face %d references vertex %d (have %d)",
					mesh.ErrPointIndexOutOfRange, fi, c.VertexIndex, len(reader.V))
			}
			key := objCorner{v: c.VertexIndex, vt: -1, vn: -1}
			if c.TexcoordIndex >= 0 && c.TexcoordIndex < len(reader.VT) {
				key.vt = c.TexcoordIndex
				hasTex = true
			}
			if c.NormalIndex >= 0 && c.NormalIndex < len(reader.VN) {
				key.vn = c.NormalIndex
				hasNormals = true
			}
			id, ok := index[key]
			if !ok {
				id = len(corners)
				index[key] = id
				corners = append(corners, key)
			}
			poly[i] = id
		}
		m.Polys = append(m.Polys, poly)

		mid := 0
		if face.Material != "" {
			hasMaterial = true
			var ok bool
			if mid, ok = materials[face.Material]; !ok {
				mid = len(materials)
				materials[face.Material] = mid
			}
		}
		materialIDs = append(materialIDs, float64(mid))
	}

	m.Points = make([]vec3.T, len(corners))
	var normals, tcoords []float64
	for i, c := range corners {
		m.Points[i] = reader.V[c.v]
		if hasNormals {
			n := vec3.T{}
			if c.vn >= 0 {
				n = reader.VN[c.vn]
			}
			normals = append(normals, float64(n[0]), float64(n[1]), float64(n[2]))
		}
		if hasTex {
			var u, v float64
			if c.vt >= 0 {
				u, v = float64(reader.VT[c.vt][0]), float64(reader.VT[c.vt][1])
			}
			tcoords = append(tcoords, u, v)
		}
	}

	if hasNormals {
		if err := m.PointData.Add(mesh.NewDataArray(OBJNormalsArray, 3, normals)); err != nil {
			return nil, err
		}
	}
	if hasTex {
		if err := m.PointData.Add(mesh.NewDataArray(OBJTexCoordsArray, 2, tcoords)); err != nil {
			return nil, err
		}
	}
	if hasMaterial {
		if err := m.CellData.Add(mesh.NewDataArray(OBJMaterialIdsArray, 1, materialIDs)); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ParseOBJFile reads and parses an OBJ file from disk.
func ParseOBJFile(path string) (*mesh.Mesh, error) {
	return parseFile(path, ParseOBJ)
}
