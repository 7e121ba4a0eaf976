package formats

import (
	"fmt"
	"io"

	"github.com/flywave/go3d/vec3"
	"github.com/hschendel/stl"

	"github.com/Faultbox/meshview/pkg/mesh"
)

// STLNormalsArray is the cell array holding facet normals.
const STLNormalsArray = "Normals"

// ParseSTL parses an ASCII or binary STL file. Coincident vertices are
// merged so that facets share points.
func ParseSTL(r io.ReadSeeker) (*mesh.Mesh, error) {
	solid, err := stl.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	m := mesh.New()
	index := make(map[vec3.T]int)
	normals := make([]float64, 0, 3*len(solid.Triangles))
	for _, t := range solid.Triangles {
		var tri [3]int
		for i, v := range t.Vertices {
			p := vec3.T{v[0], v[1], v[2]}
			id, ok := index[p]
			if !ok {
				id = len(m.Points)
				index[p] = id
				m.Points = append(m.Points, p)
			}
			tri[i] = id
		}
		m.Polys = append(m.Polys, tri[:])
		normals = append(normals, float64(t.Normal[0]), float64(t.Normal[1]), float64(t.Normal[2]))
	}
	if len(m.Polys) > 0 {
		if err := m.CellData.Add(mesh.NewDataArray(STLNormalsArray, 3, normals)); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ParseSTLFile reads and parses an STL file from disk.
func ParseSTLFile(path string) (*mesh.Mesh, error) {
	return parseFile(path, ParseSTL)
}
