package formats

import (
	"strings"
	"testing"
)

const texturedTriangleOBJ = `# one triangle
v 0 0 0
v 1 0 0
v 0 1 0
vt 0 0
vt 1 0
vt 0 1
vn 0 0 1
f 1/1/1 2/2/1 3/3/1
`

func TestParseOBJ_Triangle(t *testing.T) {
	m, err := ParseOBJ(strings.NewReader(texturedTriangleOBJ))
	if err != nil {
		t.Fatalf("ParseOBJ failed: %v", err)
	}
	if m.NumberOfPoints() != 3 {
		t.Errorf("expected 3 points, got %d", m.NumberOfPoints())
	}
	if len(m.Polys) != 1 || len(m.Polys[0]) != 3 {
		t.Fatalf("expected one triangle, got %v", m.Polys)
	}

	normals := m.PointData.Get(OBJNormalsArray)
	if normals == nil || normals.Components != 3 || normals.Tuples() != 3 {
		t.Fatalf("expected per-point normals, got %+v", normals)
	}
	if normals.Values[2] != 1 {
		t.Errorf("expected normal (0,0,1), got %v", normals.Tuple(0))
	}
	tc := m.PointData.Get(OBJTexCoordsArray)
	if tc == nil || tc.Components != 2 {
		t.Fatalf("expected texture coordinates, got %+v", tc)
	}
	if uv := tc.Tuple(1); uv[0] != 1 || uv[1] != 0 {
		t.Errorf("expected (1,0) at point 1, got %v", uv)
	}
	if uv := tc.Tuple(2); uv[0] != 0 || uv[1] != 1 {
		t.Errorf("expected (0,1) at point 2, got %v", uv)
	}
	if m.CellData.Len() != 0 {
		t.Errorf("expected no cell arrays without materials, got %v", m.CellData.Names())
	}
}

func TestParseOBJ_PlainQuad(t *testing.T) {
	data := `v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
f 1 2 3 4
`
	m, err := ParseOBJ(strings.NewReader(data))
	if err != nil {
		t.Fatalf("ParseOBJ failed: %v", err)
	}
	if len(m.Polys) != 1 || len(m.Polys[0]) != 4 {
		t.Fatalf("expected one quad, got %v", m.Polys)
	}
	if m.PointData.Len() != 0 {
		t.Errorf("expected no point arrays, got %v", m.PointData.Names())
	}
	if err := m.Validate(); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
}

func TestParseOBJ_TextureSeamSplitsPoints(t *testing.T) {
	data := `v 0 0 0
v 1 0 0
v 0 1 0
v 1 1 0
vt 0 0
vt 1 0
vt 0 1
vt 0.5 0.5
f 1/1 2/2 3/3
f 2/2 4/4 3/4
`
	m, err := ParseOBJ(strings.NewReader(data))
	if err != nil {
		t.Fatalf("ParseOBJ failed: %v", err)
	}
	if m.NumberOfPoints() != 5 {
		t.Fatalf("expected vertex 3 split across the seam into 5 points, got %d", m.NumberOfPoints())
	}
	if m.Polys[1][0] != m.Polys[0][1] {
		t.Errorf("expected vertex 2 shared with matching texcoords, got %v", m.Polys)
	}
	tc := m.PointData.Get(OBJTexCoordsArray)
	if tc == nil || tc.Tuples() != 5 {
		t.Fatalf("expected 5 texture coordinates, got %+v", tc)
	}
	if uv := tc.Tuple(m.Polys[1][2]); uv[0] != 0.5 || uv[1] != 0.5 {
		t.Errorf("expected (0.5,0.5) on the split point, got %v", uv)
	}
	if m.PointData.Get(OBJNormalsArray) != nil {
		t.Error("expected no normals")
	}
}
