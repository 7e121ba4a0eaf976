package formats

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"
)

const asciiSTL = `solid square
  facet normal 0 0 1
    outer loop
      vertex 0 0 0
      vertex 1 0 0
      vertex 1 1 0
    endloop
  endfacet
  facet normal 0 0 1
    outer loop
      vertex 0 0 0
      vertex 1 1 0
      vertex 0 1 0
    endloop
  endfacet
endsolid square
`

func TestParseSTL_ASCII(t *testing.T) {
	m, err := ParseSTL(strings.NewReader(asciiSTL))
	if err != nil {
		t.Fatalf("ParseSTL failed: %v", err)
	}
	if len(m.Polys) != 2 {
		t.Fatalf("expected 2 facets, got %d", len(m.Polys))
	}
	// Shared corners are merged.
	if m.NumberOfPoints() != 4 {
		t.Errorf("expected 4 merged points, got %d", m.NumberOfPoints())
	}
	n := m.CellData.Get(STLNormalsArray)
	if n == nil || n.Tuples() != 2 || n.Values[2] != 1 {
		t.Errorf("unexpected facet normals: %+v", n)
	}
}

func createBinarySTL() []byte {
	buf := new(bytes.Buffer)
	buf.Write(make([]byte, 80))
	binary.Write(buf, binary.LittleEndian, uint32(1))
	binary.Write(buf, binary.LittleEndian, []float32{
		0, 0, 1, // normal
		0, 0, 0,
		1, 0, 0,
		0, 1, 0,
	})
	binary.Write(buf, binary.LittleEndian, uint16(0))
	return buf.Bytes()
}

func TestParseSTL_Binary(t *testing.T) {
	m, err := ParseSTL(bytes.NewReader(createBinarySTL()))
	if err != nil {
		t.Fatalf("ParseSTL failed: %v", err)
	}
	if m.NumberOfPoints() != 3 || len(m.Polys) != 1 {
		t.Fatalf("expected one triangle, got %d points and %d polys", m.NumberOfPoints(), len(m.Polys))
	}
	if m.Points[1][0] != 1 {
		t.Errorf("unexpected points: %v", m.Points)
	}
}
