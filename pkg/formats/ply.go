package formats

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/flywave/go3d/vec3"

	"github.com/Faultbox/meshview/pkg/mesh"
)

// PLY format errors.
var (
	ErrInvalidPLYMagic       = errors.New("invalid PLY magic: expected 'ply'")
	ErrUnsupportedPLYFormat  = errors.New("unsupported PLY format")
	ErrMissingPLYCoordinates = errors.New("PLY vertex element lacks x, y or z")
)

// Array names produced by the PLY parser, besides one array per extra
// scalar property.
const (
	PLYNormalsArray   = "Normals"
	PLYTexCoordsArray = "TCoords"
	PLYColorsArray    = "RGB"
	PLYColorsAlpha    = "RGBA"
)

var plyTypes = map[string]scalarKind{
	"char":    kindInt8,
	"int8":    kindInt8,
	"uchar":   kindUint8,
	"uint8":   kindUint8,
	"short":   kindInt16,
	"int16":   kindInt16,
	"ushort":  kindUint16,
	"uint16":  kindUint16,
	"int":     kindInt32,
	"int32":   kindInt32,
	"uint":    kindUint32,
	"uint32":  kindUint32,
	"float":   kindFloat32,
	"float32": kindFloat32,
	"double":  kindFloat64,
	"float64": kindFloat64,
}

type plyProperty struct {
	name      string
	kind      scalarKind
	list      bool
	countKind scalarKind
}

type plyElement struct {
	name  string
	count int
	props []plyProperty
}

// column returns the index of the named scalar property, or -1.
func (e *plyElement) column(name string) int {
	for i, p := range e.props {
		if p.name == name && !p.list {
			return i
		}
	}
	return -1
}

// plyRow holds the values of one element instance: a single value per
// scalar property and the items of each list property.
type plyRow struct {
	scalars []float64
	lists   [][]float64
}

type plyReader struct {
	t     *textReader
	ascii bool
	order binary.ByteOrder
	buf   [8]byte
}

// ParsePLY parses an ASCII or binary (either byte order) PLY file. Vertex
// normals, texture coordinates and colors map to the conventional arrays;
// any other scalar vertex or face property becomes an array of its own
// name.
func ParsePLY(r io.ReadSeeker) (*mesh.Mesh, error) {
	p := &plyReader{t: newTextReader(r)}
	elements, err := p.readHeader()
	if err != nil {
		return nil, err
	}

	m := mesh.New()
	for _, el := range elements {
		rows, err := p.readElement(el)
		if err != nil {
			return nil, fmt.Errorf("element %s: %w", el.name, err)
		}
		switch el.name {
		case "vertex":
			err = plyVertices(m, el, rows)
		case "face":
			err = plyFaces(m, el, rows)
		}
		if err != nil {
			return nil, fmt.Errorf("element %s: %w", el.name, err)
		}
	}
	return m, nil
}

// ParsePLYFile reads and parses a PLY file from disk.
func ParsePLYFile(path string) (*mesh.Mesh, error) {
	return parseFile(path, ParsePLY)
}

func (p *plyReader) readHeader() ([]*plyElement, error) {
	magic, err := p.t.readLine()
	if err != nil || strings.TrimSpace(magic) != "ply" {
		return nil, ErrInvalidPLYMagic
	}

	var elements []*plyElement
	var cur *plyElement
	for {
		f, err := p.t.nextFields()
		if err != nil {
			return nil, fmt.Errorf("%w: header: %v", ErrTruncatedData, err)
		}
		switch f[0] {
		case "format":
			if len(f) < 2 {
				return nil, fmt.Errorf("%w: format line", ErrMalformed)
			}
			switch f[1] {
			case "ascii":
				p.ascii = true
			case "binary_little_endian":
				p.order = binary.LittleEndian
			case "binary_big_endian":
				p.order = binary.BigEndian
			default:
				return nil, fmt.Errorf("%w: %s", ErrUnsupportedPLYFormat, f[1])
			}
		case "comment", "obj_info":
		case "element":
			if len(f) < 3 {
				return nil, fmt.Errorf("%w: element line", ErrMalformed)
			}
			n, err := strconv.Atoi(f[2])
			if err != nil || n < 0 {
				return nil, fmt.Errorf("%w: element count %q", ErrMalformed, f[2])
			}
			cur = &plyElement{name: f[1], count: n}
			elements = append(elements, cur)
		case "property":
			if cur == nil {
				return nil, fmt.Errorf("%w: property before element", ErrMalformed)
			}
			prop, err := parsePLYProperty(f)
			if err != nil {
				return nil, err
			}
			cur.props = append(cur.props, prop)
		case "end_header":
			if !p.ascii && p.order == nil {
				return nil, fmt.Errorf("%w: missing format line", ErrMalformed)
			}
			return elements, nil
		default:
			return nil, fmt.Errorf("%w: header keyword %q", ErrMalformed, f[0])
		}
	}
}

func parsePLYProperty(f []string) (plyProperty, error) {
	if len(f) >= 5 && f[1] == "list" {
		ck, ok1 := plyTypes[f[2]]
		ik, ok2 := plyTypes[f[3]]
		if !ok1 || !ok2 {
			return plyProperty{}, fmt.Errorf("%w: list %s %s", ErrUnsupportedDataType, f[2], f[3])
		}
		return plyProperty{name: f[4], kind: ik, list: true, countKind: ck}, nil
	}
	if len(f) < 3 {
		return plyProperty{}, fmt.Errorf("%w: property line", ErrMalformed)
	}
	k, ok := plyTypes[f[1]]
	if !ok {
		return plyProperty{}, fmt.Errorf("%w: %s", ErrUnsupportedDataType, f[1])
	}
	return plyProperty{name: f[2], kind: k}, nil
}

func (p *plyReader) value(k scalarKind) (float64, error) {
	if p.ascii {
		v, err := p.t.float()
		if err == io.EOF {
			return 0, ErrTruncatedData
		}
		return v, err
	}
	b := p.buf[:k.size()]
	if _, err := io.ReadFull(p.t.r, b); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTruncatedData, err)
	}
	return k.decode(b, p.order), nil
}

func (p *plyReader) readElement(el *plyElement) ([]plyRow, error) {
	if len(el.props) == 0 {
		return nil, nil
	}
	rows := make([]plyRow, 0, capHint(el.count))
	for len(rows) < el.count {
		row := plyRow{scalars: make([]float64, len(el.props))}
		for j, prop := range el.props {
			if !prop.list {
				v, err := p.value(prop.kind)
				if err != nil {
					return nil, err
				}
				row.scalars[j] = v
				continue
			}
			n, err := p.value(prop.countKind)
			if err != nil {
				return nil, err
			}
			if n < 0 || n > math.MaxInt32 || n != math.Trunc(n) {
				return nil, fmt.Errorf("%w: list length %g", ErrMalformed, n)
			}
			items := make([]float64, 0, capHint(int(n)))
			for len(items) < int(n) {
				v, err := p.value(prop.kind)
				if err != nil {
					return nil, err
				}
				items = append(items, v)
			}
			if row.lists == nil {
				row.lists = make([][]float64, len(el.props))
			}
			row.lists[j] = items
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// plyGroup pulls a fixed set of columns out of the rows as one array.
func plyGroup(el *plyElement, rows []plyRow, used map[int]bool, names ...string) []float64 {
	cols := make([]int, len(names))
	for i, n := range names {
		if cols[i] = el.column(n); cols[i] < 0 {
			return nil
		}
	}
	vals := make([]float64, 0, len(rows)*len(cols))
	for _, r := range rows {
		for _, c := range cols {
			vals = append(vals, r.scalars[c])
		}
	}
	for _, c := range cols {
		used[c] = true
	}
	return vals
}

// addPLYColors adds an RGB or RGBA array from red/green/blue[/alpha].
func addPLYColors(fd *mesh.FieldData, el *plyElement, rows []plyRow, used map[int]bool) error {
	if rgba := plyGroup(el, rows, used, "red", "green", "blue", "alpha"); rgba != nil {
		return fd.Add(mesh.NewDataArray(PLYColorsAlpha, 4, rgba))
	}
	if rgb := plyGroup(el, rows, used, "red", "green", "blue"); rgb != nil {
		return fd.Add(mesh.NewDataArray(PLYColorsArray, 3, rgb))
	}
	return nil
}

// addPLYScalars adds one array per scalar property not yet consumed.
func addPLYScalars(fd *mesh.FieldData, el *plyElement, rows []plyRow, used map[int]bool) error {
	for c, prop := range el.props {
		if prop.list || used[c] {
			continue
		}
		vals := make([]float64, len(rows))
		for i, r := range rows {
			vals[i] = r.scalars[c]
		}
		if err := fd.Add(mesh.NewDataArray(prop.name, 1, vals)); err != nil {
			return err
		}
	}
	return nil
}

func plyVertices(m *mesh.Mesh, el *plyElement, rows []plyRow) error {
	used := make(map[int]bool)
	xyz := plyGroup(el, rows, used, "x", "y", "z")
	if xyz == nil {
		return ErrMissingPLYCoordinates
	}
	m.Points = make([]vec3.T, len(rows))
	for i := range m.Points {
		m.Points[i] = vec3.T{float32(xyz[3*i]), float32(xyz[3*i+1]), float32(xyz[3*i+2])}
	}

	if n := plyGroup(el, rows, used, "nx", "ny", "nz"); n != nil {
		if err := m.PointData.Add(mesh.NewDataArray(PLYNormalsArray, 3, n)); err != nil {
			return err
		}
	}
	for _, uv := range [][2]string{{"u", "v"}, {"s", "t"}, {"texture_u", "texture_v"}, {"texture_s", "texture_t"}} {
		if tc := plyGroup(el, rows, used, uv[0], uv[1]); tc != nil {
			if err := m.PointData.Add(mesh.NewDataArray(PLYTexCoordsArray, 2, tc)); err != nil {
				return err
			}
			break
		}
	}
	if err := addPLYColors(m.PointData, el, rows, used); err != nil {
		return err
	}
	return addPLYScalars(m.PointData, el, rows, used)
}

func plyFaces(m *mesh.Mesh, el *plyElement, rows []plyRow) error {
	list := -1
	for i, prop := range el.props {
		if prop.list && (prop.name == "vertex_indices" || prop.name == "vertex_index") {
			list = i
			break
		}
	}
	if list < 0 {
		return fmt.Errorf("%w: face element without vertex_indices", ErrMalformed)
	}
	m.Polys = make([][]int, len(rows))
	for i, r := range rows {
		m.Polys[i] = toInts(r.lists[list])
	}

	used := make(map[int]bool)
	if err := addPLYColors(m.CellData, el, rows, used); err != nil {
		return err
	}
	return addPLYScalars(m.CellData, el, rows, used)
}
