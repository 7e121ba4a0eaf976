package formats

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/flywave/go3d/vec3"

	"github.com/Faultbox/meshview/pkg/encoding"
	"github.com/Faultbox/meshview/pkg/mesh"
)

// Legacy VTK format errors.
var (
	ErrInvalidVTKHeader    = errors.New("invalid VTK header: expected '# vtk DataFile Version'")
	ErrUnsupportedDataset  = errors.New("unsupported VTK dataset")
	ErrUnknownVTKKeyword   = errors.New("unknown VTK keyword")
	ErrUnsupportedEncoding = errors.New("unsupported file encoding")
)

// VTKVersion is the version from a legacy file header.
type VTKVersion struct {
	Major int
	Minor int
}

// String returns the version as "Major.Minor".
func (v VTKVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// legacyVTK holds the parse state of a legacy file.
type legacyVTK struct {
	t       *textReader
	version VTKVersion
	binary  bool

	points []vec3.T
	groups map[string][][]int // VERTICES, LINES, POLYGONS, TRIANGLE_STRIPS
	cells  [][]int
	types  []mesh.CellType

	pointData *mesh.FieldData
	cellData  *mesh.FieldData
}

// vtkTypes maps legacy data type names to binary value kinds.
var vtkTypes = map[string]scalarKind{
	"char":           kindInt8,
	"unsigned_char":  kindUint8,
	"short":          kindInt16,
	"unsigned_short": kindUint16,
	"int":            kindInt32,
	"unsigned_int":   kindUint32,
	"long":           kindInt64,
	"unsigned_long":  kindUint64,
	"vtktypeint64":   kindInt64,
	"vtktypeuint64":  kindUint64,
	"vtkidtype":      kindInt64,
	"float":          kindFloat32,
	"double":         kindFloat64,
}

// ParseVTK parses a legacy VTK file holding POLYDATA or UNSTRUCTURED_GRID.
// Unstructured grids are reduced to their surface.
func ParseVTK(r io.ReadSeeker) (*mesh.Mesh, error) {
	p := &legacyVTK{
		t:         newTextReader(r),
		groups:    make(map[string][][]int),
		pointData: mesh.NewFieldData(),
		cellData:  mesh.NewFieldData(),
	}

	dataset, err := p.readHeader()
	if err != nil {
		return nil, err
	}
	if err := p.readSections(); err != nil {
		return nil, err
	}

	switch dataset {
	case "POLYDATA":
		m := mesh.New()
		m.Points = p.points
		m.Verts = p.groups["VERTICES"]
		m.Lines = p.groups["LINES"]
		m.Polys = p.groups["POLYGONS"]
		m.Strips = p.groups["TRIANGLE_STRIPS"]
		m.PointData = p.pointData
		m.CellData = p.cellData
		return m, nil
	default:
		g := mesh.NewUnstructuredGrid()
		g.Points = p.points
		g.Cells = p.cells
		g.Types = p.types
		g.PointData = p.pointData
		g.CellData = p.cellData
		return mesh.ExtractSurface(g)
	}
}

// ParseVTKFile reads and parses a legacy VTK file from disk.
func ParseVTKFile(path string) (*mesh.Mesh, error) {
	return parseFile(path, ParseVTK)
}

func (p *legacyVTK) readHeader() (string, error) {
	line, err := p.t.readLine()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidVTKHeader, err)
	}
	const magic = "# vtk datafile version"
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(line)), magic) {
		return "", ErrInvalidVTKHeader
	}
	fields := strings.Fields(line)
	major, minor, _ := strings.Cut(fields[len(fields)-1], ".")
	p.version.Major, _ = strconv.Atoi(major)
	p.version.Minor, _ = strconv.Atoi(minor)

	// Title line, free text.
	if _, err := p.t.readLine(); err != nil {
		return "", fmt.Errorf("%w: missing title", ErrTruncatedData)
	}

	enc, err := p.t.nextFields()
	if err != nil {
		return "", fmt.Errorf("%w: missing encoding", ErrTruncatedData)
	}
	switch strings.ToUpper(enc[0]) {
	case "ASCII":
	case "BINARY":
		p.binary = true
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedEncoding, enc[0])
	}

	ds, err := p.t.nextFields()
	if err != nil {
		return "", fmt.Errorf("%w: missing DATASET", ErrTruncatedData)
	}
	if len(ds) < 2 || strings.ToUpper(ds[0]) != "DATASET" {
		return "", fmt.Errorf("%w: expected DATASET, got %q", ErrMalformed, strings.Join(ds, " "))
	}
	dataset := strings.ToUpper(ds[1])
	if dataset != "POLYDATA" && dataset != "UNSTRUCTURED_GRID" {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedDataset, ds[1])
	}
	return dataset, nil
}

func (p *legacyVTK) readSections() error {
	// attrs is the collection the current attribute section fills, n its
	// tuple count. Field data before POINT_DATA/CELL_DATA is read and dropped.
	var attrs *mesh.FieldData
	n := 0

	for {
		f, err := p.t.nextFields()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		kw := strings.ToUpper(f[0])

		switch kw {
		case "POINTS":
			err = p.readPoints(f)
		case "VERTICES", "LINES", "POLYGONS", "TRIANGLE_STRIPS":
			var cells [][]int
			cells, err = p.readCells(f)
			p.groups[kw] = cells
		case "CELLS":
			p.cells, err = p.readCells(f)
		case "CELL_TYPES":
			err = p.readCellTypes(f)
		case "POINT_DATA", "CELL_DATA":
			if len(f) < 2 {
				return fmt.Errorf("%w: %s without count", ErrMalformed, kw)
			}
			if n, err = strconv.Atoi(f[1]); err != nil || n < 0 {
				return fmt.Errorf("%w: %s count %q", ErrMalformed, kw, f[1])
			}
			attrs = p.pointData
			if kw == "CELL_DATA" {
				attrs = p.cellData
			}
		case "SCALARS":
			err = p.readScalars(f, attrs, n)
		case "COLOR_SCALARS":
			err = p.readColorScalars(f, attrs, n)
		case "VECTORS", "NORMALS":
			err = p.readAttribute(f, attrs, 3, n)
		case "TENSORS":
			err = p.readAttribute(f, attrs, 9, n)
		case "TENSORS6":
			err = p.readAttribute(f, attrs, 6, n)
		case "TEXTURE_COORDINATES":
			err = p.readTextureCoords(f, attrs, n)
		case "LOOKUP_TABLE":
			err = p.skipLookupTable(f)
		case "FIELD":
			err = p.readField(f, attrs)
		case "METADATA":
			err = p.skipMetadata()
		default:
			return fmt.Errorf("%w: %s (line %d)", ErrUnknownVTKKeyword, f[0], p.t.line)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", kw, err)
		}
	}
}

// values reads n records of k numbers of the given legacy type.
func (p *legacyVTK) values(typ string, n, k int) ([]float64, error) {
	n, err := valueCount(n, k)
	if err != nil {
		return nil, err
	}
	if !p.binary {
		return p.t.floats(n)
	}
	kind, ok := vtkTypes[strings.ToLower(typ)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDataType, typ)
	}
	return p.t.binaryValues(kind, n, binary.BigEndian)
}

func (p *legacyVTK) readPoints(f []string) error {
	if len(f) < 3 {
		return fmt.Errorf("%w: expected 'POINTS n type'", ErrMalformed)
	}
	n, err := strconv.Atoi(f[1])
	if err != nil || n < 0 {
		return fmt.Errorf("%w: point count %q", ErrMalformed, f[1])
	}
	vals, err := p.values(f[2], n, 3)
	if err != nil {
		return err
	}
	p.points = make([]vec3.T, len(vals)/3)
	for i := range p.points {
		p.points[i] = vec3.T{float32(vals[3*i]), float32(vals[3*i+1]), float32(vals[3*i+2])}
	}
	return nil
}

// readCells reads a cell section in either the count-prefixed layout of
// version 4 files or the OFFSETS/CONNECTIVITY layout of version 5.
func (p *legacyVTK) readCells(f []string) ([][]int, error) {
	if len(f) < 3 {
		return nil, fmt.Errorf("%w: expected '%s n size'", ErrMalformed, f[0])
	}
	a, err1 := strconv.Atoi(f[1])
	b, err2 := strconv.Atoi(f[2])
	if err1 != nil || err2 != nil || a < 0 || b < 0 {
		return nil, fmt.Errorf("%w: cell counts %q %q", ErrMalformed, f[1], f[2])
	}

	if p.version.Major >= 5 {
		return p.readOffsetCells(a, b)
	}

	vals, err := p.values("int", b, 1)
	if err != nil {
		return nil, err
	}
	ids := toInts(vals)
	cells := make([][]int, 0, capHint(a))
	for i := 0; len(cells) < a; {
		if i >= len(ids) {
			return nil, fmt.Errorf("%w: %d of %d cells read", ErrTruncatedData, len(cells), a)
		}
		k := ids[i]
		if k < 0 || i+1+k > len(ids) {
			return nil, fmt.Errorf("%w: cell %d has %d points", ErrMalformed, len(cells), k)
		}
		cells = append(cells, ids[i+1:i+1+k])
		i += 1 + k
	}
	return cells, nil
}

func (p *legacyVTK) readOffsetCells(nOffsets, nConn int) ([][]int, error) {
	f, err := p.t.nextFields()
	if err != nil || strings.ToUpper(f[0]) != "OFFSETS" || len(f) < 2 {
		return nil, fmt.Errorf("%w: expected OFFSETS", ErrMalformed)
	}
	offVals, err := p.values(f[1], nOffsets, 1)
	if err != nil {
		return nil, err
	}
	f, err = p.t.nextFields()
	if err != nil || strings.ToUpper(f[0]) != "CONNECTIVITY" || len(f) < 2 {
		return nil, fmt.Errorf("%w: expected CONNECTIVITY", ErrMalformed)
	}
	connVals, err := p.values(f[1], nConn, 1)
	if err != nil {
		return nil, err
	}
	return splitOffsets(toInts(offVals), toInts(connVals), true)
}

// splitOffsets cuts a connectivity array into cells. With leadingZero the
// offsets start at 0 and hold one more entry than there are cells (legacy
// version 5); otherwise each offset is the end of its cell (XML files).
func splitOffsets(offsets, conn []int, leadingZero bool) ([][]int, error) {
	start := 0
	if leadingZero {
		if len(offsets) == 0 {
			return nil, nil
		}
		start = offsets[0]
		offsets = offsets[1:]
	}
	cells := make([][]int, 0, len(offsets))
	for i, end := range offsets {
		if end < start || end > len(conn) {
			return nil, fmt.Errorf("%w: offset %d of cell %d outside connectivity of %d", ErrMalformed, end, i, len(conn))
		}
		cells = append(cells, conn[start:end])
		start = end
	}
	return cells, nil
}

func (p *legacyVTK) readCellTypes(f []string) error {
	if len(f) < 2 {
		return fmt.Errorf("%w: expected 'CELL_TYPES n'", ErrMalformed)
	}
	n, err := strconv.Atoi(f[1])
	if err != nil || n < 0 {
		return fmt.Errorf("%w: cell type count %q", ErrMalformed, f[1])
	}
	vals, err := p.values("int", n, 1)
	if err != nil {
		return err
	}
	p.types = make([]mesh.CellType, len(vals))
	for i, v := range vals {
		p.types[i] = mesh.CellType(v)
	}
	return nil
}

// readScalars handles "SCALARS name type [components]" followed by a
// LOOKUP_TABLE line.
func (p *legacyVTK) readScalars(f []string, attrs *mesh.FieldData, n int) error {
	if len(f) < 3 {
		return fmt.Errorf("%w: expected 'SCALARS name type'", ErrMalformed)
	}
	comps := 1
	if len(f) > 3 {
		c, err := strconv.Atoi(f[3])
		if err != nil || c < 1 || c > 4 {
			return fmt.Errorf("%w: component count %q", ErrMalformed, f[3])
		}
		comps = c
	}
	if err := p.skipScalarsLookupLine(); err != nil {
		return err
	}
	vals, err := p.values(f[2], n, comps)
	if err != nil {
		return err
	}
	return addArray(attrs, decodeName(f[1]), comps, vals)
}

// skipScalarsLookupLine consumes the LOOKUP_TABLE line after SCALARS. ASCII
// writers sometimes omit it; binary files always carry it.
func (p *legacyVTK) skipScalarsLookupLine() error {
	if !p.binary && !p.t.peekWord("LOOKUP_TABLE") {
		return nil
	}
	f, err := p.t.nextFields()
	if err != nil {
		return err
	}
	if strings.ToUpper(f[0]) != "LOOKUP_TABLE" {
		return fmt.Errorf("%w: expected LOOKUP_TABLE, got %q", ErrMalformed, f[0])
	}
	return nil
}

func (p *legacyVTK) readColorScalars(f []string, attrs *mesh.FieldData, n int) error {
	if len(f) < 3 {
		return fmt.Errorf("%w: expected 'COLOR_SCALARS name n'", ErrMalformed)
	}
	comps, err := strconv.Atoi(f[2])
	if err != nil || comps < 1 {
		return fmt.Errorf("%w: component count %q", ErrMalformed, f[2])
	}
	vals, err := p.values("unsigned_char", n, comps)
	if err != nil {
		return err
	}
	if p.binary {
		for i := range vals {
			vals[i] /= 255
		}
	}
	return addArray(attrs, decodeName(f[1]), comps, vals)
}

func (p *legacyVTK) readAttribute(f []string, attrs *mesh.FieldData, comps, n int) error {
	if len(f) < 3 {
		return fmt.Errorf("%w: expected '%s name type'", ErrMalformed, f[0])
	}
	vals, err := p.values(f[2], n, comps)
	if err != nil {
		return err
	}
	return addArray(attrs, decodeName(f[1]), comps, vals)
}

func (p *legacyVTK) readTextureCoords(f []string, attrs *mesh.FieldData, n int) error {
	if len(f) < 4 {
		return fmt.Errorf("%w: expected 'TEXTURE_COORDINATES name dim type'", ErrMalformed)
	}
	dim, err := strconv.Atoi(f[2])
	if err != nil || dim < 1 || dim > 3 {
		return fmt.Errorf("%w: texture dimension %q", ErrMalformed, f[2])
	}
	vals, err := p.values(f[3], n, dim)
	if err != nil {
		return err
	}
	return addArray(attrs, decodeName(f[1]), dim, vals)
}

// skipLookupTable drops an inline "LOOKUP_TABLE name size" definition.
func (p *legacyVTK) skipLookupTable(f []string) error {
	if len(f) < 3 {
		return fmt.Errorf("%w: expected 'LOOKUP_TABLE name size'", ErrMalformed)
	}
	size, err := strconv.Atoi(f[2])
	if err != nil || size < 0 {
		return fmt.Errorf("%w: table size %q", ErrMalformed, f[2])
	}
	_, err = p.values("unsigned_char", size, 4)
	return err
}

func (p *legacyVTK) readField(f []string, attrs *mesh.FieldData) error {
	if len(f) < 3 {
		return fmt.Errorf("%w: expected 'FIELD name n'", ErrMalformed)
	}
	count, err := strconv.Atoi(f[2])
	if err != nil || count < 0 {
		return fmt.Errorf("%w: array count %q", ErrMalformed, f[2])
	}
	for i := 0; i < count; i++ {
		af, err := p.t.nextFields()
		if err != nil {
			return fmt.Errorf("%w: array %d of %d", ErrTruncatedData, i, count)
		}
		if af[0] == "NULL_ARRAY" {
			continue
		}
		if len(af) < 4 {
			return fmt.Errorf("%w: expected 'name components tuples type'", ErrMalformed)
		}
		comps, err1 := strconv.Atoi(af[1])
		tuples, err2 := strconv.Atoi(af[2])
		if err1 != nil || err2 != nil || comps < 1 || tuples < 0 {
			return fmt.Errorf("%w: array %q shape %q x %q", ErrMalformed, af[0], af[1], af[2])
		}
		vals, err := p.values(af[3], tuples, comps)
		if err != nil {
			return err
		}
		if attrs == nil {
			continue
		}
		if err := addArray(attrs, decodeName(af[0]), comps, vals); err != nil {
			return err
		}
	}
	return nil
}

// skipMetadata drops a METADATA block, which ends at the first blank line.
func (p *legacyVTK) skipMetadata() error {
	for {
		line, err := p.t.readLine()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if strings.TrimSpace(line) == "" {
			return nil
		}
	}
}

func addArray(attrs *mesh.FieldData, name string, comps int, vals []float64) error {
	if attrs == nil {
		return fmt.Errorf("%w: attribute %q outside POINT_DATA or CELL_DATA", ErrMalformed, name)
	}
	return attrs.Add(mesh.NewDataArray(name, comps, vals))
}

// decodeName undoes the %XX escaping legacy writers apply to array names.
// Escaped bytes that are not UTF-8 are read as Windows-1252.
func decodeName(s string) string {
	if !strings.Contains(s, "%") {
		return encoding.StringToUTF8(s)
	}
	if d, err := url.PathUnescape(s); err == nil {
		return encoding.StringToUTF8(d)
	}
	return s
}
