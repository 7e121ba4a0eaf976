package formats

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"encoding/binary"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/flywave/go3d/vec3"

	"github.com/Faultbox/meshview/pkg/mesh"
)

// VTK XML format errors.
var (
	ErrNotVTKXML              = errors.New("not a VTK XML file")
	ErrWrongDataSetType       = errors.New("unexpected VTK XML dataset type")
	ErrUnsupportedCompressor  = errors.New("unsupported VTK XML compressor")
	ErrMissingDataArray       = errors.New("missing data array")
	ErrAppendedDataMissing    = errors.New("array refers to missing appended data")
	ErrUnsupportedArrayFormat = errors.New("unsupported data array format")
)

type xmlFile struct {
	XMLName    xml.Name     `xml:"VTKFile"`
	Type       string       `xml:"type,attr"`
	Version    string       `xml:"version,attr"`
	ByteOrder  string       `xml:"byte_order,attr"`
	HeaderType string       `xml:"header_type,attr"`
	Compressor string       `xml:"compressor,attr"`
	PolyData   *xmlDataSet  `xml:"PolyData"`
	Grid       *xmlDataSet  `xml:"UnstructuredGrid"`
	Appended   *xmlAppended `xml:"AppendedData"`
}

type xmlDataSet struct {
	Pieces []xmlPiece `xml:"Piece"`
}

type xmlPiece struct {
	NumberOfPoints int `xml:"NumberOfPoints,attr"`
	NumberOfCells  int `xml:"NumberOfCells,attr"`

	PointData xmlArrays `xml:"PointData"`
	CellData  xmlArrays `xml:"CellData"`
	Points    xmlArrays `xml:"Points"`
	Verts     xmlArrays `xml:"Verts"`
	Lines     xmlArrays `xml:"Lines"`
	Strips    xmlArrays `xml:"Strips"`
	Polys     xmlArrays `xml:"Polys"`
	Cells     xmlArrays `xml:"Cells"`
}

type xmlArrays struct {
	Arrays []xmlDataArray `xml:"DataArray"`
}

// find returns the array with the given name, or nil.
func (a *xmlArrays) find(name string) *xmlDataArray {
	for i := range a.Arrays {
		if a.Arrays[i].Name == name {
			return &a.Arrays[i]
		}
	}
	return nil
}

type xmlDataArray struct {
	Type       string `xml:"type,attr"`
	Name       string `xml:"Name,attr"`
	Components int    `xml:"NumberOfComponents,attr"`
	Format     string `xml:"format,attr"`
	Offset     int    `xml:"offset,attr"`
	Data       string `xml:",chardata"`
}

type xmlAppended struct {
	Encoding string `xml:"encoding,attr"`
	Data     string `xml:",chardata"`
}

var xmlTypes = map[string]scalarKind{
	"Int8":    kindInt8,
	"UInt8":   kindUint8,
	"Int16":   kindInt16,
	"UInt16":  kindUint16,
	"Int32":   kindInt32,
	"UInt32":  kindUint32,
	"Int64":   kindInt64,
	"UInt64":  kindUint64,
	"Float32": kindFloat32,
	"Float64": kindFloat64,
}

// xmlDecoder decodes data arrays of one file.
type xmlDecoder struct {
	order      binary.ByteOrder
	header     scalarKind
	compressed bool

	appendedText string // base64 appended section, after the leading '_'
	appendedRaw  []byte // raw appended section, after the leading '_'
}

// ParseVTP parses a VTK XML PolyData file.
func ParseVTP(r io.ReadSeeker) (*mesh.Mesh, error) {
	f, dec, err := readVTKXML(r, "PolyData")
	if err != nil {
		return nil, err
	}
	if f.PolyData == nil || len(f.PolyData.Pieces) == 0 {
		return mesh.New(), nil
	}
	var out *mesh.Mesh
	for i := range f.PolyData.Pieces {
		m, err := dec.polyPiece(&f.PolyData.Pieces[i])
		if err != nil {
			return nil, fmt.Errorf("piece %d: %w", i, err)
		}
		if out == nil {
			out = m
		} else {
			out.Append(m)
		}
	}
	return out, nil
}

// ParseVTU parses a VTK XML UnstructuredGrid file and extracts its surface.
func ParseVTU(r io.ReadSeeker) (*mesh.Mesh, error) {
	f, dec, err := readVTKXML(r, "UnstructuredGrid")
	if err != nil {
		return nil, err
	}
	if f.Grid == nil || len(f.Grid.Pieces) == 0 {
		return mesh.New(), nil
	}
	var grid *mesh.UnstructuredGrid
	for i := range f.Grid.Pieces {
		g, err := dec.gridPiece(&f.Grid.Pieces[i])
		if err != nil {
			return nil, fmt.Errorf("piece %d: %w", i, err)
		}
		if grid == nil {
			grid = g
		} else {
			grid.Append(g)
		}
	}
	return mesh.ExtractSurface(grid)
}

// ParseVTPFile reads and parses a .vtp file from disk.
func ParseVTPFile(path string) (*mesh.Mesh, error) {
	return parseFile(path, ParseVTP)
}

// ParseVTUFile reads and parses a .vtu file from disk.
func ParseVTUFile(path string) (*mesh.Mesh, error) {
	return parseFile(path, ParseVTU)
}

func readVTKXML(r io.Reader, want string) (*xmlFile, *xmlDecoder, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, err
	}
	doc, raw, err := splitRawAppended(string(data))
	if err != nil {
		return nil, nil, err
	}

	var f xmlFile
	if err := xml.Unmarshal([]byte(doc), &f); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrNotVTKXML, err)
	}
	if f.Type != want {
		return nil, nil, fmt.Errorf("%w: %q, want %q", ErrWrongDataSetType, f.Type, want)
	}

	dec := &xmlDecoder{order: binary.LittleEndian, header: kindUint32, appendedRaw: raw}
	if f.ByteOrder == "BigEndian" {
		dec.order = binary.BigEndian
	}
	switch f.HeaderType {
	case "", "UInt32":
	case "UInt64":
		dec.header = kindUint64
	default:
		return nil, nil, fmt.Errorf("%w: header type %s", ErrUnsupportedDataType, f.HeaderType)
	}
	switch f.Compressor {
	case "":
	case "vtkZLibDataCompressor":
		dec.compressed = true
	default:
		return nil, nil, fmt.Errorf("%w: %s", ErrUnsupportedCompressor, f.Compressor)
	}
	if f.Appended != nil && raw == nil {
		text := strings.TrimSpace(f.Appended.Data)
		dec.appendedText = strings.TrimPrefix(text, "_")
	}
	return &f, dec, nil
}

// splitRawAppended cuts a raw (unencoded) AppendedData section out of the
// document, since its bytes are not valid XML character data.
func splitRawAppended(s string) (doc string, raw []byte, err error) {
	start := strings.Index(s, "<AppendedData")
	if start < 0 {
		return s, nil, nil
	}
	tagEnd := strings.IndexByte(s[start:], '>')
	if tagEnd < 0 {
		return "", nil, fmt.Errorf("%w: unterminated AppendedData tag", ErrNotVTKXML)
	}
	tagEnd += start
	tag := s[start:tagEnd]
	if !strings.Contains(tag, `encoding="raw"`) {
		return s, nil, nil
	}
	underscore := strings.IndexByte(s[tagEnd:], '_')
	end := strings.LastIndex(s, "</AppendedData>")
	if underscore < 0 || end < 0 || tagEnd+underscore >= end {
		return "", nil, fmt.Errorf("%w: malformed raw AppendedData", ErrNotVTKXML)
	}
	raw = []byte(s[tagEnd+underscore+1 : end])
	doc = s[:tagEnd+1] + s[end:]
	return doc, raw, nil
}

func (d *xmlDecoder) polyPiece(p *xmlPiece) (*mesh.Mesh, error) {
	m := mesh.New()
	var err error
	if m.Points, err = d.points(p); err != nil {
		return nil, err
	}
	groups := []struct {
		dst *[][]int
		src *xmlArrays
	}{
		{&m.Verts, &p.Verts},
		{&m.Lines, &p.Lines},
		{&m.Polys, &p.Polys},
		{&m.Strips, &p.Strips},
	}
	for _, g := range groups {
		if *g.dst, err = d.cells(g.src); err != nil {
			return nil, err
		}
	}
	if m.PointData, err = d.fieldData(&p.PointData); err != nil {
		return nil, fmt.Errorf("point data: %w", err)
	}
	if m.CellData, err = d.fieldData(&p.CellData); err != nil {
		return nil, fmt.Errorf("cell data: %w", err)
	}
	return m, nil
}

func (d *xmlDecoder) gridPiece(p *xmlPiece) (*mesh.UnstructuredGrid, error) {
	g := mesh.NewUnstructuredGrid()
	var err error
	if g.Points, err = d.points(p); err != nil {
		return nil, err
	}
	if g.Cells, err = d.cells(&p.Cells); err != nil {
		return nil, err
	}
	if len(g.Cells) > 0 {
		ta := p.Cells.find("types")
		if ta == nil {
			return nil, fmt.Errorf("%w: Cells/types", ErrMissingDataArray)
		}
		vals, err := d.array(ta, len(g.Cells))
		if err != nil {
			return nil, fmt.Errorf("types: %w", err)
		}
		g.Types = make([]mesh.CellType, len(vals))
		for i, v := range vals {
			g.Types[i] = mesh.CellType(v)
		}
	}
	if g.PointData, err = d.fieldData(&p.PointData); err != nil {
		return nil, fmt.Errorf("point data: %w", err)
	}
	if g.CellData, err = d.fieldData(&p.CellData); err != nil {
		return nil, fmt.Errorf("cell data: %w", err)
	}
	return g, nil
}

func (d *xmlDecoder) points(p *xmlPiece) ([]vec3.T, error) {
	if p.NumberOfPoints == 0 {
		return nil, nil
	}
	if len(p.Points.Arrays) == 0 {
		return nil, fmt.Errorf("%w: Points", ErrMissingDataArray)
	}
	want, err := valueCount(p.NumberOfPoints, 3)
	if err != nil {
		return nil, fmt.Errorf("points: %w", err)
	}
	vals, err := d.array(&p.Points.Arrays[0], want)
	if err != nil {
		return nil, fmt.Errorf("points: %w", err)
	}
	pts := make([]vec3.T, len(vals)/3)
	for i := range pts {
		pts[i] = vec3.T{float32(vals[3*i]), float32(vals[3*i+1]), float32(vals[3*i+2])}
	}
	return pts, nil
}

// cells decodes a connectivity/offsets pair. Offsets mark the end of each
// cell.
func (d *xmlDecoder) cells(a *xmlArrays) ([][]int, error) {
	if len(a.Arrays) == 0 {
		return nil, nil
	}
	ca, oa := a.find("connectivity"), a.find("offsets")
	if ca == nil || oa == nil {
		return nil, fmt.Errorf("%w: connectivity/offsets", ErrMissingDataArray)
	}
	offsets, err := d.array(oa, -1)
	if err != nil {
		return nil, fmt.Errorf("offsets: %w", err)
	}
	conn, err := d.array(ca, -1)
	if err != nil {
		return nil, fmt.Errorf("connectivity: %w", err)
	}
	return splitOffsets(toInts(offsets), toInts(conn), false)
}

func (d *xmlDecoder) fieldData(a *xmlArrays) (*mesh.FieldData, error) {
	fd := mesh.NewFieldData()
	for i := range a.Arrays {
		da := &a.Arrays[i]
		if _, ok := xmlTypes[da.Type]; !ok || da.Name == "" {
			// String and bit arrays cannot be colored by.
			continue
		}
		vals, err := d.array(da, -1)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", da.Name, err)
		}
		comps := max(da.Components, 1)
		if err := fd.Add(mesh.NewDataArray(da.Name, comps, vals)); err != nil {
			return nil, err
		}
	}
	return fd, nil
}

// array decodes every value of a data array. want, if not negative, is the
// required value count.
func (d *xmlDecoder) array(a *xmlDataArray, want int) ([]float64, error) {
	k, ok := xmlTypes[a.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDataType, a.Type)
	}

	var vals []float64
	var err error
	switch a.Format {
	case "ascii":
		vals, err = parseASCIIValues(a.Data)
	case "binary":
		var block []byte
		if block, err = d.decodeBase64Block(strings.Join(strings.Fields(a.Data), "")); err == nil {
			vals, err = k.decodeAll(block, len(block)/k.size(), d.order)
		}
	case "appended":
		var block []byte
		if block, err = d.appendedBlock(a.Offset); err == nil {
			vals, err = k.decodeAll(block, len(block)/k.size(), d.order)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedArrayFormat, a.Format)
	}
	if err != nil {
		return nil, err
	}
	if want >= 0 && len(vals) != want {
		return nil, fmt.Errorf("%w: have %d values, want %d", ErrTruncatedData, len(vals), want)
	}
	return vals, nil
}

func parseASCIIValues(s string) ([]float64, error) {
	fields := strings.Fields(s)
	vals := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		vals[i] = v
	}
	return vals, nil
}

// headerWords reads n header integers from b.
func (d *xmlDecoder) headerWords(b []byte, n int) ([]int, error) {
	vals, err := d.header.decodeAll(b, n, d.order)
	if err != nil {
		return nil, fmt.Errorf("block header: %w", err)
	}
	return toInts(vals), nil
}

// b64len is the encoded length of n bytes.
func b64len(n int) int {
	return (n + 2) / 3 * 4
}

// decodePrefix decodes enough of text to yield at least n bytes.
func decodePrefix(text string, n int) ([]byte, error) {
	if n < 0 || n > len(text) || len(text) < b64len(n) {
		return nil, fmt.Errorf("%w: base64 block header", ErrTruncatedData)
	}
	b, err := base64.StdEncoding.DecodeString(text[:b64len(n)])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(b) < n {
		return nil, fmt.Errorf("%w: base64 block header", ErrTruncatedData)
	}
	return b[:n], nil
}

// headerLen returns the byte length of a block header whose first word is
// in first.
func (d *xmlDecoder) headerLen(first []byte) (int, error) {
	hs := d.header.size()
	if !d.compressed {
		return hs, nil
	}
	nb, err := d.headerWords(first, 1)
	if err != nil {
		return 0, err
	}
	if nb[0] < 0 || nb[0] > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %d blocks", ErrMalformed, nb[0])
	}
	return (3 + nb[0]) * hs, nil
}

// payloadLen returns the byte length of the data following header.
func (d *xmlDecoder) payloadLen(header []byte) (int, error) {
	if !d.compressed {
		n, err := d.headerWords(header, 1)
		if err != nil {
			return 0, err
		}
		if n[0] < 0 {
			return 0, fmt.Errorf("%w: block size %d", ErrMalformed, n[0])
		}
		return n[0], nil
	}
	words, err := d.headerWords(header, len(header)/d.header.size())
	if err != nil {
		return 0, err
	}
	total := 0
	for _, s := range words[3:] {
		if s < 0 || s > math.MaxInt32 {
			return 0, fmt.Errorf("%w: compressed size %d", ErrMalformed, s)
		}
		total += s
	}
	return total, nil
}

// headerLayout returns the byte length of the block header at the start of
// text and whether it was encoded apart from the data. A separately encoded
// header ends in padding unless its length is a multiple of 3, in which case
// both layouts encode identically.
func (d *xmlDecoder) headerLayout(text string) (hlen int, separate bool, err error) {
	first, err := decodePrefix(text, d.header.size())
	if err != nil {
		return 0, false, err
	}
	if hlen, err = d.headerLen(first); err != nil {
		return 0, false, err
	}
	n := b64len(hlen)
	return hlen, len(text) >= n && text[n-1] == '=', nil
}

// decodeBase64Block decodes an inline or appended base64 block whose header
// is encoded either together with the data or on its own.
func (d *xmlDecoder) decodeBase64Block(text string) ([]byte, error) {
	hlen, separate, err := d.headerLayout(text)
	if err != nil {
		return nil, err
	}
	if !separate {
		all, err := base64.StdEncoding.DecodeString(text)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return d.rawBlock(all)
	}
	header, err := decodePrefix(text, hlen)
	if err != nil {
		return nil, err
	}
	data, err := base64.StdEncoding.DecodeString(text[b64len(hlen):])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return d.rawBlock(append(header, data...))
}

// appendedBlock decodes the block at offset in the appended section.
func (d *xmlDecoder) appendedBlock(offset int) ([]byte, error) {
	if d.appendedRaw != nil {
		if offset < 0 || offset >= len(d.appendedRaw) {
			return nil, ErrAppendedDataMissing
		}
		return d.rawBlock(d.appendedRaw[offset:])
	}

	if d.appendedText == "" || offset < 0 || offset >= len(d.appendedText) {
		return nil, ErrAppendedDataMissing
	}
	text := d.appendedText[offset:]
	hlen, separate, err := d.headerLayout(text)
	if err != nil {
		return nil, err
	}
	header, err := decodePrefix(text, hlen)
	if err != nil {
		return nil, err
	}
	plen, err := d.payloadLen(header)
	if err != nil {
		return nil, err
	}
	if plen > len(text) {
		return nil, fmt.Errorf("%w: appended block at %d", ErrTruncatedData, offset)
	}
	end := b64len(hlen + plen)
	if separate {
		end = b64len(hlen) + b64len(plen)
	}
	if end > len(text) {
		return nil, fmt.Errorf("%w: appended block at %d", ErrTruncatedData, offset)
	}
	return d.decodeBase64Block(text[:end])
}

// rawBlock strips the header from a decoded block and inflates it if the
// file is compressed. Bytes past the block are ignored.
func (d *xmlDecoder) rawBlock(b []byte) ([]byte, error) {
	hs := d.header.size()
	if !d.compressed {
		n, err := d.headerWords(b, 1)
		if err != nil {
			return nil, err
		}
		if n[0] < 0 || len(b)-hs < n[0] {
			return nil, fmt.Errorf("%w: block holds %d of %d bytes", ErrTruncatedData, len(b)-hs, n[0])
		}
		return b[hs : hs+n[0]], nil
	}
	hlen, err := d.headerLen(b)
	if err != nil {
		return nil, err
	}
	if len(b) < hlen {
		return nil, fmt.Errorf("%w: compressed block header", ErrTruncatedData)
	}
	return d.inflate(b[:hlen], b[hlen:])
}

// inflate decompresses zlib blocks described by a
// [nblocks, blockSize, lastBlockSize, compressedSizes...] header.
func (d *xmlDecoder) inflate(header, data []byte) ([]byte, error) {
	words, err := d.headerWords(header, len(header)/d.header.size())
	if err != nil {
		return nil, err
	}
	nb, blockSize, lastSize := words[0], words[1], words[2]

	var out bytes.Buffer
	pos := 0
	for i, cs := range words[3:] {
		if cs < 0 || pos+cs > len(data) {
			return nil, fmt.Errorf("%w: compressed block %d", ErrTruncatedData, i)
		}
		zr, err := zlib.NewReader(bytes.NewReader(data[pos : pos+cs]))
		if err != nil {
			return nil, fmt.Errorf("%w: block %d: %v", ErrMalformed, i, err)
		}
		size := blockSize
		if i == nb-1 && lastSize != 0 {
			size = lastSize
		}
		_, err = io.CopyN(&out, zr, int64(size))
		zr.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: block %d: %v", ErrTruncatedData, i, err)
		}
		pos += cs
	}
	return out.Bytes(), nil
}
