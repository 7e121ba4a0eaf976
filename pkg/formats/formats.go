// Package formats provides parsers for mesh file formats and a registry that
// maps file extensions to them.
//
// Every parser reads from an io.ReadSeeker and produces a *mesh.Mesh. The
// registry records, per format, whether the parser reads the caller's
// buffer in place (InputMemory) or needs it as text (InputString).
package formats

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/Faultbox/meshview/pkg/mesh"
)

// Registry errors.
var (
	ErrUnknownFormat  = errors.New("unknown file format")
	ErrFormatDisabled = errors.New("file format is disabled")
	ErrDuplicateExt   = errors.New("extension already registered")
)

// Errors shared by the parsers.
var (
	ErrTruncatedData       = errors.New("truncated data")
	ErrUnsupportedDataType = errors.New("unsupported data type")
	ErrMalformed           = errors.New("malformed file")
)

// InputMode describes how a parser consumes the caller's buffer.
type InputMode uint8

const (
	// InputMemory parsers read the buffer in place.
	InputMemory InputMode = iota
	// InputString parsers receive one copy of the buffer as a string.
	InputString
)

// String returns the mode name.
func (m InputMode) String() string {
	switch m {
	case InputMemory:
		return "memory"
	case InputString:
		return "string"
	default:
		return fmt.Sprintf("Unknown(%d)", m)
	}
}

// Parser turns an encoded file into a mesh.
type Parser interface {
	Parse(r io.ReadSeeker) (*mesh.Mesh, error)
}

// ParserFunc adapts a function to the Parser interface.
type ParserFunc func(r io.ReadSeeker) (*mesh.Mesh, error)

// Parse calls f(r).
func (f ParserFunc) Parse(r io.ReadSeeker) (*mesh.Mesh, error) {
	return f(r)
}

// Format describes one registered file format.
type Format struct {
	Name       string
	Extensions []string
	Input      InputMode
	Parser     Parser

	// Disabled formats are recognized but refuse to parse.
	Disabled bool
	Reason   string
}

// Open wraps the first n bytes of buf in a reader suited to the format's
// input mode. n is clamped to [0, len(buf)].
func (f *Format) Open(buf []byte, n int) io.ReadSeeker {
	n = max(0, min(n, len(buf)))
	if f.Input == InputString {
		return strings.NewReader(string(buf[:n]))
	}
	return bytes.NewReader(buf[:n])
}

// Parse runs the format's parser over the first n bytes of buf.
func (f *Format) Parse(buf []byte, n int) (*mesh.Mesh, error) {
	if f.Disabled || f.Parser == nil {
		return nil, fmt.Errorf("%w: %s (%s)", ErrFormatDisabled, f.Name, f.Reason)
	}
	m, err := f.Parser.Parse(f.Open(buf, n))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.Name, err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", f.Name, err)
	}
	return m, nil
}

// Registry maps file name suffixes to formats. Suffixes are matched
// case-sensitively.
type Registry struct {
	formats []*Format
	byExt   map[string]*Format
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byExt: make(map[string]*Format)}
}

// Register adds a format under each of its extensions.
func (r *Registry) Register(f *Format) error {
	for _, ext := range f.Extensions {
		if _, ok := r.byExt[ext]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateExt, ext)
		}
	}
	for _, ext := range f.Extensions {
		r.byExt[ext] = f
	}
	r.formats = append(r.formats, f)
	return nil
}

// Replace registers f, overriding any format previously bound to its
// extensions.
func (r *Registry) Replace(f *Format) {
	for _, ext := range f.Extensions {
		delete(r.byExt, ext)
	}
	r.formats = slices.DeleteFunc(r.formats, func(old *Format) bool {
		for _, ext := range old.Extensions {
			if _, ok := r.byExt[ext]; ok {
				return false
			}
		}
		return true
	})
	_ = r.Register(f)
}

// Lookup returns the format whose extension ends filename. When several
// extensions match, the longest wins.
func (r *Registry) Lookup(filename string) (*Format, error) {
	var best *Format
	bestLen := 0
	for ext, f := range r.byExt {
		if len(ext) > bestLen && strings.HasSuffix(filename, ext) {
			best, bestLen = f, len(ext)
		}
	}
	if best == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, filename)
	}
	return best, nil
}

// Formats returns the registered formats in registration order.
func (r *Registry) Formats() []*Format {
	return slices.Clone(r.formats)
}

// Default returns a registry with every built-in format.
func Default() *Registry {
	r := NewRegistry()
	for _, f := range []*Format{
		{Name: "VTK XML PolyData", Extensions: []string{".vtp"}, Input: InputString, Parser: ParserFunc(ParseVTP)},
		{Name: "VTK XML UnstructuredGrid", Extensions: []string{".vtu"}, Input: InputString, Parser: ParserFunc(ParseVTU)},
		{Name: "VTK legacy", Extensions: []string{".vtk"}, Input: InputMemory, Parser: ParserFunc(ParseVTK)},
		{Name: "glTF", Extensions: []string{".glb", ".gltf"}, Disabled: true, Reason: "import hangs"},
		{Name: "Wavefront OBJ", Extensions: []string{".obj"}, Input: InputMemory, Parser: ParserFunc(ParseOBJ)},
		{Name: "Stanford PLY", Extensions: []string{".ply"}, Input: InputMemory, Parser: ParserFunc(ParsePLY)},
		{Name: "STL", Extensions: []string{".stl"}, Input: InputMemory, Parser: ParserFunc(ParseSTL)},
	} {
		if err := r.Register(f); err != nil {
			panic(err)
		}
	}
	return r
}
