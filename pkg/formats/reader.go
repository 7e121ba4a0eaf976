package formats

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/Faultbox/meshview/pkg/mesh"
)

// parseFile reads a whole file and hands it to parse.
func parseFile(path string, parse func(io.ReadSeeker) (*mesh.Mesh, error)) (*mesh.Mesh, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return parse(bytes.NewReader(data))
}

// textReader reads a stream that mixes text header lines, whitespace
// separated values and raw binary blocks, as legacy VTK and PLY do.
type textReader struct {
	r    *bufio.Reader
	line int
}

func newTextReader(r io.Reader) *textReader {
	return &textReader{r: bufio.NewReader(r)}
}

// readLine returns the next line without its terminator.
func (t *textReader) readLine() (string, error) {
	s, err := t.r.ReadString('\n')
	if err != nil && (err != io.EOF || s == "") {
		return "", err
	}
	t.line++
	return strings.TrimRight(s, "\r\n"), nil
}

// nextFields returns the fields of the next non-blank line.
func (t *textReader) nextFields() ([]string, error) {
	for {
		s, err := t.readLine()
		if err != nil {
			return nil, err
		}
		if f := strings.Fields(s); len(f) > 0 {
			return f, nil
		}
	}
}

// peekWord skips whitespace and reports whether the next word starts with
// w, ignoring case. Only safe on text content.
func (t *textReader) peekWord(w string) bool {
	for {
		b, err := t.r.Peek(1)
		if err != nil {
			return false
		}
		if b[0] != ' ' && b[0] != '\t' && b[0] != '\n' && b[0] != '\r' {
			break
		}
		if b[0] == '\n' {
			t.line++
		}
		_, _ = t.r.Discard(1)
	}
	b, err := t.r.Peek(len(w))
	if err != nil {
		return false
	}
	return strings.EqualFold(string(b), w)
}

// token returns the next whitespace separated word.
func (t *textReader) token() (string, error) {
	var b strings.Builder
	for {
		c, err := t.r.ReadByte()
		if err != nil {
			if err == io.EOF && b.Len() > 0 {
				return b.String(), nil
			}
			return "", err
		}
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			if c == '\n' {
				t.line++
			}
			if b.Len() > 0 {
				return b.String(), nil
			}
			continue
		}
		b.WriteByte(c)
	}
}

func (t *textReader) float() (float64, error) {
	s, err := t.token()
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("line %d: %w", t.line+1, err)
	}
	return v, nil
}

func (t *textReader) int() (int, error) {
	s, err := t.token()
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("line %d: %w", t.line+1, err)
	}
	return v, nil
}

// maxPrealloc caps the capacity reserved up front from a count found in a
// file header. Larger sections grow as their values are actually read.
const maxPrealloc = 1 << 16

// valueCount returns n*k for a header count n of k-wide records.
func valueCount(n, k int) (int, error) {
	if n < 0 || k < 0 || (k > 0 && n > math.MaxInt/k) {
		return 0, fmt.Errorf("%w: count %d x %d", ErrMalformed, n, k)
	}
	return n * k, nil
}

// capHint bounds a header count for use as a slice capacity.
func capHint(n int) int {
	return max(0, min(n, maxPrealloc))
}

// floats reads n whitespace separated numbers.
func (t *textReader) floats(n int) ([]float64, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative value count %d", ErrMalformed, n)
	}
	out := make([]float64, 0, capHint(n))
	for len(out) < n {
		v, err := t.float()
		if err == io.EOF {
			return nil, fmt.Errorf("%w: %d of %d values", ErrTruncatedData, len(out), n)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// scalarKind is a fixed-width numeric type in a binary stream.
type scalarKind uint8

const (
	kindInvalid scalarKind = iota
	kindInt8
	kindUint8
	kindInt16
	kindUint16
	kindInt32
	kindUint32
	kindInt64
	kindUint64
	kindFloat32
	kindFloat64
)

func (k scalarKind) size() int {
	switch k {
	case kindInt8, kindUint8:
		return 1
	case kindInt16, kindUint16:
		return 2
	case kindInt32, kindUint32, kindFloat32:
		return 4
	case kindInt64, kindUint64, kindFloat64:
		return 8
	}
	return 0
}

// decode converts one value at the start of b.
func (k scalarKind) decode(b []byte, order binary.ByteOrder) float64 {
	switch k {
	case kindInt8:
		return float64(int8(b[0]))
	case kindUint8:
		return float64(b[0])
	case kindInt16:
		return float64(int16(order.Uint16(b)))
	case kindUint16:
		return float64(order.Uint16(b))
	case kindInt32:
		return float64(int32(order.Uint32(b)))
	case kindUint32:
		return float64(order.Uint32(b))
	case kindInt64:
		return float64(int64(order.Uint64(b)))
	case kindUint64:
		return float64(order.Uint64(b))
	case kindFloat32:
		return float64(math.Float32frombits(order.Uint32(b)))
	case kindFloat64:
		return math.Float64frombits(order.Uint64(b))
	}
	return 0
}

// decodeAll converts a packed block of n values.
func (k scalarKind) decodeAll(b []byte, n int, order binary.ByteOrder) ([]float64, error) {
	sz := k.size()
	if sz == 0 {
		return nil, ErrUnsupportedDataType
	}
	need, err := valueCount(n, sz)
	if err != nil {
		return nil, err
	}
	if len(b) < need {
		return nil, fmt.Errorf("%w: need %d bytes, have %d", ErrTruncatedData, need, len(b))
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = k.decode(b[i*sz:], order)
	}
	return out, nil
}

// binaryValues reads n packed values of kind k.
func (t *textReader) binaryValues(k scalarKind, n int, order binary.ByteOrder) ([]float64, error) {
	sz := k.size()
	if sz == 0 {
		return nil, ErrUnsupportedDataType
	}
	need, err := valueCount(n, sz)
	if err != nil {
		return nil, err
	}
	buf, err := io.ReadAll(io.LimitReader(t.r, int64(need)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTruncatedData, err)
	}
	if len(buf) < need {
		return nil, fmt.Errorf("%w: need %d bytes, have %d", ErrTruncatedData, need, len(buf))
	}
	return k.decodeAll(buf, n, order)
}

// toInts converts values read as floats back to indices.
func toInts(vals []float64) []int {
	out := make([]int, len(vals))
	for i, v := range vals {
		out[i] = int(v)
	}
	return out
}
