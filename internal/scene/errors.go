package scene

import (
	"errors"
	"fmt"
)

// ErrorKind classifies controller failures.
type ErrorKind uint8

const (
	UnsupportedFormat ErrorKind = iota + 1
	FormatDisabled
	ParseFailed
	UnknownColorArray
	UnknownColorScheme
	SelectionUnsupported
	ShaderCompileFailed
	ShaderProgramNotReady
	NoMesh
)

func (k ErrorKind) String() string {
	switch k {
	case UnsupportedFormat:
		return "unsupported format"
	case FormatDisabled:
		return "format disabled"
	case ParseFailed:
		return "parse failed"
	case UnknownColorArray:
		return "unknown color array"
	case UnknownColorScheme:
		return "unknown color scheme"
	case SelectionUnsupported:
		return "selection unsupported"
	case ShaderCompileFailed:
		return "shader compile failed"
	case ShaderProgramNotReady:
		return "shader program not ready"
	case NoMesh:
		return "no mesh"
	default:
		return fmt.Sprintf("ErrorKind(%d)", uint8(k))
	}
}

// Error is returned by controller operations. Op names the operation and
// Name the file, array, scheme or shader stage involved.
type Error struct {
	Kind ErrorKind
	Op   string
	Name string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Op + ": " + e.Kind.String()
	if e.Name != "" {
		msg += " " + fmt.Sprintf("%q", e.Name)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so callers can test with
// errors.Is(err, &scene.Error{Kind: scene.ParseFailed}).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func newError(kind ErrorKind, op, name string, err error) *Error {
	return &Error{Kind: kind, Op: op, Name: name, Err: err}
}
