package scene

import (
	"errors"

	"go.uber.org/zap"

	"github.com/Faultbox/meshview/pkg/formats"
	"github.com/Faultbox/meshview/pkg/mesh"
)

// Dispatcher picks a parser by file name suffix and runs it over an
// in-memory buffer.
type Dispatcher struct {
	registry *formats.Registry
	log      *zap.Logger
}

// NewDispatcher returns a dispatcher over reg; nil means formats.Default().
func NewDispatcher(reg *formats.Registry, log *zap.Logger) *Dispatcher {
	if reg == nil {
		reg = formats.Default()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{registry: reg, log: log}
}

// Registry returns the format registry in use.
func (d *Dispatcher) Registry() *formats.Registry { return d.registry }

// Dispatch parses the first n bytes of buf as the format matching
// filename's suffix. The buffer is not retained after the call.
func (d *Dispatcher) Dispatch(filename string, buf []byte, n int) (*mesh.Mesh, error) {
	const op = "load"
	f, err := d.registry.Lookup(filename)
	if err != nil {
		return nil, newError(UnsupportedFormat, op, filename, err)
	}

	m, err := f.Parse(buf, n)
	switch {
	case errors.Is(err, formats.ErrFormatDisabled):
		return nil, newError(FormatDisabled, op, filename, err)
	case err != nil:
		return nil, newError(ParseFailed, op, filename, err)
	}

	d.log.Debug("parsed mesh",
		zap.String("file", filename),
		zap.String("format", f.Name),
		zap.Stringer("input", f.Input),
		zap.Int("points", m.NumberOfPoints()),
		zap.Int("cells", m.NumberOfCells()),
	)
	return m, nil
}
