package scene

import (
	"errors"

	"go.uber.org/zap"

	"github.com/Faultbox/meshview/pkg/mesh"
)

// FieldType tells what the identifiers of a selection refer to.
type FieldType uint8

const (
	FieldPoint FieldType = iota
	FieldCell
	FieldField
)

func (f FieldType) String() string {
	switch f {
	case FieldPoint:
		return "POINT"
	case FieldCell:
		return "CELL"
	case FieldField:
		return "FIELD"
	default:
		return "UNKNOWN"
	}
}

// Rect is a screen-space rectangle in window pixels, origin top left.
type Rect struct {
	X0, Y0, X1, Y1 int
}

// Normalize orders the corners so that X0 <= X1 and Y0 <= Y1.
func (r Rect) Normalize() Rect {
	if r.X1 < r.X0 {
		r.X0, r.X1 = r.X1, r.X0
	}
	if r.Y1 < r.Y0 {
		r.Y0, r.Y1 = r.Y1, r.Y0
	}
	return r
}

// Clamp limits the rectangle to a w by h viewport.
func (r Rect) Clamp(w, h int) Rect {
	c := func(v, hi int) int { return max(0, min(v, hi)) }
	return Rect{X0: c(r.X0, w-1), Y0: c(r.Y0, h-1), X1: c(r.X1, w-1), Y1: c(r.Y1, h-1)}
}

// Contains reports whether the point lies inside the rectangle, edges
// included.
func (r Rect) Contains(x, y float64) bool {
	return x >= float64(r.X0) && x <= float64(r.X1) && y >= float64(r.Y0) && y <= float64(r.Y1)
}

// PickEvent is emitted by the interactor when a rubber band pick ends.
type PickEvent Rect

// SelectionResult lists the elements found inside a pick rectangle. Values
// holds, for each id, component 0 of Array when the mesh has one.
type SelectionResult struct {
	FieldType FieldType
	IDs       []int
	Array     string
	Values    []float64
}

// ValueSource returns the array whose values accompany a selection of the
// given field type, or nil.
type ValueSource func(FieldType) *mesh.DataArray

// SelectionBridge forwards pick events to the selector and reports what it
// found.
type SelectionBridge struct {
	selector Selector
	window   Window
	values   ValueSource
	log      *zap.Logger

	last        *SelectionResult
	subscribers []func(*SelectionResult)
}

// NewSelectionBridge creates a bridge; window and values may be nil.
func NewSelectionBridge(sel Selector, window Window, values ValueSource, log *zap.Logger) *SelectionBridge {
	if log == nil {
		log = zap.NewNop()
	}
	return &SelectionBridge{selector: sel, window: window, values: values, log: log}
}

// OnSelection registers fn to receive every successful selection.
func (b *SelectionBridge) OnSelection(fn func(*SelectionResult)) {
	b.subscribers = append(b.subscribers, fn)
}

// Last returns the most recent selection, or nil.
func (b *SelectionBridge) Last() *SelectionResult { return b.last }

// HandlePick runs a selection over the event's rectangle. When the backend
// cannot select, the condition is logged and reported as a
// SelectionUnsupported error with no result.
func (b *SelectionBridge) HandlePick(ev PickEvent) (*SelectionResult, error) {
	const op = "select"
	area := Rect(ev).Normalize()
	if b.window != nil {
		if w, h := b.window.Size(); w > 0 && h > 0 {
			area = area.Clamp(w, h)
		}
	}
	if b.selector == nil {
		b.log.Warn("selection not supported")
		return nil, newError(SelectionUnsupported, op, "", ErrSelectionUnsupported)
	}

	res, err := b.selector.Select(area)
	if err != nil {
		if errors.Is(err, ErrSelectionUnsupported) {
			b.log.Warn("selection not supported")
			return nil, newError(SelectionUnsupported, op, "", err)
		}
		b.log.Error("selection failed", zap.Error(err))
		return nil, err
	}
	if res == nil {
		res = &SelectionResult{}
	}
	b.attachValues(res)

	b.log.Info("selection",
		zap.Int("x0", area.X0), zap.Int("y0", area.Y0),
		zap.Int("x1", area.X1), zap.Int("y1", area.Y1),
		zap.Stringer("fieldType", res.FieldType),
		zap.Ints("ids", res.IDs),
	)

	b.last = res
	for _, fn := range b.subscribers {
		fn(res)
	}
	return res, nil
}

func (b *SelectionBridge) attachValues(res *SelectionResult) {
	if b.values == nil || len(res.Values) > 0 {
		return
	}
	arr := b.values(res.FieldType)
	if arr == nil {
		return
	}
	vals := make([]float64, 0, len(res.IDs))
	for _, id := range res.IDs {
		if id < 0 || id >= arr.Tuples() {
			return
		}
		vals = append(vals, arr.Tuple(id)[0])
	}
	res.Array = arr.Name
	res.Values = vals
}
