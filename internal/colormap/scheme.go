// Package colormap provides the fixed catalog of discrete color schemes and
// the lookup tables built from them.
package colormap

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// ErrUnknownScheme is returned when a scheme name is not in the catalog.
var ErrUnknownScheme = errors.New("unknown color scheme")

// Scheme is a named, ordered palette of discrete colors.
type Scheme struct {
	name   string
	colors []colorful.Color
}

// Name returns the scheme name.
func (s *Scheme) Name() string { return s.name }

// Len returns the number of colors.
func (s *Scheme) Len() int { return len(s.colors) }

// Color returns the i-th color.
func (s *Scheme) Color(i int) colorful.Color { return s.colors[i] }

// Colors returns a copy of the palette.
func (s *Scheme) Colors() []colorful.Color { return slices.Clone(s.colors) }

func newScheme(name string, hex ...uint32) *Scheme {
	s := &Scheme{name: name, colors: make([]colorful.Color, len(hex))}
	for i, h := range hex {
		s.colors[i] = rgb8(uint8(h>>16), uint8(h>>8), uint8(h))
	}
	return s
}

// rgb8 converts 0-255 channels to a color with components in [0, 1].
func rgb8(r, g, b uint8) colorful.Color {
	return colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
}

// catalog lists the schemes in presentation order.
var catalog = []*Scheme{
	newScheme("Spectrum", 0x000000, 0xE41A1C, 0x377EB8, 0x4DAF4A, 0x984EA3, 0xFF7F00, 0xA65628),
	newScheme("Warm", 0x791717, 0xB50101, 0xEF4719, 0xF98324, 0xFFB400, 0xFFE506),
	newScheme("Cool", 0x75B101, 0x588029, 0x50D7BF, 0x1C95CD, 0x3B68AB, 0x9A68FF, 0x5F3380),
	newScheme("Blues", 0x3B68AB, 0x1C95CD, 0x4ED9EA, 0x739AD5, 0x423DA9, 0x505487, 0x102A52),
	newScheme("WildFlower", 0x1C95CD, 0x3B68AB, 0x663EB7, 0xA254CF, 0xDE61CE, 0xDC6195, 0x3D1052),
	newScheme("Citrus", 0x657C37, 0x75B101, 0xB2BA30, 0xFFE506, 0xFFB400, 0xF98324),
}

// AvailableSchemes indexes the catalog by name.
var AvailableSchemes = func() map[string]*Scheme {
	m := make(map[string]*Scheme, len(catalog))
	for _, s := range catalog {
		m[s.name] = s
	}
	return m
}()

// Lookup returns the named scheme.
func Lookup(name string) (*Scheme, error) {
	s, ok := AvailableSchemes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScheme, name)
	}
	return s, nil
}

// MustLookup is like Lookup but panics on unknown names.
func MustLookup(name string) *Scheme {
	s, err := Lookup(name)
	if err != nil {
		panic(err)
	}
	return s
}

// Names returns the scheme names in catalog order.
func Names() []string {
	names := make([]string, len(catalog))
	for i, s := range catalog {
		names[i] = s.name
	}
	return names
}

// Presets returns the catalog names joined with ';'.
func Presets() string {
	return strings.Join(Names(), ";")
}

// DefaultScheme is the scheme used before any preset is chosen.
const DefaultScheme = "Spectrum"
