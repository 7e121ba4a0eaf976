// Package screenshot saves rendered frames as image files.
package screenshot

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/image/bmp"
)

// ErrUnknownFormat is returned for image formats other than png and bmp.
var ErrUnknownFormat = errors.New("unknown screenshot format")

// Capture writes screenshots into a directory with timestamped names.
type Capture struct {
	outputDir string
	prefix    string
	format    string
	now       func() time.Time
}

// New creates a capture handler. format is "png" or "bmp"; empty means png.
func New(outputDir, prefix, format string) (*Capture, error) {
	format = strings.ToLower(format)
	switch format {
	case "":
		format = "png"
	case "png", "bmp":
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return &Capture{outputDir: outputDir, prefix: prefix, format: format, now: time.Now}, nil
}

// FromPixels converts RGBA rows stored bottom row first, as OpenGL reads
// them, into an image with the top row first.
func FromPixels(pixels []byte, width, height int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 || len(pixels) != width*height*4 {
		return nil, fmt.Errorf("pixel data size mismatch: expected %d, got %d", width*height*4, len(pixels))
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	rowSize := width * 4
	for y := 0; y < height; y++ {
		src := (height - 1 - y) * rowSize
		dst := y * img.Stride
		copy(img.Pix[dst:dst+rowSize], pixels[src:src+rowSize])
	}
	return img, nil
}

// CaptureFromPixels saves bottom-up RGBA pixel data and returns the path.
func (c *Capture) CaptureFromPixels(pixels []byte, width, height int) (string, error) {
	img, err := FromPixels(pixels, width, height)
	if err != nil {
		return "", err
	}
	return c.CaptureFromImage(img)
}

// CaptureFromImage saves img and returns the path.
func (c *Capture) CaptureFromImage(img image.Image) (string, error) {
	if c.outputDir != "" {
		if err := os.MkdirAll(c.outputDir, 0755); err != nil {
			return "", fmt.Errorf("creating output dir: %w", err)
		}
	}

	filename := c.Filename()
	file, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}
	defer file.Close()

	if err := Encode(file, img, c.format); err != nil {
		return "", err
	}
	return filename, nil
}

// Filename returns the path the next capture would be written to.
func (c *Capture) Filename() string {
	timestamp := c.now().Format("2006-01-02_15-04-05.000")
	filename := fmt.Sprintf("%s_%s.%s", c.prefix, timestamp, c.format)
	if c.outputDir != "" {
		filename = filepath.Join(c.outputDir, filename)
	}
	return filename
}

// Encode writes img in the named format.
func Encode(w io.Writer, img image.Image, format string) error {
	switch strings.ToLower(format) {
	case "png", "":
		if err := png.Encode(w, img); err != nil {
			return fmt.Errorf("encoding PNG: %w", err)
		}
	case "bmp":
		if err := bmp.Encode(w, img); err != nil {
			return fmt.Errorf("encoding BMP: %w", err)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return nil
}
