// Package config handles viewer configuration loading and management.
package config

import (
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/Faultbox/meshview/internal/colormap"
	"github.com/Faultbox/meshview/internal/scene"
)

// Config holds all viewer settings.
type Config struct {
	Window  WindowConfig  `yaml:"window"`
	Scene   SceneConfig   `yaml:"scene"`
	Logging LoggingConfig `yaml:"logging"`

	// Source is the file the settings were read from, empty for defaults.
	Source string `yaml:"-"`
}

// WindowConfig holds display settings.
type WindowConfig struct {
	Title      string `yaml:"title"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Fullscreen bool   `yaml:"fullscreen"`
	VSync      bool   `yaml:"vsync"`
	FPSLimit   int    `yaml:"fps_limit"`

	ScreenshotDir    string `yaml:"screenshot_dir"`
	ScreenshotFormat string `yaml:"screenshot_format"` // png or bmp
}

// SceneConfig holds the initial scene appearance.
type SceneConfig struct {
	BackgroundInner   string  `yaml:"background_inner"` // hex, e.g. "#324c62"
	BackgroundOuter   string  `yaml:"background_outer"`
	ScrollSensitivity float64 `yaml:"scroll_sensitivity"`
	ColorScheme       string  `yaml:"color_scheme"`
	PickField         string  `yaml:"pick_field"` // POINT or CELL
	Interpolate       bool    `yaml:"interpolate_scalars"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Title:      "meshview",
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
			FPSLimit:   0,

			ScreenshotDir:    "screenshots",
			ScreenshotFormat: "png",
		},
		Scene: SceneConfig{
			BackgroundInner:   scene.DefaultBackgroundInner.Hex(),
			BackgroundOuter:   scene.DefaultBackgroundOuter.Hex(),
			ScrollSensitivity: scene.DefaultScrollSensitivity,
			ColorScheme:       colormap.DefaultScheme,
			PickField:         scene.FieldPoint.String(),
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks values a YAML file may get wrong.
func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height)
	}
	switch strings.ToLower(c.Window.ScreenshotFormat) {
	case "", "png", "bmp":
	default:
		return fmt.Errorf("screenshot_format %q: want png or bmp", c.Window.ScreenshotFormat)
	}
	if _, _, err := c.Scene.Background(); err != nil {
		return err
	}
	if _, err := colormap.Lookup(c.Scene.ColorScheme); err != nil {
		return fmt.Errorf("color_scheme: %w", err)
	}
	if _, err := c.Scene.Field(); err != nil {
		return err
	}
	return nil
}

// Background parses the two gradient colors.
func (s SceneConfig) Background() (inner, outer colorful.Color, err error) {
	if inner, err = colorful.Hex(s.BackgroundInner); err != nil {
		return inner, outer, fmt.Errorf("background_inner %q: %w", s.BackgroundInner, err)
	}
	if outer, err = colorful.Hex(s.BackgroundOuter); err != nil {
		return inner, outer, fmt.Errorf("background_outer %q: %w", s.BackgroundOuter, err)
	}
	return inner, outer, nil
}

// Field returns the selection field type named by PickField.
func (s SceneConfig) Field() (scene.FieldType, error) {
	switch strings.ToUpper(s.PickField) {
	case "", "POINT", "POINTS":
		return scene.FieldPoint, nil
	case "CELL", "CELLS":
		return scene.FieldCell, nil
	}
	return scene.FieldPoint, fmt.Errorf("pick_field %q: want POINT or CELL", s.PickField)
}

// SceneConfig returns the controller configuration these settings describe;
// the caller fills in the backend, registry and logger.
func (c *Config) SceneConfig() (scene.Config, error) {
	sc := scene.DefaultConfig()
	inner, outer, err := c.Scene.Background()
	if err != nil {
		return sc, err
	}
	sc.BackgroundInner, sc.BackgroundOuter = inner, outer
	if c.Scene.ScrollSensitivity > 0 {
		sc.ScrollSensitivity = c.Scene.ScrollSensitivity
	}
	if c.Scene.ColorScheme != "" {
		sc.ColorScheme = c.Scene.ColorScheme
	}
	return sc, nil
}
