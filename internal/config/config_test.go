package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"

	"github.com/Faultbox/meshview/internal/scene"
)

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func mustLoad(t *testing.T, o Overrides) *Config {
	t.Helper()
	cfg, err := Load(o)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return cfg
}

// isolate moves the test into an empty directory with no user config.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	t.Setenv("HOME", dir)
	t.Setenv(EnvConfigPath, "")
	return dir
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Window.Width != 1280 || cfg.Window.Height != 720 {
		t.Errorf("expected 1280x720, got %dx%d", cfg.Window.Width, cfg.Window.Height)
	}
	if cfg.Window.Fullscreen || !cfg.Window.VSync {
		t.Errorf("expected windowed with vsync, got %+v", cfg.Window)
	}
	if cfg.Window.ScreenshotDir != "screenshots" || cfg.Window.ScreenshotFormat != "png" {
		t.Errorf("unexpected screenshot defaults: %q %q", cfg.Window.ScreenshotDir, cfg.Window.ScreenshotFormat)
	}
	if cfg.Scene.ColorScheme != "Spectrum" {
		t.Errorf("expected color scheme Spectrum, got %s", cfg.Scene.ColorScheme)
	}
	if cfg.Scene.ScrollSensitivity != 0.15 {
		t.Errorf("expected scroll sensitivity 0.15, got %f", cfg.Scene.ScrollSensitivity)
	}
	if f, err := cfg.Scene.Field(); err != nil || f != scene.FieldPoint {
		t.Errorf("expected POINT selection, got %v (%v)", f, err)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.LogFile != "" {
		t.Errorf("unexpected logging defaults: %+v", cfg.Logging)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestDefaultBackgroundMatchesScene(t *testing.T) {
	inner, outer, err := Default().Scene.Background()
	if err != nil {
		t.Fatalf("Background failed: %v", err)
	}
	// Hex strings carry 8 bits per channel.
	if d := inner.DistanceRgb(scene.DefaultBackgroundInner); d > 0.01 {
		t.Errorf("inner background off by %f", d)
	}
	if d := outer.DistanceRgb(scene.DefaultBackgroundOuter); d > 0.01 {
		t.Errorf("outer background off by %f", d)
	}
}

func TestDecodeFile(t *testing.T) {
	path := writeFile(t, filepath.Join(t.TempDir(), "meshview.yaml"), `
window:
  title: "inspect"
  width: 1920
  fullscreen: true
  vsync: false
  fps_limit: 144
  screenshot_format: bmp

scene:
  background_inner: "#000000"
  background_outer: "#ffffff"
  scroll_sensitivity: 0.5
  color_scheme: "Cool"
  pick_field: "CELL"
  interpolate_scalars: true

logging:
  level: "debug"
  log_file: "meshview.log"
`)

	cfg := Default()
	if err := decodeFile(cfg, path); err != nil {
		t.Fatalf("decodeFile failed: %v", err)
	}

	w := cfg.Window
	if w.Title != "inspect" || w.Width != 1920 || !w.Fullscreen || w.VSync || w.FPSLimit != 144 {
		t.Errorf("unexpected window settings: %+v", w)
	}
	if w.Height != 720 {
		t.Errorf("expected height to keep its default, got %d", w.Height)
	}
	if w.ScreenshotFormat != "bmp" || w.ScreenshotDir != "screenshots" {
		t.Errorf("unexpected screenshot settings: %q %q", w.ScreenshotDir, w.ScreenshotFormat)
	}

	if !cfg.Scene.Interpolate {
		t.Error("expected interpolate_scalars to be true")
	}
	field, err := cfg.Scene.Field()
	if err != nil || field != scene.FieldCell {
		t.Errorf("expected CELL field, got %v (%v)", field, err)
	}

	sc, err := cfg.SceneConfig()
	if err != nil {
		t.Fatalf("SceneConfig failed: %v", err)
	}
	if sc.ScrollSensitivity != 0.5 || sc.ColorScheme != "Cool" {
		t.Errorf("unexpected scene config: %+v", sc)
	}
	if sc.BackgroundOuter.R < 0.99 || sc.BackgroundInner.R != 0 {
		t.Errorf("unexpected background: %v %v", sc.BackgroundInner, sc.BackgroundOuter)
	}

	if cfg.Logging.Level != "debug" || cfg.Logging.LogFile != "meshview.log" {
		t.Errorf("unexpected logging settings: %+v", cfg.Logging)
	}
}

func TestDecodeFileErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		path string
		want string
	}{
		{"bad yaml", writeFile(t, filepath.Join(dir, "bad.yaml"), "window:\n  width: not a number\n  junk here\n"), ""},
		{"unknown key", writeFile(t, filepath.Join(dir, "typo.yaml"), "window:\n  widht: 800\n"), "widht"},
		{"unknown section", writeFile(t, filepath.Join(dir, "section.yaml"), "render:\n  fps: 60\n"), "render"},
		{"missing", filepath.Join(dir, "missing.yaml"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := decodeFile(Default(), tt.path)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestDecodeEmptyFile(t *testing.T) {
	path := writeFile(t, filepath.Join(t.TempDir(), "empty.yaml"), "")
	cfg := Default()
	if err := decodeFile(cfg, path); err != nil {
		t.Fatalf("empty file should decode: %v", err)
	}
	if cfg.Window.Width != 1280 {
		t.Errorf("empty file changed defaults: %+v", cfg.Window)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   string
	}{
		{"zero width", func(c *Config) { c.Window.Width = 0 }, "window size"},
		{"bad inner color", func(c *Config) { c.Scene.BackgroundInner = "blue" }, "background_inner"},
		{"bad outer color", func(c *Config) { c.Scene.BackgroundOuter = "#12" }, "background_outer"},
		{"unknown scheme", func(c *Config) { c.Scene.ColorScheme = "Jet" }, "color_scheme"},
		{"unknown field", func(c *Config) { c.Scene.PickField = "FIELD" }, "pick_field"},
		{"screenshot format", func(c *Config) { c.Window.ScreenshotFormat = "gif" }, "screenshot_format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestConfigDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	t.Setenv("AppData", dir)

	got := ConfigDir()
	if filepath.Base(got) != "meshview" {
		t.Errorf("expected a meshview directory, got %s", got)
	}
	if !filepath.IsAbs(got) {
		t.Errorf("expected an absolute path, got %s", got)
	}
}

func TestLoadSearch(t *testing.T) {
	isolate(t)

	cfg := mustLoad(t, Overrides{})
	if cfg.Source != "" || cfg.Window.Width != 1280 {
		t.Errorf("expected defaults, got source %q width %d", cfg.Source, cfg.Window.Width)
	}

	if err := os.MkdirAll(ConfigDir(), 0755); err != nil {
		t.Fatal(err)
	}
	user := writeFile(t, filepath.Join(ConfigDir(), "config.yaml"), "window:\n  width: 700\n")
	if cfg = mustLoad(t, Overrides{}); cfg.Source != user || cfg.Window.Width != 700 {
		t.Errorf("expected user config %s, got %q width %d", user, cfg.Source, cfg.Window.Width)
	}

	writeFile(t, ".meshview.yaml", "window:\n  width: 800\n")
	if cfg = mustLoad(t, Overrides{}); cfg.Source != ".meshview.yaml" || cfg.Window.Width != 800 {
		t.Errorf("expected .meshview.yaml to win over the user config, got %q width %d", cfg.Source, cfg.Window.Width)
	}

	writeFile(t, "meshview.yaml", "window:\n  width: 900\n")
	if cfg = mustLoad(t, Overrides{}); cfg.Source != "meshview.yaml" || cfg.Window.Width != 900 {
		t.Errorf("expected meshview.yaml first, got %q width %d", cfg.Source, cfg.Window.Width)
	}
}

func TestLoadEnvironmentPath(t *testing.T) {
	dir := isolate(t)
	writeFile(t, "meshview.yaml", "window:\n  width: 900\n")

	env := writeFile(t, filepath.Join(dir, "env.yaml"), "window:\n  width: 1000\n")
	t.Setenv(EnvConfigPath, env)
	cfg := mustLoad(t, Overrides{})
	if cfg.Source != env || cfg.Window.Width != 1000 {
		t.Errorf("expected %s to win over the search path, got %q width %d", env, cfg.Source, cfg.Window.Width)
	}

	flag := writeFile(t, filepath.Join(dir, "flag.yaml"), "window:\n  width: 1100\n")
	if cfg = mustLoad(t, Overrides{ConfigPath: flag}); cfg.Window.Width != 1100 {
		t.Errorf("expected --config to win over %s, got width %d", EnvConfigPath, cfg.Window.Width)
	}

	t.Setenv(EnvConfigPath, filepath.Join(dir, "gone.yaml"))
	if _, err := Load(Overrides{}); err == nil {
		t.Error("expected a missing named config to fail")
	}
}

func TestLoadExplicitPathMissing(t *testing.T) {
	isolate(t)
	_, err := Load(Overrides{ConfigPath: "nowhere.yaml"})
	if err == nil || !strings.Contains(err.Error(), "nowhere.yaml") {
		t.Errorf("expected error naming the file, got %v", err)
	}
}

func TestOverrides(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		verify func(*testing.T, *Config)
	}{
		{
			name: "debug flag",
			args: []string{"--debug"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
		},
		{
			name: "log level and file",
			args: []string{"--log-level", "warn", "--log-file", "out.log"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "warn" || cfg.Logging.LogFile != "out.log" {
					t.Errorf("unexpected logging config: %+v", cfg.Logging)
				}
			},
		},
		{
			name: "windowed wins over file",
			args: []string{"--windowed"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Window.Fullscreen {
					t.Error("expected windowed mode")
				}
			},
		},
		{
			name: "fullscreen",
			args: []string{"--fullscreen"},
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.Window.Fullscreen {
					t.Error("expected fullscreen mode")
				}
			},
		},
		{
			name: "size",
			args: []string{"--width", "2560", "--height", "1440"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Window.Width != 2560 || cfg.Window.Height != 1440 {
					t.Errorf("expected 2560x1440, got %dx%d", cfg.Window.Width, cfg.Window.Height)
				}
			},
		},
		{
			name: "pick field",
			args: []string{"--pick", "cell"},
			verify: func(t *testing.T, cfg *Config) {
				if f, _ := cfg.Scene.Field(); f != scene.FieldCell {
					t.Errorf("expected CELL, got %v", f)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var o Overrides
			fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
			o.Register(fs)
			if err := fs.Parse(tt.args); err != nil {
				t.Fatalf("parse: %v", err)
			}

			cfg := Default()
			cfg.Window.Fullscreen = tt.name == "windowed wins over file"
			o.apply(cfg)
			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	path := writeFile(t, filepath.Join(t.TempDir(), "meshview.yaml"), "window:\n  width: 1600\n  height: 900\n")

	cfg, err := Load(Overrides{ConfigPath: path, Width: 1920})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Window.Width != 1920 {
		t.Errorf("expected the flag's width 1920, got %d", cfg.Window.Width)
	}
	if cfg.Window.Height != 900 {
		t.Errorf("expected the file's height 900, got %d", cfg.Window.Height)
	}
	if cfg.Source != path {
		t.Errorf("expected source %s, got %s", path, cfg.Source)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := writeFile(t, filepath.Join(t.TempDir(), "meshview.yaml"), "scene:\n  color_scheme: Jet\n")
	if _, err := Load(Overrides{ConfigPath: path}); err == nil {
		t.Error("expected unknown scheme to fail loading")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Window.Width = 1024
	cfg.Scene.ColorScheme = "Blues"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded, err := Load(Overrides{ConfigPath: path})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Window.Width != 1024 || loaded.Scene.ColorScheme != "Blues" {
		t.Errorf("round trip lost values: %+v", loaded)
	}
}
