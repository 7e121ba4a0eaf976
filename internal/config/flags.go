package config

import "github.com/spf13/pflag"

// Overrides are command line settings that win over the config file.
// Zero values leave the file's settings alone.
type Overrides struct {
	ConfigPath string
	Debug      bool
	LogLevel   string
	LogFile    string
	Windowed   bool
	Fullscreen bool
	Width      int
	Height     int
	PickField  string
}

// Register binds the overrides to fs.
func (o *Overrides) Register(fs *pflag.FlagSet) {
	fs.StringVar(&o.ConfigPath, "config", "", "Path to config file")
	fs.BoolVar(&o.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&o.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&o.LogFile, "log-file", "", "Also log to this file, with rotation")
	fs.BoolVar(&o.Windowed, "windowed", false, "Run in windowed mode")
	fs.BoolVar(&o.Fullscreen, "fullscreen", false, "Run in fullscreen mode")
	fs.IntVar(&o.Width, "width", 0, "Window width")
	fs.IntVar(&o.Height, "height", 0, "Window height")
	fs.StringVar(&o.PickField, "pick", "", "Selection field: POINT or CELL")
}

// apply applies CLI overrides to the config.
func (o *Overrides) apply(cfg *Config) {
	if o.Debug {
		cfg.Logging.Level = "debug"
	}
	if o.LogLevel != "" {
		cfg.Logging.Level = o.LogLevel
	}
	if o.LogFile != "" {
		cfg.Logging.LogFile = o.LogFile
	}
	if o.Windowed {
		cfg.Window.Fullscreen = false
	}
	if o.Fullscreen {
		cfg.Window.Fullscreen = true
	}
	if o.Width > 0 {
		cfg.Window.Width = o.Width
	}
	if o.Height > 0 {
		cfg.Window.Height = o.Height
	}
	if o.PickField != "" {
		cfg.Scene.PickField = o.PickField
	}
}
