package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath names a config file when no --config flag is given.
const EnvConfigPath = "MESHVIEW_CONFIG"

// Load resolves settings as defaults, then the config file, then overrides,
// and validates the result. A missing explicitly named file is an error; a
// missing file in the search locations is not.
func Load(o Overrides) (*Config, error) {
	cfg := Default()

	path, explicit := o.ConfigPath, true
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path == "" {
		path, explicit = searchConfig(), false
	}

	if path != "" {
		if err := decodeFile(cfg, path); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("config %s: %w", path, err)
			}
			path = ""
		}
	}
	cfg.Source = path

	o.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// searchPaths lists where meshview looks for a config file, in order.
func searchPaths() []string {
	return []string{
		"meshview.yaml",
		".meshview.yaml",
		filepath.Join(ConfigDir(), "config.yaml"),
	}
}

func searchConfig() string {
	for _, p := range searchPaths() {
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			return p
		}
	}
	return ""
}

// ConfigDir is meshview's directory under the user config directory, or
// a relative ".meshview" when the platform has none.
func ConfigDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ".meshview"
	}
	return filepath.Join(base, "meshview")
}

// decodeFile merges the YAML at path over cfg. Unknown keys are rejected so
// a misspelled setting does not silently fall back to its default.
func decodeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return err
	}
	return nil
}
