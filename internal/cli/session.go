package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Faultbox/meshview/internal/engine/headless"
	"github.com/Faultbox/meshview/internal/scene"
)

// session is a controller on the headless backend with one mesh loaded.
type session struct {
	backend *headless.Backend
	ctl     *scene.Controller
}

// openSession loads path into a headless controller configured from env.
// field overrides the configured pick field when non-empty.
func openSession(env *Env, path, field string) (*session, error) {
	cfg := env.Config
	if field != "" {
		cfg.Scene.PickField = field
	}
	ft, err := cfg.Scene.Field()
	if err != nil {
		return nil, err
	}

	hcfg := headless.DefaultConfig()
	hcfg.Width, hcfg.Height = cfg.Window.Width, cfg.Window.Height
	hcfg.Field = ft
	b := headless.New(hcfg, env.Log("headless"))

	sc, err := cfg.SceneConfig()
	if err != nil {
		return nil, err
	}
	sc.Backend = b.Scene()
	sc.Logger = env.Log("scene")
	ctl, err := scene.New(sc)
	if err != nil {
		return nil, err
	}
	ctl.Initialize()
	ctl.SetInterpolateScalarsBeforeMapping(cfg.Scene.Interpolate)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := ctl.Load(filepath.Base(path), data, len(data)); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	ctl.ResetView()
	return &session{backend: b, ctl: ctl}, nil
}
