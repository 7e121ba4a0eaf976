package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Faultbox/meshview/internal/cli"
	"github.com/Faultbox/meshview/internal/viewer"
)

// newViewCommand creates the "view" subcommand, which opens the
// interactive window.
func newViewCommand(env *cli.Env) *cobra.Command {
	return &cobra.Command{
		Use:   "view [file]",
		Short: "Open a mesh in the interactive viewer",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := env.Config
			log := env.Log("viewer")

			sc, err := cfg.SceneConfig()
			if err != nil {
				return err
			}
			field, err := cfg.Scene.Field()
			if err != nil {
				return err
			}

			v, err := viewer.New(viewer.Config{
				Title:       cfg.Window.Title,
				Width:       cfg.Window.Width,
				Height:      cfg.Window.Height,
				Fullscreen:  cfg.Window.Fullscreen,
				VSync:       cfg.Window.VSync,
				TargetFPS:   cfg.Window.FPSLimit,
				Field:       field,
				Scene:       sc,
				Interpolate: cfg.Scene.Interpolate,

				ScreenshotDir:    cfg.Window.ScreenshotDir,
				ScreenshotFormat: cfg.Window.ScreenshotFormat,
			}, log)
			if err != nil {
				return err
			}
			defer v.Close()

			if len(args) == 1 {
				if err := v.Open(args[0]); err != nil {
					log.Warn("failed to open mesh", zap.String("path", args[0]), zap.Error(err))
				}
			}

			if err := v.Run(); err != nil {
				return err
			}
			log.Info("viewer closed normally")
			return nil
		},
	}
}
