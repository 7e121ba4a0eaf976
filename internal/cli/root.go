// Package cli defines the meshview command line. Commands that need a
// window are added by the binary; everything here runs headless.
package cli

import (
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Faultbox/meshview/internal/config"
	"github.com/Faultbox/meshview/internal/logger"
)

// Env is shared by every command. Config is loaded before any command runs.
type Env struct {
	Overrides config.Overrides
	Config    *config.Config
	Out       io.Writer
	// Quiet keeps log output off the console; file logging still applies.
	Quiet bool
}

// Log returns a logger for the named component.
func (e *Env) Log(name string) *zap.Logger {
	return logger.Named(name)
}

// Execute builds the root command, runs it with args and returns any error.
// extra commands are attached to the root, each built from the shared Env.
func Execute(args []string, out io.Writer, extra ...func(*Env) *cobra.Command) error {
	if out == nil {
		out = os.Stdout
	}
	env := &Env{Out: out}
	cmd := NewRootCommand(env)
	for _, build := range extra {
		cmd.AddCommand(build(env))
	}
	cmd.SetArgs(args)
	cmd.SetOut(out)
	return cmd.Execute()
}

// NewRootCommand constructs the root command with global flags and the
// headless subcommands.
func NewRootCommand(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "meshview",
		Short:         "meshview displays and inspects VTK, OBJ, PLY and STL meshes",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(env.Overrides)
			if err != nil {
				return err
			}
			env.Config = cfg

			fileCfg := logger.FileConfig{}
			if cfg.Logging.LogFile != "" {
				fileCfg = logger.DefaultFileConfig(cfg.Logging.LogFile)
			}
			if err := logger.InitWithFileConfig(cfg.Logging.Level, fileCfg, !env.Quiet); err != nil {
				return err
			}
			logger.Debug("config loaded",
				zap.String("command", cmd.Name()),
				zap.String("source", cfg.Source),
				zap.Any("config", cfg),
			)
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			logger.Sync()
		},
	}

	env.Overrides.Register(cmd.PersistentFlags())
	cmd.PersistentFlags().BoolVarP(&env.Quiet, "quiet", "q", false, "Do not log to the console")

	cmd.AddCommand(
		newInspectCommand(env),
		newPickCommand(env),
		newLUTCommand(env),
		newPresetsCommand(env),
		newFormatsCommand(env),
	)
	return cmd
}
