// Package cli defines the cobra command tree for nmsweep.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"nmsweep/internal/app"
	"nmsweep/internal/config"
)

// UsageError indicates bad arguments or flags (exit code 2).
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string { return e.Err.Error() }
func (e *UsageError) Unwrap() error { return e.Err }

func newUsageError(format string, args ...any) *UsageError {
	return &UsageError{Err: fmt.Errorf(format, args...)}
}

// Execute runs the root command and returns the exit code.
func Execute(ctx context.Context, version string) int {
	rootCmd := newRootCmd(version)
	err := fang.Execute(ctx, rootCmd,
		fang.WithVersion(version),
		fang.WithoutCompletions(),
		fang.WithoutManpage(),
	)
	return exitCode(err)
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}

	var usageErr *UsageError
	if errors.As(err, &usageErr) {
		return 2
	}

	var configErr *config.Error
	if errors.As(err, &configErr) {
		return 3
	}

	return 1
}

func newRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "nmsweep [roots...]",
		Short: "Find and delete old node_modules directories",
		Long: `nmsweep walks the given roots (the working directory by default) for
node_modules directories that have not been modified for a number of
months, lets you pick which ones to remove, and reports the space freed.`,
		Example: `nmsweep ~/code --age 3`,
		Args:    usageArgs(cobra.ArbitraryArgs),
		RunE:    runInteractive,
	}
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &UsageError{Err: err}
	})

	config.BindFlags(rootCmd.PersistentFlags(), config.DefaultConfig())
	registerCommands(rootCmd, version)

	return rootCmd
}

func runInteractive(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	if err := initLogging(settings.cfg); err != nil {
		return err
	}
	defer syncLogging()

	roots, err := resolveRoots(args, settings.cfg)
	if err != nil {
		return err
	}
	spawner, err := newSpawner(settings.cfg)
	if err != nil {
		return err
	}
	return app.Run(cmd.Context(), app.Options{
		Config:  settings.cfg,
		Stored:  settings.stored,
		Roots:   roots,
		Spawner: spawner,
	})
}

// usageArgs reports argument validation failures as usage errors.
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return &UsageError{Err: err}
		}
		return nil
	}
}
