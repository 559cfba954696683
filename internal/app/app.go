package app

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"nmsweep/internal/config"
	"nmsweep/internal/logging"
	"nmsweep/internal/state"
	"nmsweep/internal/ui"
	"nmsweep/internal/worker"
)

// Options wires one interactive session.
type Options struct {
	// Config is the effective configuration after flags.
	Config config.Config
	// Stored is what the config file held. The session's age is written back
	// over it, so flag overrides are never persisted.
	Stored  config.Config
	Roots   []string
	Spawner worker.Spawner
	// Save persists the config at the end of the session. Defaults to
	// config.SaveConfig.
	Save           func(config.Config) error
	ProgramOptions []tea.ProgramOption
}

// Run drives the scan, select, confirm, delete flow until the user quits or
// a worker fails.
func Run(ctx context.Context, opts Options) error {
	if opts.Spawner == nil {
		return fmt.Errorf("no worker spawner configured")
	}
	save := opts.Save
	if save == nil {
		save = config.SaveConfig
	}

	// Workers are bound to the session; any still running when it ends are
	// killed.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	initialState := state.NewState(opts.Config, opts.Roots)
	model := ui.NewModel(ctx, initialState, opts.Spawner)

	programOptions := append([]tea.ProgramOption{tea.WithContext(ctx)}, opts.ProgramOptions...)
	program := tea.NewProgram(model, programOptions...)
	finalModel, err := program.Run()
	if err != nil {
		return fmt.Errorf("run interface: %w", err)
	}

	final, ok := finalModel.(ui.Model)
	if !ok {
		return nil
	}
	if err := save(final.ConfigSnapshot(opts.Stored)); err != nil {
		logging.Warn("config save failed", logging.Err(err))
	}
	return final.Err()
}
