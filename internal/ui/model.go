package ui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"nmsweep/internal/config"
	"nmsweep/internal/logging"
	"nmsweep/internal/services"
	"nmsweep/internal/state"
	"nmsweep/internal/worker"
)

const (
	agePrompt       = "How old node_modules you wanna delete? (months)"
	noMatchesStatus = "Oops! Your node_modules are too young to be deleted."
	selectHint      = "Select directories to be deleted."
	selectEmptyHint = "Select at least one."
	listLimit       = 10
)

type Model struct {
	state   *state.State
	spawner worker.Spawner
	handle  *worker.Handle
	ctx     context.Context
	keys    KeyMap
	input   textinput.Model
	spinner spinner.Model
	status  string
	hint    string
	err     error
	viewTop int
	width   int
	now     func() time.Time

	estimate  int64
	estimated bool
}

func NewModel(ctx context.Context, appState *state.State, spawner worker.Spawner) Model {
	input := textinput.New()
	input.Prompt = "› "
	input.CharLimit = 8
	if appState.LastAge > 0 {
		input.Placeholder = strconv.FormatFloat(appState.LastAge, 'f', -1, 64)
	}
	input.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Pulse

	return Model{
		state:   appState,
		spawner: spawner,
		ctx:     ctx,
		keys:    DefaultKeyMap(),
		input:   input,
		spinner: spin,
		hint:    selectHint,
		width:   100,
		now:     time.Now,
	}
}

// Err is the operational failure that ended the session, if any. A scan
// with no matches is not an error.
func (model Model) Err() error {
	return model.err
}

func (model Model) ConfigSnapshot(base config.Config) config.Config {
	snapshot := base
	if model.state.AgeMonths > 0 {
		snapshot.LastAge = model.state.AgeMonths
	}
	return snapshot
}

func (model Model) Init() tea.Cmd {
	if model.state.Phase == state.PhaseScanning {
		return tea.Batch(model.spinner.Tick, model.spawnCmd(worker.KindScan, model.state.ScanRequest()))
	}
	return textinput.Blink
}

func (model Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		return model.handleKey(typed)
	case tea.WindowSizeMsg:
		model.width = typed.Width
		return model, nil
	case spinner.TickMsg:
		if !model.busy() {
			return model, nil
		}
		var cmd tea.Cmd
		model.spinner, cmd = model.spinner.Update(typed)
		return model, cmd
	case workerStartedMsg:
		if model.state.Phase == state.PhaseDone {
			// The session ended while this worker was starting.
			if typed.handle != nil {
				typed.handle.Kill()
			}
			return model, nil
		}
		if typed.err != nil {
			return model.fail(typed.err)
		}
		model.handle = typed.handle
		return model, listenCmd(typed.handle)
	case workerEventMsg:
		if !model.isActive(typed.handle) {
			return model, nil
		}
		return model.handleEvent(typed)
	case workerExitedMsg:
		if !model.isActive(typed.handle) {
			return model, nil
		}
		model.handle = nil
		err := typed.err
		if err == nil {
			err = worker.ErrWorkerExited
		}
		return model.fail(fmt.Errorf("%s failed: %w", typed.kind, err))
	case selectionSizeMsg:
		if model.state.Phase == state.PhaseConfirm && equalPaths(typed.paths, model.state.SelectedPaths()) {
			model.estimate = typed.bytes
			model.estimated = true
		}
		return model, nil
	default:
		if model.state.Phase == state.PhaseAge {
			var cmd tea.Cmd
			model.input, cmd = model.input.Update(msg)
			return model, cmd
		}
		return model, nil
	}
}

func (model Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC || (model.state.Phase != state.PhaseAge && key.Matches(msg, model.keys.Quit)) {
		return model.quit("Aborted.")
	}

	switch model.state.Phase {
	case state.PhaseAge:
		return model.handleAgeInput(msg)
	case state.PhaseSelect:
		return model.handleSelectKey(msg)
	case state.PhaseConfirm:
		return model.handleConfirmKey(msg)
	default:
		return model, nil
	}
}

func (model Model) handleAgeInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !key.Matches(msg, model.keys.Submit) {
		var cmd tea.Cmd
		model.input, cmd = model.input.Update(msg)
		return model, cmd
	}
	value := model.input.Value()
	if value == "" && model.input.Placeholder != "" {
		value = model.input.Placeholder
	}
	months, err := config.ParseAgeMonths(value)
	if err != nil {
		model.status = err.Error()
		return model, nil
	}
	model.status = ""
	model.state.AgeMonths = months
	model.state.Phase = state.PhaseScanning
	model.input.Blur()
	return model, tea.Batch(model.spinner.Tick, model.spawnCmd(worker.KindScan, model.state.ScanRequest()))
}

func (model Model) handleSelectKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, model.keys.Up):
		model.state.MoveCursor(-1)
		model.ensureCursorVisible()
	case key.Matches(msg, model.keys.Down):
		model.state.MoveCursor(1)
		model.ensureCursorVisible()
	case key.Matches(msg, model.keys.Select):
		model.state.ToggleCurrent()
		model.hint = selectHint
	case key.Matches(msg, model.keys.All):
		model.state.ToggleAll()
		model.hint = selectHint
	case key.Matches(msg, model.keys.Submit):
		if model.state.SelectionSummary() == 0 {
			model.hint = selectEmptyHint
			return model, nil
		}
		model.state.Phase = state.PhaseConfirm
		model.estimated = false
		return model, sizeCmd(model.state.SelectedPaths())
	}
	return model, nil
}

func (model Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, model.keys.Confirm):
		model.state.Phase = state.PhaseDeleting
		return model, tea.Batch(model.spinner.Tick, model.spawnCmd(worker.KindDelete, model.state.DeleteRequest()))
	case key.Matches(msg, model.keys.Cancel):
		return model.quit("Nothing deleted.")
	}
	return model, nil
}

func (model Model) handleEvent(msg workerEventMsg) (tea.Model, tea.Cmd) {
	switch msg.envelope.Type {
	case worker.TypeMessage:
		if msg.kind == worker.KindScan {
			var progress services.ScanProgress
			if err := msg.envelope.Decode(&progress); err == nil {
				model.state.RecordProgress(progress)
			}
		} else {
			var progress services.DeleteProgress
			if err := msg.envelope.Decode(&progress); err == nil {
				model.status = fmt.Sprintf("%d/%d %s", progress.Processed, progress.Total, progress.Path)
			}
		}
		return model, listenCmd(model.handle)
	case worker.TypeDone:
		model.stopWorker()
		if msg.kind == worker.KindScan {
			return model.finishScan(msg.envelope)
		}
		return model.finishDelete(msg.envelope)
	default:
		return model, listenCmd(model.handle)
	}
}

func (model Model) finishScan(envelope worker.Envelope) (tea.Model, tea.Cmd) {
	result, err := worker.ScanResultOf(envelope)
	if err != nil {
		return model.fail(err)
	}
	logging.Info("scan complete",
		logging.Int("matches", len(result.Matches)),
		logging.Duration("duration", result.Duration))
	if result.Empty() {
		return model.quit(noMatchesStatus)
	}
	model.state.SetMatches(result.Matches)
	model.state.Phase = state.PhaseSelect
	model.status = ""
	return model, nil
}

func (model Model) finishDelete(envelope worker.Envelope) (tea.Model, tea.Cmd) {
	result, err := worker.DeleteResultOf(envelope)
	if err != nil {
		return model.fail(err)
	}
	logging.Info("delete complete",
		logging.Int("deleted", len(result.Deleted)),
		logging.Int("failed", len(result.Failed)),
		logging.Int64("bytes", result.BytesReclaimed))
	model.state.RecordDeletion(result)
	model.state.Phase = state.PhaseDone
	model.status = ""
	return model, tea.Quit
}

func (model Model) fail(err error) (tea.Model, tea.Cmd) {
	model.stopWorker()
	model.err = err
	logging.Error("session failed", logging.Err(err))
	var startErr *worker.StartError
	switch {
	case errors.As(err, &startErr):
		model.status = fmt.Sprintf("ERROR: could not start worker: %v", startErr.Err)
	default:
		model.status = fmt.Sprintf("ERROR: %v", err)
	}
	model.state.Phase = state.PhaseDone
	return model, tea.Quit
}

func (model Model) quit(message string) (tea.Model, tea.Cmd) {
	model.stopWorker()
	model.status = message
	model.state.Phase = state.PhaseDone
	return model, tea.Quit
}

// stopWorker kills the active worker. Anything it sends afterwards is
// ignored.
func (model *Model) stopWorker() {
	if model.handle != nil {
		model.handle.Kill()
		model.handle = nil
	}
}

func (model Model) busy() bool {
	return model.state.Phase == state.PhaseScanning || model.state.Phase == state.PhaseDeleting
}

func (model Model) spawnCmd(kind worker.Kind, payload any) tea.Cmd {
	ctx := model.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	spawner := model.spawner
	return func() tea.Msg {
		handle, err := spawner.Spawn(ctx, kind, payload)
		return workerStartedMsg{kind: kind, handle: handle, err: err}
	}
}

func listenCmd(handle *worker.Handle) tea.Cmd {
	if handle == nil {
		return nil
	}
	return func() tea.Msg {
		envelope, ok := <-handle.Events()
		if !ok {
			return workerExitedMsg{kind: handle.Kind(), handle: handle, err: handle.Err()}
		}
		return workerEventMsg{kind: handle.Kind(), handle: handle, envelope: envelope}
	}
}

// sizeCmd measures the selection before the user confirms, off the update
// loop.
func sizeCmd(paths []string) tea.Cmd {
	return func() tea.Msg {
		return selectionSizeMsg{paths: paths, bytes: services.TotalSize(paths)}
	}
}

// isActive reports whether handle is the worker the model is listening to.
// Anything else was stopped on purpose and its messages are ignored.
func (model Model) isActive(handle *worker.Handle) bool {
	return model.handle != nil && handle == model.handle && model.state.Phase != state.PhaseDone
}

func equalPaths(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for index := range a {
		if a[index] != b[index] {
			return false
		}
	}
	return true
}

func (model *Model) ensureCursorVisible() {
	cursor := model.state.Cursor
	if cursor < model.viewTop {
		model.viewTop = cursor
	}
	if cursor >= model.viewTop+listLimit {
		model.viewTop = cursor - listLimit + 1
	}
	if model.viewTop < 0 {
		model.viewTop = 0
	}
}
