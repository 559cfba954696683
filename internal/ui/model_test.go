package ui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nmsweep/internal/config"
	"nmsweep/internal/domain"
	"nmsweep/internal/services"
	"nmsweep/internal/state"
	"nmsweep/internal/worker"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type failingSpawner struct{}

func (failingSpawner) Spawn(ctx context.Context, kind worker.Kind, payload any) (*worker.Handle, error) {
	return nil, &worker.StartError{Kind: kind, Err: errors.New("exec format error")}
}

func sampleMatches() domain.MatchList {
	return domain.MatchList{
		{Path: "/work/a/node_modules", ModTime: testNow.Add(-3 * services.MonthDuration)},
		{Path: "/work/b/node_modules", ModTime: testNow.Add(-5 * services.MonthDuration)},
	}
}

func mockSpawner(matches domain.MatchList, bytesPerPath int64) worker.Spawner {
	return worker.NewInlineSpawner(worker.Handlers{
		worker.KindScan:   worker.ScanHandler(services.NewMockScanner(services.ScanResult{Matches: matches})),
		worker.KindDelete: worker.DeleteHandler(services.NewMockDeleter(bytesPerPath)),
	})
}

func newTestModel(t *testing.T, cfg config.Config, spawner worker.Spawner) Model {
	t.Helper()
	model := NewModel(context.Background(), state.NewState(cfg, []string{"/work"}), spawner)
	model.now = func() time.Time { return testNow }
	return model
}

// blockingSpawner runs scans that never finish on their own. started is
// closed once the scan is running; stopped once it has been cancelled.
func blockingSpawner() (spawner worker.Spawner, started, stopped chan struct{}) {
	started = make(chan struct{})
	stopped = make(chan struct{})
	spawner = worker.NewInlineSpawner(worker.Handlers{
		worker.KindScan: func(ctx context.Context, start worker.Envelope, emit func(any)) (any, error) {
			close(started)
			<-ctx.Done()
			close(stopped)
			return nil, ctx.Err()
		},
	})
	return spawner, started, stopped
}

func waitClosed(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

// drive runs cmd and everything it leads to, feeding worker messages back
// into the model. Input and timer messages are dropped. It reports whether
// the model asked to quit.
func drive(t *testing.T, model Model, cmd tea.Cmd) (Model, bool) {
	t.Helper()
	queue := []tea.Cmd{cmd}
	quit := false
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		switch msg := next().(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case tea.QuitMsg:
			quit = true
		case workerStartedMsg, workerEventMsg, workerExitedMsg, selectionSizeMsg:
			updated, follow := model.Update(msg)
			model = updated.(Model)
			queue = append(queue, follow)
		}
	}
	return model, quit
}

func press(t *testing.T, model Model, msg tea.KeyMsg) (Model, bool) {
	t.Helper()
	updated, cmd := model.Update(msg)
	return drive(t, updated.(Model), cmd)
}

func runes(value string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(value)}
}

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	space = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	down  = tea.KeyMsg{Type: tea.KeyDown}
)

func TestModel_FullSession(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.AgeMonths = 2
	model := newTestModel(t, cfg, mockSpawner(sampleMatches(), 1024))
	require.Equal(t, state.PhaseScanning, model.state.Phase)

	model, quit := drive(t, model, model.Init())
	require.False(t, quit)
	require.Equal(t, state.PhaseSelect, model.state.Phase)
	assert.Equal(t, sampleMatches().Paths(), model.state.Matches.Paths())
	assert.Contains(t, model.View(), "/work/b/node_modules")

	model, _ = press(t, model, space)
	model, _ = press(t, model, down)
	model, _ = press(t, model, space)
	model, _ = press(t, model, enter)
	require.Equal(t, state.PhaseConfirm, model.state.Phase)
	assert.Contains(t, model.View(), "Confirm deleting 2 directories? (y/n)")

	model, quit = press(t, model, runes("y"))
	assert.True(t, quit)
	assert.NoError(t, model.Err())
	assert.Equal(t, state.PhaseDone, model.state.Phase)
	assert.Equal(t, int64(2048), model.state.Reclaimed)
	assert.Equal(t, sampleMatches().Paths(), model.state.Deleted)
	assert.Contains(t, model.View(), "freed 2.0KB")
}

func TestModel_AgePromptStartsScan(t *testing.T) {
	model := newTestModel(t, config.DefaultConfig(), mockSpawner(sampleMatches(), 1))
	require.Equal(t, state.PhaseAge, model.state.Phase)
	assert.Contains(t, model.View(), agePrompt)

	model, _ = press(t, model, runes("2"))
	model, quit := press(t, model, enter)

	assert.False(t, quit)
	assert.Equal(t, 2.0, model.state.AgeMonths)
	assert.Equal(t, state.PhaseSelect, model.state.Phase)
}

func TestModel_AgePromptRejectsInvalidInput(t *testing.T) {
	model := newTestModel(t, config.DefaultConfig(), mockSpawner(nil, 1))

	model, _ = press(t, model, runes("0"))
	model, quit := press(t, model, enter)

	assert.False(t, quit)
	assert.Equal(t, state.PhaseAge, model.state.Phase)
	assert.NotEmpty(t, model.status)
}

func TestModel_AgePromptDefaultsToLastAge(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.LastAge = 4
	model := newTestModel(t, cfg, mockSpawner(sampleMatches(), 1))

	model, _ = press(t, model, enter)

	assert.Equal(t, 4.0, model.state.AgeMonths)
	assert.Equal(t, 4.0, model.ConfigSnapshot(cfg).LastAge)
}

func TestModel_EmptyScanQuitsWithoutError(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.AgeMonths = 1
	model := newTestModel(t, cfg, mockSpawner(domain.MatchList{}, 1))

	model, quit := drive(t, model, model.Init())

	assert.True(t, quit)
	assert.NoError(t, model.Err())
	assert.Contains(t, model.View(), noMatchesStatus)
}

func TestModel_StartFailureIsAnError(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.AgeMonths = 1
	model := newTestModel(t, cfg, failingSpawner{})

	model, quit := drive(t, model, model.Init())

	assert.True(t, quit)
	var startErr *worker.StartError
	require.ErrorAs(t, model.Err(), &startErr)
	assert.Contains(t, model.View(), "could not start worker")
}

func TestModel_WorkerExitWithoutDoneIsAnError(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.AgeMonths = 1
	spawner := worker.NewInlineSpawner(worker.Handlers{
		worker.KindScan: func(ctx context.Context, start worker.Envelope, emit func(any)) (any, error) {
			return nil, errors.New("boom")
		},
	})
	model := newTestModel(t, cfg, spawner)

	model, quit := drive(t, model, model.Init())

	assert.True(t, quit)
	assert.ErrorIs(t, model.Err(), worker.ErrWorkerExited)
}

func TestModel_AbortIgnoresStoppedWorker(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.AgeMonths = 1
	spawner, started, stopped := blockingSpawner()
	model := newTestModel(t, cfg, spawner)

	updated, listen := model.Update(model.spawnCmd(worker.KindScan, model.state.ScanRequest())())
	model = updated.(Model)
	require.NotNil(t, listen)
	waitClosed(t, started, "scan to start")

	updated, cmd := model.Update(runes("q"))
	model = updated.(Model)
	require.NotNil(t, cmd)
	waitClosed(t, stopped, "scan to stop")

	// The killed worker's channel closes and its listener reports an exit.
	exited, ok := listen().(workerExitedMsg)
	require.True(t, ok)
	updated, follow := model.Update(exited)
	model = updated.(Model)

	assert.Nil(t, follow)
	assert.NoError(t, model.Err())
	assert.Equal(t, state.PhaseDone, model.state.Phase)
	assert.Contains(t, model.View(), "Aborted.")
}

func TestModel_WorkerStartedAfterQuitIsKilled(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.AgeMonths = 1
	spawner, _, stopped := blockingSpawner()
	model := newTestModel(t, cfg, spawner)
	spawn := model.spawnCmd(worker.KindScan, model.state.ScanRequest())

	updated, _ := model.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	model = updated.(Model)
	started, ok := spawn().(workerStartedMsg)
	require.True(t, ok)
	require.NoError(t, started.err)

	updated, cmd := model.Update(started)
	model = updated.(Model)

	assert.Nil(t, cmd)
	assert.Nil(t, model.handle)
	waitClosed(t, stopped, "late worker to be killed")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := started.handle.Wait(ctx, nil)
	assert.ErrorIs(t, err, worker.ErrWorkerExited)
	assert.NoError(t, model.Err())
}

func TestModel_ConfirmShowsSizeEstimate(t *testing.T) {
	root := t.TempDir()
	modules := filepath.Join(root, "app", domain.TargetDirName)
	require.NoError(t, os.MkdirAll(filepath.Join(modules, "left-pad"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(modules, "left-pad", "index.js"), make([]byte, 1500), 0o644))
	cfg := config.DefaultConfig()
	cfg.AgeMonths = 1
	matches := domain.MatchList{{Path: modules, ModTime: testNow.Add(-2 * services.MonthDuration)}}
	model := newTestModel(t, cfg, mockSpawner(matches, 1))
	model, _ = drive(t, model, model.Init())
	model, _ = press(t, model, space)

	model, _ = press(t, model, enter)

	require.Equal(t, state.PhaseConfirm, model.state.Phase)
	assert.Equal(t, int64(1500), model.estimate)
	assert.Contains(t, model.View(), "About 1.5KB will be freed.")
}

func TestModel_StaleSizeEstimateIsIgnored(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.AgeMonths = 1
	model := newTestModel(t, cfg, mockSpawner(sampleMatches(), 1))
	model, _ = drive(t, model, model.Init())
	model, _ = press(t, model, runes("a"))
	model, _ = press(t, model, enter)
	require.Equal(t, state.PhaseConfirm, model.state.Phase)

	updated, _ := model.Update(selectionSizeMsg{paths: []string{"/elsewhere/node_modules"}, bytes: 1 << 30})
	model = updated.(Model)

	assert.NotEqual(t, int64(1<<30), model.estimate)
	assert.NotContains(t, model.View(), "1.1GB")
}

func TestModel_SubmitWithoutSelection(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.AgeMonths = 1
	model := newTestModel(t, cfg, mockSpawner(sampleMatches(), 1))
	model, _ = drive(t, model, model.Init())

	model, _ = press(t, model, enter)

	assert.Equal(t, state.PhaseSelect, model.state.Phase)
	assert.Contains(t, model.View(), selectEmptyHint)
}

func TestModel_DeclineConfirmation(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.AgeMonths = 1
	model := newTestModel(t, cfg, mockSpawner(sampleMatches(), 1))
	model, _ = drive(t, model, model.Init())
	model, _ = press(t, model, runes("a"))
	model, _ = press(t, model, enter)

	model, quit := press(t, model, runes("n"))

	assert.True(t, quit)
	assert.NoError(t, model.Err())
	assert.Empty(t, model.state.Deleted)
	assert.Contains(t, model.View(), "Nothing deleted.")
}

func TestModel_ListWindowFollowsCursor(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.AgeMonths = 1
	matches := make(domain.MatchList, 0, 15)
	for index := 0; index < 15; index++ {
		matches = append(matches, domain.Match{
			Path:    "/work/p" + string(rune('a'+index)) + "/node_modules",
			ModTime: testNow.Add(-2 * services.MonthDuration),
		})
	}
	model := newTestModel(t, cfg, mockSpawner(matches, 1))
	model, _ = drive(t, model, model.Init())

	for index := 0; index < 12; index++ {
		model, _ = press(t, model, down)
	}

	assert.Equal(t, 12, model.state.Cursor)
	assert.Equal(t, 3, model.viewTop)
	view := model.View()
	assert.Contains(t, view, "/work/pm/node_modules")
	assert.NotContains(t, view, "/work/pa/node_modules")
	assert.Contains(t, view, "(4-13 of 15)")
}

func TestFormatAge(t *testing.T) {
	assert.Equal(t, "1 day ago", formatAge(domain.Match{ModTime: testNow.Add(-36 * time.Hour)}, testNow))
	assert.Equal(t, "3 months ago", formatAge(domain.Match{ModTime: testNow.Add(-3 * services.MonthDuration)}, testNow))
	assert.Equal(t, "1.5 months ago", formatAge(domain.Match{ModTime: testNow.Add(-services.MonthDuration * 3 / 2)}, testNow))
}

func TestTrimStatus(t *testing.T) {
	assert.Equal(t, "short", trimStatus("short", 40))
	assert.Equal(t, "abcdef...", trimStatus("abcdefghijkl", 10))

	trimmed := trimStatus(strings.Repeat("日本", 20), 10)
	assert.True(t, utf8.ValidString(trimmed))
	assert.Equal(t, "日本日本日本...", trimmed)
	assert.Equal(t, 9, utf8.RuneCountInString(trimmed))
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "999B", formatSize(999))
	assert.Equal(t, "1.0KB", formatSize(1024))
	assert.Equal(t, "2.5MB", formatSize(2_500_000))
}
