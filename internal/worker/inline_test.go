package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nmsweep/internal/domain"
	"nmsweep/internal/services"
)

func makeProject(t *testing.T, root, name string, age time.Duration, size int) string {
	t.Helper()
	modules := filepath.Join(root, name, "node_modules")
	require.NoError(t, os.MkdirAll(modules, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(modules, "dep.js"), make([]byte, size), 0o644))
	stamp := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(modules, stamp, stamp))
	return modules
}

func TestInline_ScanThenDelete(t *testing.T) {
	root := t.TempDir()
	old := makeProject(t, root, "A", 3*services.MonthDuration, 1024)
	makeProject(t, root, "A/B", 24*time.Hour, 10)

	spawner := NewInlineSpawner(DefaultHandlers())
	ctx := context.Background()

	scan, err := RunScan(ctx, spawner, services.ScanRequest{Roots: []string{root}, AgeMonths: 2}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{old}, scan.Matches.Paths())

	deleted, err := RunDelete(ctx, spawner, services.DeleteRequest{Paths: scan.Matches.Paths(), SafeMode: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1024), deleted.BytesReclaimed)
	assert.NoDirExists(t, old)
}

func TestInline_EmptyScanIsNotAnError(t *testing.T) {
	spawner := NewInlineSpawner(DefaultHandlers())

	result, err := RunScan(context.Background(), spawner, services.ScanRequest{Roots: []string{t.TempDir()}, AgeMonths: 1}, nil)

	require.NoError(t, err)
	assert.True(t, result.Empty())
}

func TestInline_EventsEndWithDone(t *testing.T) {
	matches := domain.MatchList{{Path: "/x/node_modules"}}
	spawner := NewInlineSpawner(Handlers{KindScan: ScanHandler(services.NewMockScanner(services.ScanResult{Matches: matches}))})

	handle, err := spawner.Spawn(context.Background(), KindScan, services.ScanRequest{Roots: []string{"/x"}, AgeMonths: 1})
	require.NoError(t, err)

	var last Envelope
	for envelope := range handle.Events() {
		last = envelope
	}
	assert.Equal(t, TypeDone, last.Type)
	assert.NoError(t, handle.Err())
}

func TestInline_HandlerFailureIsWorkerExit(t *testing.T) {
	failing := func(context.Context, Envelope, func(any)) (any, error) {
		return nil, errors.New("disk on fire")
	}
	spawner := NewInlineSpawner(Handlers{KindScan: failing})

	_, err := RunScan(context.Background(), spawner, services.ScanRequest{}, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWorkerExited)
	assert.Contains(t, err.Error(), "disk on fire")
}

func TestInline_PanicIsWorkerExit(t *testing.T) {
	panicking := func(context.Context, Envelope, func(any)) (any, error) {
		panic("unexpected")
	}
	spawner := NewInlineSpawner(Handlers{KindDelete: panicking})

	_, err := RunDelete(context.Background(), spawner, services.DeleteRequest{}, nil)

	assert.ErrorIs(t, err, ErrWorkerExited)
}

func TestInline_UnknownKindIsStartError(t *testing.T) {
	spawner := NewInlineSpawner(Handlers{})

	_, err := spawner.Spawn(context.Background(), KindScan, nil)

	var startErr *StartError
	require.ErrorAs(t, err, &startErr)
	assert.Equal(t, KindScan, startErr.Kind)
}

func TestInline_KillStopsWorker(t *testing.T) {
	blocking := func(ctx context.Context, _ Envelope, _ func(any)) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	spawner := NewInlineSpawner(Handlers{KindScan: blocking})

	handle, err := spawner.Spawn(context.Background(), KindScan, services.ScanRequest{})
	require.NoError(t, err)
	handle.Kill()

	for range handle.Events() {
	}
	assert.ErrorIs(t, handle.Err(), ErrWorkerExited)
}

func TestInline_ContextCancelKillsWorker(t *testing.T) {
	blocking := func(ctx context.Context, _ Envelope, _ func(any)) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	spawner := NewInlineSpawner(Handlers{KindScan: blocking})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := RunScan(ctx, spawner, services.ScanRequest{}, nil)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestInline_ForwardsProgressMessages(t *testing.T) {
	progressing := func(_ context.Context, _ Envelope, emit func(any)) (any, error) {
		emit(services.ScanProgress{Root: "/r", Visited: 200})
		return services.ScanResult{Matches: domain.MatchList{}}, nil
	}
	spawner := NewInlineSpawner(Handlers{KindScan: progressing})

	var seen []services.ScanProgress
	_, err := RunScan(context.Background(), spawner, services.ScanRequest{}, func(envelope Envelope) {
		var update services.ScanProgress
		if envelope.Decode(&update) == nil {
			seen = append(seen, update)
		}
	})

	require.NoError(t, err)
	require.Len(t, seen, 1)
	assert.Equal(t, int64(200), seen[0].Visited)
}
