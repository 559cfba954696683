package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"nmsweep/internal/config"
	"nmsweep/internal/logging"
	"nmsweep/internal/worker"
)

type settings struct {
	cfg    config.Config
	stored config.Config
}

// loadSettings reads the config file and overlays the flags the user set.
// An unreadable file falls back to defaults; an invalid one is an error.
func loadSettings(cmd *cobra.Command) (settings, error) {
	stored, err := config.LoadConfig()
	if err != nil {
		var configErr *config.Error
		if errors.As(err, &configErr) {
			return settings{}, err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "nmsweep: config warning, using defaults: %v\n", err) //nolint:errcheck // best-effort stderr write
		stored = config.DefaultConfig()
	}
	cfg, err := config.ApplyFlags(cmd.Flags(), stored)
	if err != nil {
		return settings{}, err
	}
	return settings{cfg: cfg, stored: stored}, nil
}

func initLogging(cfg config.Config) error {
	return logging.Init(logging.Config{
		Level:      cfg.LogLevel,
		Format:     "json",
		OutputPath: cfg.LogFile,
	})
}

func syncLogging() {
	_ = logging.Sync()
}

// resolveRoots picks roots from arguments, then config, then the working
// directory.
func resolveRoots(args []string, cfg config.Config) ([]string, error) {
	roots := args
	if len(roots) == 0 {
		roots = cfg.Roots
	}
	if len(roots) == 0 {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("get current directory: %w", err)
		}
		return []string{cwd}, nil
	}
	return absPaths(roots)
}

func absPaths(paths []string) ([]string, error) {
	resolved := make([]string, 0, len(paths))
	for _, path := range paths {
		abs, err := filepath.Abs(expandHome(path))
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", path, err)
		}
		resolved = append(resolved, abs)
	}
	return resolved, nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func newSpawner(cfg config.Config) (worker.Spawner, error) {
	if cfg.Inline {
		return worker.NewInlineSpawner(worker.DefaultHandlers()), nil
	}
	executable, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("locate nmsweep executable: %w", err)
	}
	return worker.NewProcessSpawner(executable), nil
}

// writeJSON marshals v as indented JSON and writes it to w with a trailing newline.
func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

// confirm prints prompt and reads y/N. EOF counts as no; a cancelled ctx is
// an error.
func confirm(ctx context.Context, prompt string, input io.Reader, output io.Writer) (bool, error) {
	fmt.Fprint(output, prompt) //nolint:errcheck // best-effort output

	lines := make(chan string, 1)
	go func() {
		scanner := bufio.NewScanner(input)
		if scanner.Scan() {
			lines <- scanner.Text()
		} else {
			lines <- ""
		}
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case line := <-lines:
		answer := strings.TrimSpace(strings.ToLower(line))
		return answer == "y" || answer == "yes", nil
	}
}
