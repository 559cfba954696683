package worker

import (
	"context"
	"errors"
	"io"
	"os/exec"
	"strings"
	"sync"

	"nmsweep/internal/logging"
)

const stderrTailBytes = 4096

// ProcessSpawner runs each worker as a separate OS process: the same binary
// re-executed with the hidden worker subcommand, talking JSON lines over its
// stdin and stdout.
type ProcessSpawner struct {
	Executable string
	ArgsFor    func(Kind) []string
	Env        []string
}

func NewProcessSpawner(executable string) *ProcessSpawner {
	return &ProcessSpawner{Executable: executable}
}

func (spawner *ProcessSpawner) args(kind Kind) []string {
	if spawner.ArgsFor != nil {
		return spawner.ArgsFor(kind)
	}
	return []string{"worker", string(kind)}
}

func (spawner *ProcessSpawner) Spawn(ctx context.Context, kind Kind, payload any) (*Handle, error) {
	cmd := exec.Command(spawner.Executable, spawner.args(kind)...) //nolint:gosec // executable is our own binary
	cmd.Env = spawner.Env

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, &StartError{Kind: kind, Err: err}
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &StartError{Kind: kind, Err: err}
	}
	stderr := &stderrTail{kind: kind}
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return nil, &StartError{Kind: kind, Err: err}
	}
	logging.Debug("worker started", logging.String("kind", string(kind)), logging.Int("pid", cmd.Process.Pid))

	handle := newHandle(kind, func() { _ = cmd.Process.Kill() })
	go func() {
		defer stdin.Close() //nolint:errcheck
		if err := NewEncoder(stdin).Send(TypeStart, payload); err != nil {
			logging.Warn("send START failed", logging.String("kind", string(kind)), logging.Err(err))
		}
	}()

	decoder := NewDecoder(stdout)
	go handle.run(decoder.Next, func(readErr error, sawDone bool) error {
		if sawDone {
			go func() { _ = cmd.Wait() }()
			return nil
		}
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			_ = cmd.Process.Kill()
		}
		status := "exit status 0"
		if waitErr := cmd.Wait(); waitErr != nil {
			status = waitErr.Error()
		}
		return &ExitError{Kind: kind, Status: status, Stderr: stderr.String()}
	})
	go handle.watch(ctx)
	return handle, nil
}

// stderrTail keeps the end of a worker's stderr for error reports and
// forwards it to the log.
type stderrTail struct {
	kind Kind
	mu   sync.Mutex
	buf  []byte
}

func (tail *stderrTail) Write(p []byte) (int, error) {
	tail.mu.Lock()
	defer tail.mu.Unlock()
	tail.buf = append(tail.buf, p...)
	if len(tail.buf) > stderrTailBytes {
		tail.buf = tail.buf[len(tail.buf)-stderrTailBytes:]
	}
	for _, line := range strings.Split(strings.TrimSpace(string(p)), "\n") {
		if line != "" {
			logging.Warn("worker stderr", logging.String("kind", string(tail.kind)), logging.String("line", line))
		}
	}
	return len(p), nil
}

func (tail *stderrTail) String() string {
	tail.mu.Lock()
	defer tail.mu.Unlock()
	return strings.TrimSpace(string(tail.buf))
}
