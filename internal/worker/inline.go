package worker

import (
	"context"
	"fmt"
	"io"

	"nmsweep/internal/logging"
)

// InlineSpawner runs workers as goroutines behind in-memory pipes. The
// protocol is identical to ProcessSpawner's; only the isolation differs.
type InlineSpawner struct {
	Handlers Handlers
}

func NewInlineSpawner(handlers Handlers) *InlineSpawner {
	return &InlineSpawner{Handlers: handlers}
}

func (spawner *InlineSpawner) Spawn(ctx context.Context, kind Kind, payload any) (*Handle, error) {
	handler, err := spawner.Handlers.For(kind)
	if err != nil {
		return nil, &StartError{Kind: kind, Err: err}
	}

	workerCtx, cancel := context.WithCancel(ctx)
	inR, inW := io.Pipe()
	outR, outW := io.Pipe()
	served := make(chan error, 1)

	go func() {
		defer inR.Close()  //nolint:errcheck
		defer outW.Close() //nolint:errcheck
		served <- serveRecovered(workerCtx, inR, outW, handler)
	}()
	go func() {
		defer inW.Close() //nolint:errcheck
		if err := NewEncoder(inW).Send(TypeStart, payload); err != nil {
			logging.Warn("send START failed", logging.String("kind", string(kind)), logging.Err(err))
		}
	}()

	handle := newHandle(kind, func() {
		cancel()
		_ = outR.Close()
	})
	decoder := NewDecoder(outR)
	go handle.run(decoder.Next, func(_ error, sawDone bool) error {
		if sawDone {
			cancel()
			return nil
		}
		cancel()
		exit := &ExitError{Kind: kind, Status: "inline worker stopped"}
		if err := <-served; err != nil {
			exit.Stderr = err.Error()
		}
		return exit
	})
	go handle.watch(ctx)
	return handle, nil
}

func serveRecovered(ctx context.Context, in io.Reader, out io.Writer, handler Handler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("worker panic: %v", r)
		}
	}()
	err = Serve(ctx, in, out, handler)
	if err != nil {
		logging.Warn("inline worker failed", logging.Err(err))
	}
	return err
}
