package worker

import (
	"context"
	"fmt"
	"io"

	"nmsweep/internal/logging"
	"nmsweep/internal/services"
)

// Handler runs one job from its START envelope. emit forwards informational
// payloads to the caller as MESSAGE envelopes.
type Handler func(ctx context.Context, start Envelope, emit func(any)) (any, error)

// Handlers maps each worker kind to the job it runs.
type Handlers map[Kind]Handler

func DefaultHandlers() Handlers {
	return Handlers{
		KindScan:   ScanHandler(services.NewFSScanner()),
		KindDelete: DeleteHandler(services.NewFSActions()),
	}
}

func (handlers Handlers) For(kind Kind) (Handler, error) {
	handler, ok := handlers[kind]
	if !ok {
		return nil, fmt.Errorf("no handler for %s worker", kind)
	}
	return handler, nil
}

// Serve reads a single START from in, runs handler, and writes MESSAGE
// envelopes followed by exactly one DONE to out. An error return means no
// DONE was written.
func Serve(ctx context.Context, in io.Reader, out io.Writer, handler Handler) error {
	start, err := NewDecoder(in).Next()
	if err != nil {
		return fmt.Errorf("read %s: %w", TypeStart, err)
	}
	if start.Type != TypeStart {
		return fmt.Errorf("expected %s, got %s", TypeStart, start.Type)
	}

	encoder := NewEncoder(out)
	emit := func(payload any) {
		if err := encoder.Send(TypeMessage, payload); err != nil {
			logging.Debug("dropping worker message", logging.Err(err))
		}
	}
	result, err := handler(ctx, start, emit)
	if err != nil {
		return err
	}
	return encoder.Send(TypeDone, result)
}

func ScanHandler(scanner services.Scanner) Handler {
	return func(ctx context.Context, start Envelope, emit func(any)) (any, error) {
		var req services.ScanRequest
		if err := start.Decode(&req); err != nil {
			return nil, err
		}
		if observer, ok := scanner.(services.ProgressObserver); ok {
			progress := make(chan services.ScanProgress, 64)
			observer.Observe(progress)
			stop := forward(progress, emit)
			defer func() {
				observer.Observe(nil)
				stop()
			}()
		}
		logging.Info("scan worker started", logging.Int("roots", len(req.Roots)))
		return scanner.ScanAll(ctx, req), nil
	}
}

func DeleteHandler(deleter services.Deleter) Handler {
	return func(ctx context.Context, start Envelope, emit func(any)) (any, error) {
		var req services.DeleteRequest
		if err := start.Decode(&req); err != nil {
			return nil, err
		}
		if observer, ok := deleter.(services.DeleteProgressObserver); ok {
			progress := make(chan services.DeleteProgress, 64)
			observer.Observe(progress)
			stop := forward(progress, emit)
			defer func() {
				observer.Observe(nil)
				stop()
			}()
		}
		logging.Info("delete worker started", logging.Int("paths", len(req.Paths)))
		return deleter.Delete(ctx, req), nil
	}
}

// forward relays progress to emit until stop is called. stop closes the
// channel and waits for the relay to drain, so every relayed MESSAGE is
// written before DONE.
func forward[T any](progress chan T, emit func(any)) (stop func()) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			emit(update)
		}
	}()
	return func() {
		close(progress)
		<-done
	}
}
