package worker

import (
	"context"
	"sync"
)

// Spawner launches a worker of the given kind and sends it START with
// payload.
type Spawner interface {
	Spawn(ctx context.Context, kind Kind, payload any) (*Handle, error)
}

// Handle is the caller's side of one running worker. Events delivers the
// worker's envelopes in order and is closed once DONE has been delivered or
// the worker is gone.
type Handle struct {
	kind    Kind
	events  chan Envelope
	stopped chan struct{}
	done    chan struct{}
	once    sync.Once
	kill    func()

	mu  sync.Mutex
	err error
}

func newHandle(kind Kind, kill func()) *Handle {
	return &Handle{
		kind:    kind,
		events:  make(chan Envelope, 16),
		stopped: make(chan struct{}),
		done:    make(chan struct{}),
		kill:    kill,
	}
}

func (handle *Handle) Kind() Kind {
	return handle.kind
}

func (handle *Handle) Events() <-chan Envelope {
	return handle.events
}

// Err reports why the worker ended without DONE. It is meaningful once
// Events is closed and is nil when DONE was delivered.
func (handle *Handle) Err() error {
	handle.mu.Lock()
	defer handle.mu.Unlock()
	return handle.err
}

// Kill terminates the worker unconditionally. Work in flight is abandoned.
func (handle *Handle) Kill() {
	handle.once.Do(func() {
		close(handle.stopped)
		if handle.kill != nil {
			handle.kill()
		}
	})
}

// Wait drains Events until DONE, passing MESSAGE envelopes to onMessage when
// it is non-nil. A worker that ends without DONE yields Err.
func (handle *Handle) Wait(ctx context.Context, onMessage func(Envelope)) (Envelope, error) {
	for {
		select {
		case <-ctx.Done():
			handle.Kill()
			return Envelope{}, ctx.Err()
		case envelope, ok := <-handle.events:
			if !ok {
				return Envelope{}, handle.Err()
			}
			switch envelope.Type {
			case TypeDone:
				return envelope, nil
			case TypeMessage:
				if onMessage != nil {
					onMessage(envelope)
				}
			}
		}
	}
}

// run pumps envelopes from next into Events. finish is called once reading
// stops and returns the error to report when no DONE was seen.
func (handle *Handle) run(next func() (Envelope, error), finish func(readErr error, sawDone bool) error) {
	defer close(handle.done)
	defer close(handle.events)
	for {
		envelope, err := next()
		if err != nil {
			handle.setErr(finish(err, false))
			return
		}
		select {
		case handle.events <- envelope:
		case <-handle.stopped:
			handle.setErr(finish(nil, false))
			return
		}
		if envelope.Type == TypeDone {
			_ = finish(nil, true)
			return
		}
	}
}

func (handle *Handle) setErr(err error) {
	if err == nil {
		err = ErrWorkerExited
	}
	handle.mu.Lock()
	handle.err = err
	handle.mu.Unlock()
}

// watch kills the worker when ctx ends before the worker does.
func (handle *Handle) watch(ctx context.Context) {
	select {
	case <-ctx.Done():
		handle.Kill()
	case <-handle.done:
	}
}
