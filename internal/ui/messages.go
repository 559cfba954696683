package ui

import "nmsweep/internal/worker"

type workerStartedMsg struct {
	kind   worker.Kind
	handle *worker.Handle
	err    error
}

// workerEventMsg and workerExitedMsg name the handle they came from, so
// messages from a worker that was already stopped can be told apart.
type workerEventMsg struct {
	kind     worker.Kind
	handle   *worker.Handle
	envelope worker.Envelope
}

type workerExitedMsg struct {
	kind   worker.Kind
	handle *worker.Handle
	err    error
}

type selectionSizeMsg struct {
	paths []string
	bytes int64
}
