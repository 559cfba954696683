// Package worker runs scans and deletions in an isolated worker and carries
// the START / MESSAGE / DONE handshake between caller and worker.
package worker

import (
	"encoding/json"
	"fmt"
)

type MessageType string

const (
	TypeStart   MessageType = "START"
	TypeMessage MessageType = "MESSAGE"
	TypeDone    MessageType = "DONE"
)

// Kind selects the job a worker performs.
type Kind string

const (
	KindScan   Kind = "scan"
	KindDelete Kind = "delete"
)

func ParseKind(value string) (Kind, error) {
	switch Kind(value) {
	case KindScan, KindDelete:
		return Kind(value), nil
	default:
		return "", fmt.Errorf("unknown worker kind %q", value)
	}
}

// Envelope is one protocol message. The payload stays raw until the
// receiver knows what to decode it into.
type Envelope struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func NewEnvelope(messageType MessageType, payload any) (Envelope, error) {
	if payload == nil {
		return Envelope{Type: messageType}, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s payload: %w", messageType, err)
	}
	return Envelope{Type: messageType, Payload: data}, nil
}

func (envelope Envelope) Decode(target any) error {
	if len(envelope.Payload) == 0 {
		return fmt.Errorf("%s message has no payload", envelope.Type)
	}
	if err := json.Unmarshal(envelope.Payload, target); err != nil {
		return fmt.Errorf("decode %s payload: %w", envelope.Type, err)
	}
	return nil
}
