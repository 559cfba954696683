package worker

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// Encoder writes envelopes as JSON lines. It is safe for concurrent use so
// progress forwarding and the final DONE never interleave mid-line.
type Encoder struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{enc: json.NewEncoder(w)}
}

func (encoder *Encoder) Send(messageType MessageType, payload any) error {
	envelope, err := NewEnvelope(messageType, payload)
	if err != nil {
		return err
	}
	encoder.mu.Lock()
	defer encoder.mu.Unlock()
	if err := encoder.enc.Encode(envelope); err != nil {
		return fmt.Errorf("write %s: %w", messageType, err)
	}
	return nil
}

type Decoder struct {
	dec *json.Decoder
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{dec: json.NewDecoder(r)}
}

// Next returns the next envelope, or io.EOF once the stream ends cleanly.
func (decoder *Decoder) Next() (Envelope, error) {
	var envelope Envelope
	if err := decoder.dec.Decode(&envelope); err != nil {
		return Envelope{}, err
	}
	return envelope, nil
}
