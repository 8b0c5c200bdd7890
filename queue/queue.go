// Package queue publishes service events to a message broker.
package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// Publisher sends messages to topic of message broker.
type Publisher interface {
	Publish(ctx context.Context, msgs ...Message) error
}

// Encoder converts Body to []byte.
type Encoder interface {
	Encode(i any) ([]byte, error)
	ContentType() string
}

// Message is used to publish messages to message broker.
type Message struct {
	Topic string
	// Key groups related messages, e.g. on one Kafka partition. Empty means any.
	Key     string
	Headers map[string]string
	Body    any
	TTL     time.Duration
}

// EncodeValue converts Body to []byte using Encoder if Body != nil.
func (m *Message) EncodeValue(enc Encoder) ([]byte, error) {
	if m.Body == nil {
		return nil, nil
	}
	return enc.Encode(m.Body)
}

// JSON is the default Encoder.
type JSON struct{}

func (JSON) Encode(i any) ([]byte, error) {
	b, err := json.Marshal(i)
	return b, errors.Wrapf(err, "marshal %T", i)
}

func (JSON) ContentType() string {
	return "application/json"
}
