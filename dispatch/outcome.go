package dispatch

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// Status is the wire form of a Delivery.
type Status string

const (
	StatusSent   Status = "SENT"
	StatusFailed Status = "FAILED"
)

// Delivery is either Sent or Failed.
type Delivery interface {
	Status() Status
	delivery()
}

// Sent is a delivery accepted by the transport.
type Sent struct{}

func (Sent) Status() Status { return StatusSent }
func (Sent) delivery()      {}

// Failed is a delivery the transport refused. Reason is never empty.
type Failed struct {
	Reason string
}

func (Failed) Status() Status { return StatusFailed }
func (Failed) delivery()      {}

// Outcome is the result of one delivery attempt.
type Outcome struct {
	ID        string
	Recipient string
	Delivery  Delivery
	Timestamp time.Time
}

// NewFailed builds a Failed outcome, substituting a generic reason for an empty one.
func NewFailed(id, recipient, reason string, ts time.Time) Outcome {
	if reason == "" {
		reason = "unknown error"
	}
	return Outcome{ID: id, Recipient: recipient, Delivery: Failed{Reason: reason}, Timestamp: ts}
}

// NewSent builds a Sent outcome.
func NewSent(id, recipient string, ts time.Time) Outcome {
	return Outcome{ID: id, Recipient: recipient, Delivery: Sent{}, Timestamp: ts}
}

// Status returns SENT or FAILED.
func (o Outcome) Status() Status {
	if o.Delivery == nil {
		return StatusFailed
	}
	return o.Delivery.Status()
}

// Reason returns the failure reason, or "" for a sent outcome.
func (o Outcome) Reason() string {
	if f, ok := o.Delivery.(Failed); ok {
		return f.Reason
	}
	return ""
}

type outcomeJSON struct {
	ID        string    `json:"id"`
	To        string    `json:"to"`
	Status    Status    `json:"status"`
	Error     *string   `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

func (o Outcome) MarshalJSON() ([]byte, error) {
	v := outcomeJSON{
		ID:        o.ID,
		To:        o.Recipient,
		Status:    o.Status(),
		Timestamp: o.Timestamp.UTC(),
	}
	if v.Status == StatusFailed {
		reason := o.Reason()
		if reason == "" {
			reason = "unknown error"
		}
		v.Error = &reason
	}
	return json.Marshal(v)
}

func (o *Outcome) UnmarshalJSON(data []byte) error {
	var v outcomeJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	switch v.Status {
	case StatusSent:
		*o = NewSent(v.ID, v.To, v.Timestamp)
	case StatusFailed:
		var reason string
		if v.Error != nil {
			reason = *v.Error
		}
		*o = NewFailed(v.ID, v.To, reason, v.Timestamp)
	default:
		return errors.Errorf("unknown outcome status %q", v.Status)
	}
	return nil
}
