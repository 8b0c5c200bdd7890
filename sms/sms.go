// Package sms sends single text messages to phone numbers.
package sms

import (
	"context"
	"regexp"

	"github.com/pkg/errors"
)

// Message is one text message.
type Message struct {
	To   string // E.164, e.g. +14155550100
	Text string
}

// Sender delivers one message per call and returns the provider's message id.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

var e164 = regexp.MustCompile(`^\+[1-9][0-9]{6,14}$`)

// Validate checks the destination number and the text.
func (m Message) Validate() error {
	if !e164.MatchString(m.To) {
		return errors.Errorf("invalid phone number %q, E.164 format expected", m.To)
	}
	if m.Text == "" {
		return errors.New("message text is empty")
	}
	return nil
}
