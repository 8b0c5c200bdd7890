package mail

import (
	"context"
	"io"
)

// Sender delivers one email per call.
// Implementations must be safe for concurrent use: the dispatcher calls Send
// from many goroutines at once.
type Sender interface {
	Send(ctx context.Context, email Email) error
	io.Closer
}

// Email represents an email message.
type Email struct {
	// Envelope
	From    Address
	To      []Address
	Bcc     []Address
	Subject string

	// Headers
	Headers map[string]string

	// Body
	Body string // Plain text body
	HTML string // HTML body (optional)
}

// Recipients returns every envelope recipient, To first.
func (e Email) Recipients() []Address {
	out := make([]Address, 0, len(e.To)+len(e.Bcc))
	out = append(out, e.To...)
	return append(out, e.Bcc...)
}

// Address represents an email address.
type Address struct {
	Name    string // "Jane Doe"
	Address string // "jane@example.com"
}
