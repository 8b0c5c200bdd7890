// Package dispatch validates a bulk batch, fans out one delivery attempt per recipient
// and collects the outcomes.
package dispatch

import (
	"github.com/pure-golang/bulkmail/mail"
	"github.com/pure-golang/bulkmail/render"
)

// MaxBatchSize is the largest batch accepted in one request.
const MaxBatchSize = 50

// Config contains dispatch tuning.
type Config struct {
	Concurrency int  `envconfig:"DISPATCH_CONCURRENCY" default:"50"` // <= 0 means no limit
	UseBcc      bool `envconfig:"MAIL_USE_BCC" default:"false"`      // address each recipient as Bcc
}

// Recipient is one imported contact.
type Recipient struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName,omitempty"`
}

// Batch is one bulk-send request.
type Batch struct {
	Subject    string
	Body       string
	Format     render.Format
	Recipients []Recipient
}

// Result is the settled batch. Outcomes follow the order of Batch.Recipients.
type Result struct {
	Outcomes []Outcome
	Sent     int
	Failed   int
}

// Total returns the number of attempts.
func (r Result) Total() int {
	return len(r.Outcomes)
}

// Transport is the mail sender built once at process start.
// Err keeps the construction failure so that dispatch can report it per request.
type Transport struct {
	Sender mail.Sender
	Err    error
}
