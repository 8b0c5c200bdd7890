package dispatch

import "fmt"

// ErrorKind classifies a ValidationError.
type ErrorKind string

const (
	EmptyBatch            ErrorKind = "EmptyBatch"
	BatchTooLarge         ErrorKind = "BatchTooLarge"
	MissingContent        ErrorKind = "MissingContent"
	MissingRecipientEmail ErrorKind = "MissingRecipientEmail"
)

// ValidationError is a user-correctable problem with a batch.
// Nothing was sent when it is returned.
type ValidationError struct {
	Kind    ErrorKind
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// TransportError means the mail transport could not be constructed. Nothing was sent.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("mail transport unavailable: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
