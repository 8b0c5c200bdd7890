package dispatch

import (
	"fmt"
	"strings"

	"github.com/pure-golang/bulkmail/render"
)

// Validate checks a batch before any transport call. It has no side effects.
func Validate(b Batch) error {
	if len(b.Recipients) == 0 {
		return &ValidationError{Kind: EmptyBatch, Message: "No recipients selected"}
	}
	if len(b.Recipients) > MaxBatchSize {
		return &ValidationError{
			Kind:    BatchTooLarge,
			Message: fmt.Sprintf("Max %d recipients allowed per batch", MaxBatchSize),
		}
	}
	if strings.TrimSpace(b.Subject) == "" || render.IsBlank(b.Body) {
		return &ValidationError{Kind: MissingContent, Message: "Subject and body are required"}
	}
	for i, r := range b.Recipients {
		if strings.TrimSpace(r.Email) == "" {
			return &ValidationError{
				Kind:    MissingRecipientEmail,
				Message: fmt.Sprintf("Recipient #%d has no email address", i+1),
			}
		}
	}
	return nil
}
