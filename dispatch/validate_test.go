package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		batch Batch
		kind  ErrorKind
	}{
		{"empty", Batch{Subject: "s", Body: "b"}, EmptyBatch},
		{"too large", Batch{Subject: "s", Body: "b", Recipients: recipients(51)}, BatchTooLarge},
		{"blank subject", Batch{Subject: "  ", Body: "b", Recipients: recipients(1)}, MissingContent},
		{"blank body", Batch{Subject: "s", Body: "", Recipients: recipients(1)}, MissingContent},
		{"editor leftovers", Batch{Subject: "s", Body: "<p>&nbsp;</p><p><br></p>", Recipients: recipients(1)}, MissingContent},
		{"missing email", Batch{Subject: "s", Body: "b", Recipients: []Recipient{{Email: "a@x.io"}, {Email: " "}}}, MissingRecipientEmail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.batch)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.kind, verr.Kind)
			assert.NotEmpty(t, verr.Error())
		})
	}
}

func TestValidate_Messages(t *testing.T) {
	assert.EqualError(t, Validate(Batch{}), "No recipients selected")
	assert.EqualError(t, Validate(Batch{Recipients: recipients(51)}), "Max 50 recipients allowed per batch")
	assert.EqualError(t, Validate(Batch{Recipients: recipients(1)}), "Subject and body are required")
}

func TestValidate_OK(t *testing.T) {
	assert.NoError(t, Validate(Batch{Subject: "s", Body: "<p>hi</p>", Recipients: recipients(1)}))
	assert.NoError(t, Validate(Batch{Subject: "s", Body: "b", Recipients: recipients(MaxBatchSize)}))
	assert.NoError(t, Validate(Batch{Subject: "s", Body: `<img src="https://acme.test/a.png">`, Recipients: recipients(1)}))
}
