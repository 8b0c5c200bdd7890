package devslog

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_Writes(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, slog.LevelDebug)

	l.Debug("attempt", "to", "a@example.com")

	assert.Contains(t, buf.String(), "attempt")
}
