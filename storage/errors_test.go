package storage

import (
	"errors"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestStorageError_Error(t *testing.T) {
	base := errors.New("boom")
	err := &StorageError{Code: CodeNotFound, Err: base, Bucket: "logs", Key: "b1.json"}

	assert.Equal(t, "storage.NotFound (bucket=logs, key=b1.json): boom", err.Error())
	assert.ErrorIs(t, err, base)
	assert.Equal(t, "storage.AccessDenied (bucket=logs, key=)", (&StorageError{Code: CodeAccessDenied, Bucket: "logs"}).Error())
}

func TestHasCode(t *testing.T) {
	wrapped := pkgerrors.Wrap(&StorageError{Code: CodeNotFound}, "read batch")

	assert.True(t, IsNotFound(wrapped))
	assert.True(t, HasCode(wrapped, CodeNotFound))
	assert.False(t, HasCode(wrapped, CodeAccessDenied))
	assert.False(t, IsNotFound(errors.New("not found")))
	assert.False(t, IsNotFound(nil))
}
