package storage

import (
	"errors"
	"fmt"
)

// ErrorCode represents a storage error code.
type ErrorCode string

const (
	CodeNotFound       ErrorCode = "NotFound"
	CodeAccessDenied   ErrorCode = "AccessDenied"
	CodeBucketNotFound ErrorCode = "BucketNotFound"
	CodeInternalError  ErrorCode = "InternalError"
)

// StorageError wraps storage operation errors.
type StorageError struct {
	Code   ErrorCode
	Err    error
	Bucket string
	Key    string
}

func (e *StorageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("storage.%s (bucket=%s, key=%s): %v", e.Code, e.Bucket, e.Key, e.Err)
	}
	return fmt.Sprintf("storage.%s (bucket=%s, key=%s)", e.Code, e.Bucket, e.Key)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// HasCode reports whether err is a *StorageError with the given code.
func HasCode(err error, code ErrorCode) bool {
	var storageErr *StorageError
	return errors.As(err, &storageErr) && storageErr.Code == code
}

// IsNotFound checks if error is a "not found" error.
func IsNotFound(err error) bool {
	return HasCode(err, CodeNotFound)
}
