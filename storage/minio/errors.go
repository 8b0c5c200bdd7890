package minio

import (
	"net/http"

	"github.com/minio/minio-go/v7"

	"github.com/pure-golang/bulkmail/storage"
)

// toStorageError classifies an S3 error response by its code and HTTP status.
func toStorageError(err error, bucket, key string) error {
	if err == nil {
		return nil
	}
	return &storage.StorageError{
		Code:   errorCode(minio.ToErrorResponse(err)),
		Err:    err,
		Bucket: bucket,
		Key:    key,
	}
}

func errorCode(resp minio.ErrorResponse) storage.ErrorCode {
	switch resp.Code {
	case "NoSuchBucket":
		return storage.CodeBucketNotFound
	case "NoSuchKey", "NotFound":
		return storage.CodeNotFound
	case "AccessDenied":
		return storage.CodeAccessDenied
	}

	// HEAD requests carry no body, only the status
	switch resp.StatusCode {
	case http.StatusNotFound:
		return storage.CodeNotFound
	case http.StatusForbidden:
		return storage.CodeAccessDenied
	}
	return storage.CodeInternalError
}
