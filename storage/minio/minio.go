// Package minio implements storage.Storage on any S3-compatible service:
// MinIO, Yandex Cloud Storage, AWS S3.
package minio

import (
	"time"

	"github.com/pkg/errors"
)

// Config contains S3-compatible storage connection configuration.
type Config struct {
	Endpoint      string        `envconfig:"S3_ENDPOINT" default:"localhost:9000"` // "storage.yandexcloud.net" for Yandex
	AccessKey     string        `envconfig:"S3_ACCESS_KEY"`
	SecretKey     string        `envconfig:"S3_SECRET_KEY"`
	Region        string        `envconfig:"S3_REGION" default:"us-east-1"`
	DefaultBucket string        `envconfig:"S3_BUCKET" default:"bulkmail-logs"`
	Secure        bool          `envconfig:"S3_SECURE" default:"false"`
	Timeout       time.Duration `envconfig:"S3_TIMEOUT" default:"30s"`
	// CreateBucket создаёт DefaultBucket при подключении, если его нет
	CreateBucket bool `envconfig:"S3_CREATE_BUCKET" default:"true"`
}

// Validate проверяет обязательные поля
func (c Config) Validate() error {
	switch {
	case c.Endpoint == "":
		return errors.New("S3 endpoint is empty")
	case c.AccessKey == "" || c.SecretKey == "":
		return errors.New("S3 credentials are empty")
	case c.DefaultBucket == "":
		return errors.New("S3 bucket is empty")
	}
	return nil
}
