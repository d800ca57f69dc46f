/*
Package storage stores ticket attachments in S3-compatible object storage. The
real-time core only ever sees attachment metadata; this package issues the URLs
clients use to move the bytes and confirms uploaded objects exist.
*/
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrObjectNotFound is returned by Stat when the key does not exist.
var ErrObjectNotFound = errors.New("object not found")

// ServiceConfig holds the configuration required to connect to the storage service.
type ServiceConfig struct {
	S3BucketName      string
	S3Endpoint        string
	S3Region          string
	S3AccessKeyID     string
	S3SecretAccessKey string
}

// Enabled reports whether a bucket is configured.
func (c ServiceConfig) Enabled() bool {
	return c.S3BucketName != ""
}

// ObjectInfo is the stored metadata of an object.
type ObjectInfo struct {
	ContentType string
	Size        int64
}

// StorageService defines the public interface for the file storage service.
type StorageService interface {
	// PresignUpload generates a pre-signed URL for uploading a file.
	PresignUpload(
		ctx context.Context,
		key string,
		mimeType string,
		fileSize int64,
		duration time.Duration,
	) (string, error)

	// PresignDownload generates a pre-signed URL for downloading a file.
	PresignDownload(ctx context.Context, key string, duration time.Duration) (string, error)

	// Upload streams body to key through the multipart uploader.
	Upload(ctx context.Context, key string, mimeType string, body io.Reader) error

	// Stat returns the object's metadata, or ErrObjectNotFound.
	Stat(ctx context.Context, key string) (ObjectInfo, error)
}

// NewStorageService is the factory function for StorageService.
// Only S3-compatible implementations are supported.
func NewStorageService(ctx context.Context, cfg ServiceConfig) (StorageService, error) {
	return newS3Client(ctx, cfg)
}
