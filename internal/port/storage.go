package port

import (
	"context"
	"io"
)

// UploadInput describes one stored review file: its bucket, key and body.
type UploadInput struct {
	Bucket      string
	Key         string
	Body        io.Reader
	ContentType string
	Size        int64
}

// UploadOutput locates a stored review file.
type UploadOutput struct {
	Location string
	ETag     string
}

// ObjectStorage abstracts the object store holding uploaded review files.
type ObjectStorage interface {
	Upload(ctx context.Context, input UploadInput) (*UploadOutput, error)
	// Open streams an object. The caller closes the reader.
	Open(ctx context.Context, bucket, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, bucket, key string) error
	GetPresignedURL(ctx context.Context, bucket, key string, expirySeconds int64) (string, error)
}
