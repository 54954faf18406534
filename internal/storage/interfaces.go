package storage

import (
	"context"
)

// Service provides the cloud storage operations used for purchase order
// documents.
type Service interface {
	// UploadFile uploads a local file to a bucket under the given object name.
	UploadFile(ctx context.Context, bucketName, objectName, filePath string) error

	// UploadBytes writes data to a bucket object with the given content type.
	UploadBytes(ctx context.Context, bucketName, objectName, contentType string, data []byte) error

	// FetchFromGCS downloads file bytes from the given gs:// URI.
	FetchFromGCS(ctx context.Context, gcsURI string) ([]byte, error)
}

// Fetcher is the read side of Service.
type Fetcher interface {
	FetchFromGCS(ctx context.Context, gcsURI string) ([]byte, error)
}
