package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"

	"github.com/dvloznov/po-agents/internal/intake"
)

// uploadTimeout bounds a single object upload.
const uploadTimeout = 2 * time.Minute

// GCSService implements Service on Google Cloud Storage. It assumes
// Application Default Credentials are configured.
type GCSService struct {
	client *storage.Client
}

// NewGCSService creates a storage client.
func NewGCSService(ctx context.Context) (*GCSService, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("NewGCSService: create storage client: %w", err)
	}
	return &GCSService{client: client}, nil
}

// Close releases the underlying client.
func (s *GCSService) Close() error {
	return s.client.Close()
}

// UploadFile uploads a local file to a GCS bucket under the given object name.
// The content type is inferred from the file extension.
func (s *GCSService) UploadFile(ctx context.Context, bucketName, objectName, filePath string) error {
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("UploadFile: open file %q: %w", filePath, err)
	}
	defer f.Close()

	if err := s.upload(ctx, bucketName, objectName, intake.MIMETypeFromName(filePath), f); err != nil {
		return fmt.Errorf("UploadFile: %w", err)
	}
	return nil
}

// UploadBytes writes data to a GCS object.
func (s *GCSService) UploadBytes(ctx context.Context, bucketName, objectName, contentType string, data []byte) error {
	if err := s.upload(ctx, bucketName, objectName, contentType, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("UploadBytes: %w", err)
	}
	return nil
}

func (s *GCSService) upload(ctx context.Context, bucketName, objectName, contentType string, r io.Reader) error {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := s.client.Bucket(bucketName).Object(objectName).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	defer func() {
		// Ensure the writer is closed even on early returns
		_ = w.Close()
	}()

	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copy to GCS writer: %w", err)
	}

	// Close to finalize the upload
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize upload gs://%s/%s: %w", bucketName, objectName, err)
	}
	return nil
}

// FetchFromGCS downloads the file bytes from the given GCS URI.
func (s *GCSService) FetchFromGCS(ctx context.Context, gcsURI string) ([]byte, error) {
	bucketName, objectPath, err := ParseGCSURI(gcsURI)
	if err != nil {
		return nil, fmt.Errorf("FetchFromGCS: %w", err)
	}

	rc, err := s.client.Bucket(bucketName).Object(objectPath).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("FetchFromGCS: reading object %s/%s: %w", bucketName, objectPath, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("FetchFromGCS: reading bytes: %w", err)
	}
	return data, nil
}

// IsGCSURI reports whether s uses the gs:// scheme.
func IsGCSURI(s string) bool {
	return strings.HasPrefix(s, "gs://")
}

// ParseGCSURI splits gs://bucket/path/to/object into bucket and object.
func ParseGCSURI(gcsURI string) (bucket, object string, err error) {
	if !IsGCSURI(gcsURI) {
		return "", "", fmt.Errorf("invalid GCS URI: %s", gcsURI)
	}
	parts := strings.SplitN(strings.TrimPrefix(gcsURI, "gs://"), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", gcsURI)
	}
	return parts[0], parts[1], nil
}

// ExtractFilenameFromGCSURI extracts the filename from a GCS URI.
// e.g., "gs://bucket/folder/po.png" → "po.png"
func ExtractFilenameFromGCSURI(uri string) string {
	trimmed := strings.TrimPrefix(uri, "gs://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) < 2 {
		return trimmed
	}
	return path.Base(parts[1])
}

// ObjectName builds the object path for an uploaded order document.
func ObjectName(prefix, filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if prefix == "" {
		return name
	}
	return strings.TrimSuffix(prefix, "/") + "/" + name
}

// URI formats a gs:// URI.
func URI(bucket, object string) string {
	return "gs://" + bucket + "/" + object
}
