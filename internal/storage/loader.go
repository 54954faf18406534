package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dvloznov/po-agents/internal/intake"
)

var (
	// ErrNoGCS is returned when a gs:// source is loaded without a GCS client.
	ErrNoGCS = errors.New("gcs source without storage client")
	// ErrLocalSource is returned by a GCS-only loader for any other source.
	ErrLocalSource = errors.New("local file sources are not allowed")
)

// Loader resolves an order source to a Document. Sources are gs:// URIs or
// local file paths.
type Loader struct {
	gcs     Fetcher
	gcsOnly bool
}

// NewLoader returns a Loader. gcs may be nil when only local files are used.
func NewLoader(gcs Fetcher) *Loader {
	return &Loader{gcs: gcs}
}

// NewGCSLoader returns a Loader that only reads gs:// URIs. Servers use it
// so callers cannot make them read their own filesystem.
func NewGCSLoader(gcs Fetcher) *Loader {
	return &Loader{gcs: gcs, gcsOnly: true}
}

// Load reads source and infers its MIME type from the file name.
func (l *Loader) Load(ctx context.Context, source string) (intake.Document, error) {
	if IsGCSURI(source) {
		if l.gcs == nil {
			return intake.Document{}, fmt.Errorf("Load: %s: %w", source, ErrNoGCS)
		}
		data, err := l.gcs.FetchFromGCS(ctx, source)
		if err != nil {
			return intake.Document{}, fmt.Errorf("Load: %w", err)
		}
		return intake.NewDocument(ExtractFilenameFromGCSURI(source), "", data), nil
	}

	if l.gcsOnly {
		return intake.Document{}, fmt.Errorf("Load: %s: %w", source, ErrLocalSource)
	}

	data, err := os.ReadFile(source)
	if err != nil {
		return intake.Document{}, fmt.Errorf("Load: read %s: %w", source, err)
	}
	return intake.NewDocument(filepath.Base(source), "", data), nil
}
