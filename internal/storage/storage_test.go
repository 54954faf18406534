package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type fakeFetcher struct {
	data []byte
	err  error
	uri  string
}

func (f *fakeFetcher) FetchFromGCS(ctx context.Context, gcsURI string) ([]byte, error) {
	f.uri = gcsURI
	return f.data, f.err
}

func TestParseGCSURI(t *testing.T) {
	tests := []struct {
		uri        string
		wantBucket string
		wantObject string
		wantErr    bool
	}{
		{uri: "gs://orders/2024/po.png", wantBucket: "orders", wantObject: "2024/po.png"},
		{uri: "gs://orders/po.pdf", wantBucket: "orders", wantObject: "po.pdf"},
		{uri: "gs://orders", wantErr: true},
		{uri: "gs://orders/", wantErr: true},
		{uri: "s3://orders/po.png", wantErr: true},
		{uri: "/tmp/po.png", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			bucket, object, err := ParseGCSURI(tt.uri)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseGCSURI() error = %v, wantErr %v", err, tt.wantErr)
			}
			if bucket != tt.wantBucket || object != tt.wantObject {
				t.Errorf("ParseGCSURI() = (%q, %q), want (%q, %q)", bucket, object, tt.wantBucket, tt.wantObject)
			}
		})
	}
}

func TestExtractFilenameFromGCSURI(t *testing.T) {
	tests := map[string]string{
		"gs://bucket/folder/po.png": "po.png",
		"gs://bucket/po.pdf":        "po.pdf",
		"gs://bucket":               "bucket",
	}
	for uri, want := range tests {
		if got := ExtractFilenameFromGCSURI(uri); got != want {
			t.Errorf("ExtractFilenameFromGCSURI(%q) = %q, want %q", uri, got, want)
		}
	}
}

func TestObjectName(t *testing.T) {
	tests := []struct {
		prefix, filename, want string
	}{
		{prefix: "orders/", filename: "/home/me/po.png", want: "orders/po.png"},
		{prefix: "orders", filename: "po.png", want: "orders/po.png"},
		{prefix: "", filename: `C:\scans\po.jpg`, want: "po.jpg"},
	}
	for _, tt := range tests {
		if got := ObjectName(tt.prefix, tt.filename); got != tt.want {
			t.Errorf("ObjectName(%q, %q) = %q, want %q", tt.prefix, tt.filename, got, tt.want)
		}
	}
	if got := URI("b", "orders/po.png"); got != "gs://b/orders/po.png" {
		t.Errorf("URI() = %q", got)
	}
}

func TestLoader_LoadLocal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.jpeg")
	if err := os.WriteFile(path, []byte{0xFF, 0xD8, 0xFF}, 0o600); err != nil {
		t.Fatal(err)
	}

	doc, err := NewLoader(nil).Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if doc.Name != "scan.jpeg" || doc.MIMEType != "image/jpeg" || len(doc.Data) != 3 {
		t.Errorf("unexpected document: name=%q mime=%q size=%d", doc.Name, doc.MIMEType, len(doc.Data))
	}
}

func TestLoader_LoadGCS(t *testing.T) {
	f := &fakeFetcher{data: []byte("%PDF-1.4")}
	doc, err := NewLoader(f).Load(context.Background(), "gs://orders/in/po.pdf")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if f.uri != "gs://orders/in/po.pdf" {
		t.Errorf("fetched %q", f.uri)
	}
	if doc.Name != "po.pdf" || doc.MIMEType != "application/pdf" {
		t.Errorf("unexpected document: name=%q mime=%q", doc.Name, doc.MIMEType)
	}
}

func TestLoader_Errors(t *testing.T) {
	if _, err := NewLoader(nil).Load(context.Background(), "gs://orders/po.png"); !errors.Is(err, ErrNoGCS) {
		t.Errorf("error = %v, want ErrNoGCS", err)
	}

	boom := errors.New("denied")
	if _, err := NewLoader(&fakeFetcher{err: boom}).Load(context.Background(), "gs://orders/po.png"); !errors.Is(err, boom) {
		t.Errorf("error = %v, want wrapped fetch error", err)
	}

	if _, err := NewLoader(nil).Load(context.Background(), filepath.Join(t.TempDir(), "missing.png")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error = %v, want os.ErrNotExist", err)
	}
}

func TestGCSLoader_RejectsLocalPaths(t *testing.T) {
	path := filepath.Join(t.TempDir(), "po.png")
	if err := os.WriteFile(path, []byte("\x89PNG"), 0o600); err != nil {
		t.Fatal(err)
	}

	f := &fakeFetcher{data: []byte("\x89PNG")}
	loader := NewGCSLoader(f)

	for _, source := range []string{path, "/etc/passwd", "../secrets.png"} {
		if _, err := loader.Load(context.Background(), source); !errors.Is(err, ErrLocalSource) {
			t.Errorf("Load(%q) error = %v, want ErrLocalSource", source, err)
		}
	}
	if f.uri != "" {
		t.Errorf("fetcher called with %q", f.uri)
	}

	if _, err := loader.Load(context.Background(), "gs://orders/po.png"); err != nil {
		t.Errorf("gs:// source failed: %v", err)
	}
}
