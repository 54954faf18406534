package intake

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"google.golang.org/genai"
)

type fakeGenerator struct {
	text     string
	err      error
	model    string
	contents []*genai.Content
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.contents = contents
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Role: "model", Parts: []*genai.Part{{Text: f.text}}}},
		},
	}, nil
}

func TestGeminiExtractor_Extract(t *testing.T) {
	gen := &fakeGenerator{text: "```json\n{\"poNumber\":\"SWAG-PO-9\",\"subTotal\":100,\"tax\":7,\"grandTotal\":107,\"supplierName\":\"Swag Depot\",\"buyerDepartment\":\"HR\",\"notes\":\"\"}\n```"}
	ext := newGeminiExtractor(gen, "test-model", zerolog.New(io.Discard))

	got, err := ext.Extract(context.Background(), NewDocument("po.jpg", "", []byte{0xFF, 0xD8}))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if got.Summary.PONumber != "SWAG-PO-9" || !got.Summary.GrandTotal.Equal(decimal.NewFromInt(107)) {
		t.Errorf("unexpected summary: %+v", got.Summary)
	}
	if !strings.HasPrefix(got.RawText, "```json") {
		t.Errorf("RawText should keep the model output, got %q", got.RawText)
	}

	if gen.model != "test-model" {
		t.Errorf("model = %q, want test-model", gen.model)
	}
	parts := gen.contents[0].Parts
	if len(parts) != 2 || parts[0].Text != ExtractionPrompt {
		t.Fatalf("unexpected request parts: %+v", parts)
	}
	if parts[1].InlineData == nil || parts[1].InlineData.MIMEType != "image/jpeg" {
		t.Errorf("expected image/jpeg inline data, got %+v", parts[1].InlineData)
	}
}

func TestGeminiExtractor_Errors(t *testing.T) {
	tests := []struct {
		name    string
		gen     *fakeGenerator
		data    []byte
		wantErr error
	}{
		{name: "empty document", gen: &fakeGenerator{}, data: nil, wantErr: ErrEmptyDocument},
		{name: "empty response", gen: &fakeGenerator{text: "  "}, data: []byte{1}, wantErr: ErrEmptyResponse},
		{name: "model failure", gen: &fakeGenerator{err: errors.New("quota")}, data: []byte{1}},
		{name: "not json", gen: &fakeGenerator{text: "I cannot read this image."}, data: []byte{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext := newGeminiExtractor(tt.gen, "m", zerolog.New(io.Discard))
			_, err := ext.Extract(context.Background(), Document{Name: "po.png", Data: tt.data})
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCleanModelJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "plain", raw: `{"a":1}`, want: `{"a":1}`},
		{name: "fenced", raw: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "bare fence", raw: "```\n{\"a\":1}\n```\n", want: `{"a":1}`},
		{name: "chatter", raw: "Here you go: {\"a\":{\"b\":2}} Thanks!", want: `{"a":{"b":2}}`},
		{name: "no object", raw: "nothing here", want: "nothing here"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanModelJSON(tt.raw); got != tt.want {
				t.Errorf("cleanModelJSON() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMIMETypeFromName(t *testing.T) {
	tests := map[string]string{
		"po.png":        "image/png",
		"scan.JPG":      "image/jpeg",
		"scan.jpeg":     "image/jpeg",
		"a.gif":         "image/gif",
		"a.bmp":         "image/bmp",
		"order.pdf":     "application/pdf",
		"unknown.bin":   DefaultMIMEType,
		"no-extension":  DefaultMIMEType,
		"gs://b/po.pdf": "application/pdf",
	}
	for name, want := range tests {
		if got := MIMETypeFromName(name); got != want {
			t.Errorf("MIMETypeFromName(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestNewDocument_KeepsExplicitType(t *testing.T) {
	doc := NewDocument("po.png", "application/pdf", []byte{1})
	if doc.MIMEType != "application/pdf" {
		t.Errorf("MIMEType = %q", doc.MIMEType)
	}
}
