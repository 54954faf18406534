package intake

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"github.com/dvloznov/po-agents/internal/config"
	"github.com/dvloznov/po-agents/internal/purchaseorder"
)

var (
	// ErrEmptyDocument is returned when a document has no bytes.
	ErrEmptyDocument = errors.New("empty document")

	// ErrEmptyResponse is returned when the model answers with no text.
	ErrEmptyResponse = errors.New("empty response from model")
)

// Extraction is the result of reading a purchase order document.
type Extraction struct {
	Summary purchaseorder.Summary
	// RawText is the model output before cleaning.
	RawText string
}

// Extractor reads the summary fields out of a purchase order document.
type Extractor interface {
	Extract(ctx context.Context, doc Document) (*Extraction, error)
}

// contentGenerator is the subset of *genai.Models used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiExtractor extracts purchase order summaries with a Gemini vision
// model.
type GeminiExtractor struct {
	models contentGenerator
	model  string
	log    zerolog.Logger
}

// NewGeminiExtractor creates a genai client from cfg.
func NewGeminiExtractor(ctx context.Context, cfg config.ModelConfig, log zerolog.Logger) (*GeminiExtractor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("NewGeminiExtractor: %w", err)
	}

	cc := &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1", BaseURL: cfg.Endpoint},
	}
	if cfg.APIKey != "" {
		cc.APIKey = cfg.APIKey
		cc.Backend = genai.BackendGeminiAPI
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("NewGeminiExtractor: create genai client: %w", err)
	}

	log.Info().Str("model", cfg.DeploymentName).Msg("Initialized purchase order extractor")
	return newGeminiExtractor(client.Models, cfg.DeploymentName, log), nil
}

func newGeminiExtractor(models contentGenerator, model string, log zerolog.Logger) *GeminiExtractor {
	return &GeminiExtractor{models: models, model: model, log: log}
}

// Extract sends the document and the extraction prompt to the model and
// decodes its JSON answer.
func (e *GeminiExtractor) Extract(ctx context.Context, doc Document) (*Extraction, error) {
	if len(doc.Data) == 0 {
		return nil, fmt.Errorf("Extract: %s: %w", doc.Name, ErrEmptyDocument)
	}
	mimeType := doc.MIMEType
	if mimeType == "" {
		mimeType = MIMETypeFromName(doc.Name)
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: ExtractionPrompt},
				{
					InlineData: &genai.Blob{
						MIMEType: mimeType,
						Data:     doc.Data,
					},
				},
			},
		},
	}
	genCfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0),
		ResponseMIMEType: "application/json",
	}

	e.log.Debug().
		Str("document", doc.Name).
		Str("mime_type", mimeType).
		Int("size_bytes", len(doc.Data)).
		Msg("Sending document to model")

	resp, err := e.models.GenerateContent(ctx, e.model, contents, genCfg)
	if err != nil {
		return nil, fmt.Errorf("Extract: generate content: %w", err)
	}

	rawText := resp.Text()
	if strings.TrimSpace(rawText) == "" {
		return nil, fmt.Errorf("Extract: %w", ErrEmptyResponse)
	}

	summary, err := ParseSummary(rawText)
	if err != nil {
		return nil, fmt.Errorf("Extract: %w\nraw response: %s", err, rawText)
	}

	e.log.Info().
		Str("document", doc.Name).
		Str("po_number", summary.PONumber).
		Str("grand_total", summary.GrandTotal.StringFixed(2)).
		Msg("Extracted purchase order summary")

	return &Extraction{Summary: summary, RawText: rawText}, nil
}

// ParseSummary cleans a model answer and decodes it as a Summary.
func ParseSummary(raw string) (purchaseorder.Summary, error) {
	return purchaseorder.DecodeSummary([]byte(cleanModelJSON(raw)))
}

// cleanModelJSON strips Markdown fences and any text around the outermost
// JSON object.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	s = strings.TrimSpace(s)

	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}
