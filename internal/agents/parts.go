package agents

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/a2aproject/a2a-go/a2a"

	"github.com/dvloznov/po-agents/internal/intake"
	"github.com/dvloznov/po-agents/internal/purchaseorder"
)

var (
	// ErrNoDocument means the message carries no file part with content.
	ErrNoDocument = errors.New("message has no file attachment")
	// ErrNoSummary means no part of the message decodes to a summary.
	ErrNoSummary = errors.New("message has no purchase order summary")
)

// DocumentFromMessage returns the first file part of msg as a document.
// Inline bytes are base64 encoded; the MIME type comes from the file meta,
// then the part metadata, then the file name.
func DocumentFromMessage(msg *a2a.Message) (intake.Document, error) {
	if msg == nil {
		return intake.Document{}, ErrNoDocument
	}
	for _, part := range msg.Parts {
		var fp a2a.FilePart
		switch p := part.(type) {
		case a2a.FilePart:
			fp = p
		case *a2a.FilePart:
			fp = *p
		default:
			continue
		}

		var fb a2a.FileBytes
		switch f := fp.File.(type) {
		case a2a.FileBytes:
			fb = f
		case *a2a.FileBytes:
			fb = *f
		default:
			continue
		}
		if fb.Bytes == "" {
			continue
		}

		data, err := base64.StdEncoding.DecodeString(fb.Bytes)
		if err != nil {
			return intake.Document{}, fmt.Errorf("DocumentFromMessage: decode %q: %w", fb.Name, err)
		}

		mimeType := fb.MimeType
		if mimeType == "" {
			mimeType = metadataString(fp.Metadata, "contentType", "Content-Type")
		}
		return intake.NewDocument(fb.Name, mimeType, data), nil
	}
	return intake.Document{}, ErrNoDocument
}

// SummaryFromMessage decodes the first data part, or failing that the first
// text part, that holds a summary or a full purchase order.
func SummaryFromMessage(msg *a2a.Message) (purchaseorder.Summary, error) {
	if msg == nil {
		return purchaseorder.Summary{}, ErrNoSummary
	}
	for _, part := range msg.Parts {
		var data map[string]any
		switch p := part.(type) {
		case a2a.DataPart:
			data = p.Data
		case *a2a.DataPart:
			data = p.Data
		}
		if len(data) == 0 {
			continue
		}
		raw, err := json.Marshal(data)
		if err != nil {
			continue
		}
		if s, err := decodeSummaryOrOrder(string(raw)); err == nil {
			return s, nil
		}
	}
	for _, part := range msg.Parts {
		var text string
		switch p := part.(type) {
		case a2a.TextPart:
			text = p.Text
		case *a2a.TextPart:
			text = p.Text
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		if s, err := decodeSummaryOrOrder(text); err == nil {
			return s, nil
		}
	}
	return purchaseorder.Summary{}, ErrNoSummary
}

func decodeSummaryOrOrder(text string) (purchaseorder.Summary, error) {
	if purchaseorder.HasItems([]byte(text)) {
		return purchaseorder.DecodeInput([]byte(text))
	}
	return intake.ParseSummary(text)
}

// ApprovalFromParts decodes the first part that holds an approval result.
func ApprovalFromParts(parts []a2a.Part) (purchaseorder.ApprovalResult, error) {
	for _, part := range parts {
		var raw []byte
		switch p := part.(type) {
		case a2a.DataPart:
			raw, _ = json.Marshal(p.Data)
		case *a2a.DataPart:
			raw, _ = json.Marshal(p.Data)
		case a2a.TextPart:
			raw = []byte(p.Text)
		case *a2a.TextPart:
			raw = []byte(p.Text)
		default:
			continue
		}
		res, err := purchaseorder.DecodeApprovalResult(raw)
		if err == nil && res.ApprovalReason != "" {
			return res, nil
		}
	}
	return purchaseorder.ApprovalResult{}, errors.New("no approval result in reply")
}

// TextOf joins the text parts of parts with newlines.
func TextOf(parts []a2a.Part) string {
	var texts []string
	for _, part := range parts {
		switch p := part.(type) {
		case a2a.TextPart:
			texts = append(texts, p.Text)
		case *a2a.TextPart:
			texts = append(texts, p.Text)
		}
	}
	return strings.Join(texts, "\n")
}

// jsonParts renders v as a text part holding its JSON and a data part
// holding the same object.
func jsonParts(v any) ([]a2a.Part, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	return []a2a.Part{
		a2a.TextPart{Text: string(raw)},
		a2a.DataPart{Data: data},
	}, nil
}

// filePart encodes doc as an inline file part.
func filePart(doc intake.Document) a2a.Part {
	return a2a.FilePart{
		File: a2a.FileBytes{
			FileMeta: a2a.FileMeta{MimeType: doc.MIMEType, Name: doc.Name},
			Bytes:    base64.StdEncoding.EncodeToString(doc.Data),
		},
	}
}

func metadataString(md map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := md[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
