package intake

import (
	"path/filepath"
	"strings"
)

// DefaultMIMEType is assumed when a document's type cannot be determined.
const DefaultMIMEType = "image/png"

// Document is a purchase order file to extract from.
type Document struct {
	Name     string
	MIMEType string
	Data     []byte
}

// NewDocument builds a Document, inferring MIMEType from name when it is
// empty.
func NewDocument(name, mimeType string, data []byte) Document {
	if mimeType == "" {
		mimeType = MIMETypeFromName(name)
	}
	return Document{Name: name, MIMEType: mimeType, Data: data}
}

var mimeByExt = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".webp": "image/webp",
	".pdf":  "application/pdf",
}

// MIMETypeFromName maps a file extension to its MIME type.
func MIMETypeFromName(name string) string {
	if mt, ok := mimeByExt[strings.ToLower(filepath.Ext(name))]; ok {
		return mt
	}
	return DefaultMIMEType
}
