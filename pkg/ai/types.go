package ai

import (
	"context"
	"encoding/base64"
	"errors"
)

var (
	// ErrEmptyResponse indicates the model returned no usable text.
	ErrEmptyResponse = errors.New("model returned an empty response")
	// ErrUnsupportedMediaType indicates a provider cannot accept the attached document type.
	ErrUnsupportedMediaType = errors.New("media type not supported by provider")
)

// Blob is an inline binary document attached to a model request.
type Blob struct {
	MediaType string
	Data      []byte
}

// Base64 returns the standard base64 encoding of the blob payload.
func (b Blob) Base64() string {
	return base64.StdEncoding.EncodeToString(b.Data)
}

// Part is a single unit of a multimodal request: either text or an inline document.
type Part struct {
	Text       string
	InlineData *Blob
}

// IsText reports whether the part carries text rather than a document.
func (p Part) IsText() bool {
	return p.InlineData == nil
}

// DocumentModel is a multimodal model able to read documents and answer with text.
type DocumentModel interface {
	GenerateContent(ctx context.Context, parts []Part) (string, error)
}
