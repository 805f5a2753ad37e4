package ai

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const defaultMediaType = "application/octet-stream"

// TextPart wraps plain text as a request part.
func TextPart(text string) Part {
	return Part{Text: text}
}

// NewDocumentPart converts a raw buffer and its declared media type into an inline request part.
// Missing or generic media types are replaced by the type sniffed from the content.
func NewDocumentPart(data []byte, mediaType string) Part {
	return Part{InlineData: &Blob{
		MediaType: ResolveMediaType(data, mediaType),
		Data:      data,
	}}
}

// ResolveMediaType normalises a declared media type, sniffing the payload when it is absent or generic.
func ResolveMediaType(data []byte, declared string) string {
	declared = strings.ToLower(strings.TrimSpace(declared))
	if idx := strings.Index(declared, ";"); idx >= 0 {
		declared = strings.TrimSpace(declared[:idx])
	}
	if declared != "" && declared != defaultMediaType {
		return declared
	}
	if len(data) == 0 {
		return defaultMediaType
	}

	detected := mimetype.Detect(data).String()
	if idx := strings.Index(detected, ";"); idx >= 0 {
		detected = strings.TrimSpace(detected[:idx])
	}
	if detected == "" {
		return defaultMediaType
	}
	return detected
}

func isImage(mediaType string) bool {
	return strings.HasPrefix(mediaType, "image/")
}

func isPDF(mediaType string) bool {
	return mediaType == "application/pdf"
}

func isPlainText(mediaType string) bool {
	return strings.HasPrefix(mediaType, "text/")
}
