package ai

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")
	pdfHeader = []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n1 0 obj\n<<>>\nendobj\n")
)

func TestResolveMediaTypeKeepsDeclaredType(t *testing.T) {
	require.Equal(t, "image/jpeg", ResolveMediaType(pngHeader, "Image/JPEG"))
	require.Equal(t, "text/plain", ResolveMediaType([]byte("hello"), "text/plain; charset=utf-8"))
}

func TestResolveMediaTypeSniffsGenericTypes(t *testing.T) {
	require.Equal(t, "image/png", ResolveMediaType(pngHeader, ""))
	require.Equal(t, "application/pdf", ResolveMediaType(pdfHeader, "application/octet-stream"))
	require.Equal(t, "application/octet-stream", ResolveMediaType(nil, ""))
}

func TestNewDocumentPart(t *testing.T) {
	part := NewDocumentPart(pngHeader, "")
	require.False(t, part.IsText())
	require.Equal(t, "image/png", part.InlineData.MediaType)
	require.Equal(t, pngHeader, part.InlineData.Data)
	require.NotEmpty(t, part.InlineData.Base64())

	text := TextPart("grade this")
	require.True(t, text.IsText())
	require.Equal(t, "grade this", text.Text)
}
