package grading

import (
	"context"
	"sync"

	"github.com/noah-isme/gema-grader/pkg/ai"
)

type stubModel struct {
	mu      sync.Mutex
	calls   [][]ai.Part
	respond func(ctx context.Context, call int, parts []ai.Part) (string, error)
}

func (m *stubModel) GenerateContent(ctx context.Context, parts []ai.Part) (string, error) {
	m.mu.Lock()
	call := len(m.calls)
	m.calls = append(m.calls, parts)
	m.mu.Unlock()

	return m.respond(ctx, call, parts)
}

func (m *stubModel) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *stubModel) call(i int) []ai.Part {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[i]
}

// lastDocument returns the payload of the final inline document of a request.
func lastDocument(parts []ai.Part) string {
	for i := len(parts) - 1; i >= 0; i-- {
		if parts[i].InlineData != nil {
			return string(parts[i].InlineData.Data)
		}
	}
	return ""
}

func textArtifact(name, body string) Artifact {
	return Artifact{Name: name, MediaType: "text/plain", Data: []byte(body)}
}
