package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genai"
)

const providerGemini = "gemini"

// GeminiConfig defines configuration options for the Gemini model client.
type GeminiConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	Logger      zerolog.Logger
}

// GeminiModel implements DocumentModel against the Google Gemini API.
type GeminiModel struct {
	client *genai.Client
	cfg    GeminiConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewGeminiModel builds a Gemini client using the provided configuration.
func NewGeminiModel(ctx context.Context, cfg GeminiConfig) (*GeminiModel, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-pro"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiModel{
		client: client,
		cfg:    cfg,
		tracer: otel.Tracer("github.com/noah-isme/gema-grader/pkg/ai/gemini"),
		logger: cfg.Logger.With().Str("component", "gemini_model").Logger(),
	}, nil
}

// GenerateContent sends the parts as a single user turn and returns the response text.
func (m *GeminiModel) GenerateContent(parent context.Context, parts []Part) (string, error) {
	ctx, span := m.tracer.Start(parent, "gemini.generate_content", trace.WithAttributes(
		attribute.String("model", m.cfg.Model),
		attribute.Int("parts", len(parts)),
	))
	defer span.End()

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(m.cfg.Temperature),
	}
	if m.cfg.MaxTokens > 0 {
		config.MaxOutputTokens = int32(m.cfg.MaxTokens)
	}

	contents := []*genai.Content{
		genai.NewContentFromParts(buildGeminiParts(parts), genai.RoleUser),
	}

	start := time.Now()
	resp, err := m.client.Models.GenerateContent(ctx, m.cfg.Model, contents, config)
	modelDuration.WithLabelValues(providerGemini, m.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		modelFailures.WithLabelValues(providerGemini, m.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "generate failed")
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		modelFailures.WithLabelValues(providerGemini, m.cfg.Model).Inc()
		span.RecordError(ErrEmptyResponse)
		span.SetStatus(codes.Error, "empty response")
		return "", ErrEmptyResponse
	}

	m.logger.Debug().Dur("latency", time.Since(start)).Int("response_length", len(text)).Msg("model call completed")
	return text, nil
}

func buildGeminiParts(parts []Part) []*genai.Part {
	out := make([]*genai.Part, 0, len(parts))
	for _, part := range parts {
		if part.IsText() {
			out = append(out, genai.NewPartFromText(part.Text))
			continue
		}
		out = append(out, genai.NewPartFromBytes(part.InlineData.Data, part.InlineData.MediaType))
	}
	return out
}
