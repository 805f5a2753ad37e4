package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const providerOpenAI = "openai"

// OpenAIConfig defines configuration options for the OpenAI model client.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	Logger      zerolog.Logger
}

// OpenAIModel implements DocumentModel against the OpenAI chat completion API.
type OpenAIModel struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIModel builds a new model client using the provided configuration.
func NewOpenAIModel(cfg OpenAIConfig) (*OpenAIModel, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 4096
	}

	config := openai.DefaultConfig(cfg.APIKey)
	client := openai.NewClientWithConfig(config)

	return &OpenAIModel{
		client: client,
		cfg:    cfg,
		tracer: otel.Tracer("github.com/noah-isme/gema-grader/pkg/ai/openai"),
		logger: cfg.Logger.With().Str("component", "openai_model").Logger(),
	}, nil
}

// GenerateContent sends the parts as one multimodal user message. Images travel as data URLs,
// text documents are inlined; other document types are rejected.
func (m *OpenAIModel) GenerateContent(parent context.Context, parts []Part) (string, error) {
	ctx, span := m.tracer.Start(parent, "openai.generate_content", trace.WithAttributes(
		attribute.String("model", m.cfg.Model),
		attribute.Int("parts", len(parts)),
	))
	defer span.End()

	content, err := buildOpenAIParts(parts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "unsupported part")
		return "", err
	}

	request := openai.ChatCompletionRequest{
		Model:       m.cfg.Model,
		MaxTokens:   m.cfg.MaxTokens,
		Temperature: m.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:         openai.ChatMessageRoleUser,
				MultiContent: content,
			},
		},
	}

	start := time.Now()
	resp, err := m.client.CreateChatCompletion(ctx, request)
	modelDuration.WithLabelValues(providerOpenAI, m.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		modelFailures.WithLabelValues(providerOpenAI, m.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("openai generate content: %w", err)
	}

	if len(resp.Choices) == 0 {
		modelFailures.WithLabelValues(providerOpenAI, m.cfg.Model).Inc()
		span.RecordError(ErrEmptyResponse)
		span.SetStatus(codes.Error, "no choices")
		return "", ErrEmptyResponse
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		modelFailures.WithLabelValues(providerOpenAI, m.cfg.Model).Inc()
		span.RecordError(ErrEmptyResponse)
		span.SetStatus(codes.Error, "empty response")
		return "", ErrEmptyResponse
	}

	m.logger.Debug().Dur("latency", time.Since(start)).Int("response_length", len(text)).Msg("model call completed")
	return text, nil
}

func buildOpenAIParts(parts []Part) ([]openai.ChatMessagePart, error) {
	out := make([]openai.ChatMessagePart, 0, len(parts))
	for _, part := range parts {
		if part.IsText() {
			out = append(out, openai.ChatMessagePart{Type: openai.ChatMessagePartTypeText, Text: part.Text})
			continue
		}

		blob := part.InlineData
		switch {
		case isImage(blob.MediaType):
			out = append(out, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL:    "data:" + blob.MediaType + ";base64," + blob.Base64(),
					Detail: openai.ImageURLDetailHigh,
				},
			})
		case isPlainText(blob.MediaType):
			out = append(out, openai.ChatMessagePart{Type: openai.ChatMessagePartTypeText, Text: string(blob.Data)})
		default:
			return nil, fmt.Errorf("openai: %s: %w", blob.MediaType, ErrUnsupportedMediaType)
		}
	}
	return out, nil
}
