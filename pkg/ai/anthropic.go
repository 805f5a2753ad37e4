package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const providerAnthropic = "anthropic"

// AnthropicConfig defines configuration options for the Anthropic model client.
type AnthropicConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	Logger      zerolog.Logger
}

// AnthropicModel implements DocumentModel against the Anthropic messages API.
type AnthropicModel struct {
	client anthropic.Client
	cfg    AnthropicConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewAnthropicModel constructs a new Anthropic model client.
func NewAnthropicModel(cfg AnthropicConfig) (*AnthropicModel, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "claude-sonnet-4-5"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 4096
	}

	return &AnthropicModel{
		client: anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		cfg:    cfg,
		tracer: otel.Tracer("github.com/noah-isme/gema-grader/pkg/ai/anthropic"),
		logger: cfg.Logger.With().Str("component", "anthropic_model").Logger(),
	}, nil
}

// GenerateContent sends the parts as one user message and concatenates the text blocks of the reply.
func (m *AnthropicModel) GenerateContent(parent context.Context, parts []Part) (string, error) {
	ctx, span := m.tracer.Start(parent, "anthropic.generate_content", trace.WithAttributes(
		attribute.String("model", m.cfg.Model),
		attribute.Int("parts", len(parts)),
	))
	defer span.End()

	blocks, err := buildAnthropicBlocks(parts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "unsupported part")
		return "", err
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(m.cfg.Model),
		MaxTokens:   int64(m.cfg.MaxTokens),
		Temperature: anthropic.Float(float64(m.cfg.Temperature)),
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(blocks...)},
	}

	start := time.Now()
	msg, err := m.client.Messages.New(ctx, params)
	modelDuration.WithLabelValues(providerAnthropic, m.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		modelFailures.WithLabelValues(providerAnthropic, m.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "generate failed")
		return "", fmt.Errorf("anthropic generate content: %w", err)
	}

	var builder strings.Builder
	for _, block := range msg.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			builder.WriteString(text.Text)
		}
	}

	result := strings.TrimSpace(builder.String())
	if result == "" {
		modelFailures.WithLabelValues(providerAnthropic, m.cfg.Model).Inc()
		span.RecordError(ErrEmptyResponse)
		span.SetStatus(codes.Error, "empty response")
		return "", ErrEmptyResponse
	}

	m.logger.Debug().Dur("latency", time.Since(start)).Int("response_length", len(result)).Msg("model call completed")
	return result, nil
}

func buildAnthropicBlocks(parts []Part) ([]anthropic.ContentBlockParamUnion, error) {
	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(parts))
	for _, part := range parts {
		if part.IsText() {
			blocks = append(blocks, anthropic.NewTextBlock(part.Text))
			continue
		}

		blob := part.InlineData
		switch {
		case isImage(blob.MediaType):
			blocks = append(blocks, anthropic.NewImageBlockBase64(blob.MediaType, blob.Base64()))
		case isPDF(blob.MediaType):
			blocks = append(blocks, anthropic.NewDocumentBlock(anthropic.Base64PDFSourceParam{Data: blob.Base64()}))
		case isPlainText(blob.MediaType):
			blocks = append(blocks, anthropic.NewDocumentBlock(anthropic.PlainTextSourceParam{Data: string(blob.Data)}))
		default:
			return nil, fmt.Errorf("anthropic: %s: %w", blob.MediaType, ErrUnsupportedMediaType)
		}
	}
	return blocks, nil
}
