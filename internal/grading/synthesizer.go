package grading

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

	"github.com/noah-isme/gema-grader/internal/observability"
	"github.com/noah-isme/gema-grader/pkg/ai"
)

const (
	labelExamTemplate    = "Here is the EXAM TEMPLATE to analyze:"
	labelStructureSample = "No exam template provided. Analyze this STUDENT SUBMISSION only to understand the exam structure and questions. It is NOT an answer key:"
	labelSolvedExamFmt   = "Here is SOLVED EXAM #%d with correct answers - use this as the answer key:"
)

// Synthesizer asks the model once per request for a grading prompt tailored to the supplied artifacts.
type Synthesizer struct {
	model   ai.DocumentModel
	timeout time.Duration
	logger  zerolog.Logger
	tracer  trace.Tracer
}

// NewSynthesizer constructs a prompt synthesizer. A non-positive timeout disables the call deadline.
func NewSynthesizer(model ai.DocumentModel, timeout time.Duration, logger zerolog.Logger) *Synthesizer {
	return &Synthesizer{
		model:   model,
		timeout: timeout,
		logger:  logger.With().Str("component", "prompt_synthesizer").Logger(),
		tracer:  otel.Tracer("github.com/noah-isme/gema-grader/internal/grading/synthesizer"),
	}
}

// Resolve returns the synthesized prompt, or the fallback prompt when synthesis is unavailable.
func (s *Synthesizer) Resolve(ctx context.Context, req Request) Prompt {
	if text, ok := s.Synthesize(ctx, req); ok {
		observability.PromptResolutions().WithLabelValues(string(PromptSynthesized)).Inc()
		return Prompt{Source: PromptSynthesized, Text: text}
	}

	observability.PromptResolutions().WithLabelValues(string(PromptFallback)).Inc()
	return Prompt{
		Source: PromptFallback,
		Text:   BuildFallback(req.RubricText, req.SpecialInstructions, req.HasSolvedExams()),
	}
}

// Synthesize performs the meta-request. It reports false on any failure and never panics outward.
func (s *Synthesizer) Synthesize(ctx context.Context, req Request) (prompt string, ok bool) {
	ctx, span := s.tracer.Start(ctx, "grading.synthesize_prompt", trace.WithAttributes(
		attribute.Bool("grading.has_template", req.ExamTemplate != nil),
		attribute.Int("grading.solved_exams", len(req.SolvedExams)),
		attribute.Bool("grading.has_rubric", strings.TrimSpace(req.RubricText) != ""),
	))
	defer span.End()

	if s.model == nil {
		span.SetStatus(codes.Error, "no model")
		return "", false
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Str("failure", "panic").Msg("prompt synthesis failed, using fallback")
			span.SetStatus(codes.Error, "panic")
			prompt, ok = "", false
		}
	}()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	text, err := s.model.GenerateContent(ctx, s.buildParts(req))
	if err != nil {
		s.logger.Warn().Err(err).Msg("prompt synthesis failed, using fallback")
		span.RecordError(err)
		span.SetStatus(codes.Error, "synthesis failed")
		return "", false
	}

	text = strings.TrimSpace(text)
	if text == "" {
		s.logger.Warn().Msg("prompt synthesis returned empty text, using fallback")
		span.SetStatus(codes.Error, "empty prompt")
		return "", false
	}

	s.logger.Info().Int("prompt_length", len(text)).Msg("grading prompt synthesized")
	return text, true
}

func (s *Synthesizer) buildParts(req Request) []ai.Part {
	parts := make([]ai.Part, 0, 3+2*len(req.SolvedExams))
	parts = append(parts, ai.TextPart(s.metaPrompt(req)))

	if req.ExamTemplate != nil {
		parts = append(parts,
			ai.TextPart(labelExamTemplate),
			ai.NewDocumentPart(req.ExamTemplate.Data, req.ExamTemplate.MediaType),
		)
	} else if len(req.Submissions) > 0 {
		first := req.Submissions[0]
		parts = append(parts,
			ai.TextPart(labelStructureSample),
			ai.NewDocumentPart(first.Data, first.MediaType),
		)
	}

	for i, solved := range req.SolvedExams {
		parts = append(parts,
			ai.TextPart(fmt.Sprintf(labelSolvedExamFmt, i+1)),
			ai.NewDocumentPart(solved.Data, solved.MediaType),
		)
	}

	return parts
}

func (s *Synthesizer) metaPrompt(req Request) string {
	rubric := strings.TrimSpace(req.RubricText)
	special := strings.TrimSpace(req.SpecialInstructions)

	var b strings.Builder
	b.WriteString("You are an expert prompt engineer and dedicated teaching assistant.\n")
	b.WriteString("Your goal is to analyze the provided documents and write the grading prompt that an AI grader will use, unchanged, for every student submission of this exam.\n\n")

	b.WriteString("--- DOCUMENT ANALYSIS ---\n")
	b.WriteString("1. Analyze the exam template (if provided): identify the subject, the grade level and every question.\n")
	b.WriteString("2. Analyze the solved exams (if provided): extract the correct answers. Several solved exams may be provided; synthesize one answer key from all of them.\n")
	b.WriteString("3. Analyze the student submission (if provided instead of a template): use it only to understand the exam structure.\n\n")

	b.WriteString("--- MISSING INFORMATION HANDLING ---\n")
	if req.HasSolvedExams() {
		b.WriteString("Use the provided solved exam(s) as the source of truth for correct answers.\n")
	} else {
		b.WriteString("CRITICAL: NO SOLVED EXAM/ANSWER KEY PROVIDED. Determine the correct answers yourself from your expert knowledge of the subject. The grading prompt MUST include these correct answers.\n")
	}
	if rubric != "" {
		b.WriteString("Use the provided rubric for point values and criteria.\n")
	} else {
		b.WriteString("CRITICAL: NO RUBRIC PROVIDED. Determine the point distribution yourself: the exam totals 100 points, split across questions according to their complexity.\n")
	}

	b.WriteString("\n--- USER INSTRUCTIONS ---\n")
	if special != "" {
		b.WriteString("THE USER HAS PROVIDED THESE SPECIAL INSTRUCTIONS. THEY OVERRIDE EVERY DEFAULT GRADING RULE:\n\"")
		b.WriteString(special)
		b.WriteString("\"\n")
	} else {
		b.WriteString("No special instructions provided.\n")
	}
	if rubric != "" {
		b.WriteString("User's rubric:\n\"")
		b.WriteString(rubric)
		b.WriteString("\"\n")
	}

	b.WriteString("\n--- OUTPUT TASK ---\n")
	b.WriteString("Write a comprehensive grading prompt for the AI grader. The prompt must:\n")
	b.WriteString("1. Role: define the AI as an expert grader able to read handwriting.\n")
	b.WriteString("2. Context: briefly describe the exam subject and structure.\n")
	b.WriteString("3. Answer key: explicitly list the correct answer for every question.\n")
	b.WriteString("4. Grading criteria: explain how to grade each question (partial credit, key terms, common mistakes) and its point value.\n")
	b.WriteString("5. Special handling: incorporate the user's special instructions.\n")
	b.WriteString("6. Name and confidence: extract the student's name and give a 0-100 confidence per question based on legibility.\n")
	b.WriteString("7. Output format: require exactly the JSON structure below and nothing else.\n\n")
	b.WriteString("Reply with the grading prompt text only.\n\n")
	b.WriteString("REQUIRED JSON STRUCTURE FOR THE GRADER OUTPUT:\n")
	b.WriteString(outputSchemaExample)
	b.WriteString("\n")

	return b.String()
}
