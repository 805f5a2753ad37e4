package grading

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/gema-grader/internal/observability"
	"github.com/noah-isme/gema-grader/pkg/ai"
)

const (
	labelBlankTemplate  = "Here is the BLANK EXAM TEMPLATE for reference:"
	labelAnswerKeyFmt   = "Here is SOLVED EXAM #%d with CORRECT ANSWERS - use this as the answer key:"
	labelSubmissionText = "Here is the STUDENT SUBMISSION to grade:"
)

// OrchestratorConfig tunes the grading fan-out.
type OrchestratorConfig struct {
	// Concurrency bounds in-flight model calls. Values below one mean strictly sequential grading.
	Concurrency int
	// CallTimeout bounds each per-submission model call. Zero disables the deadline.
	CallTimeout time.Duration
}

// Orchestrator grades every submission of a request with a shared prompt.
type Orchestrator struct {
	model       ai.DocumentModel
	parser      *Parser
	concurrency int
	callTimeout time.Duration
	logger      zerolog.Logger
	tracer      trace.Tracer
}

// NewOrchestrator constructs the grading orchestrator.
func NewOrchestrator(model ai.DocumentModel, parser *Parser, cfg OrchestratorConfig, logger zerolog.Logger) *Orchestrator {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if parser == nil {
		parser = NewParser(logger)
	}

	return &Orchestrator{
		model:       model,
		parser:      parser,
		concurrency: cfg.Concurrency,
		callTimeout: cfg.CallTimeout,
		logger:      logger.With().Str("component", "grading_orchestrator").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/gema-grader/internal/grading/orchestrator"),
	}
}

// GradeBatch grades each submission independently. The returned batch always has one entry per
// submission, in input order; only ErrNoSubmissions is returned as an error.
func (o *Orchestrator) GradeBatch(ctx context.Context, prompt Prompt, req Request) (Batch, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, span := o.tracer.Start(ctx, "grading.grade_batch", trace.WithAttributes(
		attribute.Int("grading.submissions", len(req.Submissions)),
		attribute.String("grading.prompt_source", string(prompt.Source)),
		attribute.Int("grading.concurrency", o.concurrency),
	))
	defer span.End()

	shared := sharedParts(prompt, req)
	results := make(Batch, len(req.Submissions))

	var group errgroup.Group
	group.SetLimit(o.concurrency)
	for i := range req.Submissions {
		group.Go(func() error {
			results[i] = o.gradeOne(ctx, i, shared, req.Submissions[i])
			return nil
		})
	}
	_ = group.Wait()

	failed := 0
	for _, result := range results {
		if result.Failed() {
			failed++
		}
	}
	span.SetAttributes(attribute.Int("grading.failed", failed))
	o.logger.Info().
		Int("submissions", len(results)).
		Int("failed", failed).
		Str("prompt_source", string(prompt.Source)).
		Msg("batch graded")

	return results, nil
}

func sharedParts(prompt Prompt, req Request) []ai.Part {
	parts := make([]ai.Part, 0, 3+2*len(req.SolvedExams))
	parts = append(parts, ai.TextPart(prompt.Text))

	if req.ExamTemplate != nil {
		parts = append(parts,
			ai.TextPart(labelBlankTemplate),
			ai.NewDocumentPart(req.ExamTemplate.Data, req.ExamTemplate.MediaType),
		)
	}

	for i, solved := range req.SolvedExams {
		parts = append(parts,
			ai.TextPart(fmt.Sprintf(labelAnswerKeyFmt, i+1)),
			ai.NewDocumentPart(solved.Data, solved.MediaType),
		)
	}

	return parts
}

func (o *Orchestrator) gradeOne(ctx context.Context, index int, shared []ai.Part, submission Artifact) (result GradeResult) {
	ctx, span := o.tracer.Start(ctx, "grading.grade_submission", trace.WithAttributes(
		attribute.Int("grading.index", index),
	))
	defer span.End()

	logger := o.logger.With().Int("submission_index", index).Logger()
	fail := func(kind FailureKind, err error) GradeResult {
		observability.SubmissionOutcomes().WithLabelValues(string(kind)).Inc()
		span.SetStatus(codes.Error, string(kind))
		if err != nil {
			span.RecordError(err)
		}
		logger.Warn().Err(err).Str("failure", string(kind)).Msg("submission could not be graded")
		return Placeholder(kind)
	}

	defer func() {
		if r := recover(); r != nil {
			result = fail(FailureTransport, fmt.Errorf("model client panic: %v", r))
		}
	}()

	if err := ctx.Err(); err != nil {
		return fail(FailureCancelled, err)
	}
	if o.model == nil {
		return fail(FailureTransport, errors.New("no model configured"))
	}

	parts := make([]ai.Part, 0, len(shared)+2)
	parts = append(parts, shared...)
	parts = append(parts,
		ai.TextPart(labelSubmissionText),
		ai.NewDocumentPart(submission.Data, submission.MediaType),
	)

	callCtx := ctx
	if o.callTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, o.callTimeout)
		defer cancel()
	}

	text, err := o.model.GenerateContent(callCtx, parts)
	if err != nil {
		switch {
		case ctx.Err() != nil:
			return fail(FailureCancelled, err)
		case errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded):
			return fail(FailureTimeout, err)
		default:
			return fail(FailureTransport, err)
		}
	}

	parsed, err := o.parser.Parse(text)
	if err != nil {
		return fail(FailureParse, err)
	}

	observability.SubmissionOutcomes().WithLabelValues("graded").Inc()
	if len(parsed.Warnings) > 0 {
		logger.Warn().Int("anomalies", len(parsed.Warnings)).Msg("grading response contains out-of-range values")
	}
	return parsed
}
