package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/noah-isme/gema-grader/internal/dto"
	"github.com/noah-isme/gema-grader/internal/grading"
	"github.com/noah-isme/gema-grader/internal/observability"
)

// PromptResolver produces the grading prompt for a request.
type PromptResolver interface {
	Resolve(ctx context.Context, req grading.Request) grading.Prompt
}

// BatchGrader grades every submission of a request with a resolved prompt.
type BatchGrader interface {
	GradeBatch(ctx context.Context, prompt grading.Prompt, req grading.Request) (grading.Batch, error)
}

// WorkbookExporter renders a graded batch as a spreadsheet.
type WorkbookExporter interface {
	Export(batch grading.Batch) ([]byte, error)
}

// GradingService runs the full grading pipeline for one request.
type GradingService interface {
	Grade(ctx context.Context, req grading.Request, identity string) (dto.GradeResponse, error)
}

type gradingService struct {
	resolver PromptResolver
	grader   BatchGrader
	exporter WorkbookExporter
	history  HistoryService
	notifier BatchNotifier
	logger   zerolog.Logger
	now      func() time.Time
}

// NewGradingService wires the grading pipeline. history and notifier are optional.
func NewGradingService(resolver PromptResolver, grader BatchGrader, exporter WorkbookExporter, history HistoryService, notifier BatchNotifier, logger zerolog.Logger) GradingService {
	return &gradingService{
		resolver: resolver,
		grader:   grader,
		exporter: exporter,
		history:  history,
		notifier: notifier,
		logger:   logger.With().Str("component", "grading_service").Logger(),
		now:      time.Now,
	}
}

func (s *gradingService) Grade(ctx context.Context, req grading.Request, identity string) (dto.GradeResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/gema-grader/internal/service/grading")
	ctx, span := tracer.Start(ctx, "grading.request")
	span.SetAttributes(
		attribute.Int("grading.submissions", len(req.Submissions)),
		attribute.Int("grading.solved_exams", len(req.SolvedExams)),
		attribute.Bool("grading.has_template", req.ExamTemplate != nil),
	)
	defer span.End()

	if err := req.Validate(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.GradeResponse{}, err
	}

	prompt := s.resolver.Resolve(ctx, req)
	span.SetAttributes(attribute.String("grading.prompt_source", string(prompt.Source)))

	batch, err := s.grader.GradeBatch(ctx, prompt, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "grade_batch_failed")
		return dto.GradeResponse{}, err
	}

	batch = grading.Finalize(batch, req.Submissions)
	summary := grading.Summarize(batch)
	observability.BatchSizes().Observe(float64(summary.StudentCount))

	started := time.Now()
	workbook, err := s.exporter.Export(batch)
	observability.WorkbookExportLatency().Observe(time.Since(started).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "workbook_export_failed")
		return dto.GradeResponse{}, fmt.Errorf("export workbook: %w", err)
	}

	response := dto.GradeResponse{
		Results:   batch,
		ExcelFile: base64.StdEncoding.EncodeToString(workbook),
	}

	entry := dto.HistoryEntry{
		ID:           uuid.NewString(),
		Timestamp:    s.now().UTC(),
		Results:      response.Results,
		ExcelFile:    response.ExcelFile,
		StudentCount: summary.StudentCount,
		AverageScore: summary.AverageScore,
	}

	if s.history != nil {
		s.history.Record(ctx, entry, identity)
	}

	failed := 0
	for _, result := range batch {
		if result.Failed() {
			failed++
		}
	}

	if s.notifier != nil {
		event := dto.BatchCompletedEvent{
			ID:           entry.ID,
			Timestamp:    entry.Timestamp,
			StudentCount: summary.StudentCount,
			AverageScore: summary.AverageScore,
			Failed:       failed,
			PromptSource: string(prompt.Source),
		}
		if err := s.notifier.BatchCompleted(ctx, event); err != nil {
			span.RecordError(err)
			s.logger.Warn().Err(err).Str("history_id", entry.ID).Msg("failed to publish batch event")
		}
	}

	s.logger.Info().
		Str("history_id", entry.ID).
		Int("student_count", summary.StudentCount).
		Int("average_score", summary.AverageScore).
		Int("failed", failed).
		Bool("identified", identity != "").
		Msg("grading request completed")

	return response, nil
}
