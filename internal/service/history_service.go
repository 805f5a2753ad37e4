package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/datatypes"

	"github.com/noah-isme/gema-grader/internal/dto"
	"github.com/noah-isme/gema-grader/internal/models"
	"github.com/noah-isme/gema-grader/internal/observability"
	"github.com/noah-isme/gema-grader/internal/repository"
	"github.com/noah-isme/gema-grader/pkg/envelope"
)

var (
	// ErrHistoryUnavailable indicates the requested history store is not configured.
	ErrHistoryUnavailable = errors.New("history store unavailable")
	// ErrHistoryNotFound indicates the history entry does not exist.
	ErrHistoryNotFound = errors.New("history entry not found")
	// ErrIdentityRequired indicates cloud history was requested without an identity.
	ErrIdentityRequired = errors.New("identity required")
)

// HistoryService manages the local and per-user grading history.
type HistoryService interface {
	Record(ctx context.Context, entry dto.HistoryEntry, identity string)
	ListLocal(ctx context.Context) ([]dto.HistoryEntry, error)
	DeleteLocal(ctx context.Context, id string) ([]dto.HistoryEntry, error)
	ClearLocal(ctx context.Context) error
	ListCloud(ctx context.Context, identity string) ([]dto.HistoryEntry, error)
	DeleteCloud(ctx context.Context, identity, id string) error
}

type historyService struct {
	local  repository.LocalHistoryRepository
	cloud  repository.CloudHistoryRepository
	sealer *envelope.Sealer
	logger zerolog.Logger
}

// NewHistoryService constructs the history service. Either store may be nil; cloud history also needs a sealer.
func NewHistoryService(local repository.LocalHistoryRepository, cloud repository.CloudHistoryRepository, sealer *envelope.Sealer, logger zerolog.Logger) HistoryService {
	if sealer == nil {
		cloud = nil
	}
	return &historyService{
		local:  local,
		cloud:  cloud,
		sealer: sealer,
		logger: logger.With().Str("component", "history_service").Logger(),
	}
}

// Record stores the entry locally and, for identified users, in the cloud store. Failures are logged only.
func (s *historyService) Record(ctx context.Context, entry dto.HistoryEntry, identity string) {
	tracer := otel.Tracer("github.com/noah-isme/gema-grader/internal/service/history")
	ctx, span := tracer.Start(ctx, "history.record")
	span.SetAttributes(
		attribute.Int("history.student_count", entry.StudentCount),
		attribute.Bool("history.identified", identity != ""),
	)
	defer span.End()

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	if s.local != nil {
		if err := s.local.Prepend(ctx, entry); err != nil {
			span.RecordError(err)
			observability.HistoryWriteFailures().WithLabelValues("local").Inc()
			s.logger.Warn().Err(err).Str("history_id", entry.ID).Msg("failed to store local history")
		}
	}

	if s.cloud == nil || identity == "" {
		return
	}

	sealed, err := s.sealer.Seal(identity, entry.Payload())
	if err != nil {
		span.RecordError(err)
		observability.HistoryWriteFailures().WithLabelValues("cloud").Inc()
		s.logger.Warn().Err(err).Str("history_id", entry.ID).Msg("failed to seal cloud history")
		return
	}

	record := &models.HistoryRecord{
		ID:            entry.ID,
		UserID:        identity,
		Timestamp:     entry.Timestamp,
		EncryptedData: sealed,
		Labels:        datatypes.JSONMap{"studentCount": entry.StudentCount},
	}
	if err := s.cloud.Create(ctx, record); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "cloud_history_write_failed")
		observability.HistoryWriteFailures().WithLabelValues("cloud").Inc()
		s.logger.Warn().Err(err).Str("history_id", entry.ID).Msg("failed to store cloud history")
	}
}

func (s *historyService) ListLocal(ctx context.Context) ([]dto.HistoryEntry, error) {
	if s.local == nil {
		return nil, ErrHistoryUnavailable
	}
	return s.local.List(ctx)
}

func (s *historyService) DeleteLocal(ctx context.Context, id string) ([]dto.HistoryEntry, error) {
	if s.local == nil {
		return nil, ErrHistoryUnavailable
	}
	return s.local.Delete(ctx, id)
}

func (s *historyService) ClearLocal(ctx context.Context) error {
	if s.local == nil {
		return ErrHistoryUnavailable
	}
	return s.local.Clear(ctx)
}

func (s *historyService) ListCloud(ctx context.Context, identity string) ([]dto.HistoryEntry, error) {
	if s.cloud == nil {
		return nil, ErrHistoryUnavailable
	}
	if identity == "" {
		return nil, ErrIdentityRequired
	}

	records, err := s.cloud.ListByUser(ctx, identity)
	if err != nil {
		return nil, err
	}

	entries := make([]dto.HistoryEntry, 0, len(records))
	for _, record := range records {
		var payload dto.HistoryPayload
		if err := s.sealer.Open(identity, record.EncryptedData, &payload); err != nil {
			s.logger.Warn().Err(err).Str("history_id", record.ID).Msg("skipping unreadable cloud history entry")
			continue
		}
		entries = append(entries, dto.HistoryEntry{
			ID:           record.ID,
			Timestamp:    record.Timestamp,
			Results:      payload.Results,
			ExcelFile:    payload.ExcelFile,
			StudentCount: payload.StudentCount,
			AverageScore: payload.AverageScore,
		})
	}
	return entries, nil
}

func (s *historyService) DeleteCloud(ctx context.Context, identity, id string) error {
	if s.cloud == nil {
		return ErrHistoryUnavailable
	}
	if identity == "" {
		return ErrIdentityRequired
	}

	if err := s.cloud.Delete(ctx, identity, id); err != nil {
		if errors.Is(err, repository.ErrHistoryNotFound) {
			return ErrHistoryNotFound
		}
		return err
	}
	return nil
}
