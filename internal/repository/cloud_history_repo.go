package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-grader/internal/models"
)

// ErrHistoryNotFound indicates the history record does not exist for the user.
var ErrHistoryNotFound = errors.New("history entry not found")

// CloudHistoryRepository persists sealed history records per user.
type CloudHistoryRepository interface {
	Create(ctx context.Context, record *models.HistoryRecord) error
	ListByUser(ctx context.Context, userID string) ([]models.HistoryRecord, error)
	Delete(ctx context.Context, userID, id string) error
}

type cloudHistoryRepository struct {
	db *gorm.DB
}

// NewCloudHistoryRepository instantiates the repository.
func NewCloudHistoryRepository(db *gorm.DB) CloudHistoryRepository {
	return &cloudHistoryRepository{db: db}
}

func (r *cloudHistoryRepository) Create(ctx context.Context, record *models.HistoryRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *cloudHistoryRepository) ListByUser(ctx context.Context, userID string) ([]models.HistoryRecord, error) {
	var records []models.HistoryRecord
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp DESC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *cloudHistoryRepository) Delete(ctx context.Context, userID, id string) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		Delete(&models.HistoryRecord{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrHistoryNotFound
	}
	return nil
}
