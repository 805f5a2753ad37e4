package models

import (
	"time"

	"gorm.io/datatypes"
)

// HistoryRecord is a sealed grading batch stored for one user.
type HistoryRecord struct {
	ID            string            `gorm:"primaryKey;size:36" json:"id"`
	UserID        string            `gorm:"size:128;not null;index:idx_history_user_time,priority:1" json:"user_id"`
	Timestamp     time.Time         `gorm:"not null;index:idx_history_user_time,priority:2" json:"timestamp"`
	EncryptedData string            `gorm:"type:text;not null" json:"-"`
	Labels        datatypes.JSONMap `json:"labels"`
	CreatedAt     time.Time         `json:"created_at"`
}

// TableName overrides the default table name.
func (HistoryRecord) TableName() string {
	return "grading_history"
}
