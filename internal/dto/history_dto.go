package dto

import (
	"time"

	"github.com/noah-isme/gema-grader/internal/grading"
)

// HistoryEntry is a stored grading batch as presented to clients.
type HistoryEntry struct {
	ID           string        `json:"id"`
	Timestamp    time.Time     `json:"timestamp"`
	Results      grading.Batch `json:"results"`
	ExcelFile    string        `json:"excelFile"`
	StudentCount int           `json:"studentCount"`
	AverageScore int           `json:"averageScore"`
}

// HistoryPayload is the sensitive part of a history entry, sealed before cloud storage.
type HistoryPayload struct {
	Results      grading.Batch `json:"results"`
	ExcelFile    string        `json:"excelFile"`
	StudentCount int           `json:"studentCount"`
	AverageScore int           `json:"averageScore"`
}

// Payload extracts the sealed part of the entry.
func (e HistoryEntry) Payload() HistoryPayload {
	return HistoryPayload{
		Results:      e.Results,
		ExcelFile:    e.ExcelFile,
		StudentCount: e.StudentCount,
		AverageScore: e.AverageScore,
	}
}

// HistoryListResponse wraps a list of history entries.
type HistoryListResponse struct {
	Items []HistoryEntry `json:"items"`
}

// BatchCompletedEvent is published when a grading batch finishes. It carries no student content.
type BatchCompletedEvent struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	StudentCount int       `json:"studentCount"`
	AverageScore int       `json:"averageScore"`
	Failed       int       `json:"failed"`
	PromptSource string    `json:"promptSource"`
}
