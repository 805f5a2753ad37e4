package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/gema-grader/internal/dto"
)

// DefaultHistoryLimit caps the local history list.
const DefaultHistoryLimit = 50

// LocalHistoryRepository stores the newest-first grading history under a fixed key.
type LocalHistoryRepository interface {
	Prepend(ctx context.Context, entry dto.HistoryEntry) error
	List(ctx context.Context) ([]dto.HistoryEntry, error)
	Delete(ctx context.Context, id string) ([]dto.HistoryEntry, error)
	Clear(ctx context.Context) error
}

type localHistoryRepository struct {
	client *redis.Client
	key    string
	limit  int

	// beforeRemove runs between reading the list and removing the matched entries.
	beforeRemove func()
}

// NewLocalHistoryRepository instantiates the repository.
func NewLocalHistoryRepository(client *redis.Client, key string, limit int) LocalHistoryRepository {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &localHistoryRepository{client: client, key: key, limit: limit}
}

func (r *localHistoryRepository) Prepend(ctx context.Context, entry dto.HistoryEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal history entry: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, r.key, payload)
		pipe.LTrim(ctx, r.key, 0, int64(r.limit-1))
		return nil
	})
	return err
}

func (r *localHistoryRepository) List(ctx context.Context) ([]dto.HistoryEntry, error) {
	values, err := r.client.LRange(ctx, r.key, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	return decodeHistory(values), nil
}

// Delete removes the stored values whose entry matches id. Entries pushed concurrently are left in place.
func (r *localHistoryRepository) Delete(ctx context.Context, id string) ([]dto.HistoryEntry, error) {
	values, err := r.client.LRange(ctx, r.key, 0, -1).Result()
	if err != nil {
		return nil, err
	}

	var matched []string
	for _, value := range values {
		var entry dto.HistoryEntry
		if err := json.Unmarshal([]byte(value), &entry); err != nil {
			continue
		}
		if entry.ID == id {
			matched = append(matched, value)
		}
	}
	if len(matched) == 0 {
		return decodeHistory(values), nil
	}

	if r.beforeRemove != nil {
		r.beforeRemove()
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, value := range matched {
			pipe.LRem(ctx, r.key, 1, value)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.List(ctx)
}

func (r *localHistoryRepository) Clear(ctx context.Context) error {
	return r.client.Del(ctx, r.key).Err()
}

func decodeHistory(values []string) []dto.HistoryEntry {
	entries := make([]dto.HistoryEntry, 0, len(values))
	for _, value := range values {
		var entry dto.HistoryEntry
		if err := json.Unmarshal([]byte(value), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}
