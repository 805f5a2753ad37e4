package service

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"

	"github.com/noah-isme/gema-grader/internal/dto"
)

// BatchNotifier announces completed grading batches to other services.
type BatchNotifier interface {
	BatchCompleted(ctx context.Context, event dto.BatchCompletedEvent) error
}

type natsBatchNotifier struct {
	conn    *nats.Conn
	subject string
}

// NewBatchNotifier publishes batch events on the given NATS subject. It returns nil when NATS is not configured.
func NewBatchNotifier(conn *nats.Conn, subject string) BatchNotifier {
	if conn == nil || subject == "" {
		return nil
	}
	return &natsBatchNotifier{conn: conn, subject: subject}
}

func (n *natsBatchNotifier) BatchCompleted(ctx context.Context, event dto.BatchCompletedEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return n.conn.Publish(n.subject, payload)
}
