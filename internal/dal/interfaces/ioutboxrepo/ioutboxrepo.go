package ioutboxrepo

import (
	"context"
	"time"

	"github.com/corray333/backend-labs/shop/internal/service/models/outbox"
)

// IOutboxRepository stores order events until the relay delivers them.
type IOutboxRepository interface {
	// Enqueue stores a message; it runs inside the order transaction.
	Enqueue(ctx context.Context, msg outbox.Message) error
	// Due returns up to limit messages deliverable at now, earliest schedule first.
	Due(ctx context.Context, now time.Time, limit int) ([]outbox.Message, error)
	MarkDelivered(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, failure outbox.Failure) error
}
