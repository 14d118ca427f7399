package postgresrepo

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/shop/internal/dal/postgres"
	"github.com/corray333/backend-labs/shop/internal/service/models/outbox"
	"github.com/jackc/pgx/v5"
)

const table = "outbox"

// columns lists the outbox columns in scan order, id excluded.
var columns = []string{
	"message_id",
	"exchange_name",
	"routing_key",
	"payload",
	"content_type",
	"retry_count",
	"max_retries",
	"last_error",
	"created_at",
	"updated_at",
	"next_retry_at",
}

// OutboxRepository implements the outbox repository for PostgreSQL.
type OutboxRepository struct {
	conn postgres.Conn
	sb   sq.StatementBuilderType
}

// NewOutboxRepository creates a new outbox repository.
func NewOutboxRepository(conn postgres.Conn) *OutboxRepository {
	return &OutboxRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *OutboxRepository) enqueueQuery(msg outbox.Message) sq.InsertBuilder {
	return r.sb.Insert(table).
		Columns(columns...).
		Values(
			msg.MessageID,
			msg.ExchangeName,
			msg.RoutingKey,
			msg.Payload,
			msg.ContentType,
			msg.RetryCount,
			msg.MaxRetries,
			msg.LastError,
			msg.CreatedAt,
			msg.UpdatedAt,
			msg.NextRetryAt,
		)
}

// Enqueue stores msg. A repeated message id violates the unique constraint.
func (r *OutboxRepository) Enqueue(ctx context.Context, msg outbox.Message) error {
	query, args, err := r.enqueueQuery(msg).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert query: %w", err)
	}

	if _, err := r.conn.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to enqueue outbox message %s: %w", msg.MessageID, err)
	}

	return nil
}

// dueQuery selects messages due for delivery, oldest schedule first.
// SKIP LOCKED keeps concurrent relays inside a transaction off the same rows.
func (r *OutboxRepository) dueQuery(now time.Time, limit int) sq.SelectBuilder {
	return r.sb.Select(append([]string{"id"}, columns...)...).
		From(table).
		Where(sq.LtOrEq{"next_retry_at": now}).
		Where(sq.Expr("retry_count < max_retries")).
		OrderBy("next_retry_at ASC", "id ASC").
		Limit(uint64(limit)).
		Suffix("FOR UPDATE SKIP LOCKED")
}

// Due returns up to limit messages deliverable at now.
func (r *OutboxRepository) Due(ctx context.Context, now time.Time, limit int) ([]outbox.Message, error) {
	query, args, err := r.dueQuery(now, limit).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query outbox messages: %w", err)
	}

	messages, err := pgx.CollectRows(rows, scanMessage)
	if err != nil {
		return nil, fmt.Errorf("failed to scan outbox messages: %w", err)
	}

	return messages, nil
}

func scanMessage(row pgx.CollectableRow) (outbox.Message, error) {
	var msg outbox.Message
	err := row.Scan(
		&msg.ID,
		&msg.MessageID,
		&msg.ExchangeName,
		&msg.RoutingKey,
		&msg.Payload,
		&msg.ContentType,
		&msg.RetryCount,
		&msg.MaxRetries,
		&msg.LastError,
		&msg.CreatedAt,
		&msg.UpdatedAt,
		&msg.NextRetryAt,
	)

	return msg, err
}

// MarkDelivered removes a delivered message.
func (r *OutboxRepository) MarkDelivered(ctx context.Context, id int64) error {
	query, args, err := r.sb.Delete(table).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete query: %w", err)
	}

	if _, err := r.conn.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete outbox message %d: %w", id, err)
	}

	return nil
}

func (r *OutboxRepository) markFailedQuery(id int64, failure outbox.Failure) sq.UpdateBuilder {
	return r.sb.Update(table).
		SetMap(map[string]any{
			"retry_count":   failure.RetryCount,
			"last_error":    failure.LastError,
			"next_retry_at": failure.NextRetryAt,
			"updated_at":    failure.FailedAt,
		}).
		Where(sq.Eq{"id": id})
}

// MarkFailed records a failed delivery attempt.
func (r *OutboxRepository) MarkFailed(ctx context.Context, id int64, failure outbox.Failure) error {
	query, args, err := r.markFailedQuery(id, failure).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}

	if _, err := r.conn.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update outbox message %d: %w", id, err)
	}

	return nil
}
