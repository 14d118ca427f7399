package postgresrepo

import (
	"strings"
	"testing"
	"time"

	"github.com/corray333/backend-labs/shop/internal/service/models/outbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDueQuery(t *testing.T) {
	repo := NewOutboxRepository(nil)
	now := time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)

	sql, args, err := repo.dueQuery(now, 5).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "SELECT id, message_id, exchange_name")
	assert.Contains(t, sql, "FROM outbox")
	assert.Contains(t, sql, "next_retry_at <= $1")
	assert.Contains(t, sql, "retry_count < max_retries")
	assert.Contains(t, sql, "ORDER BY next_retry_at ASC, id ASC")
	assert.Contains(t, sql, "LIMIT 5")
	assert.True(t, strings.HasSuffix(sql, "LIMIT 5 FOR UPDATE SKIP LOCKED"), sql)
	assert.Equal(t, []any{now}, args)
}

func TestEnqueueQuery(t *testing.T) {
	repo := NewOutboxRepository(nil)

	sql, args, err := repo.enqueueQuery(outbox.Message{MessageID: "m-1", RoutingKey: "order.events"}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "INSERT INTO outbox (message_id,exchange_name,routing_key")
	assert.Len(t, args, len(columns))
	assert.Equal(t, "m-1", args[0])
}

func TestMarkFailedQuery(t *testing.T) {
	repo := NewOutboxRepository(nil)
	failedAt := time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)

	sql, args, err := repo.markFailedQuery(7, outbox.Failure{
		RetryCount:  2,
		LastError:   "channel closed",
		FailedAt:    failedAt,
		NextRetryAt: failedAt.Add(2 * time.Minute),
	}).ToSql()
	require.NoError(t, err)

	// SetMap orders columns alphabetically.
	assert.Equal(t,
		"UPDATE outbox SET last_error = $1, next_retry_at = $2, retry_count = $3, updated_at = $4 WHERE id = $5",
		sql)
	assert.Equal(t, []any{"channel closed", failedAt.Add(2 * time.Minute), 2, failedAt, int64(7)}, args)
}
