package outbox

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/corray333/backend-labs/shop/internal/dal/interfaces/ioutboxrepo"
	"github.com/corray333/backend-labs/shop/internal/metrics"
	"github.com/corray333/backend-labs/shop/internal/service/models/outbox"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

// publisher delivers a single outbox message to the broker.
type publisher interface {
	Publish(ctx context.Context, msg outbox.Message) error
}

// Worker relays messages from the outbox table to the broker.
type Worker struct {
	outboxRepo    ioutboxrepo.IOutboxRepository
	publisher     publisher
	metrics       *metrics.Metrics
	now           func() time.Time
	pollInterval  time.Duration
	batchSize     int
	concurrency   int
	retryInterval time.Duration
}

type option func(*Worker)

// WithMetrics records published and failed deliveries.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithMetrics(m *metrics.Metrics) option {
	return func(w *Worker) {
		w.metrics = m
	}
}

// WithClock overrides the time source used for retry scheduling.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithClock(now func() time.Time) option {
	return func(w *Worker) {
		w.now = now
	}
}

// WithPollInterval overrides rabbitmq.outbox.poll_interval_seconds.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPollInterval(d time.Duration) option {
	return func(w *Worker) {
		w.pollInterval = d
	}
}

// NewWorker creates a new outbox worker.
func NewWorker(
	outboxRepo ioutboxrepo.IOutboxRepository,
	pub publisher,
	opts ...option,
) *Worker {
	pollIntervalSeconds := viper.GetInt("rabbitmq.outbox.poll_interval_seconds")
	if pollIntervalSeconds == 0 {
		pollIntervalSeconds = 10
	}

	batchSize := viper.GetInt("rabbitmq.outbox.batch_size")
	if batchSize == 0 {
		batchSize = 100
	}

	retryIntervalSeconds := viper.GetInt("rabbitmq.outbox.retry_interval_seconds")
	if retryIntervalSeconds == 0 {
		retryIntervalSeconds = 30
	}

	concurrency := viper.GetInt("rabbitmq.outbox.concurrency")
	if concurrency <= 0 {
		concurrency = 4
	}

	w := &Worker{
		outboxRepo:    outboxRepo,
		publisher:     pub,
		now:           time.Now,
		pollInterval:  time.Duration(pollIntervalSeconds) * time.Second,
		batchSize:     batchSize,
		concurrency:   concurrency,
		retryInterval: time.Duration(retryIntervalSeconds) * time.Second,
	}
	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Start begins processing messages from the outbox until ctx is done.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	slog.Info("Outbox worker started", "poll_interval", w.pollInterval, "batch_size", w.batchSize)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Outbox worker shutting down")

			return
		case <-ticker.C:
			w.ProcessMessages(ctx)
		}
	}
}

// Backoff returns the delay before the given retry attempt.
func (w *Worker) Backoff(retryCount int) time.Duration {
	return time.Duration(math.Pow(2, float64(retryCount))) * w.retryInterval
}

// ProcessMessages publishes one batch of pending messages and returns how many were delivered.
func (w *Worker) ProcessMessages(ctx context.Context) int {
	messages, err := w.outboxRepo.Due(ctx, w.now(), w.batchSize)
	if err != nil {
		slog.Error("Failed to get pending messages from outbox", "error", err)

		return 0
	}

	if len(messages) == 0 {
		return 0
	}

	slog.Info("Processing outbox messages", "count", len(messages))

	delivered := make([]bool, len(messages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)
	for i, msg := range messages {
		g.Go(func() error {
			delivered[i] = w.relay(gctx, msg)

			return nil
		})
	}
	_ = g.Wait()

	count := 0
	for _, ok := range delivered {
		if ok {
			count++
		}
	}

	return count
}

func (w *Worker) relay(ctx context.Context, msg outbox.Message) bool {
	if err := w.publisher.Publish(ctx, msg); err != nil {
		w.metrics.RecordOutboxFailed()

		failure := msg.Fail(err, w.now(), w.Backoff(msg.RetryCount+1))

		slog.Warn("Failed to publish message from outbox, will retry",
			"outbox_id", msg.ID,
			"message_id", msg.MessageID,
			"retry_count", failure.RetryCount,
			"next_retry", failure.NextRetryAt,
			"error", err,
		)

		if failure.RetryCount >= msg.MaxRetries {
			slog.Error("Outbox message exhausted its retries", "outbox_id", msg.ID, "message_id", msg.MessageID)
		}

		if err := w.outboxRepo.MarkFailed(ctx, msg.ID, failure); err != nil {
			slog.Error("Failed to update retry information", "outbox_id", msg.ID, "error", err)
		}

		return false
	}

	w.metrics.RecordOutboxPublished()

	if err := w.outboxRepo.MarkDelivered(ctx, msg.ID); err != nil {
		slog.Error("Failed to delete message from outbox after successful publish",
			"outbox_id", msg.ID,
			"error", err,
		)
	} else {
		slog.Debug("Message published and removed from outbox", "outbox_id", msg.ID)
	}

	return true
}
