package ordersvc

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/corray333/backend-labs/shop/internal/service/models/order"
	"github.com/corray333/backend-labs/shop/internal/service/models/outbox"
	"github.com/google/uuid"
)

const defaultMaxRetries = 5

// enqueueEvent writes an order event to the outbox of the current transaction.
// Nothing is written when no destination is configured.
func (s *OrderService) enqueueEvent(
	ctx context.Context,
	work unitOfWork,
	event outbox.EventType,
	o *order.Order,
	now time.Time,
) error {
	if !s.destination.Enabled() {
		return nil
	}

	payload, err := json.Marshal(outbox.OrderEvent{
		Event:           event,
		OrderID:         o.ID,
		CustomerID:      o.CustomerID,
		TotalOrderPrice: o.TotalOrderPrice,
		LineItemCount:   o.LineItemCount,
		OccurredAt:      now,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", event, err)
	}

	maxRetries := s.destination.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	err = work.OutboxRepository().Enqueue(ctx, outbox.Message{
		MessageID:    uuid.NewString(),
		ExchangeName: s.destination.ExchangeName,
		RoutingKey:   s.destination.RoutingKey,
		Payload:      payload,
		ContentType:  "application/json",
		MaxRetries:   maxRetries,
		CreatedAt:    now,
		UpdatedAt:    now,
		NextRetryAt:  now,
	})
	if err != nil {
		return fmt.Errorf("failed to enqueue %s event: %w", event, err)
	}

	return nil
}
