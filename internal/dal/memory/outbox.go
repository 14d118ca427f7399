package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/corray333/backend-labs/shop/internal/service/models/outbox"
)

// OutboxRepository is the in-memory outbox repository.
type OutboxRepository struct {
	acc access
}

// Enqueue stores msg under a new id. Message ids are unique.
func (r *OutboxRepository) Enqueue(_ context.Context, msg outbox.Message) error {
	return r.acc.write(func(st *state) error {
		for _, existing := range st.outbox {
			if existing.MessageID == msg.MessageID {
				return fmt.Errorf("failed to enqueue outbox message: duplicate message id %s", msg.MessageID)
			}
		}
		st.seq.outbox++
		msg.ID = st.seq.outbox
		st.outbox[msg.ID] = msg

		return nil
	})
}

// Due returns messages deliverable at now, earliest schedule first.
func (r *OutboxRepository) Due(_ context.Context, now time.Time, limit int) ([]outbox.Message, error) {
	var result []outbox.Message
	err := r.acc.read(func(st *state) error {
		due := make([]outbox.Message, 0)
		for _, msg := range sortedValues(st.outbox) {
			if msg.Due(now) {
				due = append(due, msg)
			}
		}
		sort.SliceStable(due, func(i, j int) bool {
			return due[i].NextRetryAt.Before(due[j].NextRetryAt)
		})
		result = paginate(due, limit, 0)

		return nil
	})

	return result, err
}

// MarkDelivered drops a delivered message.
func (r *OutboxRepository) MarkDelivered(_ context.Context, id int64) error {
	return r.acc.write(func(st *state) error {
		delete(st.outbox, id)

		return nil
	})
}

// MarkFailed records a failed delivery attempt. Unknown ids are ignored.
func (r *OutboxRepository) MarkFailed(_ context.Context, id int64, failure outbox.Failure) error {
	return r.acc.write(func(st *state) error {
		msg, ok := st.outbox[id]
		if !ok {
			return nil
		}
		msg.RetryCount = failure.RetryCount
		msg.LastError = failure.LastError
		msg.NextRetryAt = failure.NextRetryAt
		msg.UpdatedAt = failure.FailedAt
		st.outbox[id] = msg

		return nil
	})
}
