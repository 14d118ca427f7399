package rabbitmq

import (
	"testing"
	"time"

	"github.com/corray333/backend-labs/shop/internal/service/models/outbox"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
)

func TestNewPublishing(t *testing.T) {
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	msg := outbox.Message{
		MessageID:   "3f0c7a5e-1111-4d2b-9a55-000000000001",
		ContentType: "application/json",
		Payload:     []byte(`{"event":"order.created"}`),
		CreatedAt:   created,
	}

	p := NewPublishing(msg)

	assert.Equal(t, msg.MessageID, p.MessageId)
	assert.Equal(t, "application/json", p.ContentType)
	assert.Equal(t, amqp.Persistent, p.DeliveryMode)
	assert.Equal(t, created, p.Timestamp)
	assert.Equal(t, msg.Payload, p.Body)
}

func TestNewClientFailsOnBadURL(t *testing.T) {
	_, err := NewClient("not-a-url://")
	assert.Error(t, err)
}
