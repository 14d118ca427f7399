package outbox

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMessageDue(t *testing.T) {
	now := time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		msg  Message
		want bool
	}{
		{name: "scheduled now", msg: Message{MaxRetries: 3, NextRetryAt: now}, want: true},
		{name: "scheduled earlier", msg: Message{MaxRetries: 3, NextRetryAt: now.Add(-time.Minute)}, want: true},
		{name: "scheduled later", msg: Message{MaxRetries: 3, NextRetryAt: now.Add(time.Second)}, want: false},
		{name: "retries exhausted", msg: Message{RetryCount: 3, MaxRetries: 3, NextRetryAt: now}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.msg.Due(now))
		})
	}
}

func TestMessageFail(t *testing.T) {
	now := time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)

	failure := Message{RetryCount: 2}.Fail(errors.New("channel closed"), now, 4*time.Minute)

	assert.Equal(t, Failure{
		RetryCount:  3,
		LastError:   "channel closed",
		FailedAt:    now,
		NextRetryAt: now.Add(4 * time.Minute),
	}, failure)
}

func TestDestinationEnabled(t *testing.T) {
	assert.False(t, Destination{ExchangeName: "shop.events"}.Enabled())
	assert.True(t, Destination{RoutingKey: "order.events"}.Enabled())
}
