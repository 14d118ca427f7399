package outbox

import (
	"time"
)

// Message is an order event waiting to be published to RabbitMQ.
type Message struct {
	ID           int64
	MessageID    string
	ExchangeName string
	RoutingKey   string
	Payload      []byte
	ContentType  string
	RetryCount   int
	MaxRetries   int
	LastError    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	NextRetryAt  time.Time
}

// Due reports whether the message should be delivered at now.
func (m Message) Due(now time.Time) bool {
	return !m.NextRetryAt.After(now) && m.RetryCount < m.MaxRetries
}

// Failure records a failed delivery attempt and when to try again.
type Failure struct {
	RetryCount  int
	LastError   string
	FailedAt    time.Time
	NextRetryAt time.Time
}

// Fail returns the failure of the next attempt of m, retried after backoff.
func (m Message) Fail(err error, now time.Time, backoff time.Duration) Failure {
	return Failure{
		RetryCount:  m.RetryCount + 1,
		LastError:   err.Error(),
		FailedAt:    now,
		NextRetryAt: now.Add(backoff),
	}
}
