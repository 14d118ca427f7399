package outbox

import "time"

// EventType names an order lifecycle event.
type EventType string

const (
	EventOrderCreated EventType = "order.created"
	EventOrderUpdated EventType = "order.updated"
	EventOrderDeleted EventType = "order.deleted"
)

// OrderEvent is the payload published for order lifecycle events.
type OrderEvent struct {
	Event           EventType `json:"event"`
	OrderID         int64     `json:"orderId"`
	CustomerID      int64     `json:"customerId"`
	TotalOrderPrice int64     `json:"totalOrderPrice"`
	LineItemCount   int       `json:"lineItemCount"`
	OccurredAt      time.Time `json:"occurredAt"`
}

// Destination is where order events are routed.
type Destination struct {
	ExchangeName string
	RoutingKey   string
	MaxRetries   int
}

// Enabled reports whether events should be written to the outbox.
func (d Destination) Enabled() bool {
	return d.RoutingKey != ""
}
