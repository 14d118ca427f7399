package order

import (
	"errors"
	"math"
	"time"

	"github.com/corray333/backend-labs/shop/internal/service/models/customer"
	"github.com/corray333/backend-labs/shop/internal/service/models/orderitem"
)

// Order represents an order in the system.
type Order struct {
	ID              int64                 `json:"id"`
	CustomerID      int64                 `json:"customerId"`
	TotalOrderPrice int64                 `json:"totalOrderPrice"`
	LineItemCount   int                   `json:"lineItemCount"`
	CreatedAt       time.Time             `json:"createdAt"`
	UpdatedAt       time.Time             `json:"updatedAt"`
	Customer        *customer.Customer    `json:"customer,omitempty"`
	OrderItems      []orderitem.OrderItem `json:"orderItems"`
}

// ErrTotalOverflow is returned when an order total does not fit in an int64.
var ErrTotalOverflow = errors.New("total order price overflows")

// TotalPrice sums price * quantity over the given line items.
// Prices and quantities are expected to be non-negative.
func TotalPrice(items []orderitem.OrderItem) (int64, error) {
	var total int64
	for _, item := range items {
		quantity := int64(item.Quantity)
		if quantity <= 0 {
			continue
		}
		if item.Price > (math.MaxInt64-total)/quantity {
			return 0, ErrTotalOverflow
		}
		total += item.Price * quantity
	}

	return total, nil
}
