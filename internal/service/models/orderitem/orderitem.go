package orderitem

import (
	"math"
	"time"
)

// MaxQuantity is the largest quantity the order_items.quantity column can hold.
const MaxQuantity = math.MaxInt32

// OrderItem represents a line item within an order.
// Price is the product price captured when the order was placed or last edited.
type OrderItem struct {
	ID        int64     `json:"id"`
	OrderID   int64     `json:"orderId"`
	ProductID int64     `json:"productId"`
	Quantity  int       `json:"quantity"`
	Price     int64     `json:"price"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ItemInput is a requested line item.
type ItemInput struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}
