package iorderrepo

import (
	"context"
	"time"

	"github.com/corray333/backend-labs/shop/internal/service/models/order"
)

// IOrderRepository is an interface for order repository.
type IOrderRepository interface {
	Query(ctx context.Context, filter *order.QueryOrdersModel) ([]order.Order, error)
	Count(ctx context.Context, filter *order.QueryOrdersModel) (int, error)
	GetByID(ctx context.Context, id int64) (*order.Order, error)
	// LockByID loads the order and holds it until the surrounding transaction ends.
	LockByID(ctx context.Context, id int64) (*order.Order, error)
	Insert(ctx context.Context, o order.Order) (*order.Order, error)
	UpdateTotal(ctx context.Context, id int64, total int64, updatedAt time.Time) (*order.Order, error)
	Delete(ctx context.Context, id int64) (*order.Order, error)
}
