package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/corray333/backend-labs/shop/internal/service/models/apperror"
	"github.com/corray333/backend-labs/shop/internal/service/models/order"
	"github.com/corray333/backend-labs/shop/internal/service/models/orderitem"
)

// ErrForeignKey is returned when a write references a missing row.
var ErrForeignKey = errors.New("foreign key violation")

// OrderRepository is the in-memory order repository.
type OrderRepository struct {
	acc access
}

func matchOrders(st *state, filter *order.QueryOrdersModel) []order.Order {
	ids := idSet(filter.Ids)
	name := strings.ToLower(filter.CustomerName)

	matched := make([]order.Order, 0)
	for _, o := range sortedValues(st.orders) {
		if len(ids) > 0 && !contains(ids, o.ID) {
			continue
		}
		if name != "" && !strings.Contains(strings.ToLower(st.customers[o.CustomerID].Name), name) {
			continue
		}
		if filter.CreatedFrom != nil && o.CreatedAt.Before(*filter.CreatedFrom) {
			continue
		}
		if filter.CreatedTo != nil && o.CreatedAt.After(*filter.CreatedTo) {
			continue
		}
		matched = append(matched, o)
	}

	return matched
}

func withoutRelations(o order.Order) order.Order {
	o.Customer = nil
	o.OrderItems = []orderitem.OrderItem{}

	return o
}

// Query retrieves orders based on filter criteria, ordered by id.
func (r *OrderRepository) Query(_ context.Context, filter *order.QueryOrdersModel) ([]order.Order, error) {
	var result []order.Order
	err := r.acc.read(func(st *state) error {
		result = paginate(matchOrders(st, filter), filter.Limit, filter.Offset)

		return nil
	})

	return result, err
}

// Count returns the number of orders matching filter, ignoring pagination.
func (r *OrderRepository) Count(_ context.Context, filter *order.QueryOrdersModel) (int, error) {
	var count int
	err := r.acc.read(func(st *state) error {
		count = len(matchOrders(st, filter))

		return nil
	})

	return count, err
}

// GetByID retrieves an order by id.
func (r *OrderRepository) GetByID(_ context.Context, id int64) (*order.Order, error) {
	var result order.Order
	err := r.acc.read(func(st *state) error {
		o, ok := st.orders[id]
		if !ok {
			return apperror.NotFound("order with id %d not found", id)
		}
		result = o

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// LockByID retrieves an order by id. Inside a unit of work the store is already locked.
func (r *OrderRepository) LockByID(ctx context.Context, id int64) (*order.Order, error) {
	return r.GetByID(ctx, id)
}

// Insert stores an order under a new id.
func (r *OrderRepository) Insert(_ context.Context, o order.Order) (*order.Order, error) {
	o = withoutRelations(o)
	err := r.acc.write(func(st *state) error {
		if _, ok := st.customers[o.CustomerID]; !ok {
			return fmt.Errorf("failed to insert order: customer %d: %w", o.CustomerID, ErrForeignKey)
		}
		st.seq.order++
		o.ID = st.seq.order
		st.orders[o.ID] = o

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &o, nil
}

// UpdateTotal sets the total price of an order.
func (r *OrderRepository) UpdateTotal(
	_ context.Context,
	id int64,
	total int64,
	updatedAt time.Time,
) (*order.Order, error) {
	var result order.Order
	err := r.acc.write(func(st *state) error {
		o, ok := st.orders[id]
		if !ok {
			return apperror.NotFound("order with id %d not found", id)
		}
		o.TotalOrderPrice = total
		o.UpdatedAt = updatedAt
		st.orders[id] = o
		result = o

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// Delete removes an order together with any remaining items.
func (r *OrderRepository) Delete(_ context.Context, id int64) (*order.Order, error) {
	var result order.Order
	err := r.acc.write(func(st *state) error {
		o, ok := st.orders[id]
		if !ok {
			return apperror.NotFound("order with id %d not found", id)
		}
		for itemID, item := range st.orderItems {
			if item.OrderID == id {
				delete(st.orderItems, itemID)
			}
		}
		delete(st.orders, id)
		result = o

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}
