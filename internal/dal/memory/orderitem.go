package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/corray333/backend-labs/shop/internal/service/models/apperror"
	"github.com/corray333/backend-labs/shop/internal/service/models/orderitem"
)

// OrderItemRepository is the in-memory order item repository.
type OrderItemRepository struct {
	acc access
}

// BulkInsert stores all items or none of them.
func (r *OrderItemRepository) BulkInsert(
	_ context.Context,
	orderItems []orderitem.OrderItem,
) ([]orderitem.OrderItem, error) {
	result := make([]orderitem.OrderItem, len(orderItems))
	err := r.acc.write(func(st *state) error {
		for _, item := range orderItems {
			if _, ok := st.orders[item.OrderID]; !ok {
				return fmt.Errorf("failed to insert order item: order %d: %w", item.OrderID, ErrForeignKey)
			}
			if _, ok := st.products[item.ProductID]; !ok {
				return &apperror.Error{
					Kind:    apperror.KindNotFound,
					Message: fmt.Sprintf("product with id %d not found", item.ProductID),
					Err:     ErrForeignKey,
				}
			}
		}

		for i, item := range orderItems {
			st.seq.orderItem++
			item.ID = st.seq.orderItem
			st.orderItems[item.ID] = item
			result[i] = item
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Query retrieves order items ordered by order id, then id.
func (r *OrderItemRepository) Query(
	_ context.Context,
	filter *orderitem.QueryOrderItemsModel,
) ([]orderitem.OrderItem, error) {
	var result []orderitem.OrderItem
	err := r.acc.read(func(st *state) error {
		ids := idSet(filter.Ids)
		orderIds := idSet(filter.OrderIds)
		productIds := idSet(filter.ProductIds)

		matched := make([]orderitem.OrderItem, 0)
		for _, item := range sortedValues(st.orderItems) {
			if len(ids) > 0 && !contains(ids, item.ID) {
				continue
			}
			if len(orderIds) > 0 && !contains(orderIds, item.OrderID) {
				continue
			}
			if len(productIds) > 0 && !contains(productIds, item.ProductID) {
				continue
			}
			matched = append(matched, item)
		}
		sortByOrder(matched)
		result = paginate(matched, filter.Limit, filter.Offset)

		return nil
	})

	return result, err
}

// DeleteByOrderID removes all items of an order and returns how many were deleted.
func (r *OrderItemRepository) DeleteByOrderID(_ context.Context, orderID int64) (int64, error) {
	var deleted int64
	err := r.acc.write(func(st *state) error {
		for id, item := range st.orderItems {
			if item.OrderID == orderID {
				delete(st.orderItems, id)
				deleted++
			}
		}

		return nil
	})

	return deleted, err
}

// sortByOrder groups items by order, keeping id order within each group.
func sortByOrder(items []orderitem.OrderItem) {
	sort.SliceStable(items, func(i, j int) bool { return items[i].OrderID < items[j].OrderID })
}
