package ordersvc

import (
	"context"
	"encoding/json"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/corray333/backend-labs/shop/internal/dal/memory"
	"github.com/corray333/backend-labs/shop/internal/service/models/apperror"
	"github.com/corray333/backend-labs/shop/internal/service/models/order"
	"github.com/corray333/backend-labs/shop/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/shop/internal/service/models/outbox"
	"github.com/corray333/backend-labs/shop/internal/service/models/product"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store *memory.Store
	svc   *OrderService
	now   time.Time
}

func newFixture(t *testing.T, opts ...option) *fixture {
	t.Helper()

	f := &fixture{
		store: memory.NewStore(),
		now:   time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC),
	}
	opts = append([]option{
		WithMemoryStore(f.store),
		WithClock(func() time.Time { return f.now }),
	}, opts...)
	f.svc = MustNewOrderService(opts...)

	return f
}

func (f *fixture) addProduct(t *testing.T, name string, price int64) *product.Product {
	t.Helper()

	p, err := memory.NewUnitOfWork(f.store).ProductRepository().Insert(context.Background(), product.Product{
		Name:  name,
		Price: price,
	})
	require.NoError(t, err)

	return p
}

func (f *fixture) customerCount(t *testing.T) int {
	t.Helper()

	ids := make([]int64, 0, 100)
	for i := int64(1); i <= 100; i++ {
		ids = append(ids, i)
	}
	customers, err := memory.NewUnitOfWork(f.store).CustomerRepository().GetByIDs(context.Background(), ids)
	require.NoError(t, err)

	return len(customers)
}

func TestCreateOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	widget := f.addProduct(t, "Widget", 1000)

	created, err := f.svc.CreateOrder(ctx, "Ann", []orderitem.ItemInput{{ProductID: widget.ID, Quantity: 3}})
	require.NoError(t, err)

	assert.Equal(t, int64(3000), created.TotalOrderPrice)
	assert.Equal(t, f.now, created.CreatedAt)
	require.NotNil(t, created.Customer)
	assert.Equal(t, "Ann", created.Customer.Name)
	require.Len(t, created.OrderItems, 1)
	assert.Equal(t, 3, created.OrderItems[0].Quantity)
	assert.Equal(t, int64(1000), created.OrderItems[0].Price)
	assert.Equal(t, created.ID, created.OrderItems[0].OrderID)
	assert.Equal(t, 1, created.LineItemCount)

	got, err := f.svc.GetOrder(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3000), got.TotalOrderPrice)
	assert.Len(t, got.OrderItems, 1)
}

func TestCreateOrderSnapshotsPrices(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	widget := f.addProduct(t, "Widget", 1000)
	gadget := f.addProduct(t, "Gadget", 250)

	created, err := f.svc.CreateOrder(ctx, "Ann", []orderitem.ItemInput{
		{ProductID: widget.ID, Quantity: 2},
		{ProductID: gadget.ID, Quantity: 4},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2*1000+4*250), created.TotalOrderPrice)

	_, err = memory.NewUnitOfWork(f.store).ProductRepository().Update(ctx, product.Product{
		ID:    widget.ID,
		Name:  "Widget",
		Price: 5000,
	})
	require.NoError(t, err)

	got, err := f.svc.GetOrder(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3000), got.TotalOrderPrice)
	recomputed, err := order.TotalPrice(got.OrderItems)
	require.NoError(t, err)
	assert.Equal(t, recomputed, got.TotalOrderPrice)
}

func TestCreateOrderReusesCustomer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	widget := f.addProduct(t, "Widget", 1000)
	items := []orderitem.ItemInput{{ProductID: widget.ID, Quantity: 1}}

	first, err := f.svc.CreateOrder(ctx, "Ann", items)
	require.NoError(t, err)
	second, err := f.svc.CreateOrder(ctx, "Ann", items)
	require.NoError(t, err)
	third, err := f.svc.CreateOrder(ctx, "ann", items)
	require.NoError(t, err)

	assert.Equal(t, first.CustomerID, second.CustomerID)
	assert.NotEqual(t, first.CustomerID, third.CustomerID)
	assert.Equal(t, 2, f.customerCount(t))
}

func TestCreateOrderConcurrentNewCustomer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	widget := f.addProduct(t, "Widget", 1000)

	const workers = 8
	customerIDs := make([]int64, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			created, err := f.svc.CreateOrder(ctx, "Newcomer", []orderitem.ItemInput{{ProductID: widget.ID, Quantity: 1}})
			if assert.NoError(t, err) {
				customerIDs[i] = created.CustomerID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range customerIDs {
		assert.Equal(t, customerIDs[0], id)
	}
	assert.Equal(t, 1, f.customerCount(t))
}

func TestCreateOrderMissingProductWritesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	widget := f.addProduct(t, "Widget", 1000)

	_, err := f.svc.CreateOrder(ctx, "Zed", []orderitem.ItemInput{
		{ProductID: widget.ID, Quantity: 1},
		{ProductID: 404, Quantity: 1},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
	assert.Contains(t, err.Error(), "404")

	list, err := f.svc.ListOrders(ctx, order.ListOrdersQuery{})
	require.NoError(t, err)
	assert.Zero(t, list.TotalItems)
	assert.Zero(t, f.customerCount(t))

	items, err := memory.NewUnitOfWork(f.store).OrderItemRepository().Query(ctx, &orderitem.QueryOrderItemsModel{})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCreateOrderValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	widget := f.addProduct(t, "Widget", 1000)

	tests := []struct {
		name         string
		customerName string
		items        []orderitem.ItemInput
	}{
		{name: "blank name", customerName: "  ", items: []orderitem.ItemInput{{ProductID: widget.ID, Quantity: 1}}},
		{name: "no items", customerName: "Ann"},
		{name: "zero quantity", customerName: "Ann", items: []orderitem.ItemInput{{ProductID: widget.ID, Quantity: 0}}},
		{name: "negative quantity", customerName: "Ann", items: []orderitem.ItemInput{{ProductID: widget.ID, Quantity: -2}}},
		{name: "bad product id", customerName: "Ann", items: []orderitem.ItemInput{{ProductID: 0, Quantity: 1}}},
		{name: "quantity above column range", customerName: "Ann", items: []orderitem.ItemInput{{ProductID: widget.ID, Quantity: 1<<32 + 3}}},
		{name: "quantity just above max", customerName: "Ann", items: []orderitem.ItemInput{{ProductID: widget.ID, Quantity: orderitem.MaxQuantity + 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateOrder(ctx, tt.customerName, tt.items)

			assert.True(t, apperror.IsValidation(err), "got %v", err)
		})
	}

	assert.Zero(t, f.customerCount(t))
}

func TestCreateOrderTotalOverflowWritesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	luxury := f.addProduct(t, "Luxury", math.MaxInt64/2)
	widget := f.addProduct(t, "Widget", 1000)

	_, err := f.svc.CreateOrder(ctx, "Ann", []orderitem.ItemInput{
		{ProductID: widget.ID, Quantity: 1},
		{ProductID: luxury.ID, Quantity: 3},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err), "got %v", err)

	list, err := f.svc.ListOrders(ctx, order.ListOrdersQuery{})
	require.NoError(t, err)
	assert.Zero(t, list.TotalItems)
	assert.Zero(t, f.customerCount(t))

	items, err := memory.NewUnitOfWork(f.store).OrderItemRepository().Query(ctx, &orderitem.QueryOrderItemsModel{})
	require.NoError(t, err)
	assert.Empty(t, items)

	created, err := f.svc.CreateOrder(ctx, "Ann", []orderitem.ItemInput{
		{ProductID: widget.ID, Quantity: orderitem.MaxQuantity},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(orderitem.MaxQuantity)*1000, created.TotalOrderPrice)
	assert.Positive(t, created.TotalOrderPrice)
}

func TestCreateOrderProductDeletedBeforeInsert(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	widget := f.addProduct(t, "Widget", 1000)

	var once sync.Once
	svc := MustNewOrderService(
		WithMemoryStore(f.store),
		WithClock(func() time.Time {
			once.Do(func() {
				_, err := memory.NewUnitOfWork(f.store).ProductRepository().Delete(ctx, widget.ID)
				require.NoError(t, err)
			})

			return f.now
		}),
	)

	_, err := svc.CreateOrder(ctx, "Ann", []orderitem.ItemInput{{ProductID: widget.ID, Quantity: 1}})
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err), "got %v", err)

	assert.Zero(t, f.customerCount(t))
	list, err := f.svc.ListOrders(ctx, order.ListOrdersQuery{})
	require.NoError(t, err)
	assert.Zero(t, list.TotalItems)
}

func TestEditOrderReplacesItems(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	widget := f.addProduct(t, "Widget", 1000)
	gadget := f.addProduct(t, "Gadget", 250)

	created, err := f.svc.CreateOrder(ctx, "Ann", []orderitem.ItemInput{
		{ProductID: widget.ID, Quantity: 1},
		{ProductID: gadget.ID, Quantity: 1},
	})
	require.NoError(t, err)

	f.now = f.now.Add(time.Hour)
	edited, err := f.svc.EditOrder(ctx, created.ID, []orderitem.ItemInput{{ProductID: gadget.ID, Quantity: 5}})
	require.NoError(t, err)

	assert.Equal(t, int64(1250), edited.TotalOrderPrice)
	assert.Equal(t, f.now, edited.UpdatedAt)
	require.NotNil(t, edited.Customer)
	assert.Equal(t, "Ann", edited.Customer.Name)

	got, err := f.svc.GetOrder(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, got.OrderItems, 1)
	assert.Equal(t, gadget.ID, got.OrderItems[0].ProductID)
	assert.Equal(t, 5, got.OrderItems[0].Quantity)
	assert.Equal(t, int64(1250), got.TotalOrderPrice)
	assert.Equal(t, created.CreatedAt, got.CreatedAt)
}

func TestEditOrderFailuresLeaveOrderUntouched(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	widget := f.addProduct(t, "Widget", 1000)

	created, err := f.svc.CreateOrder(ctx, "Ann", []orderitem.ItemInput{{ProductID: widget.ID, Quantity: 2}})
	require.NoError(t, err)

	_, err = f.svc.EditOrder(ctx, created.ID, []orderitem.ItemInput{{ProductID: 404, Quantity: 1}})
	assert.True(t, apperror.IsNotFound(err))

	_, err = f.svc.EditOrder(ctx, created.ID, []orderitem.ItemInput{{ProductID: widget.ID, Quantity: 0}})
	assert.True(t, apperror.IsValidation(err))

	_, err = f.svc.EditOrder(ctx, 999, []orderitem.ItemInput{{ProductID: widget.ID, Quantity: 1}})
	assert.True(t, apperror.IsNotFound(err))

	luxury := f.addProduct(t, "Luxury", math.MaxInt64/2)
	_, err = f.svc.EditOrder(ctx, created.ID, []orderitem.ItemInput{{ProductID: luxury.ID, Quantity: 3}})
	assert.True(t, apperror.IsValidation(err))

	got, err := f.svc.GetOrder(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, got.OrderItems, 1)
	assert.Equal(t, 2, got.OrderItems[0].Quantity)
	assert.Equal(t, int64(2000), got.TotalOrderPrice)
}

func TestDeleteOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	widget := f.addProduct(t, "Widget", 1000)

	created, err := f.svc.CreateOrder(ctx, "Ann", []orderitem.ItemInput{{ProductID: widget.ID, Quantity: 2}})
	require.NoError(t, err)

	deleted, err := f.svc.DeleteOrder(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = f.svc.GetOrder(ctx, created.ID)
	assert.True(t, apperror.IsNotFound(err))

	items, err := memory.NewUnitOfWork(f.store).OrderItemRepository().Query(ctx, &orderitem.QueryOrderItemsModel{
		OrderIds: []int64{created.ID},
	})
	require.NoError(t, err)
	assert.Empty(t, items)

	deleted, err = f.svc.DeleteOrder(ctx, created.ID)
	assert.False(t, deleted)
	assert.True(t, apperror.IsNotFound(err))
}

func TestListOrdersByCustomerName(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	widget := f.addProduct(t, "Widget", 1000)
	items := []orderitem.ItemInput{{ProductID: widget.ID, Quantity: 1}}

	annLee, err := f.svc.CreateOrder(ctx, "Ann Lee", items)
	require.NoError(t, err)
	_, err = f.svc.CreateOrder(ctx, "Bob", items)
	require.NoError(t, err)

	list, err := f.svc.ListOrders(ctx, order.ListOrdersQuery{Page: 1, Limit: 10, CustomerName: "ann"})
	require.NoError(t, err)

	assert.Equal(t, 1, list.TotalItems)
	require.Len(t, list.Orders, 1)
	assert.Equal(t, annLee.ID, list.Orders[0].ID)
	require.NotNil(t, list.Orders[0].Customer)
	assert.Equal(t, "Ann Lee", list.Orders[0].Customer.Name)
	assert.Equal(t, 1, list.Orders[0].LineItemCount)
}

func TestListOrdersByOrderDate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	widget := f.addProduct(t, "Widget", 1000)
	items := []orderitem.ItemInput{{ProductID: widget.ID, Quantity: 1}}

	f.now = time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)
	inside, err := f.svc.CreateOrder(ctx, "Ann", items)
	require.NoError(t, err)

	f.now = time.Date(2024, 10, 2, 0, 0, 1, 0, time.UTC)
	_, err = f.svc.CreateOrder(ctx, "Ann", items)
	require.NoError(t, err)

	list, err := f.svc.ListOrders(ctx, order.ListOrdersQuery{OrderDate: "2024-10-01"})
	require.NoError(t, err)

	assert.Equal(t, 1, list.TotalItems)
	require.Len(t, list.Orders, 1)
	assert.Equal(t, inside.ID, list.Orders[0].ID)

	_, err = f.svc.ListOrders(ctx, order.ListOrdersQuery{OrderDate: "01/10/2024"})
	assert.True(t, apperror.IsValidation(err))
}

func TestListOrdersPagination(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	widget := f.addProduct(t, "Widget", 1000)

	for i := 0; i < 12; i++ {
		_, err := f.svc.CreateOrder(ctx, "Ann", []orderitem.ItemInput{{ProductID: widget.ID, Quantity: 1}})
		require.NoError(t, err)
	}

	first, err := f.svc.ListOrders(ctx, order.ListOrdersQuery{})
	require.NoError(t, err)
	assert.Equal(t, 12, first.TotalItems)
	assert.Equal(t, 1, first.Page)
	assert.Equal(t, 10, first.Limit)
	assert.Len(t, first.Orders, 10)

	second, err := f.svc.ListOrders(ctx, order.ListOrdersQuery{Page: 2, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 12, second.TotalItems)
	require.Len(t, second.Orders, 2)
	assert.Equal(t, int64(11), second.Orders[0].ID)
}

func TestOrderEventsAreWrittenToOutbox(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, WithEventDestination(outbox.Destination{
		ExchangeName: "shop",
		RoutingKey:   "orders",
		MaxRetries:   3,
	}))
	widget := f.addProduct(t, "Widget", 1000)

	created, err := f.svc.CreateOrder(ctx, "Ann", []orderitem.ItemInput{{ProductID: widget.ID, Quantity: 2}})
	require.NoError(t, err)
	_, err = f.svc.EditOrder(ctx, created.ID, []orderitem.ItemInput{{ProductID: widget.ID, Quantity: 1}})
	require.NoError(t, err)
	_, err = f.svc.DeleteOrder(ctx, created.ID)
	require.NoError(t, err)

	messages, err := memory.NewUnitOfWork(f.store).OutboxRepository().Due(ctx, f.now, 10)
	require.NoError(t, err)
	require.Len(t, messages, 3)

	events := make([]outbox.EventType, 0, len(messages))
	for _, msg := range messages {
		assert.Equal(t, "shop", msg.ExchangeName)
		assert.Equal(t, "orders", msg.RoutingKey)
		assert.Equal(t, 3, msg.MaxRetries)
		assert.NotEmpty(t, msg.MessageID)

		var event outbox.OrderEvent
		require.NoError(t, json.Unmarshal(msg.Payload, &event))
		assert.Equal(t, created.ID, event.OrderID)
		events = append(events, event.Event)
	}
	assert.ElementsMatch(t, []outbox.EventType{
		outbox.EventOrderCreated,
		outbox.EventOrderUpdated,
		outbox.EventOrderDeleted,
	}, events)
}

func TestOrderEventsDisabledByDefault(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	widget := f.addProduct(t, "Widget", 1000)

	_, err := f.svc.CreateOrder(ctx, "Ann", []orderitem.ItemInput{{ProductID: widget.ID, Quantity: 2}})
	require.NoError(t, err)

	messages, err := memory.NewUnitOfWork(f.store).OutboxRepository().Due(ctx, f.now, 10)
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestMustNewOrderServiceRequiresStorage(t *testing.T) {
	assert.Panics(t, func() { MustNewOrderService() })
}
