package ordersvc

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/corray333/backend-labs/shop/internal/dal/interfaces/icustomerrepo"
	"github.com/corray333/backend-labs/shop/internal/dal/interfaces/iorderitemrepo"
	"github.com/corray333/backend-labs/shop/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/backend-labs/shop/internal/dal/interfaces/ioutboxrepo"
	"github.com/corray333/backend-labs/shop/internal/dal/interfaces/iproductrepo"
	"github.com/corray333/backend-labs/shop/internal/dal/memory"
	"github.com/corray333/backend-labs/shop/internal/dal/postgres"
	"github.com/corray333/backend-labs/shop/internal/dal/uow"
	"github.com/corray333/backend-labs/shop/internal/metrics"
	"github.com/corray333/backend-labs/shop/internal/service/models/apperror"
	"github.com/corray333/backend-labs/shop/internal/service/models/customer"
	"github.com/corray333/backend-labs/shop/internal/service/models/order"
	"github.com/corray333/backend-labs/shop/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/shop/internal/service/models/outbox"
	"github.com/corray333/backend-labs/shop/internal/service/models/pagination"
	"github.com/corray333/backend-labs/shop/internal/service/models/product"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const orderDateLayout = "2006-01-02"

// OrderService is a service for managing orders.
type OrderService struct {
	newUOW      func() unitOfWork
	now         func() time.Time
	metrics     *metrics.Metrics
	destination outbox.Destination
	limits      pagination.Limits
}

type unitOfWork interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	ProductRepository() iproductrepo.IProductRepository
	CustomerRepository() icustomerrepo.ICustomerRepository
	OrderRepository() iorderrepo.IOrderRepository
	OrderItemRepository() iorderitemrepo.IOrderItemRepository
	OutboxRepository() ioutboxrepo.IOutboxRepository
}

// option is a function that configures the OrderService.
type option func(*OrderService)

// MustNewOrderService creates a new OrderService. A storage option is required.
func MustNewOrderService(opts ...option) *OrderService {
	s := &OrderService{
		now:    time.Now,
		limits: pagination.DefaultLimits(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.newUOW == nil {
		panic("ordersvc: no storage configured")
	}

	return s
}

// WithPostgresClient sets the Postgres client for the OrderService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPostgresClient(pgClient *postgres.Client) option {
	return func(s *OrderService) {
		s.newUOW = func() unitOfWork {
			return uow.NewUnitOfWork(pgClient)
		}
	}
}

// WithMemoryStore backs the OrderService with an in-memory store.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithMemoryStore(store *memory.Store) option {
	return func(s *OrderService) {
		s.newUOW = func() unitOfWork {
			return memory.NewUnitOfWork(store)
		}
	}
}

// WithClock sets the time source used for order timestamps.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithClock(now func() time.Time) option {
	return func(s *OrderService) {
		s.now = now
	}
}

// WithMetrics sets the prometheus collectors.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithMetrics(m *metrics.Metrics) option {
	return func(s *OrderService) {
		s.metrics = m
	}
}

// WithEventDestination enables order events in the outbox.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithEventDestination(destination outbox.Destination) option {
	return func(s *OrderService) {
		s.destination = destination
	}
}

// WithPagination sets the default and maximum page size of ListOrders.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPagination(limits pagination.Limits) option {
	return func(s *OrderService) {
		s.limits = limits
	}
}

func (s *OrderService) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return otel.Tracer("ordersvc").Start(ctx, "OrderService."+name)
}

// finish records the outcome of an operation on its span and metrics.
func (s *OrderService) finish(span trace.Span, operation string, start time.Time, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
	s.metrics.RecordOperation(operation, start, err)
}

// inTransaction runs fn inside a transaction of work, rolling back when fn fails.
func inTransaction(ctx context.Context, work unitOfWork, fn func(ctx context.Context) error) error {
	if err := work.Begin(ctx); err != nil {
		return apperror.Internal(err, "failed to begin transaction")
	}
	defer func() {
		if err := work.Rollback(ctx); err != nil {
			slog.Error("Failed to rollback transaction", "error", err)
		}
	}()

	if err := fn(ctx); err != nil {
		return err
	}

	if err := work.Commit(ctx); err != nil {
		return apperror.Internal(err, "failed to commit transaction")
	}

	return nil
}

func validateItems(items []orderitem.ItemInput) error {
	if len(items) == 0 {
		return apperror.Validation("orderItems must contain at least one item")
	}

	for i, item := range items {
		if item.ProductID <= 0 {
			return apperror.Validation("orderItems[%d].productId must be a positive integer", i)
		}
		if item.Quantity <= 0 {
			return apperror.Validation("orderItems[%d].quantity must be a positive integer", i)
		}
		if item.Quantity > orderitem.MaxQuantity {
			return apperror.Validation("orderItems[%d].quantity must not exceed %d", i, orderitem.MaxQuantity)
		}
	}

	return nil
}

// priceItems resolves every requested product and snapshots its current price.
// The first unknown product id aborts with a not found error.
func priceItems(
	ctx context.Context,
	work unitOfWork,
	items []orderitem.ItemInput,
) ([]orderitem.OrderItem, error) {
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}

	products, err := work.ProductRepository().Query(ctx, &product.QueryProductsModel{Ids: ids})
	if err != nil {
		return nil, apperror.Internal(err, "failed to load products")
	}

	prices := make(map[int64]int64, len(products))
	for _, p := range products {
		prices[p.ID] = p.Price
	}

	lineItems := make([]orderitem.OrderItem, 0, len(items))
	for _, item := range items {
		price, ok := prices[item.ProductID]
		if !ok {
			return nil, apperror.NotFound("product with id %d not found", item.ProductID)
		}

		lineItems = append(lineItems, orderitem.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     price,
		})
	}

	return lineItems, nil
}

// totalPrice computes the order total, rejecting totals that do not fit in an int64.
func totalPrice(items []orderitem.OrderItem) (int64, error) {
	total, err := order.TotalPrice(items)
	if err != nil {
		return 0, apperror.Validation("total order price must not exceed %d", int64(math.MaxInt64))
	}

	return total, nil
}

func stampItems(items []orderitem.OrderItem, orderID int64, now time.Time) {
	for i := range items {
		items[i].OrderID = orderID
		items[i].CreatedAt = now
		items[i].UpdatedAt = now
	}
}

// CreateOrder places an order for customerName, creating the customer on first use.
// The order, its items and the customer are written in one transaction.
func (s *OrderService) CreateOrder(
	ctx context.Context,
	customerName string,
	items []orderitem.ItemInput,
) (created *order.Order, err error) {
	start := time.Now()
	ctx, span := s.startSpan(ctx, "CreateOrder")
	defer func() { s.finish(span, "create_order", start, err) }()

	customerName = strings.TrimSpace(customerName)
	if customerName == "" {
		return nil, apperror.Validation("customerName is required")
	}
	if err := validateItems(items); err != nil {
		return nil, err
	}

	work := s.newUOW()

	lineItems, err := priceItems(ctx, work, items)
	if err != nil {
		slog.Warn("Failed to resolve order items", "customer_name", customerName, "error", err)

		return nil, err
	}

	total, err := totalPrice(lineItems)
	if err != nil {
		return nil, err
	}

	now := s.now()
	err = inTransaction(ctx, work, func(ctx context.Context) error {
		c, err := work.CustomerRepository().FindOrCreateByName(ctx, customerName)
		if err != nil {
			return fmt.Errorf("failed to find or create customer: %w", err)
		}

		o, err := work.OrderRepository().Insert(ctx, order.Order{
			CustomerID:      c.ID,
			TotalOrderPrice: total,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
		if err != nil {
			return fmt.Errorf("failed to insert order: %w", err)
		}

		stampItems(lineItems, o.ID, now)
		inserted, err := work.OrderItemRepository().BulkInsert(ctx, lineItems)
		if err != nil {
			return fmt.Errorf("failed to insert order items: %w", err)
		}

		o.Customer = c
		o.OrderItems = inserted
		o.LineItemCount = len(inserted)

		if err := s.enqueueEvent(ctx, work, outbox.EventOrderCreated, o, now); err != nil {
			return err
		}

		created = o

		return nil
	})
	if err != nil {
		slog.Error("Failed to create order", "customer_name", customerName, "error", err)

		return nil, apperror.Internal(err, "failed to create order")
	}

	span.SetAttributes(attribute.Int64("order.id", created.ID))
	slog.Info("Order created", "order_id", created.ID, "customer_id", created.CustomerID)

	return created, nil
}

// EditOrder replaces all line items of an order and recomputes its total.
func (s *OrderService) EditOrder(
	ctx context.Context,
	id int64,
	items []orderitem.ItemInput,
) (edited *order.Order, err error) {
	start := time.Now()
	ctx, span := s.startSpan(ctx, "EditOrder")
	span.SetAttributes(attribute.Int64("order.id", id))
	defer func() { s.finish(span, "edit_order", start, err) }()

	if err := validateItems(items); err != nil {
		return nil, err
	}

	work := s.newUOW()

	lineItems, err := priceItems(ctx, work, items)
	if err != nil {
		slog.Warn("Failed to resolve order items", "order_id", id, "error", err)

		return nil, err
	}

	total, err := totalPrice(lineItems)
	if err != nil {
		return nil, err
	}

	now := s.now()
	err = inTransaction(ctx, work, func(ctx context.Context) error {
		if _, err := work.OrderRepository().LockByID(ctx, id); err != nil {
			return err
		}

		if _, err := work.OrderItemRepository().DeleteByOrderID(ctx, id); err != nil {
			return fmt.Errorf("failed to delete order items: %w", err)
		}

		stampItems(lineItems, id, now)
		inserted, err := work.OrderItemRepository().BulkInsert(ctx, lineItems)
		if err != nil {
			return fmt.Errorf("failed to insert order items: %w", err)
		}

		o, err := work.OrderRepository().UpdateTotal(ctx, id, total, now)
		if err != nil {
			return err
		}

		customers, err := work.CustomerRepository().GetByIDs(ctx, []int64{o.CustomerID})
		if err != nil {
			return fmt.Errorf("failed to load customer: %w", err)
		}
		if len(customers) > 0 {
			o.Customer = &customers[0]
		}
		o.OrderItems = inserted
		o.LineItemCount = len(inserted)

		if err := s.enqueueEvent(ctx, work, outbox.EventOrderUpdated, o, now); err != nil {
			return err
		}

		edited = o

		return nil
	})
	if err != nil {
		slog.Error("Failed to edit order", "order_id", id, "error", err)

		return nil, apperror.Internal(err, "failed to edit order")
	}

	slog.Info("Order edited", "order_id", id, "line_items", edited.LineItemCount)

	return edited, nil
}

// ListOrders returns a page of orders with customers and line items attached.
func (s *OrderService) ListOrders(
	ctx context.Context,
	query order.ListOrdersQuery,
) (result *order.ListResult, err error) {
	start := time.Now()
	ctx, span := s.startSpan(ctx, "ListOrders")
	defer func() { s.finish(span, "list_orders", start, err) }()

	page := pagination.Normalize(query.Page, query.Limit, s.limits)
	filter := &order.QueryOrdersModel{
		CustomerName: strings.TrimSpace(query.CustomerName),
		Limit:        page.Limit,
		Offset:       page.Offset(),
	}

	if query.OrderDate != "" {
		day, err := time.Parse(orderDateLayout, query.OrderDate)
		if err != nil {
			return nil, apperror.Validation("orderDate must be a date in YYYY-MM-DD format")
		}

		from := day.UTC()
		to := from.Add(24*time.Hour - time.Second)
		filter.CreatedFrom = &from
		filter.CreatedTo = &to
	}

	work := s.newUOW()

	total, err := work.OrderRepository().Count(ctx, filter)
	if err != nil {
		slog.Error("Failed to count orders", "error", err)

		return nil, apperror.Internal(err, "failed to count orders")
	}

	orders, err := work.OrderRepository().Query(ctx, filter)
	if err != nil {
		slog.Error("Failed to query orders", "error", err)

		return nil, apperror.Internal(err, "failed to query orders")
	}

	if err := attachRelations(ctx, work, orders); err != nil {
		slog.Error("Failed to load order relations", "error", err)

		return nil, apperror.Internal(err, "failed to load orders")
	}

	return &order.ListResult{
		Orders:     orders,
		TotalItems: total,
		Page:       page.Page,
		Limit:      page.Limit,
	}, nil
}

// GetOrder returns an order with its customer and line items.
func (s *OrderService) GetOrder(ctx context.Context, id int64) (o *order.Order, err error) {
	start := time.Now()
	ctx, span := s.startSpan(ctx, "GetOrder")
	span.SetAttributes(attribute.Int64("order.id", id))
	defer func() { s.finish(span, "get_order", start, err) }()

	work := s.newUOW()

	o, err = work.OrderRepository().GetByID(ctx, id)
	if err != nil {
		return nil, apperror.Internal(err, "failed to get order")
	}

	orders := []order.Order{*o}
	if err := attachRelations(ctx, work, orders); err != nil {
		slog.Error("Failed to load order relations", "order_id", id, "error", err)

		return nil, apperror.Internal(err, "failed to get order")
	}

	return &orders[0], nil
}

// DeleteOrder deletes an order and all of its line items in one transaction.
func (s *OrderService) DeleteOrder(ctx context.Context, id int64) (deleted bool, err error) {
	start := time.Now()
	ctx, span := s.startSpan(ctx, "DeleteOrder")
	span.SetAttributes(attribute.Int64("order.id", id))
	defer func() { s.finish(span, "delete_order", start, err) }()

	work := s.newUOW()

	now := s.now()
	err = inTransaction(ctx, work, func(ctx context.Context) error {
		if _, err := work.OrderRepository().LockByID(ctx, id); err != nil {
			return err
		}

		removedItems, err := work.OrderItemRepository().DeleteByOrderID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to delete order items: %w", err)
		}

		o, err := work.OrderRepository().Delete(ctx, id)
		if err != nil {
			return err
		}
		o.LineItemCount = int(removedItems)

		return s.enqueueEvent(ctx, work, outbox.EventOrderDeleted, o, now)
	})
	if err != nil {
		if !apperror.IsNotFound(err) {
			slog.Error("Failed to delete order", "order_id", id, "error", err)
		}

		return false, apperror.Internal(err, "failed to delete order")
	}

	slog.Info("Order deleted", "order_id", id)

	return true, nil
}

// attachRelations loads customers and line items for orders in place.
func attachRelations(ctx context.Context, work unitOfWork, orders []order.Order) error {
	if len(orders) == 0 {
		return nil
	}

	orderIDs := make([]int64, 0, len(orders))
	customerIDs := make([]int64, 0, len(orders))
	seenCustomers := make(map[int64]struct{}, len(orders))
	for _, o := range orders {
		orderIDs = append(orderIDs, o.ID)
		if _, ok := seenCustomers[o.CustomerID]; !ok {
			seenCustomers[o.CustomerID] = struct{}{}
			customerIDs = append(customerIDs, o.CustomerID)
		}
	}

	items, err := work.OrderItemRepository().Query(ctx, &orderitem.QueryOrderItemsModel{OrderIds: orderIDs})
	if err != nil {
		return fmt.Errorf("failed to query order items: %w", err)
	}

	customers, err := work.CustomerRepository().GetByIDs(ctx, customerIDs)
	if err != nil {
		return fmt.Errorf("failed to query customers: %w", err)
	}

	itemsByOrder := make(map[int64][]orderitem.OrderItem, len(orders))
	for _, item := range items {
		itemsByOrder[item.OrderID] = append(itemsByOrder[item.OrderID], item)
	}

	customersByID := make(map[int64]customer.Customer, len(customers))
	for _, c := range customers {
		customersByID[c.ID] = c
	}

	for i := range orders {
		orderItems := itemsByOrder[orders[i].ID]
		if orderItems == nil {
			orderItems = []orderitem.OrderItem{}
		}
		orders[i].OrderItems = orderItems
		orders[i].LineItemCount = len(orderItems)

		if c, ok := customersByID[orders[i].CustomerID]; ok {
			orders[i].Customer = &c
		}
	}

	return nil
}
