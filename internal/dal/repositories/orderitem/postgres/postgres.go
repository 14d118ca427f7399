package postgresrepo

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/shop/internal/dal/postgres"
	"github.com/corray333/backend-labs/shop/internal/service/models/apperror"
	"github.com/corray333/backend-labs/shop/internal/service/models/orderitem"
	"github.com/jackc/pgx/v5"
)

const bulkInsertSQL = `
	INSERT INTO order_items (order_id, product_id, quantity, price, created_at, updated_at)
	SELECT order_id, product_id, quantity, price, created_at, updated_at
	FROM unnest($1::bigint[], $2::bigint[], $3::integer[], $4::bigint[], $5::timestamptz[], $6::timestamptz[])
	AS t(order_id, product_id, quantity, price, created_at, updated_at)
	RETURNING id, order_id, product_id, quantity, price, created_at, updated_at
`

// OrderItemDal represents order item data access layer model.
type OrderItemDal struct {
	Id        int64     `db:"id"`
	OrderId   int64     `db:"order_id"`
	ProductId int64     `db:"product_id"`
	Quantity  int       `db:"quantity"`
	Price     int64     `db:"price"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// ToModel converts OrderItemDal to service layer OrderItem model.
func (oi *OrderItemDal) ToModel() *orderitem.OrderItem {
	return &orderitem.OrderItem{
		ID:        oi.Id,
		OrderID:   oi.OrderId,
		ProductID: oi.ProductId,
		Quantity:  oi.Quantity,
		Price:     oi.Price,
		CreatedAt: oi.CreatedAt,
		UpdatedAt: oi.UpdatedAt,
	}
}

// PostgresOrderItemRepository represents a Postgres order item repository.
type PostgresOrderItemRepository struct {
	conn postgres.Conn
	sb   sq.StatementBuilderType
}

// NewPostgresOrderItemRepository creates a new Postgres order item repository.
func NewPostgresOrderItemRepository(conn postgres.Conn) *PostgresOrderItemRepository {
	return &PostgresOrderItemRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// bulkInsertArgs splits order items into one array per column for unnest.
// Quantities outside the integer column range are rejected rather than truncated.
func bulkInsertArgs(orderItems []orderitem.OrderItem) ([]any, error) {
	orderIds := make([]int64, len(orderItems))
	productIds := make([]int64, len(orderItems))
	quantities := make([]int32, len(orderItems))
	prices := make([]int64, len(orderItems))
	createdAts := make([]time.Time, len(orderItems))
	updatedAts := make([]time.Time, len(orderItems))

	for i, oi := range orderItems {
		orderIds[i] = oi.OrderID
		productIds[i] = oi.ProductID
		if oi.Quantity <= 0 || oi.Quantity > orderitem.MaxQuantity {
			return nil, apperror.Validation("quantity %d of product %d is out of range", oi.Quantity, oi.ProductID)
		}
		quantities[i] = int32(oi.Quantity)
		prices[i] = oi.Price
		createdAts[i] = oi.CreatedAt
		updatedAts[i] = oi.UpdatedAt
	}

	return []any{orderIds, productIds, quantities, prices, createdAts, updatedAts}, nil
}

// classifyInsertError maps a foreign key violation to not found.
// Inside the order transaction only the product reference can be missing.
func classifyInsertError(err error) error {
	if postgres.IsForeignKeyViolation(err) {
		return apperror.NotFound("product referenced by order items not found")
	}

	return fmt.Errorf("failed to bulk insert order items: %w", err)
}

// BulkInsert inserts multiple order items in one statement and returns them with IDs.
func (r *PostgresOrderItemRepository) BulkInsert(
	ctx context.Context,
	orderItems []orderitem.OrderItem,
) ([]orderitem.OrderItem, error) {
	if len(orderItems) == 0 {
		return []orderitem.OrderItem{}, nil
	}

	args, err := bulkInsertArgs(orderItems)
	if err != nil {
		return nil, err
	}

	rows, err := r.conn.Query(ctx, bulkInsertSQL, args...)
	if err != nil {
		return nil, classifyInsertError(err)
	}

	result, err := collectOrderItems(rows)
	if err != nil {
		return nil, classifyInsertError(err)
	}

	return result, nil
}

// selectQuery builds the select statement for filter.
func (r *PostgresOrderItemRepository) selectQuery(filter *orderitem.QueryOrderItemsModel) sq.SelectBuilder {
	query := r.sb.
		Select(
			"id",
			"order_id",
			"product_id",
			"quantity",
			"price",
			"created_at",
			"updated_at",
		).
		From("order_items").
		OrderBy("order_id", "id")

	if len(filter.Ids) > 0 {
		query = query.Where(sq.Eq{"id": filter.Ids})
	}

	if len(filter.OrderIds) > 0 {
		query = query.Where(sq.Eq{"order_id": filter.OrderIds})
	}

	if len(filter.ProductIds) > 0 {
		query = query.Where(sq.Eq{"product_id": filter.ProductIds})
	}

	if filter.Limit > 0 {
		query = query.Limit(uint64(filter.Limit))
	}

	if filter.Offset > 0 {
		query = query.Offset(uint64(filter.Offset))
	}

	return query
}

// Query retrieves order items based on filter criteria.
func (r *PostgresOrderItemRepository) Query(
	ctx context.Context,
	filter *orderitem.QueryOrderItemsModel,
) ([]orderitem.OrderItem, error) {
	sql, args, err := r.selectQuery(filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}

	result, err := collectOrderItems(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}

	return result, nil
}

// DeleteByOrderID removes all items of an order and returns how many were deleted.
func (r *PostgresOrderItemRepository) DeleteByOrderID(ctx context.Context, orderID int64) (int64, error) {
	sql, args, err := r.sb.Delete("order_items").Where(sq.Eq{"order_id": orderID}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build delete query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete order items: %w", err)
	}

	return tag.RowsAffected(), nil
}

func collectOrderItems(rows pgx.Rows) ([]orderitem.OrderItem, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (orderitem.OrderItem, error) {
		var dal OrderItemDal
		err := row.Scan(
			&dal.Id,
			&dal.OrderId,
			&dal.ProductId,
			&dal.Quantity,
			&dal.Price,
			&dal.CreatedAt,
			&dal.UpdatedAt,
		)
		if err != nil {
			return orderitem.OrderItem{}, err
		}

		return *dal.ToModel(), nil
	})
}
