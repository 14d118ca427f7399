package postgresrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/shop/internal/dal/postgres"
	"github.com/corray333/backend-labs/shop/internal/service/models/apperror"
	"github.com/corray333/backend-labs/shop/internal/service/models/order"
	"github.com/corray333/backend-labs/shop/internal/service/models/orderitem"
	"github.com/jackc/pgx/v5"
)

const orderReturning = "RETURNING id, customer_id, total_order_price, created_at, updated_at"

var orderColumns = []string{
	"o.id",
	"o.customer_id",
	"o.total_order_price",
	"o.created_at",
	"o.updated_at",
}

// OrderDal represents order data access layer model
type OrderDal struct {
	Id              int64     `db:"id"`
	CustomerId      int64     `db:"customer_id"`
	TotalOrderPrice int64     `db:"total_order_price"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

// ToModel converts OrderDal to service layer Order model
func (o *OrderDal) ToModel() *order.Order {
	return &order.Order{
		ID:              o.Id,
		CustomerID:      o.CustomerId,
		TotalOrderPrice: o.TotalOrderPrice,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
		OrderItems:      []orderitem.OrderItem{}, // Will be populated separately
	}
}

// PostgresOrderRepository represents a Postgres order repository.
type PostgresOrderRepository struct {
	conn postgres.Conn
	sb   sq.StatementBuilderType
}

// NewPostgresOrderRepository creates a new Postgres order repository.
func NewPostgresOrderRepository(conn postgres.Conn) *PostgresOrderRepository {
	return &PostgresOrderRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// escapeLike escapes LIKE wildcards so the name is matched literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// applyFilter adds the filter conditions shared by Query and Count.
func applyFilter(query sq.SelectBuilder, filter *order.QueryOrdersModel) sq.SelectBuilder {
	if filter.CustomerName != "" {
		query = query.
			Join("customers c ON c.id = o.customer_id").
			Where(sq.ILike{"c.name": "%" + escapeLike(filter.CustomerName) + "%"})
	}

	if len(filter.Ids) > 0 {
		query = query.Where(sq.Eq{"o.id": filter.Ids})
	}

	if filter.CreatedFrom != nil {
		query = query.Where(sq.GtOrEq{"o.created_at": *filter.CreatedFrom})
	}

	if filter.CreatedTo != nil {
		query = query.Where(sq.LtOrEq{"o.created_at": *filter.CreatedTo})
	}

	return query
}

// selectQuery builds the page query for filter.
func (r *PostgresOrderRepository) selectQuery(filter *order.QueryOrdersModel) sq.SelectBuilder {
	query := applyFilter(r.sb.Select(orderColumns...).From("orders o"), filter).OrderBy("o.id")

	if filter.Limit > 0 {
		query = query.Limit(uint64(filter.Limit))
	}

	if filter.Offset > 0 {
		query = query.Offset(uint64(filter.Offset))
	}

	return query
}

// countQuery builds the count query for filter, ignoring pagination.
func (r *PostgresOrderRepository) countQuery(filter *order.QueryOrdersModel) sq.SelectBuilder {
	return applyFilter(r.sb.Select("COUNT(*)").From("orders o"), filter)
}

// Query retrieves orders based on filter criteria
func (r *PostgresOrderRepository) Query(ctx context.Context, filter *order.QueryOrdersModel) ([]order.Order, error) {
	sql, args, err := r.selectQuery(filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	result := make([]order.Order, 0)
	for rows.Next() {
		dal, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		result = append(result, *dal.ToModel())
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

// Count returns the number of orders matching filter.
func (r *PostgresOrderRepository) Count(ctx context.Context, filter *order.QueryOrdersModel) (int, error) {
	sql, args, err := r.countQuery(filter).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var count int
	if err := r.conn.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}

	return count, nil
}

// GetByID retrieves an order by id.
func (r *PostgresOrderRepository) GetByID(ctx context.Context, id int64) (*order.Order, error) {
	return r.getByID(ctx, id, "")
}

// LockByID retrieves an order by id and locks its row until the transaction ends.
func (r *PostgresOrderRepository) LockByID(ctx context.Context, id int64) (*order.Order, error) {
	return r.getByID(ctx, id, "FOR UPDATE")
}

func (r *PostgresOrderRepository) getByID(ctx context.Context, id int64, suffix string) (*order.Order, error) {
	query := r.sb.Select(orderColumns...).From("orders o").Where(sq.Eq{"o.id": id})
	if suffix != "" {
		query = query.Suffix(suffix)
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	dal, err := scanOrder(r.conn.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("order with id %d not found", id)
		}

		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return dal.ToModel(), nil
}

// Insert inserts an order row and returns it with the generated id.
func (r *PostgresOrderRepository) Insert(ctx context.Context, o order.Order) (*order.Order, error) {
	sql, args, err := r.sb.Insert("orders").
		Columns("customer_id", "total_order_price", "created_at", "updated_at").
		Values(o.CustomerID, o.TotalOrderPrice, o.CreatedAt, o.UpdatedAt).
		Suffix(orderReturning).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build insert query: %w", err)
	}

	dal, err := scanOrder(r.conn.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, fmt.Errorf("failed to insert order: %w", err)
	}

	return dal.ToModel(), nil
}

// UpdateTotal sets the total price of an order.
func (r *PostgresOrderRepository) UpdateTotal(
	ctx context.Context,
	id int64,
	total int64,
	updatedAt time.Time,
) (*order.Order, error) {
	sql, args, err := r.sb.Update("orders").
		Set("total_order_price", total).
		Set("updated_at", updatedAt).
		Where(sq.Eq{"id": id}).
		Suffix(orderReturning).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build update query: %w", err)
	}

	dal, err := scanOrder(r.conn.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("order with id %d not found", id)
		}

		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	return dal.ToModel(), nil
}

// Delete removes an order row.
func (r *PostgresOrderRepository) Delete(ctx context.Context, id int64) (*order.Order, error) {
	sql, args, err := r.sb.Delete("orders").
		Where(sq.Eq{"id": id}).
		Suffix(orderReturning).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build delete query: %w", err)
	}

	dal, err := scanOrder(r.conn.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("order with id %d not found", id)
		}

		return nil, fmt.Errorf("failed to delete order: %w", err)
	}

	return dal.ToModel(), nil
}

func scanOrder(row pgx.Row) (*OrderDal, error) {
	var dal OrderDal
	err := row.Scan(
		&dal.Id,
		&dal.CustomerId,
		&dal.TotalOrderPrice,
		&dal.CreatedAt,
		&dal.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &dal, nil
}
