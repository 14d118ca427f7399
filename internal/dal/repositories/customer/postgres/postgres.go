package postgresrepo

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/shop/internal/dal/postgres"
	"github.com/corray333/backend-labs/shop/internal/service/models/customer"
	"github.com/jackc/pgx/v5"
)

// CustomerDal represents customer data access layer model.
type CustomerDal struct {
	Id        int64     `db:"id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// ToModel converts CustomerDal to service layer Customer model.
func (c *CustomerDal) ToModel() *customer.Customer {
	return &customer.Customer{
		ID:        c.Id,
		Name:      c.Name,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// PostgresCustomerRepository represents a Postgres customer repository.
type PostgresCustomerRepository struct {
	conn postgres.Conn
	sb   sq.StatementBuilderType
	now  func() time.Time
}

// NewPostgresCustomerRepository creates a new Postgres customer repository.
func NewPostgresCustomerRepository(conn postgres.Conn) *PostgresCustomerRepository {
	return &PostgresCustomerRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		now:  time.Now,
	}
}

// upsertQuery inserts the customer or, when the name is taken, rewrites the name to itself and returns
// the existing row. The no-op update makes RETURNING yield the conflicting row and locks it
// for the rest of the transaction.
func (r *PostgresCustomerRepository) upsertQuery(name string, now time.Time) sq.InsertBuilder {
	return r.sb.Insert("customers").
		Columns("name", "created_at", "updated_at").
		Values(name, now, now).
		Suffix("ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name " +
			"RETURNING id, name, created_at, updated_at")
}

// FindOrCreateByName returns the customer with the given name, creating it if absent.
func (r *PostgresCustomerRepository) FindOrCreateByName(
	ctx context.Context,
	name string,
) (*customer.Customer, error) {
	sql, args, err := r.upsertQuery(name, r.now()).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build upsert query: %w", err)
	}

	var dal CustomerDal
	err = r.conn.QueryRow(ctx, sql, args...).Scan(&dal.Id, &dal.Name, &dal.CreatedAt, &dal.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to find or create customer: %w", err)
	}

	return dal.ToModel(), nil
}

// GetByIDs retrieves customers by ids.
func (r *PostgresCustomerRepository) GetByIDs(ctx context.Context, ids []int64) ([]customer.Customer, error) {
	if len(ids) == 0 {
		return []customer.Customer{}, nil
	}

	sql, args, err := r.sb.Select("id", "name", "created_at", "updated_at").
		From("customers").
		Where(sq.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}

	result, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (customer.Customer, error) {
		var dal CustomerDal
		if err := row.Scan(&dal.Id, &dal.Name, &dal.CreatedAt, &dal.UpdatedAt); err != nil {
			return customer.Customer{}, err
		}

		return *dal.ToModel(), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan customers: %w", err)
	}

	return result, nil
}
