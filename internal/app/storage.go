package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/corray333/backend-labs/shop/internal/dal/interfaces/ioutboxrepo"
	"github.com/corray333/backend-labs/shop/internal/dal/memory"
	"github.com/corray333/backend-labs/shop/internal/dal/postgres"
	outboxrepo "github.com/corray333/backend-labs/shop/internal/dal/repositories/outbox/postgres"
	"github.com/corray333/backend-labs/shop/internal/metrics"
	"github.com/corray333/backend-labs/shop/internal/service/models/outbox"
	"github.com/corray333/backend-labs/shop/internal/service/models/pagination"
	"github.com/corray333/backend-labs/shop/internal/service/services/ordersvc"
	"github.com/corray333/backend-labs/shop/internal/service/services/productsvc"
	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Storage is the persistence backend selected by storage.driver.
// Exactly one of Postgres and Memory is set.
type Storage struct {
	Postgres *postgres.Client
	Memory   *memory.Store
}

// OpenStorage connects to the backend named by driver.
func OpenStorage(ctx context.Context, driver string) (*Storage, error) {
	switch driver {
	case DriverPostgres, "":
		client, err := postgres.NewClient(ctx, postgres.ConfigFromViper())
		if err != nil {
			return nil, err
		}

		return &Storage{Postgres: client}, nil
	case DriverMemory:
		slog.Warn("Using in-memory storage, data is lost on restart")

		return &Storage{Memory: memory.NewStore()}, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}

// Ping checks that the backend is reachable.
func (s *Storage) Ping(ctx context.Context) error {
	if s.Postgres != nil {
		return s.Postgres.Ping(ctx)
	}

	return nil
}

// Close releases the backend connections.
func (s *Storage) Close() {
	if s.Postgres != nil {
		s.Postgres.Close()
	}
}

// OutboxRepository returns an outbox repository outside of any transaction.
func (s *Storage) OutboxRepository() ioutboxrepo.IOutboxRepository {
	if s.Postgres != nil {
		return outboxrepo.NewOutboxRepository(s.Postgres.Pool())
	}

	return memory.NewUnitOfWork(s.Memory).OutboxRepository()
}

// NewProductService builds the product service over the backend.
func (s *Storage) NewProductService(m *metrics.Metrics) *productsvc.ProductService {
	backend := productsvc.WithMemoryStore(s.Memory)
	if s.Postgres != nil {
		backend = productsvc.WithPostgresClient(s.Postgres)
	}

	return productsvc.MustNewProductService(
		backend,
		productsvc.WithMetrics(m),
		productsvc.WithPagination(paginationLimits()),
	)
}

// NewOrderService builds the order service over the backend. Events are
// written to the outbox only when destination is enabled.
func (s *Storage) NewOrderService(m *metrics.Metrics, destination outbox.Destination) *ordersvc.OrderService {
	backend := ordersvc.WithMemoryStore(s.Memory)
	if s.Postgres != nil {
		backend = ordersvc.WithPostgresClient(s.Postgres)
	}

	return ordersvc.MustNewOrderService(
		backend,
		ordersvc.WithMetrics(m),
		ordersvc.WithPagination(paginationLimits()),
		ordersvc.WithEventDestination(destination),
	)
}

func paginationLimits() pagination.Limits {
	limits := pagination.DefaultLimits()
	if v := viper.GetInt("pagination.default_limit"); v > 0 {
		limits.Default = v
	}
	if v := viper.GetInt("pagination.max_limit"); v > 0 {
		limits.Max = v
	}
	if limits.Default > limits.Max {
		limits.Default = limits.Max
	}

	return limits
}
