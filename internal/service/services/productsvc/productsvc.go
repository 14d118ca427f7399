package productsvc

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/corray333/backend-labs/shop/internal/dal/interfaces/iproductrepo"
	"github.com/corray333/backend-labs/shop/internal/dal/memory"
	"github.com/corray333/backend-labs/shop/internal/dal/postgres"
	"github.com/corray333/backend-labs/shop/internal/dal/uow"
	"github.com/corray333/backend-labs/shop/internal/metrics"
	"github.com/corray333/backend-labs/shop/internal/service/models/apperror"
	"github.com/corray333/backend-labs/shop/internal/service/models/pagination"
	"github.com/corray333/backend-labs/shop/internal/service/models/product"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ProductService is a service for managing products.
type ProductService struct {
	newUOW  func() unitOfWork
	now     func() time.Time
	metrics *metrics.Metrics
	limits  pagination.Limits
}

type unitOfWork interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	ProductRepository() iproductrepo.IProductRepository
}

type option func(*ProductService)

// MustNewProductService creates a new ProductService. A storage option is required.
func MustNewProductService(opts ...option) *ProductService {
	s := &ProductService{
		now:    time.Now,
		limits: pagination.DefaultLimits(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.newUOW == nil {
		panic("productsvc: no storage configured")
	}

	return s
}

// WithPostgresClient sets the Postgres client for the ProductService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPostgresClient(pgClient *postgres.Client) option {
	return func(s *ProductService) {
		s.newUOW = func() unitOfWork {
			return uow.NewUnitOfWork(pgClient)
		}
	}
}

// WithMemoryStore backs the ProductService with an in-memory store.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithMemoryStore(store *memory.Store) option {
	return func(s *ProductService) {
		s.newUOW = func() unitOfWork {
			return memory.NewUnitOfWork(store)
		}
	}
}

// WithClock sets the time source used for product timestamps.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithClock(now func() time.Time) option {
	return func(s *ProductService) {
		s.now = now
	}
}

// WithMetrics sets the prometheus collectors.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithMetrics(m *metrics.Metrics) option {
	return func(s *ProductService) {
		s.metrics = m
	}
}

// WithPagination sets the default and maximum page size of ListProducts.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPagination(limits pagination.Limits) option {
	return func(s *ProductService) {
		s.limits = limits
	}
}

func (s *ProductService) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return otel.Tracer("productsvc").Start(ctx, "ProductService."+name)
}

func (s *ProductService) finish(span trace.Span, operation string, start time.Time, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
	s.metrics.RecordOperation(operation, start, err)
}

func validate(name string, price int64) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperror.Validation("name is required")
	}
	if price < 0 {
		return "", apperror.Validation("price must be a non-negative integer")
	}

	return name, nil
}

// ListProducts returns a page of products ordered by id.
func (s *ProductService) ListProducts(
	ctx context.Context,
	query product.ListProductsQuery,
) (result *product.ListResult, err error) {
	start := time.Now()
	ctx, span := s.startSpan(ctx, "ListProducts")
	defer func() { s.finish(span, "list_products", start, err) }()

	page := pagination.Normalize(query.Page, query.Limit, s.limits)
	repo := s.newUOW().ProductRepository()

	total, err := repo.Count(ctx)
	if err != nil {
		slog.Error("Failed to count products", "error", err)

		return nil, apperror.Internal(err, "failed to count products")
	}

	products, err := repo.Query(ctx, &product.QueryProductsModel{
		Limit:  page.Limit,
		Offset: page.Offset(),
	})
	if err != nil {
		slog.Error("Failed to query products", "error", err)

		return nil, apperror.Internal(err, "failed to query products")
	}

	return &product.ListResult{
		Products:   products,
		TotalItems: total,
		Page:       page.Page,
		Limit:      page.Limit,
	}, nil
}

// GetProduct returns a product by id.
func (s *ProductService) GetProduct(ctx context.Context, id int64) (p *product.Product, err error) {
	start := time.Now()
	ctx, span := s.startSpan(ctx, "GetProduct")
	span.SetAttributes(attribute.Int64("product.id", id))
	defer func() { s.finish(span, "get_product", start, err) }()

	p, err = s.newUOW().ProductRepository().GetByID(ctx, id)
	if err != nil {
		return nil, apperror.Internal(err, "failed to get product")
	}

	return p, nil
}

// CreateProduct creates a product.
func (s *ProductService) CreateProduct(
	ctx context.Context,
	name string,
	price int64,
) (created *product.Product, err error) {
	start := time.Now()
	ctx, span := s.startSpan(ctx, "CreateProduct")
	defer func() { s.finish(span, "create_product", start, err) }()

	name, err = validate(name, price)
	if err != nil {
		return nil, err
	}

	now := s.now()
	created, err = s.newUOW().ProductRepository().Insert(ctx, product.Product{
		Name:      name,
		Price:     price,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		slog.Error("Failed to create product", "name", name, "error", err)

		return nil, apperror.Internal(err, "failed to create product")
	}

	slog.Info("Product created", "product_id", created.ID)

	return created, nil
}

// UpdateProduct overwrites name and price of a product.
// Existing order items keep the price they were placed with.
func (s *ProductService) UpdateProduct(
	ctx context.Context,
	id int64,
	name string,
	price int64,
) (updated *product.Product, err error) {
	start := time.Now()
	ctx, span := s.startSpan(ctx, "UpdateProduct")
	span.SetAttributes(attribute.Int64("product.id", id))
	defer func() { s.finish(span, "update_product", start, err) }()

	name, err = validate(name, price)
	if err != nil {
		return nil, err
	}

	updated, err = s.newUOW().ProductRepository().Update(ctx, product.Product{
		ID:        id,
		Name:      name,
		Price:     price,
		UpdatedAt: s.now(),
	})
	if err != nil {
		if !apperror.IsNotFound(err) {
			slog.Error("Failed to update product", "product_id", id, "error", err)
		}

		return nil, apperror.Internal(err, "failed to update product")
	}

	return updated, nil
}

// DeleteProduct deletes a product. Products referenced by orders are kept
// and a conflict error is returned.
func (s *ProductService) DeleteProduct(ctx context.Context, id int64) (deleted *product.Product, err error) {
	start := time.Now()
	ctx, span := s.startSpan(ctx, "DeleteProduct")
	span.SetAttributes(attribute.Int64("product.id", id))
	defer func() { s.finish(span, "delete_product", start, err) }()

	deleted, err = s.newUOW().ProductRepository().Delete(ctx, id)
	if err != nil {
		if apperror.KindOf(err) == apperror.KindInternal {
			slog.Error("Failed to delete product", "product_id", id, "error", err)
		}

		return nil, apperror.Internal(err, "failed to delete product")
	}

	slog.Info("Product deleted", "product_id", id)

	return deleted, nil
}
