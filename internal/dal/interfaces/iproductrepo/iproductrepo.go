package iproductrepo

import (
	"context"

	"github.com/corray333/backend-labs/shop/internal/service/models/product"
)

// IProductRepository is an interface for product repository.
type IProductRepository interface {
	Query(ctx context.Context, filter *product.QueryProductsModel) ([]product.Product, error)
	Count(ctx context.Context) (int, error)
	// GetByID returns a not found error when the product does not exist.
	GetByID(ctx context.Context, id int64) (*product.Product, error)
	Insert(ctx context.Context, p product.Product) (*product.Product, error)
	Update(ctx context.Context, p product.Product) (*product.Product, error)
	// Delete returns a conflict error while order items still reference the product.
	Delete(ctx context.Context, id int64) (*product.Product, error)
}
