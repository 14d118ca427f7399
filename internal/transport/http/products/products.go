// Package products holds the product catalog handlers.
package products

import (
	"context"
	"net/http"

	"github.com/corray333/backend-labs/shop/internal/service/models/product"
	"github.com/corray333/backend-labs/shop/internal/transport/http/response"
)

// Service is the product service used by the handlers.
type Service interface {
	ListProducts(ctx context.Context, query product.ListProductsQuery) (*product.ListResult, error)
	GetProduct(ctx context.Context, id int64) (*product.Product, error)
	CreateProduct(ctx context.Context, name string, price int64) (*product.Product, error)
	UpdateProduct(ctx context.Context, id int64, name string, price int64) (*product.Product, error)
	DeleteProduct(ctx context.Context, id int64) (*product.Product, error)
}

type queryProductsRequest struct {
	Page  int `schema:"page"  validate:"omitempty,min=1"`
	Limit int `schema:"limit" validate:"omitempty,min=1"`
}

// productRequest is the body of create and update requests.
// Price is a pointer so that a missing price is told apart from zero.
type productRequest struct {
	Name  string `json:"name"  validate:"required"`
	Price *int64 `json:"price" validate:"required,gte=0"`
}

// ListProducts handles the list products request.
func ListProducts(w http.ResponseWriter, r *http.Request, service Service) {
	query := &queryProductsRequest{}
	if err := response.DecodeQuery(r, query); err != nil {
		response.Error(w, r, err)

		return
	}

	result, err := service.ListProducts(r.Context(), product.ListProductsQuery{Page: query.Page, Limit: query.Limit})
	if err != nil {
		response.Error(w, r, err)

		return
	}

	response.Paginated(w, r, "Products fetched successfully",
		map[string]any{"products": result.Products},
		response.NewPagination(result.TotalItems, result.Page, result.Limit),
	)
}

// GetProduct handles the get product request.
func GetProduct(w http.ResponseWriter, r *http.Request, service Service) {
	id, err := response.ParseID(r, "id")
	if err != nil {
		response.Error(w, r, err)

		return
	}

	p, err := service.GetProduct(r.Context(), id)
	if err != nil {
		response.Error(w, r, err)

		return
	}

	response.Success(w, r, "Product fetched successfully", map[string]any{"product": p})
}

// CreateProduct handles the create product request.
func CreateProduct(w http.ResponseWriter, r *http.Request, service Service) {
	req := productRequest{}
	if err := response.DecodeJSON(r, &req); err != nil {
		response.Error(w, r, err)

		return
	}

	created, err := service.CreateProduct(r.Context(), req.Name, *req.Price)
	if err != nil {
		response.Error(w, r, err)

		return
	}

	response.Created(w, r, "Product created successfully", map[string]any{"product": created})
}

// UpdateProduct handles the update product request.
func UpdateProduct(w http.ResponseWriter, r *http.Request, service Service) {
	id, err := response.ParseID(r, "id")
	if err != nil {
		response.Error(w, r, err)

		return
	}

	req := productRequest{}
	if err := response.DecodeJSON(r, &req); err != nil {
		response.Error(w, r, err)

		return
	}

	updated, err := service.UpdateProduct(r.Context(), id, req.Name, *req.Price)
	if err != nil {
		response.Error(w, r, err)

		return
	}

	response.Success(w, r, "Product updated successfully", map[string]any{"product": updated})
}

// DeleteProduct handles the delete product request.
func DeleteProduct(w http.ResponseWriter, r *http.Request, service Service) {
	id, err := response.ParseID(r, "id")
	if err != nil {
		response.Error(w, r, err)

		return
	}

	deleted, err := service.DeleteProduct(r.Context(), id)
	if err != nil {
		response.Error(w, r, err)

		return
	}

	response.Success(w, r, "Product deleted successfully", map[string]any{"product": deleted})
}
