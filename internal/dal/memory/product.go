package memory

import (
	"context"

	"github.com/corray333/backend-labs/shop/internal/service/models/apperror"
	"github.com/corray333/backend-labs/shop/internal/service/models/product"
)

// ProductRepository is the in-memory product repository.
type ProductRepository struct {
	acc access
}

// Query retrieves products based on filter criteria, ordered by id.
func (r *ProductRepository) Query(
	_ context.Context,
	filter *product.QueryProductsModel,
) ([]product.Product, error) {
	var result []product.Product
	err := r.acc.read(func(st *state) error {
		ids := idSet(filter.Ids)
		matched := make([]product.Product, 0)
		for _, p := range sortedValues(st.products) {
			if len(ids) > 0 && !contains(ids, p.ID) {
				continue
			}
			matched = append(matched, p)
		}
		result = paginate(matched, filter.Limit, filter.Offset)

		return nil
	})

	return result, err
}

// Count returns the number of products.
func (r *ProductRepository) Count(_ context.Context) (int, error) {
	var count int
	err := r.acc.read(func(st *state) error {
		count = len(st.products)

		return nil
	})

	return count, err
}

// GetByID retrieves a product by id.
func (r *ProductRepository) GetByID(_ context.Context, id int64) (*product.Product, error) {
	var result product.Product
	err := r.acc.read(func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return apperror.NotFound("product with id %d not found", id)
		}
		result = p

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// Insert stores a product under a new id.
func (r *ProductRepository) Insert(_ context.Context, p product.Product) (*product.Product, error) {
	err := r.acc.write(func(st *state) error {
		st.seq.product++
		p.ID = st.seq.product
		st.products[p.ID] = p

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &p, nil
}

// Update overwrites name and price of an existing product.
func (r *ProductRepository) Update(_ context.Context, p product.Product) (*product.Product, error) {
	var result product.Product
	err := r.acc.write(func(st *state) error {
		existing, ok := st.products[p.ID]
		if !ok {
			return apperror.NotFound("product with id %d not found", p.ID)
		}
		existing.Name = p.Name
		existing.Price = p.Price
		existing.UpdatedAt = p.UpdatedAt
		st.products[p.ID] = existing
		result = existing

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// Delete removes a product that no order item references.
func (r *ProductRepository) Delete(_ context.Context, id int64) (*product.Product, error) {
	var result product.Product
	err := r.acc.write(func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return apperror.NotFound("product with id %d not found", id)
		}
		for _, item := range st.orderItems {
			if item.ProductID == id {
				return apperror.Conflict(
					ErrForeignKey,
					"product with id %d is referenced by existing orders",
					id,
				)
			}
		}
		delete(st.products, id)
		result = p

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}
