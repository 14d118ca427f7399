package memory

import (
	"context"
	"time"

	"github.com/corray333/backend-labs/shop/internal/service/models/customer"
)

// CustomerRepository is the in-memory customer repository.
type CustomerRepository struct {
	acc access
}

// FindOrCreateByName returns the customer with exactly this name, creating it if absent.
// The lookup and the insert run under one write lock.
func (r *CustomerRepository) FindOrCreateByName(_ context.Context, name string) (*customer.Customer, error) {
	var result customer.Customer
	err := r.acc.write(func(st *state) error {
		for _, c := range st.customers {
			if c.Name == name {
				result = c

				return nil
			}
		}

		now := time.Now()
		st.seq.customer++
		result = customer.Customer{
			ID:        st.seq.customer,
			Name:      name,
			CreatedAt: now,
			UpdatedAt: now,
		}
		st.customers[result.ID] = result

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// GetByIDs retrieves customers by ids.
func (r *CustomerRepository) GetByIDs(_ context.Context, ids []int64) ([]customer.Customer, error) {
	result := make([]customer.Customer, 0, len(ids))
	err := r.acc.read(func(st *state) error {
		for _, id := range ids {
			if c, ok := st.customers[id]; ok {
				result = append(result, c)
			}
		}

		return nil
	})

	return result, err
}
