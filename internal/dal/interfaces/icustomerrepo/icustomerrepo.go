package icustomerrepo

import (
	"context"

	"github.com/corray333/backend-labs/shop/internal/service/models/customer"
)

// ICustomerRepository is an interface for customer repository.
type ICustomerRepository interface {
	// FindOrCreateByName returns the customer with exactly this name, creating it if absent.
	// Concurrent calls for the same name resolve to a single customer.
	FindOrCreateByName(ctx context.Context, name string) (*customer.Customer, error)
	GetByIDs(ctx context.Context, ids []int64) ([]customer.Customer, error)
}
