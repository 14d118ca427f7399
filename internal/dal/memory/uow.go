package memory

import (
	"context"
	"errors"

	"github.com/corray333/backend-labs/shop/internal/dal/interfaces/icustomerrepo"
	"github.com/corray333/backend-labs/shop/internal/dal/interfaces/iorderitemrepo"
	"github.com/corray333/backend-labs/shop/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/backend-labs/shop/internal/dal/interfaces/ioutboxrepo"
	"github.com/corray333/backend-labs/shop/internal/dal/interfaces/iproductrepo"
)

var (
	// ErrNotStarted is returned by Commit when Begin was not called.
	ErrNotStarted = errors.New("transaction not started")
	// ErrAlreadyStarted is returned by Begin on an open unit of work.
	ErrAlreadyStarted = errors.New("transaction already started")
)

// UnitOfWork groups the memory repositories into one transaction.
// Begin takes the store's write lock; Commit or Rollback must follow.
type UnitOfWork struct {
	store  *Store
	staged *state

	productRepo   *ProductRepository
	customerRepo  *CustomerRepository
	orderRepo     *OrderRepository
	orderItemRepo *OrderItemRepository
	outboxRepo    *OutboxRepository
}

// NewUnitOfWork creates a unit of work over store.
func NewUnitOfWork(store *Store) *UnitOfWork {
	u := &UnitOfWork{store: store}
	u.bind(storeAccess{store: store})

	return u
}

func (u *UnitOfWork) bind(acc access) {
	u.productRepo = &ProductRepository{acc: acc}
	u.customerRepo = &CustomerRepository{acc: acc}
	u.orderRepo = &OrderRepository{acc: acc}
	u.orderItemRepo = &OrderItemRepository{acc: acc}
	u.outboxRepo = &OutboxRepository{acc: acc}
}

// ProductRepository returns the product repository.
func (u *UnitOfWork) ProductRepository() iproductrepo.IProductRepository {
	return u.productRepo
}

// CustomerRepository returns the customer repository.
func (u *UnitOfWork) CustomerRepository() icustomerrepo.ICustomerRepository {
	return u.customerRepo
}

// OrderRepository returns the order repository.
func (u *UnitOfWork) OrderRepository() iorderrepo.IOrderRepository {
	return u.orderRepo
}

// OrderItemRepository returns the order item repository.
func (u *UnitOfWork) OrderItemRepository() iorderitemrepo.IOrderItemRepository {
	return u.orderItemRepo
}

// OutboxRepository returns the outbox repository.
func (u *UnitOfWork) OutboxRepository() ioutboxrepo.IOutboxRepository {
	return u.outboxRepo
}

// Begin locks the store and stages writes on a copy of its state.
func (u *UnitOfWork) Begin(ctx context.Context) error {
	if u.staged != nil {
		return ErrAlreadyStarted
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	u.store.mu.Lock()
	u.staged = u.store.st.clone()
	u.bind(txAccess{st: u.staged})

	return nil
}

// Commit publishes the staged state and releases the lock.
func (u *UnitOfWork) Commit(_ context.Context) error {
	if u.staged == nil {
		return ErrNotStarted
	}

	u.store.st = u.staged
	u.release()

	return nil
}

// Rollback discards the staged state. It is a no-op after Commit.
func (u *UnitOfWork) Rollback(_ context.Context) error {
	if u.staged == nil {
		return nil
	}

	u.release()

	return nil
}

func (u *UnitOfWork) release() {
	u.staged = nil
	u.store.mu.Unlock()
	u.bind(storeAccess{store: u.store})
}
