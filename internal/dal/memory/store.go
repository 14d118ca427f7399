// Package memory is an in-process storage backend with the same contracts as the Postgres one.
// Transactions hold the store's write lock and stage their writes on a copy of the data.
package memory

import (
	"sort"
	"sync"

	"github.com/corray333/backend-labs/shop/internal/service/models/customer"
	"github.com/corray333/backend-labs/shop/internal/service/models/order"
	"github.com/corray333/backend-labs/shop/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/shop/internal/service/models/outbox"
	"github.com/corray333/backend-labs/shop/internal/service/models/product"
)

type sequences struct {
	product   int64
	customer  int64
	order     int64
	orderItem int64
	outbox    int64
}

type state struct {
	products   map[int64]product.Product
	customers  map[int64]customer.Customer
	orders     map[int64]order.Order
	orderItems map[int64]orderitem.OrderItem
	outbox     map[int64]outbox.Message
	seq        sequences
}

func newState() *state {
	return &state{
		products:   make(map[int64]product.Product),
		customers:  make(map[int64]customer.Customer),
		orders:     make(map[int64]order.Order),
		orderItems: make(map[int64]orderitem.OrderItem),
		outbox:     make(map[int64]outbox.Message),
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}

	return out
}

func (s *state) clone() *state {
	return &state{
		products:   cloneMap(s.products),
		customers:  cloneMap(s.customers),
		orders:     cloneMap(s.orders),
		orderItems: cloneMap(s.orderItems),
		outbox:     cloneMap(s.outbox),
		seq:        s.seq,
	}
}

// Store holds all entities in memory.
type Store struct {
	mu sync.RWMutex
	st *state
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{st: newState()}
}

// access runs repository code against a state.
type access interface {
	read(fn func(st *state) error) error
	write(fn func(st *state) error) error
}

// storeAccess applies every call as its own transaction on the committed state.
type storeAccess struct {
	store *Store
}

func (a storeAccess) read(fn func(st *state) error) error {
	a.store.mu.RLock()
	defer a.store.mu.RUnlock()

	return fn(a.store.st)
}

func (a storeAccess) write(fn func(st *state) error) error {
	a.store.mu.Lock()
	defer a.store.mu.Unlock()

	staged := a.store.st.clone()
	if err := fn(staged); err != nil {
		return err
	}
	a.store.st = staged

	return nil
}

// txAccess works on the staged state of an open unit of work, whose lock is already held.
type txAccess struct {
	st *state
}

func (a txAccess) read(fn func(st *state) error) error {
	return fn(a.st)
}

func (a txAccess) write(fn func(st *state) error) error {
	return fn(a.st)
}

// sortedValues returns the values of m ordered by key.
func sortedValues[V any](m map[int64]V) []V {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	out := make([]V, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}

	return out
}

// paginate applies offset and limit; non-positive values disable them.
func paginate[V any](items []V, limit, offset int) []V {
	if offset > 0 {
		if offset >= len(items) {
			return []V{}
		}
		items = items[offset:]
	}

	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}

	return items
}

func idSet(ids []int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}

	return set
}

func contains(set map[int64]struct{}, id int64) bool {
	_, ok := set[id]

	return ok
}
