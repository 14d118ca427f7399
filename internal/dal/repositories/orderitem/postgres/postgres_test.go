package postgresrepo

import (
	"math"
	"testing"
	"time"

	"github.com/corray333/backend-labs/shop/internal/service/models/apperror"
	"github.com/corray333/backend-labs/shop/internal/service/models/orderitem"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBulkInsertArgs(t *testing.T) {
	now := time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)
	items := []orderitem.OrderItem{
		{OrderID: 1, ProductID: 10, Quantity: 3, Price: 1000, CreatedAt: now, UpdatedAt: now},
		{OrderID: 1, ProductID: 11, Quantity: 1, Price: 250, CreatedAt: now, UpdatedAt: now},
	}

	args, err := bulkInsertArgs(items)
	require.NoError(t, err)

	require.Len(t, args, 6)
	assert.Equal(t, []int64{1, 1}, args[0])
	assert.Equal(t, []int64{10, 11}, args[1])
	assert.Equal(t, []int32{3, 1}, args[2])
	assert.Equal(t, []int64{1000, 250}, args[3])
	assert.Equal(t, []time.Time{now, now}, args[4])
}

func TestBulkInsertArgsRejectsQuantityOutOfRange(t *testing.T) {
	for _, quantity := range []int{1<<32 + 3, orderitem.MaxQuantity + 1, 0} {
		_, err := bulkInsertArgs([]orderitem.OrderItem{{OrderID: 1, ProductID: 10, Quantity: quantity, Price: 1000}})

		assert.True(t, apperror.IsValidation(err), "quantity %d: got %v", quantity, err)
	}

	args, err := bulkInsertArgs([]orderitem.OrderItem{{OrderID: 1, ProductID: 10, Quantity: orderitem.MaxQuantity}})
	require.NoError(t, err)
	assert.Equal(t, []int32{math.MaxInt32}, args[2])
}

func TestClassifyInsertError(t *testing.T) {
	foreignKey := &pgconn.PgError{Code: "23503", Detail: `Key (product_id)=(5) is not present in table "products".`}
	assert.True(t, apperror.IsNotFound(classifyInsertError(foreignKey)))

	other := classifyInsertError(&pgconn.PgError{Code: "23514"})
	assert.Equal(t, apperror.KindInternal, apperror.KindOf(other))
	assert.Contains(t, other.Error(), "failed to bulk insert order items")
}

func TestSelectQueryByOrderIds(t *testing.T) {
	repo := NewPostgresOrderItemRepository(nil)

	sql, args, err := repo.selectQuery(&orderitem.QueryOrderItemsModel{OrderIds: []int64{5, 6}}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "FROM order_items")
	assert.Contains(t, sql, "WHERE order_id IN ($1,$2)")
	assert.Contains(t, sql, "ORDER BY order_id, id")
	assert.Equal(t, []any{int64(5), int64(6)}, args)
}
