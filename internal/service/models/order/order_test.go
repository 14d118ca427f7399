package order

import (
	"math"
	"testing"

	"github.com/corray333/backend-labs/shop/internal/service/models/orderitem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTotalPrice(t *testing.T) {
	total, err := TotalPrice([]orderitem.OrderItem{
		{Price: 1000, Quantity: 3},
		{Price: 250, Quantity: 4},
		{Price: 0, Quantity: 7},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4000), total)

	total, err = TotalPrice(nil)
	require.NoError(t, err)
	assert.Zero(t, total)

	total, err = TotalPrice([]orderitem.OrderItem{{Price: math.MaxInt64, Quantity: 1}})
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), total)
}

func TestTotalPriceOverflow(t *testing.T) {
	tests := []struct {
		name  string
		items []orderitem.OrderItem
	}{
		{name: "product", items: []orderitem.OrderItem{{Price: 1000, Quantity: 1 << 60}}},
		{name: "sum", items: []orderitem.OrderItem{
			{Price: math.MaxInt64/2 + 1, Quantity: 1},
			{Price: math.MaxInt64/2 + 1, Quantity: 1},
		}},
		{name: "large price", items: []orderitem.OrderItem{{Price: math.MaxInt64 / 2, Quantity: 3}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := TotalPrice(tt.items)

			assert.ErrorIs(t, err, ErrTotalOverflow)
		})
	}
}
