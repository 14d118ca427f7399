package app

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useMemoryConfig(t *testing.T) {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("storage.driver", DriverMemory)
	viper.Set("server.http.port", "0")
	viper.Set("server.grpc.port", "0")
	viper.Set("pagination.default_limit", 5)
	viper.Set("pagination.max_limit", 20)
}

func TestOpenStorageUnknownDriver(t *testing.T) {
	_, err := OpenStorage(context.Background(), "sqlite")
	assert.ErrorContains(t, err, `unknown storage driver "sqlite"`)
}

func TestPaginationLimits(t *testing.T) {
	useMemoryConfig(t)

	limits := paginationLimits()
	assert.Equal(t, 5, limits.Default)
	assert.Equal(t, 20, limits.Max)

	viper.Set("pagination.default_limit", 50)
	assert.Equal(t, 20, paginationLimits().Default)
}

func TestMemoryStorageServices(t *testing.T) {
	useMemoryConfig(t)

	storage, err := OpenStorage(context.Background(), DriverMemory)
	require.NoError(t, err)
	defer storage.Close()

	require.NoError(t, storage.Ping(context.Background()))

	inserted, err := storage.NewProductService(nil).Seed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, inserted)

	pending, err := storage.OutboxRepository().Due(context.Background(), time.Now(), 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestRunStopsOnCancel(t *testing.T) {
	useMemoryConfig(t)

	a, err := New(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- a.Run(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not shut down")
	}
}
