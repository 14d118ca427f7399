package otel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestInitDisabledStillTraces(t *testing.T) {
	controller, err := Init(Config{})
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "op")
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	assert.NoError(t, controller.Shutdown(context.Background()))
}

func TestInitWithJaeger(t *testing.T) {
	controller, err := Init(Config{
		Enabled:        true,
		ServiceName:    "shop-svc-test",
		JaegerEndpoint: "http://127.0.0.1:1/api/traces",
		SampleRatio:    0.5,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// Nothing was recorded, so shutting down never reaches the collector.
	_ = controller.Shutdown(ctx)
}
