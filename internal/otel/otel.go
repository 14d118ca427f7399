package otel

import (
	"context"

	"github.com/corray333/backend-labs/shop/internal/jaeger"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

const defaultServiceName = "shop-svc"

// Config controls the tracer provider.
type Config struct {
	// Enabled exports spans to jaeger. When false spans are still created
	// so that trace ids reach the logs, but nothing is exported.
	Enabled        bool
	ServiceName    string
	JaegerEndpoint string
	SampleRatio    float64
}

// ConfigFromViper reads the tracing section of the configuration.
func ConfigFromViper() Config {
	return Config{
		Enabled:        viper.GetBool("tracing.enabled"),
		ServiceName:    viper.GetString("tracing.service_name"),
		JaegerEndpoint: viper.GetString("tracing.jaeger_endpoint"),
		SampleRatio:    viper.GetFloat64("tracing.sample_ratio"),
	}
}

type OtelController struct {
	traceProvider *sdktrace.TracerProvider
}

// Init installs a global tracer provider built from cfg.
func Init(cfg Config) (*OtelController, error) {
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = defaultServiceName
	}

	sampler := sdktrace.AlwaysSample()
	if cfg.SampleRatio > 0 && cfg.SampleRatio < 1 {
		sampler = sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sampler),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(serviceName),
		)),
	}

	if cfg.Enabled {
		exporter, err := jaeger.NewJaeger(cfg.JaegerEndpoint)
		if err != nil {
			return nil, err
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}

	tp := sdktrace.NewTracerProvider(opts...)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &OtelController{
		traceProvider: tp,
	}, nil
}

func MustInitOtel() *OtelController {
	controller, err := Init(ConfigFromViper())
	if err != nil {
		panic(err)
	}

	return controller
}

// Shutdown flushes pending spans and stops the provider.
func (o *OtelController) Shutdown(ctx context.Context) error {
	if err := o.traceProvider.Shutdown(ctx); err != nil {
		return err
	}

	return nil
}
