package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/corray333/backend-labs/shop/internal/dal/rabbitmq"
	"github.com/corray333/backend-labs/shop/internal/metrics"
	"github.com/corray333/backend-labs/shop/internal/otel"
	"github.com/corray333/backend-labs/shop/internal/service/models/outbox"
	grpctransport "github.com/corray333/backend-labs/shop/internal/transport/grpc"
	httptransport "github.com/corray333/backend-labs/shop/internal/transport/http"
	outboxworker "github.com/corray333/backend-labs/shop/internal/worker/outbox"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// App represents the application.
type App struct {
	storage       *Storage
	otel          *otel.OtelController
	httpTransport *httptransport.HTTPTransport
	grpcTransport *grpctransport.GRPCTransport
	rabbitClient  *rabbitmq.Client
	outboxWorker  *outboxworker.Worker
}

// New wires the application from the loaded configuration.
func New(ctx context.Context) (*App, error) {
	otelController, err := otel.Init(otel.ConfigFromViper())
	if err != nil {
		return nil, err
	}

	storage, err := OpenStorage(ctx, viper.GetString("storage.driver"))
	if err != nil {
		_ = otelController.Shutdown(ctx)

		return nil, err
	}

	a := &App{
		storage: storage,
		otel:    otelController,
	}

	m := metrics.New()

	var destination outbox.Destination
	if viper.GetBool("rabbitmq.enabled") {
		if err := a.connectRabbit(m); err != nil {
			a.close(ctx)

			return nil, err
		}
		destination = outbox.Destination{
			ExchangeName: viper.GetString("rabbitmq.exchange"),
			RoutingKey:   viper.GetString("rabbitmq.routing_key"),
			MaxRetries:   viper.GetInt("rabbitmq.outbox.max_retries"),
		}
	}

	orderSvc := storage.NewOrderService(m, destination)
	productSvc := storage.NewProductService(m)

	a.httpTransport = httptransport.NewHTTPTransport(orderSvc, productSvc,
		httptransport.WithMetrics(m),
		httptransport.WithHealthCheck(storage.Ping),
	)
	a.httpTransport.RegisterRoutes()

	a.grpcTransport = grpctransport.NewGRPCTransport(storage.Ping)

	return a, nil
}

// MustNewApp creates a new application.
func MustNewApp() *App {
	a, err := New(context.Background())
	if err != nil {
		panic(err)
	}

	return a
}

func (a *App) connectRabbit(m *metrics.Metrics) error {
	client, err := rabbitmq.NewClient(viper.GetString("rabbitmq.url"))
	if err != nil {
		return err
	}
	a.rabbitClient = client

	exchange := viper.GetString("rabbitmq.exchange")
	if err := client.DeclareExchange(exchange); err != nil {
		return fmt.Errorf("failed to declare exchange %q: %w", exchange, err)
	}

	if queue := viper.GetString("rabbitmq.queue"); queue != "" {
		if _, err := client.DeclareQueue(rabbitmq.DeclareQueueConfig{Name: queue, Durable: true}); err != nil {
			return fmt.Errorf("failed to declare queue %q: %w", queue, err)
		}
		if err := client.BindQueue(queue, viper.GetString("rabbitmq.routing_key"), exchange); err != nil {
			return fmt.Errorf("failed to bind queue %q: %w", queue, err)
		}
	}

	a.outboxWorker = outboxworker.NewWorker(a.storage.OutboxRepository(), client,
		outboxworker.WithMetrics(m),
	)

	return nil
}

// Run serves until ctx is cancelled or an interrupt signal arrives,
// then shuts everything down gracefully.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("Starting HTTP server")
		if err := a.httpTransport.Run(); err != nil {
			return fmt.Errorf("http server: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		if err := a.grpcTransport.Run(); err != nil {
			return fmt.Errorf("grpc server: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		a.grpcTransport.Watch(gctx)

		return nil
	})

	if a.outboxWorker != nil {
		g.Go(func() error {
			a.outboxWorker.Start(gctx)

			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return a.shutdown(shutdownCtx)
	})

	err := g.Wait()

	closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	a.close(closeCtx)

	slog.Info("Application shutdown complete")

	return err
}

func (a *App) shutdown(ctx context.Context) error {
	var errs []error

	if err := a.httpTransport.Shutdown(ctx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
		errs = append(errs, err)
	} else {
		slog.Info("HTTP server stopped gracefully")
	}

	if err := a.grpcTransport.Shutdown(ctx); err != nil {
		slog.Error("gRPC server shutdown error", "error", err)
		errs = append(errs, err)
	} else {
		slog.Info("gRPC server stopped gracefully")
	}

	return errors.Join(errs...)
}

func (a *App) close(ctx context.Context) {
	if a.rabbitClient != nil {
		if err := a.rabbitClient.Close(); err != nil {
			slog.Error("RabbitMQ connection close error", "error", err)
		}
	}

	a.storage.Close()
	slog.Info("Storage closed")

	if err := a.otel.Shutdown(ctx); err != nil {
		slog.Error("Tracer provider shutdown error", "error", err)
	}
}
