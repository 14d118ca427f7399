package grpctransport

import (
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/spf13/viper"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
)

// ServiceName is the name the shop service reports health under.
const ServiceName = "shop.v1.Shop"

// HealthCheck reports whether the service dependencies are reachable.
type HealthCheck func(ctx context.Context) error

// GRPCTransport represents the gRPC transport layer.
type GRPCTransport struct {
	server   *grpc.Server
	health   *health.Server
	check    HealthCheck
	interval time.Duration
}

// NewGRPCTransport creates a new GRPCTransport serving the standard health service.
// A nil check keeps the service in SERVING state.
func NewGRPCTransport(check HealthCheck) *GRPCTransport {
	interval := time.Duration(viper.GetInt("server.grpc.health_interval_seconds")) * time.Second
	if interval <= 0 {
		interval = 10 * time.Second
	}

	g := &GRPCTransport{
		server:   newGRPCServer(),
		health:   health.NewServer(),
		check:    check,
		interval: interval,
	}
	g.RegisterServices()

	return g
}

// Run listens on the configured port and serves until Shutdown.
func (g *GRPCTransport) Run() error {
	listener, err := net.Listen("tcp", ":"+viper.GetString("server.grpc.port"))
	if err != nil {
		return err
	}

	return g.Serve(listener)
}

// Serve serves gRPC on the given listener.
func (g *GRPCTransport) Serve(listener net.Listener) error {
	slog.Info("Starting gRPC server", "address", listener.Addr().String())

	return g.server.Serve(listener)
}

// Watch runs the health check every interval and updates the reported status
// until ctx is done.
func (g *GRPCTransport) Watch(ctx context.Context) {
	g.probe(ctx)

	if g.check == nil {
		return
	}

	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.probe(ctx)
		}
	}
}

func (g *GRPCTransport) probe(ctx context.Context) {
	status := healthpb.HealthCheckResponse_SERVING
	if g.check != nil {
		checkCtx, cancel := context.WithTimeout(ctx, g.interval)
		defer cancel()

		if err := g.check(checkCtx); err != nil {
			slog.Warn("Health check failed", "error", err)
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}

	g.health.SetServingStatus("", status)
	g.health.SetServingStatus(ServiceName, status)
}

// Shutdown gracefully shuts down the gRPC server.
func (g *GRPCTransport) Shutdown(ctx context.Context) error {
	g.health.Shutdown()

	done := make(chan struct{})
	go func() {
		g.server.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		g.server.Stop()

		return ctx.Err()
	}
}

// RegisterServices registers the gRPC services.
func (g *GRPCTransport) RegisterServices() {
	healthpb.RegisterHealthServer(g.server, g.health)
}

// newGRPCServer creates a new gRPC server with default settings.
func newGRPCServer() *grpc.Server {
	keepaliveParams := keepalive.ServerParameters{
		MaxConnectionIdle: time.Duration(
			viper.GetInt("server.grpc.keepalive.max_connection_idle"),
		) * time.Minute,
		MaxConnectionAge: time.Duration(
			viper.GetInt("server.grpc.keepalive.max_connection_age"),
		) * time.Minute,
		MaxConnectionAgeGrace: time.Duration(
			viper.GetInt("server.grpc.keepalive.max_connection_age_grace"),
		) * time.Second,
		Time: time.Duration(
			viper.GetInt("server.grpc.keepalive.time"),
		) * time.Second,
		Timeout: time.Duration(
			viper.GetInt("server.grpc.keepalive.timeout"),
		) * time.Second,
	}

	keepalivePolicy := keepalive.EnforcementPolicy{
		MinTime: time.Duration(
			viper.GetInt("server.grpc.keepalive.min_time"),
		) * time.Second,
		PermitWithoutStream: viper.GetBool("server.grpc.keepalive.permit_without_stream"),
	}

	opts := []grpc.ServerOption{
		grpc.KeepaliveParams(keepaliveParams),
		grpc.KeepaliveEnforcementPolicy(keepalivePolicy),
	}

	return grpc.NewServer(opts...)
}
