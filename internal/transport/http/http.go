package httptransport

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/corray333/backend-labs/shop/internal/metrics"
	"github.com/corray333/backend-labs/shop/internal/service/models/order"
	"github.com/corray333/backend-labs/shop/internal/service/models/orderitem"
	createorder "github.com/corray333/backend-labs/shop/internal/transport/http/create_order"
	deleteorder "github.com/corray333/backend-labs/shop/internal/transport/http/delete_order"
	editorder "github.com/corray333/backend-labs/shop/internal/transport/http/edit_order"
	getorder "github.com/corray333/backend-labs/shop/internal/transport/http/get_order"
	listorders "github.com/corray333/backend-labs/shop/internal/transport/http/list_orders"
	"github.com/corray333/backend-labs/shop/internal/transport/http/products"
	"github.com/corray333/backend-labs/shop/internal/transport/http/response"
	metricsmw "github.com/corray333/backend-labs/shop/pkg/http/middleware/metrics"
	"github.com/corray333/backend-labs/shop/pkg/http/middleware/trace"
	"github.com/corray333/backend-labs/shop/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"
)

const serviceName = "shop-svc"

type orderService interface {
	CreateOrder(ctx context.Context, customerName string, items []orderitem.ItemInput) (*order.Order, error)
	EditOrder(ctx context.Context, id int64, items []orderitem.ItemInput) (*order.Order, error)
	ListOrders(ctx context.Context, query order.ListOrdersQuery) (*order.ListResult, error)
	GetOrder(ctx context.Context, id int64) (*order.Order, error)
	DeleteOrder(ctx context.Context, id int64) (bool, error)
}

// HealthCheck reports whether the service dependencies are reachable.
type HealthCheck func(ctx context.Context) error

type HTTPTransport struct {
	server   *http.Server
	router   *chi.Mux
	orders   orderService
	products products.Service
	metrics  *metrics.Metrics
	health   HealthCheck
}

type option func(*HTTPTransport)

// WithMetrics records request metrics and serves them on /metrics.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithMetrics(m *metrics.Metrics) option {
	return func(h *HTTPTransport) {
		h.metrics = m
	}
}

// WithHealthCheck sets the check behind /healthz.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithHealthCheck(check HealthCheck) option {
	return func(h *HTTPTransport) {
		h.health = check
	}
}

func NewHTTPTransport(orders orderService, productService products.Service, opts ...option) *HTTPTransport {
	h := &HTTPTransport{
		orders:   orders,
		products: productService,
	}
	for _, opt := range opts {
		opt(h)
	}

	h.router = h.newRouter()
	h.server = newServer(h.router)

	return h
}

// Handler returns the router serving all routes.
func (h *HTTPTransport) Handler() http.Handler {
	return h.router
}

func (h *HTTPTransport) Run() error {
	slog.Info("HTTP server listening", "addr", h.server.Addr)

	if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (h *HTTPTransport) Shutdown(ctx context.Context) error {
	return h.server.Shutdown(ctx)
}

// RegisterRoutes registers the routes for the HTTPTransport.
func (h *HTTPTransport) RegisterRoutes() {
	h.router.Get("/healthz", h.healthz)
	h.router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	h.router.Route("/api", func(r chi.Router) {
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", h.listOrders)
			r.Post("/", h.createOrder)
			r.Get("/{id}", h.getOrder)
			r.Put("/{id}", h.editOrder)
			r.Delete("/{id}", h.deleteOrder)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.listProducts)
			r.Post("/", h.createProduct)
			r.Get("/{id}", h.getProduct)
			r.Put("/{id}", h.updateProduct)
			r.Delete("/{id}", h.deleteProduct)
		})
	})
}

func (h *HTTPTransport) createOrder(w http.ResponseWriter, r *http.Request) {
	createorder.CreateOrder(w, r, h.orders)
}

func (h *HTTPTransport) editOrder(w http.ResponseWriter, r *http.Request) {
	editorder.EditOrder(w, r, h.orders)
}

func (h *HTTPTransport) listOrders(w http.ResponseWriter, r *http.Request) {
	listorders.ListOrders(w, r, h.orders)
}

func (h *HTTPTransport) getOrder(w http.ResponseWriter, r *http.Request) {
	getorder.GetOrder(w, r, h.orders)
}

func (h *HTTPTransport) deleteOrder(w http.ResponseWriter, r *http.Request) {
	deleteorder.DeleteOrder(w, r, h.orders)
}

func (h *HTTPTransport) listProducts(w http.ResponseWriter, r *http.Request) {
	products.ListProducts(w, r, h.products)
}

func (h *HTTPTransport) getProduct(w http.ResponseWriter, r *http.Request) {
	products.GetProduct(w, r, h.products)
}

func (h *HTTPTransport) createProduct(w http.ResponseWriter, r *http.Request) {
	products.CreateProduct(w, r, h.products)
}

func (h *HTTPTransport) updateProduct(w http.ResponseWriter, r *http.Request) {
	products.UpdateProduct(w, r, h.products)
}

func (h *HTTPTransport) deleteProduct(w http.ResponseWriter, r *http.Request) {
	products.DeleteProduct(w, r, h.products)
}

func (h *HTTPTransport) healthz(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := h.health(ctx); err != nil {
			slog.ErrorContext(r.Context(), "Health check failed", "error", err)
			response.Failure(w, r, http.StatusServiceUnavailable, "unavailable")

			return
		}
	}

	response.Success(w, r, "ok", nil)
}

func (h *HTTPTransport) newRouter() *chi.Mux {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(logger.NewLoggerMiddleware(slog.Default()))
	router.Use(trace.NewTraceMiddleware(serviceName))
	if h.metrics != nil {
		router.Use(metricsmw.NewMetricsMiddleware(h.metrics))
	}

	allowedOrigins := viper.GetStringSlice("server.http.cors.allowed_origins")
	allowedMethods := viper.GetStringSlice("server.http.cors.allowed_methods")
	allowedHeaders := viper.GetStringSlice("server.http.cors.allowed_headers")
	exposedHeaders := viper.GetStringSlice("server.http.cors.exposed_headers")
	allowCredentials := viper.GetBool("server.http.cors.allow_credentials")
	maxAge := viper.GetInt("server.http.cors.max_age")

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   allowedMethods,
		AllowedHeaders:   allowedHeaders,
		ExposedHeaders:   exposedHeaders,
		AllowCredentials: allowCredentials,
		MaxAge:           maxAge,
	})

	router.Use(c.Handler)

	return router
}

func newServer(router http.Handler) *http.Server {
	return &http.Server{
		Addr:              "0.0.0.0:" + viper.GetString("server.http.port"),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
