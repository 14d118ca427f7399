package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type observation struct {
	method string
	route  string
	status int
}

type fakeRecorder struct {
	observations []observation
}

func (f *fakeRecorder) RecordHTTPRequest(method, route string, status int, _ time.Duration) {
	f.observations = append(f.observations, observation{method: method, route: route, status: status})
}

func TestMetricsMiddlewareUsesRoutePattern(t *testing.T) {
	rec := &fakeRecorder{}

	router := chi.NewRouter()
	router.Use(NewMetricsMiddleware(rec))
	router.Get("/api/orders/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	router.Get("/ok", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/orders/17", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))

	require.Len(t, rec.observations, 2)
	assert.Equal(t, observation{method: "GET", route: "/api/orders/{id}", status: http.StatusNotFound}, rec.observations[0])
	assert.Equal(t, observation{method: "GET", route: "/ok", status: http.StatusOK}, rec.observations[1])
}
