// Package metrics holds the prometheus collectors of the shop service.
package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/corray333/backend-labs/shop/internal/service/models/apperror"
	"github.com/prometheus/client_golang/prometheus"
)

const resultOK = "ok"

// Metrics groups the service collectors. A nil *Metrics records nothing.
type Metrics struct {
	operations        *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	outboxPublished prometheus.Counter
	outboxFailed    prometheus.Counter
}

// New registers the collectors on the default registerer.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the collectors on registerer, reusing ones already registered.
func NewWithRegisterer(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &Metrics{
		operations: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "shop_operations_total",
			Help: "Total number of service operations by result",
		}, []string{"operation", "result"}),
		operationDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "shop_operation_duration_seconds",
			Help:    "Duration of service operations in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		httpRequests: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "shop_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		httpDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "shop_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"method", "route"}),
		outboxPublished: registerCounter(registerer, prometheus.CounterOpts{
			Name: "shop_outbox_published_total",
			Help: "Total number of outbox messages published",
		}),
		outboxFailed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "shop_outbox_failed_total",
			Help: "Total number of failed outbox publish attempts",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}

			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}

	return collector
}

func registerCounterVec(
	registerer prometheus.Registerer,
	opts prometheus.CounterOpts,
	labels []string,
) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}

			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}

	return collector
}

func registerHistogramVec(
	registerer prometheus.Registerer,
	opts prometheus.HistogramOpts,
	labels []string,
) *prometheus.HistogramVec {
	collector := prometheus.NewHistogramVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.HistogramVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}

			return existing
		}
		panic(fmt.Sprintf("register histogram vec %q: %v", opts.Name, err))
	}

	return collector
}

// RecordOperation counts an operation under its result and observes its duration.
// The result is "ok" or the kind of the returned error.
func (m *Metrics) RecordOperation(operation string, start time.Time, err error) {
	if m == nil {
		return
	}

	result := resultOK
	if err != nil {
		result = apperror.KindOf(err).String()
	}

	m.operations.WithLabelValues(operation, result).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// RecordHTTPRequest counts a served request and observes its duration.
func (m *Metrics) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}

	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordOutboxPublished counts a delivered outbox message.
func (m *Metrics) RecordOutboxPublished() {
	if m == nil {
		return
	}

	m.outboxPublished.Inc()
}

// RecordOutboxFailed counts a failed outbox publish attempt.
func (m *Metrics) RecordOutboxFailed() {
	if m == nil {
		return
	}

	m.outboxFailed.Inc()
}
