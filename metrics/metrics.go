// Package metrics provides Prometheus instrumentation for the server.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the server.
type Metrics struct {
	// Connection metrics
	ConnectionsTotal prometheus.Counter
	ConnectionErrors prometheus.Counter

	// Request metrics
	RequestsTotal  *prometheus.CounterVec
	RequestLatency prometheus.Histogram
	ParseFailures  prometheus.Counter

	// Worker pool metrics
	PoolActive  prometheus.Gauge
	PoolPending prometheus.Gauge
}

// New creates a Metrics instance registered on the given registerer. Pass a
// fresh prometheus.NewRegistry() in tests to avoid duplicate registration.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ConnectionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_total",
			Help:      "Total number of accepted connections",
		}),
		ConnectionErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connection_errors_total",
			Help:      "Total number of per-connection I/O failures",
		}),
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total requests by method and status code",
		}, []string{"method", "status"}),
		RequestLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_latency_seconds",
			Help:      "Connection handling latency in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}),
		ParseFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_failures_total",
			Help:      "Total requests rejected by the parser",
		}),
		PoolActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "worker_pool_active",
			Help:      "Number of workers currently executing a task",
		}),
		PoolPending: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "worker_pool_pending",
			Help:      "Number of tasks waiting in the pool queue",
		}),
	}
}

// RecordRequest records a completed request.
func (m *Metrics) RecordRequest(method, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, status).Inc()
	m.RequestLatency.Observe(duration.Seconds())
}

// UpdatePool updates the worker pool gauges.
func (m *Metrics) UpdatePool(active int64, pending int) {
	m.PoolActive.Set(float64(active))
	m.PoolPending.Set(float64(pending))
}

// Server runs an HTTP server exposing /metrics and /health endpoints.
type Server struct {
	server *http.Server
}

// NewServer creates a metrics server on the given address, serving the
// metrics collected in the given gatherer.
func NewServer(addr string, gatherer prometheus.Gatherer) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return &Server{
		server: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

// StartAsync starts the metrics server in a goroutine.
func (s *Server) StartAsync() {
	go func() {
		_ = s.server.ListenAndServe()
	}()
}

// Stop stops the metrics server.
func (s *Server) Stop() error {
	return s.server.Close()
}
