// Package server composes the worker pool, the request parser and the
// route resolver into a TCP server. Each accepted connection is submitted
// to the pool as one task and handled end-to-end by a single worker.
package server

import (
	"errors"
	"fmt"
	"log"
	"net"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nqduc/minihttpd/metrics"
	"github.com/nqduc/minihttpd/pool"
	"github.com/nqduc/minihttpd/telemetry"
)

// Accept-loop resilience: transient failures are retried with a short
// backoff; this many in a row end the loop with the last error.
const (
	maxAcceptFailures = 5
	acceptRetryDelay  = 100 * time.Millisecond
)

// Server owns the listening socket, the immutable route table and the
// worker pool.
type Server struct {
	config Config
	routes map[string]string

	pool     *pool.Pool
	listener net.Listener

	metrics       *metrics.Metrics
	metricsServer *metrics.Server
	publisher     *telemetry.Publisher

	mu      sync.RWMutex
	running bool
}

// New creates a server over a snapshot of the given route table. Routes
// cannot be changed once the server is started; the snapshot is shared
// read-only by all workers.
func New(config Config, routes map[string]string) *Server {
	if config.FallbackFile == "" {
		config.FallbackFile = DefaultConfig().FallbackFile
	}
	if config.ReadBufferSize <= 0 {
		config.ReadBufferSize = DefaultConfig().ReadBufferSize
	}

	snapshot := make(map[string]string, len(routes))
	for path, file := range routes {
		snapshot[path] = file
	}

	return &Server{
		config: config,
		routes: snapshot,
	}
}

// Start binds the listener, creates the worker pool and runs the accept
// loop until Stop is called or accepting fails persistently. Bind and pool
// creation failures propagate to the caller.
func (s *Server) Start(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", addr, err)
	}

	p, err := pool.New(s.config.Workers)
	if err != nil {
		listener.Close()
		return err
	}

	s.mu.Lock()
	s.listener = listener
	s.pool = p
	s.running = true
	s.mu.Unlock()

	s.startMetrics()
	s.startTelemetry()

	log.Printf("server: listening on %s with %d workers", listener.Addr(), s.config.Workers)

	err = s.acceptLoop(listener)
	s.teardown()
	return err
}

// Stop closes the listener. The accept loop then drains the pool and stops
// the metrics and telemetry subsystems before Start returns.
func (s *Server) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.running = false

	if err := s.listener.Close(); err != nil {
		_ = err // shutdown errors are expected
	}
}

// Addr returns the bound listener address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// IsRunning returns whether the server is accepting connections.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// PoolStats returns worker pool statistics, or zero stats before Start.
func (s *Server) PoolStats() pool.PoolStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.pool == nil {
		return pool.PoolStats{}
	}
	return s.pool.Stats()
}

// acceptLoop accepts connections and dispatches each one as a pool task.
// The loop never blocks on request processing, only on Accept.
func (s *Server) acceptLoop(listener net.Listener) error {
	failures := 0

	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}

			failures++
			if failures >= maxAcceptFailures {
				return fmt.Errorf("accept failed %d times in a row: %w", failures, err)
			}
			log.Printf("server: accept error (retrying): %v", err)
			time.Sleep(acceptRetryDelay)
			continue
		}
		failures = 0

		if s.metrics != nil {
			s.metrics.ConnectionsTotal.Inc()
		}

		c := conn
		if err := s.pool.Submit(func() { s.handleConn(c) }); err != nil {
			// Pool shut down under us; the connection races with
			// teardown and is closed unserved.
			conn.Close()
			return nil
		}

		if s.metrics != nil {
			st := s.pool.Stats()
			s.metrics.UpdatePool(st.Active, st.Pending)
		}
	}
}

// startMetrics wires the Prometheus registry and side server when
// configured.
func (s *Server) startMetrics() {
	if s.config.MetricsAddr == "" {
		return
	}

	registry := prometheus.NewRegistry()
	s.metrics = metrics.New("minihttpd", registry)
	s.metricsServer = metrics.NewServer(s.config.MetricsAddr, registry)
	s.metricsServer.StartAsync()
	log.Printf("server: metrics on %s", s.config.MetricsAddr)
}

// startTelemetry wires the access record publisher when configured. A
// publisher that fails to bind is logged and skipped; it never prevents
// the server from serving.
func (s *Server) startTelemetry() {
	if s.config.TelemetryEndpoint == "" {
		return
	}

	publisher := telemetry.NewPublisher(telemetry.DefaultPublisherConfig(s.config.TelemetryEndpoint))
	if err := publisher.Start(); err != nil {
		log.Printf("server: telemetry disabled: %v", err)
		return
	}
	s.publisher = publisher
	log.Printf("server: telemetry on %s", s.config.TelemetryEndpoint)
}

// teardown drains the pool, then stops the subsystems.
func (s *Server) teardown() {
	s.mu.Lock()
	s.running = false
	if s.listener != nil {
		if err := s.listener.Close(); err != nil {
			_ = err // already closed when Stop initiated the teardown
		}
	}
	s.mu.Unlock()

	s.pool.Shutdown()

	if s.publisher != nil {
		s.publisher.Stop()
	}
	if s.metricsServer != nil {
		if err := s.metricsServer.Stop(); err != nil {
			_ = err // shutdown errors are expected
		}
	}

	log.Printf("server: stopped")
}
