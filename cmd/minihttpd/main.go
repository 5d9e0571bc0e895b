package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/nqduc/minihttpd/server"
)

// routeFlags collects repeatable -route /path=file mappings.
type routeFlags map[string]string

func (r routeFlags) String() string {
	pairs := make([]string, 0, len(r))
	for path, file := range r {
		pairs = append(pairs, path+"="+file)
	}
	return strings.Join(pairs, ",")
}

func (r routeFlags) Set(value string) error {
	path, file, ok := strings.Cut(value, "=")
	if !ok || path == "" || file == "" {
		return fmt.Errorf("route must be /path=file, got %q", value)
	}
	r[path] = file
	return nil
}

func main() {
	routes := routeFlags{}

	addr := flag.String("addr", "127.0.0.1:7878", "listen address")
	workers := flag.Int("workers", 4, "worker pool size")
	fallback := flag.String("fallback", "404.html", "fallback document for unmatched paths")
	metricsAddr := flag.String("metrics", "", "Prometheus metrics address (empty disables)")
	telemetry := flag.String("telemetry", "", "ZeroMQ access firehose endpoint (empty disables)")
	flag.Var(routes, "route", "route mapping /path=file (repeatable)")
	flag.Parse()

	if len(routes) == 0 {
		routes["/"] = "hello.html"
	}

	cfg := server.DefaultConfig()
	cfg.Workers = *workers
	cfg.FallbackFile = *fallback
	cfg.MetricsAddr = *metricsAddr
	cfg.TelemetryEndpoint = *telemetry

	srv := server.New(cfg, routes)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(*addr) }()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	case <-quit:
		log.Println("Shutting down server...")
		if srv.IsRunning() {
			srv.Stop()
		}
		if err := <-errCh; err != nil {
			log.Fatalf("Server failed during shutdown: %v", err)
		}
		log.Println("Server stopped.")
	}
}
