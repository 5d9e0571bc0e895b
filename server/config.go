package server

import "github.com/nqduc/minihttpd/protocol"

// Config defines configuration for the server.
type Config struct {
	// Workers is the worker pool size. Validation is deferred to pool
	// creation, which rejects sizes below one.
	Workers int `json:"workers"`
	// FallbackFile is the document served on route misses. It must exist
	// on disk; a missing fallback fails the affected request.
	FallbackFile string `json:"fallback_file"`
	// ReadBufferSize bounds the single read per connection. Requests
	// larger than the buffer are truncated silently.
	ReadBufferSize int `json:"read_buffer_size"`
	// MetricsAddr is the Prometheus /metrics listen address. Empty
	// disables the metrics server.
	MetricsAddr string `json:"metrics_addr,omitempty"`
	// TelemetryEndpoint is the ZeroMQ endpoint for the access record
	// firehose. Empty disables telemetry.
	TelemetryEndpoint string `json:"telemetry_endpoint,omitempty"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Workers:        4,
		FallbackFile:   "404.html",
		ReadBufferSize: protocol.ReadBufferSize,
	}
}
