// Package telemetry publishes server access records as Arrow IPC batches
// over a ZeroMQ PUB socket.
//
// This package implements:
//   - AccessRecord: one served connection, ready for analytics
//   - Converter: access records <-> Arrow RecordBatch, plus IPC bytes
//   - Publisher: batching PUB-socket firehose for subscribers
package telemetry

import (
	"github.com/apache/arrow-go/v18/arrow"
)

// AccessSchema returns the Arrow schema for an access record.
//
// Fields:
//   - timestamp: float64 - Unix timestamp of the request
//   - remote_addr: string - client address
//   - method: string - request method token
//   - path: string - requested URL path
//   - version: string - protocol version token
//   - status: int64 - response status code
//   - body_bytes: int64 - response body size
//   - duration_ms: float64 - handling duration in milliseconds
func AccessSchema() *arrow.Schema {
	return arrow.NewSchema(
		[]arrow.Field{
			{Name: "timestamp", Type: arrow.PrimitiveTypes.Float64, Nullable: false},
			{Name: "remote_addr", Type: arrow.BinaryTypes.String, Nullable: true},
			{Name: "method", Type: arrow.BinaryTypes.String, Nullable: false},
			{Name: "path", Type: arrow.BinaryTypes.String, Nullable: false},
			{Name: "version", Type: arrow.BinaryTypes.String, Nullable: false},
			{Name: "status", Type: arrow.PrimitiveTypes.Int64, Nullable: false},
			{Name: "body_bytes", Type: arrow.PrimitiveTypes.Int64, Nullable: false},
			{Name: "duration_ms", Type: arrow.PrimitiveTypes.Float64, Nullable: false},
		},
		nil,
	)
}
