package telemetry

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// AccessRecord describes one served connection.
type AccessRecord struct {
	Timestamp  time.Time     `json:"timestamp"`
	RemoteAddr string        `json:"remote_addr,omitempty"`
	Method     string        `json:"method"`
	Path       string        `json:"path"`
	Version    string        `json:"version"`
	Status     int           `json:"status"`
	BodyBytes  int           `json:"body_bytes"`
	Duration   time.Duration `json:"duration"`
}

// Converter handles access record to Arrow conversion.
type Converter struct {
	allocator memory.Allocator
	schema    *arrow.Schema
}

// NewConverter creates a Converter with the default memory allocator.
func NewConverter() *Converter {
	return &Converter{
		allocator: memory.DefaultAllocator,
		schema:    AccessSchema(),
	}
}

// RecordsToArrowBatch converts a slice of access records to an Arrow
// RecordBatch. The caller owns the returned record and must Release it.
func (c *Converter) RecordsToArrowBatch(records []AccessRecord) (arrow.Record, error) {
	if len(records) == 0 {
		return nil, errors.New("empty records slice")
	}

	builder := array.NewRecordBuilder(c.allocator, c.schema)
	defer builder.Release()

	tsBuilder := builder.Field(0).(*array.Float64Builder)
	addrBuilder := builder.Field(1).(*array.StringBuilder)
	methodBuilder := builder.Field(2).(*array.StringBuilder)
	pathBuilder := builder.Field(3).(*array.StringBuilder)
	versionBuilder := builder.Field(4).(*array.StringBuilder)
	statusBuilder := builder.Field(5).(*array.Int64Builder)
	bytesBuilder := builder.Field(6).(*array.Int64Builder)
	durationBuilder := builder.Field(7).(*array.Float64Builder)

	for _, rec := range records {
		tsBuilder.Append(float64(rec.Timestamp.UnixNano()) / float64(time.Second))
		if rec.RemoteAddr != "" {
			addrBuilder.Append(rec.RemoteAddr)
		} else {
			addrBuilder.AppendNull()
		}
		methodBuilder.Append(rec.Method)
		pathBuilder.Append(rec.Path)
		versionBuilder.Append(rec.Version)
		statusBuilder.Append(int64(rec.Status))
		bytesBuilder.Append(int64(rec.BodyBytes))
		durationBuilder.Append(float64(rec.Duration) / float64(time.Millisecond))
	}

	return builder.NewRecord(), nil
}

// ArrowBatchToRecords converts an Arrow RecordBatch back to access records.
func (c *Converter) ArrowBatchToRecords(record arrow.Record) ([]AccessRecord, error) {
	if record == nil || record.NumRows() == 0 {
		return nil, nil
	}
	if record.NumCols() < 8 {
		return nil, fmt.Errorf("invalid record: expected 8 columns, got %d", record.NumCols())
	}

	tsCol, ok := record.Column(0).(*array.Float64)
	if !ok {
		return nil, errors.New("column 0 is not float64")
	}
	addrCol, ok := record.Column(1).(*array.String)
	if !ok {
		return nil, errors.New("column 1 is not string")
	}
	methodCol, ok := record.Column(2).(*array.String)
	if !ok {
		return nil, errors.New("column 2 is not string")
	}
	pathCol, ok := record.Column(3).(*array.String)
	if !ok {
		return nil, errors.New("column 3 is not string")
	}
	versionCol, ok := record.Column(4).(*array.String)
	if !ok {
		return nil, errors.New("column 4 is not string")
	}
	statusCol, ok := record.Column(5).(*array.Int64)
	if !ok {
		return nil, errors.New("column 5 is not int64")
	}
	bytesCol, ok := record.Column(6).(*array.Int64)
	if !ok {
		return nil, errors.New("column 6 is not int64")
	}
	durationCol, ok := record.Column(7).(*array.Float64)
	if !ok {
		return nil, errors.New("column 7 is not float64")
	}

	out := make([]AccessRecord, 0, record.NumRows())
	for i := 0; i < int(record.NumRows()); i++ {
		rec := AccessRecord{
			Timestamp: time.Unix(0, int64(tsCol.Value(i)*float64(time.Second))),
			Method:    methodCol.Value(i),
			Path:      pathCol.Value(i),
			Version:   versionCol.Value(i),
			Status:    int(statusCol.Value(i)),
			BodyBytes: int(bytesCol.Value(i)),
			Duration:  time.Duration(durationCol.Value(i) * float64(time.Millisecond)),
		}
		if !addrCol.IsNull(i) {
			rec.RemoteAddr = addrCol.Value(i)
		}
		out = append(out, rec)
	}

	return out, nil
}

// SerializeToIPC serializes an Arrow Record to IPC bytes.
func SerializeToIPC(record arrow.Record) ([]byte, error) {
	var buf bytes.Buffer

	writer := ipc.NewWriter(&buf, ipc.WithSchema(record.Schema()))

	if err := writer.Write(record); err != nil {
		writer.Close()
		return nil, fmt.Errorf("failed to write record: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close writer: %w", err)
	}

	return buf.Bytes(), nil
}

// DeserializeFromIPC deserializes IPC bytes to an Arrow Record. The caller
// owns the returned record and must Release it.
func DeserializeFromIPC(data []byte) (arrow.Record, error) {
	reader, err := ipc.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create reader: %w", err)
	}
	defer reader.Release()

	if !reader.Next() {
		if reader.Err() != nil {
			return nil, reader.Err()
		}
		return nil, errors.New("no records in IPC data")
	}

	record := reader.Record()
	record.Retain()

	return record, nil
}
