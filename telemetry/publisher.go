package telemetry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-zeromq/zmq4"
)

// Common errors for publisher operations
var (
	ErrNotRunning     = errors.New("publisher is not running")
	ErrAlreadyRunning = errors.New("publisher already running")
)

// Topic is the subscription topic frame sent before every batch.
const Topic = "access"

// PublisherConfig defines configuration for the access record publisher.
type PublisherConfig struct {
	// Endpoint is the ZeroMQ endpoint to bind, e.g. "tcp://127.0.0.1:5556".
	Endpoint string `json:"endpoint"`
	// BatchSize flushes a batch once this many records are buffered.
	BatchSize int `json:"batch_size"`
	// FlushInterval flushes a partial batch after this much time.
	FlushInterval time.Duration `json:"flush_interval"`
	// QueueSize bounds the record channel; records beyond it are dropped.
	QueueSize int `json:"queue_size"`
}

// DefaultPublisherConfig returns a configuration with sensible defaults.
func DefaultPublisherConfig(endpoint string) PublisherConfig {
	return PublisherConfig{
		Endpoint:      endpoint,
		BatchSize:     64,
		FlushInterval: time.Second,
		QueueSize:     1024,
	}
}

// PublisherStats contains publisher statistics.
type PublisherStats struct {
	Endpoint  string `json:"endpoint"`
	IsRunning bool   `json:"is_running"`
	Published int64  `json:"published"`
	Dropped   int64  `json:"dropped"`
	QueueSize int    `json:"queue_size"`
}

// Publisher broadcasts access records to subscribers as Arrow IPC batches
// on a PUB socket. Enqueueing is non-blocking: when the queue is full the
// record is dropped and counted, never stalling a worker.
type Publisher struct {
	config    PublisherConfig
	converter *Converter

	ctx    context.Context
	cancel context.CancelFunc

	pub     zmq4.Socket
	recChan chan AccessRecord

	published int64
	dropped   int64

	mu      sync.RWMutex
	running bool
	wg      sync.WaitGroup
}

// NewPublisher creates a new access record publisher.
func NewPublisher(config PublisherConfig) *Publisher {
	if config.BatchSize <= 0 {
		config.BatchSize = 64
	}
	if config.FlushInterval <= 0 {
		config.FlushInterval = time.Second
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 1024
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Publisher{
		config:    config,
		converter: NewConverter(),
		ctx:       ctx,
		cancel:    cancel,
		recChan:   make(chan AccessRecord, config.QueueSize),
	}
}

// Start binds the PUB socket and begins batching records.
func (p *Publisher) Start() error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return ErrAlreadyRunning
	}

	p.pub = zmq4.NewPub(p.ctx)

	if err := p.pub.Listen(p.config.Endpoint); err != nil {
		p.mu.Unlock()
		return fmt.Errorf("failed to bind publisher: %w", err)
	}

	p.running = true
	p.mu.Unlock()

	p.wg.Add(1)
	go p.batchLoop()

	return nil
}

// Stop flushes buffered records and shuts the publisher down.
func (p *Publisher) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.mu.Unlock()

	p.cancel()
	p.wg.Wait()

	if p.pub != nil {
		if err := p.pub.Close(); err != nil {
			_ = err // shutdown errors are expected
		}
	}
}

// Record enqueues one access record (non-blocking).
func (p *Publisher) Record(rec AccessRecord) {
	p.mu.RLock()
	running := p.running
	p.mu.RUnlock()

	if !running {
		atomic.AddInt64(&p.dropped, 1)
		return
	}

	select {
	case p.recChan <- rec:
	default:
		// Queue full, drop record
		atomic.AddInt64(&p.dropped, 1)
	}
}

// batchLoop accumulates records and flushes by size or interval.
func (p *Publisher) batchLoop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.FlushInterval)
	defer ticker.Stop()

	batch := make([]AccessRecord, 0, p.config.BatchSize)

	for {
		select {
		case <-p.ctx.Done():
			// Drain whatever is still queued, then flush once.
			for {
				select {
				case rec := <-p.recChan:
					batch = append(batch, rec)
					continue
				default:
				}
				break
			}
			p.flush(batch)
			return
		case rec := <-p.recChan:
			batch = append(batch, rec)
			if len(batch) >= p.config.BatchSize {
				p.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			p.flush(batch)
			batch = batch[:0]
		}
	}
}

// flush publishes one batch as an Arrow IPC payload under the access topic.
func (p *Publisher) flush(batch []AccessRecord) {
	if len(batch) == 0 {
		return
	}

	record, err := p.converter.RecordsToArrowBatch(batch)
	if err != nil {
		atomic.AddInt64(&p.dropped, int64(len(batch)))
		return
	}
	defer record.Release()

	data, err := SerializeToIPC(record)
	if err != nil {
		atomic.AddInt64(&p.dropped, int64(len(batch)))
		return
	}

	msg := zmq4.NewMsgFrom([]byte(Topic), data)
	if err := p.pub.Send(msg); err != nil {
		atomic.AddInt64(&p.dropped, int64(len(batch)))
		return
	}

	atomic.AddInt64(&p.published, int64(len(batch)))
}

// IsRunning returns whether the publisher is currently running.
func (p *Publisher) IsRunning() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.running
}

// GetStats returns current publisher statistics.
func (p *Publisher) GetStats() PublisherStats {
	p.mu.RLock()
	running := p.running
	p.mu.RUnlock()

	return PublisherStats{
		Endpoint:  p.config.Endpoint,
		IsRunning: running,
		Published: atomic.LoadInt64(&p.published),
		Dropped:   atomic.LoadInt64(&p.dropped),
		QueueSize: len(p.recChan),
	}
}
