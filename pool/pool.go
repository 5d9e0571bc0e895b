// Package pool provides a fixed-size worker pool executing one-shot tasks.
//
// Tasks are opaque closures delivered exactly once over a single shared
// FIFO channel. Shutdown drains every task submitted before the call and
// then joins all workers.
package pool

import (
	"errors"
	"log"
	"sync"
	"sync/atomic"
)

// Common errors for pool operations
var (
	ErrPoolSize   = errors.New("pool requires at least one worker")
	ErrPoolClosed = errors.New("pool is shut down")
)

// Task is a single-shot unit of work. The pool observes no return value;
// a task that can fail reports through its own captured state.
type Task func()

// queueFactor sizes the task buffer per worker. The queue is logically
// unbounded: a full buffer blocks Submit on the channel send, it never
// drops a task.
const queueFactor = 256

// PoolStats contains worker pool statistics.
type PoolStats struct {
	Workers   int   `json:"workers"`
	Active    int64 `json:"active"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
	Pending   int   `json:"pending"`
}

// Pool manages a fixed set of goroutine workers consuming from one shared
// task channel.
type Pool struct {
	workers  int
	taskChan chan Task
	wg       sync.WaitGroup

	// Atomic counters for thread-safe statistics
	active    int64
	completed int64
	failed    int64

	mu      sync.RWMutex
	running bool
}

// New creates a pool with the given number of workers, all blocking on the
// shared queue immediately. A size below one is a construction error.
func New(workers int) (*Pool, error) {
	if workers < 1 {
		return nil, ErrPoolSize
	}

	p := &Pool{
		workers:  workers,
		taskChan: make(chan Task, workers*queueFactor),
		running:  true,
	}

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	return p, nil
}

// worker consumes tasks until the channel is closed and drained. Channel
// close is the shutdown signal: it is observed only after every task
// enqueued before it.
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for task := range p.taskChan {
		p.runTask(id, task)
	}
}

// runTask executes one task, isolating panics so a failing task never
// terminates its worker.
func (p *Pool) runTask(id int, task Task) {
	atomic.AddInt64(&p.active, 1)
	defer atomic.AddInt64(&p.active, -1)

	defer func() {
		if r := recover(); r != nil {
			atomic.AddInt64(&p.failed, 1)
			log.Printf("pool: worker %d recovered from task panic: %v", id, r)
		}
	}()

	task()
	atomic.AddInt64(&p.completed, 1)
}

// Submit enqueues a task for asynchronous execution. It never waits for a
// free worker; it blocks only if the queue buffer is full. Submitting after
// Shutdown returns ErrPoolClosed.
func (p *Pool) Submit(task Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.running {
		return ErrPoolClosed
	}

	p.taskChan <- task
	return nil
}

// Shutdown stops the pool: every task submitted before the call completes,
// then all workers exit. Blocks until the last worker has terminated.
// Safe to call more than once.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.taskChan)
	p.mu.Unlock()

	p.wg.Wait()
}

// IsRunning returns true if the pool is still accepting tasks.
func (p *Pool) IsRunning() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.running
}

// Stats returns current pool statistics.
func (p *Pool) Stats() PoolStats {
	return PoolStats{
		Workers:   p.workers,
		Active:    atomic.LoadInt64(&p.active),
		Completed: atomic.LoadInt64(&p.completed),
		Failed:    atomic.LoadInt64(&p.failed),
		Pending:   len(p.taskChan),
	}
}
