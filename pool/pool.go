// Package pool provides a bounded worker pool with backpressure for
// batched subprocess spawns.
package pool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// Common errors.
var (
	ErrPoolFull     = errors.New("worker pool is full")
	ErrPoolShutdown = errors.New("worker pool is shutdown")
)

// Backpressure defines how Submit behaves when the queue is full.
type Backpressure int

const (
	// Block waits until space is available or the context ends.
	Block Backpressure = iota

	// Reject immediately fails with ErrPoolFull.
	Reject

	// CallerRuns executes the job in the submitting goroutine.
	CallerRuns
)

// Config configures the worker pool.
type Config struct {
	// Workers is the number of concurrent workers.
	Workers int

	// QueueSize is the capacity of the pending-job queue.
	QueueSize int

	// Backpressure selects the full-queue behavior.
	Backpressure Backpressure
}

// DefaultConfig returns default pool configuration.
func DefaultConfig() Config {
	return Config{
		Workers:      8,
		QueueSize:    64,
		Backpressure: Block,
	}
}

// Stats contains pool statistics.
type Stats struct {
	ActiveWorkers  int32
	QueueLength    int
	QueueCapacity  int
	TotalSubmitted int64
	TotalCompleted int64
	TotalRejected  int64
}

// Pool runs submitted jobs on a fixed set of workers.
type Pool struct {
	jobs       chan func()
	shutdownCh chan struct{}
	config     Config
	wg         sync.WaitGroup

	shutdown  int32
	active    int32
	submitted int64
	completed int64
	rejected  int64
}

// New creates a worker pool and starts its workers.
func New(config Config) *Pool {
	if config.Workers <= 0 {
		config.Workers = 1
	}
	if config.QueueSize <= 0 {
		config.QueueSize = config.Workers * 8
	}

	p := &Pool{
		config:     config,
		jobs:       make(chan func(), config.QueueSize),
		shutdownCh: make(chan struct{}),
	}

	for i := 0; i < config.Workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}

	return p
}

// Submit hands a job to the pool. The zero job is ignored.
func (p *Pool) Submit(ctx context.Context, fn func()) error {
	if fn == nil {
		return nil
	}
	if atomic.LoadInt32(&p.shutdown) == 1 {
		return ErrPoolShutdown
	}

	atomic.AddInt64(&p.submitted, 1)

	switch p.config.Backpressure {
	case Reject:
		select {
		case p.jobs <- fn:
			return nil
		default:
			atomic.AddInt64(&p.rejected, 1)
			return ErrPoolFull
		}

	case CallerRuns:
		select {
		case p.jobs <- fn:
			return nil
		default:
			p.execute(fn)
			return nil
		}

	default:
		select {
		case p.jobs <- fn:
			return nil
		case <-ctx.Done():
			atomic.AddInt64(&p.rejected, 1)
			return ctx.Err()
		case <-p.shutdownCh:
			return ErrPoolShutdown
		}
	}
}

// Stats returns a snapshot of the pool counters.
func (p *Pool) Stats() Stats {
	return Stats{
		ActiveWorkers:  atomic.LoadInt32(&p.active),
		QueueLength:    len(p.jobs),
		QueueCapacity:  cap(p.jobs),
		TotalSubmitted: atomic.LoadInt64(&p.submitted),
		TotalCompleted: atomic.LoadInt64(&p.completed),
		TotalRejected:  atomic.LoadInt64(&p.rejected),
	}
}

// Shutdown stops accepting work, drains queued jobs, and waits for the
// workers to finish or the context to end.
func (p *Pool) Shutdown(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&p.shutdown, 0, 1) {
		return nil
	}

	close(p.shutdownCh)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case fn := <-p.jobs:
			p.execute(fn)

		case <-p.shutdownCh:
			// Drain whatever was queued before the shutdown.
			for {
				select {
				case fn := <-p.jobs:
					p.execute(fn)
				default:
					return
				}
			}
		}
	}
}

func (p *Pool) execute(fn func()) {
	atomic.AddInt32(&p.active, 1)
	defer func() {
		if r := recover(); r != nil {
			// A panicking job must not take its worker down.
			_ = r
		}
		atomic.AddInt32(&p.active, -1)
		atomic.AddInt64(&p.completed, 1)
	}()

	fn()
}

// WaitIdle blocks until no jobs are queued or running, polling at the
// given interval. Intended for tests and drain points.
func (p *Pool) WaitIdle(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if len(p.jobs) == 0 && atomic.LoadInt32(&p.active) == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
