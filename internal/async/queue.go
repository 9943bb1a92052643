// Package async runs file jobs on a fixed number of workers.
package async

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrPoolClosed is returned by Submit after Shutdown.
var ErrPoolClosed = errors.New("pool is shut down")

// Job is one file handed to a worker. Index is the file's position in the
// discovered list so results can be put back in order.
type Job struct {
	Index int
	Path  string
}

// Handler processes one job end to end.
type Handler func(ctx context.Context, job Job)

// Pool is a bounded worker pool. Submit blocks while every worker is busy;
// that wait is the only backpressure.
type Pool struct {
	handler Handler
	logger  *slog.Logger
	workers int
	timeout time.Duration
	base    context.Context

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*Pool)

func WithWorkers(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithJobTimeout bounds each job; zero leaves jobs to the transport's own timeout.
func WithJobTimeout(d time.Duration) Option {
	return func(p *Pool) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithBaseContext sets the context jobs run under. Cancelling it cancels
// in-flight jobs.
func WithBaseContext(ctx context.Context) Option {
	return func(p *Pool) {
		if ctx != nil {
			p.base = ctx
		}
	}
}

func NewPool(handler Handler, logger *slog.Logger, opts ...Option) *Pool {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pool{
		handler: handler,
		logger:  logger,
		workers: 4,
		base:    context.Background(),
		ch:      make(chan Job),
	}
	for _, o := range opts {
		o(p)
	}
	p.start()
	return p
}

// Workers reports the pool size.
func (p *Pool) Workers() int { return p.workers }

func (p *Pool) start() {
	p.once.Do(func() {
		for i := 0; i < p.workers; i++ {
			p.wg.Add(1)
			go func(workerID int) {
				defer p.wg.Done()
				p.logger.Debug("pool.worker.start", "worker_id", workerID)

				for job := range p.ch {
					p.run(workerID, job)
				}

				p.logger.Debug("pool.worker.stop", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (p *Pool) run(workerID int, job Job) {
	ctx := p.base
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	start := time.Now()
	p.handler(ctx, job)
	p.logger.Debug("pool.job.done",
		"worker_id", workerID,
		"path", job.Path,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
}

// Submit hands job to the next free worker. It returns ctx.Err() if ctx ends
// first, which is how a cancelled run stops dispatching new files.
func (p *Pool) Submit(ctx context.Context, job Job) error {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return ErrPoolClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case p.ch <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting jobs and waits for in-flight ones, or for ctx.
// Submit must not be called concurrently with Shutdown.
func (p *Pool) Shutdown(ctx context.Context) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.ch)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); p.wg.Wait() }()

	select {
	case <-ctx.Done():
		p.logger.Warn("pool.shutdown.interrupted")
	case <-done:
		p.logger.Debug("pool.shutdown.ok")
	}
}
