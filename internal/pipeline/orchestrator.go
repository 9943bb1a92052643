package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/receipt-renamer/internal/async"
	"github.com/joseph-ayodele/receipt-renamer/internal/entity"
	"github.com/joseph-ayodele/receipt-renamer/internal/ingest"
)

// FileProcessor is satisfied by *Processor.
type FileProcessor interface {
	Process(ctx context.Context, path string) entity.FileJobResult
}

// Observer receives progress events. In parallel mode the calls come from
// worker goroutines, so implementations must be safe for concurrent use.
type Observer interface {
	RunStarted(total, workers int)
	FileStarted(index, total int, path string)
	FileFinished(index, total int, res entity.FileJobResult)
}

// Summary is the outcome of one run.
type Summary struct {
	Results []entity.FileJobResult
	Stats   ingest.DirStats
	Elapsed time.Duration
}

// Counts tallies results by outcome.
func (s Summary) Counts() (renamed, skipped, failed, flagged int) {
	for _, r := range s.Results {
		switch {
		case r.Failed():
			failed++
		case r.Status.IsRenamed():
			renamed++
		case r.Status.IsSkipped():
			skipped++
		}
		if r.Flagged && !r.Failed() && r.Status.IsRenamed() {
			flagged++
		}
	}
	return renamed, skipped, failed, flagged
}

// HasErrors reports whether any file ended in an error. Skips are not errors.
func (s Summary) HasErrors() bool {
	for _, r := range s.Results {
		if r.Failed() {
			return true
		}
	}
	return false
}

type Orchestrator struct {
	proc     FileProcessor
	workers  int
	parallel bool
	observer Observer
	logger   *slog.Logger
}

type OrchestratorOption func(*Orchestrator)

// WithParallel switches to the worker pool with n workers.
func WithParallel(n int) OrchestratorOption {
	return func(o *Orchestrator) {
		o.parallel = true
		if n > 0 {
			o.workers = n
		}
	}
}

func WithObserver(obs Observer) OrchestratorOption {
	return func(o *Orchestrator) { o.observer = obs }
}

func NewOrchestrator(proc FileProcessor, logger *slog.Logger, opts ...OrchestratorOption) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	o := &Orchestrator{proc: proc, workers: 1, logger: logger}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// RunDir discovers files under root and processes them.
func (o *Orchestrator) RunDir(ctx context.Context, root string, opts ingest.Options) (Summary, error) {
	if opts.Logger == nil {
		opts.Logger = o.logger
	}
	files, stats, err := ingest.Discover(root, opts)
	if err != nil {
		return Summary{Stats: stats}, err
	}
	sum := o.Run(ctx, files)
	sum.Stats = stats
	return sum, nil
}

// Run processes files in order, or over the pool in parallel mode. Results
// come back in input order either way. Once ctx is cancelled no new file is
// started; files never started have no result.
func (o *Orchestrator) Run(ctx context.Context, files []string) Summary {
	start := time.Now()
	if o.observer != nil {
		workers := 1
		if o.parallel {
			workers = o.workers
		}
		o.observer.RunStarted(len(files), workers)
	}
	var results []entity.FileJobResult
	if o.parallel {
		results = o.runParallel(ctx, files)
	} else {
		results = o.runSequential(ctx, files)
	}
	sum := Summary{Results: results, Elapsed: time.Since(start)}

	renamed, skipped, failed, flagged := sum.Counts()
	o.logger.Debug("pipeline.run.done",
		"files", len(files),
		"processed", len(results),
		"renamed", renamed,
		"skipped", skipped,
		"failed", failed,
		"flagged", flagged,
		"parallel", o.parallel,
		"elapsed_ms", sum.Elapsed.Milliseconds(),
	)
	return sum
}

func (o *Orchestrator) runSequential(ctx context.Context, files []string) []entity.FileJobResult {
	results := make([]entity.FileJobResult, 0, len(files))
	for i, path := range files {
		if ctx.Err() != nil {
			o.logger.Warn("pipeline.run.cancelled", "remaining", len(files)-i)
			break
		}
		results = append(results, o.one(ctx, i, len(files), path))
	}
	return results
}

func (o *Orchestrator) runParallel(ctx context.Context, files []string) []entity.FileJobResult {
	collector := async.NewCollector[entity.FileJobResult](len(files))
	pool := async.NewPool(func(jobCtx context.Context, job async.Job) {
		collector.Add(job.Index, o.one(jobCtx, job.Index, len(files), job.Path))
	}, o.logger, async.WithWorkers(o.workers), async.WithBaseContext(ctx))

	for i, path := range files {
		if err := pool.Submit(ctx, async.Job{Index: i, Path: path}); err != nil {
			o.logger.Warn("pipeline.run.cancelled", "remaining", len(files)-i, "error", err)
			break
		}
	}
	pool.Shutdown(context.Background())
	return collector.Results()
}

func (o *Orchestrator) one(ctx context.Context, index, total int, path string) entity.FileJobResult {
	if o.observer != nil {
		o.observer.FileStarted(index, total, path)
	}
	res := o.proc.Process(ctx, path)
	if o.observer != nil {
		o.observer.FileFinished(index, total, res)
	}
	return res
}
