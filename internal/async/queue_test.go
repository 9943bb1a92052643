package async

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestPoolRunsEveryJobWithinBound(t *testing.T) {
	const workers = 3
	var running, peak atomic.Int32
	results := NewCollector[string](20)

	p := NewPool(func(_ context.Context, job Job) {
		n := running.Add(1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		running.Add(-1)
		results.Add(job.Index, job.Path)
	}, nil, WithWorkers(workers))

	for i := 0; i < 20; i++ {
		if err := p.Submit(context.Background(), Job{Index: i, Path: fmt.Sprintf("f%02d", i)}); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}
	p.Shutdown(context.Background())

	got := results.Results()
	if len(got) != 20 {
		t.Fatalf("ran %d jobs, want 20", len(got))
	}
	for i, v := range got {
		if v != fmt.Sprintf("f%02d", i) {
			t.Fatalf("results out of order at %d: %s", i, v)
		}
	}
	if peak.Load() > workers {
		t.Errorf("peak concurrency %d exceeds %d workers", peak.Load(), workers)
	}
}

func TestSubmitHonoursContext(t *testing.T) {
	release := make(chan struct{})
	p := NewPool(func(context.Context, Job) { <-release }, nil, WithWorkers(1))

	if err := p.Submit(context.Background(), Job{Index: 0}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Submit(ctx, Job{Index: 1}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	close(release)
	p.Shutdown(context.Background())
	if err := p.Submit(context.Background(), Job{}); !errors.Is(err, ErrPoolClosed) {
		t.Fatalf("expected ErrPoolClosed, got %v", err)
	}
}

func TestCollectorConcurrentAdd(t *testing.T) {
	c := NewCollector[int](0)
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Add(99-i, 99-i)
		}(i)
	}
	wg.Wait()

	got := c.Results()
	if len(got) != 100 || c.Len() != 100 {
		t.Fatalf("len = %d", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("index %d holds %d", i, v)
		}
	}
}
