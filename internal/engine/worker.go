package engine

import (
	"context"
	"sync"

	"github.com/datallboy/gospool/internal/article"
	"github.com/datallboy/gospool/internal/infra/logger"
)

// Loader builds article handles for spool files with a fixed pool of workers.
type Loader struct {
	workers int
	logger  *logger.Logger
	opts    []article.Option
}

func NewLoader(workers int, log *logger.Logger, opts ...article.Option) *Loader {
	if workers <= 0 {
		workers = 1
	}
	return &Loader{workers: workers, logger: log, opts: opts}
}

// Run reads paths until the channel is closed or ctx is done and emits one
// LoadResult per path consumed. The returned channel is closed once every
// worker has exited.
func (l *Loader) Run(ctx context.Context, paths <-chan string) <-chan LoadResult {
	bufferSize := l.workers * 2

	jobs := make(chan LoadJob, bufferSize)
	results := make(chan LoadResult, bufferSize)

	// Start the Workers
	var wg sync.WaitGroup
	for w := 1; w <= l.workers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			l.worker(ctx, id, jobs, results)
		}(w)
	}

	// Dispatch Jobs
	go l.dispatchJobs(ctx, paths, jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

func (l *Loader) dispatchJobs(ctx context.Context, paths <-chan string, jobs chan<- LoadJob) {
	defer close(jobs)
	for {
		select {
		case <-ctx.Done():
			return
		case p, ok := <-paths:
			if !ok {
				return
			}
			select {
			case <-ctx.Done():
				return
			case jobs <- LoadJob{Path: p}:
			}
		}
	}
}

// worker pulls jobs from the channel and executes them until channel is closed
func (l *Loader) worker(ctx context.Context, id int, jobs <-chan LoadJob, results chan<- LoadResult) {
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			a, err := article.New(job.Path, l.opts...)
			if err != nil && l.logger != nil {
				l.logger.Debug("worker %d: %s: %v", id, job.Path, err)
			}

			select {
			case <-ctx.Done():
				return
			case results <- LoadResult{Job: job, Article: a, Error: err}:
			}
		}
	}
}
