package worker

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/bpxgo/validator/pkg/location"
	"github.com/bpxgo/validator/pkg/validator"
)

// Validator validates one raw document. *validator.Validator implements it.
type Validator interface {
	Validate(ctx context.Context, raw map[string]any, opts ...validator.ValidateOption) (*validator.Result, error)
}

// Batch validates jobs in parallel with a fixed number of workers.
type Batch struct {
	validator Validator
	workers   int
}

// NewBatch creates a batch runner. workers <= 0 uses one worker per CPU.
func NewBatch(v Validator, workers int) *Batch {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Batch{
		validator: v,
		workers:   workers,
	}
}

// Workers returns the number of workers.
func (b *Batch) Workers() int { return b.workers }

// Run validates jobs and returns their results in job order. Once ctx is
// done no further jobs are started; those jobs report the context error.
func (b *Batch) Run(ctx context.Context, jobs []Job) *BatchResult {
	start := time.Now()
	var res *BatchResult

	// For small batches, don't use parallelism
	if len(jobs) <= 2 || b.workers == 1 {
		res = b.runSequential(ctx, jobs)
	} else {
		res = b.runParallel(ctx, jobs)
	}

	for i, r := range res.Results {
		if r == nil {
			res.Results[i] = &JobResult{ID: jobs[i].ID, Error: ctx.Err()}
		}
	}
	res.TotalDuration = time.Since(start)
	return res
}

func (b *Batch) runSequential(ctx context.Context, jobs []Job) *BatchResult {
	res := &BatchResult{
		Results:   make([]*JobResult, len(jobs)),
		TotalJobs: len(jobs),
	}
	for i, job := range jobs {
		if ctx.Err() != nil {
			break
		}
		r := b.run(ctx, job)
		res.Results[i] = r
		res.CompletedJobs++
		if r.Error != nil {
			res.FailedJobs++
		}
	}
	return res
}

func (b *Batch) runParallel(ctx context.Context, jobs []Job) *BatchResult {
	numWorkers := b.workers
	if numWorkers > len(jobs) {
		numWorkers = len(jobs)
	}

	queue := make(chan int)
	results := make(chan indexedResult, len(jobs))

	// Start workers
	var wg sync.WaitGroup
	wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go func() {
			defer wg.Done()
			for idx := range queue {
				results <- indexedResult{index: idx, result: b.run(ctx, jobs[idx])}
			}
		}()
	}

	// Submit jobs until the context is done
	go func() {
		defer close(queue)
		for i := range jobs {
			if ctx.Err() != nil {
				return
			}
			select {
			case <-ctx.Done():
				return
			case queue <- i:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	// Collect results in order
	res := &BatchResult{
		Results:   make([]*JobResult, len(jobs)),
		TotalJobs: len(jobs),
	}
	for ir := range results {
		res.Results[ir.index] = ir.result
		res.CompletedJobs++
		if ir.result.Error != nil {
			res.FailedJobs++
		}
	}
	return res
}

type indexedResult struct {
	index  int
	result *JobResult
}

func (b *Batch) run(ctx context.Context, job Job) *JobResult {
	start := time.Now()
	result, err := b.validator.Validate(ctx, job.Raw, job.options()...)
	if err != nil && job.Source != nil {
		err = location.Enrich(job.Source, err)
	}
	return &JobResult{
		ID:       job.ID,
		Result:   result,
		Error:    err,
		Duration: time.Since(start),
	}
}
