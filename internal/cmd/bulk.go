package cmd

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// DefaultConcurrency is the default number of concurrent workers
const DefaultConcurrency = 5

// BulkResult is the outcome for one receiver or user id
type BulkResult struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`

	err error
}

// runBulkOperation executes operation for every id with bounded parallelism.
// Results keep the order of ids; ids skipped by cancellation are reported
// as failures with the context error.
func runBulkOperation[T any](
	ctx context.Context,
	ids []string,
	concurrency int64,
	progress bool,
	errOut io.Writer,
	operation func(ctx context.Context, id string) (T, error),
) []BulkResult {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if errOut == nil {
		errOut = io.Discard
	}

	sem := semaphore.NewWeighted(concurrency)
	var mu sync.Mutex
	results := make([]BulkResult, len(ids))
	total := len(ids)
	var done int64

	g, gctx := errgroup.WithContext(ctx)

	for i, id := range ids {
		g.Go(func() error {
			results[i] = BulkResult{ID: id}
			if err := sem.Acquire(gctx, 1); err != nil {
				results[i].setError(err)
				return nil
			}
			defer sem.Release(1)

			if err := gctx.Err(); err != nil {
				results[i].setError(err)
				return nil
			}

			data, err := operation(gctx, id)
			if err != nil {
				results[i].setError(err)
			} else {
				results[i].Success = true
				results[i].Data = data
			}

			if progress && total > 0 {
				current := atomic.AddInt64(&done, 1)
				mu.Lock()
				_, _ = fmt.Fprintf(errOut, "\rProcessed %d/%d", current, total)
				mu.Unlock()
			}
			return nil
		})
	}

	_ = g.Wait()

	if progress && total > 0 {
		_, _ = fmt.Fprintf(errOut, "\rProcessed %d/%d\n", atomic.LoadInt64(&done), total)
	}

	return results
}

func (r *BulkResult) setError(err error) {
	r.Success = false
	r.err = err
	r.Error = err.Error()
}

// countResults returns success and failure counts from bulk results
func countResults(results []BulkResult) (success, failure int) {
	for _, r := range results {
		if r.Success {
			success++
		} else {
			failure++
		}
	}
	return
}

// firstError returns the first failure, used to pick the exit code.
func firstError(results []BulkResult) error {
	for _, r := range results {
		if !r.Success && r.err != nil {
			return r.err
		}
	}
	return nil
}
