package cmd

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// DefaultConcurrency is the default number of concurrent requests
const DefaultConcurrency = 5

// BulkResult is the outcome of one request in a bulk run.
type BulkResult struct {
	ID      int
	Success bool
	Error   error
	Data    any
}

// runBulkOperation runs operation for every ID with bounded parallelism.
// Results come back in the order of ids; a failure does not stop the rest.
func runBulkOperation[T any](
	ctx context.Context,
	ids []int,
	concurrency int64,
	progress bool,
	errOut io.Writer,
	operation func(ctx context.Context, id int) (T, error),
) []BulkResult {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if errOut == nil {
		errOut = io.Discard
	}

	sem := semaphore.NewWeighted(concurrency)
	results := make([]BulkResult, len(ids))
	total := len(ids)
	var done int64
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		g.Go(func() error {
			if err := sem.Acquire(ctx, 1); err != nil {
				results[i] = BulkResult{ID: id, Error: err}
				return nil
			}
			defer sem.Release(1)

			data, err := operation(ctx, id)
			if err != nil {
				results[i] = BulkResult{ID: id, Error: err}
			} else {
				results[i] = BulkResult{ID: id, Success: true, Data: data}
			}

			if progress {
				current := atomic.AddInt64(&done, 1)
				mu.Lock()
				_, _ = fmt.Fprintf(errOut, "\rFetched %d/%d", current, total)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	if progress && total > 0 {
		_, _ = fmt.Fprintln(errOut)
	}
	return results
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

// bulkErrors folds the failures into one error, or nil when all succeeded.
func bulkErrors(results []BulkResult) error {
	var merr *multierror.Error
	for _, r := range results {
		if !r.Success {
			merr = multierror.Append(merr, fmt.Errorf("%d: %w", r.ID, r.Error))
		}
	}
	return merr.ErrorOrNil()
}
