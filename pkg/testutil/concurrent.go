package testutil

import (
	"errors"
	"sync"
	"sync/atomic"

	"campus/pkg/platform/sentinel"
)

// ConcurrentResult tracks outcomes of concurrent store operations.
type ConcurrentResult struct {
	Successes int32
	Conflicts int32
	NotFounds int32
	// Rejected counts conditional writes refused with ErrInvalidState, such
	// as a coupon increment past its usage limit.
	Rejected int32
	Errors   int32
}

// Total returns the total number of operations executed.
func (r *ConcurrentResult) Total() int32 {
	return r.Successes + r.Conflicts + r.NotFounds + r.Rejected + r.Errors
}

// RunConcurrent executes fn in parallel goroutines and sorts each outcome by
// its sentinel error.
func RunConcurrent(goroutines int, fn func(idx int) error) *ConcurrentResult {
	var wg sync.WaitGroup
	var successes, conflicts, notFounds, rejected, errs atomic.Int32

	for i := range goroutines {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			err := fn(idx)
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, sentinel.ErrConflict):
				conflicts.Add(1)
			case errors.Is(err, sentinel.ErrNotFound):
				notFounds.Add(1)
			case errors.Is(err, sentinel.ErrInvalidState):
				rejected.Add(1)
			default:
				errs.Add(1)
			}
		}(i)
	}
	wg.Wait()

	return &ConcurrentResult{
		Successes: successes.Load(),
		Conflicts: conflicts.Load(),
		NotFounds: notFounds.Load(),
		Rejected:  rejected.Load(),
		Errors:    errs.Load(),
	}
}
