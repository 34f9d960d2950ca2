package testutil

import (
	"sync"
	"sync/atomic"

	dErrors "prism/pkg/domain-errors"
)

// ConcurrentResult tracks outcomes of concurrent test operations.
type ConcurrentResult struct {
	Successes int32
	Transient int32
	Rejected  int32
	Errors    int32
}

// Total returns the total number of operations executed.
func (r *ConcurrentResult) Total() int32 {
	return r.Successes + r.Transient + r.Rejected + r.Errors
}

// RunConcurrent executes fn in parallel goroutines and buckets each result
// by its domain error code.
func RunConcurrent(goroutines int, fn func(idx int) error) *ConcurrentResult {
	var wg sync.WaitGroup
	var successes, transient, rejected, errs atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			err := fn(idx)
			switch {
			case err == nil:
				successes.Add(1)
			case dErrors.HasCode(err, dErrors.CodeTransientNetwork):
				transient.Add(1)
			case dErrors.HasCode(err, dErrors.CodeExecutionRejected):
				rejected.Add(1)
			default:
				errs.Add(1)
			}
		}(i)
	}

	wg.Wait()

	return &ConcurrentResult{
		Successes: successes.Load(),
		Transient: transient.Load(),
		Rejected:  rejected.Load(),
		Errors:    errs.Load(),
	}
}
