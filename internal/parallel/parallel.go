// Package parallel fans per-sample work out in fixed-size chunks.
//
// Each chunk owns a disjoint index range, so callers that write results by
// index get the same output regardless of the worker count.
package parallel

import (
	"sync"

	"github.com/panjf2000/ants/v2"
)

type Runner struct {
	pool  *ants.Pool
	batch int
}

// New creates a runner. With workers <= 1 every chunk runs on the calling
// goroutine and no pool is allocated.
func New(workers, batch int) (*Runner, error) {
	if batch < 1 {
		batch = 1
	}
	r := &Runner{batch: batch}
	if workers > 1 {
		pool, err := ants.NewPool(workers)
		if err != nil {
			return nil, err
		}
		r.pool = pool
	}
	return r, nil
}

// For calls fn over [0, n) split into chunks of the runner's batch size and
// returns once every chunk has finished.
func (r *Runner) For(n int, fn func(lo, hi int)) {
	if r.pool == nil || n <= r.batch {
		for lo := 0; lo < n; lo += r.batch {
			fn(lo, min(lo+r.batch, n))
		}
		return
	}
	var wg sync.WaitGroup
	for lo := 0; lo < n; lo += r.batch {
		hi := min(lo+r.batch, n)
		wg.Add(1)
		task := func() {
			defer wg.Done()
			fn(lo, hi)
		}
		if err := r.pool.Submit(task); err != nil {
			task()
		}
	}
	wg.Wait()
}

// Release frees the pool. The runner must not be used afterwards.
func (r *Runner) Release() {
	if r.pool != nil {
		r.pool.Release()
	}
}
