package render

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
)

// ReportFunc publishes progress. Values are clamped to [0, 1] and never
// move backwards.
type ReportFunc func(fraction float64)

// AsyncJob runs a function in its own goroutine and implements Job.
type AsyncJob struct {
	progress atomic.Uint64
	cancel   context.CancelFunc
	done     chan struct{}

	mu  sync.Mutex
	err error
}

// Go starts run. run must return promptly once ctx is cancelled.
func Go(ctx context.Context, run func(ctx context.Context, report ReportFunc) error) *AsyncJob {
	ctx, cancel := context.WithCancel(ctx)
	j := &AsyncJob{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(j.done)
		defer cancel()
		err := run(ctx, j.report)
		if err == nil && ctx.Err() != nil {
			err = ctx.Err()
		}
		if err == nil {
			j.report(1)
		}
		j.mu.Lock()
		j.err = err
		j.mu.Unlock()
	}()
	return j
}

func (j *AsyncJob) report(f float64) {
	if math.IsNaN(f) {
		return
	}
	f = math.Max(0, math.Min(1, f))
	for {
		old := j.progress.Load()
		if f <= math.Float64frombits(old) {
			return
		}
		if j.progress.CompareAndSwap(old, math.Float64bits(f)) {
			return
		}
	}
}

func (j *AsyncJob) Progress() float64 {
	return math.Float64frombits(j.progress.Load())
}

func (j *AsyncJob) Done() <-chan struct{} { return j.done }

func (j *AsyncJob) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}

func (j *AsyncJob) Cancel() { j.cancel() }
