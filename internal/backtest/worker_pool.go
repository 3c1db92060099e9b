package backtest

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ducminhle1904/strategy-lab/internal/strategy"
	"github.com/ducminhle1904/strategy-lab/pkg/types"
)

// WorkerPool manages parallel backtest execution
type WorkerPool struct {
	workerCount int
	sim         *Simulator
	jobQueue    chan indexedJob
	resultQueue chan JobResult
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
}

// Job represents a single backtest task
type Job struct {
	ID      string
	Key     strategy.Key
	Bars    []types.Bar
	Capital float64
	Config  Config
	Params  strategy.Params
}

// JobResult represents the result of a backtest job
type JobResult struct {
	ID       string
	Index    int
	Result   *Result
	Duration time.Duration
}

type indexedJob struct {
	index int
	job   Job
}

// NewWorkerPool creates a new worker pool for parallel backtesting
func NewWorkerPool(workerCount int, jobBufferSize int, sim *Simulator) *WorkerPool {
	if workerCount <= 0 {
		workerCount = runtime.NumCPU()
	}
	if sim == nil {
		sim = defaultSimulator
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		workerCount: workerCount,
		sim:         sim,
		jobQueue:    make(chan indexedJob, jobBufferSize),
		resultQueue: make(chan JobResult, jobBufferSize),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start starts the worker pool
func (wp *WorkerPool) Start() {
	for i := 0; i < wp.workerCount; i++ {
		wp.wg.Add(1)
		go wp.worker()
	}
}

// Stop stops the worker pool gracefully
func (wp *WorkerPool) Stop() {
	close(wp.jobQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
	wp.cancel()
}

// SubmitJob submits a backtest job to the pool. index is echoed in the
// result so callers can restore submission order.
func (wp *WorkerPool) SubmitJob(index int, job Job) error {
	select {
	case wp.jobQueue <- indexedJob{index: index, job: job}:
		return nil
	case <-wp.ctx.Done():
		return wp.ctx.Err()
	}
}

// GetResults returns the result channel for collecting completed jobs
func (wp *WorkerPool) GetResults() <-chan JobResult {
	return wp.resultQueue
}

// worker processes backtest jobs
func (wp *WorkerPool) worker() {
	defer wp.wg.Done()

	for {
		select {
		case ij, ok := <-wp.jobQueue:
			if !ok {
				return
			}

			result := wp.processJob(ij)

			select {
			case wp.resultQueue <- result:
			case <-wp.ctx.Done():
				return
			}

		case <-wp.ctx.Done():
			return
		}
	}
}

// processJob processes a single backtest job
func (wp *WorkerPool) processJob(ij indexedJob) JobResult {
	startTime := time.Now()
	job := ij.job
	res := wp.sim.Run(job.Key, job.Bars, job.Capital, job.Config, job.Params)
	return JobResult{
		ID:       job.ID,
		Index:    ij.index,
		Result:   res,
		Duration: time.Since(startTime),
	}
}

// RunBatch runs every job on a pool of workers and returns the results in
// submission order. Cancelling ctx stops submitting; jobs not yet run are
// reported in the error.
func RunBatch(ctx context.Context, sim *Simulator, workers int, jobs []Job, progress *ProgressTracker) ([]JobResult, error) {
	wp := NewWorkerPool(workers, len(jobs), sim)
	wp.Start()

	submitted := 0
	var submitErr error
	for i, job := range jobs {
		if err := ctx.Err(); err != nil {
			submitErr = err
			break
		}
		if err := wp.SubmitJob(i, job); err != nil {
			submitErr = err
			break
		}
		submitted++
	}

	results := make([]JobResult, submitted)
	for n := 0; n < submitted; n++ {
		r := <-wp.GetResults()
		results[r.Index] = r
		if progress != nil {
			progress.Increment()
		}
	}
	wp.Stop()

	if submitErr != nil {
		return results, fmt.Errorf("batch stopped after %d of %d jobs: %w", submitted, len(jobs), submitErr)
	}
	return results, nil
}

// ParallelMap applies fn to every item on up to workers goroutines and
// returns the outputs in input order. Items not started before ctx is
// cancelled are left as the zero value and reported by the returned count.
func ParallelMap[T, R any](ctx context.Context, workers int, items []T, fn func(int, T) R) ([]R, int) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	out := make([]R, len(items))
	next := make(chan int)
	var wg sync.WaitGroup
	var mu sync.Mutex
	done := 0

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range next {
				out[i] = fn(i, items[i])
				mu.Lock()
				done++
				mu.Unlock()
			}
		}()
	}

feed:
	for i := range items {
		if ctx.Err() != nil {
			break
		}
		select {
		case next <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(next)
	wg.Wait()
	return out, done
}

// Progress is a point-in-time view of a batch.
type Progress struct {
	Done      int
	Total     int
	Percent   float64
	Elapsed   time.Duration
	Remaining time.Duration // zero until the first job finishes
}

// ProgressTracker counts finished batch jobs. Safe for concurrent use.
type ProgressTracker struct {
	total int
	done  atomic.Int64
	start time.Time
}

func NewProgressTracker(total int) *ProgressTracker {
	return &ProgressTracker{total: total, start: time.Now()}
}

func (pt *ProgressTracker) Increment() {
	pt.done.Add(1)
}

// Progress reports the current count and a linear estimate of the time left.
func (pt *ProgressTracker) Progress() Progress {
	done := int(pt.done.Load())
	p := Progress{Done: done, Total: pt.total, Elapsed: time.Since(pt.start)}
	if pt.total > 0 {
		p.Percent = float64(done) / float64(pt.total) * 100
	}
	if done > 0 && done < pt.total {
		p.Remaining = p.Elapsed / time.Duration(done) * time.Duration(pt.total-done)
	}
	return p
}
