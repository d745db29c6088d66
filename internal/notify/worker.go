package notify

import (
	"context"
	"log"
)

// Job is one fan-out request queued for the worker pool.
type Job struct {
	UserID string
	Title  string
	Body   string
	Data   map[string]string
}

// WorkerPool manages a pool of workers draining queued fan-out jobs. Event
// handlers enqueue one job per recipient and return immediately; delivery
// and pruning happen here.
type WorkerPool struct {
	size       int
	jobs       chan Job
	dispatcher *Dispatcher
	monitor    *Monitor
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, dispatcher *Dispatcher, monitor *Monitor) *WorkerPool {
	return &WorkerPool{
		size:       size,
		jobs:       make(chan Job, size*4),
		dispatcher: dispatcher,
		monitor:    monitor,
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

// Enqueue queues a job for the pool.
func (wp *WorkerPool) Enqueue(job Job) {
	wp.jobs <- job
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan Job {
	return wp.jobs
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("Worker %d started", id)
	for {
		select {
		case job := <-wp.jobs:
			wp.process(ctx, job)
		case <-ctx.Done():
			log.Printf("Worker %d shutting down", id)
			return
		}
	}
}

// process runs one fan-out and feeds its invalid tokens straight into the
// prune path. Errors are logged only; a failed notification must never take
// the pool down.
func (wp *WorkerPool) process(ctx context.Context, job Job) {
	result, err := wp.dispatcher.Dispatch(ctx, job.UserID, job.Title, job.Body, job.Data)
	if err != nil {
		log.Printf("dispatch for user %s failed: %v", job.UserID, err)
		return
	}

	if len(result.InvalidTokens) > 0 {
		if _, err := wp.monitor.PruneInvalid(ctx, result.InvalidTokens); err != nil {
			log.Printf("pruning invalid tokens for user %s failed: %v", job.UserID, err)
		}
	}
}
