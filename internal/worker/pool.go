// Package worker runs pipeline jobs on a fixed-size pool with a bounded
// queue, so a burst of submissions degrades to a clear rejection instead
// of unbounded goroutine growth.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/clipforge/clipforge/internal/jobs"
)

// ErrQueueFull is returned by Submit when the pending queue is at capacity.
var ErrQueueFull = errors.New("job queue is full")

// Runner executes one job to its terminal state.
type Runner interface {
	Process(ctx context.Context, jobID string)
}

type Pool struct {
	runner Runner
	repo   jobs.Repository
	queue  chan string
	size   int
	logger *slog.Logger

	wg       sync.WaitGroup
	mu       sync.Mutex
	started  bool
	shutdown bool
}

func NewPool(runner Runner, repo jobs.Repository, size, queueDepth int, logger *slog.Logger) *Pool {
	if size < 1 {
		size = 1
	}
	if queueDepth < 1 {
		queueDepth = 1
	}
	return &Pool{
		runner: runner,
		repo:   repo,
		queue:  make(chan string, queueDepth),
		size:   size,
		logger: logger,
	}
}

// Start launches the workers and requeues jobs that were pending when the
// process last stopped. Workers drain until ctx is cancelled.
func (p *Pool) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return errors.New("pool already started")
	}
	p.started = true
	p.mu.Unlock()

	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.work(ctx, i)
	}

	pending, err := p.repo.ListPendingJobs(ctx)
	if err != nil {
		return err
	}
	for _, job := range pending {
		if err := p.Submit(job.ID); err != nil {
			p.logger.Warn("could not requeue pending job", "job_id", job.ID, "error", err)
		}
	}
	if len(pending) > 0 {
		p.logger.Info("requeued pending jobs", "count", len(pending))
	}
	return nil
}

// Submit enqueues a job ID without blocking.
func (p *Pool) Submit(jobID string) error {
	p.mu.Lock()
	if p.shutdown {
		p.mu.Unlock()
		return errors.New("pool is shut down")
	}
	p.mu.Unlock()

	select {
	case p.queue <- jobID:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop prevents further submissions and waits for in-flight jobs. The
// workers' ctx should be cancelled by the caller to interrupt long stages.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.shutdown {
		p.mu.Unlock()
		return
	}
	p.shutdown = true
	p.mu.Unlock()

	close(p.queue)
	p.wg.Wait()
}

func (p *Pool) work(ctx context.Context, id int) {
	defer p.wg.Done()
	log := p.logger.With("worker", id)

	for {
		select {
		case <-ctx.Done():
			return
		case jobID, ok := <-p.queue:
			if !ok {
				return
			}
			log.Debug("worker picked up job", "job_id", jobID)
			p.runner.Process(ctx, jobID)
		}
	}
}
