package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/osse101/invengine/internal/logger"
)

// Job represents a task to be executed by a worker
type Job interface {
	Process(ctx context.Context) error
}

// JobFunc adapts a function to Job.
type JobFunc func(ctx context.Context) error

func (f JobFunc) Process(ctx context.Context) error { return f(ctx) }

// Pool runs jobs on a fixed set of workers. Each worker owns a queue; jobs
// submitted with the same key always land on the same worker and run in order.
type Pool struct {
	shards []chan Job
	wg     sync.WaitGroup
	quit   chan struct{}
	ctx    context.Context

	mu      sync.RWMutex
	started bool
	stopped bool
}

// Health errors reported by CheckHealth.
var (
	ErrPoolNotStarted = errors.New("worker pool not started")
	ErrPoolStopped    = errors.New("worker pool stopped")
)

// NewPool creates a pool of workers, each with a queue of queueSize jobs.
func NewPool(workers int, queueSize int) *Pool {
	if workers < 1 {
		workers = 1
	}
	p := &Pool{
		shards: make([]chan Job, workers),
		quit:   make(chan struct{}),
		ctx:    context.Background(),
	}
	for i := range p.shards {
		p.shards[i] = make(chan Job, queueSize)
	}
	return p
}

// Start starts the workers. Jobs run with a context derived from ctx.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	p.started = true
	p.mu.Unlock()
	p.ctx = context.WithoutCancel(ctx)
	for i := range p.shards {
		p.wg.Add(1)
		go p.worker(p.shards[i])
	}
}

// worker is the worker loop
func (p *Pool) worker(queue chan Job) {
	defer p.wg.Done()
	for {
		select {
		case job := <-queue:
			p.run(job)
		case <-p.quit:
			// Drain what was accepted before Stop.
			for {
				select {
				case job := <-queue:
					p.run(job)
				default:
					return
				}
			}
		}
	}
}

func (p *Pool) run(job Job) {
	if err := job.Process(p.ctx); err != nil {
		logger.FromContext(p.ctx).Error(LogMsgWorkerJobFailed, logger.AttrKeyError, err)
	}
}

// TryEnqueue queues job on the worker selected by key. It never blocks:
// it returns false when that worker's queue is full or the pool is stopped.
func (p *Pool) TryEnqueue(key uint64, job Job) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return false
	}
	select {
	case p.shards[key%uint64(len(p.shards))] <- job:
		return true
	default:
		return false
	}
}

// Workers returns the number of workers.
func (p *Pool) Workers() int {
	return len(p.shards)
}

// Stop stops accepting jobs, runs what is already queued and waits for the workers.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	p.mu.Unlock()

	close(p.quit)
	p.wg.Wait()
}

// CheckHealth reports whether the pool is accepting jobs.
func (p *Pool) CheckHealth(context.Context) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	switch {
	case p.stopped:
		return ErrPoolStopped
	case !p.started:
		return ErrPoolNotStarted
	}
	return nil
}
