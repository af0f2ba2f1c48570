package pipeline

import (
	"context"
	"errors"
	"sync"
)

// Job is a unit of work submitted to the WorkerPool.
type Job func(ctx context.Context) error

// ErrPoolClosed is returned if a Submit is attempted after Close.
var ErrPoolClosed = errors.New("worker pool closed")

// WorkerPool runs jobs on a fixed number of goroutines. The first job error
// cancels the pool's context; jobs still queued after that are skipped.
type WorkerPool struct {
	jobs    chan Job
	wg      sync.WaitGroup
	workers int

	ctx    context.Context
	cancel context.CancelFunc

	closeMu sync.Mutex
	closed  bool

	errOnce  sync.Once
	firstErr error
}

// NewWorkerPool creates a pool with the given worker count and queue
// capacity and starts its workers. Cancelling ctx stops them.
func NewWorkerPool(ctx context.Context, workers, queue int) *WorkerPool {
	if workers <= 0 {
		workers = 1
	}
	if queue <= 0 {
		queue = workers * 2
	}
	ctx, cancel := context.WithCancel(ctx)
	p := &WorkerPool{
		jobs:    make(chan Job, queue),
		workers: workers,
		ctx:     ctx,
		cancel:  cancel,
	}
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.work()
	}
	return p
}

func (p *WorkerPool) work() {
	defer p.wg.Done()
	for job := range p.jobs {
		if p.ctx.Err() != nil {
			continue
		}
		if err := job(p.ctx); err != nil {
			p.fail(err)
		}
	}
}

func (p *WorkerPool) fail(err error) {
	p.errOnce.Do(func() {
		p.firstErr = err
		p.cancel()
	})
}

// Submit enqueues a job, blocking while the queue is full. It returns the
// context error once the pool has been cancelled.
func (p *WorkerPool) Submit(job Job) error {
	p.closeMu.Lock()
	defer p.closeMu.Unlock()
	if p.closed {
		return ErrPoolClosed
	}
	select {
	case p.jobs <- job:
		return nil
	case <-p.ctx.Done():
		return p.ctx.Err()
	}
}

// Close stops accepting jobs, waits for the workers and returns the first
// job error, or the context error if the pool was cancelled from outside.
func (p *WorkerPool) Close() error {
	p.closeMu.Lock()
	if p.closed {
		p.closeMu.Unlock()
		return ErrPoolClosed
	}
	p.closed = true
	close(p.jobs)
	p.closeMu.Unlock()
	p.wg.Wait()

	var err error
	p.errOnce.Do(func() {
		err = p.ctx.Err()
	})
	if err == nil {
		err = p.firstErr
	}
	p.cancel()
	return err
}
