package worker

import (
	"context"
	"log/slog"
	"sync"
)

type ProcessFunc[T any] func(ctx context.Context, job T) error

type Pool[T any] struct {
	numWorkers int
	jobs       chan T
	processor  ProcessFunc[T]
	wg         sync.WaitGroup
}

func NewPool[T any](numWorkers int, bufferSize int, processor ProcessFunc[T]) *Pool[T] {
	return &Pool[T]{
		numWorkers: numWorkers,
		jobs:       make(chan T, bufferSize),
		processor:  processor,
	}
}

func (p *Pool[T]) Start(ctx context.Context) {
	for i := 1; i <= p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

// worker drains the queue until it is closed. Jobs still queued when ctx is
// cancelled are processed with that cancelled ctx, so none are silently lost.
func (p *Pool[T]) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	for job := range p.jobs {
		if err := p.processor(ctx, job); err != nil {
			slog.Error("job failed", "worker", id, "error", err)
		}
	}
}

func (p *Pool[T]) Submit(job T) {
	p.jobs <- job
}

// TrySubmit queues job unless the queue is full. It reports whether the job
// was accepted.
func (p *Pool[T]) TrySubmit(job T) bool {
	select {
	case p.jobs <- job:
		return true
	default:
		return false
	}
}

// Stop closes the queue and waits for in-flight jobs.
func (p *Pool[T]) Stop() {
	close(p.jobs)
	p.wg.Wait()
}
