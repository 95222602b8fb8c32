package stream

import (
	"context"
	"sync"
)

// Pool runs status work on a fixed number of workers fed by a bounded
// queue. Submitting to a full queue blocks the caller, which applies
// backpressure to the stream reader instead of unbounded fan-out.
type Pool struct {
	tasks chan func()
	wg    sync.WaitGroup
}

func NewPool(workers, queueSize int) *Pool {
	if workers <= 0 {
		workers = 4
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	p := &Pool{tasks: make(chan func(), queueSize)}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for f := range p.tasks {
		f()
	}
}

// Submit enqueues f, blocking while the queue is full. It returns
// ctx.Err() if the context is cancelled before the task is accepted.
func (p *Pool) Submit(ctx context.Context, f func()) error {
	select {
	case p.tasks <- f:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting work and waits for in-flight tasks.
func (p *Pool) Shutdown() {
	close(p.tasks)
	p.wg.Wait()
}
