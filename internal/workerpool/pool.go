// Package workerpool provides a fixed-size worker pool used to fan
// out underwriting batches. Tasks run with panic recovery so one bad
// application cannot take down a worker.
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// ErrPoolClosed is returned by Submit after Stop
var ErrPoolClosed = errors.New("workerpool: pool closed")

const (
	defaultWorkers   = 4
	defaultQueueSize = 64
)

type task struct {
	ctx context.Context
	fn  func() error
}

// Pool runs submitted tasks on a fixed set of worker goroutines
type Pool struct {
	tasks  chan task
	wg     sync.WaitGroup
	closed atomic.Bool
	once   sync.Once
}

// New creates and starts a pool. Non-positive arguments fall back to
// defaults.
func New(workers, queueSize int) *Pool {
	if workers <= 0 {
		workers = defaultWorkers
	}
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}

	p := &Pool{tasks: make(chan task, queueSize)}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for t := range p.tasks {
		p.execute(t)
	}
}

func (p *Pool) execute(t task) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("workerpool: task panic: %v\n%s", r, debug.Stack())
		}
	}()

	// Don't run work whose caller already gave up
	if t.ctx.Err() != nil {
		return
	}

	if err := t.fn(); err != nil {
		log.Printf("workerpool: task failed: %v", err)
	}
}

// Submit queues fn for execution, blocking while the queue is full.
// The task is skipped if ctx is cancelled before a worker picks it up;
// fn is responsible for reporting its own results.
func (p *Pool) Submit(ctx context.Context, fn func() error) error {
	if p.closed.Load() {
		return ErrPoolClosed
	}
	if ctx == nil {
		ctx = context.Background()
	}

	defer func() {
		// Submitting on a closed channel races with Stop
		if r := recover(); r != nil {
			log.Printf("workerpool: submit after close: %v", r)
		}
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case p.tasks <- task{ctx: ctx, fn: fn}:
		return nil
	}
}

// Stop closes the queue and waits for in-flight tasks to finish.
// Idempotent.
func (p *Pool) Stop() {
	p.once.Do(func() {
		p.closed.Store(true)
		close(p.tasks)
		p.wg.Wait()
	})
}

// Run executes every task on the pool and waits for all of them,
// returning the first error encountered.
func (p *Pool) Run(ctx context.Context, fns ...func() error) error {
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	record := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	for _, fn := range fns {
		fn := fn
		wg.Add(1)
		// Submit without a context so the wrapper always runs and
		// releases the wait group; cancellation is checked inside.
		err := p.Submit(context.Background(), func() error {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				record(err)
				return nil
			}
			if err := fn(); err != nil {
				record(err)
				return fmt.Errorf("batch task: %w", err)
			}
			return nil
		})
		if err != nil {
			wg.Done()
			record(err)
		}
	}

	wg.Wait()
	return firstErr
}
