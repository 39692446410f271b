// Package workerpool runs tasks on a fixed number of goroutines. The CLI
// uses it to render batches of report inputs with bounded concurrency;
// every task still builds its own model and layout state.
package workerpool

import (
	"runtime"
	"sync"
)

// Pool manages a fixed set of worker goroutines.
type Pool struct {
	workers int
	tasks   chan func()
	wg      sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// New starts a pool with the given number of workers. workers <= 0 uses
// GOMAXPROCS.
func New(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	p := &Pool{
		workers: workers,
		tasks:   make(chan func(), workers*4),
	}
	p.wg.Add(workers)
	for range workers {
		go p.worker()
	}
	return p
}

// Submit queues task, blocking while the queue is full. It returns false
// if the pool is closed.
func (p *Pool) Submit(task func()) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}
	p.tasks <- task
	return true
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		run(task)
	}
}

// run executes task, containing panics so one bad task cannot take a
// worker down.
func run(task func()) {
	defer func() { _ = recover() }()
	if task != nil {
		task()
	}
}

// Cap returns the number of workers.
func (p *Pool) Cap() int { return p.workers }

// Close waits for queued tasks to finish and stops the workers. It is
// idempotent.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()
	p.wg.Wait()
}

// Map applies fn to each item on the pool and returns the results in
// input order. Items that could not be submitted keep the zero R.
func Map[T, R any](p *Pool, items []T, fn func(T) R) []R {
	results := make([]R, len(items))
	var wg sync.WaitGroup
	wg.Add(len(items))
	for i, item := range items {
		if !p.Submit(func() {
			defer wg.Done()
			results[i] = fn(item)
		}) {
			wg.Done()
		}
	}
	wg.Wait()
	return results
}
