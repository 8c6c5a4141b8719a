// Package workers runs independent indexed jobs on a fixed set of
// goroutines.
//
// Each worker owns a queue and steals from the others when its own is
// empty, so one slow job (a large shader compile) does not hold back the
// jobs queued behind it.
package workers

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
)

// Pool is a fixed set of worker goroutines. It is safe for concurrent
// use; several Run calls may share one pool.
type Pool struct {
	workers int
	queues  []chan func()
	done    chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool

	// closing is held for writing while done is closed, and for reading
	// while jobs are queued, so no job is queued after the final drain.
	closing sync.RWMutex
}

// New starts a pool of the given size. A size <= 0 selects GOMAXPROCS.
func New(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	queueSize := max(workers*4, 8)

	p := &Pool{
		workers: workers,
		queues:  make([]chan func(), workers),
		done:    make(chan struct{}),
	}
	for i := range workers {
		p.queues[i] = make(chan func(), queueSize)
	}
	p.running.Store(true)

	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}
	return p
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	own := p.queues[id]
	for {
		select {
		case <-p.done:
			p.drain(own)
			return
		case job := <-own:
			job()
		default:
			if job := p.steal(id); job != nil {
				job()
				continue
			}
			select {
			case <-p.done:
				p.drain(own)
				return
			case job := <-own:
				job()
			}
		}
	}
}

func (p *Pool) drain(q chan func()) {
	for {
		select {
		case job := <-q:
			job()
		default:
			return
		}
	}
}

func (p *Pool) steal(id int) func() {
	for i := range p.workers {
		if i == id {
			continue
		}
		select {
		case job := <-p.queues[i]:
			return job
		default:
		}
	}
	return nil
}

// PanicError carries a panic out of a job.
type PanicError struct {
	Index int
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("workers: job %d panicked: %v", e.Index, e.Value)
}

// Run calls job(i) for every i in [0, n) and waits for all of them.
// Jobs run inline when n < 2 or the pool is closed. If jobs panic, Run
// panics on the caller's goroutine with the lowest-index *PanicError
// once every job has finished.
func (p *Pool) Run(n int, job func(i int)) {
	if n <= 0 {
		return
	}
	if n == 1 || p == nil {
		p.inline(n, job)
		return
	}
	p.closing.RLock()
	if !p.running.Load() {
		p.closing.RUnlock()
		p.inline(n, job)
		return
	}

	panics := make([]any, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := range n {
		wrapped := func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					panics[i] = r
				}
			}()
			job(i)
		}
		p.queues[i%p.workers] <- wrapped
	}
	p.closing.RUnlock()
	wg.Wait()

	for i, r := range panics {
		if r != nil {
			panic(&PanicError{Index: i, Value: r})
		}
	}
}

func (p *Pool) inline(n int, job func(i int)) {
	for i := range n {
		job(i)
	}
}

// Close stops the workers after the queued jobs have run. Close is
// idempotent.
func (p *Pool) Close() {
	p.closing.Lock()
	if !p.running.CompareAndSwap(true, false) {
		p.closing.Unlock()
		return
	}
	close(p.done)
	p.closing.Unlock()
	p.wg.Wait()
}

// Workers returns the pool size.
func (p *Pool) Workers() int { return p.workers }
