package core

import (
	"runtime"
	"sync"
)

// Default worker bounds for NewPool.
const (
	DefaultMinWorkers = 4
	DefaultMaxWorkers = 8
)

// Pool runs submitted tasks on a fixed set of goroutines fed from an unbounded
// FIFO queue. One Pool is shared by every call of an Aggregator and closed at
// process teardown.
type Pool struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []poolTask
	closed  bool
	workers int
	wg      sync.WaitGroup
}

type poolTask struct {
	run  func()
	done chan struct{}
}

// NewPool starts runtime.NumCPU() workers clamped to [minWorkers, maxWorkers].
// Non-positive bounds fall back to the defaults.
func NewPool(minWorkers, maxWorkers int) *Pool {
	if minWorkers <= 0 {
		minWorkers = DefaultMinWorkers
	}
	if maxWorkers <= 0 {
		maxWorkers = DefaultMaxWorkers
	}
	if maxWorkers < minWorkers {
		maxWorkers = minWorkers
	}

	p := &Pool{workers: min(max(runtime.NumCPU(), minWorkers), maxWorkers)}
	p.cond = sync.NewCond(&p.mu)

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

// Workers returns the number of worker goroutines.
func (p *Pool) Workers() int { return p.workers }

// Submit queues task and returns a channel closed once it has run. After Close
// the task runs inline on the calling goroutine.
func (p *Pool) Submit(task func()) <-chan struct{} {
	t := poolTask{run: task, done: make(chan struct{})}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		runTask(t)
		return t.done
	}
	p.queue = append(p.queue, t)
	p.mu.Unlock()
	p.cond.Signal()

	return t.done
}

// Close stops accepting work, lets queued tasks finish and waits for the
// workers to exit. It is safe to call more than once.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()
	p.cond.Broadcast()
	p.wg.Wait()
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.closed {
			p.cond.Wait()
		}
		if len(p.queue) == 0 {
			p.mu.Unlock()
			return
		}
		t := p.queue[0]
		p.queue[0] = poolTask{}
		p.queue = p.queue[1:]
		p.mu.Unlock()

		runTask(t)
	}
}

// Tasks are expected to recover their own panics.
func runTask(t poolTask) {
	defer close(t.done)
	t.run()
}
