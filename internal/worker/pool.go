// Package worker provides a small elastic goroutine pool for fire-and-forget
// background jobs (conversation summarization, archival writes). Workers grow
// on demand up to a cap and retire after sitting idle.
package worker

import (
	"sync"
	"time"
)

const defaultWorkerIdle = 30 * time.Second

type Pool struct {
	mu      sync.Mutex
	jobs    chan func()
	min     int
	max     int
	running int
	idle    time.Duration
	stopped bool
	done    chan struct{}
}

func NewPool(minWorkers, maxWorkers, queueSize int, idle time.Duration) *Pool {
	if minWorkers < 1 {
		minWorkers = 1
	}
	if maxWorkers < minWorkers {
		maxWorkers = minWorkers
	}
	if queueSize < 1 {
		queueSize = 1
	}
	if idle <= 0 {
		idle = defaultWorkerIdle
	}
	p := &Pool{
		jobs: make(chan func(), queueSize),
		min:  minWorkers,
		max:  maxWorkers,
		idle: idle,
		done: make(chan struct{}),
	}
	for i := 0; i < minWorkers; i++ {
		p.spawnLocked()
	}
	return p
}

// Submit enqueues a job without blocking. It reports false when the queue is
// full and the pool is already at its worker cap; the job is dropped.
func (p *Pool) Submit(job func()) bool {
	if job == nil {
		return false
	}
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return false
	}
	select {
	case p.jobs <- job:
		// Backlog building up: add capacity if allowed.
		if len(p.jobs) > 0 && p.running < p.max {
			p.spawnLocked()
		}
		p.mu.Unlock()
		return true
	default:
		if p.running < p.max {
			p.spawnLocked()
			p.mu.Unlock()
			// A fresh worker is draining; one bounded retry.
			select {
			case p.jobs <- job:
				return true
			case <-time.After(10 * time.Millisecond):
				debugLog("worker: queue full, job dropped")
				return false
			}
		}
		p.mu.Unlock()
		debugLog("worker: at capacity, job dropped")
		return false
	}
}

// Stop prevents new submissions and signals workers to exit once the queue
// drains.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.stopped {
		p.stopped = true
		close(p.done)
	}
	p.mu.Unlock()
}

// spawnLocked requires p.mu held.
func (p *Pool) spawnLocked() {
	p.running++
	debugLog("worker: spawned, running=%d", p.running)
	go p.work()
}

func (p *Pool) work() {
	idleTimer := time.NewTimer(p.idle)
	defer idleTimer.Stop()
	for {
		select {
		case job := <-p.jobs:
			job()
			if !idleTimer.Stop() {
				select {
				case <-idleTimer.C:
				default:
				}
			}
			idleTimer.Reset(p.idle)
		case <-idleTimer.C:
			p.mu.Lock()
			if p.running > p.min {
				p.running--
				debugLog("worker: idle retire, running=%d", p.running)
				p.mu.Unlock()
				return
			}
			p.mu.Unlock()
			idleTimer.Reset(p.idle)
		case <-p.done:
			p.mu.Lock()
			p.running--
			p.mu.Unlock()
			return
		}
	}
}
