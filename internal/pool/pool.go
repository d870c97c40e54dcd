// Package pool implements a dynamically sized worker pool. The number of workers stays
// within [MinWorkers, MaxWorkers]: a new worker is spawned when a submitted task would
// otherwise have no free worker to pick it up, and workers above the floor retire after
// being idle for IdleTimeout.
package pool

import (
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/indigo-web/feather/config"
	"github.com/indigo-web/feather/internal/metrics"
	"github.com/indigo-web/feather/internal/queue"
	"go.uber.org/zap"
)

var ErrClosed = errors.New("pool is closed")

type Task func()

// Job is consumed by exactly one worker. A job without a task tells the worker to exit.
type Job struct {
	task Task
}

func (j Job) stop() bool {
	return j.task == nil
}

// PanicError wraps a value recovered from a panicking task.
type PanicError struct {
	Value any
	Stack []byte
}

func (p PanicError) Error() string {
	return fmt.Sprintf("task panicked: %v", p.Value)
}

type Stats struct {
	Active, Idle, Queued int
}

type Pool struct {
	cfg     config.Pool
	logger  *zap.Logger
	metrics *metrics.Metrics
	queue   *queue.Blocking[Job]
	wg      sync.WaitGroup
	idle    atomic.Int64
	panics  atomic.Uint64
	// mu guards spawning and retiring decisions, so active and closed are always
	// consistent with each other.
	mu     sync.Mutex
	active int
	// slack is the number of workers not running a task minus the number of queued
	// tasks. Popping a task changes neither, so the value is exact under mu.
	slack  int
	closed bool
}

// New starts MinWorkers workers.
func New(cfg config.Pool, logger *zap.Logger, m *metrics.Metrics) *Pool {
	if logger == nil {
		logger = zap.NewNop()
	}

	if m == nil {
		m = metrics.Nop()
	}

	p := &Pool{
		cfg:     cfg,
		logger:  logger,
		metrics: m,
		queue:   queue.New[Job](cfg.QueueCapacity),
	}

	p.mu.Lock()
	for range cfg.MinWorkers {
		p.spawn()
		p.slack++
	}
	p.mu.Unlock()

	return p
}

// Submit enqueues the task. It never blocks. A new worker is spawned if queued tasks
// outnumber free workers and the ceiling isn't reached yet, otherwise the task waits
// for the next free worker.
func (p *Pool) Submit(task Task) error {
	if task == nil {
		return errors.New("nil task")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}

	p.queue.Push(Job{task: task})
	p.slack--
	if p.slack < 0 && p.active < p.cfg.MaxWorkers {
		p.spawn()
		p.slack++
	}

	return nil
}

// Close stops accepting new tasks and waits until the already submitted ones are done
// and all the workers exited. Safe to be called multiple times.
func (p *Pool) Close() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		// retirement is disabled once closed, so each live worker consumes exactly one
		// of these, and only after the tasks queued before.
		for range p.active {
			p.queue.Push(Job{})
		}
	}
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *Pool) Stats() Stats {
	p.mu.Lock()
	active := p.active
	p.mu.Unlock()

	return Stats{
		Active: active,
		Idle:   int(p.idle.Load()),
		Queued: p.queue.Len(),
	}
}

// Panics returns the number of tasks recovered from a panic.
func (p *Pool) Panics() uint64 {
	return p.panics.Load()
}

// spawn must be called with mu held.
func (p *Pool) spawn() {
	p.active++
	p.metrics.ActiveWorkers.Inc()
	p.wg.Add(1)
	go p.worker()
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		p.idle.Add(1)
		p.metrics.IdleWorkers.Inc()
		job, status := p.pop()
		p.idle.Add(-1)
		p.metrics.IdleWorkers.Dec()

		switch status {
		case queue.Item:
			if job.stop() {
				p.exit()
				return
			}

			p.run(job.task)
			p.release()
		case queue.Unblocked:
			p.exit()
			return
		case queue.TimedOut:
			if p.retire() {
				return
			}
		}
	}
}

func (p *Pool) pop() (Job, queue.PopStatus) {
	if p.cfg.IdleTimeout <= 0 {
		job, ok := p.queue.Pop()
		if !ok {
			return job, queue.Unblocked
		}

		return job, queue.Item
	}

	return p.queue.PopTimeout(p.cfg.IdleTimeout)
}

func (p *Pool) retire() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || p.active <= p.cfg.MinWorkers || p.slack <= 0 {
		return false
	}

	p.active--
	p.slack--
	p.metrics.ActiveWorkers.Dec()
	p.logger.Debug("worker retired", zap.Int("active", p.active))

	return true
}

// release marks the worker free again after it finished a task.
func (p *Pool) release() {
	p.mu.Lock()
	p.slack++
	p.mu.Unlock()
}

func (p *Pool) exit() {
	p.mu.Lock()
	p.active--
	p.slack--
	p.mu.Unlock()
	p.metrics.ActiveWorkers.Dec()
}

func (p *Pool) run(task Task) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err := PanicError{Value: r, Stack: debug.Stack()}
			p.panics.Add(1)
			p.metrics.WorkerPanics.Inc()
			p.logger.Error(
				"recovered from panic",
				zap.Error(err),
				zap.Duration("after", time.Since(start)),
				zap.ByteString("stack", err.Stack),
			)
		}
	}()

	task()
}
