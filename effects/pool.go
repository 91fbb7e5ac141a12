// Package effects implements the side-effect runner pool: a fixed set of
// worker goroutines draining a shared task queue of (handler, event)
// pairs produced by a dispatch loop. It is grounded on the worker-pool
// pattern used by in-process event buses: a buffered channel of work
// items, one shutdown sentinel per worker, and per-task panic recovery
// so a single bad handler cannot take down the pool.
package effects

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Logger is the narrow slice of corestore.Logger the pool needs. It is
// redeclared here, rather than imported, so this package has no
// dependency on the root module.
type Logger interface {
	Error(msg string, args ...any)
	Debug(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Error(string, ...any) {}
func (nopLogger) Debug(string, ...any) {}

// Task is one unit of work: invoke Handler. A nil Task is the shutdown
// sentinel; exactly one is enqueued per worker when the pool is closed.
type Task struct {
	// ID correlates a task with logs and, potentially, tracing.
	ID string
	// Handler does the work. It must not panic; if it does, the pool
	// recovers and logs, isolating the failure to this one task.
	Handler func()
}

// NewTask wraps fn as a Task with a fresh correlation ID.
func NewTask(fn func()) Task {
	return Task{ID: uuid.NewString(), Handler: fn}
}

// Pool is a fixed-size worker pool draining a shared task queue of 256
// slots; Submit blocks while the queue is full. Submitting after Close
// panics; callers coordinate shutdown
// through the dispatch loop, which stops submitting before closing.
type Pool struct {
	logger  Logger
	queue   chan *Task
	wg      sync.WaitGroup
	closed  atomic.Bool
	workers int
	pending atomic.Int64
}

// New starts a Pool with the given number of workers. workers must be
// positive.
func New(workers int, logger Logger) *Pool {
	if logger == nil {
		logger = nopLogger{}
	}
	p := &Pool{
		logger:  logger,
		queue:   make(chan *Task, 256),
		workers: workers,
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.queue {
		if task == nil {
			return
		}
		p.run(task)
	}
}

func (p *Pool) run(task *Task) {
	defer p.pending.Add(-1)
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("side effect handler panicked", "task", task.ID, "panic", r)
		}
	}()
	task.Handler()
}

// Submit enqueues a task for execution by the next free worker.
func (p *Pool) Submit(task Task) {
	p.pending.Add(1)
	p.queue <- &task
}

// Idle reports whether every submitted task has finished running. It does
// not account for tasks submitted concurrently with the call.
func (p *Pool) Idle() bool {
	return p.pending.Load() == 0
}

// Close stops accepting new work after enqueuing one shutdown sentinel
// per worker, then blocks until every worker has drained the queue up to
// its sentinel and exited.
func (p *Pool) Close() {
	if !p.closed.CompareAndSwap(false, true) {
		return
	}
	for i := 0; i < p.workers; i++ {
		p.queue <- nil
	}
	close(p.queue)
	p.wg.Wait()
}
