package corestore

import "time"

// Scheduler drives the dispatch loop from outside, instead of letting
// Dispatch run it synchronously. A scheduler calls Run on whatever cadence
// it chooses (a cron expression, a ticker, an external event); the store
// only enqueues in the meantime. See the sibling corestore/cronsched
// package for a github.com/robfig/cron/v3-backed implementation.
type Scheduler interface {
	// Start begins driving run against the given store. It must return
	// promptly; the actual scheduling happens in the background.
	Start(store *Store)
	// Stop halts the scheduler. It must be safe to call more than once.
	Stop()
}

// TaskCreator hands a side-effect handler's invocation off to a caller
// supplied execution strategy (a goroutine pool, an errgroup, inline
// execution for tests). The store's own worker pool (corestore/effects)
// still dequeues every invocation; with a TaskCreator installed, the
// worker passes the invocation to it instead of calling the handler
// itself.
type TaskCreator func(run func())

// Option configures a Store at construction time. The option set is
// closed: corestore does not support ad-hoc subclassing of the dispatch
// loop, only the documented extension points below.
type Option func(*storeConfig) error

type storeConfig struct {
	autoInit          bool
	sideEffectThreads int
	scheduler         Scheduler
	taskCreator       TaskCreator
	actionMiddlewares []taggedActionMiddleware
	eventMiddlewares  []taggedEventMiddleware
	onFinish          func()
	graceTime         time.Duration
	logger            Logger
}

func defaultStoreConfig() *storeConfig {
	return &storeConfig{
		autoInit:          true,
		sideEffectThreads: 4,
		graceTime:         5 * time.Second,
		logger:            NopLogger{},
	}
}

// WithAutoInit controls whether NewStore immediately dispatches InitAction
// against the reducer. Defaults to true; set false when the caller wants
// to dispatch InitAction itself, e.g. after wiring event handlers that
// must observe the very first transition.
func WithAutoInit(enabled bool) Option {
	return func(c *storeConfig) error {
		c.autoInit = enabled
		return nil
	}
}

// WithSideEffectThreads sets the worker pool size for event side-effects.
// Defaults to 4. A value <= 0 is an error.
func WithSideEffectThreads(n int) Option {
	return func(c *storeConfig) error {
		if n <= 0 {
			return ErrInvalidSideEffectThreads
		}
		c.sideEffectThreads = n
		return nil
	}
}

// WithScheduler replaces the default "drain inline on Dispatch" behavior
// with an external scheduler that decides when run executes.
func WithScheduler(s Scheduler) Option {
	return func(c *storeConfig) error {
		c.scheduler = s
		return nil
	}
}

// WithTaskCreator overrides how side-effect handlers are invoked. By
// default a pool worker (corestore/effects) calls each handler directly;
// with tc installed, the worker calls tc with the handler invocation.
func WithTaskCreator(tc TaskCreator) Option {
	return func(c *storeConfig) error {
		c.taskCreator = tc
		return nil
	}
}

// WithActionMiddlewares installs action middlewares, applied in order, on
// every dispatched action before it reaches the queue. Unlike
// Store.RegisterActionMiddleware, these cannot be individually
// unregistered; they are the store's permanent baseline chain.
func WithActionMiddlewares(mws ...ActionMiddleware) Option {
	return func(c *storeConfig) error {
		for _, mw := range mws {
			c.actionMiddlewares = append(c.actionMiddlewares, taggedActionMiddleware{token: nextMiddlewareToken(), fn: mw})
		}
		return nil
	}
}

// WithEventMiddlewares installs event middlewares, applied in order, on
// every reducer-produced event before it reaches the queue.
func WithEventMiddlewares(mws ...EventMiddleware) Option {
	return func(c *storeConfig) error {
		for _, mw := range mws {
			c.eventMiddlewares = append(c.eventMiddlewares, taggedEventMiddleware{token: nextMiddlewareToken(), fn: mw})
		}
		return nil
	}
}

// WithOnFinish registers a callback run once shutdown has fully completed:
// both queues drained and the worker pool joined.
func WithOnFinish(fn func()) Option {
	return func(c *storeConfig) error {
		c.onFinish = fn
		return nil
	}
}

// WithGraceTime sets how long shutdown waits, once both queues are empty
// and the worker pool is idle, before it closes and joins the pool.
// Defaults to 5 seconds. The wait for idleness itself has no bound.
func WithGraceTime(d time.Duration) Option {
	return func(c *storeConfig) error {
		c.graceTime = d
		return nil
	}
}

// WithLogger installs a structured logger. Defaults to NopLogger.
func WithLogger(l Logger) Option {
	return func(c *storeConfig) error {
		if l == nil {
			l = NopLogger{}
		}
		c.logger = l
		return nil
	}
}
