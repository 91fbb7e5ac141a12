// Package view provides thin, non-reactive bindings over a store's current
// state: WithState is a pure convenience for "read the state, project it,
// call a function with the projection"; View is a memoized lazy projection
// built on top of autorun, recomputed only when its comparator says the
// state actually changed.
package view

import (
	"github.com/corestore/corestore"
	"github.com/corestore/corestore/autorun"
)

// Config controls WithState's behavior when the store has no state yet.
type Config struct {
	ignoreUninitialized bool
}

// ConfigOption configures a single WithState call.
type ConfigOption func(*Config)

// IgnoreUninitialized makes WithState return the zero R and a nil error
// instead of corestore.ErrNotInitialized when the store has never
// completed a reduction.
func IgnoreUninitialized(enabled bool) ConfigOption {
	return func(c *Config) { c.ignoreUninitialized = enabled }
}

// WithState reads store's current state, applies selector, and invokes fn
// with the projection as its first argument, returning fn's result. It is
// not reactive: the selector runs exactly once, against whatever state
// happens to be current at the moment of the call, exactly like calling
// store.State() and selector(state) inline, with ErrNotInitialized handling
// factored out. Unlike autorun, it never subscribes to the store and never
// memoizes; every call re-reads state and re-runs fn.
func WithState[S, T, R any](store *corestore.Store, selector func(S) T, fn func(T) R, opts ...ConfigOption) (R, error) {
	var cfg Config
	for _, opt := range opts {
		opt(&cfg)
	}

	var zero R
	state, err := store.State()
	if err != nil {
		if cfg.ignoreUninitialized {
			return zero, nil
		}
		return zero, err
	}
	return fn(selector(state.(S))), nil
}

// View is a memoized, non-reactive projection of a store's state: the
// first call (or any call after the comparator reports a change) computes
// a fresh value; every other call returns the cached one. Unlike an
// autorun.New with WithReactive(false), View also fixes InitialCall=false
// and AutoAwait off, matching spec.md's definition of a "lazy view".
type View[S, T any] struct {
	inner *autorun.Autorun[S, T, T]
}

// New constructs a View over selector, optionally compared with cmp
// (defaulting to reusing the selector's own result via autorun's own
// default). A View has no separate body: its selector's result is itself
// the memoized value, so it is wired through autorun as an identity Func.
func New[S, T any](store *corestore.Store, selector autorun.Selector[S, T], cmp autorun.Comparator[S]) *View[S, T] {
	opts := []autorun.Option[S, T, T]{
		autorun.WithReactive[S, T, T](false),
		autorun.WithInitialCall[S, T, T](false),
	}
	if cmp != nil {
		opts = append(opts, autorun.WithComparator[S, T, T](cmp))
	}
	identity := func(current T) T { return current }
	return &View[S, T]{inner: autorun.New(store, selector, identity, opts...)}
}

// Get returns the current projection, recomputing only if the store's
// state has changed since the last Get per the view's comparator.
func (v *View[S, T]) Get() T {
	return v.inner.Call()
}

// Subscribe fans out this view's recomputed values, same as
// autorun.Autorun.Subscribe. Since a View is not reactive, a subscriber
// only fires as a side effect of a caller invoking Get.
func (v *View[S, T]) Subscribe(fn func(T), opts ...autorun.SubscribeOption) (unsubscribe func()) {
	return v.inner.Subscribe(fn, opts...)
}
