// Package autorun implements memoized reactive computations bound to a
// store: a selector projects the store's state to a value, an optional
// comparator decides whether that projection actually changed (defaulting
// to reusing the selector's own result), and, only when it did, a
// registered function is invoked with the new selector result (and,
// optionally, the previous one) to produce the value the autorun actually
// memoizes and fans out to subscribers. Subscriptions, and the autorun's
// own wrapped function, may be held weakly, so an autorun does not keep
// its consumers alive past their natural lifetime.
package autorun

import (
	"context"
	"reflect"
	"sync"
	"time"
	"weak"

	"github.com/corestore/corestore"
)

// AutoAwait selects how CallAsync behaves when the underlying selector is
// asynchronous (see NewAsync). The zero value, AutoAwaitUnset, is used
// for ordinary synchronous selectors and is not a third behavior of its
// own so much as "this autorun has no async behavior to select."
type AutoAwait int

const (
	// AutoAwaitUnset marks a synchronous autorun (New, NewWithPrevious);
	// NewAsync rejects it.
	AutoAwaitUnset AutoAwait = iota
	// AutoAwaitTrue makes CallAsync block (honoring the passed context)
	// until the async selector reports its value ready.
	AutoAwaitTrue
	// AutoAwaitFalse makes CallAsync a non-blocking poll: it returns
	// immediately with Pending if the value is not yet ready.
	AutoAwaitFalse
)

// Pending is returned by CallAsync on an async autorun (AutoAwaitFalse,
// or AutoAwaitTrue whose context expired) whose selector has not yet
// produced a value. It carries no data; it exists only to be a distinct
// type from AwaitableResult[T], so callers can type-switch on readiness
// without inspecting a boolean buried in a zero-valued result.
type Pending struct{}

// AwaitableResult is returned by CallAsync once the selector has produced
// a value. It is a plain value: reading it more than once is allowed.
type AwaitableResult[T any] struct {
	Value T
	Ready bool
}

// Selector projects a store's state S to a value K. K is what the
// registered Func body is invoked with, not necessarily what the
// autorun ends up memoizing.
type Selector[S, K any] func(state S) K

// AsyncSelector is the NewAsync analogue of Selector: it projects state
// to a K that may not be ready yet.
type AsyncSelector[S, K any] func(state S) (value K, ready bool)

// Comparator computes a change-signal value from state, independent of
// the selector: an autorun recomputes iff this value differs from the
// one computed the previous time the store's state changed. Left unset,
// an autorun reuses the selector's own result as its comparator value
// (spec's "defaulting to identity on K"), so a comparator is only
// needed when the recompute decision must be coarser, or finer, than the
// selector's own projection.
type Comparator[S any] func(state S) any

// Func is a registered autorun body, invoked with the selector's latest
// result once the comparator says something changed.
type Func[K, T any] func(current K) T

// FuncWithPrev is a Func variant that additionally receives the selector
// result from the previous time the body ran (the zero K before the
// first run), for bodies whose output depends on the transition rather
// than just the new value.
type FuncWithPrev[K, T any] func(current, previous K) T

// Option configures an Autorun at construction time.
type Option[S, K, T any] func(*config[S])

type config[S any] struct {
	comparator            Comparator[S]
	initialCall           bool
	reactive              bool
	memoization           bool
	autoAwait             AutoAwait
	subscribersInitialRun bool
	keepAlive             func() bool // nil means "always alive": a strong reference
}

func defaultConfig[S any]() config[S] {
	return config[S]{
		initialCall:           true,
		reactive:              true,
		memoization:           true,
		subscribersInitialRun: false,
	}
}

// WithComparator overrides the default "reuse the selector's result"
// comparator with one computed independently from state, e.g. a coarser
// change signal (state.Value%2) than the selector itself (state.Value).
func WithComparator[S, K, T any](cmp Comparator[S]) Option[S, K, T] {
	return func(c *config[S]) { c.comparator = cmp }
}

// WithInitialCall controls whether the autorun computes a value
// immediately at construction (default true). view.View turns this off.
func WithInitialCall[S, K, T any](enabled bool) Option[S, K, T] {
	return func(c *config[S]) { c.initialCall = enabled }
}

// WithReactive controls whether the autorun subscribes to the store and
// recomputes automatically on every state change (default true). When
// false, Call must be invoked explicitly.
func WithReactive[S, K, T any](enabled bool) Option[S, K, T] {
	return func(c *config[S]) { c.reactive = enabled }
}

// WithMemoization controls whether subscribers are notified only when
// the registered function's return value changed (default true).
// Disabling it notifies on every invocation regardless of equality, and
// makes Call always re-invoke the function.
func WithMemoization[S, K, T any](enabled bool) Option[S, K, T] {
	return func(c *config[S]) { c.memoization = enabled }
}

// WithSubscribersInitialRun makes subscribers added via Subscribe receive
// the autorun's current cached value immediately, rather than waiting for
// the next change.
func WithSubscribersInitialRun[S, K, T any](enabled bool) Option[S, K, T] {
	return func(c *config[S]) { c.subscribersInitialRun = enabled }
}

// WithWeakOwner ties the autorun's own wrapped function to owner's
// lifetime instead of holding the autorun alive indefinitely via its
// store subscription. Once owner is no longer otherwise reachable, the
// next recompute (a state change or Call that would run the body)
// observes that the body is no longer callable and, instead of running
// it, self-unsubscribes the autorun from its store for good, mirroring
// weakref.WeakMethod: a dropped owner, not an explicit Stop, ends the
// autorun's reactive lifetime.
func WithWeakOwner[S, K, T, O any](owner *O) Option[S, K, T] {
	wp := weak.Make(owner)
	return func(c *config[S]) {
		c.keepAlive = func() bool { return wp.Value() != nil }
	}
}

type subscriber[T any] struct {
	id    uint64
	fn    func(T)
	alive func() bool
}

// SubscribeOption configures a single Subscribe call.
type SubscribeOption func(*subscribeOpts)

type subscribeOpts struct {
	alive func() bool
}

// WithWeakSubscriber ties a subscriber's lifetime to owner: once owner is
// no longer otherwise reachable, the subscriber is silently dropped
// instead of being invoked, mirroring weakref.WeakMethod semantics.
func WithWeakSubscriber[T any](owner *T) SubscribeOption {
	wp := weak.Make(owner)
	return func(o *subscribeOpts) {
		o.alive = func() bool { return wp.Value() != nil }
	}
}

// Autorun is a memoized, optionally reactive projection of a store's
// state S, through a selector producing K, to a value of type T computed
// by a registered Func/FuncWithPrev body.
type Autorun[S, K, T any] struct {
	store      *corestore.Store
	selector   Selector[S, K]
	async      AsyncSelector[S, K]
	fn         func(current, previous K) T
	cfg        config[S]
	unsubStore func()

	mu             sync.Mutex
	lastK          K
	lastComparator any
	hasComparator  bool
	prevCallK      K
	value          T
	hasValue       bool
	subscribers    []subscriber[T]
	nextID         uint64
}

// New constructs a synchronous Autorun whose body fn is invoked with only
// the new selector result.
func New[S, K, T any](store *corestore.Store, selector Selector[S, K], fn Func[K, T], opts ...Option[S, K, T]) *Autorun[S, K, T] {
	return newAutorun[S, K, T](store, selector, nil, func(current, _ K) T { return fn(current) }, opts)
}

// NewWithPrevious constructs a synchronous Autorun whose body fn also
// receives the selector result from the previous time it ran (the zero K
// before the first run).
func NewWithPrevious[S, K, T any](store *corestore.Store, selector Selector[S, K], fn FuncWithPrev[K, T], opts ...Option[S, K, T]) *Autorun[S, K, T] {
	return newAutorun[S, K, T](store, selector, nil, func(current, previous K) T { return fn(current, previous) }, opts)
}

// NewAsync constructs an Autorun whose selector may report its value as
// not yet ready. autoAwait must be AutoAwaitTrue or AutoAwaitFalse. fn is
// invoked with the selector's result once it is ready, exactly like a
// synchronous autorun's body.
func NewAsync[S, K, T any](store *corestore.Store, selector AsyncSelector[S, K], fn Func[K, T], autoAwait AutoAwait, opts ...Option[S, K, T]) (*Autorun[S, K, T], error) {
	if autoAwait == AutoAwaitUnset {
		return nil, corestore.ErrAutorunAutoAwaitRequired
	}
	a := newAutorun[S, K, T](store, nil, selector, func(current, _ K) T { return fn(current) }, opts)
	a.cfg.autoAwait = autoAwait
	return a, nil
}

func newAutorun[S, K, T any](store *corestore.Store, selector Selector[S, K], async AsyncSelector[S, K], fn func(current, previous K) T, opts []Option[S, K, T]) *Autorun[S, K, T] {
	cfg := defaultConfig[S]()
	for _, opt := range opts {
		opt(&cfg)
	}
	a := &Autorun[S, K, T]{store: store, selector: selector, async: async, fn: fn, cfg: cfg}
	a.init()
	return a
}

func (a *Autorun[S, K, T]) init() {
	if a.cfg.reactive {
		a.unsubStore = a.store.Subscribe(func(any) { a.evaluate() })
	}
	if a.cfg.initialCall {
		a.evaluate()
	}
}

// Stop unsubscribes a reactive autorun from its store. Non-reactive
// autoruns (built with WithReactive(false), as view.View does) have
// nothing to stop. Idempotent.
func (a *Autorun[S, K, T]) Stop() {
	if a.unsubStore != nil {
		a.unsubStore()
	}
}

// Value returns the last value this autorun computed, without
// recomputing. It is the cached-read counterpart to Call.
func (a *Autorun[S, K, T]) Value() T {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.value
}

// Call resolves the store's current state, recomputes if the comparator
// reports a change (or memoization is disabled), and returns the
// (possibly just-refreshed) cached value, per the invocation protocol:
// the body runs iff the comparator differs from last time OR memoization
// is off; the cached value is always what's returned.
func (a *Autorun[S, K, T]) Call() T {
	a.evaluate()
	return a.Value()
}

// CallAsync recomputes against the store's current state using the async
// selector this Autorun was built with (NewAsync). Behavior depends on
// AutoAwait: AutoAwaitTrue blocks, honoring ctx, until the selector
// reports readiness; AutoAwaitFalse polls once and returns immediately.
// The return value is either Pending{} or AwaitableResult[T]{Ready: true}.
func (a *Autorun[S, K, T]) CallAsync(ctx context.Context) any {
	if a.async == nil {
		return AwaitableResult[T]{Value: a.Call(), Ready: true}
	}

	for {
		state, err := a.store.State()
		if err == nil {
			if k, ready := a.callAsyncSelector(state.(S)); ready {
				a.recompute(k)
				return AwaitableResult[T]{Value: a.Value(), Ready: true}
			}
		}
		if a.cfg.autoAwait == AutoAwaitFalse {
			return Pending{}
		}
		select {
		case <-ctx.Done():
			return Pending{}
		case <-time.After(time.Millisecond):
		}
	}
}

func (a *Autorun[S, K, T]) callAsyncSelector(state S) (K, bool) {
	return a.async(state)
}

// evaluate runs check against the store's current state, then call if
// check reports a change or memoization is disabled, matching the
// invocation protocol in spec §4.3.
func (a *Autorun[S, K, T]) evaluate() {
	state, err := a.store.State()
	if err != nil {
		return
	}
	shouldRecompute := a.check(state.(S))

	a.mu.Lock()
	memoization := a.cfg.memoization
	a.mu.Unlock()

	if shouldRecompute || !memoization {
		a.recompute(a.currentK())
	}
}

// check computes the selector and comparator against state, recovering
// silently from a panicking selector/comparator (the Go analogue of the
// source's "attribute missing on an evolving state shape" soft signal),
// and records whether the comparator's value changed since the last
// check. It always stores the new selector/comparator results, even
// when the answer is false.
func (a *Autorun[S, K, T]) check(state S) (changed bool) {
	defer func() {
		if recover() != nil {
			changed = false
		}
	}()

	k := a.computeSelector(state)

	var comparatorValue any
	if a.cfg.comparator != nil {
		comparatorValue = a.cfg.comparator(state)
	} else {
		comparatorValue = k
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	differs := !a.hasComparator || !reflect.DeepEqual(a.lastComparator, comparatorValue)
	a.lastK = k
	a.lastComparator = comparatorValue
	a.hasComparator = true
	return differs
}

func (a *Autorun[S, K, T]) computeSelector(state S) K {
	if a.async != nil {
		k, ready := a.async(state)
		if !ready {
			panic("autorun: async selector not ready")
		}
		return k
	}
	return a.selector(state)
}

func (a *Autorun[S, K, T]) currentK() K {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastK
}

// recompute resolves the wrapped function through its weak owner (if
// any) and, if still reachable, invokes it with current and the previous
// K the function was run with, committing the result and notifying
// subscribers on a real change. An unreachable weak owner self-
// unsubscribes the autorun from its store instead of running the body.
func (a *Autorun[S, K, T]) recompute(current K) {
	a.mu.Lock()
	if a.cfg.keepAlive != nil && !a.cfg.keepAlive() {
		a.mu.Unlock()
		a.Stop()
		return
	}
	previous := a.prevCallK
	a.mu.Unlock()

	value := a.fn(current, previous)

	a.mu.Lock()
	a.prevCallK = current
	changed := !a.hasValue || !reflect.DeepEqual(a.value, value)
	a.value = value
	a.hasValue = true
	if !changed && a.cfg.memoization {
		a.mu.Unlock()
		return
	}
	subs := make([]subscriber[T], len(a.subscribers))
	copy(subs, a.subscribers)
	a.mu.Unlock()

	var dead []uint64
	for _, sub := range subs {
		if sub.alive != nil && !sub.alive() {
			dead = append(dead, sub.id)
			continue
		}
		sub.fn(value)
	}
	if len(dead) > 0 {
		a.pruneSubscribers(dead)
	}
}

// pruneSubscribers removes subscribers whose weak owner has been
// collected, so a garbage-collected subscriber is dropped from the set
// rather than merely skipped on every future notification.
func (a *Autorun[S, K, T]) pruneSubscribers(dead []uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, id := range dead {
		for i, s := range a.subscribers {
			if s.id == id {
				a.subscribers = append(a.subscribers[:i], a.subscribers[i+1:]...)
				break
			}
		}
	}
}

// Subscribe fans this autorun's recomputed values out to fn, in addition
// to the store-level listeners the autorun itself may be subscribed to.
// The returned func unsubscribes.
func (a *Autorun[S, K, T]) Subscribe(fn func(T), opts ...SubscribeOption) (unsubscribe func()) {
	var o subscribeOpts
	for _, opt := range opts {
		opt(&o)
	}

	a.mu.Lock()
	id := a.nextID
	a.nextID++
	a.subscribers = append(a.subscribers, subscriber[T]{id: id, fn: fn, alive: o.alive})
	runInitial := a.cfg.subscribersInitialRun && a.hasValue
	initialValue := a.value
	a.mu.Unlock()

	if runInitial {
		fn(initialValue)
	}

	return func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		for i, s := range a.subscribers {
			if s.id == id {
				a.subscribers = append(a.subscribers[:i], a.subscribers[i+1:]...)
				break
			}
		}
	}
}
