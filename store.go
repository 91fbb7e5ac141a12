package corestore

import (
	"fmt"
	"sync"
	"time"
	"weak"

	"github.com/corestore/corestore/effects"
)

// StateListener observes every state replacement the reducer produces.
type StateListener func(state any)

// EventHandler observes a single delivered event. It receives the owning
// store so it can dispatch further actions in reaction, matching the
// side-effect handlers of the engine this package is modeled on. This is
// the full form accepted by SubscribeEvent; see its doc comment for the
// other arities a handler may be registered with.
type EventHandler func(store *Store, event Event)

// normalizeEventHandler detects a handler's arity at subscription-call
// time and wraps it into the canonical two-argument shape the dispatch
// loop invokes internally, mirroring the side-effect runner's own arity
// detection for handlers that take the event or no arguments at all.
// An unrecognized shape is logged and treated as a no-op, the same way
// a handler panic is isolated rather than propagated to the caller.
func normalizeEventHandler(logger Logger, handler any) EventHandler {
	switch h := handler.(type) {
	case EventHandler:
		return h
	case func(store *Store, event Event):
		return h
	case func(event Event):
		return func(_ *Store, e Event) { h(e) }
	case func():
		return func(_ *Store, _ Event) { h() }
	default:
		logger.Error("corestore: event handler has an unsupported signature, ignoring",
			"type", fmt.Sprintf("%T", handler))
		return func(*Store, Event) {}
	}
}

// ListenerOption configures a single Subscribe or SubscribeEvent call.
type ListenerOption func(*listenerOpts)

type listenerOpts struct {
	alive func() bool // nil means "always alive": a strong reference
}

// WithWeakOwner ties a listener's lifetime to owner instead of holding it
// (or the listener closure) strongly. Once owner is no longer otherwise
// reachable, the listener is silently dropped the next time the store
// would have notified it; no finalizer or explicit unsubscribe is
// required. This is the Go analogue of the weakref.WeakMethod binding
// used for autorun subscriptions.
func WithWeakOwner[T any](owner *T) ListenerOption {
	wp := weak.Make(owner)
	return func(o *listenerOpts) {
		o.alive = func() bool { return wp.Value() != nil }
	}
}

type listenerEntry struct {
	id   uint64
	fn   StateListener
	opts listenerOpts
}

type handlerEntry struct {
	id      uint64
	eventID eventKey
	fn      EventHandler
	opts    listenerOpts
}

// Store is the dispatch loop: a single mutable state cell advanced by a
// Reducer, with listeners observing every state replacement and handlers
// observing every delivered event. At most one goroutine ever executes
// the loop body at a time, enforced by a non-reentrant run lock; any
// Dispatch that cannot acquire it simply enqueues and returns, trusting
// the lock holder to drain the new items (Run rechecks the queues after
// releasing the lock and drains again if anything arrived).
type Store struct {
	cfg     storeConfig
	reducer Reducer

	runLock sync.Mutex

	mu             sync.Mutex
	state          any
	initialized    bool
	pendingActions []Action
	pendingEvents  []Event
	listeners      []listenerEntry
	handlers       []handlerEntry
	nextID         uint64
	finishing      bool
	finished       bool

	pool *effects.Pool
}

type eventKey struct {
	typeName string
}

// NewStore constructs a Store around reducer and applies opts. Unless
// WithAutoInit(false) is given, it immediately dispatches InitAction to
// seed the initial state.
func NewStore(reducer Reducer, opts ...Option) (*Store, error) {
	cfg := defaultStoreConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	s := &Store{
		cfg:     *cfg,
		reducer: reducer,
		pool:    effects.New(cfg.sideEffectThreads, poolLogger{cfg.logger}),
	}

	if cfg.scheduler != nil {
		cfg.scheduler.Start(s)
	}

	if cfg.autoInit {
		if err := s.Dispatch(InitAction{}); err != nil {
			return nil, err
		}
	}

	return s, nil
}

type poolLogger struct{ l Logger }

func (p poolLogger) Error(msg string, args ...any) { p.l.Error(msg, args...) }
func (p poolLogger) Debug(msg string, args ...any) { p.l.Debug(msg, args...) }

// State returns the current state. It is ErrNotInitialized until the
// first successful reduction (normally InitAction, dispatched by
// NewStore unless WithAutoInit(false) was given).
func (s *Store) State() (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return nil, ErrNotInitialized
	}
	return s.state, nil
}

// Subscribe registers a listener for every subsequent state replacement.
// The returned func unsubscribes. Listeners are notified in registration
// order, synchronously, on whichever goroutine is currently draining the
// dispatch loop; a panicking listener propagates out of the Dispatch call
// that triggered it and aborts the remainder of that drain.
func (s *Store) Subscribe(listener StateListener, opts ...ListenerOption) (unsubscribe func()) {
	var o listenerOpts
	for _, opt := range opts {
		opt(&o)
	}
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners = append(s.listeners, listenerEntry{id: id, fn: listener, opts: o})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, e := range s.listeners {
			if e.id == id {
				s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
				break
			}
		}
	}
}

// SubscribeEvent registers handler for every subsequent delivery of an
// event with the same concrete type as eventType. eventType is a zero
// value used only to key the registration, e.g.
// SubscribeEvent(MyEvent{}, handler).
//
// handler may be any of:
//
//	func(store *Store, event Event)  // the full EventHandler form
//	func(event Event)                // event only
//	func()                           // no arguments
//
// which arity it is is decided once, here, not on every delivery.
func (s *Store) SubscribeEvent(eventType Event, handler any, opts ...ListenerOption) (unsubscribe func()) {
	var o listenerOpts
	for _, opt := range opts {
		opt(&o)
	}
	key := eventKey{typeName: TypeName(eventType)}
	fn := normalizeEventHandler(s.cfg.logger, handler)

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.handlers = append(s.handlers, handlerEntry{id: id, eventID: key, fn: fn, opts: o})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, e := range s.handlers {
			if e.id == id {
				s.handlers = append(s.handlers[:i], s.handlers[i+1:]...)
				break
			}
		}
	}
}

// RegisterActionMiddleware appends an action middleware at runtime, after
// any middlewares passed via WithActionMiddlewares. The returned token
// unregisters this one middleware via UnregisterActionMiddleware.
func (s *Store) RegisterActionMiddleware(mw ActionMiddleware) MiddlewareToken {
	token := nextMiddlewareToken()
	s.mu.Lock()
	s.cfg.actionMiddlewares = append(s.cfg.actionMiddlewares, taggedActionMiddleware{token: token, fn: mw})
	s.mu.Unlock()
	return token
}

// UnregisterActionMiddleware removes the middleware registered under
// token. It is safe to call more than once, and, per spec, takes effect
// on subsequent dispatches even if called mid-drain: a drain already in
// progress finishes applying whichever chain it read the item against.
func (s *Store) UnregisterActionMiddleware(token MiddlewareToken) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, mw := range s.cfg.actionMiddlewares {
		if mw.token == token {
			s.cfg.actionMiddlewares = append(s.cfg.actionMiddlewares[:i], s.cfg.actionMiddlewares[i+1:]...)
			return
		}
	}
}

// RegisterEventMiddleware appends an event middleware at runtime. The
// returned token unregisters this one middleware via
// UnregisterEventMiddleware.
func (s *Store) RegisterEventMiddleware(mw EventMiddleware) MiddlewareToken {
	token := nextMiddlewareToken()
	s.mu.Lock()
	s.cfg.eventMiddlewares = append(s.cfg.eventMiddlewares, taggedEventMiddleware{token: token, fn: mw})
	s.mu.Unlock()
	return token
}

// UnregisterEventMiddleware removes the middleware registered under
// token. Safe to call more than once.
func (s *Store) UnregisterEventMiddleware(token MiddlewareToken) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, mw := range s.cfg.eventMiddlewares {
		if mw.token == token {
			s.cfg.eventMiddlewares = append(s.cfg.eventMiddlewares[:i], s.cfg.eventMiddlewares[i+1:]...)
			return
		}
	}
}

// Dispatch enqueues one or more actions and, unless a Scheduler is
// configured, immediately drives the dispatch loop on the calling
// goroutine (acquiring the run lock if it is free). If another goroutine
// already holds the run lock, this call only enqueues: the lock holder
// will process the new actions, since it rechecks the queues on every
// iteration and once more after releasing the lock.
//
// Dispatch returns the first reducer error encountered by the goroutine
// that actually drains the loop. A Dispatch call that merely enqueues
// (because the lock was held) returns nil immediately; any error from
// processing its action surfaces to whichever caller's Dispatch is
// driving the loop at that moment, and via the store's logger.
func (s *Store) Dispatch(actions ...Action) error {
	s.mu.Lock()
	s.enqueueActionsLocked(actions)
	s.mu.Unlock()

	if s.cfg.scheduler != nil {
		return nil
	}
	return s.Run()
}

// DispatchWithState reads the store's current state (nil if the store has
// never completed a reduction) and calls fn with it, then enqueues
// whatever actions fn returns. fn runs while the store's internal lock is
// held, so the read of state and the resulting enqueue are atomic with
// respect to every other Dispatch/DispatchWithState call: no other
// goroutine can advance the state or enqueue in between, closing the
// read-then-dispatch race a caller doing store.State() followed by a
// separate store.Dispatch() would otherwise have. Like Dispatch, it then
// drives the dispatch loop on the calling goroutine unless a Scheduler is
// configured.
func (s *Store) DispatchWithState(fn func(state any) []Action) error {
	s.mu.Lock()
	actions := fn(s.state)
	s.enqueueActionsLocked(actions)
	s.mu.Unlock()

	if s.cfg.scheduler != nil {
		return nil
	}
	return s.Run()
}

// enqueueActionsLocked applies the action middleware chain and appends
// the survivors to pendingActions. Callers must hold s.mu.
func (s *Store) enqueueActionsLocked(actions []Action) {
	for _, a := range actions {
		out, ok := applyActionMiddlewares(s.cfg.actionMiddlewares, a)
		if !ok {
			continue
		}
		s.pendingActions = append(s.pendingActions, out)
	}
}

// Run drains the action and event queues on the calling goroutine if no
// other goroutine is currently draining them, and otherwise returns
// immediately. Schedulers call this directly on whatever cadence they
// choose; Dispatch calls it itself unless a Scheduler is configured.
func (s *Store) Run() error {
	for {
		if !s.runLock.TryLock() {
			return nil
		}
		err := func() error {
			defer s.runLock.Unlock()
			return s.drain()
		}()
		if err != nil {
			s.cfg.logger.Error("corestore: dispatch loop stopped on error", "error", err)
			return err
		}
		// Items enqueued after drain's last check but before the unlock
		// were not seen by it; their Dispatch found the lock held.
		s.mu.Lock()
		more := len(s.pendingActions) > 0 || len(s.pendingEvents) > 0
		s.mu.Unlock()
		if !more {
			return nil
		}
	}
}

func (s *Store) drain() error {
	for {
		s.mu.Lock()
		switch {
		case len(s.pendingActions) > 0:
			action := s.pendingActions[0]
			s.pendingActions = s.pendingActions[1:]
			s.mu.Unlock()
			if err := s.processAction(action); err != nil {
				return err
			}
		case len(s.pendingEvents) > 0:
			event := s.pendingEvents[0]
			s.pendingEvents = s.pendingEvents[1:]
			s.mu.Unlock()
			s.processEvent(event)
		default:
			s.mu.Unlock()
			return nil
		}
	}
}

func (s *Store) processAction(action Action) error {
	s.mu.Lock()
	state := s.state
	initialized := s.initialized
	s.mu.Unlock()

	if !initialized {
		if _, ok := action.(InitAction); !ok {
			return NewInitializationError(action)
		}
	}

	result, err := s.reducer(state, action)
	if err != nil {
		return err
	}

	var next any
	var cascadedActions []Action
	var cascadedEvents []Event
	if complete, ok := result.(CompleteReducerResult); ok {
		next = complete.State
		if next == nil {
			next = state
		}
		cascadedActions = complete.Actions
		cascadedEvents = complete.Events
	} else {
		next = result
	}

	s.mu.Lock()
	s.state = next
	s.initialized = true
	listeners := make([]listenerEntry, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	s.notifyListeners(listeners, next)

	s.mu.Lock()
	for _, a := range cascadedActions {
		out, ok := applyActionMiddlewares(s.cfg.actionMiddlewares, a)
		if ok {
			s.pendingActions = append(s.pendingActions, out)
		}
	}
	for _, e := range cascadedEvents {
		out, ok := applyEventMiddlewares(s.cfg.eventMiddlewares, e)
		if ok {
			s.pendingEvents = append(s.pendingEvents, out)
		}
	}
	if _, ok := action.(FinishAction); ok {
		s.pendingEvents = append(s.pendingEvents, FinishEvent{})
	}
	s.mu.Unlock()

	return nil
}

func (s *Store) notifyListeners(listeners []listenerEntry, state any) {
	var dead []uint64
	for _, e := range listeners {
		if e.opts.alive != nil && !e.opts.alive() {
			dead = append(dead, e.id)
			continue
		}
		e.fn(state)
	}
	if len(dead) > 0 {
		s.pruneListeners(dead)
	}
}

// pruneListeners removes listeners whose weak owner has been collected,
// mirroring the unsubscribe path a live caller would have taken. This is
// the store-level analogue of autorun's own weak-subscriber pruning.
func (s *Store) pruneListeners(dead []uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range dead {
		for i, e := range s.listeners {
			if e.id == id {
				s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
				break
			}
		}
	}
}

func (s *Store) processEvent(event Event) {
	key := eventKey{typeName: TypeName(event)}

	if _, ok := event.(FinishEvent); ok {
		go s.shutdown()
	}

	s.mu.Lock()
	matching := make([]handlerEntry, 0, len(s.handlers))
	for _, h := range s.handlers {
		if h.eventID == key {
			matching = append(matching, h)
		}
	}
	s.mu.Unlock()

	var dead []uint64
	for _, h := range matching {
		if h.opts.alive != nil && !h.opts.alive() {
			dead = append(dead, h.id)
			continue
		}
		handler := h.fn
		ev := event
		task := effects.NewTask(func() {
			if s.cfg.taskCreator != nil {
				s.cfg.taskCreator(func() { handler(s, ev) })
				return
			}
			handler(s, ev)
		})
		s.pool.Submit(task)
	}
	if len(dead) > 0 {
		s.pruneHandlers(dead)
	}
}

// pruneHandlers removes handlers whose weak owner has been collected.
func (s *Store) pruneHandlers(dead []uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range dead {
		for i, h := range s.handlers {
			if h.id == id {
				s.handlers = append(s.handlers[:i], s.handlers[i+1:]...)
				break
			}
		}
	}
}

func (s *Store) shutdown() {
	s.mu.Lock()
	if s.finishing {
		s.mu.Unlock()
		return
	}
	s.finishing = true
	s.mu.Unlock()

	for {
		s.mu.Lock()
		idle := len(s.pendingActions) == 0 && len(s.pendingEvents) == 0
		s.mu.Unlock()
		if idle && s.pool.Idle() {
			break
		}
		time.Sleep(time.Millisecond)
	}

	time.Sleep(s.cfg.graceTime)

	s.pool.Close()

	s.mu.Lock()
	s.finished = true
	s.listeners = nil
	s.handlers = nil
	onFinish := s.cfg.onFinish
	s.mu.Unlock()

	if onFinish != nil {
		onFinish()
	}
}

// Finished reports whether shutdown has completed: both queues drained
// and the worker pool joined.
func (s *Store) Finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finished
}

// ListenerCount returns the number of currently registered state
// listeners, for introspection (see corestore/httpdebug).
func (s *Store) ListenerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}

// HandlerCount returns the number of currently registered event handlers,
// across all event types, for introspection (see corestore/httpdebug).
func (s *Store) HandlerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handlers)
}
