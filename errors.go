package corestore

import "errors"

// Store errors.
var (
	// ErrNotInitialized is returned by operations that require a current
	// state (e.g. WithState) when the store has never successfully
	// completed a reduction.
	ErrNotInitialized = errors.New("store has not been initialized yet")

	// ErrInvalidInitialAction is wrapped into InitializationError when a
	// reducer is invoked with a nil state and an action other than
	// InitAction.
	ErrInvalidInitialAction = errors.New("only InitAction is permitted against a nil state")

	// ErrAlreadyRunning names the condition of the run lock being held.
	// No function in this module returns it: a Dispatch or Run that finds
	// the lock held only enqueues (or does nothing) and returns nil.
	ErrAlreadyRunning = errors.New("store is already running its dispatch loop")

	// ErrInvalidSideEffectThreads is returned by WithSideEffectThreads for
	// a non-positive worker count.
	ErrInvalidSideEffectThreads = errors.New("side effect thread count must be positive")

	// ErrAutorunAutoAwaitRequired is returned by autorun.NewAsync when
	// constructed without AutoAwaitTrue or AutoAwaitFalse.
	ErrAutorunAutoAwaitRequired = errors.New("an async autorun requires AutoAwaitTrue or AutoAwaitFalse")

	// ErrAutorunFunctionUncallable names a nil autorun selector. No
	// function in this module returns it; the autorun constructors do not
	// check their selector for nil.
	ErrAutorunFunctionUncallable = errors.New("autorun selector function is nil")

	// ErrSnapshotUnsupportedType is returned by the serialize visitor when
	// it encounters a value it does not know how to represent.
	ErrSnapshotUnsupportedType = errors.New("value is not representable in a snapshot")

	// ErrSnapshotAfterFinish names a snapshot requested after shutdown.
	// No function in this module returns it; serialize.StoreSnapshot
	// still snapshots a finished store's last state.
	ErrSnapshotAfterFinish = errors.New("cannot snapshot a finished store")

	// ErrUnknownCombinator names an action addressed to a combinator that
	// does not exist. No function in this module returns it; an
	// UnregisterAction naming an unregistered child yields
	// ErrChildNotRegistered instead.
	ErrUnknownCombinator = errors.New("no combinator registered under that name")

	// ErrChildAlreadyRegistered is returned by combine.RegisterAction
	// when the name is already in use.
	ErrChildAlreadyRegistered = errors.New("a child is already registered under that name")

	// ErrChildNotRegistered is returned by combine.UnregisterAction when
	// the name has no registered child.
	ErrChildNotRegistered = errors.New("no child is registered under that name")

	// ErrWrapperAlreadyAwaited names a second await of a single-use
	// result. No function in this module returns it: AwaitableResult is a
	// plain value with no await operation and may be read any number of
	// times.
	ErrWrapperAlreadyAwaited = errors.New("awaitable result has already been consumed")
)

// InitializationError is raised when a reducer is invoked against a nil
// state with any action other than InitAction. It wraps the offending
// action so callers can recover it with errors.As.
type InitializationError struct {
	Action Action
}

func (e *InitializationError) Error() string {
	return "corestore: initialization error: " + TypeName(e.Action) + ": " + ErrInvalidInitialAction.Error()
}

func (e *InitializationError) Unwrap() error {
	return ErrInvalidInitialAction
}

// NewInitializationError wraps action in an *InitializationError.
func NewInitializationError(action Action) error {
	return &InitializationError{Action: action}
}
