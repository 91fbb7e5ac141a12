package corestore

// Reducer is a pure function from the current state (nil before the first
// successful reduction) and an action to either a replacement state or a
// CompleteReducerResult. A non-nil error (for example the sentinel errors
// a combine reducer returns for bad register/unregister actions) stops
// the drain and is propagated to the dispatching caller unchanged.
type Reducer func(state any, action Action) (any, error)

// CompleteReducerResult is returned by a Reducer that wants to cascade
// further actions and/or events alongside its new state. Actions and events
// are enqueued, in this order, only after the new state (if any) has
// replaced the store's current state and listeners have been notified.
type CompleteReducerResult struct {
	State   any
	Actions []Action
	Events  []Event
}

// Result wraps a plain state value as a CompleteReducerResult with no
// cascaded actions or events, for reducers that want a uniform return type.
func Result(state any) CompleteReducerResult {
	return CompleteReducerResult{State: state}
}

// ResultWith wraps a state value together with cascaded actions and events.
func ResultWith(state any, actions []Action, events []Event) CompleteReducerResult {
	return CompleteReducerResult{State: state, Actions: actions, Events: events}
}
