package corestore

import "sync/atomic"

// ActionMiddleware transforms or drops a dispatched action before it is
// enqueued. Returning ok=false drops the action: it never reaches the
// queue and the remainder of the middleware chain does not run for it.
// Middlewares run in registration order; the explicit boolean return
// distinguishes "drop" from "pass through a legitimately nil-ish action"
// in a way a bare pointer sentinel could not.
type ActionMiddleware func(action Action) (out Action, ok bool)

// EventMiddleware is the event analogue of ActionMiddleware.
type EventMiddleware func(event Event) (out Event, ok bool)

// MiddlewareToken identifies a single middleware registration, returned by
// RegisterActionMiddleware/RegisterEventMiddleware and consumed by the
// matching Unregister call. Tokens from the action chain and the event
// chain are never compared against each other; each is only looked up in
// its own store's own chain.
type MiddlewareToken uint64

var middlewareTokens atomic.Uint64

func nextMiddlewareToken() MiddlewareToken {
	return MiddlewareToken(middlewareTokens.Add(1))
}

type taggedActionMiddleware struct {
	token MiddlewareToken
	fn    ActionMiddleware
}

type taggedEventMiddleware struct {
	token MiddlewareToken
	fn    EventMiddleware
}

func applyActionMiddlewares(mws []taggedActionMiddleware, action Action) (Action, bool) {
	current := action
	for _, mw := range mws {
		var ok bool
		current, ok = mw.fn(current)
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func applyEventMiddlewares(mws []taggedEventMiddleware, event Event) (Event, bool) {
	current := event
	for _, mw := range mws {
		var ok bool
		current, ok = mw.fn(current)
		if !ok {
			return nil, false
		}
	}
	return current, true
}
