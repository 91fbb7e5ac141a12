package corestore

// InitAction is the sentinel action dispatched against a nil state to
// bootstrap a reducer. It is the only action a reducer may legally receive
// when its current state is nil; any other action against nil state raises
// InitializationError.
type InitAction struct {
	BaseAction
}

// FinishAction is the sentinel action that begins store shutdown. A reducer
// that receives it behaves like any other action; the dispatch loop itself
// reacts by enqueuing FinishEvent once the action has been processed.
type FinishAction struct {
	BaseAction
}

// FinishEvent is the sentinel event that drives the shutdown procedure: once
// delivered, the store waits for both queues and the side-effect queue to
// drain, then joins its worker pool.
type FinishEvent struct {
	BaseEvent
}
