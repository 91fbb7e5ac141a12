// Package combine builds a single Reducer out of a dynamic, runtime
// mutable collection of child reducers, keyed by name. Unlike a
// hand-written Go struct with one field per child, the combined state is
// an ordered map plus a stable identity: children can be registered and
// unregistered while the store is running, which a fixed struct shape
// cannot express.
package combine

import (
	"github.com/google/uuid"

	"github.com/corestore/corestore"
)

// State is the combined state produced by a Reducer built with New. It
// behaves like an ordered record: Keys returns child names (see Keys for
// their order), and Get/set access a child's state by name.
type State struct {
	// ID stably identifies this combine.State instance across
	// reductions, independent of which children are currently
	// registered. It is generated once, at New, and carried forward on
	// every copy the reducer produces.
	ID string

	keys   []string
	values map[string]any
}

func newState(id string) State {
	return State{ID: id, values: map[string]any{}}
}

// Keys returns the registered child names. Children passed to New come
// first, in no defined relative order (New receives them as a map);
// children added by RegisterAction follow in the order they were added.
func (s State) Keys() []string {
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// Get returns the state of the named child and whether it is registered.
func (s State) Get(name string) (any, bool) {
	v, ok := s.values[name]
	return v, ok
}

func (s State) with(name string, value any) State {
	next := State{ID: s.ID, values: make(map[string]any, len(s.values)+1)}
	for k, v := range s.values {
		next.values[k] = v
	}
	if _, exists := next.values[name]; !exists {
		next.keys = append(append([]string{}, s.keys...), name)
	} else {
		next.keys = append([]string{}, s.keys...)
	}
	next.values[name] = value
	return next
}

func (s State) without(name string) State {
	next := State{ID: s.ID, values: make(map[string]any, len(s.values))}
	for k, v := range s.values {
		if k == name {
			continue
		}
		next.values[k] = v
	}
	for _, k := range s.keys {
		if k == name {
			continue
		}
		next.keys = append(next.keys, k)
	}
	return next
}

// RegisterAction adds a new named child reducer to a running combine
// reducer. The new child's first call receives a nil state and this
// RegisterAction itself, so Payload reaches it unchanged and a child that
// wants configuration at registration time can carry it here instead of
// relying on a later action.
type RegisterAction struct {
	corestore.BaseAction
	Name    string
	Reducer corestore.Reducer
	Payload any
}

// UnregisterAction removes a named child reducer. The removal action is
// delivered to the child (so it can run teardown logic) before the child
// is dropped from State.
type UnregisterAction struct {
	corestore.BaseAction
	Name string
}

// InitAction is delivered to each child reducer, in place of the
// combinator's own InitAction, so a child can tell its own first call
// apart from a sibling's and learn which combinator and key it belongs
// to. A child registered after construction (via RegisterAction) instead
// receives the RegisterAction itself as its first call, carrying Payload.
type InitAction struct {
	corestore.BaseAction
	ID  string
	Key string
}

// New builds a Reducer over a dynamic set of named children. initial
// seeds the starting child set; children may be added or removed later
// via RegisterAction and UnregisterAction dispatched against the
// combined store.
func New(initial map[string]corestore.Reducer) (corestore.Reducer, string) {
	id := uuid.NewString()
	children := make(map[string]corestore.Reducer, len(initial))
	for k, v := range initial {
		children[k] = v
	}
	order := make([]string, 0, len(initial))
	for k := range initial {
		order = append(order, k)
	}

	reducer := func(state any, action corestore.Action) (any, error) {
		var current State
		if state == nil {
			current = newState(id)
		} else {
			current = state.(State)
		}

		switch a := action.(type) {
		case RegisterAction:
			if _, exists := children[a.Name]; exists {
				return nil, corestore.ErrChildAlreadyRegistered
			}
			children[a.Name] = a.Reducer
			order = append(order, a.Name)
			childState, err := a.Reducer(nil, a)
			if err != nil {
				return nil, err
			}
			return corestore.ResultWith(current.with(a.Name, unwrap(childState)), nil, nil), nil

		case UnregisterAction:
			child, ok := children[a.Name]
			if !ok {
				return nil, corestore.ErrChildNotRegistered
			}
			if childState, existed := current.Get(a.Name); existed {
				if _, err := child(childState, a); err != nil {
					return nil, err
				}
			}
			delete(children, a.Name)
			for i, name := range order {
				if name == a.Name {
					order = append(order[:i], order[i+1:]...)
					break
				}
			}
			return corestore.ResultWith(current.without(a.Name), nil, nil), nil
		}

		next := current
		var cascadedActions []corestore.Action
		var cascadedEvents []corestore.Event
		for _, name := range order {
			child, ok := children[name]
			if !ok {
				continue
			}
			childState, existed := current.Get(name)
			childAction := action
			if !existed {
				if _, isInit := action.(corestore.InitAction); isInit {
					childAction = InitAction{ID: id, Key: name}
				}
			}
			result, err := child(childState, childAction)
			if err != nil {
				return nil, err
			}
			if complete, ok := result.(corestore.CompleteReducerResult); ok {
				next = next.with(name, complete.State)
				cascadedActions = append(cascadedActions, complete.Actions...)
				cascadedEvents = append(cascadedEvents, complete.Events...)
			} else {
				next = next.with(name, result)
			}
		}

		return corestore.ResultWith(next, cascadedActions, cascadedEvents), nil
	}

	return reducer, id
}

func unwrap(result any) any {
	if complete, ok := result.(corestore.CompleteReducerResult); ok {
		return complete.State
	}
	return result
}
