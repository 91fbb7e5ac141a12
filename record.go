// Package corestore provides a reactive, deterministic state-management
// engine in the Redux tradition: a single-threaded dispatch loop over pure
// reducers, cascading reducer-emitted actions and events, with reactive
// memoized views ("autoruns") and a worker pool for event side-effects.
//
// Basic usage:
//
//	store, err := corestore.NewStore(reducer, corestore.WithAutoInit(true))
//	unsubscribe := store.Subscribe(func(state any) { ... })
//	store.Dispatch(Increment{})
package corestore

import "reflect"

// Action describes an intent to change state. Concrete action types are
// user-defined structs; dispatch discriminates between them by their
// runtime type, not by a tag field.
type Action interface {
	isAction()
}

// Event describes a fact produced by a reducer, delivered asynchronously to
// side-effect handlers after the reducer that produced it has run.
type Event interface {
	isEvent()
}

// BaseAction is embedded by user-defined action types to satisfy Action.
//
//	type Increment struct{ corestore.BaseAction }
type BaseAction struct{}

func (BaseAction) isAction() {}

// BaseEvent is embedded by user-defined event types to satisfy Event.
type BaseEvent struct{}

func (BaseEvent) isEvent() {}

// Equal reports whether two records are structurally equal. State, Action,
// and Event values are compared this way throughout the store; it is the
// only notion of equality the core requires from the record types it is
// handed, matching spec.md's "structural equality, field enumeration,
// keyword-only construction" contract for the immutable-record library the
// core consumes but does not implement.
func Equal(a, b any) bool {
	return reflect.DeepEqual(a, b)
}

// Fields enumerates the exported field names and values of a record in
// declaration order. Used by the serialization visitor and by tests that
// want to assert on a record's shape without depending on its concrete
// type.
func Fields(record any) []FieldValue {
	v := reflect.ValueOf(record)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}

	t := v.Type()
	fields := make([]FieldValue, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		fields = append(fields, FieldValue{Name: sf.Name, Value: v.Field(i).Interface()})
	}
	return fields
}

// FieldValue is one named field of a record, as produced by Fields.
type FieldValue struct {
	Name  string
	Value any
}

// TypeName returns the local (unqualified) type name of a record, used as
// the record's type-identity string by the serialization visitor.
func TypeName(record any) string {
	t := reflect.TypeOf(record)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil {
		return "nil"
	}
	return t.Name()
}
