// Package serialize implements the snapshot visitor: it walks a record
// value (state, action, or event) and produces a JSON-atom tree — numbers,
// strings, bools, nil, ordered maps, and lists — suitable for diffing,
// logging, or handing to an encoding/json.Marshaler. Records are visited
// by reflection so the core never depends on a specific record library,
// per spec.md's "treated as a pluggable visitor over frozen record values"
// framing.
package serialize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/corestore/corestore"
)

// Map is an insertion-ordered string-keyed map. Snapshot always emits one
// of these for a record, with "_type" as its first entry, so the type tag
// survives JSON encoding (encoding/json's map[string]any would not
// preserve key order).
type Map struct {
	keys   []string
	values map[string]any
}

// NewMap constructs an empty ordered Map.
func NewMap() *Map {
	return &Map{values: map[string]any{}}
}

// Set appends key/value, or overwrites value in place if key is already
// present (preserving its original position).
func (m *Map) Set(key string, value any) *Map {
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
	return m
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Get returns the value stored under key.
func (m *Map) Get(key string) (any, bool) {
	v, ok := m.values[key]
	return v, ok
}

// MarshalJSON emits the map's entries in insertion order, unlike a plain
// Go map whose key order encoding/json does not guarantee.
func (m *Map) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Snapshot visits value and produces its JSON-atom representation.
// Supported inputs: nil; bool, string, and any numeric kind; records
// (structs, visited field-by-field via corestore.Fields, with the record's
// TypeName written first under the key "_type"); slices and arrays
// (visited element-by-element into a list); maps with string keys; and
// zero-argument functions, whose return value is visited in their place
// (for computed/lazy snapshot fields). Anything else returns
// ErrSnapshotUnsupportedType.
func Snapshot(value any) (any, error) {
	if value == nil {
		return nil, nil
	}

	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return value, nil

	case reflect.Ptr:
		if v.IsNil() {
			return nil, nil
		}
		return Snapshot(v.Elem().Interface())

	case reflect.Func:
		if v.Type().NumIn() != 0 || v.Type().NumOut() != 1 {
			return nil, fmt.Errorf("%w: callable snapshot field must take no arguments and return one value", corestore.ErrSnapshotUnsupportedType)
		}
		results := v.Call(nil)
		return Snapshot(results[0].Interface())

	case reflect.Slice, reflect.Array:
		list := make([]any, v.Len())
		for i := 0; i < v.Len(); i++ {
			elem, err := Snapshot(v.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			list[i] = elem
		}
		return list, nil

	case reflect.Map:
		out := NewMap()
		for _, key := range v.MapKeys() {
			if key.Kind() != reflect.String {
				return nil, fmt.Errorf("%w: map snapshot keys must be strings", corestore.ErrSnapshotUnsupportedType)
			}
			elem, err := Snapshot(v.MapIndex(key).Interface())
			if err != nil {
				return nil, err
			}
			out.Set(key.String(), elem)
		}
		return out, nil

	case reflect.Struct:
		out := NewMap()
		out.Set("_type", corestore.TypeName(value))
		for _, fv := range corestore.Fields(value) {
			elem, err := Snapshot(fv.Value)
			if err != nil {
				return nil, err
			}
			out.Set(fv.Name, elem)
		}
		return out, nil
	}

	return nil, fmt.Errorf("%w: %s", corestore.ErrSnapshotUnsupportedType, v.Kind())
}

// Store is the narrow slice of *corestore.Store that StoreSnapshot needs,
// so the convenience wrapper below accepts any value with a State method,
// not only a *corestore.Store.
type Store interface {
	State() (any, error)
}

// StoreSnapshot is Snapshot applied to store's current state, surfacing
// ErrNotInitialized as-is rather than wrapping it.
func StoreSnapshot(store Store) (any, error) {
	state, err := store.State()
	if err != nil {
		return nil, err
	}
	return Snapshot(state)
}
