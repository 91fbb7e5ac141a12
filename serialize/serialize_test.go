package serialize_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corestore/corestore/serialize"
)

type Address struct {
	City string
	Zip  string
}

type Person struct {
	Name      string
	Age       int
	Addresses []Address
	Tags      map[string]string
}

func TestSnapshotOfRecordHasTypeFirstThenFieldsInOrder(t *testing.T) {
	p := Person{Name: "Ada", Age: 36, Addresses: []Address{{City: "London", Zip: "SW1"}}}

	snap, err := serialize.Snapshot(p)
	require.NoError(t, err)

	m, ok := snap.(*serialize.Map)
	require.True(t, ok)

	keys := m.Keys()
	require.Equal(t, []string{"_type", "Name", "Age", "Addresses", "Tags"}, keys)

	typ, _ := m.Get("_type")
	assert.Equal(t, "Person", typ)

	addresses, _ := m.Get("Addresses")
	list, ok := addresses.([]any)
	require.True(t, ok)
	require.Len(t, list, 1)

	addr, ok := list[0].(*serialize.Map)
	require.True(t, ok)
	city, _ := addr.Get("City")
	assert.Equal(t, "London", city)
}

func TestSnapshotInvokesCallableFields(t *testing.T) {
	type Lazy struct {
		Compute func() int
	}
	l := Lazy{Compute: func() int { return 42 }}

	snap, err := serialize.Snapshot(l)
	require.NoError(t, err)

	m := snap.(*serialize.Map)
	v, _ := m.Get("Compute")
	assert.Equal(t, 42, v)
}

func TestSnapshotRejectsUnsupportedCallableShapes(t *testing.T) {
	type Bad struct {
		Fn func(int) int
	}
	_, err := serialize.Snapshot(Bad{Fn: func(i int) int { return i }})
	require.Error(t, err)
}

func TestSnapshotOfNilIsNil(t *testing.T) {
	snap, err := serialize.Snapshot(nil)
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestSnapshotOfChannelIsUnsupported(t *testing.T) {
	_, err := serialize.Snapshot(make(chan int))
	require.Error(t, err)
}
