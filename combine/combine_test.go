package combine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corestore/corestore"
	"github.com/corestore/corestore/combine"
)

type childState struct{ Count int }

type setValue struct {
	corestore.BaseAction
	Value int
}

func childReducer(state any, action corestore.Action) (any, error) {
	switch a := action.(type) {
	case combine.InitAction, corestore.InitAction:
		return childState{}, nil
	case combine.RegisterAction:
		if a.Payload != nil {
			return childState{Count: a.Payload.(int)}, nil
		}
		return childState{}, nil
	case setValue:
		return childState{Count: a.Value}, nil
	default:
		return state, nil
	}
}

func TestCombineReducerInitializesAllChildren(t *testing.T) {
	reducer, id := combine.New(map[string]corestore.Reducer{
		"a": childReducer,
		"b": childReducer,
	})
	require.NotEmpty(t, id)

	store, err := corestore.NewStore(reducer)
	require.NoError(t, err)

	state, err := store.State()
	require.NoError(t, err)
	combined := state.(combine.State)

	assert.Equal(t, id, combined.ID)
	assert.ElementsMatch(t, []string{"a", "b"}, combined.Keys())

	a, ok := combined.Get("a")
	require.True(t, ok)
	assert.Equal(t, childState{}, a)
}

func TestCombineReducerActionsFanOutToEveryChild(t *testing.T) {
	reducer, _ := combine.New(map[string]corestore.Reducer{
		"a": childReducer,
		"b": childReducer,
	})
	store, err := corestore.NewStore(reducer)
	require.NoError(t, err)

	require.NoError(t, store.Dispatch(setValue{Value: 7}))

	state, err := store.State()
	require.NoError(t, err)
	combined := state.(combine.State)

	a, _ := combined.Get("a")
	b, _ := combined.Get("b")
	assert.Equal(t, childState{Count: 7}, a)
	assert.Equal(t, childState{Count: 7}, b)
}

func TestRegisterActionInitializesNewChildWithPayload(t *testing.T) {
	reducer, id := combine.New(map[string]corestore.Reducer{
		"a": childReducer,
	})
	store, err := corestore.NewStore(reducer)
	require.NoError(t, err)

	require.NoError(t, store.Dispatch(combine.RegisterAction{
		Name:    "c",
		Reducer: childReducer,
		Payload: 42,
	}))

	state, err := store.State()
	require.NoError(t, err)
	combined := state.(combine.State)

	assert.ElementsMatch(t, []string{"a", "c"}, combined.Keys())
	c, ok := combined.Get("c")
	require.True(t, ok)
	assert.Equal(t, childState{Count: 42}, c)
	assert.Equal(t, id, combined.ID)
}

func TestRegisteringAnAlreadyRegisteredChildFails(t *testing.T) {
	reducer, _ := combine.New(map[string]corestore.Reducer{
		"a": childReducer,
	})
	store, err := corestore.NewStore(reducer)
	require.NoError(t, err)

	err = store.Dispatch(combine.RegisterAction{Name: "a", Reducer: childReducer})
	require.ErrorIs(t, err, corestore.ErrChildAlreadyRegistered)
}

func TestUnregisterRevertsFieldSetAndPreservesOtherSlices(t *testing.T) {
	reducer, _ := combine.New(map[string]corestore.Reducer{
		"a": childReducer,
		"b": childReducer,
	})
	store, err := corestore.NewStore(reducer)
	require.NoError(t, err)
	require.NoError(t, store.Dispatch(setValue{Value: 9}))

	require.NoError(t, store.Dispatch(combine.RegisterAction{Name: "c", Reducer: childReducer, Payload: 1}))
	require.NoError(t, store.Dispatch(combine.UnregisterAction{Name: "c"}))

	state, err := store.State()
	require.NoError(t, err)
	combined := state.(combine.State)

	assert.ElementsMatch(t, []string{"a", "b"}, combined.Keys())
	a, _ := combined.Get("a")
	b, _ := combined.Get("b")
	assert.Equal(t, childState{Count: 9}, a)
	assert.Equal(t, childState{Count: 9}, b)
}

func TestUnregisteringAnUnknownChildFails(t *testing.T) {
	reducer, _ := combine.New(map[string]corestore.Reducer{
		"a": childReducer,
	})
	store, err := corestore.NewStore(reducer)
	require.NoError(t, err)

	err = store.Dispatch(combine.UnregisterAction{Name: "missing"})
	require.ErrorIs(t, err, corestore.ErrChildNotRegistered)
}
