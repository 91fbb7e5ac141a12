package autorun_test

import (
	"context"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corestore/corestore"
	"github.com/corestore/corestore/autorun"
)

type counterState struct{ Value int }

type increment struct{ corestore.BaseAction }

func counterReducer(state any, action corestore.Action) (any, error) {
	switch action.(type) {
	case corestore.InitAction:
		return counterState{}, nil
	case increment:
		s := state.(counterState)
		return counterState{Value: s.Value + 1}, nil
	default:
		return state, nil
	}
}

func TestAutorunRecomputesOnlyWhenComparatorDiffers(t *testing.T) {
	store, err := corestore.NewStore(counterReducer)
	require.NoError(t, err)

	calls := 0
	identity := func(v int) int { return v }
	a := autorun.New(store, func(s counterState) int { return s.Value }, identity,
		autorun.WithComparator[counterState, int, int](func(s counterState) any { return s.Value / 2 }),
	)
	a.Subscribe(func(int) { calls++ })

	require.NoError(t, store.Dispatch(increment{})) // 0 -> 1, 0/2==0, 1/2==0: no change
	require.NoError(t, store.Dispatch(increment{})) // 1 -> 2, 1/2==0, 2/2==1: changes
	require.NoError(t, store.Dispatch(increment{})) // 2 -> 3, 2/2==1, 3/2==1: no change

	assert.Equal(t, 1, calls)
	assert.Equal(t, 2, a.Value(), "the body last actually ran when the comparator differed at value 2; value 3 never triggered a recompute")
}

func TestAutorunCallWithMemoizationDisabledAlwaysInvokes(t *testing.T) {
	store, err := corestore.NewStore(counterReducer, corestore.WithAutoInit(false))
	require.NoError(t, err)
	require.NoError(t, store.Dispatch(corestore.InitAction{}))

	calls := 0
	a := autorun.New(store, func(s counterState) int { return s.Value }, func(v int) int { calls++; return v },
		autorun.WithReactive[counterState, int, int](false),
		autorun.WithMemoization[counterState, int, int](false),
	)

	assert.Equal(t, 0, a.Call())
	assert.Equal(t, 0, a.Call())
	assert.Equal(t, 3, calls, "the initial call plus one invocation per Call, even with unchanged state")
}

func TestAutorunSubscribersInitialRun(t *testing.T) {
	store, err := corestore.NewStore(counterReducer)
	require.NoError(t, err)
	require.NoError(t, store.Dispatch(increment{}))

	identity := func(v int) int { return v }
	a := autorun.New(store, func(s counterState) int { return s.Value }, identity)

	var got int
	a.Subscribe(func(v int) { got = v })
	assert.Equal(t, 0, got, "without WithSubscribersInitialRun a fresh subscriber is not called immediately")

	a2 := autorun.New(store, func(s counterState) int { return s.Value }, identity,
		autorun.WithSubscribersInitialRun[counterState, int, int](true))
	var got2 int
	a2.Subscribe(func(v int) { got2 = v })
	assert.Equal(t, 1, got2)
}

func TestNewAsyncRequiresAnExplicitAutoAwaitMode(t *testing.T) {
	store, err := corestore.NewStore(counterReducer)
	require.NoError(t, err)

	_, err = autorun.NewAsync[counterState, int, int](store, func(s counterState) (int, bool) {
		return s.Value, true
	}, func(v int) int { return v }, autorun.AutoAwaitUnset)
	assert.ErrorIs(t, err, corestore.ErrAutorunAutoAwaitRequired)
}

func TestAsyncAutorunAutoAwaitFalsePolls(t *testing.T) {
	var readyClosed atomic.Bool

	store, serr := corestore.NewStore(counterReducer)
	require.NoError(t, serr)

	async, err := autorun.NewAsync[counterState, int, int](store, func(s counterState) (int, bool) {
		if readyClosed.Load() {
			return s.Value, true
		}
		return 0, false
	}, func(v int) int { return v }, autorun.AutoAwaitFalse,
		autorun.WithReactive[counterState, int, int](false), autorun.WithInitialCall[counterState, int, int](false))
	require.NoError(t, err)

	pending := async.CallAsync(context.Background())
	assert.IsType(t, autorun.Pending{}, pending)

	readyClosed.Store(true)

	result := async.CallAsync(context.Background())
	require.IsType(t, autorun.AwaitableResult[int]{}, result)
	assert.True(t, result.(autorun.AwaitableResult[int]).Ready)
}

func TestAutorunStopUnsubscribesFromStore(t *testing.T) {
	store, err := corestore.NewStore(counterReducer)
	require.NoError(t, err)

	calls := 0
	a := autorun.New(store, func(s counterState) int { return s.Value }, func(v int) int { return v })
	a.Subscribe(func(int) { calls++ })

	require.NoError(t, store.Dispatch(increment{}))
	a.Stop()
	require.NoError(t, store.Dispatch(increment{}))

	assert.Equal(t, 1, calls)
}

func TestAutorunWeakSubscriberIsDroppedAfterCollection(t *testing.T) {
	store, err := corestore.NewStore(counterReducer)
	require.NoError(t, err)

	a := autorun.New(store, func(s counterState) int { return s.Value }, func(v int) int { return v })

	type owner struct{}
	var calls int32
	func() {
		o := &owner{}
		a.Subscribe(func(int) { atomic.AddInt32(&calls, 1) }, autorun.WithWeakSubscriber(o))
	}()

	runtime.GC()
	runtime.GC()

	require.NoError(t, store.Dispatch(increment{}))
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestViewStyleNonReactiveAutorunRecomputesOnNextCallOnly(t *testing.T) {
	store, err := corestore.NewStore(counterReducer)
	require.NoError(t, err)

	a := autorun.New(store, func(s counterState) int { return s.Value }, func(v int) int { return v },
		autorun.WithReactive[counterState, int, int](false),
		autorun.WithInitialCall[counterState, int, int](false),
	)

	require.NoError(t, store.Dispatch(increment{}))
	assert.Equal(t, 0, a.Value(), "non-reactive autorun does not recompute until explicitly called")
	assert.Equal(t, 1, a.Call())

	time.Sleep(time.Millisecond) // let any stray goroutine settle before test exit
}
