package httpdebug_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corestore/corestore"
	"github.com/corestore/corestore/httpdebug"
)

type widgetState struct {
	Name string
}

func widgetReducer(state any, action corestore.Action) (any, error) {
	if _, ok := action.(corestore.InitAction); ok {
		return widgetState{Name: "gizmo"}, nil
	}
	return state, nil
}

func TestSnapshotServesStoreStateAsJSON(t *testing.T) {
	store, err := corestore.NewStore(widgetReducer)
	require.NoError(t, err)

	srv := httpdebug.New(store)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/snapshot", nil)
	srv.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "gizmo", body["Name"])
	assert.Equal(t, "widgetState", body["_type"])
}

func TestSnapshotReturnsServiceUnavailableWhenUninitialized(t *testing.T) {
	store, err := corestore.NewStore(widgetReducer, corestore.WithAutoInit(false))
	require.NoError(t, err)

	srv := httpdebug.New(store)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/snapshot", nil)
	srv.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestObserversReportsListenerAndHandlerCounts(t *testing.T) {
	store, err := corestore.NewStore(widgetReducer)
	require.NoError(t, err)
	store.Subscribe(func(any) {})
	store.SubscribeEvent(corestore.FinishEvent{}, func(*corestore.Store, corestore.Event) {})

	srv := httpdebug.New(store)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/observers", nil)
	srv.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Listeners int  `json:"listeners"`
		Handlers  int  `json:"handlers"`
		Finished  bool `json:"finished"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Listeners)
	assert.Equal(t, 1, body.Handlers)
	assert.False(t, body.Finished)
}
