package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hausmon/coinbase-sensor/internal/hub"
)

type stubStore struct {
	states  []hub.EntityState
	records []hub.EntityStateRecord
}

func (s *stubStore) States() []hub.EntityState { return s.states }

func (s *stubStore) StatesAfter(index uint64) []hub.EntityStateRecord {
	var out []hub.EntityStateRecord
	for _, record := range s.records {
		if record.Index > index {
			out = append(out, record)
		}
	}
	return out
}

func TestHandleStates(t *testing.T) {
	store := &stubStore{states: []hub.EntityState{
		{ID: "a", Name: "Coinbase BTC Wallet", State: "0.0041", Unit: "BTC"},
		{ID: "b", Name: "Coinbase EUR Wallet", State: "120.5", Unit: "EUR"},
	}}
	server := NewServer(":0", store, nil)

	recorder := httptest.NewRecorder()
	server.mux().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/states", nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "application/json", recorder.Header().Get("Content-Type"))

	var got []hub.EntityState
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "Coinbase BTC Wallet", got[0].Name)
	assert.Equal(t, "0.0041", got[0].State)
	assert.Equal(t, "EUR", got[1].Unit)
}

func TestHandleStatesWithoutStore(t *testing.T) {
	server := NewServer(":0", nil, nil)

	recorder := httptest.NewRecorder()
	server.mux().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/states", nil))

	assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)
}

func TestStateStreamSendsBacklog(t *testing.T) {
	store := &stubStore{records: []hub.EntityStateRecord{
		{Index: 1, State: hub.EntityState{ID: "a", Name: "Coinbase BTC Wallet", State: "0.0041"}},
		{Index: 2, State: hub.EntityState{ID: "b", Name: "Coinbase EUR Wallet", State: "120.5"}},
	}}
	server := NewServer(":0", store, nil)

	// cancelled context makes the handler return right after the backlog
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/states/stream", nil).WithContext(ctx)

	recorder := httptest.NewRecorder()
	server.handleStateStream(recorder, req)

	assert.Equal(t, "text/event-stream", recorder.Header().Get("Content-Type"))

	body := recorder.Body.String()
	assert.Contains(t, body, "id: 1\n")
	assert.Contains(t, body, "id: 2\n")
	assert.Contains(t, body, "event: state\n")
	assert.Contains(t, body, "Coinbase EUR Wallet")
}

func TestStateStreamResumesAfterLastEventID(t *testing.T) {
	store := &stubStore{records: []hub.EntityStateRecord{
		{Index: 1, State: hub.EntityState{ID: "a", Name: "Coinbase BTC Wallet", State: "0.0041"}},
		{Index: 2, State: hub.EntityState{ID: "b", Name: "Coinbase EUR Wallet", State: "120.5"}},
	}}
	server := NewServer(":0", store, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/states/stream", nil).WithContext(ctx)
	req.Header.Set("Last-Event-ID", "1")

	recorder := httptest.NewRecorder()
	server.handleStateStream(recorder, req)

	body := recorder.Body.String()
	assert.NotContains(t, body, "id: 1\n")
	assert.Contains(t, body, "id: 2\n")
}

func TestParseLastEventID(t *testing.T) {
	testCases := []struct {
		name     string
		header   string
		query    string
		expected uint64
	}{
		{name: "empty", expected: 0},
		{name: "header preferred over query", header: "7", query: "3", expected: 7},
		{name: "query fallback", query: "3", expected: 3},
		{name: "invalid value ignored", header: "abc", expected: 0},
		{name: "whitespace trimmed", header: " 12 ", expected: 12},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, parseLastEventID(tc.header, tc.query))
		})
	}
}

func TestMuxRoutes(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("metrics ok"))
	})
	server := NewServer(":0", &stubStore{}, metrics)
	mux := server.mux()

	recorder := httptest.NewRecorder()
	mux.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "ok", recorder.Body.String())

	recorder = httptest.NewRecorder()
	mux.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "metrics ok", recorder.Body.String())
}
