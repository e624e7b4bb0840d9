package telemetry

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"arena-client/internal/config"
	"arena-client/internal/netclient"
	"arena-client/internal/session"
)

type fakeSession struct{ stats session.Stats }

func (f fakeSession) Stats() session.Stats { return f.stats }

type fakeNet struct{ stats netclient.Stats }

func (f fakeNet) Stats() netclient.Stats { return f.stats }

var (
	_ session.Observer   = (*Metrics)(nil)
	_ netclient.Observer = (*Metrics)(nil)
)

func get(t *testing.T, ts *httptest.Server, path string) (int, string) {
	t.Helper()
	resp, err := http.Get(ts.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.Reconciled(session.ResultApplied, 2*time.Millisecond)
	m.Reconciled(session.ResultMalformed, time.Millisecond)
	m.Handles(3, 1)
	m.GameOver()
	m.Frame("snapshot")
	m.Reconnect()
	m.RecordRender(5 * time.Millisecond)

	ts := httptest.NewServer(NewRouter(RouterConfig{Gatherer: reg}))
	defer ts.Close()

	code, body := get(t, ts, "/metrics")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `arena_snapshots_total{result="applied"} 1`)
	assert.Contains(t, body, `arena_snapshots_total{result="malformed"} 1`)
	assert.Contains(t, body, `arena_handles{state="active"} 3`)
	assert.Contains(t, body, `arena_handles{state="fading"} 1`)
	assert.Contains(t, body, "arena_game_over_total 1")
	assert.Contains(t, body, `arena_ws_messages_total{type="snapshot"} 1`)
	assert.Contains(t, body, "arena_ws_reconnects_total 1")
	assert.Contains(t, body, "arena_frame_render_duration_seconds_count 1")
	assert.Contains(t, body, "arena_reconcile_duration_seconds_count 2")
}

func TestHealthAndSession(t *testing.T) {
	ts := httptest.NewServer(NewRouter(RouterConfig{
		Gatherer: prometheus.NewRegistry(),
		Session:  fakeSession{session.Stats{LocalID: "me", Active: 4}},
		Net:      fakeNet{netclient.Stats{Connected: true, Received: 9}},
		RunID:    "run-1",
	}))
	defer ts.Close()

	code, body := get(t, ts, "/health")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "OK", body)

	code, body = get(t, ts, "/debug/session")
	require.Equal(t, http.StatusOK, code)

	var snap Snapshot
	require.NoError(t, json.Unmarshal([]byte(body), &snap))
	assert.Equal(t, "run-1", snap.RunID)
	require.NotNil(t, snap.Session)
	assert.Equal(t, "me", snap.Session.LocalID)
	assert.Equal(t, 4, snap.Session.Active)
	require.NotNil(t, snap.Net)
	assert.True(t, snap.Net.Connected)
	assert.EqualValues(t, 9, snap.Net.Received)
}

func TestRequestsLogThroughZap(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	ts := httptest.NewServer(NewRouter(RouterConfig{
		Gatherer: prometheus.NewRegistry(),
		Logger:   zap.New(core),
	}))
	defer ts.Close()

	code, _ := get(t, ts, "/health")
	require.Equal(t, http.StatusOK, code)
	code, _ = get(t, ts, "/missing")
	require.Equal(t, http.StatusNotFound, code)

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 2)
	assert.Equal(t, "debug", entries[0].LoggerName)

	first := entries[0].ContextMap()
	assert.Equal(t, "GET", first["method"])
	assert.Equal(t, "/health", first["path"])
	assert.EqualValues(t, http.StatusOK, first["status"])
	assert.EqualValues(t, 2, first["bytes"])
	assert.EqualValues(t, http.StatusNotFound, entries[1].ContextMap()["status"])
}

func TestPprofIndex(t *testing.T) {
	ts := httptest.NewServer(NewRouter(RouterConfig{Gatherer: prometheus.NewRegistry()}))
	defer ts.Close()

	code, _ := get(t, ts, "/debug/pprof/")
	assert.Equal(t, http.StatusOK, code)
}

func TestLoopbackOnly(t *testing.T) {
	assert.Equal(t, "127.0.0.1:6060", LoopbackOnly("127.0.0.1:6060"))
	assert.Equal(t, "localhost:7000", LoopbackOnly("localhost:7000"))
	assert.Equal(t, "[::1]:7000", LoopbackOnly("[::1]:7000"))
	assert.Equal(t, "127.0.0.1:7000", LoopbackOnly("0.0.0.0:7000"))
	assert.Equal(t, "127.0.0.1:7000", LoopbackOnly(":7000"))
	assert.Equal(t, "127.0.0.1:6060", LoopbackOnly("garbage"))
}

func TestServerDisabled(t *testing.T) {
	srv := NewServer(config.DebugConfig{Enabled: false}, http.NotFoundHandler(), nil)
	assert.NoError(t, srv.Run(context.Background()))
}

func TestServerStopsOnCancel(t *testing.T) {
	srv := NewServer(config.DebugConfig{Enabled: true, Addr: "127.0.0.1:0"}, http.NotFoundHandler(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServerListenFailureIsNotFatal(t *testing.T) {
	srv := NewServer(config.DebugConfig{Enabled: true, Addr: "127.0.0.1:99999"}, http.NotFoundHandler(), nil)
	assert.NoError(t, srv.Run(context.Background()))
}
