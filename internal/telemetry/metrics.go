// Package telemetry exposes client metrics and a localhost debug server.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics with bounded cardinality. Label values come from fixed sets only.
type Metrics struct {
	reconcileDuration prometheus.Histogram
	snapshots         *prometheus.CounterVec // result: applied, skipped, malformed, ignored
	handles           *prometheus.GaugeVec   // state: active, fading
	gameOver          prometheus.Counter
	wsMessages        *prometheus.CounterVec // type: text, pregame, snapshot, error
	wsReconnects      prometheus.Counter
	renderDuration    prometheus.Histogram
}

// NewMetrics registers the client metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		reconcileDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "arena_reconcile_duration_seconds",
			Help:    "Time spent applying one snapshot",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05},
		}),
		snapshots: f.NewCounterVec(prometheus.CounterOpts{
			Name: "arena_snapshots_total",
			Help: "Snapshots processed by outcome",
		}, []string{"result"}),
		handles: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "arena_handles",
			Help: "Display handles by state",
		}, []string{"state"}),
		gameOver: f.NewCounter(prometheus.CounterOpts{
			Name: "arena_game_over_total",
			Help: "Sessions ended by local despawn",
		}),
		wsMessages: f.NewCounterVec(prometheus.CounterOpts{
			Name: "arena_ws_messages_total",
			Help: "Inbound websocket frames by decoded type",
		}, []string{"type"}),
		wsReconnects: f.NewCounter(prometheus.CounterOpts{
			Name: "arena_ws_reconnects_total",
			Help: "Websocket reconnect attempts",
		}),
		renderDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "arena_frame_render_duration_seconds",
			Help:    "Time spent rendering a frame",
			Buckets: []float64{0.001, 0.005, 0.01, 0.016, 0.033, 0.05, 0.1},
		}),
	}
}

// Reconciled records one snapshot outcome.
func (m *Metrics) Reconciled(result string, elapsed time.Duration) {
	m.snapshots.WithLabelValues(result).Inc()
	m.reconcileDuration.Observe(elapsed.Seconds())
}

// Handles updates the handle gauges.
func (m *Metrics) Handles(active, fading int) {
	m.handles.WithLabelValues("active").Set(float64(active))
	m.handles.WithLabelValues("fading").Set(float64(fading))
}

// GameOver counts a finished session.
func (m *Metrics) GameOver() {
	m.gameOver.Inc()
}

// Frame counts an inbound websocket frame.
func (m *Metrics) Frame(kind string) {
	m.wsMessages.WithLabelValues(kind).Inc()
}

// Reconnect counts a reconnect attempt.
func (m *Metrics) Reconnect() {
	m.wsReconnects.Inc()
}

// RecordRender records render timing.
func (m *Metrics) RecordRender(d time.Duration) {
	m.renderDuration.Observe(d.Seconds())
}
