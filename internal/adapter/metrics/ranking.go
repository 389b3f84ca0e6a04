package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for processed events.
const (
	OutcomeApplied = "applied"
	OutcomeNoOp    = "noop"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// RankingMetrics holds the collectors of the event → ledger → rank pipeline.
type RankingMetrics struct {
	EventsTotal       *prometheus.CounterVec
	EventsSkipped     *prometheus.CounterVec
	ConflictRetries   *prometheus.CounterVec
	RecomputeDuration *prometheus.HistogramVec
	RanksChanged      *prometheus.CounterVec
	WindowResets      *prometheus.CounterVec
}

// NewRankingMetrics creates and registers ranking metrics on the given registry.
func NewRankingMetrics(reg prometheus.Registerer) *RankingMetrics {
	m := &RankingMetrics{
		EventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Engagement events handled, by kind and outcome.",
		}, []string{"kind", "outcome"}),
		EventsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_skipped_total",
			Help:      "Engagement events skipped without mutation, by kind and reason.",
		}, []string{"kind", "reason"}),
		ConflictRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conflict_retries_total",
			Help:      "Pipeline transactions retried after a storage conflict, by field.",
		}, []string{"field"}),
		RecomputeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recompute_duration_seconds",
			Help:      "Duration of a field rank recompute in seconds.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"field"}),
		RanksChanged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ranks_changed_total",
			Help:      "Ledger rank writes produced by recomputes, by field.",
		}, []string{"field"}),
		WindowResets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "window_resets_total",
			Help:      "Windowed score resets, by window.",
		}, []string{"window"}),
	}

	reg.MustRegister(m.EventsTotal, m.EventsSkipped, m.ConflictRetries, m.RecomputeDuration, m.RanksChanged, m.WindowResets)
	return m
}

// ObserveRecompute records one recompute of field.
func (m *RankingMetrics) ObserveRecompute(field string, changed int, took time.Duration) {
	if m == nil {
		return
	}
	m.RecomputeDuration.WithLabelValues(field).Observe(took.Seconds())
	m.RanksChanged.WithLabelValues(field).Add(float64(changed))
}

// ObserveRetry records a conflict retry on field.
func (m *RankingMetrics) ObserveRetry(field string) {
	if m == nil {
		return
	}
	m.ConflictRetries.WithLabelValues(field).Inc()
}

// ObserveWindowResets records n resets of window.
func (m *RankingMetrics) ObserveWindowResets(window string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.WindowResets.WithLabelValues(window).Add(float64(n))
}

// ObserveEvent records the outcome of one engagement event.
func (m *RankingMetrics) ObserveEvent(kind, outcome string) {
	if m == nil {
		return
	}
	m.EventsTotal.WithLabelValues(kind, outcome).Inc()
}

// ObserveSkip records an event skipped for reason.
func (m *RankingMetrics) ObserveSkip(kind, reason string) {
	if m == nil {
		return
	}
	m.EventsSkipped.WithLabelValues(kind, reason).Inc()
}
