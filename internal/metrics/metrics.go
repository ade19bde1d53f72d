// Package metrics exports turn and session metrics in Prometheus format.
package metrics

import (
	"net/http"

	"github.com/alexschlessinger/saintsal/agent"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "saintsal"

// Metrics implements agent.Observer on a private registry
type Metrics struct {
	registry *prometheus.Registry

	turns    *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	attempts prometheus.Histogram
	tokens   *prometheus.CounterVec
	swept    prometheus.Counter
}

var _ agent.Observer = (*Metrics)(nil)

// New creates the metric set. activeSessions, when non-nil, backs the
// active sessions gauge and is called on every scrape.
func New(activeSessions func() int) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Processed conversation turns by outcome and session resolution.",
		}, []string{"outcome", "resolution"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_duration_seconds",
			Help:      "End to end turn processing time.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"outcome"}),
		attempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_attempts",
			Help:      "Completion attempts per turn.",
			Buckets:   []float64{1, 2, 3, 4, 5},
		}),
		tokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_total",
			Help:      "Completion tokens reported by the provider.",
		}, []string{"type"}),
		swept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_swept_total",
			Help:      "Sessions removed for inactivity.",
		}),
	}

	m.registry.MustRegister(m.turns, m.latency, m.attempts, m.tokens, m.swept)
	if activeSessions != nil {
		m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Sessions currently held in memory.",
		}, func() float64 { return float64(activeSessions()) }))
	}
	return m
}

// ObserveTurn records a finished turn
func (m *Metrics) ObserveTurn(ev agent.TurnEvent) {
	outcome := string(ev.Outcome)
	m.turns.WithLabelValues(outcome, ev.Resolution.String()).Inc()
	m.latency.WithLabelValues(outcome).Observe(ev.Latency.Seconds())
	if ev.Attempts > 0 {
		m.attempts.Observe(float64(ev.Attempts))
	}
	m.tokens.WithLabelValues("input").Add(float64(ev.InputTokens))
	m.tokens.WithLabelValues("output").Add(float64(ev.OutputTokens))
}

// ObserveSweep records a sweep pass
func (m *Metrics) ObserveSweep(removed int) {
	m.swept.Add(float64(removed))
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
