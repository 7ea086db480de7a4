// Package metrics provides the reference Prometheus-backed implementation
// of simulator.Metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/blockberries/blockberry/simulator"
)

// PrometheusMetrics implements simulator.Metrics using Prometheus.
type PrometheusMetrics struct {
	registry *prometheus.Registry

	dropped         *prometheus.CounterVec
	verified        prometheus.Counter
	verifiedTxCount prometheus.Histogram
	signed          prometheus.Counter
	signingFailures prometheus.Counter
}

// NewPrometheusMetrics creates a PrometheusMetrics instance, registering all
// of its collectors under namespace.
func NewPrometheusMetrics(namespace string) *PrometheusMetrics {
	registry := prometheus.NewRegistry()

	m := &PrometheusMetrics{
		registry: registry,

		dropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "proposals_dropped_total",
				Help:      "Total number of proposals dropped before reaching the candidate-block stream, by reason",
			},
			[]string{"reason"},
		),
		verified: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "proposals_verified_total",
				Help:      "Total number of proposals that passed stateful validation and reached the verified-proposal stream",
			},
		),
		verifiedTxCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "verified_transaction_count",
				Help:      "Number of transactions retained per verified proposal",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
			},
		),
		signed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "blocks_signed_total",
				Help:      "Total number of candidate blocks successfully signed and emitted",
			},
		),
		signingFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "block_signing_failures_total",
				Help:      "Total number of verified proposals whose candidate block failed to sign",
			},
		),
	}

	registry.MustRegister(
		m.dropped,
		m.verified,
		m.verifiedTxCount,
		m.signed,
		m.signingFailures,
	)

	return m
}

// ObserveDropped records a proposal dropped before verification, tagged
// with the reason (e.g. "continuity", "view_factory_error", "panic").
func (m *PrometheusMetrics) ObserveDropped(reason string) {
	m.dropped.WithLabelValues(reason).Inc()
}

// ObserveVerified records a proposal that passed stateful validation, along
// with how many transactions survived.
func (m *PrometheusMetrics) ObserveVerified(txCount int) {
	m.verified.Inc()
	m.verifiedTxCount.Observe(float64(txCount))
}

// ObserveSigned records a candidate block successfully signed.
func (m *PrometheusMetrics) ObserveSigned() {
	m.signed.Inc()
}

// ObserveSigningFailure records a verified proposal whose candidate block
// could not be built or signed — the asymmetric case where a proposal
// reaches the verified stream but never reaches the candidate-block stream.
func (m *PrometheusMetrics) ObserveSigningFailure() {
	m.signingFailures.Inc()
}

// Handler returns an HTTP handler serving this registry's metrics in the
// Prometheus exposition format.
func (m *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

var _ simulator.Metrics = (*PrometheusMetrics)(nil)
