// Package metrics provides Prometheus metrics for ledger round trips.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result labels for CallsTotal.
const (
	ResultOK        = "ok"
	ResultTransient = "transient_network"
	ResultRejected  = "execution_rejected"
)

// Metrics contains ledger client metrics.
type Metrics struct {
	CallsTotal          *prometheus.CounterVec   // Calls by contract method and result
	CallDurationSeconds *prometheus.HistogramVec // Round-trip latency by contract method
	NonceResyncsTotal   prometheus.Counter       // Times the local nonce was dropped and re-fetched
	BreakerOpen         prometheus.Gauge         // 1 while the endpoint circuit is open
}

// New registers ledger metrics with the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers ledger metrics with reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CallsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "prism_ledger_calls_total",
			Help: "Total number of ledger calls by contract method and result",
		}, []string{"method", "result"}),

		CallDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "prism_ledger_call_duration_seconds",
			Help:    "Duration of ledger calls by contract method, including receipt waits for writes",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"method"}),

		NonceResyncsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "prism_ledger_nonce_resyncs_total",
			Help: "Total number of times the signer nonce was re-fetched after a failed send",
		}),

		BreakerOpen: factory.NewGauge(prometheus.GaugeOpts{
			Name: "prism_ledger_breaker_open",
			Help: "1 while the ledger endpoint circuit breaker is open",
		}),
	}
}

// RecordCall records the outcome and duration of one ledger call.
func (m *Metrics) RecordCall(method, result string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.CallsTotal.WithLabelValues(method, result).Inc()
	m.CallDurationSeconds.WithLabelValues(method).Observe(durationSeconds)
}

// IncrementNonceResyncs counts a dropped local nonce.
func (m *Metrics) IncrementNonceResyncs() {
	if m == nil {
		return
	}
	m.NonceResyncsTotal.Inc()
}

// SetBreakerOpen mirrors the endpoint circuit state.
func (m *Metrics) SetBreakerOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.BreakerOpen.Set(1)
		return
	}
	m.BreakerOpen.Set(0)
}
