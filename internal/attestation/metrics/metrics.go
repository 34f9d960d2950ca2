// Package metrics provides Prometheus metrics for the attestation workflow.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels.
const (
	OutcomeMinted     = "minted"
	OutcomeStored     = "stored"
	OutcomeInvalid    = "invalid"
	OutcomeMisconfig  = "misconfigured"
	OutcomeTransient  = "transient_network"
	OutcomeRejected   = "execution_rejected"
	OutcomeError      = "error"
	IntakeMinted      = "minted"
	IntakeDuplicate   = "duplicate"
	IntakeRejected    = "rejected"
	IntakeFailed      = "failed"
	IntakeRetried     = "retried"
)

// Metrics contains attestation workflow metrics.
type Metrics struct {
	AttestationsTotal          *prometheus.CounterVec // Mint outcomes
	AttestationDurationSeconds prometheus.Histogram   // End-to-end mint latency including receipt waits
	RevocationsTotal           prometheus.Counter     // Revokes issued by forced re-attestation
	LegacyProofsTotal          *prometheus.CounterVec // storeVerification outcomes
	IntakeMessagesTotal        *prometheus.CounterVec // Kafka intake results
}

// New registers attestation metrics with the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers attestation metrics with reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		AttestationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "prism_attestations_total",
			Help: "Total number of mint attempts by outcome",
		}, []string{"outcome"}),

		AttestationDurationSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "prism_attestation_duration_seconds",
			Help:    "Duration of mint operations, including ledger receipt waits",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120, 300},
		}),

		RevocationsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "prism_revocations_total",
			Help: "Total number of attestations revoked before re-minting",
		}),

		LegacyProofsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "prism_legacy_proofs_total",
			Help: "Total number of legacy proof submissions by outcome",
		}, []string{"outcome"}),

		IntakeMessagesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "prism_intake_messages_total",
			Help: "Total number of intake messages by result",
		}, []string{"result"}),
	}
}

// ObserveMint records a mint attempt and its latency.
func (m *Metrics) ObserveMint(outcome string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.AttestationsTotal.WithLabelValues(outcome).Inc()
	m.AttestationDurationSeconds.Observe(durationSeconds)
}

// IncrementRevocations counts a landed revoke.
func (m *Metrics) IncrementRevocations() {
	if m == nil {
		return
	}
	m.RevocationsTotal.Inc()
}

// IncrementLegacyProofs counts a legacy submission.
func (m *Metrics) IncrementLegacyProofs(outcome string) {
	if m == nil {
		return
	}
	m.LegacyProofsTotal.WithLabelValues(outcome).Inc()
}

// IncrementIntakeMessages counts a handled intake message.
func (m *Metrics) IncrementIntakeMessages(result string) {
	if m == nil {
		return
	}
	m.IntakeMessagesTotal.WithLabelValues(result).Inc()
}
