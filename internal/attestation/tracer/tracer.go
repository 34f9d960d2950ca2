// Package tracer provides a lightweight tracing abstraction for the attestation workflow.
//
// The minter and intake worker depend on the Tracer interface rather than on
// OpenTelemetry directly. NoopTracer is used in tests; OTelTracer adapts the
// global OpenTelemetry provider in production.
package tracer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Span represents an active trace span.
type Span interface {
	// End completes the span. A non-nil err marks the span as failed.
	// End must be called exactly once, typically via defer.
	End(err error)

	SetAttributes(attrs ...Attribute)

	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	// Start creates a new span with the given name and attributes.
	//
	// Example:
	//   ctx, span := tr.Start(ctx, tracer.SpanMint,
	//       tracer.String(tracer.AttrWallet, tracer.HashWallet(wallet)),
	//       tracer.Bool(tracer.AttrForce, true),
	//   )
	//   defer func() { span.End(err) }()
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute represents a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

// String creates a string attribute.
func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

// Bool creates a boolean attribute.
func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

// Int64 creates an int64 attribute.
func Int64(key string, value int64) Attribute {
	return Attribute{Key: key, Value: value}
}

// Float64 creates a float64 attribute.
func Float64(key string, value float64) Attribute {
	return Attribute{Key: key, Value: value}
}

// Duration creates a duration attribute in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// HashWallet returns a short, case-insensitive digest of a wallet address so
// traces can be correlated without carrying the address itself.
func HashWallet(wallet string) string {
	if wallet == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(strings.ToLower(wallet)))
	return hex.EncodeToString(hash[:8])
}

// Span names.
const (
	SpanMint        = "attestation.mint"
	SpanLegacyProof = "attestation.legacy_proof"
	SpanStatus      = "attestation.status"
	SpanIntake      = "attestation.intake"
)

// Attribute keys.
const (
	AttrWallet        = "wallet_hash"
	AttrSessionID     = "session_id"
	AttrConfidenceBps = "confidence_bps"
	AttrForce         = "force"
	AttrStep          = "step"
	AttrTxHash        = "tx_hash"
	AttrRevoked       = "revoked"
)

// Event names, one per ledger step.
const (
	EventStepStarted   = "step.started"
	EventStepCompleted = "step.completed"
)
