package audit

import "time"

// Event records one ledger-visible action of the attestation workflow.
type Event struct {
	Timestamp     time.Time `json:"timestamp"`
	Wallet        string    `json:"wallet,omitempty"`
	SessionID     string    `json:"sessionId,omitempty"`
	Action        string    `json:"action"`
	Decision      string    `json:"decision"`
	Reason        string    `json:"reason,omitempty"`
	Step          string    `json:"step,omitempty"`
	TxHash        string    `json:"txHash,omitempty"`
	ProofHash     string    `json:"proofHash,omitempty"`
	ConfidenceBps uint16    `json:"confidenceBps,omitempty"`
	// RequestID correlates events with an intake message or CLI invocation.
	RequestID string `json:"requestId,omitempty"`
}
