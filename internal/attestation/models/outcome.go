package models

// Intake outcome statuses.
const (
	OutcomeMinted   = "minted"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Outcome is published to the result topic for every intake message.
type Outcome struct {
	RequestID string        `json:"requestId"`
	Wallet    string        `json:"wallet,omitempty"`
	SessionID string        `json:"sessionId,omitempty"`
	Status    string        `json:"status"`
	Result    *Result       `json:"result,omitempty"`
	Error     *OutcomeError `json:"error,omitempty"`
}

// OutcomeError describes why an intake message did not produce an attestation.
type OutcomeError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Step    Step   `json:"step,omitempty"`
	// Revoked is set when the wallet's previous attestation was revoked before the failure.
	Revoked bool   `json:"revoked,omitempty"`
	TxHash  string `json:"txHash,omitempty"`
}
