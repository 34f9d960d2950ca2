package models

// Audit actions emitted by the minting workflow.
const (
	AuditActionMinted       = "attestation_minted"
	AuditActionRevoked      = "attestation_revoked"
	AuditActionFailed       = "attestation_failed"
	AuditActionLegacyStored = "legacy_proof_stored"
)

// Audit decisions.
const (
	AuditDecisionRecorded = "recorded"
	AuditDecisionAborted  = "aborted"
)
