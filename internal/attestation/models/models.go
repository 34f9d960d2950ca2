package models

import (
	"encoding/hex"
	"math/big"
)

// Request is a verification outcome to be recorded on the ledger.
type Request struct {
	Wallet          string  `json:"wallet" validate:"required,eth_addr"`
	SessionID       string  `json:"sessionId,omitempty"`
	ConfidenceScore float64 `json:"confidenceScore"`
	// Force revokes any live attestation for the wallet before minting.
	Force bool `json:"force"`
}

// Result describes a minted attestation.
type Result struct {
	TxHash            string   `json:"txHash"`
	ProofHashHex      string   `json:"proofHashHex"`
	ExpiresAtEpochSec int64    `json:"expiresAtEpochSec"`
	TokenID           *big.Int `json:"tokenId"`
}

// Status is the ledger's current view of a wallet.
type Status struct {
	Wallet  string   `json:"wallet"`
	IsHuman bool     `json:"isHuman"`
	TokenID *big.Int `json:"tokenId"`
}

// Step names the ledger round trip a workflow failure happened in.
type Step string

const (
	StepIsHuman           Step = "is_human"
	StepRevoke            Step = "revoke"
	StepMint              Step = "mint"
	StepTokenID           Step = "token_id"
	StepStoreVerification Step = "store_verification"
)

// FormatProofHash renders a commitment as 0x-prefixed lowercase hex.
func FormatProofHash(commitment [32]byte) string {
	return "0x" + hex.EncodeToString(commitment[:])
}
