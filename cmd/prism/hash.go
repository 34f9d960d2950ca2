package main

import (
	"math"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"prism/internal/attestation/models"
	"prism/internal/attestation/proof"
	dErrors "prism/pkg/domain-errors"
)

type hashOutput struct {
	Canonical     string `json:"canonical"`
	ProofHash     string `json:"proofHash"`
	ConfidenceBps uint16 `json:"confidenceBps"`
	ExpiresAt     int64  `json:"expiresAt"`
	Version       int    `json:"version"`
}

// hashCommand computes a commitment offline, for checking what a mint would anchor.
func (a *app) hashCommand() *cobra.Command {
	var (
		wallet    string
		sessionID string
		score     float64
		expiresAt int64
	)
	cmd := &cobra.Command{
		Use:   "hash",
		Short: "Compute a proof commitment without touching the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !common.IsHexAddress(wallet) {
				return dErrors.New(dErrors.CodeValidation, "wallet must be a hex address")
			}
			if math.IsNaN(score) {
				return dErrors.New(dErrors.CodeValidation, "confidence score must be a number")
			}
			if expiresAt == 0 {
				expiresAt = time.Now().Add(a.cfg.AttestationTTL()).Unix()
			}
			m := proof.Material{
				SessionID:     sessionID,
				Wallet:        wallet,
				ConfidenceBps: proof.ConfidenceBps(score),
				ExpiresAt:     expiresAt,
			}
			return printJSON(cmd.OutOrStdout(), hashOutput{
				Canonical:     m.Canonical(),
				ProofHash:     models.FormatProofHash(proof.ComputeCommitment(m)),
				ConfidenceBps: m.ConfidenceBps,
				ExpiresAt:     m.ExpiresAt,
				Version:       proof.MaterialVersion,
			})
		},
	}
	cmd.Flags().StringVar(&wallet, "wallet", "", "wallet address (required)")
	cmd.Flags().StringVar(&sessionID, "session-id", "", "verification session identifier")
	cmd.Flags().Float64Var(&score, "score", 0, "confidence score in [0,1]")
	cmd.Flags().Int64Var(&expiresAt, "expires-at", 0, "expiry in epoch seconds; defaults to now plus the attestation TTL")
	_ = cmd.MarkFlagRequired("wallet")
	return cmd
}
