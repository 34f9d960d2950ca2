package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	attmetrics "prism/internal/attestation/metrics"
	"prism/internal/attestation/models"
	"prism/internal/attestation/proof"
	"prism/pkg/requestcontext"
)

type legacyOutput struct {
	TxHash    string `json:"txHash"`
	ProofHash string `json:"proofHash"`
}

func (a *app) storeLegacyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "store-legacy <data>",
		Short: "Anchor the digest of arbitrary data through storeVerification",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.withCallTimeout(cmd.Context())
			defer cancel()
			ctx, _ = requestcontext.Ensure(ctx)

			reg := prometheus.NewRegistry()
			client, closeLedger, err := a.ledgerClient(ctx, false, reg)
			if err != nil {
				return err
			}
			defer closeLedger()

			txHash, err := a.minter(client, attmetrics.NewWithRegisterer(reg), nil).StoreLegacyProof(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), legacyOutput{
				TxHash:    txHash,
				ProofHash: models.FormatProofHash(proof.HashBytes32(args[0])),
			})
		},
	}
}
