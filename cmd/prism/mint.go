package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	attmetrics "prism/internal/attestation/metrics"
	"prism/internal/attestation/models"
	"prism/internal/attestation/service"
	"prism/pkg/requestcontext"
)

func (a *app) mintCommand() *cobra.Command {
	var req models.Request
	cmd := &cobra.Command{
		Use:   "mint",
		Short: "Mint an attestation for one wallet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := service.ValidateRequest(req); err != nil {
				return err
			}
			ctx, cancel := a.withCallTimeout(cmd.Context())
			defer cancel()
			ctx, _ = requestcontext.Ensure(ctx)

			reg := prometheus.NewRegistry()
			client, closeLedger, err := a.ledgerClient(ctx, false, reg)
			if err != nil {
				return err
			}
			defer closeLedger()

			result, err := a.minter(client, attmetrics.NewWithRegisterer(reg), nil).Mint(ctx, req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVar(&req.Wallet, "wallet", "", "wallet address to attest (required)")
	cmd.Flags().StringVar(&req.SessionID, "session-id", "", "verification session identifier")
	cmd.Flags().Float64Var(&req.ConfidenceScore, "score", 0, "confidence score in [0,1]")
	cmd.Flags().BoolVar(&req.Force, "force", false, "revoke a live attestation before minting")
	_ = cmd.MarkFlagRequired("wallet")
	return cmd
}
