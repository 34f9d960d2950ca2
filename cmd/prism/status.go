package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	attmetrics "prism/internal/attestation/metrics"
)

func (a *app) statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status <wallet>",
		Short: "Show a wallet's attestation status; no signing key needed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.withCallTimeout(cmd.Context())
			defer cancel()

			reg := prometheus.NewRegistry()
			client, closeLedger, err := a.ledgerClient(ctx, true, reg)
			if err != nil {
				return err
			}
			defer closeLedger()

			status, err := a.minter(client, attmetrics.NewWithRegisterer(reg), nil).Status(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), status)
		},
	}
}
