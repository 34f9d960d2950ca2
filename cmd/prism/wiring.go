package main

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"

	attmetrics "prism/internal/attestation/metrics"
	"prism/internal/attestation/service"
	"prism/internal/attestation/tracer"
	"prism/internal/audit"
	"prism/internal/ledger"
	ledgermetrics "prism/internal/ledger/metrics"
	"prism/internal/txsigner"
	"prism/pkg/platform/circuit"
)

const readBackoff = 200 * time.Millisecond

// ledgerClient dials the configured endpoint. A read-only client carries no
// signer and cannot mint. The returned func closes the RPC connection.
func (a *app) ledgerClient(ctx context.Context, readOnly bool, reg prometheus.Registerer) (*ledger.Client, func(), error) {
	cfg := a.cfg
	validate := cfg.Validate
	if readOnly {
		validate = cfg.ValidateForReadOnly
	}
	if err := validate(); err != nil {
		return nil, nil, err
	}

	ec, err := ledger.Dial(ctx, cfg.RPCURL)
	if err != nil {
		return nil, nil, err
	}

	lm := ledgermetrics.NewWithRegisterer(reg)
	breaker := circuit.New("ledger", circuit.WithOnChange(func(_ string, to circuit.State) {
		lm.SetBreakerOpen(to == circuit.StateOpen)
	}))
	opts := []ledger.Option{
		ledger.WithPollInterval(cfg.ReceiptPollInterval),
		ledger.WithReadRetries(cfg.ReadRetries, readBackoff),
		ledger.WithBreaker(breaker),
		ledger.WithMetrics(lm),
		ledger.WithLogger(a.logger),
	}
	if cfg.ChainID > 0 {
		opts = append(opts, ledger.WithChainID(big.NewInt(cfg.ChainID)))
	}
	if !readOnly {
		signer, err := txsigner.FromHex(cfg.SignerPrivateKey)
		if err != nil {
			ec.Close()
			return nil, nil, err
		}
		policy, err := txsigner.NewPolicy(cfg.PolicyConfig())
		if err != nil {
			ec.Close()
			return nil, nil, err
		}
		opts = append(opts, ledger.WithSigner(signer, policy))
	}

	client := ledger.New(ec, common.HexToAddress(cfg.ContractAddress), opts...)
	a.logger.Info("ledger client ready",
		"rpc_url", cfg.RPCURL,
		"contract", client.Contract().Hex(),
		"sender", client.Sender().Hex(),
		"gas_strategy", cfg.GasStrategy,
		"read_only", readOnly,
	)
	return client, ec.Close, nil
}

func (a *app) minter(client *ledger.Client, mt *attmetrics.Metrics, auditor *audit.Publisher) *service.Minter {
	opts := []service.Option{
		service.WithLogger(a.logger),
		service.WithMetrics(mt),
		service.WithTracer(tracer.NewOTel()),
		service.WithTTL(a.cfg.AttestationTTL()),
	}
	if auditor != nil {
		opts = append(opts, service.WithAuditor(auditor))
	}
	return service.NewMinter(client, opts...)
}

// withCallTimeout bounds one-shot commands, including receipt waits.
func (a *app) withCallTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.cfg.CallTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.cfg.CallTimeout)
}
