package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Ledger

import (
	"context"
	"io"
	"log/slog"
	"math"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"prism/internal/attestation/metrics"
	"prism/internal/attestation/models"
	"prism/internal/attestation/proof"
	"prism/internal/attestation/tracer"
	"prism/internal/audit"
	"prism/internal/ledger"
	"prism/internal/platform/privacy"
	dErrors "prism/pkg/domain-errors"
	"prism/pkg/requestcontext"
	"prism/pkg/validation"
)

// DefaultTTL is how long a minted attestation claims to be valid.
const DefaultTTL = 7 * 24 * time.Hour

// Ledger is the registry contract as seen by the minter.
// *ledger.Client satisfies it. Every write blocks until its receipt is in.
type Ledger interface {
	Configured() bool
	IsHuman(ctx context.Context, wallet common.Address) (bool, error)
	TokenIDFor(ctx context.Context, wallet common.Address) (*big.Int, error)
	MintAttestation(ctx context.Context, wallet common.Address, commitment [32]byte, confidenceBps uint16) (*ledger.Receipt, error)
	Revoke(ctx context.Context, wallet common.Address) (*ledger.Receipt, error)
	StoreVerification(ctx context.Context, hash [32]byte) (*ledger.Receipt, error)
}

type Option func(*Minter)

// Minter turns verification outcomes into on-chain attestations.
// It holds no ledger state; every decision is made from fresh reads.
type Minter struct {
	ledger  Ledger
	auditor *audit.Publisher
	metrics *metrics.Metrics
	tracer  tracer.Tracer
	logger  *slog.Logger
	clock   func() time.Time
	ttl     time.Duration
}

// WithLogger sets the logger instance for the minter.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Minter) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithMetrics sets the metrics instance for the minter.
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Minter) {
		m.metrics = mt
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(m *Minter) {
		if t != nil {
			m.tracer = t
		}
	}
}

// WithAuditor emits workflow events to the audit trail.
func WithAuditor(p *audit.Publisher) Option {
	return func(m *Minter) {
		m.auditor = p
	}
}

// WithClock overrides the time source used for expiry.
func WithClock(clock func() time.Time) Option {
	return func(m *Minter) {
		if clock != nil {
			m.clock = clock
		}
	}
}

// WithTTL configures the attestation lifetime. Non-positive values keep DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(m *Minter) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// NewMinter builds a minter over l. l may be nil when signing configuration is
// incomplete; operations then fail with a configuration error.
func NewMinter(l Ledger, opts ...Option) *Minter {
	m := &Minter{
		ledger: l,
		tracer: tracer.NewNoop(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		clock:  time.Now,
		ttl:    DefaultTTL,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// TTL returns the configured attestation lifetime.
func (m *Minter) TTL() time.Duration {
	return m.ttl
}

// Mint records req on the ledger and returns the resulting attestation.
//
// With Force set, a live attestation for the wallet is revoked first and the
// revoke must be included before the mint is sent. Any ledger failure aborts
// the call with a *StepError; no partial result is returned.
func (m *Minter) Mint(ctx context.Context, req models.Request) (_ *models.Result, err error) {
	start := time.Now()
	ctx, span := m.tracer.Start(ctx, tracer.SpanMint,
		tracer.String(tracer.AttrWallet, tracer.HashWallet(req.Wallet)),
		tracer.String(tracer.AttrSessionID, req.SessionID),
		tracer.Bool(tracer.AttrForce, req.Force),
	)
	defer func() {
		span.End(err)
		m.metrics.ObserveMint(outcomeOf(err, metrics.OutcomeMinted), time.Since(start).Seconds())
	}()

	if err := ValidateRequest(req); err != nil {
		return nil, err
	}
	if !m.configured() {
		return nil, errNotConfigured
	}

	wallet := common.HexToAddress(req.Wallet)
	bps := proof.ConfidenceBps(req.ConfidenceScore)
	expiresAt := m.clock().Add(m.ttl).Unix()
	commitment := proof.ComputeCommitment(proof.Material{
		SessionID:     req.SessionID,
		Wallet:        req.Wallet,
		ConfidenceBps: bps,
		ExpiresAt:     expiresAt,
	})
	proofHash := models.FormatProofHash(commitment)
	span.SetAttributes(tracer.Int64(tracer.AttrConfidenceBps, int64(bps)))

	revoked := false
	if req.Force {
		span.AddEvent(tracer.EventStepStarted, tracer.String(tracer.AttrStep, string(models.StepIsHuman)))
		human, err := m.ledger.IsHuman(ctx, wallet)
		if err != nil {
			return nil, m.fail(ctx, req, models.StepIsHuman, false, err)
		}
		if human {
			span.AddEvent(tracer.EventStepStarted, tracer.String(tracer.AttrStep, string(models.StepRevoke)))
			receipt, err := m.ledger.Revoke(ctx, wallet)
			if err != nil {
				return nil, m.fail(ctx, req, models.StepRevoke, false, err)
			}
			revoked = true
			m.metrics.IncrementRevocations()
			span.AddEvent(tracer.EventStepCompleted,
				tracer.String(tracer.AttrStep, string(models.StepRevoke)),
				tracer.String(tracer.AttrTxHash, receipt.TxHash.Hex()),
			)
			m.emitAudit(ctx, audit.Event{
				Wallet:    req.Wallet,
				SessionID: req.SessionID,
				Action:    models.AuditActionRevoked,
				Decision:  models.AuditDecisionRecorded,
				Reason:    "forced_reattestation",
				Step:      string(models.StepRevoke),
				TxHash:    receipt.TxHash.Hex(),
			})
			m.logger.InfoContext(ctx, "attestation revoked before re-mint",
				"wallet", privacy.MaskWallet(req.Wallet),
				"tx_hash", receipt.TxHash.Hex(),
			)
		}
	}

	span.AddEvent(tracer.EventStepStarted, tracer.String(tracer.AttrStep, string(models.StepMint)))
	receipt, err := m.ledger.MintAttestation(ctx, wallet, commitment, bps)
	if err != nil {
		return nil, m.fail(ctx, req, models.StepMint, revoked, err)
	}
	span.SetAttributes(tracer.String(tracer.AttrTxHash, receipt.TxHash.Hex()))

	tokenID, err := m.ledger.TokenIDFor(ctx, wallet)
	if err != nil {
		return nil, m.fail(ctx, req, models.StepTokenID, revoked, err)
	}

	result := &models.Result{
		TxHash:            receipt.TxHash.Hex(),
		ProofHashHex:      proofHash,
		ExpiresAtEpochSec: expiresAt,
		TokenID:           tokenID,
	}
	m.emitAudit(ctx, audit.Event{
		Wallet:        req.Wallet,
		SessionID:     req.SessionID,
		Action:        models.AuditActionMinted,
		Decision:      models.AuditDecisionRecorded,
		TxHash:        result.TxHash,
		ProofHash:     proofHash,
		ConfidenceBps: bps,
	})
	m.logger.InfoContext(ctx, "attestation minted",
		"wallet", privacy.MaskWallet(req.Wallet),
		"session_id", req.SessionID,
		"confidence_bps", bps,
		"expires_at", expiresAt,
		"token_id", tokenID.String(),
		"tx_hash", result.TxHash,
		"revoked_previous", revoked,
		"request_id", requestcontext.RequestID(ctx),
	)
	return result, nil
}

// StoreLegacyProof anchors the digest of data through the older
// storeVerification entry point and returns the transaction hash.
func (m *Minter) StoreLegacyProof(ctx context.Context, data string) (_ string, err error) {
	ctx, span := m.tracer.Start(ctx, tracer.SpanLegacyProof)
	defer func() {
		span.End(err)
		m.metrics.IncrementLegacyProofs(outcomeOf(err, metrics.OutcomeStored))
	}()

	if !m.configured() {
		return "", errNotConfigured
	}

	hash := proof.HashBytes32(data)
	receipt, err := m.ledger.StoreVerification(ctx, hash)
	if err != nil {
		return "", m.fail(ctx, models.Request{}, models.StepStoreVerification, false, err)
	}

	txHash := receipt.TxHash.Hex()
	m.emitAudit(ctx, audit.Event{
		Action:    models.AuditActionLegacyStored,
		Decision:  models.AuditDecisionRecorded,
		TxHash:    txHash,
		ProofHash: models.FormatProofHash(hash),
	})
	m.logger.InfoContext(ctx, "legacy proof stored",
		"proof_hash", models.FormatProofHash(hash),
		"tx_hash", txHash,
	)
	return txHash, nil
}

// Status reads the ledger's current view of wallet. It needs no signer.
func (m *Minter) Status(ctx context.Context, wallet string) (_ *models.Status, err error) {
	ctx, span := m.tracer.Start(ctx, tracer.SpanStatus,
		tracer.String(tracer.AttrWallet, tracer.HashWallet(wallet)),
	)
	defer func() { span.End(err) }()

	if err := ValidateRequest(models.Request{Wallet: wallet}); err != nil {
		return nil, err
	}
	if m.ledger == nil {
		return nil, errNotConfigured
	}

	addr := common.HexToAddress(wallet)
	status := &models.Status{Wallet: addr.Hex()}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		human, err := m.ledger.IsHuman(gctx, addr)
		if err != nil {
			return &StepError{Step: models.StepIsHuman, Err: err}
		}
		status.IsHuman = human
		return nil
	})
	g.Go(func() error {
		id, err := m.ledger.TokenIDFor(gctx, addr)
		if err != nil {
			return &StepError{Step: models.StepTokenID, Err: err}
		}
		status.TokenID = id
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return status, nil
}

var errNotConfigured = dErrors.New(dErrors.CodeConfiguration,
	"signing key and registry contract address must be configured")

func (m *Minter) configured() bool {
	return m.ledger != nil && m.ledger.Configured()
}

// ValidateRequest checks a mint request before any ledger work is attempted.
func ValidateRequest(req models.Request) error {
	if err := validation.Validate(req); err != nil {
		return err
	}
	if math.IsNaN(req.ConfidenceScore) {
		return dErrors.New(dErrors.CodeValidation, "confidenceScore must be a number")
	}
	return nil
}

// fail wraps a ledger error with its step and records the abort.
func (m *Minter) fail(ctx context.Context, req models.Request, step models.Step, revoked bool, err error) error {
	stepErr := &StepError{Step: step, Revoked: revoked, Err: err}

	var txHash string
	if ce, ok := asChainError(err); ok {
		if ce.Broadcast() {
			txHash = ce.TxHash.Hex()
		}
	}
	m.emitAudit(ctx, audit.Event{
		Wallet:    req.Wallet,
		SessionID: req.SessionID,
		Action:    models.AuditActionFailed,
		Decision:  models.AuditDecisionAborted,
		Reason:    string(dErrors.CodeOf(err)),
		Step:      string(step),
		TxHash:    txHash,
	})
	m.logger.ErrorContext(ctx, "attestation workflow aborted",
		"wallet", privacy.MaskWallet(req.Wallet),
		"session_id", req.SessionID,
		"step", step,
		"revoked", revoked,
		"retryable", ledger.IsRetryable(err),
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	return stepErr
}

func (m *Minter) emitAudit(ctx context.Context, event audit.Event) {
	if m.auditor == nil {
		return
	}
	event.RequestID = requestcontext.RequestID(ctx)
	if err := m.auditor.Emit(ctx, event); err != nil {
		m.logger.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}

func outcomeOf(err error, success string) string {
	if err == nil {
		return success
	}
	switch dErrors.CodeOf(err) {
	case dErrors.CodeValidation:
		return metrics.OutcomeInvalid
	case dErrors.CodeConfiguration:
		return metrics.OutcomeMisconfig
	case dErrors.CodeTransientNetwork:
		return metrics.OutcomeTransient
	case dErrors.CodeExecutionRejected:
		return metrics.OutcomeRejected
	default:
		return metrics.OutcomeError
	}
}
