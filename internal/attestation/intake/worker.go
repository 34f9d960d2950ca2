// Package intake turns verification outcomes consumed from Kafka into
// attestations and publishes one result message per request.
package intake

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"prism/internal/attestation/metrics"
	"prism/internal/attestation/models"
	"prism/internal/attestation/service"
	"prism/internal/ledger"
	"prism/internal/platform/kafka/consumer"
	"prism/internal/platform/kafka/producer"
	"prism/internal/platform/privacy"
	dErrors "prism/pkg/domain-errors"
	"prism/pkg/platform/validation"
	"prism/pkg/requestcontext"
)

//go:generate mockgen -source=worker.go -destination=mocks/mocks.go -package=mocks Minter Publisher

// HeaderRequestID is the record header that carries the correlation ID.
const HeaderRequestID = "request_id"

const (
	defaultRetryMaxElapsed = 2 * time.Minute
	// lateOutcomeTimeout bounds publishing a broadcast failure after shutdown began.
	lateOutcomeTimeout = 10 * time.Second
)

// Minter records attestations on the ledger.
type Minter interface {
	Mint(ctx context.Context, req models.Request) (*models.Result, error)
}

// Publisher sends outcome messages.
type Publisher interface {
	Produce(ctx context.Context, msg *producer.Message) error
}

// Option configures a Worker.
type Option func(*Worker)

// Worker handles one intake message at a time. It implements consumer.Handler.
type Worker struct {
	minter          Minter
	publisher       Publisher
	resultTopic     string
	cache           ResultCache
	cacheTTL        time.Duration
	limiter         *rate.Limiter
	retryMaxElapsed time.Duration
	newBackoff      func(maxElapsed time.Duration) backoff.BackOff
	metrics         *metrics.Metrics
	logger          *slog.Logger
}

// WithCache deduplicates redelivered requests by session ID.
func WithCache(cache ResultCache, ttl time.Duration) Option {
	return func(w *Worker) {
		w.cache = cache
		w.cacheTTL = ttl
	}
}

// WithRateLimit caps how often mints start. A zero limit disables limiting.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(w *Worker) {
		if perSecond <= 0 {
			w.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		w.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithRetryMaxElapsed bounds in-process retries of retryable ledger failures.
func WithRetryMaxElapsed(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.retryMaxElapsed = d
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(w *Worker) {
		w.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewWorker builds a worker publishing outcomes to resultTopic.
func NewWorker(minter Minter, publisher Publisher, resultTopic string, opts ...Option) *Worker {
	w := &Worker{
		minter:          minter,
		publisher:       publisher,
		resultTopic:     resultTopic,
		retryMaxElapsed: defaultRetryMaxElapsed,
		newBackoff: func(maxElapsed time.Duration) backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxElapsedTime = maxElapsed
			return b
		},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

var _ consumer.Handler = (*Worker)(nil)

// Handle mints the attestation requested by msg and publishes its outcome.
//
// Malformed and invalid requests are answered with a rejected outcome.
// Retryable ledger failures are retried in-process; anything else becomes a
// failed outcome. An error is returned only when ctx ends or the result cache
// cannot be read, leaving the message to be redelivered.
func (w *Worker) Handle(ctx context.Context, msg *consumer.Message) error {
	ctx = withRequestID(ctx, msg)
	requestID := requestcontext.RequestID(ctx)

	req, err := decodeRequest(msg.Value)
	if err != nil {
		w.metrics.IncrementIntakeMessages(metrics.IntakeRejected)
		w.logger.WarnContext(ctx, "intake message rejected",
			"offset", msg.Offset,
			"error", err,
			"request_id", requestID,
		)
		return w.publish(ctx, &models.Outcome{
			RequestID: requestID,
			Status:    models.OutcomeRejected,
			Error:     outcomeError(err),
		})
	}

	if cached, ok, err := w.lookup(ctx, req.SessionID); err != nil {
		return err
	} else if ok {
		w.metrics.IncrementIntakeMessages(metrics.IntakeDuplicate)
		w.logger.InfoContext(ctx, "intake session already attested",
			"wallet", privacy.MaskWallet(req.Wallet),
			"session_id", req.SessionID,
			"request_id", requestID,
		)
		cached.RequestID = requestID
		return w.publish(ctx, cached)
	}

	if w.limiter != nil {
		if err := w.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	result, err := w.mint(ctx, req)
	if err != nil && ctx.Err() != nil && !broadcast(err) {
		return ctx.Err()
	}

	outcome := &models.Outcome{
		RequestID: requestID,
		Wallet:    req.Wallet,
		SessionID: req.SessionID,
	}
	switch {
	case err == nil:
		outcome.Status = models.OutcomeMinted
		outcome.Result = result
		w.metrics.IncrementIntakeMessages(metrics.IntakeMinted)
		w.remember(ctx, outcome)
	case dErrors.HasCode(err, dErrors.CodeValidation):
		outcome.Status = models.OutcomeRejected
		outcome.Error = outcomeError(err)
		w.metrics.IncrementIntakeMessages(metrics.IntakeRejected)
	default:
		outcome.Status = models.OutcomeFailed
		outcome.Error = outcomeError(err)
		w.metrics.IncrementIntakeMessages(metrics.IntakeFailed)
	}
	return w.publish(ctx, outcome)
}

// mint calls the minter, retrying failures that are safe to repeat.
func (w *Worker) mint(ctx context.Context, req models.Request) (*models.Result, error) {
	op := func() (*models.Result, error) {
		result, err := w.minter.Mint(ctx, req)
		if err != nil && !retryable(err) {
			return nil, backoff.Permanent(err)
		}
		return result, err
	}
	notify := func(err error, wait time.Duration) {
		w.metrics.IncrementIntakeMessages(metrics.IntakeRetried)
		w.logger.WarnContext(ctx, "retrying attestation",
			"wallet", privacy.MaskWallet(req.Wallet),
			"session_id", req.SessionID,
			"retry_in", wait,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	b := backoff.WithContext(w.newBackoff(w.retryMaxElapsed), ctx)
	return backoff.RetryNotifyWithData(op, b, notify)
}

// retryable reports whether repeating the whole mint is safe. A failure
// reading the token ID comes after the mint landed, so it is never repeated.
func retryable(err error) bool {
	if step, ok := service.FailedStep(err); ok && step == models.StepTokenID {
		return false
	}
	return ledger.IsRetryable(err)
}

func broadcast(err error) bool {
	var ce *ledger.ChainError
	return errors.As(err, &ce) && ce.Broadcast()
}

func (w *Worker) lookup(ctx context.Context, sessionID string) (*models.Outcome, bool, error) {
	if w.cache == nil || sessionID == "" {
		return nil, false, nil
	}
	cached, ok, err := w.cache.Get(ctx, sessionID)
	if err != nil {
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "read result cache")
	}
	return cached, ok, nil
}

func (w *Worker) remember(ctx context.Context, outcome *models.Outcome) {
	if w.cache == nil || outcome.SessionID == "" {
		return
	}
	if err := w.cache.Put(ctx, outcome.SessionID, outcome, w.cacheTTL); err != nil {
		w.logger.WarnContext(ctx, "result cache write failed",
			"session_id", outcome.SessionID,
			"error", err,
		)
	}
}

// publish sends outcome, retrying until it is accepted or ctx ends so that a
// completed mint is never repeated because its result could not be sent.
func (w *Worker) publish(ctx context.Context, outcome *models.Outcome) error {
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.WithoutCancel(ctx), lateOutcomeTimeout)
		defer cancel()
	}
	value, err := json.Marshal(outcome)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "encode outcome")
	}
	msg := &producer.Message{
		Topic:   w.resultTopic,
		Key:     []byte(strings.ToLower(outcome.Wallet)),
		Value:   value,
		Headers: map[string]string{HeaderRequestID: outcome.RequestID},
	}

	op := func() error {
		return w.publisher.Produce(ctx, msg)
	}
	notify := func(err error, wait time.Duration) {
		w.logger.WarnContext(ctx, "outcome publish failed",
			"status", outcome.Status,
			"retry_in", wait,
			"error", err,
			"request_id", outcome.RequestID,
		)
	}
	if err := backoff.RetryNotify(op, backoff.WithContext(w.newBackoff(0), ctx), notify); err != nil {
		return err
	}

	w.logger.InfoContext(ctx, "intake outcome published",
		"status", outcome.Status,
		"wallet", privacy.MaskWallet(outcome.Wallet),
		"session_id", outcome.SessionID,
		"request_id", outcome.RequestID,
	)
	return nil
}

func decodeRequest(value []byte) (models.Request, error) {
	if err := validation.CheckSize("message", len(value), validation.MaxMessageSize); err != nil {
		return models.Request{}, err
	}
	var req models.Request
	if err := json.NewDecoder(bytes.NewReader(value)).Decode(&req); err != nil {
		return models.Request{}, dErrors.Wrap(err, dErrors.CodeValidation, "malformed request")
	}
	if err := validation.CheckStringLength("sessionId", req.SessionID, validation.MaxSessionIDLength); err != nil {
		return models.Request{}, err
	}
	return req, nil
}

func withRequestID(ctx context.Context, msg *consumer.Message) context.Context {
	if id := msg.Headers[HeaderRequestID]; id != "" {
		return requestcontext.WithRequestID(ctx, id)
	}
	ctx, _ = requestcontext.Ensure(ctx)
	return ctx
}

func outcomeError(err error) *models.OutcomeError {
	oe := &models.OutcomeError{
		Code:    string(dErrors.CodeOf(err)),
		Message: err.Error(),
	}
	if step, ok := service.FailedStep(err); ok {
		oe.Step = step
		oe.Revoked = service.RevokedBeforeFailure(err)
	}
	var ce *ledger.ChainError
	if errors.As(err, &ce) && ce.Broadcast() {
		oe.TxHash = ce.TxHash.Hex()
	}
	return oe
}
