package ledger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/url"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"prism/internal/ledger/metrics"
	"prism/internal/txsigner"
	dErrors "prism/pkg/domain-errors"
	"prism/pkg/platform/circuit"
)

const (
	defaultPollInterval = 2 * time.Second
	defaultReadRetries  = 3
	defaultReadBackoff  = 200 * time.Millisecond
)

// Backend is the JSON-RPC surface the client needs. *ethclient.Client
// satisfies it.
type Backend interface {
	txsigner.GasOracle
	ChainID(ctx context.Context) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Receipt is the confirmed outcome of a ledger write.
type Receipt struct {
	TxHash      common.Hash
	BlockNumber uint64
	GasUsed     uint64
}

// Client talks to the PRISM registry contract.
//
// Writes from one Client are serialized: nonce assignment, signing and
// broadcast happen under a single lock so concurrent callers never share a
// nonce. Receipt waits happen outside the lock.
type Client struct {
	backend  Backend
	contract common.Address
	signer   *txsigner.Signer
	gas      txsigner.GasPolicy

	pollInterval time.Duration
	readRetries  uint64
	readBackoff  time.Duration

	chainMu sync.Mutex
	chainID *big.Int

	writeMu    sync.Mutex
	nonce      uint64
	nonceValid bool

	breaker *circuit.Breaker
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithSigner enables writes. Without a signer the client is read-only.
func WithSigner(signer *txsigner.Signer, policy txsigner.GasPolicy) Option {
	return func(c *Client) {
		c.signer = signer
		c.gas = policy
	}
}

// WithChainID pins the chain id instead of asking the endpoint.
func WithChainID(id *big.Int) Option {
	return func(c *Client) {
		if id != nil {
			c.chainID = new(big.Int).Set(id)
		}
	}
}

// WithPollInterval sets how often receipts are polled.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// WithReadRetries sets the retry budget and initial backoff for read calls.
func WithReadRetries(retries uint64, initial time.Duration) Option {
	return func(c *Client) {
		c.readRetries = retries
		if initial > 0 {
			c.readBackoff = initial
		}
	}
}

// WithBreaker tracks endpoint health. Only transient network failures count
// against it.
func WithBreaker(b *circuit.Breaker) Option {
	return func(c *Client) {
		c.breaker = b
	}
}

// WithMetrics records call outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a client for the registry contract at contract.
func New(backend Backend, contract common.Address, opts ...Option) *Client {
	c := &Client{
		backend:      backend,
		contract:     contract,
		pollInterval: defaultPollInterval,
		readRetries:  defaultReadRetries,
		readBackoff:  defaultReadBackoff,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dial connects to a JSON-RPC endpoint. A malformed URL is a configuration
// error; a node that cannot be reached is a transient ChainError.
func Dial(ctx context.Context, rpcURL string) (*ethclient.Client, error) {
	if rpcURL == "" {
		return nil, dErrors.New(dErrors.CodeConfiguration, "rpc url is required")
	}
	u, err := url.Parse(rpcURL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeConfiguration, "rpc url is malformed")
	}
	switch u.Scheme {
	case "http", "https", "ws", "wss", "":
	default:
		return nil, dErrors.Newf(dErrors.CodeConfiguration, "unsupported rpc url scheme %q", u.Scheme)
	}
	ec, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, classify("dial", err)
	}
	return ec, nil
}

// Configured reports whether the client can issue writes.
func (c *Client) Configured() bool {
	return c != nil && c.backend != nil && c.signer != nil && c.gas != nil &&
		c.contract != (common.Address{})
}

// Healthy reports whether the endpoint is currently considered reachable.
func (c *Client) Healthy() bool {
	return c.breaker == nil || !c.breaker.IsOpen()
}

// Check is a readiness probe: it fails while the endpoint circuit is open.
func (c *Client) Check(context.Context) error {
	if c.Healthy() {
		return nil
	}
	return fmt.Errorf("ledger circuit %s open for %s", c.breaker.Name(), c.breaker.OpenFor().Round(time.Second))
}

// Contract returns the registry address.
func (c *Client) Contract() common.Address {
	return c.contract
}

// Sender returns the signing address, or the zero address for a read-only client.
func (c *Client) Sender() common.Address {
	if c.signer == nil {
		return common.Address{}
	}
	return c.signer.Address()
}

// IsHuman reports whether wallet holds a live attestation.
func (c *Client) IsHuman(ctx context.Context, wallet common.Address) (bool, error) {
	out, err := c.call(ctx, MethodIsHuman, wallet)
	if err != nil {
		return false, err
	}
	human, ok := out[0].(bool)
	if !ok {
		return false, c.decodeError(MethodIsHuman, out[0])
	}
	return human, nil
}

// TokenIDFor returns the attestation token id for wallet; zero means none.
func (c *Client) TokenIDFor(ctx context.Context, wallet common.Address) (*big.Int, error) {
	out, err := c.call(ctx, MethodTokenIDFor, wallet)
	if err != nil {
		return nil, err
	}
	id, ok := out[0].(*big.Int)
	if !ok {
		return nil, c.decodeError(MethodTokenIDFor, out[0])
	}
	return id, nil
}

// MintAttestation records a new attestation for wallet.
func (c *Client) MintAttestation(ctx context.Context, wallet common.Address, commitment [32]byte, confidenceBps uint16) (*Receipt, error) {
	return c.transact(ctx, MethodMintAttestation, wallet, commitment, confidenceBps)
}

// Revoke invalidates the attestation held by wallet.
func (c *Client) Revoke(ctx context.Context, wallet common.Address) (*Receipt, error) {
	return c.transact(ctx, MethodRevoke, wallet)
}

// StoreVerification anchors a bare proof hash.
func (c *Client) StoreVerification(ctx context.Context, hash [32]byte) (*Receipt, error) {
	return c.transact(ctx, MethodStoreVerification, hash)
}

func (c *Client) call(ctx context.Context, method string, args ...any) ([]any, error) {
	if c.backend == nil || c.contract == (common.Address{}) {
		return nil, dErrors.New(dErrors.CodeConfiguration, "ledger client is not configured")
	}
	data, err := registryABI.Pack(method, args...)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "pack "+method)
	}
	msg := ethereum.CallMsg{From: c.Sender(), To: &c.contract, Data: data}

	var out []any
	attempt := func() error {
		start := time.Now()
		raw, callErr := c.backend.CallContract(ctx, msg, nil)
		if callErr != nil {
			ce := classify(method, callErr)
			c.record(method, start, ce)
			if ce.Retryable() && ctx.Err() == nil {
				return ce
			}
			return backoff.Permanent(ce)
		}
		if len(raw) == 0 {
			ce := &ChainError{Kind: KindExecutionRejected, Reason: ReasonRPCError, Method: method,
				Err: fmt.Errorf("empty result, no contract code at %s", c.contract.Hex())}
			c.record(method, start, ce)
			return backoff.Permanent(ce)
		}
		values, unpackErr := registryABI.Unpack(method, raw)
		if unpackErr == nil && len(values) == 0 {
			unpackErr = errors.New("no return values")
		}
		if unpackErr != nil {
			ce := &ChainError{Kind: KindExecutionRejected, Reason: ReasonRPCError, Method: method,
				Err: fmt.Errorf("decode result: %w", unpackErr)}
			c.record(method, start, ce)
			return backoff.Permanent(ce)
		}
		c.record(method, start, nil)
		out = values
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.readBackoff
	b := backoff.WithContext(backoff.WithMaxRetries(policy, c.readRetries), ctx)
	notify := func(err error, wait time.Duration) {
		c.logger.WarnContext(ctx, "ledger read failed, retrying",
			"method", method,
			"error", err,
			"retry_in", wait,
		)
	}
	if err := backoff.RetryNotify(attempt, b, notify); err != nil {
		return nil, classify(method, err)
	}
	return out, nil
}

func (c *Client) decodeError(method string, v any) error {
	return &ChainError{Kind: KindExecutionRejected, Reason: ReasonRPCError, Method: method,
		Err: fmt.Errorf("unexpected result type %T", v)}
}

func (c *Client) transact(ctx context.Context, method string, args ...any) (*Receipt, error) {
	if !c.Configured() {
		return nil, dErrors.New(dErrors.CodeConfiguration, "ledger client has no signer or contract address")
	}
	data, err := registryABI.Pack(method, args...)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "pack "+method)
	}

	start := time.Now()
	tx, err := c.send(ctx, method, data)
	if err != nil {
		var ce *ChainError
		if errors.As(err, &ce) {
			c.record(method, start, ce)
		}
		return nil, err
	}
	c.logger.InfoContext(ctx, "ledger transaction sent",
		"method", method,
		"tx_hash", tx.Hash().Hex(),
		"nonce", tx.Nonce(),
	)

	receipt, ce := c.waitReceipt(ctx, method, tx.Hash())
	if ce != nil {
		c.record(method, start, ce)
		return nil, ce
	}

	out := &Receipt{TxHash: tx.Hash(), GasUsed: receipt.GasUsed}
	if receipt.BlockNumber != nil {
		out.BlockNumber = receipt.BlockNumber.Uint64()
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		ce := &ChainError{Kind: KindExecutionRejected, Reason: ReasonReverted, Method: method, TxHash: tx.Hash(),
			Err: fmt.Errorf("transaction reverted in block %d", out.BlockNumber)}
		c.record(method, start, ce)
		return nil, ce
	}
	c.record(method, start, nil)
	return out, nil
}

// send assigns a nonce, prices, signs and broadcasts one transaction.
func (c *Client) send(ctx context.Context, method string, data []byte) (*types.Transaction, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	chainID, err := c.resolveChainID(ctx)
	if err != nil {
		return nil, classify(method, err)
	}
	from := c.signer.Address()
	if !c.nonceValid {
		pending, err := c.backend.PendingNonceAt(ctx, from)
		if err != nil {
			return nil, classify(method, err)
		}
		c.nonce = pending
		c.nonceValid = true
	}

	params, err := c.gas.Params(ctx, c.backend, ethereum.CallMsg{From: from, To: &c.contract, Data: data})
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeConfiguration) {
			return nil, err
		}
		return nil, classify(method, err)
	}

	signed, err := c.signer.SignTx(buildTx(chainID, c.nonce, c.contract, data, params), chainID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "sign "+method)
	}

	if err := c.backend.SendTransaction(ctx, signed); err != nil {
		c.nonceValid = false
		c.metrics.IncrementNonceResyncs()
		ce := classify(method, err)
		// Unless the node provably never saw it, the tx may be in the mempool.
		if ce.Kind == KindTransientNetwork && !refusedBeforeSend(err) {
			ce.TxHash = signed.Hash()
		}
		return nil, ce
	}
	c.nonce++
	return signed, nil
}

func buildTx(chainID *big.Int, nonce uint64, to common.Address, data []byte, params txsigner.GasParams) *types.Transaction {
	if params.Dynamic() {
		return types.NewTx(&types.DynamicFeeTx{
			ChainID:   chainID,
			Nonce:     nonce,
			GasTipCap: params.TipCap,
			GasFeeCap: params.FeeCap,
			Gas:       params.Limit,
			To:        &to,
			Data:      data,
		})
	}
	return types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: params.GasPrice,
		Gas:      params.Limit,
		To:       &to,
		Data:     data,
	})
}

func (c *Client) resolveChainID(ctx context.Context) (*big.Int, error) {
	c.chainMu.Lock()
	defer c.chainMu.Unlock()
	if c.chainID != nil {
		return c.chainID, nil
	}
	id, err := c.backend.ChainID(ctx)
	if err != nil {
		return nil, err
	}
	c.chainID = id
	return id, nil
}

// waitReceipt polls until the transaction is mined or ctx ends.
func (c *Client) waitReceipt(ctx context.Context, method string, hash common.Hash) (*types.Receipt, *ChainError) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.backend.TransactionReceipt(ctx, hash)
		switch {
		case err == nil && receipt != nil:
			return receipt, nil
		case err != nil && !errors.Is(err, ethereum.NotFound) && ctx.Err() == nil:
			ce := classify(method, err)
			if ce.Kind == KindExecutionRejected {
				ce.TxHash = hash
				return nil, ce
			}
			c.logger.DebugContext(ctx, "receipt poll failed",
				"method", method,
				"tx_hash", hash.Hex(),
				"error", err,
			)
		}

		select {
		case <-ctx.Done():
			return nil, &ChainError{
				Kind:   KindTransientNetwork,
				Reason: ReasonReceiptTimeout,
				Method: method,
				TxHash: hash,
				Err:    ctx.Err(),
			}
		case <-ticker.C:
		}
	}
}

func (c *Client) record(method string, start time.Time, ce *ChainError) {
	result := metrics.ResultOK
	switch {
	case ce == nil:
		if c.breaker != nil {
			if _, change := c.breaker.RecordSuccess(); change.Closed {
				c.logger.Info("ledger endpoint recovered", "breaker", c.breaker.Name())
			}
		}
	case ce.Kind == KindExecutionRejected:
		result = metrics.ResultRejected
	default:
		result = metrics.ResultTransient
		if c.breaker != nil {
			if _, change := c.breaker.RecordFailure(); change.Opened {
				c.logger.Warn("ledger endpoint marked unhealthy", "breaker", c.breaker.Name(), "error", ce)
			}
		}
	}
	c.metrics.RecordCall(method, result, time.Since(start).Seconds())
}
