package ledger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"

	dErrors "prism/pkg/domain-errors"
)

// Kind splits ledger failures by retry safety.
type Kind string

const (
	// KindTransientNetwork: endpoint unreachable, timed out or throttled.
	// Safe to retry with backoff when no transaction was broadcast.
	KindTransientNetwork Kind = "transient_network"
	// KindExecutionRejected: the ledger refused the call (revert, funds, nonce, fees).
	// The caller must re-derive nonce or state before trying again.
	KindExecutionRejected Kind = "execution_rejected"
)

// Reason refines a Kind for logs, metrics and operators.
type Reason string

const (
	ReasonUnreachable       Reason = "unreachable"
	ReasonTimeout           Reason = "timeout"
	ReasonRateLimited       Reason = "rate_limited"
	ReasonReceiptTimeout    Reason = "receipt_timeout"
	ReasonReverted          Reason = "reverted"
	ReasonInsufficientFunds Reason = "insufficient_funds"
	ReasonNonceConflict     Reason = "nonce_conflict"
	ReasonUnderpriced       Reason = "underpriced"
	ReasonRPCError          Reason = "rpc_error"
)

// ChainError is the single error type the ledger client returns for failed
// round trips.
//
// TxHash is set once a transaction has been broadcast. A broadcast transaction
// can still be included after the caller stopped waiting for it; such errors
// have ReasonReceiptTimeout, keep KindTransientNetwork, and report
// Retryable() == false because resending would mint twice.
type ChainError struct {
	Kind   Kind
	Reason Reason
	Method string
	TxHash common.Hash
	Err    error
}

// Error implements the error interface.
func (e *ChainError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "ledger %s [%s/%s]", e.Method, e.Kind, e.Reason)
	if e.Broadcast() {
		fmt.Fprintf(&b, " tx %s", e.TxHash.Hex())
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap supports error unwrapping.
func (e *ChainError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match chain errors against domain error codes.
func (e *ChainError) Is(target error) bool {
	t, ok := target.(*dErrors.Error)
	if !ok {
		return false
	}
	return t.Code == e.Code()
}

// Code maps the kind onto the shared domain error codes.
func (e *ChainError) Code() dErrors.Code {
	if e.Kind == KindExecutionRejected {
		return dErrors.CodeExecutionRejected
	}
	return dErrors.CodeTransientNetwork
}

// Broadcast reports whether a transaction left this process.
func (e *ChainError) Broadcast() bool {
	return e.TxHash != (common.Hash{})
}

// Retryable reports whether repeating the whole call is safe.
func (e *ChainError) Retryable() bool {
	return e.Kind == KindTransientNetwork && !e.Broadcast()
}

// IsTransient reports whether err is a transient network ChainError.
func IsTransient(err error) bool {
	var ce *ChainError
	return errors.As(err, &ce) && ce.Kind == KindTransientNetwork
}

// IsRejected reports whether err is a ledger-level rejection.
func IsRejected(err error) bool {
	var ce *ChainError
	return errors.As(err, &ce) && ce.Kind == KindExecutionRejected
}

// IsRetryable reports whether err is a ChainError that is safe to retry.
func IsRetryable(err error) bool {
	var ce *ChainError
	return errors.As(err, &ce) && ce.Retryable()
}

// rejection markers are matched against JSON-RPC error messages; nodes return
// these as plain text so this is the one place message matching happens.
var rejectionMarkers = []struct {
	marker string
	reason Reason
}{
	{"execution reverted", ReasonReverted},
	{"insufficient funds", ReasonInsufficientFunds},
	{"nonce too low", ReasonNonceConflict},
	{"nonce too high", ReasonNonceConflict},
	{"already known", ReasonNonceConflict},
	{"replacement transaction underpriced", ReasonUnderpriced},
	{"transaction underpriced", ReasonUnderpriced},
	{"max fee per gas less than block base fee", ReasonUnderpriced},
	{"gas tip cap", ReasonUnderpriced},
	{"intrinsic gas too low", ReasonReverted},
	{"gas required exceeds allowance", ReasonReverted},
}

// classify turns a raw RPC or transport error into a ChainError.
func classify(method string, err error) *ChainError {
	if err == nil {
		return nil
	}
	var existing *ChainError
	if errors.As(err, &existing) {
		return existing
	}

	wrap := func(kind Kind, reason Reason) *ChainError {
		return &ChainError{Kind: kind, Reason: reason, Method: method, Err: err}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return wrap(KindTransientNetwork, ReasonTimeout)
	}

	var httpErr rpc.HTTPError
	if errors.As(err, &httpErr) {
		switch {
		case httpErr.StatusCode == http.StatusTooManyRequests:
			return wrap(KindTransientNetwork, ReasonRateLimited)
		case httpErr.StatusCode >= 500, httpErr.StatusCode == http.StatusRequestTimeout:
			return wrap(KindTransientNetwork, ReasonUnreachable)
		}
		return wrap(KindExecutionRejected, ReasonRPCError)
	}

	msg := strings.ToLower(err.Error())
	for _, m := range rejectionMarkers {
		if strings.Contains(msg, m.marker) {
			return wrap(KindExecutionRejected, m.reason)
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return wrap(KindTransientNetwork, ReasonTimeout)
		}
		return wrap(KindTransientNetwork, ReasonUnreachable)
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return wrap(KindTransientNetwork, ReasonUnreachable)
	}

	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return wrap(KindExecutionRejected, ReasonRPCError)
	}

	// Unknown transport failures are treated as network trouble: reads retry,
	// writes surface them without resending.
	return wrap(KindTransientNetwork, ReasonUnreachable)
}

// refusedBeforeSend reports whether err proves a request never reached the node.
// Anything else may have been accepted before the transport failed.
func refusedBeforeSend(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}
	var httpErr rpc.HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusTooManyRequests
}
