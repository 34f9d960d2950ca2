package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a failure by who can fix it and whether it is worth retrying.
// Codes are transport-agnostic: the CLI, the intake worker and the audit trail
// all branch on them without inspecting message text.
type Code string

const (
	// CodeValidation marks malformed or missing request fields. Caller-fixable, never retried.
	CodeValidation Code = "validation_failed"
	// CodeConfiguration marks missing signing key, contract address or RPC endpoint.
	// Operator-fixable, never retried.
	CodeConfiguration Code = "configuration"
	// CodeTransientNetwork marks an unreachable or slow ledger endpoint. Safe to retry with backoff.
	CodeTransientNetwork Code = "transient_network"
	// CodeExecutionRejected marks a ledger-level rejection (revert, funds, nonce).
	// Not safe to blindly retry the same transaction.
	CodeExecutionRejected Code = "execution_rejected"
	CodeNotFound          Code = "not_found"
	CodeInternal          Code = "internal_error"
)

// Error wraps domain or infrastructure failures with a stable code.
type Error struct {
	Code    Code
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		if e.Err != nil {
			return fmt.Sprintf("%s: %v", e.Message, e.Err)
		}
		return e.Message
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return string(e.Code)
}

// Unwrap implements error unwrapping for error chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is enables errors.Is() to match errors by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new domain error with the given code and message.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Newf creates a new domain error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Coder is implemented by error types from other packages that map onto a
// domain code, such as ledger chain errors.
type Coder interface {
	error
	Code() Code
}

// Wrap creates a new domain error wrapping an existing error.
// If the wrapped error already carries a code, the original code is preserved.
func Wrap(err error, code Code, msg string) error {
	if existing, ok := codeOf(err); ok {
		return &Error{Code: existing, Message: msg, Err: err}
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// HasCode checks if the outermost coded error in err's chain has the given code.
func HasCode(err error, code Code) bool {
	c, ok := codeOf(err)
	return ok && c == code
}

// CodeOf returns the outermost domain code in err's chain, or CodeInternal
// when err carries none.
func CodeOf(err error) Code {
	if c, ok := codeOf(err); ok {
		return c
	}
	return CodeInternal
}

func codeOf(err error) (Code, bool) {
	for err != nil {
		switch e := err.(type) {
		case *Error:
			return e.Code, true
		case Coder:
			return e.Code(), true
		}
		err = errors.Unwrap(err)
	}
	return "", false
}
