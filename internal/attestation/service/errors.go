package service

import (
	"errors"
	"fmt"

	"prism/internal/attestation/models"
	"prism/internal/ledger"
)

// StepError reports which ledger round trip aborted a workflow.
//
// Revoked is true when a revoke for the same wallet already landed earlier in
// the call: the wallet may then hold no live attestation at all, which is
// different from both "never attested" and "re-attested".
type StepError struct {
	Step    models.Step
	Revoked bool
	Err     error
}

func (e *StepError) Error() string {
	if e.Revoked {
		return fmt.Sprintf("%s failed after revoke landed: %v", e.Step, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// FailedStep returns the step a workflow error happened in.
func FailedStep(err error) (models.Step, bool) {
	var se *StepError
	if errors.As(err, &se) {
		return se.Step, true
	}
	return "", false
}

// RevokedBeforeFailure reports whether err came from a workflow that had
// already revoked the wallet's previous attestation.
func RevokedBeforeFailure(err error) bool {
	var se *StepError
	return errors.As(err, &se) && se.Revoked
}

func asChainError(err error) (*ledger.ChainError, bool) {
	var ce *ledger.ChainError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
