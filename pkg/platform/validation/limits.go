package validation

import (
	"fmt"

	dErrors "prism/pkg/domain-errors"
)

// Intake payload limits.
const (
	// MaxMessageSize bounds a single intake message value.
	MaxMessageSize = 64 * 1024

	// MaxSessionIDLength bounds the session identifier folded into a commitment.
	MaxSessionIDLength = 256
)

// CheckSize validates that a payload does not exceed max bytes.
func CheckSize(fieldName string, size, max int) error {
	if size > max {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s too large: %d bytes, max %d", fieldName, size, max))
	}
	return nil
}

// CheckStringLength validates that a string does not exceed the maximum length.
func CheckStringLength(fieldName, value string, max int) error {
	if len(value) > max {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s exceeds max length of %d", fieldName, max))
	}
	return nil
}
