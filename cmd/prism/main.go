package main

import (
	"fmt"
	"os"

	dErrors "prism/pkg/domain-errors"
)

// main runs the prism CLI. Workflow failures map to distinct exit codes so
// scripts can tell caller, operator and ledger problems apart.
func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeValidation:
		return 2
	case dErrors.CodeConfiguration:
		return 3
	case dErrors.CodeTransientNetwork:
		return 4
	case dErrors.CodeExecutionRejected:
		return 5
	default:
		return 1
	}
}
