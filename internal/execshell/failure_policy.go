package execshell

import (
	"fmt"
	"strings"
)

const unsupportedFailurePolicyTemplateConstant = "unsupported failure policy %q (expected %s or %s)"

// FailurePolicy decides which command results count as failures.
type FailurePolicy string

const (
	// FailurePolicyStandardError fails on a non-zero exit code or any standard error output.
	FailurePolicyStandardError FailurePolicy = "stderr"
	// FailurePolicyExitCode fails only on a non-zero exit code.
	FailurePolicyExitCode FailurePolicy = "exit_code"
)

// ParseFailurePolicy normalizes a configured policy value. Empty input selects FailurePolicyStandardError.
func ParseFailurePolicy(raw string) (FailurePolicy, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	switch normalized {
	case "", string(FailurePolicyStandardError):
		return FailurePolicyStandardError, nil
	case string(FailurePolicyExitCode), "exit-code":
		return FailurePolicyExitCode, nil
	default:
		return "", fmt.Errorf(unsupportedFailurePolicyTemplateConstant, raw, FailurePolicyStandardError, FailurePolicyExitCode)
	}
}

// FailsOnStandardError reports whether standard error output alone fails a command.
func (policy FailurePolicy) FailsOnStandardError() bool {
	return policy != FailurePolicyExitCode
}
