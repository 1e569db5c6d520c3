// ABOUTME: Error types shared by the demand model, solver and capacity reporter
// ABOUTME: ConfigurationError is returned; solver failures are folded into results

package models

import (
	"errors"
	"fmt"
)

// ConfigurationError reports malformed or inconsistent static input.
// Retrying with the same input cannot succeed.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return "configuration error: " + e.Reason
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// IsConfigurationError reports whether err wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}

// ErrSolverFailure marks a solve that ended without a definitive verdict.
var ErrSolverFailure = errors.New("solver failure")

// ErrNumericInconsistency marks a solution that failed post-solve verification.
var ErrNumericInconsistency = errors.New("numeric inconsistency")
