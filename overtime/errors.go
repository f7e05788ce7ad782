package overtime

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// SENTINEL ERRORS
// =============================================================================

var (
	// ErrConfigurationInvalid marks a band set that fails Validate.
	ErrConfigurationInvalid = errors.New("configuration invalid")

	// ErrRuleNotApplicable marks a configuration that cannot be used for a request.
	// No breakdown is computed in that case.
	ErrRuleNotApplicable = errors.New("rule not applicable")

	// ErrMalformedInterval marks a request interval rejected before calculation.
	ErrMalformedInterval = errors.New("malformed interval")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// ConfigurationInvalidError carries every validation issue found.
type ConfigurationInvalidError struct {
	Name   string
	Issues []Issue
}

func (e *ConfigurationInvalidError) Error() string {
	msgs := make([]string, len(e.Issues))
	for i, is := range e.Issues {
		msgs[i] = is.Message
	}
	return fmt.Sprintf("invalid overtime sequence in configuration %q: %s", e.Name, strings.Join(msgs, "; "))
}

func (e *ConfigurationInvalidError) Unwrap() error {
	return ErrConfigurationInvalid
}

// NotApplicableError carries the user-facing reason a rule was not applied.
type NotApplicableError struct {
	Reason string
}

func (e *NotApplicableError) Error() string {
	return "rule not applicable: " + e.Reason
}

func (e *NotApplicableError) Unwrap() error {
	return ErrRuleNotApplicable
}

// MalformedIntervalError describes a rejected start/end pair.
type MalformedIntervalError struct {
	Start  time.Time
	End    time.Time
	Reason string
}

func (e *MalformedIntervalError) Error() string {
	return fmt.Sprintf("malformed interval [%s, %s]: %s",
		e.Start.Format(time.RFC3339), e.End.Format(time.RFC3339), e.Reason)
}

func (e *MalformedIntervalError) Unwrap() error {
	return ErrMalformedInterval
}

// IsRuleError reports whether err is one of the calculation rule errors.
func IsRuleError(err error) bool {
	return errors.Is(err, ErrConfigurationInvalid) ||
		errors.Is(err, ErrRuleNotApplicable) ||
		errors.Is(err, ErrMalformedInterval)
}
