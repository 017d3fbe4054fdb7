package rules

import (
	"errors"
	"fmt"
)

// ValidationError reports a structurally invalid action: occupied slot,
// wrong card type, missing card, unknown agent, out-of-range index, or an
// action outside the agent's turn.
type ValidationError struct {
	Op     ActionType
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Op == "" {
		return "invalid action: " + e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Op, e.Reason)
}

// ResourceError reports that an agent cannot pay a cost.
type ResourceError struct {
	Op       ActionType
	Resource string
	Need     int
	Have     int
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("%s: insufficient %s (need %d, have %d)", e.Op, e.Resource, e.Need, e.Have)
}

// StateInvariantError reports a broken conservation or bounds invariant.
// It indicates a defect in the engine and is only expected in tests.
type StateInvariantError struct {
	Check  string
	Detail string
}

func (e *StateInvariantError) Error() string {
	return fmt.Sprintf("state invariant %s violated: %s", e.Check, e.Detail)
}

// Invalid builds a ValidationError.
func Invalid(op ActionType, format string, args ...any) error {
	return &ValidationError{Op: op, Reason: fmt.Sprintf(format, args...)}
}

// Insufficient builds a ResourceError.
func Insufficient(op ActionType, resource string, need, have int) error {
	return &ResourceError{Op: op, Resource: resource, Need: need, Have: have}
}

// Broken builds a StateInvariantError.
func Broken(check, format string, args ...any) error {
	return &StateInvariantError{Check: check, Detail: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsResource reports whether err is (or wraps) a ResourceError.
func IsResource(err error) bool {
	var re *ResourceError
	return errors.As(err, &re)
}

// IsInvariant reports whether err is (or wraps) a StateInvariantError.
func IsInvariant(err error) bool {
	var se *StateInvariantError
	return errors.As(err, &se)
}

// Kind names the error class for transports that flatten errors to text.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case IsValidation(err):
		return "validation"
	case IsResource(err):
		return "resource"
	case IsInvariant(err):
		return "invariant"
	default:
		return "internal"
	}
}
