package epidemic

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidConfiguration indicates parameters that cannot be used as given.
	ErrInvalidConfiguration = errors.New("epidemic: invalid configuration")

	// ErrInvalidStep indicates a negative or non-finite time step.
	ErrInvalidStep = errors.New("epidemic: invalid time step")
)

// ConfigError describes a single rejected or adjusted parameter.
// When Adjusted is true the value was clamped to Used and the operation
// went ahead with it.
type ConfigError struct {
	Field    string
	Value    float64
	Used     float64
	Adjusted bool
	Reason   string
}

func (e *ConfigError) Error() string {
	if e.Adjusted {
		return fmt.Sprintf("epidemic: %s=%g %s, using %g", e.Field, e.Value, e.Reason, e.Used)
	}
	return fmt.Sprintf("epidemic: %s=%g %s", e.Field, e.Value, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfiguration
}

// IsAdjustment reports whether err consists only of clamped parameters,
// i.e. the operation that returned it still completed.
func IsAdjustment(err error) bool {
	switch e := err.(type) {
	case nil:
		return false
	case *ConfigError:
		return e.Adjusted
	case interface{ Unwrap() []error }:
		errs := e.Unwrap()
		if len(errs) == 0 {
			return false
		}
		for _, inner := range errs {
			if !IsAdjustment(inner) {
				return false
			}
		}
		return true
	case interface{ Unwrap() error }:
		return IsAdjustment(e.Unwrap())
	}
	return false
}

func rejected(field string, value float64, reason string) *ConfigError {
	return &ConfigError{Field: field, Value: value, Reason: reason}
}

func adjusted(field string, value, used float64, reason string) *ConfigError {
	return &ConfigError{Field: field, Value: value, Used: used, Adjusted: true, Reason: reason}
}
