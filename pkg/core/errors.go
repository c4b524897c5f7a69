package core

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/pkg/errors"
)

type (
	// ConfigurationError signals that mutually exclusive or out-of-range
	// options were supplied together when constructing a resource.
	ConfigurationError struct {
		Construct ResourceId
		Cause     error
	}

	// ValidationError signals a malformed argument value.
	ValidationError struct {
		Construct ResourceId
		Cause     error
	}

	// StateError signals an operation that requires a prerequisite which was
	// never established on the construct.
	StateError struct {
		Construct ResourceId
		Cause     error
	}
)

var errorColour = color.New(color.FgRed)

func NewConfigurationError(construct BaseConstruct, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Construct: construct.Id(), Cause: errors.Errorf(format, args...)}
}

func (err *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration conflict on %s: %v", err.Construct, err.Cause)
}

func (err *ConfigurationError) Unwrap() error { return err.Cause }

func NewValidationError(construct BaseConstruct, format string, args ...any) *ValidationError {
	return &ValidationError{Construct: construct.Id(), Cause: errors.Errorf(format, args...)}
}

func (err *ValidationError) Error() string {
	return fmt.Sprintf("invalid value on %s: %v", err.Construct, err.Cause)
}

func (err *ValidationError) Unwrap() error { return err.Cause }

func NewStateError(construct BaseConstruct, format string, args ...any) *StateError {
	return &StateError{Construct: construct.Id(), Cause: errors.Errorf(format, args...)}
}

func (err *StateError) Error() string {
	return fmt.Sprintf("missing prerequisite on %s: %v", err.Construct, err.Cause)
}

func (err *StateError) Unwrap() error { return err.Cause }

// ErrorString renders err for terminal display.
func ErrorString(err error) string {
	return errorColour.Sprint(err.Error())
}
