package utils

import (
	"fmt"

	"github.com/pkg/errors"
)

// ConfigValidationError is returned when a configuration cannot be used. Path locates the
// offending section, e.g. "sensor" or "world.links.0".
type ConfigValidationError struct {
	Path string
	Err  error
}

func (e *ConfigValidationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("error validating config: %s", e.Err)
	}
	return fmt.Sprintf("error validating %q: %s", e.Path, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ConfigValidationError) Unwrap() error {
	return e.Err
}

// NewConfigValidationError returns an error specifying that a config at the given path is invalid.
func NewConfigValidationError(path string, err error) error {
	return &ConfigValidationError{Path: path, Err: err}
}

// NewConfigValidationFieldRequiredError returns an error specifying that the given field is
// required but was not set.
func NewConfigValidationFieldRequiredError(path, field string) error {
	return NewConfigValidationError(path, errors.Errorf("%q is required", field))
}

// IsConfigValidationError reports whether err, or anything it wraps, is a ConfigValidationError.
func IsConfigValidationError(err error) bool {
	var target *ConfigValidationError
	return errors.As(err, &target)
}

// NewUnexpectedTypeError is used when there is a type mismatch.
func NewUnexpectedTypeError(expected, actual interface{}) error {
	return errors.Errorf("expected %T but got %T", expected, actual)
}
