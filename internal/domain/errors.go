package domain

import (
	"errors"
	"fmt"
)

// ConfigError marks a valuation input the caller must fix. There are no
// transient failure modes inside the engine, so every typed error is fatal
// for the request that carried it.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "invalid pricing configuration: " + e.Reason
}

// NewConfigError creates a ConfigError with a formatted reason
func NewConfigError(format string, args ...interface{}) *ConfigError {
	return &ConfigError{Reason: fmt.Sprintf(format, args...)}
}

// IsConfigError reports whether err is (or wraps) a ConfigError
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
