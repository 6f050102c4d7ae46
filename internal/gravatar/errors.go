package gravatar

import (
	"errors"
	"fmt"
)

var ErrInvalidConfiguration = errors.New("invalid gravatar configuration")

// ConfigError reports which field rejected a value.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfiguration
}
