package config

import "fmt"

// ConfigError reports a malformed or out-of-range configuration parameter.
// Absent parameters fall back to defaults and are never an error; only
// values that are present but unusable reach this type.
type ConfigError struct {
	Key   string
	Cause error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration: %s: %v", e.Key, e.Cause)
}

func (e *ConfigError) Unwrap() error {
	return e.Cause
}
