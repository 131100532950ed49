package config

import "fmt"

// ConfigError is a fatal configuration fault tied to one setting. It is
// surfaced to the operator verbatim, so Reason must name the expected shape
// (cardinality, range, format) of the offending value.
type ConfigError struct {
	Setting string
	Reason  string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Setting, e.Reason)
}

// Errorf builds a ConfigError with a formatted reason.
func Errorf(setting, format string, args ...any) *ConfigError {
	return &ConfigError{Setting: setting, Reason: fmt.Sprintf(format, args...)}
}
