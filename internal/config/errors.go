package config

import "fmt"

// ConfigError reports invalid caller input detected before any fetching
// begins. Flag names the offending flag or file when there is one.
type ConfigError struct {
	Err    error
	Flag   string
	Reason string
}

func (e *ConfigError) Error() string {
	msg := e.Reason
	if e.Err != nil {
		if msg == "" {
			msg = e.Err.Error()
		} else {
			msg = msg + ": " + e.Err.Error()
		}
	}
	if e.Flag == "" {
		return msg
	}
	return fmt.Sprintf("%s: %s", e.Flag, msg)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func configErr(flag, format string, args ...any) *ConfigError {
	return &ConfigError{Flag: flag, Reason: fmt.Sprintf(format, args...)}
}
