package engine

import (
	"strconv"
)

// NullParameterError is returned when a required argument is nil.
type NullParameterError struct {
	Index int
	Role  string
}

func (e *NullParameterError) Error() string {
	return e.Role + " parameter " + strconv.Itoa(e.Index) + " was null"
}

// ConfigError reports a contract that cannot be served as declared.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string {
	return e.Msg
}

// ExpandError reports an expander that rejected an argument.
type ExpandError struct {
	Index int
	Err   error
}

func (e *ExpandError) Error() string {
	return "expand argument " + strconv.Itoa(e.Index) + ": " + e.Err.Error()
}

func (e *ExpandError) Unwrap() error {
	return e.Err
}
