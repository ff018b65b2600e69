package sph

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is wrapped by every configuration rejection.
	ErrInvalidConfig = errors.New("sph: invalid configuration")

	// ErrNonFinite reports a NaN or infinite position or velocity.
	ErrNonFinite = errors.New("sph: non-finite particle state")
)

// ConfigError names the configuration field that was rejected.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("sph: invalid configuration: %s %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrInvalidConfig }

// InstabilityError records the first particle found with a non-finite
// position or velocity.
type InstabilityError struct {
	Step  int
	Index int
	Field string // "position" or "velocity"
}

func (e *InstabilityError) Error() string {
	return fmt.Sprintf("sph: step %d: particle %d has non-finite %s", e.Step, e.Index, e.Field)
}

func (e *InstabilityError) Unwrap() error { return ErrNonFinite }
