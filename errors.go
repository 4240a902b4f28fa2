package streamgo

import (
	"errors"
	"fmt"
)

// Common errors returned by streamgo operations.
var (
	// ErrClosed is returned when operating on a manager after Shutdown.
	ErrClosed = errors.New("streamgo: manager is closed")

	// ErrQueueFull is returned when the load queue cannot accept more requests.
	ErrQueueFull = errors.New("streamgo: load queue is full")

	// ErrPredictiveDisabled is returned by Preload when predictive
	// loading is not enabled in the configuration.
	ErrPredictiveDisabled = errors.New("streamgo: predictive loading disabled")
)

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("streamgo: invalid config field %q (value %v): %s", e.Field, e.Value, e.Message)
}

// LoadError wraps an error that occurred while loading a specific resource.
type LoadError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	return fmt.Sprintf("streamgo: load %q: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *LoadError) Unwrap() error {
	return e.Err
}
