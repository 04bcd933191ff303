// Package errs defines the error taxonomy shared by the auto-fit components.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrStore matches any *StoreError via errors.Is
	ErrStore = errors.New("store error")

	// ErrConfiguration matches any *ConfigurationError via errors.Is
	ErrConfiguration = errors.New("configuration error")

	// ErrRunInProgress is returned when an auto-fit run is requested while another is still going
	ErrRunInProgress = errors.New("auto-fit run already in progress")
)

// StoreError wraps a repository read or write failure with the operation that failed.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store error during %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Is(target error) bool {
	return target == ErrStore
}

// Store wraps err as a *StoreError. A nil err stays nil.
func Store(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}

// ConfigurationError reports an invalid room range or working-hour range.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration for %s: %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// Configuration builds a *ConfigurationError
func Configuration(field, format string, args ...any) error {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
