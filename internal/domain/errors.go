package domain

import (
	"errors"
	"fmt"
)

// ValidationError marks an order event or request that cannot be applied.
// Events failing validation are logged and discarded, never surfaced.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid " + e.Field + ": " + e.Reason
}

// RiskRejection is returned when an order would breach the daily opening
// cap of its index-future class. The order must not be sent.
type RiskRejection struct {
	Code      string
	Class     string
	Attempted int64 // volume of the rejected order
	Current   int64 // opened + still-freezing volume of the class today
	Cap       int64
}

func (e *RiskRejection) Error() string {
	return fmt.Sprintf("risk rejected [daily opening cap] %s: order volume %d, opened %d, cap %d",
		e.Code, e.Attempted, e.Current, e.Cap)
}

// IsRiskRejection reports whether err is, or wraps, a RiskRejection.
func IsRiskRejection(err error) bool {
	var rr *RiskRejection
	return errors.As(err, &rr)
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return "config error [" + e.Field + "]: " + e.Err.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

var (
	// ErrNotReady is returned by decision queries before Init has completed.
	ErrNotReady = errors.New("reconciliation engine not initialized")

	// ErrAlreadyInitialized is returned when Init is called a second time.
	ErrAlreadyInitialized = errors.New("reconciliation engine already initialized")

	// ErrUnknownFlag is returned when an oc flag name cannot be parsed.
	ErrUnknownFlag = errors.New("unknown oc flag")

	// ErrConfigNotFound is returned when configuration file is missing
	ErrConfigNotFound = errors.New("configuration not found")

	// ErrSequencerStopped is returned to requests made after the sequencer loop exited
	ErrSequencerStopped = errors.New("sequencer stopped")
)
