package client

import (
	"errors"
	"fmt"
)

// ErrorCategory defines the normalized failure taxonomy for course source
// errors.
//
// All source implementations should use these categories to classify
// failures, allowing the lookup pipeline to make consistent retry and
// fallback decisions regardless of the underlying protocol or API.
type ErrorCategory string

const (
	// ErrorTimeout indicates the source took too long to respond
	ErrorTimeout ErrorCategory = "timeout"

	// ErrorBadData indicates the source rejected the request or returned
	// invalid data
	ErrorBadData ErrorCategory = "bad_data"

	// ErrorAuthentication indicates credential or permission issues
	ErrorAuthentication ErrorCategory = "authentication"

	// ErrorSourceOutage indicates the source is unavailable
	ErrorSourceOutage ErrorCategory = "source_outage"

	// ErrorContractMismatch indicates the source API shape changed
	ErrorContractMismatch ErrorCategory = "contract_mismatch"

	// ErrorNotFound indicates the requested course doesn't exist
	ErrorNotFound ErrorCategory = "not_found"

	// ErrorRateLimited indicates too many requests
	ErrorRateLimited ErrorCategory = "rate_limited"

	// ErrorInternal indicates an unexpected internal error
	ErrorInternal ErrorCategory = "internal"
)

// SourceError wraps course source failures with normalized categorization.
//
// This structured error type allows the pipeline and service layers to make
// informed decisions about retries, fallbacks, and error translation without
// inspecting raw error messages or coupling to specific source
// implementations.
type SourceError struct {
	Category   ErrorCategory
	SourceID   string
	Message    string
	Underlying error
	Retryable  bool // Automatically set based on Category (timeout, outage, rate-limited → true)
}

// Error implements the error interface
func (e *SourceError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("source %s [%s]: %s: %v", e.SourceID, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("source %s [%s]: %s", e.SourceID, e.Category, e.Message)
}

// Unwrap supports error unwrapping
func (e *SourceError) Unwrap() error {
	return e.Underlying
}

// NewSourceError creates a new normalized source error with automatic retry
// classification.
//
// The Retryable flag is automatically set to true for transient failures
// (timeout, outage, rate-limited) and false for permanent failures (bad
// data, not found, auth, contract mismatch). Source implementations should
// use this constructor to ensure consistent error handling.
func NewSourceError(category ErrorCategory, sourceID, message string, underlying error) *SourceError {
	retryable := category == ErrorTimeout ||
		category == ErrorSourceOutage ||
		category == ErrorRateLimited

	return &SourceError{
		Category:   category,
		SourceID:   sourceID,
		Message:    message,
		Underlying: underlying,
		Retryable:  retryable,
	}
}

// IsRetryable checks if an error is worth retrying
func IsRetryable(err error) bool {
	var se *SourceError
	if errors.As(err, &se) {
		return se.Retryable
	}
	return false
}

// IsNotFound checks if an error is an authoritative "course does not exist"
// answer rather than an infrastructure failure.
func IsNotFound(err error) bool {
	var se *SourceError
	if errors.As(err, &se) {
		return se.Category == ErrorNotFound
	}
	return false
}

// GetCategory extracts the error category from an error
func GetCategory(err error) ErrorCategory {
	var se *SourceError
	if errors.As(err, &se) {
		return se.Category
	}
	return ErrorInternal
}

// Sentinel errors for pipeline-level failures. These are distinct from
// SourceError which wraps individual source failures. Use errors.Is() to
// check for these conditions.
var (
	ErrNoSources        = errors.New("no course sources configured")
	ErrAllSourcesFailed = errors.New("all course sources failed")
)
