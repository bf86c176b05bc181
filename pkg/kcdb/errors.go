package kcdb

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors. Use errors.Is to classify a failure returned by this package.
var (
	// ErrValidation indicates invalid caller input detected before any request was sent.
	ErrValidation = errors.New("validation failed")

	// ErrClientError indicates the KCDB server answered with a 4xx status.
	ErrClientError = errors.New("client error")

	// ErrServerError indicates the KCDB server answered with a 5xx status.
	ErrServerError = errors.New("server error")

	// ErrTimeout indicates no reply arrived within the configured timeout.
	ErrTimeout = errors.New("timeout")

	// ErrNotFound indicates a lookup over reference data found no match.
	ErrNotFound = errors.New("not found")

	// ErrMalformedResponse indicates a response body that is not shaped as documented.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrUnexpectedResponse indicates an error response for an id that is not known to produce one.
	ErrUnexpectedResponse = errors.New("unexpected response")

	// ErrCircuitOpen indicates the circuit breaker rejected the request without sending it.
	ErrCircuitOpen = errors.New("circuit breaker open")
)

// ValidationError represents an invalid request parameter.
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// HTTPError is returned by Response.RaiseForStatus for 4xx and 5xx replies.
type HTTPError struct {
	StatusCode int    `json:"status_code"`
	Reason     string `json:"reason"`
	URL        string `json:"url"`
}

func (e *HTTPError) kind() string {
	if e.StatusCode >= 500 {
		return "Server"
	}
	return "Client"
}

// Error implements the error interface
func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s Error %d: reason=%q, url=%q", e.kind(), e.StatusCode, e.Reason, e.URL)
}

func (e *HTTPError) Unwrap() error {
	if e.StatusCode >= 500 {
		return ErrServerError
	}
	return ErrClientError
}

// TimeoutError reports a request that received no reply within Timeout.
type TimeoutError struct {
	Timeout time.Duration
	URL     string
	Err     error
}

// Error implements the error interface
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("no reply from KCDB server after %s (url=%q)", e.Timeout, e.URL)
}

func (e *TimeoutError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrTimeout}
	}
	return []error{ErrTimeout, e.Err}
}
