// Package domain provides the canonical types shared by the guide generation pipeline.
package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind represents the category of a generation failure.
type ErrorKind string

const (
	// ErrorKindValidation indicates the client request was rejected before any network call.
	ErrorKindValidation ErrorKind = "validation_error"

	// ErrorKindTimeout indicates the provider call exceeded its deadline.
	ErrorKindTimeout ErrorKind = "timeout"

	// ErrorKindInvalidCredentials indicates the provider rejected the configured credential.
	ErrorKindInvalidCredentials ErrorKind = "invalid_credentials"

	// ErrorKindQuotaExceeded indicates the provider quota or rate limit was hit.
	ErrorKindQuotaExceeded ErrorKind = "quota_exceeded"

	// ErrorKindModelUnavailable indicates the model was not found or the provider is unavailable.
	ErrorKindModelUnavailable ErrorKind = "model_unavailable"

	// ErrorKindInvalidModelOutput indicates an empty or unparseable provider answer.
	ErrorKindInvalidModelOutput ErrorKind = "invalid_model_output"

	// ErrorKindUnknownProvider indicates an HTTP/provider error not otherwise classified.
	ErrorKindUnknownProvider ErrorKind = "unknown_provider_error"
)

// GenerationError is the canonical error returned by providers and parsers and
// surfaced to callers inside a Failure outcome.
type GenerationError struct {
	// Kind is the category of failure
	Kind ErrorKind `json:"kind"`

	// Message is the human-readable error message
	Message string `json:"message"`

	// StatusCode is the upstream HTTP status, when the failure came from a provider response
	StatusCode int `json:"-"`

	// Provider names the variant that produced the error (for logs)
	Provider string `json:"-"`

	cause error
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("%s (%s): %s", e.Kind, e.Provider, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *GenerationError) Unwrap() error {
	return e.cause
}

// HTTPStatusCode returns the status a handler should answer with for this error.
func (e *GenerationError) HTTPStatusCode() int {
	switch e.Kind {
	case ErrorKindValidation:
		return http.StatusBadRequest
	case ErrorKindTimeout:
		return http.StatusGatewayTimeout
	case ErrorKindQuotaExceeded:
		return http.StatusTooManyRequests
	case ErrorKindModelUnavailable:
		return http.StatusServiceUnavailable
	case ErrorKindInvalidCredentials, ErrorKindInvalidModelOutput, ErrorKindUnknownProvider:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// UsageStatus maps the error kind onto the audit status vocabulary.
func (e *GenerationError) UsageStatus() UsageStatus {
	if e.Kind == ErrorKindTimeout {
		return UsageStatusTimeout
	}
	return UsageStatusError
}

// NewGenerationError creates a new generation error.
func NewGenerationError(kind ErrorKind, message string) *GenerationError {
	return &GenerationError{
		Kind:    kind,
		Message: message,
	}
}

// WithStatusCode records the upstream HTTP status.
func (e *GenerationError) WithStatusCode(code int) *GenerationError {
	e.StatusCode = code
	return e
}

// WithProvider records the provider variant name.
func (e *GenerationError) WithProvider(name string) *GenerationError {
	e.Provider = name
	return e
}

// WithCause attaches the underlying error so errors.Is/As can see through it.
func (e *GenerationError) WithCause(err error) *GenerationError {
	e.cause = err
	return e
}

// AsGenerationError extracts a *GenerationError from err's chain.
func AsGenerationError(err error) (*GenerationError, bool) {
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return genErr, true
	}
	return nil, false
}

// Convenience constructors for common errors

// ErrValidation creates a validation error.
func ErrValidation(message string) *GenerationError {
	return NewGenerationError(ErrorKindValidation, message)
}

// ErrTimeout creates a timeout error.
func ErrTimeout(message string) *GenerationError {
	return NewGenerationError(ErrorKindTimeout, message)
}

// ErrInvalidCredentials creates an invalid credentials error.
func ErrInvalidCredentials(message string) *GenerationError {
	return NewGenerationError(ErrorKindInvalidCredentials, message)
}

// ErrQuotaExceeded creates a quota exceeded error.
func ErrQuotaExceeded(message string) *GenerationError {
	return NewGenerationError(ErrorKindQuotaExceeded, message)
}

// ErrModelUnavailable creates a model unavailable error.
func ErrModelUnavailable(message string) *GenerationError {
	return NewGenerationError(ErrorKindModelUnavailable, message)
}

// ErrInvalidModelOutput creates an invalid model output error.
func ErrInvalidModelOutput(message string) *GenerationError {
	return NewGenerationError(ErrorKindInvalidModelOutput, message)
}

// ErrUnknownProvider creates an unclassified provider error.
func ErrUnknownProvider(message string) *GenerationError {
	return NewGenerationError(ErrorKindUnknownProvider, message)
}
