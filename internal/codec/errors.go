// Package codec provides error conversion utilities for mapping provider HTTP
// failures onto the canonical generation error taxonomy.
package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/agutierrezreginodev/potencia-agenda/internal/domain"
)

// errorEnvelope matches the {"error": {...}} body shared by the Gemini,
// OpenAI and Anthropic APIs.
type errorEnvelope struct {
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Status  string `json:"status"`
		Code    any    `json:"code"`
	} `json:"error"`
}

// ErrorMessage extracts error.message from a provider error body.
// ok is false when the body is not a recognised error document.
func ErrorMessage(body []byte) (message string, ok bool) {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return "", false
	}
	if env.Error == nil || env.Error.Message == "" {
		return "", false
	}
	return env.Error.Message, true
}

// ClassifyHTTPError maps a non-2xx provider response onto the taxonomy.
// body may be nil or unparseable, in which case the message carries only the status.
func ClassifyHTTPError(provider string, status int, body []byte) *domain.GenerationError {
	message, ok := ErrorMessage(body)
	if !ok {
		message = ""
	}
	return Classify(provider, status, message)
}

// Classify maps an HTTP status and an optional provider message onto the taxonomy.
func Classify(provider string, status int, message string) *domain.GenerationError {
	kind := detectErrorKind(status, message)

	var text string
	switch {
	case message == "":
		text = fmt.Sprintf("%s error: %d", provider, status)
	case kind == domain.ErrorKindUnknownProvider:
		text = fmt.Sprintf("%s error (%d): %s", provider, status, message)
	default:
		text = message
	}

	return domain.NewGenerationError(kind, text).
		WithStatusCode(status).
		WithProvider(provider)
}

// detectErrorKind applies status rules first and message wording second.
func detectErrorKind(status int, message string) domain.ErrorKind {
	msgLower := strings.ToLower(message)

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.ErrorKindInvalidCredentials
	case http.StatusTooManyRequests:
		return domain.ErrorKindQuotaExceeded
	case http.StatusNotFound, http.StatusServiceUnavailable, 529:
		return domain.ErrorKindModelUnavailable
	}

	switch {
	case strings.Contains(msgLower, "api key") ||
		strings.Contains(msgLower, "api_key") ||
		strings.Contains(msgLower, "authentication") ||
		strings.Contains(msgLower, "unauthorized"):
		return domain.ErrorKindInvalidCredentials

	case strings.Contains(msgLower, "quota") ||
		strings.Contains(msgLower, "rate limit") ||
		strings.Contains(msgLower, "resource_exhausted") ||
		strings.Contains(msgLower, "resource has been exhausted"):
		return domain.ErrorKindQuotaExceeded

	case strings.Contains(msgLower, "not found") ||
		strings.Contains(msgLower, "does not exist") ||
		strings.Contains(msgLower, "overloaded") ||
		strings.Contains(msgLower, "unavailable") ||
		strings.Contains(msgLower, "not supported"):
		return domain.ErrorKindModelUnavailable
	}

	return domain.ErrorKindUnknownProvider
}

// ToGenerationError converts any error to a *domain.GenerationError.
// If the error already is one, it is returned directly; otherwise it is
// wrapped as an unknown provider error.
func ToGenerationError(provider string, err error) *domain.GenerationError {
	if genErr, ok := domain.AsGenerationError(err); ok {
		return genErr
	}
	return domain.ErrUnknownProvider(err.Error()).WithProvider(provider).WithCause(err)
}

// IsTransportTimeout reports whether err is a client-side deadline.
func IsTransportTimeout(err error) bool {
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}
