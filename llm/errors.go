package llm

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidModel is returned when the model lacks a provider prefix
	ErrInvalidModel = errors.New("model must include provider prefix (e.g. 'openai/gpt-4o', 'anthropic/claude-sonnet-4-20250514')")
	// ErrMissingAPIKey is returned when no key is configured for a provider that needs one
	ErrMissingAPIKey = errors.New("missing API key")
	// ErrUnknownProvider is returned for a provider prefix with no client
	ErrUnknownProvider = errors.New("unknown provider")
	// ErrMissingBaseURL is returned for providers that cannot work without an endpoint
	ErrMissingBaseURL = errors.New("missing base URL")
)

// APIError is a provider failure that carried an HTTP status
type APIError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: status %d: %v", e.Provider, e.StatusCode, e.Err)
}

func (e *APIError) Unwrap() error { return e.Err }

// Retryable reports whether the failure is worth another attempt: rate
// limiting and server side errors.
func (e *APIError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// IsRetryable reports whether err wraps a retryable APIError
func IsRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	return false
}

// wrapStatus wraps err as an APIError when status is known, otherwise it
// prefixes err with the provider name.
func wrapStatus(provider string, status int, err error) error {
	if status > 0 {
		return &APIError{Provider: provider, StatusCode: status, Err: err}
	}
	return fmt.Errorf("%s: %w", provider, err)
}
