package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingAssessedValue is returned when scoring is requested without a
	// positive assessed value.
	ErrMissingAssessedValue = errors.New("property details with assessed value required")

	// ErrInvalidAddress is returned when an address has no street.
	ErrInvalidAddress = errors.New("street address is required")

	// ErrCacheUnavailable wraps failures of the durable cache store.
	ErrCacheUnavailable = errors.New("cache store unavailable")
)

// maxErrorBody caps how much of a provider response body is kept on errors.
const maxErrorBody = 200

// ProviderError is a transport or non-2xx failure from a data provider.
// StatusCode is zero when the request never produced a response.
type ProviderError struct {
	Provider   DataSource
	StatusCode int
	Body       string
	Err        error
}

// NewStatusError builds a ProviderError for a non-2xx response, keeping at
// most the first 200 characters of the body.
func NewStatusError(provider DataSource, status int, body []byte) *ProviderError {
	return &ProviderError{
		Provider:   provider,
		StatusCode: status,
		Body:       truncate(string(body), maxErrorBody),
	}
}

func (e *ProviderError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s request failed: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("%s returned %d: %s", e.Provider, e.StatusCode, e.Body)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
