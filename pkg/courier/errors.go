package courier

import (
	"errors"
	"fmt"
)

// ErrorKind classifies provider failures into the closed set the core logic
// branches on. Free-text provider messages are mapped to a kind at the
// integration boundary and never inspected above it.
type ErrorKind string

const (
	// KindConfigurationMissing means the provider credential is absent.
	KindConfigurationMissing ErrorKind = "configuration_missing"

	// KindLocationNotFound means the destination could not be resolved and
	// no postal code was supplied to fall back on.
	KindLocationNotFound ErrorKind = "location_not_found"

	// KindProviderUnavailable covers timeouts, 5xx responses and malformed
	// payloads: quoting degrades, booking retries once.
	KindProviderUnavailable ErrorKind = "provider_unavailable"

	// KindCourierUnavailable means the chosen courier cannot service the
	// origin or route. Booking is demoted to a manual task, never failed.
	KindCourierUnavailable ErrorKind = "courier_unavailable"

	// KindPersistence covers cache-write and order-update failures.
	KindPersistence ErrorKind = "persistence"

	// KindUnknown is everything else.
	KindUnknown ErrorKind = "unknown"
)

// ProviderError is a classified error from a shipping provider.
type ProviderError struct {
	Provider   string
	Kind       ErrorKind
	Code       string
	Message    string
	StatusCode int
	Cause      error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s error (%s/%s): %s: %v", e.Provider, e.Kind, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s error (%s/%s): %s", e.Provider, e.Kind, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// Is matches two ProviderErrors by kind.
func (e *ProviderError) Is(target error) bool {
	t, ok := target.(*ProviderError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// NewProviderError creates a new classified provider error.
func NewProviderError(provider string, kind ErrorKind, code, message string) *ProviderError {
	return &ProviderError{
		Provider: provider,
		Kind:     kind,
		Code:     code,
		Message:  message,
	}
}

// WithCause adds a cause to the error.
func (e *ProviderError) WithCause(err error) *ProviderError {
	e.Cause = err
	return e
}

// WithStatusCode adds an HTTP status code to the error.
func (e *ProviderError) WithStatusCode(code int) *ProviderError {
	e.StatusCode = code
	return e
}

// Sentinel errors for common scenarios.
var (
	// ErrAreaNotFound indicates area resolution produced no candidate.
	// Resolution is best-effort, so callers treat this as non-fatal.
	ErrAreaNotFound = errors.New("area not found")

	// ErrNotConfigured indicates the provider credential is absent.
	ErrNotConfigured = errors.New("provider not configured")

	// ErrLocationNotFound indicates the destination cannot be identified at
	// all: no resolvable area and no postal code.
	ErrLocationNotFound = errors.New("destination location not found")
)

// KindOf extracts the error kind, defaulting to KindUnknown.
func KindOf(err error) ErrorKind {
	var provErr *ProviderError
	if errors.As(err, &provErr) {
		return provErr.Kind
	}
	switch {
	case errors.Is(err, ErrNotConfigured):
		return KindConfigurationMissing
	case errors.Is(err, ErrLocationNotFound):
		return KindLocationNotFound
	case errors.Is(err, ErrAreaNotFound):
		return KindLocationNotFound
	}
	return KindUnknown
}

// IsCourierUnavailable reports whether err is the provider rejection class
// meaning the chosen courier cannot service the origin or route.
func IsCourierUnavailable(err error) bool {
	return KindOf(err) == KindCourierUnavailable
}

// IsRetryableBooking reports whether a booking rejection is worth a single
// retry with the alternate delivery mode. Route unavailability is excluded:
// changing the delivery mode cannot fix a route the courier does not serve.
func IsRetryableBooking(err error) bool {
	switch KindOf(err) {
	case KindCourierUnavailable, KindConfigurationMissing:
		return false
	}
	return true
}
