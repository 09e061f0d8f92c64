package apperrors

import (
	"errors"
	"fmt"
)

// Error classes. Every error returned by the client wraps exactly one of these,
// so callers can branch with errors.Is without knowing the concrete type.
var (
	// ErrValidation indicates client-side input validation failed. No request was sent.
	ErrValidation = errors.New("validation failed")

	// ErrUnauthorized indicates the backend answered 401. The credential has already
	// been cleared by the gateway when this error reaches the caller.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound indicates the backend answered 404.
	ErrNotFound = errors.New("resource not found")

	// ErrServer indicates the backend answered with any other 4xx/5xx status.
	ErrServer = errors.New("server error")

	// ErrRejected indicates a 2xx response whose envelope reported success=false.
	ErrRejected = errors.New("request rejected")

	// ErrNetwork indicates the request never produced an HTTP response
	// (timeout, connection refused, DNS failure, ...).
	ErrNetwork = errors.New("network error")

	// ErrSuperseded indicates the response arrived after a newer response for the
	// same target had already been applied, so it was discarded.
	ErrSuperseded = errors.New("response superseded by a newer request")
)

// Session errors.
var (
	// ErrMissingCredential indicates a login response claimed success but carried no token.
	ErrMissingCredential = errors.New("login response did not include an access token")

	// ErrNotAuthenticated indicates the operation requires an authenticated session.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// Portfolio cache errors.
var (
	// ErrPortfolioNotFound indicates that a portfolio with the given ID is not in the cache.
	ErrPortfolioNotFound = errors.New("portfolio not found")

	// ErrItemNotFound indicates that an item with the given ID is not in the portfolio.
	ErrItemNotFound = errors.New("portfolio item not found")

	// ErrNoActivePortfolio indicates that no portfolio is currently selected.
	ErrNoActivePortfolio = errors.New("no active portfolio")
)

// Storage errors.
var (
	// ErrCredentialCorrupt indicates the persisted credential could not be decrypted.
	ErrCredentialCorrupt = errors.New("stored credential could not be decrypted")
)

// APIError is returned when the backend produced an HTTP response that is not a success.
// Kind is one of ErrUnauthorized, ErrNotFound, ErrServer or ErrRejected.
type APIError struct {
	Kind       error
	StatusCode int
	Message    string
	Method     string
	Path       string
	// Body holds the raw response body so callers can look for alternate payloads.
	Body []byte
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s: %s (status %d)", e.Method, e.Path, e.Kind, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: %s (status %d): %s", e.Method, e.Path, e.Kind, e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Kind
}

// NetworkError wraps a transport failure.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %s: %v", e.Method, e.Path, ErrNetwork, e.Err)
}

// Unwrap exposes both the class and the underlying transport error, so
// errors.Is(err, context.DeadlineExceeded) keeps working.
func (e *NetworkError) Unwrap() []error {
	return []error{ErrNetwork, e.Err}
}

// Message returns the most user-facing text for err: the server-provided message for
// API errors, otherwise err.Error().
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}
