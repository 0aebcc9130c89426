package scryfall

import (
	"errors"
	"fmt"
)

// Kinds of upstream failure.
const (
	KindTimeout   = "timeout"
	KindTransport = "transport"
	KindStatus    = "status"
	KindProvider  = "provider_error"
	KindDecode    = "decode"
	KindNotACard  = "not_a_card"
	KindRateLimit = "rate_limited"
)

// ErrUnavailable is the sentinel every APIError unwraps to.
var ErrUnavailable = errors.New("card provider unavailable")

// APIError describes one failed provider request.
type APIError struct {
	Kind       string
	StatusCode int
	Code       string // Scryfall error code, e.g. "not_found"
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("scryfall %s", e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *APIError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrUnavailable, e.Err}
	}
	return []error{ErrUnavailable}
}

// IsNotFound reports whether the provider found no card for the query.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && (apiErr.Code == "not_found" || apiErr.StatusCode == 404)
}
