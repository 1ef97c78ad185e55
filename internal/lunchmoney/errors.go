package lunchmoney

import (
	"errors"
	"fmt"
)

// ErrorKind classifies fetch-level failures. Record-level validation issues
// are handled by the normalizer and never reach this taxonomy.
type ErrorKind string

const (
	// ErrKindAuthentication is an invalid or expired API key. Surfaced
	// distinctly so the operator can re-enter credentials.
	ErrKindAuthentication ErrorKind = "authentication"
	// ErrKindConnectivity is a network failure, timeout, or upstream 5xx.
	ErrKindConnectivity ErrorKind = "connectivity"
	// ErrKindMalformedResponse means the request succeeded but the expected
	// asset data was absent or unshaped.
	ErrKindMalformedResponse ErrorKind = "malformed_response"
)

// APIError is a classified Lunch Money API failure.
type APIError struct {
	Kind       ErrorKind
	StatusCode int
	msg        string
	err        error
}

func (e *APIError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("lunchmoney: %s: %v", e.msg, e.err)
	}
	return "lunchmoney: " + e.msg
}

func (e *APIError) Unwrap() error { return e.err }

func newAPIError(kind ErrorKind, status int, msg string, err error) *APIError {
	return &APIError{Kind: kind, StatusCode: status, msg: msg, err: err}
}

// KindOf extracts the error kind from a fetch error. Unclassified errors
// (including context cancellation) are treated as connectivity failures.
func KindOf(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ErrKindConnectivity
}
