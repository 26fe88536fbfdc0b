package hanabi

import "errors"

var (
	// ErrMalformedInput is returned when a request line, header, query or form body cannot be parsed
	ErrMalformedInput = errors.New("malformed input")
	// ErrPolicyDenied is returned when a cross-origin request violates the CORS policy
	ErrPolicyDenied = errors.New("policy denied")
	// ErrNotFound is returned when a path or record does not exist
	ErrNotFound = errors.New("not found")
	// ErrCredential is returned when a login does not match any stored credential
	ErrCredential = errors.New("credential failure")
	// ErrTooLarge is returned when a request head or body exceeds the configured limits
	ErrTooLarge = errors.New("entity too large")
	// ErrRateLimited is returned when a client exceeds its login attempt budget
	ErrRateLimited = errors.New("rate limited")
	// ErrInternal is returned when an internal error occurs
	ErrInternal = errors.New("internal error")
)
