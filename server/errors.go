package server

import (
	"errors"
	"net/http"

	"github.com/hanabi-drive/hanabi"
)

// StatusFor maps an error from parsing or dispatch to the status code sent to the client.
// hanabi.ErrCredential has no case of its own: a failed login is a 500.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, hanabi.ErrMalformedInput):
		return http.StatusBadRequest
	case errors.Is(err, hanabi.ErrPolicyDenied):
		return http.StatusForbidden
	case errors.Is(err, hanabi.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, hanabi.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, hanabi.ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
