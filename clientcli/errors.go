package clientcli

import "errors"

// Errors for profile operations.
var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrNoProfiles      = errors.New("no profiles configured")
	ErrProfileExists   = errors.New("profile already exists")
)

// Errors for configuration validation.
var (
	ErrConfigRequired   = errors.New("config is required")
	ErrInvalidEndpoint  = errors.New("endpoint must be an http:// or https:// URL")
	ErrInvalidOrigin    = errors.New("origin must be an http:// or https:// URL without a path")
	ErrInvalidCookieKey = errors.New("cookie name is invalid")
)

// Errors for input validation.
var (
	ErrEmptyName     = errors.New("user name is required")
	ErrEmptyPassword = errors.New("password is required")
	ErrNoSession     = errors.New("no session")
)
