package auth

import (
	"slices"

	"github.com/hanabi-drive/hanabi/cookie"
	"github.com/hanabi-drive/hanabi/cors"
	"github.com/hanabi-drive/hanabi/wire"
)

// Config is the account service policy.
type Config struct {
	// CookieName names the session cookie.
	CookieName string
	// Cookie holds the attributes sent with every issued session cookie.
	Cookie cookie.Attributes
	// Simple applies to GET, POST, PUT and DELETE.
	Simple cors.Policy
	// Preflight applies to OPTIONS.
	Preflight cors.Policy
}

// DefaultOrigins are the development front-ends allowed to call the account service.
var DefaultOrigins = []string{
	"http://localhost:3000",
	"http://localhost:3001",
	"http://localhost:3002",
}

// DefaultConfig returns the policy the local front-ends expect: a tkn cookie that
// is Strict, Secure and Partitioned with a 183 second lifetime, and credentialed
// CORS for the local front-ends on POST and PUT.
func DefaultConfig() Config {
	methods := []wire.Method{wire.MethodPost, wire.MethodPut}
	return Config{
		CookieName: "tkn",
		Cookie: cookie.Attributes{
			SameSite:    cookie.SameSiteStrict,
			Secure:      true,
			Partitioned: true,
			MaxAge:      183,
		},
		Simple: cors.Policy{
			AllowedOrigins:   slices.Clone(DefaultOrigins),
			AllowedMethods:   slices.Clone(methods),
			AllowedHeaders:   []string{"content-type", "content-length", "set-cookie"},
			AllowCredentials: true,
		},
		Preflight: cors.Policy{
			AllowedOrigins:   slices.Clone(DefaultOrigins),
			AllowedMethods:   slices.Clone(methods),
			AllowedHeaders:   []string{"*"},
			AllowCredentials: true,
		},
	}
}
