// Package cors decides whether a cross-origin request may proceed and stamps the
// Access-Control-* response headers for the ones that may.
package cors

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hanabi-drive/hanabi"
	"github.com/hanabi-drive/hanabi/wire"
)

const wildcard = "*"

// Policy is a per-resource CORS configuration. An origin or header entry of "*"
// matches anything.
type Policy struct {
	AllowedOrigins   []string
	AllowedMethods   []wire.Method
	AllowedHeaders   []string
	AllowCredentials bool
	// MaxAge is the preflight cache lifetime in seconds; zero omits the header.
	MaxAge int
}

// Preflight evaluates an OPTIONS preflight request against p and stamps the allow
// headers on resp. A request without an Origin header is not cross-origin and passes
// untouched. A disallowed origin, requested method or requested header yields an error
// wrapping hanabi.ErrPolicyDenied.
func Preflight(req *wire.Request, resp *wire.Response, p Policy) error {
	origin := req.Headers.Get("Origin")
	if origin == "" {
		return nil
	}
	if !p.originAllowed(origin) {
		return denied("origin %q is not allowed", origin)
	}

	requestMethod := req.Headers.Get("Access-Control-Request-Method")
	if requestMethod == "" {
		return denied("preflight from %q names no method", origin)
	}
	method, err := wire.ParseMethod(requestMethod)
	if err != nil || !p.methodAllowed(method) {
		return denied("method %q is not allowed", requestMethod)
	}

	requestHeaders := req.Headers.List("Access-Control-Request-Headers")
	for _, h := range requestHeaders {
		if !p.headerAllowed(h) {
			return denied("header %q is not allowed", h)
		}
	}

	p.stampOrigin(resp, origin)
	resp.AddHeader("Vary", "Access-Control-Request-Method")
	resp.AddHeader("Vary", "Access-Control-Request-Headers")
	resp.AddHeader("Access-Control-Allow-Methods", p.methodList())
	if allowHeaders := p.allowHeaders(requestHeaders); allowHeaders != "" {
		resp.AddHeader("Access-Control-Allow-Headers", allowHeaders)
	}
	if p.MaxAge > 0 {
		resp.AddHeader("Access-Control-Max-Age", strconv.Itoa(p.MaxAge))
	}
	return nil
}

// Simple evaluates an actual (non-preflight) request against p and stamps the origin
// and exposed headers on resp. Only the origin is checked; the method was vetted by
// the preflight. Requests without an Origin header pass untouched.
func Simple(req *wire.Request, resp *wire.Response, p Policy) error {
	origin := req.Headers.Get("Origin")
	if origin == "" {
		return nil
	}
	if !p.originAllowed(origin) {
		return denied("origin %q is not allowed", origin)
	}

	p.stampOrigin(resp, origin)
	if expose := p.exposeHeaders(); expose != "" {
		resp.AddHeader("Access-Control-Expose-Headers", expose)
	}
	return nil
}

func denied(format string, args ...any) error {
	return fmt.Errorf("cors: %w: %s", hanabi.ErrPolicyDenied, fmt.Sprintf(format, args...))
}

// stampOrigin echoes the validated origin. "*" is only sent when any origin is allowed
// and credentials are off, since browsers reject a credentialed wildcard.
func (p Policy) stampOrigin(resp *wire.Response, origin string) {
	allowOrigin := origin
	if !p.AllowCredentials && contains(p.AllowedOrigins, wildcard) {
		allowOrigin = wildcard
	} else {
		resp.AddHeader("Vary", "Origin")
	}
	resp.AddHeader("Access-Control-Allow-Origin", allowOrigin)
	if p.AllowCredentials {
		resp.AddHeader("Access-Control-Allow-Credentials", "true")
	}
}

func (p Policy) originAllowed(origin string) bool {
	for _, o := range p.AllowedOrigins {
		if o == wildcard || o == origin {
			return true
		}
	}
	return false
}

func (p Policy) methodAllowed(m wire.Method) bool {
	for _, allowed := range p.AllowedMethods {
		if allowed == m {
			return true
		}
	}
	return false
}

func (p Policy) headerAllowed(name string) bool {
	for _, h := range p.AllowedHeaders {
		if h == wildcard || strings.EqualFold(h, name) {
			return true
		}
	}
	return false
}

func (p Policy) methodList() string {
	names := make([]string, 0, len(p.AllowedMethods))
	for _, m := range p.AllowedMethods {
		names = append(names, m.String())
	}
	return strings.Join(names, ", ")
}

// allowHeaders answers a preflight. A wildcard policy echoes what was requested when
// credentials are on, because "*" is literal for credentialed requests.
func (p Policy) allowHeaders(requested []string) string {
	if contains(p.AllowedHeaders, wildcard) {
		if p.AllowCredentials {
			return strings.Join(requested, ", ")
		}
		return wildcard
	}
	return strings.Join(p.AllowedHeaders, ", ")
}

func (p Policy) exposeHeaders() string {
	exposed := make([]string, 0, len(p.AllowedHeaders))
	for _, h := range p.AllowedHeaders {
		if h == wildcard && p.AllowCredentials {
			continue
		}
		exposed = append(exposed, h)
	}
	return strings.Join(exposed, ", ")
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
