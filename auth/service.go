// Package auth implements the account service mounted at /auth/user: identity lookup,
// CORS preflight with session cookie issuance, login and registration.
//
// The session cookie is an opaque bearer token. It is not recorded server-side, so
// presenting any tkn cookie makes the caller a Traveller.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/hanabi-drive/hanabi"
	"github.com/hanabi-drive/hanabi/cookie"
	"github.com/hanabi-drive/hanabi/cors"
	"github.com/hanabi-drive/hanabi/wire"
)

// Path is where the account service is mounted.
const Path = "/auth/user"

const createdBody = "user created"

// Service is the account resource. It is safe for concurrent use.
type Service struct {
	store    hanabi.CredentialStore
	cfg      Config
	issuer   Issuer
	limiter  *Limiter
	validate *validator.Validate
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithIssuer replaces the default random token issuer.
func WithIssuer(issuer Issuer) Option {
	return func(s *Service) { s.issuer = issuer }
}

// WithLimiter rate-limits login attempts per client address.
func WithLimiter(limiter *Limiter) Option {
	return func(s *Service) { s.limiter = limiter }
}

// WithLogger sets the logger used for authentication events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// NewService creates the account service over store.
func NewService(store hanabi.CredentialStore, cfg Config, opts ...Option) *Service {
	s := &Service{
		store:    store,
		cfg:      cfg,
		issuer:   RandomIssuer{},
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get reports the caller's clearance. The user query parameter must be a small
// unsigned integer; its value does not otherwise affect the answer.
func (s *Service) Get(ctx context.Context, req *wire.Request, resp *wire.Response) error {
	raw, ok := req.Query["user"]
	if !ok {
		return fmt.Errorf("get identity: %w: missing user query parameter", hanabi.ErrMalformedInput)
	}
	if _, err := strconv.ParseUint(raw, 10, 8); err != nil {
		return fmt.Errorf("get identity: %w: user %q is not a small unsigned integer", hanabi.ErrMalformedInput, raw)
	}

	jar, err := cookie.Read(req.Headers)
	if err != nil {
		return fmt.Errorf("get identity: %w", err)
	}
	if err := cors.Simple(req, resp, s.cfg.Simple); err != nil {
		return fmt.Errorf("get identity: %w", err)
	}

	clearance := hanabi.Nameless
	if jar.Has(s.cfg.CookieName) {
		clearance = hanabi.Traveller
	}
	resp.SetStatus(http.StatusOK)
	resp.SetBody("text/plain; charset=utf-8", []byte(strconv.Itoa(int(clearance))))
	return nil
}

// Options negotiates the preflight policy and hands out a session cookie to callers
// that have none. It succeeds whenever the policy accepts the request, logged in or not.
func (s *Service) Options(ctx context.Context, req *wire.Request, resp *wire.Response) error {
	jar, err := cookie.Read(req.Headers)
	if err != nil {
		return fmt.Errorf("preflight: %w", err)
	}
	if err := cors.Preflight(req, resp, s.cfg.Preflight); err != nil {
		return fmt.Errorf("preflight: %w", err)
	}
	if err := s.ensureSession(jar, resp); err != nil {
		return fmt.Errorf("preflight: %w", err)
	}
	resp.SetStatus(http.StatusOK)
	return nil
}

// Post logs a caller in. A body leading with method_override=put is registration
// and is handed to Put; method_override=post is an explicit login.
func (s *Service) Post(ctx context.Context, req *wire.Request, resp *wire.Response) error {
	action, overridden, err := overrideAction(req.Body)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	grammar := loginGrammar
	if overridden {
		switch action {
		case "put":
			return s.Put(ctx, req, resp)
		case "post":
			grammar = overrideGrammar
		default:
			return fmt.Errorf("login: %w: unknown method_override %q", hanabi.ErrMalformedInput, action)
		}
	}

	if err := cors.Simple(req, resp, s.cfg.Simple); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	jar, err := cookie.Read(req.Headers)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	values, err := grammar.Parse(req.Body)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	cred := hanabi.Credential{Name: values[len(values)-2], Password: values[len(values)-1]}

	if s.limiter != nil && !s.limiter.Allow(clientKey(req)) {
		return fmt.Errorf("login: %w", hanabi.ErrRateLimited)
	}
	if _, err := s.store.Find(ctx, cred.Name, cred.Password); err != nil {
		if errors.Is(err, hanabi.ErrNotFound) {
			s.logger.InfoContext(ctx, "login rejected", "user", cred.Name, "remote", req.RemoteAddr)
			return fmt.Errorf("login %s: %w", cred.Name, hanabi.ErrCredential)
		}
		return fmt.Errorf("login %s: %w", cred.Name, err)
	}

	if err := s.ensureSession(jar, resp); err != nil {
		return fmt.Errorf("login: %w", err)
	}

	s.logger.InfoContext(ctx, "login accepted", "user", cred.Name, "remote", req.RemoteAddr)
	resp.SetStatus(http.StatusOK)
	return nil
}

// Put registers a credential. The body must be exactly
// method_override=put&user_name=...&user_pswd=... in that order. Names are not
// checked for uniqueness.
func (s *Service) Put(ctx context.Context, req *wire.Request, resp *wire.Response) error {
	if err := cors.Simple(req, resp, s.cfg.Simple); err != nil {
		return fmt.Errorf("register: %w", err)
	}

	values, err := overrideGrammar.Parse(req.Body)
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}
	if values[0] != "put" {
		return fmt.Errorf("register: %w: method_override must be put, got %q", hanabi.ErrMalformedInput, values[0])
	}

	cred := hanabi.Credential{Name: values[1], Password: values[2]}
	if err := s.validate.Struct(cred); err != nil {
		return fmt.Errorf("register: %w: %v", hanabi.ErrMalformedInput, err)
	}

	if err := s.store.Insert(ctx, cred); err != nil {
		return fmt.Errorf("register %s: %w", cred.Name, err)
	}

	s.logger.InfoContext(ctx, "user registered", "user", cred.Name, "remote", req.RemoteAddr)
	resp.SetStatus(http.StatusCreated)
	resp.SetBody("text/plain; charset=utf-8", []byte(createdBody))
	return nil
}

// Delete is a placeholder for session revocation and always succeeds. There is no
// server-side session to invalidate.
func (s *Service) Delete(ctx context.Context, req *wire.Request, resp *wire.Response) error {
	if err := cors.Simple(req, resp, s.cfg.Simple); err != nil {
		return fmt.Errorf("revoke: %w", err)
	}
	resp.SetStatus(http.StatusOK)
	return nil
}

// ensureSession issues a fresh session cookie unless the request already carries one.
func (s *Service) ensureSession(jar cookie.Jar, resp *wire.Response) error {
	if jar.Has(s.cfg.CookieName) {
		return nil
	}
	token, err := s.issuer.Issue()
	if err != nil {
		return err
	}
	c := cookie.Cookie{Name: s.cfg.CookieName, Value: token, Attributes: s.cfg.Cookie}
	return c.Write(resp)
}

func clientKey(req *wire.Request) string {
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr
	}
	return host
}
