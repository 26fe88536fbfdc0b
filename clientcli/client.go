package clientcli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hanabi-drive/hanabi"
	"github.com/hanabi-drive/hanabi/cookie"
)

const (
	// DefaultTimeout is the default HTTP client timeout.
	DefaultTimeout = 30 * time.Second

	authPath = "/auth/user"

	// maxResponseBytes bounds how much of a response body is read.
	maxResponseBytes = 64 << 10
)

// Client performs account operations against a hanabi server. It tracks the
// session cookie the server issues and presents it on later requests.
type Client struct {
	config     *Config
	httpClient *http.Client
	now        func() time.Time

	mu      sync.Mutex
	session Session
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithClock overrides the clock used for session expiry.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// New creates a new Client with the given config and options.
func New(cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, ErrConfigRequired
	}

	cfg = cfg.WithDefaults()
	cfg.Endpoint = strings.TrimSuffix(cfg.Endpoint, "/")
	cfg.Origin = strings.TrimSuffix(cfg.Origin, "/")
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := (cookie.Cookie{Name: cfg.CookieName, Value: "x"}).Validate(); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCookieKey, cfg.CookieName)
	}

	c := &Client{
		config: cfg,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		now: time.Now,
	}
	if cfg.Session != "" {
		c.session = Session{CookieName: cfg.CookieName, Token: cfg.Session}
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Endpoint returns the normalized server URL.
func (c *Client) Endpoint() string {
	return c.config.Endpoint
}

// Session returns the current session, if one is held and unexpired.
func (c *Client) Session() (Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session.Token == "" || c.session.Expired(c.now()) {
		return Session{}, false
	}
	return c.session, true
}

// SetSession replaces the current session.
func (c *Client) SetSession(s Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = s
}

// Register creates an account with a PUT request.
func (c *Client) Register(ctx context.Context, name, password string) (*Result, error) {
	if err := checkCredential(name, password); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	body := encodeForm("method_override", "put", "user_name", name, "user_pswd", password)
	return c.action(ctx, "register", name, http.MethodPut, body, http.StatusCreated)
}

// RegisterWithOverride creates an account through POST with method_override=put,
// for callers that cannot send PUT.
func (c *Client) RegisterWithOverride(ctx context.Context, name, password string) (*Result, error) {
	if err := checkCredential(name, password); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	body := encodeForm("method_override", "put", "user_name", name, "user_pswd", password)
	return c.action(ctx, "register", name, http.MethodPost, body, http.StatusCreated)
}

// Login checks name and password. The server issues a session cookie when the
// client holds none.
func (c *Client) Login(ctx context.Context, name, password string) (*Result, error) {
	if err := checkCredential(name, password); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	body := encodeForm("user_name", name, "user_pswd", password)
	result, err := c.action(ctx, "login", name, http.MethodPost, body, http.StatusOK)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.session.Token != "" {
		c.session.User = name
	}
	c.mu.Unlock()

	return result, nil
}

// Preflight sends a CORS preflight for method. The server issues a session
// cookie when the client holds none.
func (c *Client) Preflight(ctx context.Context, method string) (*Result, error) {
	header := http.Header{}
	header.Set("Access-Control-Request-Method", method)
	header.Set("Access-Control-Request-Headers", "content-type")

	resp, issued, err := c.do(ctx, http.MethodOptions, "", "", header)
	if err != nil {
		return nil, fmt.Errorf("preflight: %w", err)
	}
	if resp.code != http.StatusOK {
		return nil, fmt.Errorf("preflight: %w", resp.apiError())
	}
	return &Result{Action: "preflight", StatusCode: resp.code, SessionIssued: issued}, nil
}

// Identity reports the clearance of the current session.
func (c *Client) Identity(ctx context.Context) (*Identity, error) {
	resp, _, err := c.do(ctx, http.MethodGet, "user=0", "", nil)
	if err != nil {
		return nil, fmt.Errorf("identity: %w", err)
	}
	if resp.code != http.StatusOK {
		return nil, fmt.Errorf("identity: %w", resp.apiError())
	}

	level, err := strconv.Atoi(strings.TrimSpace(resp.body))
	if err != nil {
		return nil, fmt.Errorf("identity: unexpected body %q", resp.body)
	}
	clearance := hanabi.ClearanceFrom(level)
	_, hasSession := c.Session()

	return &Identity{
		Endpoint:  c.config.Endpoint,
		Clearance: clearance,
		Level:     int(clearance),
		Name:      clearance.String(),
		Session:   hasSession,
	}, nil
}

// Revoke ends the session on the server and forgets it locally.
func (c *Client) Revoke(ctx context.Context) (*Result, error) {
	if _, ok := c.Session(); !ok {
		return nil, fmt.Errorf("revoke: %w", ErrNoSession)
	}
	result, err := c.action(ctx, "logout", "", http.MethodDelete, "", http.StatusOK)
	if err != nil {
		return nil, err
	}
	c.SetSession(Session{})
	return result, nil
}

func (c *Client) action(ctx context.Context, action, user, method, body string, want int) (*Result, error) {
	resp, issued, err := c.do(ctx, method, "", body, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", action, err)
	}
	if resp.code != want {
		return nil, fmt.Errorf("%s: %w", action, resp.apiError())
	}
	return &Result{
		Action:        action,
		User:          user,
		StatusCode:    resp.code,
		Message:       resp.body,
		SessionIssued: issued,
	}, nil
}

type response struct {
	code int
	body string
}

func (r response) apiError() *APIError {
	return &APIError{StatusCode: r.code, Body: r.body}
}

// do sends one request to the account endpoint and records any session cookie
// in the response. issued reports whether a new session token was set.
func (c *Client) do(ctx context.Context, method, rawQuery, body string, header http.Header) (response, bool, error) {
	target := c.config.Endpoint + authPath
	if rawQuery != "" {
		target += "?" + rawQuery
	}

	var reader io.Reader = http.NoBody
	if body != "" {
		reader = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return response{}, false, fmt.Errorf("create request: %w", err)
	}
	for name, values := range header {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if c.config.Origin != "" {
		req.Header.Set("Origin", c.config.Origin)
	}
	if s, ok := c.Session(); ok {
		req.AddCookie(&http.Cookie{Name: s.CookieName, Value: s.Token})
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return response{}, false, fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return response{}, false, fmt.Errorf("read response: %w", err)
	}

	issued := c.recordSession(resp.Header.Values("Set-Cookie"))
	return response{code: resp.StatusCode, body: string(data)}, issued, nil
}

func (c *Client) recordSession(values []string) bool {
	issued := false
	for _, v := range values {
		ck, err := cookie.ParseSetCookie(v)
		if err != nil || ck.Name != c.config.CookieName {
			continue
		}

		c.mu.Lock()
		switch {
		case ck.MaxAge < 0:
			c.session = Session{}
		default:
			s := Session{CookieName: ck.Name, Token: ck.Value, User: c.session.User}
			if ck.MaxAge > 0 {
				s.Expires = c.now().Add(time.Duration(ck.MaxAge) * time.Second)
			}
			c.session = s
			issued = true
		}
		c.mu.Unlock()
	}
	return issued
}

// encodeForm encodes key/value pairs in order as application/x-www-form-urlencoded.
func encodeForm(pairs ...string) string {
	var b strings.Builder
	for i := 0; i+1 < len(pairs); i += 2 {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(pairs[i])
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(pairs[i+1]))
	}
	return b.String()
}

func checkCredential(name, password string) error {
	if name == "" {
		return ErrEmptyName
	}
	if password == "" {
		return ErrEmptyPassword
	}
	return nil
}

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	msg := "server error: " + strconv.Itoa(e.StatusCode) + " " + http.StatusText(e.StatusCode)
	if e.Body != "" {
		msg += " - " + e.Body
	}
	return msg
}

// Is reports whether target matches this error.
// It matches if target is an *APIError with the same StatusCode.
func (e *APIError) Is(target error) bool {
	var t *APIError
	if !errors.As(target, &t) {
		return false
	}
	return t.StatusCode == e.StatusCode
}

// Sentinel errors for the statuses the account endpoint returns.
// Use errors.Is() to check for these conditions.
var (
	// ErrBadRequest is returned for malformed forms or queries (400).
	ErrBadRequest = &APIError{StatusCode: http.StatusBadRequest}

	// ErrForbidden is returned when the CORS policy rejects the request (403).
	ErrForbidden = &APIError{StatusCode: http.StatusForbidden}

	// ErrNotFound is returned when the endpoint path is not mounted (404).
	ErrNotFound = &APIError{StatusCode: http.StatusNotFound}

	// ErrRateLimited is returned when too many logins come from one address (429).
	ErrRateLimited = &APIError{StatusCode: http.StatusTooManyRequests}

	// ErrServer is returned for unknown credentials and store failures alike (500).
	ErrServer = &APIError{StatusCode: http.StatusInternalServerError}
)
