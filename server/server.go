// Package server runs the account protocol over raw TCP: one request per connection,
// parsed with package wire and answered with Connection: close.
package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/hanabi-drive/hanabi/wire"
)

// Handler serves one parsed request. *router.Router implements it.
type Handler interface {
	Serve(ctx context.Context, req *wire.Request, resp *wire.Response) error
}

// Config controls the listener and per-connection limits.
type Config struct {
	Addr string
	// MaxConns bounds concurrently served connections. 1 serves strictly one
	// connection at a time.
	MaxConns int64
	// ReadTimeout and WriteTimeout bound each connection; zero disables the deadline.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Limits       wire.Limits
}

// DefaultConfig returns the configuration used when fields are left zero.
func DefaultConfig() Config {
	return Config{
		Addr:         ":9998",
		MaxConns:     64,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		Limits:       wire.DefaultLimits(),
	}
}

// Server accepts connections and hands each parsed request to a Handler.
type Server struct {
	cfg     Config
	handler Handler
	logger  *slog.Logger
	metrics *Metrics
	sem     *semaphore.Weighted

	responses sync.Pool
	readers   sync.Pool

	mu       sync.Mutex
	listener net.Listener
	ready    chan struct{}
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithMetrics records request metrics.
func WithMetrics(m *Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// New creates a server for handler. Zero Config fields take their DefaultConfig values,
// except the timeouts, where zero means no deadline.
func New(cfg Config, handler Handler, opts ...Option) *Server {
	defaults := DefaultConfig()
	if cfg.Addr == "" {
		cfg.Addr = defaults.Addr
	}
	if cfg.MaxConns <= 0 {
		cfg.MaxConns = defaults.MaxConns
	}
	if cfg.Limits.MaxHeaderBytes <= 0 {
		cfg.Limits.MaxHeaderBytes = defaults.Limits.MaxHeaderBytes
	}
	if cfg.Limits.MaxBodyBytes <= 0 {
		cfg.Limits.MaxBodyBytes = defaults.Limits.MaxBodyBytes
	}

	s := &Server{
		cfg:     cfg,
		handler: handler,
		logger:  slog.Default(),
		sem:     semaphore.NewWeighted(cfg.MaxConns),
		ready:   make(chan struct{}),
	}
	s.responses.New = func() any { return wire.NewResponse() }
	s.readers.New = func() any { return bufio.NewReaderSize(nil, 4096) }
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListenAndServe listens on the configured address and serves until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Addr blocks until the server is listening and returns the listener address.
func (s *Server) Addr() net.Addr {
	<-s.ready
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listener.Addr()
}

// Serve accepts connections on ln until ctx is canceled, then closes ln and waits
// for in-flight connections to finish. Canceling ctx does not cancel requests
// already being served. A Server serves one listener, once.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	close(s.ready)

	s.logger.InfoContext(ctx, "protocol server listening", "addr", ln.Addr().String(), "max_conns", s.cfg.MaxConns)

	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	var wg sync.WaitGroup
	defer wg.Wait()

	var backoff time.Duration
	for {
		if err := s.sem.Acquire(ctx, 1); err != nil {
			_ = ln.Close()
			return nil
		}

		conn, err := ln.Accept()
		if err != nil {
			s.sem.Release(1)
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			backoff = min(max(2*backoff, 5*time.Millisecond), time.Second)
			s.logger.WarnContext(ctx, "accept failed", "error", err, "retry_in", backoff)
			time.Sleep(backoff)
			continue
		}
		backoff = 0

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer s.sem.Release(1)
			connCtx, cancel := s.connContext(ctx)
			defer cancel()
			s.serveConn(connCtx, conn)
		}()
	}
}

// connContext detaches a connection from the shutdown signal so a request already
// accepted is drained rather than failed. It keeps ctx values and is bounded by the
// read and write timeouts when both are set.
func (s *Server) connContext(ctx context.Context) (context.Context, context.CancelFunc) {
	connCtx := context.WithoutCancel(ctx)
	if s.cfg.ReadTimeout > 0 && s.cfg.WriteTimeout > 0 {
		return context.WithTimeout(connCtx, s.cfg.ReadTimeout+s.cfg.WriteTimeout)
	}
	return context.WithCancel(connCtx)
}

func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	start := time.Now()
	s.metrics.connOpened()
	defer s.metrics.connClosed()
	defer func() { _ = conn.Close() }()

	if s.cfg.ReadTimeout > 0 {
		_ = conn.SetReadDeadline(start.Add(s.cfg.ReadTimeout))
	}

	br := s.readers.Get().(*bufio.Reader)
	br.Reset(conn)
	req, err := wire.ReadRequest(br, s.cfg.Limits)
	br.Reset(nil)
	s.readers.Put(br)

	if errors.Is(err, io.EOF) || errors.Is(err, os.ErrDeadlineExceeded) {
		s.logger.DebugContext(ctx, "connection closed without a request", "remote", conn.RemoteAddr().String(), "error", err)
		return
	}

	resp := s.responses.Get().(*wire.Response)
	resp.Reset()
	defer s.responses.Put(resp)

	route, method := "unmatched", "unknown"
	if err != nil {
		s.metrics.parseFailed()
	} else {
		req.RemoteAddr = conn.RemoteAddr().String()
		resp.Proto = req.Proto
		method = req.Method.String()
		err = s.handler.Serve(ctx, req, resp)
	}

	code := resp.Status.Code
	if err != nil {
		code = StatusFor(err)
		proto := resp.Proto
		resp.Reset()
		resp.Proto = proto
		resp.SetStatus(code)
		if code >= http.StatusInternalServerError {
			s.logger.ErrorContext(ctx, "request failed", "remote", conn.RemoteAddr().String(), "status", code, "error", err)
		} else {
			s.logger.InfoContext(ctx, "request rejected", "remote", conn.RemoteAddr().String(), "status", code, "error", err)
		}
	}
	if req != nil && code != http.StatusNotFound {
		route = req.Path
	}

	finalize(resp)

	if s.cfg.WriteTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	}
	if _, err := resp.WriteTo(conn); err != nil {
		s.logger.WarnContext(ctx, "write response", "remote", conn.RemoteAddr().String(), "error", err)
	} else {
		lingerClose(conn)
	}

	elapsed := time.Since(start)
	s.metrics.observe(route, method, code, elapsed)
	s.logger.DebugContext(ctx, "request served",
		"method", method,
		"path", route,
		"status", code,
		"duration", elapsed,
	)
}

const (
	lingerTimeout = 500 * time.Millisecond
	lingerBytes   = 256 << 10
)

// lingerClose half-closes conn and discards unread input, so a client whose request
// was rejected early still reads the response instead of a connection reset.
func lingerClose(conn net.Conn) {
	cw, ok := conn.(interface{ CloseWrite() error })
	if !ok {
		return
	}
	_ = cw.CloseWrite()
	_ = conn.SetReadDeadline(time.Now().Add(lingerTimeout))
	_, _ = io.Copy(io.Discard, io.LimitReader(conn, lingerBytes))
}

// finalize adds the framing headers every response carries.
func finalize(resp *wire.Response) {
	if !resp.Headers.Has("Content-Length") {
		resp.Headers.Set("Content-Length", strconv.Itoa(resp.Body.Len()))
	}
	resp.Headers.Set("Connection", "close")
}
