package ops

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CORSConfig configures browser access to the ops endpoints.
type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled" yaml:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods" yaml:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers" yaml:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials" yaml:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age" yaml:"max_age" validate:"min=0"`
}

type Config struct {
	CORS CORSConfig
	// PingTimeout bounds the health check; zero uses two seconds.
	PingTimeout time.Duration
	Logger      *slog.Logger
}

// Handler provides the health and metrics endpoints.
type Handler struct {
	config   Config
	store    Pinger
	gatherer prometheus.Gatherer
}

// NewHandler creates a Handler that checks store and exposes gatherer.
func NewHandler(config *Config, store Pinger, gatherer prometheus.Gatherer) *Handler {
	h := &Handler{
		config:   *config,
		store:    store,
		gatherer: gatherer,
	}
	if h.config.PingTimeout <= 0 {
		h.config.PingTimeout = 2 * time.Second
	}
	if h.config.Logger == nil {
		h.config.Logger = slog.Default()
	}
	return h
}

// Router returns the ops routes.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(h.config.Logger))

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.Get("/healthz", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusNotFound, CodeNotFound, "No such endpoint")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "Method not allowed")
	})

	return r
}

type healthResponse struct {
	Status string `json:"status"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.config.PingTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.config.Logger.ErrorContext(ctx, "health check failed", "error", err)
		WriteError(w, http.StatusServiceUnavailable, CodeUnavailable, "Credential store unreachable")
		return
	}

	_ = WriteJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}
