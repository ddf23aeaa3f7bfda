// Package api provides the HTTP API server and handlers for the Photogram application.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/photogram/photogram-server/internal/auth"
	"github.com/photogram/photogram-server/internal/metrics"
	"github.com/photogram/photogram-server/internal/ratelimit"
	"github.com/photogram/photogram-server/internal/validation"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configures optional server behavior.
type Options struct {
	// Development attaches internal error text to 5xx responses.
	Development bool

	// AllowedOrigins lists CORS origins. Empty allows any origin.
	AllowedOrigins []string

	// Limiter is applied per client IP. Nil disables rate limiting.
	Limiter *ratelimit.KeyedRateLimiter

	// Metrics instruments requests and serves /metrics. Nil disables both.
	Metrics *metrics.Metrics

	// Health backs the database component of /health. Nil skips the check.
	Health Pinger
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	router    *chi.Mux
	api       huma.API
	services  *Services
	verifier  auth.Verifier
	validator *validation.Validator
	health    Pinger
	logger    *slog.Logger

	development bool
	startedAt   time.Time
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(services *Services, verifier auth.Verifier, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Server{
		router:      chi.NewRouter(),
		services:    services,
		verifier:    verifier,
		validator:   validation.New(),
		health:      opts.Health,
		logger:      logger,
		development: opts.Development,
		startedAt:   time.Now(),
	}

	s.setupMiddleware(opts)
	s.setupAPI()
	s.setupRoutes(opts)

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API exposes the huma API, mainly for OpenAPI generation.
func (s *Server) API() huma.API {
	return s.api
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware(opts Options) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(recoverer(s.logger))
	s.router.Use(cors.Handler(corsOptions(opts.AllowedOrigins)))

	if opts.Metrics != nil {
		s.router.Use(opts.Metrics.Middleware)
	}
	if opts.Limiter != nil {
		s.router.Use(RateLimitMiddleware(opts.Limiter, s.logger))
	}

	s.router.NotFound(notFound(s.logger))
	s.router.MethodNotAllowed(notFound(s.logger))
}

func corsOptions(origins []string) cors.Options {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}
}

// setupAPI mounts huma on the router. Every body passes through
// EnvelopeTransformer, so the default $schema link hook is dropped.
func (s *Server) setupAPI() {
	config := huma.DefaultConfig("Photogram API", "1.0.0")
	config.Info.Description = "Photo feed, likes, comments and profiles."
	config.CreateHooks = nil
	config.Transformers = []huma.Transformer{EnvelopeTransformer}
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
		},
	}

	RegisterErrorHandler()
	s.api = humachi.New(s.router, config)
}

// setupRoutes registers every operation.
func (s *Server) setupRoutes(opts Options) {
	if opts.Metrics != nil {
		s.router.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	s.registerHealthRoutes()
	s.registerPhotoRoutes()
	s.registerLikeRoutes()
	s.registerCommentRoutes()
	s.registerUserRoutes()
}

// authed is the security requirement attached to bearer-protected operations.
var authed = []map[string][]string{{"bearer": {}}}
