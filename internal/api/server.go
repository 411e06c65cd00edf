// Package api provides the HTTP API server and handlers for Quillbook.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/quillbook/quillbook-server/internal/ratelimit"
)

// Options configures the HTTP surface.
type Options struct {
	CORSOrigins []string
	// CallbackSecret must be presented by the identity provider on sign-in.
	// Empty disables the check.
	CallbackSecret string
	// PublicRate and PublicBurst limit signup and sign-in callbacks per client IP.
	PublicRate  float64
	PublicBurst int
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	services       *Services
	router         *chi.Mux
	api            huma.API
	publicLimiter  *ratelimit.KeyedRateLimiter
	callbackSecret string
	logger         *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(services *Services, opts Options, logger *slog.Logger) *Server {
	if opts.PublicRate <= 0 {
		opts.PublicRate = 20.0 / 60.0
	}
	if opts.PublicBurst <= 0 {
		opts.PublicBurst = 10
	}

	s := &Server{
		services:       services,
		router:         chi.NewRouter(),
		publicLimiter:  ratelimit.New(opts.PublicRate, opts.PublicBurst, ratelimit.DefaultIdleTTL),
		callbackSecret: opts.CallbackSecret,
		logger:         logger,
	}

	s.setupMiddleware(opts.CORSOrigins)

	humaConfig := huma.DefaultConfig("Quillbook API", "1.0.0")
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerAllowListRoutes()
	s.registerPlanRoutes()
	s.registerWorkRoutes()
	s.registerItemRoutes()
	s.registerPartRoutes()
	s.registerNoteCardRoutes()
	s.registerSessionRoutes()
	s.registerDocumentRoutes()
	s.registerSearchRoutes()
	s.registerActivityRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API exposes the huma API, mainly for tests and OpenAPI export.
func (s *Server) API() huma.API {
	return s.api
}

// Close releases background resources held by the server.
func (s *Server) Close() {
	s.publicLimiter.Stop()
}

// setupMiddleware configures the middleware stack. chi requires it to be in
// place before any route is registered.
func (s *Server) setupMiddleware(origins []string) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)

	if len(origins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   origins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Authorization", "Content-Type", callbackSecretHeader},
			ExposedHeaders:   []string{"Content-Disposition"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	s.router.Use(authMiddleware(s.services.Auth))
}

// requestLogger logs one line per request through slog.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

var bearerSecurity = []map[string][]string{{"bearer": {}}}
