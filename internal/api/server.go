// Package api provides the HTTP API server and handlers for the recipe server.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/recipeapp/recipe-server/internal/http/response"
	"github.com/recipeapp/recipe-server/internal/logger"
	"github.com/recipeapp/recipe-server/internal/metrics"
	"github.com/recipeapp/recipe-server/internal/ratelimit"
	"github.com/recipeapp/recipe-server/internal/store"
)

// Options tunes the HTTP surface.
type Options struct {
	CORSOrigins    []string
	MaxUploadBytes int64
	// AuthRateLimit is the number of account creation and login requests
	// allowed per minute per client IP.
	AuthRateLimit int
	AuthRateBurst int
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store       store.Store
	services    *Services
	router      *chi.Mux
	api         huma.API
	metrics     *metrics.Metrics
	authLimiter *ratelimit.KeyedRateLimiter
	maxUpload   int64
	logger      *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(st store.Store, services *Services, m *metrics.Metrics, opts Options, logger *slog.Logger) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = MaxUploadSize
	}
	if opts.AuthRateLimit <= 0 {
		opts.AuthRateLimit = DefaultAuthRateLimit
	}
	if opts.AuthRateBurst <= 0 {
		opts.AuthRateBurst = DefaultAuthRateBurst
	}

	s := &Server{
		store:       st,
		services:    services,
		router:      chi.NewRouter(),
		metrics:     m,
		authLimiter: ratelimit.PerMinute(opts.AuthRateLimit, opts.AuthRateBurst),
		maxUpload:   opts.MaxUploadBytes,
		logger:      logger,
	}

	s.setupMiddleware(opts.CORSOrigins)

	humaConfig := huma.DefaultConfig("Recipe API", "1.0.0")
	humaConfig.Info.Description = "Recipes, tags and ingredients owned by authenticated users."
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler(logger)

	s.setupRoutes()

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
	s.authLimiter.Stop()
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware(origins []string) {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(logger.RequestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	if s.metrics != nil {
		s.router.Use(s.metrics.Middleware)
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	s.router.Use(s.authRateLimit(pathUserCreate, pathUserToken))

	s.router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.NotFound(w, "resource not found", s.logger)
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.MethodNotAllowed(w, s.logger)
	})
}

// setupRoutes registers every operation.
func (s *Server) setupRoutes() {
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler())
	}

	s.registerHealthRoutes()
	s.registerUserRoutes()
	s.registerLabelRoutes(labelRoutes{
		service:  s.services.Tags.LabelService,
		basePath: "/api/v1/tags",
		singular: "Tag",
		plural:   "Tags",
	})
	s.registerLabelRoutes(labelRoutes{
		service:  s.services.Ingredients.LabelService,
		basePath: "/api/v1/ingredients",
		singular: "Ingredient",
		plural:   "Ingredients",
	})
	s.registerRecipeRoutes()
	s.registerImageRoutes()
}
