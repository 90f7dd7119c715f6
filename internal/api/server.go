package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/greedhall/rules-engine/internal/config"
	"github.com/greedhall/rules-engine/internal/ingest"
	"github.com/greedhall/rules-engine/internal/rules"
	"github.com/greedhall/rules-engine/internal/storage"
)

// CatalogManager is the slice of the ingest manager the API needs.
type CatalogManager interface {
	Current() *rules.Catalog
	Refresh(ctx context.Context) (bool, error)
	Subscribe() (<-chan ingest.Event, func())
}

// Pinger reports backend health for the readiness check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP API server
type Server struct {
	config         config.ServerConfig
	router         *chi.Mux
	catalogManager CatalogManager
	repo           storage.Repository
	pingers        []Pinger
	authMiddleware *AuthMiddleware
}

// NewServer creates a new API server
func NewServer(
	cfg config.ServerConfig,
	manager CatalogManager,
	repo storage.Repository,
	pingers ...Pinger,
) *Server {
	s := &Server{
		config:         cfg,
		catalogManager: manager,
		repo:           repo,
		pingers:        pingers,
		authMiddleware: NewAuthMiddleware(repo),
	}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRouter configures all routes and middleware
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check (outside versioned API - public)
	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	// API v1 routes (protected by authentication)
	r.Route("/api/v1", func(r chi.Router) {
		// Apply authentication middleware to all /api/v1/* routes
		r.Use(s.authMiddleware.Authenticate)

		// Catalog
		r.Route("/catalog", func(r chi.Router) {
			r.With(s.authMiddleware.RequirePermission("catalog:read")).Get("/", s.handleCatalogInfo)
			r.With(s.authMiddleware.RequirePermission("catalog:write")).Post("/refresh", s.handleRefreshCatalog)
			r.With(s.authMiddleware.RequirePermission("catalog:read")).Get("/watch", s.handleWatchCatalog)
		})

		// Origins
		r.Route("/origins", func(r chi.Router) {
			r.With(s.authMiddleware.RequirePermission("catalog:read")).Get("/", s.handleListOrigins)
			r.With(s.authMiddleware.RequirePermission("catalog:read")).Get("/{name}", s.handleGetOrigin)
		})

		// Classes
		r.Route("/classes", func(r chi.Router) {
			r.With(s.authMiddleware.RequirePermission("catalog:read")).Get("/", s.handleListClasses)
			r.With(s.authMiddleware.RequirePermission("catalog:read")).Get("/{name}", s.handleGetClass)
			r.With(s.authMiddleware.RequirePermission("catalog:read")).Post("/{name}/availability", s.handleClassAvailability)
		})

		// Saves
		r.Route("/saves", func(r chi.Router) {
			r.With(s.authMiddleware.RequirePermission("saves:read")).Get("/", s.handleListSaves)
			r.With(s.authMiddleware.RequirePermission("saves:write")).Post("/", s.handleCreateSave)

			r.Route("/{id}", func(r chi.Router) {
				r.With(s.authMiddleware.RequirePermission("saves:read")).Get("/", s.handleGetSave)
				r.With(s.authMiddleware.RequirePermission("saves:write")).Put("/", s.handleUpdateSave)
				r.With(s.authMiddleware.RequirePermission("saves:write")).Delete("/", s.handleDeleteSave)
				r.With(s.authMiddleware.RequirePermission("saves:write")).Post("/special", s.handleUseSpecial)
				r.With(s.authMiddleware.RequirePermission("saves:write")).Post("/specials-refresh", s.handleRefreshSpecials)
				r.With(s.authMiddleware.RequirePermission("saves:write")).Post("/battle", s.handleNextBattle)
			})
		})
	})

	s.router = r
}

// loggingMiddleware logs HTTP requests using slog
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
