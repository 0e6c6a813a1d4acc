package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ktane-tracker/tracker/internal/config"
	"github.com/ktane-tracker/tracker/internal/tracker"
)

// Server represents the HTTP API server
type Server struct {
	config   config.ServerConfig
	router   *chi.Mux
	service  tracker.Service
	identity *IdentityMiddleware
}

// NewServer creates a new API server
func NewServer(cfg config.ServerConfig, service tracker.Service) *Server {
	s := &Server{
		config:   cfg,
		service:  service,
		identity: NewIdentityMiddleware(service),
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

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID", DiscordIDHeader},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check (outside versioned API)
	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.identity.Identify)

		r.Get("/modules", s.handleListModules)

		r.Route("/missions", func(r chi.Router) {
			r.Get("/", s.handleListMissions)
			r.Post("/query", s.handleQueryMissions)
		})

		r.Post("/practice", s.handleGeneratePractice)

		r.Get("/users/{id}/scores", s.handleUserScores)
		r.With(s.identity.RequireUser).Get("/me", s.handleMe)
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
