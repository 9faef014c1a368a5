package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/bankpulse/bankpulse/internal/config"
	"github.com/bankpulse/bankpulse/internal/engine"
	"github.com/bankpulse/bankpulse/internal/stream"
)

// Server represents the API server
type Server struct {
	config   *config.Config
	router   chi.Router
	handlers *Handlers
}

// NewServer creates a new API server
func NewServer(cfg *config.Config, eng *engine.Engine, coord *stream.Coordinator) *Server {
	s := &Server{
		config:   cfg,
		router:   chi.NewRouter(),
		handlers: NewHandlers(cfg, eng, coord),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handlers.HealthCheck)

	s.router.Route("/api/v1/bankpulse", func(r chi.Router) {
		r.Get("/stream/snapshot", s.handlers.GetStreamSnapshot)

		// Mutating routes require a bearer token when a secret is set
		r.Group(func(r chi.Router) {
			if s.config.Server.JWTSecret != "" {
				r.Use(AuthMiddleware(s.config.Server.JWTSecret))
			}

			r.Post("/generate", s.handlers.GenerateDataset)
			r.Post("/stream/start", s.handlers.StartStream)
			r.Post("/stream/stop", s.handlers.StopStream)
			r.Post("/underwrite", s.handlers.Underwrite)
			r.Post("/underwrite/batch", s.handlers.UnderwriteBatch)
		})
	})
}

// Router returns the chi router
func (s *Server) Router() http.Handler {
	return s.router
}
