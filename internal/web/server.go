// Package web exposes the corpus over a JSON HTTP API.
package web

import (
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"gigdex/internal/corpus"
)

// ServerConfig holds configuration for the HTTP server.
type ServerConfig struct {
	Host   string
	Port   int
	Corpus *corpus.Corpus
	Logger *log.Logger
}

// Server is the JSON API server.
type Server struct {
	config  ServerConfig
	router  *chi.Mux
	handler *Handler
}

// NewServer creates a new API server.
func NewServer(cfg ServerConfig) *Server {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}

	s := &Server{
		config: cfg,
		router: chi.NewRouter(),
	}
	s.handler = NewHandler(cfg.Corpus)
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for the router.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))
	s.router.Use(middleware.Compress(5))
}

// setupRoutes configures routes for the server.
func (s *Server) setupRoutes() {
	s.router.Route("/api", func(r chi.Router) {
		r.Post("/documents", s.handler.CreateDocument)
		r.Get("/documents", s.handler.ListDocuments)
		r.Get("/documents/{id}", s.handler.GetDocument)
		r.Get("/documents/{id}/chunks", s.handler.GetDocumentChunks)
		r.Get("/search", s.handler.Search)
		r.Get("/status", s.handler.Status)
		r.Get("/health", s.handler.Health)
	})
}

// Router returns the chi router for external use.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.config.Logger.Info("starting API server", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}
