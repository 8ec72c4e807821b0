// Package server provides the HTTP API for Osusume.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/osusume/internal/config"
	"github.com/hyperjump/osusume/internal/indexer"
	"github.com/hyperjump/osusume/internal/search"
	"github.com/hyperjump/osusume/internal/storage"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// ReloadFunc re-imports the catalog and publishes the result. The import result is nil
// when the corpus was reloaded from storage without reading the catalog file.
type ReloadFunc func(ctx context.Context) (*indexer.ImportResult, error)

// Server is the HTTP server for the Osusume API.
type Server struct {
	engine  *search.Engine
	storage storage.Storage
	reload  ReloadFunc
	config  *config.Config
	logger  *zap.Logger
	server  *http.Server
}

// NewServer creates a server with the given dependencies. storage and reload may be nil.
func NewServer(
	engine *search.Engine,
	store storage.Storage,
	reload ReloadFunc,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		engine:  engine,
		storage: store,
		reload:  reload,
		config:  cfg,
		logger:  logger,
	}
}

// Routes returns the API router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/recommend", s.handleRecommendGet)
		r.Post("/recommend", s.handleRecommendPost)
		r.Get("/titles", s.handleTitles)
		r.Get("/corpora", s.handleCorpora)
		r.Post("/reload", s.handleReload)
		r.Get("/status", s.handleStatus)
	})
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
