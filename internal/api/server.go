package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/clipforge/clipforge/internal/jobs"
	"github.com/clipforge/clipforge/internal/metadata"
)

// MetadataFetcher is the metadata lookup port exposed to handlers.
type MetadataFetcher interface {
	Fetch(ctx context.Context, rawURL string) (metadata.Metadata, error)
}

// Submitter hands accepted job IDs to the background pool.
type Submitter interface {
	Submit(jobID string) error
}

type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

type ServerConfig struct {
	Port       int
	OutputDir  string
	Repository jobs.Repository
	Metadata   MetadataFetcher
	Pool       Submitter
	Logger     *slog.Logger
	StartTime  time.Time
	Version    string
}

func NewServer(cfg ServerConfig) *Server {
	router := NewRouter(cfg)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 0,
			IdleTimeout:  60 * time.Second,
		},
		logger: cfg.Logger,
	}
}

func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Addr() string {
	return s.httpServer.Addr
}
