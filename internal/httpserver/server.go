// Package httpserver manages the HTTP listener lifecycle.
package httpserver

import (
	"context"
	"fmt"
	"net/http"

	"github.com/R3E-Network/scoring_service/internal/config"
	"github.com/R3E-Network/scoring_service/pkg/logger"
)

// Server wraps http.Server with configuration and logging.
type Server struct {
	srv *http.Server
	log *logger.Logger
}

// New builds a server from configuration with the given handler.
func New(cfg config.ServerConfig, log *logger.Logger, handler http.Handler) *Server {
	if log == nil {
		log = logger.NewDefault("httpserver")
	}
	return &Server{
		srv: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout.Std(),
			WriteTimeout: cfg.WriteTimeout.Std(),
			IdleTimeout:  cfg.IdleTimeout.Std(),
		},
		log: log,
	}
}

// Addr returns the configured listen address.
func (s *Server) Addr() string { return s.srv.Addr }

// Start begins serving and blocks until the listener closes.
func (s *Server) Start() error {
	s.log.Infof("HTTP server listening on %s", s.srv.Addr)
	return s.srv.ListenAndServe()
}

// Shutdown gracefully drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")
	return s.srv.Shutdown(ctx)
}
