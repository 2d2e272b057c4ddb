// Package api serves the Ordo admin API over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/marmos91/ordo/internal/logger"
	"github.com/marmos91/ordo/pkg/api/handlers"
	"github.com/marmos91/ordo/pkg/config"
)

// Server provides an HTTP server for the admin API.
//
// The server supports graceful shutdown with configurable timeout.
type Server struct {
	server          *http.Server
	config          config.APIConfig
	shutdownTimeout time.Duration
	shutdownOnce    sync.Once
}

// NewServer creates a new API HTTP server for the instance described by cfg.
//
// The server is created in a stopped state. Call Start() to begin serving
// requests. A JWT secret of at least 32 characters is required because the
// lifecycle routes are token-protected.
func NewServer(cfg *config.Config, inst handlers.Instance) (*Server, error) {
	apiCfg := withDefaults(cfg.API)

	jwtService, err := NewJWTService(apiCfg)
	if err != nil {
		return nil, fmt.Errorf("api.jwt.secret: %w", err)
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", apiCfg.Port),
		Handler:      NewRouter(cfg, inst, jwtService),
		ReadTimeout:  apiCfg.ReadTimeout,
		WriteTimeout: apiCfg.WriteTimeout,
		IdleTimeout:  apiCfg.IdleTimeout,
	}

	shutdownTimeout := cfg.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 5 * time.Second
	}

	return &Server{
		server:          server,
		config:          apiCfg,
		shutdownTimeout: shutdownTimeout,
	}, nil
}

// Start starts the API HTTP server and blocks until the context is cancelled
// or an error occurs. Cancellation triggers graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		logger.Info("API server listening", "port", s.config.Port)

		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case errChan <- err:
			default:
			}
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("API server shutdown signal received")
		// The cancelled ctx would abort shutdown immediately.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("API server failed: %w", err)
	}
}

// Stop initiates graceful shutdown of the API server. It is safe to call
// multiple times and concurrently with Start.
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		logger.Debug("API server shutdown initiated")

		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("API server shutdown error: %w", err)
			logger.Error("API server shutdown error", logger.Err(err))
		} else {
			logger.Info("API server stopped gracefully")
		}
	})
	return shutdownErr
}

// Port returns the TCP port the server is listening on.
func (s *Server) Port() int {
	return s.config.Port
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}
