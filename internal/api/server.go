package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/Project-Sylos/Arbor/internal/logging"
	"github.com/Project-Sylos/Arbor/internal/types"
	"github.com/Project-Sylos/Arbor/sdk"
)

// Server represents the HTTP API server
type Server struct {
	router *chi.Mux
	arbor  *sdk.Arbor
	config *types.APIConfig
	log    *logrus.Entry
	http   *http.Server
}

// NewServer creates a new API server
func NewServer(a *sdk.Arbor, config *types.APIConfig) *Server {
	log := logging.Component(a.Logger(), "api")
	router := NewRouter(a, log)

	s := &Server{
		router: router.SetupRoutes(),
		arbor:  a,
		config: config,
		log:    log,
	}
	s.http = &http.Server{
		Addr:         s.Addr(),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Addr returns the listen address
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}

// Start starts the HTTP server and blocks until it stops. A server stopped
// through Shutdown returns nil.
func (s *Server) Start() error {
	addr := s.Addr()
	s.log.WithFields(logrus.Fields{
		"addr":   addr,
		"api":    fmt.Sprintf("http://%s/api/v1/", addr),
		"health": fmt.Sprintf("http://%s/health", addr),
	}).Info("Starting Arbor API server")

	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve on %s: %w", addr, err)
	}
	return nil
}

// GetRouter returns the configured router
func (s *Server) GetRouter() *chi.Mux {
	return s.router
}

// Shutdown stops accepting requests and waits for in-flight ones until ctx ends
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down server")
	return s.http.Shutdown(ctx)
}

// Stop closes the store. Call it after Shutdown.
func (s *Server) Stop() error {
	return s.arbor.Close()
}

// Run serves until ctx ends, then shuts down within the grace period and
// closes the store
func (s *Server) Run(ctx context.Context, grace time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			s.Stop()
			return err
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			s.log.WithError(err).Error("Server forced to shutdown")
		}
		<-errCh
	}

	if err := s.Stop(); err != nil {
		return fmt.Errorf("failed to close store: %w", err)
	}
	s.log.Info("Server exited")
	return nil
}
