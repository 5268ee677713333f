// SPDX-License-Identifier: MIT

// Package api exposes the confd sidecar HTTP surface: health probes, the
// effective configuration, document validation and reload triggering.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ivadomed/ivadoconf/internal/config"
	"github.com/ivadomed/ivadoconf/internal/log"
)

// Server serves the confd API around a ConfigHolder.
type Server struct {
	holder  *config.ConfigHolder
	version string
	srv     *http.Server
}

// NewServer builds the server and its router. addr comes from IVADO_LISTEN.
func NewServer(holder *config.ConfigHolder, addr, version string) *Server {
	s := &Server{holder: holder, version: version}

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(Recoverer)
	r.Use(RequestID)
	if s.holder.Get().MetricsEnabled {
		r.Use(Metrics())
	}
	r.Use(log.Middleware())

	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)
	if s.holder.Get().MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/config", s.handleConfig)
		r.Get("/snapshot", s.handleSnapshot)
		r.With(ValidateRateLimit()).Post("/validate", s.handleValidate)
		r.Post("/reload", s.handleReload)
	})

	return r
}

// Start serves until ctx is cancelled, then drains with a grace period.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger := log.WithComponent("api")
		logger.Info().
			Str("addr", s.srv.Addr).
			Msg("confd API listening")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-errCh
	case err := <-errCh:
		return err
	}
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}
