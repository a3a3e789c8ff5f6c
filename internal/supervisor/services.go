// Retrospect - Photo Memory Analytics and Story Generation
// Copyright 2026 Retrospect Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/retrospect-labs/retrospect

package supervisor

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/retrospect-labs/retrospect/internal/logging"
)

// Func adapts a run function to suture.Service. The name appears in
// supervision log events.
type Func struct {
	name string
	run  func(context.Context) error
}

// NewFunc wraps a blocking run function as a supervised service.
func NewFunc(name string, run func(context.Context) error) *Func {
	return &Func{name: name, run: run}
}

// Serve implements suture.Service.
func (f *Func) Serve(ctx context.Context) error {
	return f.run(ctx)
}

func (f *Func) String() string {
	return f.name
}

// HTTPService runs an http.Server under supervision, shutting it down
// gracefully when the context is canceled.
type HTTPService struct {
	server          *http.Server
	shutdownTimeout time.Duration
}

// NewHTTPService wraps a configured http.Server.
func NewHTTPService(server *http.Server, shutdownTimeout time.Duration) *HTTPService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &HTTPService{server: server, shutdownTimeout: shutdownTimeout}
}

// Serve implements suture.Service. ErrServerClosed after a triggered
// shutdown is a clean exit, not a failure to restart.
func (s *HTTPService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.ListenAndServe()
	}()

	logging.Info().Str("addr", s.server.Addr).Msg("http server listening")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			logging.Warn().Err(err).Msg("http server shutdown incomplete")
		}
		<-errCh
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *HTTPService) String() string {
	return "http-server"
}
