// Retrospect - Photo Memory Analytics and Story Generation
// Copyright 2026 Retrospect Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/retrospect-labs/retrospect

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/retrospect-labs/retrospect/internal/api"
	"github.com/retrospect-labs/retrospect/internal/cache"
	"github.com/retrospect-labs/retrospect/internal/config"
	"github.com/retrospect-labs/retrospect/internal/events"
	"github.com/retrospect-labs/retrospect/internal/logging"
	"github.com/retrospect-labs/retrospect/internal/narrative"
	"github.com/retrospect-labs/retrospect/internal/store"
	"github.com/retrospect-labs/retrospect/internal/story"
	"github.com/retrospect-labs/retrospect/internal/supervisor"
	"github.com/retrospect-labs/retrospect/internal/websocket"
)

func main() {
	if err := run(); err != nil {
		logging.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	}); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	logging.Info().
		Str("version", api.Version).
		Int("port", cfg.Server.Port).
		Msg("starting retrospect")

	if path := config.FoundConfigFile(); path != "" {
		if err := config.WatchConfigFile(path, func() {
			logging.Warn().Str("path", path).Msg("config file changed, restart to apply")
		}); err != nil {
			logging.Warn().Err(err).Str("path", path).Msg("config file watch unavailable")
		}
	}

	st, err := store.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() { _ = st.Close() }()

	// Narrative cache survives restarts so arcs with unchanged content
	// keep their prose without another upstream call.
	var narrativeCache *cache.BadgerStore
	if cfg.Narrative.Enabled {
		narrativeCache, err = cache.OpenBadger(cfg.Cache.BadgerDir)
		if err != nil {
			return fmt.Errorf("failed to open narrative cache: %w", err)
		}
		defer func() { _ = narrativeCache.Close() }()
	}

	bus, natsServer, err := setupBus(&cfg.NATS)
	if err != nil {
		return err
	}
	defer func() { _ = bus.Close() }()
	if natsServer != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = natsServer.Shutdown(shutdownCtx)
		}()
	}

	gen := narrative.New(cfg.Narrative, narrativeCache)
	stories := story.New(st, gen, bus, cfg.Detection)

	hub := websocket.NewHub()
	bridge := websocket.NewBridge(bus, hub)

	handler := api.NewHandler(st, stories, hub, cache.New(cfg.Cache.TTL), &cfg.Server)
	router := api.NewRouter(handler, &cfg.Server)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       2 * cfg.Server.Timeout,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddMessagingService(supervisor.NewFunc("websocket-hub", hub.Run))
	tree.AddMessagingService(supervisor.NewFunc("event-bridge", bridge.Run))
	tree.AddAPIService(supervisor.NewHTTPService(httpServer, 10*time.Second))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = <-tree.ServeBackground(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor tree failed: %w", err)
	}

	if report, rerr := tree.UnstoppedServiceReport(); rerr == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("service did not stop in time")
		}
	}

	logging.Info().Msg("retrospect stopped")
	return nil
}

// setupBus builds the event bus from configuration: NATS JetStream
// (embedding a server when asked) or the in-process gochannel default.
func setupBus(cfg *config.NATSConfig) (*events.Bus, *events.EmbeddedServer, error) {
	if !cfg.Enabled {
		return events.NewInProcess(), nil, nil
	}

	url := cfg.URL
	var embedded *events.EmbeddedServer
	if cfg.EmbeddedServer {
		srv, err := events.NewEmbeddedServer(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to start embedded NATS server: %w", err)
		}
		embedded = srv
		url = srv.ClientURL()
	}

	bus, err := events.NewNATS(url)
	if err != nil {
		if embedded != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = embedded.Shutdown(shutdownCtx)
		}
		return nil, nil, fmt.Errorf("failed to connect event bus to NATS: %w", err)
	}
	return bus, embedded, nil
}
