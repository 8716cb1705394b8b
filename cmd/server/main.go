// ViewLens - Viewer Interaction Tracking and Channel Personalization
// Copyright 2026 ViewLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

// Package main is the entry point for the ViewLens server.
//
// ViewLens tracks viewer interaction events from mobile clients and
// serves personalized channel and content recommendations. Events are
// batched client-side semantics on the server: a queue that auto-flushes
// when full, a periodic flush loop, and lifecycle hooks for session end,
// background, and foreground transitions.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: environment variables and config file via koanf v2
//  2. Preference store: BadgerDB (durable) or in-memory
//  3. Personalization engine: scorer, response cache, preference store
//  4. Event collector: structured log sink or NATS JetStream publisher,
//     optionally with an embedded NATS server for single-binary deploys
//  5. Tracker: batching queue with the periodic flush loop
//  6. HTTP server: chi router with the REST API and Prometheus metrics
//  7. Supervisor tree: suture supervisors for all long-running services
//
// # Configuration
//
// Configuration is loaded via koanf v2 with layered sources (highest
// priority wins): environment variables, config file (config.yaml, or
// the path in CONFIG_PATH), built-in defaults. Environment variables
// use an explicit mapping table, e.g. HTTP_PORT=8080,
// TRACKING_COLLECTOR=nats, STORE_PATH=/data/preferences.
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM:
//   - Stops accepting new connections
//   - Flushes any queued tracking events (5s grace)
//   - Closes the collector, embedded NATS server, and preference store
//
// # Example Usage
//
// Development with the log collector and an in-memory store:
//
//	export TRACKING_COLLECTOR=log
//	export STORE_IN_MEMORY=true
//	./viewlens
//
// Production with embedded JetStream and durable preferences:
//
//	export ENVIRONMENT=production
//	export TRACKING_COLLECTOR=nats
//	export NATS_EMBEDDED=true
//	export NATS_STORE_DIR=/data/viewlens/jetstream
//	export STORE_PATH=/data/viewlens/prefs
//	./viewlens
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

	"github.com/viewlens/viewlens/internal/api"
	"github.com/viewlens/viewlens/internal/config"
	"github.com/viewlens/viewlens/internal/logging"
	"github.com/viewlens/viewlens/internal/personalization"
	"github.com/viewlens/viewlens/internal/supervisor"
	"github.com/viewlens/viewlens/internal/supervisor/services"
	"github.com/viewlens/viewlens/internal/tracking"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		// Use default logger for config errors (config not yet available)
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize zerolog with configuration
	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	logging.Info().Msg("Starting ViewLens with supervisor tree")
	logging.Info().
		Str("collector", cfg.Tracking.Collector).
		Bool("store_in_memory", cfg.Store.InMemory).
		Str("environment", cfg.Server.Environment).
		Msg("Configuration loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Preference store: BadgerDB for durable deployments, in-memory for
	// development and tests.
	var store personalization.PreferenceStore
	var closeStore func() error
	if cfg.Store.InMemory {
		store = personalization.NewMemoryPreferenceStore()
		closeStore = func() error { return nil }
		logging.Info().Msg("Using in-memory preference store")
	} else {
		db, err := personalization.OpenBadger(cfg.Store.Path)
		if err != nil {
			logging.Fatal().Err(err).Str("path", cfg.Store.Path).Msg("Failed to open preference store")
		}
		store = personalization.NewBadgerPreferenceStore(db)
		closeStore = db.Close
		logging.Info().Str("path", cfg.Store.Path).Msg("Preference store opened")
	}
	defer func() {
		if err := closeStore(); err != nil {
			logging.Error().Err(err).Msg("Error closing preference store")
		}
	}()

	// Personalization engine
	scorer, err := personalization.NewLocalScorer(cfg.Personalization.Jitter, cfg.Personalization.Seed)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create scorer")
	}
	engineCfg := &personalization.Config{
		ChannelCacheTTL: cfg.Personalization.ChannelCacheTTL,
		ContentCacheTTL: cfg.Personalization.ContentCacheTTL,
		MaxCacheEntries: cfg.Personalization.MaxCacheEntries,
		Jitter:          cfg.Personalization.Jitter,
		Seed:            cfg.Personalization.Seed,
		ModelVersion:    cfg.Personalization.ModelVersion,
		DefaultLimit:    cfg.Personalization.DefaultLimit,
		MaxLimit:        cfg.Personalization.MaxLimit,
	}
	engine, err := personalization.NewEngine(engineCfg, scorer, store, logging.Logger())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create personalization engine")
	}
	logging.Info().Str("model_version", engineCfg.ModelVersion).Msg("Personalization engine initialized")

	// Event collector. The embedded NATS server is started before the
	// collector connects so the client URL is known.
	var collector tracking.Collector
	var natsServer *tracking.EmbeddedServer
	switch cfg.Tracking.Collector {
	case "nats":
		natsURL := cfg.NATS.URL
		if cfg.NATS.EmbeddedServer {
			serverCfg := tracking.DefaultServerConfig()
			if cfg.NATS.StoreDir != "" {
				serverCfg.StoreDir = cfg.NATS.StoreDir
			}
			if cfg.NATS.MaxMemory > 0 {
				serverCfg.MaxMemory = cfg.NATS.MaxMemory
			}
			if cfg.NATS.MaxStore > 0 {
				serverCfg.MaxStore = cfg.NATS.MaxStore
			}
			natsServer, err = tracking.NewEmbeddedServer(serverCfg)
			if err != nil {
				logging.Fatal().Err(err).Msg("Failed to start embedded NATS server")
			}
			natsURL = natsServer.ClientURL()
			logging.Info().
				Str("client_url", natsURL).
				Str("store_dir", serverCfg.StoreDir).
				Msg("Embedded NATS server started")
		}

		collectorCfg := tracking.DefaultNATSCollectorConfig()
		collectorCfg.URL = natsURL
		if cfg.NATS.SubjectPrefix != "" {
			collectorCfg.SubjectPrefix = cfg.NATS.SubjectPrefix
		}
		if cfg.NATS.BreakerMaxRequests > 0 {
			collectorCfg.BreakerMaxRequests = cfg.NATS.BreakerMaxRequests
		}
		if cfg.NATS.BreakerInterval > 0 {
			collectorCfg.BreakerInterval = cfg.NATS.BreakerInterval
		}
		if cfg.NATS.BreakerTimeout > 0 {
			collectorCfg.BreakerTimeout = cfg.NATS.BreakerTimeout
		}
		if cfg.NATS.BreakerFailureThreshold > 0 {
			collectorCfg.BreakerFailureThreshold = cfg.NATS.BreakerFailureThreshold
		}
		collector, err = tracking.NewNATSCollector(collectorCfg, logging.Logger())
		if err != nil {
			logging.Fatal().Err(err).Str("url", natsURL).Msg("Failed to create NATS collector")
		}
		logging.Info().Str("subject_prefix", collectorCfg.SubjectPrefix).Msg("NATS collector connected")
	default:
		collector = tracking.NewLogCollector(logging.Logger())
		logging.Info().Msg("Using log collector")
	}
	defer func() {
		if err := collector.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing collector")
		}
	}()

	// Tracker with the batching queue
	tracker, err := tracking.NewTracker(tracking.Config{
		MaxQueueSize:  cfg.Tracking.MaxQueueSize,
		FlushInterval: cfg.Tracking.FlushInterval,
		Enabled:       cfg.Tracking.Enabled,
	}, collector, logging.Logger())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create tracker")
	}

	// HTTP API
	handler := api.NewHandler(engine, tracker, logging.Logger())
	if natsServer != nil {
		handler.SetNATSHealth(natsServer.IsRunning)
	}

	mwCfg := api.DefaultMiddlewareConfig()
	mwCfg.CORSAllowedOrigins = cfg.API.CORSOrigins
	mwCfg.RateLimitRequests = cfg.API.RateLimitReqs
	mwCfg.RateLimitWindow = cfg.API.RateLimitWindow
	mwCfg.RateLimitDisabled = cfg.API.RateLimitDisabled
	router := api.NewRouter(handler, api.NewMiddleware(mwCfg))

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	// Supervisor tree
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddMessagingService(services.NewTrackerService(tracker))
	if natsServer != nil {
		tree.AddMessagingService(services.NewNATSServerService(natsServer, 10*time.Second))
	}
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	// Wait for supervisor to finish (either from signal or error)
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Wait for the error channel to close (supervisor finished)
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	// Report any services that failed to stop within timeout
	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	if natsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := natsServer.Shutdown(shutdownCtx); err != nil {
			logging.Error().Err(err).Msg("Error shutting down embedded NATS server")
		}
		shutdownCancel()
	}

	logging.Info().Msg("ViewLens stopped gracefully")
}
