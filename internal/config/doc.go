// ViewLens - Viewer Interaction Tracking and Channel Personalization
// Copyright 2026 ViewLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

/*
Package config provides centralized configuration management for ViewLens.

Configuration is loaded with koanf v2 from layered sources, highest
priority last:

  - Built-in defaults (structs provider)
  - Optional YAML config file (config.yaml, or the path in CONFIG_PATH)
  - Environment variables (explicit mapping table, e.g. HTTP_PORT,
    TRACKING_COLLECTOR, NATS_EMBEDDED, STORE_PATH)

# Configuration Structure

Settings are organized into logical groups:

  - ServerConfig: HTTP server host, port, timeouts, environment
  - LoggingConfig: zerolog level, format, caller
  - TrackingConfig: queue size, flush interval, collector selection
  - NATSConfig: connection URL, embedded server, JetStream limits,
    circuit breaker tuning
  - PersonalizationConfig: cache TTLs, scoring jitter and seed, limits
  - StoreConfig: BadgerDB path or in-memory mode
  - APIConfig: rate limiting and CORS

Config.Validate runs after loading and rejects out-of-range values before
any subsystem starts.
*/
package config
