// ViewLens - Viewer Interaction Tracking and Channel Personalization
// Copyright 2026 ViewLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/viewlens/config.yaml",
	"/etc/viewlens/config.yml",
}

// ConfigPathEnvVar is the environment variable that overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with all built-in defaults.
// Defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        8080,
			Host:        "0.0.0.0",
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Tracking: TrackingConfig{
			Enabled:       true,
			MaxQueueSize:  100,
			FlushInterval: 30 * time.Second,
			Collector:     "log",
		},
		NATS: NATSConfig{
			URL:            "nats://127.0.0.1:4222",
			EmbeddedServer: true,
			StoreDir:       "/data/viewlens/jetstream",
			MaxMemory:      1 << 30,  // 1GB
			MaxStore:       10 << 30, // 10GB
			SubjectPrefix:  "viewlens.events",
			ConnectTimeout: 10 * time.Second,

			BreakerMaxRequests:      3,
			BreakerInterval:         30 * time.Second,
			BreakerTimeout:          15 * time.Second,
			BreakerFailureThreshold: 5,
		},
		Personalization: PersonalizationConfig{
			ChannelCacheTTL: 5 * time.Minute,
			ContentCacheTTL: 10 * time.Minute,
			MaxCacheEntries: 1000,
			Jitter:          0.05,
			Seed:            0, // fixed default seed
			ModelVersion:    "viewlens-v2.1",
			DefaultLimit:    10,
			MaxLimit:        50,
		},
		Store: StoreConfig{
			Path:     "/data/viewlens/prefs",
			InMemory: false,
		},
		API: APIConfig{
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{"*"},
		},
	}
}

// Load loads configuration using koanf v2 with layered sources:
//  1. Built-in defaults
//  2. Optional YAML config file
//  3. Environment variables (highest priority)
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// HTTP_PORT -> server.port, TRACKING_FLUSH_INTERVAL -> tracking.flush_interval
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file, honoring CONFIG_PATH first.
// Returns an empty string when no file exists.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths are parsed as comma-separated slices.
var sliceConfigPaths = []string{
	"api.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for
// known slice fields. Env vars come in as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// Already a slice (from defaults or YAML): leave as-is.
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps environment variable names to koanf config paths.
// Unmapped variables are skipped so random environment noise cannot leak
// into the configuration.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Server
		"http_port":    "server.port",
		"http_host":    "server.host",
		"http_timeout": "server.timeout",
		"environment":  "server.environment",

		// Logging
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",

		// Tracking
		"tracking_enabled":        "tracking.enabled",
		"tracking_max_queue_size": "tracking.max_queue_size",
		"tracking_flush_interval": "tracking.flush_interval",
		"tracking_collector":      "tracking.collector",

		// NATS
		"nats_url":             "nats.url",
		"nats_embedded":        "nats.embedded_server",
		"nats_store_dir":       "nats.store_dir",
		"nats_max_memory":      "nats.max_memory",
		"nats_max_store":       "nats.max_store",
		"nats_subject_prefix":  "nats.subject_prefix",
		"nats_connect_timeout": "nats.connect_timeout",
		// Circuit breaker
		"nats_breaker_max_requests":      "nats.breaker_max_requests",
		"nats_breaker_interval":          "nats.breaker_interval",
		"nats_breaker_timeout":           "nats.breaker_timeout",
		"nats_breaker_failure_threshold": "nats.breaker_failure_threshold",

		// Personalization
		"personalization_channel_cache_ttl": "personalization.channel_cache_ttl",
		"personalization_content_cache_ttl": "personalization.content_cache_ttl",
		"personalization_max_cache_entries": "personalization.max_cache_entries",
		"personalization_jitter":            "personalization.jitter",
		"personalization_seed":              "personalization.seed",
		"personalization_model_version":     "personalization.model_version",
		"personalization_default_limit":     "personalization.default_limit",
		"personalization_max_limit":         "personalization.max_limit",

		// Store
		"store_path":      "store.path",
		"store_in_memory": "store.in_memory",

		// API
		"rate_limit_requests": "api.rate_limit_reqs",
		"rate_limit_window":   "api.rate_limit_window",
		"disable_rate_limit":  "api.rate_limit_disabled",
		"cors_origins":        "api.cors_origins",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	return ""
}

// WatchConfigFile sets up a file watcher for hot-reload capability.
// The caller is responsible for mutex protection when swapping configuration.
func WatchConfigFile(path string, callback func()) error {
	provider := file.Provider(path)

	return provider.Watch(func(event interface{}, err error) {
		if err != nil {
			return
		}
		callback()
	})
}
