// ViewLens - Viewer Interaction Tracking and Channel Personalization
// Copyright 2026 ViewLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the ViewLens server.
type Config struct {
	Server          ServerConfig          `koanf:"server"`
	Logging         LoggingConfig         `koanf:"logging"`
	Tracking        TrackingConfig        `koanf:"tracking"`
	NATS            NATSConfig            `koanf:"nats"`
	Personalization PersonalizationConfig `koanf:"personalization"`
	Store           StoreConfig           `koanf:"store"`
	API             APIConfig             `koanf:"api"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int    `koanf:"port"`
	Host string `koanf:"host"`
	// Timeout applies to both read and write on the HTTP server.
	Timeout time.Duration `koanf:"timeout"`
	// Environment is "development" or "production".
	Environment string `koanf:"environment"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// TrackingConfig holds event tracker settings.
type TrackingConfig struct {
	// Enabled is the initial state of the global tracking toggle.
	Enabled bool `koanf:"enabled"`
	// MaxQueueSize is the queue capacity that triggers an automatic flush.
	MaxQueueSize int `koanf:"max_queue_size"`
	// FlushInterval is the period of the background flush loop.
	FlushInterval time.Duration `koanf:"flush_interval"`
	// Collector selects the batch sink: "log" or "nats".
	Collector string `koanf:"collector"`
}

// NATSConfig holds NATS JetStream settings for the event sink.
type NATSConfig struct {
	URL            string        `koanf:"url"`
	EmbeddedServer bool          `koanf:"embedded_server"`
	StoreDir       string        `koanf:"store_dir"`
	MaxMemory      int64         `koanf:"max_memory"`
	MaxStore       int64         `koanf:"max_store"`
	SubjectPrefix  string        `koanf:"subject_prefix"`
	ConnectTimeout time.Duration `koanf:"connect_timeout"`

	// Circuit breaker settings for the publish path.
	BreakerMaxRequests      uint32        `koanf:"breaker_max_requests"`
	BreakerInterval         time.Duration `koanf:"breaker_interval"`
	BreakerTimeout          time.Duration `koanf:"breaker_timeout"`
	BreakerFailureThreshold uint32        `koanf:"breaker_failure_threshold"`
}

// PersonalizationConfig holds recommendation engine settings.
type PersonalizationConfig struct {
	// ChannelCacheTTL is how long channel recommendation responses stay cached.
	ChannelCacheTTL time.Duration `koanf:"channel_cache_ttl"`
	// ContentCacheTTL is how long content recommendation responses stay cached.
	ContentCacheTTL time.Duration `koanf:"content_cache_ttl"`
	// MaxCacheEntries caps the response cache size.
	MaxCacheEntries int `koanf:"max_cache_entries"`
	// Jitter is the half-width of the uniform score jitter. 0 disables jitter.
	Jitter float64 `koanf:"jitter"`
	// Seed seeds the engine's random source. 0 selects a fixed default
	// so behavior is reproducible.
	Seed int64 `koanf:"seed"`
	// ModelVersion is reported in response metadata.
	ModelVersion string `koanf:"model_version"`
	// DefaultLimit is the recommendation count when the request omits one.
	DefaultLimit int `koanf:"default_limit"`
	// MaxLimit caps the recommendation count per request.
	MaxLimit int `koanf:"max_limit"`
}

// StoreConfig holds preference store settings.
type StoreConfig struct {
	// Path is the BadgerDB directory for durable preferences.
	Path string `koanf:"path"`
	// InMemory switches to a non-durable in-process store.
	InMemory bool `koanf:"in_memory"`
}

// APIConfig holds HTTP API settings.
type APIConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server timeout must be positive, got %v", c.Server.Timeout)
	}
	if c.Server.Environment != "development" && c.Server.Environment != "production" {
		return fmt.Errorf("server environment must be development or production, got %q", c.Server.Environment)
	}

	if c.Tracking.MaxQueueSize <= 0 {
		return fmt.Errorf("tracking max_queue_size must be positive, got %d", c.Tracking.MaxQueueSize)
	}
	if c.Tracking.FlushInterval <= 0 {
		return fmt.Errorf("tracking flush_interval must be positive, got %v", c.Tracking.FlushInterval)
	}
	if c.Tracking.Collector != "log" && c.Tracking.Collector != "nats" {
		return fmt.Errorf("tracking collector must be log or nats, got %q", c.Tracking.Collector)
	}

	if c.Tracking.Collector == "nats" {
		if c.NATS.URL == "" && !c.NATS.EmbeddedServer {
			return fmt.Errorf("nats url is required when the embedded server is disabled")
		}
		if c.NATS.SubjectPrefix == "" {
			return fmt.Errorf("nats subject_prefix must not be empty")
		}
	}

	if c.Personalization.ChannelCacheTTL <= 0 {
		return fmt.Errorf("personalization channel_cache_ttl must be positive, got %v", c.Personalization.ChannelCacheTTL)
	}
	if c.Personalization.ContentCacheTTL <= 0 {
		return fmt.Errorf("personalization content_cache_ttl must be positive, got %v", c.Personalization.ContentCacheTTL)
	}
	if c.Personalization.MaxCacheEntries <= 0 {
		return fmt.Errorf("personalization max_cache_entries must be positive, got %d", c.Personalization.MaxCacheEntries)
	}
	if c.Personalization.Jitter < 0 || c.Personalization.Jitter > 0.1 {
		return fmt.Errorf("personalization jitter must be in [0, 0.1], got %v", c.Personalization.Jitter)
	}
	if c.Personalization.DefaultLimit <= 0 {
		return fmt.Errorf("personalization default_limit must be positive, got %d", c.Personalization.DefaultLimit)
	}
	if c.Personalization.MaxLimit < c.Personalization.DefaultLimit {
		return fmt.Errorf("personalization max_limit must be >= default_limit, got %d < %d",
			c.Personalization.MaxLimit, c.Personalization.DefaultLimit)
	}

	if !c.Store.InMemory && c.Store.Path == "" {
		return fmt.Errorf("store path is required when in_memory is false")
	}

	if !c.API.RateLimitDisabled {
		if c.API.RateLimitReqs <= 0 {
			return fmt.Errorf("api rate_limit_reqs must be positive, got %d", c.API.RateLimitReqs)
		}
		if c.API.RateLimitWindow <= 0 {
			return fmt.Errorf("api rate_limit_window must be positive, got %v", c.API.RateLimitWindow)
		}
	}

	return nil
}
