// ViewLens - Viewer Interaction Tracking and Channel Personalization
// Copyright 2026 ViewLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

package personalization

import (
	"fmt"
	"time"
)

// Config holds engine configuration.
type Config struct {
	// ChannelCacheTTL is the lifetime of cached channel responses.
	ChannelCacheTTL time.Duration

	// ContentCacheTTL is the lifetime of cached content responses.
	ContentCacheTTL time.Duration

	// MaxCacheEntries caps the response cache size. When the cache is at
	// capacity, expired entries are evicted before inserting.
	MaxCacheEntries int

	// Jitter is the half-width of the uniform score jitter applied by the
	// scorer. 0 disables jitter and makes scoring fully deterministic.
	Jitter float64

	// Seed seeds the engine's random source. 0 selects a fixed default so
	// behavior is reproducible.
	Seed int64

	// ModelVersion is reported in response metadata.
	ModelVersion string

	// DefaultLimit is the recommendation count when the request omits one.
	DefaultLimit int

	// MaxLimit caps the recommendation count per request.
	MaxLimit int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ChannelCacheTTL: 5 * time.Minute,
		ContentCacheTTL: 10 * time.Minute,
		MaxCacheEntries: 1000,
		Jitter:          0.05,
		Seed:            0,
		ModelVersion:    "viewlens-v2.1",
		DefaultLimit:    10,
		MaxLimit:        50,
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.ChannelCacheTTL <= 0 {
		return fmt.Errorf("channel cache TTL must be positive, got %v", c.ChannelCacheTTL)
	}
	if c.ContentCacheTTL <= 0 {
		return fmt.Errorf("content cache TTL must be positive, got %v", c.ContentCacheTTL)
	}
	if c.MaxCacheEntries <= 0 {
		return fmt.Errorf("max cache entries must be positive, got %d", c.MaxCacheEntries)
	}
	if c.Jitter < 0 || c.Jitter > 0.1 {
		return fmt.Errorf("jitter must be in [0, 0.1], got %v", c.Jitter)
	}
	if c.ModelVersion == "" {
		return fmt.Errorf("model version must not be empty")
	}
	if c.DefaultLimit <= 0 {
		return fmt.Errorf("default limit must be positive, got %d", c.DefaultLimit)
	}
	if c.MaxLimit < c.DefaultLimit {
		return fmt.Errorf("max limit must be >= default limit, got %d < %d", c.MaxLimit, c.DefaultLimit)
	}
	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
