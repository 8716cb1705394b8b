// ViewLens - Viewer Interaction Tracking and Channel Personalization
// Copyright 2026 ViewLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

package tracking

import (
	"context"

	"github.com/rs/zerolog"
)

// Collector receives flushed event batches from the tracker.
// Implementations must tolerate repeated Close calls.
type Collector interface {
	Collect(ctx context.Context, batch []Event) error
	Close() error
}

// LogCollector writes batch summaries to the structured log.
// It is the development-mode collector and the fallback when no
// message broker is configured.
type LogCollector struct {
	logger zerolog.Logger
}

// NewLogCollector creates a collector that logs batch summaries.
func NewLogCollector(logger zerolog.Logger) *LogCollector {
	return &LogCollector{
		logger: logger.With().Str("component", "collector").Str("collector", "log").Logger(),
	}
}

// Collect logs the batch grouped by kind. It never fails.
func (c *LogCollector) Collect(ctx context.Context, batch []Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(batch) == 0 {
		return nil
	}
	c.logger.Info().
		Int("batch_size", len(batch)).
		Str("session_id", batch[0].SessionID).
		Interface("kinds", batchSummary(batch)).
		Msg("Collected event batch")

	for i := range batch {
		e := &batch[i]
		c.logger.Debug().
			Str("event_id", e.ID).
			Str("kind", e.Kind).
			Int("sequence", e.Sequence).
			Time("timestamp", e.Timestamp).
			Msg("Event")
	}
	return nil
}

// Close is a no-op for the log collector.
func (c *LogCollector) Close() error {
	return nil
}
