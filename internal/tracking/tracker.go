// ViewLens - Viewer Interaction Tracking and Channel Personalization
// Copyright 2026 ViewLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

package tracking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/viewlens/viewlens/internal/metrics"
)

// Flush triggers, reported in logs and metrics.
const (
	triggerQueueFull  = "queue_full"
	triggerInterval   = "interval"
	triggerManual     = "manual"
	triggerSessionEnd = "session_end"
	triggerBackground = "background"
)

// ErrNilCollector is returned when a tracker is created without a collector.
var ErrNilCollector = errors.New("collector cannot be nil")

// Config holds tracker tuning parameters.
type Config struct {
	// MaxQueueSize is the queue capacity. Reaching it triggers one
	// automatic flush of exactly the queued batch.
	MaxQueueSize int

	// FlushInterval is the period of the background flush ticker.
	FlushInterval time.Duration

	// Enabled is the initial tracking toggle state.
	Enabled bool
}

// DefaultConfig returns production defaults for the tracker.
func DefaultConfig() Config {
	return Config{
		MaxQueueSize:  100,
		FlushInterval: 30 * time.Second,
		Enabled:       true,
	}
}

// Validate checks configuration bounds.
func (c Config) Validate() error {
	if c.MaxQueueSize < 1 {
		return fmt.Errorf("max queue size must be positive, got %d", c.MaxQueueSize)
	}
	if c.FlushInterval <= 0 {
		return fmt.Errorf("flush interval must be positive, got %v", c.FlushInterval)
	}
	return nil
}

// SessionInfo is a snapshot of the current tracking session.
type SessionInfo struct {
	SessionID  string    `json:"session_id"`
	StartedAt  time.Time `json:"started_at"`
	EventCount int       `json:"event_count"`
	Enabled    bool      `json:"enabled"`
}

// Tracker queues interaction events and flushes them in batches.
// Delivery is at-most-once: once a batch is handed to the collector
// the events are gone from the queue, whether delivery succeeds or not.
type Tracker struct {
	cfg       Config
	collector Collector
	logger    zerolog.Logger
	clock     func() time.Time

	mu        sync.Mutex
	queue     []Event
	sessionID string
	startedAt time.Time
	sequence  int
	enabled   bool
	ended     bool
}

// NewTracker creates a tracker with a fresh session.
func NewTracker(cfg Config, collector Collector, logger zerolog.Logger) (*Tracker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate tracker config: %w", err)
	}
	if collector == nil {
		return nil, ErrNilCollector
	}
	t := &Tracker{
		cfg:       cfg,
		collector: collector,
		logger:    logger.With().Str("component", "tracking").Logger(),
		clock:     time.Now,
		enabled:   cfg.Enabled,
	}
	t.resetSessionLocked()
	return t, nil
}

// SetClock replaces the time source. Intended for tests.
func (t *Tracker) SetClock(clock func() time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.clock = clock
}

// resetSessionLocked starts a new session. Caller holds mu (or owns t
// exclusively, as in NewTracker).
func (t *Tracker) resetSessionLocked() {
	t.sessionID = uuid.New().String()
	t.startedAt = t.clock().UTC()
	t.sequence = 0
	t.ended = false
}

// Track stamps the event with session metadata and queues it.
// Reaching queue capacity flushes the queued batch once. When tracking
// is disabled events are dropped without error.
func (t *Tracker) Track(ctx context.Context, event *Event) error {
	if event == nil {
		return &ValidationError{Field: "event", Message: "required"}
	}

	t.mu.Lock()
	if !t.enabled || t.ended {
		t.mu.Unlock()
		metrics.RecordEventDropped("disabled")
		return nil
	}

	event.SessionID = t.sessionID
	event.Sequence = t.sequence
	if event.Timestamp.IsZero() {
		event.Timestamp = t.clock().UTC()
	}
	if err := event.Validate(); err != nil {
		t.mu.Unlock()
		metrics.RecordEventDropped("invalid")
		return err
	}
	t.sequence++
	t.queue = append(t.queue, *event)
	depth := len(t.queue)

	var batch []Event
	if depth >= t.cfg.MaxQueueSize {
		batch = t.takeBatchLocked()
	}
	t.mu.Unlock()

	metrics.RecordEventTracked(event.Kind)
	if batch == nil {
		metrics.QueueDepth.Set(float64(depth))
	}

	if batch != nil {
		t.dispatch(ctx, batch, triggerQueueFull)
	}
	return nil
}

// Flush delivers all queued events to the collector.
func (t *Tracker) Flush(ctx context.Context) error {
	return t.flush(ctx, triggerManual)
}

func (t *Tracker) flush(ctx context.Context, trigger string) error {
	t.mu.Lock()
	batch := t.takeBatchLocked()
	t.mu.Unlock()

	if batch == nil {
		return nil
	}
	return t.dispatch(ctx, batch, trigger)
}

// takeBatchLocked snapshots and clears the queue. Caller holds mu.
func (t *Tracker) takeBatchLocked() []Event {
	if len(t.queue) == 0 {
		return nil
	}
	batch := t.queue
	t.queue = nil
	return batch
}

// dispatch hands a batch to the collector. The batch is never re-queued.
func (t *Tracker) dispatch(ctx context.Context, batch []Event, trigger string) error {
	summary := batchSummary(batch)
	metrics.QueueDepth.Set(0)

	err := t.collector.Collect(ctx, batch)
	metrics.RecordFlush(trigger, len(batch), err)
	if err != nil {
		for range batch {
			metrics.RecordEventDropped("collector_error")
		}
		t.logger.Error().Err(err).
			Str("trigger", trigger).
			Int("batch_size", len(batch)).
			Msg("Event batch lost")
		return fmt.Errorf("collect batch: %w", err)
	}
	t.logger.Info().
		Str("trigger", trigger).
		Int("batch_size", len(batch)).
		Interface("kinds", summary).
		Msg("Flushed event batch")
	return nil
}

// batchSummary counts events per kind for flush logging.
func batchSummary(batch []Event) map[string]int {
	summary := make(map[string]int, len(batch))
	for i := range batch {
		summary[batch[i].Kind]++
	}
	return summary
}

// EndSession flushes queued events and marks the session ended.
// Subsequent Track calls drop events until EnterForeground starts a
// new session.
func (t *Tracker) EndSession(ctx context.Context) error {
	err := t.flush(ctx, triggerSessionEnd)

	t.mu.Lock()
	t.ended = true
	sessionID := t.sessionID
	t.mu.Unlock()

	t.logger.Info().Str("session_id", sessionID).Msg("Session ended")
	return err
}

// EnterBackground flushes queued events before the app is suspended.
func (t *Tracker) EnterBackground(ctx context.Context) error {
	return t.flush(ctx, triggerBackground)
}

// EnterForeground starts a new session with a fresh ID and sequence.
// Events queued under the previous session are dropped, not flushed:
// they belong to a session whose end was never observed.
func (t *Tracker) EnterForeground() SessionInfo {
	t.mu.Lock()
	dropped := len(t.queue)
	t.queue = nil
	t.resetSessionLocked()
	info := t.sessionInfoLocked()
	t.mu.Unlock()

	for i := 0; i < dropped; i++ {
		metrics.RecordEventDropped("session_reset")
	}
	metrics.QueueDepth.Set(0)
	t.logger.Info().
		Str("session_id", info.SessionID).
		Int("dropped", dropped).
		Msg("New session started")
	return info
}

// SetEnabled toggles tracking. Disabling drops any queued events.
func (t *Tracker) SetEnabled(enabled bool) {
	t.mu.Lock()
	t.enabled = enabled
	var dropped int
	if !enabled {
		dropped = len(t.queue)
		t.queue = nil
	}
	t.mu.Unlock()

	for i := 0; i < dropped; i++ {
		metrics.RecordEventDropped("disabled")
	}
	if dropped > 0 {
		metrics.QueueDepth.Set(0)
	}
	t.logger.Info().Bool("enabled", enabled).Msg("Tracking toggled")
}

// Enabled reports whether tracking is currently on.
func (t *Tracker) Enabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enabled
}

// SessionInfo returns a snapshot of the current session.
func (t *Tracker) SessionInfo() SessionInfo {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sessionInfoLocked()
}

func (t *Tracker) sessionInfoLocked() SessionInfo {
	return SessionInfo{
		SessionID:  t.sessionID,
		StartedAt:  t.startedAt,
		EventCount: t.sequence,
		Enabled:    t.enabled,
	}
}

// Serve runs the periodic flush loop until the context is cancelled.
// It satisfies suture.Service so the tracker can sit in the supervision
// tree next to the HTTP server.
func (t *Tracker) Serve(ctx context.Context) error {
	ticker := time.NewTicker(t.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Final flush with a short grace period so queued events
			// survive shutdown.
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err := t.flush(flushCtx, triggerManual)
			cancel()
			if err != nil {
				t.logger.Warn().Err(err).Msg("Final flush failed during shutdown")
			}
			return ctx.Err()
		case <-ticker.C:
			if err := t.flush(ctx, triggerInterval); err != nil {
				t.logger.Warn().Err(err).Msg("Periodic flush failed")
			}
		}
	}
}
