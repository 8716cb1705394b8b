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

	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	natsgo "github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/viewlens/viewlens/internal/metrics"
)

// NATSCollectorConfig holds connection and resilience settings for the
// JetStream collector.
type NATSCollectorConfig struct {
	// URL is the NATS server connection URL.
	URL string

	// SubjectPrefix is prepended to the event kind to form the subject,
	// e.g. viewlens.events.content_clicked.
	SubjectPrefix string

	// MaxReconnects bounds automatic reconnection attempts.
	MaxReconnects int

	// ReconnectWait is the delay between reconnection attempts.
	ReconnectWait time.Duration

	// Circuit breaker settings for publish operations.
	BreakerMaxRequests      uint32
	BreakerInterval         time.Duration
	BreakerTimeout          time.Duration
	BreakerFailureThreshold uint32
}

// DefaultNATSCollectorConfig returns production defaults.
func DefaultNATSCollectorConfig() NATSCollectorConfig {
	return NATSCollectorConfig{
		URL:                     "nats://127.0.0.1:4222",
		SubjectPrefix:           "viewlens.events",
		MaxReconnects:           60,
		ReconnectWait:           2 * time.Second,
		BreakerMaxRequests:      3,
		BreakerInterval:         60 * time.Second,
		BreakerTimeout:          30 * time.Second,
		BreakerFailureThreshold: 5,
	}
}

// NATSCollector publishes events to JetStream, one message per event.
// The message UUID is the event ID, which JetStream uses for
// deduplication via Nats-Msg-Id. A circuit breaker guards the publish
// path; while the breaker is open batches are dropped and counted.
type NATSCollector struct {
	cfg       NATSCollectorConfig
	publisher message.Publisher
	breaker   *gobreaker.CircuitBreaker[any]
	logger    zerolog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewNATSCollector creates a collector connected to the given NATS URL.
func NewNATSCollector(cfg NATSCollectorConfig, logger zerolog.Logger) (*NATSCollector, error) {
	if cfg.URL == "" {
		return nil, errors.New("nats url cannot be empty")
	}
	if cfg.SubjectPrefix == "" {
		cfg.SubjectPrefix = "viewlens.events"
	}

	log := logger.With().Str("component", "collector").Str("collector", "nats").Logger()
	wmLogger := newWatermillLogger(log)

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.DisconnectErrHandler(func(nc *natsgo.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: true,
			TrackMsgId:    true,
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}

	breaker := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "nats-collector",
		MaxRequests: cfg.BreakerMaxRequests,
		Interval:    cfg.BreakerInterval,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.SetBreakerState(name, float64(to))
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
		},
	})

	return &NATSCollector{
		cfg:       cfg,
		publisher: pub,
		breaker:   breaker,
		logger:    log,
	}, nil
}

// Collect publishes each event in the batch to its kind subject.
// A publish failure aborts the batch; the tracker never retries, so the
// remaining events are dropped with it.
func (c *NATSCollector) Collect(ctx context.Context, batch []Event) error {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return errors.New("collector is closed")
	}
	c.mu.RUnlock()

	for i := range batch {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.publish(&batch[i]); err != nil {
			return fmt.Errorf("publish event %s: %w", batch[i].ID, err)
		}
	}
	return nil
}

func (c *NATSCollector) publish(event *Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := message.NewMessage(event.ID, data)
	msg.Metadata.Set("kind", event.Kind)
	msg.Metadata.Set("session_id", event.SessionID)
	msg.Metadata.Set(natsgo.MsgIdHdr, event.ID)

	start := time.Now()
	_, err = c.breaker.Execute(func() (any, error) {
		return nil, c.publisher.Publish(event.Subject(c.cfg.SubjectPrefix), msg)
	})
	metrics.CollectorPublishDuration.Observe(time.Since(start).Seconds())
	return err
}

// Close shuts down the underlying publisher. Safe to call more than once.
func (c *NATSCollector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.publisher.Close()
}
