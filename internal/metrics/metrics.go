// ViewLens - Viewer Interaction Tracking and Channel Personalization
// Copyright 2026 ViewLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

// Package metrics provides Prometheus instrumentation for ViewLens.
//
// Metrics are exposed at the /metrics endpoint in Prometheus text format.
// Collectors are registered at init via promauto; subsystems record through
// the exported helpers rather than touching collectors directly.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Event tracking metrics
	EventsTracked = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracking_events_total",
			Help: "Total number of events accepted by the tracker",
		},
		[]string{"kind"},
	)

	EventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracking_events_dropped_total",
			Help: "Total number of events dropped",
		},
		[]string{"reason"}, // "disabled", "invalid", "session_reset", "collector_error", "breaker_open"
	)

	FlushesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracking_flushes_total",
			Help: "Total number of flush operations",
		},
		[]string{"trigger", "outcome"}, // trigger: "queue_full", "interval", "manual", "lifecycle"
	)

	FlushBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tracking_flush_batch_size",
			Help:    "Number of events per flushed batch",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250},
		},
	)

	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tracking_queue_depth",
			Help: "Current number of events waiting in the tracker queue",
		},
	)

	CollectorPublishDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tracking_collector_publish_duration_seconds",
			Help:    "Duration of collector batch deliveries",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Personalization metrics
	RecommendationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "personalization_requests_total",
			Help: "Total number of recommendation requests",
		},
		[]string{"kind", "outcome"}, // kind: "channel", "content"
	)

	RecommendationCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "personalization_cache_hits_total",
			Help: "Total number of recommendation cache hits",
		},
		[]string{"kind"},
	)

	RecommendationCacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "personalization_cache_misses_total",
			Help: "Total number of recommendation cache misses",
		},
		[]string{"kind"},
	)

	RecommendationStaleDiscards = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "personalization_stale_discards_total",
			Help: "Total number of in-flight computations discarded after invalidation",
		},
	)

	ScoringDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "personalization_scoring_duration_seconds",
			Help:    "Duration of a full catalog scoring pass",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
	)

	// Circuit breaker metrics
	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// Preference store metrics
	StoreOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "preference_store_operations_total",
			Help: "Total number of preference store operations",
		},
		[]string{"operation", "outcome"},
	)
)

// RecordAPIRequest records a completed HTTP request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest adjusts the active request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordEventTracked records an accepted event by kind.
func RecordEventTracked(kind string) {
	EventsTracked.WithLabelValues(kind).Inc()
}

// RecordEventDropped records a dropped event with the drop reason.
func RecordEventDropped(reason string) {
	EventsDropped.WithLabelValues(reason).Inc()
}

// RecordFlush records a flush operation and its batch size.
func RecordFlush(trigger string, batchSize int, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	FlushesTotal.WithLabelValues(trigger, outcome).Inc()
	if batchSize > 0 {
		FlushBatchSize.Observe(float64(batchSize))
	}
}

// RecordRecommendation records a recommendation request outcome.
func RecordRecommendation(kind string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	RecommendationRequests.WithLabelValues(kind, outcome).Inc()
}

// RecordCacheHit records a recommendation cache hit.
func RecordCacheHit(kind string) {
	RecommendationCacheHits.WithLabelValues(kind).Inc()
}

// RecordCacheMiss records a recommendation cache miss.
func RecordCacheMiss(kind string) {
	RecommendationCacheMisses.WithLabelValues(kind).Inc()
}

// RecordStoreOperation records a preference store operation.
func RecordStoreOperation(operation string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	StoreOperations.WithLabelValues(operation, outcome).Inc()
}

// SetBreakerState publishes a circuit breaker state transition.
func SetBreakerState(name string, state float64) {
	BreakerState.WithLabelValues(name).Set(state)
}
