// ViewLens - Viewer Interaction Tracking and Channel Personalization
// Copyright 2026 ViewLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

package api

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/viewlens/viewlens/internal/personalization"
	"github.com/viewlens/viewlens/internal/tracking"
)

// Handler holds the dependencies shared by all HTTP handlers.
type Handler struct {
	engine  *personalization.Engine
	tracker *tracking.Tracker
	logger  zerolog.Logger
	started time.Time

	// natsHealth reports embedded NATS status when the NATS collector
	// is active. Nil when the log collector is used.
	natsHealth func() bool
}

// NewHandler creates the handler set.
func NewHandler(engine *personalization.Engine, tracker *tracking.Tracker, logger zerolog.Logger) *Handler {
	return &Handler{
		engine:  engine,
		tracker: tracker,
		logger:  logger.With().Str("component", "api").Logger(),
		started: time.Now().UTC(),
	}
}

// SetNATSHealth registers a health probe for the embedded NATS server.
func (h *Handler) SetNATSHealth(probe func() bool) {
	h.natsHealth = probe
}

// healthComponent is one entry in the health response.
type healthComponent struct {
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Health reports overall service health and per-component status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	components := map[string]healthComponent{
		"personalization": {Status: "up"},
		"tracking":        {Status: "up"},
	}

	if !h.tracker.Enabled() {
		components["tracking"] = healthComponent{Status: "up", Detail: "tracking disabled"}
	}

	status := http.StatusOK
	overall := "healthy"
	if h.natsHealth != nil {
		if h.natsHealth() {
			components["nats"] = healthComponent{Status: "up"}
		} else {
			components["nats"] = healthComponent{Status: "down"}
			overall = "degraded"
			status = http.StatusServiceUnavailable
		}
	}

	respondSuccess(w, status, map[string]interface{}{
		"status":         overall,
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
		"components":     components,
	})
}

// HealthLive is the liveness probe. It answers as long as the process
// can serve HTTP.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, map[string]string{"status": "alive"})
}
