// ViewLens - Viewer Interaction Tracking and Channel Personalization
// Copyright 2026 ViewLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

package api

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/viewlens/viewlens/internal/tracking"
)

// eventRequest is the wire format for a single tracked event.
// user_id is omitted for anonymous viewers.
type eventRequest struct {
	Kind    string                 `json:"kind" validate:"required"`
	UserID  string                 `json:"user_id"`
	Device  tracking.DeviceContext `json:"device"`
	Screen  tracking.ScreenContext `json:"screen"`
	Payload json.RawMessage        `json:"payload"`
}

// batchRequest is the wire format for POST /events/batch.
type batchRequest struct {
	Events []eventRequest `json:"events" validate:"required,min=1,max=100,dive"`
}

// batchResult reports per-batch ingestion outcome.
type batchResult struct {
	Accepted int      `json:"accepted"`
	Rejected int      `json:"rejected"`
	Errors   []string `json:"errors,omitempty"`
}

// trackOne converts a wire event and hands it to the tracker.
func (h *Handler) trackOne(r *http.Request, req *eventRequest) error {
	event, err := tracking.NewFromWire(req.Kind, req.Payload)
	if err != nil {
		return err
	}
	event.UserID = req.UserID
	event.Device = req.Device
	event.Screen = req.Screen
	return h.tracker.Track(r.Context(), event)
}

// TrackEvent handles POST /api/v1/events.
func (h *Handler) TrackEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	if err := h.trackOne(r, &req); err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, http.StatusAccepted, map[string]interface{}{
		"accepted": 1,
		"session":  h.tracker.SessionInfo(),
	})
}

// TrackEventBatch handles POST /api/v1/events/batch.
// Events are processed in order; invalid events are rejected
// individually without failing the batch.
func (h *Handler) TrackEventBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	result := batchResult{}
	for i := range req.Events {
		if err := h.trackOne(r, &req.Events[i]); err != nil {
			result.Rejected++
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		result.Accepted++
	}

	respondSuccess(w, http.StatusAccepted, result)
}

// FlushEvents handles POST /api/v1/events/flush.
func (h *Handler) FlushEvents(w http.ResponseWriter, r *http.Request) {
	if err := h.tracker.Flush(r.Context()); err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, http.StatusAccepted, map[string]string{"flush": "completed"})
}

// Session handles GET /api/v1/session.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, h.tracker.SessionInfo())
}

// EndSession handles POST /api/v1/session/end.
func (h *Handler) EndSession(w http.ResponseWriter, r *http.Request) {
	if err := h.tracker.EndSession(r.Context()); err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]string{"session": "ended"})
}

// EnterBackground handles POST /api/v1/lifecycle/background.
func (h *Handler) EnterBackground(w http.ResponseWriter, r *http.Request) {
	if err := h.tracker.EnterBackground(r.Context()); err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]string{"lifecycle": "background"})
}

// EnterForeground handles POST /api/v1/lifecycle/foreground.
func (h *Handler) EnterForeground(w http.ResponseWriter, r *http.Request) {
	info := h.tracker.EnterForeground()
	respondSuccess(w, http.StatusOK, info)
}

// trackingToggleRequest is the body for PUT /api/v1/tracking/enabled.
type trackingToggleRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

// SetTrackingEnabled handles PUT /api/v1/tracking/enabled.
func (h *Handler) SetTrackingEnabled(w http.ResponseWriter, r *http.Request) {
	var req trackingToggleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	h.tracker.SetEnabled(*req.Enabled)
	respondSuccess(w, http.StatusOK, map[string]bool{"enabled": *req.Enabled})
}
