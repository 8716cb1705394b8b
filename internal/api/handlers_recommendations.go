// ViewLens - Viewer Interaction Tracking and Channel Personalization
// Copyright 2026 ViewLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/viewlens/viewlens/internal/personalization"
)

// recommendationsQuery holds validated query parameters for the
// recommendation endpoints.
type recommendationsQuery struct {
	UserID string `validate:"required,max=128"`
	Limit  int    `validate:"min=0,max=50"`
}

// contentQuery adds the content type filter.
type contentQuery struct {
	UserID      string `validate:"required,max=128"`
	ContentType string `validate:"required,oneof=movie series"`
	Limit       int    `validate:"min=0,max=50"`
}

// sessionID ties a recommendation response to the caller's tracking
// session when the header is present.
func sessionID(r *http.Request) string {
	return r.Header.Get("X-Session-ID")
}

// Recommendations handles GET /api/v1/users/{userID}/recommendations.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	query := recommendationsQuery{
		UserID: chi.URLParam(r, "userID"),
		Limit:  getIntParam(r, "limit", 0),
	}
	if apiErr := validateRequest(&query); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	resp, err := h.engine.ChannelRecommendations(r.Context(), query.UserID, sessionID(r), query.Limit)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, &APIResponse{
		Status:   "success",
		Data:     resp,
		Metadata: responseMetadata(resp.Metadata),
	})
}

// ContentRecommendations handles
// GET /api/v1/users/{userID}/recommendations/content?type=movie&limit=10.
func (h *Handler) ContentRecommendations(w http.ResponseWriter, r *http.Request) {
	query := contentQuery{
		UserID:      chi.URLParam(r, "userID"),
		ContentType: r.URL.Query().Get("type"),
		Limit:       getIntParam(r, "limit", 0),
	}
	if apiErr := validateRequest(&query); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	resp, err := h.engine.ContentRecommendations(r.Context(), query.UserID, query.ContentType, query.Limit)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, &APIResponse{
		Status:   "success",
		Data:     resp,
		Metadata: responseMetadata(resp.Metadata),
	})
}

// RefreshRecommendations handles
// POST /api/v1/users/{userID}/recommendations/refresh.
// It invalidates the channel cache and returns a fresh ranking.
func (h *Handler) RefreshRecommendations(w http.ResponseWriter, r *http.Request) {
	query := recommendationsQuery{UserID: chi.URLParam(r, "userID")}
	if apiErr := validateRequest(&query); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	resp, err := h.engine.Refresh(r.Context(), query.UserID, sessionID(r))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, &APIResponse{
		Status:   "success",
		Data:     resp,
		Metadata: responseMetadata(resp.Metadata),
	})
}

// preferencesRequest is the body for PUT /api/v1/users/{userID}/preferences.
type preferencesRequest struct {
	Segment       string                             `json:"segment" validate:"omitempty,max=64"`
	TopCategories []string                           `json:"top_categories" validate:"max=10,dive,min=1,max=32"`
	Languages     []string                           `json:"languages" validate:"max=10,dive,min=1,max=32"`
	Time          personalization.TimePreferences    `json:"time"`
	Content       personalization.ContentPreferences `json:"content"`
}

// Preferences handles GET /api/v1/users/{userID}/preferences.
// Unknown users receive the default profile.
func (h *Handler) Preferences(w http.ResponseWriter, r *http.Request) {
	query := recommendationsQuery{UserID: chi.URLParam(r, "userID")}
	if apiErr := validateRequest(&query); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	prefs, err := h.engine.Preferences(r.Context(), query.UserID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, prefs)
}

// SetPreferences handles PUT /api/v1/users/{userID}/preferences.
// Saving invalidates the user's cached recommendations.
func (h *Handler) SetPreferences(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	query := recommendationsQuery{UserID: userID}
	if apiErr := validateRequest(&query); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	var req preferencesRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	prefs := &personalization.UserPreferences{
		Segment:       req.Segment,
		TopCategories: req.TopCategories,
		Languages:     req.Languages,
		Time:          req.Time,
		Content:       req.Content,
	}
	if err := h.engine.SetPreferences(r.Context(), userID, prefs); err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, prefs)
}

// responseMetadata lifts engine response metadata into the envelope.
func responseMetadata(meta personalization.ResponseMetadata) Metadata {
	return Metadata{
		Timestamp:   time.Now().UTC(),
		QueryTimeMS: meta.ProcessingTimeMS,
		Cached:      meta.CacheHit,
	}
}
