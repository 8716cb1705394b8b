// ViewLens - Viewer Interaction Tracking and Channel Personalization
// Copyright 2026 ViewLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/viewlens/viewlens/internal/logging"
	"github.com/viewlens/viewlens/internal/personalization"
	"github.com/viewlens/viewlens/internal/tracking"
	"github.com/viewlens/viewlens/internal/validation"
)

// sanitizeLogValue strips control characters so attacker-supplied
// strings cannot forge log entries.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			result.WriteString(fmt.Sprintf("\\x%02x", r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// respondJSON sends a JSON response with proper headers.
func respondJSON(w http.ResponseWriter, status int, response *APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Vary", "Accept-Encoding")

	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("ETag", generateETag(data))

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// generateETag creates a simple ETag from data using FNV-1a hash.
func generateETag(data []byte) string {
	hash := uint32(2166136261)
	for _, b := range data {
		hash ^= uint32(b)
		hash *= 16777619
	}
	return strconv.FormatUint(uint64(hash), 16)
}

// respondSuccess wraps data in the success envelope.
func respondSuccess(w http.ResponseWriter, status int, data interface{}) {
	respondJSON(w, status, &APIResponse{
		Status:   "success",
		Data:     data,
		Metadata: Metadata{Timestamp: time.Now().UTC()},
	})
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, code, message string, err error) {
	if err != nil {
		logging.Error().
			Str("code", sanitizeLogValue(code)).
			Str("error", sanitizeLogValue(err.Error())).
			Msg("API Error")
	}

	respondJSON(w, status, &APIResponse{
		Status:   "error",
		Data:     nil,
		Metadata: Metadata{Timestamp: time.Now().UTC()},
		Error: &APIError{
			Code:    code,
			Message: message,
		},
	})
}

// respondDomainError maps domain errors to HTTP status and error codes.
func respondDomainError(w http.ResponseWriter, err error) {
	var verr *tracking.ValidationError
	if errors.As(err, &verr) {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", verr.Error(), nil)
		return
	}

	var nerr *personalization.NetworkError
	switch {
	case errors.As(err, &nerr):
		respondError(w, http.StatusBadGateway, "UPSTREAM_ERROR", nerr.Error(), err)
	case errors.Is(err, personalization.ErrInvalidResponse):
		respondError(w, http.StatusBadGateway, "UPSTREAM_ERROR", err.Error(), err)
	case errors.Is(err, personalization.ErrUnauthorized):
		respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authorization required", err)
	case errors.Is(err, personalization.ErrRateLimited):
		respondError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests", err)
	default:
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error", err)
	}
}

// validateRequest validates a struct and converts failures to the API
// error format.
func validateRequest(v interface{}) *APIError {
	validationErr := validation.ValidateStruct(v)
	if validationErr == nil {
		return nil
	}

	apiErr := validationErr.ToAPIError()
	return &APIError{
		Code:    apiErr.Code,
		Message: apiErr.Message,
		Details: apiErr.Details,
	}
}

// getIntParam extracts an integer query parameter with a default value.
func getIntParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

// decodeBody decodes a JSON request body into dst, rejecting unknown
// payload shapes with a 400 response. Returns false when the request
// was already answered.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "malformed JSON body", nil)
		return false
	}
	return true
}
