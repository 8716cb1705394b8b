// ViewLens - Viewer Interaction Tracking and Channel Personalization
// Copyright 2026 ViewLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

package api

import "time"

// APIResponse is the envelope for every JSON response.
//
// Example success:
//
//	{
//	  "status": "success",
//	  "data": {"recommendations": [...]},
//	  "metadata": {"timestamp": "2026-08-29T12:00:00Z"}
//	}
//
// Example error:
//
//	{
//	  "status": "error",
//	  "error": {"code": "VALIDATION_ERROR", "message": "limit must be at most 50"},
//	  "metadata": {"timestamp": "2026-08-29T12:00:00Z"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries response timing information.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Cached      bool      `json:"cached,omitempty"`
}

// APIError is a machine-readable error body.
//
// Error codes:
//   - VALIDATION_ERROR: invalid input parameters
//   - UPSTREAM_ERROR: scorer or preference store failure
//   - UNAUTHORIZED: missing or invalid credentials
//   - RATE_LIMITED: too many requests
//   - INTERNAL_ERROR: unexpected failure
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
