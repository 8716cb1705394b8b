// ViewLens - Viewer Interaction Tracking and Channel Personalization
// Copyright 2026 ViewLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

// Package validation provides struct validation for API request types
// using go-playground/validator v10.
//
// A thread-safe singleton validator caches struct metadata across
// requests. Validation failures are translated into the API's
// VALIDATION_ERROR response format.
//
// Example:
//
//	type ContentQuery struct {
//	    ContentType string `validate:"required,oneof=movie series"`
//	    Limit       int    `validate:"min=0,max=50"`
//	}
//
//	if err := validation.ValidateStruct(&query); err != nil {
//	    apiErr := err.ToAPIError()
//	    respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
//	    return
//	}
package validation
