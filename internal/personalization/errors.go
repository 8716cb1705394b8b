// ViewLens - Viewer Interaction Tracking and Channel Personalization
// Copyright 2026 ViewLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

package personalization

import (
	"errors"
	"fmt"
)

// Sentinel errors for the personalization error taxonomy. API handlers
// map these to HTTP status codes with errors.Is.
var (
	// ErrInvalidResponse indicates the scorer produced an unusable result.
	ErrInvalidResponse = errors.New("invalid scorer response")

	// ErrUnauthorized indicates the caller may not access the viewer's data.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRateLimited indicates the caller exceeded its request budget.
	ErrRateLimited = errors.New("rate limited")

	// ErrUnknown is the fallback classification for unexpected failures.
	ErrUnknown = errors.New("unknown personalization error")

	// ErrPreferencesNotFound indicates no stored preferences for the viewer.
	ErrPreferencesNotFound = errors.New("preferences not found")

	// ErrUserIDRequired indicates a caller passed an empty viewer id. This
	// is a caller-input error, not part of the upstream failure taxonomy.
	ErrUserIDRequired = errors.New("user id required")
)

// NetworkError wraps a transport or storage failure with a short reason.
type NetworkError struct {
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("network error (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("network error (%s)", e.Reason)
}

// Unwrap returns the underlying error.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// NewNetworkError creates a NetworkError with the given reason.
func NewNetworkError(reason string, err error) *NetworkError {
	return &NetworkError{Reason: reason, Err: err}
}
