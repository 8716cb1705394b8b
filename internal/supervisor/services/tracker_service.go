// ViewLens - Viewer Interaction Tracking and Channel Personalization
// Copyright 2026 ViewLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

package services

import "context"

// FlushLoop matches the tracker's periodic flush loop.
//
// Satisfied by *tracking.Tracker, whose Serve method ticks on the
// configured flush interval and performs a final flush on shutdown.
type FlushLoop interface {
	Serve(ctx context.Context) error
}

// TrackerService runs the tracker flush loop under supervision.
// A crash restarts only the loop; queued events live in the tracker
// itself and survive the restart.
type TrackerService struct {
	loop FlushLoop
	name string
}

// NewTrackerService creates the tracker flush service wrapper.
func NewTrackerService(loop FlushLoop) *TrackerService {
	return &TrackerService{
		loop: loop,
		name: "tracker-flush",
	}
}

// Serve implements suture.Service.
func (s *TrackerService) Serve(ctx context.Context) error {
	return s.loop.Serve(ctx)
}

// String implements fmt.Stringer for suture's log messages.
func (s *TrackerService) String() string {
	return s.name
}
