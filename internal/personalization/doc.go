// ViewLens - Viewer Interaction Tracking and Channel Personalization
// Copyright 2026 ViewLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

// Package personalization implements the ViewLens recommendation engine.
//
// The engine scores the static channel and content catalogs against a
// viewer's stored preferences using a deterministic additive model:
// a base score plus category, time-of-day, segment and premium bonuses,
// optionally jittered, clamped to [0, 1]. Responses are cached with
// per-kind TTLs and invalidated when preferences change; a per-viewer
// generation counter ensures computations that raced an invalidation
// are discarded rather than served.
//
// The Scorer and PreferenceStore interfaces keep scoring and
// persistence swappable and unit-testable.
package personalization
