// ViewLens - Viewer Interaction Tracking and Channel Personalization
// Copyright 2026 ViewLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

// Package api provides the HTTP surface of ViewLens using the Chi router.
//
// The surface has two halves under /api/v1: event ingestion and session
// lifecycle (backed by the tracking package) and recommendation and
// preference endpoints (backed by the personalization engine). All
// responses use the envelope {status, data, metadata, error}.
//
// Production-hardened middleware from the Chi ecosystem handles CORS
// (go-chi/cors) and rate limiting (go-chi/httprate); request IDs,
// security headers, and Prometheus instrumentation are applied
// globally.
package api
