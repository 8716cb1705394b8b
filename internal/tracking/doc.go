// ViewLens - Viewer Interaction Tracking and Channel Personalization
// Copyright 2026 ViewLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

// Package tracking implements the viewer interaction event pipeline.
//
// Events are created through typed constructors (NewCategorySelected,
// NewContentClicked, NewSearch, ...) and handed to a Tracker, which
// stamps session metadata, queues them, and flushes batches to a
// Collector. Flushing is at-most-once: a batch handed to the collector
// is never re-queued, even when delivery fails.
//
// Two collectors ship with the package: LogCollector writes batch
// summaries to the structured log, NATSCollector publishes each event
// to a JetStream subject derived from its kind. An EmbeddedServer is
// provided for single-binary deployments that want JetStream without
// an external NATS instance.
package tracking
