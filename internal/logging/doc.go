// ViewLens - Viewer Interaction Tracking and Channel Personalization
// Copyright 2026 ViewLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

// Package logging provides centralized zerolog-based structured logging
// for ViewLens.
//
// The package exposes a global logger configured once at startup plus
// helpers for deriving component loggers and for bridging to log/slog
// (required by sutureslog for supervisor logging).
//
// # Quick Start
//
//	import "github.com/viewlens/viewlens/internal/logging"
//
//	logging.Init(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	logging.Info().Msg("server starting")
//	logging.Error().Err(err).Msg("operation failed")
//
// Component loggers carry a fixed field so every subsystem is
// identifiable in aggregated output:
//
//	trackerLog := logging.With().Str("component", "tracker").Logger()
//
// Always terminate log chains with .Msg() or .Send(); an unterminated
// chain is silently dropped.
package logging
