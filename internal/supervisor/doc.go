// ViewLens - Viewer Interaction Tracking and Channel Personalization
// Copyright 2026 ViewLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

/*
Package supervisor provides process supervision for ViewLens using suture v4.

This package implements a hierarchical supervisor tree that manages the
lifecycle of all long-running services. It provides Erlang/OTP-style
supervision with automatic restart, failure isolation, and graceful shutdown.

# Overview

The supervisor tree organizes services into three layers for failure
isolation:

	RootSupervisor ("viewlens")
	├── DataSupervisor ("data-layer")
	├── MessagingSupervisor ("messaging-layer")
	│   ├── TrackerService (periodic flush loop)
	│   └── NATSServerService (if the embedded server is enabled)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

This hierarchy ensures that a crash in the flush loop does not affect API
availability, and that each layer restarts independently with exponential
backoff.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddMessagingService(services.NewTrackerService(tracker))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	errCh := tree.ServeBackground(ctx)

Supervisor events (service failures, restarts, backoff) are logged through
the sutureslog hook, which bridges to the global zerolog logger.
*/
package supervisor
