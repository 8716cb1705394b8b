// ViewLens - Viewer Interaction Tracking and Channel Personalization
// Copyright 2026 ViewLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

package services

import (
	"context"
	"errors"
	"time"
)

// NATSServerRunner matches the embedded NATS server lifecycle.
//
// Satisfied by *tracking.EmbeddedServer: the server is already running
// when constructed, so the wrapper only monitors health and shuts it
// down when the supervision tree stops.
type NATSServerRunner interface {
	IsRunning() bool
	Shutdown(ctx context.Context) error
}

// ErrNATSServerStopped is returned when the embedded server stops
// unexpectedly, prompting suture to restart hosting of the service.
var ErrNATSServerStopped = errors.New("embedded NATS server stopped")

// NATSServerService supervises the embedded NATS server.
type NATSServerService struct {
	server          NATSServerRunner
	shutdownTimeout time.Duration
	checkInterval   time.Duration
	name            string
}

// NewNATSServerService creates the embedded NATS service wrapper.
func NewNATSServerService(server NATSServerRunner, shutdownTimeout time.Duration) *NATSServerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &NATSServerService{
		server:          server,
		shutdownTimeout: shutdownTimeout,
		checkInterval:   5 * time.Second,
		name:            "nats-server",
	}
}

// Serve implements suture.Service. It polls the server's health until
// the context is canceled, then shuts the server down gracefully.
func (s *NATSServerService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
			defer cancel()
			if err := s.server.Shutdown(shutdownCtx); err != nil {
				return err
			}
			return ctx.Err()
		case <-ticker.C:
			if !s.server.IsRunning() {
				return ErrNATSServerStopped
			}
		}
	}
}

// String implements fmt.Stringer for suture's log messages.
func (s *NATSServerService) String() string {
	return s.name
}
