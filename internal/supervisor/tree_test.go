// ViewLens - Viewer Interaction Tracking and Channel Personalization
// Copyright 2026 ViewLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

package supervisor

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

func testSlogLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// blockingService runs until its context is canceled.
type blockingService struct {
	started atomic.Int32
}

func (s *blockingService) Serve(ctx context.Context) error {
	s.started.Add(1)
	<-ctx.Done()
	return ctx.Err()
}

func (s *blockingService) String() string { return "blocking-service" }

func TestDefaultTreeConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultTreeConfig()
	if cfg.FailureThreshold != 5.0 {
		t.Errorf("FailureThreshold = %v, want 5.0", cfg.FailureThreshold)
	}
	if cfg.FailureBackoff != 15*time.Second {
		t.Errorf("FailureBackoff = %v, want 15s", cfg.FailureBackoff)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 10s", cfg.ShutdownTimeout)
	}
}

func TestNewSupervisorTreeAppliesDefaults(t *testing.T) {
	t.Parallel()

	tree, err := NewSupervisorTree(testSlogLogger(), TreeConfig{})
	if err != nil {
		t.Fatalf("NewSupervisorTree: %v", err)
	}
	if tree.config.FailureThreshold != 5.0 {
		t.Errorf("FailureThreshold = %v, want default 5.0", tree.config.FailureThreshold)
	}
	if tree.Root() == nil {
		t.Error("Root() returned nil")
	}
}

func TestSupervisorTreeRunsServices(t *testing.T) {
	t.Parallel()

	tree, err := NewSupervisorTree(testSlogLogger(), DefaultTreeConfig())
	if err != nil {
		t.Fatalf("NewSupervisorTree: %v", err)
	}

	apiSvc := &blockingService{}
	msgSvc := &blockingService{}
	dataSvc := &blockingService{}
	tree.AddAPIService(apiSvc)
	tree.AddMessagingService(msgSvc)
	tree.AddDataService(dataSvc)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	deadline := time.After(2 * time.Second)
	for apiSvc.started.Load() == 0 || msgSvc.started.Load() == 0 || dataSvc.started.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("services did not start")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-errCh:
	case <-time.After(2 * time.Second):
		t.Fatal("tree did not stop after cancel")
	}
}
