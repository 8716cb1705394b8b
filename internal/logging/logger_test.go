// ViewLens - Viewer Interaction Tracking and Channel Personalization
// Copyright 2026 ViewLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()

	if cfg.Level != "info" {
		t.Errorf("expected default level 'info', got '%s'", cfg.Level)
	}
	if cfg.Format != "json" {
		t.Errorf("expected default format 'json', got '%s'", cfg.Format)
	}
	if cfg.Caller {
		t.Error("expected default caller to be false")
	}
	if !cfg.Timestamp {
		t.Error("expected default timestamp to be true")
	}
}

func TestInit(t *testing.T) {
	var buf bytes.Buffer

	Init(Config{
		Level:     "debug",
		Format:    "json",
		Timestamp: true,
		Output:    &buf,
	})

	Info().Msg("test message")

	output := buf.String()
	if !strings.Contains(output, "test message") {
		t.Errorf("expected output to contain 'test message', got: %s", output)
	}
	if !strings.Contains(output, `"level":"info"`) {
		t.Errorf("expected output to contain level, got: %s", output)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"disabled", zerolog.Disabled},
		{"INFO", zerolog.InfoLevel},
		{"invalid", zerolog.InfoLevel}, // default
		{"", zerolog.InfoLevel},        // empty
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := parseLevel(tt.input)
			if result != tt.expected {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestComponentLogger(t *testing.T) {
	var buf bytes.Buffer

	SetLogger(zerolog.New(&buf).With().Timestamp().Logger())
	zerolog.SetGlobalLevel(zerolog.TraceLevel)

	trackerLog := With().Str("component", "tracker").Logger()
	trackerLog.Info().Msg("flush complete")

	output := buf.String()
	if !strings.Contains(output, `"component":"tracker"`) {
		t.Errorf("expected component field in output: %s", output)
	}
}

func TestCtxFallsBackToRequestID(t *testing.T) {
	var buf bytes.Buffer

	SetLogger(zerolog.New(&buf).With().Timestamp().Logger())
	zerolog.SetGlobalLevel(zerolog.TraceLevel)

	ctx := ContextWithRequestID(context.Background(), "req-123")
	logger := Ctx(ctx)
	logger.Info().Msg("handled")

	if !strings.Contains(buf.String(), `"request_id":"req-123"`) {
		t.Errorf("expected request_id in output: %s", buf.String())
	}
}

func TestRequestIDFromContext(t *testing.T) {
	t.Parallel()

	if got := RequestIDFromContext(context.Background()); got != "" {
		t.Errorf("expected empty request ID, got %q", got)
	}

	ctx := ContextWithRequestID(context.Background(), "abc")
	if got := RequestIDFromContext(ctx); got != "abc" {
		t.Errorf("expected 'abc', got %q", got)
	}
}

func TestSlogHandler(t *testing.T) {
	var buf bytes.Buffer

	logger := zerolog.New(&buf)
	slogger := slog.New(NewSlogHandlerWithLogger(logger))

	slogger.Info("service started", "service", "http-server", "attempt", int64(2))

	output := buf.String()
	if !strings.Contains(output, "service started") {
		t.Errorf("expected message in output: %s", output)
	}
	if !strings.Contains(output, `"service":"http-server"`) {
		t.Errorf("expected string attr in output: %s", output)
	}
	if !strings.Contains(output, `"attempt":2`) {
		t.Errorf("expected int attr in output: %s", output)
	}
}

func TestSlogHandlerGroups(t *testing.T) {
	var buf bytes.Buffer

	logger := zerolog.New(&buf)
	slogger := slog.New(NewSlogHandlerWithLogger(logger)).WithGroup("supervisor")

	slogger.Warn("service backoff", "name", "tracker-flush")

	if !strings.Contains(buf.String(), `"supervisor.name":"tracker-flush"`) {
		t.Errorf("expected grouped attr in output: %s", buf.String())
	}
}

func TestNewTestLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewTestLogger(&buf)
	logger.Info().Msg("captured")

	if !strings.Contains(buf.String(), "captured") {
		t.Errorf("expected captured output, got: %s", buf.String())
	}
}
