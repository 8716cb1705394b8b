// ViewLens - Viewer Interaction Tracking and Channel Personalization
// Copyright 2026 ViewLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestSecurityHeaders(t *testing.T) {
	t.Parallel()

	handler := SecurityHeaders()(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	headers := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
	}
	for name, want := range headers {
		if got := rec.Header().Get(name); got != want {
			t.Errorf("%s = %q, want %q", name, got, want)
		}
	}
	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS set on plain HTTP request")
	}
}

func TestSecurityHeadersHSTSBehindProxy(t *testing.T) {
	t.Parallel()

	handler := SecurityHeaders()(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Header().Get("Strict-Transport-Security") == "" {
		t.Error("HSTS missing for forwarded HTTPS request")
	}
}

func TestRequestIDWithLogging(t *testing.T) {
	t.Parallel()

	handler := RequestIDWithLogging()(okHandler())

	// Generated when absent.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID not generated")
	}

	// Preserved when supplied.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)
	req.Header.Set("X-Request-ID", "client-id-1")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "client-id-1" {
		t.Errorf("X-Request-ID = %q, want client-id-1", got)
	}
}

func TestRateLimitRejectsOverLimit(t *testing.T) {
	t.Parallel()

	cfg := DefaultMiddlewareConfig()
	cfg.RateLimitRequests = 2
	cfg.RateLimitWindow = time.Minute
	mw := NewMiddleware(cfg)
	handler := mw.RateLimit()(okHandler())

	var last int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("third request status = %d, want 429", last)
	}
}

func TestRateLimitDisabled(t *testing.T) {
	t.Parallel()

	cfg := DefaultMiddlewareConfig()
	cfg.RateLimitRequests = 1
	cfg.RateLimitDisabled = true
	mw := NewMiddleware(cfg)
	handler := mw.RateLimit()(okHandler())

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i, rec.Code)
		}
	}
}

func TestGenerateETagStable(t *testing.T) {
	t.Parallel()

	a := generateETag([]byte("payload"))
	b := generateETag([]byte("payload"))
	c := generateETag([]byte("different"))
	if a != b {
		t.Error("same payload produced different ETags")
	}
	if a == c {
		t.Error("different payloads produced identical ETags")
	}
}

func TestSanitizeLogValue(t *testing.T) {
	t.Parallel()

	got := sanitizeLogValue("line1\nline2\ttab")
	if got != "line1\\x0aline2\\x09tab" {
		t.Errorf("sanitizeLogValue = %q", got)
	}
}
