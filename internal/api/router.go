// ViewLens - Viewer Interaction Tracking and Channel Personalization
// Copyright 2026 ViewLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router wires handlers and middleware into the Chi route tree.
type Router struct {
	handler    *Handler
	middleware *Middleware
}

// NewRouter creates a router from the handler set and middleware factory.
func NewRouter(handler *Handler, middleware *Middleware) *Router {
	if middleware == nil {
		middleware = NewMiddleware(nil)
	}
	return &Router{
		handler:    handler,
		middleware: middleware,
	}
}

// Setup configures all HTTP routes.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to all routes in order.
	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.middleware.CORS())

	// Health endpoints get permissive rate limiting so monitoring can
	// probe frequently.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.middleware.RateLimitHealth())
		r.Use(SecurityHeaders())
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
	})

	// Prometheus scrape endpoint. No rate limit: scrapers poll on
	// fixed intervals and the handler is cheap.
	r.Handle("/metrics", promhttp.Handler())

	// Core API endpoints.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.middleware.RateLimit())
		r.Use(SecurityHeaders())
		r.Use(PrometheusMetrics())

		// Event ingestion and session lifecycle.
		r.Post("/events", router.handler.TrackEvent)
		r.Post("/events/batch", router.handler.TrackEventBatch)
		r.Post("/events/flush", router.handler.FlushEvents)
		r.Get("/session", router.handler.Session)
		r.Post("/session/end", router.handler.EndSession)
		r.Post("/lifecycle/background", router.handler.EnterBackground)
		r.Post("/lifecycle/foreground", router.handler.EnterForeground)
		r.Put("/tracking/enabled", router.handler.SetTrackingEnabled)

		// Personalization.
		r.Route("/users/{userID}", func(r chi.Router) {
			r.Get("/recommendations", router.handler.Recommendations)
			r.Get("/recommendations/content", router.handler.ContentRecommendations)
			r.Post("/recommendations/refresh", router.handler.RefreshRecommendations)
			r.Get("/preferences", router.handler.Preferences)
			r.Put("/preferences", router.handler.SetPreferences)
		})
	})

	return r
}
