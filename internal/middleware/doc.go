// EcoPods - Collaborative Sustainability Tracking
// Copyright 2026 EcoPods contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ecopods/server

/*
Package middleware provides HTTP middleware components for the application.

This package implements infrastructure middleware for request ID tracking
and Prometheus metrics integration. These sit alongside the chi ecosystem
middleware (CORS, rate limiting, RealIP, Recoverer) wired in internal/api.

Key Components:

  - Request ID: UUID-based request tracking attached to the context and
    the X-Request-ID response header; logging.Ctx picks it up so every
    log line for a request carries the same id
  - Prometheus Metrics: HTTP request/response instrumentation recording
    latency, counts, and in-flight requests

Usage:

	r.Use(chiMiddleware(middleware.RequestID))
	group.Use(chiMiddleware(middleware.PrometheusMetrics))

The Prometheus wrapper's response writer does not implement http.Hijacker,
so the websocket upgrade route must be registered outside any group that
uses it.
*/
package middleware
