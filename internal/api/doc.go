// EcoPods - Collaborative Sustainability Tracking
// Copyright 2026 EcoPods contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ecopods/server

/*
Package api provides HTTP routing using Chi router.

It hosts the connection gate for the realtime layer (bearer credential
verified before the websocket upgrade), the presence query endpoint, the
login endpoint, health probes, and the Prometheus metrics route.

Middleware stack (global, in order): request ID with logging context,
real IP extraction, panic recovery, CORS. Rate limiting and Prometheus
request metrics are applied per route group; the websocket route is kept
outside the metrics middleware because the response wrapper does not
implement http.Hijacker.
*/
package api
