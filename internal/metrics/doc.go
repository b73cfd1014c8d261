// EcoPods - Collaborative Sustainability Tracking
// Copyright 2026 EcoPods contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ecopods/server

/*
Package metrics provides Prometheus metrics collection and export for observability.

This package instruments the realtime layer and the HTTP API using the
Prometheus client library via promauto, so metrics register themselves on
import.

# Metrics Endpoint

Metrics are exposed at the /metrics endpoint in Prometheus text format:

	curl http://localhost:8080/metrics

# Available Metrics

Websocket metrics:
  - ecopods_ws_connections_active: currently connected sessions (gauge)
  - ecopods_ws_connections_total: admitted sessions (counter)
  - ecopods_ws_rooms_active: non-empty rooms by kind (gauge)
    Labels: kind (pod, challenge, personal)
  - ecopods_ws_events_received_total: events received from clients (counter)
    Labels: kind
  - ecopods_ws_events_broadcast_total: events fanned out to members (counter)
    Labels: kind
  - ecopods_ws_events_dropped_total: events dropped before delivery (counter)
    Labels: reason (slow_consumer, rate_limited, invalid_payload, unknown_kind)

Auth metrics:
  - ecopods_auth_failures_total: failed authentication attempts (counter)
    Labels: reason (missing, invalid, expired)

HTTP metrics:
  - ecopods_api_request_duration_seconds: request latency (histogram)
    Labels: method, endpoint, status
  - ecopods_api_requests_total: total requests (counter)
    Labels: method, endpoint, status
  - ecopods_api_active_requests: in-flight requests (gauge)

# Cardinality

Label values are bounded: kinds come from the fixed event taxonomy, status
uses the 2xx/4xx/5xx class via StatusLabel, and endpoints are route
patterns, not raw paths. No user or room identifiers ever become labels.

# Usage

Record helpers hide the underlying collector types:

	metrics.RecordSessionConnected()
	metrics.RecordEventBroadcast("tentacle-updated", delivered)
	metrics.RecordEventDropped("slow_consumer")

The websocket route itself is not wrapped in the HTTP middleware because
the metrics response writer does not implement http.Hijacker.
*/
package metrics
