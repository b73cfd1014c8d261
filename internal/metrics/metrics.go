// EcoPods - Collaborative Sustainability Tracking
// Copyright 2026 EcoPods contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ecopods/server

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Realtime connection metrics
	ConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ecopods_ws_connections_active",
			Help: "Number of currently connected websocket sessions",
		},
	)

	ConnectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ecopods_ws_connections_total",
			Help: "Total number of admitted websocket sessions",
		},
	)

	RoomsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ecopods_ws_rooms_active",
			Help: "Number of non-empty rooms by kind",
		},
		[]string{"kind"}, // "pod", "challenge", "personal"
	)

	// Event metrics
	EventsReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecopods_ws_events_received_total",
			Help: "Total events received from clients by kind",
		},
		[]string{"kind"},
	)

	EventsBroadcast = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecopods_ws_events_broadcast_total",
			Help: "Total events fanned out to room members by kind",
		},
		[]string{"kind"},
	)

	EventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecopods_ws_events_dropped_total",
			Help: "Total events dropped before delivery",
		},
		[]string{"reason"}, // "unknown_kind", "invalid_payload", "rate_limited", "slow_consumer"
	)

	// Authentication metrics
	AuthFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecopods_auth_failures_total",
			Help: "Total failed authentication attempts",
		},
		[]string{"reason"}, // "missing", "invalid", "expired"
	)

	// API metrics
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ecopods_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecopods_api_requests_total",
			Help: "Total API requests",
		},
		[]string{"method", "path", "status"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ecopods_api_active_requests",
			Help: "Number of API requests currently being served",
		},
	)
)

// RecordAPIRequest records latency and count for one API request.
func RecordAPIRequest(method, path, status string, duration time.Duration) {
	APIRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
	APIRequestsTotal.WithLabelValues(method, path, status).Inc()
}

// TrackActiveRequest adjusts the in-flight request gauge.
func TrackActiveRequest(start bool) {
	if start {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordSessionConnected tracks a newly admitted session.
func RecordSessionConnected() {
	ConnectionsTotal.Inc()
	ConnectionsActive.Inc()
}

// RecordSessionDisconnected tracks a closed session.
func RecordSessionDisconnected() {
	ConnectionsActive.Dec()
}

// SetRoomCount updates the room gauge for one kind.
func SetRoomCount(kind string, count int) {
	RoomsActive.WithLabelValues(kind).Set(float64(count))
}

// RecordEventReceived tracks an inbound client event.
func RecordEventReceived(kind string) {
	EventsReceived.WithLabelValues(kind).Inc()
}

// RecordEventBroadcast tracks a server-to-room fan-out. count is the number
// of member deliveries enqueued.
func RecordEventBroadcast(kind string, count int) {
	EventsBroadcast.WithLabelValues(kind).Add(float64(count))
}

// RecordEventDropped tracks an event discarded before delivery.
func RecordEventDropped(reason string) {
	EventsDropped.WithLabelValues(reason).Inc()
}

// RecordAuthFailure tracks a failed authentication attempt.
func RecordAuthFailure(reason string) {
	AuthFailures.WithLabelValues(reason).Inc()
}

// StatusLabel converts an HTTP status code to a metric label.
func StatusLabel(code int) string {
	return strconv.Itoa(code)
}
