// EcoPods - Collaborative Sustainability Tracking
// Copyright 2026 EcoPods contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ecopods/server

package api

import (
	"net/http"
	"time"

	"github.com/ecopods/server/internal/models"
)

// Health reports overall service health: process uptime, hub availability,
// and current realtime load.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	hubReady := h.hub != nil

	status := "healthy"
	if !hubReady {
		status = "degraded"
	}

	sessions := 0
	if hubReady {
		sessions = h.hub.SessionCount()
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"status":          status,
			"hub_ready":       hubReady,
			"active_sessions": sessions,
			"uptime":          time.Since(h.startTime).Seconds(),
		},
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}

// HealthLive handles liveness probe requests (Kubernetes-style). Returns
// 200 OK if the process is alive, regardless of dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"alive":  true,
			"uptime": time.Since(h.startTime).Seconds(),
		},
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}

// HealthReady handles readiness probe requests. Ready means the hub is
// running and able to admit sessions.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ready := h.hub != nil

	statusCode := http.StatusOK
	status := "ready"
	if !ready {
		statusCode = http.StatusServiceUnavailable
		status = "not_ready"
	}

	respondJSON(w, statusCode, &models.APIResponse{
		Status: status,
		Data: map[string]interface{}{
			"hub_ready":      ready,
			"ready_to_serve": ready,
			"uptime":         time.Since(h.startTime).Seconds(),
		},
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}
