// EcoPods - Collaborative Sustainability Tracking
// Copyright 2026 EcoPods contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ecopods/server

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ecopods/server/internal/auth"
	"github.com/ecopods/server/internal/logging"
	"github.com/ecopods/server/internal/metrics"
	"github.com/ecopods/server/internal/models"
	"github.com/ecopods/server/internal/realtime"
)

// WebSocket is the connection gate for the realtime layer. The bearer
// credential is verified before the upgrade; a request that fails
// verification gets a plain 401 and never becomes a session, so no partial
// admission is possible.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		logging.Warn().Msg("WebSocket connection rejected: hub not initialized")
		respondError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Realtime service unavailable", nil)
		return
	}

	token := auth.ExtractToken(r)
	if token == "" {
		metrics.RecordAuthFailure("missing")
		respondError(w, http.StatusUnauthorized, "AUTHENTICATION_ERROR", "Missing credentials", nil)
		return
	}

	identity, err := h.verifier.Verify(r.Context(), token)
	if err != nil {
		reason := "invalid"
		if errors.Is(err, auth.ErrExpiredCredentials) {
			reason = "expired"
		}
		metrics.RecordAuthFailure(reason)
		logging.Ctx(r.Context()).Warn().Str("reason", reason).Msg("websocket authentication failed")
		respondError(w, http.StatusUnauthorized, "AUTHENTICATION_ERROR", "Authentication failed", nil)
		return
	}

	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error().Err(err).Msg("WebSocket upgrade error")
		return
	}

	session := realtime.NewSession(h.hub, conn, *identity)
	h.hub.Register <- session
	session.Start()
}

// PodPresence answers "who is online" for a pod.
func (h *Handler) PodPresence(w http.ResponseWriter, r *http.Request) {
	podID := chi.URLParam(r, "podID")
	if podID == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Missing pod id", nil)
		return
	}

	members := h.hub.OnlineMembers(realtime.PodRoom(podID))

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"podId":         podID,
			"onlineMembers": members,
			"totalOnline":   len(members),
		},
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}
