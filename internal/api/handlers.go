// EcoPods - Collaborative Sustainability Tracking
// Copyright 2026 EcoPods contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ecopods/server

package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ecopods/server/internal/auth"
	"github.com/ecopods/server/internal/config"
	"github.com/ecopods/server/internal/logging"
	"github.com/ecopods/server/internal/realtime"
)

// Handler holds the dependencies for all HTTP handlers.
type Handler struct {
	cfg        *config.Config
	hub        *realtime.Hub
	verifier   auth.Verifier
	jwtManager *auth.JWTManager
	startTime  time.Time
}

// NewHandler creates a handler. jwtManager may be nil when AuthMode is not
// "jwt", in which case the login endpoint is disabled.
func NewHandler(cfg *config.Config, hub *realtime.Hub, verifier auth.Verifier, jwtManager *auth.JWTManager) *Handler {
	return &Handler{
		cfg:        cfg,
		hub:        hub,
		verifier:   verifier,
		jwtManager: jwtManager,
		startTime:  time.Now(),
	}
}

// getUpgrader creates a WebSocket upgrader with origin checking and a
// handshake timeout.
func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin validates WebSocket connection origins. Non-browser
// clients (the connector, CLI tools) omit the Origin header entirely and
// are allowed; a browser always sends one, and it must match the CORS
// allowlist.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	if h.cfg == nil {
		return true
	}

	for _, allowed := range h.cfg.Security.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket connection rejected from unauthorized origin")
	return false
}
