// EcoPods - Collaborative Sustainability Tracking
// Copyright 2026 EcoPods contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ecopods/server

package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/crypto/bcrypt"

	"github.com/ecopods/server/internal/models"
)

// LoginRequest is the login endpoint's request body.
type LoginRequest struct {
	Username string `json:"username" validate:"required,min=1,max=64"`
	Password string `json:"password" validate:"required,min=1,max=256"`
}

// LoginResponse is returned on successful authentication.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Username  string    `json:"username"`
	UserID    string    `json:"user_id"`
}

// Login authenticates the admin user and issues a JWT. The token is also
// set as an HTTP-only cookie for browser clients.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	if !h.validateAuthConfiguration(w) {
		return
	}
	if !h.authenticateCredentials(w, &req) {
		return
	}

	h.generateAndSendToken(w, r, &req)
}

// validateAuthConfiguration checks that JWT authentication is enabled.
func (h *Handler) validateAuthConfiguration(w http.ResponseWriter) bool {
	if h.cfg == nil || h.cfg.Security.AuthMode != "jwt" {
		respondError(w, http.StatusForbidden, "AUTH_DISABLED", "Authentication is disabled", nil)
		return false
	}
	if h.jwtManager == nil {
		respondError(w, http.StatusInternalServerError, "AUTH_NOT_CONFIGURED", "JWT manager not initialized", nil)
		return false
	}
	return true
}

// authenticateCredentials verifies username and password. The configured
// password is a bcrypt hash; plaintext never lives in configuration.
func (h *Handler) authenticateCredentials(w http.ResponseWriter, req *LoginRequest) bool {
	if req.Username != h.cfg.Security.AdminUsername {
		respondError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid username or password", nil)
		return false
	}
	if err := bcrypt.CompareHashAndPassword([]byte(h.cfg.Security.AdminPasswordHash), []byte(req.Password)); err != nil {
		respondError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid username or password", nil)
		return false
	}
	return true
}

// generateAndSendToken issues the JWT and writes the login response.
func (h *Handler) generateAndSendToken(w http.ResponseWriter, r *http.Request, req *LoginRequest) {
	userID := fmt.Sprintf("%s-001", req.Username)

	token, err := h.jwtManager.GenerateToken(userID, req.Username)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "TOKEN_GENERATION_FAILED", "Failed to generate authentication token", err)
		return
	}

	expiresAt := time.Now().Add(h.cfg.Security.SessionTimeout)

	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: LoginResponse{
			Token:     token,
			ExpiresAt: expiresAt,
			Username:  req.Username,
			UserID:    userID,
		},
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}
