// EcoPods - Collaborative Sustainability Tracking
// Copyright 2026 EcoPods contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ecopods/server

package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/ecopods/server/internal/logging"
	"github.com/ecopods/server/internal/metrics"
	"github.com/ecopods/server/internal/models"
)

type identityContextKey struct{}

// ContextWithIdentity stores a verified identity in the context.
func ContextWithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, identity)
}

// IdentityFromContext returns the verified identity for the request, or nil.
func IdentityFromContext(ctx context.Context) *Identity {
	if identity, ok := ctx.Value(identityContextKey{}).(*Identity); ok {
		return identity
	}
	return nil
}

// Middleware authenticates REST requests using a Verifier.
type Middleware struct {
	verifier Verifier
}

// NewMiddleware creates authentication middleware around the given verifier.
func NewMiddleware(verifier Verifier) *Middleware {
	return &Middleware{verifier: verifier}
}

// Authenticate verifies the request's bearer credential and attaches the
// identity to the request context. Requests without a valid credential get
// a 401 JSON error.
func (m *Middleware) Authenticate(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := ExtractToken(r)
		if token == "" {
			metrics.RecordAuthFailure("missing")
			writeAuthError(w, "missing credentials")
			return
		}

		identity, err := m.verifier.Verify(r.Context(), token)
		if err != nil {
			reason := "invalid"
			if errors.Is(err, ErrExpiredCredentials) {
				reason = "expired"
			}
			metrics.RecordAuthFailure(reason)
			logging.Ctx(r.Context()).Warn().Str("reason", reason).Msg("request authentication failed")
			writeAuthError(w, "authentication failed")
			return
		}

		next(w, r.WithContext(ContextWithIdentity(r.Context(), identity)))
	}
}

// SecurityHeaders adds security headers to all responses. The server only
// speaks JSON and websocket frames, so the CSP denies everything.
func (m *Middleware) SecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

		// Prevent clickjacking
		w.Header().Set("X-Frame-Options", "DENY")

		// Prevent MIME type sniffing
		w.Header().Set("X-Content-Type-Options", "nosniff")

		// Referrer policy
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		// HSTS (only if using HTTPS - check X-Forwarded-Proto)
		if r.Header.Get("X-Forwarded-Proto") == "https" || r.TLS != nil {
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		// Permissions policy (restrict unnecessary browser features)
		w.Header().Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")

		next(w, r)
	}
}

// writeAuthError sends a 401 in the API error envelope.
func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)

	resp := models.APIResponse{
		Status:   "error",
		Metadata: models.Metadata{Timestamp: time.Now()},
		Error: &models.APIError{
			Code:    "AUTHENTICATION_ERROR",
			Message: message,
		},
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logging.Error().Err(err).Msg("failed to write auth error response")
	}
}
