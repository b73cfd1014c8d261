// EcoPods - Collaborative Sustainability Tracking
// Copyright 2026 EcoPods contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ecopods/server

package api

import (
	"net/http"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/ecopods/server/internal/config"
)

// chiMiddleware adapts http.HandlerFunc middleware to Chi's
// func(http.Handler) http.Handler, so the auth and metrics middleware can
// be used with r.Use().
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// ChiMiddleware builds the router's CORS and rate-limit middleware from
// configuration.
type ChiMiddleware struct {
	cfg  *config.Config
	cors func(http.Handler) http.Handler
}

// NewChiMiddleware creates middleware bound to the given configuration.
func NewChiMiddleware(cfg *config.Config) *ChiMiddleware {
	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Security.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	})

	return &ChiMiddleware{cfg: cfg, cors: corsHandler}
}

// CORS returns the configured CORS middleware. Must be global so OPTIONS
// preflight requests are handled on every route.
func (m *ChiMiddleware) CORS() func(http.Handler) http.Handler {
	return m.cors
}

// RateLimit returns IP-based rate limiting for API endpoints.
func (m *ChiMiddleware) RateLimit() func(http.Handler) http.Handler {
	return httprate.Limit(
		m.cfg.Security.RateLimitReqs,
		m.cfg.Security.RateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
	)
}

// RateLimitLogin returns the stricter limit for the login endpoint, keyed
// by real IP to stay accurate behind a reverse proxy.
func (m *ChiMiddleware) RateLimitLogin() func(http.Handler) http.Handler {
	return httprate.LimitByRealIP(
		m.cfg.Security.LoginRateReqs,
		m.cfg.Security.LoginRateWindow,
	)
}