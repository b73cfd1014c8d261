// EcoPods - Collaborative Sustainability Tracking
// Copyright 2026 EcoPods contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ecopods/server

package auth

import (
	"context"
	"net/http"
	"strings"
)

// Identity is the verified result of a credential check.
type Identity struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// Verifier resolves a bearer credential to an identity. Implementations:
// JWTVerifier (local HS256 tokens), RemoteVerifier (external identity
// service), and NoneVerifier (development).
type Verifier interface {
	Verify(ctx context.Context, credential string) (*Identity, error)
}

// ExtractToken pulls the bearer credential from a request. The Authorization
// header wins; the "token" query parameter is the fallback for browser
// websocket clients, which cannot set custom handshake headers.
func ExtractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			token := strings.TrimSpace(parts[1])
			if token != "" {
				return token
			}
		}
	}

	return r.URL.Query().Get("token")
}

// NoneVerifier admits every connection with a synthetic identity derived
// from the credential string. Development only; config validation rejects
// auth_mode none in production.
type NoneVerifier struct{}

// Verify returns a synthetic identity without checking the credential.
func (NoneVerifier) Verify(_ context.Context, credential string) (*Identity, error) {
	name := credential
	if name == "" {
		name = "anonymous"
	}
	return &Identity{UserID: "dev-" + name, Username: name}, nil
}
