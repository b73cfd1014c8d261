// EcoPods - Collaborative Sustainability Tracking
// Copyright 2026 EcoPods contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ecopods/server

package api

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/ecopods/server/internal/auth"
	"github.com/ecopods/server/internal/config"
	"github.com/ecopods/server/internal/logging"
	"github.com/ecopods/server/internal/realtime"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "info",
		Format: "console",
		Output: io.Discard,
	})
}

const testSecret = "0123456789abcdef0123456789abcdef"
const testPassword = "correct-horse-battery"

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}

	return &config.Config{
		Server: config.ServerConfig{
			Host: "127.0.0.1", Port: 8080, Environment: "development",
		},
		Security: config.SecurityConfig{
			AuthMode:          "jwt",
			JWTSecret:         testSecret,
			SessionTimeout:    time.Hour,
			AdminUsername:     "admin",
			AdminPasswordHash: string(hash),
			CORSOrigins:       []string{"*"},
			RateLimitReqs:     1000,
			RateLimitWindow:   time.Minute,
			LoginRateReqs:     1000,
			LoginRateWindow:   time.Minute,
		},
		Realtime: config.RealtimeConfig{
			SendBuffer:     256,
			MaxMessageSize: 512 * 1024,
			WriteWait:      10 * time.Second,
			PongWait:       60 * time.Second,
			EventRate:      100,
			EventBurst:     100,
		},
	}
}

// newTestServer wires a full stack: hub, JWT verifier, handler, router.
func newTestServer(t *testing.T) (*httptest.Server, *realtime.Hub, *auth.JWTManager) {
	t.Helper()
	cfg := testConfig(t)

	hub := realtime.NewHub(cfg.Realtime)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = hub.RunWithContext(ctx) }()

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}
	verifier := auth.NewJWTVerifier(jwtManager)
	handler := NewHandler(cfg, hub, verifier, jwtManager)
	router := NewRouter(cfg, handler, verifier)

	srv := httptest.NewServer(router.Setup())
	t.Cleanup(srv.Close)

	return srv, hub, jwtManager
}
