// EcoPods - Collaborative Sustainability Tracking
// Copyright 2026 EcoPods contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ecopods/server

package auth

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/ecopods/server/internal/config"
	"github.com/ecopods/server/internal/logging"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{Level: "info", Format: "json", Output: io.Discard})
}

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestManager(t *testing.T, timeout time.Duration) *JWTManager {
	t.Helper()
	manager, err := NewJWTManager(&config.SecurityConfig{
		JWTSecret:      testSecret,
		SessionTimeout: timeout,
	})
	if err != nil {
		t.Fatalf("NewJWTManager failed: %v", err)
	}
	return manager
}

func TestNewJWTManager_EmptySecret(t *testing.T) {
	if _, err := NewJWTManager(&config.SecurityConfig{}); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestJWTManager_RoundTrip(t *testing.T) {
	manager := newTestManager(t, time.Hour)

	token, err := manager.GenerateToken("user-42", "ada")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	claims, err := manager.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.UserID != "user-42" {
		t.Errorf("expected user-42, got %q", claims.UserID)
	}
	if claims.Username != "ada" {
		t.Errorf("expected ada, got %q", claims.Username)
	}
}

func TestJWTManager_RejectsTampering(t *testing.T) {
	manager := newTestManager(t, time.Hour)

	token, err := manager.GenerateToken("user-42", "ada")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	if _, err := manager.ValidateToken(token + "x"); err == nil {
		t.Error("expected error for tampered token")
	}
	if _, err := manager.ValidateToken("not.a.token"); err == nil {
		t.Error("expected error for malformed token")
	}
}

func TestJWTVerifier_Verify(t *testing.T) {
	manager := newTestManager(t, time.Hour)
	verifier := NewJWTVerifier(manager)
	ctx := context.Background()

	token, err := manager.GenerateToken("user-7", "grace")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	identity, err := verifier.Verify(ctx, token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if identity.UserID != "user-7" || identity.Username != "grace" {
		t.Errorf("unexpected identity: %+v", identity)
	}
}

func TestJWTVerifier_SentinelErrors(t *testing.T) {
	manager := newTestManager(t, time.Hour)
	verifier := NewJWTVerifier(manager)
	ctx := context.Background()

	if _, err := verifier.Verify(ctx, ""); !errors.Is(err, ErrNoCredentials) {
		t.Errorf("expected ErrNoCredentials, got %v", err)
	}

	if _, err := verifier.Verify(ctx, "garbage"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestJWTVerifier_ExpiredToken(t *testing.T) {
	// Negative timeout produces an already-expired token.
	manager := newTestManager(t, -time.Minute)
	verifier := NewJWTVerifier(manager)

	token, err := manager.GenerateToken("user-9", "joan")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	if _, err := verifier.Verify(context.Background(), token); !errors.Is(err, ErrExpiredCredentials) {
		t.Errorf("expected ErrExpiredCredentials, got %v", err)
	}
}

func TestJWTVerifier_RejectsEmptyUserID(t *testing.T) {
	manager := newTestManager(t, time.Hour)
	verifier := NewJWTVerifier(manager)

	token, err := manager.GenerateToken("", "nobody")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	if _, err := verifier.Verify(context.Background(), token); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for empty user id, got %v", err)
	}
}

func TestNoneVerifier(t *testing.T) {
	verifier := NoneVerifier{}

	identity, err := verifier.Verify(context.Background(), "tester")
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if identity.UserID != "dev-tester" || identity.Username != "tester" {
		t.Errorf("unexpected identity: %+v", identity)
	}

	identity, err = verifier.Verify(context.Background(), "")
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if identity.Username != "anonymous" {
		t.Errorf("expected anonymous fallback, got %+v", identity)
	}
}
