// EcoPods - Collaborative Sustainability Tracking
// Copyright 2026 EcoPods contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ecopods/server

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ecopods/server/internal/api"
	"github.com/ecopods/server/internal/auth"
	"github.com/ecopods/server/internal/config"
	"github.com/ecopods/server/internal/logging"
	"github.com/ecopods/server/internal/realtime"
	"github.com/ecopods/server/internal/supervisor"
	"github.com/ecopods/server/internal/supervisor/services"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		// Use default logger for config errors (config not yet available)
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize zerolog with configuration
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("auth_mode", cfg.Security.AuthMode).
		Msg("Starting EcoPods realtime server")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The hub owns all rooms and sessions. It is created before the HTTP
	// layer so handlers can hand admitted connections to it.
	hub := realtime.NewHub(cfg.Realtime)

	verifier, jwtManager, err := buildVerifier(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize authentication")
	}

	handler := api.NewHandler(cfg, hub, verifier, jwtManager)
	router := api.NewRouter(cfg, handler, verifier)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Create structured logger for supervisor using our slog adapter.
	// This bridges zerolog to slog for sutureslog compatibility.
	slogLogger := logging.NewSlogLogger()

	tree, err := supervisor.NewSupervisorTree(slogLogger, supervisor.TreeConfig{
		FailureThreshold: cfg.Supervisor.FailureThreshold,
		FailureDecay:     cfg.Supervisor.FailureDecay,
		FailureBackoff:   cfg.Supervisor.FailureBackoff,
		ShutdownTimeout:  cfg.Supervisor.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddRealtimeService(services.NewHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("Services added to supervisor tree")

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	// Wait for supervisor to finish (either from signal or error)
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Wait for the error channel to close (supervisor finished)
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	// Report any services that failed to stop within timeout
	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}

// buildVerifier constructs the credential verifier for the configured auth
// mode. For jwt mode it also returns the manager so the login endpoint can
// issue tokens; other modes return a nil manager and login is disabled.
func buildVerifier(cfg *config.Config) (auth.Verifier, *auth.JWTManager, error) {
	switch cfg.Security.AuthMode {
	case "jwt":
		jwtManager, err := auth.NewJWTManager(&cfg.Security)
		if err != nil {
			return nil, nil, err
		}
		logging.Info().Msg("JWT authentication enabled")
		return auth.NewJWTVerifier(jwtManager), jwtManager, nil

	case "remote":
		verifier := auth.NewRemoteVerifier(
			cfg.Security.RemoteVerifierURL,
			cfg.Security.RemoteVerifierTimeout,
		)
		logging.Info().
			Str("url", cfg.Security.RemoteVerifierURL).
			Msg("Remote credential verification enabled")
		return verifier, nil, nil

	case "none":
		logging.Warn().Msg("============================================================")
		logging.Warn().Msg("  SECURITY WARNING: Authentication is DISABLED (AUTH_MODE=none)")
		logging.Warn().Msg("  ")
		logging.Warn().Msg("  Every websocket connection is admitted with a synthetic")
		logging.Warn().Msg("  identity derived from the supplied credential string.")
		logging.Warn().Msg("  This mode should ONLY be used for:")
		logging.Warn().Msg("    - Local development")
		logging.Warn().Msg("    - Completely isolated private networks")
		logging.Warn().Msg("    - CI/CD testing environments")
		logging.Warn().Msg("  ")
		logging.Warn().Msg("  NEVER use AUTH_MODE=none in production or on public networks!")
		logging.Warn().Msg("============================================================")
		return auth.NoneVerifier{}, nil, nil

	default:
		return nil, nil, fmt.Errorf("unknown auth mode: %q", cfg.Security.AuthMode)
	}
}
