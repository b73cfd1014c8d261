// EcoPods - Collaborative Sustainability Tracking
// Copyright 2026 EcoPods contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ecopods/server

// Package logging provides centralized zerolog-based structured logging for EcoPods.
//
// This package implements a unified logging layer using zerolog, providing
// zero-allocation structured JSON logging for production and human-readable
// console output for development.
//
// # Overview
//
// The package provides:
//   - Zero-allocation structured logging via zerolog
//   - JSON output format for production (machine-parseable)
//   - Console output format for development (human-readable)
//   - Context-aware logging with request ID propagation
//   - slog adapter for Suture v4 integration (sutureslog)
//
// # Quick Start
//
//	// Initialize at application startup
//	logging.Init(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	    Caller: false,
//	})
//
//	// Log messages with structured fields
//	logging.Info().Str("room", room.String()).Msg("session joined")
//	logging.Error().Err(err).Msg("websocket upgrade error")
//
//	// Context-aware logging (request id attached by middleware)
//	logging.Ctx(ctx).Warn().Str("reason", reason).Msg("authentication failed")
//
// # Test Usage
//
// Tests initialize the package with a discarded writer in an init func:
//
//	logging.Init(logging.Config{Level: "info", Format: "console", Output: io.Discard})
package logging
