// EcoPods - Collaborative Sustainability Tracking
// Copyright 2026 EcoPods contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ecopods/server

/*
Package config provides centralized configuration management for the EcoPods server.

Configuration is loaded via Koanf v2 with layered sources, highest
priority last:

 1. Built-in defaults (struct provider)
 2. Optional YAML config file (ECOPODS_CONFIG or ./config.yaml)
 3. Environment variables, e.g. SECURITY_JWT_SECRET -> security.jwt_secret

# Configuration Structure

The package organizes configuration into logical groups:

  - ServerConfig: HTTP server settings (host, port, timeouts, environment)
  - SecurityConfig: auth mode, JWT, admin credentials, CORS, rate limits
  - RealtimeConfig: websocket buffers, deadlines, and per-session rate limits
  - LoggingConfig: zerolog level, format, and caller reporting
  - SupervisorConfig: suture failure thresholds and shutdown timeout

# Validation

Loaded configuration passes through struct-tag validation
(go-playground/validator) and cross-field checks in Validate. Production
environments reject auth_mode none and require a 32+ character JWT secret
when jwt mode is selected. The admin password is configured as a bcrypt
hash (security.admin_password_hash); plaintext passwords never appear in
configuration.
*/
package config
