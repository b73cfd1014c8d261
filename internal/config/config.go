// EcoPods - Collaborative Sustainability Tracking
// Copyright 2026 EcoPods contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ecopods/server

package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the EcoPods server.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Security   SecurityConfig   `koanf:"security"`
	Realtime   RealtimeConfig   `koanf:"realtime"`
	Logging    LoggingConfig    `koanf:"logging"`
	Supervisor SupervisorConfig `koanf:"supervisor"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"gte=1,lte=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	// Environment is "development" or "production". Production enforces the
	// stricter checks in Validate.
	Environment string `koanf:"environment" validate:"oneof=development production"`
}

// SecurityConfig holds authentication and rate-limiting settings.
type SecurityConfig struct {
	// AuthMode selects how realtime credentials are verified:
	//   jwt    - tokens are issued and verified locally (JWT_SECRET required)
	//   remote - tokens are verified by an external identity service
	//   none   - development only; every connection gets a synthetic identity
	AuthMode string `koanf:"auth_mode" validate:"oneof=jwt remote none"`

	JWTSecret      string        `koanf:"jwt_secret"`
	SessionTimeout time.Duration `koanf:"session_timeout"`

	// AdminPasswordHash is a bcrypt hash, never the plaintext password.
	AdminUsername     string `koanf:"admin_username"`
	AdminPasswordHash string `koanf:"admin_password_hash"`

	RemoteVerifierURL     string        `koanf:"remote_verifier_url"`
	RemoteVerifierTimeout time.Duration `koanf:"remote_verifier_timeout"`

	CORSOrigins []string `koanf:"cors_origins"`

	RateLimitReqs   int           `koanf:"rate_limit_reqs" validate:"gte=1"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
	LoginRateReqs   int           `koanf:"login_rate_reqs" validate:"gte=1"`
	LoginRateWindow time.Duration `koanf:"login_rate_window"`
}

// RealtimeConfig holds tunables for the websocket presence layer.
type RealtimeConfig struct {
	// SendBuffer is the per-session outbound channel capacity. A session
	// that falls this far behind is dropped as a slow consumer.
	SendBuffer int `koanf:"send_buffer" validate:"gte=1"`

	MaxMessageSize int64         `koanf:"max_message_size" validate:"gte=512"`
	WriteWait      time.Duration `koanf:"write_wait"`
	PongWait       time.Duration `koanf:"pong_wait"`

	// EventRate and EventBurst bound how fast a single session may submit
	// events. Excess events are dropped, not fatal to the connection.
	EventRate  float64 `koanf:"event_rate" validate:"gt=0"`
	EventBurst int     `koanf:"event_burst" validate:"gte=1"`
}

// PingPeriod derives the keepalive interval from PongWait. Pings must be
// sent more often than the pong deadline or healthy connections get reaped.
func (r RealtimeConfig) PingPeriod() time.Duration {
	return (r.PongWait * 9) / 10
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// SupervisorConfig holds suture supervision tunables.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold"`
	FailureDecay     float64       `koanf:"failure_decay"`
	FailureBackoff   time.Duration `koanf:"failure_backoff"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout"`
}

// minJWTSecretLen is the minimum secret length accepted for HS256 signing.
const minJWTSecretLen = 32

// Validate checks cross-field constraints that struct tags cannot express.
// Tag-level validation runs first via the validation package in LoadWithKoanf.
func (c *Config) Validate() error {
	switch c.Security.AuthMode {
	case "jwt":
		if len(c.Security.JWTSecret) < minJWTSecretLen {
			return fmt.Errorf("security.jwt_secret must be at least %d characters when auth_mode is jwt", minJWTSecretLen)
		}
	case "remote":
		if c.Security.RemoteVerifierURL == "" {
			return fmt.Errorf("security.remote_verifier_url is required when auth_mode is remote")
		}
	case "none":
		if c.Server.Environment == "production" {
			return fmt.Errorf("auth_mode none is not allowed in production")
		}
	}

	if c.Realtime.PongWait <= c.Realtime.WriteWait {
		return fmt.Errorf("realtime.pong_wait (%s) must exceed realtime.write_wait (%s)",
			c.Realtime.PongWait, c.Realtime.WriteWait)
	}

	return nil
}
