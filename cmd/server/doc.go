// EcoPods - Collaborative Sustainability Tracking
// Copyright 2026 EcoPods contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ecopods/server

/*
Package main is the entry point for the EcoPods realtime server.

EcoPods is a collaborative sustainability tracking platform. This server is
its realtime layer: it manages pod, challenge, and personal rooms, tracks
who is online, and fans out typed events (tentacle updates, challenge
progress, activities, typing indicators, notifications) to room members
over websockets.

# Application Architecture

The server implements a layered architecture with Suture v4 process
supervision:

	RootSupervisor ("ecopods")
	├── RealtimeSupervisor ("realtime-layer")
	│   └── Hub (rooms, sessions, event fan-out)
	└── APISupervisor ("api-layer")
	    └── HTTP Server (websocket gate, presence, auth, health)

Component initialization order:

 1. Configuration: Koanf v2 with environment variables and config files
 2. Logging: zerolog with JSON/console output modes
 3. Hub: room registry and broadcast loop
 4. Authentication: JWT, remote verifier, or no-auth mode
 5. HTTP router: Chi with CORS, rate limiting, and Prometheus metrics
 6. Supervisor tree: Suture v4 process supervision

# Configuration

Configuration is loaded via Koanf v2 with layered sources (highest
priority wins):

	Priority: Environment variables > Config file > Defaults

Core environment variables:

	# Server
	PORT=8080                    # HTTP server port
	LOG_LEVEL=info               # trace, debug, info, warn, error
	LOG_FORMAT=json              # json or console

	# Authentication (choose one mode)
	AUTH_MODE=jwt                # jwt, remote, or none
	JWT_SECRET=<32+ chars>       # Required for JWT mode
	ADMIN_USERNAME=admin
	ADMIN_PASSWORD_HASH=<bcrypt> # bcrypt hash of the admin password

	# Remote verification (AUTH_MODE=remote)
	REMOTE_VERIFIER_URL=http://accounts:9000/verify

# Signal Handling

The server handles graceful shutdown on SIGINT and SIGTERM:

 1. Stops accepting new HTTP connections
 2. Closes all websocket sessions
 3. Waits for in-flight requests (configurable timeout)
 4. Reports any services that failed to stop

# Usage Examples

Development (no auth):

	export AUTH_MODE=none
	go run ./cmd/server

Production (JWT):

	export AUTH_MODE=jwt
	export JWT_SECRET=$(openssl rand -base64 32)
	export ADMIN_USERNAME=admin
	export ADMIN_PASSWORD_HASH=$(htpasswd -bnBC 10 "" secret | tr -d ':\n')
	./ecopods-server

# See Also

  - internal/config: Configuration management
  - internal/supervisor: Process supervision
  - internal/api: HTTP handlers and routing
  - internal/realtime: Rooms, presence, and event fan-out
*/
package main
